package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/plugindocs/internal/config"
	"git.home.luguber.info/inful/plugindocs/internal/foundation/errors"
	"git.home.luguber.info/inful/plugindocs/internal/metrics"
	"git.home.luguber.info/inful/plugindocs/internal/resolve"
)

// CheckCmd implements the 'check' command.
type CheckCmd struct {
	Repo []string `arg:"" optional:"" help:"Repositories (owner/name) to check; all configured sources when empty"`
	Tag  string   `help:"Check this tag instead of the configured version (requires exactly one repo)"`
	Zip  string   `help:"Validate a local docs archive instead of fetching (requires exactly one repo)"`
}

func (c *CheckCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	sources, err := config.LoadSources(cfg.SourcesFile)
	if err != nil {
		return err
	}
	selected, err := c.selectSources(sources)
	if err != nil {
		return err
	}

	rt := newRuntime(cfg, g.Logger)
	defer rt.close()
	r := rt.resolver(cfg, g.Logger, resolve.OptionsFromConfig(cfg))

	reports := make([]resolve.SourceReport, len(selected))
	eg := new(errgroup.Group)
	eg.SetLimit(cfg.Concurrency)
	for i, src := range selected {
		eg.Go(func() error {
			_, reports[i] = r.ResolveSource(ctx, src)
			return nil
		})
	}
	_ = eg.Wait()

	var failures []string
	for _, rep := range reports {
		fmt.Fprintf(os.Stdout, "%-8s %s@%s [%s]\n", rep.Outcome, rep.Repo, rep.Version, strings.Join(rep.Components, ", "))
		for _, line := range rep.Summary() {
			fmt.Fprintf(os.Stdout, "    %s\n", line)
		}
		if rep.Outcome == metrics.SourceFailed {
			failures = append(failures, rep.Summary()...)
		}
	}
	if len(failures) > 0 {
		return errors.ResolutionError(fmt.Sprintf("%d of %d plugin sources failed the check", countFailed(reports), len(reports))).
			WithContext("failures", failures).
			Build()
	}
	return nil
}

func (c *CheckCmd) selectSources(all []config.Source) ([]config.Source, error) {
	if (c.Tag != "" || c.Zip != "") && len(c.Repo) != 1 {
		return nil, errors.ConfigError("--tag and --zip need exactly one repository").Build()
	}
	if len(c.Repo) == 0 {
		return all, nil
	}
	byRepo := make(map[string]config.Source, len(all))
	for _, s := range all {
		byRepo[s.Repo] = s
	}
	var (
		out     []config.Source
		unknown []string
	)
	for _, repo := range c.Repo {
		src, ok := byRepo[repo]
		if !ok {
			unknown = append(unknown, repo)
			continue
		}
		if c.Tag != "" {
			src.Version = c.Tag
		}
		if c.Zip != "" {
			src.ZipFile = c.Zip
		}
		out = append(out, src)
	}
	if len(unknown) > 0 {
		return nil, errors.ConfigError("repositories are not configured as plugin sources").
			WithContext("invalid_paths", unknown).
			Build()
	}
	return out, nil
}

func countFailed(reports []resolve.SourceReport) int {
	n := 0
	for _, r := range reports {
		if r.Outcome == metrics.SourceFailed {
			n++
		}
	}
	return n
}
