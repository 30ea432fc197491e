// Package resolve builds the merged navigation tree: it resolves every
// configured plugin source concurrently, applies the mode's failure policy
// and merges the resulting entries into the local tree.
package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/plugindocs/internal/archive"
	"git.home.luguber.info/inful/plugindocs/internal/cache"
	"git.home.luguber.info/inful/plugindocs/internal/config"
	"git.home.luguber.info/inful/plugindocs/internal/fetch"
	"git.home.luguber.info/inful/plugindocs/internal/foundation/errors"
	"git.home.luguber.info/inful/plugindocs/internal/logfields"
	"git.home.luguber.info/inful/plugindocs/internal/metrics"
	"git.home.luguber.info/inful/plugindocs/internal/nav"
	"git.home.luguber.info/inful/plugindocs/internal/normalize"
)

// Options controls a Resolver.
type Options struct {
	Mode         config.Mode
	DocsRoot     string
	GitHubBase   string
	TrustedOwner string
	// Concurrency bounds how many sources resolve at once.
	Concurrency int
	// CurrentPath, when set, keeps remote contents only on the leaf with this
	// url path.
	CurrentPath string
}

// OptionsFromConfig maps the tool configuration onto resolver options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Mode:         cfg.Mode,
		DocsRoot:     cfg.DocsRoot,
		GitHubBase:   cfg.GitHub.BaseURL,
		TrustedOwner: cfg.TrustedOwner,
		Concurrency:  cfg.Concurrency,
	}
}

// Result is a merged tree and the report of the run that built it.
type Result struct {
	Tree   []*nav.Node
	Report *Report
}

// Resolver resolves plugin sources. Fetched and parsed archives are memoized
// for the lifetime of the Resolver, so one Resolver should serve one run (or
// one preview session that accepts stale archives until it is rebuilt).
type Resolver struct {
	opts     Options
	fetcher  fetch.Fetcher
	archives *cache.Memo[*loaded]
	recorder metrics.Recorder
	logger   *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(res *Resolver) {
		if r != nil {
			res.recorder = r
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(res *Resolver) {
		if l != nil {
			res.logger = l
		}
	}
}

// loaded is a fetched and validated archive.
type loaded struct {
	archive *archive.Archive
	digest  string
	groups  map[archive.ComponentType][]archive.File
}

// New creates a Resolver. fetcher is wrapped in a run-scoped memo.
func New(fetcher fetch.Fetcher, opts Options, options ...Option) *Resolver {
	if opts.Mode == "" {
		opts.Mode = config.ModeProduction
	}
	if opts.DocsRoot == "" {
		opts.DocsRoot = "docs"
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 8
	}
	r := &Resolver{
		opts:     opts,
		recorder: metrics.NoopRecorder{},
		logger:   slog.Default(),
	}
	for _, o := range options {
		o(r)
	}
	r.fetcher = cache.NewCachingFetcher(fetcher, r.recorder)
	r.archives = cache.NewMemo[*loaded]("archive", r.recorder)
	return r
}

// Mode returns the failure policy in effect.
func (r *Resolver) Mode() config.Mode {
	return r.opts.Mode
}

// Resolve resolves every source and merges the results into local.
//
// A source that resolves no component type fails the run in production and
// is logged and skipped in development. A source that resolves only some of
// its types is accepted in both modes. In production the returned Result is
// still populated so callers can report it alongside the error.
func (r *Resolver) Resolve(ctx context.Context, local []*nav.Node, sources []config.Source) (*Result, error) {
	start := time.Now()
	runID := uuid.NewString()
	logger := r.logger.With(logfields.RunID(runID), logfields.Mode(string(r.opts.Mode)))
	logger.Info("Resolving plugin documentation", logfields.Count(len(sources)))

	reports := make([]SourceReport, len(sources))
	contributions := make([][]Contribution, len(sources))

	g := new(errgroup.Group)
	g.SetLimit(r.opts.Concurrency)
	for i, src := range sources {
		g.Go(func() error {
			contributions[i], reports[i] = r.resolveSource(ctx, src, logger)
			return nil
		})
	}
	_ = g.Wait()

	report := &Report{
		RunID:     runID,
		Mode:      string(r.opts.Mode),
		StartedAt: start.UTC(),
		Sources:   reports,
	}

	mounts := MountPoints(local)
	var all []Contribution
	for i, cs := range contributions {
		for _, c := range cs {
			if !mounts[c.Type] {
				logger.Debug("No mount point for component type",
					logfields.Repository(sources[i].Repo), logfields.Component(string(c.Type)))
				continue
			}
			all = append(all, c)
		}
	}
	tree := Merge(local, all)
	if r.opts.CurrentPath != "" {
		tree = nav.StripContents(tree, r.opts.CurrentPath)
	}

	elapsed := time.Since(start)
	report.DurationMS = elapsed.Milliseconds()
	r.recorder.ObserveResolveDuration(elapsed)
	result := &Result{Tree: tree, Report: report}

	failed := report.Failed()
	if len(failed) > 0 && r.opts.Mode == config.ModeProduction {
		r.recorder.IncResolveOutcome(false)
		var lines []string
		for _, s := range failed {
			lines = append(lines, s.Summary()...)
		}
		logger.Error("Plugin documentation resolution failed", logfields.Count(len(failed)))
		return result, errors.ResolutionError(fmt.Sprintf("%d of %d plugin sources resolved no documentation", len(failed), len(sources))).
			WithContext("failures", lines).
			WithContext("run_id", runID).
			Build()
	}
	for _, s := range failed {
		logger.Warn("Skipping plugin source that resolved no documentation",
			logfields.Repository(s.Repo),
			logfields.Tag(s.Version),
			slog.String("reasons", strings.Join(s.Summary(), "; ")))
	}

	r.recorder.IncResolveOutcome(true)
	logger.Info("Resolved plugin documentation",
		logfields.Count(len(all)),
		logfields.DurationMS(float64(elapsed.Microseconds())/1000))
	return result, nil
}

// ResolveSource resolves one source on its own, without merging. It backs
// the check command.
func (r *Resolver) ResolveSource(ctx context.Context, src config.Source) ([]Contribution, SourceReport) {
	return r.resolveSource(ctx, src, r.logger)
}

// resolveSource fans out over every component type. Each type task loads
// the (memoized) archive and builds its entry; types absent from the archive
// contribute nothing and are not failures.
func (r *Resolver) resolveSource(ctx context.Context, src config.Source, logger *slog.Logger) ([]Contribution, SourceReport) {
	logger = logger.With(logfields.Repository(src.Repo), logfields.Tag(src.Version))
	report := SourceReport{Repo: src.Repo, Version: src.Version, Title: src.Title, Components: []string{}}

	type typeResult struct {
		node    *nav.Node
		err     error
		present bool
	}
	results := make([]typeResult, len(archive.ComponentTypes))

	var (
		mu       sync.Mutex
		artifact *loaded
	)
	var g errgroup.Group
	for i, t := range archive.ComponentTypes {
		g.Go(func() error {
			l, err := r.load(ctx, src)
			if err != nil {
				results[i] = typeResult{err: err}
				return nil
			}
			mu.Lock()
			artifact = l
			mu.Unlock()

			files, ok := l.groups[t]
			if !ok {
				return nil
			}
			node, err := normalize.Component(t, files, src, r.normalizeOptions(logger))
			results[i] = typeResult{node: node, err: err, present: true}
			return nil
		})
	}
	_ = g.Wait()

	if artifact != nil {
		report.ArchiveKind = string(artifact.archive.Kind)
		report.ArchiveURL = artifact.archive.URL
		report.Digest = artifact.digest
	}

	var (
		contributions []Contribution
		validation    error
	)
	seen := map[string]bool{}
	for i, res := range results {
		t := archive.ComponentTypes[i]
		switch {
		case res.err != nil:
			if errors.IsValidationError(res.err) && validation == nil {
				validation = res.err
			}
			// One archive error is shared by every type task; report it once.
			if key := res.err.Error(); !seen[key] {
				seen[key] = true
				component := string(t)
				if !res.present {
					component = ""
				}
				report.Failures = append(report.Failures, failureOf(component, res.err))
			}
		case res.present:
			contributions = append(contributions, Contribution{Type: t, Node: res.node})
			report.Components = append(report.Components, string(t))
		}
	}

	switch {
	case validation != nil:
		// An archive that breaks the layout contract is never partially used.
		logger.Error("Plugin archive failed validation", logfields.Error(validation))
		contributions = nil
		report.Components = []string{}
		report.Outcome = metrics.SourceFailed
	case len(contributions) == 0:
		logger.Warn("Plugin source resolved no component type", logfields.Count(len(report.Failures)))
		report.Outcome = metrics.SourceFailed
	case len(report.Failures) > 0:
		logger.Warn("Plugin source resolved only some component types",
			slog.Any("components", report.Components))
		report.Outcome = metrics.SourcePartial
	default:
		logger.Debug("Plugin source resolved", slog.Any("components", report.Components))
		report.Outcome = metrics.SourceResolved
	}
	r.recorder.IncSourceOutcome(report.Outcome)
	return contributions, report
}

// load fetches and parses the archive of src once per Resolver.
func (r *Resolver) load(ctx context.Context, src config.Source) (*loaded, error) {
	key := cache.Key(src.Repo, src.Version, src.ZipFile)
	return r.archives.Do(key, func() (*loaded, error) {
		var fetcher fetch.Fetcher = r.fetcher
		if src.ZipFile != "" {
			fetcher = fetch.LocalFetcher{Path: src.ZipFile}
		}
		a, err := fetcher.Fetch(ctx, src.Repo, src.Version)
		if err != nil {
			return nil, err
		}
		files, err := archive.Parse(a, r.opts.DocsRoot)
		if err != nil {
			return nil, err
		}
		groups := make(map[archive.ComponentType][]archive.File)
		for _, g := range normalize.GroupByComponent(files) {
			groups[g.Type] = g.Files
		}
		return &loaded{archive: a, digest: archive.Digest(a.Data), groups: groups}, nil
	})
}

func (r *Resolver) normalizeOptions(logger *slog.Logger) normalize.Options {
	return normalize.Options{
		DocsRoot:     r.opts.DocsRoot,
		GitHubBase:   r.opts.GitHubBase,
		TrustedOwner: r.opts.TrustedOwner,
		Logger:       logger,
	}
}
