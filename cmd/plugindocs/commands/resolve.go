package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"git.home.luguber.info/inful/plugindocs/internal/foundation/errors"
	"git.home.luguber.info/inful/plugindocs/internal/logfields"
	"git.home.luguber.info/inful/plugindocs/internal/resolve"
)

// ResolveCmd implements the 'resolve' command.
type ResolveCmd struct {
	Output      string `short:"o" help:"Write the merged tree here ('-' for stdout); defaults to the configured output"`
	Report      string `help:"Also write the resolution report as JSON to this file"`
	CurrentPath string `name:"current-path" help:"Keep remote contents only on the leaf with this url path"`
}

func (c *ResolveCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	in, err := loadInputs(cfg)
	if err != nil {
		return err
	}
	rt := newRuntime(cfg, g.Logger)
	defer rt.close()

	opts := resolve.OptionsFromConfig(cfg)
	opts.CurrentPath = c.CurrentPath
	result, resolveErr := rt.resolver(cfg, g.Logger, opts).Resolve(ctx, in.local, in.sources)
	if result != nil {
		rt.publish(ctx, result.Report, g.Logger)
		if c.Report != "" {
			if err := writeJSONFile(c.Report, result.Report); err != nil {
				return err
			}
		}
	}
	if resolveErr != nil {
		return resolveErr
	}

	output := c.Output
	if output == "" {
		output = cfg.Output
	}
	if output == "-" {
		return encodeJSON(os.Stdout, result.Tree)
	}
	if err := writeJSONFile(output, result.Tree); err != nil {
		return err
	}
	g.Logger.Info("Wrote navigation tree", logfields.File(output), logfields.RunID(result.Report.RunID))
	return nil
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to encode JSON").Build()
	}
	return nil
}

// writeJSONFile writes v next to path and renames it into place, so readers
// never observe a partial file.
func writeJSONFile(path string, v any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to create output directory").
			WithContext("dir", dir).
			Build()
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to create output file").
			WithContext("file", path).
			Build()
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := encodeJSON(tmp, v); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write output file").
			WithContext("file", path).
			Build()
	}
	return nil
}
