package commands

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"

	"git.home.luguber.info/inful/plugindocs/internal/archive"
	"git.home.luguber.info/inful/plugindocs/internal/foundation/errors"
	"git.home.luguber.info/inful/plugindocs/internal/git"
	"git.home.luguber.info/inful/plugindocs/internal/logfields"
)

// PackCmd implements the 'pack' command: it builds the docs release asset a
// plugin publishes, refusing to write one the resolver would reject.
type PackCmd struct {
	Repo     string `arg:"" optional:"" default:"." help:"Path to the plugin git repository"`
	Revision string `short:"r" default:"HEAD" help:"Revision to read the documentation from"`
	Output   string `short:"o" default:"docs.zip" help:"Archive file to write"`
	DocsRoot string `name:"docs-root" default:"docs" help:"Documentation root directory inside the repository"`
}

func (p *PackCmd) Run(g *Global, _ *CLI) error {
	snap, err := git.ReadDocs(p.Repo, p.Revision, p.DocsRoot)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := archive.Write(&buf, p.DocsRoot, snap.Files); err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to build archive").Build()
	}
	files, err := archive.Parse(&archive.Archive{Kind: archive.KindDocs, Data: buf.Bytes(), URL: p.Output}, p.DocsRoot)
	if err != nil {
		return err
	}

	if err := os.WriteFile(p.Output, buf.Bytes(), 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write archive").
			WithContext("file", p.Output).
			Build()
	}
	g.Logger.Info("Wrote docs archive",
		logfields.File(p.Output),
		logfields.Count(len(files)),
		slog.String("commit", snap.Commit),
		logfields.Digest(archive.Digest(buf.Bytes())))
	fmt.Fprintf(os.Stdout, "%s: %d documentation files from %s\n", p.Output, len(files), snap.Commit[:12])
	return nil
}
