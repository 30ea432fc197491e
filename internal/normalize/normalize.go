// Package normalize turns validated archive files into navigation leaves.
package normalize

import (
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/plugindocs/internal/archive"
	"git.home.luguber.info/inful/plugindocs/internal/config"
	"git.home.luguber.info/inful/plugindocs/internal/foundation/errors"
	"git.home.luguber.info/inful/plugindocs/internal/frontmatter"
	"git.home.luguber.info/inful/plugindocs/internal/logfields"
	"git.home.luguber.info/inful/plugindocs/internal/markdown"
	"git.home.luguber.info/inful/plugindocs/internal/nav"
)

// Options carries the run-wide settings the normalizer needs.
type Options struct {
	// DocsRoot is the documentation directory inside archives, "docs" by default.
	DocsRoot string
	// GitHubBase prefixes source permalinks, "https://github.com" by default.
	GitHubBase string
	// TrustedOwner marks sources owned by it as official.
	TrustedOwner string
	Logger       *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.DocsRoot == "" {
		o.DocsRoot = "docs"
	}
	o.DocsRoot = strings.Trim(o.DocsRoot, "/")
	if o.GitHubBase == "" {
		o.GitHubBase = "https://github.com"
	}
	o.GitHubBase = strings.TrimSuffix(o.GitHubBase, "/")
	if o.TrustedOwner == "" {
		o.TrustedOwner = config.DefaultTrustedOwner
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Tier resolves the tier of a source: the override when set, else official
// for the trusted owner and community for everyone else.
func Tier(src config.Source, trustedOwner string) config.Tier {
	if src.Tier != "" {
		return src.Tier
	}
	if trustedOwner == "" {
		trustedOwner = config.DefaultTrustedOwner
	}
	if src.Owner() == trustedOwner {
		return config.TierOfficial
	}
	return config.TierCommunity
}

// SourceURL is the permalink of an archive file in its repository.
func SourceURL(base string, src config.Source, archivePath string) string {
	branch := src.SourceBranch
	if branch == "" {
		branch = "main"
	}
	return fmt.Sprintf("%s/%s/blob/%s/%s", strings.TrimSuffix(base, "/"), src.Repo, branch, archivePath)
}

// Slug is the url path of a file relative to its component type directory.
// A page named index stands for its directory.
func Slug(docsRoot, archivePath string) string {
	rest := strings.TrimPrefix(archivePath, strings.Trim(docsRoot, "/")+"/")
	dir, file := path.Split(rest)
	// dir is "{type}/" for validated archives; anything deeper is kept.
	_, sub, _ := strings.Cut(strings.TrimSuffix(dir, "/"), "/")
	base := strings.TrimSuffix(file, path.Ext(file))
	if base == "index" {
		return sub
	}
	return path.Join(sub, base)
}

// Type returns the component type of an archive file from its second path
// segment.
func Type(archivePath string) (archive.ComponentType, bool) {
	parts := strings.Split(archivePath, "/")
	if len(parts) < 3 || !archive.IsComponentType(parts[1]) {
		return "", false
	}
	return archive.ComponentType(parts[1]), true
}

// Normalize converts every file into a remote leaf whose path is its slug
// relative to the component type. Leaves are returned in file order.
func Normalize(files []archive.File, src config.Source, opts Options) ([]*nav.Node, error) {
	opts = opts.withDefaults()
	tier := Tier(src, opts.TrustedOwner)

	leaves := make([]*nav.Node, 0, len(files))
	for _, f := range files {
		if _, ok := Type(f.Path); !ok {
			return nil, errors.ValidationError("file is not inside a component type directory").
				WithContext("invalid_paths", []string{f.Path}).
				WithContext("repository", src.Repo).
				Build()
		}

		base := strings.TrimSuffix(path.Base(f.Path), path.Ext(f.Path))
		page, err := frontmatter.Parse(f.Contents)
		if err != nil {
			opts.Logger.Warn("Ignoring unreadable front matter",
				logfields.Repository(src.Repo),
				logfields.Path(f.Path),
				logfields.Error(err))
		}
		title := page.NavTitle(base)
		pageTitle := page.Meta.PageTitle
		if pageTitle == "" {
			pageTitle = markdown.FirstHeading(page.Body)
		}
		if pageTitle == "" {
			pageTitle = title
		}

		leaves = append(leaves, nav.NewRemoteLeaf(title, Slug(opts.DocsRoot, f.Path), nav.RemoteSource{
			Repo:        src.Repo,
			Ref:         src.Version,
			ArchivePath: f.Path,
			SourceURL:   SourceURL(opts.GitHubBase, src, f.Path),
			PageTitle:   pageTitle,
			Fingerprint: mdfp.CalculateFingerprintFromParts(string(page.Raw), string(page.Body)),
			Contents:    string(f.Contents),
			Plugin: nav.PluginInfo{
				Tier:     string(tier),
				Version:  src.Version,
				Archived: src.Archived,
				HCPReady: src.HCPReady,
			},
		}))
	}
	return leaves, nil
}

// Group is the files of one component type.
type Group struct {
	Type  archive.ComponentType
	Files []archive.File
}

// GroupByComponent partitions files by component type. Groups follow the
// canonical type order and keep file order within a group. Files outside a
// known type are dropped; Parse never returns them.
func GroupByComponent(files []archive.File) []Group {
	byType := make(map[archive.ComponentType][]archive.File)
	for _, f := range files {
		if t, ok := Type(f.Path); ok {
			byType[t] = append(byType[t], f)
		}
	}
	groups := make([]Group, 0, len(byType))
	for _, t := range archive.ComponentTypes {
		if fs, ok := byType[t]; ok {
			groups = append(groups, Group{Type: t, Files: fs})
		}
	}
	return groups
}

// Component builds the navigation entry one source contributes to the mount
// point of type t. Leaf paths become "{type}/{slug}/{page}". A single page is
// promoted to stand for the source directly at "{type}/{slug}" under the
// source's display title; several pages are wrapped in a branch titled with
// the display title.
func Component(t archive.ComponentType, files []archive.File, src config.Source, opts Options) (*nav.Node, error) {
	if len(files) == 0 {
		return nil, errors.ValidationError(fmt.Sprintf("no %s pages", t)).
			WithContext("repository", src.Repo).
			Build()
	}
	leaves, err := Normalize(files, src, opts)
	if err != nil {
		return nil, err
	}
	for _, l := range leaves {
		if lt, _ := Type(l.Remote.ArchivePath); lt != t {
			return nil, errors.InternalError(fmt.Sprintf("%s is not a %s page", l.Remote.ArchivePath, t)).Build()
		}
	}

	prefix := path.Join(string(t), src.Slug)
	if len(leaves) == 1 {
		return leaves[0].WithPath(prefix).WithTitle(src.Title), nil
	}
	sorted := nav.Sorted(leaves, nav.OrderPages)
	return nav.NewBranch(src.Title, "", nav.PrefixPaths(sorted, prefix)...), nil
}
