package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"git.home.luguber.info/inful/plugindocs/internal/foundation/errors"
)

// Source is one external plugin whose documentation is merged into the tree.
// JSON keys follow the remote plugins data file.
type Source struct {
	Title        string `json:"title" validate:"required"`
	Slug         string `json:"path" validate:"required,slug"`
	Repo         string `json:"repo" validate:"required,repoid"`
	Version      string `json:"version" validate:"required"`
	Tier         Tier   `json:"pluginTier,omitempty" validate:"omitempty,oneof=official community"`
	Archived     bool   `json:"archived,omitempty"`
	HCPReady     bool   `json:"isHcpPackerReady,omitempty"`
	SourceBranch string `json:"sourceBranch,omitempty"`
	// ZipFile points at a local docs archive used instead of fetching.
	ZipFile string `json:"zipFile,omitempty"`
}

// LatestVersion is the floating tag that is never resolved to a concrete one.
const LatestVersion = "latest"

// Owner returns the owner segment of the repository id.
func (s Source) Owner() string {
	owner, _, _ := strings.Cut(s.Repo, "/")
	return owner
}

// Name returns the repository name segment.
func (s Source) Name() string {
	_, name, _ := strings.Cut(s.Repo, "/")
	return name
}

var (
	repoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+/[A-Za-z0-9_.-]+$`)
	slugPattern   = regexp.MustCompile(`^[a-z0-9]+(?:[-_.][a-z0-9]+)*$`)
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("repoid", func(fl validator.FieldLevel) bool {
		return repoIDPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	})
	return v
}

// LoadSources reads the sources file, applies defaults and validates it.
func LoadSources(file string) ([]Source, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "sources file not readable").
			Fatal().
			WithContext("file", file).
			Build()
	}
	sources, err := ParseSources(data)
	if err != nil {
		if c, ok := errors.AsClassified(err); ok {
			return nil, c.WithContext("file", file)
		}
		return nil, err
	}
	return sources, nil
}

// ParseSources decodes a JSON array of sources.
func ParseSources(data []byte) ([]Source, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var sources []Source
	if err := dec.Decode(&sources); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to decode sources").Fatal().Build()
	}
	for i := range sources {
		if sources[i].SourceBranch == "" {
			sources[i].SourceBranch = "main"
		}
	}
	if err := ValidateSources(sources); err != nil {
		return nil, err
	}
	return sources, nil
}

// ValidateSources checks every source and the uniqueness of repo ids and
// slugs. All problems are collected into a single ConfigError.
func ValidateSources(sources []Source) error {
	var problems []string
	repos := make(map[string]int, len(sources))
	slugs := make(map[string]int, len(sources))

	for i, src := range sources {
		label := fmt.Sprintf("sources[%d]", i)
		if src.Repo != "" {
			label = fmt.Sprintf("sources[%d] (%s)", i, src.Repo)
		}
		if err := validate.Struct(src); err != nil {
			if verrs, ok := err.(validator.ValidationErrors); ok {
				for _, fe := range verrs {
					problems = append(problems, label+" "+describeField(fe))
				}
			} else {
				problems = append(problems, fmt.Sprintf("%s: %v", label, err))
			}
		}
		if first, dup := repos[src.Repo]; dup && src.Repo != "" {
			problems = append(problems, fmt.Sprintf("%s: repo duplicates sources[%d]", label, first))
		} else {
			repos[src.Repo] = i
		}
		if first, dup := slugs[src.Slug]; dup && src.Slug != "" {
			problems = append(problems, fmt.Sprintf("%s: path %q duplicates sources[%d]", label, src.Slug, first))
		} else {
			slugs[src.Slug] = i
		}
	}
	if len(problems) > 0 {
		return errors.ConfigError(fmt.Sprintf("%d invalid source entries", len(problems))).
			WithContext("invalid_paths", problems).
			Build()
	}
	return nil
}
