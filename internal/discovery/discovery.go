// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/recipekit/runner/internal/issue"
	"github.com/recipekit/runner/pkg/recipefile"
)

const (
	// SourceExplicit indicates the path was given with --file.
	SourceExplicit Source = iota
	// SourceCurrentDir indicates the file was found in the base directory.
	SourceCurrentDir
	// SourceParentDir indicates the file was found in an ancestor directory.
	SourceParentDir
)

var (
	// ErrNotFound is returned when no recipe file exists.
	ErrNotFound = errors.New("recipe file not found")
)

type (
	// Source represents where a recipe file was found
	Source int

	// DiscoveredFile is a located recipe file.
	DiscoveredFile struct {
		// Path is the absolute path to the recipe file
		Path string
		// Source indicates how the file was found
		Source Source
	}

	// Discovery searches for recipe files starting at a base directory.
	Discovery struct {
		baseDir string
	}
)

// String returns a human-readable source name
func (s Source) String() string {
	switch s {
	case SourceExplicit:
		return "explicit path"
	case SourceCurrentDir:
		return "current directory"
	case SourceParentDir:
		return "parent directory"
	default:
		return "unknown"
	}
}

// New creates a Discovery rooted at baseDir. An empty baseDir means the
// process working directory.
func New(baseDir string) *Discovery {
	return &Discovery{baseDir: baseDir}
}

// Find returns the recipe file to use. A non-empty explicit path is used as
// is when it names a file, or searched without walking upward when it names
// a directory.
func (d *Discovery) Find(explicit string) (*DiscoveredFile, error) {
	if explicit != "" {
		return d.findExplicit(explicit)
	}

	start, err := d.absBase()
	if err != nil {
		return nil, err
	}
	for dir := start; ; {
		if path := lookupInDir(dir); path != "" {
			source := SourceParentDir
			if dir == start {
				source = SourceCurrentDir
			}
			return &DiscoveredFile{Path: path, Source: source}, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return nil, notFound(start, ErrNotFound,
		fmt.Sprintf("Create a file named %s in %s or one of its parents", recipefile.DefaultFileNames[0], start),
		"Pass the recipe file explicitly with --file")
}

func (d *Discovery) findExplicit(path string) (*DiscoveredFile, error) {
	if !filepath.IsAbs(path) {
		base, err := d.absBase()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(base, path)
	}

	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil, notFound(path, fmt.Errorf("%w: %s", ErrNotFound, path), "Check the --file path")
	case err != nil:
		return nil, issue.Wrap(err, "find recipe file", path)
	case info.IsDir():
		if found := lookupInDir(path); found != "" {
			return &DiscoveredFile{Path: found, Source: SourceExplicit}, nil
		}
		return nil, notFound(path, ErrNotFound,
			fmt.Sprintf("Create a file named %s in %s", recipefile.DefaultFileNames[0], path))
	default:
		return &DiscoveredFile{Path: path, Source: SourceExplicit}, nil
	}
}

func (d *Discovery) absBase() (string, error) {
	base := d.baseDir
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get working directory: %w", err)
		}
		base = wd
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", base, err)
	}
	return abs, nil
}

// lookupInDir returns the first of recipefile.DefaultFileNames present in dir as a regular file.
func lookupInDir(dir string) string {
	for _, name := range recipefile.DefaultFileNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path
		}
	}
	return ""
}

func notFound(resource string, cause error, suggestions ...string) error {
	ctx := issue.NewErrorContext().
		WithOperation("find recipe file").
		WithResource(resource).
		WithIssue(issue.RecipeFileNotFoundId).
		Wrap(cause)
	for _, s := range suggestions {
		ctx.WithSuggestion(s)
	}
	return ctx.BuildError()
}
