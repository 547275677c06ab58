// Package fsscan discovers cfg files under a root directory, applying
// glob-style exclusion patterns so backups, temp files and VCS internals
// never reach the formatter.
package fsscan

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Suffix is the configuration-file extension this tool operates on.
const Suffix = ".cfg"

// DefaultExcludes skips VCS directories and the backup/temp/old-version
// naming conventions the writer itself produces.
var DefaultExcludes = []string{
	"**/.git/**",
	"**/*.bak*.cfg",
	"**/*.tmp*.cfg",
	"**/*.old*.cfg",
	"**/*_out.cfg",
}

// Options controls discovery.
type Options struct {
	Recursive bool
	// Excludes holds doublestar patterns matched against the
	// slash-separated path relative to root.
	Excludes []string
}

// Excluded reports whether the root-relative path rel (slash-separated)
// matches any pattern. Each pattern is also tried against "/"+rel and with
// a "./" prefix stripped, so "*.bak*.cfg" style patterns written without a
// leading "**/" still catch top-level files.
func Excluded(rel string, patterns []string) bool {
	for _, pat := range patterns {
		p := strings.TrimSpace(pat)
		if p == "" {
			continue
		}
		if ok, err := doublestar.Match(p, rel); err == nil && ok {
			return true
		}
		if ok, err := doublestar.Match(p, "/"+rel); err == nil && ok {
			return true
		}
		if trimmed := strings.TrimLeft(p, "./"); trimmed != p {
			if ok, err := doublestar.Match(trimmed, rel); err == nil && ok {
				return true
			}
		}
	}
	return false
}

// Collect returns the sorted cfg files under root, honoring Recursive and
// the exclusion patterns. Paths are returned absolute-or-as-given, rooted
// at root.
func Collect(root string, opts Options) ([]string, error) {
	var files []string

	add := func(path string) error {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if Excluded(rel, opts.Excludes) {
			return nil
		}
		files = append(files, path)
		return nil
	}

	if opts.Recursive {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.HasSuffix(d.Name(), Suffix) {
				return nil
			}
			return add(path)
		})
		if err != nil {
			return nil, err
		}
	} else {
		entries, err := os.ReadDir(root)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), Suffix) {
				continue
			}
			if err := add(filepath.Join(root, e.Name())); err != nil {
				return nil, err
			}
		}
	}

	// Сортируем для детерминированного порядка
	sort.Strings(files)
	return files, nil
}
