package project

import (
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	gitignore "github.com/denormal/go-gitignore"
	"github.com/jakoblorz/go-nodedist/internal/directory"
	"github.com/jakoblorz/go-nodedist/internal/logging"
	"github.com/jakoblorz/go-nodedist/internal/manifest"
)

// alwaysIgnored lists the entries npm never packs, whatever the whitelist says
var alwaysIgnored = []string{
	".git",
	".svn",
	".hg",
	"CVS",
	".lock-wscript",
	".wafpickle-*",
	".*.swp",
	".DS_Store",
	"._*",
	"npm-debug.log",
	".npmrc",
	"node_modules",
	"config.gypi",
	"*.orig",
	"package-lock.json",
}

func newIgnore(base string, patterns []string) gitignore.GitIgnore {
	return gitignore.New(strings.NewReader(strings.Join(patterns, "\n")), base, nil)
}

func matches(ignore gitignore.GitIgnore, rel string, isDir bool) bool {
	match := ignore.Relative(rel, isDir)
	return match != nil && match.Ignore()
}

func hasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[")
}

// within reports whether rel is dir or lies below it; both are clean slash paths
func within(rel, dir string) bool {
	return rel == dir || strings.HasPrefix(rel, dir+"/")
}

// copyWhitelist copies the files entries that live outside src into dist.
// Entries inside src are left to the compiler and the root package.json is
// never copied. Glob entries are matched with gitignore semantics, so "**" is
// supported.
func (p *Project) copyWhitelist(m *manifest.Manifest, dist *directory.Directory) error {
	logger := logging.GetLogger("project")
	root := p.dir.Path()
	srcRel := path.Clean(filepath.ToSlash(p.cfg.Src))
	distRel := path.Clean(filepath.ToSlash(p.cfg.Dist))
	ignored := newIgnore(root, alwaysIgnored)

	skip := func(base string) directory.SkipFunc {
		return func(rel string, isDir bool) bool {
			full := path.Join(base, rel)
			return within(full, srcRel) || within(full, distRel) || matches(ignored, full, isDir)
		}
	}

	var globs []string
	for _, entry := range m.Files() {
		if entry == "" {
			continue
		}
		clean := path.Clean(strings.TrimPrefix(entry, "/"))
		if hasMeta(clean) {
			globs = append(globs, clean)
			continue
		}
		if within(clean, srcRel) {
			continue
		}
		if clean == manifest.FileName {
			logger.Debug().Str("entry", entry).Msg("Skipping whitelisted manifest, dist gets the production one")
			continue
		}
		if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
			logger.Warn().Str("entry", entry).Msg("Ignoring whitelist entry that is not below the package root")
			continue
		}
		if within(clean, distRel) {
			logger.Warn().Str("entry", entry).Msg("Ignoring whitelist entry inside the distribution directory")
			continue
		}
		if !p.dir.Exists(clean) {
			logger.Debug().Str("entry", entry).Msg("Whitelisted entry does not exist")
			continue
		}

		info, err := p.dir.FileSystem().Stat(p.dir.Join(clean))
		if err != nil {
			return err
		}
		if matches(ignored, clean, info.IsDir()) {
			continue
		}
		if err := dist.CopyFiltered(p.dir.Join(clean), clean, skip(clean)); err != nil {
			return err
		}
	}

	if len(globs) == 0 {
		return nil
	}

	whitelist := newIgnore(root, globs)
	var picked []string
	err := p.dir.FileSystem().WalkDir(root, func(abs string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if abs == root {
			return nil
		}
		rel, err := filepath.Rel(root, abs)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if within(rel, srcRel) || within(rel, distRel) || matches(ignored, rel, entry.IsDir()) {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if rel == manifest.FileName || !matches(whitelist, rel, entry.IsDir()) {
			return nil
		}
		picked = append(picked, rel)
		if entry.IsDir() {
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, rel := range picked {
		if err := dist.CopyFiltered(p.dir.Join(rel), rel, skip(rel)); err != nil {
			return err
		}
	}
	return nil
}
