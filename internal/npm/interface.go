// Package npm wraps the package registry client.
package npm

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/jakoblorz/go-nodedist/internal/filesystem"
	"github.com/jakoblorz/go-nodedist/internal/manifest"
)

// Installer is the package registry client used by link and publish
type Installer interface {
	// Install installs the given package specs into dir. No specs installs
	// everything dir's manifest declares.
	Install(ctx context.Context, dir string, specs ...string) (string, error)

	// Publish publishes dir as a package and returns the client's output
	Publish(ctx context.Context, dir string) (string, error)
}

// MissingDependencies returns "name@range" specs for every dependency that has
// no node_modules/<name>/package.json below projectDir, sorted by name.
func MissingDependencies(fs filesystem.FileSystem, projectDir string, deps map[string]string) []string {
	names := make([]string, 0, len(deps))
	for name := range deps {
		names = append(names, name)
	}
	sort.Strings(names)

	var missing []string
	for _, name := range names {
		installed := filepath.Join(projectDir, "node_modules", filepath.FromSlash(name), manifest.FileName)
		if fs.Exists(installed) {
			continue
		}
		missing = append(missing, Spec(name, deps[name]))
	}
	return missing
}

// Spec joins a package name and a range the way npm install accepts it
func Spec(name, versionRange string) string {
	if versionRange == "" {
		return name
	}
	return fmt.Sprintf("%s@%s", name, versionRange)
}
