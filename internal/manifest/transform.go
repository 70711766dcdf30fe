package manifest

import (
	"fmt"
	"path"
	"path/filepath"

	"github.com/Masterminds/semver/v3"
)

// RuntimeDependency is the support package compiled output requires at runtime
type RuntimeDependency struct {
	Name    string
	Version string
}

// Range returns the dependency range written into the manifest
func (d RuntimeDependency) Range() (string, error) {
	v, err := semver.NewVersion(d.Version)
	if err != nil {
		return "", fmt.Errorf("invalid version %q for %s: %w", d.Version, d.Name, err)
	}
	return "<= " + v.String(), nil
}

// MoveTo rebases every path field onto root/dest. A path equal to the new
// root becomes "", a path outside of it gains "../" segments.
func (m *Manifest) MoveTo(dest string) *Manifest {
	c := m.clone()
	newRoot := path.Join(m.root, filepath.ToSlash(dest))

	move := func(p string) string {
		abs := p
		if !path.IsAbs(abs) {
			abs = path.Join(m.root, p)
		}
		rel, err := filepath.Rel(filepath.FromSlash(newRoot), filepath.FromSlash(abs))
		if err != nil {
			return p
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return ""
		}
		return rel
	}

	if c.main != nil {
		moved := move(*c.main)
		c.main = &moved
	}
	for name, p := range c.bin {
		c.bin[name] = move(p)
	}
	for i, p := range c.files {
		c.files[i] = move(p)
	}

	c.root = newRoot
	return c
}

// ToProduction drops the development-only keys: the files whitelist,
// linkDependencies and the prepublish script.
func (m *Manifest) ToProduction() *Manifest {
	c := m.clone()
	c.files = nil
	c.linkDependencies = nil

	if _, ok := c.scripts[PrepublishScript]; ok {
		delete(c.scripts, PrepublishScript)
		if len(c.scripts) == 0 {
			c.scripts = nil
		}
	}
	return c
}

// WithRuntimeDependency pins dep to "<= version", keeping every other dependency
func (m *Manifest) WithRuntimeDependency(dep RuntimeDependency) (*Manifest, error) {
	rng, err := dep.Range()
	if err != nil {
		return nil, err
	}

	c := m.clone()
	if c.dependencies == nil {
		c.dependencies = make(map[string]string, 1)
	}
	c.dependencies[dep.Name] = rng
	return c, nil
}
