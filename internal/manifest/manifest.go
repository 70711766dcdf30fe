// Package manifest models package.json as a typed, path-aware value.
//
// A Manifest remembers the directory its path fields (main, bin values, files
// entries) are relative to. Every transform returns a new Manifest; the
// receiver is never modified.
package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jakoblorz/go-nodedist/internal/filesystem"
)

// FileName is the on-disk name of a manifest
const FileName = "package.json"

// PrepublishScript is the lifecycle hook that triggers nodedist and is stripped for production
const PrepublishScript = "prepublish"

// ErrMissingName is returned when a manifest has no name
var ErrMissingName = errors.New("package.json has no name")

// Manifest is an immutable view of a package.json.
// nil maps, nil slices and nil pointers mean the key is absent.
type Manifest struct {
	root string

	name             string
	version          *string
	main             *string
	bin              map[string]string
	files            []string
	scripts          map[string]string
	dependencies     map[string]string
	linkDependencies map[string]string

	extra map[string]any
}

// Read reads and parses dir/package.json. dir becomes the manifest root.
func Read(fs filesystem.FileSystem, dir string) (*Manifest, error) {
	pkgPath := filepath.Join(dir, FileName)
	data, err := fs.ReadFile(pkgPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", pkgPath, err)
	}

	m, err := Parse(data, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", pkgPath, err)
	}
	return m, nil
}

// Parse decodes a package.json document whose path fields are relative to root.
// null values are pruned recursively and a string bin is normalised to a map.
func Parse(data []byte, root string) (*Manifest, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, errors.New("package.json is not an object")
	}
	pruneNulls(raw)

	m := &Manifest{
		root:  filepath.ToSlash(filepath.Clean(root)),
		extra: make(map[string]any),
	}

	for key, value := range raw {
		var err error
		switch key {
		case "name":
			m.name, err = asString(key, value)
		case "version":
			m.version, err = asOptionalString(key, value)
		case "main":
			m.main, err = asOptionalString(key, value)
		case "bin":
			m.bin, err = asBin(value)
		case "files":
			m.files, err = asStringList(key, value)
		case "scripts":
			m.scripts, err = asStringMap(key, value)
		case "dependencies":
			m.dependencies, err = asStringMap(key, value)
		case "linkDependencies":
			m.linkDependencies, err = asStringMap(key, value)
		default:
			m.extra[key] = value
		}
		if err != nil {
			return nil, err
		}
	}

	if strings.TrimSpace(m.name) == "" {
		return nil, ErrMissingName
	}

	// a string bin is keyed by the package name without its scope
	if m.bin != nil {
		if p, ok := m.bin[""]; ok {
			delete(m.bin, "")
			m.bin[path.Base(m.name)] = p
		}
	}

	return m, nil
}

// Root returns the directory path fields are relative to
func (m *Manifest) Root() string {
	return filepath.FromSlash(m.root)
}

// Name returns the package name
func (m *Manifest) Name() string {
	return m.name
}

// Version returns the version and whether it is set
func (m *Manifest) Version() (string, bool) {
	if m.version == nil {
		return "", false
	}
	return *m.version, true
}

// Main returns the entry point and whether it is set
func (m *Manifest) Main() (string, bool) {
	if m.main == nil {
		return "", false
	}
	return *m.main, true
}

// Bins returns the executable names, sorted
func (m *Manifest) Bins() []string {
	return sortedKeys(m.bin)
}

// Bin returns the path of an executable
func (m *Manifest) Bin(name string) (string, bool) {
	p, ok := m.bin[name]
	return p, ok
}

// Files returns the whitelist; nil when absent
func (m *Manifest) Files() []string {
	if m.files == nil {
		return nil
	}
	return append([]string{}, m.files...)
}

// Scripts returns a copy of the scripts map; nil when absent
func (m *Manifest) Scripts() map[string]string {
	return copyMap(m.scripts)
}

// Dependencies returns a copy of the dependency map; nil when absent
func (m *Manifest) Dependencies() map[string]string {
	return copyMap(m.dependencies)
}

// LinkDependencies returns a copy of the development link map; nil when absent
func (m *Manifest) LinkDependencies() map[string]string {
	return copyMap(m.linkDependencies)
}

// Extra returns an unknown top-level key preserved from the source document
func (m *Manifest) Extra(key string) (any, bool) {
	v, ok := m.extra[key]
	return v, ok
}

// Has reports whether a top-level key is present
func (m *Manifest) Has(key string) bool {
	switch key {
	case "name":
		return true
	case "version":
		return m.version != nil
	case "main":
		return m.main != nil
	case "bin":
		return m.bin != nil
	case "files":
		return m.files != nil
	case "scripts":
		return m.scripts != nil
	case "dependencies":
		return m.dependencies != nil
	case "linkDependencies":
		return m.linkDependencies != nil
	}
	_, ok := m.extra[key]
	return ok
}

func (m *Manifest) clone() *Manifest {
	c := &Manifest{
		root:             m.root,
		name:             m.name,
		version:          copyString(m.version),
		main:             copyString(m.main),
		bin:              copyMap(m.bin),
		files:            nil,
		scripts:          copyMap(m.scripts),
		dependencies:     copyMap(m.dependencies),
		linkDependencies: copyMap(m.linkDependencies),
		extra:            make(map[string]any, len(m.extra)),
	}
	if m.files != nil {
		c.files = append([]string{}, m.files...)
	}
	for k, v := range m.extra {
		c.extra[k] = v
	}
	return c
}

func pruneNulls(value any) {
	switch v := value.(type) {
	case map[string]any:
		for key, child := range v {
			if child == nil {
				delete(v, key)
				continue
			}
			pruneNulls(child)
		}
	case []any:
		for _, child := range v {
			pruneNulls(child)
		}
	}
}

func asString(key string, value any) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("field %q must be a string", key)
	}
	return s, nil
}

func asOptionalString(key string, value any) (*string, error) {
	s, err := asString(key, value)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func asStringList(key string, value any) ([]string, error) {
	items, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("field %q must be a list", key)
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("field %q must only contain strings", key)
		}
		out = append(out, s)
	}
	return out, nil
}

func asStringMap(key string, value any) (map[string]string, error) {
	obj, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("field %q must be an object", key)
	}
	out := make(map[string]string, len(obj))
	for k, v := range obj {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("field %q.%q must be a string", key, k)
		}
		out[k] = s
	}
	return out, nil
}

func asBin(value any) (map[string]string, error) {
	if s, ok := value.(string); ok {
		return map[string]string{"": s}, nil
	}
	return asStringMap("bin", value)
}

func copyMap(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func sortedKeys[V any](in map[string]V) []string {
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
