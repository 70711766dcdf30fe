package adapter

import (
	"encoding/json"
	"sort"
)

// Entry tells the loader where a package name lives
type Entry struct {
	Root string `json:"root"`
	Main string `json:"main"`
}

// Registry is a name to location override table. Generated adapters embed it
// and consult it before the standard module resolution.
type Registry struct {
	entries map[string]Entry
}

// NewRegistry creates an empty Registry
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

// Register points name at entry, replacing any earlier entry for it
func (r *Registry) Register(name string, entry Entry) {
	r.entries[name] = entry
}

// Names returns the registered package names, sorted
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MarshalJSON encodes the table as the object literal embedded in adapters
func (r *Registry) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.entries)
}
