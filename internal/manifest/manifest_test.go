package manifest

import (
	"encoding/json"
	"testing"

	"github.com/jakoblorz/go-nodedist/internal/filesystem"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, doc string) *Manifest {
	t.Helper()
	m, err := Parse([]byte(doc), "/project")
	require.NoError(t, err)
	return m
}

func toJSON(t *testing.T, m *Manifest) string {
	t.Helper()
	data, err := json.Marshal(m)
	require.NoError(t, err)
	return string(data)
}

func TestParse_RequiresName(t *testing.T) {
	_, err := Parse([]byte(`{"version": "1.0.0"}`), "/project")
	require.ErrorIs(t, err, ErrMissingName)

	_, err = Parse([]byte(`{"name": null}`), "/project")
	require.ErrorIs(t, err, ErrMissingName)

	_, err = Parse([]byte(`[]`), "/project")
	require.Error(t, err)
}

func TestParse_PrunesNulls(t *testing.T) {
	m := parse(t, `{
  "name": "project",
  "main": null,
  "dependencies": {"a": "1.0.0", "b": null},
  "config": {"port": 8080, "host": null}
}`)

	_, hasMain := m.Main()
	require.False(t, hasMain)
	require.Equal(t, map[string]string{"a": "1.0.0"}, m.Dependencies())
	require.JSONEq(t, `{
  "name": "project",
  "dependencies": {"a": "1.0.0"},
  "config": {"port": 8080}
}`, toJSON(t, m))
}

func TestParse_StringBin(t *testing.T) {
	m := parse(t, `{"name": "@scope/tool", "bin": "cli.js"}`)

	require.Equal(t, []string{"tool"}, m.Bins())
	p, ok := m.Bin("tool")
	require.True(t, ok)
	require.Equal(t, "cli.js", p)
}

func TestParse_WrongFieldType(t *testing.T) {
	_, err := Parse([]byte(`{"name": "project", "files": "src"}`), "/project")
	require.Error(t, err)
	require.Contains(t, err.Error(), "files")
}

func TestRead(t *testing.T) {
	fs := filesystem.NewMockFileSystem()
	fs.AddFile("/workspace/package.json", []byte(`{"name": "app", "version": "0.1.0", "private": true}`))

	m, err := Read(fs, "/workspace")
	require.NoError(t, err)
	require.Equal(t, "app", m.Name())
	require.Equal(t, "/workspace", m.Root())

	version, ok := m.Version()
	require.True(t, ok)
	require.Equal(t, "0.1.0", version)

	private, ok := m.Extra("private")
	require.True(t, ok)
	require.Equal(t, true, private)

	_, err = Read(fs, "/missing")
	require.Error(t, err)
}

func TestMoveTo(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "all path fields",
			input:    `{"name": "project", "files": ["LICENSE", "README.md", "src"], "main": "src/index.js", "bin": {"project": "src/bin/project.js"}}`,
			expected: `{"name": "project", "files": ["../LICENSE", "../README.md", ""], "main": "index.js", "bin": {"project": "bin/project.js"}}`,
		},
		{
			name:     "without files",
			input:    `{"name": "project", "main": "src/index.js", "bin": {"project": "src/bin/project.js"}}`,
			expected: `{"name": "project", "main": "index.js", "bin": {"project": "bin/project.js"}}`,
		},
		{
			name:     "without main",
			input:    `{"name": "project", "files": ["LICENSE", "README.md", "src"], "bin": {"project": "src/bin/project.js"}}`,
			expected: `{"name": "project", "files": ["../LICENSE", "../README.md", ""], "bin": {"project": "bin/project.js"}}`,
		},
		{
			name:     "without bin",
			input:    `{"name": "project", "files": ["LICENSE", "README.md", "src"], "main": "src/index.js"}`,
			expected: `{"name": "project", "files": ["../LICENSE", "../README.md", ""], "main": "index.js"}`,
		},
		{
			name:     "dot relative paths",
			input:    `{"name": "project", "main": "./src/index.js"}`,
			expected: `{"name": "project", "main": "index.js"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := parse(t, tt.input)
			before := toJSON(t, original)
			moved := original.MoveTo("src")

			require.JSONEq(t, tt.expected, toJSON(t, moved))
			require.Equal(t, "/project/src", moved.Root())
			require.Equal(t, before, toJSON(t, original), "receiver must not change")
		})
	}
}

func TestMoveTo_RoundTrip(t *testing.T) {
	docs := []string{
		`{"name": "project", "files": ["LICENSE", "README.md", "src"], "main": "src/index.js", "bin": {"a": "src/bin/a.js", "b": "scripts/b.js"}}`,
		`{"name": "project", "main": "index.js"}`,
		`{"name": "project", "files": ["lib/**/*.js", "docs"]}`,
	}

	for _, doc := range docs {
		m := parse(t, doc)
		for _, dest := range []string{"src", "lib/nested", "build"} {
			back := m.MoveTo(dest).MoveTo(relBack(dest))
			require.JSONEq(t, doc, toJSON(t, back), "dest %s", dest)
			require.Equal(t, m.Root(), back.Root())
		}
	}
}

func relBack(dest string) string {
	switch dest {
	case "lib/nested":
		return "../.."
	default:
		return ".."
	}
}

func TestToProduction(t *testing.T) {
	m := parse(t, `{
  "name": "project",
  "files": ["LICENSE", "README.md", "src"],
  "main": "src/index.js",
  "bin": {"project": "src/bin/project.js"},
  "scripts": {"prepublish": "nodedist", "test": "eslint && jasmine"},
  "linkDependencies": {"dep": "../dep"}
}`)

	require.JSONEq(t, `{
  "name": "project",
  "main": "src/index.js",
  "bin": {"project": "src/bin/project.js"},
  "scripts": {"test": "eslint && jasmine"}
}`, toJSON(t, m.ToProduction()))

	// the receiver keeps its development keys
	require.NotNil(t, m.Files())
	require.NotNil(t, m.LinkDependencies())
}

func TestToProduction_EmptiedScriptsAreOmitted(t *testing.T) {
	m := parse(t, `{"name": "project", "scripts": {"prepublish": "nodedist"}}`)
	require.JSONEq(t, `{"name": "project"}`, toJSON(t, m.ToProduction()))

	untouched := parse(t, `{"name": "project", "scripts": {}}`)
	require.JSONEq(t, `{"name": "project", "scripts": {}}`, toJSON(t, untouched.ToProduction()))
}

func TestWithRuntimeDependency(t *testing.T) {
	dep := RuntimeDependency{Name: "babel-runtime", Version: "6.26.0"}

	m, err := parse(t, `{"name": "project"}`).WithRuntimeDependency(dep)
	require.NoError(t, err)
	require.JSONEq(t, `{"name": "project", "dependencies": {"babel-runtime": "<= 6.26.0"}}`, toJSON(t, m))

	m, err = parse(t, `{"name": "project", "dependencies": {"foo-bar": "1.0.0", "babel-runtime": "^5.0.0"}}`).WithRuntimeDependency(dep)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"foo-bar": "1.0.0", "babel-runtime": "<= 6.26.0"}, m.Dependencies())

	_, err = parse(t, `{"name": "project"}`).WithRuntimeDependency(RuntimeDependency{Name: "x", Version: "not-a-version"})
	require.Error(t, err)
}

func TestTransforms_NeverFabricateKeys(t *testing.T) {
	m := parse(t, `{"name": "project"}`)
	dep := RuntimeDependency{Name: "babel-runtime", Version: "6.26.0"}

	moved := m.MoveTo("src")
	prod := m.ToProduction()
	withDep, err := m.WithRuntimeDependency(dep)
	require.NoError(t, err)

	for _, key := range []string{"version", "main", "bin", "files", "scripts", "dependencies", "linkDependencies"} {
		require.False(t, moved.Has(key), "MoveTo fabricated %s", key)
		require.False(t, prod.Has(key), "ToProduction fabricated %s", key)
		if key != "dependencies" {
			require.False(t, withDep.Has(key), "WithRuntimeDependency fabricated %s", key)
		}
	}
}

func TestMarshalJSON_Deterministic(t *testing.T) {
	doc := `{"zeta": 1, "name": "project", "alpha": {"b": 2, "a": 1}, "version": "1.0.0", "dependencies": {"z": "1", "a": "2"}}`

	first := toJSON(t, parse(t, doc))
	for i := 0; i < 10; i++ {
		require.Equal(t, first, toJSON(t, parse(t, doc)))
	}
	require.Equal(t,
		`{"name":"project","version":"1.0.0","dependencies":{"a":"2","z":"1"},"alpha":{"a":1,"b":2},"zeta":1}`,
		first)
}
