// Package adapter renders the Node bootstrap scripts placed in node_modules/.bin
// for linked executables.
package adapter

import (
	"bytes"
	"cmp"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// Shebang is the marker line every generated and compiled executable starts with
const Shebang = "#!/usr/bin/env node"

// DefaultRegister is the module that installs the on-demand transform hook
const DefaultRegister = "babel-register"

// DefaultCore is the module whose transform compiles inline source
const DefaultCore = "babel-core"

// DefaultFilename names inline source in stack traces
const DefaultFilename = "[stdin]"

// HasShebang reports whether content starts with an interpreter line
func HasShebang(content []byte) bool {
	return bytes.HasPrefix(content, []byte("#!"))
}

// EnsureShebang prepends the node shebang unless content already has one
func EnsureShebang(content []byte) []byte {
	if HasShebang(content) {
		return content
	}
	out := make([]byte, 0, len(Shebang)+1+len(content))
	out = append(out, Shebang...)
	out = append(out, '\n')
	return append(out, content...)
}

// Options configure the transform hook registered by generated adapters
type Options struct {
	Register string
	Core     string
	Presets  []string
	Plugins  []string
}

// Input describes one adapter
type Input struct {
	// Registry overrides module resolution inside the adapter's process
	Registry *Registry
	// Target is the absolute path of the real executable
	Target string
	// SelfManaged is set when the target starts with its own shebang line.
	// It is then required directly without the transform hook.
	SelfManaged bool
	// Source is compiled and evaluated in place of requiring Target.
	// The transform hook is always registered for it.
	Source string
	// Filename labels Source in stack traces; empty means DefaultFilename
	Filename string
}

type templateData struct {
	Shebang     string
	Registry    *Registry
	Target      string
	SelfManaged bool
	Source      string
	Filename    string
	Register    string
	Core        string
	Presets     []string
	Plugins     []string
}

const adapterTemplate = `{{ .Shebang }}
'use strict';
var Module = require('module');
var path = require('path');

var overrides = {{ toPrettyJson .Registry }};

var resolveFilename = Module._resolveFilename;
Module._resolveFilename = function (request, parent, isMain, options) {
  var names = Object.keys(overrides);
  for (var i = 0; i < names.length; i++) {
    var name = names[i];
    var entry = overrides[name];
    if (request === name) {
      return resolveFilename.call(this, path.join(entry.root, entry.main), parent, isMain, options);
    }
    if (request.indexOf(name + '/') === 0) {
      return resolveFilename.call(this, path.join(entry.root, request.slice(name.length + 1)), parent, isMain, options);
    }
  }
  return resolveFilename.call(this, request, parent, isMain, options);
};
{{ if and .SelfManaged (not .Source) }}
module.exports = require({{ toJson .Target }});
{{- else }}
require({{ toJson .Register }})({
  presets: {{ toJson .Presets }},
  plugins: {{ toJson .Plugins }},
  ignore: function (filename) {
    var names = Object.keys(overrides);
    for (var i = 0; i < names.length; i++) {
      var root = overrides[names[i]].root + path.sep;
      if (filename.indexOf(root) === 0) {
        filename = filename.slice(root.length);
        break;
      }
    }
    return filename.split(path.sep).indexOf('node_modules') !== -1;
  }
});
{{- if .Source }}
var compiled = require({{ toJson .Core }}).transform({{ toJson .Source }}, {
  filename: {{ toJson .Filename }},
  presets: {{ toJson .Presets }},
  plugins: {{ toJson .Plugins }}
});
module._compile(compiled.code, {{ toJson .Filename }});
{{- else }}
module.exports = require({{ toJson .Target }});
{{- end }}
{{- end }}
`

// Generator renders adapter scripts
type Generator struct {
	opts Options
	tmpl *template.Template
}

// NewGenerator creates a Generator; an empty Register falls back to DefaultRegister
func NewGenerator(opts Options) *Generator {
	if opts.Register == "" {
		opts.Register = DefaultRegister
	}
	if opts.Core == "" {
		opts.Core = DefaultCore
	}
	if opts.Presets == nil {
		opts.Presets = []string{}
	}
	if opts.Plugins == nil {
		opts.Plugins = []string{}
	}
	return &Generator{
		opts: opts,
		tmpl: template.Must(template.New("adapter").Funcs(sprig.TxtFuncMap()).Parse(adapterTemplate)),
	}
}

// Generate renders the adapter for input
func (g *Generator) Generate(input Input) (string, error) {
	if input.Target == "" && input.Source == "" {
		return "", fmt.Errorf("adapter target must not be empty")
	}
	filename := input.Filename
	if filename == "" {
		filename = DefaultFilename
	}
	registry := input.Registry
	if registry == nil {
		registry = NewRegistry()
	}

	var buf bytes.Buffer
	err := g.tmpl.Execute(&buf, templateData{
		Shebang:     Shebang,
		Registry:    registry,
		Target:      input.Target,
		SelfManaged: input.SelfManaged,
		Source:      input.Source,
		Filename:    filename,
		Register:    g.opts.Register,
		Core:        g.opts.Core,
		Presets:     g.opts.Presets,
		Plugins:     g.opts.Plugins,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render adapter for %s: %w", cmp.Or(input.Target, filename), err)
	}
	return buf.String(), nil
}
