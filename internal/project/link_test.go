package project

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jakoblorz/go-nodedist/internal/compiler"
	"github.com/jakoblorz/go-nodedist/internal/config"
	"github.com/jakoblorz/go-nodedist/internal/directory"
	"github.com/jakoblorz/go-nodedist/internal/filesystem"
	"github.com/jakoblorz/go-nodedist/internal/npm"
	"github.com/stretchr/testify/require"
)

func TestLinkAll(t *testing.T) {
	fs := NewProjectBuilder("/workspace").
		WithManifest(`{"name": "project", "main": "src/index.js", "linkDependencies": {"dep": "../packages/dep", "@scope/lib": "/packages/lib"}}`).
		AddFile("src/index.js", "module.exports = require('dep');").
		AddPackage("/packages/dep", `{"name": "dep", "bin": {"dep-cli": "cli.js"}, "dependencies": {"left-pad": "^1.0.0", "present": "1.0.0"}}`).
		AddPackageFile("/packages/dep", "cli.js", "console.log('dep')").
		AddPackageFile("/packages/dep", "node_modules/present/package.json", `{"name": "present"}`).
		AddPackage("/packages/lib", `{"name": "@scope/lib"}`).
		Build()
	env := newTestEnv(t, fs, nil)

	results, err := env.project.LinkAll(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 3)
	require.Equal(t, "project", results[0].Name)
	require.Equal(t, "@scope/lib", results[1].Name)
	require.Equal(t, "dep", results[2].Name)

	for link, target := range map[string]string{
		"/workspace/node_modules/project":    "/workspace",
		"/workspace/node_modules/dep":        "/packages/dep",
		"/workspace/node_modules/@scope/lib": "/packages/lib",
	} {
		got, err := fs.Readlink(link)
		require.NoError(t, err, link)
		require.Equal(t, target, got)
	}

	adapter, err := fs.ReadFile("/workspace/node_modules/.bin/dep-cli")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(adapter), "#!/usr/bin/env node\n"))
	require.Contains(t, string(adapter), `"/packages/dep/cli.js"`)
	require.Contains(t, string(adapter), "babel-register")

	info, err := fs.Stat("/workspace/node_modules/.bin/dep-cli")
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0755), info.Mode().Perm())

	installs := env.installer.Installs()
	require.Equal(t, []npm.InstallCall{{Dir: "/packages/dep", Specs: []string{"left-pad@^1.0.0"}}}, installs)
	require.Equal(t, []string{"left-pad@^1.0.0"}, results[2].Installed)
}

func TestLinkAll_Idempotent(t *testing.T) {
	fs := NewProjectBuilder("/workspace").
		WithManifest(`{"name": "project", "bin": {"project": "src/cli.js"}, "linkDependencies": {"dep": "../dep"}}`).
		AddFile("src/cli.js", "console.log('cli')").
		AddPackage("/dep", `{"name": "dep"}`).
		Build()
	env := newTestEnv(t, fs, nil)

	_, err := env.project.LinkAll(context.Background())
	require.NoError(t, err)
	first := tree(t, fs, "/workspace/node_modules/.bin")

	_, err = env.project.LinkAll(context.Background())
	require.NoError(t, err)
	require.Equal(t, first, tree(t, fs, "/workspace/node_modules/.bin"))

	got, err := fs.Readlink("/workspace/node_modules/dep")
	require.NoError(t, err)
	require.Equal(t, "/dep", got)
}

func TestLinkPackage_InstallPolicyOff(t *testing.T) {
	fs := NewProjectBuilder("/workspace").
		WithManifest(`{"name": "project"}`).
		AddPackage("/dep", `{"name": "dep", "dependencies": {"left-pad": "^1.0.0"}}`).
		Build()

	cfg := config.Default()
	cfg.Link.InstallDependencies = false
	env := newTestEnv(t, fs, cfg)

	result, err := env.project.LinkPackage(context.Background(), "/dep", "")
	require.NoError(t, err)
	require.Empty(t, result.Installed)
	require.Empty(t, env.installer.Installs())
}

func TestLinkPackage_SourceRoot(t *testing.T) {
	fs := NewProjectBuilder("/workspace").
		WithManifest(`{"name": "project"}`).
		AddPackage("/dep", `{"name": "dep", "main": "src/index.js", "bin": {"dep": "src/bin/dep.js"}}`).
		AddPackageFile("/dep", "src/bin/dep.js", "#!/usr/bin/env node\nrequire('dep')").
		Build()
	env := newTestEnv(t, fs, nil)

	result, err := env.project.LinkPackage(context.Background(), "/dep", "src")
	require.NoError(t, err)
	require.Equal(t, "/dep/src", result.Target)
	require.Equal(t, []string{"dep"}, result.Executables)

	got, err := fs.Readlink("/workspace/node_modules/dep")
	require.NoError(t, err)
	require.Equal(t, "/dep/src", got)

	adapter, err := fs.ReadFile("/workspace/node_modules/.bin/dep")
	require.NoError(t, err)
	require.Contains(t, string(adapter), `"root": "/dep/src"`)
	require.Contains(t, string(adapter), `"main": "index.js"`)
	require.Contains(t, string(adapter), `module.exports = require("/dep/src/bin/dep.js");`)
	require.NotContains(t, string(adapter), "babel-register", "targets with a shebang manage themselves")
}

func TestLinkPackage_MissingPackage(t *testing.T) {
	fs := NewProjectBuilder("/workspace").WithManifest(`{"name": "project"}`).Build()
	env := newTestEnv(t, fs, nil)

	_, err := env.project.LinkPackage(context.Background(), "/nowhere", "")
	require.ErrorIs(t, err, directory.ErrNotFound)
}

func TestLinkExecutables(t *testing.T) {
	fs := NewProjectBuilder("/workspace").
		WithManifest(`{"name": "project", "bin": "src/cli.js"}`).
		AddFile("src/cli.js", "import x from 'y'").
		Build()
	env := newTestEnv(t, fs, nil)

	names, err := env.project.LinkExecutables(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"project"}, names)

	adapter, err := fs.ReadFile("/workspace/node_modules/.bin/project")
	require.NoError(t, err)
	require.Contains(t, string(adapter), `module.exports = require("/workspace/src/cli.js");`)
	require.Contains(t, string(adapter), "babel-register")
	require.False(t, fs.Exists("/workspace/node_modules/project"), "only executables are linked")
}

// nodeProject creates a package on disk with the given manifest and files
func nodeProject(t *testing.T, root, manifest string, files map[string]string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(root, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "package.json"), []byte(manifest), 0644))
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

func TestLinkAll_ResolvesWithNode(t *testing.T) {
	node, err := exec.LookPath("node")
	if err != nil {
		t.Skip("node not available")
	}

	tmp := t.TempDir()
	depRoot := filepath.Join(tmp, "dep")
	appRoot := filepath.Join(tmp, "app")

	nodeProject(t, depRoot, `{"name": "dep", "main": "index.js"}`, map[string]string{
		"index.js": "module.exports = 'dep value';\n",
	})
	nodeProject(t, appRoot, `{"name": "app", "main": "src/index.js", "linkDependencies": {"dep": "../dep"}}`, map[string]string{
		"src/index.js": "module.exports = require('dep');\n",
	})

	fs := filesystem.NewOSFileSystem()
	dir, err := directory.New(fs, appRoot)
	require.NoError(t, err)

	proj := New(dir, WithCompiler(compiler.NewMockCompiler(fs)), WithInstaller(npm.NewMockInstaller()))
	_, err = proj.LinkAll(context.Background())
	require.NoError(t, err)

	cmd := exec.Command(node, "-e", "console.log(require('app') === require('dep'))")
	cmd.Dir = appRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, string(output))
	require.Equal(t, "true", strings.TrimSpace(string(output)))
}

func TestCompile_ProducesLoadableOutputWithNode(t *testing.T) {
	node, err := exec.LookPath("node")
	if err != nil {
		t.Skip("node not available")
	}

	root := t.TempDir()
	nodeProject(t, root, `{"name": "project", "main": "src/main.js", "bin": {"tool": "src/bin-file.js"}}`, map[string]string{
		"src/main.js":     "module.exports = 'main';\n",
		"src/bin-file.js": "console.log('bin text')\n",
	})

	fs := filesystem.NewOSFileSystem()
	dir, err := directory.New(fs, root)
	require.NoError(t, err)

	proj := New(dir, WithCompiler(compiler.NewMockCompiler(fs)), WithInstaller(npm.NewMockInstaller()))
	dist, err := proj.Compile(context.Background())
	require.NoError(t, err)

	output, err := exec.Command(node, "-e", "console.log(require(process.argv[1]))", dist.Path()).CombinedOutput()
	require.NoError(t, err, string(output))
	require.Equal(t, "main", strings.TrimSpace(string(output)))

	output, err = exec.Command(dist.Join("bin-file.js")).CombinedOutput()
	require.NoError(t, err, string(output))
	require.Equal(t, "bin text", strings.TrimSpace(string(output)))
}
