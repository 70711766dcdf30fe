package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/jakoblorz/go-nodedist/internal/compiler"
	"github.com/jakoblorz/go-nodedist/internal/filesystem"
	"github.com/jakoblorz/go-nodedist/internal/lifecycle"
	"github.com/jakoblorz/go-nodedist/internal/npm"
	"github.com/jakoblorz/go-nodedist/internal/project"
	"github.com/jakoblorz/go-nodedist/internal/shell"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	*Environment
	fs        *filesystem.MockFileSystem
	runner    *shell.MockRunner
	installer *npm.MockInstaller
	compiler  *compiler.MockCompiler
	vars      map[string]string
	killed    int
}

func newTestEnv(fs *filesystem.MockFileSystem) *testEnv {
	te := &testEnv{
		fs:        fs,
		runner:    shell.NewMockRunner(),
		installer: npm.NewMockInstaller(),
		compiler:  compiler.NewMockCompiler(fs),
		vars:      map[string]string{},
	}
	te.Environment = &Environment{
		FS:        fs,
		Runner:    te.runner,
		Installer: te.installer,
		Compiler:  te.compiler,
		Getenv: func(key string) string {
			return te.vars[key]
		},
		KillParent: func() error {
			te.killed++
			return nil
		},
	}
	return te
}

func (te *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return te.runWithInput(t, "", args...)
}

func (te *testEnv) runWithInput(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand(te.Environment)
	var out, errOut bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func sampleProject() *filesystem.MockFileSystem {
	return project.NewProjectBuilder("/workspace").
		WithManifest(`{"name": "project", "main": "src/index.js", "bin": {"tool": "src/cli.js"}, "linkDependencies": {"dep": "../dep"}}`).
		AddFile("src/index.js", "module.exports = 1;").
		AddFile("src/cli.js", "console.log('tool')").
		AddPackage("/dep", `{"name": "dep", "dependencies": {"left-pad": "^1.0.0"}}`).
		Build()
}

func TestLinkCommand(t *testing.T) {
	te := newTestEnv(sampleProject())

	out, err := te.run(t, "link")
	require.NoError(t, err)
	require.Contains(t, out, "Linked 2 package(s)")
	require.Contains(t, out, "bin: tool")
	require.Contains(t, out, "installed: left-pad@^1.0.0")

	target, err := te.fs.Readlink("/workspace/node_modules/dep")
	require.NoError(t, err)
	require.Equal(t, "/dep", target)
	require.True(t, te.fs.Exists("/workspace/node_modules/.bin/tool"))
}

func TestCompileCommand_Flags(t *testing.T) {
	te := newTestEnv(sampleProject())

	out, err := te.run(t, "compile", "--dist", "build")
	require.NoError(t, err)
	require.Contains(t, out, "/workspace/build")
	require.True(t, te.fs.Exists("/workspace/build/package.json"))
	require.False(t, te.fs.Exists("/workspace/dist"))
}

func TestCompileCommand_InvalidFlags(t *testing.T) {
	te := newTestEnv(sampleProject())

	_, err := te.run(t, "compile", "--src", "lib", "--dist", "lib")
	require.Error(t, err)
	require.Contains(t, err.Error(), "must differ")
}

func TestPublishCommand(t *testing.T) {
	t.Run("started by npm publish", func(t *testing.T) {
		te := newTestEnv(sampleProject())
		te.installer.SetPublishOutput("+ project@1.0.0")
		te.vars[lifecycle.CommandEnv] = "publish"

		out, err := te.run(t, "publish")
		require.NoError(t, err)
		require.Contains(t, out, "+ project@1.0.0")
		require.Equal(t, []string{"/workspace/dist"}, te.installer.Publishes())
		require.Equal(t, 1, te.killed)
	})

	t.Run("started directly", func(t *testing.T) {
		te := newTestEnv(sampleProject())

		_, err := te.run(t, "publish")
		require.NoError(t, err)
		require.Len(t, te.installer.Publishes(), 1)
		require.Zero(t, te.killed)
	})

	t.Run("failure leaves npm running", func(t *testing.T) {
		te := newTestEnv(sampleProject())
		te.vars[lifecycle.CommandEnv] = "publish"
		te.installer.FailPublish(errors.New("E403"))

		_, err := te.run(t, "publish")
		require.Error(t, err)
		require.Contains(t, err.Error(), "E403")
		require.Zero(t, te.killed)
	})
}

func TestRootCommand_AutoMode(t *testing.T) {
	tests := []struct {
		name      string
		vars      map[string]string
		linked    bool
		compiled  bool
		published bool
	}{
		{name: "no npm", vars: map[string]string{}, linked: true},
		{name: "npm install", vars: map[string]string{lifecycle.CommandEnv: "install"}, linked: true},
		{name: "npm pack", vars: map[string]string{lifecycle.CommandEnv: "pack"}, compiled: true},
		{name: "legacy npm publish", vars: map[string]string{lifecycle.ArgvEnv: `{"remain":[],"cooked":["publish"],"original":["publish"]}`}, compiled: true, published: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			te := newTestEnv(sampleProject())
			te.vars = tt.vars

			_, err := te.run(t)
			require.NoError(t, err)
			require.Equal(t, tt.linked, te.fs.Exists("/workspace/node_modules/dep"))
			require.Equal(t, tt.compiled, te.fs.Exists("/workspace/dist/package.json"))
			require.Equal(t, tt.published, len(te.installer.Publishes()) == 1)
		})
	}
}

func TestRunCommand(t *testing.T) {
	te := newTestEnv(sampleProject())
	te.runner.Respond("node -e", "tool output")

	out, err := te.run(t, "run", "src/cli.js")
	require.NoError(t, err)
	require.Equal(t, "tool output\n", out)

	_, err = te.run(t, "run", "a.js", "b.js")
	require.Error(t, err)
}

func TestRunCommand_Stdin(t *testing.T) {
	for _, args := range [][]string{{"run"}, {"run", "-"}} {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			te := newTestEnv(sampleProject())
			te.runner.Respond("node -e", "stdin output")

			out, err := te.runWithInput(t, "import tool from 'project';\nconsole.log(tool);\n", args...)
			require.NoError(t, err)
			require.Equal(t, "stdin output\n", out)

			calls := te.runner.Calls()
			require.Len(t, calls, 1)
			require.Equal(t, "/workspace", calls[0].Dir)
			require.Contains(t, calls[0].Command, "babel-core")
			require.Contains(t, calls[0].Command, `import tool from \'project\';`)
		})
	}

	t.Run("empty", func(t *testing.T) {
		te := newTestEnv(sampleProject())

		_, err := te.runWithInput(t, "", "run")
		require.Error(t, err)
		require.Empty(t, te.runner.Calls())
	})
}

func TestCompileCommand_FromSubdirectory(t *testing.T) {
	fs := sampleProject()
	fs.SetCurrentDir("/workspace/src")
	te := newTestEnv(fs)

	_, err := te.run(t, "compile")
	require.NoError(t, err)
	require.True(t, te.fs.Exists("/workspace/dist/index.js"))
}

func TestCommands_OutsidePackage(t *testing.T) {
	fs := filesystem.NewMockFileSystem()
	fs.AddDir("/tmp")
	fs.SetCurrentDir("/tmp")
	te := newTestEnv(fs)

	_, err := te.run(t, "link")
	require.Error(t, err)
	require.Contains(t, err.Error(), "package.json")
}
