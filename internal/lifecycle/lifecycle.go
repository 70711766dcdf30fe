// Package lifecycle works out which npm lifecycle event started nodedist.
package lifecycle

import (
	"encoding/json"
	"os"
	"syscall"

	"github.com/jakoblorz/go-nodedist/internal/logging"
)

// Mode is the pipeline nodedist runs
type Mode string

const (
	ModeLink    Mode = "link"
	ModeCompile Mode = "compile"
	ModePublish Mode = "publish"
)

const (
	// CommandEnv is set by npm 7 and later
	CommandEnv = "npm_command"
	// ArgvEnv is set by npm 6 and earlier as {"remain":[],"cooked":["publish"],"original":["publish"]}
	ArgvEnv = "npm_config_argv"
)

// Detect maps the originating npm command to a mode. publish publishes, pack
// only compiles and everything else (install, ci, link or no npm at all) links.
func Detect(getenv func(string) string) Mode {
	command := Command(getenv)
	switch command {
	case "publish":
		return ModePublish
	case "pack":
		return ModeCompile
	default:
		return ModeLink
	}
}

// Command returns the npm command that started the process, or "" when unknown
func Command(getenv func(string) string) string {
	if command := getenv(CommandEnv); command != "" {
		return command
	}

	raw := getenv(ArgvEnv)
	if raw == "" {
		return ""
	}

	var argv struct {
		Cooked []string `json:"cooked"`
	}
	if err := json.Unmarshal([]byte(raw), &argv); err != nil {
		logger := logging.GetLogger("lifecycle")
		logger.Debug().Err(err).Str(ArgvEnv, raw).Msg("Ignoring malformed npm argv")
		return ""
	}
	if len(argv.Cooked) == 0 {
		return ""
	}
	return argv.Cooked[0]
}

// KillParent sends SIGTERM to the parent process so npm does not continue
// with its own publish after nodedist has published the dist directory.
func KillParent() error {
	parent, err := os.FindProcess(os.Getppid())
	if err != nil {
		return err
	}
	return parent.Signal(syscall.SIGTERM)
}
