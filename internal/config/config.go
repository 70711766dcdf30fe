// Package config loads nodedist settings from flags, NODEDIST_* environment
// variables and an optional .nodedistrc.yaml in the project root, in that order
// of precedence.
package config

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jakoblorz/go-nodedist/internal/filesystem"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// FileName is the optional per-project config file
	FileName  = ".nodedistrc.yaml"
	EnvPrefix = "NODEDIST"
)

type Config struct {
	Src       string          `mapstructure:"src"`
	Dist      string          `mapstructure:"dist"`
	Compiler  CompilerConfig  `mapstructure:"compiler"`
	Installer InstallerConfig `mapstructure:"installer"`
	Runtime   RuntimeConfig   `mapstructure:"runtime"`
	Transform TransformConfig `mapstructure:"transform"`
	Link      LinkConfig      `mapstructure:"link"`
	Publish   PublishConfig   `mapstructure:"publish"`
}

type CompilerConfig struct {
	Command string   `mapstructure:"command"`
	Presets []string `mapstructure:"presets"`
	Plugins []string `mapstructure:"plugins"`
}

type InstallerConfig struct {
	Command string `mapstructure:"command"`
}

// RuntimeConfig names the runtime-support dependency. An empty Version pins
// it to the compiler's own version.
type RuntimeConfig struct {
	Package string `mapstructure:"package"`
	Version string `mapstructure:"version"`
}

type TransformConfig struct {
	Register string `mapstructure:"register"`
	// Core compiles source read from stdin
	Core string `mapstructure:"core"`
}

type LinkConfig struct {
	// InstallDependencies installs a linked package's missing dependencies
	InstallDependencies bool `mapstructure:"installDependencies"`
}

type PublishConfig struct {
	// KillParent terminates the invoking npm process after publishing
	KillParent bool `mapstructure:"killParent"`
}

// Default returns the built-in settings
func Default() *Config {
	return &Config{
		Src:  "src",
		Dist: "dist",
		Compiler: CompilerConfig{
			Command: "babel",
			Presets: []string{"es2015", "stage-0"},
			Plugins: []string{"transform-decorators-legacy", "transform-runtime"},
		},
		Installer: InstallerConfig{Command: "npm"},
		Runtime:   RuntimeConfig{Package: "babel-runtime"},
		Transform: TransformConfig{Register: "babel-register", Core: "babel-core"},
		Link:      LinkConfig{InstallDependencies: true},
		Publish:   PublishConfig{KillParent: true},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("src", d.Src)
	v.SetDefault("dist", d.Dist)
	v.SetDefault("compiler.command", d.Compiler.Command)
	v.SetDefault("compiler.presets", d.Compiler.Presets)
	v.SetDefault("compiler.plugins", d.Compiler.Plugins)
	v.SetDefault("installer.command", d.Installer.Command)
	v.SetDefault("runtime.package", d.Runtime.Package)
	v.SetDefault("runtime.version", d.Runtime.Version)
	v.SetDefault("transform.register", d.Transform.Register)
	v.SetDefault("transform.core", d.Transform.Core)
	v.SetDefault("link.installDependencies", d.Link.InstallDependencies)
	v.SetDefault("publish.killParent", d.Publish.KillParent)
}

// Load reads the settings for the project at projectDir on fsys. flags may be
// nil; when given, its "src" and "dist" flags override every other source.
func Load(fsys filesystem.FileSystem, projectDir string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configPath := filepath.Join(projectDir, FileName)
	if fsys.Exists(configPath) {
		data, err := fsys.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", configPath, err)
		}
		v.SetConfigType("yaml")
		if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", configPath, err)
		}
	}

	if flags != nil {
		for _, name := range []string{"src", "dist"} {
			if flag := flags.Lookup(name); flag != nil {
				if err := v.BindPFlag(name, flag); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the pipelines cannot work with
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Src) == "" {
		return fmt.Errorf("src must not be empty")
	}
	if strings.TrimSpace(c.Dist) == "" {
		return fmt.Errorf("dist must not be empty")
	}
	if filepath.Clean(c.Src) == filepath.Clean(c.Dist) {
		return fmt.Errorf("src and dist must differ, both are %q", c.Src)
	}
	if filepath.Clean(c.Dist) == "." {
		return fmt.Errorf("dist must not be the project root")
	}
	if strings.TrimSpace(c.Runtime.Package) == "" {
		return fmt.Errorf("runtime.package must not be empty")
	}
	return nil
}
