package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/michaelbrown/llhd-playground/internal/logging"
	"github.com/michaelbrown/llhd-playground/internal/sandbox"
)

// Legacy environment variables, kept for existing deployments.
const (
	EnvRoot    = "LLHD_WEBSITE_ROOT"
	EnvAddress = "LLHD_WEBSITE_ADDRESS"
	EnvPort    = "LLHD_WEBSITE_PORT"
	EnvLogFile = "LLHD_WEBSITE_LOG_FILE"
)

type ServerConfig struct {
	Address      string `mapstructure:"address" yaml:"address"`
	Port         int    `mapstructure:"port" yaml:"port"`
	Root         string `mapstructure:"root" yaml:"root"`
	AccessLog    string `mapstructure:"access_log" yaml:"access_log"`
	MaxBodyBytes int64  `mapstructure:"max_body_bytes" yaml:"max_body_bytes"`
}

type SandboxConfig struct {
	Mode            string        `mapstructure:"mode" yaml:"mode"`
	Image           string        `mapstructure:"image" yaml:"image"`
	Compiler        string        `mapstructure:"compiler" yaml:"compiler"`
	WorkDir         string        `mapstructure:"workdir" yaml:"workdir"`
	MemoryLimit     string        `mapstructure:"memory" yaml:"memory"`
	MemorySwapLimit string        `mapstructure:"memory_swap" yaml:"memory_swap"`
	PidsLimit       int           `mapstructure:"pids_limit" yaml:"pids_limit"`
	Timeout         time.Duration `mapstructure:"timeout" yaml:"timeout"`
	HostTimeout     time.Duration `mapstructure:"host_timeout" yaml:"host_timeout"`
	CompilerFlags   string        `mapstructure:"compiler_flags" yaml:"compiler_flags"`
	TempDir         string        `mapstructure:"temp_dir" yaml:"temp_dir"`
	Preflight       bool          `mapstructure:"preflight" yaml:"preflight"`
}

type DocsConfig struct {
	SourceURL string `mapstructure:"source_url" yaml:"source_url"`
	Output    string `mapstructure:"output" yaml:"output"`
}

type Config struct {
	Server  ServerConfig   `mapstructure:"server" yaml:"server"`
	Sandbox SandboxConfig  `mapstructure:"sandbox" yaml:"sandbox"`
	Log     logging.Config `mapstructure:"log" yaml:"log"`
	Docs    DocsConfig     `mapstructure:"docs" yaml:"docs"`
}

// Load reads configuration from defaults, an optional YAML file and the
// environment, in increasing order of precedence. With an empty path the
// file is looked up as playground.yaml in . and $HOME/.llhd; a missing
// file is not an error. A .env file in the working directory is loaded
// into the environment first.
func Load(path string) (*Config, error) {
	// Like dotenv, a missing .env is fine and existing variables win.
	_ = gotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("playground")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.llhd")
	}

	v.SetEnvPrefix("LLHD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.BindEnv("server.root", EnvRoot, "LLHD_SERVER_ROOT")
	v.BindEnv("server.address", EnvAddress, "LLHD_SERVER_ADDRESS")
	v.BindEnv("server.port", EnvPort, "LLHD_SERVER_PORT")
	v.BindEnv("server.access_log", EnvLogFile, "LLHD_SERVER_ACCESS_LOG")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	p := sandbox.DefaultPolicy()

	v.SetDefault("server.address", "127.0.0.1")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.root", "")
	v.SetDefault("server.access_log", "access-log.csv")
	v.SetDefault("server.max_body_bytes", 1<<20)

	v.SetDefault("sandbox.mode", string(p.Mode))
	v.SetDefault("sandbox.image", p.Image)
	v.SetDefault("sandbox.compiler", p.Compiler)
	v.SetDefault("sandbox.workdir", p.WorkDir)
	v.SetDefault("sandbox.memory", p.MemoryLimit)
	v.SetDefault("sandbox.memory_swap", p.MemorySwapLimit)
	v.SetDefault("sandbox.pids_limit", p.PidsLimit)
	v.SetDefault("sandbox.timeout", p.Timeout)
	v.SetDefault("sandbox.host_timeout", p.HostTimeout)
	v.SetDefault("sandbox.compiler_flags", "")
	v.SetDefault("sandbox.temp_dir", os.TempDir())
	v.SetDefault("sandbox.preflight", true)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("docs.source_url", "https://raw.githubusercontent.com/fabianschuiki/llhd/master/doc/LANGUAGE.md")
	v.SetDefault("docs.output", "")
}

// Policy converts the sandbox section into a sandbox.Policy.
func (c *Config) Policy() sandbox.Policy {
	s := c.Sandbox
	return sandbox.Policy{
		Mode:            sandbox.Mode(s.Mode),
		Image:           s.Image,
		Compiler:        s.Compiler,
		WorkDir:         s.WorkDir,
		MemoryLimit:     s.MemoryLimit,
		MemorySwapLimit: s.MemorySwapLimit,
		PidsLimit:       s.PidsLimit,
		Timeout:         s.Timeout,
		HostTimeout:     s.HostTimeout,
		CompilerFlags:   s.CompilerFlags,
		TempDir:         s.TempDir,
	}
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// Validate checks the settings needed to serve.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Server.Port)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("max_body_bytes must be positive")
	}
	if err := c.Policy().Validate(); err != nil {
		return fmt.Errorf("sandbox: %w", err)
	}
	return nil
}
