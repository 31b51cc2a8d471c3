// Package config provides configuration management for machine-setup using
// Viper. Every value has a default reproducing the stock bootstrap, so the
// tool runs with no config file present.
package config

import (
	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"

	"github.com/danbriechle/One-Step-Machine-Setup/internal/paths"
)

// Config is the top-level configuration structure.
type Config struct {
	// Profile overrides the shell startup file. Empty means the default
	// resolution (ZDOTDIR-aware ~/.zshrc).
	Profile string `mapstructure:"profile" yaml:"profile"`

	Ruby     RubyConfig     `mapstructure:"ruby" yaml:"ruby"`
	Java     JavaConfig     `mapstructure:"java" yaml:"java"`
	Node     NodeConfig     `mapstructure:"node" yaml:"node"`
	Packages PackagesConfig `mapstructure:"packages" yaml:"packages"`
}

// RubyConfig describes what the rbenv step installs.
type RubyConfig struct {
	// Versions are installed one by one, each best-effort. The newest
	// installed version becomes the global default.
	Versions []string `mapstructure:"versions" yaml:"versions"`

	// DefaultGems are registered in rbenv's default-gems file so every
	// future Ruby install gets them automatically.
	DefaultGems []string `mapstructure:"default_gems" yaml:"default_gems"`
}

// JavaConfig describes what the SDKMAN step installs.
type JavaConfig struct {
	// Candidates are SDKMAN identifiers tried in order; within one major
	// version the first that installs wins and the rest are skipped.
	Candidates []string `mapstructure:"candidates" yaml:"candidates"`

	// DefaultMajor selects which major version becomes `sdk default java`.
	DefaultMajor int `mapstructure:"default_major" yaml:"default_major"`
}

// NodeConfig describes what the nvm step installs.
type NodeConfig struct {
	// Versions are nvm install arguments, each best-effort.
	Versions []string `mapstructure:"versions" yaml:"versions"`

	// DefaultAlias is the nvm alias set as default.
	DefaultAlias string `mapstructure:"default_alias" yaml:"default_alias"`
}

// PackagesConfig lists the system packages each platform installer ensures.
type PackagesConfig struct {
	Brew []string `mapstructure:"brew" yaml:"brew"`
	Apt  []string `mapstructure:"apt" yaml:"apt"`
}

// Init installs defaults and wires environment variable overrides.
// Call once at application startup before accessing config values.
func Init() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(paths.ConfigDir())

	viper.SetEnvPrefix("MACHINE_SETUP")
	viper.AutomaticEnv()

	viper.SetDefault("profile", "")
	viper.SetDefault("ruby.versions", []string{"3.2.9", "3.3.9", "3.4.5"})
	viper.SetDefault("ruby.default_gems", []string{"bundler"})
	viper.SetDefault("java.candidates", []string{
		"21.0.8-tem", "21.0.7-tem",
		"17.0.16-tem", "17.0.15-tem",
	})
	viper.SetDefault("java.default_major", 21)
	viper.SetDefault("node.versions", []string{"--lts", "22"})
	viper.SetDefault("node.default_alias", "lts/*")
	viper.SetDefault("packages.brew", []string{
		"openssl@3", "readline", "libyaml", "gmp", "autoconf",
		"zlib", "git", "curl", "unzip", "zip",
	})
	viper.SetDefault("packages.apt", []string{
		"git", "curl", "zip", "unzip", "build-essential",
		"libssl-dev", "libreadline-dev", "libyaml-dev", "zlib1g-dev",
		"autoconf", "bison", "libffi-dev", "libgdbm-dev",
		"libncurses-dev", "libdb-dev", "uuid-dev",
	})
}

// Load reads the configuration. If path is non-empty it must name an
// existing file; otherwise the default locations are searched and a missing
// file falls back to defaults.
func Load(path string) (*Config, error) {
	if path != "" {
		viper.SetConfigFile(path)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			if path != "" {
				return nil, errors.Wrapf(err, "config file not found at %s", path)
			}
			// Implicit load without a file: defaults apply.
		} else {
			return nil, errors.Wrap(err, "reading config file")
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshaling config")
	}

	return &cfg, nil
}
