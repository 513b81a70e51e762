// Package config loads the asmtool configuration file.
package config

import (
	"fmt"

	"github.com/spf13/viper"
	"github.com/xyproto/env/v2"
)

// Config represents the asmtool configuration
type Config struct {
	Output  string        `mapstructure:"output"`
	Rewrite RewriteConfig `mapstructure:"rewrite"`
}

// RewriteConfig configures the rewrite command's build policy
type RewriteConfig struct {
	// Preserve lists preservation categories by configuration name,
	// e.g. "preserve_type_tokens", or "all".
	Preserve []string `mapstructure:"preserve"`

	// GapMode is "placeholder" or "reject".
	GapMode string `mapstructure:"gap_mode"`

	// Verify re-loads the rebuilt image and checks token stability.
	Verify bool `mapstructure:"verify"`
}

// Load loads the configuration from asmtool.yml or asmtool.yaml
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("output", env.Str("ASMTOOL_OUTPUT", "out.asmi"))
	v.SetDefault("rewrite.gap_mode", "placeholder")
	v.SetDefault("rewrite.verify", true)

	// Set config name and paths
	v.SetConfigName("asmtool")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Enable environment variable support
	v.SetEnvPrefix("ASMTOOL")
	v.AutomaticEnv()

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// NoColor reports whether color output is disabled through the
// conventional NO_COLOR environment variable.
func NoColor() bool {
	return env.Has("NO_COLOR")
}
