// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config holds the compile settings merged from spvcross.toml, the
// environment and flags.
type Config struct {
	Targets []string   `mapstructure:"targets"`
	Entry   string     `mapstructure:"entry"`
	Stage   string     `mapstructure:"stage"`
	Output  string     `mapstructure:"output"`
	FlipY   bool       `mapstructure:"flip_y"`
	HLSL    HLSLConfig `mapstructure:"hlsl"`
	MSL     MSLConfig  `mapstructure:"msl"`
	GLSL    GLSLConfig `mapstructure:"glsl"`
}

// HLSLConfig is the [hlsl] table.
type HLSLConfig struct {
	ShaderModel     string `mapstructure:"shader_model"`
	PointSizeCompat bool   `mapstructure:"point_size_compat"`
}

// MSLConfig is the [msl] table.
type MSLConfig struct {
	Version     string `mapstructure:"version"`
	Platform    string `mapstructure:"platform"`
	BoundsCheck bool   `mapstructure:"bounds_check"`
}

// GLSLConfig is the [glsl] table.
type GLSLConfig struct {
	Version uint32 `mapstructure:"version"`
	ES      bool   `mapstructure:"es"`
}

// flagKeys maps compile flags onto configuration keys.
var flagKeys = map[string]string{
	"target":            "targets",
	"entry":             "entry",
	"stage":             "stage",
	"output":            "output",
	"flip-y":            "flip_y",
	"shader-model":      "hlsl.shader_model",
	"point-size-compat": "hlsl.point_size_compat",
	"msl-version":       "msl.version",
	"msl-platform":      "msl.platform",
	"bounds-check":      "msl.bounds_check",
	"glsl-version":      "glsl.version",
	"es":                "glsl.es",
}

// loadConfig reads the configuration for cmd. A missing spvcross.toml is
// not an error; a missing file named by --config is.
func loadConfig(cmd *cobra.Command) (*Config, error) {
	v := viper.New()

	v.SetDefault("targets", []string{"hlsl", "msl", "glsl"})
	v.SetDefault("hlsl.shader_model", "5.1")
	v.SetDefault("msl.version", "2.1")
	v.SetDefault("msl.platform", "macos")
	v.SetDefault("glsl.version", 0)

	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("spvcross")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("SPVCROSS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for flag, key := range flagKeys {
		if f := cmd.Flags().Lookup(flag); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind --%s: %w", flag, err)
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}
