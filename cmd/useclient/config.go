package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileConfig is the optional YAML configuration file. Flags override it.
type fileConfig struct {
	Include    []string `yaml:"include"`
	Exclude    []string `yaml:"exclude"`
	Globals    []string `yaml:"globals"`
	Unresolved string   `yaml:"unresolved"`
	Strict     bool     `yaml:"strict"`
	ClientExt  string   `yaml:"clientExt"`
	OutDir     string   `yaml:"outDir"`
	Lower      bool     `yaml:"lower"`
	Metafile   string   `yaml:"metafile"`
}

func loadConfig(path string) (*fileConfig, error) {
	cfg := &fileConfig{}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}
