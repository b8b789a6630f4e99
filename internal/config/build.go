// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// FamilyConfig selects which source files of one family are built.
type FamilyConfig struct {
	Weights []int    `yaml:"weights"`
	Subsets []string `yaml:"subsets"`
	Style   string   `yaml:"style"`
}

// PublishConfig describes an optional S3 (or S3-compatible) upload target.
type PublishConfig struct {
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Region    string `yaml:"region"`
	Profile   string `yaml:"profile"`
	Endpoint  string `yaml:"endpoint"`
	PathStyle bool   `yaml:"path_style"`
}

// Enabled reports whether a bucket is configured.
func (p PublishConfig) Enabled() bool {
	return p.Bucket != ""
}

// BuildConfig is the "build" section of the config file.
type BuildConfig struct {
	SourceDir string                  `yaml:"source_dir"`
	OutputDir string                  `yaml:"output_dir"`
	CSSFile   string                  `yaml:"css_file"`
	Format    string                  `yaml:"format"`
	Display   string                  `yaml:"display"`
	Hash      *bool                   `yaml:"hash"`
	Cache     *bool                   `yaml:"cache"`
	CacheDir  string                  `yaml:"cache_dir"`
	Families  map[string]FamilyConfig `yaml:"families"`
	Publish   PublishConfig           `yaml:"publish"`
}

// HashNames reports whether output names carry a content hash. Defaults to
// true.
func (b BuildConfig) HashNames() bool {
	return b.Hash == nil || *b.Hash
}

// UseCache reports whether the result cache is consulted. Defaults to true.
func (b BuildConfig) UseCache() bool {
	return b.Cache == nil || *b.Cache
}

// FamilyNames returns the configured family names, sorted.
func (b BuildConfig) FamilyNames() []string {
	names := make([]string, 0, len(b.Families))
	for name := range b.Families {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks the fields the build hook cannot default.
func (b BuildConfig) Validate() error {
	if b.SourceDir == "" {
		return errors.New("build.source_dir is required")
	}
	if b.OutputDir == "" {
		return errors.New("build.output_dir is required")
	}
	if len(b.Families) == 0 {
		return errors.New("build.families must name at least one family")
	}
	for _, name := range b.FamilyNames() {
		for _, w := range b.Families[name].Weights {
			if w < 100 || w > 900 { //nolint:mnd
				return fmt.Errorf("build.families.%s: weight %d out of range [100,900]", name, w)
			}
		}
	}
	return nil
}

// ParseBuild decodes a full config document and returns its build section.
func ParseBuild(data []byte) (BuildConfig, error) {
	var doc struct {
		Build BuildConfig `yaml:"build"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return BuildConfig{}, fmt.Errorf("failed to parse build config: %w", err)
	}
	return doc.Build, nil
}

// GetBuild returns the build section of the loaded config.
func GetBuild() (BuildConfig, error) {
	raw, err := lookup("build")
	if err != nil {
		return BuildConfig{}, fmt.Errorf("no build section in config: %w", err)
	}
	data, err := yaml.Marshal(map[string]any{"build": raw})
	if err != nil {
		return BuildConfig{}, err
	}
	return ParseBuild(data)
}
