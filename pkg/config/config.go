// Copyright 2025 gotofritz
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/rs/zerolog"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse parses the config from bytes
	Parse(ctx context.Context, data []byte) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 📊 Maximums caps how many items per category are curated for download
type Maximums struct {
	Videos      *int `json:"videos,omitempty" yaml:"videos,omitempty" hcl:"videos,optional"`
	Livestreams *int `json:"livestreams,omitempty" yaml:"livestreams,omitempty" hcl:"livestreams,optional"`
	Shorts      *int `json:"shorts,omitempty" yaml:"shorts,omitempty" hcl:"shorts,optional"`
}

// 📚 Config represents the complete archiver configuration
type Config struct {
	URL                 string    `json:"url" yaml:"url" hcl:"url,optional"`
	Output              string    `json:"output" yaml:"output" hcl:"output,optional"`
	Format              string    `json:"format,omitempty" yaml:"format,omitempty" hcl:"format,optional"`
	ConcurrentFragments int       `json:"concurrent_fragments,omitempty" yaml:"concurrent_fragments,omitempty" hcl:"concurrent_fragments,optional"`
	Maximums            *Maximums `json:"maximums,omitempty" yaml:"maximums,omitempty" hcl:"maximums,block"`
	SkipDownload        bool      `json:"skip_download,omitempty" yaml:"skip_download,omitempty" hcl:"skip_download,optional"`
	SkipMetadata        bool      `json:"skip_metadata,omitempty" yaml:"skip_metadata,omitempty" hcl:"skip_metadata,optional"`
}

// 🎯 Load loads the configuration from a file
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	cfg, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// 🔍 Validate checks if the configuration is valid
func (cfg *Config) Validate() error {
	if cfg.Output == "" {
		cfg.Output = "."
	}
	cfg.Output = filepath.Clean(cfg.Output)

	if cfg.ConcurrentFragments < 0 {
		return errors.Errorf("concurrent_fragments must not be negative")
	}

	for name, max := range map[string]*int{
		"videos":      maxOrNil(cfg.Maximums, func(m *Maximums) *int { return m.Videos }),
		"livestreams": maxOrNil(cfg.Maximums, func(m *Maximums) *int { return m.Livestreams }),
		"shorts":      maxOrNil(cfg.Maximums, func(m *Maximums) *int { return m.Shorts }),
	} {
		if max != nil && *max < 0 {
			return errors.Errorf("maximums.%s must not be negative", name)
		}
	}

	return nil
}

// ⚖️ Submit normalizes the maximums before use: once any category has a
// maximum, unset categories become 0, and all-zero is equivalent to skipping
// download entirely
func (cfg *Config) Submit(ctx context.Context) {
	if cfg.Maximums == nil {
		return
	}

	zero := 0
	if cfg.Maximums.Videos == nil {
		cfg.Maximums.Videos = &zero
	}
	if cfg.Maximums.Livestreams == nil {
		cfg.Maximums.Livestreams = &zero
	}
	if cfg.Maximums.Shorts == nil {
		cfg.Maximums.Shorts = &zero
	}

	if *cfg.Maximums.Videos == 0 && *cfg.Maximums.Livestreams == 0 && *cfg.Maximums.Shorts == 0 {
		zerolog.Ctx(ctx).Warn().Msg("using the skip downloads option is recommended over setting maximums to 0")
		cfg.SkipDownload = true
	}
}

// 📝 String returns a string representation of the config
func (cfg *Config) String() string {
	return fmt.Sprintf("%s -> %s", cfg.URL, cfg.Output)
}

func maxOrNil(m *Maximums, pick func(*Maximums) *int) *int {
	if m == nil {
		return nil
	}
	return pick(m)
}

// 🔧 YAMLParser implements the Parser interface for YAML files
type YAMLParser struct{}

func init() {
	Register(&YAMLParser{})
}

func (p *YAMLParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".yaml") || strings.HasSuffix(filename, ".yml")
}

func (p *YAMLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(strings.NewReader(string(data)))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, errors.Errorf("parsing YAML: %w", err)
	}
	return &cfg, nil
}

// 🔧 HCLParser implements the Parser interface for HCL files
type HCLParser struct{}

func init() {
	Register(&HCLParser{})
}

func (p *HCLParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".hcl")
}

func (p *HCLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "config.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{},
	}

	var cfg Config
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &cfg)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	return &cfg, nil
}
