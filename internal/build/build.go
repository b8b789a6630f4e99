// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package build

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/apex/log"

	"github.com/staranto/fontslim/internal/config"
	"github.com/staranto/fontslim/internal/fontfile"
	"github.com/staranto/fontslim/internal/optimizer"
	"github.com/staranto/fontslim/internal/publish"
)

// DefaultCSSFile is the stylesheet name used when build.css_file is unset.
const DefaultCSSFile = "fonts.css"

// Publisher uploads finished artifacts.
type Publisher interface {
	Publish(ctx context.Context, files []string) ([]publish.Object, error)
}

// Report summarizes one build.
type Report struct {
	Results   []fontfile.Result `json:"results"`
	Warnings  []string          `json:"warnings"`
	Matched   int               `json:"matched"`
	Skipped   int               `json:"skipped"`
	CSSFile   string            `json:"cssFile"`
	Published []publish.Object  `json:"published,omitempty"`
}

type runner struct {
	publisher Publisher
	logger    log.Interface
}

// Option customizes Run.
type Option func(*runner)

// WithPublisher overrides the publisher built from build.publish.
func WithPublisher(p Publisher) Option {
	return func(r *runner) { r.publisher = p }
}

// WithLogger sets the logger used for warnings.
func WithLogger(l log.Interface) Option {
	return func(r *runner) { r.logger = l }
}

// Run optimizes every configured family found in cfg.SourceDir, writes the
// aggregate stylesheet and optionally publishes the output. Families or
// weights without a matching source file are warnings, not errors.
func Run(ctx context.Context, cfg config.BuildConfig, p *optimizer.Pipeline, opts ...Option) (*Report, error) {
	r := &runner{logger: log.Log}
	for _, opt := range opts {
		opt(r)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	sources, err := optimizer.ExpandInputs([]string{cfg.SourceDir})
	if err != nil {
		return nil, err
	}

	report := &Report{CSSFile: cfg.CSSFile}
	if report.CSSFile == "" {
		report.CSSFile = filepath.Join(cfg.OutputDir, DefaultCSSFile)
	}

	for _, name := range cfg.FamilyNames() {
		fam := cfg.Families[name]
		inputs, missing := selectSources(sources, name, fam)
		for _, w := range missing {
			r.warn(report, fmt.Sprintf("no source file for %s weight %d in %s", name, w, cfg.SourceDir))
		}
		if len(inputs) == 0 {
			if len(fam.Weights) == 0 {
				r.warn(report, fmt.Sprintf("no source files for %s in %s", name, cfg.SourceDir))
			}
			continue
		}

		shared := optimizer.Request{
			FontFamily:  name,
			FontStyle:   fam.Style,
			FontDisplay: cfg.Display,
			Format:      fontfile.Format(cfg.Format),
			Subsets:     fam.Subsets,
			Hash:        cfg.HashNames(),
			UseCache:    cfg.UseCache(),
			CacheDir:    cfg.CacheDir,
		}
		if len(shared.Subsets) == 0 {
			shared.Subsets = nil
		}

		results := p.OptimizeMany(ctx, inputs, cfg.OutputDir, shared)
		report.Matched += len(inputs)
		report.Skipped += len(inputs) - len(results)
		report.Results = append(report.Results, results...)
	}

	for _, path := range collisions(report.Results) {
		r.warn(report, "multiple fonts were written to "+path)
	}

	if err := optimizer.GenerateAggregateCSS(report.Results, report.CSSFile); err != nil {
		return report, err
	}

	if err := r.publish(ctx, cfg, report); err != nil {
		return report, err
	}
	return report, nil
}

func (r *runner) warn(report *Report, msg string) {
	r.logger.Warn(msg)
	report.Warnings = append(report.Warnings, msg)
}

func (r *runner) publish(ctx context.Context, cfg config.BuildConfig, report *Report) error {
	pub := r.publisher
	if pub == nil {
		if !cfg.Publish.Enabled() {
			return nil
		}
		p, err := publish.New(ctx, cfg.Publish)
		if err != nil {
			return err
		}
		pub = p
	}

	var files []string
	for _, res := range report.Results {
		if !slices.Contains(files, res.Optimized.Path) {
			files = append(files, res.Optimized.Path)
		}
	}
	files = append(files, report.CSSFile)

	objs, err := pub.Publish(ctx, files)
	report.Published = objs
	return err
}

// selectSources returns the sources belonging to family, restricted to the
// configured weights, and the configured weights no source provides.
func selectSources(sources []string, family string, fam config.FamilyConfig) ([]string, []int) {
	want := fontfile.CanonicalName(family)
	found := map[int]bool{}

	var inputs []string
	for _, src := range sources {
		md := fontfile.ParseFilename(src)
		if fontfile.CanonicalName(md.Family) != want {
			continue
		}
		if fam.Style != "" && md.Style != fam.Style {
			continue
		}
		if len(fam.Weights) > 0 && !slices.Contains(fam.Weights, md.Weight) {
			continue
		}
		found[md.Weight] = true
		inputs = append(inputs, src)
	}

	var missing []int
	for _, w := range fam.Weights {
		if !found[w] {
			missing = append(missing, w)
		}
	}
	return inputs, missing
}

// collisions returns optimized paths produced by more than one result.
func collisions(results []fontfile.Result) []string {
	seen := map[string]int{}
	var dup []string
	for _, res := range results {
		seen[res.Optimized.Path]++
		if seen[res.Optimized.Path] == 2 {
			dup = append(dup, res.Optimized.Path)
		}
	}
	return dup
}
