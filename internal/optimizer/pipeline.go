// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package optimizer

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/apex/log"

	"github.com/staranto/fontslim/internal/cache"
	"github.com/staranto/fontslim/internal/fontfile"
	"github.com/staranto/fontslim/internal/subset"
)

// hashLen is the number of hex characters of the content hash spliced into
// hashed output names.
const hashLen = 8

// FailureHandler receives per-file failures during OptimizeMany.
type FailureHandler func(inputPath string, err error)

// Pipeline validates requests, consults the result cache and drives the
// subsetting engine.
type Pipeline struct {
	engine    subset.Engine
	cache     *cache.Cache
	logger    log.Interface
	onFailure FailureHandler

	mu     sync.Mutex
	caches map[string]*cache.Cache
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithCache injects the cache used for requests that do not name their own
// CacheDir.
func WithCache(c *cache.Cache) Option {
	return func(p *Pipeline) { p.cache = c }
}

// WithLogger sets the pipeline logger.
func WithLogger(l log.Interface) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithFailureHandler replaces the default batch failure handler, which logs
// at error level.
func WithFailureHandler(h FailureHandler) Option {
	return func(p *Pipeline) { p.onFailure = h }
}

// New returns a Pipeline driving engine.
func New(engine subset.Engine, opts ...Option) *Pipeline {
	p := &Pipeline{
		engine: engine,
		logger: log.Log,
		caches: map[string]*cache.Cache{},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.onFailure == nil {
		p.onFailure = func(inputPath string, err error) {
			p.logger.WithError(err).WithField("input", inputPath).Error("failed to optimize font")
		}
	}
	return p
}

// OptimizeOne optimizes a single font.
//
// Validation and invalid-font errors are returned as-is. Everything that
// fails after validation is a *TransformError. Cache problems never fail the
// call.
func (p *Pipeline) OptimizeOne(ctx context.Context, req Request) (*fontfile.Result, error) {
	r, err := validate(req)
	if err != nil {
		return nil, err
	}

	var c *cache.Cache
	if req.UseCache {
		c = p.cacheFor(req.CacheDir)
	}
	if c != nil {
		if res, ok := c.Get(r.absInput); ok {
			p.logger.Debugf("cache hit for %s", r.absInput)
			return res, nil
		}
	}

	res, err := p.transform(ctx, r)
	if err != nil {
		return nil, wrap(r.absInput, err)
	}

	if c != nil {
		c.Set(r.absInput, *res)
	}
	return res, nil
}

func (p *Pipeline) transform(ctx context.Context, r *resolved) (*fontfile.Result, error) {
	buf, err := os.ReadFile(r.absInput)
	if err != nil {
		return nil, err
	}
	if len(buf) == 0 {
		return nil, errEmptyInput
	}

	chars := r.chars.Runes()
	if len(chars) == 0 {
		return nil, errNoChars
	}

	out, err := p.engine.Subset(ctx, buf, chars, r.format)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, errEmptyOutput
	}

	name := outputName(r.family, r.format, out, r.Hash)
	dst, err := filepath.Abs(filepath.Join(r.OutputDir, name))
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil { //nolint:mnd
		return nil, err
	}
	if err := os.WriteFile(dst, out, 0o644); err != nil { //nolint:mnd
		return nil, err
	}

	optimized, err := fontfile.Describe(dst)
	if err != nil {
		return nil, err
	}
	original := fontfile.NewDescriptor(r.absInput, int64(len(buf)))

	face := fontFace{
		Family:       r.family,
		File:         name,
		Format:       r.format,
		Weight:       r.weight,
		Style:        r.style,
		Display:      r.display,
		UnicodeRange: r.chars.UnicodeRange(),
	}

	p.logger.Debugf("optimized %s -> %s (%s -> %s)",
		original.Name, optimized.Name, original.SizeFormatted, optimized.SizeFormatted)

	return &fontfile.Result{
		Original:   original,
		Optimized:  optimized,
		Reduction:  fontfile.Reduction(original.Size, optimized.Size),
		CSS:        face.String(),
		FontFamily: r.family,
		FontWeight: r.weight,
	}, nil
}

// cacheFor returns the injected cache, or one opened for dir. Caches opened
// for a specific dir are kept for the life of the pipeline. It returns nil
// when no cache root can be resolved.
func (p *Pipeline) cacheFor(dir string) *cache.Cache {
	p.mu.Lock()
	defer p.mu.Unlock()

	if dir == "" {
		if p.cache == nil {
			p.cache = cache.New("", cache.WithLogger(p.logger))
		}
		if p.cache.Disabled() {
			p.logger.Debug("no cache directory resolved, caching skipped")
			return nil
		}
		return p.cache
	}

	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	if p.cache != nil && p.cache.Dir() == dir {
		return p.cache
	}
	c, ok := p.caches[dir]
	if !ok {
		c = cache.New(dir, cache.WithLogger(p.logger))
		p.caches[dir] = c
	}
	return c
}

// outputName builds the artifact file name for family in format. With hash
// set, the first hashLen hex characters of the MD5 of data are spliced in
// before the extension.
func outputName(family string, format fontfile.Format, data []byte, hash bool) string {
	base := fontfile.CanonicalName(family)
	if hash {
		base += "." + fontfile.HashBytes(data)[:hashLen]
	}
	return base + format.Ext()
}
