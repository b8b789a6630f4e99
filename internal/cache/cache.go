// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/apex/log"

	"github.com/staranto/fontslim/internal/cacheutil"
	"github.com/staranto/fontslim/internal/fontfile"
)

// SchemaVersion tags every entry written by this build. Entries carrying any
// other version are discarded on read.
const SchemaVersion = "2"

// Entry is the persisted form of a fontfile.Result.
type Entry struct {
	Hash          string `json:"hash"`
	Timestamp     int64  `json:"timestamp"`
	Version       string `json:"version"`
	OriginalPath  string `json:"originalPath"`
	OriginalSize  int64  `json:"originalSize"`
	OptimizedPath string `json:"optimizedPath"`
	OptimizedSize int64  `json:"optimizedSize"`
	Reduction     string `json:"reduction"`
	CSS           string `json:"css"`
	FontFamily    string `json:"fontFamily"`
	FontWeight    int    `json:"fontWeight"`
}

// Cache is a handle on one cache root directory. It is safe for concurrent
// use on different inputs; concurrent writes to the same input are last
// writer wins.
type Cache struct {
	dir      string
	disabled bool
	version  string
	now      func() time.Time
	logger   log.Interface
}

// Option customizes a Cache.
type Option func(*Cache)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithVersion overrides SchemaVersion.
func WithVersion(v string) Option {
	return func(c *Cache) { c.version = v }
}

// WithLogger sets the logger used for swallowed failures.
func WithLogger(l log.Interface) Option {
	return func(c *Cache) { c.logger = l }
}

// New returns a Cache rooted at dir. An empty dir resolves through
// cacheutil.Dir. When that fails too the cache is disabled: every lookup
// misses and nothing is written or removed. The directory is created lazily
// on first write.
func New(dir string, opts ...Option) *Cache {
	resolved := true
	if dir == "" {
		dir, resolved = cacheutil.Dir()
	}
	if resolved {
		if abs, err := filepath.Abs(dir); err == nil {
			dir = abs
		}
	}
	c := &Cache{
		dir:      dir,
		disabled: !resolved,
		version:  SchemaVersion,
		now:      time.Now,
		logger:   log.Log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dir returns the cache root. It is empty for a disabled cache.
func (c *Cache) Dir() string {
	return c.dir
}

// Disabled reports whether no cache root could be resolved.
func (c *Cache) Disabled() bool {
	return c.disabled
}

// Get returns the cached result for inputPath if a valid entry exists.
func (c *Cache) Get(inputPath string) (*fontfile.Result, bool) {
	l := c.Lookup(inputPath)
	if l.Outcome != OutcomeHit {
		return nil, false
	}
	return l.Result, true
}

// Set persists result for inputPath. Failures are logged, never returned.
func (c *Cache) Set(inputPath string, result fontfile.Result) {
	if err := c.set(inputPath, result); err != nil {
		c.logger.WithError(err).Warnf("failed to write cache entry for %s", inputPath)
	}
}

func (c *Cache) set(inputPath string, result fontfile.Result) error {
	if c.disabled {
		return nil
	}
	p, abs, err := c.entryPath(inputPath)
	if err != nil {
		return err
	}

	hash, err := fontfile.ContentHash(abs)
	if err != nil {
		return err
	}

	entry := Entry{
		Hash:          hash,
		Timestamp:     c.now().UnixMilli(),
		Version:       c.version,
		OriginalPath:  abs,
		OriginalSize:  result.Original.Size,
		OptimizedPath: result.Optimized.Path,
		OptimizedSize: result.Optimized.Size,
		Reduction:     result.Reduction,
		CSS:           result.CSS,
		FontFamily:    result.FontFamily,
		FontWeight:    result.FontWeight,
	}

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	if err := cacheutil.WriteAtomic(p, data); err != nil {
		return err
	}
	c.logger.Debugf("cache write: %s -> %s", abs, p)
	return nil
}

// Delete removes the entry for inputPath, if any.
func (c *Cache) Delete(inputPath string) {
	if c.disabled {
		return
	}
	p, _, err := c.entryPath(inputPath)
	if err != nil {
		return
	}
	c.remove(p)
}

// Clear removes every entry and then, best effort, the root directory.
func (c *Cache) Clear() {
	if c.disabled {
		return
	}
	paths, err := cacheutil.Entries(c.dir)
	if err != nil {
		c.logger.WithError(err).Warnf("failed to list cache %s", c.dir)
		return
	}
	for _, p := range paths {
		c.remove(p)
	}
	// Fails when foreign files remain, which is fine.
	_ = os.Remove(c.dir)
}

func (c *Cache) remove(p string) {
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		c.logger.WithError(err).Warnf("failed to remove cache entry %s", p)
	}
}

// entryPath returns the entry file for inputPath and the absolute input path.
func (c *Cache) entryPath(inputPath string) (string, string, error) {
	abs, err := filepath.Abs(inputPath)
	if err != nil {
		return "", "", err
	}
	return cacheutil.EntryPath(c.dir, abs), abs, nil
}
