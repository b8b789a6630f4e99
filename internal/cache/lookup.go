// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/staranto/fontslim/internal/fontfile"
)

// Outcome classifies a lookup. Only OutcomeHit carries a result; every other
// outcome is a miss as far as Get is concerned.
type Outcome int

const (
	OutcomeMiss Outcome = iota
	OutcomeHit
	OutcomeStaleVersion
	OutcomeStaleContent
	OutcomeMissingArtifact
	OutcomeError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeHit:
		return "hit"
	case OutcomeStaleVersion:
		return "stale-version"
	case OutcomeStaleContent:
		return "stale-content"
	case OutcomeMissingArtifact:
		return "missing-artifact"
	case OutcomeError:
		return "error"
	default:
		return "miss"
	}
}

// Lookup is the detailed result of validating a cache entry.
type Lookup struct {
	Outcome Outcome
	Result  *fontfile.Result
	Err     error
}

// Lookup runs the full validation for inputPath and reports why it did or did
// not hit. Stale and corrupt entries are deleted along the way.
func (c *Cache) Lookup(inputPath string) Lookup {
	l := c.lookup(inputPath)
	c.logger.Debugf("cache %s: %s", l.Outcome, inputPath)
	if l.Err != nil {
		c.logger.WithError(l.Err).Debugf("cache lookup degraded to miss for %s", inputPath)
	}
	return l
}

func (c *Cache) lookup(inputPath string) Lookup {
	if c.disabled {
		return Lookup{Outcome: OutcomeMiss}
	}
	p, abs, err := c.entryPath(inputPath)
	if err != nil {
		return Lookup{Outcome: OutcomeError, Err: err}
	}

	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Lookup{Outcome: OutcomeMiss}
		}
		return Lookup{Outcome: OutcomeError, Err: err}
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		c.remove(p)
		return Lookup{Outcome: OutcomeError, Err: fmt.Errorf("corrupt cache entry %s: %w", p, err)}
	}

	if entry.Version != c.version {
		c.remove(p)
		return Lookup{Outcome: OutcomeStaleVersion}
	}

	hash, err := fontfile.ContentHash(abs)
	if err != nil {
		return Lookup{Outcome: OutcomeError, Err: err}
	}
	if hash != entry.Hash {
		c.remove(p)
		return Lookup{Outcome: OutcomeStaleContent}
	}

	optInfo, err := os.Stat(entry.OptimizedPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			c.remove(p)
			return Lookup{Outcome: OutcomeMissingArtifact}
		}
		return Lookup{Outcome: OutcomeError, Err: err}
	}

	origInfo, err := os.Stat(abs)
	if err != nil {
		return Lookup{Outcome: OutcomeError, Err: err}
	}

	return Lookup{
		Outcome: OutcomeHit,
		Result: &fontfile.Result{
			Original:   fontfile.NewDescriptor(abs, origInfo.Size()),
			Optimized:  fontfile.NewDescriptor(entry.OptimizedPath, optInfo.Size()),
			Reduction:  entry.Reduction,
			CSS:        entry.CSS,
			FontFamily: entry.FontFamily,
			FontWeight: entry.FontWeight,
		},
	}
}
