// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"os"
	"time"

	"github.com/tidwall/gjson"

	"github.com/staranto/fontslim/internal/cacheutil"
)

// Stats summarizes the cache contents. Oldest and Newest are the zero time
// when no entry could be parsed.
type Stats struct {
	Entries   int       `json:"entries" yaml:"entries"`
	TotalSize int64     `json:"totalSize" yaml:"totalSize"`
	Oldest    time.Time `json:"oldestEntry" yaml:"oldestEntry"`
	Newest    time.Time `json:"newestEntry" yaml:"newestEntry"`
}

// Stats counts every entry file and its size. Timestamps are taken only from
// entries that parse; malformed ones are skipped.
func (c *Cache) Stats() Stats {
	var st Stats
	if c.disabled {
		return st
	}

	paths, err := cacheutil.Entries(c.dir)
	if err != nil {
		c.logger.WithError(err).Warnf("failed to list cache %s", c.dir)
		return st
	}

	var (
		oldest, newest int64
		seen           bool
	)
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		st.Entries++
		st.TotalSize += info.Size()

		ts, ok := c.timestamp(p)
		if !ok {
			continue
		}
		if !seen || ts < oldest {
			oldest = ts
		}
		if !seen || ts > newest {
			newest = ts
		}
		seen = true
	}

	if seen {
		st.Oldest = time.UnixMilli(oldest)
		st.Newest = time.UnixMilli(newest)
	}
	return st
}

// CleanOld deletes entries written at or before now - maxAge and returns the
// number removed. Entries whose timestamp cannot be read are removed too,
// since they can never produce a hit.
func (c *Cache) CleanOld(maxAge time.Duration) int {
	if c.disabled {
		return 0
	}
	paths, err := cacheutil.Entries(c.dir)
	if err != nil {
		c.logger.WithError(err).Warnf("failed to list cache %s", c.dir)
		return 0
	}

	cutoff := c.now().Add(-maxAge).UnixMilli()
	removed := 0
	for _, p := range paths {
		ts, ok := c.timestamp(p)
		if ok && ts > cutoff {
			continue
		}
		if err := os.Remove(p); err != nil {
			c.logger.WithError(err).Warnf("failed to remove cache entry %s", p)
			continue
		}
		c.logger.Debugf("removed cache entry %s", p)
		removed++
	}
	return removed
}

// timestamp reads the write time of the entry at p without decoding the
// whole record.
func (c *Cache) timestamp(p string) (int64, bool) {
	data, err := os.ReadFile(p)
	if err != nil || !gjson.ValidBytes(data) {
		return 0, false
	}
	ts := gjson.GetBytes(data, "timestamp")
	if ts.Type != gjson.Number {
		return 0, false
	}
	return ts.Int(), true
}
