// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/apex/log"
	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"

	"github.com/staranto/fontslim/internal/cache"
	"github.com/staranto/fontslim/internal/config"
	"github.com/staranto/fontslim/internal/meta"
)

var errCacheDisabled = errors.New("caching is disabled (FONTSLIM_CACHE) or no cache directory could be resolved")

// cacheFromCommand returns the meta cache, or one opened for --cache-dir.
func cacheFromCommand(cmd *cli.Command) (*cache.Cache, error) {
	if dir := cmd.String("cache-dir"); dir != "" {
		return cache.New(dir), nil
	}
	if c := GetMeta(cmd).Cache; c != nil {
		return c, nil
	}
	return nil, errCacheDisabled
}

func CacheStatsCommandAction(ctx context.Context, cmd *cli.Command) error {
	if ShortCircuitTLDR(ctx, cmd, "cache") {
		return nil
	}
	c, err := cacheFromCommand(cmd)
	if err != nil {
		return err
	}

	st := c.Stats()
	log.Debugf("stats for %s: %+v", c.Dir(), st)

	row := struct {
		cache.Stats
		Dir string `json:"dir"`
	}{st, c.Dir()}
	return Emit(cmd, row,
		"dir",
		"entries",
		"totalSize:size:h",
		"oldestEntry:oldest",
		"newestEntry:newest",
	)
}

func CacheClearCommandAction(ctx context.Context, cmd *cli.Command) error {
	c, err := cacheFromCommand(cmd)
	if err != nil {
		return err
	}
	before := c.Stats().Entries
	c.Clear()
	fmt.Fprintf(stdout, "removed %d entries from %s\n", before, c.Dir())
	return nil
}

func CacheCleanCommandAction(ctx context.Context, cmd *cli.Command) error {
	c, err := cacheFromCommand(cmd)
	if err != nil {
		return err
	}
	maxAge := cmd.Duration("max-age")
	if maxAge <= 0 {
		return errors.New("--max-age must be a positive duration")
	}
	n := c.CleanOld(maxAge)
	fmt.Fprintf(stdout, "removed %d entries older than %s from %s\n", n, maxAge, c.Dir())
	return nil
}

func newCacheDirFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "cache-dir",
		Usage:   "cache directory. Overrides the default location",
		Sources: cli.EnvVars("FONTSLIM_CACHE_DIR"),
	}
}

func CacheCommandBuilder(meta meta.Meta) *cli.Command {

	stats := &CommandBuilder{
		Name:        "stats",
		Usage:       "show cache entry count, size and age",
		Flags:       []cli.Flag{newCacheDirFlag()},
		Action:      CacheStatsCommandAction,
		Meta:        meta,
		OutputFlags: true,
	}
	clearCmd := &CommandBuilder{
		Name:   "clear",
		Usage:  "remove every cache entry",
		Flags:  []cli.Flag{newCacheDirFlag()},
		Action: CacheClearCommandAction,
		Meta:   meta,
	}
	cleanCmd := &CommandBuilder{
		Name:  "clean",
		Usage: "remove cache entries older than --max-age",
		Flags: []cli.Flag{
			newCacheDirFlag(),
			&cli.DurationFlag{
				Name:  "max-age",
				Usage: "maximum entry age, e.g. 720h",
				Sources: cli.NewValueSourceChain(
					yaml.YAML("cache.max_age", altsrc.StringSourcer(config.Config.Source)),
				),
				Value: 30 * 24 * time.Hour,
			},
		},
		Action: CacheCleanCommandAction,
		Meta:   meta,
	}

	// Flags live on the subcommands.
	return &cli.Command{
		Name:      "cache",
		Usage:     "inspect and prune the result cache",
		UsageText: "fontslim cache stats|clear|clean [flags]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Commands: []*cli.Command{stats.Build(), clearCmd.Build(), cleanCmd.Build()},
	}
}
