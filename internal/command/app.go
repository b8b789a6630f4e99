// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT
package command

import (
	"context"
	"os"
	"sort"
	"strings"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/fontslim/internal/cache"
	"github.com/staranto/fontslim/internal/cacheutil"
	"github.com/staranto/fontslim/internal/config"
	"github.com/staranto/fontslim/internal/meta"
	"github.com/staranto/fontslim/internal/subset"
)

func InitApp(ctx context.Context, args []string) (*cli.Command, error) {
	sd, _ := os.Getwd()

	// The arg[1] immediately following the binary (arg[0]) is the fontslim
	// subcommand and also represents the namespace key to be used when
	// retrieving config values. arg[1] could be -h/--help, so ignore it if it
	// appears to be a flag.
	var ns string
	if len(args) > 1 && !strings.HasPrefix(args[1], "-") {
		ns = args[1]
	}

	// Running without a config file is normal unless one was named explicitly.
	cfg, err := config.Load()
	if err != nil {
		if os.Getenv(config.PathEnv) != "" {
			return nil, err
		}
		log.WithError(err).Debug("config not loaded")
	}
	cfg.Namespace = ns
	config.Config.Namespace = ns

	m := meta.Meta{
		Args:        args,
		Config:      cfg,
		Context:     ctx,
		StartingDir: sd,
		Engine:      subset.NewSFNT(),
	}
	if dir, ok := cacheutil.Dir(); ok && cacheutil.Enabled() {
		m.Cache = cache.New(dir)
	}

	return NewApp(m), nil
}

// NewApp assembles the command tree around m.
func NewApp(m meta.Meta) *cli.Command {
	app := &cli.Command{
		Name:  "fontslim",
		Usage: "Web font optimizer",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "version",
				Aliases:     []string{"v"},
				Usage:       "fontslim version info",
				HideDefault: true,
			},
		},
	}

	app.Commands = append(app.Commands,
		OptimizeCommandBuilder(m),
		BuildCommandBuilder(m),
		CacheCommandBuilder(m),
		CompletionCommandBuilder(m),
	)

	// Make sure flags are sorted for the --help text.
	for _, cmd := range app.Commands {
		sort.Slice(cmd.Flags, func(i, j int) bool {
			return cmd.Flags[i].Names()[0] < cmd.Flags[j].Names()[0]
		})
	}

	return app
}
