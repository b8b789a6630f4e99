// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/fontslim/internal/build"
	"github.com/staranto/fontslim/internal/config"
	"github.com/staranto/fontslim/internal/meta"
)

// BuildCommandAction runs the build section of the config file.
func BuildCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args[1:])

	if ShortCircuitTLDR(ctx, cmd, "build") {
		return nil
	}

	cfg, err := config.GetBuild()
	if err != nil {
		return err
	}
	if v := cmd.String("source"); v != "" {
		cfg.SourceDir = v
	}
	if v := cmd.String("out"); v != "" {
		cfg.OutputDir = v
	}
	if v := cmd.String("css"); v != "" {
		cfg.CSSFile = v
	}
	if !cmd.Bool("publish") {
		cfg.Publish = config.PublishConfig{}
	}

	Housekeeping(m)

	var failed int
	report, err := build.Run(ctx, cfg, NewPipeline(m, &failed))
	if report != nil {
		for _, w := range report.Warnings {
			fmt.Fprintln(stderr, "warning:", w)
		}
		if emitErr := Emit(cmd, report.Results, resultColumns...); emitErr != nil && err == nil {
			err = emitErr
		}
	}
	if err != nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d fonts failed to optimize", failed, report.Matched)
	}
	return nil
}

func BuildCommandBuilder(meta meta.Meta) *cli.Command {
	b := &CommandBuilder{
		Name:      "build",
		Usage:     "optimize the font families listed in the config file",
		UsageText: "fontslim build [flags]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "source",
				Usage: "source directory. Overrides build.source_dir",
				Validator: func(value string) error {
					return FlagValidators(value, JammedFlagValidator)
				},
			},
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"d"},
				Usage:   "output directory. Overrides build.output_dir",
				Validator: func(value string) error {
					return FlagValidators(value, JammedFlagValidator)
				},
			},
			&cli.StringFlag{
				Name:  "css",
				Usage: "stylesheet path. Overrides build.css_file",
			},
			&cli.BoolWithInverseFlag{
				Name:  "publish",
				Usage: "upload results when build.publish is configured",
				Value: true,
			},
		},
		Action:      BuildCommandAction,
		Meta:        meta,
		OutputFlags: true,
	}
	return b.Build()
}
