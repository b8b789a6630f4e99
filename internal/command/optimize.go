// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/fontslim/internal/fontfile"
	"github.com/staranto/fontslim/internal/meta"
	"github.com/staranto/fontslim/internal/optimizer"
)

// resultColumns are the default columns for optimize and build output.
var resultColumns = []string{
	"original.name:input",
	"optimized.name:output",
	"original.size:before:h",
	"optimized.size:after:h",
	"reduction:saved",
	"fontFamily:family",
	"fontWeight:weight",
	"!optimized.path:path",
	"!css",
}

// OptimizeCommandAction optimizes every font named by the positional args.
// Directories are expanded to the fonts they contain.
func OptimizeCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args[1:])

	if ShortCircuitTLDR(ctx, cmd, "optimize") {
		return nil
	}

	if cmd.NArg() == 0 {
		return errors.New("no input fonts specified")
	}

	inputs, err := optimizer.ExpandInputs(cmd.Args().Slice())
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return errors.New("no font files found in the given paths")
	}

	req := requestFromCommand(cmd)
	Housekeeping(m)

	var failed int
	p := NewPipeline(m, &failed)

	var results []fontfile.Result
	if len(inputs) == 1 {
		req.InputPath = inputs[0]
		res, err := p.OptimizeOne(ctx, req)
		if err != nil {
			return err
		}
		results = append(results, *res)
	} else {
		results = p.OptimizeMany(ctx, inputs, req.OutputDir, req)
	}

	if css := cmd.String("css"); css != "" {
		if err := optimizer.GenerateAggregateCSS(results, css); err != nil {
			return err
		}
	}

	if err := Emit(cmd, results, resultColumns...); err != nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d fonts failed to optimize", failed, len(inputs))
	}
	return nil
}

// requestFromCommand maps the optimize flags onto a Request. InputPath is
// left for the caller.
func requestFromCommand(cmd *cli.Command) optimizer.Request {
	req := optimizer.Request{
		OutputDir:   cmd.String("out"),
		FontFamily:  cmd.String("family"),
		FontWeight:  int(cmd.Int("weight")),
		FontStyle:   cmd.String("style"),
		FontDisplay: cmd.String("display"),
		Format:      fontfile.Format(cmd.String("format")),
		Hash:        cmd.Bool("hash"),
		UseCache:    cmd.Bool("cache"),
		CacheDir:    cmd.String("cache-dir"),
	}
	if subsets := splitList(cmd.String("subsets")); len(subsets) > 0 {
		req.Subsets = subsets
	}
	return req
}

func OptimizeCommandBuilder(meta meta.Meta) *cli.Command {
	b := &CommandBuilder{
		Name:        "optimize",
		Usage:       "subset and convert fonts for the web",
		UsageText:   "fontslim optimize [flags] FONT|DIR...",
		Flags:       NewOptimizeFlags("optimize"),
		Action:      OptimizeCommandAction,
		Meta:        meta,
		OutputFlags: true,
	}
	return b.Build()
}
