// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"io"
	"os"
	"os/exec"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/fontslim/internal/config"
	"github.com/staranto/fontslim/internal/meta"
	"github.com/staranto/fontslim/internal/optimizer"
	"github.com/staranto/fontslim/internal/output"
)

// stdout and stderr are swapped for buffers in tests.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// ShortCircuitTLDR checks the --tldr flag and, if present and available,
// runs `tldr fontslim-<subcmd>` and returns true so the caller can exit early.
func ShortCircuitTLDR(ctx context.Context, cmd *cli.Command, subcmd string) bool {
	if cmd.Bool("tldr") {
		if _, err := exec.LookPath("tldr"); err == nil {
			c := exec.CommandContext(ctx, "tldr", "fontslim-"+subcmd)
			c.Stdout = os.Stdout
			c.Stderr = os.Stderr
			_ = c.Run()
		}
		return true
	}
	return false
}

// BuildColumns constructs the column list from defaults plus any extras from
// --columns.
func BuildColumns(cmd *cli.Command, defaults ...string) (cols output.Columns, err error) {
	for _, d := range defaults {
		if err = cols.Set(d); err != nil {
			return nil, err
		}
	}
	if extras := cmd.String("columns"); extras != "" {
		if err = cols.Set(extras); err != nil {
			return nil, err
		}
	}
	return cols, nil
}

// Emit renders v with the command's output flags.
func Emit(cmd *cli.Command, v any, defaults ...string) error {
	cols, err := BuildColumns(cmd, defaults...)
	if err != nil {
		return err
	}
	log.Debugf("columns: %v", cols.String())
	return output.SliceDiceSpit(v, cols, output.OptionsFromCommand(cmd), stdout)
}

// GetMeta returns the meta.Meta stored in the command's Metadata. If missing
// or of an unexpected type, it returns the zero value.
func GetMeta(cmd *cli.Command) meta.Meta {
	if cmd == nil || cmd.Metadata == nil {
		return meta.Meta{}
	}
	if m, ok := cmd.Metadata["meta"].(meta.Meta); ok {
		return m
	}
	return meta.Meta{}
}

// NewPipeline builds an optimizer pipeline from meta. Every per-file failure
// is logged and counted in *failed.
func NewPipeline(m meta.Meta, failed *int) *optimizer.Pipeline {
	opts := []optimizer.Option{
		optimizer.WithFailureHandler(func(in string, err error) {
			*failed++
			log.WithError(err).WithField("input", in).Error("failed to optimize font")
		}),
	}
	if m.Cache != nil {
		opts = append(opts, optimizer.WithCache(m.Cache))
	}
	return optimizer.New(m.Engine, opts...)
}

// Housekeeping drops cache entries older than cache.max_age. It is best
// effort and silent when the key is unset or caching is off.
func Housekeeping(m meta.Meta) {
	if m.Cache == nil {
		return
	}
	maxAge, err := config.GetDuration("cache.max_age")
	if err != nil || maxAge <= 0 {
		return
	}
	if n := m.Cache.CleanOld(maxAge); n > 0 {
		log.Debugf("removed %d cache entries older than %s", n, maxAge)
	}
}

// CommandBuilder constructs a cli.Command using the pattern shared by the
// fontslim subcommands: metadata wiring, the tldr flag, and optionally the
// global output flags.
type CommandBuilder struct {
	Name        string
	Usage       string
	UsageText   string
	Flags       []cli.Flag
	Action      func(context.Context, *cli.Command) error
	Meta        meta.Meta
	OutputFlags bool
}

// Build returns a configured cli.Command from the builder.
func (b *CommandBuilder) Build() *cli.Command {
	flags := append(b.Flags, tldrFlag)
	if b.OutputFlags {
		flags = append(flags, NewGlobalFlags(b.Name)...)
	}
	return &cli.Command{
		Name:      b.Name,
		Usage:     b.Usage,
		UsageText: b.UsageText,
		Metadata: map[string]any{
			"meta": b.Meta,
		},
		Flags:  flags,
		Action: b.Action,
	}
}
