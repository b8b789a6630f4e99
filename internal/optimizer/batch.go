// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package optimizer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/staranto/fontslim/internal/fontfile"
)

// OptimizeMany runs OptimizeOne for every input in order, using shared for
// everything except InputPath and OutputDir. Failures are passed to the
// failure handler and the input is skipped, so the returned slice may be
// shorter than inputs. There is no retry.
func (p *Pipeline) OptimizeMany(ctx context.Context, inputs []string, outputDir string, shared Request) []fontfile.Result {
	results := make([]fontfile.Result, 0, len(inputs))
	for _, in := range inputs {
		if err := ctx.Err(); err != nil {
			p.onFailure(in, err)
			continue
		}

		req := shared
		req.InputPath = in
		req.OutputDir = outputDir

		res, err := p.OptimizeOne(ctx, req)
		if err != nil {
			p.onFailure(in, err)
			continue
		}
		results = append(results, *res)
	}
	return results
}

// ExpandInputs replaces every directory in paths with the font files it
// directly contains, sorted by name. Files are passed through untouched so
// that validation can report on them.
func ExpandInputs(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || !info.IsDir() {
			out = append(out, p)
			continue
		}

		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", p, err)
		}
		var fonts []string
		for _, e := range entries {
			if e.IsDir() || !fontfile.IsInputExt(filepath.Ext(e.Name())) {
				continue
			}
			fonts = append(fonts, filepath.Join(p, e.Name()))
		}
		sort.Strings(fonts)
		out = append(out, fonts...)
	}
	return out, nil
}
