// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package subset defines the subsetting engine contract used by the
// optimizer and provides an implementation on top of seehuhn.de/go/sfnt.
package subset

import (
	"context"

	"github.com/staranto/fontslim/internal/fontfile"
)

// Engine reduces a font to the given characters and re-encodes it in the
// requested container format. Implementations must not retain font.
type Engine interface {
	Subset(ctx context.Context, font []byte, chars []rune, format fontfile.Format) ([]byte, error)
}

// EngineFunc adapts a function to the Engine interface.
type EngineFunc func(ctx context.Context, font []byte, chars []rune, format fontfile.Format) ([]byte, error)

// Subset calls f.
func (f EngineFunc) Subset(ctx context.Context, font []byte, chars []rune, format fontfile.Format) ([]byte, error) {
	return f(ctx, font, chars, format)
}
