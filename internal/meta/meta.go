// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package meta

import (
	"context"

	"github.com/staranto/fontslim/internal/cache"
	"github.com/staranto/fontslim/internal/config"
	"github.com/staranto/fontslim/internal/subset"
)

// Meta are the meta-options that are available on all or most commands.
type Meta struct {
	Args        []string
	Config      config.Type
	Context     context.Context
	StartingDir string

	// Engine is the subsetting engine handed to every pipeline. Tests swap it
	// for a fake.
	Engine subset.Engine
	// Cache is the shared result cache handle, nil when caching is disabled.
	Cache *cache.Cache
}
