// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package cache memoizes optimization results on disk. Entries are keyed by
// the MD5 of the input's absolute path and validated on every lookup against
// the input's current content hash, the schema version and the presence of
// the optimized artifact. Storage problems never surface to callers; they
// degrade to a miss or a no-op.
package cache
