// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package publish uploads optimized fonts and the generated stylesheet to S3
// or an S3-compatible object store.
package publish
