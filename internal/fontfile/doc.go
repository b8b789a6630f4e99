// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package fontfile holds the metadata types shared by the optimizer and the
// result cache: file descriptors, optimization results, container formats,
// signature checks and filename-based family/weight/style inference.
package fontfile
