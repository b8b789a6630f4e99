// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package build is the config driven build step: it maps the families in
// the build section of fontslim.yaml onto source files, runs the optimizer
// over them and writes one stylesheet.
package build
