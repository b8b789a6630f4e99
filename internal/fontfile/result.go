// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package fontfile

// Result is the outcome of optimizing one font. It is what the result cache
// stores and hands back on a hit.
type Result struct {
	Original   Descriptor `json:"original"`
	Optimized  Descriptor `json:"optimized"`
	Reduction  string     `json:"reduction"`
	CSS        string     `json:"css"`
	FontFamily string     `json:"fontFamily"`
	FontWeight int        `json:"fontWeight"`
}
