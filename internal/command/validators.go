// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package command

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/staranto/fontslim/internal/charset"
	"github.com/staranto/fontslim/internal/fontfile"
	"github.com/staranto/fontslim/internal/optimizer"
	"github.com/staranto/fontslim/internal/output"
)

type FlagValidatorType func(any) error

func FlagValidators(value any, validators ...FlagValidatorType) error {
	for _, v := range validators {
		if err := v(value); err != nil {
			return err
		}
	}
	return nil
}

// JammedFlagValidator verifies that the arg following a flag does not begin
// with '--'.  urfave/cli allows this and I don't see how to turn it off.
func JammedFlagValidator(value any) error {
	if strings.HasPrefix(value.(string), "--") {
		return errors.New("must not begin with '--'")
	}
	return nil
}

func OutputValidator(value any) error {
	if !slices.Contains(output.Formats, value.(string)) {
		return fmt.Errorf("must be one of %v", output.Formats)
	}
	return nil
}

func FormatValidator(value any) error {
	if _, ok := fontfile.ParseFormat(value.(string)); !ok {
		return fmt.Errorf("must be one of %v", formatNames())
	}
	return nil
}

func DisplayValidator(value any) error {
	if !slices.Contains(optimizer.Displays, value.(string)) {
		return fmt.Errorf("must be one of %v", optimizer.Displays)
	}
	return nil
}

// StyleValidator accepts an empty value, which means infer from the file name.
func StyleValidator(value any) error {
	switch value.(string) {
	case "", "normal", "italic":
		return nil
	}
	return errors.New("must be one of [normal italic]")
}

// SubsetsValidator checks every comma-separated name against the built-in
// subsets.
func SubsetsValidator(value any) error {
	for _, name := range splitList(value.(string)) {
		if !charset.Known(name) {
			return fmt.Errorf("unknown subset %q, must be one of %v", name, charset.Names())
		}
	}
	return nil
}

// splitList splits a comma-separated flag value, dropping blanks.
func splitList(value string) []string {
	var out []string
	for _, s := range strings.Split(value, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
