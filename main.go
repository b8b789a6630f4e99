// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/apex/log"

	"github.com/staranto/fontslim/internal/cacheutil"
	"github.com/staranto/fontslim/internal/command"
	"github.com/staranto/fontslim/internal/config"
	mylog "github.com/staranto/fontslim/internal/log"
	"github.com/staranto/fontslim/internal/version"
)

var ctx = context.Background()

func main() {
	os.Exit(realMain())
}

func realMain() int {
	mylog.InitLogger()

	args := os.Args

	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "No command specified.")
		args = append(args, "--help")
	} else {
		args = mangleArguments(args)
	}

	// Short-circuit --version/-v.
	for _, a := range args {
		if a == "--version" || a == "-v" {
			fmt.Println(version.Version)
			return 0
		}
	}

	// Best-effort: pre-create cache directory when caching is enabled.
	if _, _, err := cacheutil.EnsureBaseDir(); err != nil {
		// Non-fatal: print to stderr and continue.
		fmt.Fprintln(os.Stderr, err)
	}

	app, err := command.InitApp(ctx, args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if err := app.Run(ctx, args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	return 0
}

// mangleArguments expands an @set into the flags stored under
// <command>.<set> in the config file. Without an explicit @set the
// <command>.defaults list is used when present. Set flags are inserted right
// after the command so explicit flags still win.
func mangleArguments(args []string) []string {
	// Leave help requests untouched.
	for _, a := range args {
		if a == "--help" || a == "-h" {
			return args
		}
	}

	out := make([]string, 2, len(args)+4)
	copy(out, args[:2])

	set := "defaults"
	var rest []string
	for _, a := range args[2:] {
		if strings.HasPrefix(a, "@") && len(a) > 1 && set == "defaults" {
			set = a[1:]
			continue
		}
		rest = append(rest, a)
	}

	setArgs, _ := config.GetStringSlice(args[1] + "." + set)
	for _, arg := range setArgs {
		out = append(out, strings.Fields(arg)...)
	}
	out = append(out, rest...)

	log.Debugf("set=%s, args=%v", set, out)
	return out
}
