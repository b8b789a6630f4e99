// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	md2man "github.com/cpuguy83/go-md2man/v2/md2man"
	"github.com/urfave/cli/v3"

	"github.com/staranto/fontslim/internal/command"
	"github.com/staranto/fontslim/internal/meta"
)

// Doc generator:
// - Reads docs/commands/*.md as canonical command docs
// - Replaces the <!-- flags --> marker with a flag reference built from the
//   CLI command tree
// - Generates:
//   - docs/man/share/man1/fontslim-<cmd>.1 via md2man
//   - docs/tldr/fontslim-<cmd>.md from the short description and Quick examples

const flagsMarker = "<!-- flags -->"

func main() {
	var (
		repoRoot           string
		writeOnlyIfChanged bool
	)

	flag.StringVar(&repoRoot, "root", ".", "repo root (default current dir)")
	flag.BoolVar(&writeOnlyIfChanged, "only-if-changed", true, "only write files if content changed")
	flag.Parse()

	commandsDir := filepath.Join(repoRoot, "docs", "commands")
	manOutDir := filepath.Join(repoRoot, "docs", "man", "share", "man1")
	tldrOutDir := filepath.Join(repoRoot, "docs", "tldr")

	for _, d := range []string{manOutDir, tldrOutDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			fatalf("creating output dir %s: %v", d, err)
		}
	}

	entries, err := os.ReadDir(commandsDir)
	if err != nil {
		fatalf("reading commands dir %s: %v", commandsDir, err)
	}

	app := command.NewApp(meta.Meta{})

	var processed int
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".md")
		inPath := filepath.Join(commandsDir, e.Name())
		raw, err := os.ReadFile(inPath)
		if err != nil {
			fatalf("reading %s: %v", inPath, err)
		}

		md := string(raw)
		if cmd := findCommand(app, name); cmd != nil {
			md = strings.Replace(md, flagsMarker, flagReference(cmd), 1)
		}

		manPath := filepath.Join(manOutDir, fmt.Sprintf("fontslim-%s.1", name))
		if err := writeFileIfChanged(manPath, md2man.Render([]byte(md)), writeOnlyIfChanged); err != nil {
			fatalf("writing man page for %s: %v", name, err)
		}

		title, short := extractTitleAndShortDesc(md)
		tldr := buildTLDR(name, title, short, extractQuickExamples(md))
		tldrPath := filepath.Join(tldrOutDir, fmt.Sprintf("fontslim-%s.md", name))
		if err := writeFileIfChanged(tldrPath, []byte(tldr), writeOnlyIfChanged); err != nil {
			fatalf("writing TLDR for %s: %v", name, err)
		}

		processed++
	}

	if processed == 0 {
		fatalf("no command markdown found under %s", commandsDir)
	}
}

func fatalf(f string, a ...any) {
	fmt.Fprintf(os.Stderr, f+"\n", a...)
	os.Exit(1)
}

func findCommand(app *cli.Command, name string) *cli.Command {
	for _, c := range app.Commands {
		if c.Name == name {
			return c
		}
	}
	return nil
}

type usager interface{ GetUsage() string }
type defaulter interface{ GetDefaultText() string }

// flagReference renders the flags of cmd and its subcommands as markdown
// list items, sorted by name.
func flagReference(cmd *cli.Command) string {
	var b strings.Builder
	writeFlags(&b, cmd.Flags)
	for _, sub := range cmd.Commands {
		b.WriteString("\n### " + cmd.Name + " " + sub.Name + "\n\n")
		writeFlags(&b, sub.Flags)
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeFlags(b *strings.Builder, flags []cli.Flag) {
	sorted := append([]cli.Flag(nil), flags...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Names()[0] < sorted[j].Names()[0] })

	for _, f := range sorted {
		var names []string
		for _, n := range f.Names() {
			if len(n) == 1 {
				names = append(names, "-"+n)
			} else {
				names = append(names, "--"+n)
			}
		}
		b.WriteString("- `" + strings.Join(names, "`, `") + "`")
		if u, ok := f.(usager); ok && u.GetUsage() != "" {
			b.WriteString(": " + u.GetUsage())
		}
		if d, ok := f.(defaulter); ok && d.GetDefaultText() != "" {
			b.WriteString(" (default " + d.GetDefaultText() + ")")
		}
		b.WriteString("\n")
	}
}

func writeFileIfChanged(path string, data []byte, onlyIfChanged bool) error {
	if !onlyIfChanged {
		return os.WriteFile(path, data, 0o644)
	}
	old, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return os.WriteFile(path, data, 0o644)
		}
		return err
	}
	if bytes.Equal(bytes.TrimSpace(old), bytes.TrimSpace(data)) {
		return nil
	}
	return os.WriteFile(path, data, 0o644)
}

var h1Re = regexp.MustCompile(`(?m)^#\s+(.+)$`)

// extractTitleAndShortDesc returns the first H1 and the first paragraph after
// the "Short description" heading.
func extractTitleAndShortDesc(md string) (title, short string) {
	if m := h1Re.FindStringSubmatch(md); m != nil {
		title = strings.TrimSpace(m[1])
	}

	idx := strings.Index(strings.ToLower(md), "short description")
	if idx >= 0 {
		rest := md[idx:]
		if nl := strings.Index(rest, "\n"); nl >= 0 {
			rest = rest[nl+1:]
		}
		var para []string
		for _, ln := range strings.Split(rest, "\n") {
			ln = strings.TrimSpace(ln)
			if ln == "" {
				if len(para) > 0 {
					break
				}
				continue
			}
			if strings.HasPrefix(ln, "#") {
				break
			}
			para = append(para, ln)
		}
		short = strings.Join(para, " ")
	}

	if short == "" && title != "" {
		short = title + "."
	}
	return
}

type example struct {
	Desc string
	Cmd  string
}

// extractQuickExamples reads the first fenced block after "Quick examples".
// A "# ..." line describes the command line that follows it.
func extractQuickExamples(md string) []example {
	idx := strings.Index(strings.ToLower(md), "quick examples")
	if idx < 0 {
		return nil
	}
	rest := md[idx:]

	const fence = "```"
	start := strings.Index(rest, fence)
	if start < 0 {
		return nil
	}
	rest = rest[start+len(fence):]
	// Skip the info string, e.g. ```bash.
	if nl := strings.Index(rest, "\n"); nl >= 0 {
		rest = rest[nl+1:]
	}
	end := strings.Index(rest, fence)
	if end < 0 {
		return nil
	}

	var (
		exs  []example
		desc string
	)
	for _, ln := range strings.Split(rest[:end], "\n") {
		s := strings.TrimSpace(strings.TrimRight(ln, "\r"))
		switch {
		case s == "":
			continue
		case strings.HasPrefix(s, "#"):
			desc = strings.TrimSpace(strings.TrimLeft(s, "#"))
		default:
			if desc == "" {
				desc = "Example"
			}
			exs = append(exs, example{Desc: desc, Cmd: strings.Join(strings.Fields(s), " ")})
			desc = ""
		}
	}
	return exs
}

func buildTLDR(cmd, title, short string, exs []example) string {
	var b strings.Builder
	b.WriteString("# fontslim-" + cmd + "\n\n")
	switch {
	case short != "":
		b.WriteString("> " + short + "\n")
	case title != "":
		b.WriteString("> " + title + "\n")
	default:
		b.WriteString("> fontslim " + cmd + "\n")
	}
	b.WriteString("> More information: https://github.com/staranto/fontslim.\n\n")

	if len(exs) == 0 {
		b.WriteString("- Show help for the command:\n\n")
		b.WriteString("`fontslim " + cmd + " --help`\n\n")
		return b.String()
	}

	for i, ex := range exs {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("- " + ex.Desc + ":\n\n")
		b.WriteString("`" + ex.Cmd + "`\n")
	}
	return b.String()
}
