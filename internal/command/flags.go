// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"os/exec"
	"strings"

	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"

	"github.com/staranto/fontslim/internal/cacheutil"
	"github.com/staranto/fontslim/internal/config"
	"github.com/staranto/fontslim/internal/fontfile"
	"github.com/staranto/fontslim/internal/optimizer"
)

var tldrFlag *cli.BoolFlag = &cli.BoolFlag{
	Name:        "tldr",
	Usage:       "show tldr page",
	Hidden:      !pathHas("tldr"),
	HideDefault: true,
}

// fromConfig returns the namespaced and global config sources for key.
func fromConfig(ns, key string) []cli.ValueSource {
	return []cli.ValueSource{
		yaml.YAML(ns+"."+key, altsrc.StringSourcer(config.Config.Source)),
		yaml.YAML(key, altsrc.StringSourcer(config.Config.Source)),
	}
}

// NewGlobalFlags returns the output flags shared by every command that
// renders a dataset. params[0] is the config namespace.
func NewGlobalFlags(params ...string) (flags []cli.Flag) {
	ns := params[0]
	flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "columns",
			Aliases: []string{"a"},
			Usage:   "comma-separated list of extra columns to include in results",
		},
		&cli.BoolWithInverseFlag{
			Name:    "color",
			Aliases: []string{"c"},
			Usage:   "enable colored text output",
			Sources: cli.NewValueSourceChain(fromConfig(ns, "color")...),
			Value:   false,
		},
		&cli.StringFlag{
			Name:    "filter",
			Aliases: []string{"f"},
			Usage:   "comma-separated list of filters to apply to results",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format",
			Sources: cli.NewValueSourceChain(fromConfig(ns, "output")...),
			Value:   "text",
			Validator: func(value string) error {
				return FlagValidators(value, OutputValidator)
			},
		},
		&cli.StringFlag{
			Name:    "sort",
			Aliases: []string{"s"},
			Usage:   "comma-separated list of columns to sort the results by",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+".sort", altsrc.StringSourcer(config.Config.Source)),
			),
		},
		&cli.BoolWithInverseFlag{
			Name:    "titles",
			Aliases: []string{"t"},
			Usage:   "show titles with text output",
			Sources: cli.NewValueSourceChain(fromConfig(ns, "titles")...),
			Value:   true,
		},
	}

	return
}

// NewOptimizeFlags returns the flags that shape an optimization request.
func NewOptimizeFlags(ns string) []cli.Flag {
	return []cli.Flag{
		NameSpacedValueChainFlagFromConfigFile(ns, config.Config.Source, &cli.StringFlag{
			Name:    "out",
			Aliases: []string{"d"},
			Usage:   "directory the optimized fonts are written to",
			Sources: cli.EnvVars("FONTSLIM_OUT"),
			Value:   "dist/fonts",
			Validator: func(value string) error {
				return FlagValidators(value, JammedFlagValidator)
			},
		}),
		&cli.StringFlag{
			Name:  "family",
			Usage: "font family name. Inferred from the file name when omitted",
			Validator: func(value string) error {
				return FlagValidators(value, JammedFlagValidator)
			},
		},
		&cli.IntFlag{
			Name:  "weight",
			Usage: "font weight (100-900). Inferred from the file name when omitted",
		},
		&cli.StringFlag{
			Name:  "style",
			Usage: "font style (normal or italic). Inferred from the file name when omitted",
			Validator: func(value string) error {
				return FlagValidators(value, StyleValidator)
			},
		},
		NameSpacedValueChainFlagFromConfigFile(ns, config.Config.Source, &cli.StringFlag{
			Name:  "display",
			Usage: "font-display value for the generated CSS",
			Value: optimizer.DefaultDisplay,
			Validator: func(value string) error {
				return FlagValidators(value, DisplayValidator)
			},
		}),
		NameSpacedValueChainFlagFromConfigFile(ns, config.Config.Source, &cli.StringFlag{
			Name:  "format",
			Usage: "output format (" + strings.Join(formatNames(), ", ") + ")",
			Value: string(fontfile.FormatWOFF2),
			Validator: func(value string) error {
				return FlagValidators(value, FormatValidator)
			},
		}),
		NameSpacedValueChainFlagFromConfigFile(ns, config.Config.Source, &cli.StringFlag{
			Name:  "subsets",
			Usage: "comma-separated character subsets to keep. Defaults to all",
			Validator: func(value string) error {
				return FlagValidators(value, SubsetsValidator)
			},
		}),
		&cli.BoolWithInverseFlag{
			Name:    "hash",
			Usage:   "add a content hash to output file names",
			Sources: cli.NewValueSourceChain(fromConfig(ns, "hash")...),
			Value:   true,
		},
		// FONTSLIM_CACHE only disables on "0" or "false", so it seeds the
		// default rather than acting as a bool source.
		&cli.BoolWithInverseFlag{
			Name:  "cache",
			Usage: "reuse cached results",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+".cache", altsrc.StringSourcer(config.Config.Source)),
			),
			Value: cacheutil.Enabled(),
		},
		newCacheDirFlag(),
		&cli.StringFlag{
			Name:  "css",
			Usage: "also write an aggregate stylesheet to this path",
			Validator: func(value string) error {
				return FlagValidators(value, JammedFlagValidator)
			},
		},
	}
}

// NameSpacedValueChainFlagFromConfigFile adds namespaced and global config file
// sources to the given flag's Sources chain.
func NameSpacedValueChainFlagFromConfigFile(ns string, path string, flag *cli.StringFlag) *cli.StringFlag {
	src := yaml.YAML(ns+"."+flag.Name, altsrc.StringSourcer(path))
	flag.Sources.Chain = append(flag.Sources.Chain, src)

	src = yaml.YAML(flag.Name, altsrc.StringSourcer(path))
	flag.Sources.Chain = append(flag.Sources.Chain, src)

	return flag
}

func formatNames() []string {
	names := make([]string, 0, len(fontfile.OutputFormats))
	for _, f := range fontfile.OutputFormats {
		names = append(names, string(f))
	}
	return names
}

// pathHas reports whether target is an executable on PATH.
func pathHas(target string) bool {
	_, err := exec.LookPath(target)
	return err == nil
}
