package command

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/staranto/fontslim/internal/meta"
)

const bashCompletionScript = `# bash completion for fontslim
# Fallback if bash-completion is not installed
if ! declare -F _get_comp_words_by_ref >/dev/null 2>&1; then
  _get_comp_words_by_ref() {
    cur=${COMP_WORDS[COMP_CWORD]}
    prev=${COMP_WORDS[COMP_CWORD-1]}
  }
fi

_fontslim()
{
    local cur prev cmd
    COMPREPLY=()
    _get_comp_words_by_ref -n : cur prev

    if [[ ${COMP_CWORD} -eq 1 ]]; then
        COMPREPLY=( $(compgen -W "optimize build cache completion --help --version" -- "$cur") )
        return 0
    fi

    cmd=${COMP_WORDS[1]}
    local common="--columns -a --color -c --filter -f --output -o --sort -s --titles -t --tldr"

    case "$prev" in
        --output|-o)
            COMPREPLY=( $(compgen -W "text json raw yaml" -- "$cur") )
            return 0
            ;;
        --format)
            COMPREPLY=( $(compgen -W "woff2 woff ttf" -- "$cur") )
            return 0
            ;;
        --display)
            COMPREPLY=( $(compgen -W "auto block swap fallback optional" -- "$cur") )
            return 0
            ;;
        --style)
            COMPREPLY=( $(compgen -W "normal italic" -- "$cur") )
            return 0
            ;;
        --subsets)
            COMPREPLY=( $(compgen -W "arabic latin digits punctuation" -- "$cur") )
            return 0
            ;;
        --out|-d|--cache-dir|--source)
            COMPREPLY=( $(compgen -o dirnames -- "$cur") )
            return 0
            ;;
    esac

    case "$cmd" in
        optimize)
            local opts="$common --out -d --family --weight --style --display --format --subsets --hash --no-hash --cache --no-cache --cache-dir --css"
            ;;
        build)
            local opts="$common --source --out -d --css --publish --no-publish"
            ;;
        cache)
            if [[ ${COMP_CWORD} -eq 2 ]]; then
                COMPREPLY=( $(compgen -W "stats clear clean" -- "$cur") )
                return 0
            fi
            local opts="--cache-dir --max-age $common"
            ;;
        completion)
            COMPREPLY=( $(compgen -W "bash zsh" -- "$cur") )
            return 0
            ;;
        *)
            local opts="$common"
            ;;
    esac

    if [[ "$cur" == -* ]]; then
        COMPREPLY=( $(compgen -W "$opts" -- "$cur") )
        return 0
    fi

    # Positional font files and directories
    COMPREPLY=( $(compgen -f -- "$cur") )
    return 0
}

complete -o filenames -F _fontslim fontslim
`

const zshCompletionScript = `#compdef fontslim

_fontslim() {
  local -a cmds
  cmds=(
    'optimize:subset and convert fonts for the web'
    'build:optimize the font families listed in the config file'
    'cache:inspect and prune the result cache'
    'completion:generate shell completion script'
  )

  local -a common
  common=(
  '(-a --columns)'{-a,--columns}'[extra columns to include]:columns'
  '(-c --color)'{-c,--color}'[enable colored text]'
  '(-f --filter)'{-f,--filter}'[filters to apply]:filters'
  '(-o --output)'{-o,--output}'[output format]:format:(text json raw yaml)'
  '(-s --sort)'{-s,--sort}'[sort columns]:columns'
  '(-t --titles)'{-t,--titles}'[show titles]'
  '--tldr[show tldr page]'
  )

  if (( CURRENT == 2 )); then
    _describe -t commands 'fontslim commands' cmds
    return
  fi

  local curcontext="$curcontext" state line
  case $words[2] in
    optimize)
      _arguments -C \
        $common \
        '(-d --out)'{-d,--out}'[output directory]:dir:_directories' \
        '--family[font family]:family' \
        '--weight[font weight]:weight:(100 200 300 400 500 600 700 800 900)' \
        '--style[font style]:style:(normal italic)' \
        '--display[font-display]:display:(auto block swap fallback optional)' \
        '--format[output format]:format:(woff2 woff ttf)' \
        '--subsets[character subsets]:subsets:(arabic latin digits punctuation)' \
        '--hash[hash output names]' \
        '--no-hash[plain output names]' \
        '--cache[reuse cached results]' \
        '--no-cache[ignore the cache]' \
        '--cache-dir[cache directory]:dir:_directories' \
        '--css[aggregate stylesheet]:file:_files' \
        '*:font:_files -g "*.(ttf|otf|woff|woff2)"'
      ;;
    build)
      _arguments -C \
        $common \
        '--source[source directory]:dir:_directories' \
        '(-d --out)'{-d,--out}'[output directory]:dir:_directories' \
        '--css[stylesheet path]:file:_files' \
        '--publish[upload results]' \
        '--no-publish[skip upload]'
      ;;
    cache)
      _arguments -C \
        '1: :((stats clear clean))' \
        '--cache-dir[cache directory]:dir:_directories' \
        '--max-age[maximum entry age]:duration'
      ;;
    completion)
      _arguments '1: :((bash zsh))'
      ;;
    *)
      _arguments -C $common '*:file:_files'
      ;;
  esac
}

# If this file is sourced directly (not autoloaded via fpath), ensure compsys is initialized and register the completion
if ! typeset -f compdef >/dev/null 2>&1; then
  autoload -Uz compinit && compinit -i
fi
compdef _fontslim fontslim
`

func CompletionCommandAction(ctx context.Context, cmd *cli.Command) error {
	shell := ""
	if args := cmd.Args().Slice(); len(args) > 0 {
		shell = args[0]
	}
	switch shell {
	case "bash":
		fmt.Fprint(stdout, bashCompletionScript)
	case "zsh":
		fmt.Fprint(stdout, zshCompletionScript)
	default:
		// Try to detect from SHELL or print help
		sh := os.Getenv("SHELL")
		if strings.HasSuffix(sh, "zsh") {
			fmt.Fprint(stdout, zshCompletionScript)
		} else if strings.HasSuffix(sh, "bash") {
			fmt.Fprint(stdout, bashCompletionScript)
		} else {
			fmt.Fprintln(stderr, "usage: fontslim completion [bash|zsh]")
			return nil
		}
	}
	return nil
}

func CompletionCommandBuilder(meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "completion",
		Usage:     "generate shell completion script",
		UsageText: "fontslim completion [bash|zsh]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Action: CompletionCommandAction,
	}
}
