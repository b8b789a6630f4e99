// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"strconv"

	"github.com/apex/log"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/lipgloss/v2/table"
	"github.com/tidwall/gjson"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/staranto/fontslim/internal/config"
)

// Formats lists the accepted --output values.
var Formats = []string{"text", "json", "yaml", "raw"}

// Options controls how a dataset is emitted.
type Options struct {
	Format  string
	Color   bool
	Titles  bool
	Sort    string
	Filter  string
	Padding int
}

// OptionsFromCommand reads the common output flags from cmd. Flags a command
// does not define read as their zero value.
func OptionsFromCommand(cmd *cli.Command) Options {
	pad, _ := config.GetInt("padding", 2) //nolint:mnd
	return Options{
		Format:  cmd.String("output"),
		Color:   cmd.Bool("color"),
		Titles:  cmd.Bool("titles"),
		Sort:    cmd.String("sort"),
		Filter:  cmd.String("filter"),
		Padding: pad,
	}
}

// Dataset marshals v to JSON and extracts one row per element (or a single
// row when v is not a list). Row keys are column titles.
func Dataset(v any, cols Columns) ([]map[string]interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal dataset: %w", err)
	}

	doc := gjson.ParseBytes(raw)
	items := []gjson.Result{doc}
	if doc.IsArray() {
		items = doc.Array()
	}

	rows := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		row := make(map[string]interface{}, len(cols))
		for _, c := range cols {
			row[c.Title] = item.Get(c.Key).Value()
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// SliceDiceSpit filters, sorts, transforms and renders v according to opts.
// With --output=raw the JSON form of v is written untouched.
func SliceDiceSpit(v any, cols Columns, opts Options, w io.Writer) error {
	if w == nil {
		w = os.Stdout
	}

	if opts.Format == "raw" {
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal dataset: %w", err)
		}
		_, err = fmt.Fprintln(w, string(raw))
		return err
	}

	rows, err := Dataset(v, cols)
	if err != nil {
		return err
	}

	rows = FilterRows(rows, opts.Filter)
	SortDataset(rows, opts.Sort)

	// Hidden columns take part in filtering and sorting only.
	shaped := make([]map[string]interface{}, 0, len(rows))
	for _, row := range rows {
		out := make(map[string]interface{}, len(cols))
		for i := range cols {
			c := &cols[i]
			if !c.Include {
				continue
			}
			out[c.Title] = c.Transform(row[c.Title])
		}
		shaped = append(shaped, out)
	}

	switch opts.Format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(shaped)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2) //nolint:mnd
		if err := enc.Encode(shaped); err != nil {
			return err
		}
		return enc.Close()
	default:
		TableWriter(shaped, cols, opts, w)
		return nil
	}
}

// TableWriter renders the result set in a tabular form honoring color,
// titles and padding options. Color is dropped when w is not a terminal.
func TableWriter(
	resultSet []map[string]interface{},
	cols Columns,
	opts Options,
	w io.Writer) {

	if len(resultSet) == 0 {
		return
	}

	var (
		headerStyle  = lipgloss.NewStyle().Align(lipgloss.Left)
		cellStyle    = lipgloss.NewStyle().Padding(0, 0).Align(lipgloss.Left)
		evenRowStyle = cellStyle
		oddRowStyle  = cellStyle
	)

	if opts.Color && IsTerminal(w) {
		headerColor, evenColor, oddColor := getColors("colors")

		headerStyle = headerStyle.Foreground(lipgloss.Color(headerColor))
		evenRowStyle = evenRowStyle.Foreground(lipgloss.Color(evenColor))
		oddRowStyle = oddRowStyle.Foreground(lipgloss.Color(oddColor))
	}

	titles := cols.Titles()
	var rows [][]string
	for _, result := range resultSet {
		row := make([]string, 0, len(titles))
		for _, title := range titles {
			row = append(row, InterfaceToString(result[title], "-"))
		}
		rows = append(rows, row)
	}

	t := table.New().
		BorderBottom(false).
		BorderTop(false).
		BorderLeft(false).
		BorderRight(false).
		Border(lipgloss.HiddenBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			var style lipgloss.Style
			switch {
			case row == table.HeaderRow:
				style = headerStyle
			case row%2 == 0:
				style = evenRowStyle
			default:
				style = oddRowStyle
			}

			if col > 0 {
				style = style.PaddingLeft(opts.Padding)
			}

			return style
		}).
		Headers().
		Rows(rows...)

	if opts.Titles {
		// https://github.com/charmbracelet/lipgloss/issues/261
		t = t.Headers(titles...).BorderHeader(false)
	}
	fmt.Fprintln(w, t)
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// getColors returns configured color values for table rendering.
func getColors(key string) (header string, even string, odd string) {
	header, _ = config.GetString(fmt.Sprintf("%s.title", key), "#f6be00")
	even, _ = config.GetString(fmt.Sprintf("%s.even", key), "#ffffff")
	odd, _ = config.GetString(fmt.Sprintf("%s.odd", key), "#00c8f0")
	log.Debugf("colors: %s %s %s", header, even, odd)
	return
}

// InterfaceToString converts supported primitive or composite values to a
// string. A custom empty value may be provided.
func InterfaceToString(value interface{}, emptyValue ...string) string {
	if len(emptyValue) == 0 {
		emptyValue = []string{""}
	}

	if value == nil || reflect.ValueOf(value).IsZero() {
		return emptyValue[0]
	}

	switch value := value.(type) {
	case string:
		return value
	case int:
		return strconv.Itoa(value)
	case int64:
		return strconv.FormatInt(value, 10)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(value)
	default:
		jsonBytes, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprintf("%v", value)
		}
		return string(jsonBytes)
	}
}
