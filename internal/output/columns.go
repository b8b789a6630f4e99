// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package output

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// Column is one field pulled out of each result and shown in the output.
type Column struct {
	// The gjson path to extract from each result object.
	Key string
	// Should this Column be shown or is it only there for filtering and
	// sorting?
	Include bool
	// The key used in the output rows and as the column title.
	Title string
	// Transformation spec applied to the value before rendering.
	TransformSpec string
}

var lengthRe = regexp.MustCompile(`-?\d+`)

// Transform applies the column's TransformSpec to value.
//
//	h     human readable byte size (numbers only)
//	u, l  upper or lower case; the last one in the spec wins
//	N     truncate to N characters
//	-N    shorten to N characters by eliding the middle
func (c *Column) Transform(value interface{}) interface{} {
	if c.TransformSpec == "" {
		return value
	}

	if strings.Contains(c.TransformSpec, "h") {
		switch v := value.(type) {
		case float64:
			value = humanize.Bytes(uint64(math.Max(v, 0)))
		case int64:
			value = humanize.Bytes(uint64(max(v, 0)))
		case int:
			value = humanize.Bytes(uint64(max(v, 0)))
		}
	}

	result, ok := value.(string)
	if !ok {
		return value
	}

	lastL := strings.LastIndexAny(c.TransformSpec, "lL")
	lastU := strings.LastIndexAny(c.TransformSpec, "uU")
	if lastL > lastU {
		result = strings.ToLower(result)
	} else if lastU > lastL {
		result = strings.ToUpper(result)
	}

	// A more specific length later in the spec overrides an earlier one.
	if match := lengthRe.FindAllString(c.TransformSpec, -1); len(match) != 0 {
		l, _ := strconv.Atoi(match[len(match)-1])
		abs := int(math.Abs(float64(l)))
		if len(result) > abs {
			if l < 0 {
				lr := abs/2 - 1
				if lr < 1 {
					lr = 1
				}
				result = result[:lr] + ".." + result[len(result)-lr:]
			} else {
				result = result[:l]
			}
		}
	}

	return result
}

// Columns is the ordered column list for one command.
type Columns []Column

// String renders the list in the form accepted by Set.
func (cs *Columns) String() string {
	result := make([]string, 0, len(*cs))
	for _, c := range *cs {
		result = append(result, fmt.Sprintf("%s:%s:%s", c.Key, c.Title, c.TransformSpec))
	}
	return strings.Join(result, ",")
}

// Set parses a comma separated list of key[:title[:transform]] specs and
// merges them into the list. A leading ! hides the column. A spec naming an
// existing key or title updates that column in place.
func (cs *Columns) Set(value string) error {
	if value == "" {
		return nil
	}

	const (
		keyIdx = iota
		titleIdx
		transformIdx
	)

specloop:
	for _, spec := range strings.Split(value, ",") {
		fields := strings.Split(spec, ":")

		col := Column{Include: true}
		col.Key = strings.TrimSpace(fields[keyIdx])
		if strings.HasPrefix(col.Key, "!") {
			col.Include = false
			col.Key = col.Key[1:]
		}
		if col.Key == "" {
			return fmt.Errorf("invalid column spec %q", spec)
		}

		// Without an explicit title the last path segment is used.
		if len(fields) > titleIdx && strings.TrimSpace(fields[titleIdx]) != "" {
			col.Title = strings.TrimSpace(fields[titleIdx])
		} else {
			segments := strings.Split(col.Key, ".")
			col.Title = segments[len(segments)-1]
		}

		if len(fields) > transformIdx {
			col.TransformSpec = strings.TrimSpace(fields[transformIdx])
		}

		for i := range *cs {
			existing := &(*cs)[i]
			if existing.Key == col.Key || existing.Title == col.Key {
				existing.Include = col.Include
				if len(fields) > titleIdx && strings.TrimSpace(fields[titleIdx]) != "" {
					existing.Title = col.Title
				}
				if len(fields) > transformIdx {
					existing.TransformSpec = col.TransformSpec
				}
				continue specloop
			}
		}

		*cs = append(*cs, col)
	}

	return nil
}

// MustColumns builds a Columns from specs and panics on a malformed one. It
// is meant for package level defaults.
func MustColumns(specs ...string) Columns {
	var cs Columns
	for _, s := range specs {
		if err := cs.Set(s); err != nil {
			panic(err)
		}
	}
	return cs
}

// Titles returns the titles of the included columns.
func (cs Columns) Titles() []string {
	var titles []string
	for _, c := range cs {
		if c.Include {
			titles = append(titles, c.Title)
		}
	}
	return titles
}
