// Package filter provides expression filtering for history and scan
// listings. An expression has the form "field op value", for example
// "saved>1MB", "action=skipped", or "name~*.png". Multiple expressions
// combine conjunctively: a row must match all of them.
package filter

import (
	"strings"

	"github.com/gobwas/glob"
)

// Row is the filterable view of one listing entry. Callers map their
// records (history rows, scan results) into this shape.
type Row struct {
	// Name is the base name of the source file.
	Name string

	// Action is what the transform did: optimized, converted, skipped,
	// or failed.
	Action string

	// Format is the target format label, empty when no conversion was
	// requested.
	Format string

	// Size is the original size in bytes.
	Size int64

	// NewSize is the resulting size in bytes.
	NewSize int64

	// Saved is the byte saving (never negative).
	Saved int64
}

// Op is a comparison operator.
type Op string

// Operators. String fields accept OpEq, OpNeq, and OpGlob; numeric
// fields accept everything except OpGlob.
const (
	OpEq   Op = "="
	OpNeq  Op = "!="
	OpGlob Op = "~"
	OpGt   Op = ">"
	OpLt   Op = "<"
	OpGte  Op = ">="
	OpLte  Op = "<="
)

// Filter is one parsed expression.
type Filter struct {
	// Field is the normalized field name: name, action, format, size,
	// new, or saved.
	Field string

	// Op is the comparison operator.
	Op Op

	str     string
	num     int64
	pattern glob.Glob
}

// Match reports whether the row satisfies this expression.
func (f *Filter) Match(row Row) bool {
	switch f.Field {
	case fieldName:
		return f.matchString(row.Name, false)
	case fieldAction:
		return f.matchString(row.Action, true)
	case fieldFormat:
		return f.matchString(row.Format, true)
	case fieldSize:
		return f.matchNumber(row.Size)
	case fieldNew:
		return f.matchNumber(row.NewSize)
	case fieldSaved:
		return f.matchNumber(row.Saved)
	}
	return false
}

// matchString compares a string field. Enumerated labels (action,
// format) compare case-insensitively; file names keep their case.
func (f *Filter) matchString(value string, fold bool) bool {
	switch f.Op {
	case OpEq:
		if fold {
			return strings.EqualFold(value, f.str)
		}
		return value == f.str
	case OpNeq:
		if fold {
			return !strings.EqualFold(value, f.str)
		}
		return value != f.str
	case OpGlob:
		return f.pattern.Match(value)
	}
	return false
}

func (f *Filter) matchNumber(value int64) bool {
	switch f.Op {
	case OpEq:
		return value == f.num
	case OpNeq:
		return value != f.num
	case OpGt:
		return value > f.num
	case OpLt:
		return value < f.num
	case OpGte:
		return value >= f.num
	case OpLte:
		return value <= f.num
	}
	return false
}

// Apply returns the rows matching every filter. With no filters the
// input is returned unchanged.
func Apply(filters []*Filter, rows []Row) []Row {
	if len(filters) == 0 {
		return rows
	}

	var matched []Row
	for _, row := range rows {
		ok := true
		for _, f := range filters {
			if !f.Match(row) {
				ok = false
				break
			}
		}
		if ok {
			matched = append(matched, row)
		}
	}
	return matched
}
