package filter

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/gobwas/glob"

	"github.com/jamesainslie/squish/pkg/squish/types"
)

// Field name constants.
const (
	fieldName   = "name"
	fieldAction = "action"
	fieldFormat = "format"
	fieldSize   = "size"
	fieldNew    = "new"
	fieldSaved  = "saved"
)

// ErrInvalidExpression indicates the expression does not parse at all.
var ErrInvalidExpression = errors.New("invalid filter expression")

// ErrUnknownField indicates an unrecognized field name.
var ErrUnknownField = errors.New("unknown filter field")

// ErrBadOperator indicates an operator the field does not support.
var ErrBadOperator = errors.New("operator not valid for field")

// exprPattern splits "field op value". Multi-character operators come
// first so ">=" never parses as ">" followed by "=value".
var exprPattern = regexp.MustCompile(`^\s*([a-zA-Z_]+)\s*(>=|<=|!=|=|>|<|~)\s*(.+?)\s*$`)

// Parse parses a single filter expression.
//
// String fields (name, action, format) support =, !=, and ~ (glob on
// the value). Numeric fields (size, new, saved) support =, !=, >, <,
// >=, and <=, with values in human-readable sizes ("500KB", "1.5MB")
// or plain bytes. Field names are case-insensitive; values keep their
// case.
func Parse(expr string) (*Filter, error) {
	matches := exprPattern.FindStringSubmatch(expr)
	if matches == nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidExpression, expr)
	}

	f := &Filter{Field: strings.ToLower(matches[1]), Op: Op(matches[2])}
	value := matches[3]

	switch f.Field {
	case fieldName, fieldAction, fieldFormat:
		switch f.Op {
		case OpEq, OpNeq:
			f.str = value
		case OpGlob:
			g, err := glob.Compile(value)
			if err != nil {
				return nil, fmt.Errorf("%w: bad pattern %q: %w", ErrInvalidExpression, value, err)
			}
			f.pattern = g
		default:
			return nil, fmt.Errorf("%w: %q on %s", ErrBadOperator, f.Op, f.Field)
		}

	case fieldSize, fieldNew, fieldSaved:
		if f.Op == OpGlob {
			return nil, fmt.Errorf("%w: %q on %s", ErrBadOperator, f.Op, f.Field)
		}
		n, err := types.ParseSize(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrInvalidExpression, expr, err)
		}
		f.num = n

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, f.Field)
	}

	return f, nil
}

// ParseAll parses every expression, failing on the first bad one.
func ParseAll(exprs []string) ([]*Filter, error) {
	filters := make([]*Filter, 0, len(exprs))
	for _, expr := range exprs {
		f, err := Parse(expr)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	return filters, nil
}
