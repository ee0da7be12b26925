package fits

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/stelladrift/fits/pkg/common"
)

type ValueKind int

const (
	ValueBool ValueKind = iota
	ValueInt
	ValueFloat
	ValueText
)

// Value is the typed content of a value card: a boolean, a number, or text.
type Value struct {
	Kind  ValueKind
	Bool  bool
	Int   int64
	Float float64
	Text  string
}

func BoolValue(b bool) Value {
	return Value{Kind: ValueBool, Bool: b}
}

func IntValue(i int64) Value {
	return Value{Kind: ValueInt, Int: i}
}

func FloatValue(f float64) Value {
	return Value{Kind: ValueFloat, Float: f}
}

func TextValue(s string) Value {
	return Value{Kind: ValueText, Text: s}
}

// parseValueField interprets the trimmed content of a fixed-format value
// field that did not start with an apostrophe: T/F booleans, else a number.
func parseValueField(field string) (Value, error) {
	switch field {
	case "T":
		return BoolValue(true), nil
	case "F":
		return BoolValue(false), nil
	}
	return parseNumber(field)
}

// parseNumber accepts the format's numeric grammar: an optional sign, digits
// with an optional decimal point, and an optional exponent introduced by
// e, E, d or D. Fortran-style D exponents are normalized to E before the
// final conversion. Anything with a point or exponent parses as a float,
// everything else as an integer.
func parseNumber(s string) (Value, error) {
	if !isValidNumber(s) {
		return Value{}, fmt.Errorf("%w: %q", common.ErrMalformedNumber, s)
	}

	isFloat := strings.ContainsAny(s, ".eEdD")
	if !isFloat {
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q", common.ErrMalformedNumber, s)
		}
		return IntValue(i), nil
	}

	normalized := strings.Map(func(r rune) rune {
		if r == 'd' || r == 'D' {
			return 'E'
		}
		return r
	}, s)

	f, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return Value{}, fmt.Errorf("%w: %q", common.ErrMalformedNumber, s)
	}
	return FloatValue(f), nil
}

// isValidNumber walks the grammar [+-]? digits [. digits]? ([eEdD] [+-]? digits)?
// where at least one digit must appear before the exponent.
func isValidNumber(s string) bool {
	i, n := 0, len(s)

	if i < n && (s[i] == '+' || s[i] == '-') {
		i++
	}

	intDigits := 0
	for i < n && s[i] >= '0' && s[i] <= '9' {
		i++
		intDigits++
	}

	fracDigits := 0
	if i < n && s[i] == '.' {
		i++
		for i < n && s[i] >= '0' && s[i] <= '9' {
			i++
			fracDigits++
		}
	}

	if intDigits == 0 && fracDigits == 0 {
		return false
	}

	if i < n && (s[i] == 'e' || s[i] == 'E' || s[i] == 'd' || s[i] == 'D') {
		i++
		if i < n && (s[i] == '+' || s[i] == '-') {
			i++
		}
		expDigits := 0
		for i < n && s[i] >= '0' && s[i] <= '9' {
			i++
			expDigits++
		}
		if expDigits == 0 {
			return false
		}
	}

	return i == n
}

// formatValue renders the content of the 20-byte value field. Booleans and
// numbers are right-aligned in exactly 20 bytes; quoted text is left-aligned
// and may exceed 20 bytes for long strings.
func formatValue(v Value) string {
	switch v.Kind {
	case ValueBool:
		if v.Bool {
			return fmt.Sprintf("%*s", common.ValueFieldWidth, "T")
		}
		return fmt.Sprintf("%*s", common.ValueFieldWidth, "F")
	case ValueInt:
		return fmt.Sprintf("%*d", common.ValueFieldWidth, v.Int)
	case ValueFloat:
		s := strconv.FormatFloat(v.Float, 'G', -1, 64)
		if !strings.ContainsAny(s, ".E") {
			// Keep floats distinguishable from integers on re-read.
			s += "."
		}
		return fmt.Sprintf("%*s", common.ValueFieldWidth, s)
	case ValueText:
		content := strings.ReplaceAll(v.Text, "'", "''")
		if len(content) < common.MinQuotedWidth {
			content += strings.Repeat(" ", common.MinQuotedWidth-len(content))
		}
		quoted := "'" + content + "'"
		if len(quoted) < common.ValueFieldWidth {
			quoted += strings.Repeat(" ", common.ValueFieldWidth-len(quoted))
		}
		return quoted
	}
	return strings.Repeat(" ", common.ValueFieldWidth)
}
