package fits

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stelladrift/fits/pkg/common"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Value
	}{
		{"integer", "42", IntValue(42)},
		{"negative integer", "-42", IntValue(-42)},
		{"explicit plus", "+7", IntValue(7)},
		{"plain float", "3.25", FloatValue(3.25)},
		{"leading point digits", ".5", FloatValue(0.5)},
		{"trailing point", "2.", FloatValue(2)},
		{"lower e exponent", "1.5e3", FloatValue(1500)},
		{"upper E exponent", "1.5E3", FloatValue(1500)},
		{"fortran d exponent", "1.5d3", FloatValue(1500)},
		{"fortran D exponent", "1.5D-3", FloatValue(0.0015)},
		{"integer with exponent", "2E2", FloatValue(200)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseNumber(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseNumberRejects(t *testing.T) {
	inputs := []string{"", "-", "+", ".", "1.2.3", "1e", "1E+", "abc", "1x", "e5", "--1", "1 2"}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			_, err := parseNumber(input)
			require.ErrorIs(t, err, common.ErrMalformedNumber)
		})
	}
}

func TestFormatValueWidth(t *testing.T) {
	tests := []struct {
		name  string
		value Value
	}{
		{"bool", BoolValue(false)},
		{"int", IntValue(123456)},
		{"float", FloatValue(-1.25e10)},
		{"short text", TextValue("a")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			field := formatValue(tt.value)
			assert.Len(t, field, common.ValueFieldWidth)
		})
	}

	t.Run("long text exceeds the fixed field", func(t *testing.T) {
		field := formatValue(TextValue("a string longer than twenty bytes"))
		assert.Greater(t, len(field), common.ValueFieldWidth)
	})
}
