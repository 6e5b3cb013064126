package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeIdentifier_Valid(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already canonical", "AB12CD34", "AB12CD34"},
		{"lowercase folded", "ab12cd34", "AB12CD34"},
		{"mixed case", "Ab12Cd34", "AB12CD34"},
		{"surrounding whitespace", "  AB12CD34\n", "AB12CD34"},
		{"all digits", "12345678", "12345678"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeIdentifier(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeIdentifier_Invalid(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"too short", "AB12CD3"},
		{"too long", "AB12CD345"},
		{"punctuation", "AB12-D34"},
		{"interior space", "AB12 D34"},
		{"non-ascii", "AB12CDÉ4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NormalizeIdentifier(tt.in)
			require.Error(t, err)

			var ferr *FormatError
			assert.ErrorAs(t, err, &ferr)
		})
	}
}
