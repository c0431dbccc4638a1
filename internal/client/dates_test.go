package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"2024-03-05", "05/03/2024"},  // ISO
		{"05-03-2024", "05/03/2024"},  // DD-MM-YYYY
		{"2024/03/05", "05/03/2024"},  // YYYY/MM/DD
		{"05/03/2024", "05/03/2024"},  // already in display form
		{"13/05/2024", "13/05/2024"},  // day > 12, unambiguous DD/MM
		{"99-99-9999", "99-99-9999"},  // unparseable, passed through
		{"yesterday", "yesterday"},    // unparseable, passed through
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeDate(tt.input), "input %q", tt.input)
	}
}

func TestNormalizeDate_FirstPatternWins(t *testing.T) {
	// 01-02-2024 parses under both DD-MM-YYYY and MM-DD-YYYY; the earlier
	// pattern in the sequence decides, so it reads as 1 February.
	assert.Equal(t, "01/02/2024", NormalizeDate("01-02-2024"))

	// Same ambiguity with slashes: DD/MM/YYYY precedes MM/DD/YYYY.
	assert.Equal(t, "03/04/2024", NormalizeDate("03/04/2024"))
}
