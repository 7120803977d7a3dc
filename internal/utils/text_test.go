package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadTime(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 5},
		{"whitespace only", "  \n\t ", 5},
		{"one word", "hello", 1},
		{"exactly 200", strings.Repeat("word ", 200), 1},
		{"201 words", strings.Repeat("word ", 201), 2},
		{"1000 words", strings.Repeat("w ", 1000), 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ReadTime(tt.text))
		})
	}
}

func TestTruncateCountsRunes(t *testing.T) {
	short := "short text"
	assert.Equal(t, short, Truncate(short, 200, "..."))

	long := strings.Repeat("é", 250)
	got := Truncate(long, 200, "...")
	assert.Equal(t, strings.Repeat("é", 200)+"...", got)

	exact := strings.Repeat("a", 200)
	assert.Equal(t, exact, Truncate(exact, 200, "..."))
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "b", FirstNonEmpty("", "  ", "b", "c"))
	assert.Equal(t, "", FirstNonEmpty("", " "))
}
