package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWords(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{"sentence", "The cat sat.", []string{"the", "cat", "sat"}},
		{"empty", "", []string{}},
		{"punctuation only", "... --- !!!", []string{}},
		{"inner apostrophe kept", "Don't stop", []string{"don't", "stop"}},
		{"quoted", "'hello' said ''Bob''", []string{"hello", "said", "bob"}},
		{"lone apostrophes", "' '' '''", []string{}},
		{"digits", "Route 66, exit 9b", []string{"route", "66", "exit", "9b"}},
		{"hyphen splits", "state-of-the-art", []string{"state", "of", "the", "art"}},
		{"non ascii splits", "café naïve", []string{"caf", "na", "ve"}},
		{"tabs and newlines", "one\ttwo\r\nthree", []string{"one", "two", "three"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Words(tt.line))
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "rock'n'roll", Normalize("'Rock'N'Roll'"))
	assert.Equal(t, "", Normalize("'''"))
}
