package smtp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTextToHTML(t *testing.T) {
	assert.Equal(t, "<p>Hello<br>World</p>", TextToHTML("Hello\nWorld"))
	assert.Equal(t, "<p></p>", TextToHTML(""))
}

func TestSplitAddresses(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"a@b.com", []string{"a@b.com"}},
		{"a@b.com, c@d.com", []string{"a@b.com", "c@d.com"}},
		{" a@b.com ,, ", []string{"a@b.com"}},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitAddresses(tt.input))
		})
	}
}
