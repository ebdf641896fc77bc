package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"fence with prose", "Here you go:\n```json\n{\"a\":1}\n```\nThanks", `{"a":1}`},
		{"whitespace", "  \n{\"a\":1}\n ", `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripCodeFence(tt.input))
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Tool string `json:"tool"`
	}

	t.Run("fenced", func(t *testing.T) {
		got, err := Decode[payload]("```json\n{\"tool\":\"send_email\"}\n```")
		require.NoError(t, err)
		assert.Equal(t, "send_email", got.Tool)
	})

	t.Run("surrounded by prose", func(t *testing.T) {
		got, err := Decode[payload](`Sure! {"tool":"generate_pdf"} Let me know.`)
		require.NoError(t, err)
		assert.Equal(t, "generate_pdf", got.Tool)
	})

	t.Run("no json", func(t *testing.T) {
		_, err := Decode[payload]("sorry I cannot help")
		assert.ErrorIs(t, err, ErrNoJSON)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := Decode[payload]("")
		assert.ErrorIs(t, err, ErrNoJSON)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := Decode[payload](`{"tool": "send_email",}`)
		assert.Error(t, err)
	})

	t.Run("two objects", func(t *testing.T) {
		_, err := Decode[payload](`{"tool":"a"} {"tool":"b"}`)
		assert.Error(t, err)
	})
}
