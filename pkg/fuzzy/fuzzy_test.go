package fuzzy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
		{"Invoice", "invoice", 0},
		{"café", "cafe", 0},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, LevenshteinDistance(tt.a, tt.b))
		})
	}
}

func TestMatch(t *testing.T) {
	assert.True(t, Match("invoice", "Your INVOICE is ready"))
	assert.True(t, Match("invoise", "Your invoice is ready"))
	assert.True(t, Match("meet", "meeting notes"))
	assert.False(t, Match("cat", "the car park"))
	assert.True(t, Match("", "anything"))
}

func TestScore_RanksSubjectAboveBody(t *testing.T) {
	subjectHit := Document{Subject: "Invoice for March", From: "billing@example.com"}
	bodyHit := Document{Subject: "Hello", Body: "see the invoice attached"}
	miss := Document{Subject: "Lunch", Body: "pizza?"}

	assert.Greater(t, Score("invoice", subjectHit), Score("invoice", bodyHit))
	assert.Greater(t, Score("invoice", bodyHit), 0.0)
	assert.Equal(t, 0.0, Score("invoice", miss))
}
