package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLettersStableOrder(t *testing.T) {
	assert.Equal(t, []Letter{LetterA, LetterB, LetterC, LetterD, LetterE, LetterF}, Letters())
}

func TestLetterDescriptionAndBasis(t *testing.T) {
	for _, l := range Letters() {
		assert.True(t, l.Valid(), string(l))
		assert.NotEmpty(t, l.Description(), string(l))
		assert.Contains(t, l.LegalBasis(), "Art. 11 letra "+string(l))
	}
	assert.False(t, Letter("g").Valid())
	assert.Empty(t, Letter("g").Description())
}
