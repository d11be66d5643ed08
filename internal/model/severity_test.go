package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeverityRankOrdering(t *testing.T) {
	assert.Less(t, SeverityLow.Rank(), SeverityMedium.Rank())
	assert.Less(t, SeverityMedium.Rank(), SeverityHigh.Rank())
	assert.Less(t, SeverityHigh.Rank(), SeverityCritical.Rank())
	assert.Equal(t, -1, Severity("bogus").Rank())
}

func TestMaxSeverity(t *testing.T) {
	tests := []struct {
		a, b, want Severity
	}{
		{SeverityLow, SeverityCritical, SeverityCritical},
		{SeverityCritical, SeverityLow, SeverityCritical},
		{SeverityHigh, SeverityHigh, SeverityHigh},
		{"", SeverityMedium, SeverityMedium},
		{SeverityMedium, "", SeverityMedium},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MaxSeverity(tt.a, tt.b))
	}
}

func TestSeverityPoints(t *testing.T) {
	assert.Equal(t, 25.0, SeverityLow.Points())
	assert.Equal(t, 50.0, SeverityMedium.Points())
	assert.Equal(t, 75.0, SeverityHigh.Points())
	assert.Equal(t, 100.0, SeverityCritical.Points())
	assert.Equal(t, 0.0, Severity("bogus").Points())
}

func TestSeverityValid(t *testing.T) {
	for _, s := range []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical} {
		assert.True(t, s.Valid(), string(s))
	}
	assert.False(t, Severity("EXTREME").Valid())
}
