package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunContext_Normalize(t *testing.T) {
	tests := []struct {
		name string
		in   int
		want int
	}{
		{name: "below minimum clamps up", in: 1, want: MinInactivityThresholdDays},
		{name: "unset takes the default", in: 0, want: DefaultInactivityThresholdDays},
		{name: "negative clamps up", in: -5, want: MinInactivityThresholdDays},
		{name: "in range passes through", in: 90, want: 90},
		{name: "above maximum clamps down", in: 100000, want: MaxInactivityThresholdDays},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := RunContext{InactivityThresholdDays: tt.in}.Normalize()
			assert.Equal(t, tt.want, ctx.InactivityThresholdDays)
		})
	}
}

func TestSeverity_Ordering(t *testing.T) {
	assert.Greater(t, SeverityCritical, SeverityHigh)
	assert.Greater(t, SeverityHigh, SeverityMedium)
	assert.Greater(t, SeverityMedium, SeverityLow)
	assert.Greater(t, SeverityLow, SeverityInfo)

	// Severities() lists highest first for display ordering
	sevs := Severities()
	assert.Equal(t, SeverityCritical, sevs[0])
	assert.Equal(t, SeverityInfo, sevs[len(sevs)-1])
}
