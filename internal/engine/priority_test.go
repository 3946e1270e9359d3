package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name     string
		progress float64
		weight   int
		want     Priority
	}{
		{"early heavy subject", 40, 5, PriorityCritical},
		{"mid light subject", 60, 2, PriorityMedium},
		{"late heavy subject", 90, 5, PriorityNormal},
		{"weight below critical falls to high", 40, 3, PriorityHigh},
		{"weight below high falls to medium", 40, 2, PriorityMedium},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.progress, tc.weight))
		})
	}
}

func TestClassifyBoundariesAreStrict(t *testing.T) {
	// progress exactly 50 is not "< 50", so critical never matches.
	assert.Equal(t, PriorityHigh, Classify(50, 5))
	// progress exactly 75 is not "< 75", so both high and medium fall through.
	assert.Equal(t, PriorityNormal, Classify(75, 5))
	assert.Equal(t, PriorityNormal, Classify(75, 1))
	// weight boundaries are inclusive on the rule side.
	assert.Equal(t, PriorityCritical, Classify(49, 4))
	assert.Equal(t, PriorityHigh, Classify(74, 3))
}
