package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeScalar(t *testing.T) {
	type testCase struct {
		given    float32
		expected float32
	}

	testCases := map[string]testCase{
		"trims-precision":   {given: 0.15442, expected: 0.15},
		"keeps-round-value": {given: 0.5, expected: 0.5},
		"zero":              {given: 0, expected: 0},
		"full":              {given: 1, expected: 1},
	}

	for testName, testCase := range testCases {
		t.Run(testName, func(t *testing.T) {
			assert.Equal(t, testCase.expected, NormalizeScalar(testCase.given))
		})
	}
}

func TestSignificantlyDifferent(t *testing.T) {
	type testCase struct {
		old        float32
		new        float32
		noiseLevel string
		expected   bool
	}

	testCases := map[string]testCase{
		"jitter-is-ignored": {
			old:      0.5,
			new:      0.51,
			expected: false,
		},
		"real-move-is-significant": {
			old:      0.5,
			new:      0.55,
			expected: true,
		},
		"snaps-to-bottom-edge": {
			old:      0.01,
			new:      0.0,
			expected: true,
		},
		"snaps-to-top-edge": {
			old:      0.99,
			new:      1.0,
			expected: true,
		},
		"high-noise-reduction-widens-threshold": {
			old:        0.5,
			new:        0.53,
			noiseLevel: "high",
			expected:   false,
		},
		"low-noise-reduction-narrows-threshold": {
			old:        0.5,
			new:        0.52,
			noiseLevel: "low",
			expected:   true,
		},
	}

	for testName, testCase := range testCases {
		t.Run(testName, func(t *testing.T) {
			assert.Equal(t, testCase.expected,
				SignificantlyDifferent(testCase.old, testCase.new, testCase.noiseLevel))
		})
	}
}
