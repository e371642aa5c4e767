package scale

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const positionTolerance = 1e-5

type stubControl struct {
	position float32
}

func (c *stubControl) Position() float32            { return c.position }
func (c *stubControl) SetPosition(position float32) { c.position = position }

type stubProperty struct {
	value   float32
	minimum float32
	maximum float32
}

func (p stubProperty) Value() float32   { return p.value }
func (p stubProperty) Minimum() float32 { return p.minimum }
func (p stubProperty) Maximum() float32 { return p.maximum }

func TestSetControlToValue(t *testing.T) {
	type testCase struct {
		givenValue       float32
		givenMinimum     float32
		givenMaximum     float32
		expectedPosition float32
	}

	testCases := map[string]testCase{
		"midpoint": {
			givenValue:       50,
			givenMinimum:     0,
			givenMaximum:     100,
			expectedPosition: 0.5,
		},
		"bottom-of-range": {
			givenValue:       0,
			givenMinimum:     0,
			givenMaximum:     100,
			expectedPosition: 0,
		},
		"top-of-range": {
			givenValue:       100,
			givenMinimum:     0,
			givenMaximum:     100,
			expectedPosition: 1,
		},
		"offset-range": {
			givenValue:       12.5,
			givenMinimum:     10,
			givenMaximum:     20,
			expectedPosition: 0.25,
		},
		"negative-range": {
			givenValue:       -1,
			givenMinimum:     -2,
			givenMaximum:     0,
			expectedPosition: 0.5,
		},
	}

	for testName, testCase := range testCases {
		t.Run(testName, func(t *testing.T) {
			control := &stubControl{}
			SetControlToValue(control, testCase.givenValue, testCase.givenMinimum, testCase.givenMaximum)

			assert.InDelta(t, testCase.expectedPosition, control.Position(), positionTolerance)
		})
	}
}

func TestValueFromControl(t *testing.T) {
	type testCase struct {
		givenPosition float32
		givenMinimum  float32
		givenMaximum  float32
		expectedValue float32
	}

	testCases := map[string]testCase{
		"bottom-returns-minimum": {
			givenPosition: 0,
			givenMinimum:  10,
			givenMaximum:  20,
			expectedValue: 10,
		},
		"top-returns-maximum": {
			givenPosition: 1,
			givenMinimum:  10,
			givenMaximum:  20,
			expectedValue: 20,
		},
		"quarter-of-offset-range": {
			givenPosition: 0.25,
			givenMinimum:  10,
			givenMaximum:  20,
			expectedValue: 12.5,
		},
		"center-of-symmetric-range": {
			givenPosition: 0.5,
			givenMinimum:  -10,
			givenMaximum:  10,
			expectedValue: 0,
		},
	}

	for testName, testCase := range testCases {
		t.Run(testName, func(t *testing.T) {
			control := &stubControl{position: testCase.givenPosition}

			assert.InDelta(t, testCase.expectedValue,
				ValueFromControl(control, testCase.givenMinimum, testCase.givenMaximum), positionTolerance)
		})
	}
}

func TestScaleRoundTrip(t *testing.T) {

	// any value set onto a control should read back (almost) unchanged
	ranges := [][2]float32{{0, 1}, {0, 100}, {10, 20}, {-440, 440}, {0.001, 0.1}}
	fractions := []float32{0, 0.1, 0.25, 0.5, 0.75, 0.9, 1}

	for _, r := range ranges {
		minimum, maximum := r[0], r[1]

		for _, fraction := range fractions {
			value := minimum + fraction*(maximum-minimum)

			control := &stubControl{}
			SetControlToValue(control, value, minimum, maximum)

			assert.InDelta(t, value, ValueFromControl(control, minimum, maximum),
				positionTolerance*float64(maximum-minimum))
		}
	}
}

func TestSetControlFromProperty(t *testing.T) {
	control := &stubControl{}

	SetControlFromProperty(control, stubProperty{
		value:   440,
		minimum: 220,
		maximum: 880,
	})

	assert.InDelta(t, float32(1.0/3.0), control.Position(), positionTolerance)
}

func TestRandomFloatStaysInRange(t *testing.T) {
	type testCase struct {
		givenMinimum float32
		givenMaximum float32
	}

	testCases := map[string]testCase{
		"unit-range":      {givenMinimum: 0, givenMaximum: 1},
		"frequency-range": {givenMinimum: 220, givenMaximum: 880},
		"negative-range":  {givenMinimum: -1, givenMaximum: 1},
	}

	for testName, testCase := range testCases {
		t.Run(testName, func(t *testing.T) {
			for i := 0; i < 10000; i++ {
				value := RandomFloat(testCase.givenMinimum, testCase.givenMaximum)

				assert.GreaterOrEqual(t, value, testCase.givenMinimum)
				assert.LessOrEqual(t, value, testCase.givenMaximum)
			}
		})
	}
}

func TestRandomFloatCoversRange(t *testing.T) {
	const (
		draws   = 10000
		buckets = 10
	)

	// a uniform draw should hit every tenth of the range, and its mean should
	// land near the midpoint. loose thresholds keep this stable across seeds
	var hits [buckets]int
	var sum float64

	for i := 0; i < draws; i++ {
		value := RandomFloat(0, 1)
		sum += float64(value)

		bucket := int(value * buckets)
		if bucket == buckets {
			bucket--
		}

		hits[bucket]++
	}

	for bucket, count := range hits {
		assert.Greaterf(t, count, draws/buckets/2, "bucket %d starved", bucket)
	}

	assert.InDelta(t, 0.5, sum/draws, 0.05)
}
