package paramdeck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestSerialIO_handleLine(t *testing.T) {
	type testCase struct {
		expectedPositions []float32
		givenLine         string
		isInverting       bool
	}

	testCases := map[string]testCase{
		"single-value": {
			expectedPositions: []float32{0.12},
			givenLine:         "123\r\n",
			isInverting:       false,
		},
		"double-value": {
			expectedPositions: []float32{0.12, 0.44},
			givenLine:         "123|456\r\n",
			isInverting:       false,
		},
		"invalid-first-value": {
			expectedPositions: []float32{},
			givenLine:         "9999|123|456\r\n",
			isInverting:       false,
		},
		"invalid-other-value": {
			expectedPositions: []float32{0.12, 0.44, 9.77},
			givenLine:         "123|456|9999\r\n",
			isInverting:       false,
		},
		"single-value-inverted": {
			expectedPositions: []float32{0.88},
			givenLine:         "123\r\n",
			isInverting:       true,
		},
		"gibberish-values": {
			expectedPositions: []float32{},
			givenLine:         "UwU",
			isInverting:       false,
		},
	}

	for testName, testCase := range testCases {
		t.Run(testName, func(t *testing.T) {

			sio := SerialIO{
				logger: zap.S(),
				deck: &Deck{
					config: &CanonicalConfig{
						InvertFaders: testCase.isInverting,
					},
				},
				faderMoveConsumers: []chan FaderMoveEvent{
					make(chan FaderMoveEvent, len(testCase.expectedPositions)),
				},
			}
			sio.handleLine(zap.S(), testCase.givenLine)

			for i, expectedPosition := range testCase.expectedPositions {
				faderEvent := <-sio.faderMoveConsumers[0]

				assert.Equal(t, i, faderEvent.FaderID)
				assert.Equal(t, expectedPosition, faderEvent.Position)
			}
		})
	}
}
