package paramdeck

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFaderMapFromConfigs(t *testing.T) {
	result := faderMapFromConfigs(
		map[string][]string{"0": {"cutoff", ""}, "1": {"gain"}},
		map[string][]string{"0": {"cutoff", "resonance"}, "2": {"pan"}},
	)

	// empty targets dropped, internal additions merged without duplicates
	targets, ok := result.get(0)
	assert.True(t, ok)
	assert.Equal(t, []string{"cutoff", "resonance"}, targets)

	targets, ok = result.get(1)
	assert.True(t, ok)
	assert.Equal(t, []string{"gain"}, targets)

	targets, ok = result.get(2)
	assert.True(t, ok)
	assert.Equal(t, []string{"pan"}, targets)

	assert.Equal(t, "<3 faders mapped to 4 parameters>", result.String())
}
