package paramdeck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeSink struct {
	sent map[string]float32
}

func (s *fakeSink) Send(name string, value float32) error {
	if s.sent == nil {
		s.sent = make(map[string]float32)
	}

	s.sent[name] = value
	return nil
}

type fakeWriter struct {
	positions map[int]float32
}

func (w *fakeWriter) WritePosition(faderIdx int, position float32) {
	if w.positions == nil {
		w.positions = make(map[int]float32)
	}

	w.positions[faderIdx] = position
}

func newTestDeck(t *testing.T, mapping map[int][]string, params map[string]ParamDef) (*Deck, *fakeSink, *fakeWriter) {
	t.Helper()

	faderMapping := newFaderMap()
	for idx, targets := range mapping {
		faderMapping.set(idx, targets)
	}

	deck := &Deck{
		logger: zap.S(),
		config: &CanonicalConfig{
			FaderMapping: faderMapping,
			Parameters:   params,
		},
	}

	writer := &fakeWriter{}
	deck.faders = newFaderBank(writer)

	sink := &fakeSink{}

	paramMap, err := newParamMap(deck, zap.S(), sink)
	assert.NoError(t, err)

	deck.params = paramMap
	paramMap.rebuild()

	return deck, sink, writer
}

func TestParamMap_handleFaderMoveEvent(t *testing.T) {
	deck, sink, _ := newTestDeck(t,
		map[int][]string{0: {"cutoff"}},
		map[string]ParamDef{"cutoff": {Min: 200, Max: 2000, Default: 1000}})

	deck.params.handleFaderMoveEvent(FaderMoveEvent{FaderID: 0, Position: 0.5})

	// position 0.5 lands halfway into [200, 2000]
	assert.InDelta(t, 1100, sink.sent["cutoff"], 1e-3)
}

func TestParamMap_handleFaderMoveEventMultipleTargets(t *testing.T) {
	deck, sink, _ := newTestDeck(t,
		map[int][]string{1: {"gain", "pan"}},
		map[string]ParamDef{
			"gain": {Min: 0, Max: 1, Default: 0.5},
			"pan":  {Min: -1, Max: 1, Default: 0},
		})

	deck.params.handleFaderMoveEvent(FaderMoveEvent{FaderID: 1, Position: 0.75})

	// each target gets the position projected into its own range
	assert.InDelta(t, 0.75, sink.sent["gain"], 1e-5)
	assert.InDelta(t, 0.5, sink.sent["pan"], 1e-5)
}

func TestParamMap_handleFaderMoveEventUnmappedFader(t *testing.T) {
	deck, sink, _ := newTestDeck(t,
		map[int][]string{0: {"cutoff"}},
		map[string]ParamDef{"cutoff": {Min: 200, Max: 2000, Default: 1000}})

	deck.params.handleFaderMoveEvent(FaderMoveEvent{FaderID: 5, Position: 0.5})

	assert.NotContains(t, sink.sent, "cutoff")
}

func TestParamMap_rebuildSyncsFaders(t *testing.T) {
	_, _, writer := newTestDeck(t,
		map[int][]string{2: {"gain"}},
		map[string]ParamDef{"gain": {Min: 0, Max: 1, Default: 0.25}})

	// rebuilding pushes each parameter's default back onto its fader
	assert.InDelta(t, 0.25, writer.positions[2], 1e-5)
}

func TestParamMap_randomizeAll(t *testing.T) {
	deck, sink, writer := newTestDeck(t,
		map[int][]string{0: {"freq"}},
		map[string]ParamDef{"freq": {Min: 220, Max: 880, Default: 440}})

	deck.params.randomizeAll()

	value, ok := sink.sent["freq"]
	assert.True(t, ok)
	assert.GreaterOrEqual(t, value, float32(220))
	assert.LessOrEqual(t, value, float32(880))

	// the fader lands wherever the new value sits in the parameter's range
	assert.InDelta(t, (value-220)/660, writer.positions[0], 1e-5)
}
