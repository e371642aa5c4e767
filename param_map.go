package paramdeck

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/paramdeck/paramdeck/scale"
)

type paramMap struct {
	deck   *Deck
	logger *zap.SugaredLogger
	sink   paramSink

	m    map[string]*Param
	lock sync.Locker
}

func newParamMap(deck *Deck, logger *zap.SugaredLogger, sink paramSink) (*paramMap, error) {
	logger = logger.Named("params")

	m := &paramMap{
		deck:   deck,
		logger: logger,
		sink:   sink,
		m:      make(map[string]*Param),
		lock:   &sync.Mutex{},
	}

	logger.Debug("Created param map instance")

	return m, nil
}

func (m *paramMap) initialize() error {
	m.rebuild()
	m.setupOnConfigReload()
	m.setupOnFaderMove()

	return nil
}

// rebuild replaces the parameter set with the current config definitions,
// then reflects the fresh values back onto the mapped faders
func (m *paramMap) rebuild() {
	m.lock.Lock()

	m.m = make(map[string]*Param)
	for name, def := range m.deck.config.Parameters {
		m.m[name] = newParam(m.logger, m.sink, name, def)
	}

	m.lock.Unlock()

	m.logger.Debugw("Rebuilt parameters from config", "params", m)

	m.syncFaders()
}

// syncFaders positions each mapped fader at its parameter's current value.
// a fader driving multiple parameters follows its first mapped target
func (m *paramMap) syncFaders() {
	m.deck.config.FaderMapping.iterate(func(faderIdx int, targets []string) {
		if len(targets) == 0 {
			return
		}

		param, ok := m.get(targets[0])
		if !ok {
			return
		}

		scale.SetControlFromProperty(m.deck.faders.get(faderIdx), param)
	})
}

// randomizeAll draws a fresh uniform value for every parameter and reflects
// the results back onto the faders
func (m *paramMap) randomizeAll() {
	m.lock.Lock()

	for _, param := range m.m {
		if err := param.SetValue(scale.RandomFloat(param.Minimum(), param.Maximum())); err != nil {
			m.logger.Warnw("Failed to randomize parameter", "param", param, "error", err)
		}
	}

	m.lock.Unlock()

	m.logger.Info("Randomized all parameters")

	m.syncFaders()
}

func (m *paramMap) setupOnConfigReload() {
	configReloadedChannel := m.deck.config.SubscribeToChanges()

	go func() {
		for range configReloadedChannel {
			m.logger.Debug("Detected config reload, rebuilding parameters")
			m.rebuild()
		}
	}()
}

func (m *paramMap) setupOnFaderMove() {
	faderEventsChannel := m.deck.serial.SubscribeToFaderMoveEvents()

	go func() {
		for event := range faderEventsChannel {
			m.handleFaderMoveEvent(event)
		}
	}()
}

func (m *paramMap) handleFaderMoveEvent(event FaderMoveEvent) {
	fader := m.deck.faders.get(event.FaderID)
	fader.applyMove(event.Position)

	targets, ok := m.deck.config.FaderMapping.get(event.FaderID)
	if !ok {
		return
	}

	for _, target := range targets {
		param, ok := m.get(target)
		if !ok {
			m.logger.Warnw("Fader mapped to unknown parameter",
				"fader", event.FaderID,
				"target", target)

			continue
		}

		// project the fader's position into the parameter's own range
		value := scale.ValueFromControl(fader, param.Minimum(), param.Maximum())

		if err := param.SetValue(value); err != nil {
			m.logger.Warnw("Failed to set parameter value", "param", param, "error", err)
		}
	}
}

func (m *paramMap) get(key string) (*Param, bool) {
	m.lock.Lock()
	defer m.lock.Unlock()

	value, ok := m.m[key]
	return value, ok
}

func (m *paramMap) String() string {
	m.lock.Lock()
	defer m.lock.Unlock()

	return fmt.Sprintf("<%d engine parameters>", len(m.m))
}
