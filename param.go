package paramdeck

import (
	"fmt"

	"go.uber.org/zap"
)

// paramSink receives parameter value updates, typically to forward them to
// the synthesis engine
type paramSink interface {
	Send(name string, value float32) error
}

// Param represents a single addressable engine parameter. It carries its own
// valid range, so it satisfies scale.Property
type Param struct {
	name    string
	minimum float32
	maximum float32
	value   float32

	logger *zap.SugaredLogger
	sink   paramSink
}

func newParam(logger *zap.SugaredLogger, sink paramSink, name string, def ParamDef) *Param {
	p := &Param{
		name:    name,
		minimum: def.Min,
		maximum: def.Max,
		value:   def.Default,
		sink:    sink,
	}

	// use a self-identifying parameter name e.g. deck.params.cutoff
	p.logger = logger.Named(name)
	p.logger.Debugw("Created parameter instance", "param", p)

	return p
}

// Name returns the engine-side channel name of the parameter
func (p *Param) Name() string {
	return p.name
}

// Value returns the parameter's current value
func (p *Param) Value() float32 {
	return p.value
}

// Minimum returns the lower bound of the parameter's valid range
func (p *Param) Minimum() float32 {
	return p.minimum
}

// Maximum returns the upper bound of the parameter's valid range
func (p *Param) Maximum() float32 {
	return p.maximum
}

// SetValue records the new value and forwards it to the engine
func (p *Param) SetValue(v float32) error {
	p.value = v

	if err := p.sink.Send(p.name, v); err != nil {
		p.logger.Warnw("Failed to forward parameter value", "error", err)
		return fmt.Errorf("forward parameter value: %w", err)
	}

	p.logger.Debugw("Adjusting parameter value", "to", fmt.Sprintf("%.2f", v))

	return nil
}

func (p *Param) String() string {
	return fmt.Sprintf("<param: %s, val: %.2f in [%.2f, %.2f]>", p.name, p.value, p.minimum, p.maximum)
}
