// Package scale converts between normalized control positions and
// application-meaningful value ranges
package scale

import "math/rand"

// Control is a widget with a continuous position, normalized to [0.0, 1.0].
// Physical faders, on-screen sliders and rotary encoders all fit this shape
type Control interface {
	Position() float32
	SetPosition(position float32)
}

// Property is a model entity carrying a current value and the range it's valid in
type Property interface {
	Value() float32
	Minimum() float32
	Maximum() float32
}

// SetControlToValue positions the control to represent the given value within
// [minimum, maximum]. The range must satisfy maximum > minimum - degenerate
// ranges produce garbage positions rather than errors
func SetControlToValue(c Control, value float32, minimum float32, maximum float32) {
	c.SetPosition((value - minimum) / (maximum - minimum))
}

// SetControlFromProperty positions the control to represent the property's
// current value within the property's own range
func SetControlFromProperty(c Control, p Property) {
	SetControlToValue(c, p.Value(), p.Minimum(), p.Maximum())
}

// ValueFromControl maps the control's current position into [minimum, maximum].
// The range must satisfy maximum > minimum
func ValueFromControl(c Control, minimum float32, maximum float32) float32 {
	return minimum + c.Position()*(maximum-minimum)
}

// RandomFloat returns a uniformly distributed value in [minimum, maximum].
// It advances the process-wide random number generator state
func RandomFloat(minimum float32, maximum float32) float32 {
	return minimum + rand.Float32()*(maximum-minimum)
}
