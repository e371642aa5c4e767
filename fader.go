package paramdeck

import "sync"

// positionWriter pushes a normalized position out to a motorized fader
type positionWriter interface {
	WritePosition(faderIdx int, position float32)
}

// Fader represents a single fader on the connected controller. Reading it
// returns the last position reported by the hardware; writing records the new
// position and asks the transport to move the motor there
type Fader struct {
	index    int
	position float32
	writer   positionWriter
}

// Position returns the fader's last known normalized position
func (f *Fader) Position() float32 {
	return f.position
}

// SetPosition records the new position and pushes it out to the controller
func (f *Fader) SetPosition(position float32) {
	f.position = position

	if f.writer != nil {
		f.writer.WritePosition(f.index, position)
	}
}

// applyMove records a position reported by the hardware, without echoing it
// back over the wire
func (f *Fader) applyMove(position float32) {
	f.position = position
}

// faderBank tracks faders by their index on the controller
type faderBank struct {
	lock   sync.Locker
	faders map[int]*Fader
	writer positionWriter
}

func newFaderBank(writer positionWriter) *faderBank {
	return &faderBank{
		lock:   &sync.Mutex{},
		faders: make(map[int]*Fader),
		writer: writer,
	}
}

// get returns the fader at the given index, creating it on first use
func (b *faderBank) get(index int) *Fader {
	b.lock.Lock()
	defer b.lock.Unlock()

	fader, ok := b.faders[index]
	if !ok {
		fader = &Fader{index: index, writer: b.writer}
		b.faders[index] = fader
	}

	return fader
}
