package ledstream

import (
	"errors"
	"fmt"

	"github.com/flavioheleno/ledstream/bus"
	"github.com/flavioheleno/ledstream/imagergbv"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// ErrBusUnavailable is returned by Show when Begin was not called.
var ErrBusUnavailable = errors.New("ledstream: bus unavailable")

// PixelFunc supplies the pixel at index. px is preset to full gain black
// ({0, 0, 0, 31}) and the function overwrites the fields it wants to set.
//
// It is called exactly once per pixel, in ascending index order, on the
// goroutine calling Show. It must not block or use the bus.
type PixelFunc func(index int, px *imagergbv.RGBV)

// State is the position of an Adapter in its transmit cycle.
type State int

const (
	Idle State = iota
	Started
	Emitting
	Draining
)

var stateNames = [...]string{"Idle", "Started", "Emitting", "Draining"}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Adapter streams pixels to a LED strip over a bus.Bus.
//
// Show is not reentrant and an Adapter owns its bus for the duration of a
// Show call. Callers sharing a bus between adapters must serialize them.
type Adapter struct {
	b       bus.Bus
	variant Variant
	order   ColorOrder
	freq    physic.Frequency
	begun   bool
	state   State
}

// NewAdapter returns an Adapter speaking v over b, with v's default color
// order. Begin must be called before Show.
func NewAdapter(b bus.Bus, v Variant) *Adapter {
	return &Adapter{
		b:       b,
		variant: v,
		order:   v.ColorOrder(v.DefaultOrder()),
	}
}

// Begin initializes the bus: frequency f (0 selects the variant default), MSB
// first, mode 0 and the variant's word width.
func (a *Adapter) Begin(f physic.Frequency) error {
	if f == 0 {
		f = a.variant.DefaultFrequency()
	}
	if err := a.b.Begin(f); err != nil {
		return wrap(err)
	}
	if err := a.b.SetFrequency(f); err != nil {
		return wrap(err)
	}
	if err := a.b.SetBitOrder(bus.MSBFirst); err != nil {
		return wrap(err)
	}
	if err := a.b.SetDataMode(spi.Mode0); err != nil {
		return wrap(err)
	}
	if err := a.b.PresetFrameSize(a.variant.FrameBits()); err != nil {
		return wrap(err)
	}
	a.freq = f
	a.begun = true
	return nil
}

// End releases the bus.
func (a *Adapter) End() error {
	if !a.begun {
		return nil
	}
	a.begun = false
	return wrap(a.b.End())
}

// SetSPIFrequency changes the bus clock.
func (a *Adapter) SetSPIFrequency(f physic.Frequency) error {
	if err := a.b.SetFrequency(f); err != nil {
		return wrap(err)
	}
	a.freq = f
	return nil
}

// Frequency returns the bus clock last configured.
func (a *Adapter) Frequency() physic.Frequency {
	return a.freq
}

// SetColorOrder sets the color order from a packed selector.
func (a *Adapter) SetColorOrder(o Order) {
	a.order = a.variant.ColorOrder(o)
}

// SetColorIndices sets the color order from explicit indices, interpreted as
// documented by Variant.ColorIndices.
func (a *Adapter) SetColorIndices(r, g, b uint8) {
	a.order = a.variant.ColorIndices(r, g, b)
}

// ColorOrder returns the resolved color order.
func (a *Adapter) ColorOrder() ColorOrder {
	return a.order
}

// Variant returns the protocol variant.
func (a *Adapter) Variant() Variant {
	return a.variant
}

// State returns the transmit state. It is Idle outside of Show.
func (a *Adapter) State() State {
	return a.state
}

// Show transmits one frame of n pixels sourced from fn: the start marker, one
// word per pixel and the drain words.
//
// Each word is issued without waiting for the previous one to be shifted out,
// so fn and the encoding of pixel i+1 overlap the transmission of pixel i.
// Show does not wait for the last word either; it completes on the bus in the
// background.
//
// A bus error aborts the frame.
func (a *Adapter) Show(n int, fn PixelFunc) error {
	if !a.begun {
		return ErrBusUnavailable
	}
	if n < 0 {
		n = 0
	}
	defer a.enter(Idle)

	a.enter(Started)
	for i := a.variant.StartWords(); i > 0; i-- {
		if err := a.b.TransmitWord(0); err != nil {
			return wrap(err)
		}
	}

	a.enter(Emitting)
	var px imagergbv.RGBV
	for i := 0; i < n; i++ {
		px = imagergbv.RGBV{V: imagergbv.MaxGain}
		fn(i, &px)
		if err := a.b.TransmitWord(a.order.Encode(px)); err != nil {
			return fmt.Errorf("ledstream: pixel %d: %w", i, err)
		}
	}

	a.enter(Draining)
	w := a.variant.drainWord()
	for i := a.variant.DrainWords(n); i > 0; i-- {
		if err := a.b.TransmitWord(w); err != nil {
			return wrap(err)
		}
	}
	return nil
}

func (a *Adapter) enter(s State) {
	a.state = s
}

func wrap(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("ledstream: %w", err)
}
