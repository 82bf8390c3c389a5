// Package bustest is meant to be used to test LED adapters over a fake bus.
package bustest

import (
	"fmt"
	"sync"

	"github.com/flavioheleno/ledstream/bus"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// Word is one transmitted word and the frame width it was sent with.
type Word struct {
	Bits  int
	Value uint64
}

func (w Word) String() string {
	return fmt.Sprintf("%0*X", w.Bits/4, w.Value)
}

// Record implements bus.Bus and records every transmitted word.
//
// The zero value is ready to use. Words are recorded synchronously; Record
// never has a word in flight.
type Record struct {
	sync.Mutex
	Words  []Word
	Freq   physic.Frequency
	Order  bus.BitOrder
	Mode   spi.Mode
	Bits   int
	Begun  bool
	Begins int
	Ends   int

	// Err, when set, is returned by every TransmitWord after FailAfter words
	// were recorded.
	Err       error
	FailAfter int
}

// Begin implements bus.Bus.
func (r *Record) Begin(f physic.Frequency) error {
	r.Lock()
	defer r.Unlock()
	r.Freq = f
	r.Begun = true
	r.Begins++
	if r.Bits == 0 {
		r.Bits = 32
	}
	return nil
}

// End implements bus.Bus.
func (r *Record) End() error {
	r.Lock()
	defer r.Unlock()
	r.Begun = false
	r.Ends++
	return nil
}

// SetFrequency implements bus.Bus.
func (r *Record) SetFrequency(f physic.Frequency) error {
	r.Lock()
	defer r.Unlock()
	r.Freq = f
	return nil
}

// SetBitOrder implements bus.Bus.
func (r *Record) SetBitOrder(o bus.BitOrder) error {
	r.Lock()
	defer r.Unlock()
	r.Order = o
	return nil
}

// SetDataMode implements bus.Bus.
func (r *Record) SetDataMode(m spi.Mode) error {
	r.Lock()
	defer r.Unlock()
	r.Mode = m
	return nil
}

// PresetFrameSize implements bus.Bus.
func (r *Record) PresetFrameSize(bits int) error {
	r.Lock()
	defer r.Unlock()
	if bits != 32 && bits != 64 {
		return fmt.Errorf("bustest: unsupported frame size %d", bits)
	}
	r.Bits = bits
	return nil
}

// TransmitWord implements bus.Bus.
func (r *Record) TransmitWord(w uint64) error {
	r.Lock()
	defer r.Unlock()
	if !r.Begun {
		return fmt.Errorf("bustest: TransmitWord before Begin")
	}
	if r.Err != nil && len(r.Words) >= r.FailAfter {
		return r.Err
	}
	if r.Bits < 64 {
		w &= 1<<uint(r.Bits) - 1
	}
	r.Words = append(r.Words, Word{Bits: r.Bits, Value: w})
	return nil
}

// Values returns the recorded word values.
func (r *Record) Values() []uint64 {
	r.Lock()
	defer r.Unlock()
	out := make([]uint64, len(r.Words))
	for i, w := range r.Words {
		out[i] = w.Value
	}
	return out
}

// Reset forgets the recorded words.
func (r *Record) Reset() {
	r.Lock()
	defer r.Unlock()
	r.Words = nil
}

func (r *Record) String() string {
	return "bustest.Record"
}

var _ bus.Bus = &Record{}
