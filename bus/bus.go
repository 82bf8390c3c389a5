// Package bus defines the capability an LED adapter needs from a serial bus.
//
// The contract is intentionally narrow: configuration calls plus a single
// fixed-width word transmit. Implementations decide how the word reaches the
// wire; see package spibus for one over a periph.io SPI port and package
// bustest for an in-memory recorder.
package bus

import (
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// BitOrder selects which end of each word is shifted out first.
type BitOrder int

const (
	MSBFirst BitOrder = iota
	LSBFirst
)

func (o BitOrder) String() string {
	if o == LSBFirst {
		return "LSBFirst"
	}
	return "MSBFirst"
}

// Bus is a serial bus that transmits fixed-width words.
//
// TransmitWord has semi-async semantics: it blocks until the bus can accept a
// new word, issues the transfer and returns without waiting for the word to be
// shifted out. A fully synchronous implementation is acceptable but gives up
// the overlap between transmission and computation of the next word.
//
// The word is right aligned: only the low PresetFrameSize bits are sent.
type Bus interface {
	// Begin initializes the bus at frequency f.
	Begin(f physic.Frequency) error
	// End waits for any word in flight and releases the bus.
	End() error
	SetFrequency(f physic.Frequency) error
	SetBitOrder(o BitOrder) error
	SetDataMode(m spi.Mode) error
	// PresetFrameSize sets the width in bits of every subsequent word.
	PresetFrameSize(bits int) error
	TransmitWord(w uint64) error
}
