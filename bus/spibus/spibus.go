// Package spibus implements bus.Bus over a periph.io SPI port.
//
// Words are handed to a worker goroutine that owns the SPI connection. A
// transmit waits only for the previous word to complete, so the caller can
// prepare word N+1 while word N is being shifted out.
package spibus

import (
	"errors"
	"fmt"

	"github.com/flavioheleno/ledstream/bus"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// Opts is the configuration for the SPI bus.
type Opts struct {
	// Sync makes TransmitWord wait until each word is shifted out.
	Sync bool
}

// Bus is a semi-async word transmitter over an spi.Port.
//
// Bus is not safe for concurrent use.
type Bus struct {
	p    spi.Port
	c    spi.Conn
	sync bool

	freq     physic.Frequency
	mode     spi.Mode
	order    bus.BitOrder
	width    int // bytes per word
	connMode spi.Mode

	begun bool
	busy  bool // a word is in flight
	buf   [8]byte
	work  chan []byte
	done  chan error
}

var (
	errNotBegun   = errors.New("spibus: Begin was not called")
	errFrameSize  = errors.New("spibus: frame size must be a multiple of 8 between 8 and 64")
	errModeLocked = errors.New("spibus: mode cannot change once connected")
	errNoSpeed    = errors.New("spibus: port cannot change speed once connected")
)

// New returns a Bus on p. opts can be nil.
//
// The port is connected lazily on the first transmitted word, since periph.io
// ports only accept a single Connect call.
func New(p spi.Port, opts *Opts) *Bus {
	if opts == nil {
		opts = &Opts{}
	}
	return &Bus{
		p:     p,
		sync:  opts.Sync,
		mode:  spi.Mode0,
		width: 4,
	}
}

// Begin implements bus.Bus.
func (b *Bus) Begin(f physic.Frequency) error {
	if err := b.SetFrequency(f); err != nil {
		return err
	}
	if b.begun {
		return nil
	}
	b.begun = true
	if !b.sync {
		b.work = make(chan []byte)
		b.done = make(chan error, 1)
		go b.run(b.work, b.done)
	}
	return nil
}

// End implements bus.Bus. It returns the error of the last word in flight, if
// any.
func (b *Bus) End() error {
	if !b.begun {
		return nil
	}
	err := b.wait()
	if b.work != nil {
		close(b.work)
		b.work = nil
	}
	b.begun = false
	return err
}

// SetFrequency implements bus.Bus.
//
// Once connected, the speed can only be changed if the port implements
// spi.PortCloser.
func (b *Bus) SetFrequency(f physic.Frequency) error {
	if b.c == nil {
		b.freq = f
		return nil
	}
	pc, ok := b.p.(spi.PortCloser)
	if !ok {
		return errNoSpeed
	}
	if err := b.wait(); err != nil {
		return err
	}
	if err := pc.LimitSpeed(f); err != nil {
		return fmt.Errorf("spibus: %w", err)
	}
	b.freq = f
	return nil
}

// SetBitOrder implements bus.Bus.
func (b *Bus) SetBitOrder(o bus.BitOrder) error {
	b.order = o
	return b.checkMode()
}

// SetDataMode implements bus.Bus. Only the clock polarity and phase bits of m
// are used.
func (b *Bus) SetDataMode(m spi.Mode) error {
	b.mode = m & spi.Mode3
	return b.checkMode()
}

// PresetFrameSize implements bus.Bus.
func (b *Bus) PresetFrameSize(bits int) error {
	if bits < 8 || bits > 64 || bits%8 != 0 {
		return errFrameSize
	}
	b.width = bits / 8
	return nil
}

// TransmitWord implements bus.Bus.
func (b *Bus) TransmitWord(w uint64) error {
	if !b.begun {
		return errNotBegun
	}
	// Wait out the previous word; this is the only blocking point.
	if err := b.wait(); err != nil {
		return err
	}
	if b.c == nil {
		if err := b.connect(); err != nil {
			return err
		}
	}
	b.pack(w)
	if b.sync {
		if err := b.c.Tx(b.buf[:b.width], nil); err != nil {
			return fmt.Errorf("spibus: %w", err)
		}
		return nil
	}
	b.busy = true
	b.work <- b.buf[:b.width]
	return nil
}

func (b *Bus) String() string {
	return fmt.Sprintf("spibus.Bus{%s}", b.p)
}

func (b *Bus) run(work <-chan []byte, done chan<- error) {
	for w := range work {
		done <- b.c.Tx(w, nil)
	}
}

// wait blocks until the word in flight, if any, has been shifted out.
func (b *Bus) wait() error {
	if !b.busy {
		return nil
	}
	b.busy = false
	if err := <-b.done; err != nil {
		return fmt.Errorf("spibus: %w", err)
	}
	return nil
}

func (b *Bus) connect() error {
	c, err := b.p.Connect(b.freq, b.wantMode(), 8)
	if err != nil {
		return fmt.Errorf("spibus: %w", err)
	}
	b.c = c
	b.connMode = b.wantMode()
	return nil
}

func (b *Bus) wantMode() spi.Mode {
	m := b.mode
	if b.order == bus.LSBFirst {
		m |= spi.LSBFirst
	}
	return m
}

func (b *Bus) checkMode() error {
	if b.c != nil && b.wantMode() != b.connMode {
		return errModeLocked
	}
	return nil
}

// pack writes the low width bytes of w into buf in transmission order.
func (b *Bus) pack(w uint64) {
	n := b.width
	if b.order == bus.LSBFirst {
		for i := 0; i < n; i++ {
			b.buf[i] = byte(w >> (8 * i))
		}
		return
	}
	for i := 0; i < n; i++ {
		b.buf[i] = byte(w >> (8 * (n - 1 - i)))
	}
}

var _ bus.Bus = &Bus{}
