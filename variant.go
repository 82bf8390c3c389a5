package ledstream

import (
	"fmt"
	"strings"

	"periph.io/x/conn/v3/physic"
)

// Variant selects the wire protocol an Adapter speaks.
//
// The variants are divergent protocol revisions found in deployed hardware,
// not interchangeable implementations.
type Variant int

const (
	// APA102 sends 32-bit words, gain byte first. Explicit color indices given
	// to SetColorIndices count color bytes after the gain byte, from 0.
	APA102 Variant = iota
	// APA102GainLast produces the same words as APA102 but addresses them in
	// little endian memory order, with the gain byte last. Explicit color
	// indices count bytes from the least significant one, from 0.
	APA102GainLast
	// NS108 sends 64-bit words with a replicated 5-bit gain header and each
	// color byte stuttered into 16 bits. The start marker is one zero word.
	NS108
	// NS108LongStart is NS108 for controller revisions that need a 128-bit
	// start marker.
	NS108LongStart
	// NS108Weighted sends a fixed full gain header and folds the gain into
	// 16-bit color values instead.
	NS108Weighted
)

var variantNames = []string{
	APA102:         "APA102",
	APA102GainLast: "APA102GainLast",
	NS108:          "NS108",
	NS108LongStart: "NS108LongStart",
	NS108Weighted:  "NS108Weighted",
}

func (v Variant) String() string {
	if v >= 0 && int(v) < len(variantNames) {
		return variantNames[v]
	}
	return fmt.Sprintf("Variant(%d)", int(v))
}

// ParseVariant parses a variant name as returned by Variant.String. Case is
// ignored.
func ParseVariant(s string) (Variant, error) {
	for i, name := range variantNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return Variant(i), nil
		}
	}
	return 0, fmt.Errorf("ledstream: unknown variant %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (v Variant) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Variant) UnmarshalText(b []byte) error {
	p, err := ParseVariant(string(b))
	if err != nil {
		return err
	}
	*v = p
	return nil
}

func (v Variant) isNS108() bool {
	return v == NS108 || v == NS108LongStart || v == NS108Weighted
}

// FrameBits returns the width of every word on the wire.
func (v Variant) FrameBits() int {
	if v.isNS108() {
		return 64
	}
	return 32
}

// StartWords returns the number of zero words sent before the first pixel.
func (v Variant) StartWords() int {
	if v == NS108LongStart {
		return 2
	}
	return 1
}

// DrainWords returns the number of all-ones words sent after n pixels.
//
// The counts over-provision trailing clock edges so every LED in the chain
// latches its value. They are empirical; do not tighten them.
func (v Variant) DrainWords(n int) int {
	if n < 0 {
		n = 0
	}
	if v.isNS108() {
		return n>>6 + 1
	}
	return 1 + (n+31)/32
}

// DefaultOrder returns the color order an Adapter starts with.
func (v Variant) DefaultOrder() Order {
	if v.isNS108() {
		return RGB
	}
	return BGR
}

// DefaultFrequency returns the bus clock used when Begin is given 0.
func (v Variant) DefaultFrequency() physic.Frequency {
	if v.isNS108() {
		return 16 * physic.MegaHertz
	}
	return 2 * physic.MegaHertz
}

// drainWord returns the all-ones word of the variant's width.
func (v Variant) drainWord() uint64 {
	if v.isNS108() {
		return ^uint64(0)
	}
	return 0xFFFFFFFF
}
