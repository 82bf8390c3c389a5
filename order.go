package ledstream

import (
	"fmt"
	"strings"
)

// Order is a packed color order selector.
//
// Bits 0-1 hold the wire slot of red, bits 2-3 the slot of green and bits 4-5
// the slot of blue. Slot 0 is the first color transmitted after the pixel
// header. Each field is masked to two bits and otherwise not validated: slot 3
// aliases the gain byte of APA102 words and the gain header of NS108 words.
type Order uint8

// Color orders, named after the sequence in which the channels appear on the
// wire.
const (
	RGB Order = 0<<0 | 1<<2 | 2<<4
	RBG Order = 0<<0 | 2<<2 | 1<<4
	GRB Order = 1<<0 | 0<<2 | 2<<4
	GBR Order = 2<<0 | 0<<2 | 1<<4
	BRG Order = 1<<0 | 2<<2 | 0<<4
	BGR Order = 2<<0 | 1<<2 | 0<<4
)

var orderNames = map[Order]string{
	RGB: "RGB",
	RBG: "RBG",
	GRB: "GRB",
	GBR: "GBR",
	BRG: "BRG",
	BGR: "BGR",
}

// OrderFromSlots packs the wire slots of red, green and blue.
func OrderFromSlots(r, g, b uint8) Order {
	return Order(r&3 | (g&3)<<2 | (b&3)<<4)
}

// Slots returns the wire slots of red, green and blue.
func (o Order) Slots() (r, g, b uint8) {
	return uint8(o) & 3, uint8(o>>2) & 3, uint8(o>>4) & 3
}

func (o Order) String() string {
	if s, ok := orderNames[o&0x3F]; ok {
		return s
	}
	return fmt.Sprintf("Order(0x%02X)", uint8(o))
}

// ParseOrder parses a color order name such as "GRB". Case is ignored.
func ParseOrder(s string) (Order, error) {
	u := strings.ToUpper(strings.TrimSpace(s))
	for o, name := range orderNames {
		if name == u {
			return o, nil
		}
	}
	return 0, fmt.Errorf("ledstream: unknown color order %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (o Order) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Order) UnmarshalText(b []byte) error {
	v, err := ParseOrder(string(b))
	if err != nil {
		return err
	}
	*o = v
	return nil
}
