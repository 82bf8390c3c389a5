package ledstream

import (
	"encoding/binary"

	"github.com/flavioheleno/ledstream/imagergbv"
)

// ColorOrder is the resolved placement of the red, green and blue bytes
// within the words of one Variant. It is computed once and reused for every
// pixel.
type ColorOrder struct {
	variant Variant
	pos     [3]uint8
}

// ColorOrder resolves o for v.
func (v Variant) ColorOrder(o Order) ColorOrder {
	r, g, b := o.Slots()
	slots := [3]uint8{r, g, b}
	c := ColorOrder{variant: v}
	for i, s := range slots {
		switch {
		case v.isNS108():
			c.pos[i] = (2 + 2*s) & 7
		case v == APA102GainLast:
			c.pos[i] = (2 - s) & 3
		default:
			c.pos[i] = (1 + s) & 3
		}
	}
	return c
}

// ColorIndices resolves explicit channel indices for v.
//
// For APA102 and the NS108 variants, indices are wire slots counted from the
// first color. For APA102GainLast they are byte indices counted from the
// least significant byte of the word, the gain byte being index 3.
func (v Variant) ColorIndices(r, g, b uint8) ColorOrder {
	if v == APA102GainLast {
		return ColorOrder{variant: v, pos: [3]uint8{r & 3, g & 3, b & 3}}
	}
	return v.ColorOrder(OrderFromSlots(r, g, b))
}

// Positions returns the byte positions of red, green and blue.
//
// For APA102 and NS108 variants, positions count bytes in wire order, the
// NS108 ones pointing at the high byte of each 16-bit channel. For
// APA102GainLast they count from the least significant byte.
func (c ColorOrder) Positions() (r, g, b uint8) {
	return c.pos[0], c.pos[1], c.pos[2]
}

// Variant returns the variant c was resolved for.
func (c ColorOrder) Variant() Variant {
	return c.variant
}

// Encode returns the word for one pixel, right aligned.
func (c ColorOrder) Encode(p imagergbv.RGBV) uint64 {
	switch c.variant {
	case APA102GainLast:
		return uint64(c.encodeGainLast(p))
	case NS108, NS108LongStart:
		return c.encodeStutter(p)
	case NS108Weighted:
		return c.encodeWeighted(p)
	default:
		return uint64(c.encodeGainFirst(p))
	}
}

// gainByte is the APA102 brightness byte: three fixed high bits and the
// 5-bit gain.
func gainByte(v uint8) byte {
	return 0xE0 | v&imagergbv.MaxGain
}

func (c ColorOrder) encodeGainFirst(p imagergbv.RGBV) uint32 {
	var b [4]byte
	b[0] = gainByte(p.V)
	b[c.pos[0]] = p.R
	b[c.pos[1]] = p.G
	b[c.pos[2]] = p.B
	return binary.BigEndian.Uint32(b[:])
}

func (c ColorOrder) encodeGainLast(p imagergbv.RGBV) uint32 {
	var b [4]byte
	b[3] = gainByte(p.V)
	b[c.pos[0]] = p.R
	b[c.pos[1]] = p.G
	b[c.pos[2]] = p.B
	return binary.LittleEndian.Uint32(b[:])
}

// stutterHeader returns the NS108 gain prefix: a start bit followed by the
// 5-bit gain replicated three times.
func stutterHeader(g uint8) (byte, byte) {
	return 0x80 | g<<2 | g>>3, g<<5 | g
}

func (c ColorOrder) encodeStutter(p imagergbv.RGBV) uint64 {
	var b [8]byte
	b[0], b[1] = stutterHeader(p.V & imagergbv.MaxGain)
	ch := [3]uint8{p.R, p.G, p.B}
	for i, o := range c.pos {
		b[o], b[o+1] = ch[i], ch[i]
	}
	return binary.BigEndian.Uint64(b[:])
}

// weighted scales an 8-bit channel by a 5-bit gain into 16 bits.
// 255*31*256 fits in 21 bits.
func weighted(ch, g uint8) uint16 {
	return uint16(uint32(ch) * uint32(g) * 256 / imagergbv.MaxGain)
}

func (c ColorOrder) encodeWeighted(p imagergbv.RGBV) uint64 {
	var b [8]byte
	b[0], b[1] = 0xFF, 0xFF
	g := p.V & imagergbv.MaxGain
	ch := [3]uint8{p.R, p.G, p.B}
	for i, o := range c.pos {
		binary.BigEndian.PutUint16(b[o:], weighted(ch[i], g))
	}
	return binary.BigEndian.Uint64(b[:])
}
