package imagergbv

import (
	"image"
	"image/color"
)

// MaxGain is the largest significant value of RGBV.V.
const MaxGain = 0x1F

// RGBV represents a LED pixel: 8-bit color channels and a 5-bit gain.
// Only the lower 5 bits of V are used.
type RGBV struct {
	R, G, B, V uint8
}

// RGBA converts the color to standard alpha-premultiplied RGBA.
// Each channel is scaled by V/31; the result is always opaque.
func (c RGBV) RGBA() (r, g, b, a uint32) {
	v := uint32(c.V & MaxGain)
	r = uint32(c.R) * 0x101 * v / MaxGain
	g = uint32(c.G) * 0x101 * v / MaxGain
	b = uint32(c.B) * 0x101 * v / MaxGain
	return r, g, b, 0xFFFF
}

// toRGBV converts any color.Color to RGBV at full gain.
func toRGBV(c color.Color) color.Color {
	if p, ok := c.(RGBV); ok {
		return p
	}
	r, g, b, _ := c.RGBA()
	// Premultiplied: transparent colors come out dimmer, as they would on a
	// black background.
	return RGBV{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), V: MaxGain}
}

// RGBVModel converts colors to RGBV.
var RGBVModel = color.ModelFunc(toRGBV)

// Image is an in-memory image whose At method returns RGBV values.
// Pixels are stored row-major, 4 bytes per pixel.
type Image struct {
	Pix    []byte          // Pixel data, R, G, B, V per pixel
	Stride int             // Bytes per row
	Rect   image.Rectangle // Image bounds
}

// NewImage returns a new Image with the given bounds. All pixels are black
// at zero gain.
func NewImage(r image.Rectangle) *Image {
	w, h := r.Dx(), r.Dy()
	if w <= 0 || h <= 0 {
		return &Image{Rect: r}
	}
	return &Image{
		Pix:    make([]byte, 4*w*h),
		Stride: 4 * w,
		Rect:   r,
	}
}

// ColorModel returns the color model of the image.
func (p *Image) ColorModel() color.Model {
	return RGBVModel
}

// Bounds returns the image bounds.
func (p *Image) Bounds() image.Rectangle {
	return p.Rect
}

// At implements image.Image.
func (p *Image) At(x, y int) color.Color {
	return p.RGBVAt(x, y)
}

// RGBVAt returns the pixel at (x, y), or the zero RGBV if out of bounds.
func (p *Image) RGBVAt(x, y int) RGBV {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return RGBV{}
	}
	i := p.PixOffset(x, y)
	s := p.Pix[i : i+4 : i+4]
	return RGBV{R: s[0], G: s[1], B: s[2], V: s[3]}
}

// Set implements draw.Image.
func (p *Image) Set(x, y int, c color.Color) {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return
	}
	p.SetRGBV(x, y, RGBVModel.Convert(c).(RGBV))
}

// SetRGBV sets the pixel at (x, y). It is faster than Set as no conversion is
// needed. V is stored as given.
func (p *Image) SetRGBV(x, y int, c RGBV) {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return
	}
	i := p.PixOffset(x, y)
	s := p.Pix[i : i+4 : i+4]
	s[0], s[1], s[2], s[3] = c.R, c.G, c.B, c.V
}

// PixOffset returns the index of the first byte of the pixel at (x, y).
func (p *Image) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*4
}

// Len returns the number of pixels in the image.
func (p *Image) Len() int {
	return len(p.Pix) / 4
}

// Index returns the i-th pixel in row-major order.
func (p *Image) Index(i int) RGBV {
	s := p.Pix[4*i : 4*i+4 : 4*i+4]
	return RGBV{R: s[0], G: s[1], B: s[2], V: s[3]}
}
