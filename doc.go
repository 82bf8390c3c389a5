// Package ledstream drives APA102 and NS108 addressable LED strips over SPI.
//
// Both families are clocked, daisy chained strips: every LED shifts in one
// word, keeps it, and forwards the rest of the stream to the next LED. A frame
// is a start marker of zero words, one word per pixel and a run of all-ones
// drain words that clock the data through the whole chain.
//
// # Protocol Variants
//
// - APA102: 32-bit words, a brightness byte (0b111 + 5-bit gain) then three
// color bytes
// - APA102GainLast: the same words, with color indices counted in little
// endian byte order
// - NS108: 64-bit words, a 16-bit header carrying the gain three times and
// each color byte repeated into 16 bits
// - NS108LongStart: NS108 with a two word start marker
// - NS108Weighted: NS108 with a constant full header and the gain folded into
// 16-bit colors
//
// # Hardware Connection
//
// Only the clock and data lines are used:
//
//	Strip Pin   → System Pin
//	GND         → GND
//	VCC         → 5V supply (not the SPI host for long strips)
//	CI/CLK      → SPI Clock (SCLK)
//	DI/DATA     → SPI Data (MOSI)
//
// Most strips expect 5V logic; a level shifter on CLK and DATA is recommended.
//
// # Basic Usage
//
//	package main
//
//	import (
//		"image"
//		"image/color"
//
//		"github.com/flavioheleno/ledstream"
//		"periph.io/x/conn/v3/spi/spireg"
//		"periph.io/x/host/v3"
//	)
//
//	func main() {
//		host.Init()
//
//		p, _ := spireg.Open("")
//		defer p.Close()
//
//		dev, _ := ledstream.NewSPI(p, &ledstream.Opts{NumPixels: 60})
//		defer dev.Halt()
//
//		red := image.NewUniform(color.RGBA{R: 255, A: 255})
//		dev.Draw(dev.Bounds(), red, image.Point{})
//	}
//
// # Streaming Pixels
//
// Dev keeps a frame buffer. To generate pixels on the fly instead, use an
// Adapter directly; the pixel function runs while the previous word is still
// being shifted out:
//
//	a := ledstream.NewAdapter(spibus.New(p, nil), ledstream.NS108)
//	a.Begin(0)
//	a.Show(300, func(i int, px *imagergbv.RGBV) {
//		px.R = uint8(i)
//	})
//
// # Color Order
//
// Manufacturers wire the color channels in any order. The default is BGR for
// APA102 and RGB for NS108; use Opts.Order or SetColorOrder if colors come out
// swapped.
//
// # Performance
//
// At the default 2MHz an APA102 pixel takes 16µs on the wire, about 1ms for
// a 60 pixel strip. NS108 strips default to 16MHz, 4µs per 64-bit pixel.
//
// # Compatibility with periph.io
//
// Dev implements the display.Drawer interface from periph.io:
// https://pkg.go.dev/periph.io/x/conn/v3/display
package ledstream
