package ledstream

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/flavioheleno/ledstream/bus"
	"github.com/flavioheleno/ledstream/bus/spibus"
	"github.com/flavioheleno/ledstream/imagergbv"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// MaxPixels is the longest strip a Dev drives.
const MaxPixels = 65535

// Opts is the configuration for a LED strip.
type Opts struct {
	NumPixels int     // Number of LEDs in the strip
	Variant   Variant // Wire protocol (default: APA102)

	// Order is the color order. 0 selects the variant default (APA102: BGR,
	// NS108: RGB).
	Order Order
	// Freq is the bus clock. 0 selects the variant default (APA102: 2MHz,
	// NS108: 16MHz).
	Freq physic.Frequency
	// Gain is a global 5-bit gain applied on top of each pixel's own. 0
	// selects full gain (31); use SetGain to dim the strip to black.
	Gain uint8

	// Sync disables the semi-async transmit of NewSPI.
	Sync bool

	// Logger receives lifecycle events at debug level. nil disables logging.
	Logger *zerolog.Logger
}

// Dev is a handle to a LED strip.
//
// It keeps a frame buffer so Draw can update part of the strip; every
// transmission still sends the whole strip.
type Dev struct {
	a    *Adapter
	rect image.Rectangle
	log  zerolog.Logger

	// Pixel buffers
	buffer *imagergbv.Image // Current frame
	last   []byte           // Last transmitted frame
	shown  bool
	fn     PixelFunc

	gain   uint8
	halted bool
}

var (
	errHalted     = errors.New("ledstream: halted")
	errBufferSize = errors.New("ledstream: invalid buffer size")
)

// NewSPI returns a strip connected to the SPI port p.
//
// The port is connected with Mode0, MSB first, 8 bits per word, at the first
// transmission. opts must not be nil since NumPixels is required.
func NewSPI(p spi.Port, opts *Opts) (*Dev, error) {
	if opts == nil {
		return nil, errors.New("ledstream: opts is required")
	}
	return New(spibus.New(p, &spibus.Opts{Sync: opts.Sync}), opts)
}

// New returns a strip over an arbitrary bus.
//
// The bus is initialized and the strip blanked before returning.
func New(b bus.Bus, opts *Opts) (*Dev, error) {
	if opts == nil {
		return nil, errors.New("ledstream: opts is required")
	}
	if opts.NumPixels <= 0 || opts.NumPixels > MaxPixels {
		return nil, fmt.Errorf("ledstream: NumPixels must be between 1 and %d", MaxPixels)
	}
	if opts.Variant < APA102 || opts.Variant > NS108Weighted {
		return nil, fmt.Errorf("ledstream: unknown variant %d", int(opts.Variant))
	}

	d := &Dev{
		a:      NewAdapter(b, opts.Variant),
		rect:   image.Rect(0, 0, opts.NumPixels, 1),
		log:    zerolog.Nop(),
		buffer: imagergbv.NewImage(image.Rect(0, 0, opts.NumPixels, 1)),
		last:   make([]byte, 4*opts.NumPixels),
		gain:   opts.Gain & imagergbv.MaxGain,
	}
	d.fn = d.pixel
	if opts.Logger != nil {
		d.log = *opts.Logger
	}
	if opts.Gain == 0 {
		d.gain = imagergbv.MaxGain
	}
	if opts.Order != 0 {
		d.a.SetColorOrder(opts.Order)
	}

	if err := d.a.Begin(opts.Freq); err != nil {
		return nil, err
	}
	d.log.Debug().
		Stringer("variant", opts.Variant).
		Int("pixels", opts.NumPixels).
		Stringer("freq", d.a.Frequency()).
		Msg("ledstream: strip initialized")

	// Blank the strip
	if err := d.flush(true); err != nil {
		return nil, err
	}
	return d, nil
}

// ColorModel implements display.Drawer.
func (d *Dev) ColorModel() color.Model {
	return imagergbv.RGBVModel
}

// Bounds implements display.Drawer. The strip is one row of NumPixels.
func (d *Dev) Bounds() image.Rectangle {
	return d.rect
}

// Draw implements display.Drawer.
//
// Nothing is transmitted when the frame buffer did not change. Only
// *imagergbv.Image sources keep their per-pixel gain; other colors are
// converted at full gain.
func (d *Dev) Draw(dst image.Rectangle, src image.Image, sp image.Point) error {
	if d.halted {
		return errHalted
	}
	dst = dst.Intersect(d.rect)
	if dst.Empty() {
		return nil
	}

	// Fast path: RGBV sources keep their per-pixel gain
	if srcImg, ok := src.(*imagergbv.Image); ok {
		for x := dst.Min.X; x < dst.Max.X; x++ {
			d.buffer.SetRGBV(x, 0, srcImg.RGBVAt(sp.X+x-dst.Min.X, sp.Y))
		}
		return d.flush(false)
	}

	// Slow path: colors are converted at full gain
	draw.Draw(d.buffer, dst, src, sp, draw.Src)
	return d.flush(false)
}

// Write writes raw pixels, 4 bytes per pixel in R, G, B, V order.
// The data must be exactly NumPixels * 4 bytes.
func (d *Dev) Write(pixels []byte) (int, error) {
	if d.halted {
		return 0, errHalted
	}
	if len(pixels) != len(d.buffer.Pix) {
		return 0, errBufferSize
	}
	copy(d.buffer.Pix, pixels)
	if err := d.flush(true); err != nil {
		return 0, err
	}
	return len(pixels), nil
}

// Refresh retransmits the current frame.
func (d *Dev) Refresh() error {
	if d.halted {
		return errHalted
	}
	return d.flush(true)
}

// SetGain sets the global gain (0-31) and retransmits the frame.
func (d *Dev) SetGain(g uint8) error {
	if d.halted {
		return errHalted
	}
	d.gain = g & imagergbv.MaxGain
	return d.flush(true)
}

// SetColorOrder changes the color order and retransmits the frame.
func (d *Dev) SetColorOrder(o Order) error {
	if d.halted {
		return errHalted
	}
	d.a.SetColorOrder(o)
	return d.flush(true)
}

// Halt turns all LEDs off and releases the bus.
// After calling Halt, the strip rejects further operations.
func (d *Dev) Halt() error {
	if d.halted {
		return nil
	}
	var result *multierror.Error
	clear(d.buffer.Pix)
	if err := d.flush(true); err != nil {
		result = multierror.Append(result, err)
	}
	if err := d.a.End(); err != nil {
		result = multierror.Append(result, err)
	}
	d.halted = true
	d.log.Debug().Stringer("dev", d).Msg("ledstream: strip halted")
	return result.ErrorOrNil()
}

// String returns a string representation of the device.
func (d *Dev) String() string {
	return fmt.Sprintf("ledstream.Dev{%s, %d pixels}", d.a.Variant(), d.rect.Dx())
}

// flush transmits the frame buffer, unless force is false and it matches the
// last transmitted frame.
func (d *Dev) flush(force bool) error {
	if !force && d.shown && bytes.Equal(d.last, d.buffer.Pix) {
		return nil
	}
	if err := d.a.Show(d.buffer.Len(), d.fn); err != nil {
		d.shown = false
		return err
	}
	copy(d.last, d.buffer.Pix)
	d.shown = true
	return nil
}

// pixel is the PixelFunc feeding the frame buffer to the adapter.
func (d *Dev) pixel(i int, px *imagergbv.RGBV) {
	*px = d.buffer.Index(i)
	if d.gain < imagergbv.MaxGain {
		px.V = scaleGain(px.V, d.gain)
	}
}

// scaleGain combines a pixel gain with the global gain.
func scaleGain(v, g uint8) uint8 {
	return uint8(uint16(v&imagergbv.MaxGain) * uint16(g) / imagergbv.MaxGain)
}

var _ display.Drawer = &Dev{}
