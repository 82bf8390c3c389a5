package ledstream

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"reflect"
	"strings"
	"testing"

	"github.com/flavioheleno/ledstream/bus/bustest"
	"github.com/flavioheleno/ledstream/imagergbv"
	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi/spitest"
)

// blank is the frame New sends for a 2 pixel APA102 strip.
var blank = []uint64{0, 0xE0000000, 0xE0000000, 0xFFFFFFFF, 0xFFFFFFFF}

func newTestDev(t *testing.T, opts *Opts) (*Dev, *bustest.Record) {
	t.Helper()
	r := &bustest.Record{}
	d, err := New(r, opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return d, r
}

func TestOptsValidation(t *testing.T) {
	tests := []struct {
		name    string
		opts    *Opts
		wantErr bool
	}{
		{"nil options", nil, true},
		{"zero pixels", &Opts{}, true},
		{"negative pixels", &Opts{NumPixels: -1}, true},
		{"too many pixels", &Opts{NumPixels: MaxPixels + 1}, true},
		{"unknown variant", &Opts{NumPixels: 1, Variant: Variant(7)}, true},
		{"single pixel", &Opts{NumPixels: 1}, false},
		{"max pixels", &Opts{NumPixels: MaxPixels, Variant: NS108}, false},
		{"custom order", &Opts{NumPixels: 10, Order: GRB}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(&bustest.Record{}, tt.opts)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewBlanksStrip(t *testing.T) {
	_, r := newTestDev(t, &Opts{NumPixels: 2})
	if got := r.Values(); !reflect.DeepEqual(got, blank) {
		t.Errorf("New() sent %X, want %X", got, blank)
	}
	if r.Freq != 2*physic.MegaHertz {
		t.Errorf("bus frequency = %s, want 2MHz", r.Freq)
	}
}

func TestNewSPI(t *testing.T) {
	p := &spitest.Record{}
	d, err := NewSPI(p, &Opts{NumPixels: 2, Sync: true})
	if err != nil {
		t.Fatalf("NewSPI() error = %v", err)
	}
	if err := d.Halt(); err != nil {
		t.Fatalf("Halt() error = %v", err)
	}
	// Two blank frames, one from New and one from Halt.
	if len(p.Ops) != 2*len(blank) {
		t.Errorf("got %d writes, want %d", len(p.Ops), 2*len(blank))
	}
	if _, err := NewSPI(p, nil); err == nil {
		t.Error("NewSPI(nil opts) expected error")
	}
}

func TestDevBounds(t *testing.T) {
	d, _ := newTestDev(t, &Opts{NumPixels: 60})
	want := image.Rect(0, 0, 60, 1)
	if got := d.Bounds(); got != want {
		t.Errorf("Bounds() = %v, want %v", got, want)
	}
}

func TestDevColorModel(t *testing.T) {
	d := &Dev{}
	if d.ColorModel() != imagergbv.RGBVModel {
		t.Error("ColorModel() did not return RGBVModel")
	}
}

func TestDevString(t *testing.T) {
	d, _ := newTestDev(t, &Opts{NumPixels: 60, Variant: NS108})
	want := "ledstream.Dev{NS108, 60 pixels}"
	if got := d.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestDevWrite(t *testing.T) {
	d, r := newTestDev(t, &Opts{NumPixels: 2})
	r.Reset()

	n, err := d.Write([]byte{255, 0, 0, 31, 0, 255, 0, 10})
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if n != 8 {
		t.Errorf("Write() = %d, want 8", n)
	}
	want := []uint64{0x00000000, 0xFF0000FF, 0xEA00FF00, 0xFFFFFFFF, 0xFFFFFFFF}
	if got := r.Values(); !reflect.DeepEqual(got, want) {
		t.Errorf("Write() sent %X, want %X", got, want)
	}

	// Write always transmits.
	r.Reset()
	if _, err := d.Write([]byte{255, 0, 0, 31, 0, 255, 0, 10}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if got := r.Values(); !reflect.DeepEqual(got, want) {
		t.Errorf("second Write() sent %X, want %X", got, want)
	}
}

func TestDevWriteInvalidSize(t *testing.T) {
	d, r := newTestDev(t, &Opts{NumPixels: 2})
	r.Reset()
	for _, size := range []int{0, 4, 7, 12} {
		if _, err := d.Write(make([]byte, size)); err == nil {
			t.Errorf("Write(%d bytes) expected error", size)
		}
	}
	if len(r.Words) != 0 {
		t.Errorf("invalid Write() sent %d words", len(r.Words))
	}
}

func TestDevDraw(t *testing.T) {
	d, r := newTestDev(t, &Opts{NumPixels: 2})
	r.Reset()

	blue := image.NewUniform(color.RGBA{B: 255, A: 255})
	if err := d.Draw(d.Bounds(), blue, image.Point{}); err != nil {
		t.Fatalf("Draw() error = %v", err)
	}
	want := []uint64{0, 0xFFFF0000, 0xFFFF0000, 0xFFFFFFFF, 0xFFFFFFFF}
	if got := r.Values(); !reflect.DeepEqual(got, want) {
		t.Errorf("Draw() sent %X, want %X", got, want)
	}

	// Unchanged content is not retransmitted.
	r.Reset()
	if err := d.Draw(d.Bounds(), blue, image.Point{}); err != nil {
		t.Fatalf("Draw() error = %v", err)
	}
	if len(r.Words) != 0 {
		t.Errorf("unchanged Draw() sent %d words", len(r.Words))
	}

	// Outside of the strip.
	if err := d.Draw(image.Rect(0, 5, 2, 6), blue, image.Point{}); err != nil {
		t.Fatalf("Draw() error = %v", err)
	}
	if len(r.Words) != 0 {
		t.Errorf("out of bounds Draw() sent %d words", len(r.Words))
	}

	// Refresh retransmits.
	if err := d.Refresh(); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if got := r.Values(); !reflect.DeepEqual(got, want) {
		t.Errorf("Refresh() sent %X, want %X", got, want)
	}
}

func TestDevDrawPartial(t *testing.T) {
	d, r := newTestDev(t, &Opts{NumPixels: 4, Order: RGB})
	r.Reset()

	src := imagergbv.NewImage(image.Rect(0, 0, 2, 1))
	src.SetRGBV(0, 0, imagergbv.RGBV{R: 1, V: 1})
	src.SetRGBV(1, 0, imagergbv.RGBV{G: 2, V: 2})
	if err := d.Draw(image.Rect(1, 0, 3, 1), src, image.Point{}); err != nil {
		t.Fatalf("Draw() error = %v", err)
	}
	want := []uint64{0, 0xE0000000, 0xE1010000, 0xE2000200, 0xE0000000, 0xFFFFFFFF, 0xFFFFFFFF}
	if got := r.Values(); !reflect.DeepEqual(got, want) {
		t.Errorf("Draw() sent %X, want %X", got, want)
	}
}

func TestDevSetGain(t *testing.T) {
	d, r := newTestDev(t, &Opts{NumPixels: 2, Gain: 10})
	if _, err := d.Write([]byte{255, 0, 0, 31, 0, 255, 0, 31}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if got := r.Values()[len(blank)+1]; got != 0xEA0000FF {
		t.Errorf("pixel 0 = %X, want EA0000FF", got)
	}

	r.Reset()
	if err := d.SetGain(0); err != nil {
		t.Fatalf("SetGain() error = %v", err)
	}
	want := []uint64{0, 0xE00000FF, 0xE000FF00, 0xFFFFFFFF, 0xFFFFFFFF}
	if got := r.Values(); !reflect.DeepEqual(got, want) {
		t.Errorf("SetGain(0) sent %X, want %X", got, want)
	}
}

func TestScaleGain(t *testing.T) {
	tests := []struct {
		v, g, want uint8
	}{
		{31, 31, 31},
		{31, 0, 0},
		{31, 10, 10},
		{10, 31, 10},
		{16, 16, 8},
		{0xFF, 31, 31},
	}
	for _, tt := range tests {
		if got := scaleGain(tt.v, tt.g); got != tt.want {
			t.Errorf("scaleGain(%d, %d) = %d, want %d", tt.v, tt.g, got, tt.want)
		}
	}
}

func TestDevSetColorOrder(t *testing.T) {
	d, r := newTestDev(t, &Opts{NumPixels: 1})
	if _, err := d.Write([]byte{0x11, 0x22, 0x33, 31}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	r.Reset()
	if err := d.SetColorOrder(GRB); err != nil {
		t.Fatalf("SetColorOrder() error = %v", err)
	}
	if got := r.Values()[1]; got != 0xFF221133 {
		t.Errorf("pixel = %X, want FF221133", got)
	}
}

func TestDevHalt(t *testing.T) {
	d, r := newTestDev(t, &Opts{NumPixels: 2})
	if _, err := d.Write([]byte{255, 0, 0, 31, 0, 255, 0, 10}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	r.Reset()
	if err := d.Halt(); err != nil {
		t.Fatalf("Halt() error = %v", err)
	}
	if got := r.Values(); !reflect.DeepEqual(got, blank) {
		t.Errorf("Halt() sent %X, want %X", got, blank)
	}
	if r.Ends != 1 {
		t.Errorf("bus ended %d times, want 1", r.Ends)
	}
	if err := d.Halt(); err != nil {
		t.Errorf("second Halt() error = %v", err)
	}

	if _, err := d.Write(make([]byte, 8)); err != errHalted {
		t.Errorf("Write() after Halt error = %v, want %v", err, errHalted)
	}
	if err := d.Draw(d.Bounds(), image.Black, image.Point{}); err != errHalted {
		t.Errorf("Draw() after Halt error = %v, want %v", err, errHalted)
	}
	if err := d.Refresh(); err != errHalted {
		t.Errorf("Refresh() after Halt error = %v, want %v", err, errHalted)
	}
	if err := d.SetGain(1); err != errHalted {
		t.Errorf("SetGain() after Halt error = %v, want %v", err, errHalted)
	}
	if err := d.SetColorOrder(RGB); err != errHalted {
		t.Errorf("SetColorOrder() after Halt error = %v, want %v", err, errHalted)
	}
}

func TestDevHaltError(t *testing.T) {
	errBoom := errors.New("boom")
	d, r := newTestDev(t, &Opts{NumPixels: 2})
	r.Err = errBoom
	err := d.Halt()
	if !errors.Is(err, errBoom) {
		t.Fatalf("Halt() error = %v, want %v", err, errBoom)
	}
	if r.Ends != 1 {
		t.Errorf("bus ended %d times, want 1", r.Ends)
	}
}

func TestDevLogger(t *testing.T) {
	var buf bytes.Buffer
	l := zerolog.New(&buf).Level(zerolog.DebugLevel)
	d, _ := newTestDev(t, &Opts{NumPixels: 3, Variant: NS108Weighted, Logger: &l})
	if err := d.Halt(); err != nil {
		t.Fatalf("Halt() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{`"variant":"NS108Weighted"`, `"pixels":3`, "strip initialized", "strip halted"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q does not contain %q", out, want)
		}
	}
}
