// Package imagergbv provides the pixel format used by APA102 and NS108 LED
// strips: 8-bit red, green and blue channels plus a 5-bit gain.
//
// Each pixel is stored as four consecutive bytes in R, G, B, V order, which is
// also the order the ledstream pixel callback fills in:
//
//	Pixel:  0              1
//	Bytes:  R  G  B  V     R  G  B  V
//
// Only the low 5 bits of V are significant. V scales the light output of the
// whole pixel independently of its color, so RGBV{R: 255, V: 31} and
// RGBV{R: 255, V: 1} are the same hue at full and minimal brightness.
//
// This package provides:
//
// - RGBV: the color type
// - RGBVModel: a color model converting standard Go colors to RGBV at full gain
// - Image: a draw.Image whose pixels are RGBV
//
// Example usage:
//
//	img := imagergbv.NewImage(image.Rect(0, 0, 60, 1))
//	img.SetRGBV(0, 0, imagergbv.RGBV{R: 255, V: 8})
//	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
package imagergbv
