// Package render turns arbitrary images, text and QR payloads into
// packed rasters sized for the printhead.
package render

import (
	"image"
	"image/color"

	"github.com/makeworld-the-better-one/dither/v2"
	"golang.org/x/image/draw"

	"gofichero/printer"
	"gofichero/printer/fichero"
)

// ForDevice scales an image to the printhead width, quantizes it to
// 1-bit with Floyd-Steinberg dithering and packs it. Height is capped
// at the device's row bound to keep labels within printer memory.
func ForDevice(i image.Image) (*printer.PackedBitmap, error) {
	width := i.Bounds().Dx()
	height := i.Bounds().Dy()

	newHeight := height * fichero.PrintheadWidth / width
	if newHeight > fichero.MaxRows {
		newHeight = fichero.MaxRows
	}
	if newHeight < 1 {
		newHeight = 1
	}

	scaled := image.NewRGBA(image.Rect(0, 0, fichero.PrintheadWidth, newHeight))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), i, i.Bounds(), draw.Over, nil)

	palette := []color.Color{color.Black, color.White}
	ditherer := dither.NewDitherer(palette)
	ditherer.Matrix = dither.FloydSteinberg
	dithered := ditherer.DitherPaletted(scaled)

	// palette index 0 is black, which prints as 1
	bitmap, err := printer.BitmapFromPaletted(dithered, []byte{1, 0})
	if err != nil {
		return nil, err
	}

	return printer.PackBitmap(bitmap), nil
}
