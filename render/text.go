package render

import (
	"errors"
	"image"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"
	"golang.org/x/image/font/basicfont"

	"gofichero/printer/fichero"
)

// Glyphs are drawn at a quarter of the label resolution and upscaled,
// so the bitmap font fills the printhead instead of sitting in a corner
// of it.
const textScale = 4

// Text renders a label in landscape and rotates it for printing, the
// way the vendor app lays out text labels. labelLength is the printed
// length in rows; pass 0 for the maximum.
func Text(text string, labelLength int) (image.Image, error) {
	if text == "" {
		return nil, errors.New("text must not be empty")
	}
	if labelLength <= 0 || labelLength > fichero.MaxRows {
		labelLength = fichero.MaxRows
	}

	canvasWidth := labelLength / textScale
	canvasHeight := fichero.PrintheadWidth / textScale

	dc := gg.NewContext(canvasWidth, canvasHeight)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)
	dc.SetRGB(0, 0, 0)
	dc.DrawStringAnchored(text, float64(canvasWidth)/2, float64(canvasHeight)/2, 0.5, 0.5)

	landscape := image.NewRGBA(image.Rect(0, 0, labelLength, fichero.PrintheadWidth))
	draw.NearestNeighbor.Scale(landscape, landscape.Bounds(), dc.Image(), dc.Image().Bounds(), draw.Over, nil)

	return rotate90(landscape), nil
}

// rotate90 rotates counter-clockwise, turning a landscape canvas into
// the portrait orientation the printer consumes row by row.
func rotate90(src image.Image) image.Image {
	srcWidth := src.Bounds().Dx()
	srcHeight := src.Bounds().Dy()

	dst := image.NewRGBA(image.Rect(0, 0, srcHeight, srcWidth))
	for y := range srcWidth {
		for x := range srcHeight {
			dst.Set(x, y, src.At(src.Bounds().Min.X+srcWidth-1-y, src.Bounds().Min.Y+x))
		}
	}
	return dst
}
