package render

import (
	"fmt"
	"image"
	"image/color"

	"github.com/yeqown/go-qrcode/v2"

	"gofichero/printer/fichero"
)

// QR renders a QR code sized for the printhead. Quiet zone is left to
// the label margins.
func QR(content string) (image.Image, error) {
	qrc, err := qrcode.New(content)
	if err != nil {
		return nil, fmt.Errorf("couldn't build QR code: %w", err)
	}

	w := &matrixImageWriter{}
	if err := qrc.Save(w); err != nil {
		return nil, fmt.Errorf("couldn't render QR matrix: %w", err)
	}
	return w.img, nil
}

// matrixImageWriter implements qrcode.Writer straight onto an in-memory
// grayscale image; the stock writer only targets files.
type matrixImageWriter struct {
	img *image.Gray
}

func (w *matrixImageWriter) Write(mat qrcode.Matrix) error {
	modules := mat.Width()

	modulePx := fichero.PrintheadWidth / modules
	if modulePx < 1 {
		modulePx = 1
	}
	size := modules * modulePx

	w.img = image.NewGray(image.Rect(0, 0, size, size))
	for i := range w.img.Pix {
		w.img.Pix[i] = 0xFF
	}

	mat.Iterate(qrcode.IterDirection_ROW, func(x int, y int, s qrcode.QRValue) {
		if !s.IsSet() {
			return
		}
		for dy := range modulePx {
			for dx := range modulePx {
				w.img.SetGray(x*modulePx+dx, y*modulePx+dy, color.Gray{})
			}
		}
	})

	return nil
}

func (w *matrixImageWriter) Close() error {
	return nil
}
