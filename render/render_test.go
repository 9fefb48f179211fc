package render

import (
	"image"
	"image/color"
	"testing"

	"gofichero/printer/fichero"
)

func TestForDeviceScalesToPrinthead(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 200, 500))
	for i := range src.Pix {
		src.Pix[i] = 0xFF
	}

	packed, err := ForDevice(src)
	if err != nil {
		t.Fatalf("ForDevice failed: %v", err)
	}
	if packed.Width() != fichero.PrintheadWidth {
		t.Errorf("Expected width %d, got %d", fichero.PrintheadWidth, packed.Width())
	}
	if packed.Stride() != fichero.BytesPerRow {
		t.Errorf("Expected stride %d, got %d", fichero.BytesPerRow, packed.Stride())
	}
	if packed.Height() > fichero.MaxRows {
		t.Errorf("Height %d exceeds row cap %d", packed.Height(), fichero.MaxRows)
	}
	if len(packed.Data()) != packed.Height()*packed.Stride() {
		t.Errorf("Packed length inconsistent with height*stride")
	}
}

func TestForDeviceWhiteStaysWhite(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 96, 240))
	for i := range src.Pix {
		src.Pix[i] = 0xFF
	}

	packed, err := ForDevice(src)
	if err != nil {
		t.Fatalf("ForDevice failed: %v", err)
	}
	for i, b := range packed.Data() {
		if b != 0 {
			t.Fatalf("White input produced black bit in byte %d", i)
		}
	}
}

func TestTextProducesPortraitLabel(t *testing.T) {
	img, err := Text("hello", 240)
	if err != nil {
		t.Fatalf("Text failed: %v", err)
	}
	if img.Bounds().Dx() != fichero.PrintheadWidth {
		t.Errorf("Expected width %d, got %d", fichero.PrintheadWidth, img.Bounds().Dx())
	}
	if img.Bounds().Dy() != 240 {
		t.Errorf("Expected height 240, got %d", img.Bounds().Dy())
	}

	// the glyphs must have left some ink
	inked := false
	for y := 0; y < img.Bounds().Dy() && !inked; y++ {
		for x := 0; x < img.Bounds().Dx(); x++ {
			if c := color.GrayModel.Convert(img.At(x, y)).(color.Gray); c.Y < 128 {
				inked = true
				break
			}
		}
	}
	if !inked {
		t.Errorf("Rendered text label contains no black pixels")
	}
}

func TestTextRejectsEmpty(t *testing.T) {
	if _, err := Text("", 0); err == nil {
		t.Errorf("Expected error for empty text")
	}
}

func TestQRIsSquareAndInked(t *testing.T) {
	img, err := QR("https://example.com")
	if err != nil {
		t.Fatalf("QR failed: %v", err)
	}
	if img.Bounds().Dx() != img.Bounds().Dy() {
		t.Errorf("QR image not square: %v", img.Bounds())
	}
	if img.Bounds().Dx() > fichero.PrintheadWidth {
		t.Errorf("QR wider than printhead: %d", img.Bounds().Dx())
	}

	black, white := false, false
	for y := range img.Bounds().Dy() {
		for x := range img.Bounds().Dx() {
			if c := color.GrayModel.Convert(img.At(x, y)).(color.Gray); c.Y < 128 {
				black = true
			} else {
				white = true
			}
		}
	}
	if !black || !white {
		t.Errorf("QR should contain both black and white modules")
	}
}
