// This file packs bitmap pixel data into the row format sent to the
// printer: one bit per pixel, most significant bit first, black = 1.

package printer

import "fmt"

// A bitmap packed in memory, row-major with a fixed stride per row.
type PackedBitmap struct {
	data                  []byte
	width, height, stride int
}

const bitsPerWord = 8

func (b *PackedBitmap) Width() int {
	return b.width
}

func (b *PackedBitmap) Height() int {
	return b.height
}

// Stride is the number of bytes per packed row.
func (b *PackedBitmap) Stride() int {
	return b.stride
}

// Data returns the packed payload; its length is always Height()*Stride().
func (b *PackedBitmap) Data() []byte {
	return b.data
}

// Gets a single bit from the bitmap at the (x, y) coordinate, returns either 0 or 1
func (b *PackedBitmap) GetBit(x int, y int) byte {
	index := (y * b.stride) + (x / bitsPerWord)
	return (b.data[index] >> (bitsPerWord - 1 - x%bitsPerWord)) & 1
}

func (b *PackedBitmap) String() string {
	return fmt.Sprintf("PackedBitmap(%d,%d)", b.width, b.height)
}

// Chunk takes a horizontal slice of the packed bitmap, starting at row
// start and covering the given number of rows.
func (b *PackedBitmap) Chunk(start int, height int) *PackedBitmap {
	return &PackedBitmap{
		data:   b.data[b.stride*start : b.stride*(start+height)],
		width:  b.width,
		height: height,
		stride: b.stride,
	}
}

// PackBitmap copies pixel data from a generic bitmap into the packed
// structure. Rows whose width is not a multiple of 8 are padded with
// white in the low bits of the final byte.
func PackBitmap(b Bitmap) *PackedBitmap {
	width, height := b.Width(), b.Height()
	stride := (width + bitsPerWord - 1) / bitsPerWord
	data := make([]byte, stride*height)

	for y := range height {
		for x := range width {
			if b.GetBit(x, y)&1 == 1 {
				index := y*stride + x/bitsPerWord
				data[index] |= 1 << (bitsPerWord - 1 - x%bitsPerWord)
			}
		}
	}

	return &PackedBitmap{data, width, height, stride}
}
