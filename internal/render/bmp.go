package render

import (
	"bytes"
	"encoding/binary"
	"image"
)

// binaryThreshold is the gray cutoff between black and white pixels.
const binaryThreshold = 128

const (
	bmpFileHeaderSize = 14
	bmpInfoHeaderSize = 40
	bmpPaletteSize    = 8 // two BGRA entries
	bmpDataOffset     = bmpFileHeaderSize + bmpInfoHeaderSize + bmpPaletteSize
)

// EncodeBMP serializes the canvas as a 1-bit BMP: BITMAPFILEHEADER,
// 40-byte BITMAPINFOHEADER, a black/white palette and bottom-up pixel
// rows padded to 4-byte boundaries. Palette index 0 is black, index 1
// white, so set bits are background.
func EncodeBMP(img *image.Gray) []byte {
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	rowSize := ((w + 31) / 32) * 4
	dataSize := rowSize * h

	buf := bytes.NewBuffer(make([]byte, 0, bmpDataOffset+dataSize))

	// BITMAPFILEHEADER
	buf.WriteString("BM")
	writeU32(buf, uint32(bmpDataOffset+dataSize))
	writeU32(buf, 0) // reserved
	writeU32(buf, bmpDataOffset)

	// BITMAPINFOHEADER
	writeU32(buf, bmpInfoHeaderSize)
	writeU32(buf, uint32(w))
	writeU32(buf, uint32(h))
	writeU16(buf, 1) // planes
	writeU16(buf, 1) // bits per pixel
	writeU32(buf, 0) // BI_RGB
	writeU32(buf, uint32(dataSize))
	writeU32(buf, 2835) // ~72 DPI
	writeU32(buf, 2835)
	writeU32(buf, 2) // colors used
	writeU32(buf, 2) // important colors

	// Palette: index 0 black, index 1 white (BGRA)
	buf.Write([]byte{0x00, 0x00, 0x00, 0x00})
	buf.Write([]byte{0xff, 0xff, 0xff, 0x00})

	row := make([]byte, rowSize)
	for y := h - 1; y >= 0; y-- {
		for i := range row {
			row[i] = 0
		}
		for x := 0; x < w; x++ {
			if img.GrayAt(img.Bounds().Min.X+x, img.Bounds().Min.Y+y).Y >= binaryThreshold {
				row[x/8] |= 0x80 >> uint(x%8)
			}
		}
		buf.Write(row)
	}

	return buf.Bytes()
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeU16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}
