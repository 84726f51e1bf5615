// Package qrgen encodes artifact URLs as scannable QR images.
package qrgen

import (
	"bytes"
	"fmt"
	"image/color"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/disintegration/imaging"
)

const (
	// boxSize is the pixel size of one QR module.
	boxSize = 10
	// quietZone is the white border around the code, in modules.
	quietZone = 4
)

// Encode renders url as a PNG QR code: error-correction level L, smallest
// version that fits the payload, black modules on white.
func Encode(url string) ([]byte, error) {
	code, err := qr.Encode(url, qr.L, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("encode qr payload: %w", err)
	}
	modules := code.Bounds().Dx()
	size := modules * boxSize
	scaled, err := barcode.Scale(code, size, size)
	if err != nil {
		return nil, fmt.Errorf("scale qr code: %w", err)
	}

	full := size + 2*quietZone*boxSize
	canvas := imaging.New(full, full, color.NRGBA{255, 255, 255, 255})
	img := imaging.PasteCenter(canvas, scaled)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode qr png: %w", err)
	}
	return buf.Bytes(), nil
}
