package scanner

import (
	"bytes"
	"image/jpeg"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// Decoder extracts a payload string from one frame. A miss is not an
// error, just an empty result; the loop continues unaffected.
type Decoder interface {
	Decode(f Frame) (string, bool)
}

// QRDecoder decodes QR codes from JPEG frames.
type QRDecoder struct {
	reader gozxing.Reader
}

// NewQRDecoder creates a decoder.
func NewQRDecoder() *QRDecoder {
	return &QRDecoder{reader: qrcode.NewQRCodeReader()}
}

// Decode returns the decoded text and whether a code was found.
func (d *QRDecoder) Decode(f Frame) (string, bool) {
	img, err := jpeg.Decode(bytes.NewReader(f.JPEG))
	if err != nil {
		// Partial or corrupt frame; treat as a miss.
		return "", false
	}
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", false
	}
	result, err := d.reader.Decode(bmp, nil)
	if err != nil {
		return "", false
	}
	return result.GetText(), true
}
