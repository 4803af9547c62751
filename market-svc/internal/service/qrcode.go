package service

import (
	"github.com/skip2/go-qrcode"
)

// PNGQRGenerator encodes links as PNG QR codes.
type PNGQRGenerator struct {
	Size int
}

func (g PNGQRGenerator) Generate(url string) ([]byte, error) {
	size := g.Size
	if size <= 0 {
		size = 256
	}
	return qrcode.Encode(url, qrcode.Medium, size)
}
