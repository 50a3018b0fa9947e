// Package imaging normalizes uploaded avatar images into fixed-size PNGs.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // register JPEG decoder
	"image/png"

	"golang.org/x/image/draw"
)

// ErrUnsupportedFormat is returned for payloads that are not JPEG or PNG images
// or whose declared dimensions exceed MaxDimension.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// MaxDimension bounds the declared width and height of an upload. The header
// is checked before any pixel data is decoded.
const MaxDimension = 4096

// Transcoder scales images to a Size x Size PNG, cropping to fill.
type Transcoder struct {
	Size int
}

// NewTranscoder returns a Transcoder producing size x size images.
func NewTranscoder(size int) *Transcoder {
	if size <= 0 {
		panic("size must be positive")
	}
	return &Transcoder{Size: size}
}

// ToPNG decodes a JPEG or PNG payload, center-crops it to a square and scales
// it to the transcoder's size. Images wider or taller than MaxDimension are
// rejected from their header alone.
func (t *Transcoder) ToPNG(data []byte) ([]byte, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	if format != "jpeg" && format != "png" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > MaxDimension || cfg.Height > MaxDimension {
		return nil, fmt.Errorf("%w: %dx%d exceeds %dx%d",
			ErrUnsupportedFormat, cfg.Width, cfg.Height, MaxDimension, MaxDimension)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, t.Size, t.Size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, coverRect(src.Bounds()), draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// coverRect returns the largest centered square inside b.
func coverRect(b image.Rectangle) image.Rectangle {
	w, h := b.Dx(), b.Dy()
	if w == h {
		return b
	}
	if w > h {
		off := (w - h) / 2
		return image.Rect(b.Min.X+off, b.Min.Y, b.Min.X+off+h, b.Max.Y)
	}
	off := (h - w) / 2
	return image.Rect(b.Min.X, b.Min.Y+off, b.Max.X, b.Min.Y+off+w)
}
