// Package images processes uploaded photos: decoding, BlurHash placeholders,
// and thumbnail generation for the canvas grid.
package images

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	// thumbnailSize is the longest side of generated thumbnails. The canvas
	// renders tiles well under this, so anything bigger is wasted bytes.
	thumbnailSize = 640

	// thumbnailQuality is the JPEG quality for thumbnails.
	thumbnailQuality = 80
)

// Result holds everything the media pipeline derives from an uploaded photo.
type Result struct {
	Width     int
	Height    int
	BlurHash  string
	Thumbnail []byte // JPEG bytes, longest side <= thumbnailSize
}

// Process decodes a photo and derives its dimensions, BlurHash placeholder,
// and a JPEG thumbnail. The input format can be JPEG, PNG, GIF, or WebP.
func Process(data []byte) (*Result, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	result := &Result{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}

	result.BlurHash, err = ComputeBlurHash(img)
	if err != nil {
		return nil, err
	}

	result.Thumbnail, err = encodeThumbnail(img)
	if err != nil {
		return nil, err
	}

	return result, nil
}

// encodeThumbnail downscales the image to thumbnailSize on its longest side
// and encodes it as JPEG. Images already small enough are re-encoded as-is.
func encodeThumbnail(img image.Image) ([]byte, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if w > thumbnailSize || h > thumbnailSize {
		dw, dh := fitWithin(w, h, thumbnailSize)
		dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: thumbnailQuality}); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
