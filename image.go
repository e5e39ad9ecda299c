package main

import (
	"bytes"
	"image"
	"image/jpeg"
	_ "image/png"
	"log"

	"golang.org/x/image/draw"
)

const maxImageDim = 1024
const jpegQuality = 85

// PrepareImage downscales a photo so its longest side is at most maxImageDim
// and re-encodes it as JPEG before it is sent to the vision model. Images
// that are already small enough, or that fail to decode, pass through
// unchanged.
func PrepareImage(data []byte) []byte {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		log.Printf("image decode failed, sending as-is: %v", err)
		return data
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxImageDim && h <= maxImageDim {
		return data
	}

	var nw, nh int
	if w > h {
		nw = maxImageDim
		nh = h * maxImageDim / w
	} else {
		nh = maxImageDim
		nw = w * maxImageDim / h
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		log.Printf("image encode failed, sending as-is: %v", err)
		return data
	}
	log.Printf("image resized %dx%d -> %dx%d bytes=%d", w, h, nw, nh, buf.Len())
	return buf.Bytes()
}
