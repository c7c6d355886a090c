package storage

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// classifierEdge bounds the longest side of images sent to the classifier.
const classifierEdge = 1568

type ImageProcessor struct {
	MaxSize int64 // bytes
}

func NewImageProcessor(maxSize int64) *ImageProcessor {
	if maxSize <= 0 {
		maxSize = 10 << 20
	}
	return &ImageProcessor{MaxSize: maxSize}
}

// ValidateImage checks size and format and returns the detected MIME type.
func (p *ImageProcessor) ValidateImage(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("image is empty")
	}
	if int64(len(data)) > p.MaxSize {
		return "", fmt.Errorf("image exceeds %dMB", p.MaxSize>>20)
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("not an image: %w", err)
	}
	switch format {
	case "jpeg", "png", "webp":
		return "image/" + format, nil
	}
	return "", fmt.Errorf("image format %s not allowed", format)
}

// PrepareForClassifier shrinks large photos and re-encodes them as JPEG.
// Small JPEGs are passed through untouched.
func (p *ImageProcessor) PrepareForClassifier(data []byte, contentType string) ([]byte, string, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("cannot read image: %w", err)
	}
	if contentType == "image/jpeg" && cfg.Width <= classifierEdge && cfg.Height <= classifierEdge {
		return data, contentType, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("cannot decode image: %w", err)
	}
	resized := imaging.Fit(img, classifierEdge, classifierEdge, imaging.Lanczos)
	b := new(bytes.Buffer)
	if err := jpeg.Encode(b, resized, &jpeg.Options{Quality: 85}); err != nil {
		return nil, "", fmt.Errorf("cannot encode image: %w", err)
	}
	return b.Bytes(), "image/jpeg", nil
}
