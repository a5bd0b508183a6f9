// Package imageutil validates, resizes and recompresses post images carried
// as base64 data URLs.
package imageutil

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"math"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// MaxUploadBytes is the largest accepted source image
const MaxUploadBytes = 10 * 1024 * 1024

var (
	ErrNotImage = errors.New("이미지 파일만 업로드 가능합니다.")
	ErrTooLarge = errors.New("이미지 크기는 10MB 이하여야 합니다.")
	ErrDataURL  = errors.New("invalid image data url")
)

// Options controls Compress. Zero values pick 1200x1200 and quality 0.8.
type Options struct {
	MaxWidth   int
	MaxHeight  int
	Quality    float64
	TargetSize int // KB, enables the quality search
}

// Result describes a compressed image
type Result struct {
	Data           string  `json:"data"`
	OriginalSize   int     `json:"originalSize"`
	CompressedSize int     `json:"compressedSize"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	Quality        float64 `json:"quality"`
	Format         string  `json:"format"`
}

// Validate checks the declared mime type and byte size
func Validate(mimeType string, size int) error {
	if !strings.HasPrefix(mimeType, "image/") {
		return ErrNotImage
	}
	if size > MaxUploadBytes {
		return ErrTooLarge
	}
	return nil
}

// Base64Size approximates the decoded size of a base64 payload in KB
func Base64Size(data string) int {
	if i := strings.IndexByte(data, ','); i >= 0 {
		data = data[i+1:]
	}
	return int(math.Round(float64(len(data)) * 3 / 4 / 1024))
}

// DecodeDataURL returns the mime type and raw bytes of a data URL. A bare
// base64 string is accepted as well.
func DecodeDataURL(dataURL string) (string, []byte, error) {
	mimeType := ""
	payload := dataURL
	if strings.HasPrefix(dataURL, "data:") {
		header, rest, ok := strings.Cut(dataURL, ",")
		if !ok || !strings.HasSuffix(header, ";base64") {
			return "", nil, ErrDataURL
		}
		mimeType = strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
		payload = rest
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrDataURL, err)
	}
	return mimeType, raw, nil
}

// Compress scales the image to fit the bounds and re-encodes it as JPEG.
// With a TargetSize the quality is bisected for at most five rounds and the
// search stops once within 10% of the target.
func Compress(dataURL string, opts Options) (Result, error) {
	if opts.MaxWidth <= 0 {
		opts.MaxWidth = 1200
	}
	if opts.MaxHeight <= 0 {
		opts.MaxHeight = 1200
	}
	if opts.Quality <= 0 || opts.Quality > 1 {
		opts.Quality = 0.8
	}

	mimeType, raw, err := DecodeDataURL(dataURL)
	if err != nil {
		return Result{}, err
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	if err := Validate(mimeType, len(raw)); err != nil {
		return Result{}, err
	}

	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return Result{}, fmt.Errorf("decode image: %w", err)
	}

	b := src.Bounds()
	w, h := fit(b.Dx(), b.Dy(), opts.MaxWidth, opts.MaxHeight)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	result := Result{
		OriginalSize: Base64Size(dataURL),
		Width:        w,
		Height:       h,
		Format:       "jpeg",
	}

	quality := opts.Quality
	encoded, err := encodeJPEG(dst, quality)
	if err != nil {
		return Result{}, err
	}

	if opts.TargetSize > 0 {
		target := float64(opts.TargetSize)
		lo, hi := 0.1, 1.0
		for i := 0; i < 5; i++ {
			quality = (lo + hi) / 2
			if encoded, err = encodeJPEG(dst, quality); err != nil {
				return Result{}, err
			}
			size := float64(Base64Size(encoded))
			if math.Abs(size-target) < target*0.1 {
				break
			}
			if size > target {
				hi = quality
			} else {
				lo = quality
			}
		}
	}

	result.Data = encoded
	result.Quality = quality
	result.CompressedSize = Base64Size(encoded)
	return result, nil
}

// Thumbnail center-crops a square and scales it to size x size
func Thumbnail(dataURL string, size int) (string, error) {
	if size <= 0 {
		size = 300
	}
	_, raw, err := DecodeDataURL(dataURL)
	if err != nil {
		return "", err
	}
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	b := src.Bounds()
	side := min(b.Dx(), b.Dy())
	x0 := b.Min.X + (b.Dx()-side)/2
	y0 := b.Min.Y + (b.Dy()-side)/2
	crop := image.Rect(x0, y0, x0+side, y0+side)

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, draw.Over, nil)
	return encodeJPEG(dst, 0.7)
}

// RecommendQuality picks a JPEG quality from the source size in KB
func RecommendQuality(sizeKB int) float64 {
	switch {
	case sizeKB > 5000:
		return 0.5
	case sizeKB > 2000:
		return 0.6
	case sizeKB > 1000:
		return 0.7
	case sizeKB > 500:
		return 0.8
	default:
		return 0.9
	}
}

// FormatFileSize renders a byte count as B, KB or MB
func FormatFileSize(n int) string {
	switch {
	case n < 1024:
		return fmt.Sprintf("%d B", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(n)/(1024*1024))
	}
}

func fit(w, h, maxW, maxH int) (int, int) {
	if w <= maxW && h <= maxH {
		return w, h
	}
	ratio := math.Min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	return max(1, int(math.Floor(float64(w)*ratio))), max(1, int(math.Floor(float64(h)*ratio)))
}

func encodeJPEG(img image.Image, quality float64) (string, error) {
	var buf bytes.Buffer
	q := int(math.Round(quality * 100))
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: max(1, min(100, q))}); err != nil {
		return "", fmt.Errorf("encode jpeg: %w", err)
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
