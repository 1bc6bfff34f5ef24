package crop

import (
	"bytes"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// Source is a decoded source image. It is never mutated after decoding.
type Source struct {
	Name  string
	Data  []byte
	Image image.Image
}

func (s *Source) Width() int {
	if s == nil || s.Image == nil {
		return 0
	}
	return s.Image.Bounds().Dx()
}

func (s *Source) Height() int {
	if s == nil || s.Image == nil {
		return 0
	}
	return s.Image.Bounds().Dy()
}

// Empty reports whether the source has no drawable pixels.
func (s *Source) Empty() bool {
	return s.Width() == 0 || s.Height() == 0
}

// DecodeSource reads an encoded image and applies its EXIF orientation.
// The raw bytes are kept so the source can be persisted with a design.
func DecodeSource(r io.Reader, name string) (*Source, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read source image: %w", err)
	}
	return DecodeSourceBytes(data, name)
}

// DecodeSourceBytes decodes an already buffered source image.
func DecodeSourceBytes(data []byte, name string) (*Source, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode source image: %w", err)
	}
	return &Source{
		Name:  name,
		Data:  data,
		Image: img,
	}, nil
}
