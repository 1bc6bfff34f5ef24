package generator

import (
	"bytes"
	"image/png"

	qr "github.com/Badsnus/qrstudio/pkg/qrcode"
	"github.com/nfnt/resize"
)

const (
	ThumbnailSize   = 128
	thumbnailRender = 256
)

// Thumbnail renders opts on a fresh renderer at twice the thumbnail size and
// downscales the result, which keeps thin modules legible.
func Thumbnail(opts qr.Options) ([]byte, error) {
	opts.Type = qr.Canvas
	scale := float64(thumbnailRender) / float64(maxInt(opts.Width, 1))
	opts.Width, opts.Height = thumbnailRender, thumbnailRender
	opts.ImageOptions.Margin *= scale

	r, err := qr.New(opts)
	if err != nil {
		return nil, err
	}

	small := resize.Resize(ThumbnailSize, ThumbnailSize, r.Frame().Image, resize.Lanczos3)

	var buf bytes.Buffer
	if err = png.Encode(&buf, small); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
