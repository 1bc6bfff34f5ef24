package qr

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"io"

	"github.com/skip2/go-qrcode"
)

// Target receives the output surface of a renderer.
type Target interface {
	// Clear drops whatever the target showed before.
	Clear()
	// Draw replaces the target content with a complete frame.
	Draw(frame Frame)
}

// Frame is one full output of a renderer.
type Frame struct {
	Type   DrawType
	Width  int
	Height int
	Image  image.Image
	SVG    []byte
}

// Renderer draws a styled QR symbol. Every Update redraws the whole output
// and pushes it to the attached target.
type Renderer struct {
	opts   Options
	matrix [][]bool
	logo   image.Image
	frame  Frame
	target Target
	ready  bool
}

// New constructs a renderer and draws its first frame.
func New(opts Options) (*Renderer, error) {
	r := &Renderer{}
	if err := r.Update(opts); err != nil {
		return nil, err
	}
	return r, nil
}

// Attach binds the renderer output to t, clearing its prior content.
func (r *Renderer) Attach(t Target) {
	r.target = t
	if t == nil {
		return
	}
	t.Clear()
	if r.ready {
		t.Draw(r.frame)
	}
}

// Update re-applies the full option set and redraws from scratch. On error
// the previous frame is kept.
func (r *Renderer) Update(opts Options) error {
	opts = opts.withDefaults()

	matrix, err := encode(opts.Data, opts.QR)
	if err != nil {
		return err
	}

	var logo image.Image
	if len(opts.Image) > 0 {
		logo, _, err = image.Decode(bytes.NewReader(opts.Image))
		if err != nil {
			return fmt.Errorf("failed to decode logo: %w", err)
		}
	}

	frame := r.draw(opts, matrix, logo, opts.Type)

	r.opts = opts
	r.matrix = matrix
	r.logo = logo
	r.frame = frame
	r.ready = true

	if r.target != nil {
		r.target.Draw(frame)
	}
	return nil
}

// ModuleCount returns the side of the current symbol in modules. The second
// value is false until a frame has been drawn.
func (r *Renderer) ModuleCount() (int, bool) {
	if !r.ready {
		return 0, false
	}
	return len(r.matrix), true
}

func (r *Renderer) Options() Options {
	return r.opts
}

func (r *Renderer) Frame() Frame {
	return r.frame
}

// Download writes the current symbol in the requested format.
func (r *Renderer) Download(w io.Writer, format Format) error {
	if !r.ready {
		return errors.New("renderer has nothing drawn")
	}

	var kind DrawType
	switch format {
	case PNG:
		kind = Canvas
	case SVG:
		kind = Vector
	default:
		return fmt.Errorf("unsupported format %q", format)
	}

	frame := r.frame
	if frame.Type != kind {
		frame = r.draw(r.opts, r.matrix, r.logo, kind)
	}

	if kind == Vector {
		_, err := w.Write(frame.SVG)
		return err
	}
	return png.Encode(w, frame.Image)
}

func (r *Renderer) draw(opts Options, matrix [][]bool, logo image.Image, kind DrawType) Frame {
	var lw, lh int
	if logo != nil {
		lw, lh = logo.Bounds().Dx(), logo.Bounds().Dy()
	}
	l := buildLayout(matrix, opts, lw, lh)

	frame := Frame{Type: kind, Width: opts.Width, Height: opts.Height}
	if kind == Vector {
		frame.SVG = drawSVG(l, opts.Background, opts.Image, opts.ImageOptions.CrossOrigin)
	} else {
		frame.Image = drawRaster(l, opts.Background, logo)
	}
	return frame
}

func encode(data string, o QROptions) ([][]bool, error) {
	if data == "" {
		data = Placeholder
	}

	var (
		q   *qrcode.QRCode
		err error
	)
	if o.TypeNumber > 0 {
		q, err = qrcode.NewWithForcedVersion(data, o.TypeNumber, o.ErrorCorrectionLevel.recovery())
	} else {
		q, err = qrcode.New(data, o.ErrorCorrectionLevel.recovery())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode content: %w", err)
	}
	q.DisableBorder = true
	return q.Bitmap(), nil
}
