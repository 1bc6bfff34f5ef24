package web

import (
	"bytes"
	"errors"
	"image/png"
	"sync"

	"github.com/Badsnus/qrstudio/pkg/preview"
	qr "github.com/Badsnus/qrstudio/pkg/qrcode"
)

var errNoFrame = errors.New("nothing drawn yet")

// Surface is the live display target and its presentation layer. It holds
// the last frame drawn by the preview renderer, the visibility flag used for
// crossfades and the backdrop painted behind the transparent symbol.
type Surface struct {
	mu       sync.RWMutex
	frame    qr.Frame
	drawn    bool
	visible  bool
	backdrop preview.Backdrop
	frames   uint64
}

func NewSurface() *Surface {
	return &Surface{visible: true}
}

func (s *Surface) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frame = qr.Frame{}
	s.drawn = false
}

func (s *Surface) Draw(frame qr.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frame = frame
	s.drawn = true
	s.frames++
}

func (s *Surface) SetVisible(visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visible = visible
}

func (s *Surface) SetBackdrop(b preview.Backdrop) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.backdrop = b
}

type SurfaceState struct {
	Visible  bool             `json:"visible"`
	Backdrop preview.Backdrop `json:"backdrop"`
	Frames   uint64           `json:"frames"`
}

func (s *Surface) State() SurfaceState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return SurfaceState{
		Visible:  s.visible,
		Backdrop: s.backdrop,
		Frames:   s.frames,
	}
}

// PNG encodes the current frame.
func (s *Surface) PNG() ([]byte, error) {
	s.mu.RLock()
	frame, drawn := s.frame, s.drawn
	s.mu.RUnlock()

	if !drawn || frame.Image == nil {
		return nil, errNoFrame
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, frame.Image); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
