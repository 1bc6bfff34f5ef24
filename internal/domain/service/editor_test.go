package service

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/Badsnus/qrstudio/internal/domain/common/errorz"
	"github.com/Badsnus/qrstudio/internal/domain/entity"
	"github.com/Badsnus/qrstudio/pkg/crop"
	"github.com/Badsnus/qrstudio/pkg/preview"
	"github.com/Badsnus/qrstudio/pkg/preview/previewtest"
	qr "github.com/Badsnus/qrstudio/pkg/qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type surface struct {
	mu        sync.Mutex
	frames    int
	visible   []bool
	backdrops []preview.Backdrop
}

func (s *surface) Clear() {}

func (s *surface) Draw(qr.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames++
}

func (s *surface) SetVisible(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visible = append(s.visible, v)
}

func (s *surface) SetBackdrop(b preview.Backdrop) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.backdrops = append(s.backdrops, b)
}

func (s *surface) Frames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

func (s *surface) LastBackdrop() preview.Backdrop {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backdrops[len(s.backdrops)-1]
}

func gradientPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newTestEditor(t *testing.T) (*Editor, *surface, *previewtest.Clock) {
	t.Helper()
	s := &surface{}
	clock := previewtest.NewClock()
	e := NewEditor(EditorOptions{
		PreviewSize: 200,
		Crop: crop.Options{
			RasterSize:   128,
			ViewportSize: 120,
		},
		Preview: preview.Options{
			Target:    s,
			Presenter: s,
			Clock:     clock,
		},
	})
	t.Cleanup(e.Close)
	clock.Advance(time.Second)
	return e, s, clock
}

func TestEditorDrawsInitialPreview(t *testing.T) {
	e, s, _ := newTestEditor(t)
	assert.Equal(t, 1, s.Frames())

	state := e.State()
	assert.True(t, state.VersionKnown)
	assert.Equal(t, "idle", state.Preview)
	assert.False(t, state.HasLogo)
	assert.Equal(t, preview.Backdrop{Enabled: true, Color: "#ffffff"}, s.LastBackdrop())
}

func TestEditorBackgroundChangeDoesNotRedraw(t *testing.T) {
	e, s, clock := newTestEditor(t)

	cfg := e.Config()
	cfg.BackgroundColor = "#ff0000"
	cfg.BackgroundEnabled = false
	require.NoError(t, e.Apply(cfg))

	assert.Equal(t, preview.Backdrop{Enabled: false, Color: "#ff0000"}, s.LastBackdrop())
	clock.Advance(time.Second)
	assert.Equal(t, 1, s.Frames())
}

func TestEditorContentChangeIsDebounced(t *testing.T) {
	e, s, clock := newTestEditor(t)

	for _, content := range []string{"h", "ht", "htt", "http"} {
		cfg := e.Config()
		cfg.Content = content
		require.NoError(t, e.Apply(cfg))
		clock.Advance(10 * time.Millisecond)
	}
	assert.Equal(t, 1, s.Frames())

	clock.Advance(preview.DefaultTimings.Debounce)
	assert.Equal(t, 2, s.Frames())
}

func TestEditorRejectsInvalidConfig(t *testing.T) {
	e, _, _ := newTestEditor(t)

	cfg := e.Config()
	cfg.DotColor = "not-a-color"
	err := e.Apply(cfg)
	assert.ErrorIs(t, err, errorz.ErrInvalidConfig)
	assert.Equal(t, "#000000", e.Config().DotColor)
}

func TestEditorLogoAndCoverageWarning(t *testing.T) {
	e, s, clock := newTestEditor(t)

	require.NoError(t, e.LoadLogo(gradientPNG(t, 64, 48), "logo.png"))
	clock.Advance(time.Second)
	assert.Equal(t, 2, s.Frames())

	state := e.State()
	assert.True(t, state.HasLogo)
	assert.True(t, state.HasSource)
	assert.Equal(t, "logo.png", state.SourceName)
	assert.Equal(t, crop.NewState(crop.DefaultScale), state.Crop)
	assert.False(t, state.CoverageWarning)

	cfg := e.Config()
	cfg.LogoSize = 0.4
	require.NoError(t, e.Apply(cfg))
	assert.True(t, e.State().CoverageWarning)

	cfg.ErrorCorrection = qr.LevelH
	require.NoError(t, e.Apply(cfg))
	assert.False(t, e.State().CoverageWarning)
}

func TestEditorLowercaseLevelMatchesUppercase(t *testing.T) {
	e, _, clock := newTestEditor(t)
	require.NoError(t, e.LoadLogo(gradientPNG(t, 64, 48), "logo.png"))

	cfg := e.Config()
	cfg.Content = "https://example.org/menu"
	cfg.LogoSize = 0.5
	cfg.ErrorCorrection = "H"
	require.NoError(t, e.Apply(cfg))
	clock.Advance(time.Second)
	upper := e.State()

	cfg.ErrorCorrection = "h"
	require.NoError(t, e.Apply(cfg))
	assert.Equal(t, "idle", e.State().Preview, "same config, nothing to redraw")
	clock.Advance(time.Second)
	lower := e.State()

	assert.Equal(t, qr.LevelH, lower.Config.ErrorCorrection)
	assert.Equal(t, upper.Version, lower.Version)
	assert.Equal(t, upper.CoverageWarning, lower.CoverageWarning)
	assert.False(t, lower.CoverageWarning)
}

func TestEditorFailedDecodeKeepsLogo(t *testing.T) {
	e, _, _ := newTestEditor(t)

	require.NoError(t, e.LoadLogo(gradientPNG(t, 32, 32), "a.png"))
	_, before := e.Current()

	assert.Error(t, e.LoadLogo([]byte("garbage"), "b.png"))
	_, after := e.Current()
	assert.Equal(t, before, after)
	assert.Equal(t, "a.png", e.State().SourceName)
}

func TestEditorRejectsEmptyLogo(t *testing.T) {
	e, _, _ := newTestEditor(t)
	require.NoError(t, e.LoadLogo(gradientPNG(t, 32, 32), "a.png"))
	_, before := e.Current()

	assert.ErrorIs(t, e.LoadLogo(nil, "empty.png"), errorz.ErrNoSource)
	_, after := e.Current()
	assert.Equal(t, before, after)
}

func TestEditorCropPreviewLayout(t *testing.T) {
	e, _, _ := newTestEditor(t)
	assert.Nil(t, e.State().CropPreview)

	require.NoError(t, e.LoadLogo(gradientPNG(t, 64, 48), "logo.png"))
	layout := e.State().CropPreview
	require.NotNil(t, layout)
	// 64x48 fits by height into the 120 px viewport.
	assert.InDelta(t, -20, layout.Draw.X, 1e-9)
	assert.InDelta(t, 0, layout.Draw.Y, 1e-9)
	assert.InDelta(t, 160, layout.Draw.Width, 1e-9)
	assert.InDelta(t, 120, layout.Draw.Height, 1e-9)
	assert.InDelta(t, 24, layout.ClipRadius, 1e-9)

	e.PointerDown(0, 0)
	e.PointerMove(15, -6)
	e.PointerUp()
	layout = e.State().CropPreview
	require.NotNil(t, layout)
	assert.InDelta(t, -5, layout.Draw.X, 1e-9)
	assert.InDelta(t, -6, layout.Draw.Y, 1e-9)

	e.SetViewport(240)
	layout = e.State().CropPreview
	require.NotNil(t, layout)
	assert.InDelta(t, 240, layout.Draw.Height, 1e-9)
	assert.InDelta(t, 24, layout.ClipRadius, 1e-9)
}

func TestEditorSetViewportKeepsRadius(t *testing.T) {
	e, _, _ := newTestEditor(t)

	e.SetViewport(300)
	assert.Equal(t, 300.0, e.State().Viewport)
	assert.Equal(t, entity.DefaultConfig.LogoRadius, e.Config().LogoRadius)

	e.SetLogoRadius(10)
	assert.Equal(t, 10.0, e.Config().LogoRadius)
	e.SetLogoRadius(-3)
	assert.Zero(t, e.Config().LogoRadius)
}

func TestEditorCropDragUpdatesLogo(t *testing.T) {
	e, _, _ := newTestEditor(t)
	require.NoError(t, e.LoadLogo(gradientPNG(t, 64, 48), "logo.png"))
	_, before := e.Current()

	e.PointerDown(10, 10)
	e.PointerMove(25, 4)
	e.PointerUp()
	e.PointerMove(100, 100)

	state := e.State()
	assert.Equal(t, 15.0, state.Crop.OffsetX)
	assert.Equal(t, -6.0, state.Crop.OffsetY)
	_, after := e.Current()
	assert.NotEqual(t, before, after)

	e.Zoom(10)
	assert.Equal(t, crop.MaxScale, e.State().Crop.Scale)
	e.Wheel(1000)
	assert.InDelta(t, crop.MaxScale-1, e.State().Crop.Scale, 1e-9)
}

func TestEditorSnapshotRoundTrip(t *testing.T) {
	e, _, _ := newTestEditor(t)
	require.NoError(t, e.LoadLogo(gradientPNG(t, 80, 50), "logo.png"))
	e.Zoom(2.3)
	e.PointerDown(0, 0)
	e.PointerMove(15, -7)
	e.PointerUp()

	cfg := e.Config()
	cfg.Content = "https://example.org/menu"
	cfg.DotStyle = qr.DotRounded
	require.NoError(t, e.Apply(cfg))

	snap, err := e.Snapshot("Menu")
	require.NoError(t, err)
	require.NotNil(t, snap.Crop)
	assert.Equal(t, crop.State{Scale: 2.3, OffsetX: 15, OffsetY: -7}, *snap.Crop)
	assert.NotEmpty(t, snap.Thumbnail)
	assert.NotEmpty(t, snap.SourceImage)

	e.NewDesign()
	assert.Equal(t, entity.DefaultConfig, e.Config())
	assert.False(t, e.State().HasLogo)

	require.NoError(t, e.LoadDesign(snap))
	cfgAfter, logo := e.Current()
	assert.Equal(t, snap.Config, cfgAfter)
	assert.Equal(t, *snap.Crop, e.State().Crop)
	assert.Equal(t, snap.Logo, logo)
}

func TestEditorLoadDesignWithoutSourceKeepsStoredLogo(t *testing.T) {
	e, _, _ := newTestEditor(t)
	stored := gradientPNG(t, 16, 16)

	require.NoError(t, e.LoadDesign(&entity.Design{
		ID:     "x",
		Config: entity.DefaultConfig,
		Logo:   stored,
	}))
	_, logo := e.Current()
	assert.Equal(t, stored, logo)
	assert.False(t, e.State().HasSource)
}

func TestEditorLockVersion(t *testing.T) {
	e, _, clock := newTestEditor(t)

	version, err := e.LockVersion()
	require.NoError(t, err)
	assert.Greater(t, version, 0)
	assert.Equal(t, version, e.Config().Version)

	clock.Advance(time.Second)
	e.UnlockVersion()
	assert.Zero(t, e.Config().Version)
}

func TestEditorLockVersionWhilePending(t *testing.T) {
	e, _, clock := newTestEditor(t)

	cfg := e.Config()
	cfg.Content = "https://example.org/a-much-longer-address-than-the-placeholder"
	require.NoError(t, e.Apply(cfg))

	_, err := e.LockVersion()
	assert.ErrorIs(t, err, errorz.ErrInvalidConfig)
	assert.Zero(t, e.Config().Version)

	clock.Advance(time.Second)
	version, err := e.LockVersion()
	require.NoError(t, err)
	assert.Equal(t, version, e.State().Version)
}

func TestEditorLockVersionBeforeFirstFrame(t *testing.T) {
	e := NewEditor(EditorOptions{
		Preview: preview.Options{Clock: previewtest.NewClock()},
	})
	defer e.Close()

	_, err := e.LockVersion()
	assert.ErrorIs(t, err, errorz.ErrInvalidConfig)
}
