package service

import (
	"fmt"
	"sync"

	"github.com/Badsnus/qrstudio/internal/domain/common/errorz"
	"github.com/Badsnus/qrstudio/internal/domain/entity"
	"github.com/Badsnus/qrstudio/internal/domain/utils/location"
	"github.com/Badsnus/qrstudio/internal/domain/utils/validator"
	"github.com/Badsnus/qrstudio/pkg/crop"
	"github.com/Badsnus/qrstudio/pkg/generator"
	"github.com/Badsnus/qrstudio/pkg/logger"
	"github.com/Badsnus/qrstudio/pkg/logger/types"
	"github.com/Badsnus/qrstudio/pkg/preview"
)

type EditorOptions struct {
	// PreviewSize is the pixel size of the live preview surface.
	PreviewSize int
	Crop        crop.Options
	Preview     preview.Options
	Logger      *types.Logger
}

// EditorState is a read-only view of the open design.
type EditorState struct {
	Config          entity.QRConfig `json:"config"`
	Crop            crop.State      `json:"crop"`
	Viewport        float64         `json:"viewport"`
	// CropPreview positions the source image inside the crop viewport. It is
	// nil while there is no drawable source.
	CropPreview     *crop.Layout    `json:"cropPreview,omitempty"`
	HasSource       bool            `json:"hasSource"`
	HasLogo         bool            `json:"hasLogo"`
	SourceName      string          `json:"sourceName,omitempty"`
	Dragging        bool            `json:"dragging"`
	Preview         string          `json:"preview"`
	Version         int             `json:"version,omitempty"`
	VersionKnown    bool            `json:"versionKnown"`
	CoverageWarning bool            `json:"coverageWarning"`
}

// Editor is the single open design: the live config, the crop controller and
// the preview scheduler. Every mutation goes through it and ends with a
// scheduler request.
type Editor struct {
	mu sync.Mutex

	cfg         entity.QRConfig
	logo        []byte
	previewSize int

	crop      *crop.Controller
	scheduler *preview.Scheduler
	log       *types.Logger
}

func NewEditor(opts EditorOptions) *Editor {
	if opts.PreviewSize <= 0 {
		opts.PreviewSize = 300
	}
	if opts.Logger == nil {
		opts.Logger = logger.NamedOrNop("editor")
	}
	if opts.Preview.Logger == nil {
		opts.Preview.Logger = opts.Logger
	}

	e := &Editor{
		cfg:         entity.DefaultConfig,
		previewSize: opts.PreviewSize,
		log:         opts.Logger,
	}

	cropOpts := opts.Crop
	if cropOpts.ViewportSize <= 0 {
		cropOpts.ViewportSize = 240
	}
	cropOpts.BorderRadius = e.cfg.LogoRadius
	cropOpts.OnChange = e.onCrop
	cropOpts.OnError = func(err error) {
		e.log.Errorf("failed to composite logo: %v", err)
	}
	e.crop = crop.NewController(cropOpts)
	e.scheduler = preview.NewScheduler(opts.Preview)

	e.request()
	return e
}

// onCrop runs synchronously inside a locked Editor method.
func (e *Editor) onCrop(out crop.Output) {
	e.logo = out.Logo
	e.request()
}

func (e *Editor) request() {
	opts, err := RenderOptions(e.cfg, e.logo, e.previewSize)
	if err != nil {
		e.log.Errorf("failed to build preview options: %v", err)
		return
	}
	e.scheduler.Request(opts, BackdropOf(e.cfg))
}

func (e *Editor) Config() entity.QRConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// Current returns the live config and the composited logo.
func (e *Editor) Current() (entity.QRConfig, []byte) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg, append([]byte(nil), e.logo...)
}

// Apply replaces the live config. Invalid configs are rejected and leave the
// editor untouched.
func (e *Editor) Apply(cfg entity.QRConfig) error {
	cfg = cfg.Normalize()
	if err := validator.Config(cfg); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.cfg = cfg
	e.crop.SetBorderRadius(cfg.LogoRadius)
	e.request()
	return nil
}

// LoadLogo decodes a new source image and resets the crop to defaults. On
// any failure the previous logo stays in place.
func (e *Editor) LoadLogo(data []byte, name string) error {
	if len(data) == 0 {
		return errorz.ErrNoSource
	}
	src, err := crop.DecodeSourceBytes(data, name)
	if err != nil {
		return err
	}
	if src.Empty() {
		return fmt.Errorf("%w: %q has no pixels", errorz.ErrNoSource, name)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.crop.LoadSource(src, nil)
	return nil
}

func (e *Editor) ClearLogo() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.crop.Clear()
	e.logo = nil
	e.request()
}

func (e *Editor) PointerDown(x, y float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.crop.PointerDown(x, y)
}

func (e *Editor) PointerMove(x, y float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.crop.PointerMove(x, y)
}

func (e *Editor) PointerUp() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.crop.PointerUp()
}

func (e *Editor) PointerLeave() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.crop.PointerLeave()
}

// Zoom sets an absolute crop scale.
func (e *Editor) Zoom(scale float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.crop.SetScale(scale)
}

func (e *Editor) Wheel(deltaY float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.crop.Wheel(deltaY)
}

// SetViewport updates the on-screen size of the crop viewport.
func (e *Editor) SetViewport(size float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.crop.SetViewport(size)
}

// SetLogoRadius updates the corner radius of the logo crop. The radius is
// part of the design config.
func (e *Editor) SetLogoRadius(radius float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if radius < 0 {
		radius = 0
	}
	e.cfg.LogoRadius = radius
	e.crop.SetBorderRadius(radius)
}

// NewDesign resets the config and the crop.
func (e *Editor) NewDesign() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cfg = entity.DefaultConfig
	e.crop.Clear()
	e.logo = nil
	e.crop.SetBorderRadius(e.cfg.LogoRadius)
	e.request()
}

// LoadDesign replaces the open design with a saved record, restoring the
// crop exactly. A record without a decodable source keeps its stored logo.
func (e *Editor) LoadDesign(d *entity.Design) error {
	if d == nil {
		return errorz.ErrDesignNotFound
	}
	cfg := d.Config.Normalize()
	if err := validator.Config(cfg); err != nil {
		return err
	}

	var src *crop.Source
	if len(d.SourceImage) > 0 {
		var err error
		src, err = crop.DecodeSourceBytes(d.SourceImage, d.SourceName)
		if err != nil {
			e.log.Warnf("design %s: %v, using stored logo", d.ID, err)
			src = nil
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.cfg = cfg
	e.crop.Clear()
	e.logo = nil
	e.crop.SetBorderRadius(cfg.LogoRadius)
	if src == nil || !e.crop.LoadSource(src, d.Crop) {
		if len(d.Logo) > 0 {
			e.logo = append([]byte(nil), d.Logo...)
		}
	}
	e.request()
	return nil
}

// Snapshot builds the record payload of the open design, thumbnail included.
func (e *Editor) Snapshot(name string) (*entity.Design, error) {
	e.mu.Lock()
	cfg := e.cfg
	logo := append([]byte(nil), e.logo...)
	src := e.crop.Source()
	state := e.crop.State()
	e.mu.Unlock()

	d := &entity.Design{
		Name:      name,
		Timestamp: location.Now(),
		Config:    cfg,
	}
	if len(logo) > 0 {
		d.Logo = logo
	}
	if src != nil {
		d.SourceImage = append([]byte(nil), src.Data...)
		d.SourceName = src.Name
		d.Crop = &state
	}

	opts, err := RenderOptions(cfg, d.Logo, e.previewSize)
	if err != nil {
		return nil, err
	}
	if opts.Background, err = BackgroundOf(cfg); err != nil {
		return nil, err
	}
	thumb, err := generator.Thumbnail(opts)
	if err != nil {
		e.log.Warnf("failed to render thumbnail: %v", err)
	} else {
		d.Thumbnail = thumb
	}
	return d, nil
}

// LockVersion pins the symbol version to the one currently shown. It fails
// while a preview update is still pending.
func (e *Editor) LockVersion() (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if state := e.scheduler.State(); state != preview.Idle {
		return 0, fmt.Errorf("%w: preview update is %s", errorz.ErrInvalidConfig, state)
	}
	version, ok := e.scheduler.Version()
	if !ok {
		return 0, fmt.Errorf("%w: symbol version is not known yet", errorz.ErrInvalidConfig)
	}
	e.cfg.Version = version
	e.request()
	return version, nil
}

// UnlockVersion returns to automatic version selection.
func (e *Editor) UnlockVersion() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cfg.Version = 0
	e.request()
}

func (e *Editor) State() EditorState {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := EditorState{
		Config:    e.cfg,
		Crop:      e.crop.State(),
		Viewport:  e.crop.Viewport(),
		HasSource: e.crop.Source() != nil,
		HasLogo:   len(e.logo) > 0,
		Dragging:  e.crop.Dragging(),
		Preview:   e.scheduler.State().String(),
	}
	if src := e.crop.Source(); src != nil {
		s.SourceName = src.Name
	}
	if layout, ok := e.crop.PreviewLayout(); ok {
		s.CropPreview = &layout
	}
	s.Version, s.VersionKnown = e.scheduler.Version()
	s.CoverageWarning = s.HasLogo && CoverageWarning(e.cfg)
	return s
}

// Close cancels any pending preview update.
func (e *Editor) Close() {
	e.scheduler.Stop()
}
