package crop

// DefaultWheelSensitivity converts wheel delta units into scale units.
const DefaultWheelSensitivity = 0.001

// Output is emitted after every recomputation of the composited logo.
type Output struct {
	Logo  []byte
	State State
}

// Options configure a Controller.
type Options struct {
	RasterSize       int
	ViewportSize     float64
	BorderRadius     float64
	DefaultScale     float64
	WheelSensitivity float64
	// OnChange is called synchronously with the new composite.
	OnChange func(Output)
	// OnError is called when the composite cannot be encoded.
	OnError func(error)
}

// Controller turns pointer drags and zoom input into a crop State and keeps
// the composited logo in sync with it. Controller is not safe for concurrent
// use; its owner serialises calls.
type Controller struct {
	opts Options

	source *Source
	state  State
	logo   []byte

	dragging bool
	anchorX  float64
	anchorY  float64
}

func NewController(opts Options) *Controller {
	if opts.RasterSize <= 0 {
		opts.RasterSize = 512
	}
	if opts.DefaultScale <= 0 {
		opts.DefaultScale = DefaultScale
	}
	if opts.WheelSensitivity == 0 {
		opts.WheelSensitivity = DefaultWheelSensitivity
	}
	return &Controller{
		opts:  opts,
		state: NewState(opts.DefaultScale),
	}
}

func (c *Controller) State() State { return c.state }

func (c *Controller) Logo() []byte { return c.logo }

func (c *Controller) Source() *Source { return c.source }

func (c *Controller) Dragging() bool { return c.dragging }

func (c *Controller) Viewport() float64 { return c.opts.ViewportSize }

func (c *Controller) BorderRadius() float64 { return c.opts.BorderRadius }

// LoadSource replaces the source image. The crop state is reset to defaults
// unless prior is given, in which case it is restored verbatim. An empty
// source is ignored and the previous logo is kept.
func (c *Controller) LoadSource(src *Source, prior *State) bool {
	if src.Empty() {
		return false
	}
	c.source = src
	c.dragging = false
	if prior != nil {
		c.state = *prior
		c.state.Scale = ClampScale(c.state.Scale)
	} else {
		c.state = NewState(c.opts.DefaultScale)
	}
	c.render()
	return true
}

// Clear drops the source image and the composited logo.
func (c *Controller) Clear() {
	c.source = nil
	c.logo = nil
	c.dragging = false
	c.state = NewState(c.opts.DefaultScale)
}

// PointerDown starts a drag. The anchor keeps the grabbed point under the pointer.
func (c *Controller) PointerDown(x, y float64) {
	c.dragging = true
	c.anchorX = x - c.state.OffsetX
	c.anchorY = y - c.state.OffsetY
}

// PointerMove pans while dragging. It reports whether the state changed.
func (c *Controller) PointerMove(x, y float64) bool {
	if !c.dragging {
		return false
	}
	offsetX := x - c.anchorX
	offsetY := y - c.anchorY
	if offsetX == c.state.OffsetX && offsetY == c.state.OffsetY {
		return false
	}
	c.state.OffsetX = offsetX
	c.state.OffsetY = offsetY
	c.render()
	return true
}

func (c *Controller) PointerUp() {
	c.dragging = false
}

// PointerLeave releases the drag, the pointer is no longer over the viewport.
func (c *Controller) PointerLeave() {
	c.dragging = false
}

// SetScale sets an absolute zoom value, clamped to [MinScale, MaxScale].
func (c *Controller) SetScale(scale float64) bool {
	scale = ClampScale(scale)
	if scale == c.state.Scale {
		return false
	}
	c.state.Scale = scale
	c.render()
	return true
}

// Wheel applies a relative zoom from a wheel delta. Scrolling down zooms out.
func (c *Controller) Wheel(deltaY float64) bool {
	return c.SetScale(c.state.Scale - deltaY*c.opts.WheelSensitivity)
}

func (c *Controller) SetViewport(size float64) bool {
	if size <= 0 || size == c.opts.ViewportSize {
		return false
	}
	c.opts.ViewportSize = size
	c.render()
	return true
}

func (c *Controller) SetBorderRadius(radius float64) bool {
	if radius < 0 {
		radius = 0
	}
	if radius == c.opts.BorderRadius {
		return false
	}
	c.opts.BorderRadius = radius
	c.render()
	return true
}

// Geometry returns the transform input for the current state at raster size.
func (c *Controller) Geometry() Geometry {
	return Geometry{
		NaturalWidth:  c.source.Width(),
		NaturalHeight: c.source.Height(),
		State:         c.state,
		ViewportSize:  c.opts.ViewportSize,
		BorderRadius:  c.opts.BorderRadius,
		RasterSize:    float64(c.opts.RasterSize),
	}
}

// PreviewLayout is the same transform evaluated at viewport scale, used to
// position the live crop preview.
func (c *Controller) PreviewLayout() (Layout, bool) {
	return c.Geometry().At(c.opts.ViewportSize).Layout()
}

func (c *Controller) render() {
	if c.source.Empty() {
		return
	}
	logo, ok, err := CompositePNG(c.source.Image, c.Geometry())
	if err != nil {
		if c.opts.OnError != nil {
			c.opts.OnError(err)
		}
		return
	}
	if !ok {
		return
	}
	c.logo = logo
	if c.opts.OnChange != nil {
		c.opts.OnChange(Output{Logo: logo, State: c.state})
	}
}
