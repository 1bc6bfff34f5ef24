package preview

import (
	"sync"
	"time"

	"github.com/Badsnus/qrstudio/pkg/logger/types"
	qr "github.com/Badsnus/qrstudio/pkg/qrcode"
)

// Renderer is the live rendering engine as seen by the scheduler.
type Renderer interface {
	Attach(target qr.Target)
	Update(opts qr.Options) error
	ModuleCount() (int, bool)
}

// ConstructFunc builds a renderer and draws its first frame.
type ConstructFunc func(opts qr.Options) (Renderer, error)

// Construct is the ConstructFunc backed by the qr package.
func Construct(opts qr.Options) (Renderer, error) {
	r, err := qr.New(opts)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Backdrop is the background painted by the presentation layer behind the
// always-transparent preview canvas.
type Backdrop struct {
	Enabled bool   `json:"enabled"`
	Color   string `json:"color"`
}

// Presenter is the presentation layer around the preview surface. Changes
// take effect instantly and never redraw the symbol.
type Presenter interface {
	SetVisible(visible bool)
	SetBackdrop(b Backdrop)
}

type State int

const (
	Idle State = iota
	PendingApply
	Suppressing
	Applying
	Restoring
)

func (s State) String() string {
	switch s {
	case PendingApply:
		return "pending-apply"
	case Suppressing:
		return "suppressing"
	case Applying:
		return "applying"
	case Restoring:
		return "restoring"
	default:
		return "idle"
	}
}

type Timings struct {
	// Debounce coalesces continuous changes.
	Debounce time.Duration
	// Crossfade lets the hide transition finish before a discrete redraw.
	Crossfade time.Duration
	// Settle waits after a discrete redraw before showing the surface again.
	Settle time.Duration
}

var DefaultTimings = Timings{
	Debounce:  80 * time.Millisecond,
	Crossfade: 150 * time.Millisecond,
	Settle:    30 * time.Millisecond,
}

type Options struct {
	Construct ConstructFunc
	Target    qr.Target
	Presenter Presenter
	Clock     Clock
	Timings   Timings
	Logger    *types.Logger
}

// Scheduler owns the live renderer and decides when and how each
// configuration change reaches it. It holds a single cancellable timer;
// a newer request always supersedes a pending one.
type Scheduler struct {
	mu sync.Mutex

	construct ConstructFunc
	target    qr.Target
	presenter Presenter
	clock     Clock
	timings   Timings
	log       *types.Logger

	renderer Renderer
	state    State
	timer    Timer
	gen      uint64
	hidden   bool

	requested    qr.Options
	hasRequested bool
	applied      qr.Options
	hasApplied   bool
	version      int
	hasVersion   bool
}

func NewScheduler(opts Options) *Scheduler {
	if opts.Construct == nil {
		opts.Construct = Construct
	}
	if opts.Clock == nil {
		opts.Clock = RealClock{}
	}
	if opts.Timings == (Timings{}) {
		opts.Timings = DefaultTimings
	}
	return &Scheduler{
		construct: opts.Construct,
		target:    opts.Target,
		presenter: opts.Presenter,
		clock:     opts.Clock,
		timings:   opts.Timings,
		log:       opts.Logger,
	}
}

// Request submits the renderer options derived from the current
// configuration. The backdrop is forwarded to the presenter immediately and
// is never part of the renderer input.
func (s *Scheduler) Request(opts qr.Options, backdrop Backdrop) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.presenter != nil {
		s.presenter.SetBackdrop(backdrop)
	}

	opts.Background = nil
	if opts.Data == "" {
		opts.Data = qr.Placeholder
	}

	if s.hasRequested && opts.Equal(s.requested) {
		return
	}
	s.requested = opts
	s.hasRequested = true

	s.cancel()

	if s.hasApplied && opts.Equal(s.applied) {
		// Reverted to what is already on screen.
		s.show()
		s.state = Idle
		return
	}

	if s.hasApplied && opts.StyleKey() != s.applied.StyleKey() {
		s.crossfade(opts)
		return
	}
	s.debounce(opts)
}

func (s *Scheduler) debounce(opts qr.Options) {
	s.state = PendingApply
	s.debugf("scheduled update in %s", s.timings.Debounce)
	s.schedule(s.timings.Debounce, func() {
		s.state = Applying
		s.apply(opts)
		s.show()
		s.state = Idle
	})
}

func (s *Scheduler) crossfade(opts qr.Options) {
	s.state = Suppressing
	s.hide()
	s.debugf("discrete change, redraw in %s", s.timings.Crossfade)
	s.schedule(s.timings.Crossfade, func() {
		s.state = Applying
		s.apply(opts)
		s.state = Restoring
		s.schedule(s.timings.Settle, func() {
			s.show()
			s.state = Idle
		})
	})
}

// schedule arms the single timer. Callbacks from a superseded generation are
// dropped, so a stale timer that already fired cannot apply old options.
func (s *Scheduler) schedule(d time.Duration, fn func()) {
	gen := s.gen
	s.timer = s.clock.AfterFunc(d, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if gen != s.gen {
			return
		}
		s.timer = nil
		fn()
	})
}

// cancel drops any pending step. A surface waiting to be restored is shown
// right away since its redraw already happened.
func (s *Scheduler) cancel() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
	if s.state == Restoring {
		s.show()
	}
	s.state = Idle
}

func (s *Scheduler) apply(opts qr.Options) {
	if s.renderer == nil {
		r, err := s.construct(opts)
		if err != nil {
			s.errorf("failed to construct renderer: %v", err)
			return
		}
		r.Attach(s.target)
		s.renderer = r
	} else if err := s.renderer.Update(opts); err != nil {
		s.errorf("failed to update renderer: %v", err)
		return
	}

	s.applied = opts
	s.hasApplied = true
	s.debugf("applied update")

	modules, ok := s.renderer.ModuleCount()
	if !ok {
		s.debugf("module count unavailable")
		return
	}
	s.version = qr.VersionFromModules(modules)
	s.hasVersion = true
}

func (s *Scheduler) hide() {
	if s.hidden {
		return
	}
	s.hidden = true
	if s.presenter != nil {
		s.presenter.SetVisible(false)
	}
}

func (s *Scheduler) show() {
	if !s.hidden {
		return
	}
	s.hidden = false
	if s.presenter != nil {
		s.presenter.SetVisible(true)
	}
}

// Version returns the symbol version derived after the last applied update.
func (s *Scheduler) Version() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version, s.hasVersion
}

func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Applied returns the options currently on screen.
func (s *Scheduler) Applied() (qr.Options, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applied, s.hasApplied
}

// Stop cancels any pending update and shows the surface.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancel()
	s.show()
}

func (s *Scheduler) debugf(template string, args ...interface{}) {
	if s.log != nil {
		s.log.Debugf(template, args...)
	}
}

func (s *Scheduler) errorf(template string, args ...interface{}) {
	if s.log != nil {
		s.log.Errorf(template, args...)
	}
}
