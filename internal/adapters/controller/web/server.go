package web

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/Badsnus/qrstudio/internal/domain/common/errorz"
	"github.com/Badsnus/qrstudio/internal/domain/entity"
	"github.com/Badsnus/qrstudio/internal/domain/service"
	"github.com/Badsnus/qrstudio/pkg/crop"
	"github.com/Badsnus/qrstudio/pkg/logger"
	"github.com/Badsnus/qrstudio/pkg/logger/types"
	qr "github.com/Badsnus/qrstudio/pkg/qrcode"
	"github.com/gofiber/fiber/v2"
)

type Config struct {
	Host             string
	Port             int
	OnReady          func(addr string)
	OnBeforeShutdown func()
}

type Server struct {
	config  Config
	editor  *service.Editor
	library *service.LibraryService
	export  *service.ExportService
	surface *Surface
	log     *types.Logger

	shutdownCh   chan struct{}
	shutdownOnce sync.Once
}

func NewServer(config Config, editor *service.Editor, library *service.LibraryService, export *service.ExportService, surface *Surface) *Server {
	if config.Host == "" {
		config.Host = "localhost"
	}
	return &Server{
		config:     config,
		editor:     editor,
		library:    library,
		export:     export,
		surface:    surface,
		log:        logger.NamedOrNop("http"),
		shutdownCh: make(chan struct{}),
	}
}

func (s *Server) Shutdown() {
	s.shutdownOnce.Do(func() {
		close(s.shutdownCh)
	})
}

func statusOf(err error) int {
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &fiberErr):
		return fiberErr.Code
	case errors.Is(err, errorz.ErrDesignNotFound):
		return http.StatusNotFound
	case errors.Is(err, errorz.ErrMalformedLibrary):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errorz.ErrInvalidConfig),
		errors.Is(err, errorz.ErrInvalidName),
		errors.Is(err, errorz.ErrNoSource),
		errors.Is(err, errorz.ErrUnsupportedFormat),
		errors.Is(err, errorz.ErrUnsupportedMultiple):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// App builds the fiber application with every route registered.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		Immutable:             true,
		DisableStartupMessage: true,
		BodyLimit:             16 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := statusOf(err)
			if code >= http.StatusInternalServerError {
				s.log.Errorw("Request failed", "path", c.Path(), "method", c.Method(), "error", err)
				return c.Status(code).JSON(fiber.Map{"error": "Internal Server Error"})
			}
			s.log.Debugw("Request rejected", "path", c.Path(), "method", c.Method(), "error", err)
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	api := app.Group("/api")

	api.Get("/config", s.getConfig)
	api.Put("/config", s.putConfig)
	api.Post("/design/new", s.newDesign)
	api.Post("/version/lock", s.lockVersion)
	api.Delete("/version/lock", s.unlockVersion)

	api.Post("/logo", s.postLogo)
	api.Delete("/logo", s.deleteLogo)
	api.Get("/crop", s.getCrop)
	api.Post("/crop/pointer", s.cropPointer)
	api.Post("/crop/zoom", s.cropZoom)
	api.Put("/crop/viewport", s.cropViewport)

	api.Get("/preview.png", s.previewPNG)
	api.Get("/state", s.state)
	api.Get("/export", s.exportCurrent)

	api.Get("/library", s.listDesigns)
	api.Post("/library", s.saveDesign)
	api.Get("/library/export", s.exportLibrary)
	api.Post("/library/import", s.importLibrary)
	api.Get("/library/:id", s.getDesign)
	api.Put("/library/:id", s.updateDesign)
	api.Delete("/library/:id", s.deleteDesign)
	api.Post("/library/:id/load", s.loadDesign)
	api.Post("/library/:id/duplicate", s.duplicateDesign)

	api.Post("/shutdown", func(c *fiber.Ctx) error {
		s.Shutdown()
		return c.SendStatus(http.StatusNoContent)
	})

	return app
}

func (s *Server) Run(ctx context.Context) error {
	app := s.App()

	app.Hooks().OnListen(func(listen fiber.ListenData) error {
		if fn := s.config.OnReady; fn != nil {
			fn(fmt.Sprintf("http://%s:%s", listen.Host, listen.Port))
		}
		return nil
	})

	go func() {
		select {
		case <-ctx.Done():
		case <-s.shutdownCh:
		}
		if fn := s.config.OnBeforeShutdown; fn != nil {
			fn()
		}
		if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
			s.log.Errorf("Failed to shutdown web application: %v", err)
		}
	}()

	// Port 0 lets the OS assign a random available port
	listener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", s.config.Host, s.config.Port))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	if err := app.Listener(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func (s *Server) getConfig(c *fiber.Ctx) error {
	return c.JSON(s.editor.Config())
}

func (s *Server) putConfig(c *fiber.Ctx) error {
	var cfg entity.QRConfig
	if err := c.BodyParser(&cfg); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := s.editor.Apply(cfg); err != nil {
		return err
	}
	return c.JSON(s.editor.Config())
}

func (s *Server) newDesign(c *fiber.Ctx) error {
	s.editor.NewDesign()
	return c.JSON(s.editor.State())
}

func (s *Server) lockVersion(c *fiber.Ctx) error {
	version, err := s.editor.LockVersion()
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"version": version})
}

func (s *Server) unlockVersion(c *fiber.Ctx) error {
	s.editor.UnlockVersion()
	return c.SendStatus(http.StatusNoContent)
}

func (s *Server) postLogo(c *fiber.Ctx) error {
	if err := s.editor.LoadLogo(c.Body(), c.Query("name")); err != nil {
		if errors.Is(err, errorz.ErrNoSource) {
			return err
		}
		return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
	}
	return c.JSON(s.editor.State())
}

func (s *Server) deleteLogo(c *fiber.Ctx) error {
	s.editor.ClearLogo()
	return c.SendStatus(http.StatusNoContent)
}

type pointerRequest struct {
	Event string  `json:"event"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

func (s *Server) cropPointer(c *fiber.Ctx) error {
	var req pointerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	switch req.Event {
	case "down":
		s.editor.PointerDown(req.X, req.Y)
	case "move":
		s.editor.PointerMove(req.X, req.Y)
	case "up":
		s.editor.PointerUp()
	case "leave":
		s.editor.PointerLeave()
	default:
		return fiber.NewError(http.StatusBadRequest, fmt.Sprintf("unknown pointer event %q", req.Event))
	}
	return c.JSON(s.editor.State().Crop)
}

type zoomRequest struct {
	Scale       *float64 `json:"scale"`
	WheelDeltaY *float64 `json:"wheelDeltaY"`
}

func (s *Server) cropZoom(c *fiber.Ctx) error {
	var req zoomRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	switch {
	case req.Scale != nil:
		s.editor.Zoom(*req.Scale)
	case req.WheelDeltaY != nil:
		s.editor.Wheel(*req.WheelDeltaY)
	default:
		return fiber.NewError(http.StatusBadRequest, "scale or wheelDeltaY is required")
	}
	return c.JSON(s.editor.State().Crop)
}

type viewportRequest struct {
	Size         *float64 `json:"size"`
	BorderRadius *float64 `json:"borderRadius"`
}

func (s *Server) cropViewport(c *fiber.Ctx) error {
	var req viewportRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.Size == nil && req.BorderRadius == nil {
		return fiber.NewError(http.StatusBadRequest, "size or borderRadius is required")
	}
	if req.Size != nil && *req.Size <= 0 {
		return fiber.NewError(http.StatusBadRequest, "size must be positive")
	}
	if req.BorderRadius != nil && *req.BorderRadius < 0 {
		return fiber.NewError(http.StatusBadRequest, "borderRadius must not be negative")
	}

	if req.Size != nil {
		s.editor.SetViewport(*req.Size)
	}
	if req.BorderRadius != nil {
		s.editor.SetLogoRadius(*req.BorderRadius)
	}
	return c.JSON(s.editor.State())
}

type cropResponse struct {
	State    crop.State   `json:"state"`
	Viewport float64      `json:"viewport"`
	Radius   float64      `json:"borderRadius"`
	Preview  *crop.Layout `json:"preview,omitempty"`
}

func (s *Server) getCrop(c *fiber.Ctx) error {
	state := s.editor.State()
	return c.JSON(cropResponse{
		State:    state.Crop,
		Viewport: state.Viewport,
		Radius:   state.Config.LogoRadius,
		Preview:  state.CropPreview,
	})
}

func (s *Server) previewPNG(c *fiber.Ctx) error {
	data, err := s.surface.PNG()
	if err != nil {
		if errors.Is(err, errNoFrame) {
			return c.SendStatus(http.StatusNoContent)
		}
		return err
	}
	c.Set(fiber.HeaderContentType, qr.PNG.ContentType())
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Send(data)
}

func (s *Server) state(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"editor":  s.editor.State(),
		"surface": s.surface.State(),
	})
}

func parseExportQuery(c *fiber.Ctx) (qr.Format, int, error) {
	format, err := qr.ParseFormat(c.Query("format", string(qr.PNG)))
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", errorz.ErrUnsupportedFormat, err)
	}
	return format, c.QueryInt("multiple", 1), nil
}

func (s *Server) exportCurrent(c *fiber.Ctx) error {
	format, multiple, err := parseExportQuery(c)
	if err != nil {
		return err
	}
	cfg, logo := s.editor.Current()

	var buf bytes.Buffer
	if err = s.export.Export(c.UserContext(), &buf, cfg, logo, format, multiple); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, format.ContentType())
	c.Attachment(s.export.FileName(c.Query("name"), format, multiple))
	return c.Send(buf.Bytes())
}

type designSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Timestamp time.Time `json:"timestamp"`
	Thumbnail []byte    `json:"thumbnail,omitempty"`
}

func (s *Server) listDesigns(c *fiber.Ctx) error {
	designs, err := s.library.List(c.UserContext())
	if err != nil {
		return err
	}
	out := make([]designSummary, 0, len(designs))
	for _, d := range designs {
		out = append(out, designSummary{
			ID:        d.ID,
			Name:      d.Name,
			Timestamp: d.Timestamp,
			Thumbnail: d.Thumbnail,
		})
	}
	return c.JSON(out)
}

type nameRequest struct {
	Name string `json:"name"`
}

func (s *Server) saveDesign(c *fiber.Ctx) error {
	var req nameRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
	}
	snapshot, err := s.editor.Snapshot(req.Name)
	if err != nil {
		return err
	}
	design, err := s.library.Save(c.UserContext(), snapshot)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(design)
}

func (s *Server) getDesign(c *fiber.Ctx) error {
	design, err := s.library.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(design)
}

// updateDesign overwrites a saved design with the open one. A body with only
// a name renames it instead.
func (s *Server) updateDesign(c *fiber.Ctx) error {
	var req struct {
		nameRequest
		Overwrite bool `json:"overwrite"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	if !req.Overwrite {
		design, err := s.library.Rename(c.UserContext(), c.Params("id"), req.Name)
		if err != nil {
			return err
		}
		return c.JSON(design)
	}

	snapshot, err := s.editor.Snapshot(req.Name)
	if err != nil {
		return err
	}
	design, err := s.library.Update(c.UserContext(), c.Params("id"), snapshot)
	if err != nil {
		return err
	}
	return c.JSON(design)
}

func (s *Server) deleteDesign(c *fiber.Ctx) error {
	if err := s.library.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func (s *Server) loadDesign(c *fiber.Ctx) error {
	design, err := s.library.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	if err = s.editor.LoadDesign(design); err != nil {
		return err
	}
	return c.JSON(s.editor.State())
}

func (s *Server) duplicateDesign(c *fiber.Ctx) error {
	design, err := s.library.Duplicate(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(design)
}

func (s *Server) exportLibrary(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := s.library.Export(c.UserContext(), &buf); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	c.Attachment("qr-library.json")
	return c.Send(buf.Bytes())
}

func (s *Server) importLibrary(c *fiber.Ctx) error {
	n, err := s.library.Import(c.UserContext(), bytes.NewReader(c.Body()))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"imported": n})
}
