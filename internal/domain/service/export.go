package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"runtime"
	"strings"

	"github.com/Badsnus/qrstudio/internal/domain/common/errorz"
	"github.com/Badsnus/qrstudio/internal/domain/entity"
	"github.com/Badsnus/qrstudio/pkg/generator"
	"github.com/Badsnus/qrstudio/pkg/logger"
	"github.com/Badsnus/qrstudio/pkg/logger/types"
	qr "github.com/Badsnus/qrstudio/pkg/qrcode"
	"github.com/sourcegraph/conc/pool"
)

var DefaultMultiples = []int{1, 2, 4}

// ExportService renders designs for download. Every export builds a fresh
// renderer, so nothing here touches the live preview.
type ExportService struct {
	baseSize  int
	multiples []int
	log       *types.Logger
}

func NewExportService(baseSize int, multiples []int, log *types.Logger) *ExportService {
	if baseSize <= 0 {
		baseSize = qr.Default.Width
	}
	if len(multiples) == 0 {
		multiples = DefaultMultiples
	}
	if log == nil {
		log = logger.NamedOrNop("export")
	}
	return &ExportService{
		baseSize:  baseSize,
		multiples: multiples,
		log:       log,
	}
}

func (s *ExportService) Multiples() []int {
	return append([]int(nil), s.multiples...)
}

func (s *ExportService) supports(multiple int) bool {
	for _, m := range s.multiples {
		if m == multiple {
			return true
		}
	}
	return false
}

// Options builds the export renderer options. The logo margin scales with
// the multiple so the logo keeps the preview's relative geometry, and the
// background follows the design instead of the preview.
func (s *ExportService) Options(cfg entity.QRConfig, logo []byte, format qr.Format, multiple int) (qr.Options, error) {
	if !s.supports(multiple) {
		return qr.Options{}, fmt.Errorf("%w: %d", errorz.ErrUnsupportedMultiple, multiple)
	}

	var kind qr.DrawType
	switch format {
	case qr.PNG:
		kind = qr.Canvas
	case qr.SVG:
		kind = qr.Vector
	default:
		return qr.Options{}, fmt.Errorf("%w: %q", errorz.ErrUnsupportedFormat, format)
	}

	cfg = cfg.Normalize()
	opts, err := RenderOptions(cfg, logo, s.baseSize*multiple)
	if err != nil {
		return qr.Options{}, err
	}
	opts.Type = kind
	opts.ImageOptions.Margin = cfg.LogoMargin * float64(multiple)
	if opts.Background, err = BackgroundOf(cfg); err != nil {
		return qr.Options{}, err
	}
	return opts, nil
}

// Export renders one file.
func (s *ExportService) Export(ctx context.Context, w io.Writer, cfg entity.QRConfig, logo []byte, format qr.Format, multiple int) error {
	opts, err := s.Options(cfg, logo, format, multiple)
	if err != nil {
		return err
	}
	if err = ctx.Err(); err != nil {
		return err
	}

	r, err := qr.New(opts)
	if err != nil {
		return fmt.Errorf("failed to render export: %w", err)
	}

	if format != qr.SVG || opts.Background != nil {
		return r.Download(w, format)
	}

	var buf bytes.Buffer
	if err = r.Download(&buf, format); err != nil {
		return err
	}
	clean, err := qr.NeutralizeBackground(buf.Bytes())
	if err != nil {
		return fmt.Errorf("failed to neutralize svg background: %w", err)
	}
	_, err = w.Write(clean)
	return err
}

// ExportDesign renders one file for a saved design.
func (s *ExportService) ExportDesign(ctx context.Context, w io.Writer, d *entity.Design, format qr.Format, multiple int) error {
	return s.Export(ctx, w, d.Config, d.Logo, format, multiple)
}

// FileName is "<design-name>-<size>px.<ext>".
func (s *ExportService) FileName(name string, format qr.Format, multiple int) string {
	return fmt.Sprintf("%s-%dpx.%s", slug(name), s.baseSize*multiple, format)
}

// ExportAll writes every supported multiple of d into w concurrently and
// returns the written paths in multiple order. If any multiple fails, the
// files already written are removed.
func (s *ExportService) ExportAll(ctx context.Context, d *entity.Design, format qr.Format, w *generator.Writer) ([]string, error) {
	paths := make([]string, len(s.multiples))

	pooler := pool.New().WithErrors().WithContext(ctx).WithMaxGoroutines(runtime.NumCPU())
	for i, multiple := range s.multiples {
		i, multiple := i, multiple
		pooler.Go(func(ctx context.Context) error {
			var buf bytes.Buffer
			if err := s.ExportDesign(ctx, &buf, d, format, multiple); err != nil {
				s.log.Errorf("failed to export %s at x%d: %v", d.Name, multiple, err)
				return err
			}
			path, err := w.Write(s.FileName(d.Name, format, multiple), buf.Bytes())
			if err != nil {
				return err
			}
			paths[i] = path
			return nil
		})
	}

	if err := pooler.Wait(); err != nil {
		// Leave no partial set behind.
		for _, path := range paths {
			if path == "" {
				continue
			}
			if delErr := w.Delete(path); delErr != nil {
				s.log.Warnf("failed to clean up %s: %v", path, delErr)
			}
		}
		return nil, err
	}
	return paths, nil
}

var slugUnsafe = regexp.MustCompile(`[^\p{L}\p{N}]+`)

func slug(name string) string {
	s := strings.Trim(slugUnsafe.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if s == "" {
		return "qr-code"
	}
	return s
}
