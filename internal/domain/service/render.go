package service

import (
	"fmt"

	"github.com/Badsnus/qrstudio/internal/domain/common/errorz"
	"github.com/Badsnus/qrstudio/internal/domain/entity"
	"github.com/Badsnus/qrstudio/pkg/preview"
	qr "github.com/Badsnus/qrstudio/pkg/qrcode"
)

// RenderOptions maps a config onto renderer options at the given pixel size.
// Only the fields that change the symbol pixels are used; the background is
// left out and added by the export path when the design asks for one.
func RenderOptions(cfg entity.QRConfig, logo []byte, size int) (qr.Options, error) {
	dotColor, err := qr.ParseHex(cfg.DotColor)
	if err != nil {
		return qr.Options{}, fmt.Errorf("%w: dot color: %v", errorz.ErrInvalidConfig, err)
	}
	eyeColor, err := qr.ParseHex(cfg.EyeColor)
	if err != nil {
		return qr.Options{}, fmt.Errorf("%w: eye color: %v", errorz.ErrInvalidConfig, err)
	}

	opts := qr.Options{
		Width:  size,
		Height: size,
		Type:   qr.Canvas,
		Data:   cfg.ContentOrPlaceholder(),
		Dots: qr.Dots{
			Type:  cfg.DotStyle,
			Color: dotColor,
		},
		CornersSquare: qr.CornersSquare{
			Type:  cfg.EyeFrameStyle,
			Color: eyeColor,
		},
		CornersDot: qr.CornersDot{
			Type:  cfg.EyeDotStyle,
			Color: eyeColor,
		},
		QR: qr.QROptions{
			ErrorCorrectionLevel: cfg.ErrorCorrection,
			TypeNumber:           cfg.Version,
		},
		ImageOptions: qr.ImageOptions{
			CrossOrigin: qr.Default.ImageOptions.CrossOrigin,
			ImageSize:   cfg.LogoSize,
			Margin:      cfg.LogoMargin,
		},
	}
	if len(logo) > 0 {
		opts.Image = logo
	}
	return opts, nil
}

// BackgroundOf returns the renderer background for cfg, nil when disabled.
func BackgroundOf(cfg entity.QRConfig) (*qr.Background, error) {
	if !cfg.BackgroundEnabled {
		return nil, nil
	}
	c, err := qr.ParseHex(cfg.BackgroundColor)
	if err != nil {
		return nil, fmt.Errorf("%w: background color: %v", errorz.ErrInvalidConfig, err)
	}
	return &qr.Background{Color: c}, nil
}

// BackdropOf is the presentation-layer background shown behind the preview.
func BackdropOf(cfg entity.QRConfig) preview.Backdrop {
	return preview.Backdrop{
		Enabled: cfg.BackgroundEnabled,
		Color:   cfg.BackgroundColor,
	}
}

// CoverageWarning reports whether the logo hides more modules than the
// error-correction level can recover.
func CoverageWarning(cfg entity.QRConfig) bool {
	return qr.CoverageExceeded(cfg.LogoSize, cfg.ErrorCorrection)
}
