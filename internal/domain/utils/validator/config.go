package validator

import (
	"fmt"

	"github.com/Badsnus/qrstudio/internal/domain/common/errorz"
	"github.com/Badsnus/qrstudio/internal/domain/entity"
	qr "github.com/Badsnus/qrstudio/pkg/qrcode"
)

const (
	MaxVersion    = 40
	MaxLogoSize   = 0.5
	MinLogoSize   = 0.1
	MaxLogoMargin = 40
)

// Config checks a normalized config. Every failure wraps errorz.ErrInvalidConfig.
func Config(cfg entity.QRConfig) error {
	switch cfg.DotStyle {
	case qr.DotSquare, qr.DotDots, qr.DotRounded, qr.DotExtraRounded, qr.DotClassy, qr.DotClassyRounded:
	default:
		return invalid("dot style %q", cfg.DotStyle)
	}
	switch cfg.EyeFrameStyle {
	case qr.CornerSquareSquare, qr.CornerSquareDot, qr.CornerSquareExtraRounded:
	default:
		return invalid("eye frame style %q", cfg.EyeFrameStyle)
	}
	switch cfg.EyeDotStyle {
	case qr.CornerDotSquare, qr.CornerDotDot:
	default:
		return invalid("eye dot style %q", cfg.EyeDotStyle)
	}
	switch cfg.ErrorCorrection {
	case qr.LevelL, qr.LevelM, qr.LevelQ, qr.LevelH:
	default:
		return invalid("error correction %q", cfg.ErrorCorrection)
	}

	for name, value := range map[string]string{
		"dot color":        cfg.DotColor,
		"eye color":        cfg.EyeColor,
		"background color": cfg.BackgroundColor,
	} {
		if _, err := qr.ParseHex(value); err != nil {
			return invalid("%s %q", name, value)
		}
	}

	if cfg.Version < 0 || cfg.Version > MaxVersion {
		return invalid("version %d", cfg.Version)
	}
	if cfg.LogoSize < MinLogoSize || cfg.LogoSize > MaxLogoSize {
		return invalid("logo size %g", cfg.LogoSize)
	}
	if cfg.LogoMargin < 0 || cfg.LogoMargin > MaxLogoMargin {
		return invalid("logo margin %g", cfg.LogoMargin)
	}
	if cfg.LogoRadius < 0 {
		return invalid("logo radius %g", cfg.LogoRadius)
	}
	return nil
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", errorz.ErrInvalidConfig, fmt.Sprintf(format, args...))
}
