package qr

import "image/color"

// Default is the preset new designs start from.
var Default = Options{
	Width:  300,
	Height: 300,
	Type:   Canvas,
	Data:   Placeholder,
	Dots: Dots{
		Type:  DotSquare,
		Color: color.RGBA{A: 255},
	},
	CornersSquare: CornersSquare{
		Type:  CornerSquareSquare,
		Color: color.RGBA{A: 255},
	},
	CornersDot: CornersDot{
		Type:  CornerDotSquare,
		Color: color.RGBA{A: 255},
	},
	QR: QROptions{
		ErrorCorrectionLevel: LevelM,
	},
	ImageOptions: ImageOptions{
		CrossOrigin: "anonymous",
		ImageSize:   0.4,
		Margin:      4,
	},
}

// Placeholder is encoded whenever the content string is empty.
const Placeholder = "https://example.com"

// VersionFromModules derives the symbol version from its module count.
func VersionFromModules(modules int) int {
	return (modules - 17) / 4
}

// Coverage is the share of the symbol area hidden by a logo of the given
// relative size.
func Coverage(logoSize float64) float64 {
	return logoSize * logoSize
}

// Tolerance is the share of damaged modules the level can recover from.
func (l Level) Tolerance() float64 {
	switch l {
	case LevelL:
		return 0.07
	case LevelQ:
		return 0.25
	case LevelH:
		return 0.30
	default:
		return 0.15
	}
}

// CoverageExceeded reports whether a logo hides more than the level recovers.
func CoverageExceeded(logoSize float64, level Level) bool {
	return Coverage(logoSize) > level.Tolerance()
}
