package entity

import (
	qr "github.com/Badsnus/qrstudio/pkg/qrcode"
)

// QRConfig is the full set of style and content fields of one design.
type QRConfig struct {
	Content           string              `json:"content"`
	DotStyle          qr.DotType          `json:"dotStyle"`
	DotColor          string              `json:"dotColor"`
	EyeFrameStyle     qr.CornerSquareType `json:"eyeFrameStyle"`
	EyeDotStyle       qr.CornerDotType    `json:"eyeDotStyle"`
	EyeColor          string              `json:"eyeColor"`
	BackgroundEnabled bool                `json:"backgroundEnabled"`
	BackgroundColor   string              `json:"backgroundColor"`
	ErrorCorrection   qr.Level            `json:"errorCorrection"`
	// Version pins the symbol version, 0 means automatic.
	Version int `json:"version"`
	// LogoMargin is in preview pixels.
	LogoMargin float64 `json:"logoMargin"`
	// LogoSize is the logo side relative to the symbol side.
	LogoSize float64 `json:"logoSize"`
	// LogoRadius is the corner radius of the logo crop, in viewport pixels.
	LogoRadius float64 `json:"logoRadius"`
}

// DefaultConfig is the configuration of a new design.
var DefaultConfig = QRConfig{
	Content:           "",
	DotStyle:          qr.DotSquare,
	DotColor:          "#000000",
	EyeFrameStyle:     qr.CornerSquareSquare,
	EyeDotStyle:       qr.CornerDotSquare,
	EyeColor:          "#000000",
	BackgroundEnabled: true,
	BackgroundColor:   "#ffffff",
	ErrorCorrection:   qr.LevelM,
	Version:           0,
	LogoMargin:        4,
	LogoSize:          0.3,
	LogoRadius:        24,
}

// Normalize fills every empty field with its default so that a config read
// from an older or partial record is always renderable.
func (c QRConfig) Normalize() QRConfig {
	d := DefaultConfig
	if c.DotStyle == "" {
		c.DotStyle = d.DotStyle
	}
	if c.DotColor == "" {
		c.DotColor = d.DotColor
	}
	if c.EyeFrameStyle == "" {
		c.EyeFrameStyle = d.EyeFrameStyle
	}
	if c.EyeDotStyle == "" {
		c.EyeDotStyle = d.EyeDotStyle
	}
	if c.EyeColor == "" {
		c.EyeColor = d.EyeColor
	}
	if c.BackgroundColor == "" {
		c.BackgroundColor = d.BackgroundColor
	}
	if level, err := qr.ParseLevel(string(c.ErrorCorrection)); err == nil {
		c.ErrorCorrection = level
	}
	if c.ErrorCorrection == "" {
		c.ErrorCorrection = d.ErrorCorrection
	}
	if c.Version < 0 {
		c.Version = 0
	}
	if c.LogoMargin < 0 {
		c.LogoMargin = 0
	}
	if c.LogoSize <= 0 {
		c.LogoSize = d.LogoSize
	}
	if c.LogoRadius < 0 {
		c.LogoRadius = 0
	}
	return c
}

// ContentOrPlaceholder is the string actually encoded.
func (c QRConfig) ContentOrPlaceholder() string {
	if c.Content == "" {
		return qr.Placeholder
	}
	return c.Content
}
