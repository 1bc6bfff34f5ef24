package qr

import (
	"bytes"
	"fmt"
	"image/color"
	"strings"

	"github.com/skip2/go-qrcode"
)

type DrawType string

const (
	Canvas DrawType = "canvas"
	Vector DrawType = "svg"
)

type Format string

const (
	PNG Format = "png"
	SVG Format = "svg"
)

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case PNG:
		return PNG, nil
	case SVG:
		return SVG, nil
	}
	return "", fmt.Errorf("unknown format %q", s)
}

func (f Format) ContentType() string {
	if f == SVG {
		return "image/svg+xml"
	}
	return "image/png"
}

type DotType string

const (
	DotSquare        DotType = "square"
	DotDots          DotType = "dots"
	DotRounded       DotType = "rounded"
	DotExtraRounded  DotType = "extra-rounded"
	DotClassy        DotType = "classy"
	DotClassyRounded DotType = "classy-rounded"
)

type CornerSquareType string

const (
	CornerSquareSquare       CornerSquareType = "square"
	CornerSquareDot          CornerSquareType = "dot"
	CornerSquareExtraRounded CornerSquareType = "extra-rounded"
)

type CornerDotType string

const (
	CornerDotSquare CornerDotType = "square"
	CornerDotDot    CornerDotType = "dot"
)

// Level is the error-correction level of the symbol.
type Level string

const (
	LevelL Level = "L"
	LevelM Level = "M"
	LevelQ Level = "Q"
	LevelH Level = "H"
)

func ParseLevel(s string) (Level, error) {
	switch l := Level(strings.ToUpper(strings.TrimSpace(s))); l {
	case LevelL, LevelM, LevelQ, LevelH:
		return l, nil
	}
	return "", fmt.Errorf("unknown error correction level %q", s)
}

func (l Level) recovery() qrcode.RecoveryLevel {
	switch l {
	case LevelL:
		return qrcode.Low
	case LevelQ:
		return qrcode.High
	case LevelH:
		return qrcode.Highest
	default:
		return qrcode.Medium
	}
}

type Dots struct {
	Type  DotType
	Color color.RGBA
}

type CornersSquare struct {
	Type  CornerSquareType
	Color color.RGBA
}

type CornersDot struct {
	Type  CornerDotType
	Color color.RGBA
}

type Background struct {
	Color color.RGBA
}

type QROptions struct {
	ErrorCorrectionLevel Level
	// TypeNumber pins the symbol version, 0 selects the smallest that fits.
	TypeNumber int
}

type ImageOptions struct {
	CrossOrigin string
	// ImageSize is the logo side relative to the symbol side.
	ImageSize float64
	// Margin is the gap in pixels kept free of dots around the logo.
	Margin float64
}

// Options is the complete input of a render. Background nil means transparent.
type Options struct {
	Width         int
	Height        int
	Type          DrawType
	Data          string
	Dots          Dots
	CornersSquare CornersSquare
	CornersDot    CornersDot
	Background    *Background
	QR            QROptions
	Image         []byte
	ImageOptions  ImageOptions
}

// StyleKey groups the fields whose change alters the module layout shape.
type StyleKey struct {
	Dots          DotType
	CornersSquare CornerSquareType
	CornersDot    CornerDotType
	Level         Level
	Version       int
}

func (o Options) StyleKey() StyleKey {
	return StyleKey{
		Dots:          o.Dots.Type,
		CornersSquare: o.CornersSquare.Type,
		CornersDot:    o.CornersDot.Type,
		Level:         o.QR.ErrorCorrectionLevel,
		Version:       o.QR.TypeNumber,
	}
}

// Equal reports whether two option sets would produce the same output.
func (o Options) Equal(p Options) bool {
	if (o.Background == nil) != (p.Background == nil) {
		return false
	}
	if o.Background != nil && *o.Background != *p.Background {
		return false
	}
	return o.Width == p.Width &&
		o.Height == p.Height &&
		o.Type == p.Type &&
		o.Data == p.Data &&
		o.Dots == p.Dots &&
		o.CornersSquare == p.CornersSquare &&
		o.CornersDot == p.CornersDot &&
		o.QR == p.QR &&
		o.ImageOptions == p.ImageOptions &&
		bytes.Equal(o.Image, p.Image)
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = Default.Width
	}
	if o.Height <= 0 {
		o.Height = o.Width
	}
	if o.Type == "" {
		o.Type = Canvas
	}
	if o.Dots.Type == "" {
		o.Dots.Type = DotSquare
	}
	if o.CornersSquare.Type == "" {
		o.CornersSquare.Type = CornerSquareSquare
	}
	if o.CornersDot.Type == "" {
		o.CornersDot.Type = CornerDotSquare
	}
	if o.QR.ErrorCorrectionLevel == "" {
		o.QR.ErrorCorrectionLevel = LevelM
	}
	return o
}
