package qr

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
)

// canvasFill is painted under the symbol when no background is set. Vector
// output always carries this canvas rect; NeutralizeBackground removes it.
const canvasFill = "#ffffff"

func drawSVG(l symbolLayout, bg *Background, logo []byte, crossOrigin string) []byte {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(
		`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`,
		l.Width, l.Height, l.Width, l.Height,
	))

	fill := canvasFill
	if bg != nil {
		fill = Hex(bg.Color)
	}
	sb.WriteString(fmt.Sprintf(`<rect x="0" y="0" width="%d" height="%d" fill="%s"/>`, l.Width, l.Height, fill))

	if len(l.Dots) > 0 {
		sb.WriteString(`<path d="`)
		for _, d := range l.Dots {
			writeRoundRect(&sb, d)
		}
		sb.WriteString(fmt.Sprintf(`" fill="%s"%s/>`, Hex(l.DotColor), opacityAttr(l.DotColor.A)))
	}

	for _, eye := range l.Eyes {
		sb.WriteString(`<path d="`)
		writeRoundRect(&sb, eye.Outer)
		rule := ""
		if eye.Inner != nil {
			writeRoundRect(&sb, *eye.Inner)
			rule = ` fill-rule="evenodd"`
		}
		sb.WriteString(fmt.Sprintf(`" fill="%s"%s%s/>`, Hex(eye.Color), opacityAttr(eye.Color.A), rule))
	}

	if len(logo) > 0 && l.Logo != nil {
		attr := ""
		if crossOrigin != "" {
			attr = fmt.Sprintf(` crossorigin="%s"`, crossOrigin)
		}
		sb.WriteString(fmt.Sprintf(
			`<image href="data:%s;base64,%s" x="%s" y="%s" width="%s" height="%s"%s/>`,
			http.DetectContentType(logo), base64.StdEncoding.EncodeToString(logo),
			num(l.Logo.X), num(l.Logo.Y), num(l.Logo.W), num(l.Logo.H), attr,
		))
	}

	sb.WriteString(`</svg>`)
	return []byte(sb.String())
}

func opacityAttr(a uint8) string {
	if a == 255 {
		return ""
	}
	return fmt.Sprintf(` fill-opacity="%s"`, num(float64(a)/255))
}

func writeRoundRect(sb *strings.Builder, r roundRect) {
	tl, tr, br, bl := r.Radii[0], r.Radii[1], r.Radii[2], r.Radii[3]
	x0, y0, x1, y1 := r.X, r.Y, r.X+r.W, r.Y+r.H

	sb.WriteString("M" + num(x0+tl) + " " + num(y0))
	sb.WriteString("H" + num(x1-tr))
	if tr > 0 {
		sb.WriteString(arc(tr, x1, y0+tr))
	}
	sb.WriteString("V" + num(y1-br))
	if br > 0 {
		sb.WriteString(arc(br, x1-br, y1))
	}
	sb.WriteString("H" + num(x0+bl))
	if bl > 0 {
		sb.WriteString(arc(bl, x0, y1-bl))
	}
	sb.WriteString("V" + num(y0+tl))
	if tl > 0 {
		sb.WriteString(arc(tl, x0+tl, y0))
	}
	sb.WriteString("Z")
}

func arc(r, x, y float64) string {
	return "A" + num(r) + " " + num(r) + " 0 0 1 " + num(x) + " " + num(y)
}

func num(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

// NeutralizeBackground sets fill="none" on every rect covering the whole
// canvas, so a "no background" vector export is really transparent.
func NeutralizeBackground(svg []byte) ([]byte, error) {
	dec := xml.NewDecoder(bytes.NewReader(svg))
	var out bytes.Buffer
	enc := xml.NewEncoder(&out)

	var width, height float64
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse svg: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			t.Name.Space = ""
			switch t.Name.Local {
			case "svg":
				width, height = canvasSize(t)
			case "rect":
				if coversCanvas(t, width, height) {
					setAttr(&t, "fill", "none")
				}
			}
			tok = t
		case xml.EndElement:
			t.Name.Space = ""
			tok = t
		}

		if err := enc.EncodeToken(xml.CopyToken(tok)); err != nil {
			return nil, fmt.Errorf("failed to write svg: %w", err)
		}
	}
	if err := enc.Flush(); err != nil {
		return nil, fmt.Errorf("failed to write svg: %w", err)
	}
	return out.Bytes(), nil
}

func attr(e xml.StartElement, name string) (string, bool) {
	for _, a := range e.Attr {
		if a.Name.Local == name && a.Name.Space == "" {
			return a.Value, true
		}
	}
	return "", false
}

func setAttr(e *xml.StartElement, name, value string) {
	for i, a := range e.Attr {
		if a.Name.Local == name && a.Name.Space == "" {
			e.Attr[i].Value = value
			return
		}
	}
	e.Attr = append(e.Attr, xml.Attr{Name: xml.Name{Local: name}, Value: value})
}

func floatAttr(e xml.StartElement, name string) float64 {
	v, ok := attr(e, name)
	if !ok {
		return 0
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(v), "px"), 64)
	if err != nil {
		return 0
	}
	return f
}

func canvasSize(svg xml.StartElement) (float64, float64) {
	if vb, ok := attr(svg, "viewBox"); ok {
		parts := strings.Fields(strings.ReplaceAll(vb, ",", " "))
		if len(parts) == 4 {
			w, errW := strconv.ParseFloat(parts[2], 64)
			h, errH := strconv.ParseFloat(parts[3], 64)
			if errW == nil && errH == nil {
				return w, h
			}
		}
	}
	return floatAttr(svg, "width"), floatAttr(svg, "height")
}

func coversCanvas(rect xml.StartElement, width, height float64) bool {
	if width <= 0 || height <= 0 {
		return false
	}
	if fill, ok := attr(rect, "fill"); ok && fill == "none" {
		return false
	}
	x, y := floatAttr(rect, "x"), floatAttr(rect, "y")
	w, h := floatAttr(rect, "width"), floatAttr(rect, "height")
	return x <= 0 && y <= 0 && x+w >= width && y+h >= height
}
