// file: internal/library/cover.go
// version: 1.0.0
// guid: 5b9e2c71-3f0a-4d86-b1e4-7a6c0d2f9e38

package library

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"strings"
	"unicode"
	"unicode/utf16"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	coverWidth      = 200
	coverHeight     = 300
	coverMargin     = 10
	coverMaxLines   = 3
	monogramScale   = 4
	dataURLPrefix   = "data:image/png;base64,"
	titleLineHeight = 20
)

var (
	titleInk  = color.NRGBA{A: 204}
	authorInk = color.NRGBA{A: 153}
)

// CoverColor returns the hue, saturation and lightness used for title's
// placeholder. The hash is the sum of the title's UTF-16 code units.
func CoverColor(title string) (hue, saturation, lightness int) {
	hash := 0
	for _, u := range utf16.Encode([]rune(title)) {
		hash += int(u)
	}
	return hash % 360, 60 + hash%20, 65 + hash%15
}

// hslToRGB converts h in degrees and s, l in percent.
func hslToRGB(h, s, l int) color.RGBA {
	hf := float64(h%360) / 360
	sf := float64(s) / 100
	lf := float64(l) / 100
	if sf == 0 {
		v := uint8(lf*255 + 0.5)
		return color.RGBA{R: v, G: v, B: v, A: 255}
	}
	var q float64
	if lf < 0.5 {
		q = lf * (1 + sf)
	} else {
		q = lf + sf - lf*sf
	}
	p := 2*lf - q
	channel := func(t float64) uint8 {
		if t < 0 {
			t++
		}
		if t > 1 {
			t--
		}
		var v float64
		switch {
		case t < 1.0/6:
			v = p + (q-p)*6*t
		case t < 0.5:
			v = q
		case t < 2.0/3:
			v = p + (q-p)*(2.0/3-t)*6
		default:
			v = p
		}
		return uint8(v*255 + 0.5)
	}
	return color.RGBA{R: channel(hf + 1.0/3), G: channel(hf), B: channel(hf - 1.0/3), A: 255}
}

// initials returns up to two upper-case letters from the first words of title.
func initials(title string) string {
	var out []rune
	for _, w := range strings.Fields(title) {
		for _, r := range w {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				out = append(out, unicode.ToUpper(r))
				break
			}
		}
		if len(out) == 2 {
			break
		}
	}
	if len(out) == 0 {
		return "?"
	}
	return string(out)
}

func measure(face font.Face, s string) int {
	return font.MeasureString(face, s).Ceil()
}

// wrapTitle splits title into lines no wider than maxWidth, keeping at most
// coverMaxLines and marking truncation with "...".
func wrapTitle(face font.Face, title string, maxWidth int) []string {
	words := strings.Fields(title)
	if len(words) == 0 {
		return nil
	}
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		candidate := line + " " + w
		if measure(face, candidate) > maxWidth {
			lines = append(lines, line)
			line = w
			continue
		}
		line = candidate
	}
	lines = append(lines, line)

	if len(lines) > coverMaxLines {
		lines = lines[:coverMaxLines]
		lines[coverMaxLines-1] += "..."
	}
	for i, l := range lines {
		lines[i] = fitWidth(face, l, maxWidth)
	}
	return lines
}

// fitWidth trims s from the right until it fits, ending with "...".
func fitWidth(face font.Face, s string, maxWidth int) string {
	if measure(face, s) <= maxWidth {
		return s
	}
	runes := []rune(strings.TrimSuffix(s, "..."))
	for len(runes) > 0 && measure(face, string(runes)+"...") > maxWidth {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}

func drawCentered(dst draw.Image, face font.Face, ink color.Color, s string, baseline int) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(ink),
		Face: face,
	}
	x := (dst.Bounds().Dx() - measure(face, s)) / 2
	d.Dot = fixed.P(x, baseline)
	d.DrawString(s)
}

// drawMonogram renders text at 1x and scales it up onto dst, centered at cy.
func drawMonogram(dst draw.Image, face font.Face, ink color.Color, text string, cy int) {
	metrics := face.Metrics()
	w := measure(face, text)
	h := metrics.Height.Ceil()
	small := image.NewNRGBA(image.Rect(0, 0, w, h))
	d := &font.Drawer{
		Dst:  small,
		Src:  image.NewUniform(ink),
		Face: face,
		Dot:  fixed.P(0, metrics.Ascent.Ceil()),
	}
	d.DrawString(text)

	sw, sh := w*monogramScale, h*monogramScale
	x0 := (dst.Bounds().Dx() - sw) / 2
	y0 := cy - sh/2
	draw.NearestNeighbor.Scale(dst, image.Rect(x0, y0, x0+sw, y0+sh), small, small.Bounds(), draw.Over, nil)
}

// RenderCover draws the placeholder card for a book without a cover image.
func RenderCover(title, author string) *image.RGBA {
	h, s, l := CoverColor(title)
	img := image.NewRGBA(image.Rect(0, 0, coverWidth, coverHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(hslToRGB(h, s, l)), image.Point{}, draw.Src)

	face := basicfont.Face7x13
	drawMonogram(img, face, titleInk, initials(title), 70)

	maxWidth := coverWidth - 2*coverMargin
	for i, line := range wrapTitle(face, title, maxWidth) {
		drawCentered(img, face, titleInk, line, coverHeight/2-10+i*titleLineHeight)
	}
	if author != "" {
		drawCentered(img, face, authorInk, fitWidth(face, author, maxWidth), coverHeight/2+50)
	}
	return img
}

// CoverPlaceholder returns a PNG data URL for a generated cover. The same
// title and author always produce the same URL.
func CoverPlaceholder(title, author string) string {
	var buf bytes.Buffer
	if err := png.Encode(&buf, RenderCover(title, author)); err != nil {
		return ""
	}
	return dataURLPrefix + base64.StdEncoding.EncodeToString(buf.Bytes())
}
