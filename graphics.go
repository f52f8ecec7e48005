package main

import (
	"bytes"
	"image"
	"image/color"
	"math"
	"path/filepath"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/gofont/goregular"

	"lightbox/internal/viewer"
)

// Global font source for text rendering
var globalFontSource *text.GoTextFaceSource

// whiteImage is the texture for untextured triangle fills
var whiteImage *ebiten.Image

// InitGraphics initializes the global font source for text rendering
func InitGraphics() error {
	s, err := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	if err != nil {
		return err
	}
	globalFontSource = s
	return nil
}

func fontFace(size float64) *text.GoTextFace {
	return &text.GoTextFace{Source: globalFontSource, Size: size}
}

// textWidthFunc measures strings in a face. Without a font source it falls
// back to an estimate of half the font size per character.
func textWidthFunc(size float64) func(string) float64 {
	if globalFontSource == nil {
		return func(s string) float64 {
			return float64(len([]rune(s))) * size * 0.5
		}
	}
	face := fontFace(size)
	return func(s string) float64 {
		w, _ := text.Measure(s, face, 0)
		return w
	}
}

// DrawText draws text with specified position and color
func DrawText(screen *ebiten.Image, textString string, font *text.GoTextFace, x, y float64, textColor color.Color) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(textColor)
	text.Draw(screen, textString, font, op)
}

// DrawCenteredText draws text centered in r
func DrawCenteredText(screen *ebiten.Image, s string, font *text.GoTextFace, r viewer.Rect, textColor color.Color) {
	w, h := text.Measure(s, font, 0)
	DrawText(screen, s, font, r.CenterX()-w/2, r.CenterY()-h/2, textColor)
}

// DrawFilledRect draws filled rectangles with float64 coordinates
func DrawFilledRect(screen *ebiten.Image, x, y, w, h float64, bgColor color.Color) {
	vector.DrawFilledRect(screen, float32(x), float32(y), float32(w), float32(h), bgColor, false)
}

// roundedRectPath traces r with corners of the given radius, clamped to
// half the shorter side
func roundedRectPath(r viewer.Rect, radius float64) *vector.Path {
	radius = math.Max(0, math.Min(radius, math.Min(r.Width, r.Height)/2))
	x0, y0 := float32(r.Left), float32(r.Top)
	x1, y1 := float32(r.Right()), float32(r.Bottom())
	rad := float32(radius)

	var p vector.Path
	p.MoveTo(x0+rad, y0)
	p.LineTo(x1-rad, y0)
	p.ArcTo(x1, y0, x1, y0+rad, rad)
	p.LineTo(x1, y1-rad)
	p.ArcTo(x1, y1, x1-rad, y1, rad)
	p.LineTo(x0+rad, y1)
	p.ArcTo(x0, y1, x0, y1-rad, rad)
	p.LineTo(x0, y0+rad)
	p.ArcTo(x0, y0, x0+rad, y0, rad)
	p.Close()
	return &p
}

// DrawRoundedRect fills r with rounded corners
func DrawRoundedRect(screen *ebiten.Image, r viewer.Rect, radius float64, clr color.Color) {
	if !r.Usable() {
		return
	}
	if whiteImage == nil {
		whiteImage = ebiten.NewImage(3, 3)
		whiteImage.Fill(color.White)
	}
	src := whiteImage.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)

	vs, is := roundedRectPath(r, radius).AppendVerticesAndIndicesForFilling(nil, nil)
	cr, cg, cb, ca := clr.RGBA()
	for i := range vs {
		vs[i].SrcX, vs[i].SrcY = 1, 1
		vs[i].ColorR = float32(cr) / 0xffff
		vs[i].ColorG = float32(cg) / 0xffff
		vs[i].ColorB = float32(cb) / 0xffff
		vs[i].ColorA = float32(ca) / 0xffff
	}
	op := &ebiten.DrawTrianglesOptions{AntiAlias: true}
	screen.DrawTriangles(vs, is, src, op)
}

// fitSource returns the part of an iw x ih image shown in a dw x dh box.
// cover crops the centre to fill the box; otherwise the whole image is used.
func fitSource(iw, ih, dw, dh float64, cover bool) (sx, sy, sw, sh float64) {
	if !cover || iw <= 0 || ih <= 0 || dw <= 0 || dh <= 0 {
		return 0, 0, iw, ih
	}
	scale := math.Max(dw/iw, dh/ih)
	sw, sh = dw/scale, dh/scale
	return (iw - sw) / 2, (ih - sh) / 2, sw, sh
}

// containRect letterboxes an iw x ih image inside box
func containRect(iw, ih float64, box viewer.Rect) viewer.Rect {
	if iw <= 0 || ih <= 0 {
		return box
	}
	scale := math.Min(box.Width/iw, box.Height/ih)
	w, h := iw*scale, ih*scale
	return viewer.Rect{Left: box.CenterX() - w/2, Top: box.CenterY() - h/2, Width: w, Height: h}
}

// DrawImageRounded draws img into dst clipped to rounded corners. With
// cover the image is cropped to fill dst; otherwise it is letterboxed.
func DrawImageRounded(screen, img *ebiten.Image, dst viewer.Rect, radius float64, cover bool, alpha float64) {
	if img == nil || !dst.Usable() || alpha <= 0 {
		return
	}
	iw, ih := float64(img.Bounds().Dx()), float64(img.Bounds().Dy())
	if !cover {
		dst = containRect(iw, ih, dst)
	}
	sx, sy, sw, sh := fitSource(iw, ih, dst.Width, dst.Height, cover)
	ox, oy := float64(img.Bounds().Min.X), float64(img.Bounds().Min.Y)

	if radius <= 0 {
		op := &ebiten.DrawImageOptions{Filter: ebiten.FilterLinear}
		op.GeoM.Scale(dst.Width/sw, dst.Height/sh)
		op.GeoM.Translate(dst.Left, dst.Top)
		op.ColorScale.ScaleAlpha(float32(alpha))
		sub := img.SubImage(image.Rect(int(ox+sx), int(oy+sy), int(math.Ceil(ox+sx+sw)), int(math.Ceil(oy+sy+sh)))).(*ebiten.Image)
		screen.DrawImage(sub, op)
		return
	}

	vs, is := roundedRectPath(dst, radius).AppendVerticesAndIndicesForFilling(nil, nil)
	a := float32(alpha)
	for i := range vs {
		u := (float64(vs[i].DstX) - dst.Left) / dst.Width
		v := (float64(vs[i].DstY) - dst.Top) / dst.Height
		vs[i].SrcX = float32(ox + sx + u*sw)
		vs[i].SrcY = float32(oy + sy + v*sh)
		vs[i].ColorR, vs[i].ColorG, vs[i].ColorB, vs[i].ColorA = a, a, a, a
	}
	op := &ebiten.DrawTrianglesOptions{Filter: ebiten.FilterLinear, AntiAlias: true}
	screen.DrawTriangles(vs, is, img, op)
}

// CreateErrorImage creates an error placeholder image with filename and error message
func CreateErrorImage(width, height int, filename, errorMsg string) *ebiten.Image {
	if width <= 0 || height <= 0 {
		width, height = 400, 300
	}

	errorImg := ebiten.NewImage(width, height)
	errorImg.Fill(color.RGBA{120, 30, 30, 255})

	white := color.RGBA{255, 255, 255, 255}
	DrawFilledRect(errorImg, 0, 0, float64(width), 3, white)
	DrawFilledRect(errorImg, 0, float64(height-3), float64(width), 3, white)
	DrawFilledRect(errorImg, 0, 0, 3, float64(height), white)
	DrawFilledRect(errorImg, float64(width-3), 0, 3, float64(height), white)

	if globalFontSource == nil {
		return errorImg
	}

	size := 20.0
	if width < 300 {
		size = 12
	}
	errorFont := fontFace(size)

	fileText := "File: " + filepath.Base(filename)
	reasonText := "Reason: " + errorMsg

	// Rough estimate: half the font size per character
	maxChars := int(float64(width-20) / (size / 2))
	if len(fileText) > maxChars {
		fileText = fileText[:maxChars-3] + "..."
	}
	if len(reasonText) > maxChars {
		reasonText = reasonText[:maxChars-3] + "..."
	}

	line := size * 1.5
	DrawText(errorImg, "ERROR", errorFont, 10, 10, white)
	DrawText(errorImg, fileText, errorFont, 10, 10+line, white)
	DrawText(errorImg, reasonText, errorFont, 10, 10+2*line, white)

	return errorImg
}
