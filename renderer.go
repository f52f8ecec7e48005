package main

import (
	"fmt"
	"image/color"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"

	"lightbox/internal/viewer"
)

// Common colors used in rendering
var (
	colorWhite     = color.RGBA{255, 255, 255, 255}
	colorGray      = color.RGBA{180, 180, 180, 255}
	colorLightGray = color.RGBA{192, 192, 192, 255}
	colorYellow    = color.RGBA{255, 255, 100, 255}
	colorLightBlue = color.RGBA{200, 200, 255, 255}
	colorGreen     = color.RGBA{100, 255, 100, 255}
	colorOrange    = color.RGBA{255, 200, 100, 255}
	colorLightRed  = color.RGBA{255, 150, 150, 255}

	colorPage      = color.RGBA{24, 24, 27, 255}
	colorCell      = color.RGBA{44, 44, 50, 255}
	colorScrollbar = color.RGBA{255, 255, 255, 70}

	// Background colors for semi-transparent overlays
	bgColorLight  = color.RGBA{0, 0, 0, 128}
	bgColorMedium = color.RGBA{0, 0, 0, 160}
	bgColorDark   = color.RGBA{0, 0, 0, 200}
)

// overlayMaxAlpha is the backdrop opacity of a fully open viewer
const overlayMaxAlpha = 0.92

const panelFontSize = 13.0

// Renderer handles all drawing operations
type Renderer struct {
	renderState RenderState
}

// NewRenderer creates a new Renderer
func NewRenderer(renderState RenderState) *Renderer {
	return &Renderer{renderState: renderState}
}

func scaleAlpha(c color.RGBA, a float64) color.RGBA {
	a = math.Max(0, math.Min(1, a))
	return color.RGBA{
		R: uint8(float64(c.R) * a),
		G: uint8(float64(c.G) * a),
		B: uint8(float64(c.B) * a),
		A: uint8(float64(c.A) * a),
	}
}

// Draw renders the entire screen
func (r *Renderer) Draw(screen *ebiten.Image) {
	screen.Fill(colorPage)
	r.drawPage(screen)

	frame := r.renderState.Frame()
	if frame.Open {
		r.drawViewer(screen, frame)
	}

	if r.renderState.IsShowingHelp() {
		r.drawHelpOverlay(screen)
	}

	if r.renderState.GetOverlayMessage() != "" && time.Since(r.renderState.GetOverlayMessageTime()) < overlayMessageDuration {
		r.drawOverlayMessage(screen)
	}
}

func (r *Renderer) drawPage(screen *ebiten.Image) {
	page := r.renderState.Page()
	font := fontFace(r.renderState.GetFontSize())

	title := fmt.Sprintf("%d images", page.Len())
	if page.Len() == 1 {
		title = "1 image"
	}
	DrawText(screen, title, font, pagePadding, (pageHeader-r.renderState.GetFontSize())/2, colorLightGray)

	first, last := page.VisibleRange()
	for i := first; i <= last; i++ {
		cell, ok := page.ThumbnailRect(i)
		if !ok {
			continue
		}
		style := page.ThumbnailStyle(i)
		DrawRoundedRect(screen, cell, style.Radius, colorCell)
		if img := r.renderState.GetThumbImage(i); img != nil {
			DrawImageRounded(screen, img, cell, style.Radius, style.Cover, 1)
		}
	}

	if bar, ok := page.Scrollbar(); ok {
		DrawRoundedRect(screen, viewer.Rect{Left: bar.Left + 2, Top: bar.Top + 2, Width: bar.Width - 4, Height: bar.Height - 4}, 3, colorScrollbar)
	}
}

// layerImage prefers the full decode and falls back to the thumbnail
func (r *Renderer) layerImage(i int) *ebiten.Image {
	if img := r.renderState.GetFullImage(i); img != nil {
		return img
	}
	return r.renderState.GetThumbImage(i)
}

func (r *Renderer) drawViewer(screen *ebiten.Image, frame viewer.Frame) {
	w, h := float64(screen.Bounds().Dx()), float64(screen.Bounds().Dy())
	DrawFilledRect(screen, 0, 0, w, h, scaleAlpha(color.RGBA{0, 0, 0, 255}, frame.Overlay*overlayMaxAlpha))

	r.drawLayer(screen, frame.Buffer)
	r.drawLayer(screen, frame.Main)

	if g := frame.Ghost; g.Visible {
		DrawImageRounded(screen, r.layerImage(g.Index), g.Rect, g.Radius, g.Cover, 1)
	}

	if frame.Panel.Visible {
		r.drawPanel(screen, frame.Panel)
	}

	if frame.Chrome {
		r.drawChrome(screen, frame)
	}
}

// drawLayer draws one image layer: the fitted base rectangle scaled and
// rotated about its centre, then offset
func (r *Renderer) drawLayer(screen *ebiten.Image, layer viewer.LayerFrame) {
	if !layer.Visible || layer.Opacity <= 0 || !layer.Base.Usable() {
		return
	}
	img := r.layerImage(layer.Index)
	if img == nil {
		return
	}
	iw, ih := float64(img.Bounds().Dx()), float64(img.Bounds().Dy())

	op := &ebiten.DrawImageOptions{}
	op.Filter = ebiten.FilterLinear
	op.GeoM.Translate(-iw/2, -ih/2)
	op.GeoM.Scale(layer.Base.Width/iw*layer.Scale, layer.Base.Height/ih*layer.Scale)
	op.GeoM.Rotate(layer.Rotation * math.Pi / 180)
	op.GeoM.Translate(layer.Base.CenterX()+layer.X, layer.Base.CenterY()+layer.Y)
	op.ColorScale.ScaleAlpha(float32(layer.Opacity))
	screen.DrawImage(img, op)
}

func (r *Renderer) drawPanel(screen *ebiten.Image, panel viewer.PanelFrame) {
	DrawRoundedRect(screen, panel.Rect, 10, scaleAlpha(color.RGBA{0, 0, 0, 160}, panel.Alpha))

	font := fontFace(panelFontSize)
	chips, _ := layoutPanel(panel.Fields, panel.Rect.Width, textWidthFunc(panelFontSize))
	textColor := scaleAlpha(colorWhite, panel.Alpha)
	for _, c := range chips {
		DrawText(screen, c.Text, font, panel.Rect.Left+c.X, panel.Rect.Top+c.Y, textColor)
	}
}

func (r *Renderer) drawChrome(screen *ebiten.Image, frame viewer.Frame) {
	vp := r.renderState.Page().Viewport()
	font := fontFace(r.renderState.GetFontSize())

	for _, b := range chromeButtons(vp) {
		DrawRoundedRect(screen, b.Rect, chromeButtonSize/2, bgColorMedium)
		DrawCenteredText(screen, b.Label, font, b.Rect, colorWhite)
	}

	if frame.Counter != "" {
		w, h := text.Measure(frame.Counter, font, 0)
		box := viewer.Rect{Left: chromeMargin, Top: chromeMargin, Width: w + 20, Height: h + 12}
		DrawRoundedRect(screen, box, box.Height/2, bgColorLight)
		DrawCenteredText(screen, frame.Counter, font, box, colorWhite)
	}

	if frame.Zoomed {
		label := fmt.Sprintf("%d%%", frame.ZoomPercent)
		w, h := text.Measure(label, font, 0)
		box := viewer.Rect{
			Left:   vp.W/2 - (w+20)/2,
			Top:    vp.H - chromeMargin - chromeButtonSize - chromeGap - (h + 12),
			Width:  w + 20,
			Height: h + 12,
		}
		DrawRoundedRect(screen, box, box.Height/2, bgColorLight)
		DrawCenteredText(screen, label, font, box, colorYellow)
	}
}

// getActionsList returns a sorted list of all actions that have bindings
func (r *Renderer) getActionsList() []string {
	keybindings := r.renderState.GetKeybindings()
	actions := make([]string, 0, len(keybindings))
	for action, keys := range keybindings {
		if len(keys) > 0 {
			actions = append(actions, action)
		}
	}
	sort.Strings(actions)
	return actions
}

func shortWarning(w string) string {
	if len(w) > 50 {
		return w[:47] + "..."
	}
	return w
}

func (r *Renderer) drawHelpOverlay(screen *ebiten.Image) {
	w, h := float64(screen.Bounds().Dx()), float64(screen.Bounds().Dy())

	padding := 40.0
	fontSize, canFit := r.calculateOptimalFontSize(w-padding*2, h-padding*2)
	if !canFit {
		r.drawMarginTooSmallMessage(screen)
		return
	}

	actions := r.getActionsList()
	keybindings := r.renderState.GetKeybindings()
	descriptions := GetActionDescriptions()
	configStatus := r.renderState.GetConfigStatus()

	DrawFilledRect(screen, 0, 0, w, h, bgColorLight)
	DrawFilledRect(screen, padding, padding, w-padding*2, h-padding*2, bgColorMedium)

	helpFont := fontFace(fontSize)
	lineHeight := fontSize * 1.5

	titleY := padding + 30
	DrawText(screen, "HELP:", helpFont, padding+20, titleY, colorWhite)
	currentY := titleY + fontSize*2

	maxActionWidth, maxKeysWidth := 0.0, 0.0
	for _, action := range actions {
		aw, _ := text.Measure(action, helpFont, 0)
		kw, _ := text.Measure(strings.Join(keybindings[action], ", "), helpFont, 0)
		maxActionWidth = math.Max(maxActionWidth, aw)
		maxKeysWidth = math.Max(maxKeysWidth, kw)
	}
	actionX := padding + 40
	keysX := actionX + maxActionWidth + 20
	descX := keysX + maxKeysWidth + 20

	for _, action := range actions {
		DrawText(screen, action, helpFont, actionX, currentY, colorLightBlue)
		DrawText(screen, strings.Join(keybindings[action], ", "), helpFont, keysX, currentY, colorYellow)
		DrawText(screen, descriptions[action], helpFont, descX, currentY, colorGray)
		currentY += lineHeight
	}

	currentY += lineHeight
	statusColor := colorGreen
	if configStatus.Status == "Warning" || configStatus.Status == "Error" {
		statusColor = colorOrange
	}
	DrawText(screen, "Config Status: "+configStatus.Status, helpFont, padding+20, currentY, statusColor)
	currentY += lineHeight

	for i, warning := range configStatus.Warnings {
		if i >= 2 {
			break
		}
		DrawText(screen, "• "+shortWarning(warning), helpFont, padding+40, currentY, colorLightRed)
		currentY += lineHeight
	}
}

// calculateRequiredDimensions calculates the width and height the help
// content needs at a given font size
func (r *Renderer) calculateRequiredDimensions(fontSize float64) (float64, float64) {
	actions := r.getActionsList()
	keybindings := r.renderState.GetKeybindings()
	descriptions := GetActionDescriptions()
	configStatus := r.renderState.GetConfigStatus()
	font := fontFace(fontSize)

	padding := 40.0
	lineHeight := fontSize * 1.5
	warnings := min(2, len(configStatus.Warnings))

	height := padding*2 + 30 + fontSize*2
	height += float64(len(actions)) * lineHeight
	height += lineHeight * float64(2+warnings)

	maxActionWidth, maxKeysWidth, maxDescWidth := 0.0, 0.0, 0.0
	for _, action := range actions {
		aw, _ := text.Measure(action, font, 0)
		kw, _ := text.Measure(strings.Join(keybindings[action], ", "), font, 0)
		dw, _ := text.Measure(descriptions[action], font, 0)
		maxActionWidth = math.Max(maxActionWidth, aw)
		maxKeysWidth = math.Max(maxKeysWidth, kw)
		maxDescWidth = math.Max(maxDescWidth, dw)
	}
	width := 40 + maxActionWidth + 20 + maxKeysWidth + 20 + maxDescWidth + padding

	for i, warning := range configStatus.Warnings {
		if i >= 2 {
			break
		}
		ww, _ := text.Measure("• "+shortWarning(warning), font, 0)
		width = math.Max(width, ww+80)
	}
	return width, height
}

// calculateOptimalFontSize finds the largest font size that fits within the given dimensions
func (r *Renderer) calculateOptimalFontSize(availableWidth, availableHeight float64) (float64, bool) {
	maxFontSize := r.renderState.GetFontSize()
	minFontSize := 12.0

	minW, minH := r.calculateRequiredDimensions(minFontSize)
	if minW > availableWidth || minH > availableHeight {
		return minFontSize, false
	}

	maxW, maxH := r.calculateRequiredDimensions(maxFontSize)
	if maxW <= availableWidth && maxH <= availableHeight {
		return maxFontSize, true
	}

	low, high := minFontSize, maxFontSize
	bestSize := minFontSize
	for high-low > 0.5 {
		mid := (low + high) / 2.0
		reqW, reqH := r.calculateRequiredDimensions(mid)
		if reqW <= availableWidth && reqH <= availableHeight {
			bestSize = mid
			low = mid
		} else {
			high = mid
		}
	}
	return bestSize, true
}

// drawMarginTooSmallMessage displays Fermat's margin joke when help cannot fit
func (r *Renderer) drawMarginTooSmallMessage(screen *ebiten.Image) {
	w, h := float64(screen.Bounds().Dx()), float64(screen.Bounds().Dy())
	DrawFilledRect(screen, 0, 0, w, h, bgColorLight)

	jokeFont := fontFace(16)
	message := "Hanc marginis exiguitas non caperet."
	subtitle := "(This margin is too small to contain it.)"

	messageWidth, messageHeight := text.Measure(message, jokeFont, 0)
	subtitleWidth, _ := text.Measure(subtitle, jokeFont, 0)

	messageY := h/2 - messageHeight/2
	DrawText(screen, message, jokeFont, w/2-messageWidth/2, messageY, colorWhite)
	DrawText(screen, subtitle, jokeFont, w/2-subtitleWidth/2, messageY+messageHeight+10, colorGray)
}

func (r *Renderer) drawOverlayMessage(screen *ebiten.Image) {
	messageFont := fontFace(r.renderState.GetFontSize())
	message := r.renderState.GetOverlayMessage()
	textWidth, textHeight := text.Measure(message, messageFont, 0)

	padding := 20.0
	boxWidth := textWidth + padding*2
	boxHeight := textHeight + padding*2
	boxX := (float64(screen.Bounds().Dx()) - boxWidth) / 2
	boxY := (float64(screen.Bounds().Dy()) - boxHeight) / 2

	DrawFilledRect(screen, boxX, boxY, boxWidth, boxHeight, bgColorDark)
	DrawText(screen, message, messageFont, boxX+padding, boxY+padding, colorWhite)
}
