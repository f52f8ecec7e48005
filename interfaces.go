package main

import (
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"lightbox/internal/viewer"
)

const (
	// Overlay message display duration
	overlayMessageDuration = 2 * time.Second
)

// RenderState provides read-only access to game state for the renderer
type RenderState interface {
	// Viewer state resolved for this tick
	Frame() viewer.Frame

	// Gallery page
	Page() *Page
	GetFullImage(i int) *ebiten.Image
	GetThumbImage(i int) *ebiten.Image

	// UI state
	IsFullscreen() bool
	IsShowingHelp() bool
	GetKeybindings() map[string][]string
	GetOverlayMessage() string
	GetOverlayMessageTime() time.Time
	GetConfigStatus() ConfigLoadResult
	GetFontSize() float64
}

// InputActions provides action methods for the input handler
type InputActions interface {
	// Application control
	Exit()
	ToggleFullscreen()
	ToggleHelp()

	// Gallery page
	OpenAt(index int)
	ScrollPage(direction int)
	ScrollBy(dy float64)

	// Viewer
	CloseViewer()
	NavigateNext()
	NavigatePrevious()
	ZoomIn()
	ZoomOut()
	ZoomOriginal()
	Rotate()
	ToggleChrome()

	// Messages
	ShowOverlayMessage(message string)
}

// InputState provides read-only access to input-related state
type InputState interface {
	IsViewerOpen() bool
	IsZoomed() bool
	// ThumbnailAt returns the gallery index under a page point
	ThumbnailAt(x, y float64) (int, bool)
	// ChromeActionAt returns the action of the viewer control under a point
	ChromeActionAt(x, y float64) (string, bool)
}

// PointerTarget receives raw pointer input while the viewer is open.
// *viewer.Session implements it.
type PointerTarget interface {
	TouchStart(touches []viewer.Touch)
	TouchMove(touches []viewer.Touch)
	TouchEnd(changed viewer.Touch)
	TouchCancel()
	MouseDown(x, y float64)
	MouseMove(x, y float64)
	MouseUp()
	Click(x, y float64)
	DoubleClick(x, y float64)
	Wheel(x, y float64, in bool)
	// HitImage reports whether a point is on the image being shown
	HitImage(x, y float64) bool
}
