package main

import (
	"math"
	"slices"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"k8s.io/klog/v2"

	"lightbox/internal/viewer"
)

// pageTapSlop is how far a touch may travel and still count as a tap on
// a thumbnail, a viewer control or the backdrop
const pageTapSlop = 8.0

// environment answers the viewer's preference queries from config and
// the input seen so far
type environment struct {
	reducedMotion bool
	pointer       string // "auto", "fine" or "coarse"
	sawTouch      bool
}

func newEnvironment(cfg Config) *environment {
	return &environment{reducedMotion: cfg.ReducedMotion, pointer: cfg.Pointer}
}

func (e *environment) ReducedMotion() bool {
	return e.reducedMotion
}

// CoarsePointer is pinned by config, otherwise true once any touch input
// has been seen
func (e *environment) CoarsePointer() bool {
	switch e.pointer {
	case "coarse":
		return true
	case "fine":
		return false
	}
	return e.sawTouch
}

func (e *environment) noteTouch() {
	if !e.sawTouch && e.pointer == "auto" {
		klog.V(1).Info("touch input detected, pointer is now coarse")
	}
	e.sawTouch = true
}

func (e *environment) apply(cfg Config) {
	e.reducedMotion = cfg.ReducedMotion
	e.pointer = cfg.Pointer
}

// pageTouch follows a single finger on the gallery page
type pageTouch struct {
	id     ebiten.TouchID
	active bool
	startX float64
	startY float64
	lastY  float64
	moved  bool
}

// viewerTap follows a single finger that landed on a viewer control or on
// the backdrop beside the image. It never reaches the gesture router.
type viewerTap struct {
	id     ebiten.TouchID
	active bool
	action string // empty on the backdrop
	startX float64
	startY float64
	moved  bool
}

// InputHandler handles keyboard, mouse and touch input processing
type InputHandler struct {
	inputActions      InputActions
	inputState        InputState
	pointer           PointerTarget
	keybindingManager *KeybindingManager
	mouseSettings     MouseSettings
	clicks            *ClickTracker
	env               *environment

	touches   map[ebiten.TouchID]viewer.Touch
	touchIDs  []ebiten.TouchID
	pageTouch pageTouch
	tap       viewerTap

	mouseX, mouseY float64
	mouseToViewer  bool
}

// NewInputHandler creates a new InputHandler
func NewInputHandler(inputActions InputActions, inputState InputState, pointer PointerTarget, keybindingManager *KeybindingManager, mouseSettings MouseSettings, env *environment) *InputHandler {
	return &InputHandler{
		inputActions:      inputActions,
		inputState:        inputState,
		pointer:           pointer,
		keybindingManager: keybindingManager,
		mouseSettings:     mouseSettings,
		clicks:            NewClickTracker(mouseSettings),
		env:               env,
		touches:           make(map[ebiten.TouchID]viewer.Touch),
	}
}

// UpdateConfig applies reloaded bindings and mouse settings
func (h *InputHandler) UpdateConfig(keybindingManager *KeybindingManager, mouseSettings MouseSettings) {
	h.keybindingManager = keybindingManager
	h.mouseSettings = mouseSettings
	h.clicks.UpdateSettings(mouseSettings)
}

// HandleInput processes all input for the current frame
// Returns true if any input was processed, false otherwise
func (h *InputHandler) HandleInput(now time.Time) bool {
	inputProcessed := false

	inputProcessed = h.handleKeys() || inputProcessed
	inputProcessed = h.handleTouches() || inputProcessed
	inputProcessed = h.handleMouse(now) || inputProcessed
	inputProcessed = h.handleWheel() || inputProcessed

	return inputProcessed
}

func (h *InputHandler) handleKeys() bool {
	inputProcessed := false
	for _, def := range actionDefinitions {
		if h.keybindingManager.ExecuteAction(def.Name, h.inputActions, h.inputState) {
			inputProcessed = true
		}
	}
	return inputProcessed
}

// currentTouches returns every finger on the screen ordered by ID
func (h *InputHandler) currentTouches() []viewer.Touch {
	h.touchIDs = ebiten.AppendTouchIDs(h.touchIDs[:0])
	slices.Sort(h.touchIDs)
	touches := make([]viewer.Touch, 0, len(h.touchIDs))
	for _, id := range h.touchIDs {
		x, y := ebiten.TouchPosition(id)
		touches = append(touches, viewer.Touch{ID: int(id), X: float64(x), Y: float64(y)})
	}
	return touches
}

func (h *InputHandler) handleTouches() bool {
	pressed := inpututil.AppendJustPressedTouchIDs(nil)
	released := inpututil.AppendJustReleasedTouchIDs(nil)
	current := h.currentTouches()
	if len(pressed) == 0 && len(released) == 0 && len(current) == 0 && len(h.touches) == 0 && !h.pageTouch.active {
		return false
	}
	if len(pressed) > 0 {
		h.env.noteTouch()
	}

	if !h.inputState.IsViewerOpen() {
		clear(h.touches)
		h.tap.active = false
		return h.handlePageTouch(pressed, released, current)
	}
	h.pageTouch.active = false
	return h.forwardTouches(pressed, released, current)
}

// forwardTouches replays this tick's touch changes to the viewer as
// move, end and start events
func (h *InputHandler) forwardTouches(pressed, released []ebiten.TouchID, current []viewer.Touch) bool {
	if h.tap.active {
		return h.handleViewerTap(released, current)
	}
	if len(pressed) > 0 && len(h.touches) == 0 && len(current) == 1 {
		t := current[0]
		action, onControl := h.inputState.ChromeActionAt(t.X, t.Y)
		if onControl || !h.pointer.HitImage(t.X, t.Y) {
			h.tap = viewerTap{id: ebiten.TouchID(t.ID), active: true, action: action, startX: t.X, startY: t.Y}
			return true
		}
	}

	inputProcessed := false

	var continuing []viewer.Touch
	moved := false
	for _, t := range current {
		last, known := h.touches[ebiten.TouchID(t.ID)]
		if !known {
			continue
		}
		continuing = append(continuing, t)
		if last.X != t.X || last.Y != t.Y {
			moved = true
		}
		h.touches[ebiten.TouchID(t.ID)] = t
	}
	if moved {
		h.pointer.TouchMove(continuing)
		inputProcessed = true
	}

	for _, id := range released {
		last, known := h.touches[id]
		if !known {
			continue
		}
		delete(h.touches, id)
		h.pointer.TouchEnd(last)
		inputProcessed = true
	}

	if len(pressed) > 0 {
		for _, t := range current {
			h.touches[ebiten.TouchID(t.ID)] = t
		}
		h.pointer.TouchStart(current)
		inputProcessed = true
	}

	// Contacts that vanished without a release were taken by the system
	if len(current) == 0 && len(h.touches) > 0 {
		clear(h.touches)
		h.pointer.TouchCancel()
		inputProcessed = true
	}
	return inputProcessed
}

// handleViewerTap runs the control under a tap, or sends a backdrop tap
// to the viewer as a click. Extra fingers are ignored until it ends.
func (h *InputHandler) handleViewerTap(released []ebiten.TouchID, current []viewer.Touch) bool {
	tp := &h.tap
	for _, t := range current {
		if ebiten.TouchID(t.ID) == tp.id && math.Hypot(t.X-tp.startX, t.Y-tp.startY) > pageTapSlop {
			tp.moved = true
		}
	}
	if slices.Contains(released, tp.id) {
		tp.active = false
		if tp.moved {
			return true
		}
		if tp.action != "" {
			globalActionExecutor.ExecuteAction(tp.action, h.inputActions, h.inputState)
		} else {
			h.pointer.Click(tp.startX, tp.startY)
		}
		return true
	}
	if len(current) == 0 {
		tp.active = false
	}
	return true
}

// handlePageTouch scrolls the page with one finger and opens the
// thumbnail under a tap
func (h *InputHandler) handlePageTouch(pressed, released []ebiten.TouchID, current []viewer.Touch) bool {
	pt := &h.pageTouch
	if !pt.active && len(pressed) > 0 && len(current) == 1 {
		t := current[0]
		*pt = pageTouch{id: ebiten.TouchID(t.ID), active: true, startX: t.X, startY: t.Y, lastY: t.Y}
		return true
	}
	if !pt.active {
		return false
	}
	if len(current) == 0 && !slices.Contains(released, pt.id) {
		pt.active = false
		return false
	}
	if len(current) > 1 {
		pt.moved = true
	}

	for _, t := range current {
		if ebiten.TouchID(t.ID) != pt.id {
			continue
		}
		if !pt.moved && math.Hypot(t.X-pt.startX, t.Y-pt.startY) > pageTapSlop {
			pt.moved = true
		}
		if pt.moved {
			h.inputActions.ScrollBy(pt.lastY - t.Y)
		}
		pt.lastY = t.Y
	}

	if slices.Contains(released, pt.id) {
		pt.active = false
		if !pt.moved {
			if i, ok := h.inputState.ThumbnailAt(pt.startX, pt.startY); ok {
				h.inputActions.OpenAt(i)
			}
		}
	}
	return true
}

func (h *InputHandler) handleMouse(now time.Time) bool {
	cx, cy := ebiten.CursorPosition()
	x, y := float64(cx), float64(cy)
	moved := x != h.mouseX || y != h.mouseY
	h.mouseX, h.mouseY = x, y
	open := h.inputState.IsViewerOpen()
	inputProcessed := false

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		h.clicks.Press(x, y)
		_, onControl := h.inputState.ChromeActionAt(x, y)
		h.mouseToViewer = open && !onControl
		if h.mouseToViewer {
			h.pointer.MouseDown(x, y)
		}
		inputProcessed = true
	}

	if moved && ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		h.clicks.Move(x, y)
		if h.mouseToViewer {
			h.pointer.MouseMove(x, y)
		}
		inputProcessed = true
	}

	if inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft) {
		if h.mouseToViewer {
			h.pointer.MouseUp()
			h.mouseToViewer = false
		}
		if click, double := h.clicks.Release(x, y, now); click {
			h.dispatchClick(x, y, double)
		}
		inputProcessed = true
	}
	return inputProcessed
}

// dispatchClick routes a click to a viewer control, the viewer itself or
// the thumbnail under it
func (h *InputHandler) dispatchClick(x, y float64, double bool) {
	if !h.inputState.IsViewerOpen() {
		if i, ok := h.inputState.ThumbnailAt(x, y); ok {
			h.inputActions.OpenAt(i)
		}
		return
	}
	if action, ok := h.inputState.ChromeActionAt(x, y); ok {
		globalActionExecutor.ExecuteAction(action, h.inputActions, h.inputState)
		return
	}
	h.pointer.Click(x, y)
	if double {
		h.pointer.DoubleClick(x, y)
	}
}

func (h *InputHandler) handleWheel() bool {
	_, wy := ebiten.Wheel()
	if wy == 0 {
		return false
	}
	delta := h.mouseSettings.WheelDelta(wy)
	if h.inputState.IsViewerOpen() {
		h.pointer.Wheel(h.mouseX, h.mouseY, delta > 0)
	} else {
		h.inputActions.ScrollBy(-delta * h.mouseSettings.ScrollStep)
	}
	return true
}
