package main

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"

	"lightbox/internal/viewer"
)

// fakeActions records the actions the input handler runs
type fakeActions struct {
	calls []string
}

func (f *fakeActions) record(format string, args ...any) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeActions) Exit()                       { f.record("exit") }
func (f *fakeActions) ToggleFullscreen()           { f.record("fullscreen") }
func (f *fakeActions) ToggleHelp()                 { f.record("help") }
func (f *fakeActions) OpenAt(index int)            { f.record("open %d", index) }
func (f *fakeActions) ScrollPage(direction int)    { f.record("page %d", direction) }
func (f *fakeActions) ScrollBy(dy float64)         { f.record("scroll %v", dy) }
func (f *fakeActions) CloseViewer()                { f.record("close") }
func (f *fakeActions) NavigateNext()               { f.record("next") }
func (f *fakeActions) NavigatePrevious()           { f.record("previous") }
func (f *fakeActions) ZoomIn()                     { f.record("zoom_in") }
func (f *fakeActions) ZoomOut()                    { f.record("zoom_out") }
func (f *fakeActions) ZoomOriginal()               { f.record("zoom_original") }
func (f *fakeActions) Rotate()                     { f.record("rotate") }
func (f *fakeActions) ToggleChrome()               { f.record("toggle_chrome") }
func (f *fakeActions) ShowOverlayMessage(m string) { f.record("message") }

// fakeState answers with a single thumbnail under (100, 100) and, while
// open, a close button in the top right corner
type fakeState struct {
	open   bool
	zoomed bool
}

func (f *fakeState) IsViewerOpen() bool { return f.open }
func (f *fakeState) IsZoomed() bool     { return f.zoomed }

func (f *fakeState) ThumbnailAt(x, y float64) (int, bool) {
	if x >= 90 && x < 110 && y >= 90 && y < 110 {
		return 3, true
	}
	return -1, false
}

func (f *fakeState) ChromeActionAt(x, y float64) (string, bool) {
	if f.open && x >= 740 && y < 60 {
		return "close", true
	}
	return "", false
}

// fakePointer records what reaches the viewer. The image covers
// (100, 100) to (700, 500).
type fakePointer struct {
	events []string
}

func (f *fakePointer) add(format string, args ...any) {
	f.events = append(f.events, fmt.Sprintf(format, args...))
}

func (f *fakePointer) TouchStart(touches []viewer.Touch) { f.add("start %d", len(touches)) }
func (f *fakePointer) TouchMove(touches []viewer.Touch)  { f.add("move %d", len(touches)) }
func (f *fakePointer) TouchEnd(changed viewer.Touch) {
	f.add("end %d at %v,%v", changed.ID, changed.X, changed.Y)
}
func (f *fakePointer) TouchCancel()                { f.add("cancel") }
func (f *fakePointer) MouseDown(x, y float64)      { f.add("down") }
func (f *fakePointer) MouseMove(x, y float64)      { f.add("mousemove") }
func (f *fakePointer) MouseUp()                    { f.add("up") }
func (f *fakePointer) Click(x, y float64)          { f.add("click") }
func (f *fakePointer) DoubleClick(x, y float64)    { f.add("dblclick") }
func (f *fakePointer) Wheel(x, y float64, in bool) { f.add("wheel %v", in) }

func (f *fakePointer) HitImage(x, y float64) bool {
	return x >= 100 && x < 700 && y >= 100 && y < 500
}

func newTestInputHandler(open bool) (*InputHandler, *fakeActions, *fakePointer) {
	actions := &fakeActions{}
	pointer := &fakePointer{}
	h := NewInputHandler(actions, &fakeState{open: open}, pointer, nil, GetDefaultMouseSettings(), newEnvironment(defaultConfig()))
	return h, actions, pointer
}

func touch(id int, x, y float64) viewer.Touch {
	return viewer.Touch{ID: id, X: x, Y: y}
}

func ids(values ...int) []ebiten.TouchID {
	out := make([]ebiten.TouchID, len(values))
	for i, v := range values {
		out[i] = ebiten.TouchID(v)
	}
	return out
}

func TestEnvironmentPointer(t *testing.T) {
	tests := []struct {
		pointer  string
		sawTouch bool
		want     bool
	}{
		{"auto", false, false},
		{"auto", true, true},
		{"fine", true, false},
		{"coarse", false, true},
	}
	for _, tt := range tests {
		cfg := defaultConfig()
		cfg.Pointer = tt.pointer
		env := newEnvironment(cfg)
		if tt.sawTouch {
			env.noteTouch()
		}
		if got := env.CoarsePointer(); got != tt.want {
			t.Errorf("CoarsePointer() with pointer %q, touch %v = %v, want %v", tt.pointer, tt.sawTouch, got, tt.want)
		}
	}

	cfg := defaultConfig()
	env := newEnvironment(cfg)
	cfg.ReducedMotion = true
	env.apply(cfg)
	if !env.ReducedMotion() {
		t.Errorf("ReducedMotion() after apply = false")
	}
}

func TestForwardTouches(t *testing.T) {
	h, _, pointer := newTestInputHandler(true)

	steps := []struct {
		name     string
		pressed  []ebiten.TouchID
		released []ebiten.TouchID
		current  []viewer.Touch
		want     []string
	}{
		{"First finger", ids(1), nil, []viewer.Touch{touch(1, 310, 310)}, []string{"start 1"}},
		{"Move", nil, nil, []viewer.Touch{touch(1, 320, 310)}, []string{"move 1"}},
		{"Still", nil, nil, []viewer.Touch{touch(1, 320, 310)}, nil},
		{"Second finger", ids(2), nil, []viewer.Touch{touch(1, 320, 310), touch(2, 350, 350)}, []string{"start 2"}},
		{"Both move", nil, nil, []viewer.Touch{touch(1, 325, 310), touch(2, 360, 350)}, []string{"move 2"}},
		{"Second lifts", nil, ids(2), []viewer.Touch{touch(1, 325, 310)}, []string{"end 2 at 360,350"}},
		{"Taken by the system", nil, nil, nil, []string{"cancel"}},
		{"Nothing left", nil, nil, nil, nil},
	}
	for _, s := range steps {
		pointer.events = nil
		h.forwardTouches(s.pressed, s.released, s.current)
		if !reflect.DeepEqual(pointer.events, s.want) {
			t.Errorf("%s: events = %v, want %v", s.name, pointer.events, s.want)
		}
	}
}

func TestForwardTouchesRelease(t *testing.T) {
	h, _, pointer := newTestInputHandler(true)
	h.forwardTouches(ids(4), nil, []viewer.Touch{touch(4, 305, 306)})
	pointer.events = nil

	if !h.forwardTouches(nil, ids(4), nil) {
		t.Errorf("forwardTouches() on release = false, want true")
	}
	want := []string{"end 4 at 305,306"}
	if !reflect.DeepEqual(pointer.events, want) {
		t.Errorf("events = %v, want %v", pointer.events, want)
	}
	if len(h.touches) != 0 {
		t.Errorf("%d touches still tracked after release", len(h.touches))
	}
}

func TestViewerTaps(t *testing.T) {
	type step struct {
		pressed  []ebiten.TouchID
		released []ebiten.TouchID
		current  []viewer.Touch
	}
	tests := []struct {
		name        string
		steps       []step
		wantActions []string
		wantEvents  []string
	}{
		{
			name: "Tap on the close button",
			steps: []step{
				{ids(1), nil, []viewer.Touch{touch(1, 760, 30)}},
				{nil, ids(1), nil},
			},
			wantActions: []string{"close"},
		},
		{
			name: "Finger slides off the button",
			steps: []step{
				{ids(1), nil, []viewer.Touch{touch(1, 760, 30)}},
				{nil, nil, []viewer.Touch{touch(1, 760, 90)}},
				{nil, ids(1), nil},
			},
		},
		{
			name: "Second finger during a button tap is ignored",
			steps: []step{
				{ids(1), nil, []viewer.Touch{touch(1, 760, 30)}},
				{ids(2), nil, []viewer.Touch{touch(1, 760, 30), touch(2, 300, 300)}},
				{nil, ids(1), []viewer.Touch{touch(2, 300, 300)}},
				{nil, ids(2), nil},
			},
			wantActions: []string{"close"},
		},
		{
			name: "Tap on the backdrop",
			steps: []step{
				{ids(1), nil, []viewer.Touch{touch(1, 50, 300)}},
				{nil, ids(1), nil},
			},
			wantEvents: []string{"click"},
		},
		{
			name: "Drag on the backdrop",
			steps: []step{
				{ids(1), nil, []viewer.Touch{touch(1, 50, 300)}},
				{nil, nil, []viewer.Touch{touch(1, 50, 360)}},
				{nil, ids(1), nil},
			},
		},
		{
			name: "Tap on the image goes to the gestures",
			steps: []step{
				{ids(1), nil, []viewer.Touch{touch(1, 300, 300)}},
				{nil, ids(1), nil},
			},
			wantEvents: []string{"start 1", "end 1 at 300,300"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, actions, pointer := newTestInputHandler(true)
			for _, s := range tt.steps {
				h.forwardTouches(s.pressed, s.released, s.current)
			}
			if !reflect.DeepEqual(actions.calls, tt.wantActions) {
				t.Errorf("actions = %v, want %v", actions.calls, tt.wantActions)
			}
			if !reflect.DeepEqual(pointer.events, tt.wantEvents) {
				t.Errorf("events = %v, want %v", pointer.events, tt.wantEvents)
			}
			if h.tap.active {
				t.Errorf("tap still active after every finger lifted")
			}
		})
	}
}

func TestPageTouch(t *testing.T) {
	type step struct {
		pressed  []ebiten.TouchID
		released []ebiten.TouchID
		current  []viewer.Touch
	}
	tests := []struct {
		name  string
		steps []step
		want  []string
	}{
		{
			name: "Tap opens the thumbnail",
			steps: []step{
				{ids(1), nil, []viewer.Touch{touch(1, 100, 100)}},
				{nil, ids(1), nil},
			},
			want: []string{"open 3"},
		},
		{
			name: "Small wiggle is still a tap",
			steps: []step{
				{ids(1), nil, []viewer.Touch{touch(1, 100, 100)}},
				{nil, nil, []viewer.Touch{touch(1, 103, 102)}},
				{nil, ids(1), nil},
			},
			want: []string{"open 3"},
		},
		{
			name: "Drag scrolls",
			steps: []step{
				{ids(1), nil, []viewer.Touch{touch(1, 100, 300)}},
				{nil, nil, []viewer.Touch{touch(1, 100, 250)}},
				{nil, nil, []viewer.Touch{touch(1, 100, 240)}},
				{nil, ids(1), nil},
			},
			want: []string{"scroll 50", "scroll 10"},
		},
		{
			name: "Tap on empty space",
			steps: []step{
				{ids(1), nil, []viewer.Touch{touch(1, 400, 400)}},
				{nil, ids(1), nil},
			},
			want: nil,
		},
		{
			name: "Lost touch does nothing",
			steps: []step{
				{ids(1), nil, []viewer.Touch{touch(1, 100, 100)}},
				{nil, nil, nil},
				{nil, ids(1), nil},
			},
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, actions, pointer := newTestInputHandler(false)
			for _, s := range tt.steps {
				h.handlePageTouch(s.pressed, s.released, s.current)
			}
			if !reflect.DeepEqual(actions.calls, tt.want) {
				t.Errorf("actions = %v, want %v", actions.calls, tt.want)
			}
			if len(pointer.events) != 0 {
				t.Errorf("page touches reached the viewer: %v", pointer.events)
			}
		})
	}
}

func TestDispatchClick(t *testing.T) {
	tests := []struct {
		name        string
		open        bool
		x, y        float64
		double      bool
		wantActions []string
		wantEvents  []string
	}{
		{"Thumbnail opens", false, 100, 100, false, []string{"open 3"}, nil},
		{"Empty page", false, 400, 400, false, nil, nil},
		{"Viewer click", true, 400, 400, false, nil, []string{"click"}},
		{"Viewer double click", true, 400, 400, true, nil, []string{"click", "dblclick"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, actions, pointer := newTestInputHandler(tt.open)
			h.dispatchClick(tt.x, tt.y, tt.double)
			if !reflect.DeepEqual(actions.calls, tt.wantActions) {
				t.Errorf("actions = %v, want %v", actions.calls, tt.wantActions)
			}
			if !reflect.DeepEqual(pointer.events, tt.wantEvents) {
				t.Errorf("events = %v, want %v", pointer.events, tt.wantEvents)
			}
		})
	}
}
