package main

import (
	"path/filepath"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"k8s.io/klog/v2"

	"lightbox/internal/viewer"
)

// Game is the ebiten entry point: a thumbnail page with the viewer session
// on top of it
type Game struct {
	config       Config
	configPath   string
	configStatus ConfigLoadResult

	page         *Page
	images       *ImageManager
	session      *viewer.Session
	env          *environment
	inputHandler *InputHandler
	renderer     *Renderer

	metadata      <-chan metadataResult
	configUpdates <-chan ConfigLoadResult

	startIndex int
	started    bool
	quitting   bool

	fullscreen  bool
	showingHelp bool
	savedWinW   int
	savedWinH   int

	overlayMessage     string
	overlayMessageTime time.Time

	viewport viewer.Size
	frame    viewer.Frame
}

// galleryItems describes each path for the page
func galleryItems(paths []ImagePath) []viewer.Item {
	items := make([]viewer.Item, len(paths))
	for i, p := range paths {
		name := p.Path
		if p.EntryPath != "" {
			name = p.EntryPath
		}
		items[i] = viewer.Item{Source: p.Path, Alt: filepath.Base(name)}
	}
	return items
}

// NewGame wires the page, the decoder and the viewer session together.
// The viewer opens on startIndex once the first frame runs; a negative
// index leaves it closed.
func NewGame(paths []ImagePath, startIndex int, result ConfigLoadResult, configPath string) *Game {
	cfg := result.Config
	viewport := viewer.Size{W: float64(cfg.WindowWidth), H: float64(cfg.WindowHeight)}
	motion, _ := cfg.Motion.Settings().Resolve()

	g := &Game{
		config:       cfg,
		configPath:   configPath,
		configStatus: result,
		startIndex:   startIndex,
		viewport:     viewport,
		env:          newEnvironment(cfg),
	}
	g.page = NewPage(galleryItems(paths), cfg, viewport)
	g.images = NewImageManager(paths, cfg)
	g.session = viewer.NewSession(viewer.Options{
		Gallery:  g.page,
		Loader:   g.images,
		Scroll:   g.page,
		Env:      g.env,
		Measure:  panelMeasurer(textWidthFunc(panelFontSize)),
		Motion:   motion,
		Viewport: viewport,
	})
	g.inputHandler = NewInputHandler(g, g, g.session, NewKeybindingManager(cfg.Keybindings), cfg.Mouse, g.env)
	g.renderer = NewRenderer(g)

	if result.Status == "Warning" || result.Status == "Error" {
		g.ShowOverlayMessage("Config " + result.Status + ": see help (H)")
	}
	return g
}

// WatchMetadata feeds capture details into the page as they arrive
func (g *Game) WatchMetadata(ch <-chan metadataResult) {
	g.metadata = ch
}

// WatchConfig applies config reloads as they arrive
func (g *Game) WatchConfig(ch <-chan ConfigLoadResult) {
	g.configUpdates = ch
}

func (g *Game) Update() error {
	if g.quitting {
		g.saveCurrentWindowSize()
		g.images.Stop()
		return ebiten.Termination
	}
	now := time.Now()

	g.images.Drain(g.session.NotifyLoaded)
	g.drainMetadata()
	g.applyConfigUpdates()
	g.applyViewport()

	if !g.started {
		g.started = true
		if g.startIndex >= 0 {
			g.page.ScrollTo(g.startIndex)
			g.session.Open(g.startIndex)
		}
	}

	g.session.SetPageVisible(ebiten.IsFocused())
	g.inputHandler.HandleInput(now)
	g.session.Update(now)
	g.requestImages()
	g.frame = g.session.Frame()
	return nil
}

func (g *Game) drainMetadata() {
	if g.metadata == nil {
		return
	}
	for {
		select {
		case res, ok := <-g.metadata:
			if !ok {
				g.metadata = nil
				return
			}
			g.page.SetMetadata(res.index, res.meta)
			g.session.RefreshMetadata(res.index)
		default:
			return
		}
	}
}

func (g *Game) applyConfigUpdates() {
	if g.configUpdates == nil {
		return
	}
	select {
	case result := <-g.configUpdates:
		g.applyConfig(result)
	default:
	}
}

// applyConfig takes over the settings that can change while running.
// Layout and cache sizes keep their startup values.
func (g *Game) applyConfig(result ConfigLoadResult) {
	g.configStatus = result
	if result.HasError {
		g.ShowOverlayMessage("Config error: keeping current settings")
		return
	}
	cfg := result.Config
	motion, _ := cfg.Motion.Settings().Resolve()
	g.session.SetMotion(motion)
	g.env.apply(cfg)
	g.inputHandler.UpdateConfig(NewKeybindingManager(cfg.Keybindings), cfg.Mouse)

	g.config.Motion = cfg.Motion
	g.config.Mouse = cfg.Mouse
	g.config.Keybindings = cfg.Keybindings
	g.config.ReducedMotion = cfg.ReducedMotion
	g.config.Pointer = cfg.Pointer

	msg := "Config reloaded"
	if result.Status == "Warning" {
		msg = "Config reloaded with warnings"
	}
	klog.Info(msg)
	g.ShowOverlayMessage(msg)
}

func (g *Game) applyViewport() {
	if g.viewport.Empty() || g.viewport == g.page.Viewport() {
		return
	}
	g.page.Resize(g.viewport)
	g.session.Resize(g.viewport)
}

// requestImages asks for the thumbnails on screen and re-requests viewer
// images that were evicted from the cache
func (g *Game) requestImages() {
	first, last := g.page.VisibleRange()
	for i := first; i <= last; i++ {
		g.images.RequestThumb(i)
	}
	if !g.session.IsOpen() {
		return
	}
	if i := g.session.CurrentIndex(); g.images.Full(i) == nil {
		g.images.Request(i)
	}
	if g.frame.Buffer.Visible && g.images.Full(g.frame.Buffer.Index) == nil {
		g.images.Request(g.frame.Buffer.Index)
	}
}

func (g *Game) saveCurrentWindowSize() {
	if g.fullscreen {
		if g.savedWinW > 0 && g.savedWinH > 0 {
			g.config.WindowWidth = g.savedWinW
			g.config.WindowHeight = g.savedWinH
		}
	} else {
		g.config.WindowWidth, g.config.WindowHeight = ebiten.WindowSize()
	}
	if err := saveConfigToPath(g.config, g.configPath); err != nil {
		klog.Warningf("failed to save window size: %v", err)
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.renderer.Draw(screen)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.viewport = viewer.Size{W: float64(outsideWidth), H: float64(outsideHeight)}
	return outsideWidth, outsideHeight
}

// InputActions implementation

func (g *Game) Exit() {
	g.quitting = true
}

func (g *Game) ToggleFullscreen() {
	g.fullscreen = !g.fullscreen
	if g.fullscreen {
		g.savedWinW, g.savedWinH = ebiten.WindowSize()
		ebiten.SetFullscreen(true)
		return
	}
	ebiten.SetFullscreen(false)
	if g.savedWinW > 0 && g.savedWinH > 0 {
		ebiten.SetWindowSize(g.savedWinW, g.savedWinH)
	}
}

func (g *Game) ToggleHelp() {
	g.showingHelp = !g.showingHelp
}

func (g *Game) OpenAt(index int) {
	g.session.Open(index)
}

func (g *Game) ScrollPage(direction int) {
	g.page.ScrollBy(float64(direction) * g.viewport.H * 0.8)
}

func (g *Game) ScrollBy(dy float64) {
	g.page.ScrollBy(dy)
}

func (g *Game) CloseViewer() {
	g.session.Close()
}

func (g *Game) NavigateNext() {
	g.session.Next()
}

func (g *Game) NavigatePrevious() {
	g.session.Prev()
}

func (g *Game) ZoomIn() {
	g.session.ZoomIn()
}

func (g *Game) ZoomOut() {
	g.session.ZoomOut()
}

func (g *Game) ZoomOriginal() {
	g.session.ZoomOriginal()
}

func (g *Game) Rotate() {
	g.session.Rotate()
}

func (g *Game) ToggleChrome() {
	g.session.ToggleChrome()
}

func (g *Game) ShowOverlayMessage(message string) {
	g.overlayMessage = message
	g.overlayMessageTime = time.Now()
}

// InputState implementation

func (g *Game) IsViewerOpen() bool {
	return g.session.IsOpen()
}

func (g *Game) IsZoomed() bool {
	return g.session.Zoomed()
}

func (g *Game) ThumbnailAt(x, y float64) (int, bool) {
	return g.page.ThumbnailAt(x, y)
}

// ChromeActionAt only reports controls that are showing
func (g *Game) ChromeActionAt(x, y float64) (string, bool) {
	if !g.session.IsOpen() || g.session.Closing() || g.session.UIHidden() {
		return "", false
	}
	return chromeActionAt(g.page.Viewport(), x, y)
}

// RenderState implementation

func (g *Game) Frame() viewer.Frame {
	return g.frame
}

func (g *Game) Page() *Page {
	return g.page
}

func (g *Game) GetFullImage(i int) *ebiten.Image {
	return g.images.Full(i)
}

func (g *Game) GetThumbImage(i int) *ebiten.Image {
	return g.images.Thumb(i)
}

func (g *Game) IsFullscreen() bool {
	return g.fullscreen
}

func (g *Game) IsShowingHelp() bool {
	return g.showingHelp
}

func (g *Game) GetKeybindings() map[string][]string {
	return g.config.Keybindings
}

func (g *Game) GetOverlayMessage() string {
	return g.overlayMessage
}

func (g *Game) GetOverlayMessageTime() time.Time {
	return g.overlayMessageTime
}

func (g *Game) GetConfigStatus() ConfigLoadResult {
	return g.configStatus
}

func (g *Game) GetFontSize() float64 {
	return 16
}
