package main

// ActionDefinition defines an action with its default keybindings and description
type ActionDefinition struct {
	Name        string
	Keys        []string
	Description string
}

// actionDefinitions contains all action definitions with default keybindings and descriptions
var actionDefinitions = []ActionDefinition{
	{"close", []string{"Escape"}, "Close the viewer"},
	{"quit", []string{"KeyQ"}, "Quit application"},
	{"next", []string{"ArrowRight"}, "Next image"},
	{"previous", []string{"ArrowLeft"}, "Previous image"},
	{"zoom_in", []string{"Equal", "Shift+Equal", "NumpadAdd"}, "Zoom in"},
	{"zoom_out", []string{"Minus", "Shift+Minus", "NumpadSubtract"}, "Zoom out"},
	{"zoom_original", []string{"Key1"}, "Toggle original size"},
	{"rotate", []string{"KeyR"}, "Rotate 90 degrees clockwise"},
	{"toggle_chrome", []string{"KeyF"}, "Show/hide viewer controls"},
	{"fullscreen", []string{"Enter"}, "Toggle fullscreen"},
	{"help", []string{"KeyH"}, "Show/hide help"},
	{"scroll_down", []string{"ArrowDown", "PageDown", "Space"}, "Scroll the gallery down"},
	{"scroll_up", []string{"ArrowUp", "PageUp"}, "Scroll the gallery up"},
}

// viewerActions only apply while the viewer is open; the rest of the
// gallery actions only apply while it is closed.
var viewerActions = map[string]bool{
	"close":         true,
	"next":          true,
	"previous":      true,
	"zoom_in":       true,
	"zoom_out":      true,
	"zoom_original": true,
	"rotate":        true,
	"toggle_chrome": true,
}

// ActionExecutor is the single place actions are mapped onto InputActions,
// shared by the keyboard and the on-screen controls
type ActionExecutor struct{}

// NewActionExecutor creates a new ActionExecutor instance
func NewActionExecutor() *ActionExecutor {
	return &ActionExecutor{}
}

// ExecuteAction runs action and reports whether it applied in the current state
func (ae *ActionExecutor) ExecuteAction(action string, inputActions InputActions, inputState InputState) bool {
	open := inputState.IsViewerOpen()
	if viewerActions[action] && !open {
		return false
	}

	switch action {
	case "close":
		inputActions.CloseViewer()
	case "quit":
		inputActions.Exit()
	case "next":
		inputActions.NavigateNext()
	case "previous":
		inputActions.NavigatePrevious()
	case "zoom_in":
		inputActions.ZoomIn()
	case "zoom_out":
		inputActions.ZoomOut()
	case "zoom_original":
		inputActions.ZoomOriginal()
	case "rotate":
		inputActions.Rotate()
	case "toggle_chrome":
		inputActions.ToggleChrome()
	case "fullscreen":
		inputActions.ToggleFullscreen()
	case "help":
		inputActions.ToggleHelp()
	case "scroll_down":
		if open {
			return false
		}
		inputActions.ScrollPage(1)
	case "scroll_up":
		if open {
			return false
		}
		inputActions.ScrollPage(-1)
	default:
		return false
	}
	return true
}

// globalActionExecutor is the global instance of ActionExecutor used throughout the application
var globalActionExecutor = NewActionExecutor()

// GetActionDescriptions returns a map of action names to their descriptions
func GetActionDescriptions() map[string]string {
	descriptions := make(map[string]string)
	for _, action := range actionDefinitions {
		descriptions[action.Name] = action.Description
	}
	return descriptions
}

// GetDefaultKeybindings returns a map of action names to their default keybindings
func GetDefaultKeybindings() map[string][]string {
	keybindings := make(map[string][]string)
	for _, action := range actionDefinitions {
		keybindings[action.Name] = append([]string(nil), action.Keys...)
	}
	return keybindings
}
