package main

import (
	"reflect"
	"testing"
)

func TestExecuteAction(t *testing.T) {
	tests := []struct {
		action string
		open   bool
		want   []string
	}{
		{"next", true, []string{"next"}},
		{"next", false, nil},
		{"close", true, []string{"close"}},
		{"close", false, nil},
		{"rotate", true, []string{"rotate"}},
		{"zoom_original", true, []string{"zoom_original"}},
		{"toggle_chrome", false, nil},
		{"scroll_down", false, []string{"page 1"}},
		{"scroll_up", false, []string{"page -1"}},
		{"scroll_down", true, nil},
		{"help", true, []string{"help"}},
		{"help", false, []string{"help"}},
		{"fullscreen", true, []string{"fullscreen"}},
		{"quit", false, []string{"exit"}},
		{"unknown", true, nil},
	}
	for _, tt := range tests {
		actions := &fakeActions{}
		state := &fakeState{open: tt.open}
		applied := globalActionExecutor.ExecuteAction(tt.action, actions, state)
		if applied != (tt.want != nil) {
			t.Errorf("ExecuteAction(%q, open %v) = %v, want %v", tt.action, tt.open, applied, tt.want != nil)
		}
		if !reflect.DeepEqual(actions.calls, tt.want) {
			t.Errorf("ExecuteAction(%q, open %v) ran %v, want %v", tt.action, tt.open, actions.calls, tt.want)
		}
	}
}

func TestActionDefinitions(t *testing.T) {
	seen := make(map[string]bool)
	for _, def := range actionDefinitions {
		if seen[def.Name] {
			t.Errorf("action %q defined twice", def.Name)
		}
		seen[def.Name] = true
		if len(def.Keys) == 0 {
			t.Errorf("action %q has no default keys", def.Name)
		}
	}
	for action := range viewerActions {
		if !seen[action] {
			t.Errorf("viewer action %q has no definition", action)
		}
	}
	if err := validateKeybindings(GetDefaultKeybindings()); err != nil {
		t.Errorf("default keybindings are invalid: %v", err)
	}
}
