package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
	"k8s.io/klog/v2"

	"lightbox/internal/viewer"
)

// Window size constants
const (
	defaultWidth  = 1024
	defaultHeight = 768
	minWidth      = 400
	minHeight     = 300
)

const envPrefix = "LIGHTBOX_"

// MotionConfig is the motion section of the config file. Durations and
// delays are milliseconds.
type MotionConfig struct {
	OpenDuration         float64 `yaml:"open_duration"`
	CloseDuration        float64 `yaml:"close_duration"`
	OverlayOpenDuration  float64 `yaml:"overlay_open_duration"`
	OverlayCloseDuration float64 `yaml:"overlay_close_duration"`
	OverlayOpenDelay     float64 `yaml:"overlay_open_delay"`
	OverlayCloseDelay    float64 `yaml:"overlay_close_delay"`
	OpenEasing           string  `yaml:"open_easing"`
	CloseEasing          string  `yaml:"close_easing"`
}

func motionConfigFrom(ms viewer.MotionSettings) MotionConfig {
	return MotionConfig{
		OpenDuration:         ms.OpenDuration,
		CloseDuration:        ms.CloseDuration,
		OverlayOpenDuration:  ms.OverlayOpenDuration,
		OverlayCloseDuration: ms.OverlayCloseDuration,
		OverlayOpenDelay:     ms.OverlayOpenDelay,
		OverlayCloseDelay:    ms.OverlayCloseDelay,
		OpenEasing:           ms.OpenEasing,
		CloseEasing:          ms.CloseEasing,
	}
}

// Settings converts the section for the viewer
func (mc MotionConfig) Settings() viewer.MotionSettings {
	return viewer.MotionSettings{
		OpenDuration:         mc.OpenDuration,
		CloseDuration:        mc.CloseDuration,
		OverlayOpenDuration:  mc.OverlayOpenDuration,
		OverlayCloseDuration: mc.OverlayCloseDuration,
		OverlayOpenDelay:     mc.OverlayOpenDelay,
		OverlayCloseDelay:    mc.OverlayCloseDelay,
		OpenEasing:           mc.OpenEasing,
		CloseEasing:          mc.CloseEasing,
	}
}

type Config struct {
	WindowWidth     int                 `koanf:"window_width" yaml:"window_width"`
	WindowHeight    int                 `koanf:"window_height" yaml:"window_height"`
	ThumbnailSize   int                 `koanf:"thumbnail_size" yaml:"thumbnail_size"`
	GridGap         int                 `koanf:"grid_gap" yaml:"grid_gap"`
	CornerRadius    int                 `koanf:"corner_radius" yaml:"corner_radius"`
	ThumbnailFit    string              `koanf:"thumbnail_fit" yaml:"thumbnail_fit"`
	SortMethod      int                 `koanf:"sort_method" yaml:"sort_method"`
	CacheSize       int                 `koanf:"cache_size" yaml:"cache_size"`
	PreloadEnabled  bool                `koanf:"preload_enabled" yaml:"preload_enabled"`
	PreloadCount    int                 `koanf:"preload_count" yaml:"preload_count"`
	ReducedMotion   bool                `koanf:"reduced_motion" yaml:"reduced_motion"`
	Pointer         string              `koanf:"pointer" yaml:"pointer"`
	MetadataEnabled bool                `koanf:"metadata_enabled" yaml:"metadata_enabled"`
	Motion          MotionConfig        `koanf:"-" yaml:"motion"`
	Mouse           MouseSettings       `koanf:"mouse" yaml:"mouse"`
	Keybindings     map[string][]string `koanf:"keybindings" yaml:"keybindings"`
}

// ConfigLoadResult contains the result of loading configuration
type ConfigLoadResult struct {
	Config   Config
	HasError bool
	Warnings []string
	Status   string // "OK", "Default", "Warning", "Error"
}

func (r *ConfigLoadResult) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	klog.Warning(msg)
	r.Warnings = append(r.Warnings, msg)
	if r.Status == "OK" || r.Status == "Default" {
		r.Status = "Warning"
	}
}

func defaultConfig() Config {
	return Config{
		WindowWidth:     defaultWidth,
		WindowHeight:    defaultHeight,
		ThumbnailSize:   200,
		GridGap:         12,
		CornerRadius:    8,
		ThumbnailFit:    "cover",
		SortMethod:      SortNatural,
		CacheSize:       16,
		PreloadEnabled:  true,
		PreloadCount:    4,
		Pointer:         "auto",
		MetadataEnabled: true,
		Motion:          motionConfigFrom(viewer.DefaultMotionSettings()),
		Mouse:           GetDefaultMouseSettings(),
		Keybindings:     GetDefaultKeybindings(),
	}
}

func getConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".lightbox.yaml"
	}
	return filepath.Join(homeDir, ".lightbox.yaml")
}

func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// loadConfigFromPath reads the YAML file at configPath, overlays LIGHTBOX_*
// environment variables and validates the result. Problems never abort:
// offending values fall back to defaults and are reported as warnings.
func loadConfigFromPath(configPath string) ConfigLoadResult {
	config := defaultConfig()
	result := ConfigLoadResult{
		Config:   config,
		Warnings: []string{},
		Status:   "OK",
	}

	k := koanf.New(".")
	if _, err := os.Stat(configPath); err != nil {
		if !os.IsNotExist(err) {
			result.warn("cannot access config %s: %v", configPath, err)
		}
		result.Status = "Default"
	} else if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
		klog.Warningf("invalid config file %s, using defaults: %v", configPath, err)
		result.HasError = true
		result.Status = "Error"
		result.Warnings = append(result.Warnings, fmt.Sprintf("Invalid config file: %v", err))
		return result
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		result.warn("ignoring environment overrides: %v", err)
	}

	if err := k.UnmarshalWithConf("", &config, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		klog.Warningf("invalid config values in %s, using defaults: %v", configPath, err)
		result.HasError = true
		result.Status = "Error"
		result.Warnings = append(result.Warnings, fmt.Sprintf("Invalid config values: %v", err))
		return result
	}
	config.Motion = loadMotion(k, &result)

	validateConfig(&config, &result)
	result.Config = config
	return result
}

// loadMotion reads the motion section key by key so one malformed value
// only resets that value.
func loadMotion(k *koanf.Koanf, result *ConfigLoadResult) MotionConfig {
	mc := motionConfigFrom(viewer.DefaultMotionSettings())
	number := func(key string, fallback float64) float64 {
		path := "motion." + key
		if !k.Exists(path) {
			return fallback
		}
		switch v := k.Get(path).(type) {
		case int:
			return float64(v)
		case int64:
			return float64(v)
		case float64:
			return v
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return f
			}
		}
		result.warn("%s: %v is not a number of milliseconds", path, k.Get(path))
		return fallback
	}

	mc.OpenDuration = number("open_duration", mc.OpenDuration)
	mc.CloseDuration = number("close_duration", mc.CloseDuration)
	mc.OverlayOpenDuration = number("overlay_open_duration", mc.OverlayOpenDuration)
	mc.OverlayCloseDuration = number("overlay_close_duration", mc.OverlayCloseDuration)
	mc.OverlayOpenDelay = number("overlay_open_delay", mc.OverlayOpenDelay)
	mc.OverlayCloseDelay = number("overlay_close_delay", mc.OverlayCloseDelay)
	if k.Exists("motion.open_easing") {
		mc.OpenEasing = k.String("motion.open_easing")
	}
	if k.Exists("motion.close_easing") {
		mc.CloseEasing = k.String("motion.close_easing")
	}

	if _, warnings := mc.Settings().Resolve(); len(warnings) > 0 {
		for _, w := range warnings {
			result.warn("motion.%s", w)
		}
	}
	return mc
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(hi, v))
}

func validateConfig(config *Config, result *ConfigLoadResult) {
	if config.WindowWidth < minWidth {
		config.WindowWidth = defaultWidth
	}
	if config.WindowHeight < minHeight {
		config.WindowHeight = defaultHeight
	}

	config.ThumbnailSize = clampInt(config.ThumbnailSize, 64, 512)
	config.GridGap = clampInt(config.GridGap, 0, 64)
	config.CornerRadius = clampInt(config.CornerRadius, 0, 48)

	if config.ThumbnailFit != "cover" && config.ThumbnailFit != "contain" {
		result.warn("thumbnail_fit %q is not cover or contain", config.ThumbnailFit)
		config.ThumbnailFit = "cover"
	}

	if config.SortMethod < SortNatural || config.SortMethod > SortEntryOrder {
		config.SortMethod = SortNatural
	}

	if config.CacheSize < 1 {
		config.CacheSize = 16
	} else if config.CacheSize > 64 {
		config.CacheSize = 64
	}

	if config.PreloadCount < 1 {
		config.PreloadCount = 4
	} else if config.PreloadCount > 16 {
		config.PreloadCount = 16
	}

	switch config.Pointer {
	case "auto", "fine", "coarse":
	default:
		result.warn("pointer %q is not auto, fine or coarse", config.Pointer)
		config.Pointer = "auto"
	}

	validateMouseSettings(&config.Mouse)

	if config.Keybindings == nil {
		config.Keybindings = GetDefaultKeybindings()
		return
	}
	for action, keys := range GetDefaultKeybindings() {
		if _, exists := config.Keybindings[action]; !exists {
			config.Keybindings[action] = keys
		}
	}
	if err := validateKeybindings(config.Keybindings); err != nil {
		result.warn("invalid keybindings, using defaults: %v", err)
		config.Keybindings = GetDefaultKeybindings()
	}
}

func getSortMethodName(sortMethod int) string {
	return GetSortStrategy(sortMethod).Name()
}

func saveConfigToPath(config Config, configPath string) error {
	if config.WindowWidth < minWidth || config.WindowHeight < minHeight {
		return fmt.Errorf("refusing to save invalid window size %dx%d", config.WindowWidth, config.WindowHeight)
	}
	data, err := yamlv3.Marshal(config)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("writing config to %s: %w", configPath, err)
	}
	return nil
}

// watchConfig reloads the config file whenever it changes on disk and
// sends the result to out, replacing a reload the UI has not picked up
// yet. The watcher stops when ctx is done.
func watchConfig(ctx context.Context, configPath string, out chan ConfigLoadResult) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	dir := filepath.Dir(configPath)
	if err := w.Add(dir); err != nil {
		w.Close()
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	target := filepath.Clean(configPath)

	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				klog.V(1).Infof("config %s changed (%s)", configPath, event.Op)
				sendLatest(out, loadConfigFromPath(configPath))
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				klog.Warningf("config watcher: %v", err)
			}
		}
	}()
	return nil
}

// sendLatest delivers result, discarding whatever is still queued so the
// newest reload always wins. out must have a single sender.
func sendLatest(out chan ConfigLoadResult, result ConfigLoadResult) {
	for {
		select {
		case out <- result:
			return
		default:
		}
		select {
		case stale := <-out:
			klog.V(1).Infof("superseded config reload (%s)", stale.Status)
		default:
		}
	}
}
