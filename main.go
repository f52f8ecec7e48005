package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "lightbox [paths...]",
	Short: "Browse images as a thumbnail page with an immersive viewer",
	Long: `lightbox shows the images found in the given files, directories and
archives (zip, rar, 7z) as a thumbnail page. Opening a thumbnail flies it
into a full window viewer with swipe, pinch, zoom and rotate. A single
image argument opens the viewer on it with its directory as the gallery.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(args)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Print the active keybindings",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		result := loadConfigFromPath(configPath())
		printKeybindings(cmd.OutOrStdout(), result.Config.Keybindings)
	},
}

func init() {
	fs := flag.NewFlagSet("klog", flag.ExitOnError)
	klog.InitFlags(fs)
	rootCmd.PersistentFlags().AddGoFlagSet(fs)
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (default ~/.lightbox.yaml)")
	rootCmd.AddCommand(keysCmd)
}

func configPath() string {
	if configFile != "" {
		return configFile
	}
	return getConfigPath()
}

func printKeybindings(w io.Writer, keybindings map[string][]string) {
	descriptions := GetActionDescriptions()
	actions := make([]string, 0, len(keybindings))
	for action := range keybindings {
		actions = append(actions, action)
	}
	sort.Strings(actions)
	for _, action := range actions {
		fmt.Fprintf(w, "%-14s %-36s %s\n", action, strings.Join(keybindings[action], ", "), descriptions[action])
	}
}

func run(args []string) error {
	path := configPath()
	result := loadConfigFromPath(path)
	cfg := result.Config
	klog.Infof("config %s: %s (sort: %s)", path, result.Status, getSortMethodName(cfg.SortMethod))

	paths, start, err := collectGallery(args, cfg.SortMethod)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no image files specified")
	}
	klog.Infof("gallery has %d images", len(paths))

	if err := InitGraphics(); err != nil {
		return fmt.Errorf("loading font: %w", err)
	}

	g := NewGame(paths, start, result, path)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	updates := make(chan ConfigLoadResult, 1)
	if err := watchConfig(ctx, path, updates); err != nil {
		klog.Warningf("config changes will not be picked up: %v", err)
	} else {
		g.WatchConfig(updates)
	}

	if cfg.MetadataEnabled {
		meta := make(chan metadataResult, 64)
		go readMetadata(paths, meta)
		g.WatchMetadata(meta)
	}

	ebiten.SetWindowTitle("lightbox")
	ebiten.SetWindowSize(cfg.WindowWidth, cfg.WindowHeight)
	ebiten.SetWindowSizeLimits(minWidth, minHeight, -1, -1)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	return ebiten.RunGame(g)
}

func main() {
	defer klog.Flush()
	if err := rootCmd.Execute(); err != nil {
		klog.Exitf("lightbox: %v", err)
	}
}
