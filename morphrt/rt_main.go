package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/gekko3d/glyphfield"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	renderer := flag.String("renderer", string(glyphfield.RendererWGPU), "Renderer: wgpu, terminal or headless")
	fallback := flag.String("fallback", string(glyphfield.RendererTerminal), "Renderer to use when the primary is unavailable (empty to disable)")
	text := flag.String("text", "AR", "Text the particles morph into")
	count := flag.Int("count", 0, "Particle count (0 picks one from the width)")
	width := flag.Int("width", glyphfield.DefaultWidth, "Window width")
	height := flag.Int("height", glyphfield.DefaultHeight, "Window height")
	preset := flag.String("preset", string(glyphfield.PresetMorph), "Preset: morph, ambient or organic")
	font := flag.String("font", "", "TTF/OTF font file (default Go Bold)")
	debug := flag.Bool("debug", false, "Enable debug logging and per-second stats")
	flag.Parse()

	logger := glyphfield.NewDefaultLogger("morphrt", *debug)

	cfg := glyphfield.DefaultConfig()
	cfg.Renderer = glyphfield.RendererName(*renderer)
	cfg.Fallback = glyphfield.RendererName(*fallback)
	cfg.Text = *text
	cfg.Count = *count
	cfg.Width = *width
	cfg.Height = *height
	cfg.Preset = glyphfield.Preset(*preset)
	cfg.FontPath = *font
	cfg.Debug = *debug
	cfg.Logger = logger
	cfg.OnFallback = func(reason error) {
		fmt.Fprintf(os.Stderr, "Animation unavailable: %v\n", reason)
	}

	engine, err := glyphfield.NewEngine(cfg)
	if err != nil {
		logger.Errorf("%v", err)
		os.Exit(2)
	}
	if engine.Degraded() {
		os.Exit(1)
	}
	logger.Infof("Engine %s on %s", engine.ID(), engine.Renderer())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine.Start()
	if err := engine.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}
