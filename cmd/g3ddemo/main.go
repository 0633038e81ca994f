// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command g3ddemo renders a grid of cubes headlessly and reports frame
// statistics.
package main

import (
	"errors"
	"flag"
	"image/png"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/gogpu/g3d"
	"github.com/gogpu/g3d/backend/software"
	_ "github.com/gogpu/g3d/backend/wgpu" // Register the wgpu backend.
	"github.com/gogpu/g3d/config"
)

func main() {
	var (
		width    = flag.Int("width", 0, "surface width (0 takes the settings window size)")
		height   = flag.Int("height", 0, "surface height (0 takes the settings window size)")
		frames   = flag.Int("frames", 300, "frames to render")
		grid     = flag.Int("grid", 8, "cubes per grid side")
		backend  = flag.String("backend", "", "backend name (empty selects the best available)")
		settings = flag.String("config", "", "settings file, created with defaults if missing")
		output   = flag.String("output", "", "write the last presented frame to this PNG file")
		workers  = flag.Int("cull-workers", 0, "culling goroutines (0 culls inline, -1 uses GOMAXPROCS)")
		verbose  = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	g3d.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	w, h, err := windowSize(*settings, *width, *height)
	if err != nil {
		log.Fatalf("Failed to read settings: %v", err)
	}
	surface := software.NewSurface(w, h)
	sc := gridScene(*grid, float32(w)/float32(h))

	opts := []g3d.Option{
		g3d.WithFixedUpdate(func(step time.Duration) {
			sc.Camera.RotateWorldY(float32(step.Seconds()) * 0.5)
		}),
		g3d.WithCullWorkers(*workers),
	}
	if *backend != "" {
		opts = append(opts, g3d.WithBackend(*backend))
	}
	if *settings != "" {
		opts = append(opts, g3d.WithSettingsFile(*settings))
	}

	engine, err := g3d.New(surface, sc, opts...)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer engine.Close()

	start := time.Now()
	for i := 0; i < *frames; i++ {
		if err := engine.Render(); err != nil {
			log.Fatalf("Frame %d: %v", i, err)
		}
	}
	if err := engine.Flush(); err != nil {
		log.Fatalf("Flush: %v", err)
	}
	elapsed := time.Since(start)

	r := engine.Renderer()
	log.Printf("Rendered %d frames on %s (%s) in %v, %d visible instances, caption %q\n",
		r.Frames(), engine.Backend(), engine.Context().Adapter().Name, elapsed.Round(time.Millisecond),
		r.VisibleInstances(), surface.Caption())

	if *output != "" {
		if err := savePNG(*output, surface); err != nil {
			log.Fatalf("Failed to save: %v", err)
		}
		log.Printf("Frame saved to %s\n", *output)
	}
}

// windowSize returns the surface size: the flags when set, else the
// window size of the settings file, else the default settings.
func windowSize(path string, width, height int) (int, int, error) {
	s := config.Default()
	if path != "" {
		read, err := config.Read(path)
		switch {
		case err == nil:
			s = *read
		case !errors.Is(err, os.ErrNotExist):
			return 0, 0, err
		}
	}
	w, h := s.WindowSize()
	if width > 0 {
		w = width
	}
	if height > 0 {
		h = height
	}
	return w, h, nil
}

func savePNG(path string, surface *software.Surface) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, surface.Image()); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
