package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Carmen-Shannon/oxy-blend/engine/animator"
	"github.com/Carmen-Shannon/oxy-blend/engine/config"
	"github.com/Carmen-Shannon/oxy-blend/engine/diagnostics"
	"github.com/Carmen-Shannon/oxy-blend/engine/loader"
	"github.com/Carmen-Shannon/oxy-blend/engine/logging"
	"github.com/Carmen-Shannon/oxy-blend/engine/model"
)

func main() {
	configFile := flag.String("config", "", "Path to a settings file (json, yaml or toml)")
	docFile := flag.String("doc", "", "Path to the action document to bake")
	workers := flag.Int("workers", 0, "Number of actions baked concurrently (default: from settings)")
	noColor := flag.Bool("no-color", false, "Disable colored log output")
	poseAt := flag.Float64("pose", -1, "Print every clip's local pose sampled at this time in seconds")
	flag.Parse()

	if *docFile == "" {
		fmt.Fprintln(os.Stderr, "Error: -doc is required")
		flag.Usage()
		os.Exit(2)
	}

	settings, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *workers > 0 {
		settings.Workers = *workers
	}

	logger := logging.NewConsole(os.Stderr, settings.LogLevel, *noColor)
	logger.Info().
		Int("fps", settings.FPS).
		Bool("fixUpAxis", settings.FixUpAxis).
		Int("blenderVersion", settings.BlenderVersion).
		Int("workers", settings.Workers).
		Msg("Loaded settings")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rec := diagnostics.NewRecorder()
	l := loader.NewLoader(loader.BackendTypeDocument,
		loader.WithSettings(settings),
		loader.WithLogger(logger),
		loader.WithSink(diagnostics.Multi(rec, diagnostics.NewLogSink(logging.Sub(logger, "diagnostics")))),
	)

	m, report, err := l.Load(ctx, *docFile)
	if err != nil {
		logger.Error().Err(err).Str("path", *docFile).Msg("Failed to bake document")
		os.Exit(1)
	}

	kind := "spatial"
	if m.Skinned() {
		kind = fmt.Sprintf("skeleton (%d bones)", len(m.Skeleton().Bones))
	}
	fmt.Printf("%s: %s, %d clips\n", m.Name(), kind, m.AnimationCount())
	for _, clip := range m.Animations() {
		fmt.Printf("  %-24s %3d channels %6d keys %8.3fs\n", clip.Name, len(clip.Channels), clip.KeyframeCount(), clip.Duration)
	}
	for _, d := range rec.Diagnostics() {
		fmt.Printf("  %s\n", d)
	}
	if err := report.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Skipped: %v\n", err)
	}
	fmt.Printf("%d tracks, %d frames, %d warnings\n", report.Tracks, report.Frames, report.Warnings())

	if *poseAt >= 0 {
		printPoses(m, float32(*poseAt))
	}
}

// printPoses plays each clip on a preview animator and prints the sampled local transforms.
func printPoses(m model.Model, at float32) {
	a := animator.NewAnimator(animator.WithModel(m), animator.WithInstances(1))
	names := []string{m.Name()}
	if m.Skinned() {
		names = make([]string, len(m.Skeleton().Bones))
		for i, b := range m.Skeleton().Bones {
			names[i] = b.Name
		}
	}
	for i, clip := range m.Animations() {
		a.PlayAnimation(0, i, false)
		a.SetAnimationTime(0, at)
		fmt.Printf("%s @ %.3fs\n", clip.Name, at)
		for j, tr := range a.Pose(0) {
			fmt.Printf("  %-24s %s\n", names[j], tr)
		}
	}
}
