package main

import (
	"flag"
	"log/slog"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/pkg/profile"

	"github.com/pthm-cable/meadow/config"
	"github.com/pthm-cable/meadow/render"
	"github.com/pthm-cable/meadow/sim"
	"github.com/pthm-cable/meadow/telemetry"
)

const headlessDT = 1.0 / 60.0

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output window stats via slog")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int64("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	stepsPerUpdate := flag.Int("steps-per-update", 1, "Simulation ticks per update call (higher = faster headless runs)")
	profileMode := flag.String("profile", "", "Write a profile: cpu or mem")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	switch *profileMode {
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	case "mem":
		defer profile.Start(profile.MemProfileAllocs, profile.ProfilePath(".")).Stop()
	case "":
	default:
		slog.Error("unknown profile mode", "mode", *profileMode)
		os.Exit(1)
	}

	output, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to set up output", "error", err)
		os.Exit(1)
	}
	defer output.Close()
	if err := output.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config snapshot", "error", err)
		os.Exit(1)
	}

	if *headless {
		runHeadless(*seed, *maxTicks, *stepsPerUpdate, *logStats, output)
		return
	}
	runGraphical(*seed, *maxTicks, *logStats, output)
}

// flushWindows writes any completed stats window to the CSV output and,
// when enabled, to the structured log.
func flushWindows(s *sim.Sim, logStats bool, output *telemetry.OutputManager) {
	if !s.ShouldFlushStats() {
		return
	}

	stats := s.FlushStats()
	if logStats {
		s.LogStats(stats)
		s.LogPerf()
	}
	if err := output.WriteTelemetry(stats); err != nil {
		slog.Error("failed to write telemetry", "error", err)
	}
	if err := output.WritePerf(s.PerfRecords()); err != nil {
		slog.Error("failed to write perf", "error", err)
	}
}

// runHeadless drives the simulation with a fixed step and no renderer.
func runHeadless(seed, maxTicks int64, stepsPerUpdate int, logStats bool, output *telemetry.OutputManager) {
	s := sim.New(sim.Options{Seed: seed})

	slog.Info("starting headless simulation",
		"seed", seed,
		"run_id", output.RunID(),
		"max_ticks", maxTicks,
		"steps_per_update", stepsPerUpdate,
	)

	for {
		for i := 0; i < stepsPerUpdate; i++ {
			s.Step(headlessDT)
		}
		flushWindows(s, logStats, output)

		if maxTicks > 0 && s.Tick() >= maxTicks {
			slog.Info("max ticks reached", "tick", s.Tick())
			return
		}
	}
}

// runGraphical drives the simulation from the raylib frame clock.
func runGraphical(seed, maxTicks int64, logStats bool, output *telemetry.OutputManager) {
	cfg := config.Cfg()

	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Meadow")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	renderer := render.NewRenderer()
	hud := render.NewHUD()
	s := sim.New(sim.Options{Seed: seed, Sink: renderer})

	paused := false
	speed := 1

	for !rl.WindowShouldClose() {
		if rl.IsKeyPressed(rl.KeySpace) {
			paused = !paused
		}

		if !paused {
			dt := rl.GetFrameTime()
			// Cap dt so a dragged window or debugger pause cannot
			// teleport entities across the map.
			if dt > 0.1 {
				dt = 0.1
			}
			for i := 0; i < speed; i++ {
				s.Step(dt)
			}
			flushWindows(s, logStats, output)
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.Color{R: 18, G: 22, B: 18, A: 255})
		renderer.Draw()

		stats := s.PopulationCounts()
		paused, speed = hud.Draw(render.HUDData{
			Title:      "Meadow",
			Producers:  stats[0],
			Herbivores: stats[1],
			Carnivores: stats[2],
			Tick:       s.Tick(),
			Speed:      speed,
			Paused:     paused,
		})
		rl.EndDrawing()

		if maxTicks > 0 && s.Tick() >= maxTicks {
			break
		}
	}
}
