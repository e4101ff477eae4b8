// Command fabricsim grows a tensegrity seed headlessly, recording frame stats
// to SQLite and geometry to a compressed trace.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	slogmulti "github.com/samber/slog-multi"
	"gopkg.in/yaml.v3"

	"github.com/elastic-interval/pretenst-sub000/internal/engine"
	"github.com/elastic-interval/pretenst-sub000/internal/fabric"
	"github.com/elastic-interval/pretenst-sub000/internal/persistence"
	"github.com/elastic-interval/pretenst-sub000/internal/persistence/trace"
	"github.com/elastic-interval/pretenst-sub000/internal/physics"
	"github.com/elastic-interval/pretenst-sub000/internal/phi"
	"github.com/elastic-interval/pretenst-sub000/internal/seed"
	"github.com/elastic-interval/pretenst-sub000/internal/world"
)

type featureFlags map[physics.Feature]float32

func (f featureFlags) String() string {
	parts := make([]string, 0, len(f))
	for feature, factor := range f {
		parts = append(parts, fmt.Sprintf("%s=%g", feature, factor))
	}
	return strings.Join(parts, ",")
}

// Set parses name=factor.
func (f featureFlags) Set(v string) error {
	name, value, ok := strings.Cut(v, "=")
	if !ok {
		return fmt.Errorf("want name=factor, got %q", v)
	}
	feature, err := physics.ParseFeature(name)
	if err != nil {
		return err
	}
	factor, err := strconv.ParseFloat(value, 32)
	if err != nil {
		return fmt.Errorf("feature %s: %w", name, err)
	}
	f[feature] = float32(factor)
	return nil
}

type sizeFlag struct {
	name  string
	value uint
}

// checkSizeFlags rejects values the kernel's 16-bit counts cannot hold.
// fabric.ErrorIndex itself is reserved.
func checkSizeFlags(flags []sizeFlag) error {
	for _, f := range flags {
		if f.value >= uint(fabric.ErrorIndex) {
			return fmt.Errorf("-%s %d: must be below %d", f.name, f.value, fabric.ErrorIndex)
		}
	}
	return nil
}

func main() {
	var (
		configPath = flag.String("config", "", "physics config YAML (defaults when empty)")
		dataDir    = flag.String("data", "data", "directory for the database, trace and log file")
		frames     = flag.Uint64("frames", 0, "stop after this many frames (0 = until interrupted)")
		ticks      = flag.Uint("ticks", 60, "kernel ticks per frame")
		speed      = flag.Float64("speed", 1, "frame rate multiplier, 0 pauses")
		surfSeed   = flag.Int64("seed", 0, "surface noise seed (0 = random)")
		classify   = flag.Bool("terrain", false, "classify joints over water by nearest surface spot")
		maxJoints  = flag.Uint("joints", 64, "joint capacity per instance")
		maxIntvls  = flag.Uint("intervals", 128, "interval capacity per instance")
		maxFaces   = flag.Uint("faces", 32, "face capacity per instance")
		traceEvery = flag.Uint64("trace-every", 10, "write geometry every N frames (0 = off)")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	features := featureFlags{}
	flag.Var(features, "feature", "scale a physics feature, name=factor (repeatable)")
	flag.Parse()

	if err := checkSizeFlags([]sizeFlag{
		{"joints", *maxJoints},
		{"intervals", *maxIntvls},
		{"faces", *maxFaces},
		{"ticks", *ticks},
	}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if err := os.MkdirAll(*dataDir, 0o755); err != nil {
		fmt.Fprintln(os.Stderr, "data dir:", err)
		os.Exit(1)
	}

	// ── Logging ───────────────────────────────────────────────────────
	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logFile, err := os.OpenFile(filepath.Join(*dataDir, "fabricsim.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintln(os.Stderr, "log file:", err)
		os.Exit(1)
	}
	defer logFile.Close()
	logger := slog.New(slogmulti.Fanout(
		slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}),
		slog.NewJSONHandler(logFile, &slog.HandlerOptions{Level: slog.LevelDebug}),
	))
	slog.SetDefault(logger)

	slog.Info("fabricsim: tensegrity growth", "phi", phi.Phi, "bar_span", fmt.Sprintf("%.5f", phi.BarSpan))

	// ── Physics ───────────────────────────────────────────────────────
	cfg := physics.Default()
	if *configPath != "" {
		if cfg, err = physics.Load(*configPath); err != nil {
			slog.Error("failed to load config", "error", err)
			os.Exit(1)
		}
	}
	cfg.ClassifyTerrain = cfg.ClassifyTerrain || *classify

	// ── Surface ───────────────────────────────────────────────────────
	gen := world.DefaultGenConfig()
	gen.Seed = *surfSeed
	if gen.Seed == 0 {
		gen.Seed = rand.Int63()
	}
	surface := world.GenerateSurface(gen)
	for t, c := range surface.TerrainCounts() {
		slog.Info("terrain", "type", t.String(), "spots", c)
	}

	// ── Kernel ────────────────────────────────────────────────────────
	dims := fabric.Dimensions{
		MaxJoints:    uint16(*maxJoints),
		MaxIntervals: uint16(*maxIntvls),
		MaxFaces:     uint16(*maxFaces),
		MaxInstances: 2,
	}
	k, err := fabric.New(dims, cfg, surface)
	if err != nil {
		slog.Error("failed to create kernel", "error", err)
		os.Exit(1)
	}
	layout := k.Layout()
	slog.Info("arena allocated",
		"instance", humanize.Bytes(uint64(layout.InstanceBytes)),
		"arena", humanize.Bytes(uint64(layout.ArenaBytes())),
		"instances", dims.MaxInstances,
	)
	for feature, factor := range features {
		value, err := k.SetFeature(feature, factor)
		if err != nil {
			slog.Error("feature refused", "feature", feature.String(), "factor", factor, "error", err)
			os.Exit(1)
		}
		slog.Info("feature scaled", "feature", feature.String(), "factor", factor, "value", value)
	}

	s, err := seed.Build(k, seed.DefaultOptions())
	if err != nil {
		slog.Error("failed to build seed", "error", err)
		os.Exit(1)
	}
	slog.Info("seed planted", "joints", k.JointCount(), "intervals", k.IntervalCount(), "faces", k.FaceCount(), "muscles", len(s.Muscles))

	// ── Telemetry ─────────────────────────────────────────────────────
	dbPath := filepath.Join(*dataDir, "fabric.db")
	db, err := persistence.Open(dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	cfgYAML, err := yaml.Marshal(k.Config())
	if err != nil {
		slog.Error("failed to encode config", "error", err)
		os.Exit(1)
	}
	run := persistence.NewRun(gen.Seed, string(cfgYAML))
	if err := db.SaveRun(run); err != nil {
		slog.Error("failed to record run", "error", err)
		os.Exit(1)
	}
	slog.Info("run started", "run", run.ID, "db", dbPath)

	var tracer *trace.Writer
	if *traceEvery > 0 {
		tracer = trace.NewWriter(filepath.Join(*dataDir, "trace"), run.ID)
		defer tracer.Close()
	}

	// ── Simulation ────────────────────────────────────────────────────
	sim, err := engine.NewSimulation(k, 0, 1, uint16(*ticks))
	if err != nil {
		slog.Error("failed to start simulation", "error", err)
		os.Exit(1)
	}
	sim.Program = []fabric.Direction{fabric.DirectionForward, fabric.DirectionForward, fabric.DirectionLeft, fabric.DirectionForward, fabric.DirectionRight}

	eng := engine.NewEngine()
	eng.Speed = *speed
	eng.Limit = *frames

	eng.OnFrame = func(frame uint64) {
		sim.Frame(frame)
		if tracer != nil && frame%*traceEvery == 0 {
			if err := tracer.Write(trace.Capture(k, run.ID, frame)); err != nil {
				slog.Error("trace write failed", "error", err)
			}
		}
	}
	eng.OnReport = sim.Report
	eng.OnCheckpoint = func(frame uint64) {
		if err := sim.Snapshot(frame); err != nil {
			slog.Warn("snapshot skipped", "error", err)
		}
		if err := db.SaveCheckpoint(run.ID, sim, frame); err != nil {
			slog.Error("checkpoint save failed", "error", err)
		}
		if tracer != nil {
			if err := tracer.Flush(); err != nil {
				slog.Error("trace flush failed", "error", err)
			}
		}
	}

	// ── Start ─────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		eng.Stop()
	}()

	fmt.Printf("\nGrowing run %s (Ctrl+C to stop)\n", run.ID)
	eng.Run()

	slog.Info("final save...")
	if err := db.SaveCheckpoint(run.ID, sim, eng.Frame); err != nil {
		slog.Error("final save failed", "error", err)
	}

	fmt.Printf("Stopped at frame %d (%s): %s, %d wraps, %d restores.\n",
		eng.Frame, engine.FrameTime(eng.Frame), sim.Phase, sim.Stats.Wraps, sim.Stats.Restores)
}
