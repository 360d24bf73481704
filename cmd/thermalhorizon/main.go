package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"thermalhorizon/internal/evaluation"
	"thermalhorizon/internal/log"
	"thermalhorizon/internal/models"
	"thermalhorizon/internal/templates"
	"thermalhorizon/pkg/balance"
	"thermalhorizon/pkg/config"
	"thermalhorizon/pkg/filter"
	"thermalhorizon/pkg/thermal"
	"thermalhorizon/pkg/visualization"
)

// signTolerance is the magnitude below which a signal counts as zero when
// comparing a reading with a scenario's expected signs.
const signTolerance = 0.1

func main() {
	// Parse command line arguments
	configPath := flag.String("config", "thermalhorizon.yaml", "YAML configuration file (defaults are used if missing)")
	writeConfig := flag.String("write-config", "", "Write a default configuration file to this path and exit")
	scenarios := flag.String("scenario", "all", "Comma separated scenario names, or \"all\"")
	list := flag.Bool("list", false, "List the available scenarios and exit")
	threshold := flag.Int("threshold", 0, "Earth/sky threshold in Celsius (overrides config)")
	magnitude := flag.Int("noise", 0, "Additive noise magnitude for robustness trials (overrides config)")
	hot := flag.Float64("hot", 0, "Probability of a hot pixel in robustness trials (overrides config)")
	cold := flag.Float64("cold", 0, "Probability of a cold pixel in robustness trials (overrides config)")
	seed := flag.Uint64("seed", 0, "Random seed for robustness trials (overrides config)")
	trials := flag.Int("trials", 0, "Robustness trials per scenario, 0 disables (overrides config)")
	median := flag.Int("median", 0, "Median pre-filter radius, 0 disables (overrides config)")
	workers := flag.Int("workers", 0, "Goroutines used to scan large frames (overrides config)")
	plotDir := flag.String("plot-dir", "", "Directory for frame images and profile plots (overrides config)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if *writeConfig != "" {
		if err := config.CreateDefaultConfigFile(*writeConfig); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Default configuration written to %s\n", *writeConfig)
		return
	}

	if *list {
		for _, s := range templates.Scenarios() {
			fmt.Printf("%-30s %s\n", s.Name, s.Description)
		}
		return
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Flags only override the config when given explicitly
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "threshold":
			cfg.Estimator.Threshold = int8(*threshold)
		case "noise":
			cfg.Noise.Magnitude = *magnitude
		case "hot":
			cfg.Noise.HotProbability = *hot
		case "cold":
			cfg.Noise.ColdProbability = *cold
		case "seed":
			cfg.Noise.Seed = *seed
		case "trials":
			cfg.Noise.Trials = *trials
		case "median":
			cfg.Estimator.MedianRadius = *median
		case "workers":
			cfg.Estimator.Workers = *workers
		case "plot-dir":
			cfg.Output.PlotDir = *plotDir
		case "debug":
			cfg.Output.Verbose = *debug
		}
	})
	if *threshold < -128 || *threshold > 127 {
		fmt.Fprintf(os.Stderr, "Threshold %d is outside the sensor range [-128, 127]\n", *threshold)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	if err := log.Init(cfg.Output.Verbose); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	selected, err := selectScenarios(*scenarios)
	if err != nil {
		log.Fatalf("%v", err)
	}

	runID := uuid.New()
	log.Infow("starting run",
		"run_id", runID.String(),
		"scenarios", len(selected),
		"threshold", cfg.Estimator.Threshold,
		"workers", cfg.Estimator.Workers,
		"median_radius", cfg.Estimator.MedianRadius,
	)

	estimator := &balance.Estimator{
		Workers:            cfg.Estimator.Workers,
		ParallelMinSamples: cfg.Estimator.ParallelMinSamples,
	}

	startTime := time.Now()
	failures := 0

	fmt.Println("================================")
	fmt.Println("THERMAL HORIZON ATTITUDE BALANCE")
	fmt.Printf("Run %s\n", runID)
	fmt.Println("================================")
	fmt.Printf("%-30s %14s %10s %6s %8s  %s\n", "SCENARIO", "PERPENDICULAR", "PARALLEL", "EARTH", "FLAGS", "CHECK")

	for _, s := range selected {
		// Scenario frames carry their own threshold; the configured one
		// replaces it so operators can probe threshold sensitivity.
		s.Threshold = cfg.Estimator.Threshold

		frame := s.Frame
		if cfg.Estimator.MedianRadius > 0 {
			if frame, err = filter.Median(frame, cfg.Estimator.MedianRadius); err != nil {
				log.Fatalf("median filter failed for %s: %v", s.Name, err)
			}
		}

		res, err := estimator.EstimateFrame(frame, s.Threshold)
		if err != nil {
			log.Fatalf("estimate failed for %s: %v", s.Name, err)
		}

		problems := s.Expect.Mismatches(res.Perpendicular, res.Parallel, res.Degenerate, res.Inverted, signTolerance)
		check := "ok"
		if len(problems) > 0 {
			check = strings.Join(problems, "; ")
			failures++
			log.Warnw("unexpected reading", "run_id", runID.String(), "scenario", s.Name, "problems", problems)
		}
		fmt.Printf("%-30s %14.3f %10.3f %6d %8s  %s\n",
			s.Name, res.Perpendicular, res.Parallel, res.EarthPixels, flags(res), check)
		log.Debugw("estimated", "scenario", s.Name, "result", res.String())

		if cfg.Output.PlotDir != "" {
			if err := savePlots(cfg.Output.PlotDir, s, frame, estimator, res); err != nil {
				log.Warnw("failed to save plots", "scenario", s.Name, "error", err)
			}
		}
	}

	if cfg.Noise.Trials > 0 {
		fmt.Printf("\nRobustness: %d trials, noise +/-%d, hot %.3f, cold %.3f, seed %d\n",
			cfg.Noise.Trials, cfg.Noise.Magnitude, cfg.Noise.HotProbability, cfg.Noise.ColdProbability, cfg.Noise.Seed)
		fmt.Printf("%-30s %10s %10s %10s %10s %6s %6s %6s\n", "SCENARIO", "MEAN PERP", "MEAN PAR", "RMSE PERP", "RMSE PAR", "DEGEN", "FLIPS", "INV")

		perturb := evaluation.Chain(
			evaluation.Uniform(cfg.Noise.Magnitude),
			evaluation.SaltAndPepper(cfg.Noise.HotProbability, cfg.Noise.ColdProbability),
		)
		for _, s := range selected {
			summary, err := evaluation.Run(s.Frame, perturb, evaluation.Params{
				Threshold:    cfg.Estimator.Threshold,
				Trials:       cfg.Noise.Trials,
				Seed:         cfg.Noise.Seed,
				MedianRadius: cfg.Estimator.MedianRadius,
				Estimator:    estimator,
			})
			if err != nil {
				log.Fatalf("robustness run failed for %s: %v", s.Name, err)
			}
			fmt.Printf("%-30s %10.3f %10.3f %10.3f %10.3f %6d %6d %6d\n", s.Name,
				summary.MeanPerpendicular, summary.MeanParallel,
				summary.RMSEPerpendicular, summary.RMSEParallel,
				summary.Degenerate, summary.SignFlips, summary.Inverted)
			log.Infow("robustness summary",
				"run_id", runID.String(),
				"scenario", s.Name,
				"mean_perpendicular", summary.MeanPerpendicular,
				"mean_parallel", summary.MeanParallel,
				"max_perpendicular", summary.MaxPerpendicular,
				"max_parallel", summary.MaxParallel,
				"sign_flips", summary.SignFlips,
				"inverted_changes", summary.Inverted,
			)
		}
	}

	fmt.Printf("\nProcessed %d scenarios in %s\n", len(selected), time.Since(startTime))
	if failures > 0 {
		log.Errorw("scenarios with unexpected readings", "run_id", runID.String(), "count", failures)
		log.Sync()
		os.Exit(1)
	}
}

// selectScenarios resolves the -scenario flag
func selectScenarios(arg string) ([]models.Scenario, error) {
	if arg == "" || arg == "all" {
		return templates.Scenarios(), nil
	}

	names := strings.Split(arg, ",")
	for i := range names {
		names[i] = strings.TrimSpace(names[i])
	}
	if unknown := templates.Unknown(names); len(unknown) > 0 {
		return nil, fmt.Errorf("unknown scenarios: %s", strings.Join(unknown, ", "))
	}

	out := make([]models.Scenario, 0, len(names))
	for _, n := range names {
		s, _ := templates.Lookup(n)
		out = append(out, s)
	}
	return out, nil
}

func flags(res balance.Result) string {
	var f []string
	if res.Degenerate {
		f = append(f, "D")
	}
	if res.Inverted {
		f = append(f, "I")
	}
	if len(f) == 0 {
		return "-"
	}
	return strings.Join(f, ",")
}

func savePlots(dir string, s models.Scenario, frame *thermal.ThermalFrame, est *balance.Estimator, res balance.Result) error {
	viewer, err := visualization.NewViewer(frame, s.Threshold, 16)
	if err != nil {
		return err
	}
	if err := viewer.SaveImage(filepath.Join(dir, s.Name+".png")); err != nil {
		return err
	}

	profile, err := est.Profile(frame.Samples, frame.Width, frame.Height, s.Threshold)
	if err != nil {
		return err
	}
	return visualization.SaveProfilePlot(filepath.Join(dir, s.Name+"_profile.png"), s.Name, profile, frame.Height, res)
}
