package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/edgetest/edgetest/probe"
)

var (
	// CLI flags for the capacity probe
	source        string  // input source (video file, image glob or camera index)
	modelPT       string  // path to the workload's .pt checkpoint
	workerCommand string  // command prefix used to start one worker instance
	durationSec   int     // seconds each round runs
	intervalSec   int     // sampling interval in seconds
	maxInstances  int     // maximum parallel instances to try
	cpuThreshold  float64 // avg CPU% threshold
	memThreshold  float64 // avg memory% threshold
	fpsThreshold  float64 // avg throughput floor (frames/s)
	warmupSec     int     // warm-up delay before measurement begins
	outputDir     string  // directory for per-instance metrics artifacts
	resultsFile   string  // optional YAML export of the session results
	configFile    string  // optional YAML defaults file
	sourceURL     string  // where the default test video is fetched from
	skipExport    bool    // skip hardware probe and model export
	logLevel      string  // log verbosity level
)

// Process exit codes. "Unsustainable even at n=1" is an expected outcome of
// the probe, not a crash, but it gets a distinct status so scripts can tell
// the two apart.
const (
	exitSustainable        = 0 // completed with a nonzero sustainable count
	exitUnsustainableAtOne = 1 // even a single instance breached the thresholds
	exitFailure            = 2 // configuration or runtime failure
)

var exitCode = exitSustainable

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "edgetest",
	Short: "Empirical concurrency capacity probe for edge inference workloads",
}

// probeCmd runs the adaptive concurrency probe using parameters from CLI
// flags, optionally seeded from a YAML defaults file.
var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Discover the maximum sustainable number of parallel workload instances",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		if configFile != "" {
			applyFileConfig(cmd, configFile)
		}

		reportHost()

		src, err := ensureTestSource(source, sourceURL)
		if err != nil {
			fatalf("Preparing input source failed: %v", err)
		}

		// Hardware probe + format conversion run once, before the session;
		// the probe core only sees the resulting artifact path.
		modelPath := modelPT
		if !skipExport {
			modelPath, err = ensureModelArtifact(modelPT)
			if err != nil {
				fatalf("Preparing workload artifact failed: %v", err)
			}
		}

		cfg := probe.SessionConfig{
			Workload: probe.WorkloadConfig{
				Command:   strings.Fields(workerCommand),
				Source:    src,
				ModelPath: modelPath,
				OutputDir: outputDir,
			},
			Thresholds: probe.Thresholds{
				CPUMax:        cpuThreshold,
				MemMax:        memThreshold,
				ThroughputMin: fpsThreshold,
			},
			MaxInstances: maxInstances,
			Warmup:       time.Duration(warmupSec) * time.Second,
			Duration:     time.Duration(durationSec) * time.Second,
			Interval:     time.Duration(intervalSec) * time.Second,
		}
		cfg.ApplyDefaults()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log := logrus.WithField("component", "probe")
		controller := probe.NewController(cfg, log)
		session, err := controller.Run(ctx)
		if err != nil {
			fatalf("Capacity session failed: %v", err)
		}

		session.Print()
		if resultsFile != "" {
			if err := session.WriteResults(resultsFile); err != nil {
				fatalf("Writing results failed: %v", err)
			}
			logrus.Infof("results written to %s", resultsFile)
		}

		if session.MaxSustainable == 0 {
			exitCode = exitUnsustainableAtOne
		}
	},
}

// fatalf logs an error and exits with the failure status. logrus.Fatalf is
// avoided because it hardcodes exit code 1, which is reserved for the
// "unsustainable at n=1" outcome.
func fatalf(format string, args ...interface{}) {
	logrus.Errorf(format, args...)
	os.Exit(exitFailure)
}

// reportHost logs the host dimensions the thresholds are judged against.
func reportHost() {
	cores, err := cpu.Counts(true)
	if err != nil {
		logrus.Debugf("could not count host CPUs: %v", err)
		return
	}
	vm, err := mem.VirtualMemory()
	if err != nil {
		logrus.Debugf("could not read host memory: %v", err)
		return
	}
	logrus.Infof("host: %d logical cores, %s memory", cores, humanize.IBytes(vm.Total))
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitFailure)
	}
	os.Exit(exitCode)
}

// init sets up CLI flags and subcommands
func init() {
	probeCmd.Flags().StringVarP(&source, "source", "s", defaultSource, "Input source (video file, image glob or camera index)")
	probeCmd.Flags().StringVarP(&modelPT, "model-pt", "p", "yolo11x.pt", "Path to the workload's .pt checkpoint")
	probeCmd.Flags().StringVar(&workerCommand, "worker-cmd", "python3 stress_test_yolo_track.py", "Command prefix used to start one worker instance")
	probeCmd.Flags().IntVarP(&durationSec, "duration", "d", 200, "Seconds to run each round")
	probeCmd.Flags().IntVarP(&intervalSec, "interval", "i", 10, "Sampling interval in seconds")
	probeCmd.Flags().IntVarP(&maxInstances, "max-instances", "n", 16, "Maximum parallel instances to try")
	probeCmd.Flags().Float64Var(&cpuThreshold, "cpu-threshold", 90.0, "Avg CPU% threshold")
	probeCmd.Flags().Float64Var(&memThreshold, "mem-threshold", 90.0, "Avg memory% threshold")
	probeCmd.Flags().Float64Var(&fpsThreshold, "fps-threshold", 3.0, "Avg throughput floor (frames per second)")
	probeCmd.Flags().IntVar(&warmupSec, "warmup", 10, "Warm-up delay in seconds before measurement begins")
	probeCmd.Flags().StringVar(&outputDir, "output-dir", "output", "Directory for per-instance metrics artifacts")
	probeCmd.Flags().StringVar(&resultsFile, "results-file", "", "Optional YAML file to write session results to")
	probeCmd.Flags().StringVar(&configFile, "config", "", "Optional YAML defaults file (flags set explicitly take precedence)")
	probeCmd.Flags().StringVar(&sourceURL, "source-url", defaultSourceURL, "Download URL for the default test video")
	probeCmd.Flags().BoolVar(&skipExport, "skip-export", false, "Skip hardware detection and model export, use --model-pt as-is")
	probeCmd.Flags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")

	// Attach `probe` as a subcommand to `root`
	rootCmd.AddCommand(probeCmd)
}
