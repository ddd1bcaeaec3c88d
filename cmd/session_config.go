package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the probe flags in YAML form. A defaults file supplies
// values for flags the user did not set explicitly on the command line.
type fileConfig struct {
	Source        string  `yaml:"source"`
	ModelPT       string  `yaml:"model_pt"`
	WorkerCommand string  `yaml:"worker_command"`
	DurationSec   int     `yaml:"duration"`
	IntervalSec   int     `yaml:"interval"`
	MaxInstances  int     `yaml:"max_instances"`
	CPUThreshold  float64 `yaml:"cpu_threshold"`
	MemThreshold  float64 `yaml:"mem_threshold"`
	FPSThreshold  float64 `yaml:"fps_threshold"`
	WarmupSec     int     `yaml:"warmup"`
	OutputDir     string  `yaml:"output_dir"`
	ResultsFile   string  `yaml:"results_file"`
}

// loadFileConfig parses a probe defaults file with strict field checking, so
// typos in keys cause errors instead of being silently dropped.
func loadFileConfig(path string) (fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fileConfig{}, fmt.Errorf("reading config file %s: %w", path, err)
	}
	var fc fileConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&fc); err != nil {
		return fileConfig{}, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return fc, nil
}

// applyFileConfig overlays file values onto flags the user left at their
// defaults. Explicitly set flags always win over the file.
func applyFileConfig(cmd *cobra.Command, path string) {
	fc, err := loadFileConfig(path)
	if err != nil {
		fatalf("Failed to load config file: %v", err)
	}
	flags := cmd.Flags()

	if !flags.Changed("source") && fc.Source != "" {
		source = fc.Source
	}
	if !flags.Changed("model-pt") && fc.ModelPT != "" {
		modelPT = fc.ModelPT
	}
	if !flags.Changed("worker-cmd") && fc.WorkerCommand != "" {
		workerCommand = fc.WorkerCommand
	}
	if !flags.Changed("duration") && fc.DurationSec != 0 {
		durationSec = fc.DurationSec
	}
	if !flags.Changed("interval") && fc.IntervalSec != 0 {
		intervalSec = fc.IntervalSec
	}
	if !flags.Changed("max-instances") && fc.MaxInstances != 0 {
		maxInstances = fc.MaxInstances
	}
	if !flags.Changed("cpu-threshold") && fc.CPUThreshold != 0 {
		cpuThreshold = fc.CPUThreshold
	}
	if !flags.Changed("mem-threshold") && fc.MemThreshold != 0 {
		memThreshold = fc.MemThreshold
	}
	if !flags.Changed("fps-threshold") && fc.FPSThreshold != 0 {
		fpsThreshold = fc.FPSThreshold
	}
	if !flags.Changed("warmup") && fc.WarmupSec != 0 {
		warmupSec = fc.WarmupSec
	}
	if !flags.Changed("output-dir") && fc.OutputDir != "" {
		outputDir = fc.OutputDir
	}
	if !flags.Changed("results-file") && fc.ResultsFile != "" {
		resultsFile = fc.ResultsFile
	}
	logrus.Debugf("applied defaults from %s", path)
}
