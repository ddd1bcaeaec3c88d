package cmd

// Hardware capability probe and model-format conversion. These run once,
// before a capacity session starts, to pick the workload artifact variant
// (TensorRT engine, OpenVINO IR, or the raw checkpoint) best suited to the
// host. The probe core treats the result as an opaque path.

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

var (
	// seams for tests; production values exec real tools and read /proc
	runCommand = func(name string, args ...string) (string, error) {
		out, err := exec.Command(name, args...).Output()
		return string(out), err
	}
	cpuinfoPath    = "/proc/cpuinfo"
	exporterBinary = "yolo"
)

// hasNvidiaGPU reports whether nvidia-smi is callable and lists a GPU.
func hasNvidiaGPU() bool {
	out, err := runCommand("nvidia-smi", "--query-gpu=name", "--format=csv,noheader")
	return err == nil && strings.TrimSpace(out) != ""
}

// isIntelCPU reports whether the host CPU identifies as GenuineIntel.
func isIntelCPU() bool {
	data, err := os.ReadFile(cpuinfoPath)
	if err != nil {
		return false
	}
	return strings.Contains(string(data), "GenuineIntel")
}

// ensureModelArtifact picks and, if needed, produces the workload artifact
// variant for this host: a TensorRT engine on NVIDIA GPUs, an OpenVINO IR on
// Intel CPUs, the raw checkpoint otherwise. Exports are performed once and
// reused on later runs.
func ensureModelArtifact(ptPath string) (string, error) {
	switch {
	case hasNvidiaGPU():
		logrus.Info("NVIDIA GPU detected")
		return exportModel(ptPath, "engine")
	case isIntelCPU():
		logrus.Info("Intel CPU detected (no NVIDIA GPU)")
		return exportModel(ptPath, "openvino")
	default:
		logrus.Info("no NVIDIA GPU or Intel CPU detected, using checkpoint directly")
		return ptPath, nil
	}
}

// exportedPath returns the artifact path an export of ptPath to format
// produces. OpenVINO exports are directories, everything else swaps the
// extension.
func exportedPath(ptPath, format string) string {
	stem := strings.TrimSuffix(ptPath, filepath.Ext(ptPath))
	if format == "openvino" {
		return stem + "_openvino_model"
	}
	return stem + "." + format
}

func exportArgs(ptPath, format string) []string {
	args := []string{"export", "model=" + ptPath, "format=" + format}
	if format == "engine" {
		args = append(args, "device=0")
	}
	return args
}

// exportModel converts the checkpoint via the exporter CLI unless the target
// artifact already exists.
func exportModel(ptPath, format string) (string, error) {
	out := exportedPath(ptPath, format)
	if _, err := os.Stat(out); err == nil {
		logrus.Infof("found existing %s", out)
		return out, nil
	}
	logrus.Infof("exporting %s -> %s (format=%s)", ptPath, out, format)
	if _, err := runCommand(exporterBinary, exportArgs(ptPath, format)...); err != nil {
		return "", fmt.Errorf("exporting %s to %s: %w", ptPath, format, err)
	}
	if _, err := os.Stat(out); err != nil {
		return "", fmt.Errorf("export did not produce %s", out)
	}
	return out, nil
}
