package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var doctorOutput string

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Inspect node hardware and recommend job sizing",
	Long: `Analyzes the compute node (CPU, RAM, GPU) and suggests evaluation job
parameters: a batch size the node can sustain and a walltime with
enough headroom for checkpointing.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)

	doctorCmd.Flags().StringVarP(&doctorOutput, "output", "o", "text",
		"Output format: text, json, yaml")
}

// NodeReport describes the node and the suggested job parameters
type NodeReport struct {
	Hardware       HardwareInfo   `json:"hardware" yaml:"hardware"`
	Recommendation Recommendation `json:"recommendation" yaml:"recommendation"`
}

type HardwareInfo struct {
	Hostname   string  `json:"hostname" yaml:"hostname"`
	OS         string  `json:"os" yaml:"os"`
	Arch       string  `json:"arch" yaml:"arch"`
	CPUModel   string  `json:"cpu_model" yaml:"cpu_model"`
	CPUThreads int     `json:"cpu_threads" yaml:"cpu_threads"`
	RAMGB      float64 `json:"ram_gb" yaml:"ram_gb"`
	HasGPU     bool    `json:"has_gpu" yaml:"has_gpu"`
	GPUModel   string  `json:"gpu_model,omitempty" yaml:"gpu_model,omitempty"`
}

type Recommendation struct {
	BatchSize     int    `json:"batch_size" yaml:"batch_size"`
	WorkerThreads int    `json:"worker_threads" yaml:"worker_threads"`
	Walltime      string `json:"walltime" yaml:"walltime"`
	SignalSpec    string `json:"signal" yaml:"signal"`
	Rationale     string `json:"rationale" yaml:"rationale"`
}

func runDoctor(cmd *cobra.Command, args []string) error {
	hw, err := detectHardware()
	if err != nil {
		return fmt.Errorf("failed to detect hardware: %w", err)
	}

	report := &NodeReport{
		Hardware:       *hw,
		Recommendation: recommend(hw),
	}

	switch doctorOutput {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "yaml":
		return yaml.NewEncoder(os.Stdout).Encode(report)
	default:
		printTextReport(report)
		return nil
	}
}

func detectHardware() (*HardwareInfo, error) {
	hw := &HardwareInfo{
		OS:   runtime.GOOS,
		Arch: runtime.GOARCH,
	}

	if info, err := host.Info(); err == nil {
		hw.Hostname = info.Hostname
	}

	threads, err := cpu.Counts(true)
	if err != nil {
		threads = runtime.NumCPU()
	}
	hw.CPUThreads = threads

	if infos, err := cpu.Info(); err == nil && len(infos) > 0 {
		hw.CPUModel = infos[0].ModelName
	} else {
		hw.CPUModel = "Unknown"
	}

	vmem, err := mem.VirtualMemory()
	if err != nil {
		return nil, err
	}
	hw.RAMGB = float64(vmem.Total) / (1024 * 1024 * 1024)

	hw.HasGPU, hw.GPUModel = detectGPU()
	return hw, nil
}

// detectGPU probes for an NVIDIA GPU via nvidia-smi
func detectGPU() (bool, string) {
	out, err := exec.Command("nvidia-smi", "--query-gpu=name", "--format=csv,noheader").Output()
	if err == nil && len(out) > 0 {
		return true, strings.TrimSpace(string(out))
	}
	return false, ""
}

func recommend(hw *HardwareInfo) Recommendation {
	rec := Recommendation{
		SignalSpec: "USR1@300",
		Walltime:   "04:00:00",
	}

	// Leave two threads for the launcher and IO
	rec.WorkerThreads = hw.CPUThreads - 2
	if rec.WorkerThreads < 1 {
		rec.WorkerThreads = 1
	}

	switch {
	case hw.HasGPU && hw.RAMGB >= 32:
		rec.BatchSize = 128
		rec.Rationale = "GPU node with ample RAM; large batches keep the device saturated"
	case hw.HasGPU:
		rec.BatchSize = 64
		rec.Rationale = "GPU node; batch size bounded by host RAM"
	case hw.RAMGB >= 32:
		rec.BatchSize = 32
		rec.Rationale = "CPU-only node; moderate batches avoid paging"
		rec.Walltime = "12:00:00"
	default:
		rec.BatchSize = 16
		rec.Rationale = "small CPU-only node; conservative sizing"
		rec.Walltime = "12:00:00"
	}

	return rec
}

func printTextReport(report *NodeReport) {
	hw := report.Hardware
	rec := report.Recommendation

	fmt.Printf("Node: %s (%s/%s)\n", hw.Hostname, hw.OS, hw.Arch)
	fmt.Printf("CPU:  %s (%d threads)\n", hw.CPUModel, hw.CPUThreads)
	fmt.Printf("RAM:  %.1f GB\n", hw.RAMGB)
	if hw.HasGPU {
		fmt.Printf("GPU:  %s\n", hw.GPUModel)
	} else {
		fmt.Println("GPU:  none")
	}

	fmt.Println("\nRecommended job parameters:")
	fmt.Printf("  --walltime %s --signal %s -- --batch-size %d --workers %d\n",
		rec.Walltime, rec.SignalSpec, rec.BatchSize, rec.WorkerThreads)
	fmt.Printf("  (%s)\n", rec.Rationale)
}
