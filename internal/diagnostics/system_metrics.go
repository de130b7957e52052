package diagnostics

import (
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/jaypipes/ghw"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemMetrics holds system-wide resource usage, sampled once per Collect.
type SystemMetrics struct {
	// CPU
	CPUModel   string  `json:"cpu_model"`
	CPUCores   int     `json:"cpu_cores"`
	CPUThreads int     `json:"cpu_threads"`
	CPUPercent float64 `json:"cpu_percent"`

	// Memory (in MB)
	MemTotalMB float64 `json:"mem_total_mb"`
	MemUsedMB  float64 `json:"mem_used_mb"`
	MemPercent float64 `json:"mem_percent"`

	// Disk (in GB, root filesystem)
	DiskTotalGB float64 `json:"disk_total_gb"`
	DiskUsedGB  float64 `json:"disk_used_gb"`
	DiskPercent float64 `json:"disk_percent"`

	// Load average (zero on platforms without one, e.g. Windows)
	LoadAvg1  float64 `json:"load_avg_1"`
	LoadAvg5  float64 `json:"load_avg_5"`
	LoadAvg15 float64 `json:"load_avg_15"`
}

// FreeMemoryMB reports memory headroom, used against
// config.DiagnosticsConfig.MinFreeMemoryMB to decide whether to throttle
// the worker pool mid-run.
func (s SystemMetrics) FreeMemoryMB() float64 {
	return s.MemTotalMB - s.MemUsedMB
}

// SystemMetricsCollector collects system-wide statistics. Hardware identity
// (CPU model/cores) is probed once and cached; utilization is resampled on
// every Collect call.
type SystemMetricsCollector struct {
	mu           sync.Mutex
	lastCPUTotal float64
	lastCPUIdle  float64

	infoCollected bool
	cpuModel      string
	cpuCores      int
	cpuThreads    int
}

// NewSystemMetricsCollector creates a new system metrics collector.
func NewSystemMetricsCollector() *SystemMetricsCollector {
	return &SystemMetricsCollector{}
}

// Collect gathers current system statistics.
func (c *SystemMetricsCollector) Collect() SystemMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := SystemMetrics{}
	c.collectHardwareInfo(&stats)
	c.collectMemoryInfo(&stats)
	c.collectCPUInfo(&stats)
	c.collectDiskInfo(&stats)
	c.collectLoadAvg(&stats)
	return stats
}

func (c *SystemMetricsCollector) collectMemoryInfo(stats *SystemMetrics) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return
	}
	stats.MemTotalMB = float64(vm.Total) / 1024 / 1024
	stats.MemUsedMB = float64(vm.Used) / 1024 / 1024
	stats.MemPercent = vm.UsedPercent
}

func (c *SystemMetricsCollector) collectCPUInfo(stats *SystemMetrics) {
	times, err := cpu.Times(false)
	if err != nil || len(times) == 0 {
		return
	}

	t := times[0]
	total := t.User + t.Nice + t.System + t.Idle + t.Iowait + t.Irq + t.Softirq + t.Steal
	idleTime := t.Idle + t.Iowait

	if c.lastCPUTotal > 0 {
		totalDelta := total - c.lastCPUTotal
		idleDelta := idleTime - c.lastCPUIdle
		if totalDelta > 0 {
			stats.CPUPercent = (1 - idleDelta/totalDelta) * 100
		}
	}

	c.lastCPUTotal = total
	c.lastCPUIdle = idleTime
}

func (c *SystemMetricsCollector) collectDiskInfo(stats *SystemMetrics) {
	usage, err := disk.Usage(rootDiskPath())
	if err != nil {
		return
	}
	stats.DiskTotalGB = float64(usage.Total) / 1024 / 1024 / 1024
	stats.DiskUsedGB = float64(usage.Used) / 1024 / 1024 / 1024
	stats.DiskPercent = usage.UsedPercent
}

func (c *SystemMetricsCollector) collectLoadAvg(stats *SystemMetrics) {
	avg, err := load.Avg()
	if err != nil {
		return
	}
	stats.LoadAvg1 = avg.Load1
	stats.LoadAvg5 = avg.Load5
	stats.LoadAvg15 = avg.Load15
}

func (c *SystemMetricsCollector) collectHardwareInfo(stats *SystemMetrics) {
	if !c.infoCollected {
		if infos, err := cpu.Info(); err == nil && len(infos) > 0 {
			c.cpuModel = strings.TrimSpace(infos[0].ModelName)
		}
		if cores, err := cpu.Counts(false); err == nil && cores > 0 {
			c.cpuCores = cores
		}
		if threads, err := cpu.Counts(true); err == nil && threads > 0 {
			c.cpuThreads = threads
		}
		c.infoCollected = true
	}
	stats.CPUModel = c.cpuModel
	stats.CPUCores = c.cpuCores
	stats.CPUThreads = c.cpuThreads
}

func rootDiskPath() string {
	if runtime.GOOS == "windows" {
		drive := os.Getenv("SystemDrive")
		if drive == "" {
			drive = "C:"
		}
		return drive + "\\"
	}
	return "/"
}

// ResolveConcurrency derives the pipeline worker pool size from available
// cores and memory: N = clamp(cores*5, 2, min(20, floor(totalMemGB*0.5/0.512))).
// Each CLI subprocess is assumed to need roughly 512MB of headroom, of which
// canopy budgets half the machine's memory to concurrent subprocesses.
func ResolveConcurrency(cores int, totalMemGB float64) int {
	if cores <= 0 {
		cores = 1
	}
	byCores := cores * 5

	memBudgetGB := totalMemGB * 0.5
	byMemory := int(memBudgetGB / 0.512)

	upper := 20
	if byMemory < upper {
		upper = byMemory
	}
	if upper < 2 {
		upper = 2
	}

	n := byCores
	if n < 2 {
		n = 2
	}
	if n > upper {
		n = upper
	}
	return n
}

// HardwareReport is the static system snapshot behind `canopy doctor`,
// gathered once via ghw rather than resampled like SystemMetrics.
type HardwareReport struct {
	CPUModel    string `json:"cpu_model"`
	CPUCores    int    `json:"cpu_cores"`
	CPUThreads  int    `json:"cpu_threads"`
	TotalMemGB  float64 `json:"total_mem_gb"`
	OS          string `json:"os"`
	Arch        string `json:"arch"`
}

// CollectHardwareReport probes static hardware identity via ghw, falling
// back to runtime/gopsutil fields that remain available when a ghw probe
// fails (e.g. inside a restricted container).
func CollectHardwareReport() HardwareReport {
	report := HardwareReport{OS: runtime.GOOS, Arch: runtime.GOARCH}

	if cpuInfo, err := ghw.CPU(); err == nil && len(cpuInfo.Processors) > 0 {
		report.CPUModel = cpuInfo.Processors[0].Model
		report.CPUCores = int(cpuInfo.TotalCores)
		report.CPUThreads = int(cpuInfo.TotalThreads)
	} else if infos, err := cpu.Info(); err == nil && len(infos) > 0 {
		report.CPUModel = infos[0].ModelName
		if cores, err := cpu.Counts(false); err == nil {
			report.CPUCores = cores
		}
		if threads, err := cpu.Counts(true); err == nil {
			report.CPUThreads = threads
		}
	}

	if memInfo, err := ghw.Memory(); err == nil && memInfo.TotalPhysicalBytes > 0 {
		report.TotalMemGB = float64(memInfo.TotalPhysicalBytes) / 1024 / 1024 / 1024
	} else if vm, err := mem.VirtualMemory(); err == nil {
		report.TotalMemGB = float64(vm.Total) / 1024 / 1024 / 1024
	}

	return report
}
