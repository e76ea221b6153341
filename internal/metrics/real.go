package metrics

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/mindprince/gonvml"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// RealSource enumerates processes of the local machine through gopsutil.
type RealSource struct {
	EnableGPU bool
	Logger    *slog.Logger

	hasGPU    bool
	procCache map[int32]*process.Process
}

func NewRealSource(enableGPU bool, logger *slog.Logger) *RealSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &RealSource{EnableGPU: enableGPU, Logger: logger}
}

func (r *RealSource) Init() error {
	if _, err := process.Pids(); err != nil {
		return fmt.Errorf("%w: %v", ErrNoCapability, err)
	}
	r.procCache = make(map[int32]*process.Process)

	if r.EnableGPU {
		if err := gonvml.Initialize(); err != nil {
			r.Logger.Info("NVML initialization failed, GPU summary unavailable", "err", err)
		} else {
			r.hasGPU = true
		}
	}
	return nil
}

func (r *RealSource) Snapshot() (*Snapshot, error) {
	pids, err := process.Pids()
	if err != nil {
		return nil, fmt.Errorf("%w: list pids: %v", ErrSourceUnavailable, err)
	}
	now := time.Now()

	snap := &Snapshot{
		Taken:     now,
		Processes: make([]ProcessStat, 0, len(pids)),
		Host:      r.hostStats(),
	}

	// New cache for next iteration to clean up old processes
	newCache := make(map[int32]*process.Process, len(pids))
	for _, pid := range pids {
		p := r.handle(pid)
		if p == nil {
			continue // Process disappeared between listing and opening
		}
		newCache[pid] = p
		snap.Processes = append(snap.Processes, readProcess(p))
	}
	r.procCache = newCache

	return snap, nil
}

// handle reuses the cached handle so Percent reports the delta since the
// previous sample. A handle whose PID was recycled is replaced.
func (r *RealSource) handle(pid int32) *process.Process {
	if existing, ok := r.procCache[pid]; ok {
		if running, err := existing.IsRunning(); err == nil && running {
			return existing
		}
	}
	p, err := process.NewProcess(pid)
	if err != nil {
		return nil
	}
	return p
}

func readProcess(p *process.Process) ProcessStat {
	stat := ProcessStat{PID: p.Pid}

	if name, err := p.Name(); err == nil {
		stat.Name = name
	}
	if cpuP, err := p.Percent(0); err == nil {
		stat.CPU = cpuP
	} else {
		stat.Partial = true
	}
	if memInfo, err := p.MemoryInfo(); err == nil && memInfo != nil {
		stat.RAM = memInfo.RSS
	} else {
		stat.Partial = true
	}
	if ms, err := p.CreateTime(); err == nil {
		stat.StartTime = time.UnixMilli(ms)
	}
	return stat
}

// hostStats never fails the snapshot; unreadable values stay zero.
func (r *RealSource) hostStats() HostStats {
	var hs HostStats
	if vm, err := mem.VirtualMemory(); err == nil {
		hs.MemTotal = vm.Total
		hs.MemUsed = vm.Used
		hs.MemPercent = vm.UsedPercent
	}
	if avg, err := load.Avg(); err == nil {
		hs.LoadAvg = [3]float64{avg.Load1, avg.Load5, avg.Load15}
	}
	if uptime, err := host.Uptime(); err == nil {
		hs.Uptime = uptime
	}
	if r.hasGPU {
		hs.GPU = gpuStats()
	}
	return hs
}

func gpuStats() GPUStats {
	count, err := gonvml.DeviceCount()
	if err != nil || count == 0 {
		return GPUStats{}
	}
	dev, err := gonvml.DeviceHandleByIndex(0)
	if err != nil {
		return GPUStats{}
	}
	gs := GPUStats{Available: true}
	gs.Name, _ = dev.Name()
	util, _, _ := dev.UtilizationRates()
	gs.Utilization = uint32(util)
	gs.MemoryTotal, gs.MemoryUsed, _ = dev.MemoryInfo()
	temp, _ := dev.Temperature()
	gs.Temperature = uint32(temp)
	return gs
}

func (r *RealSource) Shutdown() {
	if r.hasGPU {
		gonvml.Shutdown()
	}
}
