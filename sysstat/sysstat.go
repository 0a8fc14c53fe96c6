package sysstat

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/procfs"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/tklauser/go-sysconf"
)

// ProcessInfo describes the resource usage of a single process.
type ProcessInfo struct {
	Pid     int     `json:"pid"`
	RSS     uint64  `json:"rss"`
	CPU     float64 `json:"cpu"`
	MEM     float64 `json:"mem"`
	Command string  `json:"command"`
}

func (p *ProcessInfo) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"pid":     p.Pid,
		"rss":     p.RSS,
		"cpu":     fmt.Sprintf("%.1f", p.CPU),
		"mem":     fmt.Sprintf("%.1f", p.MEM),
		"command": p.Command,
	}
}

// SystemState is a snapshot of the host and of the tracked log tool process.
type SystemState struct {
	Timestamp time.Time              `json:"timestamp"`
	Uptime    uint64                 `json:"uptime"`
	Load      *load.AvgStat          `json:"load"`
	Memory    *mem.VirtualMemoryStat `json:"memory"`
	Tool      *ProcessInfo           `json:"tool,omitempty"`
}

func (s *SystemState) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"timestamp": s.Timestamp,
		"uptime":    s.Uptime,
	}
	if s.Load != nil {
		m["load"] = s.Load
	}
	if s.Memory != nil {
		m["memory"] = s.Memory
	}
	if s.Tool != nil {
		m["tool"] = s.Tool.ToMap()
	}
	return m
}

type Collector struct {
	mu       sync.RWMutex
	state    *SystemState
	pidFunc  func() int
	interval time.Duration
	stopChan chan struct{}
	stopOnce sync.Once
}

func New() *Collector {
	return &Collector{
		state:    &SystemState{},
		interval: 1 * time.Minute,
		stopChan: make(chan struct{}),
	}
}

// Track makes the collector include stats for the process whose pid
// pidFunc returns. A pid of 0 means there is nothing to track yet.
func (c *Collector) Track(pidFunc func() int) {
	c.mu.Lock()
	c.pidFunc = pidFunc
	c.mu.Unlock()
}

func (c *Collector) Stop() {
	c.stopOnce.Do(func() { close(c.stopChan) })
}

// GetState returns a copy of the last collected state.
func (c *Collector) GetState() *SystemState {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state == nil {
		return nil
	}

	copyState := *c.state
	if c.state.Load != nil {
		loadCopy := *c.state.Load
		copyState.Load = &loadCopy
	}
	if c.state.Memory != nil {
		memCopy := *c.state.Memory
		copyState.Memory = &memCopy
	}
	if c.state.Tool != nil {
		toolCopy := *c.state.Tool
		copyState.Tool = &toolCopy
	}
	return &copyState
}

func (c *Collector) Run() {
	c.collect()
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.collect()
		}
	}
}

func (c *Collector) collect() {
	newState := &SystemState{
		Timestamp: time.Now(),
	}

	if u, err := host.Uptime(); err == nil {
		newState.Uptime = u
	}
	if l, err := load.Avg(); err == nil {
		newState.Load = l
	}
	if m, err := mem.VirtualMemory(); err == nil {
		newState.Memory = m
	}

	c.mu.RLock()
	pidFunc := c.pidFunc
	c.mu.RUnlock()

	if pidFunc != nil {
		if pid := pidFunc(); pid > 0 {
			var totalMem uint64
			if newState.Memory != nil {
				totalMem = newState.Memory.Total
			}
			if p, err := ProcessStats(pid, newState.Uptime, totalMem); err == nil {
				newState.Tool = p
			}
		}
	}

	c.mu.Lock()
	c.state = newState
	c.mu.Unlock()
}

// clockTicks returns the kernel clock tick rate used by /proc/<pid>/stat.
func clockTicks() float64 {
	if tck, err := sysconf.Sysconf(sysconf.SC_CLK_TCK); err == nil && tck > 0 {
		return float64(tck)
	}
	return 100
}

// ProcessStats reads the resource usage of pid from /proc. CPU is the
// average usage over the process lifetime, MEM is RSS as a percentage of
// totalMem.
func ProcessStats(pid int, uptime uint64, totalMem uint64) (*ProcessInfo, error) {
	fs, err := procfs.NewFS(procfs.DefaultMountPoint)
	if err != nil {
		return nil, err
	}
	p, err := fs.Proc(pid)
	if err != nil {
		return nil, err
	}
	stat, err := p.Stat()
	if err != nil {
		return nil, err
	}

	cmd, err := p.CmdLine()
	if err != nil || len(cmd) == 0 {
		if comm, err := p.Comm(); err == nil {
			cmd = []string{comm}
		} else {
			cmd = []string{strconv.Itoa(pid)}
		}
	}

	clkTck := clockTicks()
	totalSeconds := float64(stat.UTime+stat.STime) / clkTck
	startSeconds := float64(stat.Starttime) / clkTck

	var cpuUsage float64
	if float64(uptime) > startSeconds {
		cpuUsage = totalSeconds / (float64(uptime) - startSeconds) * 100.0
	}

	rssBytes := uint64(stat.RSS) * uint64(os.Getpagesize())
	var memUsage float64
	if totalMem > 0 {
		memUsage = float64(rssBytes) / float64(totalMem) * 100.0
	}

	return &ProcessInfo{
		Pid:     pid,
		RSS:     rssBytes,
		CPU:     cpuUsage,
		MEM:     memUsage,
		Command: SanitizeCommand(cmd),
	}, nil
}

// String formats p for status output.
func (p *ProcessInfo) String() string {
	return fmt.Sprintf("pid=%d cpu=%.1f%% mem=%.1f%% cmd=%s", p.Pid, p.CPU, p.MEM, strings.TrimSpace(p.Command))
}
