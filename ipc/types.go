package ipc

import (
	"time"

	"github.com/angch/logrelay/config"
	"github.com/angch/logrelay/relay"
)

type StatusResponse struct {
	PID         int            `json:"pid"`
	StartTime   time.Time      `json:"start_time"`
	Version     string         `json:"version"` // from config
	MemoryAlloc uint64         `json:"memory_alloc"`
	Tool        string         `json:"tool"`
	ToolPID     int            `json:"tool_pid,omitempty"`
	Relay       relay.Stats    `json:"relay"`
	LastError   string         `json:"last_error,omitempty"`
	Config      *config.Config `json:"config"`
}

type ClearResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}
