package ws

import (
	"os"
	"runtime"
	"time"

	"github.com/craftrelay/backend/internal/session"
	"github.com/shirou/gopsutil/v3/process"
)

// healthProbe samples the relay process itself for the /api/health endpoint.
type healthProbe struct {
	proc      *process.Process
	startedAt time.Time
}

func newHealthProbe() *healthProbe {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		proc = nil
	}
	return &healthProbe{
		proc:      proc,
		startedAt: time.Now(),
	}
}

type HealthPayload struct {
	State         session.State `json:"state"`
	Subscribers   int           `json:"subscribers"`
	UptimeSeconds float64       `json:"uptimeSeconds"`
	Goroutines    int           `json:"goroutines"`
	CPUPercent    float64       `json:"cpuPercent"`
	MemoryRSS     uint64        `json:"memoryRss"`
}

func (h *healthProbe) snapshot(state session.State, subscribers int) HealthPayload {
	p := HealthPayload{
		State:         state,
		Subscribers:   subscribers,
		UptimeSeconds: time.Since(h.startedAt).Seconds(),
		Goroutines:    runtime.NumGoroutine(),
	}
	if h.proc != nil {
		if cpu, err := h.proc.CPUPercent(); err == nil {
			p.CPUPercent = cpu
		}
		if mem, err := h.proc.MemoryInfo(); err == nil && mem != nil {
			p.MemoryRSS = mem.RSS
		}
	}
	return p
}
