// Package procstat reports resource usage of the running service.
package procstat

import (
	"os"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// Stats is a point-in-time view of this process.
type Stats struct {
	PID        int           `json:"pid"`
	CPUPercent float64       `json:"cpu_percent"`
	RSSBytes   uint64        `json:"rss_bytes"`
	Threads    int32         `json:"threads"`
	Uptime     time.Duration `json:"uptime"`
}

// Self returns usage for the current process. CPU is averaged over the
// process lifetime.
func Self() (Stats, error) {
	pid := os.Getpid()
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return Stats{}, err
	}

	st := Stats{PID: pid}
	if st.CPUPercent, err = p.CPUPercent(); err != nil {
		return Stats{}, err
	}
	mem, err := p.MemoryInfo()
	if err != nil {
		return Stats{}, err
	}
	st.RSSBytes = mem.RSS

	// Optional fields; some platforms do not expose them.
	if n, err := p.NumThreads(); err == nil {
		st.Threads = n
	}
	if ms, err := p.CreateTime(); err == nil {
		st.Uptime = time.Since(time.UnixMilli(ms))
	}
	return st, nil
}
