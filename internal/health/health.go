// Package health contains process-level checks used by the health handler.
package health

import (
	"fmt"
	"os"

	"github.com/heptiolabs/healthcheck"
	"github.com/shirou/gopsutil/v3/process"
)

// RSSCheck fails when the resident set of the simulator process exceeds max
// bytes. The plugin shares the process, so this is the whole simulator's
// footprint.
func RSSCheck(max uint64) healthcheck.Check {
	return func() error {
		rss, err := RSS()
		if err != nil {
			return err
		}
		if rss > max {
			return fmt.Errorf("rss %d bytes exceeds %d", rss, max)
		}
		return nil
	}
}

// RSS returns the resident set size of the current process.
func RSS() (uint64, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return 0, fmt.Errorf("health: open process: %w", err)
	}
	mi, err := p.MemoryInfo()
	if err != nil {
		return 0, fmt.Errorf("health: memory info: %w", err)
	}
	return mi.RSS, nil
}
