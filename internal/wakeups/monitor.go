// Package wakeups implements spec.md §4.7: periodic sampling of kernel
// interrupt counters and userspace timer statistics, publishing a sorted
// per-source wakeups-per-second list plus a smoothed system total.
package wakeups

import (
	"bufio"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/coldplug/upowerd/pkg/types"
)

// emaAlpha is the exponential-moving-average smoothing factor for the
// system total (spec.md §4.7).
const emaAlpha = 0.125

// reportThreshold is the minimum per-second value a source must exceed
// to appear in the published list (spec.md §4.7).
const reportThreshold = 0.1

// Source reads the two kernel tables a Monitor samples, in the formats
// of /proc/interrupts and /proc/timer_stats. This package ships no
// implementation that opens those files; the caller supplies one (the
// tests use in-memory readers).
type Source interface {
	Interrupts() (io.Reader, error)
	TimerStats() (io.Reader, error)
}

// Monitor samples Source every interval (see New) and maintains the smoothed
// total plus the last published per-source list.
type Monitor struct {
	source   Source
	interval time.Duration
	now      func() time.Time

	mu         sync.Mutex
	lastSample time.Time
	kernelOld  map[uint32]uint64
	totalAve   float64
	haveTotal  bool
	published  []types.WakeupsEntry
	stop       chan struct{}
}

// New constructs a Monitor. Call Run to start periodic sampling, or
// SampleOnce to drive it manually (e.g. from tests).
func New(source Source, interval time.Duration) *Monitor {
	return &Monitor{
		source:    source,
		interval:  interval,
		now:       time.Now,
		kernelOld: make(map[uint32]uint64),
		stop:      make(chan struct{}),
	}
}

// Run samples Source every interval until Stop is called.
func (m *Monitor) Run() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.SampleOnce()
		}
	}
}

// Stop ends a running Run loop.
func (m *Monitor) Stop() {
	close(m.stop)
}

// Published returns the current sorted, thresholded wakeups list
// (spec.md §4.7).
func (m *Monitor) Published() []types.WakeupsEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]types.WakeupsEntry, len(m.published))
	copy(out, m.published)
	return out
}

// TotalAverage returns the current EMA-smoothed system total.
func (m *Monitor) TotalAverage() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totalAve
}

// SampleOnce performs one kernel+userspace sample, updates the smoothed
// total, and republishes the sorted list.
func (m *Monitor) SampleOnce() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	dt := now.Sub(m.lastSample).Seconds()
	if !m.lastSample.IsZero() && dt <= 0 {
		dt = 1
	}
	first := m.lastSample.IsZero()
	m.lastSample = now

	var entries []types.WakeupsEntry
	var total float64

	if r, err := m.source.Interrupts(); err == nil {
		for _, e := range parseInterrupts(r, m.kernelOld, dt, first) {
			entries = append(entries, e)
			total += e.ValuePerSecond
		}
	}
	if r, err := m.source.TimerStats(); err == nil {
		for _, e := range parseTimerStats(r) {
			entries = append(entries, e)
			total += e.ValuePerSecond
		}
	}

	if !m.haveTotal {
		m.totalAve = total
		m.haveTotal = true
	} else {
		m.totalAve = emaAlpha*(total-m.totalAve) + m.totalAve
	}

	filtered := entries[:0]
	for _, e := range entries {
		if e.ValuePerSecond > reportThreshold {
			filtered = append(filtered, e)
		}
	}
	sort.Slice(filtered, func(i, j int) bool { return filtered[i].ValuePerSecond > filtered[j].ValuePerSecond })
	m.published = filtered
}

// parseInterrupts implements spec.md §4.7's kernel sampling: the first
// line names CPUs, subsequent lines carry "IRQ: c0 c1 ... label". Per-CPU
// counts are summed and converted to a rate against the previous sample.
func parseInterrupts(r io.Reader, old map[uint32]uint64, dt float64, first bool) []types.WakeupsEntry {
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		return nil
	}
	cpuCount := len(strings.Fields(scanner.Text()))

	var out []types.WakeupsEntry
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		label := strings.TrimSuffix(fields[0], ":")

		var id uint32
		if symID, ok := types.SymbolicIRQIDs[label]; ok {
			id = symID
		} else {
			n, err := strconv.ParseUint(label, 10, 32)
			if err != nil {
				continue
			}
			id = uint32(n)
		}

		var sum uint64
		for i := 1; i < len(fields) && i <= cpuCount; i++ {
			n, err := strconv.ParseUint(fields[i], 10, 64)
			if err != nil {
				break
			}
			sum += n
		}

		var rate float64
		if !first && dt > 0 {
			if prev, ok := old[id]; ok && sum >= prev {
				rate = float64(sum-prev) / dt
			}
		}
		old[id] = sum

		out = append(out, types.WakeupsEntry{
			ID:             id,
			IsUserspace:    false,
			Details:        label,
			OldCount:       sum,
			ValuePerSecond: rate,
		})
	}
	return out
}

// tickHousekeepingFuncs lists userspace timer-stats rows ignored as tick
// housekeeping (spec.md §4.7).
var tickHousekeepingFuncs = map[string]bool{
	"tick_sched_timer": true,
	"hrtimer_wakeup":   true,
}

// parseTimerStats implements spec.md §4.7's userspace sampling against
// the kernel's "<count>, <pid> <comm> <start_fn> (<expire_fn>)" rows: the
// header names the sample period; deferred rows (count suffixed "D"),
// zero-count rows, and tick-housekeeping expire functions are ignored.
func parseTimerStats(r io.Reader) []types.WakeupsEntry {
	scanner := bufio.NewScanner(r)
	var periodSeconds float64 = 1
	if scanner.Scan() {
		header := strings.Fields(scanner.Text())
		if len(header) > 0 {
			if s, err := strconv.ParseFloat(header[0], 64); err == nil && s > 0 {
				periodSeconds = s
			}
		}
	}

	var out []types.WakeupsEntry
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		countPart, rest, ok := strings.Cut(line, ",")
		if !ok {
			continue
		}
		countPart = strings.TrimSpace(countPart)
		if strings.HasSuffix(countPart, "D") {
			continue
		}
		count, err := strconv.ParseUint(countPart, 10, 64)
		if err != nil || count == 0 {
			continue
		}

		fields := strings.Fields(rest)
		if len(fields) < 3 {
			continue
		}
		pid, err := strconv.ParseUint(fields[0], 10, 32)
		if err != nil {
			continue
		}
		cmdline := fields[1]
		expireFn := strings.Trim(fields[len(fields)-1], "()")
		if tickHousekeepingFuncs[expireFn] {
			continue
		}

		out = append(out, types.WakeupsEntry{
			ID:             uint32(pid),
			IsUserspace:    true,
			Cmdline:        cmdline,
			Details:        expireFn,
			OldCount:       count,
			ValuePerSecond: float64(count) / periodSeconds,
		})
	}
	return out
}
