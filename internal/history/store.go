// Package history implements spec.md §4.5: per-battery time-series with
// debounced disk persistence, time-division downsampling, and
// charge/discharge profile binning.
package history

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/coldplug/upowerd/internal/logging"
	"github.com/coldplug/upowerd/pkg/types"
)

var allSeries = [...]types.HistorySeries{
	types.SeriesRate,
	types.SeriesCharge,
	types.SeriesTimeToFull,
	types.SeriesTimeToEmpty,
}

// criticalPercentage is the threshold below which, combined with
// Discharging, a write bypasses the debounce and flushes immediately
// (spec.md §4.5).
const criticalPercentage = 10.0

// Store is one battery's history: four in-memory series plus the
// debounce timer governing when they hit disk.
type Store struct {
	mu  sync.Mutex
	dir string
	id  string

	debounce time.Duration
	records  map[types.HistorySeries][]types.HistoryRecord
	lastVal  map[types.HistorySeries]float64

	state      types.DeviceState
	percentage float64

	timer *time.Timer
	now   func() time.Time

	log zerolog.Logger
}

// New constructs a Store that persists under dir, keyed by id (see
// BatteryID). The directory is not created until the first flush.
func New(dir, id string, debounce time.Duration) *Store {
	return &Store{
		dir:      dir,
		id:       id,
		debounce: debounce,
		records:  make(map[types.HistorySeries][]types.HistoryRecord),
		lastVal:  make(map[types.HistorySeries]float64),
		now:      time.Now,
		log:      logging.WithComponent("history"),
	}
}

// Load reads every series' on-disk file into memory, tolerating missing
// files (a freshly seen battery has none yet).
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, series := range allSeries {
		recs, err := readSeriesFile(s.path(series))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}
		s.records[series] = recs
		if len(recs) > 0 {
			s.lastVal[series] = recs[len(recs)-1].Value
		}
	}
	return nil
}

func (s *Store) path(series types.HistorySeries) string {
	return filepath.Join(s.dir, fmt.Sprintf("history-%s-%s.dat", series, s.id))
}

// SetState records the battery's current state and is consulted by
// SetRate/SetCharge (which refuse to record while state is Unknown) and
// by the critical-low immediate-flush rule.
func (s *Store) SetState(state types.DeviceState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

// SetCharge appends a charge-percentage sample (spec.md §4.5).
func (s *Store) SetCharge(value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.percentage = value
	s.appendLocked(types.SeriesCharge, value)
}

// SetRate appends an energy-rate sample.
func (s *Store) SetRate(value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLocked(types.SeriesRate, value)
}

// SetTimeFull appends a time-to-full sample. Negative values are
// rejected (spec.md §4.5).
func (s *Store) SetTimeFull(value float64) {
	if value < 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendUnconditionalLocked(types.SeriesTimeToFull, value)
}

// SetTimeEmpty appends a time-to-empty sample. Negative values are
// rejected (spec.md §4.5).
func (s *Store) SetTimeEmpty(value float64) {
	if value < 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendUnconditionalLocked(types.SeriesTimeToEmpty, value)
}

// appendLocked implements the rate/charge write rule: state must be
// known, and the value must differ from the last stored one.
func (s *Store) appendLocked(series types.HistorySeries, value float64) {
	if s.state == types.StateUnknown {
		return
	}
	s.appendUnconditionalLocked(series, value)
}

func (s *Store) appendUnconditionalLocked(series types.HistorySeries, value float64) {
	if last, ok := s.lastVal[series]; ok && last == value {
		return
	}
	s.lastVal[series] = value
	s.records[series] = append(s.records[series], types.HistoryRecord{
		TimeSeconds: uint64(s.now().Unix()),
		Value:       value,
		State:       s.state,
	})
	s.scheduleSaveLocked()
}

// scheduleSaveLocked arms the debounce timer, or flushes immediately
// when the battery is in the critical zone described by spec.md §4.5.
func (s *Store) scheduleSaveLocked() {
	if s.state == types.StateDischarging && s.percentage < criticalPercentage {
		if s.timer != nil {
			s.timer.Stop()
			s.timer = nil
		}
		s.flushLocked()
		return
	}
	if s.timer != nil {
		return
	}
	s.timer = time.AfterFunc(s.debounce, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.timer = nil
		s.flushLocked()
	})
}

// flushLocked rewrites every series file whole (spec.md §4.5: "no append
// semantics to cope with corruption").
func (s *Store) flushLocked() {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		s.log.Warn().Err(err).Str("id", s.id).Msg("failed to create history directory")
		return
	}
	for _, series := range allSeries {
		if err := writeSeriesFile(s.path(series), s.records[series]); err != nil {
			s.log.Warn().Err(err).Str("series", string(series)).Str("id", s.id).Msg("failed to write history series")
		}
	}
}

// Flush forces an immediate write of every series, bypassing the
// debounce timer. Used at daemon shutdown.
func (s *Store) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.flushLocked()
}

func writeSeriesFile(path string, recs []types.HistoryRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, r := range recs {
		fmt.Fprintf(w, "%d\t%g\t%s\n", r.TimeSeconds, r.Value, r.State.String())
	}
	return w.Flush()
}

func readSeriesFile(path string) ([]types.HistoryRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var recs []types.HistoryRecord
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Split(scanner.Text(), "\t")
		if len(fields) != 3 {
			continue
		}
		ts, err := strconv.ParseUint(fields[0], 10, 64)
		if err != nil {
			continue
		}
		val, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			continue
		}
		recs = append(recs, types.HistoryRecord{
			TimeSeconds: ts,
			Value:       val,
			State:       types.DeviceStateFromString(fields[2]),
		})
	}
	return recs, scanner.Err()
}

// GetHistory implements spec.md §4.5's read pipeline: filter to the
// requested timespan, then downsample using the time-division algorithm
// (never stride-based), preserving state boundaries. Time division alone
// yields at most `resolution` points; every state change inside the
// window starts an extra bucket, so the result can exceed `resolution`
// by up to the number of state changes.
func (s *Store) GetHistory(series types.HistorySeries, timespanSeconds int64, resolution int) []types.HistoryRecord {
	s.mu.Lock()
	recs := append([]types.HistoryRecord(nil), s.records[series]...)
	nowUnix := s.now().Unix()
	s.mu.Unlock()

	if len(recs) == 0 || resolution <= 0 {
		return nil
	}

	cutoff := int64(float64(nowUnix) - 0.95*float64(timespanSeconds))
	filtered := recs[:0:0]
	for _, r := range recs {
		if int64(r.TimeSeconds) >= cutoff {
			filtered = append(filtered, r)
		}
	}
	if len(filtered) == 0 {
		return nil
	}

	return downsampleTimeDivision(filtered, resolution)
}

// downsampleTimeDivision implements spec.md §4.5 step 2: walk backwards
// from the most recent record, starting a new bucket whenever the
// current record's timestamp crosses the next preset time boundary OR
// the state differs from the bucket's state.
func downsampleTimeDivision(recs []types.HistoryRecord, resolution int) []types.HistoryRecord {
	first := recs[len(recs)-1].TimeSeconds
	last := recs[0].TimeSeconds
	delta := (float64(first) - float64(last)) / float64(resolution)
	if delta <= 0 {
		delta = 1
	}

	var out []types.HistoryRecord
	var bucketSum float64
	var bucketCount int
	var bucketState types.DeviceState
	var bucketTime uint64
	nextBoundary := float64(first)
	haveBucket := false

	flush := func() {
		if bucketCount == 0 {
			return
		}
		out = append(out, types.HistoryRecord{
			TimeSeconds: bucketTime,
			Value:       bucketSum / float64(bucketCount),
			State:       bucketState,
		})
		bucketSum, bucketCount = 0, 0
	}

	for i := len(recs) - 1; i >= 0; i-- {
		r := recs[i]
		crossedBoundary := float64(r.TimeSeconds) < nextBoundary-delta
		stateChanged := haveBucket && r.State != bucketState
		if crossedBoundary || stateChanged {
			flush()
			nextBoundary = float64(r.TimeSeconds)
		}
		bucketSum += r.Value
		bucketCount++
		bucketState = r.State
		bucketTime = r.TimeSeconds
		haveBucket = true
	}
	flush()

	sort.Slice(out, func(i, j int) bool { return out[i].TimeSeconds < out[j].TimeSeconds })
	return out
}

// GetProfile implements spec.md §4.5's charge/discharge profile
// algorithm. direction selects Charging (true) or Discharging (false)
// transitions.
func (s *Store) GetProfile(charging bool) [types.ProfileBins]types.StatsRecord {
	s.mu.Lock()
	recs := append([]types.HistoryRecord(nil), s.records[types.SeriesCharge]...)
	s.mu.Unlock()

	wantState := types.StateDischarging
	if charging {
		wantState = types.StateCharging
	}

	var bins [types.ProfileBins]types.StatsRecord
	havePrev := false
	var prevTime uint64
	var prevPct float64
	var prevState types.DeviceState

	for _, r := range recs {
		if havePrev && r.State != prevState {
			havePrev = false
		}
		if havePrev {
			delta := math.Abs(r.Value - prevPct)
			if r.State == wantState && delta > 0.01 && delta < 3.0 {
				bin := int(r.Value)
				if bin >= 0 && bin < types.ProfileBins {
					bins[bin].Value += float64(r.TimeSeconds) - float64(prevTime)
					bins[bin].Accuracy++
				}
			}
		}
		prevTime, prevPct, prevState = r.TimeSeconds, r.Value, r.State
		havePrev = true
	}

	var sum float64
	var n float64
	for i := range bins {
		if bins[i].Accuracy > 0 {
			bins[i].Value /= bins[i].Accuracy
			sum += bins[i].Value
			n++
		}
	}
	if n > 0 {
		mean := sum / n
		for i := range bins {
			if bins[i].Accuracy > 0 && mean != 0 {
				bins[i].Value = (bins[i].Value - mean) / mean
			}
		}
	}

	for i := range bins {
		bins[i].Accuracy = minFloat(bins[i].Accuracy*20, 100)
	}

	return bins
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
