package history

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coldplug/upowerd/pkg/types"
)

func newTestStore(t *testing.T) (*Store, *time.Time) {
	t.Helper()
	clock := time.Unix(1_700_000_000, 0)
	s := New(t.TempDir(), "test-battery", time.Hour)
	s.now = func() time.Time { return clock }
	return s, &clock
}

func TestSetCharge_DedupesIdenticalValues(t *testing.T) {
	s, _ := newTestStore(t)
	s.SetState(types.StateCharging)
	s.SetCharge(50)
	s.SetCharge(50)
	s.SetCharge(51)

	assert.Len(t, s.records[types.SeriesCharge], 2)
}

func TestSetCharge_RequiresKnownState(t *testing.T) {
	s, _ := newTestStore(t)
	s.SetCharge(50)
	assert.Empty(t, s.records[types.SeriesCharge])
}

func TestSetTimeEmpty_RejectsNegative(t *testing.T) {
	s, _ := newTestStore(t)
	s.SetState(types.StateDischarging)
	s.SetTimeEmpty(-5)
	assert.Empty(t, s.records[types.SeriesTimeToEmpty])
}

func TestCriticalLowFlushesImmediately(t *testing.T) {
	s, _ := newTestStore(t)
	s.SetState(types.StateDischarging)
	s.SetCharge(5)

	data, err := os.ReadFile(s.path(types.SeriesCharge))
	require.NoError(t, err)
	assert.Contains(t, string(data), "5")
}

func TestNonCriticalWriteDebounces(t *testing.T) {
	s, _ := newTestStore(t)
	s.debounce = time.Hour
	s.SetState(types.StateCharging)
	s.SetCharge(50)

	_, err := os.Stat(s.path(types.SeriesCharge))
	assert.True(t, os.IsNotExist(err))
}

func TestFlushWritesAllSeries(t *testing.T) {
	s, _ := newTestStore(t)
	s.SetState(types.StateCharging)
	s.SetCharge(50)
	s.SetRate(10)
	s.Flush()

	for _, series := range allSeries {
		_, err := os.Stat(s.path(series))
		assert.NoError(t, err)
	}
}

func TestLoadReadsBackPersistedRecords(t *testing.T) {
	dir := t.TempDir()
	s1 := New(dir, "bat", time.Hour)
	s1.SetState(types.StateDischarging)
	s1.SetCharge(9)

	s2 := New(dir, "bat", time.Hour)
	require.NoError(t, s2.Load())
	assert.Len(t, s2.records[types.SeriesCharge], 1)
	assert.Equal(t, 9.0, s2.records[types.SeriesCharge][0].Value)
}

func TestLoadToleratesMissingFiles(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "missing"), "bat", time.Hour)
	assert.NoError(t, s.Load())
}

func TestGetHistoryDownsamplesToResolution(t *testing.T) {
	s, clock := newTestStore(t)
	s.SetState(types.StateDischarging)
	base := *clock
	for i := 0; i < 100; i++ {
		*clock = base.Add(time.Duration(i) * time.Minute)
		s.records[types.SeriesCharge] = append(s.records[types.SeriesCharge], types.HistoryRecord{
			TimeSeconds: uint64(clock.Unix()),
			Value:       float64(100 - i),
			State:       types.StateDischarging,
		})
	}
	*clock = base.Add(100 * time.Minute)

	out := s.GetHistory(types.SeriesCharge, int64(100*time.Minute/time.Second), 10)
	assert.LessOrEqual(t, len(out), 10)
	assert.NotEmpty(t, out)
}

func TestGetHistoryPreservesStateBoundaries(t *testing.T) {
	s, clock := newTestStore(t)
	base := *clock
	for i := 0; i < 10; i++ {
		*clock = base.Add(time.Duration(i) * time.Minute)
		state := types.StateCharging
		if i >= 5 {
			state = types.StateDischarging
		}
		s.records[types.SeriesCharge] = append(s.records[types.SeriesCharge], types.HistoryRecord{
			TimeSeconds: uint64(clock.Unix()),
			Value:       float64(i * 10),
			State:       state,
		})
	}
	*clock = base.Add(10 * time.Minute)

	out := s.GetHistory(types.SeriesCharge, int64(10*time.Minute/time.Second), 1)
	var sawCharging, sawDischarging bool
	for _, r := range out {
		if r.State == types.StateCharging {
			sawCharging = true
		}
		if r.State == types.StateDischarging {
			sawDischarging = true
		}
	}
	assert.True(t, sawCharging)
	assert.True(t, sawDischarging)
}

func TestGetProfileComputesRescaledMeanAndAccuracy(t *testing.T) {
	s, clock := newTestStore(t)
	base := *clock

	push := func(offsetMinutes int, pct float64, state types.DeviceState) {
		*clock = base.Add(time.Duration(offsetMinutes) * time.Minute)
		s.records[types.SeriesCharge] = append(s.records[types.SeriesCharge], types.HistoryRecord{
			TimeSeconds: uint64(clock.Unix()),
			Value:       pct,
			State:       state,
		})
	}

	// Bin 41 is reached twice (after 600s and after 120s, average 360s)
	// and bin 42 once (after 600s); the grand mean over both bins is 480s.
	push(0, 42, types.StateDischarging)
	push(10, 41, types.StateDischarging)
	push(20, 42, types.StateDischarging)
	push(22, 41, types.StateDischarging)

	profile := s.GetProfile(false)
	assert.Greater(t, profile[41].Accuracy, 0.0)
	assert.InDelta(t, -0.25, profile[41].Value, 1e-9)
	assert.InDelta(t, 0.25, profile[42].Value, 1e-9)
	assert.Equal(t, 40.0, profile[41].Accuracy)
	assert.Equal(t, 20.0, profile[42].Accuracy)
}

func TestGetProfileIgnoresWrongDirection(t *testing.T) {
	s, clock := newTestStore(t)
	base := *clock
	push := func(offsetMinutes int, pct float64, state types.DeviceState) {
		*clock = base.Add(time.Duration(offsetMinutes) * time.Minute)
		s.records[types.SeriesCharge] = append(s.records[types.SeriesCharge], types.HistoryRecord{
			TimeSeconds: uint64(clock.Unix()),
			Value:       pct,
			State:       state,
		})
	}
	push(0, 40, types.StateCharging)
	push(5, 41, types.StateCharging)

	profile := s.GetProfile(false)
	assert.Equal(t, 0.0, profile[41].Accuracy)
}
