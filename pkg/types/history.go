package types

// HistorySeries names the four time-series HistoryStore records per
// battery (spec.md §3, §4.5).
type HistorySeries string

const (
	SeriesRate       HistorySeries = "rate"
	SeriesCharge     HistorySeries = "charge"
	SeriesTimeToFull HistorySeries = "time-full"
	SeriesTimeToEmpty HistorySeries = "time-empty"
)

// HistoryRecord is one sample of a time-series (spec.md §3).
type HistoryRecord struct {
	TimeSeconds uint64
	Value       float64
	State       DeviceState
}

// StatsRecord is one percentage-bin of a charge/discharge profile
// (spec.md §3).
type StatsRecord struct {
	Value    float64
	Accuracy float64 // 0..100
}

// ProfileBins is the fixed bin count of a charge/discharge profile: one
// bin per integer percentage point, 0..=100 inclusive (spec.md §4.5).
const ProfileBins = 101
