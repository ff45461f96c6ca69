package types

import (
	"strings"

	"github.com/godbus/dbus/v5"
)

// Device is the canonical property set exposed by every device variant
// (spec.md §3). Unused attributes for a given variant take the sentinel
// values documented per-field below; callers must not infer variant from
// zero values alone, only from Variant.
type Device struct {
	NativePath string
	ObjectPath dbus.ObjectPath
	Variant    Variant

	Vendor, Model, Serial string

	// UpdateTimeSeconds is set by every successful refresh.
	UpdateTimeSeconds int64

	PowerSupply bool // true if this device actually powers the host
	Online      bool // meaningful for LinePower

	IsPresent      bool // meaningful for Battery/UPS
	IsRechargeable bool // meaningful for Battery/UPS

	State      DeviceState
	Technology Technology

	// Energy* are watt-hours; 0 means "no value".
	Energy, EnergyFull, EnergyFullDesign, EnergyEmpty float64

	// EnergyRate is watts, always >= 0 (magnitude only).
	EnergyRate float64

	// Voltage is volts, >= 0.
	Voltage float64

	// Percentage is 0..100 inclusive.
	Percentage float64

	// Capacity is 0..100 inclusive; health = energy_full/energy_full_design.
	Capacity float64

	// TimeToEmptySeconds / TimeToFullSeconds; 0 means unknown.
	TimeToEmptySeconds, TimeToFullSeconds int64

	HasHistory    bool
	HasStatistics bool
}

// pathReplacer implements the object-path sanitization rule of spec.md §6:
// '-' -> '_', '.' -> 'x', ':' -> 'o'.
var pathReplacer = strings.NewReplacer("-", "_", ".", "x", ":", "o")

// ObjectPathFor computes the stable, transport-compatible object path for
// a device with the given variant and native path basename (spec.md §3,
// §6): "/devices/<variant>_<native path basename>", with the sanitization
// applied to that whole last element, so "line-power" becomes "line_power".
func ObjectPathFor(variant Variant, nativePathBasename string) dbus.ObjectPath {
	return dbus.ObjectPath("/devices/" + pathReplacer.Replace(variant.String()+"_"+nativePathBasename))
}

// SanitizeText strips non-printable characters from vendor/model/serial
// strings read off hardware (spec.md §3: "sanitized (non-printable chars
// stripped)").
func SanitizeText(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7f {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Clamp01to100 clamps v into [0, 100].
func Clamp01to100(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

// ResetBatteryElectricalFields zeroes every battery-electrical field, per
// the invariant in spec.md §3: "If is_present is false, all
// battery-electrical fields are reset to sentinel zeros."
func (d *Device) ResetBatteryElectricalFields() {
	d.Energy = 0
	d.EnergyFull = 0
	d.EnergyFullDesign = 0
	d.EnergyEmpty = 0
	d.EnergyRate = 0
	d.Voltage = 0
	d.Percentage = 0
	d.Capacity = 0
	d.TimeToEmptySeconds = 0
	d.TimeToFullSeconds = 0
	d.State = StateUnknown
}

// Equal reports whether two devices have an identical canonical property
// set; used by Device.changed (spec.md §4.2) to detect whether a refresh
// produced an observable change.
func (d *Device) Equal(o *Device) bool {
	if d == nil || o == nil {
		return d == o
	}
	dd, oo := *d, *o
	dd.UpdateTimeSeconds, oo.UpdateTimeSeconds = 0, 0
	return dd == oo
}
