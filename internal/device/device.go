// Package device implements the per-power-source state machine of
// spec.md §4.2: coldplug classification, the battery/line-power refresh
// algorithm, the Watts Up? Pro serial protocol, HID UPS usage mapping,
// and the polling scheduler that drives refreshes on platforms that
// don't push change events.
package device

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/coldplug/upowerd/internal/config"
	"github.com/coldplug/upowerd/internal/logging"
	"github.com/coldplug/upowerd/pkg/types"
)

// Subsystem is the platform subsystem a native handle was discovered
// under; it drives which coldplug probe in the decision tree (spec.md
// §4.2.1) is attempted.
type Subsystem int

const (
	SubsystemUnknown Subsystem = iota
	SubsystemPowerSupply
	SubsystemTTY
	SubsystemUSB
	SubsystemInput
)

// AttrReader reads a single sysfs-style attribute by name, trimmed of
// surrounding whitespace. It abstracts the Linux power_supply sysfs
// directory (spec.md §6) so the refresh algorithm is testable without
// real files.
type AttrReader interface {
	ReadAttr(name string) (string, bool)
}

// Native describes one handle emitted by a Backend (spec.md §4.3): the
// stable path identifying it, the subsystem it was discovered under, and
// the seams coldplug probing needs for that subsystem.
type Native struct {
	Path      string
	Subsystem Subsystem

	// Supply is set when Subsystem == SubsystemPowerSupply.
	Supply AttrReader

	// Serial is set when Subsystem == SubsystemTTY, for the Watts Up?
	// Pro probe.
	Serial SerialPort

	// USB is set when Subsystem == SubsystemUSB.
	USB *USBCandidate
}

// OnChanged is invoked whenever a refresh or poll observes a property
// change (spec.md §4.2: "emits changed"). The daemon registers this at
// coldplug time; Device never calls back into the daemon any other way
// (spec.md §9: "Event emission goes Daemon -> Device by call, never the
// reverse").
type OnChanged func(*Device)

// OnRemove is invoked when the device's pipeline determines it should be
// dropped (a refresh, poll or Changed call whose refresh returns false).
type OnRemove func(*Device)

// Device is the per-power-source state machine of spec.md §4.2. The zero
// value is not usable; use New.
type Device struct {
	mu sync.Mutex

	native Native
	props  types.Device
	cfg    config.Config
	log    zerolog.Logger

	onChanged OnChanged
	onRemove  OnRemove

	pollTimer      *time.Timer
	pollGeneration uint64
	unknownRetries int

	energyOld     float64
	energyOldTime time.Time
	haveEnergyOld bool

	coldplugged bool

	supplyInitialized bool
	designVoltage     float64
	usingChargeUnits  bool

	history HistoryFeeder

	wup *wupState
	hid *hidState
}

// HistoryFeeder is the seam Device uses to report battery samples into
// internal/history.Store (spec.md §4.2.2 step 11, §4.5), without Device
// importing the history package directly.
type HistoryFeeder interface {
	SetState(types.DeviceState)
	SetCharge(float64)
	SetRate(float64)
	SetTimeFull(float64)
	SetTimeEmpty(float64)
}

// SetHistoryFeeder attaches the HistoryStore-backed feeder a Battery
// Device reports samples to. Called by the daemon once the device's
// identity (model/serial/design capacity) is known, i.e. after coldplug.
func (d *Device) SetHistoryFeeder(h HistoryFeeder) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.history = h
}

// New constructs an unclassified Device. Callers must call Coldplug
// before anything else.
func New(cfg config.Config, onChanged OnChanged, onRemove OnRemove) *Device {
	return &Device{
		cfg:       cfg,
		onChanged: onChanged,
		onRemove:  onRemove,
		log:       logging.WithComponent("device"),
	}
}

// NativePath implements devicelist.Entry.
func (d *Device) NativePath() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.native.Path
}

// Properties returns a copy of the canonical property set (spec.md §3).
func (d *Device) Properties() types.Device {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.props
}

// Variant returns the device's classified variant.
func (d *Device) Variant() types.Variant {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.props.Variant
}

// Coldplug performs the one-shot classification of spec.md §4.2.1. On
// success the device is populated, registered at its computed object
// path, and given its initial refresh; Coldplug returns false (without
// mutating any exported state) when no probe in the decision tree
// accepts the handle.
func (d *Device) Coldplug(native Native) bool {
	d.mu.Lock()

	variant, ok := classify(native, &d.props, &d.hid, &d.wup)
	if !ok {
		d.mu.Unlock()
		return false
	}

	d.native = native
	d.props.Variant = variant
	d.props.NativePath = native.Path
	d.props.ObjectPath = types.ObjectPathFor(variant, basename(native.Path))
	d.coldplugged = true

	refreshed, changed := d.refreshLocked(true)
	d.mu.Unlock()

	d.notifyRefreshResult(refreshed, changed)
	return true
}

// Refresh cancels any pending poll, timestamps UpdateTimeSeconds, and
// dispatches to the variant-specific refresh routine (spec.md §4.2).
// Returns false to mean "drop me" (e.g. the native handle is gone).
func (d *Device) Refresh() bool {
	d.mu.Lock()
	ok, changed := d.refreshLocked(false)
	d.mu.Unlock()

	d.notifyRefreshResult(ok, changed)
	return ok
}

// notifyRefreshResult invokes onRemove/onChanged with d.mu released, since
// both callbacks (the daemon's removeDevice/deviceChanged) read the
// device back through Properties, which would re-lock the same,
// non-reentrant mutex.
func (d *Device) notifyRefreshResult(ok, changed bool) {
	if !ok {
		if d.onRemove != nil {
			d.onRemove(d)
		}
		return
	}
	if changed && d.onChanged != nil {
		d.onChanged(d)
	}
}

// refreshLocked dispatches the variant-specific refresh and reports
// whether the handle is still present and whether any property changed.
// It never invokes onChanged/onRemove itself; callers must do so after
// releasing d.mu (see notifyRefreshResult).
func (d *Device) refreshLocked(coldplug bool) (ok, changed bool) {
	d.cancelPollLocked()

	before := d.props
	ok = d.dispatchRefreshLocked(coldplug)
	d.props.UpdateTimeSeconds = nowSeconds()

	if !ok {
		return false, false
	}

	changed = !before.Equal(&d.props)
	d.rearmPollLocked()
	return true, changed
}

func (d *Device) dispatchRefreshLocked(coldplug bool) bool {
	switch d.props.Variant {
	case types.VariantBattery, types.VariantLinePower:
		return d.refreshSupplyLocked(coldplug)
	case types.VariantUPS:
		return d.refreshHIDLocked()
	case types.VariantMonitor:
		return d.refreshWUPLocked()
	case types.VariantMouse, types.VariantKeyboard:
		return d.refreshCSRLocked()
	default:
		return true
	}
}

// Changed is called on backend change events (spec.md §4.2): it swaps in
// the new native handle, refreshes, and emits changed (through
// notifyRefreshResult, after releasing d.mu) when refreshLocked reports
// that a property differs from the prior snapshot.
func (d *Device) Changed(native Native) bool {
	d.mu.Lock()
	d.native = native
	d.props.NativePath = native.Path
	ok, changed := d.refreshLocked(false)
	d.mu.Unlock()

	d.notifyRefreshResult(ok, changed)
	return ok
}

// GetOnBattery reports whether this device, if a battery, is presently
// discharging. Returns (false, false) when not meaningful for this
// variant (spec.md §4.2: "per-variant predicates; None means 'not
// meaningful for this variant'").
func (d *Device) GetOnBattery() (value bool, meaningful bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.props.Variant != types.VariantBattery {
		return false, false
	}
	return d.props.IsPresent && d.props.State == types.StateDischarging, true
}

// GetLowBattery reports whether this device, if a battery, is below the
// configured low-battery percentage threshold.
func (d *Device) GetLowBattery(threshold float64) (value bool, meaningful bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.props.Variant != types.VariantBattery || !d.props.IsPresent {
		return false, false
	}
	return d.props.Percentage < threshold, true
}

// GetOnline reports LinePower's online attribute.
func (d *Device) GetOnline() (value bool, meaningful bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.props.Variant != types.VariantLinePower {
		return false, false
	}
	return d.props.Online, true
}

var nowSeconds = func() int64 { return time.Now().Unix() }

func basename(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[i+1:]
		}
	}
	return path
}

