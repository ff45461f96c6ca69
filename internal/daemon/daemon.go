// Package daemon implements spec.md §4.4: the aggregator that subscribes
// to Backend events, maintains the DeviceList, derives system booleans,
// drives pm-utils power policy, and answers the RPC surface of
// api/power.DaemonAPI.
package daemon

import (
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog"

	"github.com/coldplug/upowerd/api/power"
	"github.com/coldplug/upowerd/internal/backend"
	"github.com/coldplug/upowerd/internal/config"
	"github.com/coldplug/upowerd/internal/device"
	"github.com/coldplug/upowerd/internal/devicelist"
	"github.com/coldplug/upowerd/internal/history"
	"github.com/coldplug/upowerd/internal/logging"
	"github.com/coldplug/upowerd/internal/obsmetrics"
	"github.com/coldplug/upowerd/pkg/types"
)

// Daemon is the process-level singleton of spec.md §4.4. The zero value
// is not usable; use New.
type Daemon struct {
	cfg config.Config
	log zerolog.Logger

	be        backend.Backend
	authCheck power.AuthCheck
	onChanged func()

	mu      sync.Mutex
	devices *devicelist.List[*device.Device]
	byPath  map[dbus.ObjectPath]*device.Device

	historiesMu sync.Mutex
	histories   map[string]*history.Store

	onBattery  bool
	lowBattery bool
	lid        lidState

	canSuspendCap   bool
	canHibernateCap bool

	settleTimer *time.Timer

	metrics *obsmetrics.Registry
}

// SetMetrics attaches a Prometheus registry that every subsequent device
// and system-boolean change publishes to. Nil (the default) disables
// publication entirely; callers that don't need /metrics pay nothing.
func (d *Daemon) SetMetrics(m *obsmetrics.Registry) {
	d.metrics = m
}

// New constructs a Daemon bound to a Backend. onChanged, if non-nil, is
// invoked whenever a device or system-boolean change should be published
// to clients; authCheck gates Suspend/Hibernate.
func New(cfg config.Config, be backend.Backend, authCheck power.AuthCheck, onChanged func()) *Daemon {
	if cfg.Verbose {
		logging.SetLevel(zerolog.DebugLevel)
	}
	return &Daemon{
		cfg:       cfg,
		log:       logging.WithComponent("daemon"),
		be:        be,
		authCheck: authCheck,
		onChanged: onChanged,
		devices:   devicelist.New[*device.Device](),
		byPath:    make(map[dbus.ObjectPath]*device.Device),
		histories: make(map[string]*history.Store),
	}
}

// Start probes Backend capabilities and runs Coldplug, which synchronously
// populates DeviceList and arms the ongoing event subscription.
func (d *Daemon) Start() bool {
	d.canSuspendCap = d.be.CanSuspend()
	d.canHibernateCap = d.be.CanHibernate()
	return d.be.Coldplug(d)
}

// HandleEvent implements backend.Sink. It is the single entry point
// through which every device-added/changed/removed and lid-switch
// notification reaches daemon state (spec.md §4.3, §4.6).
func (d *Daemon) HandleEvent(ev backend.Event) {
	if ev.Native.Subsystem == device.SubsystemInput {
		d.handleLidEvent(ev)
		return
	}

	d.mu.Lock()
	existing, known := d.devices.Lookup(ev.Native.Path)
	d.mu.Unlock()

	switch ev.Kind {
	case backend.EventRemoved:
		if known {
			d.removeDevice(existing)
		}
	case backend.EventAdded:
		if known {
			d.changeDevice(existing, ev.Native)
			return
		}
		d.addDevice(ev.Native)
	case backend.EventChanged:
		// "Change" on an unknown handle is synthesized into an "add"
		// (spec.md §4.3).
		if !known {
			d.addDevice(ev.Native)
			return
		}
		d.changeDevice(existing, ev.Native)
	}
}

func (d *Daemon) addDevice(native device.Native) {
	dev := device.New(d.cfg, d.deviceChanged, d.deviceRemoved)
	if !dev.Coldplug(native) {
		return
	}

	d.mu.Lock()
	d.devices.Insert(dev)
	d.byPath[dev.Properties().ObjectPath] = dev
	d.mu.Unlock()

	d.attachHistory(dev)
	d.recomputeSystemState()
	d.publishMetrics(dev.Properties())
	d.notifyChanged()
}

func (d *Daemon) changeDevice(dev *device.Device, native device.Native) {
	dev.Changed(native)
}

func (d *Daemon) removeDevice(dev *device.Device) {
	dev.Stop()
	props := dev.Properties()
	d.mu.Lock()
	d.devices.Remove(dev)
	delete(d.byPath, props.ObjectPath)
	d.mu.Unlock()
	if d.metrics != nil {
		d.metrics.RemoveDevice(props)
	}
	d.recomputeSystemState()
	d.notifyChanged()
}

// deviceChanged is the device.OnChanged callback: every device property
// change recomputes system booleans and republishes (spec.md §5: "Daemon
// recomputes system booleans before emitting changed"). It runs after
// the device has released its own lock, so this SetState always sees
// the refresh that already happened; it's a harmless redundant write
// when the refresh's own state-change block already set it (supply.go).
func (d *Daemon) deviceChanged(dev *device.Device) {
	props := dev.Properties()
	if h := d.historyFor(props); h != nil {
		h.SetState(props.State)
	}
	wasOnBattery := d.onBattery
	d.recomputeSystemState()
	d.publishMetrics(props)
	if d.onBattery != wasOnBattery {
		d.handleOnBatteryTransition()
	}
	d.notifyChanged()
}

func (d *Daemon) publishMetrics(props types.Device) {
	if d.metrics == nil {
		return
	}
	d.metrics.ObserveDevice(props)
	d.metrics.ObserveSystem(d.onBattery, d.lowBattery, d.canSuspendCap, d.canHibernateCap)
}

func (d *Daemon) deviceRemoved(dev *device.Device) {
	d.removeDevice(dev)
}

func (d *Daemon) attachHistory(dev *device.Device) {
	props := dev.Properties()
	if props.Variant != types.VariantBattery {
		return
	}
	h := d.historyFor(props)
	dev.SetHistoryFeeder(h)
}

func (d *Daemon) historyFor(props types.Device) *history.Store {
	id := history.BatteryID(props.Model, props.EnergyFullDesign, props.Serial)

	d.historiesMu.Lock()
	defer d.historiesMu.Unlock()
	h, ok := d.histories[id]
	if !ok {
		h = history.New(d.cfg.HistoryDir, id, d.cfg.HistoryDebounce)
		if err := h.Load(); err != nil {
			d.log.Warn().Err(err).Str("id", id).Msg("failed to load history")
		}
		d.histories[id] = h
	}
	return h
}

// recomputeSystemState implements spec.md §4.4's on_battery/low_battery
// definitions.
func (d *Daemon) recomputeSystemState() {
	d.mu.Lock()
	devs := d.devices.Iter()
	d.mu.Unlock()

	anyDischarging := false
	anyLinePowerOnline := false
	allPresentLow := true
	anyPresentBattery := false

	for _, dev := range devs {
		props := dev.Properties()
		switch props.Variant {
		case types.VariantBattery:
			if !props.IsPresent {
				continue
			}
			anyPresentBattery = true
			if props.State == types.StateDischarging {
				anyDischarging = true
			}
			if props.Percentage >= d.cfg.LowBatteryPercentage {
				allPresentLow = false
			}
		case types.VariantLinePower:
			if props.Online {
				anyLinePowerOnline = true
			}
		}
	}

	d.onBattery = anyDischarging && !anyLinePowerOnline
	d.lowBattery = d.onBattery && anyPresentBattery && allPresentLow
}

// handleOnBatteryTransition implements spec.md §4.4's 4-step sequence.
func (d *Daemon) handleOnBatteryTransition() {
	d.notifyChanged()
	d.refreshAllBatteries()

	if d.settleTimer != nil {
		d.settleTimer.Stop()
	}
	d.settleTimer = time.AfterFunc(d.cfg.OnBatterySettleDelay, d.refreshAllBatteries)

	d.runPowersaveHook(d.onBattery)
}

func (d *Daemon) refreshAllBatteries() {
	d.mu.Lock()
	devs := d.devices.Iter()
	d.mu.Unlock()
	for _, dev := range devs {
		if dev.Variant() == types.VariantBattery {
			dev.Refresh()
		}
	}
}

func (d *Daemon) notifyChanged() {
	if d.onChanged != nil {
		d.onChanged()
	}
}

func (d *Daemon) handleLidEvent(ev backend.Event) {
	if ev.LidClosed == nil {
		return
	}
	wasPresent := d.lid.present
	shouldEmit := d.lid.observe(*ev.LidClosed)
	if !wasPresent {
		d.notifyChanged() // lid_is_present transitioning to true
	}
	if shouldEmit {
		d.notifyChanged()
	}
}

// OnBattery, LowBattery, LidPresent, LidClosed report the current system
// booleans of spec.md §4.4.
func (d *Daemon) OnBattery() bool  { return d.onBattery }
func (d *Daemon) LowBattery() bool { return d.lowBattery }
func (d *Daemon) LidPresent() bool { return d.lid.present }
func (d *Daemon) LidClosed() bool  { return d.lid.closed }

var _ power.DaemonAPI = (*Daemon)(nil)

// EnumerateDevices implements power.DaemonAPI.
func (d *Daemon) EnumerateDevices() []dbus.ObjectPath {
	d.mu.Lock()
	defer d.mu.Unlock()
	paths := make([]dbus.ObjectPath, 0, len(d.byPath))
	for p := range d.byPath {
		paths = append(paths, p)
	}
	return paths
}

// GetDisplayDevice implements power.DaemonAPI: the first battery found,
// if any (spec.md §4.4: "implementation defined; may be the first
// battery").
func (d *Daemon) GetDisplayDevice() (dbus.ObjectPath, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, dev := range d.devices.Iter() {
		if dev.Variant() == types.VariantBattery {
			return dev.Properties().ObjectPath, true
		}
	}
	return "", false
}

func (d *Daemon) lookup(path dbus.ObjectPath) (*device.Device, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	dev, ok := d.byPath[path]
	return dev, ok
}

// Refresh implements power.DaemonAPI.
func (d *Daemon) Refresh(path dbus.ObjectPath) bool {
	dev, ok := d.lookup(path)
	if !ok {
		return false
	}
	return dev.Refresh()
}

// GetHistory implements power.DaemonAPI.
func (d *Daemon) GetHistory(path dbus.ObjectPath, series types.HistorySeries, timespanSeconds int64, resolution int) ([]types.HistoryRecord, error) {
	dev, ok := d.lookup(path)
	if !ok {
		return nil, types.ErrUnknownDevice
	}
	h := d.historyFor(dev.Properties())
	return h.GetHistory(series, timespanSeconds, resolution), nil
}

// GetStatistics implements power.DaemonAPI.
func (d *Daemon) GetStatistics(path dbus.ObjectPath, charging bool) ([types.ProfileBins]types.StatsRecord, error) {
	dev, ok := d.lookup(path)
	if !ok {
		return [types.ProfileBins]types.StatsRecord{}, types.ErrUnknownDevice
	}
	h := d.historyFor(dev.Properties())
	return h.GetProfile(charging), nil
}

// Suspend implements power.DaemonAPI: auth-gated invocation of the
// pm-suspend hook.
func (d *Daemon) Suspend(subject string) error {
	if d.authCheck != nil && !d.authCheck(subject, power.ActionSuspend) {
		return types.ErrAuthDenied
	}
	if !d.canSuspendCap {
		return types.ErrCapabilityMissing
	}
	return runHook(d.cfg.SuspendHook)
}

// Hibernate implements power.DaemonAPI: auth-gated invocation of the
// pm-hibernate hook.
func (d *Daemon) Hibernate(subject string) error {
	if d.authCheck != nil && !d.authCheck(subject, power.ActionHibernate) {
		return types.ErrAuthDenied
	}
	if !d.canHibernateCap {
		return types.ErrCapabilityMissing
	}
	return runHook(d.cfg.HibernateHook)
}

// CanSuspend implements power.DaemonAPI.
func (d *Daemon) CanSuspend() bool { return d.canSuspendCap }

// CanHibernate implements power.DaemonAPI.
func (d *Daemon) CanHibernate() bool { return d.canHibernateCap }

// Close releases the Backend and flushes every history store.
func (d *Daemon) Close() error {
	if d.settleTimer != nil {
		d.settleTimer.Stop()
	}
	d.historiesMu.Lock()
	for _, h := range d.histories {
		h.Flush()
	}
	d.historiesMu.Unlock()
	return d.be.Close()
}
