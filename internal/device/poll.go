package device

import (
	"time"

	"github.com/coldplug/upowerd/pkg/types"
)

// pollPolicyLocked implements spec.md §4.2.4: each variant/state combination
// declares whether (and how often) it needs to be polled on platforms
// that don't raise change events for it.
func (d *Device) pollPolicyLocked() (interval time.Duration, shouldPoll bool) {
	switch d.props.Variant {
	case types.VariantLinePower:
		return 0, false
	case types.VariantBattery:
		switch d.props.State {
		case types.StateFullyCharged:
			return 0, false
		case types.StateUnknown:
			if d.unknownRetries < d.cfg.UnknownStateRetries {
				return d.cfg.UnknownStatePollInterval, true
			}
			return d.cfg.BatteryPollInterval, true
		default:
			return d.cfg.BatteryPollInterval, true
		}
	case types.VariantMouse, types.VariantKeyboard, types.VariantUPS, types.VariantMonitor:
		return d.cfg.PeripheralPollInterval, true
	default:
		return 0, false
	}
}

// rearmPollLocked arms a fresh one-shot poll timer per the current poll
// policy. Any previously pending timer was already cancelled by
// refreshLocked before dispatch (spec.md §5: "the Device's poll timer id
// is cleared on every successful refresh entry, then rearmed only if the
// variant policy requires it").
func (d *Device) rearmPollLocked() {
	interval, shouldPoll := d.pollPolicyLocked()
	if !shouldPoll {
		return
	}
	if d.props.Variant == types.VariantBattery && d.props.State == types.StateUnknown {
		d.unknownRetries++
	}

	generation := d.pollGeneration
	d.pollTimer = time.AfterFunc(interval, func() {
		d.mu.Lock()
		if d.pollGeneration != generation {
			d.mu.Unlock()
			return
		}
		ok, changed := d.refreshLocked(false)
		d.mu.Unlock()

		d.notifyRefreshResult(ok, changed)
	})
}

// cancelPollLocked cancels any outstanding poll timer and bumps the
// generation counter so a timer that fired concurrently with a cancel
// becomes a no-op (spec.md §5: "outstanding polls for a Device are
// cancelled on removal").
func (d *Device) cancelPollLocked() {
	d.pollGeneration++
	if d.pollTimer != nil {
		d.pollTimer.Stop()
		d.pollTimer = nil
	}
}

// Stop permanently cancels any pending poll, used when the device is
// removed from the DeviceList.
func (d *Device) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelPollLocked()
}
