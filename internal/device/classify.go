package device

import "github.com/coldplug/upowerd/pkg/types"

// classify implements the coldplug decision tree of spec.md §4.2.1. It
// never sees SubsystemInput handles — those are lid-switch candidates and
// are routed by the daemon straight to a LidInput observer (spec.md
// §4.2.1 step 4, §4.6) without becoming a Device at all.
//
// On success it populates props with every coldplug field the matched
// probe determines and returns the classified variant. On failure it
// returns (VariantUnknown, false) and leaves props untouched, so the
// caller can try the native handle against a different Backend/probe.
func classify(native Native, props *types.Device, hid **hidState, wup **wupState) (types.Variant, bool) {
	switch native.Subsystem {
	case SubsystemPowerSupply:
		return classifySupply(native, props)
	case SubsystemTTY:
		if probeWattsUpPro(native.Serial) {
			*wup = &wupState{port: native.Serial}
			return types.VariantMonitor, true
		}
		return types.VariantUnknown, false
	case SubsystemUSB:
		if native.USB == nil {
			return types.VariantUnknown, false
		}
		if variant, ok := probeCSR(native.USB); ok {
			return variant, true
		}
		if native.USB.HID != nil && probeHIDUPS(native.USB.HID) {
			*hid = &hidState{desc: native.USB.HID}
			return types.VariantUPS, true
		}
		return types.VariantUnknown, false
	default:
		return types.VariantUnknown, false
	}
}

// classifySupply implements spec.md §4.2.1 step 1: read `online` — if
// present, the handle is LinePower, else Battery.
func classifySupply(native Native, props *types.Device) (types.Variant, bool) {
	if native.Supply == nil {
		return types.VariantUnknown, false
	}
	props.PowerSupply = true
	if _, hasOnline := native.Supply.ReadAttr("online"); hasOnline {
		return types.VariantLinePower, true
	}
	return types.VariantBattery, true
}
