package device

import "github.com/coldplug/upowerd/pkg/types"

// probeCSR implements spec.md §4.2.1 step 3's first probe: a CSR
// wireless mouse/keyboard dongle is identified purely from the vendor
// type hint a Backend already resolved from the USB bus (there is no
// further protocol to speak; the presence of the device on the bus is
// the signal). Classification fails closed on any hint the table
// doesn't recognise.
func probeCSR(usb *USBCandidate) (types.Variant, bool) {
	if usb == nil {
		return types.VariantUnknown, false
	}
	switch usb.VendorHint {
	case "mouse":
		return types.VariantMouse, true
	case "keyboard":
		return types.VariantKeyboard, true
	default:
		return types.VariantUnknown, false
	}
}

// refreshCSRLocked implements spec.md §4.2.4's CSR peripheral poll: these
// devices report no battery telemetry of their own beyond bus presence,
// so a successful poll is simply "still enumerated".
func (d *Device) refreshCSRLocked() bool {
	d.props.PowerSupply = false
	d.props.IsPresent = true
	return true
}
