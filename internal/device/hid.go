package device

import "github.com/coldplug/upowerd/pkg/types"

// hidUsagePageDevice is the HID usage page that must appear among a
// device's application collections for it to be accepted as a UPS
// (spec.md §4.2.6: "must match usage page 0x84 (Power Device)").
const hidUsagePageDevice = 0x84

// HID usage codes mapped by spec.md §4.2.6.
const (
	hidUsageRemainingCapacity = 0x850066
	hidUsageRuntimeToEmpty    = 0x850068
	hidUsageCharging          = 0x850044
	hidUsageDischarging       = 0x850045
	hidUsageBatteryPresent    = 0x8500d1
	hidUsageChemistry         = 0x850089
	hidUsageRechargeable      = 0x85008b
	hidUsageOemInformation    = 0x85008f
	hidUsageProduct           = 0x8400fe
	hidUsageSerialNumber      = 0x8400ff
	hidUsageDesignCapacity    = 0x850083
)

// HIDUsage is one field read off a HID UPS report.
type HIDUsage struct {
	Code  uint32
	Value float64
	Text  string
}

// HIDDescriptor is the seam probeHIDUPS and refreshHIDLocked use to talk
// to a hiddev-style UPS (spec.md §4.2.1 step 3). ApplicationPages is the
// set of usage pages found in the device's application collections;
// ReadUsages performs one non-blocking poll of the report the device
// currently has pending, returning no usages (not an error) when nothing
// is ready.
type HIDDescriptor interface {
	ApplicationPages() []uint32
	ReadUsages() ([]HIDUsage, error)
}

// USBCandidate describes a USB device discovered by a Backend that might
// be a CSR wireless peripheral or a HID UPS (spec.md §4.2.1 step 3).
type USBCandidate struct {
	Bus, Device int
	VendorHint  string
	HID         HIDDescriptor
}

// hidState holds the UPS-variant handle once classify has accepted a USB
// device as a HID Power Device.
type hidState struct {
	desc HIDDescriptor
}

// probeHIDUPS implements spec.md §4.2.6's coldplug rule: the device's
// application descriptors must include the Power Device usage page.
func probeHIDUPS(desc HIDDescriptor) bool {
	if desc == nil {
		return false
	}
	for _, page := range desc.ApplicationPages() {
		if page == hidUsagePageDevice {
			return true
		}
	}
	return false
}

// refreshHIDLocked implements spec.md §4.2.4/§4.2.6: a non-blocking poll
// of whatever usages the device currently reports. Absence of any usage
// is not an error — the meter only pushes reports on change.
func (d *Device) refreshHIDLocked() bool {
	if d.hid == nil || d.hid.desc == nil {
		return false
	}
	usages, err := d.hid.desc.ReadUsages()
	if err != nil {
		return false
	}

	d.props.PowerSupply = true
	d.props.IsPresent = true

	for _, u := range usages {
		switch u.Code {
		case hidUsageRemainingCapacity:
			d.props.Percentage = types.Clamp01to100(u.Value)
		case hidUsageRuntimeToEmpty:
			d.props.TimeToEmptySeconds = int64(u.Value)
		case hidUsageCharging:
			if u.Value != 0 {
				d.props.State = types.StateCharging
			}
		case hidUsageDischarging:
			if u.Value != 0 {
				d.props.State = types.StateDischarging
			}
		case hidUsageBatteryPresent:
			d.props.IsPresent = u.Value != 0
		case hidUsageChemistry:
			d.props.Technology = types.TechnologyFromSysfs(u.Text)
		case hidUsageRechargeable:
			d.props.IsRechargeable = u.Value != 0
		case hidUsageOemInformation:
			d.props.Vendor = types.SanitizeText(u.Text)
		case hidUsageProduct:
			d.props.Model = types.SanitizeText(u.Text)
		case hidUsageSerialNumber:
			d.props.Serial = types.SanitizeText(u.Text)
		case hidUsageDesignCapacity:
			d.props.EnergyFullDesign = u.Value
		}
	}

	return true
}
