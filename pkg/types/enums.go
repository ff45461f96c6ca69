package types

import "strings"

// Variant identifies the kind of power-related device a Device represents.
type Variant int

const (
	VariantUnknown Variant = iota
	VariantLinePower
	VariantBattery
	VariantUPS
	VariantMouse
	VariantKeyboard
	VariantPDA
	VariantPhone
	VariantMonitor
)

// variantStrings is the single {variant -> string} table spec.md §9 asks
// for; VariantFromString below is its inverse. Every converter in the
// codebase goes through one of these two functions.
var variantStrings = map[Variant]string{
	VariantUnknown:   "unknown",
	VariantLinePower: "line-power",
	VariantBattery:   "battery",
	VariantUPS:       "ups",
	VariantMouse:     "mouse",
	VariantKeyboard:  "keyboard",
	VariantPDA:       "pda",
	VariantPhone:     "phone",
	VariantMonitor:   "monitor",
}

// String renders the wire/on-disk form of a Variant (spec.md §6).
func (v Variant) String() string {
	if s, ok := variantStrings[v]; ok {
		return s
	}
	return "unknown"
}

// VariantFromString parses the wire/on-disk form of a Variant. Unknown
// input maps to VariantUnknown, never an error — variant strings are
// produced by this codebase, not untrusted input.
func VariantFromString(s string) Variant {
	for v, str := range variantStrings {
		if str == s {
			return v
		}
	}
	return VariantUnknown
}

// DeviceState is the charging/discharging lifecycle of a battery-backed
// device.
type DeviceState int

const (
	StateUnknown DeviceState = iota
	StateCharging
	StateDischarging
	StateEmpty
	StateFullyCharged
	StatePendingCharge
	StatePendingDischarge
)

var deviceStateStrings = map[DeviceState]string{
	StateUnknown:          "unknown",
	StateCharging:         "charging",
	StateDischarging:      "discharging",
	StateEmpty:            "empty",
	StateFullyCharged:     "fully-charged",
	StatePendingCharge:    "pending-charge",
	StatePendingDischarge: "pending-discharge",
}

// String renders the on-disk/wire form of a DeviceState (spec.md §6).
func (s DeviceState) String() string {
	if str, ok := deviceStateStrings[s]; ok {
		return str
	}
	return "unknown"
}

// DeviceStateFromString parses the on-disk/wire form of a DeviceState.
func DeviceStateFromString(s string) DeviceState {
	for st, str := range deviceStateStrings {
		if str == s {
			return st
		}
	}
	return StateUnknown
}

// DeviceStateFromStatus maps the case-insensitive sysfs `status` attribute
// (spec.md §4.2.2 step 5) to a DeviceState. It is distinct from
// DeviceStateFromString, which round-trips this package's own on-disk
// strings rather than the kernel's.
func DeviceStateFromStatus(status string) DeviceState {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "charging":
		return StateCharging
	case "discharging":
		return StateDischarging
	case "full":
		return StateFullyCharged
	case "empty":
		return StateEmpty
	default:
		return StateUnknown
	}
}

// Technology identifies the battery chemistry.
type Technology int

const (
	TechnologyUnknown Technology = iota
	TechnologyLithiumIon
	TechnologyLithiumPolymer
	TechnologyLithiumIronPhosphate
	TechnologyLeadAcid
	TechnologyNickelCadmium
	TechnologyNickelMetalHydride
)

var technologyStrings = map[Technology]string{
	TechnologyUnknown:              "unknown",
	TechnologyLithiumIon:           "lithium-ion",
	TechnologyLithiumPolymer:       "lithium-polymer",
	TechnologyLithiumIronPhosphate: "lithium-iron-phosphate",
	TechnologyLeadAcid:             "lead-acid",
	TechnologyNickelCadmium:        "nickel-cadmium",
	TechnologyNickelMetalHydride:   "nickel-metal-hydride",
}

// String renders the wire form of a Technology (spec.md §6).
func (t Technology) String() string {
	if s, ok := technologyStrings[t]; ok {
		return s
	}
	return "unknown"
}

// TechnologyFromSysfs maps the free-form sysfs `technology` attribute
// (spec.md §4.2.3) to a Technology, case-insensitively.
func TechnologyFromSysfs(s string) Technology {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "li-ion", "lion":
		return TechnologyLithiumIon
	case "pb", "pbac":
		return TechnologyLeadAcid
	case "lip", "lipo", "li-poly":
		return TechnologyLithiumPolymer
	case "nimh":
		return TechnologyNickelMetalHydride
	case "lifo", "life":
		return TechnologyLithiumIronPhosphate
	default:
		return TechnologyUnknown
	}
}
