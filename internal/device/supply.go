package device

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/coldplug/upowerd/pkg/types"
)

// microToUnit converts a raw sysfs integer string (micro-units) to a
// float in base units (e.g. µWh -> Wh, µV -> V). Missing/unparsable
// attributes return (0, false) — callers treat that as "not reported"
// and store the 0 sentinel, replacing any value from an earlier refresh;
// a failed read does not keep the previous value.
func microToUnit(r AttrReader, name string) (float64, bool) {
	raw, ok := r.ReadAttr(name)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, false
	}
	return v / 1_000_000.0, true
}

func microToUnitRaw(r AttrReader, name string) (float64, float64, bool) {
	raw, ok := r.ReadAttr(name)
	if !ok {
		return 0, 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, 0, false
	}
	return v, v / 1_000_000.0, true
}

func readBool01(r AttrReader, name string) (bool, bool) {
	raw, ok := r.ReadAttr(name)
	if !ok {
		return false, false
	}
	return strings.TrimSpace(raw) == "1", true
}

// designVoltageFrom implements spec.md §4.2.2 step 3: voltage_max_design,
// falling back to voltage_min_design, falling back to voltage_present.
func designVoltageFrom(r AttrReader) float64 {
	for _, attr := range []string{"voltage_max_design", "voltage_min_design", "voltage_present"} {
		if v, ok := microToUnit(r, attr); ok && v > 0 {
			return v
		}
	}
	return 0
}

// energyOrCharge reads an energy attribute (µWh) and falls back to the
// corresponding charge attribute (µAh), converted through designVoltage,
// per spec.md §4.2.2 step 2. Returns the value in Wh and whether it came
// from the charge-unit fallback.
func energyOrCharge(r AttrReader, energyAttr, chargeAttr string, designVoltage float64) (float64, bool) {
	if v, ok := microToUnit(r, energyAttr); ok && v != 0 {
		return v, false
	}
	if chargeAh, ok := microToUnit(r, chargeAttr); ok {
		return chargeAh * designVoltage, true
	}
	return 0, false
}

// refreshSupplyLocked implements spec.md §4.2.2 (battery) and the
// LinePower half of §4.2.1 step 1. Called with d.mu held.
func (d *Device) refreshSupplyLocked(coldplug bool) bool {
	r := d.native.Supply
	if r == nil {
		return false
	}

	if d.props.Variant == types.VariantLinePower {
		online, _ := readBool01(r, "online")
		d.props.Online = online
		d.props.PowerSupply = true
		return true
	}

	return d.refreshBatteryLocked(r, coldplug)
}

func (d *Device) refreshBatteryLocked(r AttrReader, coldplug bool) bool {
	present, havePresent := readBool01(r, "present")
	if havePresent && !present {
		d.props.IsPresent = false
		d.props.ResetBatteryElectricalFields()
		return true
	}
	d.props.IsPresent = true

	if d.designVoltage == 0 {
		d.designVoltage = designVoltageFrom(r)
	}
	d.props.Voltage = d.designVoltage

	energy, usingCharge := energyOrCharge(r, "energy_now", "charge_now", d.designVoltage)
	if energy == 0 {
		energy, usingCharge = energyOrCharge(r, "energy_avg", "charge_avg", d.designVoltage)
	}
	d.usingChargeUnits = usingCharge
	d.props.Energy = energy

	if !d.supplyInitialized {
		d.coldplugSupplyFieldsLocked(r)
	}

	previousState := d.props.State
	status, _ := r.ReadAttr("status")
	state := types.DeviceStateFromStatus(status)
	if state == types.StateUnknown && d.props.Energy < 0.01 {
		state = types.StateEmpty
	}
	if state != types.StateUnknown {
		d.unknownRetries = 0
	}

	rate := d.computeRateLocked(r)

	if d.props.Energy > d.props.EnergyFull {
		d.props.EnergyFull = d.props.Energy
	}

	if d.props.EnergyFull > 0 {
		d.props.Percentage = types.Clamp01to100(100 * d.props.Energy / d.props.EnergyFull)
	}

	// spec.md §3: a transition to FullyCharged is only permitted when the
	// battery isn't discharging and percentage > 60%.
	if state == types.StateFullyCharged && d.props.Percentage <= 60 {
		if rate > 0 {
			state = types.StateCharging
		} else {
			state = types.StateUnknown
		}
	}
	d.props.State = state
	d.props.EnergyRate = rate

	d.props.TimeToEmptySeconds = 0
	d.props.TimeToFullSeconds = 0
	switch state {
	case types.StateDischarging:
		if rate > 0 {
			d.props.TimeToEmptySeconds = int64(3600 * d.props.Energy / rate)
		}
	case types.StateCharging:
		if rate > 0 {
			d.props.TimeToFullSeconds = int64(3600 * (d.props.EnergyFull - d.props.Energy) / rate)
		}
	}
	const maxReportable = 20 * 3600
	if d.props.TimeToEmptySeconds > maxReportable {
		d.props.TimeToEmptySeconds = 0
	}
	if d.props.TimeToFullSeconds > maxReportable {
		d.props.TimeToFullSeconds = 0
	}

	stateChanged := state != previousState
	if stateChanged {
		d.haveEnergyOld = false
	} else {
		d.energyOld = d.props.Energy
		d.energyOldTime = time.Now()
		d.haveEnergyOld = true
	}

	if stateChanged && d.history != nil {
		d.history.SetState(state)
		d.history.SetCharge(d.props.Percentage)
		d.history.SetRate(d.props.EnergyRate)
		d.history.SetTimeFull(float64(d.props.TimeToFullSeconds))
		d.history.SetTimeEmpty(float64(d.props.TimeToEmptySeconds))
	}

	return true
}

// coldplugSupplyFieldsLocked implements spec.md §4.2.2 step 4: fields
// populated once, on the first successful refresh of a battery.
func (d *Device) coldplugSupplyFieldsLocked(r AttrReader) {
	tech, _ := r.ReadAttr("technology")
	d.props.Technology = types.TechnologyFromSysfs(tech)

	vendor, _ := r.ReadAttr("manufacturer")
	model, _ := r.ReadAttr("model_name")
	serial, _ := r.ReadAttr("serial_number")
	d.props.Vendor = types.SanitizeText(vendor)
	d.props.Model = types.SanitizeText(model)
	d.props.Serial = types.SanitizeText(serial)

	d.props.IsRechargeable = true
	d.props.HasHistory = true
	d.props.HasStatistics = true

	energyFull, _ := energyOrCharge(r, "energy_full", "charge_full", d.designVoltage)
	energyFullDesign, _ := energyOrCharge(r, "energy_full_design", "charge_full_design", d.designVoltage)

	if energyFull > energyFullDesign {
		// Hardware sometimes lies; promote the design value up to match
		// rather than capping the observed value down.
		d.log.Warn().Str("native_path", d.props.NativePath).Msg("energy_full exceeds energy_full_design, adjusting design capacity")
		energyFullDesign = energyFull
	}
	if energyFull < 0.01 {
		energyFull = energyFullDesign
	}

	d.props.EnergyFull = energyFull
	d.props.EnergyFullDesign = energyFullDesign

	if energyFullDesign > 0 {
		d.props.Capacity = types.Clamp01to100(100 * energyFull / energyFullDesign)
	}

	d.supplyInitialized = true
}

// computeRateLocked implements spec.md §4.2.2 steps 6 and 8: read
// current_now, sanity-clamp it, and derive it from the energy
// differential when hardware doesn't report it.
func (d *Device) computeRateLocked(r AttrReader) float64 {
	raw, converted, ok := microToUnitRaw(r, "current_now")
	if ok {
		if raw == 0xffff {
			return 0
		}
		rate := math.Abs(converted)
		if d.usingChargeUnits {
			rate = math.Abs(raw/1_000_000.0) * d.designVoltage
		}
		if rate > 100_000 {
			return 0
		}
		return rate
	}

	if !d.haveEnergyOld || d.energyOldTime.IsZero() {
		return 0
	}
	dt := nowSecondsFloat() - float64(d.energyOldTime.Unix())
	dEnergy := math.Abs(d.energyOld - d.props.Energy)
	if dEnergy >= 0.1 && dt > 0 {
		return dEnergy * 3600 / dt
	}
	return 0
}

var nowSecondsFloat = func() float64 { return float64(nowSeconds()) }
