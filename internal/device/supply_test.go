package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coldplug/upowerd/internal/config"
	"github.com/coldplug/upowerd/pkg/types"
)

// fakeAttrs is an in-memory AttrReader for exercising the refresh
// algorithm without real sysfs files.
type fakeAttrs map[string]string

func (f fakeAttrs) ReadAttr(name string) (string, bool) {
	v, ok := f[name]
	return v, ok
}

func batteryAttrs() fakeAttrs {
	return fakeAttrs{
		"present":            "1",
		"status":             "Charging",
		"technology":         "Li-ion",
		"manufacturer":       "ExampleCorp",
		"model_name":         "EX-100",
		"serial_number":      "SN123",
		"voltage_max_design": "12000000",
		"energy_now":         "30000000",
		"energy_full":        "60000000",
		"energy_full_design": "60000000",
		"current_now":        "1000000",
	}
}

func newColdplugBattery(t *testing.T, attrs fakeAttrs) *Device {
	t.Helper()
	cfg := config.Default()
	d := New(cfg, nil, nil)
	ok := d.Coldplug(Native{Path: "BAT0", Subsystem: SubsystemPowerSupply, Supply: attrs})
	require.True(t, ok)
	return d
}

// TestColdplugBatteryCharging50Percent exercises the coldplug/refresh
// scenario of spec.md §8 Scenario 1: a battery at half charge, charging,
// must report the expected derived fields and remain within bounds.
func TestColdplugBatteryCharging50Percent(t *testing.T) {
	attrs := batteryAttrs()
	attrs["energy_now"] = "30000000"
	attrs["energy_full"] = "60000000"

	d := newColdplugBattery(t, attrs)
	props := d.Properties()

	assert.Equal(t, types.VariantBattery, props.Variant)
	assert.True(t, props.IsPresent)
	assert.Equal(t, types.StateCharging, props.State)
	assert.InDelta(t, 50.0, props.Percentage, 0.001)
	assert.InDelta(t, 100.0, props.Capacity, 0.001)
	assert.Equal(t, types.TechnologyLithiumIon, props.Technology)
	assert.Equal(t, "ExampleCorp", props.Vendor)
	assert.Equal(t, "EX-100", props.Model)
	assert.Equal(t, "SN123", props.Serial)
	assert.GreaterOrEqual(t, props.Percentage, 0.0)
	assert.LessOrEqual(t, props.Percentage, 100.0)
	assert.LessOrEqual(t, props.Energy, props.EnergyFull)
	assert.Equal(t, int64(0), props.TimeToEmptySeconds)
}

func TestRefreshBatteryDischargingComputesTimeToEmpty(t *testing.T) {
	attrs := batteryAttrs()
	attrs["status"] = "Discharging"
	attrs["energy_now"] = "30000000"
	attrs["current_now"] = "5000000"

	d := newColdplugBattery(t, attrs)
	props := d.Properties()

	assert.Equal(t, types.StateDischarging, props.State)
	assert.Greater(t, props.TimeToEmptySeconds, int64(0))
	assert.Equal(t, int64(0), props.TimeToFullSeconds)
}

func TestRefreshBatteryAbsentResetsElectricalFields(t *testing.T) {
	attrs := batteryAttrs()
	d := newColdplugBattery(t, attrs)

	attrs["present"] = "0"
	d.native.Supply = attrs
	ok := d.Refresh()
	require.True(t, ok)

	props := d.Properties()
	assert.False(t, props.IsPresent)
	assert.Equal(t, 0.0, props.Energy)
	assert.Equal(t, 0.0, props.Percentage)
	assert.Equal(t, types.StateUnknown, props.State)
}

func TestFullyChargedDemotedBelow60Percent(t *testing.T) {
	attrs := batteryAttrs()
	attrs["status"] = "Full"
	attrs["energy_now"] = "20000000"
	attrs["energy_full"] = "60000000"
	attrs["current_now"] = "1000000"

	d := newColdplugBattery(t, attrs)
	props := d.Properties()

	assert.NotEqual(t, types.StateFullyCharged, props.State)
	assert.Less(t, props.Percentage, 60.0)
}

func TestFullyChargedAcceptedAbove60Percent(t *testing.T) {
	attrs := batteryAttrs()
	attrs["status"] = "Full"
	attrs["energy_now"] = "55000000"
	attrs["energy_full"] = "60000000"
	attrs["current_now"] = "0"

	d := newColdplugBattery(t, attrs)
	props := d.Properties()

	assert.Equal(t, types.StateFullyCharged, props.State)
}

func TestEnergyFullExceedsDesignPromotesDesign(t *testing.T) {
	attrs := batteryAttrs()
	attrs["energy_full"] = "70000000"
	attrs["energy_full_design"] = "60000000"

	d := newColdplugBattery(t, attrs)
	props := d.Properties()

	assert.Equal(t, props.EnergyFull, props.EnergyFullDesign)
	assert.InDelta(t, 100.0, props.Capacity, 0.001)
}

func TestLinePowerOnlineReflectsAttr(t *testing.T) {
	cfg := config.Default()
	d := New(cfg, nil, nil)
	attrs := fakeAttrs{"online": "1"}
	ok := d.Coldplug(Native{Path: "AC", Subsystem: SubsystemPowerSupply, Supply: attrs})
	require.True(t, ok)

	props := d.Properties()
	assert.Equal(t, types.VariantLinePower, props.Variant)
	assert.True(t, props.Online)
	assert.True(t, props.PowerSupply)

	online, meaningful := d.GetOnline()
	assert.True(t, meaningful)
	assert.True(t, online)
}

func TestGetOnBatteryMeaningfulOnlyForBattery(t *testing.T) {
	attrs := batteryAttrs()
	attrs["status"] = "Discharging"
	d := newColdplugBattery(t, attrs)

	onBattery, meaningful := d.GetOnBattery()
	assert.True(t, meaningful)
	assert.True(t, onBattery)

	_, meaningful = d.GetLowBattery(100)
	assert.True(t, meaningful)
}

func TestCurrentNowSentinelFFFFTreatedAsZero(t *testing.T) {
	attrs := batteryAttrs()
	attrs["current_now"] = "65535" // 0xffff
	d := newColdplugBattery(t, attrs)

	props := d.Properties()
	assert.Equal(t, 0.0, props.EnergyRate)
}
