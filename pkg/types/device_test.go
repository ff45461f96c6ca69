package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectPathFor(t *testing.T) {
	path := ObjectPathFor(VariantBattery, "BAT0")
	assert.Equal(t, "/devices/battery_BAT0", string(path))

	path = ObjectPathFor(VariantLinePower, "ADP1.2:3")
	assert.Equal(t, "/devices/line_power_ADP1x2o3", string(path))
	require.NoError(t, path.Validate())
}

func TestSanitizeText(t *testing.T) {
	assert.Equal(t, "ACME", SanitizeText("  ACME\x00\x01"))
	assert.Equal(t, "", SanitizeText("\x00\x01\x02"))
}

func TestClamp01to100(t *testing.T) {
	assert.Equal(t, 0.0, Clamp01to100(-5))
	assert.Equal(t, 100.0, Clamp01to100(150))
	assert.Equal(t, 42.0, Clamp01to100(42))
}

func TestResetBatteryElectricalFields(t *testing.T) {
	d := &Device{
		Energy: 10, EnergyFull: 20, EnergyFullDesign: 25, EnergyEmpty: 1,
		EnergyRate: 5, Voltage: 12, Percentage: 50, Capacity: 80,
		TimeToEmptySeconds: 100, TimeToFullSeconds: 200, State: StateCharging,
	}
	d.ResetBatteryElectricalFields()
	assert.Zero(t, d.Energy)
	assert.Zero(t, d.EnergyFull)
	assert.Zero(t, d.Percentage)
	assert.Zero(t, d.TimeToEmptySeconds)
	assert.Equal(t, StateUnknown, d.State)
}

func TestDeviceEqual(t *testing.T) {
	a := &Device{NativePath: "BAT0", Percentage: 50, UpdateTimeSeconds: 1}
	b := &Device{NativePath: "BAT0", Percentage: 50, UpdateTimeSeconds: 2}
	assert.True(t, a.Equal(b), "update time must not affect equality")

	c := &Device{NativePath: "BAT0", Percentage: 51, UpdateTimeSeconds: 1}
	assert.False(t, a.Equal(c))
}

func TestVariantRoundTrip(t *testing.T) {
	for v := range variantStrings {
		assert.Equal(t, v, VariantFromString(v.String()))
	}
	assert.Equal(t, VariantUnknown, VariantFromString("bogus"))
}

func TestTechnologyFromSysfs(t *testing.T) {
	cases := map[string]Technology{
		"Li-ion":  TechnologyLithiumIon,
		"LION":    TechnologyLithiumIon,
		"PBAC":    TechnologyLeadAcid,
		"LiPo":    TechnologyLithiumPolymer,
		"NiMH":    TechnologyNickelMetalHydride,
		"LiFe":    TechnologyLithiumIronPhosphate,
		"unknown": TechnologyUnknown,
		"":        TechnologyUnknown,
	}
	for in, want := range cases {
		assert.Equal(t, want, TechnologyFromSysfs(in), "input %q", in)
	}
}

func TestDeviceStateFromStatus(t *testing.T) {
	assert.Equal(t, StateCharging, DeviceStateFromStatus("Charging"))
	assert.Equal(t, StateDischarging, DeviceStateFromStatus("discharging"))
	assert.Equal(t, StateFullyCharged, DeviceStateFromStatus("Full"))
	assert.Equal(t, StateEmpty, DeviceStateFromStatus("Empty"))
	assert.Equal(t, StateUnknown, DeviceStateFromStatus("Weird"))
}
