package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coldplug/upowerd/pkg/types"
)

func TestClassifyPowerSupplyBattery(t *testing.T) {
	var props types.Device
	var hid *hidState
	var wup *wupState
	variant, ok := classify(Native{Subsystem: SubsystemPowerSupply, Supply: fakeAttrs{"present": "1"}}, &props, &hid, &wup)
	require.True(t, ok)
	assert.Equal(t, types.VariantBattery, variant)
}

func TestClassifyPowerSupplyLinePower(t *testing.T) {
	var props types.Device
	var hid *hidState
	var wup *wupState
	variant, ok := classify(Native{Subsystem: SubsystemPowerSupply, Supply: fakeAttrs{"online": "1"}}, &props, &hid, &wup)
	require.True(t, ok)
	assert.Equal(t, types.VariantLinePower, variant)
}

func TestClassifyTTYWattsUpPro(t *testing.T) {
	var props types.Device
	var hid *hidState
	var wup *wupState
	port := &fakeSerialPort{responses: [][]byte{[]byte("#R,0,0;")}}
	variant, ok := classify(Native{Subsystem: SubsystemTTY, Serial: port}, &props, &hid, &wup)
	require.True(t, ok)
	assert.Equal(t, types.VariantMonitor, variant)
	assert.NotNil(t, wup)
}

func TestClassifyTTYRejectsNonMeter(t *testing.T) {
	var props types.Device
	var hid *hidState
	var wup *wupState
	port := &fakeSerialPort{responses: [][]byte{[]byte("garbage")}}
	_, ok := classify(Native{Subsystem: SubsystemTTY, Serial: port}, &props, &hid, &wup)
	assert.False(t, ok)
}

func TestClassifyUSBCSRMouse(t *testing.T) {
	var props types.Device
	var hid *hidState
	var wup *wupState
	variant, ok := classify(Native{Subsystem: SubsystemUSB, USB: &USBCandidate{VendorHint: "mouse"}}, &props, &hid, &wup)
	require.True(t, ok)
	assert.Equal(t, types.VariantMouse, variant)
}

func TestClassifyUSBHIDUPS(t *testing.T) {
	var props types.Device
	var hid *hidState
	var wup *wupState
	desc := &fakeHIDDescriptor{pages: []uint32{hidUsagePageDevice}}
	variant, ok := classify(Native{Subsystem: SubsystemUSB, USB: &USBCandidate{HID: desc}}, &props, &hid, &wup)
	require.True(t, ok)
	assert.Equal(t, types.VariantUPS, variant)
	assert.NotNil(t, hid)
}

func TestClassifyUSBRejectsUnrecognized(t *testing.T) {
	var props types.Device
	var hid *hidState
	var wup *wupState
	desc := &fakeHIDDescriptor{pages: []uint32{0x0c}}
	_, ok := classify(Native{Subsystem: SubsystemUSB, USB: &USBCandidate{HID: desc}}, &props, &hid, &wup)
	assert.False(t, ok)
}

func TestClassifyUnknownSubsystemRejected(t *testing.T) {
	var props types.Device
	var hid *hidState
	var wup *wupState
	_, ok := classify(Native{Subsystem: SubsystemInput}, &props, &hid, &wup)
	assert.False(t, ok)
}
