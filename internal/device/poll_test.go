package device

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coldplug/upowerd/internal/config"
	"github.com/coldplug/upowerd/pkg/types"
)

func TestPollPolicyLinePowerNeverPolls(t *testing.T) {
	d := New(config.Default(), nil, nil)
	d.props.Variant = types.VariantLinePower
	_, shouldPoll := d.pollPolicyLocked()
	assert.False(t, shouldPoll)
}

func TestPollPolicyFullyChargedBatteryNeverPolls(t *testing.T) {
	d := New(config.Default(), nil, nil)
	d.props.Variant = types.VariantBattery
	d.props.State = types.StateFullyCharged
	_, shouldPoll := d.pollPolicyLocked()
	assert.False(t, shouldPoll)
}

func TestPollPolicyUnknownBatteryUsesFastIntervalUntilRetriesExhausted(t *testing.T) {
	cfg := config.Default()
	cfg.UnknownStateRetries = 2
	d := New(cfg, nil, nil)
	d.props.Variant = types.VariantBattery
	d.props.State = types.StateUnknown

	interval, shouldPoll := d.pollPolicyLocked()
	require.True(t, shouldPoll)
	assert.Equal(t, cfg.UnknownStatePollInterval, interval)

	d.unknownRetries = cfg.UnknownStateRetries
	interval, shouldPoll = d.pollPolicyLocked()
	require.True(t, shouldPoll)
	assert.Equal(t, cfg.BatteryPollInterval, interval)
}

func TestPollPolicyPeripheralsUseConfiguredInterval(t *testing.T) {
	cfg := config.Default()
	d := New(cfg, nil, nil)
	for _, v := range []types.Variant{types.VariantMouse, types.VariantKeyboard, types.VariantUPS, types.VariantMonitor} {
		d.props.Variant = v
		interval, shouldPoll := d.pollPolicyLocked()
		assert.True(t, shouldPoll)
		assert.Equal(t, cfg.PeripheralPollInterval, interval)
	}
}

func TestCancelPollStopsTimerAndBumpsGeneration(t *testing.T) {
	cfg := config.Default()
	cfg.BatteryPollInterval = time.Hour
	d := New(cfg, nil, nil)
	d.props.Variant = types.VariantBattery
	d.props.State = types.StateCharging

	d.mu.Lock()
	d.rearmPollLocked()
	require.NotNil(t, d.pollTimer)
	gen := d.pollGeneration
	d.cancelPollLocked()
	d.mu.Unlock()

	assert.Nil(t, d.pollTimer)
	assert.NotEqual(t, gen, d.pollGeneration)
}

func TestStopIsIdempotent(t *testing.T) {
	d := New(config.Default(), nil, nil)
	d.Stop()
	d.Stop()
}
