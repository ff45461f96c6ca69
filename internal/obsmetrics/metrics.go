// Package obsmetrics exposes daemon and device state as Prometheus
// metrics, grounded on the power_supply collector style of
// node_exporter: one gauge per numeric attribute, labeled by device
// identity, registered against a caller-supplied prometheus.Registerer
// rather than the global default so embedding is explicit.
package obsmetrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/coldplug/upowerd/pkg/types"
)

const namespace = "upowerd"

// Registry holds every gauge this package publishes. The zero value is
// not usable; use New.
type Registry struct {
	percentage  *prometheus.GaugeVec
	energyRate  *prometheus.GaugeVec
	timeToEmpty *prometheus.GaugeVec
	timeToFull  *prometheus.GaugeVec
	state       *prometheus.GaugeVec
	online      *prometheus.GaugeVec

	onBattery    prometheus.Gauge
	lowBattery   prometheus.Gauge
	canSuspend   prometheus.Gauge
	canHibernate prometheus.Gauge

	wakeupsTotal prometheus.Gauge
}

var deviceLabels = []string{"native_path", "variant", "model", "serial"}

// New constructs a Registry and registers every metric against reg.
func New(reg prometheus.Registerer) *Registry {
	r := &Registry{
		percentage: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "device_percentage", Help: "Battery charge percentage, 0-100.",
		}, deviceLabels),
		energyRate: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "device_energy_rate_watts", Help: "Instantaneous charge/discharge rate in watts.",
		}, deviceLabels),
		timeToEmpty: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "device_time_to_empty_seconds", Help: "Estimated seconds until empty, 0 if unknown.",
		}, deviceLabels),
		timeToFull: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "device_time_to_full_seconds", Help: "Estimated seconds until full, 0 if unknown.",
		}, deviceLabels),
		state: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "device_state", Help: "Numeric DeviceState enum value.",
		}, deviceLabels),
		online: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "device_online", Help: "1 if a LinePower device reports online, else 0.",
		}, deviceLabels),
		onBattery: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "on_battery", Help: "1 if the system is currently running on battery power.",
		}),
		lowBattery: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "low_battery", Help: "1 if every present battery is below the low-battery threshold.",
		}),
		canSuspend: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "can_suspend", Help: "1 if the platform advertises suspend-to-RAM support.",
		}),
		canHibernate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "can_hibernate", Help: "1 if the platform advertises suspend-to-disk support with adequate swap.",
		}),
		wakeupsTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "wakeups_total_per_second", Help: "EMA-smoothed total system wakeups per second.",
		}),
	}

	reg.MustRegister(
		r.percentage, r.energyRate, r.timeToEmpty, r.timeToFull, r.state, r.online,
		r.onBattery, r.lowBattery, r.canSuspend, r.canHibernate, r.wakeupsTotal,
	)
	return r
}

// ObserveDevice updates every per-device gauge from a property snapshot.
func (r *Registry) ObserveDevice(props types.Device) {
	labels := prometheus.Labels{
		"native_path": props.NativePath,
		"variant":     props.Variant.String(),
		"model":       props.Model,
		"serial":      props.Serial,
	}
	r.percentage.With(labels).Set(props.Percentage)
	r.energyRate.With(labels).Set(props.EnergyRate)
	r.timeToEmpty.With(labels).Set(float64(props.TimeToEmptySeconds))
	r.timeToFull.With(labels).Set(float64(props.TimeToFullSeconds))
	r.state.With(labels).Set(float64(props.State))
	onlineVal := 0.0
	if props.Online {
		onlineVal = 1.0
	}
	r.online.With(labels).Set(onlineVal)
}

// RemoveDevice drops a device's gauges, used once it leaves DeviceList.
func (r *Registry) RemoveDevice(props types.Device) {
	labels := prometheus.Labels{
		"native_path": props.NativePath,
		"variant":     props.Variant.String(),
		"model":       props.Model,
		"serial":      props.Serial,
	}
	r.percentage.Delete(labels)
	r.energyRate.Delete(labels)
	r.timeToEmpty.Delete(labels)
	r.timeToFull.Delete(labels)
	r.state.Delete(labels)
	r.online.Delete(labels)
}

// ObserveSystem updates the daemon-wide booleans.
func (r *Registry) ObserveSystem(onBattery, lowBattery, canSuspend, canHibernate bool) {
	r.onBattery.Set(boolToFloat(onBattery))
	r.lowBattery.Set(boolToFloat(lowBattery))
	r.canSuspend.Set(boolToFloat(canSuspend))
	r.canHibernate.Set(boolToFloat(canHibernate))
}

// ObserveWakeups updates the smoothed wakeups total.
func (r *Registry) ObserveWakeups(totalPerSecond float64) {
	r.wakeupsTotal.Set(totalPerSecond)
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
