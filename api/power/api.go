// Package power defines the daemon's public operation surface (spec.md
// §4.4): the RPC-shaped methods a transport (D-Bus, HTTP, a CLI) adapts
// to, independent of any particular wire format.
package power

import (
	"github.com/godbus/dbus/v5"

	"github.com/coldplug/upowerd/pkg/types"
)

// AuthCheck gates an operation by subject and polkit-style action id; a
// real transport resolves subject from the caller's credentials. It
// preserves the action-id strings of the daemon this module's polkit
// integration was modeled on, so existing policy files keep working.
type AuthCheck func(subject, actionID string) bool

const (
	ActionSuspend   = "org.freedesktop.upower.suspend"
	ActionHibernate = "org.freedesktop.upower.hibernate"
)

// DaemonAPI is the operation table of spec.md §4.4.
type DaemonAPI interface {
	// EnumerateDevices returns a snapshot of every known device's object
	// path.
	EnumerateDevices() []dbus.ObjectPath

	// GetDisplayDevice returns the synthetic aggregate path clients use
	// to show one headline battery status (spec.md §4.4: "may be the
	// first battery").
	GetDisplayDevice() (dbus.ObjectPath, bool)

	// Refresh invokes Device.Refresh() for the device at path.
	Refresh(path dbus.ObjectPath) bool

	// GetHistory returns a downsampled time-series for one device's
	// series (spec.md §4.5).
	GetHistory(path dbus.ObjectPath, series types.HistorySeries, timespanSeconds int64, resolution int) ([]types.HistoryRecord, error)

	// GetStatistics returns a charge or discharge profile for one
	// device (spec.md §4.5).
	GetStatistics(path dbus.ObjectPath, charging bool) ([types.ProfileBins]types.StatsRecord, error)

	// Suspend is auth-gated by ActionSuspend; on success it invokes the
	// pm-suspend hook.
	Suspend(subject string) error

	// Hibernate is auth-gated by ActionHibernate; on success it invokes
	// the pm-hibernate hook.
	Hibernate(subject string) error

	// CanSuspend and CanHibernate reflect the Backend capability probes
	// taken at startup.
	CanSuspend() bool
	CanHibernate() bool
}
