// Package backend implements spec.md §4.3: the platform-specific layer
// that discovers native device handles and turns kernel/ACPI events into
// the uniform add/change/remove notifications the daemon consumes.
package backend

import "github.com/coldplug/upowerd/internal/device"

// EventKind identifies which of the three uniform notifications a Backend
// raised for a native handle.
type EventKind int

const (
	EventAdded EventKind = iota
	EventChanged
	EventRemoved
)

// Event is one notification a Backend emits for a native handle. Known is
// nil for EventAdded (the daemon hasn't classified it yet); for
// EventChanged/EventRemoved it carries whatever Device currently owns
// that native path, when the backend is able to resolve it.
type Event struct {
	Kind   EventKind
	Native device.Native
	Known  *device.Device

	// LidClosed carries the reported switch state when Native.Subsystem
	// is SubsystemInput; it is nil for every other subsystem (spec.md
	// §4.2.1 step 4: lid handles never become a Device, so the daemon
	// reads the reading straight off the event instead). The Linux
	// backend does not read the switch state, so its input events carry
	// nil and the daemon ignores them.
	LidClosed *bool
}

// Sink receives events from a Backend as the platform reports them. The
// daemon implements Sink; tests can substitute a channel-backed stub.
type Sink interface {
	HandleEvent(Event)
}

// Backend is the contract of spec.md §4.3. Coldplug enumerates every
// native handle currently present, calling sink.HandleEvent(EventAdded)
// for each, then arms whatever subscription mechanism the platform
// offers; events published after Coldplug returns continue to flow to
// sink until Close.
type Backend interface {
	Coldplug(sink Sink) bool

	// CanSuspend and CanHibernate report the host's sleep-state
	// capability (spec.md §4.3): probed once and cached by the daemon
	// at startup.
	CanSuspend() bool
	CanHibernate() bool

	// Close stops event delivery and releases any platform resources
	// (netlink sockets, devd pipe connections, timers).
	Close() error
}
