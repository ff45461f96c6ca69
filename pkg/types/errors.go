package types

import "errors"

// Sentinel errors of the device/backend/daemon/history error taxonomy.
// The operation surface in api/power returns ErrAuthDenied,
// ErrCapabilityMissing and ErrHookFailed (Suspend/Hibernate) and
// ErrUnknownDevice (GetHistory/GetStatistics). No function in this module
// returns ErrProbeRejected, ErrDeviceGone, ErrTransientIO,
// ErrHistoryCorrupt or ErrNoBattery; they name error classes for callers
// and embedders.
var (
	// ErrProbeRejected means a coldplug probe determined the native handle
	// is not of the variant it tests for. The caller should try the next
	// probe in the decision tree.
	ErrProbeRejected = errors.New("types: coldplug probe rejected handle")

	// ErrDeviceGone means a refresh read failed because the kernel removed
	// the underlying native handle. Callers should treat this as an
	// implicit removal.
	ErrDeviceGone = errors.New("types: device handle no longer present")

	// ErrTransientIO means a sysfs/procfs read returned partial or
	// malformed data. The affected attribute is left at its previous
	// value.
	ErrTransientIO = errors.New("types: transient I/O error reading device attribute")

	// ErrHistoryCorrupt means a persisted history file failed to parse.
	// The offending line is skipped.
	ErrHistoryCorrupt = errors.New("types: history file failed to parse")

	// ErrAuthDenied means a Suspend/Hibernate request was refused by the
	// AuthCheck hook. No side effects occur.
	ErrAuthDenied = errors.New("types: action denied by authorization check")

	// ErrCapabilityMissing means Suspend/Hibernate is unsupported by the
	// platform (no kernel sleep state, or insufficient swap).
	ErrCapabilityMissing = errors.New("types: requested capability unsupported on this platform")

	// ErrHookFailed means the suspend/hibernate/powersave subprocess
	// exited non-zero.
	ErrHookFailed = errors.New("types: power hook exited non-zero")

	// ErrNoBattery means an operation that requires a present battery was
	// attempted on a device that reports IsPresent == false.
	ErrNoBattery = errors.New("types: no battery present")

	// ErrUnknownDevice is returned when an operation references an object
	// path or native path that DeviceList does not know about.
	ErrUnknownDevice = errors.New("types: unknown device")
)
