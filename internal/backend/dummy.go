package backend

import "github.com/coldplug/upowerd/internal/device"

// DummyAttrs is a fixed in-memory AttrReader used by Dummy's synthetic
// battery; tests mutate it directly to drive refresh behavior.
type DummyAttrs map[string]string

func (d DummyAttrs) ReadAttr(name string) (string, bool) {
	v, ok := d[name]
	return v, ok
}

// Dummy implements Backend with a single synthetic battery handle
// (spec.md §4.3: "a 'dummy' backend emits a single synthetic battery for
// tests"). It never raises further events on its own; tests that want to
// exercise change/remove behavior call Emit directly.
type Dummy struct {
	Attrs       DummyAttrs
	SuspendOK   bool
	HibernateOK bool

	sink Sink
}

// NewDummy constructs a Dummy seeded with a half-charged, charging
// battery at native path "BAT0".
func NewDummy() *Dummy {
	return &Dummy{
		Attrs: DummyAttrs{
			"present":            "1",
			"status":             "Charging",
			"technology":         "Li-ion",
			"manufacturer":       "Dummy",
			"model_name":         "Synthetic",
			"serial_number":      "0",
			"voltage_max_design": "12000000",
			"energy_now":         "30000000",
			"energy_full":        "60000000",
			"energy_full_design": "60000000",
		},
		SuspendOK:   true,
		HibernateOK: true,
	}
}

func (d *Dummy) Coldplug(sink Sink) bool {
	d.sink = sink
	sink.HandleEvent(Event{
		Kind: EventAdded,
		Native: device.Native{
			Path:      "BAT0",
			Subsystem: device.SubsystemPowerSupply,
			Supply:    d.Attrs,
		},
	})
	return true
}

// Emit lets a test simulate a platform event after Coldplug.
func (d *Dummy) Emit(kind EventKind) {
	if d.sink == nil {
		return
	}
	d.sink.HandleEvent(Event{
		Kind: kind,
		Native: device.Native{
			Path:      "BAT0",
			Subsystem: device.SubsystemPowerSupply,
			Supply:    d.Attrs,
		},
	})
}

func (d *Dummy) CanSuspend() bool   { return d.SuspendOK }
func (d *Dummy) CanHibernate() bool { return d.HibernateOK }
func (d *Dummy) Close() error       { return nil }
