package device

import (
	"strconv"
	"strings"
)

// SerialPort is the seam probeWattsUpPro and refreshWUPLocked use to talk
// to a Watts Up? Pro external power meter (spec.md §4.2.1 step 2). A real
// backend configures the underlying tty 115200 8N1 raw before handing it
// over; Configure lets the probe (re-)apply that without importing termios
// details into this package.
type SerialPort interface {
	Configure() error
	Write(p []byte) (int, error)
	Read(p []byte) (int, error)
}

// wupState holds the Monitor-variant handle once classify has accepted a
// tty as a Watts Up? Pro.
type wupState struct {
	port SerialPort
}

// wupClearCmd requests the meter reset its accumulated values; the response
// to it is what coldplug validates.
const wupClearCmd = "#R,W,0"

// wupWattsField is the index of the instantaneous watts value among a
// "watts update" frame's fields (after the cmd/sub/N header tokens).
const wupWattsField = 0

// probeWattsUpPro implements spec.md §4.2.1 step 2: configure the port,
// issue the clear command, and validate that one framed response comes
// back. It does not retain any parsed value; the 0 state of props matches
// a meter that has just been cleared.
func probeWattsUpPro(port SerialPort) bool {
	if port == nil {
		return false
	}
	if err := port.Configure(); err != nil {
		return false
	}
	if _, err := port.Write([]byte(wupClearCmd + ";")); err != nil {
		return false
	}
	buf := make([]byte, 256)
	n, err := port.Read(buf)
	if err != nil || n == 0 {
		return false
	}
	_, ok := parseWUPFrame(string(buf[:n]))
	return ok
}

// wupFrame is one parsed `#<cmd>,<sub>,<N>,<field1>,…,<fieldN>;` record
// (spec.md §4.2.5).
type wupFrame struct {
	cmd    string
	sub    string
	fields []string
}

// parseWUPFrame implements the 5-step algorithm of spec.md §4.2.5.
func parseWUPFrame(raw string) (wupFrame, bool) {
	start := strings.IndexByte(raw, '#')
	if start < 0 {
		return wupFrame{}, false
	}
	body := raw[start:]
	if end := strings.IndexByte(body, ';'); end >= 0 {
		body = body[:end]
	}

	tokens := strings.Split(body, ",")
	for i := range tokens {
		tokens[i] = strings.TrimSpace(tokens[i])
	}
	if len(tokens) < 3 {
		return wupFrame{}, false
	}

	n, err := strconv.Atoi(tokens[2])
	if err != nil {
		return wupFrame{}, false
	}
	fields := tokens[3:]
	if n != len(fields) {
		return wupFrame{}, false
	}

	return wupFrame{cmd: tokens[0], sub: tokens[1], fields: fields}, true
}

// refreshWUPLocked implements spec.md §4.2.4/§4.2.5: issue a read, parse
// one frame, and extract the watts field for the "watts update" command.
// Unknown commands are ignored rather than treated as a probe failure —
// the meter is free to interleave other frame types.
func (d *Device) refreshWUPLocked() bool {
	if d.wup == nil || d.wup.port == nil {
		return false
	}
	buf := make([]byte, 256)
	n, err := d.wup.port.Read(buf)
	if err != nil {
		return false
	}
	if n == 0 {
		return true
	}

	frame, ok := parseWUPFrame(string(buf[:n]))
	if !ok {
		return true
	}
	if frame.cmd != "#W" || wupWattsField >= len(frame.fields) {
		return true
	}
	watts, err := strconv.ParseFloat(frame.fields[wupWattsField], 64)
	if err != nil {
		return true
	}
	d.props.EnergyRate = watts
	d.props.PowerSupply = true
	return true
}
