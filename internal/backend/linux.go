//go:build linux

package backend

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/coldplug/upowerd/internal/device"
	"github.com/coldplug/upowerd/internal/logging"
)

// Linux implements Backend over a kernel uevent netlink socket, covering
// the power_supply, usb, tty, and input subsystems (spec.md §4.3, §6).
type Linux struct {
	sysfsRoot string

	mu     sync.Mutex
	fd     int
	closed bool
}

// NewLinux constructs a Linux backend rooted at /sys; tests override
// sysfsRoot through newLinuxAt.
func NewLinux() *Linux {
	return newLinuxAt("/sys")
}

func newLinuxAt(sysfsRoot string) *Linux {
	return &Linux{sysfsRoot: sysfsRoot, fd: -1}
}

// sysfsAttrs is an AttrReader over one sysfs device directory.
type sysfsAttrs struct{ dir string }

func (s sysfsAttrs) ReadAttr(name string) (string, bool) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(data)), true
}

// Coldplug enumerates /sys/class/power_supply (the only subsystem this
// implementation coldplugs synchronously; tty/usb/input handles surface
// through uevents as they're hot-plugged) and opens the uevent netlink
// socket for ongoing notifications.
func (l *Linux) Coldplug(sink Sink) bool {
	l.enumeratePowerSupply(sink)

	fd, err := unix.Socket(unix.AF_NETLINK, unix.SOCK_RAW, unix.NETLINK_KOBJECT_UEVENT)
	if err != nil {
		logging.WithComponent("backend.linux").Warn().Err(err).Msg("uevent socket unavailable, running coldplug-only")
		return true
	}
	addr := &unix.SockaddrNetlink{Family: unix.AF_NETLINK, Groups: 1}
	if err := unix.Bind(fd, addr); err != nil {
		unix.Close(fd)
		logging.WithComponent("backend.linux").Warn().Err(err).Msg("uevent socket bind failed")
		return true
	}

	l.mu.Lock()
	l.fd = fd
	l.mu.Unlock()

	go l.readLoop(sink)
	return true
}

func (l *Linux) enumeratePowerSupply(sink Sink) {
	root := filepath.Join(l.sysfsRoot, "class", "power_supply")
	entries, err := os.ReadDir(root)
	if err != nil {
		return
	}
	for _, e := range entries {
		sink.HandleEvent(Event{
			Kind: EventAdded,
			Native: device.Native{
				Path:      e.Name(),
				Subsystem: device.SubsystemPowerSupply,
				Supply:    sysfsAttrs{dir: filepath.Join(root, e.Name())},
			},
		})
	}
}

// readLoop parses uevent netlink datagrams. Each datagram is a sequence
// of NUL-terminated "KEY=VALUE" lines; the first line is either the
// libudev-prefixed header or "add@/devices/..." style action+path.
func (l *Linux) readLoop(sink Sink) {
	buf := make([]byte, 8192)
	for {
		l.mu.Lock()
		fd := l.fd
		l.mu.Unlock()
		if fd < 0 {
			return
		}

		n, _, err := unix.Recvfrom(fd, buf, 0)
		if err != nil {
			return
		}
		l.handleUevent(sink, buf[:n])
	}
}

func (l *Linux) handleUevent(sink Sink, raw []byte) {
	fields := strings.Split(string(raw), "\x00")
	if len(fields) == 0 {
		return
	}

	var action, devpath, subsystem string
	head := fields[0]
	if idx := strings.IndexByte(head, '@'); idx > 0 {
		action = head[:idx]
		devpath = head[idx+1:]
	}
	for _, f := range fields[1:] {
		if v, ok := strings.CutPrefix(f, "SUBSYSTEM="); ok {
			subsystem = v
		}
	}

	sub, ok := mapSubsystem(subsystem)
	if !ok || devpath == "" {
		return
	}

	name := filepath.Base(devpath)
	native := device.Native{Path: name, Subsystem: sub}
	if sub == device.SubsystemPowerSupply {
		native.Supply = sysfsAttrs{dir: filepath.Join(l.sysfsRoot, devpath)}
	}

	kind := EventChanged
	switch action {
	case "add":
		kind = EventAdded
	case "remove":
		kind = EventRemoved
	case "change":
		kind = EventChanged
	default:
		return
	}
	sink.HandleEvent(Event{Kind: kind, Native: native})
}

func mapSubsystem(s string) (device.Subsystem, bool) {
	switch s {
	case "power_supply":
		return device.SubsystemPowerSupply, true
	case "tty":
		return device.SubsystemTTY, true
	case "usb":
		return device.SubsystemUSB, true
	case "input":
		return device.SubsystemInput, true
	default:
		return device.SubsystemUnknown, false
	}
}

// CanSuspend implements spec.md §4.3: /sys/power/state must advertise
// "mem".
func (l *Linux) CanSuspend() bool {
	return sysPowerStateHas(l.sysfsRoot, "mem")
}

// CanHibernate implements spec.md §4.3: /sys/power/state must advertise
// "disk", AND the swap-adequacy check must pass.
func (l *Linux) CanHibernate() bool {
	if !sysPowerStateHas(l.sysfsRoot, "disk") {
		return false
	}
	return swapIsAdequate(filepath.Join(l.sysfsRoot, "..", "proc", "meminfo"))
}

func sysPowerStateHas(sysfsRoot, token string) bool {
	data, err := os.ReadFile(filepath.Join(sysfsRoot, "power", "state"))
	if err != nil {
		return false
	}
	for _, f := range strings.Fields(string(data)) {
		if f == token {
			return true
		}
	}
	return false
}

// swapIsAdequate implements spec.md §4.3's swap-adequacy check: parse
// /proc/meminfo, compute percent = 100*Active/SwapFree, and reject
// hibernation when it exceeds 80%.
func swapIsAdequate(meminfoPath string) bool {
	f, err := os.Open(meminfoPath)
	if err != nil {
		return true
	}
	defer f.Close()

	var active, swapFree float64
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "Active:"):
			active = parseMeminfoKB(line)
		case strings.HasPrefix(line, "SwapFree:"):
			swapFree = parseMeminfoKB(line)
		}
	}
	if swapFree == 0 {
		return false
	}
	percent := 100 * active / swapFree
	return percent <= 80
}

func parseMeminfoKB(line string) float64 {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return 0
	}
	v, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return 0
	}
	return v
}

// Close shuts down the netlink socket.
func (l *Linux) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed || l.fd < 0 {
		l.closed = true
		return nil
	}
	l.closed = true
	err := unix.Close(l.fd)
	l.fd = -1
	return err
}
