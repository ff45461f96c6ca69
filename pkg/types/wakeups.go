package types

// WakeupsEntry is one source of system wakeups, keyed by irq number
// (kernel entries) or pid (userspace timer entries) (spec.md §3, §4.7).
type WakeupsEntry struct {
	ID             uint32
	IsUserspace    bool
	Cmdline        string
	Details        string
	OldCount       uint64
	ValuePerSecond float64
}

// Reserved symbolic IRQ ids (spec.md §4.7). Kernels report these as
// string labels (NMI, LOC, ...) rather than numeric IRQs; they are
// remapped to synthetic ids above the range of any real IRQ number so
// that WakeupsEntry.ID stays a plain uint32 key.
const (
	IRQSymbolicNMI uint32 = 0xff0
	IRQSymbolicLOC uint32 = 0xff1
	IRQSymbolicRES uint32 = 0xff2
	IRQSymbolicCAL uint32 = 0xff3
	IRQSymbolicTLB uint32 = 0xff4
	IRQSymbolicTRM uint32 = 0xff5
	IRQSymbolicSPU uint32 = 0xff6
	IRQSymbolicERR uint32 = 0xff7
	IRQSymbolicMIS uint32 = 0xff8
)

// SymbolicIRQIDs maps the reserved symbolic IRQ labels found in
// /proc/interrupts to their synthetic ids.
var SymbolicIRQIDs = map[string]uint32{
	"NMI": IRQSymbolicNMI,
	"LOC": IRQSymbolicLOC,
	"RES": IRQSymbolicRES,
	"CAL": IRQSymbolicCAL,
	"TLB": IRQSymbolicTLB,
	"TRM": IRQSymbolicTRM,
	"SPU": IRQSymbolicSPU,
	"ERR": IRQSymbolicERR,
	"MIS": IRQSymbolicMIS,
}
