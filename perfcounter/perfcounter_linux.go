//go:build linux

package perfcounter

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/sys/unix"
)

// eventSpec names one counter to open within a group.
type eventSpec struct {
	typ    uint32
	config uint64
	name   string
}

var softwareEvents = []eventSpec{
	{unix.PERF_TYPE_SOFTWARE, unix.PERF_COUNT_SW_PAGE_FAULTS, "page-faults"},
	{unix.PERF_TYPE_SOFTWARE, unix.PERF_COUNT_SW_CPU_CLOCK, "cpu-clock"},
	{unix.PERF_TYPE_SOFTWARE, unix.PERF_COUNT_SW_TASK_CLOCK, "task-clock"},
}

var hardwareEvents = []eventSpec{
	{unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_INSTRUCTIONS, "instructions"},
	{unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_BRANCH_INSTRUCTIONS, "branch-instructions"},
	{unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_CPU_CYCLES, "cpu-cycles"},
	{unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_BUS_CYCLES, "bus-cycles"},
	{unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_REF_CPU_CYCLES, "ref-cycles"},
}

// linuxGroup is a perf_event_open event group: one leader fd opened with PERF_FORMAT_GROUP and
// PERF_FORMAT_ID, every other event in the group opened against the leader's fd. Enable, Disable
// and Reset use the grouped ioctl so every counter in the group starts and stops together.
type linuxGroup struct {
	name     string
	events   []Event
	leaderFd int
	ids      []uint64 // perf-assigned id for each event, in Events() order
}

// perf_event_attr's packed bitfield, low bit first: disabled, inherit, pinned, exclusive,
// exclude_user, exclude_kernel, exclude_hv, ... (see perf_event_open(2)). x/sys/unix exposes the
// Bits field raw, so the flags this package needs are built by hand here rather than by name.
const (
	attrBitDisabled      = 1 << 0
	attrBitExcludeKernel = 1 << 5
	attrBitExcludeHV     = 1 << 6
)

// openGroup opens one event group for the calling thread on whichever CPU it runs on
// (pid = 0, cpu = -1).
func openGroup(name string, specs []eventSpec) (Group, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("perfcounter: group %q has no events", name)
	}
	fds := make([]int, len(specs))
	leaderFd := -1
	for i, spec := range specs {
		attr := &unix.PerfEventAttr{
			Type:        spec.typ,
			Size:        uint32(unix.SizeofPerfEventAttr),
			Config:      spec.config,
			Bits:        attrBitDisabled | attrBitExcludeKernel | attrBitExcludeHV,
			Read_format: unix.PERF_FORMAT_GROUP | unix.PERF_FORMAT_ID,
		}
		groupFd := leaderFd
		fd, err := unix.PerfEventOpen(attr, 0, -1, groupFd, 0)
		if err != nil {
			for _, opened := range fds[:i] {
				if opened > 0 {
					unix.Close(opened)
				}
			}
			return nil, fmt.Errorf("perfcounter: open %s/%s: %w", name, spec.name, err)
		}
		fds[i] = fd
		if leaderFd < 0 {
			leaderFd = fd
		}
	}

	events := make([]Event, len(specs))
	for i, spec := range specs {
		events[i] = Event{Name: spec.name}
	}
	g := &linuxGroup{name: name, events: events, leaderFd: leaderFd}
	ids, err := g.readIDs(fds)
	if err != nil {
		g.Close()
		return nil, err
	}
	g.ids = ids
	// Non-leader fds aren't needed once their id is known; the leader fd reads the whole group.
	for _, fd := range fds[1:] {
		unix.Close(fd)
	}
	return g, nil
}

// readIDs issues one read per fd to learn perf's assigned event id, used to map the leader's
// grouped read back onto Events() order.
func (g *linuxGroup) readIDs(fds []int) ([]uint64, error) {
	ids := make([]uint64, len(fds))
	buf := make([]byte, 3*8) // value, id, lost (PERF_FORMAT_ID without group framing on a lone read)
	for i, fd := range fds {
		n, err := unix.Read(fd, buf)
		if err != nil || n < 16 {
			return nil, fmt.Errorf("perfcounter: read id for %s/%s: %w", g.name, g.events[i].Name, err)
		}
		ids[i] = binary.LittleEndian.Uint64(buf[8:16])
	}
	return ids, nil
}

func (g *linuxGroup) Name() string    { return g.name }
func (g *linuxGroup) Events() []Event { return g.events }

func (g *linuxGroup) Enable() error {
	return unix.IoctlSetInt(g.leaderFd, unix.PERF_EVENT_IOC_ENABLE, unix.PERF_IOC_FLAG_GROUP)
}

func (g *linuxGroup) Disable() error {
	return unix.IoctlSetInt(g.leaderFd, unix.PERF_EVENT_IOC_DISABLE, unix.PERF_IOC_FLAG_GROUP)
}

func (g *linuxGroup) Reset() error {
	return unix.IoctlSetInt(g.leaderFd, unix.PERF_EVENT_IOC_RESET, unix.PERF_IOC_FLAG_GROUP)
}

func (g *linuxGroup) Read() ([]uint64, error) {
	// struct read_format { u64 nr; struct { u64 value; u64 id; } values[nr]; }
	buf := make([]byte, 8+16*len(g.events))
	n, err := unix.Read(g.leaderFd, buf)
	if err != nil {
		return nil, fmt.Errorf("perfcounter: read %s: %w", g.name, err)
	}
	if n != len(buf) {
		return nil, fmt.Errorf("perfcounter: read %s: short read (%d of %d bytes)", g.name, n, len(buf))
	}
	nr := binary.LittleEndian.Uint64(buf[0:8])
	if int(nr) != len(g.events) {
		return nil, fmt.Errorf("perfcounter: read %s: got %d counters, want %d", g.name, nr, len(g.events))
	}
	valueByID := make(map[uint64]uint64, nr)
	for i := 0; i < int(nr); i++ {
		off := 8 + i*16
		value := binary.LittleEndian.Uint64(buf[off : off+8])
		id := binary.LittleEndian.Uint64(buf[off+8 : off+16])
		valueByID[id] = value
	}
	out := make([]uint64, len(g.events))
	for i, id := range g.ids {
		out[i] = valueByID[id]
	}
	return out, nil
}

func (g *linuxGroup) Close() error {
	if g.leaderFd <= 0 {
		return nil
	}
	err := unix.Close(g.leaderFd)
	g.leaderFd = -1
	return err
}

// OpenDefaultGroups opens the software and hardware event groups, in that order.
func OpenDefaultGroups() ([]Group, error) {
	groups := make([]Group, 0, 2)
	sw, err := openGroup("software", softwareEvents)
	if err != nil {
		return nil, err
	}
	groups = append(groups, sw)
	hw, err := openGroup("hardware", hardwareEvents)
	if err != nil {
		sw.Close()
		return nil, err
	}
	groups = append(groups, hw)
	return groups, nil
}
