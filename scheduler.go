// scheduler.go - deterministic event scheduler (C9)

/*
scheduler.go - Scheduler

A min-heap of dated events keyed by an absolute deadline on a monotonic
64-bit cycle counter. The scheduler coordinates every other component:
the main CPU and audio CPU enqueue interrupt and DMA events, the video
timing generator enqueues scanline/VBlank/frame-ready events, and the
drive controller enqueues its own completion events.

Ordering is a strict min-heap on deadline with insertion order as the
tie-breaker, so two events scheduled for the same deadline come back out
in the order they were scheduled (property 5 / seed scenario S5). Tick
only ever pops events whose deadline has already elapsed; it never blocks
and never looks ahead, so handlers that re-schedule re-entrantly during a
Tick are guaranteed to wait for the next Tick call even if their new
deadline is already due.
*/

package main

import "container/heap"

// EventKind distinguishes the two families of scheduler clients named in
// the spec: Holly-style (graphics/drive/DMA) events and SH4-style (CPU
// interrupt/IRL) events. The scheduler itself is agnostic to the kind; it
// only orders and dispatches.
type EventKind int

const (
	HollyEvent EventKind = iota
	SH4Event
)

// EventSubKind enumerates the payload sub-kinds carried by scheduler
// events, per spec section 3.
type EventSubKind int

const (
	SubRaiseNormalInterrupt EventSubKind = iota
	SubRaiseExternalInterrupt
	SubLowerExternalInterrupt
	SubRecalcInterrupts
	SubVideoScanline
	SubDriveController
	SubMapleDMA
	SubCh2DMA
	SubDriveDMA
	SubAudioDMA
	SubRTCTick
	SubFrameReady
	SubVBlank
	SubRaiseIRL
)

// Event is a scheduled, dated unit of work.
type Event struct {
	Kind     EventKind
	Sub      EventSubKind
	Mask     uint32 // interrupt bitmask / IRL line / DMA channel, sub-kind dependent
	Deadline uint64 // absolute cycle count, filled in by Schedule
	seq      uint64 // insertion sequence, for FIFO tie-breaking
}

// Entry is returned from Tick: the event that fired, the deadline it was
// scheduled for (start; the clock value at the Schedule call is not
// kept), and the cycle count at which it was served (now). A handler can
// compute overrun as now-start.
type Entry struct {
	Event Event
	Start uint64
	Now   uint64
}

type eventHeap []Event

func (h eventHeap) Len() int { return len(h) }
func (h eventHeap) Less(i, j int) bool {
	if h[i].Deadline != h[j].Deadline {
		return h[i].Deadline < h[j].Deadline
	}
	return h[i].seq < h[j].seq
}
func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *eventHeap) Push(x any)   { *h = append(*h, x.(Event)) }
func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Scheduler implements C9.
type Scheduler struct {
	clock uint64
	heap  eventHeap
	seq   uint64
}

// NewScheduler returns a scheduler with its clock at zero and no pending
// events.
func NewScheduler() *Scheduler {
	s := &Scheduler{}
	heap.Init(&s.heap)
	return s
}

// Now returns the current monotonic cycle count.
func (s *Scheduler) Now() uint64 { return s.clock }

// AddCycles advances the clock by n cycles. It does not itself dispatch
// any events; call Tick to drain due events.
func (s *Scheduler) AddCycles(n uint64) { s.clock += n }

// Schedule inserts an event with an absolute deadline of Now()+relative.
// Events inserted with relative=0 become due on the next Tick call, never
// within the Tick call currently in progress (if any).
func (s *Scheduler) Schedule(ev Event, relative uint64) {
	ev.Deadline = s.clock + relative
	ev.seq = s.seq
	s.seq++
	heap.Push(&s.heap, ev)
}

// ScheduleAt inserts an event with an explicit absolute deadline, used by
// handlers recomputing a position after an overrun.
func (s *Scheduler) ScheduleAt(ev Event, deadline uint64) {
	ev.Deadline = deadline
	ev.seq = s.seq
	s.seq++
	heap.Push(&s.heap, ev)
}

// Tick pops and returns one event whose deadline has elapsed, or false if
// none is due yet. Re-entrant Schedule calls made by the caller between
// Tick invocations are safe; this method only ever looks at the heap top
// once per call, so newly inserted events are never served within the
// same wave of draining unless the caller calls Tick again.
func (s *Scheduler) Tick() (Entry, bool) {
	if len(s.heap) == 0 {
		return Entry{}, false
	}
	top := s.heap[0]
	if top.Deadline > s.clock {
		return Entry{}, false
	}
	heap.Pop(&s.heap)
	return Entry{Event: top, Start: top.Deadline, Now: s.clock}, true
}

// Pending reports how many events remain queued, for diagnostics/tests.
func (s *Scheduler) Pending() int { return len(s.heap) }
