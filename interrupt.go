// interrupt.go - interrupt controller (C7)

/*
interrupt.go - Interrupt Controller

Holds three pending-source bitmasks (normal, external, error) and three
per-level enable masks, one per hardware priority (6 = high, 4 = mid,
2 = low). Recalc ORs the three pending categories together, tests the
result against each level's enable mask in priority order, and determines
which of three external interrupt request lines (IRL9, IRL11, IRL13) the
main CPU should see asserted. A
SH4Event{RaiseIRL} is posted to the scheduler only when the computed line
actually changes, matching the ordering guarantee in spec section 5: all
IRL visibility changes flow through the scheduler rather than being
applied synchronously.
*/

package main

// Interrupt source indices into the 41-entry vector table: NMI (0),
// IRL0-IRL14 (1-15), then 25 internal sources (16-40).
const (
	vectorNMI       = 0
	vectorIRLBase   = 1
	vectorInternal0 = 16
)

// Internal interrupt source ids, offset from vectorInternal0.
const (
	SrcTimer0 = iota
	SrcTimer1
	SrcTimer2
	SrcDriveController
	SrcAudioCPU
)

type InterruptController struct {
	sched *Scheduler

	pendingNormal   uint32
	pendingExternal uint32
	pendingError    uint32

	enableHigh uint32 // level 6
	enableMid  uint32 // level 4
	enableLow  uint32 // level 2

	vectorTable [41]uint32

	currentIRL int // -1 when no line is asserted
	intevt     uint32
}

// NewInterruptController returns a controller with the standard 41-entry
// vector table populated: NMI at 0x1C0, IRLn at 0x200+n*0x20, internal
// sources packed contiguously from 0x400.
func NewInterruptController(sched *Scheduler) *InterruptController {
	ic := &InterruptController{sched: sched, currentIRL: -1}
	ic.vectorTable[vectorNMI] = 0x1C0
	for n := 0; n < 15; n++ {
		ic.vectorTable[vectorIRLBase+n] = 0x200 + uint32(n)*0x20
	}
	for i := vectorInternal0; i < len(ic.vectorTable); i++ {
		ic.vectorTable[i] = 0x400 + uint32(i-vectorInternal0)*0x20
	}
	return ic
}

func (ic *InterruptController) RaiseNormal(mask uint32)   { ic.pendingNormal |= mask; ic.Recalc() }
func (ic *InterruptController) RaiseExternal(mask uint32) { ic.pendingExternal |= mask; ic.Recalc() }
func (ic *InterruptController) LowerExternal(mask uint32) { ic.pendingExternal &^= mask; ic.Recalc() }
func (ic *InterruptController) RaiseError(mask uint32)    { ic.pendingError |= mask; ic.Recalc() }

func (ic *InterruptController) SetEnableHigh(v uint32) { ic.enableHigh = v; ic.Recalc() }
func (ic *InterruptController) SetEnableMid(v uint32)  { ic.enableMid = v; ic.Recalc() }
func (ic *InterruptController) SetEnableLow(v uint32)  { ic.enableLow = v; ic.Recalc() }

// recalcLevel computes the current (priority, irl) pair with no side
// effects. All three pending categories are ORed together and tested
// against each level's enable mask in turn, rather than binding normal/
// external/error to high/mid/low 1:1 - any pending source can route to
// any priority level depending on which level's enable bit is set for
// it. A graphics EndOfList or timer underflow (both raised via
// RaiseNormal) is therefore not stuck at level 6 forever; it fires at
// whichever of the three levels has the matching enable bit set, same
// as a drive-controller or DMA completion raised via RaiseExternal.
func (ic *InterruptController) recalcLevel() (priority uint32, irl int, ok bool) {
	pending := ic.pendingNormal | ic.pendingExternal | ic.pendingError
	switch {
	case pending&ic.enableHigh != 0:
		return 6, 9, true
	case pending&ic.enableMid != 0:
		return 4, 11, true
	case pending&ic.enableLow != 0:
		return 2, 13, true
	default:
		return 0, 0, false
	}
}

// Recalc recomputes the asserted IRL line and posts a RaiseIRL event to
// the scheduler only when it changed.
func (ic *InterruptController) Recalc() {
	_, irl, ok := ic.recalcLevel()
	newIRL := -1
	if ok {
		newIRL = irl
	}
	if newIRL == ic.currentIRL {
		return
	}
	ic.currentIRL = newIRL
	if ic.sched != nil {
		mask := uint32(0)
		if newIRL >= 0 {
			mask = uint32(newIRL)
		}
		ic.sched.Schedule(Event{Kind: SH4Event, Sub: SubRaiseIRL, Mask: mask}, 0)
	}
}

// INTEVT returns the most recently latched exception vector code.
func (ic *InterruptController) INTEVT() uint32 { return ic.intevt }

// PendingAbove is consulted by the main CPU before every instruction
// fetch (unless a delay slot is in flight): it reports whether a source
// exceeding the supplied SR.IMASK value is pending, and if so the INTEVT
// code that exception entry latches.
func (ic *InterruptController) PendingAbove(currentMask uint32) (level uint32, intevt uint32, ok bool) {
	priority, irl, pending := ic.recalcLevel()
	if !pending || priority <= currentMask {
		return 0, 0, false
	}
	return priority, ic.vectorTable[vectorIRLBase+irl], true
}
