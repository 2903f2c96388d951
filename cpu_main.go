// cpu_main.go - main CPU interpreter core state and step loop (C5)

/*
cpu_main.go - Main CPU Interpreter

Implements fetch/decode/execute of the fixed-width 16-bit main CPU
instruction set: delayed branches, two banked register files, a scalar
and paired-single FPU, and exception/interrupt entry. The decode table
itself lives in cpu_main_decode.go; instruction handlers live in
cpu_main_exec.go and cpu_main_fpu.go; exception entry/return lives in
cpu_main_exceptions.go.

Cycle accounting follows the flat ratio decided in SPEC_FULL.md part E:
every fetched instruction costs CPURatio scheduler cycles regardless of
class, matching the source's approximation rather than inventing a
per-opcode cost table.
*/

package main

import "fmt"

// CPURatio is the fixed scheduler-cycles-per-instruction ratio (spec 4.3,
// 4.9 and open question (b) in SPEC_FULL.md).
const CPURatio = 8

// SR bit positions within the status register.
const (
	srBitT     = 0  // true/carry/borrow flag
	srBitS     = 1  // saturation flag for MAC
	srBitIMASK = 4  // low bit of the 4-bit interrupt mask field (bits 4-7)
	srBitQ     = 8  // division quotient bit, used by DIV0U/DIV0S/DIV1
	srBitM     = 9  // division dividend-sign bit, used by DIV0U/DIV0S/DIV1
	srBitBL    = 28 // exception block bit
	srBitRB    = 29 // general register bank select
	srBitMD    = 30 // privileged mode
)

// Control and system registers.
type controlRegs struct {
	sr   uint32
	gbr  uint32
	vbr  uint32
	dbr  uint32
	ssr  uint32
	spc  uint32
	sgr  uint32
	pr   uint32
	mach uint32
	macl uint32
}

// CPU implements C5: fetch/decode/execute of the main instruction set.
type CPU struct {
	bus *MachineBus

	// Banked general-purpose registers. rLow holds R0-R7 (bank-selected by
	// SR.RB), rLowAlt the alternate bank; rHigh holds R8-R14, unbanked like
	// r15 (section 3's data model only banks R0-R7 on RB; the FIQ/IRQ/SVC-
	// style banking of R8-R14 belongs to C6's ARM core, not this CPU).
	rLow    [8]uint32
	rLowAlt [8]uint32
	rHigh   [7]uint32
	r15     uint32

	ctl controlRegs
	fp  fpuState

	pc uint32

	// inDelaySlot guards against interrupt delivery and nested delay-slot
	// re-entrancy while executing a branch's delay slot (property 2 / S3).
	inDelaySlot bool

	// cycleBalance is decremented by CPURatio on every fetched instruction;
	// the top-level loop (loop.go) refills it every TIMESLICE quantum.
	cycleBalance int64

	// running is set by NewCPU and Reset and no code path clears it;
	// unsupported drive-controller commands panic the process instead
	// (spec section 7).
	running bool

	intc *InterruptController
}

// NewCPU constructs a reset-state main CPU wired to bus.
func NewCPU(bus *MachineBus, intc *InterruptController) *CPU {
	c := &CPU{bus: bus, intc: intc, running: true}
	c.Reset()
	return c
}

// Reset restores architectural reset state: SR.MD=1, SR.BL=1, SR.RB=1 (per
// real hardware reset convention), VBR=0, PC at the reset vector's
// logical base, banks zeroed.
func (c *CPU) Reset() {
	c.rLow = [8]uint32{}
	c.rLowAlt = [8]uint32{}
	c.rHigh = [7]uint32{}
	c.r15 = 0
	c.ctl = controlRegs{}
	c.ctl.sr = (1 << srBitMD) | (1 << srBitBL) | (1 << srBitRB)
	c.fp = newFPUState()
	c.pc = 0xA0000000
	c.inDelaySlot = false
	c.cycleBalance = 0
	c.running = true
}

// SR returns the current status register value.
func (c *CPU) SR() uint32 { return c.ctl.sr }

// SetSR writes SR; a change of RB switches which R0-R7 bank GetR/SetR
// see from then on (bank invariant, property 1).
func (c *CPU) SetSR(v uint32) {
	// SetSR never swaps storage: GetR/SetR always resolve against the bit
	// that is live in c.ctl.sr at the time of access, so simply writing the
	// new value keeps the invariant "reading Ri returns the value last
	// written under the bank selected by the then-current RB bit" without
	// any copying.
	c.ctl.sr = v
}

func (c *CPU) rbBank() int {
	if c.ctl.sr&(1<<srBitRB) != 0 {
		return 1
	}
	return 0
}

// GetR reads general register n (0-15), resolving R0-R7's active bank
// from the live SR.RB bit; R8-R15 are plain, unbanked storage.
func (c *CPU) GetR(n int) uint32 {
	switch {
	case n == 15:
		return c.r15
	case n <= 7:
		if c.rbBank() == 1 {
			return c.rLowAlt[n]
		}
		return c.rLow[n]
	default: // 8-14
		return c.rHigh[n-8]
	}
}

// SetR writes general register n (0-15); only R0-R7 resolve against the
// live SR.RB bank, per the bank invariant (property 1).
func (c *CPU) SetR(n int, v uint32) {
	switch {
	case n == 15:
		c.r15 = v
	case n <= 7:
		if c.rbBank() == 1 {
			c.rLowAlt[n] = v
		} else {
			c.rLow[n] = v
		}
	default:
		c.rHigh[n-8] = v
	}
}

func (c *CPU) tFlag() bool { return c.ctl.sr&(1<<srBitT) != 0 }
func (c *CPU) setTFlag(v bool) {
	if v {
		c.ctl.sr |= 1 << srBitT
	} else {
		c.ctl.sr &^= 1 << srBitT
	}
}

func (c *CPU) qFlag() bool { return c.ctl.sr&(1<<srBitQ) != 0 }
func (c *CPU) setQFlag(v bool) {
	if v {
		c.ctl.sr |= 1 << srBitQ
	} else {
		c.ctl.sr &^= 1 << srBitQ
	}
}

func (c *CPU) mFlag() bool { return c.ctl.sr&(1<<srBitM) != 0 }
func (c *CPU) setMFlag(v bool) {
	if v {
		c.ctl.sr |= 1 << srBitM
	} else {
		c.ctl.sr &^= 1 << srBitM
	}
}

// imask returns the 4-bit interrupt priority mask (SR bits 4-7).
func (c *CPU) imask() uint32 { return (c.ctl.sr >> 4) & 0xF }

// blocked reports SR.BL: interrupts are never accepted while set.
func (c *CPU) blocked() bool { return c.ctl.sr&(1<<srBitBL) != 0 }

// fetch16 reads the instruction word at addr with a plain 16-bit bus read.
// Unlike readMem16Rotated it applies no rotation: instruction fetch is
// always 2-byte aligned by construction of PC advancement.
func (c *CPU) fetch16(addr uint32) uint16 {
	return uint16(c.bus.Read16(addr))
}

// Step executes exactly one main-CPU instruction (fetch/decode/execute),
// advances PC (unless the handler already did, e.g. a branch), spends
// CPURatio cycles, and returns the cycles spent so the emulator loop can
// track its budget. Interrupt delivery is attempted first, unless a
// delay slot is in flight.
func (c *CPU) Step() int {
	if !c.running {
		return CPURatio
	}
	if !c.inDelaySlot {
		c.maybeAcceptInterrupt()
	}
	c.execOne()
	c.cycleBalance -= CPURatio
	return CPURatio
}

// execOne fetches, decodes and executes the instruction at PC. Branch
// handlers are responsible for advancing PC themselves (to the delay
// slot's successor or the branch target); all other handlers just
// execute and let the generic +2 below apply.
func (c *CPU) execOne() {
	op := c.fetch16(c.pc)
	entry := mainDecodeTable[op]
	before := c.pc
	entry.handler(c, op)
	if c.pc == before && !entry.setsPC {
		c.pc += 2
	}
}

// executeDelaySlot runs the single instruction following a branch/jump
// before the branch's target takes effect, per spec section 4.3 and the
// design note in section 9. No interrupt may be serviced here.
func (c *CPU) executeDelaySlot() {
	c.inDelaySlot = true
	defer func() { c.inDelaySlot = false }()
	slotPC := c.pc + 2
	op := c.fetch16(slotPC)
	entry := mainDecodeTable[op]
	entry.handler(c, op)
}

// maybeAcceptInterrupt checks the interrupt controller for a pending IRL
// at or above the current mask and, if found and SR.BL is clear, performs
// exception entry (cpu_main_exceptions.go). Never called mid-delay-slot.
func (c *CPU) maybeAcceptInterrupt() {
	if c.blocked() {
		return
	}
	level, intevt, ok := c.intc.PendingAbove(c.imask())
	if !ok {
		return
	}
	c.enterException(intevt)
	_ = level
}

// ProcessInterrupts is the top-level loop's per-quantum interrupt-processing
// hook (spec section 4.9 step 2): it re-checks the interrupt controller
// independently of instruction fetch, so a pending IRL raised by a
// scheduler-dispatched event is not delayed until the next Step call.
func (c *CPU) ProcessInterrupts() {
	if !c.inDelaySlot {
		c.maybeAcceptInterrupt()
	}
}

func (c *CPU) String() string {
	return fmt.Sprintf("PC=%08x SR=%08x R15=%08x", c.pc, c.ctl.sr, c.r15)
}
