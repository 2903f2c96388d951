// audio_arm_core.go - second RISC core / audio CPU (C6)

/*
audio_arm_core.go - Audio CPU

A 32-bit ARMv4-style little-endian core with a two-slot prefetch array
standing in for the three-stage pipeline (section 4.4): condition-coded
data processing with a barrel shifter, single/halfword/multiple data
transfer, multiply/MLA, block data transfer with writeback, swap,
branch/branch-link, software interrupt, and PSR transfer. The decode
table is a declarative list of (mask, bits, handler) patterns like the
main CPU's (cpu_main_decode.go), but it is not expanded into a flat
lookup table (that would need 2^28 entries): armDecode scans the list
in order on every instruction and the first pattern matching the
major-group bits wins, leaving fine-grained field decode to each
handler.

The core executes out of the 2 MiB wave-RAM region below a fixed
threshold and touches audio-block registers above it (section 4.4);
above that, reads/writes are delegated to the AudioWaveRAM register
window (audio_wave_ram.go). The whole core is gated by a main-bus register
(gateEnable): clearing it de-initialises PC and forces reset-mode.
*/

package main

// ARM processor modes, used only to select which banked register set is
// live; this core does not model full CPSR mode-switch side effects
// beyond register banking.
const (
	armModeUser = iota
	armModeFIQ
	armModeIRQ
	armModeSVC
)

// CPSR condition-flag bit positions.
const (
	armFlagN = 31
	armFlagZ = 30
	armFlagC = 29
	armFlagV = 28
)

const armWaveThreshold = 2 * 1024 * 1024 // 2 MiB

type armInstrHandler func(a *AudioARM, op uint32)

type armPattern struct {
	mask, bits uint32
	handler    armInstrHandler
}

var armDecodeTable []armPattern

func init() {
	armDecodeTable = []armPattern{
		{0x0FC000F0, 0x00000090, armExecMul},          // MUL/MLA
		{0x0FB00FF0, 0x01000090, armExecSwap},         // SWP
		{0x0E0000F0, 0x000000B0, armExecHalfwordXfer}, // LDRH/STRH
		{0x0C000000, 0x00000000, armExecDataProc},     // data processing / PSR transfer
		{0x0C000000, 0x04000000, armExecSingleXfer},   // LDR/STR
		{0x0E000000, 0x08000000, armExecBlockXfer},    // LDM/STM
		{0x0E000000, 0x0A000000, armExecBranch},       // B/BL
		{0x0F000000, 0x0F000000, armExecSWI},          // SWI
	}
}

func armDecode(op uint32) armInstrHandler {
	for _, p := range armDecodeTable {
		if op&p.mask == p.bits {
			return p.handler
		}
	}
	return armExecUnknown
}

// AudioARM implements C6.
type AudioARM struct {
	r    [16]uint32 // r15 is PC
	rFIQ [7]uint32  // r8-r14 FIQ bank
	rIRQ [2]uint32  // r13-r14 IRQ bank
	rSVC [2]uint32  // r13-r14 SVC bank
	cpsr uint32
	spsr [3]uint32 // indexed by mode-1 (FIQ,IRQ,SVC)

	mode int

	prefetch [2]uint32
	fetched  int

	gateEnable bool
	running    bool

	wave  *AudioWaveRAM
	cycle int64
}

// NewAudioARM returns a gated-off (reset-mode) audio CPU wired to wave.
func NewAudioARM(wave *AudioWaveRAM) *AudioARM {
	a := &AudioARM{wave: wave}
	a.Reset()
	return a
}

// Reset clears registers and forces reset-mode (gate disabled).
func (a *AudioARM) Reset() {
	a.r = [16]uint32{}
	a.rFIQ = [7]uint32{}
	a.rIRQ = [2]uint32{}
	a.rSVC = [2]uint32{}
	a.cpsr = 0
	a.mode = armModeUser
	a.prefetch = [2]uint32{}
	a.fetched = 0
	a.running = false
}

// SetGate is the main-bus register hook (section 4.4): clearing the gate
// de-initialises PC and enters reset-mode; setting it starts execution
// from the current PC (typically zero after a fresh Reset).
func (a *AudioARM) SetGate(enable bool) {
	a.gateEnable = enable
	if !enable {
		a.r[15] = 0
		a.running = false
		return
	}
	a.running = true
}

func (a *AudioARM) pc() uint32 { return a.r[15] }

// read32/write32 route through the 2 MiB wave-RAM threshold (section
// 4.4): below it, the shared wave-RAM buffer; at or above it,
// audio-block registers.
func (a *AudioARM) read32(addr uint32) uint32 {
	if addr < armWaveThreshold {
		return a.wave.Read32(addr)
	}
	return a.wave.ReadReg32(addr)
}

func (a *AudioARM) write32(addr uint32, v uint32) {
	if addr < armWaveThreshold {
		a.wave.Write32(addr, v)
		return
	}
	a.wave.WriteReg32(addr, v)
}

func (a *AudioARM) read8(addr uint32) uint8 {
	if addr < armWaveThreshold {
		return a.wave.Read8(addr)
	}
	return uint8(a.wave.ReadReg32(addr &^ 3))
}

func (a *AudioARM) write8(addr uint32, v uint8) {
	if addr < armWaveThreshold {
		a.wave.Write8(addr, v)
	}
}

// Step executes one instruction if the core is gated on, costing
// CPURatio scheduler cycles exactly like the main CPU (section 4.4: one
// instruction per 8 scheduler-cycles). PC only advances by 4 here when
// the handler left it untouched; a handler that wrote r15 itself - a
// branch, an SWI, or any data-processing/single-transfer/block-transfer
// instruction targeting rd/the register list's PC slot (the standard
// "MOV PC,R14", "LDR PC,[...]", "LDM ...,{PC}" idioms) - has already
// placed the real target there and must not be overshot by a further
// +4, the same before/after-PC comparison the main CPU's execOne uses
// for its branch handlers (cpu_main.go).
func (a *AudioARM) Step() int {
	if !a.running {
		return CPURatio
	}
	pcBefore := a.pc()
	op := a.read32(pcBefore)
	if armConditionPasses(a.cpsr, op) {
		armDecode(op)(a, op)
	}
	if a.pc() == pcBefore {
		a.r[15] += 4
	}
	a.cycle += CPURatio
	return CPURatio
}

// armConditionPasses evaluates the top-4-bit ARM condition field against
// CPSR's NZCV flags.
func armConditionPasses(cpsr, op uint32) bool {
	n := cpsr&(1<<armFlagN) != 0
	z := cpsr&(1<<armFlagZ) != 0
	c := cpsr&(1<<armFlagC) != 0
	v := cpsr&(1<<armFlagV) != 0
	switch op >> 28 {
	case 0x0:
		return z
	case 0x1:
		return !z
	case 0x2:
		return c
	case 0x3:
		return !c
	case 0x4:
		return n
	case 0x5:
		return !n
	case 0x6:
		return v
	case 0x7:
		return !v
	case 0x8:
		return c && !z
	case 0x9:
		return !c || z
	case 0xA:
		return n == v
	case 0xB:
		return n != v
	case 0xC:
		return !z && n == v
	case 0xD:
		return z || n != v
	case 0xE:
		return true
	default:
		return false
	}
}

// --- banked register access ---------------------------------------------

// GetR reads register n (0-15), resolving FIQ/IRQ/SVC banking for r8-r14
// and leaving r15 (PC) and user-mode r0-r7 unbanked.
func (a *AudioARM) GetR(n int) uint32 {
	if n == 15 {
		return a.r[15]
	}
	switch {
	case a.mode == armModeFIQ && n >= 8 && n <= 14:
		return a.rFIQ[n-8]
	case a.mode == armModeIRQ && n >= 13 && n <= 14:
		return a.rIRQ[n-13]
	case a.mode == armModeSVC && n >= 13 && n <= 14:
		return a.rSVC[n-13]
	default:
		return a.r[n]
	}
}

func (a *AudioARM) SetR(n int, v uint32) {
	if n == 15 {
		a.r[15] = v
		return
	}
	switch {
	case a.mode == armModeFIQ && n >= 8 && n <= 14:
		a.rFIQ[n-8] = v
	case a.mode == armModeIRQ && n >= 13 && n <= 14:
		a.rIRQ[n-13] = v
	case a.mode == armModeSVC && n >= 13 && n <= 14:
		a.rSVC[n-13] = v
	default:
		a.r[n] = v
	}
}

func (a *AudioARM) setNZ(v uint32) {
	if v == 0 {
		a.cpsr |= 1 << armFlagZ
	} else {
		a.cpsr &^= 1 << armFlagZ
	}
	if v&0x80000000 != 0 {
		a.cpsr |= 1 << armFlagN
	} else {
		a.cpsr &^= 1 << armFlagN
	}
}

func armExecUnknown(a *AudioARM, op uint32) {}
