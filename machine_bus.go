// machine_bus.go - main bus and physical address space (C4)

/*
machine_bus.go - Machine Bus

The main bus takes a logical address from the main CPU, runs it through
the address mapper (addr_mapper.go, C1) and dispatches on the resulting
tagged location: store-queue writes go to the write-combining buffers
(store_queue.go), operand-cache-window accesses go to the RAM-mode
scratch area (operand_cache.go), on-chip register window accesses stay
local to the bus (QACR, CCR), and everything else external is routed by
physical sub-range to system RAM, the graphics ASIC, the drive
controller or the audio wave-RAM block, per the external-interfaces
register map (section 6).

A single read/write entry point per width translates the address once
and hands the physical offset to whichever sub-range owns it; unknown
registers inside an owned sub-range return zero on read and are
discarded on write, logged once, never fault - this bus never raises a
bus error back to the CPU (section 7's unknown-register policy). 16/8-bit
accesses to register windows that only have 32-bit semantics decompose
into a 32-bit read-modify-write, never a separate narrower protocol.
*/

package main

import (
	"encoding/binary"
	"log"
	"sync"
)

// System RAM: 16 MiB, mirrored at two physical bases (section 6).
const (
	ramSize  = 16 * 1024 * 1024
	ramBase1 = 0x0C000000
	ramBase2 = 0x0D000000
)

// External physical sub-ranges (section 6).
const (
	sysBlockBase = 0x005F6800
	sysBlockEnd  = 0x005F7CF8

	audioRegBase    = 0x00700000
	audioRegEnd     = 0x0070FFFF
	audioRegMirror  = 0x02700000
	audioWaveBase   = 0x00800000
	audioWaveEnd    = 0x00FFFFFF
	audioWaveMirror = 0x02800000

	vram64Base   = 0x04000000
	vram64End    = 0x047FFFFF
	vramLinBase  = 0x05000000
	vramLinEnd   = 0x057FFFFF
	taInputBase  = 0x10000000
	taInputEnd   = 0x10FFFFFF
	vramDirBase  = 0x11000000
	vramDirEnd   = 0x11FFFFFF
)

// System-block register offsets, physical (within sysBlockBase range).
// Named per the kind of on-chip peripheral they belong to rather than
// to any one device, matching the register-bank style of section 6.
const (
	regTimerConstant0 = sysBlockBase + 0x00
	regTimerConstant1 = sysBlockBase + 0x04
	regTimerConstant2 = sysBlockBase + 0x08
	regTimerCounter0  = sysBlockBase + 0x0C
	regTimerCounter1  = sysBlockBase + 0x10
	regTimerCounter2  = sysBlockBase + 0x14
	regTimerControl0  = sysBlockBase + 0x18
	regTimerControl1  = sysBlockBase + 0x1C
	regTimerControl2  = sysBlockBase + 0x20

	regIntcEnableHigh = sysBlockBase + 0x40
	regIntcEnableMid  = sysBlockBase + 0x44
	regIntcEnableLow  = sysBlockBase + 0x48
	regIntcINTEVT     = sysBlockBase + 0x4C

	regRTCCounter = sysBlockBase + 0x60

	// DMA engine registers (dma_engines.go): each engine's parameters are
	// staged here by the guest, then a write to its trigger register
	// schedules the matching scheduler sub-kind so the transfer itself
	// runs from the C10 dispatch loop rather than synchronously inside
	// this write - keeping the bus free of a back-reference to the DMA
	// engines (section 9's "no component holds another" design note).
	regMapleBase       = sysBlockBase + 0x24
	regMapleTrigger    = sysBlockBase + 0x28
	regCh2Src          = sysBlockBase + 0x2C
	regCh2Dst          = sysBlockBase + 0x30
	regCh2Len          = sysBlockBase + 0x34 // write triggers the transfer
	regDriveDMADst     = sysBlockBase + 0x38
	regDriveDMATrigger = sysBlockBase + 0x50
	regAudioDMASrc     = sysBlockBase + 0x54
	regAudioDMADst     = sysBlockBase + 0x58
	regAudioDMALen     = sysBlockBase + 0x5C // write triggers the transfer
)

// Internal control-register offsets, physical (within the P4 internal
// window's 0x1c00_0000-0x1fff_ffff target, section 6).
const (
	regCCR   = 0x1C00001C
	regQACR0 = 0x1C000038
	regQACR1 = 0x1C00003C
)

const ccrBitOIX = 1 << 3

// MachineBus implements C4: the logical-address entry points the main
// CPU uses, backed by the address mapper and every collaborator this
// core owns or forwards to.
type MachineBus struct {
	mu sync.Mutex

	mapper *AddressMapper
	ocache *OperandCacheRAM
	sq     *StoreQueues

	ram [ramSize]byte

	gfx   *GraphicsASIC
	drive *DriveController
	wave  *AudioWaveRAM
	timer *TimerUnit
	intc  *InterruptController
	sched *Scheduler

	ccr  uint32
	qacr [2]uint32

	rtcCounter uint32

	// dmaRegs holds the staged parameters for each DMA engine (dma_engines.go)
	// until the matching trigger register schedules the transfer; the
	// engine itself is owned by the top-level loop, not the bus, per the
	// same no-back-reference convention as gfx/drive/intc/sched above.
	dmaRegs struct {
		mapleBase uint32
		ch2Src    uint32
		ch2Dst    uint32
		ch2Len    uint32
		driveDst  uint32
		audioSrc  uint32
		audioDst  uint32
		audioLen  uint32
	}

	loggedUnknown map[uint32]bool
}

// NewMachineBus wires a fresh bus to its collaborators. The scheduler and
// interrupt controller are shared with the rest of the machine (C9/C7);
// the bus only consults them to route register writes, never to drive
// timing itself.
func NewMachineBus(gfx *GraphicsASIC, drive *DriveController, wave *AudioWaveRAM, timer *TimerUnit, intc *InterruptController, sched *Scheduler) *MachineBus {
	return &MachineBus{
		mapper:        NewAddressMapper(),
		ocache:        NewOperandCacheRAM(),
		sq:            NewStoreQueues(),
		gfx:           gfx,
		drive:         drive,
		wave:          wave,
		timer:         timer,
		intc:          intc,
		sched:         sched,
		loggedUnknown: make(map[uint32]bool),
	}
}

// QACR returns the store-queue address control register for queue n (0
// or 1); handlePREF (cpu_main_exec.go) reads this at the moment of the
// prefetch, not at store time.
func (bus *MachineBus) QACR(n int) uint32 {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	return bus.qacr[n&1]
}

func (bus *MachineBus) SetQACR(n int, v uint32) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	bus.qacr[n&1] = v
}

func (bus *MachineBus) logUnknown(op, addr uint32) {
	if bus.loggedUnknown[addr] {
		return
	}
	bus.loggedUnknown[addr] = true
	log.Printf("machine bus: unknown register access (op=%#x addr=%#08x)", op, addr)
}

// --- 32-bit entry points --------------------------------------------------

func (bus *MachineBus) Read32(logical uint32) uint32 {
	t := bus.mapper.Translate(logical)
	switch t.Kind {
	case LocStoreQueue:
		return 0 // reads of the store-queue window are undefined (store_queue.go)
	case LocOperandCache:
		return bus.ocache.Read32(Index(t.Phys, bus.ccr&ccrBitOIX != 0))
	case LocInternal:
		return bus.readInternal32(t.Phys)
	case LocUnmapped:
		return 0
	default:
		return bus.readExternal32(t.Phys)
	}
}

func (bus *MachineBus) Write32(logical uint32, value uint32) {
	t := bus.mapper.Translate(logical)
	switch t.Kind {
	case LocStoreQueue:
		bus.sq.Write(t.Phys, value)
	case LocOperandCache:
		bus.ocache.Write32(Index(t.Phys, bus.ccr&ccrBitOIX != 0), value)
	case LocInternal:
		bus.writeInternal32(t.Phys, value)
	case LocUnmapped:
		bus.logUnknown(1, logical)
	default:
		bus.writeExternal32(t.Phys, value)
	}
}

// --- 16-bit entry points, decomposed from the 32-bit handlers where the
// owning sub-range has no native 16-bit semantics -------------------------

func (bus *MachineBus) Read16(logical uint32) uint16 {
	t := bus.mapper.Translate(logical)
	switch t.Kind {
	case LocOperandCache:
		idx := Index(t.Phys, bus.ccr&ccrBitOIX != 0)
		return uint16(bus.ocache.Read8(idx)) | uint16(bus.ocache.Read8(idx+1))<<8
	case LocExternal:
		if bus.isRAM(t.Phys) {
			off := bus.ramOffset(t.Phys)
			return binary.LittleEndian.Uint16(bus.ramWindow(off, 2))
		}
	}
	word := bus.Read32(logical &^ 3)
	shift := (logical & 2) * 8
	return uint16(word >> shift)
}

func (bus *MachineBus) Write16(logical uint32, value uint16) {
	t := bus.mapper.Translate(logical)
	switch t.Kind {
	case LocOperandCache:
		idx := Index(t.Phys, bus.ccr&ccrBitOIX != 0)
		bus.ocache.Write8(idx, uint8(value))
		bus.ocache.Write8(idx+1, uint8(value>>8))
		return
	case LocExternal:
		if bus.isRAM(t.Phys) {
			off := bus.ramOffset(t.Phys)
			binary.LittleEndian.PutUint16(bus.ramWindow(off, 2), value)
			return
		}
	}
	base := logical &^ 3
	shift := (logical & 2) * 8
	word := bus.Read32(base)
	word = (word &^ (0xFFFF << shift)) | (uint32(value) << shift)
	bus.Write32(base, word)
}

// --- 8-bit entry points ----------------------------------------------------

func (bus *MachineBus) Read8(logical uint32) uint8 {
	t := bus.mapper.Translate(logical)
	switch t.Kind {
	case LocOperandCache:
		return bus.ocache.Read8(Index(t.Phys, bus.ccr&ccrBitOIX != 0))
	case LocExternal:
		if bus.isRAM(t.Phys) {
			return bus.ramWindow(bus.ramOffset(t.Phys), 1)[0]
		}
		if bus.gfx != nil && bus.inVRAMWindow(t.Phys) {
			return bus.gfx.VRAMRead8(bus.vramOffset(t.Phys))
		}
		if bus.wave != nil && t.Phys >= audioWaveBase && t.Phys <= audioWaveEnd {
			return bus.wave.Read8(t.Phys - audioWaveBase)
		}
		if bus.wave != nil && t.Phys >= audioWaveMirror {
			return bus.wave.Read8(t.Phys - audioWaveMirror)
		}
	}
	word := bus.Read32(logical &^ 3)
	shift := (logical & 3) * 8
	return uint8(word >> shift)
}

func (bus *MachineBus) Write8(logical uint32, value uint8) {
	t := bus.mapper.Translate(logical)
	switch t.Kind {
	case LocOperandCache:
		bus.ocache.Write8(Index(t.Phys, bus.ccr&ccrBitOIX != 0), value)
		return
	case LocExternal:
		if bus.isRAM(t.Phys) {
			bus.ramWindow(bus.ramOffset(t.Phys), 1)[0] = value
			return
		}
		if bus.gfx != nil && bus.inVRAMWindow(t.Phys) {
			bus.gfx.VRAMWrite8(bus.vramOffset(t.Phys), value)
			return
		}
		if bus.wave != nil && t.Phys >= audioWaveBase && t.Phys <= audioWaveEnd {
			bus.wave.Write8(t.Phys-audioWaveBase, value)
			return
		}
		if bus.wave != nil && t.Phys >= audioWaveMirror {
			bus.wave.Write8(t.Phys-audioWaveMirror, value)
			return
		}
	}
	base := logical &^ 3
	shift := (logical & 3) * 8
	word := bus.Read32(base)
	word = (word &^ (0xFF << shift)) | (uint32(value) << shift)
	bus.Write32(base, word)
}

// --- 64-bit entry points: always two 32-bit halves, low word first -------

func (bus *MachineBus) Read64(logical uint32) uint64 {
	lo := bus.Read32(logical)
	hi := bus.Read32(logical + 4)
	return uint64(lo) | uint64(hi)<<32
}

func (bus *MachineBus) Write64(logical uint32, value uint64) {
	bus.Write32(logical, uint32(value))
	bus.Write32(logical+4, uint32(value>>32))
}

// --- internal register window ---------------------------------------------

func (bus *MachineBus) readInternal32(phys uint32) uint32 {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	switch phys {
	case regCCR:
		return bus.ccr
	case regQACR0:
		return bus.qacr[0]
	case regQACR1:
		return bus.qacr[1]
	default:
		bus.logUnknown(0, phys)
		return 0
	}
}

func (bus *MachineBus) writeInternal32(phys uint32, value uint32) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	switch phys {
	case regCCR:
		bus.ccr = value
	case regQACR0:
		bus.qacr[0] = value
	case regQACR1:
		bus.qacr[1] = value
	default:
		bus.logUnknown(1, phys)
	}
}

// --- external physical sub-range dispatch ----------------------------------

func (bus *MachineBus) isRAM(phys uint32) bool {
	return bus.ramOffset(phys) < ramSize
}

func (bus *MachineBus) ramOffset(phys uint32) uint32 {
	switch {
	case phys >= ramBase1 && phys < ramBase1+ramSize:
		return phys - ramBase1
	case phys >= ramBase2 && phys < ramBase2+ramSize:
		return phys - ramBase2
	default:
		return ramSize // sentinel: out of range
	}
}

func (bus *MachineBus) ramWindow(off, n uint32) []byte {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	if off+n > ramSize {
		return make([]byte, n)
	}
	return bus.ram[off : off+n]
}

func (bus *MachineBus) inVRAMWindow(phys uint32) bool {
	return (phys >= vram64Base && phys <= vram64End) ||
		(phys >= vramLinBase && phys <= vramLinEnd) ||
		(phys >= vramDirBase && phys <= vramDirEnd)
}

func (bus *MachineBus) vramOffset(phys uint32) uint32 {
	switch {
	case phys >= vramLinBase && phys <= vramLinEnd:
		return phys - vramLinBase
	case phys >= vram64Base && phys <= vram64End:
		return phys - vram64Base
	default:
		return phys - vramDirBase
	}
}

// waveOffset translates a physical address inside the audio wave-RAM
// window or its mirror (section 6) to the 0-based offset AudioWaveRAM
// expects, the same translation readExternal32/writeExternal32 apply
// inline; exposed so the audio DMA engine can point the playback cursor
// at a destination address without duplicating the base arithmetic.
func (bus *MachineBus) waveOffset(phys uint32) uint32 {
	if phys >= audioWaveMirror {
		return phys - audioWaveMirror
	}
	return phys - audioWaveBase
}

func (bus *MachineBus) readExternal32(phys uint32) uint32 {
	if bus.isRAM(phys) {
		return binary.LittleEndian.Uint32(bus.ramWindow(bus.ramOffset(phys), 4))
	}
	if bus.drive != nil && phys >= driveRegBase && phys <= regDriveData+3 {
		return bus.readDriveReg(phys)
	}
	if bus.gfx != nil && phys >= gfxControlBase && phys <= gfxControlEnd {
		return bus.gfx.ReadReg32(phys)
	}
	if bus.inVRAMWindow(phys) {
		return bus.gfx.VRAMRead32(bus.vramOffset(phys))
	}
	if phys >= taInputBase && phys <= taInputEnd {
		return 0
	}
	if bus.wave != nil {
		switch {
		case phys >= audioRegBase && phys <= audioRegEnd:
			return bus.wave.ReadReg32(phys - audioRegBase)
		case phys >= audioRegMirror && phys <= audioRegMirror+0xFFFF:
			return bus.wave.ReadReg32(phys - audioRegMirror)
		case phys >= audioWaveBase && phys <= audioWaveEnd:
			return bus.wave.Read32(phys - audioWaveBase)
		case phys >= audioWaveMirror:
			return bus.wave.Read32(phys - audioWaveMirror)
		}
	}
	if phys >= sysBlockBase && phys <= sysBlockEnd {
		return bus.readSysBlock(phys)
	}
	bus.logUnknown(0, phys)
	return 0
}

func (bus *MachineBus) writeExternal32(phys uint32, value uint32) {
	if bus.isRAM(phys) {
		binary.LittleEndian.PutUint32(bus.ramWindow(bus.ramOffset(phys), 4), value)
		return
	}
	if bus.drive != nil && phys >= driveRegBase && phys <= regDriveData+3 {
		bus.writeDriveReg(phys, value)
		return
	}
	if bus.gfx != nil && phys >= gfxControlBase && phys <= gfxControlEnd {
		bus.gfx.WriteReg32(phys, value)
		return
	}
	if bus.inVRAMWindow(phys) {
		bus.gfx.VRAMWrite32(bus.vramOffset(phys), value)
		return
	}
	if phys >= taInputBase && phys <= taInputEnd {
		if bus.gfx != nil {
			bus.gfx.IngestWord(value)
		}
		return
	}
	if bus.wave != nil {
		switch {
		case phys >= audioRegBase && phys <= audioRegEnd:
			bus.wave.WriteReg32(phys-audioRegBase, value)
			return
		case phys >= audioRegMirror && phys <= audioRegMirror+0xFFFF:
			bus.wave.WriteReg32(phys-audioRegMirror, value)
			return
		case phys >= audioWaveBase && phys <= audioWaveEnd:
			bus.wave.Write32(phys-audioWaveBase, value)
			return
		case phys >= audioWaveMirror:
			bus.wave.Write32(phys-audioWaveMirror, value)
			return
		}
	}
	if phys >= sysBlockBase && phys <= sysBlockEnd {
		bus.writeSysBlock(phys, value)
		return
	}
	bus.logUnknown(1, phys)
}

// readDriveReg/writeDriveReg adapt the drive controller's byte-oriented
// status/command/data registers (drive_controller.go) to this bus's
// 32-bit dispatch granularity.
func (bus *MachineBus) readDriveReg(phys uint32) uint32 {
	switch phys {
	case regDriveStatusCommand:
		return uint32(bus.drive.Status())
	case regDriveData:
		lo := uint32(bus.drive.ReadData())
		hi := uint32(bus.drive.ReadData())
		return lo | hi<<8
	default:
		return 0
	}
}

func (bus *MachineBus) writeDriveReg(phys uint32, value uint32) {
	switch phys {
	case regDriveStatusCommand:
		bus.drive.WriteCommand(uint8(value))
	case regDriveData:
		bus.drive.WriteData(uint8(value))
		bus.drive.WriteData(uint8(value >> 8))
	}
}

func (bus *MachineBus) readSysBlock(phys uint32) uint32 {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	switch phys {
	case regTimerCounter0:
		return bus.timer.Counter(0)
	case regTimerCounter1:
		return bus.timer.Counter(1)
	case regTimerCounter2:
		return bus.timer.Counter(2)
	case regIntcINTEVT:
		return bus.intc.INTEVT()
	case regRTCCounter:
		return bus.rtcCounter
	case regTimerControl0:
		return bus.timerUnderflowStatus(0)
	case regTimerControl1:
		return bus.timerUnderflowStatus(1)
	case regTimerControl2:
		return bus.timerUnderflowStatus(2)
	case regMapleBase:
		return bus.dmaRegs.mapleBase
	case regCh2Src:
		return bus.dmaRegs.ch2Src
	case regCh2Dst:
		return bus.dmaRegs.ch2Dst
	case regCh2Len:
		return bus.dmaRegs.ch2Len
	case regDriveDMADst:
		return bus.dmaRegs.driveDst
	case regAudioDMASrc:
		return bus.dmaRegs.audioSrc
	case regAudioDMADst:
		return bus.dmaRegs.audioDst
	case regAudioDMALen:
		return bus.dmaRegs.audioLen
	default:
		bus.logUnknown(0, phys)
		return 0
	}
}

func (bus *MachineBus) writeSysBlock(phys uint32, value uint32) {
	switch phys {
	case regTimerConstant0:
		bus.timer.SetConstant(0, value)
	case regTimerConstant1:
		bus.timer.SetConstant(1, value)
	case regTimerConstant2:
		bus.timer.SetConstant(2, value)
	case regTimerCounter0:
		bus.timer.SetCounter(0, value)
	case regTimerCounter1:
		bus.timer.SetCounter(1, value)
	case regTimerCounter2:
		bus.timer.SetCounter(2, value)
	case regTimerControl0:
		bus.setTimerControl(0, value)
	case regTimerControl1:
		bus.setTimerControl(1, value)
	case regTimerControl2:
		bus.setTimerControl(2, value)
	case regIntcEnableHigh:
		bus.intc.SetEnableHigh(value)
	case regIntcEnableMid:
		bus.intc.SetEnableMid(value)
	case regIntcEnableLow:
		bus.intc.SetEnableLow(value)
	case regRTCCounter:
		bus.mu.Lock()
		bus.rtcCounter = value
		bus.mu.Unlock()
	case regMapleBase:
		bus.dmaRegs.mapleBase = value
	case regMapleTrigger:
		bus.scheduleDMA(SubMapleDMA)
	case regCh2Src:
		bus.dmaRegs.ch2Src = value
	case regCh2Dst:
		bus.dmaRegs.ch2Dst = value
	case regCh2Len:
		bus.dmaRegs.ch2Len = value
		bus.scheduleDMA(SubCh2DMA)
	case regDriveDMADst:
		bus.dmaRegs.driveDst = value
	case regDriveDMATrigger:
		bus.scheduleDMA(SubDriveDMA)
	case regAudioDMASrc:
		bus.dmaRegs.audioSrc = value
	case regAudioDMADst:
		bus.dmaRegs.audioDst = value
	case regAudioDMALen:
		bus.dmaRegs.audioLen = value
		bus.scheduleDMA(SubAudioDMA)
	default:
		bus.logUnknown(1, phys)
	}
}

// scheduleDMA posts a scheduler event for the given DMA sub-kind so the
// transfer runs from the top-level loop's dispatch (loop.go), which owns
// the DMAEngines instance and reads the staged parameters back off this
// bus via the DMARegs* accessors below - the bus itself never calls into
// the DMA engine directly (section 9's no-back-reference design note).
func (bus *MachineBus) scheduleDMA(sub EventSubKind) {
	if bus.sched == nil {
		return
	}
	bus.sched.Schedule(Event{Kind: HollyEvent, Sub: sub}, 0)
}

// DMARegsSnapshot returns the currently staged DMA-engine parameters so
// the dispatch loop can push them into DMAEngines immediately before
// running the matching transfer.
func (bus *MachineBus) DMARegsSnapshot() (mapleBase, ch2Src, ch2Dst, ch2Len, driveDst, audioSrc, audioDst, audioLen uint32) {
	return bus.dmaRegs.mapleBase, bus.dmaRegs.ch2Src, bus.dmaRegs.ch2Dst, bus.dmaRegs.ch2Len,
		bus.dmaRegs.driveDst, bus.dmaRegs.audioSrc, bus.dmaRegs.audioDst, bus.dmaRegs.audioLen
}

// setTimerControl starts or stops channel ch per bit 0 (enable) of the
// written control word. On enable, bits 3:1 select the divisor and the
// channel restarts from its current counter value, which Start (timer.go)
// also takes as the reload constant.
func (bus *MachineBus) setTimerControl(ch int, value uint32) {
	if value&1 == 0 {
		bus.timer.Stop(ch)
		return
	}
	divSel := int((value >> 1) & 7)
	bus.timer.Start(ch, divSel, bus.timer.Counter(ch))
}

// timerUnderflowStatus reads back channel ch's underflow latch into bit
// 8 of the control register, clearing it (TimerUnit.UnderflowAck) so a
// guest polling loop observes each underflow exactly once.
func (bus *MachineBus) timerUnderflowStatus(ch int) uint32 {
	if bus.timer.UnderflowAck(ch) {
		return 1 << 8
	}
	return 0
}

// RTCTick advances the real-time clock counter by one, invoked from the
// scheduler's SubRTCTick handler (C10's main loop).
func (bus *MachineBus) RTCTick() {
	bus.mu.Lock()
	bus.rtcCounter++
	bus.mu.Unlock()
}

// Reset clears system RAM; collaborators reset independently via their
// own Reset methods (section 4's per-component ownership).
func (bus *MachineBus) Reset() {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	for i := range bus.ram {
		bus.ram[i] = 0
	}
}
