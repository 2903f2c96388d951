// dma_engines.go - controller-port, ch2, drive and audio DMA engines

/*
dma_engines.go - DMA Engines

The scheduler names four DMA sub-kinds (section 3, section 6) that the
top-level loop dispatches to when they come due: maple (controller-port),
ch2 (general-purpose RAM-to-external-device), drive (PIO/DMA handoff from
the drive controller's FIFO) and audio (RAM-to-wave-RAM). Each engine owns
a small set of control registers in the system block and performs its
transfer synchronously when triggered, since section 5 forbids any
host-blocking I/O inside a handler and every source byte is already
resident in system RAM or a collaborator's backing store.

The controller-port frame format (section 6) is a chain of 32-bit headers:
an 8-bit length-pattern field in bits 15:8 selects one of the documented
length values (0/1/.../0xfe/0xff -> 4, 8, ..., 1020, 1024 bytes; the
pattern must be 8 bits wide since the table's endpoints run to 0xff, not
the 3 bits bits-10:8 alone would hold), and bit 31 marks the last header
in the chain. Each header is followed by a 32-bit receive-pointer and an
inline request frame {cmd, dest, src, len, data[...]}. This engine walks
the chain and copies each frame's data into the receive-pointer
destination; it does not model any peripheral logic beyond that copy,
since the core's contract stops at the register/DMA interface (section 1).
*/

package main

// dmaLengthForPattern maps the 8-bit length-pattern selector (header bits
// 15:8) to a byte count (section 6).
func dmaLengthForPattern(pattern uint32) int {
	// (pattern+1)*4 reproduces every documented endpoint (0->4, 1->8,
	// 0xfe->1020, 0xff->1024) under one formula.
	return int(pattern+1) * 4
}

// DMAEngines owns the four DMA channels' control registers and performs
// their transfers against the main bus.
type DMAEngines struct {
	bus  *MachineBus
	intc *InterruptController

	mapleBase  uint32
	ch2Src     uint32
	ch2Dst     uint32
	ch2Len     uint32
	driveDst   uint32
	audioSrc   uint32
	audioDst   uint32
	audioLen   uint32
}

// NewDMAEngines returns a DMA block wired to bus and intc.
func NewDMAEngines(bus *MachineBus, intc *InterruptController) *DMAEngines {
	return &DMAEngines{bus: bus, intc: intc}
}

// SetMapleBase configures the chain's starting logical address; loop.go's
// runDMA calls this with the value staged in the system-block register
// window (machine_bus.go) just before running the transfer.
func (d *DMAEngines) SetMapleBase(addr uint32) { d.mapleBase = addr }

// SetCh2 configures a general-purpose RAM-to-external transfer's source,
// destination and length registers.
func (d *DMAEngines) SetCh2(src, dst, length uint32) {
	d.ch2Src, d.ch2Dst, d.ch2Len = src, dst, length
}

// SetDriveDst configures the destination a drive-DMA transfer writes the
// controller's staged PIO bytes to.
func (d *DMAEngines) SetDriveDst(addr uint32) { d.driveDst = addr }

// SetAudio configures a RAM-to-wave-RAM transfer's source, destination and
// length registers.
func (d *DMAEngines) SetAudio(src, dst, length uint32) {
	d.audioSrc, d.audioDst, d.audioLen = src, dst, length
}

// RunMaple walks the controller-port frame chain starting at mapleBase,
// copying each frame's inline data to its receive-pointer destination
// (section 6), stopping after the header with bit 31 set.
func (d *DMAEngines) RunMaple() {
	addr := d.mapleBase
	if addr == 0 {
		return
	}
	for {
		header := d.bus.Read32(addr)
		pattern := (header >> 8) & 0xff
		length := dmaLengthForPattern(pattern)
		last := header&(1<<31) != 0
		recvPtr := d.bus.Read32(addr + 4)
		frameAddr := addr + 8

		for i := 0; i < length; i += 4 {
			d.bus.Write32(recvPtr+uint32(i), d.bus.Read32(frameAddr+uint32(i)))
		}

		addr = frameAddr + uint32(length)
		if last {
			break
		}
	}
	d.intc.RaiseNormal(1 << 12)
}

// RunCh2 copies ch2Len bytes (rounded down to a whole word) from ch2Src to
// ch2Dst and posts the ch2-DMA-complete normal-interrupt bit.
func (d *DMAEngines) RunCh2() {
	for i := uint32(0); i+4 <= d.ch2Len; i += 4 {
		d.bus.Write32(d.ch2Dst+i, d.bus.Read32(d.ch2Src+i))
	}
	d.intc.RaiseNormal(1 << 13)
}

// RunDrive drains the drive controller's PIO FIFO (via its ReadData
// method, not through the bus) into driveDst, one byte per access,
// matching the register-level handoff a guest would otherwise perform itself.
func (d *DMAEngines) RunDrive(drive *DriveController) {
	i := uint32(0)
	for drive.FIFOLen() > 0 {
		d.bus.Write8(d.driveDst+i, drive.ReadData())
		i++
	}
	d.intc.RaiseExternal(1)
}

// RunAudio copies audioLen bytes from audioSrc (system RAM) to audioDst
// (wave RAM, via the bus's audio-wave-RAM window) and posts the
// audio-DMA-complete normal-interrupt bit.
func (d *DMAEngines) RunAudio() {
	for i := uint32(0); i < d.audioLen; i++ {
		d.bus.Write8(d.audioDst+i, d.bus.Read8(d.audioSrc+i))
	}
	d.bus.wave.SetPlaybackBase(d.bus.waveOffset(d.audioDst))
	d.intc.RaiseNormal(1 << 14)
}
