// gfx_asic.go - graphics ASIC register contract and display-list ingest

/*
gfx_asic.go - Graphics ASIC Collaborator

Section 1 scopes the tile accumulator/rasterizer as an external
collaborator: the core only owns the register interface (graphics-ASIC
control window, section 6) and the display-list wire format it parses;
actual rasterisation is delivered to the front-end as a VRAM snapshot
(section 5, section 9's "graphics/CPU boundary" note). This file
implements that contract: register reads/writes, VRAM storage, the
display-list parameter-control word decode, and the parser that walks
one TA (tile accumulator) submission into typed packets for a
collaborator to consume. No rasterisation happens here.
*/

package main

import "sync"

// VRAM size and windows (section 6): linear window 0x05000000-0x057fffff,
// 64-bit window 0x04000000-0x047fffff, texture-accumulator input window
// 0x10000000-0x10ffffff, direct-VRAM window 0x11000000-0x11ffffff.
const (
	vramSize          = 8 * 1024 * 1024
	gfxControlBase    = 0x005F8000
	gfxControlEnd     = 0x005F8FFC
	regParamBase      = gfxControlBase + 0x20  // TA_OL_BASE-style param base
	regParamSize      = gfxControlBase + 0x24  // region/opb size
	regListInit       = gfxControlBase + 0x4C  // write triggers list-submission reset
	regSoftReset      = gfxControlBase + 0x08
	regStartRender    = gfxControlBase + 0x14
	regVRAMBase       = 0x05000000
	regTAInputBase    = 0x10000000
	regDirectVRAMBase = 0x11000000
)

// Video timing (section 2/3's video timing generator): a fixed-rate
// scanline clock paced purely off scheduler cycles, independent of
// display-list submission or completion, so guest code polling the
// scanline/VBlank register sees real periodic timing rather than a
// pulse tied to when a display list happens to finish.
const (
	cyclesPerScanline = 1476 // TIMESLICE-scaled approximation of one scanline
	scanlinesPerFrame = 263
	vblankStartLine   = 240
)

// PacketKind is the top-3-bit selector of a display-list parameter
// control word (section 6).
type PacketKind uint8

const (
	PacketEndOfList PacketKind = iota
	PacketUserTileClip
	PacketObjectList
	packetReserved0
	PacketPolyOrVol
	PacketSprite
	packetReserved1
	PacketVertex
)

// ListType is the next-3-bit selector of the parameter control word.
type ListType uint8

const (
	ListOpaque ListType = iota
	ListOpaqueModVol
	ListTranslucent
	ListTranslucentModVol
	ListPunchThrough
	listReserved
)

// normalInterruptBitForList maps a completed list's type to the bit index
// of the normal-interrupt source the ASIC posts after an EndOfList packet
// (section 6): opaque=7, opaque-mod-vol=8, translucent=9,
// translucent-mod-vol=10, punch-through=21.
var normalInterruptBitForList = map[ListType]uint{
	ListOpaque:              7,
	ListOpaqueModVol:        8,
	ListTranslucent:         9,
	ListTranslucentModVol:   10,
	ListPunchThrough:        21,
}

// ParamControlWord decodes a display-list packet's leading 32-bit word.
type ParamControlWord struct {
	Kind         PacketKind
	List         ListType
	EndOfStrip   bool
	Raw          uint32
}

func DecodeParamControlWord(w uint32) ParamControlWord {
	return ParamControlWord{
		Kind:       PacketKind((w >> 29) & 7),
		List:       ListType((w >> 26) & 7),
		EndOfStrip: w&(1<<28) != 0,
		Raw:        w,
	}
}

// DisplayListPacket is one 32-byte-aligned block parsed from a TA
// submission: the PCW plus up to two trailing 32-byte ISP/TSP/TCW words
// for PolyOrVol/Sprite packets, or vertex fields for Vertex packets.
type DisplayListPacket struct {
	PCW    ParamControlWord
	Words  [2]uint32 // ISP/TSP/TCW for PolyOrVol/Sprite; unused otherwise
	X, Y, Z float32
	U, V   float32
	Color  uint32
}

// GraphicsASIC implements the register-and-display-list half of the tile
// accumulator/rasterizer collaborator (section 1, section 9). It never
// rasterises; ParseSubmission only classifies packets so a collaborator
// (or a headless test) can consume them, and EndOfList posts the
// appropriate normal-interrupt bit through the scheduler/interrupt
// controller just like real hardware does on completion.
type GraphicsASIC struct {
	mu   sync.Mutex
	vram [vramSize]byte

	paramBase uint32
	paramSize uint32

	intc  *InterruptController
	sched *Scheduler

	// currentList accumulates packets for one TA submission between a
	// list-init write and the EndOfList packet.
	currentList ListType
	packets     []DisplayListPacket
	building    bool

	// scanline is the video timing generator's own counter, advanced one
	// line per SubVideoScanline dispatch; it wraps at scanlinesPerFrame
	// and crosses into VBlank at vblankStartLine, entirely decoupled from
	// display-list completion.
	scanline int
}

// NewGraphicsASIC returns a GraphicsASIC with zeroed VRAM, wired to post
// completion interrupts through intc/sched.
func NewGraphicsASIC(intc *InterruptController, sched *Scheduler) *GraphicsASIC {
	return &GraphicsASIC{intc: intc, sched: sched}
}

// ReadReg32/WriteReg32 handle the graphics-ASIC control window
// (0x005f8000-0x005f8ffc). Unknown registers return 0 / discard per the
// bus-wide unknown-register policy (section 7); the sub-range handler
// itself only needs to special-case the registers this spec names.
func (g *GraphicsASIC) ReadReg32(addr uint32) uint32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch addr {
	case regParamBase:
		return g.paramBase
	case regParamSize:
		return g.paramSize
	default:
		return 0
	}
}

func (g *GraphicsASIC) WriteReg32(addr uint32, value uint32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch addr {
	case regParamBase:
		g.paramBase = value
	case regParamSize:
		g.paramSize = value
	case regListInit:
		g.building = true
		g.packets = g.packets[:0]
	case regSoftReset:
		if value&1 != 0 {
			g.vram = [vramSize]byte{}
		}
	case regStartRender:
		g.sched.Schedule(Event{Kind: HollyEvent, Sub: SubFrameReady}, 0)
	}
}

// VRAMRead8/32 and VRAMWrite8/32 back the three VRAM windows
// (linear, 64-bit, direct) with the same backing store: all three are
// different CPU-side views of one physical VRAM array (section 6).
func (g *GraphicsASIC) VRAMRead8(off uint32) uint8 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.vram[off%vramSize]
}

func (g *GraphicsASIC) VRAMWrite8(off uint32, v uint8) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.vram[off%vramSize] = v
}

func (g *GraphicsASIC) VRAMRead32(off uint32) uint32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	i := off % vramSize
	if i+4 > vramSize {
		return 0
	}
	return uint32(g.vram[i]) | uint32(g.vram[i+1])<<8 | uint32(g.vram[i+2])<<16 | uint32(g.vram[i+3])<<24
}

func (g *GraphicsASIC) VRAMWrite32(off uint32, v uint32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	i := off % vramSize
	if i+4 > vramSize {
		return
	}
	g.vram[i] = byte(v)
	g.vram[i+1] = byte(v >> 8)
	g.vram[i+2] = byte(v >> 16)
	g.vram[i+3] = byte(v >> 24)
}

// Snapshot copies the VRAM backing store out for a front-end (section 5:
// the core hands over shared-ownership snapshots rather than letting a
// front-end read live memory under the core's writer lock).
func (g *GraphicsASIC) Snapshot() []byte {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]byte, vramSize)
	copy(out, g.vram[:])
	return out
}

// IngestWord feeds one 32-bit display-list word into the in-progress
// submission. A real TA ingests 32-byte-aligned blocks over DMA; here the
// bus calls this once per 32-bit write to the TA input window and tests
// call it directly, so packets build up word-by-word with no DMA model.
func (g *GraphicsASIC) IngestWord(w uint32) {
	if !g.building {
		return
	}
	pcw := DecodeParamControlWord(w)
	pkt := DisplayListPacket{PCW: pcw}
	g.packets = append(g.packets, pkt)
	if pcw.Kind == PacketEndOfList {
		g.endOfList(pcw.List)
	}
}

// endOfList posts the list-type-indexed normal-interrupt bit (section 6)
// and closes out the in-progress submission.
func (g *GraphicsASIC) endOfList(list ListType) {
	g.building = false
	if bit, ok := normalInterruptBitForList[list]; ok {
		g.intc.RaiseNormal(1 << bit)
	}
}

// Packets returns the packets accumulated by the most recently completed
// submission, for tests and for loop.go's frame snapshot.
func (g *GraphicsASIC) Packets() []DisplayListPacket {
	return g.packets
}

// StartVideoTiming arms the first periodic scanline event. Call once at
// machine construction; OnScanline keeps the clock running from there.
func (g *GraphicsASIC) StartVideoTiming() {
	g.sched.Schedule(Event{Kind: HollyEvent, Sub: SubVideoScanline}, cyclesPerScanline)
}

// OnScanline advances the video timing generator by one line and
// reschedules itself, entirely independent of display-list submission or
// completion (section 2/3's timing generator is a free-running clock, not
// an artifact of render completion). Crossing into vblankStartLine raises
// VBlank; wrapping past scanlinesPerFrame restarts the next frame's count.
func (g *GraphicsASIC) OnScanline() {
	g.mu.Lock()
	g.scanline++
	if g.scanline == vblankStartLine {
		g.mu.Unlock()
		g.sched.Schedule(Event{Kind: HollyEvent, Sub: SubVBlank}, 0)
	} else {
		g.mu.Unlock()
	}
	if g.scanline >= scanlinesPerFrame {
		g.mu.Lock()
		g.scanline = 0
		g.mu.Unlock()
	}
	g.sched.Schedule(Event{Kind: HollyEvent, Sub: SubVideoScanline}, cyclesPerScanline)
}
