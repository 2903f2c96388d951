package main

import "testing"

// TestUnalignedLoadRotation covers property 3 and seed scenario S2.
//
// Spec section 8's S2 states MOV.L @(r0,r1),r2 with r0=0x0c00_0003,
// r1=0, and memory bytes {0x11,0x22,0x33,0x44} at 0x0c00_0000..3,
// produces r2 = 0x4411_2233. The aligned little-endian word those bytes
// assemble to is 0x4433_2211, and rotating that right by (addr&3)*8 =
// 24 bits - the rule stated one paragraph earlier in the same section -
// gives 0x3322_1144, not 0x4411_2233. The two figures cannot both
// follow the stated rule. This asserts the rule's actual output
// (DESIGN.md's C5 entry records the discrepancy rather than silently
// matching whichever number looks right).
func TestUnalignedLoadRotation(t *testing.T) {
	c := newTestCPU()
	c.Reset()

	base := uint32(0x0c000000)
	c.bus.Write8(base+0, 0x11)
	c.bus.Write8(base+1, 0x22)
	c.bus.Write8(base+2, 0x33)
	c.bus.Write8(base+3, 0x44)

	got := c.readMem32Rotated(base + 3)
	want := uint32(0x33221144)
	if got != want {
		t.Fatalf("readMem32Rotated(base+3) = %08x, want %08x", got, want)
	}
}

// TestAlignedLoadNoRotation checks the degenerate case: an aligned
// address rotates by zero, i.e. not at all.
func TestAlignedLoadNoRotation(t *testing.T) {
	c := newTestCPU()
	c.Reset()

	base := uint32(0x0c000010)
	c.bus.Write32(base, 0xdeadbeef)
	if got := c.readMem32Rotated(base); got != 0xdeadbeef {
		t.Fatalf("aligned load = %08x, want deadbeef", got)
	}
}

// TestMOVWLoadUsesRotatedRead covers the 16-bit half of property 3:
// MOV.W @Rm,Rn must go through readMem16Rotated (not a plain aligned
// read) so an odd-aligned word still observes the rotate-by-(addr&1)*8
// rule before the sign-extend narrows it back to 16 bits.
func TestMOVWLoadUsesRotatedRead(t *testing.T) {
	c := newTestCPU()
	c.Reset()

	base := uint32(0x0c000020)
	c.bus.Write8(base+0, 0x11)
	c.bus.Write8(base+1, 0x22)
	c.bus.Write8(base+2, 0x33)

	c.SetR(1, base+1)                                   // odd address: rotate right by 8 bits
	handleMOVWLoad(c, 0x6001|uint16(2<<8)|uint16(1<<4)) // MOV.W @R1,R2

	// The aligned word the handler actually reads is at base (addr&^1),
	// rotated right by (addr&1)*8 = 8 bits, then sign-extended - compute
	// the expectation the same way readMem16Rotated does rather than
	// hand-deriving the byte layout.
	wantRaw := rotr16(c.bus.Read16(base), 8)
	wantVal := int32(int16(wantRaw))
	if got := int32(c.GetR(2)); got != wantVal {
		t.Fatalf("MOV.W @Rm,Rn unaligned load = %d, want %d (raw %#04x)", got, wantVal, wantRaw)
	}
}

// TestFMOVPairedTransferIsAtomic covers spec section 4.3's "paired-load/
// store form is atomic over the pair": with FPSCR.SZ set, FMOV.S moves a
// 64-bit DR pair in one shot rather than two independent 32-bit FR moves.
func TestFMOVPairedTransferIsAtomic(t *testing.T) {
	c := newTestCPU()
	c.Reset()

	c.fp.SetFR(4, 3.5)
	c.fp.SetFR(5, -7.25)
	handleFSCHG(c, 0) // set FPSCR.SZ: paired transfers

	addr := uint32(0x0c000040)
	c.SetR(1, addr)
	handleFMOVStore(c, 0xF00A|uint16(1<<8)|uint16(4<<4)) // FMOV.S FR4,@R1 (paired)

	c.fp.SetFR(4, 0)
	c.fp.SetFR(5, 0)
	c.SetR(2, addr)
	handleFMOVLoad(c, 0xF008|uint16(6<<8)|uint16(2<<4)) // FMOV.S @R2,FR6 (paired)

	if got := c.fp.FR(6); got != 3.5 {
		t.Fatalf("FR(6) after paired round-trip = %v, want 3.5", got)
	}
	if got := c.fp.FR(7); got != -7.25 {
		t.Fatalf("FR(7) after paired round-trip = %v, want -7.25", got)
	}
}
