// cpu_main_exec.go - integer/control instruction handlers (C5)

/*
cpu_main_exec.go - Instruction Handlers

Each handler receives the CPU and the raw opcode word and is responsible
for its own side effects; non-branch handlers leave PC untouched and let
cpu_main.go's execOne apply the generic +2 advance. Branch and jump
handlers always set PC themselves (their decode table entries carry
setsPC=true) and run their delay slot through CPU.executeDelaySlot before
committing the new PC, per spec section 4.3's delayed-branch contract.

Unaligned load rotation (property 3) is implemented once here and reused
by every load handler; the general rule - rotate the aligned read right
by (addr&width-mask)*8 bits - is the authoritative contract. The seed
scenario S2 in spec section 8 illustrates the same mechanism with a
worked numeric example; see cpu_main_load_test.go for why this
implementation asserts the value the stated rotate rule actually
produces rather than S2's figure (DESIGN.md records the discrepancy).
*/

package main

func rotr32(x uint32, n uint) uint32 {
	n %= 32
	if n == 0 {
		return x
	}
	return (x >> n) | (x << (32 - n))
}

func rotr16(x uint16, n uint) uint16 {
	n %= 16
	if n == 0 {
		return x
	}
	return (x >> n) | (x << (16 - n))
}

func (c *CPU) readMem32Rotated(addr uint32) uint32 {
	v := c.bus.Read32(addr &^ 3)
	return rotr32(v, uint(addr&3)*8)
}

func (c *CPU) readMem16Rotated(addr uint32) uint16 {
	v := c.bus.Read16(addr &^ 1)
	return rotr16(v, uint(addr&1)*8)
}

// --- data movement -------------------------------------------------------

func handleNOP(c *CPU, op uint16) {}

func handleMOVImm(c *CPU, op uint16) {
	c.SetR(fieldN(op), uint32(simm8(op)))
}

func handleMOVRR(c *CPU, op uint16) {
	c.SetR(fieldN(op), c.GetR(fieldM(op)))
}

func handleMOVLStore(c *CPU, op uint16) {
	c.bus.Write32(c.GetR(fieldN(op)), c.GetR(fieldM(op)))
}

func handleMOVLLoad(c *CPU, op uint16) {
	c.SetR(fieldN(op), c.readMem32Rotated(c.GetR(fieldM(op))))
}

func handleMOVLIndexedLoad(c *CPU, op uint16) {
	addr := c.GetR(0) + c.GetR(fieldM(op))
	c.SetR(fieldN(op), c.readMem32Rotated(addr))
}

func handleMOVLIndexedStore(c *CPU, op uint16) {
	addr := c.GetR(0) + c.GetR(fieldN(op))
	c.bus.Write32(addr, c.GetR(fieldM(op)))
}

// --- byte/word moves -------------------------------------------------------
//
// MOV.B and MOV.W loads sign-extend into the full 32-bit register; MOV.W
// loads go through readMem16Rotated so an odd-aligned word still picks up
// property 3's rotation contract before the sign-extend narrows it back
// to 16 bits.

func handleMOVBStore(c *CPU, op uint16) {
	c.bus.Write8(c.GetR(fieldN(op)), uint8(c.GetR(fieldM(op))))
}

func handleMOVWStore(c *CPU, op uint16) {
	c.bus.Write16(c.GetR(fieldN(op)), uint16(c.GetR(fieldM(op))))
}

func handleMOVBLoad(c *CPU, op uint16) {
	v := c.bus.Read8(c.GetR(fieldM(op)))
	c.SetR(fieldN(op), uint32(int32(int8(v))))
}

func handleMOVWLoad(c *CPU, op uint16) {
	v := c.readMem16Rotated(c.GetR(fieldM(op)))
	c.SetR(fieldN(op), uint32(int32(int16(v))))
}

func handleMOVBIndexedStore(c *CPU, op uint16) {
	addr := c.GetR(0) + c.GetR(fieldN(op))
	c.bus.Write8(addr, uint8(c.GetR(fieldM(op))))
}

func handleMOVWIndexedStore(c *CPU, op uint16) {
	addr := c.GetR(0) + c.GetR(fieldN(op))
	c.bus.Write16(addr, uint16(c.GetR(fieldM(op))))
}

func handleMOVBIndexedLoad(c *CPU, op uint16) {
	addr := c.GetR(0) + c.GetR(fieldM(op))
	v := c.bus.Read8(addr)
	c.SetR(fieldN(op), uint32(int32(int8(v))))
}

func handleMOVWIndexedLoad(c *CPU, op uint16) {
	addr := c.GetR(0) + c.GetR(fieldM(op))
	v := c.readMem16Rotated(addr)
	c.SetR(fieldN(op), uint32(int32(int16(v))))
}

// pcLiteralBase is the PC value the PC-relative literal-pool forms
// (MOV.W/MOV.L @(disp,PC),Rn and MOVA) compute their address from: the
// current instruction's address, 4-byte aligned, plus 4 (the
// architectural two-stage lookahead, section 3's PC description).
func pcLiteralBase(c *CPU) uint32 { return (c.pc &^ 3) + 4 }

// handleMOVWLitPool loads a sign-extended 16-bit literal at
// pcLiteralBase+disp*2, where disp is the unsigned 8-bit low byte.
func handleMOVWLitPool(c *CPU, op uint16) {
	addr := pcLiteralBase(c) + imm8(op)*2
	v := c.readMem16Rotated(addr)
	c.SetR(fieldN(op), uint32(int32(int16(v))))
}

// handleMOVLLitPool loads a 32-bit literal at pcLiteralBase+disp*4.
func handleMOVLLitPool(c *CPU, op uint16) {
	addr := pcLiteralBase(c) + imm8(op)*4
	c.SetR(fieldN(op), c.readMem32Rotated(addr))
}

// handleMOVA computes pcLiteralBase+disp*4 into R0 without touching
// memory, for addresses (rather than values) staged in the literal pool.
func handleMOVA(c *CPU, op uint16) {
	c.SetR(0, pcLiteralBase(c)+imm8(op)*4)
}

// --- arithmetic/logic -----------------------------------------------------

func handleADDImm(c *CPU, op uint16) {
	n := fieldN(op)
	c.SetR(n, c.GetR(n)+uint32(simm8(op)))
}

func handleADDRR(c *CPU, op uint16) {
	n := fieldN(op)
	c.SetR(n, c.GetR(n)+c.GetR(fieldM(op)))
}

func handleSUBRR(c *CPU, op uint16) {
	n := fieldN(op)
	c.SetR(n, c.GetR(n)-c.GetR(fieldM(op)))
}

func handleANDRR(c *CPU, op uint16) {
	n := fieldN(op)
	c.SetR(n, c.GetR(n)&c.GetR(fieldM(op)))
}

func handleORRR(c *CPU, op uint16) {
	n := fieldN(op)
	c.SetR(n, c.GetR(n)|c.GetR(fieldM(op)))
}

func handleXORRR(c *CPU, op uint16) {
	n := fieldN(op)
	c.SetR(n, c.GetR(n)^c.GetR(fieldM(op)))
}

func handleCMPEQRR(c *CPU, op uint16) {
	c.setTFlag(c.GetR(fieldN(op)) == c.GetR(fieldM(op)))
}

func handleCMPEQImm(c *CPU, op uint16) {
	c.setTFlag(c.GetR(0) == uint32(simm8(op)))
}

func handleTSTRR(c *CPU, op uint16) {
	c.setTFlag(c.GetR(fieldN(op))&c.GetR(fieldM(op)) == 0)
}

func handleSHLL(c *CPU, op uint16) {
	n := fieldN(op)
	v := c.GetR(n)
	c.setTFlag(v&0x80000000 != 0)
	c.SetR(n, v<<1)
}

func handleSHLR(c *CPU, op uint16) {
	n := fieldN(op)
	v := c.GetR(n)
	c.setTFlag(v&1 != 0)
	c.SetR(n, v>>1)
}

// SHLL2/8/16 and SHLR2/8/16 are fixed-amount shifts that, unlike their
// by-one counterparts above, leave T untouched.
func handleSHLL2(c *CPU, op uint16)  { n := fieldN(op); c.SetR(n, c.GetR(n)<<2) }
func handleSHLL8(c *CPU, op uint16)  { n := fieldN(op); c.SetR(n, c.GetR(n)<<8) }
func handleSHLL16(c *CPU, op uint16) { n := fieldN(op); c.SetR(n, c.GetR(n)<<16) }
func handleSHLR2(c *CPU, op uint16)  { n := fieldN(op); c.SetR(n, c.GetR(n)>>2) }
func handleSHLR8(c *CPU, op uint16)  { n := fieldN(op); c.SetR(n, c.GetR(n)>>8) }
func handleSHLR16(c *CPU, op uint16) { n := fieldN(op); c.SetR(n, c.GetR(n)>>16) }

// --- extend ------------------------------------------------------------

func handleEXTSB(c *CPU, op uint16) { c.SetR(fieldN(op), uint32(int32(int8(c.GetR(fieldM(op)))))) }
func handleEXTSW(c *CPU, op uint16) { c.SetR(fieldN(op), uint32(int32(int16(c.GetR(fieldM(op)))))) }
func handleEXTUB(c *CPU, op uint16) { c.SetR(fieldN(op), uint32(uint8(c.GetR(fieldM(op))))) }
func handleEXTUW(c *CPU, op uint16) { c.SetR(fieldN(op), uint32(uint16(c.GetR(fieldM(op))))) }

// --- multiply ------------------------------------------------------------
//
// All five forms stage their result in MACH/MACL rather than a general
// register, per the architecture's MAC-register multiply contract
// (section 3 names MACH/MACL as system registers for exactly this).

func handleMULL(c *CPU, op uint16) {
	c.ctl.macl = c.GetR(fieldN(op)) * c.GetR(fieldM(op))
}

func handleMULUW(c *CPU, op uint16) {
	c.ctl.macl = uint32(uint16(c.GetR(fieldN(op)))) * uint32(uint16(c.GetR(fieldM(op))))
}

func handleMULSW(c *CPU, op uint16) {
	c.ctl.macl = uint32(int32(int16(c.GetR(fieldN(op)))) * int32(int16(c.GetR(fieldM(op)))))
}

func handleDMULU(c *CPU, op uint16) {
	prod := uint64(c.GetR(fieldN(op))) * uint64(c.GetR(fieldM(op)))
	c.ctl.mach = uint32(prod >> 32)
	c.ctl.macl = uint32(prod)
}

func handleDMULS(c *CPU, op uint16) {
	prod := uint64(int64(int32(c.GetR(fieldN(op)))) * int64(int32(c.GetR(fieldM(op)))))
	c.ctl.mach = uint32(prod >> 32)
	c.ctl.macl = uint32(prod)
}

// --- divide step ---------------------------------------------------------
//
// DIV0U/DIV0S prime the Q/M/T flags for a 32-bit-by-32-bit division;
// DIV1 performs one bit of the non-restoring division algorithm and must
// be issued 32 times in a row by the guest to complete a division, per
// the architecture (this interpreter does not shortcut the loop - each
// DIV1 opcode is one instruction, one call to this handler).

func handleDIV0U(c *CPU, _ uint16) {
	c.setQFlag(false)
	c.setMFlag(false)
	c.setTFlag(false)
}

func handleDIV0S(c *CPU, op uint16) {
	q := int32(c.GetR(fieldN(op))) < 0
	m := int32(c.GetR(fieldM(op))) < 0
	c.setQFlag(q)
	c.setMFlag(m)
	c.setTFlag(q != m)
}

func handleDIV1(c *CPU, op uint16) {
	n := fieldN(op)
	rn := c.GetR(n)
	rm := c.GetR(fieldM(op))

	oldQ := c.qFlag()
	m := c.mFlag()
	qTop := rn&0x80000000 != 0
	rn = rn<<1 | boolToU32(c.tFlag())

	var borrowed bool
	if oldQ == m {
		before := rn
		rn -= rm
		borrowed = rn > before
	} else {
		before := rn
		rn += rm
		borrowed = rn < before
	}
	// New Q folds in M as well as the shifted-out top bit and the
	// add/subtract overflow, per the architecture's non-restoring
	// division step.
	newQ := (qTop != borrowed) != m

	c.setQFlag(newQ)
	c.setTFlag(newQ == m)
	c.SetR(n, rn)
}

func boolToU32(v bool) uint32 {
	if v {
		return 1
	}
	return 0
}

// --- branches --------------------------------------------------------------

func handleBRA(c *CPU, op uint16) {
	target := uint32(int32(c.pc+4) + disp12(op))
	c.executeDelaySlot()
	c.pc = target
}

func handleBSR(c *CPU, op uint16) {
	target := uint32(int32(c.pc+4) + disp12(op))
	c.ctl.pr = c.pc + 4
	c.executeDelaySlot()
	c.pc = target
}

func handleJMP(c *CPU, op uint16) {
	target := c.GetR(fieldN(op))
	c.executeDelaySlot()
	c.pc = target
}

func handleJSR(c *CPU, op uint16) {
	target := c.GetR(fieldN(op))
	c.ctl.pr = c.pc + 4
	c.executeDelaySlot()
	c.pc = target
}

func handleRTS(c *CPU, op uint16) {
	target := c.ctl.pr
	c.executeDelaySlot()
	c.pc = target
}

func handleBF(c *CPU, op uint16) {
	if !c.tFlag() {
		c.pc = uint32(int32(c.pc+4) + disp8(op))
	}
}

func handleBT(c *CPU, op uint16) {
	if c.tFlag() {
		c.pc = uint32(int32(c.pc+4) + disp8(op))
	}
}

func handleBFS(c *CPU, op uint16) {
	if !c.tFlag() {
		target := uint32(int32(c.pc+4) + disp8(op))
		c.executeDelaySlot()
		c.pc = target
		return
	}
	c.pc += 2
}

func handleBTS(c *CPU, op uint16) {
	if c.tFlag() {
		target := uint32(int32(c.pc+4) + disp8(op))
		c.executeDelaySlot()
		c.pc = target
		return
	}
	c.pc += 2
}

func handleTRAPA(c *CPU, op uint16) {
	c.enterException(0x160 + imm8(op)*4)
}

// --- control register moves -------------------------------------------------

func handleLDCSR(c *CPU, op uint16) { c.SetSR(c.GetR(fieldN(op))) }
func handleSTCSR(c *CPU, op uint16) { c.SetR(fieldN(op), c.ctl.sr) }

func handleLDCVBR(c *CPU, op uint16) { c.ctl.vbr = c.GetR(fieldN(op)) }
func handleSTCVBR(c *CPU, op uint16) { c.SetR(fieldN(op), c.ctl.vbr) }

func handleLDCGBR(c *CPU, op uint16) { c.ctl.gbr = c.GetR(fieldN(op)) }
func handleSTCGBR(c *CPU, op uint16) { c.SetR(fieldN(op), c.ctl.gbr) }

func handleSTSPR(c *CPU, op uint16) { c.SetR(fieldN(op), c.ctl.pr) }
func handleLDSPR(c *CPU, op uint16) { c.ctl.pr = c.GetR(fieldN(op)) }

func handleLDSFPUL(c *CPU, op uint16) { c.fp.fpul = c.GetR(fieldN(op)) }
func handleSTSFPUL(c *CPU, op uint16) { c.SetR(fieldN(op), c.fp.fpul) }

func handleLDSFPSCR(c *CPU, op uint16) { c.fp.fpscr = c.GetR(fieldN(op)) }
func handleSTSFPSCR(c *CPU, op uint16) { c.SetR(fieldN(op), c.fp.fpscr) }

func handlePREF(c *CPU, op uint16) {
	addr := c.GetR(fieldN(op))
	if addr < 0xE0000000 || addr > 0xE3FFFFFF {
		return // PREF outside the store-queue window is a plain cache hint, no-op here
	}
	qacr := c.bus.QACR(int((addr >> 5) & 1))
	base := FlushBase(addr, qacr)
	_, words := c.bus.sq.Flush(addr)
	for i, w := range words {
		c.bus.Write32(base+uint32(i)*4, w)
	}
}
