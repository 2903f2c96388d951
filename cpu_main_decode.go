// cpu_main_decode.go - declarative opcode table and LUT build (C5)

/*
cpu_main_decode.go - Decode Table

Builds the flat 65536-entry opcode lookup table at package init time from
a declarative list of (bits, mask, mnemonic, handler) tuples, exactly as
spec section 4.3 and the design note in section 9 describe: a raw 16-bit
opcode indexes straight into the table with no further branching. Patterns
are tried in list order and the first one whose (opcode & mask == bits)
wins; an opcode slot, once assigned, is never overwritten by a later,
broader pattern, which is how more specific encodings (full 16-bit
literals such as RTS or FSCHG) safely coexist with wildcard-field
encodings that would otherwise also match them. Every opcode the table
never assigns keeps the "unk" default and logs+continues per spec
section 7.
*/

package main

import "log"

type opHandler func(c *CPU, op uint16)

type decodeEntry struct {
	mnemonic string
	handler  opHandler
	setsPC   bool
}

type opcodePattern struct {
	bits, mask uint16
	mnemonic   string
	handler    opHandler
	setsPC     bool
}

var mainDecodeTable [65536]decodeEntry

func init() {
	buildMainDecodeTable(mainOpcodePatterns())
}

func buildMainDecodeTable(patterns []opcodePattern) {
	assertPatternsDisjoint(patterns)

	for i := range mainDecodeTable {
		mainDecodeTable[i] = decodeEntry{mnemonic: "unk", handler: handleUnknown}
	}
	assigned := make([]bool, 65536)
	for _, p := range patterns {
		for v := 0; v < 65536; v++ {
			if uint16(v)&p.mask != p.bits {
				continue
			}
			if assigned[v] {
				continue // an earlier, more specific pattern already claimed this opcode
			}
			assigned[v] = true
			mainDecodeTable[v] = decodeEntry{mnemonic: p.mnemonic, handler: p.handler, setsPC: p.setsPC}
		}
	}
}

// patternContains reports whether sub's match set is entirely contained
// within super's: every bit super's mask fixes is also fixed by sub's
// mask, and sub agrees with super's required bits there. This is the
// "full 16-bit literal nested inside a wildcard-field encoding"
// relationship section 9's design note calls out (e.g. FSCHG/FRCHG's
// exact opcodes both sit inside FIPR's register-wildcard range).
func patternContains(sub, super opcodePattern) bool {
	return sub.mask&super.mask == super.mask && sub.bits&super.mask == super.bits
}

// assertPatternsDisjoint is the build-step non-overlap check section 9's
// design note requires: "two patterns must never match the same opcode
// after masking; the build step must assert non-overlap for opcodes
// encountered in practice." Two patterns are allowed to share opcodes
// only when one's match set is a strict specialization of the other's
// (a narrower, more specific pattern listed first so buildMainDecodeTable's
// first-match-wins assignment gives it priority) - anything else sharing
// an opcode is an unresolved ambiguity and panics immediately rather than
// silently letting list order pick a winner, the failure mode that once
// mis-assigned MOV.L Rm,@(R0,Rn) onto MUL.L's real encoding.
func assertPatternsDisjoint(patterns []opcodePattern) {
	for i := 0; i < len(patterns); i++ {
		for j := i + 1; j < len(patterns); j++ {
			a, b := patterns[i], patterns[j]
			if (a.bits^b.bits)&a.mask&b.mask != 0 {
				continue // masked bits disagree: no opcode can satisfy both
			}
			aInB := patternContains(a, b)
			bInA := patternContains(b, a)
			switch {
			case aInB && !bInA:
				// a (listed first) is the narrower pattern: correct order.
			case bInA && !aInB:
				log.Panicf("cpu_main_decode: %q (mask %04x) is broader than %q (mask %04x) but is listed first, so it would shadow it; list %q before %q", a.mnemonic, a.mask, b.mnemonic, b.mask, b.mnemonic, a.mnemonic)
			default:
				log.Panicf("cpu_main_decode: %q (bits %04x mask %04x) and %q (bits %04x mask %04x) overlap ambiguously", a.mnemonic, a.bits, a.mask, b.mnemonic, b.bits, b.mask)
			}
		}
	}
}

// --- field extraction helpers ------------------------------------------

func fieldN(op uint16) int { return int((op >> 8) & 0xF) }
func fieldM(op uint16) int { return int((op >> 4) & 0xF) }
func imm8(op uint16) uint32 { return uint32(op & 0xFF) }

func simm8(op uint16) int32 { return int32(int8(op & 0xFF)) }

// disp8 decodes an 8-bit signed branch displacement, scaled by 2; the
// branch handlers add it to PC+4 (two instructions ahead of the branch).
func disp8(op uint16) int32 { return int32(int8(op&0xFF)) * 2 }

// disp12 decodes a 12-bit signed branch displacement, scaled by 2.
func disp12(op uint16) int32 {
	raw := op & 0xFFF
	v := int32(raw)
	if raw&0x800 != 0 {
		v -= 0x1000
	}
	return v * 2
}

func handleUnknown(c *CPU, op uint16) {
	log.Printf("main cpu: unknown opcode %04x at pc=%08x", op, c.pc)
}

// mainOpcodePatterns returns the declarative instruction list. Full
// 16-bit literals and other highly specific masks are listed first so
// they claim their opcode slot before broader wildcard patterns are
// considered, per the "first match wins" policy in buildMainDecodeTable.
func mainOpcodePatterns() []opcodePattern {
	return []opcodePattern{
		// --- fully specified opcodes -----------------------------------
		{0x0009, 0xFFFF, "NOP", handleNOP, false},
		{0x000B, 0xFFFF, "RTS", handleRTS, true},
		{0x002B, 0xFFFF, "RTE", handleRTE, true},
		{0xF3FD, 0xFFFF, "FSCHG", handleFSCHG, false},
		{0xFBFD, 0xFFFF, "FRCHG", handleFRCHG, false},
		{0x0019, 0xFFFF, "DIV0U", handleDIV0U, false},

		// --- register-only wildcards (mask 0xF0FF) ---------------------
		{0x402B, 0xF0FF, "JMP", handleJMP, true},
		{0x400B, 0xF0FF, "JSR", handleJSR, true},
		{0x400E, 0xF0FF, "LDC Rm,SR", handleLDCSR, false},
		{0x0002, 0xF0FF, "STC SR,Rn", handleSTCSR, false},
		{0x402E, 0xF0FF, "LDC Rm,VBR", handleLDCVBR, false},
		{0x0022, 0xF0FF, "STC VBR,Rn", handleSTCVBR, false},
		{0x401E, 0xF0FF, "LDC Rm,GBR", handleLDCGBR, false},
		{0x0012, 0xF0FF, "STC GBR,Rn", handleSTCGBR, false},
		{0x002A, 0xF0FF, "STS PR,Rn", handleSTSPR, false},
		{0x402A, 0xF0FF, "LDS Rm,PR", handleLDSPR, false},
		{0x405A, 0xF0FF, "LDS Rm,FPUL", handleLDSFPUL, false},
		{0x005A, 0xF0FF, "STS FPUL,Rn", handleSTSFPUL, false},
		{0x406A, 0xF0FF, "LDS Rm,FPSCR", handleLDSFPSCR, false},
		{0x006A, 0xF0FF, "STS FPSCR,Rn", handleSTSFPSCR, false},
		{0x0083, 0xF0FF, "PREF @Rn", handlePREF, false},
		{0x4000, 0xF0FF, "SHLL Rn", handleSHLL, false},
		{0x4001, 0xF0FF, "SHLR Rn", handleSHLR, false},
		{0x4008, 0xF0FF, "SHLL2 Rn", handleSHLL2, false},
		{0x4018, 0xF0FF, "SHLL8 Rn", handleSHLL8, false},
		{0x4028, 0xF0FF, "SHLL16 Rn", handleSHLL16, false},
		{0x4009, 0xF0FF, "SHLR2 Rn", handleSHLR2, false},
		{0x4019, 0xF0FF, "SHLR8 Rn", handleSHLR8, false},
		{0x4029, 0xF0FF, "SHLR16 Rn", handleSHLR16, false},
		{0xF04D, 0xF0FF, "FNEG FRn", handleFNEG, false},
		{0xF05D, 0xF0FF, "FABS FRn", handleFABS, false},
		{0xF06D, 0xF0FF, "FSQRT FRn", handleFSQRT, false},
		{0xF07D, 0xF0FF, "FSRRA FRn", handleFSRRA, false},
		{0xF08D, 0xF0FF, "FLDI0 FRn", handleFLDI0, false},
		{0xF09D, 0xF0FF, "FLDI1 FRn", handleFLDI1, false},
		{0xF02D, 0xF0FF, "FLOAT FPUL,FRn", handleFLOAT, false},
		{0xF03D, 0xF0FF, "FTRC FRn,FPUL", handleFTRC, false},
		{0xF0FD, 0xF0FF, "FIPR FVm,FVn", handleFIPR, false},
		{0xF0FF, 0xF0FF, "FTRV XMTRX,FVn", handleFTRV, false},
		{0xF0CD, 0xF0FF, "FSCA FPUL,DRn", handleFSCA, false},

		// --- two-register wildcards (mask 0xF00F) -----------------------
		{0x6003, 0xF00F, "MOV Rm,Rn", handleMOVRR, false},
		{0x2000, 0xF00F, "MOV.B Rm,@Rn", handleMOVBStore, false},
		{0x2001, 0xF00F, "MOV.W Rm,@Rn", handleMOVWStore, false},
		{0x2002, 0xF00F, "MOV.L Rm,@Rn", handleMOVLStore, false},
		{0x6000, 0xF00F, "MOV.B @Rm,Rn", handleMOVBLoad, false},
		{0x6001, 0xF00F, "MOV.W @Rm,Rn", handleMOVWLoad, false},
		{0x6002, 0xF00F, "MOV.L @Rm,Rn", handleMOVLLoad, false},
		{0x0004, 0xF00F, "MOV.B Rm,@(R0,Rn)", handleMOVBIndexedStore, false},
		{0x0005, 0xF00F, "MOV.W Rm,@(R0,Rn)", handleMOVWIndexedStore, false},
		{0x0006, 0xF00F, "MOV.L Rm,@(R0,Rn)", handleMOVLIndexedStore, false},
		{0x000C, 0xF00F, "MOV.B @(R0,Rm),Rn", handleMOVBIndexedLoad, false},
		{0x000D, 0xF00F, "MOV.W @(R0,Rm),Rn", handleMOVWIndexedLoad, false},
		{0x000E, 0xF00F, "MOV.L @(R0,Rm),Rn", handleMOVLIndexedLoad, false},
		{0x0007, 0xF00F, "MUL.L Rm,Rn", handleMULL, false},
		{0x200E, 0xF00F, "MULU.W Rm,Rn", handleMULUW, false},
		{0x200F, 0xF00F, "MULS.W Rm,Rn", handleMULSW, false},
		{0x3005, 0xF00F, "DMULU.L Rm,Rn", handleDMULU, false},
		{0x300D, 0xF00F, "DMULS.L Rm,Rn", handleDMULS, false},
		{0x2007, 0xF00F, "DIV0S Rm,Rn", handleDIV0S, false},
		{0x3004, 0xF00F, "DIV1 Rm,Rn", handleDIV1, false},
		{0x600C, 0xF00F, "EXTU.B Rm,Rn", handleEXTUB, false},
		{0x600D, 0xF00F, "EXTU.W Rm,Rn", handleEXTUW, false},
		{0x600E, 0xF00F, "EXTS.B Rm,Rn", handleEXTSB, false},
		{0x600F, 0xF00F, "EXTS.W Rm,Rn", handleEXTSW, false},
		{0x300C, 0xF00F, "ADD Rm,Rn", handleADDRR, false},
		{0x3008, 0xF00F, "SUB Rm,Rn", handleSUBRR, false},
		{0x2009, 0xF00F, "AND Rm,Rn", handleANDRR, false},
		{0x200B, 0xF00F, "OR Rm,Rn", handleORRR, false},
		{0x200A, 0xF00F, "XOR Rm,Rn", handleXORRR, false},
		{0x3000, 0xF00F, "CMP/EQ Rm,Rn", handleCMPEQRR, false},
		{0x2008, 0xF00F, "TST Rm,Rn", handleTSTRR, false},
		{0xF000, 0xF00F, "FADD FRm,FRn", handleFADD, false},
		{0xF001, 0xF00F, "FSUB FRm,FRn", handleFSUB, false},
		{0xF002, 0xF00F, "FMUL FRm,FRn", handleFMUL, false},
		{0xF003, 0xF00F, "FDIV FRm,FRn", handleFDIV, false},
		{0xF004, 0xF00F, "FCMP/EQ FRm,FRn", handleFCMPEQ, false},
		{0xF005, 0xF00F, "FCMP/GT FRm,FRn", handleFCMPGT, false},
		{0xF00C, 0xF00F, "FMOV FRm,FRn", handleFMOVRR, false},
		{0xF008, 0xF00F, "FMOV.S @Rm,FRn", handleFMOVLoad, false},
		{0xF00A, 0xF00F, "FMOV.S FRm,@Rn", handleFMOVStore, false},

		// --- 8-bit immediate/displacement wildcards (mask 0xFF00) -------
		{0x8800, 0xFF00, "CMP/EQ #imm,R0", handleCMPEQImm, false},
		{0x8B00, 0xFF00, "BF disp", handleBF, false},
		{0x8900, 0xFF00, "BT disp", handleBT, false},
		{0x8F00, 0xFF00, "BF/S disp", handleBFS, true},
		{0x8D00, 0xFF00, "BT/S disp", handleBTS, true},
		{0xC300, 0xFF00, "TRAPA #imm", handleTRAPA, true},
		{0xC700, 0xFF00, "MOVA @(disp,PC),R0", handleMOVA, false},

		// --- 4-bit reg + 8-bit immediate wildcards (mask 0xF000) --------
		{0xE000, 0xF000, "MOV #imm,Rn", handleMOVImm, false},
		{0x9000, 0xF000, "MOV.W @(disp,PC),Rn", handleMOVWLitPool, false},
		{0xD000, 0xF000, "MOV.L @(disp,PC),Rn", handleMOVLLitPool, false},
		{0x7000, 0xF000, "ADD #imm,Rn", handleADDImm, false},
		{0xA000, 0xF000, "BRA disp", handleBRA, true},
		{0xB000, 0xF000, "BSR disp", handleBSR, true},
	}
}
