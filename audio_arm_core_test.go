package main

import "testing"

// newTestARM returns a gated-on audio CPU wired to a fresh wave-RAM
// block, ready to execute from address 0.
func newTestARM() *AudioARM {
	wave := NewAudioWaveRAM(nil)
	a := NewAudioARM(wave)
	a.SetGate(true)
	return a
}

// TestStepAdvancesPCWhenUntouched covers the ordinary case: an
// instruction that doesn't write r15 leaves Step's own +4 as the only
// source of PC advancement.
func TestStepAdvancesPCWhenUntouched(t *testing.T) {
	a := newTestARM()
	// MOV R0, #5 (AL condition, opcode MOV=0xD, S=0, Rd=0, imm operand).
	a.write32(0, 0xE3A00005)
	a.Step()
	if a.GetR(0) != 5 {
		t.Fatalf("R0=%d, want 5", a.GetR(0))
	}
	if a.pc() != 4 {
		t.Fatalf("pc=%#x, want 4", a.pc())
	}
}

// TestDataProcMovPCIsNotOvershot covers the "MOV PC,R14" subroutine
// return idiom (armExecDataProc writing rd=15): Step must not add a
// further 4 on top of the value the handler placed in r15.
func TestDataProcMovPCIsNotOvershot(t *testing.T) {
	a := newTestARM()
	a.SetR(14, 0x1000)
	// MOV R15, R14 (AL, MOV=0xD, S=0, Rd=15, Rm=14).
	a.write32(0, 0xE1A0F00E)
	a.Step()
	if a.pc() != 0x1000 {
		t.Fatalf("pc=%#x, want 0x1000 (overshot by Step's +4)", a.pc())
	}
}

// TestSingleXferLdrPCIsNotOvershot covers "LDR PC,[Rn]" (a common
// ARMv4 return/dispatch idiom via armExecSingleXfer).
func TestSingleXferLdrPCIsNotOvershot(t *testing.T) {
	a := newTestARM()
	a.SetR(0, 0x100)
	a.write32(0x100, 0x2000)
	// LDR R15, [R0] (cond=AL, L=1, Rn=0, Rd=15, imm offset=0, up, pre).
	a.write32(0, 0xE590F000)
	a.Step()
	if a.pc() != 0x2000 {
		t.Fatalf("pc=%#x, want 0x2000 (overshot by Step's +4)", a.pc())
	}
}

// TestBlockXferLdmPCIsNotOvershot covers the "LDM ...,{PC}" epilogue
// idiom (armExecBlockXfer loading register 15 out of the list).
func TestBlockXferLdmPCIsNotOvershot(t *testing.T) {
	a := newTestARM()
	a.SetR(13, 0x200)
	a.write32(0x200, 0x3000)
	// LDM R13, {R15} (cond=AL, P=0,U=1,S=0,W=0,L=1, Rn=13, list=bit15).
	a.write32(0, 0xE89D8000)
	a.Step()
	if a.pc() != 0x3000 {
		t.Fatalf("pc=%#x, want 0x3000 (overshot by Step's +4)", a.pc())
	}
}

// TestBranchTargetExact covers B's pc+8+offset pipeline-relative target:
// armExecBranch must land exactly there, with Step contributing nothing
// further since the handler already wrote r15.
func TestBranchTargetExact(t *testing.T) {
	a := newTestARM()
	// B #0 at address 0: target = pc+8+0 = 8.
	a.write32(0, 0xEA000000)
	a.Step()
	if a.pc() != 8 {
		t.Fatalf("pc=%#x, want 8", a.pc())
	}
}

// TestSWIVectorsExactly covers armExecSWI landing precisely on the SWI
// vector (0x08) with LR holding the return address, independent of
// Step's post-instruction PC advance.
func TestSWIVectorsExactly(t *testing.T) {
	a := newTestARM()
	// SWI #0 at address 0x40: LR should be 0x44, PC should be 0x08.
	a.r[15] = 0x40
	a.write32(0x40, 0xEF000000)
	a.Step()
	if a.pc() != 0x08 {
		t.Fatalf("pc=%#x, want 0x08", a.pc())
	}
	if a.GetR(14) != 0x44 {
		t.Fatalf("LR=%#x, want 0x44", a.GetR(14))
	}
}
