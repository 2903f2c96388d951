package main

import "testing"

// TestDelaySlotRunsBeforeBranchCommits covers property 2 and seed
// scenario S3: the instruction in a branch's delay slot must execute
// before the branch target's first instruction, even though both
// write the same register.
func TestDelaySlotRunsBeforeBranchCommits(t *testing.T) {
	c := newTestCPU()
	c.Reset()
	c.pc = 0x0C000000

	// BRA with a zero displacement: target = pc+4, i.e. immediately
	// after the delay slot.
	c.bus.Write16(0x0C000000, 0xA000)
	// Delay slot: MOV #5,R1
	c.bus.Write16(0x0C000002, 0xE105)
	// Branch target: MOV #9,R1
	c.bus.Write16(0x0C000004, 0xE109)

	c.Step()
	if got := c.GetR(1); got != 5 {
		t.Fatalf("after branch step: R1=%d, want 5 (delay slot must run first)", got)
	}
	if c.pc != 0x0C000004 {
		t.Fatalf("pc=%08x, want 0c000004 (branch target, not yet executed)", c.pc)
	}

	c.Step()
	if got := c.GetR(1); got != 9 {
		t.Fatalf("after target step: R1=%d, want 9", got)
	}
}

// TestBSRSavesReturnAddressBeforeDelaySlot covers BSR's PR save
// ordering: PR is computed from the branch instruction's own address,
// unaffected by whatever the delay slot does to other state.
func TestBSRSavesReturnAddressBeforeDelaySlot(t *testing.T) {
	c := newTestCPU()
	c.Reset()
	c.pc = 0x0C000000

	c.bus.Write16(0x0C000000, 0xB000) // BSR disp=0
	c.bus.Write16(0x0C000002, 0xE105) // delay slot: MOV #5,R1

	c.Step()
	if c.ctl.pr != 0x0C000004 {
		t.Fatalf("PR=%08x, want 0c000004", c.ctl.pr)
	}
	if got := c.GetR(1); got != 5 {
		t.Fatalf("R1=%d, want 5", got)
	}
}
