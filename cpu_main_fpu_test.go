package main

import "testing"

// TestFPUBankSwapRoundTrip covers property 8: FRCHG swaps which physical
// bank FR/XF resolve to; applying it twice is the identity, and a value
// written under one bank is visible as XF, not FR, once swapped.
func TestFPUBankSwapRoundTrip(t *testing.T) {
	c := newTestCPU()
	c.Reset()

	c.fp.SetFR(0, 1.5)
	handleFRCHG(c, 0)
	if got := c.fp.XF(0); got != 1.5 {
		t.Fatalf("after one FRCHG, XF(0) = %v, want 1.5 (old FR bank)", got)
	}

	c.fp.SetFR(0, 2.5) // writes the now-current (other physical) bank

	handleFRCHG(c, 0)
	handleFRCHG(c, 0)
	// Two FRCHGs is the identity: FR/XF resolve exactly as before either call.
	if got := c.fp.FR(0); got != 2.5 {
		t.Fatalf("FR(0) after FRCHG x2 = %v, want 2.5", got)
	}
	if got := c.fp.XF(0); got != 1.5 {
		t.Fatalf("XF(0) after FRCHG x2 = %v, want 1.5", got)
	}
}

// TestFSCHGPairTransferToggleIsInvolution covers the other half of
// property 8: FSCHG toggles FPSCR.SZ, and two in a row restore it.
func TestFSCHGPairTransferToggleIsInvolution(t *testing.T) {
	c := newTestCPU()
	c.Reset()

	before := c.fp.fpscr
	handleFSCHG(c, 0)
	if c.fp.fpscr == before {
		t.Fatalf("FSCHG did not change FPSCR")
	}
	handleFSCHG(c, 0)
	if c.fp.fpscr != before {
		t.Fatalf("FSCHG x2 did not restore FPSCR: got %#x, want %#x", c.fp.fpscr, before)
	}
}

// TestFPUDoublePrecisionPairTransfer exercises DR/SetDR, the paired FR
// register view FPSCR.SZ selects.
func TestFPUDoublePrecisionPairTransfer(t *testing.T) {
	c := newTestCPU()
	c.Reset()

	c.fp.SetFR(0, 1.0)
	c.fp.SetFR(1, 2.0)
	packed := c.fp.DR(0)

	c.fp.SetFR(0, 0)
	c.fp.SetFR(1, 0)
	c.fp.SetDR(0, packed)

	if got := c.fp.FR(0); got != 1.0 {
		t.Fatalf("FR(0) after DR round-trip = %v, want 1.0", got)
	}
	if got := c.fp.FR(1); got != 2.0 {
		t.Fatalf("FR(1) after DR round-trip = %v, want 2.0", got)
	}
}
