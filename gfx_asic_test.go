package main

import "testing"

// newTestGFX wires a GraphicsASIC the same way newTestBus in
// dma_engines_test.go does, without the rest of the bus.
func newTestGFX() (*GraphicsASIC, *Scheduler) {
	sched := NewScheduler()
	intc := NewInterruptController(sched)
	gfx := NewGraphicsASIC(intc, sched)
	return gfx, sched
}

// TestVideoTimingIsFreeRunning covers the video timing generator's
// defining property: scanline/VBlank events fire off the scheduler's
// cycle clock alone, with no display list ever submitted.
func TestVideoTimingIsFreeRunning(t *testing.T) {
	gfx, sched := newTestGFX()
	gfx.StartVideoTiming()

	sawVBlank := false
	for i := 0; i < vblankStartLine+1; i++ {
		sched.AddCycles(cyclesPerScanline)
		for {
			entry, ok := sched.Tick()
			if !ok {
				break
			}
			switch entry.Event.Sub {
			case SubVideoScanline:
				gfx.OnScanline()
			case SubVBlank:
				sawVBlank = true
			}
		}
	}

	if !sawVBlank {
		t.Fatalf("no VBlank event after %d scanlines, want one at line %d", vblankStartLine, vblankStartLine)
	}
}

// TestVideoTimingWrapsPerFrame checks the scanline counter wraps at
// scanlinesPerFrame rather than growing without bound.
func TestVideoTimingWrapsPerFrame(t *testing.T) {
	gfx, sched := newTestGFX()
	gfx.StartVideoTiming()

	for i := 0; i < scanlinesPerFrame; i++ {
		sched.AddCycles(cyclesPerScanline)
		for {
			entry, ok := sched.Tick()
			if !ok {
				break
			}
			if entry.Event.Sub == SubVideoScanline {
				gfx.OnScanline()
			}
		}
	}

	if gfx.scanline != 0 {
		t.Fatalf("scanline after a full frame = %d, want 0 (wrapped)", gfx.scanline)
	}
}

// TestEndOfListDoesNotRaiseVBlank covers the review fix: display-list
// completion posts its normal-interrupt bit but must never itself
// schedule VBlank - that is the free-running timing generator's job
// alone, not an artifact of when a list happens to finish.
func TestEndOfListDoesNotRaiseVBlank(t *testing.T) {
	gfx, sched := newTestGFX()

	gfx.WriteReg32(regListInit, 1)
	pcw := uint32(PacketEndOfList) << 29
	pcw |= uint32(ListOpaque) << 26
	gfx.IngestWord(pcw)

	for {
		entry, ok := sched.Tick()
		if !ok {
			break
		}
		if entry.Event.Sub == SubVBlank {
			t.Fatalf("EndOfList scheduled a VBlank event; video timing must be free-running")
		}
	}
}
