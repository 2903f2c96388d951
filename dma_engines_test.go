package main

import "testing"

// newTestBus wires a minimal machine (no front-ends) for exercising the
// bus/DMA layer directly, mirroring the setup scheduler_test.go and
// interrupt_test.go use.
func newTestBus() (*MachineBus, *InterruptController) {
	sched := NewScheduler()
	intc := NewInterruptController(sched)
	timer := NewTimerUnit(intc)
	gfx := NewGraphicsASIC(intc, sched)
	drive := NewDriveController(intc, sched)
	wave := NewAudioWaveRAM(nil)
	bus := NewMachineBus(gfx, drive, wave, timer, intc, sched)
	return bus, intc
}

// TestDMALengthForPattern covers every endpoint section 6 documents for
// the controller-port frame header's length-pattern selector.
func TestDMALengthForPattern(t *testing.T) {
	cases := []struct {
		pattern uint32
		want    int
	}{
		{0x00, 4},
		{0x01, 8},
		{0x02, 12},
		{0xfe, 1020},
		{0xff, 1024},
	}
	for _, c := range cases {
		if got := dmaLengthForPattern(c.pattern); got != c.want {
			t.Errorf("dmaLengthForPattern(0x%02x) = %d, want %d", c.pattern, got, c.want)
		}
	}
}

// TestRunMapleSingleFrame covers the controller-port DMA frame format
// (section 6): a single header with bit 31 set (last-in-chain), an 8-bit
// length-pattern of 0 (4 bytes), a receive pointer and one word of inline
// data. RunMaple must copy that word to the receive pointer and raise the
// maple-DMA-complete normal-interrupt bit.
func TestRunMapleSingleFrame(t *testing.T) {
	bus, intc := newTestBus()
	d := NewDMAEngines(bus, intc)

	const headerAddr = 0x0C001000
	const recvPtr = 0x0C002000
	const frameAddr = headerAddr + 8

	header := uint32(1 << 31) // last=true, pattern=0 -> 4 bytes
	bus.Write32(headerAddr, header)
	bus.Write32(headerAddr+4, recvPtr)
	bus.Write32(frameAddr, 0xCAFEBABE)

	d.SetMapleBase(headerAddr)
	d.RunMaple()

	if got := bus.Read32(recvPtr); got != 0xCAFEBABE {
		t.Fatalf("recvPtr = %08x, want CAFEBABE", got)
	}
	if intc.pendingNormal&(1<<12) == 0 {
		t.Fatalf("expected maple-DMA-complete bit set in pendingNormal, got %08x", intc.pendingNormal)
	}
}

// TestRunMapleLengthPatternEndpoint exercises the 0xff endpoint (1024
// bytes / 256 words) that a 3-bit pattern field could never reach, the
// bug fixed alongside this test.
func TestRunMapleLengthPatternEndpoint(t *testing.T) {
	bus, intc := newTestBus()
	d := NewDMAEngines(bus, intc)

	const headerAddr = 0x0C010000
	const recvPtr = 0x0C020000
	const frameAddr = headerAddr + 8

	header := uint32(1<<31) | (0xff << 8) // last=true, pattern=0xff -> 1024 bytes
	bus.Write32(headerAddr, header)
	bus.Write32(headerAddr+4, recvPtr)
	for i := uint32(0); i < 1024; i += 4 {
		bus.Write32(frameAddr+i, 0x10101010+i)
	}

	d.SetMapleBase(headerAddr)
	d.RunMaple()

	for i := uint32(0); i < 1024; i += 4 {
		want := uint32(0x10101010 + i)
		if got := bus.Read32(recvPtr + i); got != want {
			t.Fatalf("recvPtr+%d = %08x, want %08x", i, got, want)
		}
	}
}

// TestRunCh2 covers the general-purpose RAM-to-external DMA channel.
func TestRunCh2(t *testing.T) {
	bus, intc := newTestBus()
	d := NewDMAEngines(bus, intc)

	const src = 0x0C030000
	const dst = 0x0C040000
	bus.Write32(src, 0xDEADBEEF)
	bus.Write32(src+4, 0x01234567)

	d.SetCh2(src, dst, 8)
	d.RunCh2()

	if got := bus.Read32(dst); got != 0xDEADBEEF {
		t.Fatalf("dst = %08x, want DEADBEEF", got)
	}
	if got := bus.Read32(dst + 4); got != 0x01234567 {
		t.Fatalf("dst+4 = %08x, want 01234567", got)
	}
	if intc.pendingNormal&(1<<13) == 0 {
		t.Fatalf("expected ch2-DMA-complete bit set in pendingNormal, got %08x", intc.pendingNormal)
	}
}
