// loop.go - top-level emulator loop (C10)

/*
loop.go - Top-Level Loop

Drives the whole machine per spec section 4.9: each iteration spends a
TIMESLICE-cycle budget stepping the main CPU, the audio CPU and the timer
unit in lockstep, then refills the scheduler's clock by that same budget
and drains every event that came due, dispatching each to whichever
collaborator owns it. FrameReady and VBlank events both hand the
front-end the same VRAM snapshot (emitFrame). Section 5 only
allows two suspension points - the TIMESLICE boundary and the drain
between quanta - and this loop has exactly those two and no others.
*/

package main

import "log"

// TIMESLICE and CPURatio are the fixed quantum/ratio spec sections 4.3
// and 4.9 name; CPURatio already lives in cpu_main.go since both the main
// and audio cores spend it per instruction.
const TIMESLICE = 448

// FrameSnapshot is handed off to the front-end on a FrameReady event
// (spec section 4.9 step 4, section 5's snapshot-handoff boundary). It
// carries value/shared-ownership copies only; the core never lets a
// front-end read live VRAM under its own write lock.
type FrameSnapshot struct {
	VRAM    []byte
	Packets []DisplayListPacket
}

// FrontendRequest is a non-blocking control message the loop polls for
// once per TIMESLICE quantum (section 4.9 step 1): a controller-port
// input sample or a mount/load request.
type FrontendRequest struct {
	Kind string // "input", "mount", "reset"
	Path string
}

// Machine wires every component this core owns into one cooperative,
// single-threaded worker (section 5). The scheduler decouples long-range
// effects so no component holds a back-reference to another; Machine is
// the only place that holds all of them at once.
type Machine struct {
	cpu   *CPU
	arm   *AudioARM
	timer *TimerUnit
	intc  *InterruptController
	sched *Scheduler
	bus   *MachineBus
	gfx   *GraphicsASIC
	drive *DriveController
	wave  *AudioWaveRAM
	dma   *DMAEngines

	cycles uint64

	running bool

	// requests/frames are the only cross-task boundary (section 5): the
	// worker never blocks on either send.
	requests chan FrontendRequest
	frames   chan FrameSnapshot
}

// NewMachine constructs and wires every collaborator. The scheduler and
// interrupt controller are shared references handed to every component
// that needs to post events or raise interrupts; nothing here stores a
// reference back to Machine itself.
func NewMachine() *Machine {
	sched := NewScheduler()
	intc := NewInterruptController(sched)
	timer := NewTimerUnit(intc)
	gfx := NewGraphicsASIC(intc, sched)
	drive := NewDriveController(intc, sched)

	m := &Machine{
		sched: sched,
		intc:  intc,
		timer: timer,
		gfx:   gfx,
		drive: drive,
	}
	m.wave = NewAudioWaveRAM(m.onAudioGate)
	m.bus = NewMachineBus(gfx, drive, m.wave, timer, intc, sched)
	m.cpu = NewCPU(m.bus, intc)
	m.arm = NewAudioARM(m.wave)
	m.dma = NewDMAEngines(m.bus, intc)

	m.requests = make(chan FrontendRequest, 16)
	m.frames = make(chan FrameSnapshot, 1)
	gfx.StartVideoTiming()
	return m
}

// onAudioGate is the wave-RAM's gate-enable hook (spec section 4.4): it
// starts/stops the audio CPU without either component holding a direct
// reference to the other.
func (m *Machine) onAudioGate(enable bool) {
	m.arm.SetGate(enable)
}

// Requests returns the inbound, non-blocking frontend-request channel.
func (m *Machine) Requests() chan<- FrontendRequest { return m.requests }

// Frames returns the outbound snapshot channel; a dropped send is
// acceptable per section 5, so the channel is always drained with a
// select/default at the sending end, never a blocking send.
func (m *Machine) Frames() <-chan FrameSnapshot { return m.frames }

// Boot loads an ELF image and a (possibly nil) disc image, seeding the
// CPU's PC from the entry point.
func (m *Machine) Boot(elfPath string, img *DiscImage) error {
	if img != nil {
		m.drive.Mount(img)
	}
	if elfPath == "" {
		return nil
	}
	entry, err := LoadELF(elfPath, m.bus)
	if err != nil {
		return err
	}
	m.cpu.pc = entry
	return nil
}

// Run executes quanta until Stop is called. Each
// quantum is exactly the suspension-point pair section 5 allows.
func (m *Machine) Run() {
	m.running = true
	for m.running {
		m.runQuantum()
	}
}

// Stop requests the loop exit after its current quantum.
func (m *Machine) Stop() { m.running = false }

// runQuantum implements spec section 4.9's four numbered steps exactly
// once.
func (m *Machine) runQuantum() {
	budget := TIMESLICE

	// Step 1: interleave CPU/ARM/timer stepping until the budget is
	// spent, polling the frontend-request channel without blocking.
	for budget > 0 {
		m.cpu.Step()
		m.arm.Step()
		m.timer.Tick()
		budget -= CPURatio
		m.cycles += CPURatio

		select {
		case req := <-m.requests:
			m.handleRequest(req)
		default:
		}
	}

	// Step 2: refill the per-quantum interrupt-processing hook
	// independently of instruction fetch.
	m.cpu.ProcessInterrupts()

	// Step 3: advance the scheduler's clock and drain every event that
	// is now due, dispatching each to its owning collaborator.
	m.sched.AddCycles(uint64(TIMESLICE))
	for {
		entry, ok := m.sched.Tick()
		if !ok {
			break
		}
		m.dispatch(entry)
	}
}

// handleRequest applies one frontend-originated control message: "mount"
// loads and mounts a .gdi image, and "reset" resets the main CPU. An
// "input" request has no case here and is dropped.
func (m *Machine) handleRequest(req FrontendRequest) {
	switch req.Kind {
	case "mount":
		img, err := LoadGDI(req.Path)
		if err != nil {
			log.Printf("loop: mount failed: %v", err)
			return
		}
		m.drive.Mount(img)
	case "reset":
		m.cpu.Reset()
	}
}

// runDMA pulls the parameters the guest staged into the bus's DMA
// registers (machine_bus.go) and runs the matching transfer. The bus
// only ever schedules these events; it never calls into DMAEngines
// itself, so this is the one place the register values and the engine
// meet, kept inside the loop that already owns both (section 9).
func (m *Machine) runDMA(sub EventSubKind) {
	mapleBase, ch2Src, ch2Dst, ch2Len, driveDst, audioSrc, audioDst, audioLen := m.bus.DMARegsSnapshot()
	switch sub {
	case SubMapleDMA:
		m.dma.SetMapleBase(mapleBase)
		m.dma.RunMaple()
	case SubCh2DMA:
		m.dma.SetCh2(ch2Src, ch2Dst, ch2Len)
		m.dma.RunCh2()
	case SubDriveDMA:
		m.dma.SetDriveDst(driveDst)
		m.dma.RunDrive(m.drive)
	case SubAudioDMA:
		m.dma.SetAudio(audioSrc, audioDst, audioLen)
		m.dma.RunAudio()
	}
}

// dispatch routes one due scheduler entry to the collaborator that owns
// its sub-kind, per spec sections 4.8/4.9. Handlers receive the entry's
// start/now pair so an overrun (section 7) can be folded into the next
// reschedule if the handler cares.
func (m *Machine) dispatch(e Entry) {
	switch e.Event.Sub {
	case SubRaiseIRL:
		// The interrupt controller has already updated its own state by
		// the time it posted this event; nothing further to do here
		// beyond letting the next ProcessInterrupts/ maybeAcceptInterrupt
		// observe it.
	case SubRaiseNormalInterrupt:
		m.intc.RaiseNormal(e.Event.Mask)
	case SubRaiseExternalInterrupt:
		m.intc.RaiseExternal(e.Event.Mask)
	case SubLowerExternalInterrupt:
		m.intc.LowerExternal(e.Event.Mask)
	case SubRecalcInterrupts:
		m.intc.Recalc()
	case SubVideoScanline:
		m.gfx.OnScanline()
	case SubMapleDMA, SubCh2DMA, SubDriveDMA, SubAudioDMA:
		m.runDMA(e.Event.Sub)
	case SubRTCTick:
		m.bus.RTCTick()
	case SubFrameReady:
		m.emitFrame()
	case SubVBlank:
		m.emitFrame()
	case SubDriveController:
		// Drive-controller self-scheduled follow-up events (none of the
		// packet handlers in drive_controller.go currently reschedule
		// themselves); reserved for future packet types that need a
		// multi-tick completion delay.
	}
}

// emitFrame hands a snapshot to the front-end without blocking (section
// 5): a full channel simply drops the new frame, since the next one
// supersedes it.
func (m *Machine) emitFrame() {
	snap := FrameSnapshot{VRAM: m.gfx.Snapshot(), Packets: m.gfx.Packets()}
	select {
	case m.frames <- snap:
	default:
	}
}
