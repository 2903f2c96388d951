package main

import "testing"

// TestSchedulerFIFOAtTie covers property 5 and seed scenario S5: events
// scheduled for the same deadline come back out in insertion order, and
// an earlier deadline always precedes a later one regardless of
// insertion order.
func TestSchedulerFIFOAtTie(t *testing.T) {
	s := NewScheduler()

	a := Event{Sub: SubRTCTick, Mask: 1}
	b := Event{Sub: SubRTCTick, Mask: 2}
	c := Event{Sub: SubRTCTick, Mask: 3}

	s.Schedule(a, 10)
	s.Schedule(b, 10)
	s.Schedule(c, 5)

	s.AddCycles(10)

	want := []uint32{3, 1, 2} // C (d=5), then A, then B (insertion order at tie)
	for i, w := range want {
		e, ok := s.Tick()
		if !ok {
			t.Fatalf("tick %d: expected an event", i)
		}
		if e.Event.Mask != w {
			t.Fatalf("tick %d: got mask %d, want %d", i, e.Event.Mask, w)
		}
	}
	if _, ok := s.Tick(); ok {
		t.Fatalf("expected no more due events")
	}
}

func TestSchedulerNotDueYet(t *testing.T) {
	s := NewScheduler()
	s.Schedule(Event{Sub: SubRTCTick}, 100)
	s.AddCycles(50)
	if _, ok := s.Tick(); ok {
		t.Fatalf("event should not be due yet")
	}
	s.AddCycles(50)
	if _, ok := s.Tick(); !ok {
		t.Fatalf("event should now be due")
	}
}

// TestSchedulerReentrantScheduleWaitsForNextTick covers the re-entrancy
// rule in spec section 4.8: a handler that schedules a new event with a
// deadline already <= now must not see it served within the same Tick
// wave.
func TestSchedulerReentrantScheduleWaitsForNextTick(t *testing.T) {
	s := NewScheduler()
	s.Schedule(Event{Sub: SubFrameReady}, 0)
	s.AddCycles(5)

	entry, ok := s.Tick()
	if !ok {
		t.Fatalf("expected the first event to be due")
	}
	if entry.Event.Sub != SubFrameReady {
		t.Fatalf("unexpected event fired")
	}

	// Re-entrant schedule with deadline already in the past relative to
	// the current clock.
	s.ScheduleAt(Event{Sub: SubVBlank}, s.Now()-1)

	if _, ok := s.Tick(); !ok {
		t.Fatalf("expected the re-entrantly scheduled event on the next Tick call")
	}
	if _, ok := s.Tick(); ok {
		t.Fatalf("expected no further events")
	}
}

func TestSchedulerOverrunVisibleToHandler(t *testing.T) {
	s := NewScheduler()
	s.Schedule(Event{Sub: SubRTCTick}, 10)
	s.AddCycles(25)

	e, ok := s.Tick()
	if !ok {
		t.Fatalf("expected a due event")
	}
	overrun := e.Now - e.Start
	if overrun != 15 {
		t.Fatalf("expected overrun of 15, got %d", overrun)
	}
}
