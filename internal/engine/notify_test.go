package engine

import (
	"testing"
	"time"

	"tempo/internal/clock"
	"tempo/internal/store"
)

func recvChange(t *testing.T, ch <-chan Change) Change {
	t.Helper()
	select {
	case c, ok := <-ch:
		if !ok {
			t.Fatal("channel closed")
		}
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change")
	}
	return Change{}
}

// ============================================================
// Notifications
// ============================================================

func TestNotificationsInTransitionOrder(t *testing.T) {
	eng, _, clk := newTestEngine(t)
	ch := eng.Subscribe()

	id, _ := eng.Start("task")
	clk.Advance(time.Second)
	eng.Pause()
	eng.Resume()
	eng.Stop()

	want := []Status{StatusRunning, StatusPaused, StatusRunning, StatusIdle}
	for i, status := range want {
		c := recvChange(t, ch)
		if c.State.Status != status {
			t.Fatalf("change %d: status %v, want %v", i, c.State.Status, status)
		}
		if c.Entry == nil {
			t.Fatalf("change %d: nil entry snapshot", i)
		}
		if c.Entry.ID != id {
			t.Fatalf("change %d: entry %s, want %s", i, c.Entry.ID, id)
		}
	}

	// The stop notification carries the finalized entry.
	eng.Start("next")
	c := recvChange(t, ch)
	if c.State.Status != StatusRunning || c.Entry.Label != "next" {
		t.Fatalf("unexpected change after restart: %+v", c)
	}
}

func TestSwitchEmitsSingleNotification(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	ch := eng.Subscribe()

	eng.Start("first")
	recvChange(t, ch)

	second, _ := eng.Switch("second")
	c := recvChange(t, ch)
	if c.State.EntryID != second {
		t.Fatalf("switch notification carries %s, want %s", c.State.EntryID, second)
	}

	select {
	case extra := <-ch:
		t.Fatalf("unexpected extra notification: %+v", extra)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSlowSubscriberDoesNotBlockEngine(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	ch := eng.Subscribe() // never read until the end

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			eng.Start("task")
			eng.Stop()
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("engine blocked on an unread subscriber")
	}

	// All 200 transitions are still delivered, in order.
	for i := 0; i < 200; i++ {
		c := recvChange(t, ch)
		want := StatusRunning
		if i%2 == 1 {
			want = StatusIdle
		}
		if c.State.Status != want {
			t.Fatalf("change %d: status %v, want %v", i, c.State.Status, want)
		}
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	ch := eng.Subscribe()

	eng.Unsubscribe(ch)

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected closed channel, got a value")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after unsubscribe")
	}

	// Publishing after unsubscribe must not panic or block.
	if _, err := eng.Start("task"); err != nil {
		t.Fatal(err)
	}
}

func TestLateSubscriberMissesEarlierChanges(t *testing.T) {
	eng, _, _ := newTestEngine(t)

	eng.Start("first")
	eng.Stop()

	ch := eng.Subscribe()
	eng.Start("second")

	c := recvChange(t, ch)
	if c.Entry.Label != "second" {
		t.Fatalf("late subscriber saw %q, want %q", c.Entry.Label, "second")
	}
}

func TestNotificationEntryIsSnapshot(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	ch := eng.Subscribe()

	eng.Start("task")
	c := recvChange(t, ch)

	c.Entry.Label = "mutated"
	if eng.Current().Label != "task" {
		t.Error("subscriber mutation leaked into the engine")
	}
}

func TestRecoverNotifies(t *testing.T) {
	mem := store.NewMemory()
	mem.Append(&store.TimeEntry{ID: "e1", Label: "task", StartedAt: t0})

	eng := New(mem, clock.NewVirtual(t0.Add(time.Minute)))
	ch := eng.Subscribe()

	if err := eng.Recover(); err != nil {
		t.Fatal(err)
	}
	c := recvChange(t, ch)
	if c.State.Status != StatusRunning || c.Entry.ID != "e1" {
		t.Fatalf("unexpected recover notification: %+v", c)
	}
}
