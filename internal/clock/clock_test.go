package clock

import (
	"sync"
	"testing"
	"time"
)

func TestRealTracksSystemClock(t *testing.T) {
	before := time.Now()
	got := Real{}.Now()
	after := time.Now()
	if got.Before(before) || got.After(after) {
		t.Fatalf("Real.Now() = %v outside [%v, %v]", got, before, after)
	}
}

func TestVirtual(t *testing.T) {
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	v := NewVirtual(start)

	if !v.Now().Equal(start) {
		t.Fatalf("frozen clock moved: %v", v.Now())
	}
	if !v.Now().Equal(start) {
		t.Fatal("repeated reads must not advance the clock")
	}

	v.Advance(90 * time.Second)
	if !v.Now().Equal(start.Add(90 * time.Second)) {
		t.Fatalf("after advance: %v", v.Now())
	}

	jump := start.Add(24 * time.Hour)
	v.Set(jump)
	if !v.Now().Equal(jump) {
		t.Fatalf("after set: %v", v.Now())
	}
}

func TestVirtualConcurrent(t *testing.T) {
	v := NewVirtual(time.Unix(0, 0))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				v.Advance(time.Millisecond)
				v.Now()
			}
		}()
	}
	wg.Wait()

	if got := v.Now(); !got.Equal(time.Unix(0, 0).Add(8 * time.Second)) {
		t.Fatalf("lost advances: %v", got)
	}
}
