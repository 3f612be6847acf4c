package camera

import "testing"

func TestPool_AcquireUntilExhausted(t *testing.T) {
	p := newPool(3)

	seen := make(map[int]bool)
	for i := 0; i < 3; i++ {
		slot, ok := p.acquire()
		if !ok {
			t.Fatalf("acquire %d failed with free slots remaining", i)
		}
		if seen[slot] {
			t.Fatalf("slot %d handed out twice", slot)
		}
		seen[slot] = true
	}

	if _, ok := p.acquire(); ok {
		t.Fatal("acquire succeeded with every slot leased")
	}
	if got := p.inFlight(); got != 3 {
		t.Errorf("inFlight = %d, want 3", got)
	}
}

func TestPool_ReleaseRecycles(t *testing.T) {
	p := newPool(1)

	slot, ok := p.acquire()
	if !ok {
		t.Fatal("acquire failed on fresh pool")
	}
	if !p.release(slot) {
		t.Fatal("release of leased slot reported false")
	}
	if got := p.inFlight(); got != 0 {
		t.Errorf("inFlight after release = %d, want 0", got)
	}
	if _, ok := p.acquire(); !ok {
		t.Fatal("acquire failed after release")
	}
}

func TestPool_ReleaseRejectsBadSlots(t *testing.T) {
	p := newPool(2)
	slot, _ := p.acquire()

	if p.release(-1) {
		t.Error("release(-1) reported true")
	}
	if p.release(2) {
		t.Error("release past end reported true")
	}

	other := 1 - slot
	if p.release(other) {
		t.Error("release of never-leased slot reported true")
	}

	if !p.release(slot) {
		t.Error("release of leased slot reported false")
	}
	if p.release(slot) {
		t.Error("second release of same slot reported true")
	}
}

func TestPool_MinimumOneSlot(t *testing.T) {
	p := newPool(0)
	if got := p.size(); got != 1 {
		t.Errorf("size = %d, want 1", got)
	}
}
