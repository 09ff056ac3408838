package cache

import (
	"errors"
	"testing"
	"time"
)

func TestGetOrComputeReusesLiveEntry(t *testing.T) {
	store := NewStore[int]()

	calls := 0
	compute := func() (int, error) {
		calls++
		return 42, nil
	}

	v, cached, err := store.GetOrCompute("analysis:k=8", time.Minute, compute)
	if err != nil {
		t.Fatalf("first GetOrCompute error = %v", err)
	}
	if cached || v != 42 {
		t.Fatalf("first call: got (%d, cached=%v), want (42, false)", v, cached)
	}

	v, cached, err = store.GetOrCompute("analysis:k=8", time.Minute, compute)
	if err != nil {
		t.Fatalf("second GetOrCompute error = %v", err)
	}
	if !cached || v != 42 {
		t.Fatalf("second call: got (%d, cached=%v), want (42, true)", v, cached)
	}
	if calls != 1 {
		t.Fatalf("compute invoked %d times, want 1", calls)
	}
}

func TestGetOrComputeRecomputesAfterExpiry(t *testing.T) {
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := NewStoreWithClock[string](func() time.Time { return current })

	calls := 0
	compute := func() (string, error) {
		calls++
		return "fresh", nil
	}

	if _, _, err := store.GetOrCompute("k", 10*time.Minute, compute); err != nil {
		t.Fatalf("GetOrCompute error = %v", err)
	}

	current = current.Add(10*time.Minute + time.Second)

	_, cached, err := store.GetOrCompute("k", 10*time.Minute, compute)
	if err != nil {
		t.Fatalf("GetOrCompute after expiry error = %v", err)
	}
	if cached {
		t.Fatalf("expected recomputation after TTL expiry")
	}
	if calls != 2 {
		t.Fatalf("compute invoked %d times, want 2", calls)
	}
}

func TestGetOrComputeDoesNotCacheErrors(t *testing.T) {
	store := NewStore[int]()

	boom := errors.New("boom")
	calls := 0
	_, _, err := store.GetOrCompute("k", time.Minute, func() (int, error) {
		calls++
		return 0, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected compute error, got %v", err)
	}

	v, cached, err := store.GetOrCompute("k", time.Minute, func() (int, error) {
		calls++
		return 7, nil
	})
	if err != nil || cached || v != 7 {
		t.Fatalf("got (%d, cached=%v, err=%v), want fresh 7", v, cached, err)
	}
	if calls != 2 {
		t.Fatalf("compute invoked %d times, want 2", calls)
	}
}

func TestDistinctKeysAreIndependent(t *testing.T) {
	store := NewStore[int]()

	for i, key := range []string{"analysis:k=4", "analysis:k=8"} {
		want := i
		v, _, err := store.GetOrCompute(key, time.Minute, func() (int, error) { return want, nil })
		if err != nil || v != want {
			t.Fatalf("key %q: got (%d, %v), want %d", key, v, err, want)
		}
	}
	if store.Len() != 2 {
		t.Fatalf("expected 2 live entries, got %d", store.Len())
	}
}
