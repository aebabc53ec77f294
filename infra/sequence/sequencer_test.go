package sequence

import (
	"sync"
	"testing"
)

func TestSequencer_MonotonicUnderContention(t *testing.T) {
	s := New(10)

	const workers, each = 8, 500
	seen := make(chan uint64, workers*each)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < each; i++ {
				seen <- s.Next()
			}
		}()
	}
	wg.Wait()
	close(seen)

	uniq := map[uint64]bool{}
	for v := range seen {
		if v <= 10 {
			t.Fatalf("issued %d, not after start", v)
		}
		if uniq[v] {
			t.Fatalf("duplicate sequence %d", v)
		}
		uniq[v] = true
	}
	if got := s.Current(); got != 10+workers*each {
		t.Fatalf("current = %d", got)
	}
}

func TestSequencer_Observe(t *testing.T) {
	s := New(0)
	s.Observe(42)
	if s.Next() != 43 {
		t.Fatal("observe should advance")
	}
	s.Observe(5)
	if s.Current() != 43 {
		t.Fatal("observe must not move backwards")
	}
}
