package application

import (
	"sync"
	"testing"
	"time"
)

func TestEmployeeLocks(t *testing.T) {
	t.Parallel()

	t.Run("serializes holders of the same id", func(t *testing.T) {
		t.Parallel()

		locks := newEmployeeLocks()
		release := locks.Lock("1")

		acquired := make(chan struct{})
		go func() {
			defer close(acquired)
			locks.Lock("1")()
		}()

		select {
		case <-acquired:
			t.Fatalf("expected second holder to block")
		case <-time.After(20 * time.Millisecond):
		}

		release()
		select {
		case <-acquired:
		case <-time.After(time.Second):
			t.Fatalf("expected second holder to acquire after release")
		}
		if locks.size() != 0 {
			t.Fatalf("expected lock table to be empty, got %d", locks.size())
		}
	})

	t.Run("different ids do not contend", func(t *testing.T) {
		t.Parallel()

		locks := newEmployeeLocks()
		releaseA := locks.Lock("a")
		defer releaseA()

		done := make(chan struct{})
		go func() {
			defer close(done)
			locks.Lock("b")()
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatalf("expected lock on a different id to succeed")
		}
	})

	t.Run("release is idempotent", func(t *testing.T) {
		t.Parallel()

		locks := newEmployeeLocks()
		release := locks.Lock("1")
		release()
		release()

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			locks.Lock("1")()
		}()
		wg.Wait()
		if locks.size() != 0 {
			t.Fatalf("expected lock table to be empty")
		}
	})
}
