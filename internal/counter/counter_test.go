package counter

import (
	"sync"
	"testing"
)

func TestSeed(t *testing.T) {
	c := New(7)
	if got := c.Get(); got != 7 {
		t.Errorf("Get() = %d, want 7", got)
	}
}

func TestSetAndGet(t *testing.T) {
	c := New(0)
	c.Set(42)
	if got := c.Get(); got != 42 {
		t.Errorf("Get() = %d, want 42", got)
	}
	c.Set(-3)
	if got := c.Get(); got != -3 {
		t.Errorf("Get() = %d, want -3", got)
	}
}

func TestSwapReturnsPrevious(t *testing.T) {
	c := New(5)
	if old := c.Swap(9); old != 5 {
		t.Errorf("Swap(9) = %d, want 5", old)
	}
	if got := c.Get(); got != 9 {
		t.Errorf("Get() = %d, want 9", got)
	}
}

func TestIncrement(t *testing.T) {
	c := New(0)
	if got := c.Increment(); got != 1 {
		t.Errorf("Increment() = %d, want 1", got)
	}
	if got := c.Increment(); got != 2 {
		t.Errorf("Increment() = %d, want 2", got)
	}
}

func TestConcurrentIncrements(t *testing.T) {
	const (
		goroutines = 50
		perRoutine = 200
	)

	c := New(0)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perRoutine; j++ {
				c.Increment()
			}
		}()
	}
	wg.Wait()

	if got := c.Get(); got != goroutines*perRoutine {
		t.Errorf("Get() = %d, want %d", got, goroutines*perRoutine)
	}
}
