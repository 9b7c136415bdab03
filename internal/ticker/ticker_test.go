package ticker

import (
	"testing"
	"time"

	"github.com/alexlarsson/early-service-example/internal/counter"
)

func TestTickerIncrements(t *testing.T) {
	cntr := counter.New(0)
	tick := New(10*time.Millisecond, cntr)
	tick.Start()
	defer tick.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for cntr.Get() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("counter only reached %d before deadline", cntr.Get())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestTickerStopsIncrementing(t *testing.T) {
	cntr := counter.New(0)
	tick := New(5*time.Millisecond, cntr)
	tick.Start()

	deadline := time.Now().Add(2 * time.Second)
	for cntr.Get() < 1 {
		if time.Now().After(deadline) {
			t.Fatal("ticker never fired")
		}
		time.Sleep(time.Millisecond)
	}

	tick.Stop()
	frozen := cntr.Get()
	time.Sleep(50 * time.Millisecond)
	if got := cntr.Get(); got != frozen {
		t.Errorf("counter moved from %d to %d after Stop", frozen, got)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	tick := New(time.Hour, counter.New(0))
	tick.Start()
	tick.Stop()
	tick.Stop()
}

func TestLargePeriodDoesNotFire(t *testing.T) {
	cntr := counter.New(0)
	tick := New(time.Hour, cntr)
	tick.Start()
	defer tick.Stop()

	time.Sleep(30 * time.Millisecond)
	if got := cntr.Get(); got != 0 {
		t.Errorf("counter = %d, want 0 with an hour-long period", got)
	}
}
