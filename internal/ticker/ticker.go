// Package ticker drives the periodic counter increments. The tick loop
// runs for the lifetime of the process and is stopped exactly once during
// orderly shutdown.
package ticker

import (
	"sync"
	"time"

	"github.com/alexlarsson/early-service-example/internal/counter"
	"github.com/alexlarsson/early-service-example/internal/logger"
)

// Ticker increments a counter at a fixed period. The period is immutable
// once the ticker is constructed; firing is best effort, not wall-clock
// exact.
type Ticker struct {
	period time.Duration
	cntr   *counter.Counter

	stopOnce sync.Once
	stopChan chan struct{}
	doneChan chan struct{}
}

// New creates a ticker for the given period and counter. The ticker does
// not fire until Start is called.
func New(period time.Duration, cntr *counter.Counter) *Ticker {
	return &Ticker{
		period:   period,
		cntr:     cntr,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
}

// Start begins the tick loop in the background.
func (t *Ticker) Start() {
	go t.run()
}

// Stop cancels the tick loop and waits for it to exit. Stop is safe to
// call more than once; only the first call has any effect.
func (t *Ticker) Stop() {
	t.stopOnce.Do(func() {
		close(t.stopChan)
		<-t.doneChan
	})
}

func (t *Ticker) run() {
	defer close(t.doneChan)

	ticker := time.NewTicker(t.period)
	defer ticker.Stop()

	for {
		select {
		case <-t.stopChan:
			return
		case <-ticker.C:
			v := t.cntr.Increment()
			logger.Info("%d", v)
		}
	}
}
