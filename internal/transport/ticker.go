package transport

import (
	"sync"
	"time"
)

// Ticker feeds EventTick into the node loop at a fixed interval, independent
// of message traffic.
type Ticker struct {
	interval time.Duration
	stopping <-chan struct{}
	once     sync.Once
}

// NewTicker returns a ticker that stops once stop is closed.
func NewTicker(interval time.Duration, stop <-chan struct{}) *Ticker {
	return &Ticker{interval: interval, stopping: stop}
}

// Start launches the tick loop. Later calls are no-ops.
func (t *Ticker) Start(events chan<- Event) {
	t.once.Do(func() {
		go func() {
			tk := time.NewTicker(t.interval)
			defer tk.Stop()
			for {
				select {
				case <-t.stopping:
					return
				case <-tk.C:
					select {
					case events <- Event{Kind: EventTick}:
					case <-t.stopping:
						return
					}
				}
			}
		}()
	})
}
