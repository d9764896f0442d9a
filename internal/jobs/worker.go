package jobs

import (
	"context"
	"log"
	"time"
)

// Sweeper performs one pass of periodic background work, such as re-embedding
// knowledge entries that only carry a mock vector.
type Sweeper interface {
	Sweep(ctx context.Context) error
}

// Worker drives a Sweeper on a fixed interval until stopped.
type Worker struct {
	sweeper  Sweeper
	interval time.Duration
	stopChan chan struct{}
	doneChan chan struct{}
}

// NewWorker creates a worker that runs sweeper every interval
func NewWorker(sweeper Sweeper, interval time.Duration) *Worker {
	return &Worker{
		sweeper:  sweeper,
		interval: interval,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
}

// Start runs the polling loop. It returns when ctx is cancelled or Stop is
// called; sweep errors are logged and the loop keeps going.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	defer close(w.doneChan)

	log.Printf("jobs: worker polling every %v", w.interval)

	for {
		select {
		case <-ctx.Done():
			log.Println("jobs: worker stopped, context cancelled")
			return
		case <-w.stopChan:
			log.Println("jobs: worker stopped")
			return
		case <-ticker.C:
			if err := w.sweeper.Sweep(ctx); err != nil {
				log.Printf("jobs: sweep failed: %v", err)
			}
		}
	}
}

// Stop signals the loop to exit and waits for it to drain
func (w *Worker) Stop() {
	close(w.stopChan)
	<-w.doneChan
}
