package audit

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"companion-platform/internal/calls"
)

// Recorder is a calls.Observer that writes transitions in the background.
// OnTransition never blocks: when the queue is full the event is dropped and
// counted.
type Recorder struct {
	svc     *Service
	log     *slog.Logger
	timeout time.Duration

	queue   chan calls.Transition
	done    chan struct{}
	once    sync.Once
	dropped atomic.Int64
}

func NewRecorder(svc *Service, log *slog.Logger, buffer int) *Recorder {
	if buffer <= 0 {
		buffer = 256
	}
	if log == nil {
		log = slog.Default()
	}
	r := &Recorder{
		svc:     svc,
		log:     log,
		timeout: 5 * time.Second,
		queue:   make(chan calls.Transition, buffer),
		done:    make(chan struct{}),
	}
	go r.run()
	return r
}

func (r *Recorder) OnTransition(t calls.Transition) {
	select {
	case r.queue <- t:
	default:
		r.dropped.Add(1)
	}
}

func (r *Recorder) run() {
	defer close(r.done)
	for t := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		if err := r.svc.LogTransition(ctx, t); err != nil {
			r.log.Warn("audit transition failed", "session_id", t.SessionID, "err", err)
		}
		cancel()
	}
}

// Close flushes queued events and stops the worker. Call it only after every
// machine reporting to this recorder has been closed.
func (r *Recorder) Close() {
	r.once.Do(func() { close(r.queue) })
	<-r.done
}

func (r *Recorder) Dropped() int64 { return r.dropped.Load() }
