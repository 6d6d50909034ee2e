package audit

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Emitter buffers and delivers audit records to sinks. Delivery happens on
// background workers so the request path never blocks on audit IO.
type Emitter struct {
	queue           chan *Record
	sinks           []Sink
	workers         int
	metrics         *Metrics
	shutdownTimeout time.Duration
	log             *zap.Logger

	mu        sync.RWMutex
	metricsMu sync.Mutex
	closed    bool
	wg        sync.WaitGroup
}

// EmitterConfig controls worker and queue sizing.
type EmitterConfig struct {
	QueueSize       int
	Workers         int
	ShutdownTimeout time.Duration
}

// NewEmitter starts background workers delivering records to the sinks.
func NewEmitter(cfg EmitterConfig, sinks []Sink, log *zap.Logger) *Emitter {
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 1000
	}
	workerCount := cfg.Workers
	if workerCount <= 0 {
		workerCount = 1
	}
	shutdownTimeout := cfg.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 2 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}

	m := &Metrics{
		sinkSuccess: make(map[string]uint64, len(sinks)),
		sinkFailure: make(map[string]uint64, len(sinks)),
	}
	for _, s := range sinks {
		m.sinkSuccess[s.Name()] = 0
		m.sinkFailure[s.Name()] = 0
	}

	em := &Emitter{
		queue:           make(chan *Record, queueSize),
		sinks:           sinks,
		workers:         workerCount,
		metrics:         m,
		shutdownTimeout: shutdownTimeout,
		log:             log,
	}

	for i := 0; i < workerCount; i++ {
		em.wg.Add(1)
		go em.worker()
	}

	return em
}

// Emit attempts to enqueue the record without blocking the request path.
// Records are dropped, counted, when the queue is full or the emitter closed.
func (e *Emitter) Emit(ctx context.Context, rec *Record) {
	if e == nil || rec == nil {
		return
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		e.metricsMu.Lock()
		e.metrics.dropped++
		e.metricsMu.Unlock()
		return
	}

	select {
	case e.queue <- rec:
		e.metricsMu.Lock()
		e.metrics.enqueued++
		e.metricsMu.Unlock()
	default:
		e.metricsMu.Lock()
		e.metrics.dropped++
		e.metricsMu.Unlock()
	}
}

// Close stops accepting new records and waits briefly to drain the queue.
func (e *Emitter) Close(ctx context.Context) {
	if e == nil {
		return
	}
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	close(e.queue)
	e.mu.Unlock()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	waitCtx := ctx
	if waitCtx == nil {
		waitCtx = context.Background()
	}
	if e.shutdownTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(waitCtx, e.shutdownTimeout)
		defer cancel()
	}

	select {
	case <-done:
	case <-waitCtx.Done():
	}

	for _, s := range e.sinks {
		if err := s.Close(waitCtx); err != nil {
			e.log.Warn("audit sink close error", zap.String("sink", s.Name()), zap.Error(err))
		}
	}
}

// MetricsSnapshot safely copies current counters.
func (e *Emitter) MetricsSnapshot() Metrics {
	if e == nil || e.metrics == nil {
		return Metrics{}
	}
	e.metricsMu.Lock()
	defer e.metricsMu.Unlock()
	return e.metrics.Snapshot()
}

func (e *Emitter) worker() {
	defer e.wg.Done()
	for rec := range e.queue {
		e.deliver(rec)
	}
}

func (e *Emitter) deliver(rec *Record) {
	for _, s := range e.sinks {
		if err := s.Deliver(context.Background(), rec); err != nil {
			e.log.Warn("audit sink delivery failed", zap.String("sink", s.Name()), zap.Error(err))
			e.metricsMu.Lock()
			e.metrics.sinkFailure[s.Name()]++
			e.metricsMu.Unlock()
			continue
		}
		e.metricsMu.Lock()
		e.metrics.sinkSuccess[s.Name()]++
		e.metricsMu.Unlock()
	}
}
