package chatroom

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"kinship/internal/observability"
)

var (
	// ErrQueueFull is returned when the dispatcher cannot accept more work. The pair is left
	// for the reconciler.
	ErrQueueFull = errors.New("room provisioning queue is full")
	// ErrDispatcherClosed is returned after Close.
	ErrDispatcherClosed = errors.New("room provisioning dispatcher is closed")
)

// DispatcherConfig sizes the worker pool.
type DispatcherConfig struct {
	Workers      int
	QueueSize    int
	MaxAttempts  int
	Backoff      time.Duration
	WriteTimeout time.Duration
}

func (c *DispatcherConfig) withDefaults() {
	if c.Workers <= 0 {
		c.Workers = 2
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 256
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.Backoff <= 0 {
		c.Backoff = 200 * time.Millisecond
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 5 * time.Second
	}
}

type job struct {
	ctx  context.Context
	a, b Participant
}

// Dispatcher provisions rooms off the request path. Provision only enqueues; workers call
// the wrapped provisioner with bounded retries and exponential backoff.
type Dispatcher struct {
	next Provisioner
	cfg  DispatcherConfig
	jobs chan job
	log  *observability.ServiceLogger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher starts the worker pool.
func NewDispatcher(next Provisioner, cfg DispatcherConfig) *Dispatcher {
	cfg.withDefaults()
	d := &Dispatcher{
		next: next,
		cfg:  cfg,
		jobs: make(chan job, cfg.QueueSize),
		log:  observability.NewServiceLogger("room-dispatcher"),
	}
	for i := 0; i < cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

// Provision enqueues the pair. The request context's values are kept for logging but its
// cancellation is not, so the write outlives the request.
func (d *Dispatcher) Provision(ctx context.Context, a, b Participant) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrDispatcherClosed
	}

	select {
	case d.jobs <- job{ctx: context.WithoutCancel(ctx), a: a, b: b}:
		observability.RoomQueueDepth.Inc()
		return nil
	default:
		observability.RoomProvisioning.WithLabelValues("dropped").Inc()
		return ErrQueueFull
	}
}

// Close stops accepting work and waits for queued jobs to finish or ctx to expire.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.jobs)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for j := range d.jobs {
		observability.RoomQueueDepth.Dec()
		d.handle(j)
	}
}

func (d *Dispatcher) handle(j job) {
	delay := d.cfg.Backoff
	var err error
	for attempt := 1; attempt <= d.cfg.MaxAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(j.ctx, d.cfg.WriteTimeout)
		err = d.next.Provision(ctx, j.a, j.b)
		cancel()
		if err == nil {
			return
		}
		if attempt < d.cfg.MaxAttempts {
			time.Sleep(delay)
			delay *= 2
		}
	}
	observability.RoomProvisioning.WithLabelValues("abandoned").Inc()
	d.log.Error(j.ctx, "room provisioning abandoned", err,
		slog.String("room_id", RoomID(j.a.UserID, j.b.UserID)),
		slog.Int("attempts", d.cfg.MaxAttempts),
	)
}
