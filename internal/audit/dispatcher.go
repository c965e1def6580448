package audit

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// recordTimeout bounds a single Sink.Record call.
const recordTimeout = 5 * time.Second

// Dispatcher delivers events to a Sink from one background goroutine.
type Dispatcher struct {
	sink   Sink
	events chan Event
	log    *zap.Logger

	once sync.Once
	done chan struct{}

	mu      sync.Mutex
	closed  bool
	dropped int
}

// NewDispatcher starts a dispatcher with room for buffer pending events.
func NewDispatcher(sink Sink, buffer int, log *zap.Logger) *Dispatcher {
	if buffer <= 0 {
		buffer = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	d := &Dispatcher{
		sink:   sink,
		events: make(chan Event, buffer),
		log:    log,
		done:   make(chan struct{}),
	}
	go d.loop()
	return d
}

// Emit queues e. When the buffer is full the event is dropped.
func (d *Dispatcher) Emit(e Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	select {
	case d.events <- e:
	default:
		d.dropped++
		d.log.Warn("audit buffer full, event dropped",
			zap.String("action", string(e.Action)),
			zap.Int64("host_id", e.HostID))
	}
}

// Dropped returns how many events were discarded.
func (d *Dispatcher) Dropped() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dropped
}

func (d *Dispatcher) loop() {
	defer close(d.done)
	for e := range d.events {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		if err := d.sink.Record(ctx, e); err != nil {
			d.log.Warn("failed to record audit event",
				zap.String("action", string(e.Action)),
				zap.Int64("host_id", e.HostID),
				zap.Error(err))
		}
		cancel()
	}
}

// Close flushes pending events and closes the sink.
func (d *Dispatcher) Close() error {
	var err error
	d.once.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.events)
		d.mu.Unlock()
		<-d.done
		err = d.sink.Close()
	})
	return err
}
