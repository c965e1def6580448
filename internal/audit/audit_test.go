package audit

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/ksyq12/vhostctl/internal/host"
)

func sampleHost() *host.Host {
	return &host.Host{ID: 4, OwnerID: 9, Domain: "shop.example.test", Port: 8085}
}

func TestNewHostEvent(t *testing.T) {
	e := NewHostEvent(ActionCreated, sampleHost())
	if e.Action != ActionCreated || e.HostID != 4 || e.OwnerID != 9 || e.Entity != "host" {
		t.Errorf("unexpected event %+v", e)
	}
	var h host.Host
	if err := json.Unmarshal(e.Data, &h); err != nil {
		t.Fatalf("data is not a host: %v", err)
	}
	if h.Domain != "shop.example.test" || h.Port != 8085 {
		t.Errorf("unexpected snapshot %+v", h)
	}
	if e.Timestamp.IsZero() {
		t.Error("timestamp should be set")
	}
}

func TestFileSink(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state", "audit.jsonl")
	sink := NewFileSink(path)

	events := []Event{
		NewHostEvent(ActionCreated, &host.Host{ID: 1, OwnerID: 1, Domain: "a.test", Port: 8082}),
		NewHostEvent(ActionCreated, &host.Host{ID: 2, OwnerID: 1, Domain: "b.test", Port: 8083}),
		NewHostEvent(ActionDeleted, &host.Host{ID: 1, OwnerID: 1, Domain: "a.test", Port: 8082}),
	}
	for _, e := range events {
		if err := sink.Record(ctx, e); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	all, err := sink.Events(0)
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d events, want 3", len(all))
	}
	for i, e := range all {
		if e.Action != events[i].Action || e.HostID != events[i].HostID {
			t.Errorf("event %d: got %s/%d, want %s/%d", i, e.Action, e.HostID, events[i].Action, events[i].HostID)
		}
	}

	one, _ := sink.Events(1)
	if len(one) != 2 || one[1].Action != ActionDeleted {
		t.Errorf("unexpected filtered events %+v", one)
	}
}

func TestFileSinkSkipsMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	content := `{"action":"created","host_id":1}
not json

{"action":"deleted","host_id":1}
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	events, err := NewFileSink(path).Events(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Errorf("expected 2 valid events, got %d", len(events))
	}
}

func TestFileSinkMissingFile(t *testing.T) {
	events, err := NewFileSink(filepath.Join(t.TempDir(), "none.jsonl")).Events(0)
	if err != nil || len(events) != 0 {
		t.Errorf("expected no events and no error, got %d %v", len(events), err)
	}
}

func TestRedisSink(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	sink := NewRedisSink(client, "vhostctl:events")
	sink.maxLen = 0

	if err := sink.Record(ctx, NewHostEvent(ActionCreated, sampleHost())); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := sink.Record(ctx, NewHostEvent(ActionDeleted, sampleHost())); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	n, err := client.XLen(ctx, "vhostctl:events").Result()
	if err != nil || n != 2 {
		t.Fatalf("XLen = %d, %v", n, err)
	}

	events, err := sink.Events(ctx, 10)
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}
	if len(events) != 2 || events[0].Action != ActionCreated || events[1].Action != ActionDeleted {
		t.Errorf("unexpected events %+v", events)
	}
}

// recordingSink captures events and can be made slow or failing.
type recordingSink struct {
	mu     sync.Mutex
	events []Event
	block  chan struct{}
	err    error
	closed bool
}

func (s *recordingSink) Record(ctx context.Context, e Event) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return s.err
}

func (s *recordingSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func TestDispatcherDelivers(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(sink, 8, nil)

	for i := 0; i < 5; i++ {
		d.Emit(NewHostEvent(ActionCreated, &host.Host{ID: int64(i + 1)}))
	}
	if err := d.Close(); err != nil {
		t.Fatal(err)
	}

	if sink.count() != 5 {
		t.Errorf("expected 5 delivered events, got %d", sink.count())
	}
	if !sink.closed {
		t.Error("Close should close the sink")
	}
	if sink.events[0].HostID != 1 || sink.events[4].HostID != 5 {
		t.Error("events must be delivered in order")
	}

	// Emit after Close is ignored rather than panicking.
	d.Emit(NewHostEvent(ActionCreated, sampleHost()))
	if err := d.Close(); err != nil {
		t.Error("second Close should be a no-op")
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	sink := &recordingSink{block: make(chan struct{})}
	d := NewDispatcher(sink, 1, nil)

	start := time.Now()
	for i := 0; i < 10; i++ {
		d.Emit(NewHostEvent(ActionCreated, &host.Host{ID: int64(i + 1)}))
	}
	if time.Since(start) > time.Second {
		t.Error("Emit must not block on a slow sink")
	}
	if d.Dropped() == 0 {
		t.Error("expected dropped events")
	}

	close(sink.block)
	_ = d.Close()
	if got := sink.count() + d.Dropped(); got != 10 {
		t.Errorf("delivered + dropped = %d, want 10", got)
	}
}

func TestDispatcherSinkErrorDoesNotStop(t *testing.T) {
	sink := &recordingSink{err: errors.New("disk full")}
	d := NewDispatcher(sink, 4, nil)
	d.Emit(NewHostEvent(ActionCreated, sampleHost()))
	d.Emit(NewHostEvent(ActionDeleted, sampleHost()))
	_ = d.Close()
	if sink.count() != 2 {
		t.Errorf("expected both events attempted, got %d", sink.count())
	}
}

func TestNopSink(t *testing.T) {
	var s Sink = NopSink{}
	if err := s.Record(context.Background(), Event{}); err != nil {
		t.Error(err)
	}
	if err := s.Close(); err != nil {
		t.Error(err)
	}
}
