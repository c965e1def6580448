// Package filestore keeps hosts and the reclaimed-port list in one YAML
// document. Transactions are serialized by a process mutex and an
// exclusive flock on a sibling lock file, so several vhostctl processes
// can share the same state file. Commits replace the document atomically
// through a temp file and rename.
package filestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"golang.org/x/sys/unix"
	"gopkg.in/yaml.v3"

	"github.com/ksyq12/vhostctl/internal/host"
	"github.com/ksyq12/vhostctl/internal/store"
)

// lockRetry is the polling interval while waiting for the flock.
const lockRetry = 10 * time.Millisecond

// state is the on-disk document.
type state struct {
	Seq       int64       `yaml:"seq"`
	Hosts     []host.Host `yaml:"hosts"`
	Reclaimed []int       `yaml:"reclaimed"`
}

func (s *state) clone() *state {
	return &state{
		Seq:       s.Seq,
		Hosts:     append([]host.Host(nil), s.Hosts...),
		Reclaimed: append([]int(nil), s.Reclaimed...),
	}
}

// Store is a store.Store backed by a YAML file.
type Store struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

var _ store.Store = (*Store)(nil)

// Open prepares a store at path, creating its directory.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	return &Store{path: path, now: time.Now}, nil
}

// Path returns the state file path.
func (s *Store) Path() string {
	return s.path
}

// Update runs fn with exclusive access and writes the result if fn
// succeeds and changed anything.
func (s *Store) Update(ctx context.Context, fn func(tx store.Tx) error) error {
	return s.run(ctx, unix.LOCK_EX, fn, true)
}

// View runs fn with shared access. Nothing is written.
func (s *Store) View(ctx context.Context, fn func(tx store.Tx) error) error {
	return s.run(ctx, unix.LOCK_SH, fn, false)
}

func (s *Store) run(ctx context.Context, how int, fn func(tx store.Tx) error, commit bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.lock(ctx, how)
	if err != nil {
		return err
	}
	defer unlock()

	st, err := s.load()
	if err != nil {
		return err
	}

	t := &tx{state: st.clone(), now: s.now}
	if err := fn(t); err != nil {
		return err
	}
	if !commit || !t.dirty {
		return nil
	}
	return s.save(t.state)
}

// Ping checks that the state directory is writable.
func (s *Store) Ping(ctx context.Context) error {
	if err := unix.Access(filepath.Dir(s.path), unix.W_OK); err != nil {
		return fmt.Errorf("state directory %s is not writable: %w", filepath.Dir(s.path), err)
	}
	return nil
}

// Close is a no-op; the file is only open during a transaction.
func (s *Store) Close() error {
	return nil
}

// lock takes a flock on <path>.lock, polling so ctx can abort the wait.
func (s *Store) lock(ctx context.Context, how int) (func(), error) {
	f, err := os.OpenFile(s.path+".lock", os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}

	for {
		err := unix.Flock(int(f.Fd()), how|unix.LOCK_NB)
		if err == nil {
			break
		}
		if err != unix.EWOULDBLOCK && err != unix.EINTR {
			_ = f.Close()
			return nil, fmt.Errorf("failed to lock state: %w", err)
		}
		select {
		case <-ctx.Done():
			_ = f.Close()
			return nil, fmt.Errorf("waiting for state lock: %w", ctx.Err())
		case <-time.After(lockRetry):
		}
	}

	return func() {
		_ = unix.Flock(int(f.Fd()), unix.LOCK_UN)
		_ = f.Close()
	}, nil
}

func (s *Store) load() (*state, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return &state{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state: %w", err)
	}
	st := &state{}
	if err := yaml.Unmarshal(data, st); err != nil {
		return nil, fmt.Errorf("failed to parse state %s: %w", s.path, err)
	}
	return st, nil
}

func (s *Store) save(st *state) error {
	data, err := yaml.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".hosts-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace state: %w", err)
	}
	return nil
}

// tx mutates a private copy of the state.
type tx struct {
	state *state
	dirty bool
	now   func() time.Time
}

func (t *tx) List(ctx context.Context, ownerID int64, page, perPage int) (host.Page, error) {
	matched := make([]host.Host, 0, len(t.state.Hosts))
	for _, h := range t.state.Hosts {
		if ownerID == 0 || h.OwnerID == ownerID {
			matched = append(matched, h)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return host.Paginate(matched, page, perPage), nil
}

func (t *tx) Get(ctx context.Context, f host.Filter) (*host.Host, error) {
	if f.Empty() {
		return nil, fmt.Errorf("empty host filter")
	}
	for i := range t.state.Hosts {
		if f.Match(&t.state.Hosts[i]) {
			h := t.state.Hosts[i]
			return &h, nil
		}
	}
	return nil, nil
}

func (t *tx) Create(ctx context.Context, n host.NewHost) (*host.Host, error) {
	for _, h := range t.state.Hosts {
		if h.Domain == n.Domain {
			return nil, store.ErrDuplicateDomain
		}
		if h.Port == n.Port {
			return nil, store.ErrDuplicatePort
		}
	}
	t.state.Seq++
	h := host.Host{
		ID:        t.state.Seq,
		OwnerID:   n.OwnerID,
		Domain:    n.Domain,
		Port:      n.Port,
		CreatedAt: t.now().UTC().Truncate(time.Second),
	}
	t.state.Hosts = append(t.state.Hosts, h)
	t.dirty = true
	return &h, nil
}

func (t *tx) Delete(ctx context.Context, h *host.Host) (bool, error) {
	for i := range t.state.Hosts {
		if t.state.Hosts[i].ID == h.ID {
			t.state.Hosts = append(t.state.Hosts[:i], t.state.Hosts[i+1:]...)
			t.dirty = true
			return true, nil
		}
	}
	return false, nil
}

func (t *tx) MaxLivePort(ctx context.Context) (int, error) {
	highest := 0
	for _, h := range t.state.Hosts {
		if h.Port > highest {
			highest = h.Port
		}
	}
	return highest, nil
}

func (t *tx) TakeReclaimed(ctx context.Context) (int, bool, error) {
	if len(t.state.Reclaimed) == 0 {
		return 0, false, nil
	}
	port := t.state.Reclaimed[0]
	t.state.Reclaimed = t.state.Reclaimed[1:]
	t.dirty = true
	return port, true, nil
}

func (t *tx) PutReclaimed(ctx context.Context, port int) error {
	t.state.Reclaimed = append(t.state.Reclaimed, port)
	t.dirty = true
	return nil
}

func (t *tx) Reclaimed(ctx context.Context) ([]int, error) {
	return append([]int(nil), t.state.Reclaimed...), nil
}
