// Package redisstore keeps hosts and the reclaimed-port list in Redis.
//
// Key layout, all under a configurable prefix:
//
//	<p>:seq              INCR counter for host ids
//	<p>:host:<id>        host record as JSON
//	<p>:domains          HASH domain -> id
//	<p>:ports            HASH port -> id
//	<p>:ids              ZSET id scored by id
//	<p>:byport           ZSET id scored by port
//	<p>:owner:<owner>    ZSET id scored by id
//	<p>:reclaimed        LIST of reclaimed ports, oldest first
//	<p>:lock             transaction lock
//
// Update takes the lock with SET NX PX, reads straight from Redis and
// queues writes on a MULTI/EXEC pipeline that is executed on commit. Reads
// inside a transaction see the transaction's own queued writes. Host ids
// come from INCR outside the pipeline, so a rolled-back create leaves a
// gap in the sequence.
package redisstore

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ksyq12/vhostctl/internal/host"
	"github.com/ksyq12/vhostctl/internal/store"
)

// Lock timing.
const (
	LockTTL   = 30 * time.Second
	lockRetry = 20 * time.Millisecond
)

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('DEL', KEYS[1])
end
return 0
`)

// Store is a store.Store backed by Redis.
type Store struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

var _ store.Store = (*Store)(nil)

// Open connects to the Redis server at url.
func Open(url, prefix string) (*Store, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	return New(redis.NewClient(opt), prefix), nil
}

// New wraps an existing client.
func New(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = "vhostctl"
	}
	return &Store{client: client, prefix: prefix, now: time.Now}
}

// Client returns the underlying client.
func (s *Store) Client() *redis.Client {
	return s.client
}

func (s *Store) key(parts ...string) string {
	k := s.prefix
	for _, p := range parts {
		k += ":" + p
	}
	return k
}

func (s *Store) hostKey(id int64) string {
	return s.key("host", strconv.FormatInt(id, 10))
}

func (s *Store) ownerKey(owner int64) string {
	return s.key("owner", strconv.FormatInt(owner, 10))
}

// Update runs fn under the store lock and commits its queued writes.
func (s *Store) Update(ctx context.Context, fn func(tx store.Tx) error) error {
	release, err := s.lock(ctx)
	if err != nil {
		return err
	}
	defer release()

	t := s.newTx()
	if err := fn(t); err != nil {
		t.pipe.Discard()
		return err
	}
	if t.pipe.Len() == 0 {
		return nil
	}
	if _, err := t.pipe.Exec(ctx); err != nil && err != redis.Nil {
		return fmt.Errorf("redis exec failed: %w", err)
	}
	return nil
}

// View runs fn without the lock. Queued writes are discarded.
func (s *Store) View(ctx context.Context, fn func(tx store.Tx) error) error {
	t := s.newTx()
	defer t.pipe.Discard()
	return fn(t)
}

// Ping performs a health check on the Redis connection
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) lock(ctx context.Context) (func(), error) {
	token, err := newToken()
	if err != nil {
		return nil, err
	}
	key := s.key("lock")

	for {
		ok, err := s.client.SetNX(ctx, key, token, LockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("redis lock failed: %w", err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for store lock: %w", ctx.Err())
		case <-time.After(lockRetry):
		}
	}

	return func() {
		// The caller's ctx may already be cancelled; the lock must still go.
		rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = releaseScript.Run(rctx, s.client, []string{key}, token).Err()
	}, nil
}

func newToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate lock token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func (s *Store) newTx() *tx {
	return &tx{
		s:       s,
		pipe:    s.client.TxPipeline(),
		deleted: make(map[int64]bool),
	}
}

// tx reads from Redis and overlays its own queued writes.
type tx struct {
	s    *Store
	pipe redis.Pipeliner

	created []host.Host
	deleted map[int64]bool
	taken   int
	puts    []int
}

func (t *tx) fetch(ctx context.Context, id int64) (*host.Host, error) {
	if t.deleted[id] {
		return nil, nil
	}
	for i := range t.created {
		if t.created[i].ID == id {
			h := t.created[i]
			return &h, nil
		}
	}
	data, err := t.s.client.Get(ctx, t.s.hostKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	var h host.Host
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("corrupt host record %d: %w", id, err)
	}
	return &h, nil
}

// ids returns the live ids of ownerID (0 for all) in ascending order.
func (t *tx) ids(ctx context.Context, ownerID int64) ([]int64, error) {
	key := t.s.key("ids")
	if ownerID != 0 {
		key = t.s.ownerKey(ownerID)
	}
	members, err := t.s.client.ZRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis zrange failed: %w", err)
	}

	out := make([]int64, 0, len(members)+len(t.created))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		if !t.deleted[id] {
			out = append(out, id)
		}
	}
	for _, h := range t.created {
		if (ownerID == 0 || h.OwnerID == ownerID) && !t.deleted[h.ID] {
			out = append(out, h.ID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (t *tx) List(ctx context.Context, ownerID int64, page, perPage int) (host.Page, error) {
	ids, err := t.ids(ctx, ownerID)
	if err != nil {
		return host.Page{}, err
	}

	// Paginate ids first so only the requested page is fetched.
	placeholders := make([]host.Host, len(ids))
	for i, id := range ids {
		placeholders[i].ID = id
	}
	p := host.Paginate(placeholders, page, perPage)

	items := make([]host.Host, 0, len(p.Items))
	for _, ph := range p.Items {
		h, err := t.fetch(ctx, ph.ID)
		if err != nil {
			return host.Page{}, err
		}
		if h != nil {
			items = append(items, *h)
		}
	}
	p.Items = items
	return p, nil
}

func (t *tx) Get(ctx context.Context, f host.Filter) (*host.Host, error) {
	if f.Empty() {
		return nil, errors.New("empty host filter")
	}

	var candidate int64
	switch {
	case f.ID != 0:
		candidate = f.ID
	case f.Domain != "":
		for _, h := range t.created {
			if h.Domain == f.Domain && !t.deleted[h.ID] {
				candidate = h.ID
			}
		}
		if candidate == 0 {
			v, err := t.s.client.HGet(ctx, t.s.key("domains"), f.Domain).Result()
			if err == redis.Nil {
				return nil, nil
			}
			if err != nil {
				return nil, fmt.Errorf("redis hget failed: %w", err)
			}
			if candidate, err = strconv.ParseInt(v, 10, 64); err != nil {
				return nil, fmt.Errorf("corrupt domain index for %s: %w", f.Domain, err)
			}
		}
	default:
		ids, err := t.ids(ctx, f.OwnerID)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return nil, nil
		}
		candidate = ids[0]
	}

	h, err := t.fetch(ctx, candidate)
	if err != nil || h == nil {
		return nil, err
	}
	if !f.Match(h) {
		return nil, nil
	}
	return h, nil
}

func (t *tx) indexed(ctx context.Context, hash, field string) (bool, error) {
	v, err := t.s.client.HGet(ctx, hash, field).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis hget failed: %w", err)
	}
	id, _ := strconv.ParseInt(v, 10, 64)
	return !t.deleted[id], nil
}

func (t *tx) Create(ctx context.Context, n host.NewHost) (*host.Host, error) {
	for _, h := range t.created {
		if t.deleted[h.ID] {
			continue
		}
		if h.Domain == n.Domain {
			return nil, store.ErrDuplicateDomain
		}
		if h.Port == n.Port {
			return nil, store.ErrDuplicatePort
		}
	}
	if dup, err := t.indexed(ctx, t.s.key("domains"), n.Domain); err != nil || dup {
		if err != nil {
			return nil, err
		}
		return nil, store.ErrDuplicateDomain
	}
	if dup, err := t.indexed(ctx, t.s.key("ports"), strconv.Itoa(n.Port)); err != nil || dup {
		if err != nil {
			return nil, err
		}
		return nil, store.ErrDuplicatePort
	}

	id, err := t.s.client.Incr(ctx, t.s.key("seq")).Result()
	if err != nil {
		return nil, fmt.Errorf("redis incr failed: %w", err)
	}

	h := host.Host{
		ID:        id,
		OwnerID:   n.OwnerID,
		Domain:    n.Domain,
		Port:      n.Port,
		CreatedAt: t.s.now().UTC().Truncate(time.Second),
	}
	data, err := json.Marshal(h)
	if err != nil {
		return nil, err
	}

	member := strconv.FormatInt(id, 10)
	t.pipe.Set(ctx, t.s.hostKey(id), data, 0)
	t.pipe.HSet(ctx, t.s.key("domains"), h.Domain, member)
	t.pipe.HSet(ctx, t.s.key("ports"), strconv.Itoa(h.Port), member)
	t.pipe.ZAdd(ctx, t.s.key("ids"), redis.Z{Score: float64(id), Member: member})
	t.pipe.ZAdd(ctx, t.s.key("byport"), redis.Z{Score: float64(h.Port), Member: member})
	t.pipe.ZAdd(ctx, t.s.ownerKey(h.OwnerID), redis.Z{Score: float64(id), Member: member})

	t.created = append(t.created, h)
	return &h, nil
}

func (t *tx) Delete(ctx context.Context, h *host.Host) (bool, error) {
	existing, err := t.fetch(ctx, h.ID)
	if err != nil {
		return false, err
	}
	if existing == nil {
		return false, nil
	}

	member := strconv.FormatInt(existing.ID, 10)
	t.pipe.Del(ctx, t.s.hostKey(existing.ID))
	t.pipe.HDel(ctx, t.s.key("domains"), existing.Domain)
	t.pipe.HDel(ctx, t.s.key("ports"), strconv.Itoa(existing.Port))
	t.pipe.ZRem(ctx, t.s.key("ids"), member)
	t.pipe.ZRem(ctx, t.s.key("byport"), member)
	t.pipe.ZRem(ctx, t.s.ownerKey(existing.OwnerID), member)

	t.deleted[existing.ID] = true
	return true, nil
}

func (t *tx) MaxLivePort(ctx context.Context) (int, error) {
	highest := 0
	for _, h := range t.created {
		if !t.deleted[h.ID] && h.Port > highest {
			highest = h.Port
		}
	}

	// Walk down from the top until an entry not deleted in this tx is found.
	zs, err := t.s.client.ZRevRangeWithScores(ctx, t.s.key("byport"), 0, int64(len(t.deleted))).Result()
	if err != nil {
		return 0, fmt.Errorf("redis zrevrange failed: %w", err)
	}
	for _, z := range zs {
		id, _ := strconv.ParseInt(fmt.Sprint(z.Member), 10, 64)
		if t.deleted[id] {
			continue
		}
		if int(z.Score) > highest {
			highest = int(z.Score)
		}
		break
	}
	return highest, nil
}

// reclaimed returns the committed list followed by queued puts.
func (t *tx) reclaimed(ctx context.Context) ([]int, error) {
	vals, err := t.s.client.LRange(ctx, t.s.key("reclaimed"), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lrange failed: %w", err)
	}
	out := make([]int, 0, len(vals)+len(t.puts))
	for _, v := range vals {
		p, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("corrupt reclaimed port %q: %w", v, err)
		}
		out = append(out, p)
	}
	return append(out, t.puts...), nil
}

func (t *tx) TakeReclaimed(ctx context.Context) (int, bool, error) {
	all, err := t.reclaimed(ctx)
	if err != nil {
		return 0, false, err
	}
	if t.taken >= len(all) {
		return 0, false, nil
	}
	port := all[t.taken]
	t.taken++
	t.pipe.LPop(ctx, t.s.key("reclaimed"))
	return port, true, nil
}

func (t *tx) PutReclaimed(ctx context.Context, port int) error {
	t.pipe.RPush(ctx, t.s.key("reclaimed"), port)
	t.puts = append(t.puts, port)
	return nil
}

func (t *tx) Reclaimed(ctx context.Context) ([]int, error) {
	all, err := t.reclaimed(ctx)
	if err != nil {
		return nil, err
	}
	if t.taken >= len(all) {
		return []int{}, nil
	}
	return all[t.taken:], nil
}
