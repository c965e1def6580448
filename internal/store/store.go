// Package store defines the persistence boundary of the orchestrator.
//
// All mutations happen inside Store.Update, which gives fn a Tx and commits
// its writes atomically when fn returns nil. A non-nil return discards
// every write made through the Tx. Two backends exist: filestore (a YAML
// document guarded by flock) and redisstore.
package store

import (
	"context"
	"errors"

	"github.com/ksyq12/vhostctl/internal/host"
	"github.com/ksyq12/vhostctl/internal/portpool"
)

// ErrDuplicateDomain is returned by Create when the domain is taken.
var ErrDuplicateDomain = errors.New("domain already exists")

// ErrDuplicatePort is returned by Create when the port is taken.
var ErrDuplicatePort = errors.New("port already in use")

// HostRepository reads and writes host records.
type HostRepository interface {
	// List returns one page of ownerID's hosts ordered by ID. ownerID 0
	// lists every owner.
	List(ctx context.Context, ownerID int64, page, perPage int) (host.Page, error)
	// Get returns the first host matching f, or nil, nil when none does.
	Get(ctx context.Context, f host.Filter) (*host.Host, error)
	// Create persists a new host and assigns its ID.
	Create(ctx context.Context, h host.NewHost) (*host.Host, error)
	// Delete removes h and reports whether it existed.
	Delete(ctx context.Context, h *host.Host) (bool, error)
	// MaxLivePort returns the highest port held by a host, 0 if none.
	MaxLivePort(ctx context.Context) (int, error)
}

// Tx is the view of the store available inside a transaction.
type Tx interface {
	HostRepository
	portpool.ReclaimedStore
}

// Store is a persistence backend.
type Store interface {
	// Update runs fn in a read-write transaction.
	Update(ctx context.Context, fn func(tx Tx) error) error
	// View runs fn with a read-only view. Writes made through tx are
	// discarded.
	View(ctx context.Context, fn func(tx Tx) error) error
	// Ping checks the backend is reachable.
	Ping(ctx context.Context) error
	// Close releases the backend.
	Close() error
}

// All returns every host in ID order by paging through List.
func All(ctx context.Context, tx HostRepository) ([]host.Host, error) {
	const perPage = 500
	var out []host.Host
	for page := 1; ; page++ {
		p, err := tx.List(ctx, 0, page, perPage)
		if err != nil {
			return nil, err
		}
		out = append(out, p.Items...)
		if page >= p.LastPage {
			return out, nil
		}
	}
}
