// Package portpool hands out TCP ports for new hosts. Ports released by
// deleted hosts are reused before any new port is minted.
package portpool

import (
	"context"
	"errors"
	"fmt"
)

// DefaultFloor is the lowest port ever handed out.
const DefaultFloor = 8082

// ReclaimedStore persists the free list of released ports. It is
// implemented by the store transaction so that allocation and reclaim
// commit together with the host record.
type ReclaimedStore interface {
	// TakeReclaimed removes and returns the oldest reclaimed port.
	// ok is false when the list is empty.
	TakeReclaimed(ctx context.Context) (port int, ok bool, err error)
	// PutReclaimed appends port to the list.
	PutReclaimed(ctx context.Context, port int) error
	// Reclaimed returns the list, oldest first.
	Reclaimed(ctx context.Context) ([]int, error)
}

// Allocation is the result of Allocate.
type Allocation struct {
	Port   int
	Reused bool
}

// Pool allocates ports at or above Floor.
type Pool struct {
	Floor int
}

// New creates a Pool. A non-positive floor selects DefaultFloor.
func New(floor int) *Pool {
	if floor <= 0 {
		floor = DefaultFloor
	}
	return &Pool{Floor: floor}
}

// NextFresh returns the port following the highest live one, never below
// the floor. maxLive is 0 when no host exists.
func (p *Pool) NextFresh(maxLive int) int {
	if maxLive+1 < p.Floor {
		return p.Floor
	}
	return maxLive + 1
}

// Allocate takes a reclaimed port if one exists, otherwise mints a fresh
// one. maxLive is only called when no reclaimed port is available.
func (p *Pool) Allocate(ctx context.Context, tx ReclaimedStore, maxLive func(ctx context.Context) (int, error)) (Allocation, error) {
	port, ok, err := tx.TakeReclaimed(ctx)
	if err != nil {
		return Allocation{}, fmt.Errorf("failed to take reclaimed port: %w", err)
	}
	if ok {
		return Allocation{Port: port, Reused: true}, nil
	}

	highest, err := maxLive(ctx)
	if err != nil {
		return Allocation{}, fmt.Errorf("failed to read highest port: %w", err)
	}
	return Allocation{Port: p.NextFresh(highest)}, nil
}

// ErrBelowFloor is returned by Reclaim for ports the pool never hands out.
var ErrBelowFloor = errors.New("port is below the pool floor")

// Reclaim records port for reuse. A port already on the list is ignored.
func (p *Pool) Reclaim(ctx context.Context, tx ReclaimedStore, port int) error {
	if port < p.Floor {
		return fmt.Errorf("reclaim %d: %w", port, ErrBelowFloor)
	}
	existing, err := tx.Reclaimed(ctx)
	if err != nil {
		return fmt.Errorf("failed to read reclaimed ports: %w", err)
	}
	for _, e := range existing {
		if e == port {
			return nil
		}
	}
	if err := tx.PutReclaimed(ctx, port); err != nil {
		return fmt.Errorf("failed to reclaim port %d: %w", port, err)
	}
	return nil
}
