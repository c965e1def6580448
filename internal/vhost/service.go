// Package vhost orchestrates the host lifecycle: port allocation, the
// persisted record, the document root, the proxy configuration and the
// webserver reload, with ordered rollback when a create step fails.
package vhost

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ksyq12/vhostctl/internal/audit"
	"github.com/ksyq12/vhostctl/internal/driver"
	"github.com/ksyq12/vhostctl/internal/errors"
	"github.com/ksyq12/vhostctl/internal/host"
	"github.com/ksyq12/vhostctl/internal/metrics"
	"github.com/ksyq12/vhostctl/internal/portpool"
	"github.com/ksyq12/vhostctl/internal/store"
)

// DirectoryManager creates and removes a host's document root.
type DirectoryManager interface {
	Path(domain string) (string, error)
	Create(domain string) error
	Delete(domain string) (host.Outcome, error)
	Exists(domain string) bool
}

// ConfigManager creates and removes a host's proxy configuration.
type ConfigManager interface {
	Create(domain string, port int, documentRoot string) error
	Delete(domain string) (host.Outcome, error)
	Exists(domain string) (available, enabled bool)
}

// State is a step of the create workflow.
type State string

const (
	StateIdle             State = "idle"
	StatePortAllocated    State = "port_allocated"
	StateRecordPersisted  State = "record_persisted"
	StateDirectoryCreated State = "directory_created"
	StateConfigCreated    State = "config_created"
	StateReloaded         State = "reloaded"
)

// Operation names used in metrics.
const (
	OpCreate    = "create"
	OpDelete    = "delete"
	OpReconcile = "reconcile"
)

// Deps are the collaborators of a Service. Store, Ports, Directories,
// Configs and Webserver are required.
type Deps struct {
	Store       store.Store
	Ports       *portpool.Pool
	Directories DirectoryManager
	Configs     ConfigManager
	Webserver   driver.Controller
	Events      audit.Emitter
	Metrics     *metrics.Metrics
	Logger      *zap.Logger
	PerPage     int
}

// Service is the host lifecycle orchestrator.
type Service struct {
	store   store.Store
	ports   *portpool.Pool
	dirs    DirectoryManager
	configs ConfigManager
	web     driver.Controller
	events  audit.Emitter
	metrics *metrics.Metrics
	log     *zap.Logger
	perPage int
}

type nopEmitter struct{}

func (nopEmitter) Emit(audit.Event) {}

// New creates a Service from d.
func New(d Deps) *Service {
	s := &Service{
		store:   d.Store,
		ports:   d.Ports,
		dirs:    d.Directories,
		configs: d.Configs,
		web:     d.Webserver,
		events:  d.Events,
		metrics: d.Metrics,
		log:     d.Logger,
		perPage: d.PerPage,
	}
	if s.ports == nil {
		s.ports = portpool.New(portpool.DefaultFloor)
	}
	if s.events == nil {
		s.events = nopEmitter{}
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.perPage <= 0 {
		s.perPage = host.DefaultPerPage
	}
	return s
}

// Webserver returns the controller the service reloads.
func (s *Service) Webserver() driver.Controller {
	return s.web
}

func (s *Service) state(domain string, st State, fields ...zap.Field) {
	s.log.Debug("host state", append([]zap.Field{zap.String("domain", domain), zap.String("state", string(st))}, fields...)...)
}

// Create provisions a host for ownerID. On a reload failure the host is
// returned together with an error wrapping ErrReloadPending; its artifacts
// stay in place for a later Reconcile.
func (s *Service) Create(ctx context.Context, domain string, ownerID int64) (_ *host.Host, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation(OpCreate, start, err) }()

	if ownerID <= 0 {
		return nil, errors.Validation("The owner id must be a positive integer.")
	}
	domain, err = host.NormalizeDomain(domain)
	if err != nil {
		return nil, err
	}
	s.state(domain, StateIdle, zap.Int64("owner_id", ownerID))

	var (
		h     *host.Host
		alloc portpool.Allocation
	)
	err = s.store.Update(ctx, func(tx store.Tx) error {
		existing, err := tx.Get(ctx, host.Filter{Domain: domain})
		if err != nil {
			return err
		}
		if existing != nil {
			return errors.Conflict(domain, store.ErrDuplicateDomain)
		}

		alloc, err = s.ports.Allocate(ctx, tx, tx.MaxLivePort)
		if err != nil {
			return err
		}
		s.state(domain, StatePortAllocated, zap.Int("port", alloc.Port), zap.Bool("reused", alloc.Reused))

		h, err = tx.Create(ctx, host.NewHost{OwnerID: ownerID, Domain: domain, Port: alloc.Port})
		return err
	})
	if err != nil {
		return nil, persistenceError(domain, err)
	}
	s.metrics.PortAllocated(alloc.Reused)
	s.refreshHosts(ctx)
	s.state(domain, StateRecordPersisted, zap.Int64("id", h.ID), zap.Int("port", h.Port))

	documentRoot, err := s.dirs.Path(domain)
	if err != nil {
		err = errors.DirectoryNotCreated(domain, err)
		s.rollback(ctx, h, StateRecordPersisted, err)
		return nil, err
	}
	if err := s.dirs.Create(domain); err != nil {
		s.rollback(ctx, h, StateRecordPersisted, err)
		return nil, err
	}
	s.state(domain, StateDirectoryCreated, zap.String("path", documentRoot))

	if err := s.configs.Create(domain, h.Port, documentRoot); err != nil {
		s.rollback(ctx, h, StateDirectoryCreated, err)
		return nil, err
	}
	s.state(domain, StateConfigCreated)

	s.events.Emit(audit.NewHostEvent(audit.ActionCreated, h))

	if err := s.reload(ctx); err != nil {
		s.log.Warn("host created but reload failed", zap.String("domain", domain), zap.Error(err))
		return h, fmt.Errorf("%w: %w", errors.ErrReloadPending, err)
	}
	s.state(domain, StateReloaded)

	s.log.Info("host created", zap.String("domain", domain), zap.Int64("id", h.ID), zap.Int("port", h.Port))
	return h, nil
}

// rollback undoes a create whose step after reached failed. Artifacts that
// were already on disk before this create are left alone. The port is not
// reclaimed.
func (s *Service) rollback(ctx context.Context, h *host.Host, reached State, cause error) {
	ctx = context.WithoutCancel(ctx)
	s.metrics.Rollback(string(reached))
	s.log.Warn("rolling back host",
		zap.String("domain", h.Domain),
		zap.String("state", string(reached)),
		zap.Error(cause),
	)

	if reached == StateDirectoryCreated && !errors.Is(cause, errors.ErrConfigAlreadyExists) {
		outcome, err := s.configs.Delete(h.Domain)
		s.logOutcome("config", h.Domain, outcome, err)
	}
	if reached == StateDirectoryCreated || !errors.Is(cause, errors.ErrDirectoryAlreadyExists) {
		outcome, err := s.dirs.Delete(h.Domain)
		s.logOutcome("directory", h.Domain, outcome, err)
	}

	err := s.store.Update(ctx, func(tx store.Tx) error {
		_, err := tx.Delete(ctx, h)
		return err
	})
	if err != nil {
		s.log.Error("failed to delete host record during rollback", zap.String("domain", h.Domain), zap.Error(err))
	} else {
		s.refreshHosts(ctx)
	}
	s.state(h.Domain, StateIdle)
}

func (s *Service) logOutcome(artifact, domain string, outcome host.Outcome, err error) {
	fields := []zap.Field{
		zap.String("artifact", artifact),
		zap.String("domain", domain),
		zap.Stringer("outcome", outcome),
	}
	if outcome == host.Failed {
		s.log.Warn("artifact removal failed", append(fields, zap.Error(err))...)
		return
	}
	s.log.Debug("artifact removal", fields...)
}

// Delete removes the host matching f. Artifact removal is best effort;
// only a persistence failure aborts. A reload failure is returned after
// the host is already gone.
func (s *Service) Delete(ctx context.Context, f host.Filter) (err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation(OpDelete, start, err) }()

	h, err := s.Get(ctx, f)
	if err != nil {
		return err
	}

	outcome, cerr := s.configs.Delete(h.Domain)
	s.logOutcome("config", h.Domain, outcome, cerr)
	outcome, derr := s.dirs.Delete(h.Domain)
	s.logOutcome("directory", h.Domain, outcome, derr)

	reclaimed := false
	err = s.store.Update(ctx, func(tx store.Tx) error {
		ok, err := tx.Delete(ctx, h)
		if err != nil {
			return err
		}
		if !ok {
			return errors.NotFound(h.Domain)
		}
		if h.Port < s.ports.Floor {
			s.log.Warn("port below floor not reclaimed", zap.String("domain", h.Domain), zap.Int("port", h.Port))
			return nil
		}
		reclaimed = true
		return s.ports.Reclaim(ctx, tx, h.Port)
	})
	if err != nil {
		return persistenceError(h.Domain, err)
	}
	if reclaimed {
		s.metrics.PortReclaimed()
	}
	s.refreshHosts(ctx)

	s.events.Emit(audit.NewHostEvent(audit.ActionDeleted, h))

	if err := s.reload(ctx); err != nil {
		s.log.Warn("host deleted but reload failed", zap.String("domain", h.Domain), zap.Error(err))
		return err
	}

	s.log.Info("host deleted", zap.String("domain", h.Domain), zap.Int64("id", h.ID), zap.Int("port", h.Port))
	return nil
}

// RefreshHosts sets the live host gauge from the store.
func (s *Service) RefreshHosts(ctx context.Context) error {
	var n int
	err := s.store.View(ctx, func(tx store.Tx) error {
		hosts, err := store.All(ctx, tx)
		n = len(hosts)
		return err
	})
	if err != nil {
		return err
	}
	s.metrics.SetHosts(n)
	return nil
}

func (s *Service) refreshHosts(ctx context.Context) {
	if s.metrics == nil {
		return
	}
	if err := s.RefreshHosts(ctx); err != nil {
		s.log.Warn("failed to refresh host gauge", zap.Error(err))
	}
}

// Get returns the host matching f.
func (s *Service) Get(ctx context.Context, f host.Filter) (*host.Host, error) {
	if f.Empty() {
		return nil, errors.Validation("A host id or domain is required.")
	}

	var h *host.Host
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		h, err = tx.Get(ctx, f)
		return err
	})
	if err != nil {
		return nil, errors.Internal(err)
	}
	if h == nil {
		return nil, errors.NotFound(f.Domain)
	}
	return h, nil
}

// List returns one page of ownerID's hosts. An ownerID of zero lists
// every host.
func (s *Service) List(ctx context.Context, ownerID int64, page int) (host.Page, error) {
	var p host.Page
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		p, err = tx.List(ctx, ownerID, page, s.perPage)
		return err
	})
	if err != nil {
		return host.Page{}, errors.Internal(err)
	}
	return p, nil
}

// Reclaimed returns the ports waiting for reuse, oldest first.
func (s *Service) Reclaimed(ctx context.Context) ([]int, error) {
	var ports []int
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		ports, err = tx.Reclaimed(ctx)
		return err
	})
	if err != nil {
		return nil, errors.Internal(err)
	}
	return ports, nil
}

// Ping checks that the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) reload(ctx context.Context) error {
	err := s.web.Reload(ctx)
	s.metrics.WebserverCommand(string(driver.VerbReload), err)
	return err
}

// persistenceError maps store failures onto the error taxonomy.
func persistenceError(domain string, err error) error {
	var he *errors.HostError
	if errors.As(err, &he) {
		return err
	}
	if errors.Is(err, store.ErrDuplicateDomain) || errors.Is(err, store.ErrDuplicatePort) {
		return errors.Conflict(domain, err)
	}
	return errors.Internal(err)
}
