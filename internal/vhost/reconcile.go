package vhost

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ksyq12/vhostctl/internal/audit"
	"github.com/ksyq12/vhostctl/internal/errors"
	"github.com/ksyq12/vhostctl/internal/host"
	"github.com/ksyq12/vhostctl/internal/store"
)

// Repair describes what Reconcile did for one host.
type Repair struct {
	HostID    int64  `json:"host_id"`
	Domain    string `json:"domain"`
	Directory bool   `json:"directory"`
	Config    bool   `json:"config"`
	Error     string `json:"error,omitempty"`
}

// ReconcileReport summarizes a Reconcile run.
type ReconcileReport struct {
	Checked  int      `json:"checked"`
	Repaired []Repair `json:"repaired"`
	Failed   []Repair `json:"failed"`
	Reloaded bool     `json:"reloaded"`
}

// Reconcile re-creates missing document roots and configurations for
// every live host and reloads the webserver once. It never deletes a host.
// Running it twice in a row repairs nothing the second time.
func (s *Service) Reconcile(ctx context.Context) (report ReconcileReport, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOperation(OpReconcile, start, err) }()

	report.Repaired = []Repair{}
	report.Failed = []Repair{}

	var hosts []host.Host
	err = s.store.View(ctx, func(tx store.Tx) error {
		var err error
		hosts, err = store.All(ctx, tx)
		return err
	})
	if err != nil {
		return report, errors.Internal(err)
	}
	report.Checked = len(hosts)
	s.metrics.SetHosts(len(hosts))

	for i := range hosts {
		h := &hosts[i]
		r, changed := s.repair(h)
		switch {
		case r.Error != "":
			report.Failed = append(report.Failed, r)
		case changed:
			report.Repaired = append(report.Repaired, r)
			s.events.Emit(audit.NewHostEvent(audit.ActionReconciled, h))
		}
	}

	if err := s.reload(ctx); err != nil {
		return report, err
	}
	report.Reloaded = true

	s.log.Info("reconcile finished",
		zap.Int("checked", report.Checked),
		zap.Int("repaired", len(report.Repaired)),
		zap.Int("failed", len(report.Failed)),
	)
	return report, nil
}

func (s *Service) repair(h *host.Host) (Repair, bool) {
	r := Repair{HostID: h.ID, Domain: h.Domain}

	documentRoot, err := s.dirs.Path(h.Domain)
	if err != nil {
		r.Error = err.Error()
		return r, false
	}

	if !s.dirs.Exists(h.Domain) {
		if err := s.dirs.Create(h.Domain); err != nil {
			r.Error = err.Error()
			return r, false
		}
		r.Directory = true
	}

	available, enabled := s.configs.Exists(h.Domain)
	if !available || !enabled {
		if available || enabled {
			// A lone copy is removed so both are written from one render.
			outcome, err := s.configs.Delete(h.Domain)
			s.logOutcome("config", h.Domain, outcome, err)
		}
		if err := s.configs.Create(h.Domain, h.Port, documentRoot); err != nil {
			r.Error = err.Error()
			return r, r.Directory
		}
		r.Config = true
	}

	if r.Directory || r.Config {
		s.log.Info("host repaired",
			zap.String("domain", h.Domain),
			zap.Bool("directory", r.Directory),
			zap.Bool("config", r.Config),
		)
	}
	return r, r.Directory || r.Config
}
