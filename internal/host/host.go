// Package host defines the virtual host record shared by the orchestrator,
// the stores and the HTTP API.
package host

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ksyq12/vhostctl/internal/errors"
)

// Host is a provisioned virtual site with a unique domain and port.
type Host struct {
	ID        int64     `json:"id" yaml:"id"`
	OwnerID   int64     `json:"owner_id" yaml:"owner_id"`
	Domain    string    `json:"domain" yaml:"domain"`
	Port      int       `json:"port" yaml:"port"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// URL returns the loopback address the proxy listens on for this host.
func (h *Host) URL() string {
	return fmt.Sprintf("http://127.0.0.1:%d", h.Port)
}

// NewHost holds the fields needed to persist a host. The store assigns ID.
type NewHost struct {
	OwnerID int64
	Domain  string
	Port    int
}

// Filter selects hosts. Zero fields are wildcards.
type Filter struct {
	ID      int64
	OwnerID int64
	Domain  string
}

// Empty reports whether no field is set.
func (f Filter) Empty() bool {
	return f.ID == 0 && f.OwnerID == 0 && f.Domain == ""
}

// Match reports whether h satisfies every set field of f.
func (f Filter) Match(h *Host) bool {
	if f.ID != 0 && h.ID != f.ID {
		return false
	}
	if f.OwnerID != 0 && h.OwnerID != f.OwnerID {
		return false
	}
	if f.Domain != "" && h.Domain != f.Domain {
		return false
	}
	return true
}

// String renders the filter for log lines.
func (f Filter) String() string {
	parts := make([]string, 0, 3)
	if f.ID != 0 {
		parts = append(parts, fmt.Sprintf("id=%d", f.ID))
	}
	if f.OwnerID != 0 {
		parts = append(parts, fmt.Sprintf("owner=%d", f.OwnerID))
	}
	if f.Domain != "" {
		parts = append(parts, "domain="+f.Domain)
	}
	return strings.Join(parts, " ")
}

// DefaultPerPage is the page size used when none is requested.
const DefaultPerPage = 20

// Page is one page of an owner's hosts.
type Page struct {
	Items       []Host `json:"items"`
	Total       int    `json:"total"`
	PerPage     int    `json:"per_page"`
	CurrentPage int    `json:"current_page"`
	LastPage    int    `json:"last_page"`
}

// Paginate slices all into the requested page. Pages are 1-based.
func Paginate(all []Host, page, perPage int) Page {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if page <= 0 {
		page = 1
	}
	last := len(all) / perPage
	if len(all)%perPage != 0 {
		last++
	}
	if last == 0 {
		last = 1
	}

	p := Page{
		Items:       []Host{},
		Total:       len(all),
		PerPage:     perPage,
		CurrentPage: page,
		LastPage:    last,
	}
	if page > last {
		return p
	}
	start := (page - 1) * perPage
	end := len(all)
	if end-start > perPage {
		end = start + perPage
	}
	p.Items = append(p.Items, all[start:end]...)
	return p
}

const maxDomainLength = 255

var domainPattern = regexp.MustCompile(`^([a-z0-9-]+\.)+[a-z]{2,}$`)

// NormalizeDomain lowercases and validates a domain name.
func NormalizeDomain(domain string) (string, error) {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return "", errors.Validation("The domain field is required.")
	}
	if len(domain) > maxDomainLength {
		return "", errors.Validation("The domain field must not be greater than 255 characters.")
	}
	if !domainPattern.MatchString(domain) {
		return "", errors.Validation("The domain field format is invalid.")
	}
	for _, label := range strings.Split(domain, ".") {
		if strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
			return "", errors.Validation("The domain field format is invalid.")
		}
	}
	return domain, nil
}
