// Package siteconf manages the pair of proxy configuration files
// (<available>/<domain>.conf and <enabled>/<domain>.conf) for a host.
package siteconf

import (
	"fmt"
	"os"
	"path/filepath"

	securejoin "github.com/cyphar/filepath-securejoin"
	"golang.org/x/sys/unix"

	"github.com/ksyq12/vhostctl/internal/errors"
	"github.com/ksyq12/vhostctl/internal/host"
	"github.com/ksyq12/vhostctl/internal/render"
)

// Extension is appended to the domain to form the file name.
const Extension = ".conf"

// FileMode is the mode of written configuration files.
const FileMode os.FileMode = 0644

// Manager writes identical configuration files into Available and Enabled.
type Manager struct {
	Available string
	Enabled   string
	Renderer  render.ConfigRenderer
}

// New creates a Manager.
func New(available, enabled string, r render.ConfigRenderer) *Manager {
	return &Manager{Available: available, Enabled: enabled, Renderer: r}
}

// Paths returns the available and enabled file paths for domain.
func (m *Manager) Paths(domain string) (available, enabled string, err error) {
	name := domain + Extension
	if available, err = securejoin.SecureJoin(m.Available, name); err != nil {
		return "", "", fmt.Errorf("failed to resolve config path: %w", err)
	}
	if enabled, err = securejoin.SecureJoin(m.Enabled, name); err != nil {
		return "", "", fmt.Errorf("failed to resolve config path: %w", err)
	}
	return available, enabled, nil
}

// Create renders the configuration and writes it to both directories.
// If the enabled copy cannot be written the available copy is removed
// again, so a failed Create leaves no file behind.
func (m *Manager) Create(domain string, port int, documentRoot string) error {
	available, enabled, err := m.Paths(domain)
	if err != nil {
		return errors.ConfigNotCreated(domain, err)
	}
	if _, err := os.Lstat(available); err == nil {
		return errors.ConfigNotCreated(domain,
			fmt.Errorf("file %s: %w", available, errors.ErrConfigAlreadyExists))
	}

	content, err := m.Renderer.RenderProxyConfig(domain, port, documentRoot)
	if err != nil {
		return errors.ConfigNotCreated(domain, err)
	}

	if err := os.WriteFile(available, content, FileMode); err != nil {
		return errors.ConfigNotCreated(domain, fmt.Errorf("failed to write config: %w", err))
	}
	if err := os.WriteFile(enabled, content, FileMode); err != nil {
		_ = os.Remove(available)
		return errors.ConfigNotCreated(domain, fmt.Errorf("failed to enable config: %w", err))
	}
	return nil
}

// Delete removes both files. The outcome is Removed only when both files
// existed and were unlinked. A lone leftover copy is still unlinked but
// reported as Failed.
func (m *Manager) Delete(domain string) (host.Outcome, error) {
	available, enabled, err := m.Paths(domain)
	if err != nil {
		return host.Failed, err
	}

	hasAvailable := exists(available)
	hasEnabled := exists(enabled)
	if !hasAvailable && !hasEnabled {
		return host.Absent, nil
	}

	var firstErr error
	for _, p := range []string{available, enabled} {
		if !exists(p) {
			continue
		}
		if err := remove(p); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if firstErr != nil {
		return host.Failed, firstErr
	}
	if !hasAvailable || !hasEnabled {
		return host.Failed, fmt.Errorf("configuration for %s was only partially present", domain)
	}
	return host.Removed, nil
}

// Exists reports which of the two files are present.
func (m *Manager) Exists(domain string) (available, enabled bool) {
	a, e, err := m.Paths(domain)
	if err != nil {
		return false, false
	}
	return exists(a), exists(e)
}

// Writable reports whether both directories accept new files.
func (m *Manager) Writable() (available, enabled bool) {
	return writable(m.Available), writable(m.Enabled)
}

func remove(path string) error {
	if !writable(filepath.Dir(path)) {
		return fmt.Errorf("directory %s is not writable", filepath.Dir(path))
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

func writable(path string) bool {
	return unix.Access(path, unix.W_OK) == nil
}
