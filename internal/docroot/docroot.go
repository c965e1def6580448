// Package docroot manages the per-host document root directory and its
// placeholder page.
package docroot

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

// DefaultPlaceholder is the file written into every new document root.
const DefaultPlaceholder = "index.html"

// File modes for created artifacts.
const (
	DirMode  os.FileMode = 0775
	FileMode os.FileMode = 0664
)

// Manager creates and removes <Root>/<domain>.
type Manager struct {
	Root            string
	Renderer        render.DocumentRenderer
	PlaceholderName string
}

// New creates a Manager writing the default placeholder.
func New(root string, r render.DocumentRenderer) *Manager {
	return &Manager{Root: root, Renderer: r, PlaceholderName: DefaultPlaceholder}
}

// Path returns the document root for domain. The result never leaves Root.
func (m *Manager) Path(domain string) (string, error) {
	p, err := securejoin.SecureJoin(m.Root, domain)
	if err != nil {
		return "", fmt.Errorf("failed to resolve document root: %w", err)
	}
	if filepath.Clean(p) == filepath.Clean(m.Root) {
		return "", fmt.Errorf("invalid document root name %q", domain)
	}
	return p, nil
}

func (m *Manager) placeholder() string {
	if m.PlaceholderName == "" {
		return DefaultPlaceholder
	}
	return m.PlaceholderName
}

// Create makes the document root and writes the rendered placeholder.
// Every failure is a DIRECTORY_NOT_CREATED error; the not-writable and
// already-exists cases wrap ErrDirectoryNotWritable and
// ErrDirectoryAlreadyExists respectively.
func (m *Manager) Create(domain string) error {
	if !writable(m.Root) {
		return errors.DirectoryNotCreated(domain,
			fmt.Errorf("directory %s: %w", m.Root, errors.ErrDirectoryNotWritable))
	}

	dir, err := m.Path(domain)
	if err != nil {
		return errors.DirectoryNotCreated(domain, err)
	}
	if _, err := os.Lstat(dir); err == nil {
		return errors.DirectoryNotCreated(domain,
			fmt.Errorf("directory %s: %w", dir, errors.ErrDirectoryAlreadyExists))
	}

	if err := os.MkdirAll(dir, DirMode); err != nil {
		return errors.DirectoryNotCreated(domain, fmt.Errorf("failed to create directory: %w", err))
	}

	content, err := m.Renderer.RenderDocument(domain)
	if err != nil {
		return errors.DirectoryNotCreated(domain, err)
	}
	if err := os.WriteFile(filepath.Join(dir, m.placeholder()), content, FileMode); err != nil {
		return errors.DirectoryNotCreated(domain, fmt.Errorf("failed to write placeholder: %w", err))
	}
	return nil
}

// Delete removes the placeholder and the directory. Anything else the
// directory holds makes the removal fail and is left untouched.
func (m *Manager) Delete(domain string) (host.Outcome, error) {
	dir, err := m.Path(domain)
	if err != nil {
		return host.Failed, err
	}

	info, err := os.Lstat(dir)
	if os.IsNotExist(err) {
		return host.Absent, nil
	}
	if err != nil {
		return host.Failed, err
	}
	if !info.IsDir() {
		return host.Failed, fmt.Errorf("%s is not a directory", dir)
	}
	if !writable(dir) {
		return host.Failed, fmt.Errorf("directory %s: %w", dir, errors.ErrDirectoryNotWritable)
	}

	file := filepath.Join(dir, m.placeholder())
	if _, err := os.Lstat(file); err == nil && writable(file) {
		if err := os.Remove(file); err != nil {
			return host.Failed, fmt.Errorf("failed to remove placeholder: %w", err)
		}
	}

	if err := os.Remove(dir); err != nil {
		return host.Failed, fmt.Errorf("failed to remove directory: %w", err)
	}
	return host.Removed, nil
}

// Exists reports whether the document root is present.
func (m *Manager) Exists(domain string) bool {
	dir, err := m.Path(domain)
	if err != nil {
		return false
	}
	info, err := os.Stat(dir)
	return err == nil && info.IsDir()
}

// Writable reports whether new document roots can be created.
func (m *Manager) Writable() bool {
	return writable(m.Root)
}

func writable(path string) bool {
	return unix.Access(path, unix.W_OK) == nil
}
