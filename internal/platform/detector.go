// Package platform provides the default on-disk layout for each supported
// reverse-proxy technology.
package platform

import (
	"fmt"
	"os"
	"runtime"
)

// Supported proxy technologies.
const (
	DriverNginxDocker = "nginx-docker"
	DriverNginx       = "nginx"
	DriverApache      = "apache"
	DriverCaddy       = "caddy"
)

// Drivers returns all supported driver names.
func Drivers() []string {
	return []string{DriverNginxDocker, DriverNginx, DriverApache, DriverCaddy}
}

// IsKnownDriver reports whether name is a supported driver.
func IsKnownDriver(name string) bool {
	for _, d := range Drivers() {
		if d == name {
			return true
		}
	}
	return false
}

// Layout is the filesystem layout the orchestrator writes into.
type Layout struct {
	ContentRoot string // document roots, one directory per domain
	Available   string // proxy config "available" directory
	Enabled     string // proxy config "enabled" directory
}

// DefaultStateDir holds the file store and audit log unless configured otherwise.
const DefaultStateDir = "/var/lib/vhostctl"

// DetectLayout returns the default layout for driver on the current OS.
func DetectLayout(driver string) (Layout, error) {
	if !IsKnownDriver(driver) {
		return Layout{}, fmt.Errorf("unknown driver: %s (available: nginx-docker, nginx, apache, caddy)", driver)
	}
	switch runtime.GOOS {
	case "darwin":
		return darwinLayout(driver)
	case "linux":
		return linuxLayout(driver), nil
	default:
		return Layout{}, fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}

// darwinLayout uses the Homebrew prefix, Apple Silicon first.
func darwinLayout(driver string) (Layout, error) {
	prefix := ""
	switch {
	case pathExists("/opt/homebrew"):
		prefix = "/opt/homebrew"
	case pathExists("/usr/local"):
		prefix = "/usr/local"
	default:
		return Layout{}, fmt.Errorf("homebrew installation not found (checked /opt/homebrew and /usr/local)")
	}

	l := Layout{ContentRoot: prefix + "/var/www/hosts"}
	switch driver {
	case DriverApache:
		l.Available = prefix + "/etc/httpd/extra/sites-available"
		l.Enabled = prefix + "/etc/httpd/extra/sites-enabled"
	case DriverCaddy:
		l.Available = prefix + "/etc/caddy/sites-available"
		l.Enabled = prefix + "/etc/caddy/sites-enabled"
	default:
		l.Available = prefix + "/etc/nginx/sites-available"
		l.Enabled = prefix + "/etc/nginx/sites-enabled"
	}
	return l, nil
}

func linuxLayout(driver string) Layout {
	l := Layout{ContentRoot: "/var/www/hosts"}
	switch driver {
	case DriverNginxDocker:
		l.Available = "/etc/nginx-hosts/conf.d/sites-available"
		l.Enabled = "/etc/nginx-hosts/conf.d/sites-enabled"
	case DriverNginx:
		l.Available = "/etc/nginx/sites-available"
		l.Enabled = "/etc/nginx/sites-enabled"
	case DriverApache:
		// RHEL ships httpd without a2ensite; fall back to its conf.d split.
		if pathExists("/etc/httpd") && !pathExists("/etc/apache2") {
			l.Available = "/etc/httpd/sites-available"
			l.Enabled = "/etc/httpd/sites-enabled"
		} else {
			l.Available = "/etc/apache2/sites-available"
			l.Enabled = "/etc/apache2/sites-enabled"
		}
	case DriverCaddy:
		l.Available = "/etc/caddy/sites-available"
		l.Enabled = "/etc/caddy/sites-enabled"
	}
	return l
}

// pathExists checks if a path exists on the filesystem.
func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Platform returns a string describing the current platform.
func Platform() string {
	return fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)
}
