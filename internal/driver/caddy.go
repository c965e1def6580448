package driver

import "github.com/ksyq12/vhostctl/internal/platform"

// caddyCommands controls caddy through systemd.
func caddyCommands() Commands {
	return Commands{
		VerbStart:   {"systemctl start caddy"},
		VerbStop:    {"systemctl stop caddy"},
		VerbRestart: {"systemctl restart caddy"},
		VerbReload:  {"systemctl reload caddy", "caddy reload --config /etc/caddy/Caddyfile"},
		VerbTest:    {"caddy validate --config /etc/caddy/Caddyfile"},
	}
}

// init registers the caddy driver
func init() {
	register(platform.DriverCaddy, caddyCommands())
}
