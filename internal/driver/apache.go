package driver

import "github.com/ksyq12/vhostctl/internal/platform"

// apacheCommands controls apache2 (Debian) with httpd (RHEL) as fallback.
func apacheCommands() Commands {
	return Commands{
		VerbStart:   {"systemctl start apache2", "systemctl start httpd"},
		VerbStop:    {"systemctl stop apache2", "systemctl stop httpd"},
		VerbRestart: {"systemctl restart apache2", "systemctl restart httpd"},
		VerbReload:  {"systemctl reload apache2", "systemctl reload httpd", "apachectl graceful"},
		VerbTest:    {"apachectl configtest"},
	}
}

// init registers the apache driver
func init() {
	register(platform.DriverApache, apacheCommands())
}
