package driver

import "github.com/ksyq12/vhostctl/internal/platform"

// Container name used by the nginx-docker driver.
const DockerContainer = "nginx-hosts"

// nginxDockerCommands controls an nginx running in a docker container.
func nginxDockerCommands() Commands {
	return Commands{
		VerbStart:   {"docker start " + DockerContainer},
		VerbStop:    {"docker stop " + DockerContainer},
		VerbRestart: {"docker restart " + DockerContainer},
		VerbReload:  {"docker exec " + DockerContainer + " nginx -s reload"},
		VerbTest:    {"docker exec " + DockerContainer + " nginx -t"},
	}
}

// nginxCommands controls a host nginx. Reload falls back to signalling the
// master process when systemd is not managing it.
func nginxCommands() Commands {
	return Commands{
		VerbStart:   {"systemctl start nginx"},
		VerbStop:    {"systemctl stop nginx"},
		VerbRestart: {"systemctl restart nginx"},
		VerbReload:  {"systemctl reload nginx", "nginx -s reload"},
		VerbTest:    {"nginx -t"},
	}
}

// init registers the nginx drivers
func init() {
	register(platform.DriverNginxDocker, nginxDockerCommands())
	register(platform.DriverNginx, nginxCommands())
}
