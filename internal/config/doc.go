// Package config loads and saves the vhostctl configuration.
//
// The file is located through, in order, the --config flag, the
// VHOSTCTL_CONFIG environment variable and ~/.config/vhostctl/config.yaml.
// Files ending in .toml are parsed as TOML, everything else as YAML. A
// missing file yields the defaults for the nginx-docker driver.
//
// Example config.yaml:
//
//	driver: nginx-docker
//	port_floor: 8082
//	paths:
//	  content_root: /var/www/hosts
//	  available: /etc/nginx-hosts/conf.d/sites-available
//	  enabled: /etc/nginx-hosts/conf.d/sites-enabled
//	webserver:
//	  timeout: 30s
//	  commands:
//	    reload: docker exec nginx-hosts nginx -s reload
//	store:
//	  driver: redis
//	  redis_url: redis://127.0.0.1:6379/0
//	audit:
//	  sink: file
//	  path: /var/lib/vhostctl/audit.jsonl
//	server:
//	  listen: 127.0.0.1:8080
//
// Paths left empty are filled from the driver's platform layout, so
// switching driver alone is enough to target a different webserver.
//
// Config values are NOT safe for concurrent mutation.
package config
