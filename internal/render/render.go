// Package render produces the placeholder document and the proxy
// configuration file for a host from templates embedded in the binary.
//
// One proxy template exists per technology:
//
//	templates/nginx.conf.tmpl   (nginx and nginx-docker)
//	templates/apache.conf.tmpl
//	templates/caddy.conf.tmpl
//
// Templates receive ConfigData. The placeholder page receives DocumentData.
package render

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"text/template"

	"github.com/ksyq12/vhostctl/internal/platform"
)

//go:embed templates/*.tmpl
var templates embed.FS

// DocumentRenderer renders the placeholder document for a new host.
type DocumentRenderer interface {
	RenderDocument(domain string) ([]byte, error)
}

// ConfigRenderer renders the proxy configuration for a host.
type ConfigRenderer interface {
	RenderProxyConfig(domain string, port int, documentRoot string) ([]byte, error)
}

// DocumentData contains data for the placeholder page
type DocumentData struct {
	Domain string
}

// ConfigData contains data for rendering proxy templates
type ConfigData struct {
	Domain string
	Port   int
	Root   string
}

// Renderer implements DocumentRenderer and ConfigRenderer for one driver.
type Renderer struct {
	driver string
	config *template.Template
	doc    *htmltemplate.Template
}

// New parses the templates for driverName.
func New(driverName string) (*Renderer, error) {
	name, err := templateFor(driverName)
	if err != nil {
		return nil, err
	}

	content, err := templates.ReadFile("templates/" + name)
	if err != nil {
		return nil, fmt.Errorf("template not found: %s", name)
	}
	cfg, err := template.New(name).Option("missingkey=error").Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}

	doc, err := htmltemplate.ParseFS(templates, "templates/index.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}

	return &Renderer{driver: driverName, config: cfg, doc: doc}, nil
}

// Driver returns the driver the renderer was built for.
func (r *Renderer) Driver() string {
	return r.driver
}

// RenderDocument renders the placeholder index page.
func (r *Renderer) RenderDocument(domain string) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.doc.Execute(&buf, DocumentData{Domain: domain}); err != nil {
		return nil, fmt.Errorf("failed to render template: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderProxyConfig renders the proxy configuration file.
func (r *Renderer) RenderProxyConfig(domain string, port int, documentRoot string) ([]byte, error) {
	var buf bytes.Buffer
	data := ConfigData{Domain: domain, Port: port, Root: documentRoot}
	if err := r.config.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render template: %w", err)
	}
	return buf.Bytes(), nil
}

func templateFor(driverName string) (string, error) {
	switch driverName {
	case platform.DriverNginx, platform.DriverNginxDocker:
		return "nginx.conf.tmpl", nil
	case platform.DriverApache:
		return "apache.conf.tmpl", nil
	case platform.DriverCaddy:
		return "caddy.conf.tmpl", nil
	default:
		return "", fmt.Errorf("unknown driver: %s", driverName)
	}
}
