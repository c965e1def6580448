package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ksyq12/vhostctl/internal/config"
	"github.com/ksyq12/vhostctl/internal/errors"
)

func TestRunInit(t *testing.T) {
	tests := []struct {
		name       string
		driver     string
		force      bool
		existing   bool
		wantCode   errors.ErrorCode
		wantSaved  bool
		wantDriver string
	}{
		{name: "default driver", driver: config.DefaultDriver, wantSaved: true, wantDriver: config.DefaultDriver},
		{name: "caddy", driver: "caddy", wantSaved: true, wantDriver: "caddy"},
		{name: "unknown driver", driver: "lighttpd", wantCode: errors.ErrCodeValidation},
		{name: "existing file", driver: "nginx", existing: true, wantCode: errors.ErrCodeConflict},
		{name: "existing file forced", driver: "nginx", existing: true, force: true, wantSaved: true, wantDriver: "nginx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			loader := &MockConfigLoader{}
			deps.ConfigLoader = loader

			configPath = filepath.Join(env.dir, "etc", "config.yaml")
			if tt.existing {
				if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
					t.Fatal(err)
				}
				if err := os.WriteFile(configPath, []byte("driver: nginx\n"), 0644); err != nil {
					t.Fatal(err)
				}
			}
			initDriver = tt.driver
			initForce = tt.force

			err := runInit(nil, nil)

			if tt.wantCode != "" {
				if errors.CodeOf(err) != tt.wantCode {
					t.Fatalf("expected %s, got %v", tt.wantCode, err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if saved := loader.SaveCalls == 1; saved != tt.wantSaved {
				t.Fatalf("saved = %v, want %v", saved, tt.wantSaved)
			}
			if !tt.wantSaved {
				return
			}
			if loader.SavedPath != configPath {
				t.Errorf("SavedPath = %q, want %q", loader.SavedPath, configPath)
			}
			if loader.Cfg.Driver != tt.wantDriver {
				t.Errorf("Driver = %q, want %q", loader.Cfg.Driver, tt.wantDriver)
			}
			if err := loader.Cfg.Validate(); err != nil {
				t.Errorf("written config must be valid: %v", err)
			}
		})
	}
}

func TestRunInitWritesLoadableFile(t *testing.T) {
	env := newTestEnv(t)
	deps.ConfigLoader = &realConfigLoader{}
	configPath = filepath.Join(env.dir, "config.toml")
	initDriver = "apache"

	if err := runInit(nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Driver != "apache" || cfg.PortFloor != config.DefaultPortFloor {
		t.Errorf("unexpected config %+v", cfg)
	}
}
