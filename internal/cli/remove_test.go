package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ksyq12/vhostctl/internal/driver"
	"github.com/ksyq12/vhostctl/internal/errors"
)

func TestRunRemove(t *testing.T) {
	tests := []struct {
		name        string
		target      string
		stdin       string
		force       bool
		owner       int64
		wantCode    errors.ErrorCode
		wantRemoved bool
		wantOutput  string
	}{
		{
			name:        "confirmed by domain",
			target:      "example.test",
			stdin:       "y\n",
			wantRemoved: true,
			wantOutput:  "Virtual host has been deleted.",
		},
		{
			name:        "confirmed by id",
			target:      "1",
			stdin:       "yes\n",
			wantRemoved: true,
		},
		{
			name:       "declined",
			target:     "example.test",
			stdin:      "n\n",
			wantOutput: "Removal cancelled",
		},
		{
			name:       "no answer",
			target:     "example.test",
			stdin:      "",
			wantOutput: "Removal cancelled",
		},
		{
			name:        "forced",
			target:      "EXAMPLE.test",
			force:       true,
			wantRemoved: true,
		},
		{
			name:     "unknown domain",
			target:   "missing.test",
			force:    true,
			wantCode: errors.ErrCodeNotFound,
		},
		{
			name:     "other owner",
			target:   "example.test",
			owner:    2,
			force:    true,
			wantCode: errors.ErrCodeNotFound,
		},
		{
			name:     "zero id",
			target:   "0",
			wantCode: errors.ErrCodeValidation,
		},
		{
			name:     "invalid domain",
			target:   "bad_domain",
			wantCode: errors.ErrCodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.add(t, "example.test", 1)
			env.out.Reset()
			env.ctrl.Reset()

			deps.StdinReader = &MockStdinReader{Input: tt.stdin}
			forceRemove = tt.force
			removeOwner = tt.owner

			err := runRemove(nil, []string{tt.target})

			if tt.wantCode != "" {
				if errors.CodeOf(err) != tt.wantCode {
					t.Fatalf("expected %s, got %v", tt.wantCode, err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			out := env.out.String()
			if tt.wantOutput != "" && !strings.Contains(out, tt.wantOutput) {
				t.Errorf("output missing %q:\n%s", tt.wantOutput, out)
			}
			if tt.force && strings.Contains(out, "[y/N]") {
				t.Error("forced removal must not prompt")
			}

			_, statErr := os.Stat(filepath.Join(env.cfg.Paths.ContentRoot, "example.test"))
			if removed := os.IsNotExist(statErr); removed != tt.wantRemoved {
				t.Errorf("document root removed = %v, want %v", removed, tt.wantRemoved)
			}
			if tt.wantRemoved && env.ctrl.Count(driver.VerbReload) != 1 {
				t.Errorf("expected 1 reload, got %d", env.ctrl.Count(driver.VerbReload))
			}
		})
	}
}

func TestRunRemoveReusesPort(t *testing.T) {
	env := newTestEnv(t)
	env.add(t, "a.example.test", 1)
	env.add(t, "b.example.test", 1)

	forceRemove = true
	if err := runRemove(nil, []string{"a.example.test"}); err != nil {
		t.Fatalf("remove: %v", err)
	}
	env.out.Reset()

	jsonOutput = true
	env.add(t, "c.example.test", 1)
	var result HostResult
	env.decode(t, &result)
	if result.Port != 8082 {
		t.Errorf("expected reclaimed port 8082, got %d", result.Port)
	}
}
