package cli

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/ksyq12/vhostctl/internal/driver"
	"github.com/ksyq12/vhostctl/internal/errors"
)

func TestRunWebserver(t *testing.T) {
	for _, verb := range driver.Verbs() {
		t.Run(string(verb), func(t *testing.T) {
			env := newTestEnv(t)

			if err := runWebserver(nil, []string{string(verb)}); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if env.ctrl.Count(verb) != 1 {
				t.Errorf("expected 1 %s call, got %d", verb, env.ctrl.Count(verb))
			}
			if !strings.Contains(env.out.String(), "Command has been completed successfully.") {
				t.Errorf("unexpected output:\n%s", env.out.String())
			}
		})
	}

	t.Run("unknown verb", func(t *testing.T) {
		env := newTestEnv(t)
		err := runWebserver(nil, []string{"bounce"})
		if errors.CodeOf(err) != errors.ErrCodeValidation {
			t.Errorf("expected validation error, got %v", err)
		}
		if len(env.ctrl.Calls) != 0 {
			t.Errorf("no command should run, got %v", env.ctrl.Calls)
		}
	})

	t.Run("command failure", func(t *testing.T) {
		env := newTestEnv(t)
		env.ctrl.RestartFunc = func(ctx context.Context) error {
			return errors.CommandFailed("container not found", fmt.Errorf("exit status 1"))
		}
		err := runWebserver(nil, []string{"restart"})
		if errors.ExitCode(err) != errors.ExitCommandFailed {
			t.Errorf("expected command failure exit code, got %v", err)
		}
	})

	t.Run("json", func(t *testing.T) {
		env := newTestEnv(t)
		jsonOutput = true
		if err := runWebserver(nil, []string{"reload"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var result CommandResult
		env.decode(t, &result)
		if !result.Success || result.Action != "reload" {
			t.Errorf("unexpected result %+v", result)
		}
	})
}
