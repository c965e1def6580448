package cli

import (
	"context"
	"testing"

	"github.com/spf13/cobra"
)

func TestRunServeStopsOnCancel(t *testing.T) {
	newTestEnv(t)
	serveListen = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cmd := &cobra.Command{}
	cmd.SetContext(ctx)

	if err := runServe(cmd, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRootCommands(t *testing.T) {
	want := []string{"add", "remove", "list", "show", "webserver", "reconcile", "doctor", "serve", "init", "events"}
	registered := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		registered[c.Name()] = true
	}
	for _, name := range want {
		if !registered[name] {
			t.Errorf("command %q is not registered", name)
		}
	}
}
