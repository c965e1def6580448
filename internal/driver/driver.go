package driver

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"

	"github.com/ksyq12/vhostctl/internal/errors"
	"github.com/ksyq12/vhostctl/internal/executor"
	"github.com/ksyq12/vhostctl/internal/logger"
)

// Controller is the interface every webserver controller implements
type Controller interface {
	// Name returns the driver name (nginx-docker, nginx, apache, caddy)
	Name() string

	// Start starts the webserver
	Start(ctx context.Context) error

	// Stop stops the webserver
	Stop(ctx context.Context) error

	// Restart restarts the webserver
	Restart(ctx context.Context) error

	// Reload makes the webserver pick up configuration changes
	Reload(ctx context.Context) error
}

// Tester is implemented by controllers that can validate the
// webserver configuration without applying it.
type Tester interface {
	Test(ctx context.Context) error
}

// Verb names one process-control operation.
type Verb string

const (
	VerbStart   Verb = "start"
	VerbStop    Verb = "stop"
	VerbRestart Verb = "restart"
	VerbReload  Verb = "reload"
	VerbTest    Verb = "test"
)

// Verbs returns every verb a command set may define.
func Verbs() []Verb {
	return []Verb{VerbStart, VerbStop, VerbRestart, VerbReload, VerbTest}
}

// Commands maps a verb to its command lines. Lines are tried in order and
// the first one that exits 0 wins.
type Commands map[Verb][]string

// DefaultTimeout bounds each command when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// defaults holds the built-in command set per driver
var defaults = make(map[string]Commands)

// register adds a built-in command set
func register(name string, cmds Commands) {
	defaults[name] = cmds
}

// Defaults returns a copy of the built-in command set for name.
func Defaults(name string) (Commands, bool) {
	cmds, ok := defaults[name]
	if !ok {
		return nil, false
	}
	out := make(Commands, len(cmds))
	for verb, lines := range cmds {
		out[verb] = append([]string(nil), lines...)
	}
	return out, true
}

// Available returns all registered driver names
func Available() []string {
	names := make([]string, 0, len(defaults))
	for name := range defaults {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CommandController drives the webserver by running configured command lines
type CommandController struct {
	name    string
	cmds    Commands
	exec    executor.CommandExecutor
	timeout time.Duration
}

// New creates the controller for driver name. Each entry in overrides
// replaces the default command line for that verb.
func New(name string, overrides map[string]string, exec executor.CommandExecutor, timeout time.Duration) (*CommandController, error) {
	cmds, ok := Defaults(name)
	if !ok {
		return nil, fmt.Errorf("unknown driver: %s (available: %s)", name, strings.Join(Available(), ", "))
	}
	for verb, line := range overrides {
		if strings.TrimSpace(line) == "" {
			continue
		}
		cmds[Verb(verb)] = []string{line}
	}
	return NewWithCommands(name, cmds, exec, timeout), nil
}

// NewWithCommands creates a controller from an explicit command set.
func NewWithCommands(name string, cmds Commands, exec executor.CommandExecutor, timeout time.Duration) *CommandController {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if exec == nil {
		exec = executor.NewSystemExecutor()
	}
	return &CommandController{name: name, cmds: cmds, exec: exec, timeout: timeout}
}

// Name returns the driver name
func (c *CommandController) Name() string {
	return c.name
}

// Commands returns the command lines configured for verb.
func (c *CommandController) Commands(verb Verb) []string {
	return c.cmds[verb]
}

// Start starts the webserver
func (c *CommandController) Start(ctx context.Context) error {
	return c.run(ctx, VerbStart)
}

// Stop stops the webserver
func (c *CommandController) Stop(ctx context.Context) error {
	return c.run(ctx, VerbStop)
}

// Restart restarts the webserver
func (c *CommandController) Restart(ctx context.Context) error {
	return c.run(ctx, VerbRestart)
}

// Reload reloads the webserver to apply changes
func (c *CommandController) Reload(ctx context.Context) error {
	return c.run(ctx, VerbReload)
}

// Test validates the webserver config syntax
func (c *CommandController) Test(ctx context.Context) error {
	return c.run(ctx, VerbTest)
}

// run tries each command line for verb until one succeeds. The error of the
// last attempt is returned.
func (c *CommandController) run(ctx context.Context, verb Verb) error {
	lines := c.cmds[verb]
	if len(lines) == 0 {
		return errors.CommandFailed(fmt.Sprintf("No %s command is configured for %s.", verb, c.name), nil)
	}

	var lastErr error
	for _, line := range lines {
		lastErr = c.runLine(ctx, line)
		if lastErr == nil {
			return nil
		}
		logger.DebugFields("webserver command failed", map[string]interface{}{
			"driver":  c.name,
			"verb":    string(verb),
			"command": line,
			"error":   lastErr.Error(),
		})
	}
	return lastErr
}

func (c *CommandController) runLine(ctx context.Context, line string) error {
	args, err := shellquote.Split(line)
	if err != nil {
		return errors.CommandFailed("", fmt.Errorf("parse %q: %w", line, err))
	}
	if len(args) == 0 {
		return errors.CommandFailed("", fmt.Errorf("empty command line"))
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	res, err := c.exec.Execute(ctx, args[0], args[1:]...)
	logger.DebugFields("webserver command", map[string]interface{}{
		"command":  line,
		"exit":     res.ExitCode,
		"duration": time.Since(start).String(),
	})
	if err != nil {
		return errors.CommandFailed(res.Output(), err)
	}
	if !res.Success() {
		return errors.CommandFailed(res.Output(), fmt.Errorf("%s: exit status %d", args[0], res.ExitCode))
	}
	return nil
}
