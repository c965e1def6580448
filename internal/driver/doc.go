// Package driver controls the shared reverse-proxy webserver process.
//
// Every supported technology (nginx-docker, nginx, apache, caddy) is a
// CommandController with its own default command set. Each verb maps to
// one or more command lines; lines are split with shell quoting rules,
// run through an executor.CommandExecutor and tried in order until one
// exits 0.
//
// # Basic Usage
//
//	ctrl, err := driver.New("nginx-docker", nil, executor.NewSystemExecutor(), 30*time.Second)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := ctrl.Reload(ctx); err != nil {
//	    // err is a COMMAND_FAILED HostError carrying the command output
//	}
//
// Command lines can be replaced per verb, typically from configuration:
//
//	ctrl, err := driver.New("nginx", map[string]string{
//	    "reload": "sudo -n /usr/sbin/nginx -s reload",
//	}, exec, timeout)
//
// # Testing
//
// Pass an executor.MockExecutor to observe the command lines without
// running anything, or use MockController where a Controller is needed.
//
// # Error Handling
//
// A spawn failure, a non-zero exit or an expired timeout is reported as
// errors.CommandFailed with the trimmed stderr (else stdout) as message.
package driver
