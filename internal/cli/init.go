package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ksyq12/vhostctl/internal/config"
	"github.com/ksyq12/vhostctl/internal/errors"
	"github.com/ksyq12/vhostctl/internal/platform"
)

var (
	initDriver string
	initForce  bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Long: `Write a configuration file with the default layout of the chosen driver.
A path ending in .toml is written as TOML, anything else as YAML.

Examples:
  vhostctl init
  vhostctl init --driver caddy --config /etc/vhostctl/config.toml`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVarP(&initDriver, "driver", "d", config.DefaultDriver, "Proxy driver (nginx-docker, nginx, apache, caddy)")
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing config file")

	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	if !platform.IsKnownDriver(initDriver) {
		return errors.Validation("Unknown driver " + initDriver + ".")
	}

	path, err := config.ConfigPath(configPath)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil && !initForce {
		return errors.Wrap(errors.ErrCodeConflict, "config file "+path+" already exists (use --force to overwrite)", nil)
	}

	cfg := config.NewForDriver(initDriver)
	if err := deps.ConfigLoader.Save(cfg, path); err != nil {
		return err
	}

	return outputResult(struct {
		CommandResult
		Path string `json:"path"`
	}{CommandResult{Success: true, Action: "init"}, path}, "Configuration written to %s", path)
}
