package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ksyq12/vhostctl/internal/errors"
	"github.com/ksyq12/vhostctl/internal/logger"
	"github.com/ksyq12/vhostctl/internal/output"
)

var (
	configPath string
	jsonOutput bool
	verbose    bool
	version    = "dev"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "vhostctl",
	Short: "Virtual host lifecycle orchestrator",
	Long: `vhostctl provisions loopback virtual hosts behind a reverse proxy.

Each host gets a document root, a proxy configuration in the available and
enabled directories, and a unique port. Ports of deleted hosts are reused
before fresh ones are handed out. Supported proxies: nginx (docker or host),
Apache and Caddy.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() {
	// Initialize logger based on verbose flag (parsed by cobra)
	cobra.OnInitialize(func() {
		logger.Init(verbose)
	})

	err := rootCmd.Execute()
	_ = logger.Sync()
	if err != nil {
		output.Error("%v", err)
		os.Exit(errors.ExitCode(err))
	}
}

// SetVersion sets the version string for the CLI
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default $VHOSTCTL_CONFIG or ~/.config/vhostctl/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging for debugging")
}
