package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nerrad567/vesta-core/internal/infrastructure/config"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"

	configPath string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vesta",
	Short: "Vesta - voice-assisted room controller",
	Long: `Vesta drives a LED and a PWM fan from a serial sensor board, with
voice and dashboard control, action history and on-device learning.

Run "vesta serve" to start the service.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
	FParseErrWhitelist: cobra.FParseErrWhitelist{},
}

// Execute runs the root command. Called once by main.main().
func Execute() error {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"config file (default $VESTA_CONFIG or "+defaultConfigPath+")")
}

// getConfigPath returns the configuration file path.
// The --config flag wins, then VESTA_CONFIG, then the default.
func getConfigPath() string {
	if configPath != "" {
		return configPath
	}
	if path := os.Getenv("VESTA_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// loadConfigOrDefault loads the config file when it exists and falls back to
// built-in defaults otherwise. Offline tools use it; serve requires a file.
func loadConfigOrDefault() (*config.Config, error) {
	path := getConfigPath()
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return config.Default(), nil
		}
		return nil, fmt.Errorf("checking config file: %w", err)
	}
	return config.Load(path)
}
