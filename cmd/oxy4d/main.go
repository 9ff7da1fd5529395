// Command oxy4d renders regular 4D polytopes, either headless to a PNG or live in a window.
package main

import (
	"fmt"
	"os"

	"github.com/Carmen-Shannon/oxy4d/engine/config"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool

	// cfg is resolved by the root command before any subcommand runs.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "oxy4d",
	Short: "Rotate, project and draw 4D polytopes",
	Long: `oxy4d rotates regular 4D polytopes in the six planes of 4-space, projects them to 3D
and draws them through the webgl (raster) or webgpu (pipeline) backend.

Configuration is read from --config (YAML or TOML) and OXY4D_* environment variables.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if err := loaded.Validate(); err != nil {
			return err
		}
		cfg = loaded

		log.SetLevel(cfg.Level())
		if verbose {
			log.SetLevel(log.DebugLevel)
		}
		log.SetReportTimestamp(true)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (.yaml, .yml or .toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
