package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/stress-dost/internal/api"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "stressdost",
	Short: "Stress Dost adaptive exam-stress engine",
	Long: `Stress Dost runs timed practice sessions that interleave main questions with
short stress popups. Popups are picked per student from a tagged dataset or a
generation service, and every answer moves the fear, thoughts and frustration
meters and the question difficulty.

Configuration is read from --config (YAML), then STRESSDOST_* environment
variables, then a .env file in the working directory.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the server version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), api.Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
