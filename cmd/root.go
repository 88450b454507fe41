package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the dayglance application
var rootCmd = &cobra.Command{
	Use:   "dayglance",
	Short: "A calendar glance service with AI-generated event annotations",
	Long: `dayglance is a small web service that signs a user in with Google,
serves their calendar as day-bucketed views and annotates individual
events with AI-generated text, caching annotations on disk.`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "dayglance version %s\n" .Version}}`)

	// If no subcommand is provided, run the serve command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
}
