package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	var flags globalFlags

	rootCmd := &cobra.Command{
		Use:           "whatshtml",
		Short:         "Convert exported WhatsApp chats into browsable HTML",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "Config file (default ~/.config/whatshtml/config.toml)")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flags.logFormat, "log-format", "", "Log format: console or json")

	rootCmd.AddCommand(exportCmd(&flags))
	rootCmd.AddCommand(searchCmd(&flags))
	rootCmd.AddCommand(listCmd(&flags))
	rootCmd.AddCommand(previewCmd(&flags))
	rootCmd.AddCommand(openCmd(&flags))
	rootCmd.AddCommand(doctorCmd(&flags))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, describeError(err))
		os.Exit(exitCode(err))
	}
}
