package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "facnotify",
	Short: "Facility booking calendar notifier",
	Long: `Facnotify polls the UWaterloo facility booking calendar, diffs the
upcoming sessions of each tracked event type against the last poll, and
announces new or cancelled sessions to Discord webhooks and Telegram
subscribers.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "facnotify.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose console logging")
}
