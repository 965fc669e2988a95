package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mzhao129/facility-notifier/internal/config"
)

var initPrint bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a facnotify configuration with an interactive wizard",
	Long: `Runs an interactive wizard asking for your timezone, storage backend, and
notification channels, then writes the config file. The two default event
configurations for the CIF Arena are included; edit the file to track
other facilities. With --print, an annotated example config is written to
stdout instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if initPrint {
			example, err := config.ExampleYAML()
			if err != nil {
				return err
			}
			fmt.Print(example)
			return nil
		}
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	initCmd.Flags().BoolVar(&initPrint, "print", false, "print an example config instead of running the wizard")
	rootCmd.AddCommand(initCmd)
}
