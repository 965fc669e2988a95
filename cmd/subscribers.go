package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mzhao129/facility-notifier/internal/store"
)

var subscribersCmd = &cobra.Command{
	Use:   "subscribers",
	Short: "List the Telegram chats subscribed to updates",
	Long: `Prints the chat IDs currently stored in the subscriber list, one per
line. The list changes as chats send /subscribe and /unsubscribe to the
bot or block it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		kv, err := store.Open(cfg.Store)
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		defer kv.Close()

		subs, err := store.NewState(kv).Subscribers(context.Background())
		if err != nil {
			return err
		}
		if len(subs) == 0 {
			fmt.Println("No subscribers.")
			return nil
		}
		for _, chatID := range subs {
			fmt.Println(chatID)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(subscribersCmd)
}
