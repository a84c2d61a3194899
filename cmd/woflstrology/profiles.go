package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"woflstrology/internal/notifier"
	"woflstrology/internal/profile"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage saved birth profiles",
}

var newProfile profile.Profile

var profileAddCmd = &cobra.Command{
	Use:     "add",
	Short:   "Save a birth profile",
	Example: `  woflstrology profile add --name Ada --born "1990-08-01 14:30" --place London --subscribe`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := profiles.Add(newProfile); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved profile %s.\n", newProfile.Name)
		return nil
	},
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved profiles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return printMarkdown(cmd.OutOrStdout(), notifier.FormatProfiles(profiles.List()))
	},
}

var profileRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Delete a saved profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := profiles.Remove(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed profile %s.\n", args[0])
		return nil
	},
}

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently generated readings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		events, err := history.Recent(historyLimit)
		if err != nil {
			return err
		}
		return printMarkdown(cmd.OutOrStdout(), notifier.FormatHistory(events))
	},
}

func init() {
	profileAddCmd.Flags().StringVar(&newProfile.Name, "name", "", "Profile name (required)")
	profileAddCmd.Flags().StringVar(&newProfile.Born, "born", "", `Birth time as "YYYY-MM-DD HH:MM" local time (required)`)
	profileAddCmd.Flags().StringVar(&newProfile.Place, "place", "", "Birthplace")
	profileAddCmd.Flags().BoolVar(&newProfile.Subscribed, "subscribe", false, "Receive scheduled readings from the daemon")
	profileAddCmd.Flags().StringVar(&newProfile.ChatID, "chat-id", "", "Telegram chat for scheduled readings (default: telegram.chat_id)")
	profileAddCmd.MarkFlagRequired("name")
	profileAddCmd.MarkFlagRequired("born")

	profileCmd.AddCommand(profileAddCmd)
	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileRemoveCmd)

	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "Number of readings to show")
}
