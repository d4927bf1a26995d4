package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var notificationsCmd = &cobra.Command{
	Use:     "notifications",
	Aliases: []string{"inbox"},
	Short:   "List your notifications",
	Long:    `List notifications for completed research assignments, newest first.`,
	Run: func(cmd *cobra.Command, args []string) {
		flags := cmd.Flags()
		limit, _ := flags.GetInt("limit")

		url := viper.GetString("url")
		user := viper.GetString("user")

		if user == "" {
			cmd.Println("User ID not found. Please set it using the --user flag or the SCOUT_USER environment variable")
			return
		}

		client := NewScoutClient(url, user)
		notifications, err := client.ListNotifications(limit)
		if err != nil {
			if apiErr, ok := err.(*APIError); ok {
				cmd.Printf("Error (%d): %s\n", apiErr.StatusCode, apiErr.Message)
			} else {
				cmd.Printf("Error: %v\n", err)
			}
			return
		}

		if len(notifications) == 0 {
			cmd.Println("No notifications.")
			return
		}

		for _, n := range notifications {
			cmd.Printf("%s%s%s %s(%s ago)%s\n  %s\n", colorBold, n.Title, colorReset,
				colorDim, relativeTime(n.CreatedAt), colorReset, n.Body)
		}
	},
}

func init() {
	notificationsCmd.Flags().IntP("limit", "l", 0, "Maximum number of notifications to return")

	rootCmd.AddCommand(notificationsCmd)
}
