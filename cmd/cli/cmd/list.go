package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List assignments",
	Long: `List assignments, newest first.

Example:
  scoutctl list
  scoutctl list --status failed --limit 10`,
	Run: func(cmd *cobra.Command, args []string) {
		flags := cmd.Flags()
		status, _ := flags.GetString("status")
		limit, _ := flags.GetInt("limit")

		url := viper.GetString("url")
		user := viper.GetString("user")

		if user == "" {
			cmd.Println("User ID not found. Please set it using the --user flag or the SCOUT_USER environment variable")
			return
		}

		client := NewScoutClient(url, user)
		assignments, err := client.ListAssignments(status, limit)
		if err != nil {
			if apiErr, ok := err.(*APIError); ok {
				cmd.Printf("Error (%d): %s\n", apiErr.StatusCode, apiErr.Message)
			} else {
				cmd.Printf("Error: %v\n", err)
			}
			return
		}

		if len(assignments) == 0 {
			cmd.Println("No assignments found.")
			return
		}

		for _, a := range assignments {
			cmd.Printf("%s  %s  %s%s%s\n", colorizeStatus(a.Status), a.ID, colorBold, a.Title, colorReset)
		}
	},
}

func init() {
	flags := listCmd.Flags()
	flags.StringP("status", "s", "", "Filter by status: pending, in_progress, completed or failed")
	flags.IntP("limit", "l", 0, "Maximum number of assignments to return")

	rootCmd.AddCommand(listCmd)
}
