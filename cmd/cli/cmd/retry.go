package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var retryCmd = &cobra.Command{
	Use:   "retry [assignment_id]",
	Short: "Retry a failed assignment",
	Long: `Re-enqueue a failed assignment for another research attempt. Only
assignments in the failed state with attempts left can be retried.

Example:
  scoutctl retry 3f7c1d2e-...`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		assignmentID := args[0]

		url := viper.GetString("url")
		user := viper.GetString("user")

		if user == "" {
			cmd.Println("User ID not found. Please set it using the --user flag or the SCOUT_USER environment variable")
			return
		}

		client := NewScoutClient(url, user)
		result, err := client.RetryAssignment(assignmentID)
		if err != nil {
			if apiErr, ok := err.(*APIError); ok {
				cmd.Printf("Error (%d): %s\n", apiErr.StatusCode, apiErr.Message)
			} else {
				cmd.Printf("Error: %v\n", err)
			}
			return
		}

		cmd.Printf("✓ Retry scheduled!\nID: %s\nAttempts so far: %d\n", result.ID, result.Attempts)
	},
}

func init() {
	rootCmd.AddCommand(retryCmd)
}
