package cmd

import (
	"scout/pkg/api"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "File a research assignment directly",
	Long: `File a research assignment directly, bypassing the classifier.

Example:
  scoutctl create --title "hotels" --query "10 best affordable hotels in Dubai"
  scoutctl create --title "laptops" --query "compare M3 MacBook Air vs XPS 13" --type comparison --priority 75`,
	Run: func(cmd *cobra.Command, args []string) {
		flags := cmd.Flags()
		title, _ := flags.GetString("title")
		description, _ := flags.GetString("description")
		query, _ := flags.GetString("query")
		typ, _ := flags.GetString("type")
		priority, _ := flags.GetInt("priority")

		url := viper.GetString("url")
		user := viper.GetString("user")

		if user == "" {
			cmd.Println("User ID not found. Please set it using the --user flag or the SCOUT_USER environment variable")
			return
		}

		if query == "" {
			cmd.Println("Error: --query is required")
			return
		}

		client := NewScoutClient(url, user)
		req := api.CreateAssignmentRequest{
			Title:       title,
			Description: description,
			Query:       query,
			Type:        typ,
		}
		if flags.Changed("priority") {
			req.Priority = &priority
		}

		result, err := client.CreateAssignment(req)
		if err != nil {
			if apiErr, ok := err.(*APIError); ok {
				cmd.Printf("Error (%d): %s\n", apiErr.StatusCode, apiErr.Message)
			} else {
				cmd.Printf("Error: %v\n", err)
			}
			return
		}

		cmd.Printf("✓ Assignment filed!\nID: %s\nTitle: %s\n", result.ID, result.Title)
	},
}

func init() {
	flags := createCmd.Flags()
	flags.StringP("title", "t", "", "Short title for the assignment (optional, derived from the query if omitted)")
	flags.StringP("query", "q", "", "Research query to run (required)")
	flags.StringP("description", "d", "", "Longer description (optional)")
	flags.String("type", "", "Assignment type: research, comparison or lookup (optional)")
	flags.Int("priority", api.PriorityDefault, "Priority between 0 and 100 (optional)")

	rootCmd.AddCommand(createCmd)
}
