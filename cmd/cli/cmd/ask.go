package cmd

import (
	"strings"

	"scout/pkg/api"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var askCmd = &cobra.Command{
	Use:   "ask [message]",
	Short: "Ask scout a question",
	Long: `Send a message to scout. Simple questions get answered immediately;
questions that need real research become background assignments, and scout
notifies you when the findings are ready.

Example:
  scoutctl ask "What is the capital of Cameroon?"
  scoutctl ask "Find me 10 best affordable hotels in Dubai"`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		message := strings.Join(args, " ")

		url := viper.GetString("url")
		user := viper.GetString("user")

		if user == "" {
			cmd.Println("User ID not found. Please set it using the --user flag or the SCOUT_USER environment variable")
			return
		}

		client := NewScoutClient(url, user)
		result, err := client.Chat(api.ChatRequest{Message: message})
		if err != nil {
			if apiErr, ok := err.(*APIError); ok {
				cmd.Printf("Error (%d): %s\n", apiErr.StatusCode, apiErr.Message)
			} else {
				cmd.Printf("Error: %v\n", err)
			}
			return
		}

		if result.Kind == "research" {
			cmd.Printf("%s\n\n%sAssignment:%s %s\nCheck progress with: scoutctl status %s\n",
				result.Answer, colorDim, colorReset, result.AssignmentID, result.AssignmentID)
			return
		}

		cmd.Println(result.Answer)
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
}
