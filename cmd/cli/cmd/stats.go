package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show assignment statistics",
	Long:  `Show assignment counts grouped by status plus the current queue depth.`,
	Run: func(cmd *cobra.Command, args []string) {
		url := viper.GetString("url")
		user := viper.GetString("user")

		if user == "" {
			cmd.Println("User ID not found. Please set it using the --user flag or the SCOUT_USER environment variable")
			return
		}

		client := NewScoutClient(url, user)
		stats, err := client.GetStats()
		if err != nil {
			if apiErr, ok := err.(*APIError); ok {
				cmd.Printf("Error (%d): %s\n", apiErr.StatusCode, apiErr.Message)
			} else {
				cmd.Printf("Error: %v\n", err)
			}
			return
		}

		cmd.Printf("%sAssignments%s\n──────────────────────────────\n", colorBold, colorReset)
		cmd.Printf("%sTotal:%s        %d\n", colorDim, colorReset, stats.Total)
		cmd.Printf("%sPending:%s      %s%d%s\n", colorDim, colorReset, colorCyan, stats.Pending, colorReset)
		cmd.Printf("%sIn Progress:%s  %s%d%s\n", colorDim, colorReset, colorYellow, stats.InProgress, colorReset)
		cmd.Printf("%sCompleted:%s    %s%d%s\n", colorDim, colorReset, colorGreen, stats.Completed, colorReset)
		cmd.Printf("%sFailed:%s       %s%d%s\n", colorDim, colorReset, colorRed, stats.Failed, colorReset)
		cmd.Printf("%sQueue Depth:%s  %d\n", colorDim, colorReset, stats.QueueDepth)
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
