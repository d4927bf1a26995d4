package cmd

import (
	"fmt"
	"time"

	"scout/pkg/api"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var statusCmd = &cobra.Command{
	Use:   "status [assignment_id]",
	Short: "Get status of an assignment",
	Long:  `Retrieve detailed status information for a research assignment, including its current state (pending, in_progress, completed, failed), attempts, and findings when available.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		assignmentID := args[0]

		url := viper.GetString("url")
		user := viper.GetString("user")

		if user == "" {
			cmd.Println("User ID not found. Please set it using the --user flag or the SCOUT_USER environment variable")
			return
		}

		client := NewScoutClient(url, user)
		assignment, err := client.GetAssignment(assignmentID)
		if err != nil {
			if apiErr, ok := err.(*APIError); ok {
				cmd.Printf("Error (%d): %s\n", apiErr.StatusCode, apiErr.Message)
			} else {
				cmd.Printf("Error: %v\n", err)
			}
			return
		}

		printStatus(cmd, *assignment)
	},
}

func printStatus(cmd *cobra.Command, a api.AssignmentResponse) {
	// Header with status icon
	icon := statusIcon(a.Status)
	cmd.Printf("%s %sAssignment Details%s\n", icon, colorBold, colorReset)
	cmd.Println("──────────────────────────────")

	cmd.Printf("%sID:%s        %s\n", colorDim, colorReset, a.ID)
	cmd.Printf("%sTitle:%s     %s\n", colorDim, colorReset, a.Title)
	cmd.Printf("%sType:%s      %s\n", colorDim, colorReset, a.Type)
	cmd.Printf("%sStatus:%s    %s\n", colorDim, colorReset, colorizeStatus(a.Status))
	cmd.Printf("%sPriority:%s  %d\n", colorDim, colorReset, a.Priority)
	cmd.Printf("%sAttempts:%s  %d\n", colorDim, colorReset, a.Attempts)

	if a.LastError != nil {
		cmd.Printf("%sError:%s     %s%s%s\n", colorDim, colorReset, colorRed, *a.LastError, colorReset)
	}

	cmd.Printf("%sCreated:%s   %s\n", colorDim, colorReset, formatTimeWithRelative(a.CreatedAt))
	cmd.Printf("%sUpdated:%s   %s\n", colorDim, colorReset, formatTimeWithRelative(a.UpdatedAt))

	if a.Findings != nil {
		cmd.Printf("\n%sFindings%s\n──────────────────────────────\n%s\n", colorBold, colorReset, *a.Findings)
	}
}

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

func statusIcon(status string) string {
	switch status {
	case "completed":
		return colorGreen + "✓" + colorReset
	case "failed":
		return colorRed + "✗" + colorReset
	case "in_progress":
		return colorYellow + "⏳" + colorReset
	case "pending":
		return colorCyan + "◯" + colorReset
	default:
		return "•"
	}
}

func colorizeStatus(status string) string {
	icon := statusIcon(status)
	switch status {
	case "completed":
		return icon + " " + colorGreen + status + colorReset
	case "failed":
		return icon + " " + colorRed + status + colorReset
	case "in_progress":
		return icon + " " + colorYellow + status + colorReset
	case "pending":
		return icon + " " + colorCyan + status + colorReset
	default:
		return status
	}
}

func formatTimeWithRelative(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	relative := relativeTime(t)
	return fmt.Sprintf("%s %s(%s ago)%s", t.Format("Mon, 02 Jan 2006 15:04:05 MST"), colorDim, relative, colorReset)
}

func relativeTime(t time.Time) string {
	duration := time.Since(t)

	if duration < time.Minute {
		return fmt.Sprintf("%ds", int(duration.Seconds()))
	} else if duration < time.Hour {
		return fmt.Sprintf("%dm", int(duration.Minutes()))
	} else if duration < 24*time.Hour {
		return fmt.Sprintf("%dh", int(duration.Hours()))
	} else {
		days := int(duration.Hours() / 24)
		if days == 1 {
			return "1 day"
		}
		return fmt.Sprintf("%d days", days)
	}
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
