package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "scoutctl",
	Short: "Scoutctl is a command line tool for interacting with the scout research assistant",
	Long: `scoutctl is the command-line interface for the Scout research assistant backend.

Scout takes a user message and either answers it immediately or, when the
message needs real research, files an assignment that a background worker
processes asynchronously:

  - Controller: Stateless HTTP API with the classifier and the assignment store
  - Worker: Pulls assignment jobs from the queue, runs the research, saves the
    findings as a note and notifies the user

Common workflows:

  Ask a question (classified automatically):
    scoutctl ask "Find me 10 best affordable hotels in Dubai"

  File a research assignment directly:
    scoutctl create --title "hotels" --query "10 best affordable hotels in Dubai"

  Check assignment status:
    scoutctl status <assignment-id>

  List assignments:
    scoutctl list --status failed

  Retry a failed assignment:
    scoutctl retry <assignment-id>

Configuration:
  Set the API endpoint and identity via environment variables or a config file:
    SCOUT_URL     API endpoint (default: http://localhost:6161)
    SCOUT_USER    User ID sent with every request

For more information, visit: https://github.com/faranjit/scout`,
}

func Execute() error {
	return rootCmd.Execute()
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".scoutctl"
		viper.AddConfigPath(home)
		viper.SetConfigName(".scoutctl")
		viper.SetConfigType("yaml")
	}

	// Read environment variables that match "SCOUT_VARNAME"
	viper.SetEnvPrefix("SCOUT")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.scoutctl.yaml)")

	rootCmd.PersistentFlags().String("url", "http://localhost:6161", "Scout Controller URL")
	viper.BindPFlag("url", rootCmd.PersistentFlags().Lookup("url"))

	rootCmd.PersistentFlags().StringP("user", "u", "", "User ID sent with every request")
	viper.BindPFlag("user", rootCmd.PersistentFlags().Lookup("user"))
}
