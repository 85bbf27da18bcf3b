package cli

import (
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:          "rhythm",
	Short:        "Personal rhythm and practice curation",
	Long:         "Rhythm learns when and how a subject practices from their moments and state check-ins, and curates one practice at a time.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.rhythm/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(subjectCmd)
	rootCmd.AddCommand(rhythmCmd)
	rootCmd.AddCommand(practiceCmd)
	rootCmd.AddCommand(digestCmd)
	rootCmd.AddCommand(checkinCmd)
}
