package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

var pathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "Show where tldwbot keeps its config, prompts and logs",
	Example: `  # Find the prompt templates to edit
  tldwbot paths`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Config directory: %s\n", config.ConfigDir)
		fmt.Printf("Data directory: %s\n", config.DataDir)
		fmt.Printf("Cache directory: %s\n", config.CacheDir)
		fmt.Printf("Prompts directory: %s\n", filepath.Join(config.ConfigDir, "prompts"))
		fmt.Printf("Log directory: %s\n", config.LogDir)
		fmt.Printf("Request log: %s\n", filepath.Join(config.LogDir, "requests.log"))
	},
}

func init() {
	rootCmd.AddCommand(pathsCmd)
}
