package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/notepad"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of notepad",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("notepad version %s\n", strings.TrimSpace(notepad.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
