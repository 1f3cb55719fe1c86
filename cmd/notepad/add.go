package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add [text]",
	Short: "Add a note stamped with the current time",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		svc, _ := openService()

		rec, err := svc.SaveText(context.Background(), strings.Join(args, " "))
		if err != nil {
			fatal("Failed to save note", err)
		}

		fmt.Printf("Note saved: %s %s\n", shortID(rec.ID), rec.Encode())
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
}
