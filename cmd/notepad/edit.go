package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var editCmd = &cobra.Command{
	Use:   "edit [id] [text]",
	Short: "Replace a note's text and restamp it",
	Long: `Edit replaces the note referenced by id (a full ID, a unique ID prefix,
or the exact "<text>|<timestamp>" encoding) with new text stamped with the
current time. The note keeps its ID.`,
	Args: cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		svc, _ := openService()
		ctx := context.Background()

		old, err := svc.Get(ctx, args[0])
		if err != nil {
			fatal("Failed to find note", err)
		}

		rec, err := svc.Edit(ctx, old.Encode(), strings.Join(args[1:], " "))
		if err != nil {
			fatal("Failed to update note", err)
		}

		fmt.Printf("Note updated: %s %s\n", shortID(rec.ID), rec.Encode())
	},
}

func init() {
	rootCmd.AddCommand(editCmd)
}
