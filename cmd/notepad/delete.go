package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a note",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		svc, _ := openService()
		ctx := context.Background()

		rec, err := svc.Get(ctx, args[0])
		if err != nil {
			fatal("Failed to find note", err)
		}

		if err := svc.Delete(ctx, rec.Encode()); err != nil {
			fatal("Failed to delete note", err)
		}

		fmt.Printf("Note deleted: %s\n", shortID(rec.ID))
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
