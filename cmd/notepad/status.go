package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/aretw0/introspection"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of the store and its repository as JSON",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		svc, _ := openService()

		if _, err := svc.Snapshot(context.Background()); err != nil {
			fatal("Failed to load notes", err)
		}

		status := map[string]any{
			svc.ComponentType(): svc.State(),
		}
		if comp, ok := svc.Repository().(introspection.Component); ok {
			if intro, ok := comp.(introspection.Introspectable); ok {
				status[comp.ComponentType()] = intro.State()
			}
		}

		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(status); err != nil {
			fatal("Failed to encode status", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
