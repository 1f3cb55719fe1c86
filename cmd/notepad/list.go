package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/notepad/pkg/core"
	"github.com/aretw0/notepad/pkg/query"
)

var (
	listJSON  bool
	listQuery string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List notes, newest first",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		svc, _ := openService()

		c, err := svc.Snapshot(context.Background())
		if err != nil {
			fatal("Failed to load notes", err)
		}

		if err := printRecords(os.Stdout, query.Filter(c, listQuery), listJSON); err != nil {
			fatal("Failed to print notes", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	listCmd.Flags().StringVarP(&listQuery, "query", "q", "", "Only notes whose text contains this, ignoring case")
}

type recordView struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

func printRecords(w io.Writer, recs []core.Record, asJSON bool) error {
	if asJSON {
		views := make([]recordView, len(recs))
		for i, rec := range recs {
			views[i] = recordView{ID: rec.ID, Text: rec.Text, Timestamp: rec.Timestamp}
		}
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(views)
	}

	for _, rec := range recs {
		ts := rec.Timestamp
		if ts == "" {
			ts = "-"
		}
		if _, err := fmt.Fprintf(w, "%s  %s  %s\n", shortID(rec.ID), ts, rec.Text); err != nil {
			return err
		}
	}
	return nil
}
