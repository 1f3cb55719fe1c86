package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/notepad/pkg/adapters/lifecycle"
	"github.com/aretw0/notepad/pkg/query"
)

var watchQuery string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print matching notes now and after every change",
	Long: `Watch prints the notes matching --query, then prints them again whenever
the matches change, including through other processes. Stop with Ctrl+C.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		svc, dir := openService()
		defer svc.Close()

		results, err := query.NewService(svc).FilteredRecords(ctx, watchQuery)
		if err != nil {
			fatal("Failed to observe notes", err)
		}

		src := lifecycle.NewSource(watchQuery, results)
		if err := src.Start(ctx); err != nil {
			fatal("Failed to start watcher", err)
		}

		fmt.Fprintf(os.Stderr, "Watching %s (Ctrl+C to stop)\n", dir)
		for e := range src.Events() {
			res, ok := e.(lifecycle.Results)
			if !ok {
				continue
			}
			fmt.Printf("--- update %d: %d matching ---\n", res.Seq, len(res.Records))
			if err := printRecords(os.Stdout, res.Records, false); err != nil {
				fatal("Failed to print notes", err)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVarP(&watchQuery, "query", "q", "", "Only notes whose text contains this, ignoring case")
}
