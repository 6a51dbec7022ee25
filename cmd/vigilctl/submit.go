package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/vigil/internal/client"
)

func submitCmd() *cobra.Command {
	cfg := &client.Config{}
	var input, comma string
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit CSV rows to a running server as asynchronous batches",
		Long: `Split the rows of a local CSV into batches, submit them concurrently to
POST /v1/batches, and optionally wait until every batch is complete.

Examples:
  vigilctl submit --input rows.csv --url http://localhost:9080 --wait
  vigilctl submit --input rows.csv.gz --chunk-size 5000 --workers 8`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sep := ','
			if r := []rune(comma); len(r) > 0 {
				sep = r[0]
			}
			rows, err := readRows(cmd.Context(), input, sep, &lazyBlob{})
			if err != nil {
				return err
			}
			stats, err := client.Run(cmd.Context(), cfg, rows)
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "batches=%d accepted=%d duplicates=%d rejected=%d completed=%d failed=%d\n",
				stats.Batches, stats.Accepted, stats.Duplicates, stats.Rejected, stats.Completed, stats.Failed)
			return err
		},
	}

	f := cmd.Flags()
	f.StringVarP(&input, "input", "i", "", "Input CSV path")
	f.StringVar(&comma, "comma", ",", "Input field separator")
	f.StringVar(&cfg.BaseURL, "url", "http://localhost:9080", "Base URL of the service")
	f.StringVar(&cfg.BatchPrefix, "batch-prefix", "", "Prefix of batch IDs (default: vigilctl-TIMESTAMP)")
	f.IntVar(&cfg.ChunkSize, "chunk-size", client.DefaultChunkSize, "Rows per batch")
	f.IntVar(&cfg.Workers, "workers", client.DefaultWorkers, "Number of concurrent submitters")
	f.DurationVar(&cfg.Timeout, "timeout", client.DefaultTimeout, "HTTP request timeout")
	f.DurationVar(&cfg.PollInterval, "poll-interval", client.DefaultPollInterval, "Batch status poll interval")
	f.IntVar(&cfg.MaxRetries, "retries", client.DefaultMaxRetries, "Retries of a batch rejected with backpressure (-1 disables)")
	f.BoolVar(&cfg.Wait, "wait", false, "Wait for every batch to complete")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}
