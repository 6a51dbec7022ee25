package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/okian/vigil/internal/adapters/blob"
	"github.com/okian/vigil/internal/adapters/csvio"
	"github.com/okian/vigil/internal/adapters/repository"
	app "github.com/okian/vigil/internal/app"
	"github.com/okian/vigil/internal/config"
	"github.com/okian/vigil/internal/domain/engine"
	"github.com/okian/vigil/pkg/logger"
)

type runOptions struct {
	input          string
	output         string
	batchID        string
	comma          string
	combine        bool
	statMultiplier float64
	mlMultiplier   float64
	postgresDSN    string
	postgresTable  string
	blobConn       string
	blobContainer  string
}

func runCmd(g *globalOptions) *cobra.Command {
	o := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Classify every row of a CSV file",
		Long: `Read rows from a local CSV (optionally .gz) or a blob:// object, classify
them, and write the results as ';' separated CSV. Results can also be stored
in Postgres.

Examples:
  vigilctl run --input rows.csv --output results.csv
  vigilctl run --input blob://inputs/rows.csv.gz --output blob://results/rows.csv
  vigilctl run --input rows.csv --combine --stat-multiplier 2 --postgres-dsn postgres://...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, g)
			if err != nil {
				return err
			}
			o.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return o.run(cmd.Context(), cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.input, "input", "i", "", "Input CSV path or blob://container/name")
	f.StringVarP(&o.output, "output", "o", "-", "Output CSV path, blob://container/name, or - for stdout")
	f.StringVar(&o.batchID, "batch-id", "", "Batch ID stored with the results (default: random)")
	f.StringVar(&o.comma, "comma", ",", "Input field separator")
	f.BoolVar(&o.combine, "combine", false, "Report the combined score")
	f.Float64Var(&o.statMultiplier, "stat-multiplier", 1, "Multiplier of the statistical score")
	f.Float64Var(&o.mlMultiplier, "ml-multiplier", 1, "Multiplier of the ML score")
	f.StringVar(&o.postgresDSN, "postgres-dsn", "", "Also store results in Postgres")
	f.StringVar(&o.postgresTable, "postgres-table", "", "Postgres result table")
	f.StringVar(&o.blobConn, "blob-connection-string", "", "Azure Blob Storage connection string")
	f.StringVar(&o.blobContainer, "blob-container", "", "Default blob container")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

// apply overrides cfg with the flags set on cmd.
func (o *runOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("combine") {
		cfg.CombineScores = o.combine
	}
	if f.Changed("stat-multiplier") {
		cfg.StatMultiplier = o.statMultiplier
	}
	if f.Changed("ml-multiplier") {
		cfg.MLMultiplier = o.mlMultiplier
	}
	if f.Changed("postgres-dsn") {
		cfg.PostgresDSN = o.postgresDSN
	}
	if f.Changed("postgres-table") {
		cfg.PostgresTable = o.postgresTable
	}
	if f.Changed("blob-connection-string") {
		cfg.BlobConnectionString = o.blobConn
	}
	if f.Changed("blob-container") {
		cfg.BlobContainer = o.blobContainer
	}
}

func (o *runOptions) run(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer) error {
	log := logger.Get().Named("vigilctl")
	blobs := &lazyBlob{cfg: cfg}

	comma := ','
	if r := []rune(o.comma); len(r) > 0 {
		comma = r[0]
	}
	rows, err := readRows(ctx, o.input, comma, blobs)
	if err != nil {
		return err
	}
	log.Info(ctx, "rows loaded", logger.String("input", o.input), logger.Int("rows", len(rows)))

	opts, err := app.OptionsFromConfig(cfg)
	if err != nil {
		return err
	}
	svc := app.New(append(opts, app.WithLogger(log))...)
	outs, err := svc.Classify(ctx, rows)
	if err != nil {
		return err
	}

	if err := writeOutcomes(ctx, o.output, outs, stdout, blobs); err != nil {
		return err
	}

	if cfg.PostgresDSN != "" {
		batchID := o.batchID
		if batchID == "" {
			batchID = uuid.NewString()
		}
		if err := saveOutcomes(ctx, cfg, batchID, outs); err != nil {
			return err
		}
		log.Info(ctx, "results stored", logger.String("batch_id", batchID), logger.String("table", cfg.PostgresTable))
	}

	sum := engine.Summarize(outs)
	_, err = fmt.Fprintf(stderr, "rows=%d failed=%d replacements=%d\n", sum.Rows, sum.Failed, sum.Replacements)
	return err
}

// lazyBlob connects to blob storage on first use.
type lazyBlob struct {
	cfg   *config.Config
	store *blob.Store
}

func (l *lazyBlob) get() (*blob.Store, error) {
	if l.store != nil {
		return l.store, nil
	}
	if l.cfg == nil || l.cfg.BlobConnectionString == "" {
		return nil, errors.New("blob storage requires blob_connection_string")
	}
	st, err := blob.NewFromConnectionString(l.cfg.BlobConnectionString, l.cfg.BlobContainer)
	if err != nil {
		return nil, err
	}
	l.store = st
	return st, nil
}

func readRows(ctx context.Context, src string, comma rune, blobs *lazyBlob) ([]engine.Input, error) {
	var rc io.ReadCloser
	if blob.IsURI(src) {
		st, err := blobs.get()
		if err != nil {
			return nil, err
		}
		body, err := st.Open(ctx, src)
		if err != nil {
			return nil, err
		}
		if rc, err = csvio.WrapReader(src, body); err != nil {
			_ = body.Close()
			return nil, err
		}
	} else {
		var err error
		if rc, err = csvio.OpenFile(src); err != nil {
			return nil, err
		}
	}
	defer func() { _ = rc.Close() }()

	rows, err := csvio.NewReader(rc, csvio.WithComma(comma)).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", src, err)
	}
	return rows, nil
}

func writeOutcomes(ctx context.Context, dst string, outs []engine.Outcome, stdout io.Writer, blobs *lazyBlob) error {
	switch {
	case dst == "-" || dst == "":
		return csvio.NewWriter(stdout).WriteAll(outs)
	case blob.IsURI(dst):
		st, err := blobs.get()
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		wc := csvio.WrapWriter(dst, &buf)
		if err := csvio.NewWriter(wc).WriteAll(outs); err != nil {
			return err
		}
		if err := wc.Close(); err != nil {
			return err
		}
		return st.Put(ctx, dst, buf.Bytes())
	default:
		wc, err := csvio.CreateFile(dst)
		if err != nil {
			return err
		}
		if err := csvio.NewWriter(wc).WriteAll(outs); err != nil {
			_ = wc.Close()
			return err
		}
		return wc.Close()
	}
}

func saveOutcomes(ctx context.Context, cfg *config.Config, batchID string, outs []engine.Outcome) error {
	store, err := repository.OpenPostgres(ctx, cfg.PostgresDSN, repository.WithTable(cfg.PostgresTable))
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	if err := store.Migrate(ctx); err != nil {
		return err
	}
	recs := make([]repository.Record, len(outs))
	for i, o := range outs {
		recs[i] = repository.NewRecord(batchID, o)
	}
	return store.SaveBatch(ctx, recs)
}
