// Command weave assembles statement tables from report payloads and merges
// them across filing vintages.
//
//	weave assemble report.json -o out/
//	weave merge 10k_2024.json 10k_2023.json 10k_2022.json -o out/
//
// DATABASE_URL (env or .env) enables the Postgres slice cache; without it a
// local file cache is used.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"statement_weaver/pkg/core/assembly"
	"statement_weaver/pkg/core/payload"
	"statement_weaver/pkg/core/store"
	"statement_weaver/pkg/core/synthesis"
	"statement_weaver/pkg/core/visible"
	"statement_weaver/pkg/export/tablecsv"
	"statement_weaver/pkg/models"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "weave",
		Short:         "Assemble and merge financial statement tables from report payloads",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringP("out", "o", "out", "output directory for the CSV bundle")
	flags.Bool("all-roles", false, "include disclosure and schedule roles, not just primary statements")
	flags.Bool("collapse-dims", false, "collapse dimensional breakdowns into single rows")
	flags.Bool("visible-filter", false, "drop rows not rendered in the source document")
	flags.Int("instant-periods", 0, "period count override for point-in-time statements")
	flags.Int("duration-periods", 0, "period count override for span-of-time statements")
	flags.String("synonyms", "", "YAML statement-name synonym table (merged over defaults)")
	flags.String("rendered-html", "", "rendered report page to scan for visible concepts")
	flags.String("cache-dir", "", "file cache directory for assembled slices")
	flags.BoolP("verbose", "v", false, "debug logging")
	_ = viper.BindPFlags(flags)
	viper.SetEnvPrefix("WEAVE")
	viper.AutomaticEnv()

	root.AddCommand(newAssembleCmd(), newMergeCmd())
	return root
}

func newAssembleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assemble <payload.json>",
		Short: "Assemble one report payload into statement tables",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(cmd)
			if err != nil {
				return err
			}
			defer env.close()

			res, err := env.assembleOne(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return tablecsv.WriteBundle(res.Slice.Tables, res.Warnings, viper.GetString("out"), tablecsv.Options{
				IncludeWarnings: true,
				IncludeConcepts: true,
				IndentLabels:    true,
			})
		},
	}
}

func newMergeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "merge <payload.json>...",
		Short: "Assemble several vintages and merge them into one table per statement",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(cmd)
			if err != nil {
				return err
			}
			defer env.close()

			var slices []*models.FilingSlice
			var warnings []models.Warning
			for _, path := range args {
				res, err := env.assembleOne(cmd.Context(), path)
				if err != nil {
					env.log.Warn().Str("payload", path).Err(err).Msg("skipping payload")
					continue
				}
				slices = append(slices, res.Slice)
				warnings = append(warnings, res.Warnings...)
			}

			aligner := synthesis.NewAligner()
			aligner.Log = env.log
			aligner.Synonyms = env.synonyms
			ensemble, err := aligner.Stitch(slices)
			if err != nil {
				return err
			}
			warnings = append(warnings, ensemble.Warnings...)
			env.log.Info().Int("tables", len(ensemble.Tables)).Int("warnings", len(warnings)).Msg("merge complete")
			return tablecsv.WriteBundle(ensemble.Tables, warnings, viper.GetString("out"), tablecsv.Options{
				IncludeWarnings: true,
				IndentLabels:    true,
			})
		},
	}
}

// env holds the wiring shared by both subcommands.
type env struct {
	log       zerolog.Logger
	assembler *assembly.Assembler
	cache     *store.SliceCache
	visible   *models.VisibleSet
	synonyms  synthesis.SynonymTable
	pool      *pgxpool.Pool
}

func setup(cmd *cobra.Command) (*env, error) {
	level := zerolog.InfoLevel
	if viper.GetBool("verbose") {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).With().Timestamp().Logger()

	cfg := assembly.Config{
		IncludeNonPrimary:  viper.GetBool("all-roles"),
		ExpandDimensions:   !viper.GetBool("collapse-dims"),
		HonorVisibleFilter: viper.GetBool("visible-filter"),
		PeriodCounts: map[models.StatementKind]int{
			models.KindInstant:  viper.GetInt("instant-periods"),
			models.KindDuration: viper.GetInt("duration-periods"),
		},
	}
	assembler := assembly.New(cfg)
	assembler.Log = log

	e := &env{log: log, assembler: assembler, synonyms: synthesis.DefaultSynonyms()}

	if path := viper.GetString("synonyms"); path != "" {
		table, err := synthesis.LoadSynonyms(path)
		if err != nil {
			return nil, err
		}
		e.synonyms = table
	}

	if path := viper.GetString("rendered-html"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open rendered page: %w", err)
		}
		set, err := visible.ScanHTML(f)
		f.Close()
		if err != nil {
			return nil, err
		}
		log.Info().Int("concepts", set.Len()).Msg("scanned rendered document")
		e.visible = set
	}

	pool, err := store.Connect(cmd.Context())
	if err != nil {
		log.Warn().Err(err).Msg("DATABASE_URL set but unusable; using file cache")
	} else {
		e.pool = pool
	}
	e.cache = store.NewSliceCache(e.pool, viper.GetString("cache-dir"))
	e.cache.Log = log
	return e, nil
}

func (e *env) close() {
	if e.pool != nil {
		e.pool.Close()
	}
}

// assembleOne loads, assembles and caches a single payload, preferring a
// cached slice when one exists for the payload's source ID.
func (e *env) assembleOne(ctx context.Context, path string) (*assembly.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	report, err := payload.Load(data)
	if err != nil {
		return nil, fmt.Errorf("parse payload %s: %w", path, err)
	}
	if e.visible != nil {
		report.Visible = e.visible
	}

	if cached, warns, err := e.cache.Get(ctx, report.Source.ID); err == nil && cached != nil {
		e.log.Info().Str("source", report.Source.ID).Msg("using cached slice")
		return &assembly.Result{Slice: cached, Warnings: warns}, nil
	}

	res, err := e.assembler.Assemble(report)
	if err != nil {
		return res, fmt.Errorf("assemble %s: %w", report.Source.ID, err)
	}
	if err := e.cache.Put(ctx, res.Slice, res.Warnings); err != nil {
		e.log.Warn().Err(err).Msg("slice cache write failed")
	}
	return res, nil
}
