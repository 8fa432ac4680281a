package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mgx-tools/pnps/internal/output"
	"github.com/mgx-tools/pnps/internal/snps"
	"github.com/mgx-tools/pnps/internal/taxon"
)

// ratioFlags holds the options shared by the rank and full commands.
type ratioFlags struct {
	tablePath    string
	taxonomyPath string
	rank         string
	minNum       int
	minCov       int
	taxonIDs     []int32
	ratio        string
	format       string
	outPath      string
	taxonLabel   string
}

func (f *ratioFlags) register(cmd *cobra.Command, defaultRank string) {
	cmd.Flags().StringVarP(&f.tablePath, "snp-table", "s", "", "SNP table file from 'pnps parse'")
	cmd.Flags().StringVarP(&f.taxonomyPath, "taxonomy", "t", "", "Taxonomy file")
	cmd.Flags().StringVarP(&f.rank, "rank", "r", defaultRank, "Taxonomic rank to aggregate at")
	cmd.Flags().IntVarP(&f.minNum, "min-num", "m", 2, "Minimum samples with a defined value per group")
	cmd.Flags().IntVarP(&f.minCov, "min-cov", "c", 4, "Minimum per-sample feature coverage")
	cmd.Flags().Int32SliceVarP(&f.taxonIDs, "taxon-ids", "i", []int32{2}, "Keep only these taxa and their descendants")
	cmd.Flags().StringVar(&f.ratio, "ratio", "full", "Statistic: full, pn or ps")
	cmd.Flags().StringVar(&f.format, "format", "tab", "Output format: tab, csv, duckdb or parquet")
	cmd.Flags().StringVarP(&f.outPath, "output", "o", "", "Output file (default: stdout; required for duckdb/parquet)")
	cmd.Flags().StringVar(&f.taxonLabel, "taxon-label", "name", "Taxon column rendering: id, name or lineage")
	cmd.MarkFlagRequired("snp-table")
}

func (f *ratioFlags) ratioMode() (snps.RatioMode, error) {
	switch f.ratio {
	case "full":
		return snps.Full, nil
	case "pn":
		return snps.PNOnly, nil
	case "ps":
		return snps.PSOnly, nil
	}
	return 0, fmt.Errorf("unknown ratio %q (use full, pn or ps)", f.ratio)
}

func (f *ratioFlags) label(tx *taxon.Taxonomy) (output.TaxonLabel, error) {
	switch f.taxonLabel {
	case "id":
		return output.TaxonIDLabel(), nil
	case "name":
		if tx == nil {
			return output.TaxonIDLabel(), nil
		}
		return output.TaxonNameLabel(tx), nil
	case "lineage":
		if tx == nil {
			return nil, fmt.Errorf("--taxon-label lineage requires --taxonomy")
		}
		return output.TaxonLineageLabel(tx, taxon.DefaultRanks(), ";"), nil
	}
	return nil, fmt.Errorf("unknown taxon label %q (use id, name or lineage)", f.taxonLabel)
}

func newRankCmd() *cobra.Command {
	var flags ratioFlags

	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Compute per-rank pN/pS values",
		Long: `Rank aggregates the SNP table by taxon, mapping every taxon to its
first ancestor at the requested rank. Taxa without an ancestor at
that rank are excluded.`,
		Example: `  pnps rank -s table.bin -t taxonomy.bin -r order -o pnps_order.tsv
  pnps rank -s table.bin -t taxonomy.bin -r genus --format parquet -o pnps.parquet`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRank(cmd, &flags)
		},
	}

	flags.register(cmd, "order")
	cmd.MarkFlagRequired("taxonomy")

	return cmd
}

func runRank(cmd *cobra.Command, flags *ratioFlags) error {
	logger := newLogger(cmd)
	defer logger.Sync()

	ratio, err := flags.ratioMode()
	if err != nil {
		return err
	}

	table, tx, err := loadInputs(logger, flags.tablePath, flags.taxonomyPath)
	if err != nil {
		return err
	}

	res := snps.Reduce(table, snps.ReduceOptions{
		Mode:    snps.ByTaxon,
		Ratio:   ratio,
		MinNum:  flags.minNum,
		Filters: snps.DefaultFilters(tx, flags.minCov, flags.taxonIDs),
		Taxa:    snps.RankRemap(tx, flags.rank),
	})
	logger.Info("reduction finished",
		zap.String("rank", flags.rank),
		zap.Int("groups", len(res.Rows)))

	return writeResult(res, flags, tx)
}

func newFullCmd() *cobra.Command {
	var (
		flags      ratioFlags
		geneMap    string
		twoColumns bool
		separator  string
	)

	cmd := &cobra.Command{
		Use:   "full",
		Short: "Compute per-gene, per-taxon pN/pS values",
		Long: `Full aggregates the SNP table by (gene, taxon) pair. With a gene map,
gene ids are replaced by their mapped external ids; a gene mapping to
several ids contributes its counts to every one, and unmapped genes
are excluded. With --rank, taxa are additionally mapped to ancestors
at that rank.`,
		Example: `  pnps full -s table.bin -t taxonomy.bin -o pnps_genes.tsv
  pnps full -s table.bin -t taxonomy.bin -g gene2ko.tsv -2 -r order -o pnps_ko.tsv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFull(cmd, &flags, geneMap, twoColumns, separator)
		},
	}

	flags.register(cmd, "")
	cmd.Flags().StringVarP(&geneMap, "gene-map", "g", "", "Gene mapping file")
	cmd.Flags().BoolVarP(&twoColumns, "two-columns", "2", false, "Gene map has one (gene, id) pair per line")
	cmd.Flags().StringVarP(&separator, "separator", "p", "\t", "Gene map column separator")

	return cmd
}

func runFull(cmd *cobra.Command, flags *ratioFlags, geneMapPath string, twoColumns bool, separator string) error {
	logger := newLogger(cmd)
	defer logger.Sync()

	ratio, err := flags.ratioMode()
	if err != nil {
		return err
	}

	table, tx, err := loadInputs(logger, flags.tablePath, flags.taxonomyPath)
	if err != nil {
		return err
	}

	opts := snps.ReduceOptions{
		Mode:    snps.ByGeneTaxon,
		Ratio:   ratio,
		MinNum:  flags.minNum,
		Filters: []snps.Filter{snps.MinCoverage(flags.minCov)},
	}
	if tx != nil {
		opts.Filters = snps.DefaultFilters(tx, flags.minCov, flags.taxonIDs)
		if flags.rank != "" {
			opts.Taxa = snps.RankRemap(tx, flags.rank)
		}
	}

	if geneMapPath != "" {
		f, err := os.Open(geneMapPath)
		if err != nil {
			return fmt.Errorf("open gene map: %w", err)
		}
		defer f.Close()
		if twoColumns {
			opts.GeneMap, err = snps.ReadGeneMapTwoColumns(f, separator)
		} else {
			opts.GeneMap, err = snps.ReadGeneMap(f, separator)
		}
		if err != nil {
			return err
		}
		logger.Info("gene map loaded",
			zap.String("file", geneMapPath),
			zap.Int("genes", len(opts.GeneMap)))
	}

	res := snps.Reduce(table, opts)
	logger.Info("reduction finished",
		zap.Int("groups", len(res.Rows)))

	return writeResult(res, flags, tx)
}

// loadInputs reads the SNP table and, when a path is given, the
// taxonomy.
func loadInputs(logger *zap.Logger, tablePath, taxonomyPath string) (*snps.Table, *taxon.Taxonomy, error) {
	tf, err := os.Open(tablePath)
	if err != nil {
		return nil, nil, fmt.Errorf("open snp table: %w", err)
	}
	defer tf.Close()
	table, err := snps.LoadTable(tf)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("snp table loaded",
		zap.String("file", tablePath),
		zap.Strings("samples", table.Samples),
		zap.Int("events", table.EventCount()))

	var tx *taxon.Taxonomy
	if taxonomyPath != "" {
		xf, err := os.Open(taxonomyPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open taxonomy: %w", err)
		}
		defer xf.Close()
		tx, err = taxon.Load(xf)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("taxonomy loaded",
			zap.String("file", taxonomyPath),
			zap.Int("taxa", tx.Len()))
	}

	return table, tx, nil
}

// writeResult renders the reduced result in the requested format.
func writeResult(res *snps.Result, flags *ratioFlags, tx *taxon.Taxonomy) error {
	label, err := flags.label(tx)
	if err != nil {
		return err
	}

	switch flags.format {
	case "tab", "csv":
		out := os.Stdout
		if flags.outPath != "" {
			f, err := os.Create(flags.outPath)
			if err != nil {
				return fmt.Errorf("create output: %w", err)
			}
			defer f.Close()
			out = f
		}
		mw := output.NewMatrixWriter(out)
		if flags.format == "csv" {
			mw.SetSeparator(",")
		}
		mw.SetTaxonLabel(label)
		if err := mw.WriteResult(res); err != nil {
			return err
		}
		return mw.Flush()

	case "duckdb":
		if flags.outPath == "" {
			return fmt.Errorf("--format duckdb requires --output")
		}
		store, err := output.OpenStore(flags.outPath)
		if err != nil {
			return err
		}
		defer store.Close()
		return store.WriteResult(res)

	case "parquet":
		if flags.outPath == "" {
			return fmt.Errorf("--format parquet requires --output")
		}
		store, err := output.OpenStore("")
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.WriteResult(res); err != nil {
			return err
		}
		return store.ExportParquet(flags.outPath)
	}

	return fmt.Errorf("unknown format %q (use tab, csv, duckdb or parquet)", flags.format)
}
