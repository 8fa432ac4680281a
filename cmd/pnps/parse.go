package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mgx-tools/pnps/internal/gff"
	"github.com/mgx-tools/pnps/internal/snps"
	"github.com/mgx-tools/pnps/internal/vcf"
)

func newParseCmd() *cobra.Command {
	var (
		gffPath   string
		fastaPath string
		outPath   string
		samples   []string
		workers   int
	)

	cmd := &cobra.Command{
		Use:   "parse [flags] <vcf-file>...",
		Short: "Aggregate variant calls into a SNP table",
		Long: `Parse streams one or more VCF files over a GFF annotation set and
writes the per-sample SNP aggregation table. Repeated runs over the
same table are not supported; pass all VCF files at once, their
events accumulate into one table.

Use '-' as the VCF file to read from stdin.`,
		Example: `  pnps parse -a annotations.gff.gz -f reference.fa -o table.bin sample_calls.vcf.gz
  pnps parse -a ann.gff -f ref.fa -m s1,s2 -o table.bin run1.vcf run2.vcf`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, gffPath, fastaPath, outPath, samples, workers, args)
		},
	}

	cmd.Flags().StringVarP(&gffPath, "gff", "a", "", "GFF annotation file (plain or gzip)")
	cmd.Flags().StringVarP(&fastaPath, "fasta", "f", "", "Reference FASTA file (plain or gzip)")
	cmd.Flags().StringVarP(&outPath, "output", "o", "snp_table.bin", "Output SNP table file")
	cmd.Flags().StringSliceVarP(&samples, "samples", "m", nil, "Sample names (default: from coverage attributes)")
	cmd.Flags().IntVarP(&workers, "workers", "w", runtime.NumCPU(), "Workers for expected-site computation")
	cmd.Flags().Int("min-reads", 4, "Minimum read depth per variant")
	cmd.Flags().Float64("min-qual", 30, "Minimum variant quality")
	cmd.Flags().Float64("min-freq", 0.01, "Minimum alternate allele frequency")
	cmd.MarkFlagRequired("gff")
	cmd.MarkFlagRequired("fasta")

	viper.BindPFlag("parse.min_reads", cmd.Flags().Lookup("min-reads"))
	viper.BindPFlag("parse.min_qual", cmd.Flags().Lookup("min-qual"))
	viper.BindPFlag("parse.min_freq", cmd.Flags().Lookup("min-freq"))

	return cmd
}

func runParse(cmd *cobra.Command, gffPath, fastaPath, outPath string, samples []string, workers int, vcfPaths []string) error {
	logger := newLogger(cmd)
	defer logger.Sync()

	anns, err := gff.LoadGFF(gffPath)
	if err != nil {
		return fmt.Errorf("load annotations: %w", err)
	}
	store := gff.NewStore()
	store.AddAll(anns)
	logger.Info("annotations loaded",
		zap.String("file", gffPath),
		zap.Int("annotations", store.Len()),
		zap.Int("sequences", len(store.SeqIDs())))

	seqs, err := gff.LoadFASTA(fastaPath)
	if err != nil {
		return fmt.Errorf("load reference: %w", err)
	}
	logger.Info("reference loaded",
		zap.String("file", fastaPath),
		zap.Int("sequences", len(seqs)))

	if missing := gff.ComputeExpectedSites(store, seqs, workers); missing > 0 {
		logger.Warn("annotations without reference sequence",
			zap.Int("count", missing))
	}

	// An explicit sample list must agree with the annotation coverage
	// attributes when the GFF carries any.
	if known := store.Samples(); len(samples) > 0 && len(known) > 0 {
		covered := make(map[string]bool, len(known))
		for _, s := range known {
			covered[s] = true
		}
		for _, s := range samples {
			if !covered[s] {
				return fmt.Errorf("sample %q has no coverage attribute in %s", s, gffPath)
			}
		}
	}

	table := snps.NewTable(store, samples)
	if len(table.Samples) == 0 {
		return fmt.Errorf("no samples: pass --samples or add cov_<sample> attributes to the GFF")
	}
	logger.Info("snp table initialized",
		zap.Strings("samples", table.Samples))

	opts := snps.Options{
		MinReads: viper.GetInt("parse.min_reads"),
		MinQual:  viper.GetFloat64("parse.min_qual"),
		MinFreq:  viper.GetFloat64("parse.min_freq"),
	}
	engine := snps.NewEngine(store, seqs, table, opts)
	engine.SetLogger(logger)

	var total snps.Counters
	for _, path := range vcfPaths {
		reader, err := openVCF(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		if err := engine.CheckSamples(reader.SampleNames()); err != nil {
			reader.Close()
			return fmt.Errorf("%s: %w", path, err)
		}
		counters, err := engine.ProcessAll(reader)
		reader.Close()
		if err != nil {
			return fmt.Errorf("process %s: %w", path, err)
		}
		total.Add(counters)
	}

	if len(vcfPaths) > 1 {
		logger.Info("all files processed",
			zap.Int("files", len(vcfPaths)),
			zap.Int("accepted", total.Accepted))
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer out.Close()
	if err := table.Save(out); err != nil {
		return err
	}
	logger.Info("snp table written",
		zap.String("file", outPath),
		zap.Int("events", table.EventCount()))

	return nil
}

func openVCF(path string) (vcf.Reader, error) {
	if path == "-" {
		return vcf.NewParserFromReader(os.Stdin)
	}
	return vcf.NewParser(path)
}
