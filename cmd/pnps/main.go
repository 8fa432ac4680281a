// Package main provides the pnps command-line tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "pnps",
		Short:   "Compute pN/pS ratios from metagenomic variant calls",
		Version: fmt.Sprintf("%s (%s) built %s", version, commit, date),
		Long: `pnps aggregates SNP calls from VCF files over GFF coding annotations
and computes per-gene and per-taxon pN/pS ratios across samples.

Typical workflow:
  pnps parse -a annotations.gff -f reference.fa -o table.bin calls.vcf.gz
  pnps rank -s table.bin -t taxonomy.bin -r order -o pnps_order.tsv
  pnps full -s table.bin -t taxonomy.bin -g gene2ko.tsv -o pnps_genes.tsv`,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			initConfig()
		},
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(newParseCmd())
	cmd.AddCommand(newRankCmd())
	cmd.AddCommand(newFullCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// initConfig loads ~/.pnps.yaml when present. A missing config file is
// not an error.
func initConfig() {
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
	}
	viper.SetConfigName(".pnps")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("PNPS")
	viper.AutomaticEnv()
	_ = viper.ReadInConfig()
}

// newLogger builds a stderr logger, debug level when verbose.
func newLogger(cmd *cobra.Command) *zap.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
