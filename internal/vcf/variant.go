// Package vcf provides streaming VCF parsing for the SNP pipeline.
package vcf

import "sort"

// Variant represents a single genomic variant record from a VCF file.
// Variants are ephemeral: consumed during ingestion, never retained.
type Variant struct {
	SeqID     string           // Reference sequence name
	Pos       int64            // 1-based genomic position
	ID        string           // Variant identifier (e.g., rs ID)
	Ref       string           // Reference allele
	Alts      []string         // Alternate alleles
	Qual      float64          // Quality score
	Filter    string           // Filter status (PASS or filter name)
	Depth     int              // Total read depth (INFO DP)
	Freqs     []float64        // Per-alternate allele frequency
	Genotypes map[string][]int // sample -> called allele indexes (0=ref); absent = no call
	Info      map[string]string
}

// IsIndel returns true if any alternate allele is an insertion or
// deletion relative to the reference allele.
func (v *Variant) IsIndel() bool {
	for _, alt := range v.Alts {
		if len(alt) != len(v.Ref) {
			return true
		}
	}
	return false
}

// Carriers returns the samples whose genotype call contains the
// alternate allele with the given index (0 = first alternate), sorted
// for deterministic processing. Reference-only and missing calls never
// appear in the result.
func (v *Variant) Carriers(altIdx int) []string {
	var samples []string
	want := altIdx + 1
	for sample, alleles := range v.Genotypes {
		for _, a := range alleles {
			if a == want {
				samples = append(samples, sample)
				break
			}
		}
	}
	sort.Strings(samples)
	return samples
}

// AltFreq returns the frequency of the alternate allele with the given
// index, or 0 if unknown.
func (v *Variant) AltFreq(altIdx int) float64 {
	if altIdx < 0 || altIdx >= len(v.Freqs) {
		return 0
	}
	return v.Freqs[altIdx]
}
