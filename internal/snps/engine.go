package snps

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/mgx-tools/pnps/internal/codon"
	"github.com/mgx-tools/pnps/internal/gff"
	"github.com/mgx-tools/pnps/internal/vcf"
)

// Options holds the variant acceptance thresholds.
type Options struct {
	MinReads int     // minimum total read depth
	MinQual  float64 // minimum quality score
	MinFreq  float64 // minimum alternate allele frequency
}

// Counters tallies accepted SNPs and per-reason rejections. Record
// anomalies are counted, never raised.
type Counters struct {
	Accepted    int // alternate alleles passing every filter
	Indel       int // insertion/deletion records
	LowQual     int // quality below MinQual
	LowDepth    int // depth below MinReads
	LowFreq     int // allele frequency below MinFreq
	Unannotated int // variants on sequences absent from the store
	Ambiguous   int // untranslatable codons, classified nonsynonymous
}

// Add accumulates another set of counters, for multi-file runs.
func (c *Counters) Add(other Counters) {
	c.Accepted += other.Accepted
	c.Indel += other.Indel
	c.LowQual += other.LowQual
	c.LowDepth += other.LowDepth
	c.LowFreq += other.LowFreq
	c.Unannotated += other.Unannotated
	c.Ambiguous += other.Ambiguous
}

// Engine streams variant records into the aggregation table. It is
// single-threaded: one in-memory pass, no concurrent mutation.
type Engine struct {
	store  *gff.Store
	seqs   map[string]string
	table  *Table
	opts   Options
	logger *zap.Logger
}

// NewEngine creates an ingestion engine over an annotation store,
// reference sequences and the table to populate.
func NewEngine(store *gff.Store, seqs map[string]string, table *Table, opts Options) *Engine {
	return &Engine{
		store:  store,
		seqs:   seqs,
		table:  table,
		opts:   opts,
		logger: zap.NewNop(),
	}
}

// SetLogger sets the logger for aggregate anomaly reporting.
func (e *Engine) SetLogger(l *zap.Logger) {
	e.logger = l
}

// CheckSamples verifies that every table sample appears in the variant
// source's sample set. A mismatch is a configuration error and aborts
// the run before any record is processed.
func (e *Engine) CheckSamples(vcfSamples []string) error {
	present := make(map[string]bool, len(vcfSamples))
	for _, s := range vcfSamples {
		present[s] = true
	}
	var missing []string
	for _, s := range e.table.Samples {
		if !present[s] {
			missing = append(missing, s)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("samples missing from variant source: %s",
			strings.Join(missing, ", "))
	}
	return nil
}

// ProcessAll consumes every variant from the reader, mutating the
// table in place, and returns the run counters. Record-level anomalies
// are tallied, never returned as errors; only stream failures abort.
func (e *Engine) ProcessAll(r vcf.Reader) (Counters, error) {
	var c Counters
	for {
		v, err := r.Next()
		if err != nil {
			return c, fmt.Errorf("read variant: %w", err)
		}
		if v == nil {
			break
		}
		e.process(v, &c)
	}

	e.logger.Info("variant ingestion finished",
		zap.Int("accepted", c.Accepted),
		zap.Int("indel", c.Indel),
		zap.Int("low_qual", c.LowQual),
		zap.Int("low_depth", c.LowDepth),
		zap.Int("low_freq", c.LowFreq),
		zap.Int("unannotated", c.Unannotated),
		zap.Int("ambiguous", c.Ambiguous))

	return c, nil
}

// process applies the acceptance filters to one variant and records
// events for every (sample, overlapping annotation) pair carrying an
// accepted alternate allele.
func (e *Engine) process(v *vcf.Variant, c *Counters) {
	// Indels are incompatible with point-substitution classification.
	if v.IsIndel() {
		c.Indel++
		return
	}
	if v.Depth < e.opts.MinReads {
		c.LowDepth++
		return
	}
	if v.Qual < e.opts.MinQual {
		c.LowQual++
		return
	}

	// A sequence absent from the store or the reference set is
	// tolerated: the VCF may cover more than the annotated region.
	seq, haveSeq := e.seqs[v.SeqID]
	if !haveSeq || !e.store.HasSeq(v.SeqID) {
		c.Unannotated++
		return
	}

	pos := v.Pos - 1 // annotations use 0-based coordinates
	anns := e.store.Overlapping(v.SeqID, pos)

	for i, alt := range v.Alts {
		if len(alt) != 1 {
			// Equal-length multi-base substitution; not a point change.
			c.Indel++
			continue
		}
		if v.AltFreq(i) < e.opts.MinFreq {
			c.LowFreq++
			continue
		}
		c.Accepted++

		carriers := v.Carriers(i)
		if len(carriers) == 0 {
			continue
		}

		for _, ann := range anns {
			class := e.classify(ann, seq, pos, alt[0])
			if class == codon.Ambiguous {
				// Non-strict mode: ambiguous translation counts as
				// nonsynonymous.
				c.Ambiguous++
				class = codon.Nonsynonymous
			}
			rel := ann.RelPosition(pos)
			for _, sample := range carriers {
				g := e.table.Get(sample, ann.UID)
				if g == nil {
					continue
				}
				if class == codon.Synonymous {
					g.AddSyn(rel, alt)
				} else {
					g.AddNonSyn(rel, alt)
				}
			}
		}
	}
}

// classify determines the substitution class for an alternate base at
// a 0-based position within an annotation. The alternate base is
// complemented for reverse-strand features before codon mutation.
func (e *Engine) classify(ann *gff.Annotation, seq string, pos int64, altBase byte) codon.Class {
	refCodon, posInCodon, ok := ann.CodonAt(seq, pos)
	if !ok {
		return codon.Ambiguous
	}
	if !ann.IsForwardStrand() {
		altBase = codon.Complement(altBase)
	}
	return codon.Classify(refCodon, posInCodon, altBase)
}
