// Package snps implements the pN/pS core: the per-sample aggregation
// table, variant ingestion and the grouping/ratio reducer.
package snps

import (
	"encoding/gob"
	"fmt"
	"io"
	"sort"

	"github.com/mgx-tools/pnps/internal/gff"
)

// Change is one observed substitution event: the position relative to
// the annotation start plus the alternate allele.
type Change struct {
	Pos int64
	Alt string
}

// GeneSNP is the per (sample, feature) aggregate record. It is created
// once during table initialization and mutated additively as variants
// are classified; expected-site counts never change after creation.
type GeneSNP struct {
	UID       string
	GeneID    string
	TaxonID   int32
	ExpSyn    float64
	ExpNonsyn float64
	Coverage  int
	Syn       []Change
	NonSyn    []Change
}

// AddSyn records a synonymous substitution event.
func (g *GeneSNP) AddSyn(pos int64, alt string) {
	g.Syn = append(g.Syn, Change{Pos: pos, Alt: alt})
}

// AddNonSyn records a nonsynonymous substitution event.
func (g *GeneSNP) AddNonSyn(pos int64, alt string) {
	g.NonSyn = append(g.NonSyn, Change{Pos: pos, Alt: alt})
}

// Table is the SNP aggregation table: sample then feature uid to
// GeneSNP. Records are never deleted; repeated ingestion runs
// accumulate additively.
type Table struct {
	Samples []string
	Data    map[string]map[string]*GeneSNP
}

// NewTable creates one GeneSNP per (sample, annotation) pair. If
// samples is nil, the sample names found in annotation coverage maps
// are used.
func NewTable(store *gff.Store, samples []string) *Table {
	if samples == nil {
		samples = store.Samples()
	} else {
		samples = append([]string(nil), samples...)
		sort.Strings(samples)
	}

	t := &Table{
		Samples: samples,
		Data:    make(map[string]map[string]*GeneSNP, len(samples)),
	}
	anns := store.Annotations()
	for _, sample := range samples {
		byUID := make(map[string]*GeneSNP, len(anns))
		for _, a := range anns {
			byUID[a.UID] = &GeneSNP{
				UID:       a.UID,
				GeneID:    a.GeneID,
				TaxonID:   a.TaxonID,
				ExpSyn:    a.ExpSyn,
				ExpNonsyn: a.ExpNonsyn,
				Coverage:  a.SampleCoverage(sample),
			}
		}
		t.Data[sample] = byUID
	}
	return t
}

// Get returns the GeneSNP for a (sample, uid) pair, nil if absent.
func (t *Table) Get(sample, uid string) *GeneSNP {
	return t.Data[sample][uid]
}

// EventCount returns the total number of recorded substitution events
// across the whole table.
func (t *Table) EventCount() int {
	n := 0
	for _, byUID := range t.Data {
		for _, g := range byUID {
			n += len(g.Syn) + len(g.NonSyn)
		}
	}
	return n
}

// Save serializes the table as an opaque gob blob, decoupling variant
// ingestion from ratio computation.
func (t *Table) Save(w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(t); err != nil {
		return fmt.Errorf("encode snp table: %w", err)
	}
	return nil
}

// LoadTable reads a table previously written by Save.
func LoadTable(r io.Reader) (*Table, error) {
	t := &Table{}
	if err := gob.NewDecoder(r).Decode(t); err != nil {
		return nil, fmt.Errorf("decode snp table: %w", err)
	}
	return t, nil
}
