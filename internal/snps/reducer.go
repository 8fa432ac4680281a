package snps

import (
	"sort"

	"github.com/mgx-tools/pnps/internal/taxon"
)

// GroupMode selects the grouping key for the reduction.
type GroupMode int

const (
	// ByGene groups records by gene id.
	ByGene GroupMode = iota
	// ByTaxon groups records by taxon id.
	ByTaxon
	// ByGeneTaxon groups records by the (gene id, taxon id) pair.
	ByGeneTaxon
)

// RatioMode selects which statistic the reducer emits.
type RatioMode int

const (
	// Full computes pN/pS.
	Full RatioMode = iota
	// PNOnly computes only pN.
	PNOnly
	// PSOnly computes only pS.
	PSOnly
)

// GeneMap remaps a gene id to one or more external ids. A gene mapping
// to several ids contributes its counts to every resulting key
// (fan-out); genes absent from a non-nil map are excluded.
type GeneMap map[string][]string

// TaxonRemap maps a taxon id to at most one replacement id, typically
// an ancestor at a fixed rank. ok=false excludes the record from
// taxon-keyed grouping.
type TaxonRemap func(int32) (int32, bool)

// RankRemap builds a TaxonRemap selecting the first ancestor at the
// given rank.
func RankRemap(tx *taxon.Taxonomy, rank string) TaxonRemap {
	return func(id int32) (int32, bool) {
		return tx.RankedAncestor(id, rank)
	}
}

// ReduceOptions configures a reduction pass.
type ReduceOptions struct {
	Mode    GroupMode
	Ratio   RatioMode
	MinNum  int // minimum samples with a defined value per group
	Filters []Filter
	GeneMap GeneMap    // optional gene-id remapping (fan-out)
	Taxa    TaxonRemap // optional taxon-id remapping (single-valued)
}

// Key identifies one output group. TaxonID is 0 when the mode does not
// group by taxon; GeneID is empty when it does not group by gene.
type Key struct {
	GeneID  string
	TaxonID int32
}

// Row is one output group with its per-sample values. Samples without
// a defined value are absent from the map: undefined is not zero.
type Row struct {
	GeneID  string
	TaxonID int32
	Values  map[string]float64
}

// Result is the reduced pN/pS table.
type Result struct {
	Mode    GroupMode
	Ratio   RatioMode
	Samples []string
	Rows    []Row
}

// sums accumulates observed events and expected sites for one
// (group, sample) cell.
type sums struct {
	obsSyn    int
	obsNonsyn int
	expSyn    float64
	expNonsyn float64
}

// Reduce filters, groups and aggregates the table into final ratio
// values. The output never contains NaN or infinities: cells whose
// statistic is undefined are simply absent.
func Reduce(t *Table, opts ReduceOptions) *Result {
	acc := make(map[Key]map[string]*sums)

	for _, sample := range t.Samples {
		for _, g := range t.Data[sample] {
			if !passes(g, opts.Filters) {
				continue
			}
			for _, key := range groupKeys(g, opts) {
				bySample, ok := acc[key]
				if !ok {
					bySample = make(map[string]*sums)
					acc[key] = bySample
				}
				s, ok := bySample[sample]
				if !ok {
					s = &sums{}
					bySample[sample] = s
				}
				s.obsSyn += len(g.Syn)
				s.obsNonsyn += len(g.NonSyn)
				s.expSyn += g.ExpSyn
				s.expNonsyn += g.ExpNonsyn
			}
		}
	}

	res := &Result{
		Mode:    opts.Mode,
		Ratio:   opts.Ratio,
		Samples: append([]string(nil), t.Samples...),
	}

	for key, bySample := range acc {
		values := make(map[string]float64)
		for sample, s := range bySample {
			if v, ok := cellValue(s, opts.Ratio); ok {
				values[sample] = v
			}
		}
		// Groups with too few defined samples are dropped entirely.
		if len(values) < opts.MinNum {
			continue
		}
		res.Rows = append(res.Rows, Row{
			GeneID:  key.GeneID,
			TaxonID: key.TaxonID,
			Values:  values,
		})
	}

	sort.Slice(res.Rows, func(i, j int) bool {
		if res.Rows[i].GeneID != res.Rows[j].GeneID {
			return res.Rows[i].GeneID < res.Rows[j].GeneID
		}
		return res.Rows[i].TaxonID < res.Rows[j].TaxonID
	})

	return res
}

// passes applies every filter predicate.
func passes(g *GeneSNP, filters []Filter) bool {
	for _, f := range filters {
		if !f(g) {
			return false
		}
	}
	return true
}

// groupKeys returns the output keys a record contributes to, after
// gene and taxon remapping. Gene remapping fans out; taxon remapping
// is single-valued. An empty result excludes the record.
func groupKeys(g *GeneSNP, opts ReduceOptions) []Key {
	genes := []string{""}
	if opts.Mode == ByGene || opts.Mode == ByGeneTaxon {
		if opts.GeneMap != nil {
			mapped, ok := opts.GeneMap[g.GeneID]
			if !ok || len(mapped) == 0 {
				return nil
			}
			genes = mapped
		} else {
			genes = []string{g.GeneID}
		}
	}

	taxonID := int32(0)
	if opts.Mode == ByTaxon || opts.Mode == ByGeneTaxon {
		taxonID = g.TaxonID
		if opts.Taxa != nil {
			id, ok := opts.Taxa(g.TaxonID)
			if !ok {
				return nil
			}
			taxonID = id
		}
	}

	keys := make([]Key, 0, len(genes))
	for _, gene := range genes {
		keys = append(keys, Key{GeneID: gene, TaxonID: taxonID})
	}
	return keys
}

// cellValue computes the statistic for one cell. A one-sided p-value
// is defined when its expected-site denominator is positive; zero
// observed events with positive expected sites is a defined zero. The
// full ratio requires all four counts to be nonzero.
func cellValue(s *sums, mode RatioMode) (float64, bool) {
	pN, pNOK := ratio(s.obsNonsyn, s.expNonsyn)
	pS, pSOK := ratio(s.obsSyn, s.expSyn)

	switch mode {
	case PNOnly:
		return pN, pNOK
	case PSOnly:
		return pS, pSOK
	default:
		if !pNOK || !pSOK || pS == 0 || pN == 0 {
			return 0, false
		}
		return pN / pS, true
	}
}

// ratio guards the division: a zero denominator yields undefined, it
// never raises or produces infinity.
func ratio(observed int, expected float64) (float64, bool) {
	if expected <= 0 {
		return 0, false
	}
	return float64(observed) / expected, true
}
