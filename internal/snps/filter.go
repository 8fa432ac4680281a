package snps

import "github.com/mgx-tools/pnps/internal/taxon"

// Filter decides whether a GeneSNP contributes to the reduction. Each
// filter implements one capability; the reducer applies them in order.
type Filter func(*GeneSNP) bool

// MinCoverage keeps records whose observed coverage meets the minimum.
func MinCoverage(min int) Filter {
	return func(g *GeneSNP) bool {
		return g.Coverage >= min
	}
}

// IncludeTaxa keeps records whose taxon is one of the given ancestors
// or below it.
func IncludeTaxa(tx *taxon.Taxonomy, ids []int32) Filter {
	return func(g *GeneSNP) bool {
		for _, id := range ids {
			if tx.IsAncestor(id, g.TaxonID) {
				return true
			}
		}
		return false
	}
}

// ExcludeTaxa drops records whose taxon is one of the given ancestors
// or below it.
func ExcludeTaxa(tx *taxon.Taxonomy, ids []int32) Filter {
	include := IncludeTaxa(tx, ids)
	return func(g *GeneSNP) bool {
		return !include(g)
	}
}

// DefaultFilters is the standard filter set: minimum coverage plus an
// ancestor constraint when include is non-empty.
func DefaultFilters(tx *taxon.Taxonomy, minCov int, include []int32) []Filter {
	filters := []Filter{MinCoverage(minCov)}
	if len(include) > 0 {
		filters = append(filters, IncludeTaxa(tx, include))
	}
	return filters
}
