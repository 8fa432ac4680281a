// Package taxon provides the reference taxonomy lookup: ancestor
// chains, rank mapping and lineage strings.
package taxon

import (
	"encoding/gob"
	"fmt"
	"io"
	"strings"
)

// Taxon is one node in the reference taxonomy.
type Taxon struct {
	ID       int32
	ParentID int32
	Name     string // scientific name
	Rank     string
}

// DefaultRanks returns the ranks used for lineage strings, root to
// leaf. Callers needing a different list pass their own; there is no
// mutable package-level state.
func DefaultRanks() []string {
	return []string{
		"superkingdom", "kingdom", "phylum", "class",
		"order", "family", "genus", "species",
	}
}

// Taxonomy is an in-memory taxonomy lookup.
type Taxonomy struct {
	taxa map[int32]Taxon
}

// New creates an empty taxonomy.
func New() *Taxonomy {
	return &Taxonomy{taxa: make(map[int32]Taxon)}
}

// Add inserts or replaces a taxon.
func (tx *Taxonomy) Add(t Taxon) {
	tx.taxa[t.ID] = t
}

// Get returns a taxon by id.
func (tx *Taxonomy) Get(id int32) (Taxon, bool) {
	t, ok := tx.taxa[id]
	return t, ok
}

// Len returns the number of taxa.
func (tx *Taxonomy) Len() int {
	return len(tx.taxa)
}

// Ancestors returns the ancestor chain of a taxon, closest parent
// first, ending at the root. The taxon itself is not included.
func (tx *Taxonomy) Ancestors(id int32) []int32 {
	var chain []int32
	seen := map[int32]bool{id: true}
	cur, ok := tx.taxa[id]
	for ok {
		parent := cur.ParentID
		if parent == 0 || parent == cur.ID || seen[parent] {
			break
		}
		chain = append(chain, parent)
		seen[parent] = true
		cur, ok = tx.taxa[parent]
	}
	return chain
}

// IsAncestor reports whether ancestor is id itself or appears in its
// ancestor chain.
func (tx *Taxonomy) IsAncestor(ancestor, id int32) bool {
	if ancestor == id {
		return true
	}
	for _, a := range tx.Ancestors(id) {
		if a == ancestor {
			return true
		}
	}
	return false
}

// RankedAncestor walks from the taxon itself up the ancestor chain and
// returns the first node whose rank equals the target. ok=false means
// no mapping exists at that rank; callers exclude the taxon from
// rank-based grouping, it is not an error. Checking the taxon itself
// first makes the mapping idempotent.
func (tx *Taxonomy) RankedAncestor(id int32, rank string) (int32, bool) {
	if t, ok := tx.taxa[id]; ok && t.Rank == rank {
		return id, true
	}
	for _, a := range tx.Ancestors(id) {
		if t, ok := tx.taxa[a]; ok && t.Rank == rank {
			return a, true
		}
	}
	return 0, false
}

// Name returns the scientific name of a taxon, or its numeric id when
// unknown.
func (tx *Taxonomy) Name(id int32) string {
	if t, ok := tx.taxa[id]; ok && t.Name != "" {
		return t.Name
	}
	return fmt.Sprintf("%d", id)
}

// Lineage renders the rank-labelled ancestor chain of a taxon from
// root to the taxon itself, joined by sep. Only nodes whose rank is in
// ranks appear; each element reads rank:name.
func (tx *Taxonomy) Lineage(id int32, ranks []string, sep string) string {
	wanted := make(map[string]bool, len(ranks))
	for _, r := range ranks {
		wanted[r] = true
	}

	// Root-to-leaf order: reversed ancestor chain plus the taxon itself.
	chain := tx.Ancestors(id)
	var parts []string
	for i := len(chain) - 1; i >= 0; i-- {
		if t, ok := tx.taxa[chain[i]]; ok && wanted[t.Rank] {
			parts = append(parts, t.Rank+":"+t.Name)
		}
	}
	if t, ok := tx.taxa[id]; ok && wanted[t.Rank] {
		parts = append(parts, t.Rank+":"+t.Name)
	}
	return strings.Join(parts, sep)
}

// Save writes the taxonomy as a gob blob.
func (tx *Taxonomy) Save(w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(tx.taxa); err != nil {
		return fmt.Errorf("encode taxonomy: %w", err)
	}
	return nil
}

// Load reads a taxonomy previously written by Save.
func Load(r io.Reader) (*Taxonomy, error) {
	tx := New()
	if err := gob.NewDecoder(r).Decode(&tx.taxa); err != nil {
		return nil, fmt.Errorf("decode taxonomy: %w", err)
	}
	return tx, nil
}
