// Package gff provides the annotation store: coding-feature records
// parsed from GFF, reference sequence access and expected-site counts.
package gff

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strings"

	"github.com/mgx-tools/pnps/internal/codon"
)

// Annotation represents one coding feature on a reference sequence.
// Coordinates are 0-based half-open. An Annotation is created by
// parsing, mutated once to attach expected-site counts, and read-only
// afterwards.
type Annotation struct {
	UID     string
	GeneID  string
	SeqID   string
	Start   int64 // inclusive
	End     int64 // exclusive
	Strand  int8  // +1 or -1
	Frame   int   // 0, 1 or 2
	TaxonID int32

	// Coverage maps sample name to read depth over the feature.
	Coverage map[string]int

	// Expected synonymous/nonsynonymous site counts, set once from the
	// reference sequence.
	ExpSyn    float64
	ExpNonsyn float64

	// Attributes holds extension fields beyond the fixed schema.
	Attributes *AttributeBag

	expSet bool
}

// Contains returns true if the 0-based position falls within the feature.
func (a *Annotation) Contains(pos int64) bool {
	return pos >= a.Start && pos < a.End
}

// Length returns the feature length in bases.
func (a *Annotation) Length() int64 {
	return a.End - a.Start
}

// RelPosition returns the position relative to the annotation start.
func (a *Annotation) RelPosition(pos int64) int64 {
	return pos - a.Start
}

// SampleCoverage returns the read depth for a sample, 0 if unknown.
func (a *Annotation) SampleCoverage(sample string) int {
	return a.Coverage[sample]
}

// SetExpSites attaches the expected site counts. The counts are
// immutable once set.
func (a *Annotation) SetExpSites(syn, nonsyn float64) error {
	if a.expSet {
		return fmt.Errorf("annotation %s: expected sites already set", a.UID)
	}
	a.ExpSyn = syn
	a.ExpNonsyn = nonsyn
	a.expSet = true
	return nil
}

// HasExpSites reports whether expected site counts have been attached.
func (a *Annotation) HasExpSites() bool {
	return a.expSet
}

// IsForwardStrand returns true if the feature is on the forward strand.
func (a *Annotation) IsForwardStrand() bool {
	return a.Strand != -1
}

// CodingSequence returns the feature's coding-strand sequence starting
// at the reading frame offset. seq is the full reference sequence.
func (a *Annotation) CodingSequence(seq string) string {
	start, end := a.Start, a.End
	if start < 0 {
		start = 0
	}
	if end > int64(len(seq)) {
		end = int64(len(seq))
	}
	if start >= end {
		return ""
	}
	if a.IsForwardStrand() {
		from := start + int64(a.Frame)
		if from >= end {
			return ""
		}
		return strings.ToUpper(seq[from:end])
	}
	to := end - int64(a.Frame)
	if to <= start {
		return ""
	}
	return strings.ToUpper(codon.ReverseComplement(seq[start:to]))
}

// CodonAt returns the codon containing the 0-based genomic position,
// the position within that codon on the coding strand, and whether a
// complete codon could be extracted. Positions upstream of the frame
// offset or in a trailing partial codon yield ok=false.
func (a *Annotation) CodonAt(seq string, pos int64) (string, int, bool) {
	if !a.Contains(pos) || pos >= int64(len(seq)) {
		return "", 0, false
	}

	if a.IsForwardStrand() {
		codingStart := a.Start + int64(a.Frame)
		off := pos - codingStart
		if off < 0 {
			return "", 0, false
		}
		cs := codingStart + (off/3)*3
		if cs+3 > a.End || cs+3 > int64(len(seq)) {
			return "", 0, false
		}
		return strings.ToUpper(seq[cs : cs+3]), int(off % 3), true
	}

	codingStart := a.End - 1 - int64(a.Frame)
	off := codingStart - pos
	if off < 0 {
		return "", 0, false
	}
	hi := codingStart - (off/3)*3
	if hi-2 < a.Start || hi-2 < 0 || hi >= int64(len(seq)) {
		return "", 0, false
	}
	return strings.ToUpper(codon.ReverseComplement(seq[hi-2 : hi+1])), int(off % 3), true
}

// AttributeBag is an ordered mapping of extension attributes attached
// to a genomic feature. Insertion order is preserved for stable
// serialization; equality and hashing are defined over the canonical
// sorted key-value projection.
type AttributeBag struct {
	keys   []string
	values map[string]string
}

// NewAttributeBag creates an empty attribute bag.
func NewAttributeBag() *AttributeBag {
	return &AttributeBag{values: make(map[string]string)}
}

// Set stores an attribute, keeping the first-insertion order for keys.
func (b *AttributeBag) Set(key, value string) {
	if _, ok := b.values[key]; !ok {
		b.keys = append(b.keys, key)
	}
	b.values[key] = value
}

// Get returns the value for a key.
func (b *AttributeBag) Get(key string) (string, bool) {
	v, ok := b.values[key]
	return v, ok
}

// Len returns the number of attributes.
func (b *AttributeBag) Len() int {
	return len(b.keys)
}

// Keys returns the attribute keys in insertion order.
func (b *AttributeBag) Keys() []string {
	out := make([]string, len(b.keys))
	copy(out, b.keys)
	return out
}

// canonical returns the sorted key-value projection used for equality,
// hashing and String.
func (b *AttributeBag) canonical() []string {
	pairs := make([]string, 0, len(b.keys))
	for _, k := range b.keys {
		pairs = append(pairs, k+`="`+b.values[k]+`"`)
	}
	sort.Strings(pairs)
	return pairs
}

// String renders the bag as GFF-style attributes, sorted by key.
func (b *AttributeBag) String() string {
	return strings.Join(b.canonical(), ";")
}

// Equal compares two bags over their canonical projections.
func (b *AttributeBag) Equal(other *AttributeBag) bool {
	if b == nil || other == nil {
		return b == other
	}
	return b.String() == other.String()
}

// Hash returns a stable hash of the canonical projection.
func (b *AttributeBag) Hash() uint64 {
	h := fnv.New64a()
	for _, pair := range b.canonical() {
		h.Write([]byte(pair))
		h.Write([]byte{';'})
	}
	return h.Sum64()
}
