package gff

import (
	"math"
	"testing"
)

func testStore() *Store {
	s := NewStore()
	s.AddAll([]*Annotation{
		{UID: "u1", SeqID: "c1", Start: 0, End: 9, Strand: 1,
			Coverage: map[string]int{"s1": 5}},
		{UID: "u2", SeqID: "c1", Start: 4, End: 13, Strand: 1,
			Coverage: map[string]int{"s2": 3}},
		{UID: "u3", SeqID: "c2", Start: 0, End: 6, Strand: 1,
			Coverage: map[string]int{"s1": 2}},
	})
	return s
}

func TestStoreOverlapping(t *testing.T) {
	s := testStore()

	tests := []struct {
		seqID string
		pos   int64
		want  []string
	}{
		{"c1", 2, []string{"u1"}},
		{"c1", 4, []string{"u1", "u2"}},
		{"c1", 8, []string{"u1", "u2"}},
		{"c1", 9, []string{"u2"}}, // half-open: u1 ends at 9
		{"c1", 13, nil},
		{"c2", 0, []string{"u3"}},
		{"missing", 5, nil},
	}

	for _, tt := range tests {
		got := s.Overlapping(tt.seqID, tt.pos)
		uids := make(map[string]bool)
		for _, a := range got {
			uids[a.UID] = true
		}
		if len(got) != len(tt.want) {
			t.Errorf("Overlapping(%s, %d): got %d annotations, want %d",
				tt.seqID, tt.pos, len(got), len(tt.want))
			continue
		}
		for _, uid := range tt.want {
			if !uids[uid] {
				t.Errorf("Overlapping(%s, %d): missing %s", tt.seqID, tt.pos, uid)
			}
		}
	}
}

func TestStoreOverlappingNested(t *testing.T) {
	s := NewStore()
	s.AddAll([]*Annotation{
		{UID: "long", SeqID: "c1", Start: 0, End: 100, Strand: 1},
		{UID: "short", SeqID: "c1", Start: 50, End: 60, Strand: 1},
	})

	// A position past the nested interval's end is still inside the
	// enclosing one.
	got := s.Overlapping("c1", 70)
	if len(got) != 1 || got[0].UID != "long" {
		t.Errorf("Overlapping(c1, 70) = %v, want [long]", got)
	}
	if got := s.Overlapping("c1", 55); len(got) != 2 {
		t.Errorf("Overlapping(c1, 55): got %d annotations, want 2", len(got))
	}
}

func TestStoreSamples(t *testing.T) {
	s := testStore()
	samples := s.Samples()
	if len(samples) != 2 || samples[0] != "s1" || samples[1] != "s2" {
		t.Errorf("Samples() = %v, want [s1 s2]", samples)
	}
}

func TestComputeExpectedSites(t *testing.T) {
	s := NewStore()
	a := &Annotation{UID: "u1", SeqID: "c1", Start: 0, End: 9, Strand: 1}
	b := &Annotation{UID: "u2", SeqID: "gone", Start: 0, End: 6, Strand: 1}
	s.AddAll([]*Annotation{a, b})

	seqs := map[string]string{"c1": "ATGGGGAAA"}
	missing := ComputeExpectedSites(s, seqs, 2)

	if missing != 1 {
		t.Errorf("missing = %d, want 1", missing)
	}
	if !a.HasExpSites() {
		t.Fatal("expected sites not attached")
	}
	// Degeneracy model invariant: syn+nonsyn == 3 per codon.
	if math.Abs(a.ExpSyn+a.ExpNonsyn-9.0) > 1e-9 {
		t.Errorf("syn+nonsyn = %v, want 9", a.ExpSyn+a.ExpNonsyn)
	}
	if b.HasExpSites() {
		t.Error("annotation without a reference sequence must stay unset")
	}
}
