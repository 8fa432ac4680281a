package gff

import "testing"

func TestAttributeBagOrderAndEquality(t *testing.T) {
	b1 := NewAttributeBag()
	b1.Set("ko_idx", "test")
	b1.Set("cov", "3")

	b2 := NewAttributeBag()
	b2.Set("cov", "3")
	b2.Set("ko_idx", "test")

	// Insertion order preserved per bag
	keys := b1.Keys()
	if len(keys) != 2 || keys[0] != "ko_idx" || keys[1] != "cov" {
		t.Errorf("Keys() = %v, want [ko_idx cov]", keys)
	}

	// Equality and hashing over the sorted projection
	if !b1.Equal(b2) {
		t.Error("bags with same content should be equal regardless of order")
	}
	if b1.Hash() != b2.Hash() {
		t.Error("equal bags must hash identically")
	}
	if got := b1.String(); got != `cov="3";ko_idx="test"` {
		t.Errorf("String() = %q", got)
	}

	b2.Set("cov", "9")
	if b1.Equal(b2) {
		t.Error("bags with different values should not be equal")
	}
}

func TestAnnotationContains(t *testing.T) {
	a := &Annotation{Start: 10, End: 20}
	for pos, want := range map[int64]bool{9: false, 10: true, 19: true, 20: false} {
		if got := a.Contains(pos); got != want {
			t.Errorf("Contains(%d) = %v, want %v", pos, got, want)
		}
	}
}

func TestSetExpSitesOnce(t *testing.T) {
	a := &Annotation{UID: "u1"}
	if err := a.SetExpSites(10, 20); err != nil {
		t.Fatalf("first SetExpSites: %v", err)
	}
	if err := a.SetExpSites(1, 2); err == nil {
		t.Fatal("second SetExpSites should fail")
	}
	if a.ExpSyn != 10 || a.ExpNonsyn != 20 {
		t.Errorf("counts mutated: (%v, %v)", a.ExpSyn, a.ExpNonsyn)
	}
}

func TestCodonAtForward(t *testing.T) {
	seq := "ATGGGGTAA"
	a := &Annotation{SeqID: "c1", Start: 0, End: 9, Strand: 1, Frame: 0}

	codon, pos, ok := a.CodonAt(seq, 4)
	if !ok || codon != "GGG" || pos != 1 {
		t.Errorf("CodonAt(4) = (%q, %d, %v), want (GGG, 1, true)", codon, pos, ok)
	}

	codon, pos, ok = a.CodonAt(seq, 0)
	if !ok || codon != "ATG" || pos != 0 {
		t.Errorf("CodonAt(0) = (%q, %d, %v), want (ATG, 0, true)", codon, pos, ok)
	}
}

func TestCodonAtFrameOffset(t *testing.T) {
	// Frame 1: coding starts at position 1; position 0 is untranslatable.
	seq := "AATGGGGTAA"
	a := &Annotation{Start: 0, End: 10, Strand: 1, Frame: 1}

	if _, _, ok := a.CodonAt(seq, 0); ok {
		t.Error("position before frame offset should not yield a codon")
	}
	codon, pos, ok := a.CodonAt(seq, 1)
	if !ok || codon != "ATG" || pos != 0 {
		t.Errorf("CodonAt(1) = (%q, %d, %v), want (ATG, 0, true)", codon, pos, ok)
	}
	// Trailing partial codon (positions 7..9 are TAA, but frame leaves none)
	if _, _, ok := a.CodonAt(seq, 9); !ok {
		// positions 7,8,9 form the third complete codon of the frame
		t.Error("position 9 should be inside a complete codon")
	}
}

func TestCodonAtReverse(t *testing.T) {
	seq := "AAATTTGGG"
	a := &Annotation{Start: 0, End: 9, Strand: -1, Frame: 0}

	// Coding strand reads CCC AAA TTT
	codon, pos, ok := a.CodonAt(seq, 8)
	if !ok || codon != "CCC" || pos != 0 {
		t.Errorf("CodonAt(8) = (%q, %d, %v), want (CCC, 0, true)", codon, pos, ok)
	}
	codon, pos, ok = a.CodonAt(seq, 3)
	if !ok || codon != "AAA" || pos != 2 {
		t.Errorf("CodonAt(3) = (%q, %d, %v), want (AAA, 2, true)", codon, pos, ok)
	}
}

func TestCodingSequence(t *testing.T) {
	seq := "aaatttggg"
	fwd := &Annotation{Start: 0, End: 9, Strand: 1, Frame: 0}
	if got := fwd.CodingSequence(seq); got != "AAATTTGGG" {
		t.Errorf("forward CodingSequence = %q", got)
	}
	rev := &Annotation{Start: 0, End: 9, Strand: -1, Frame: 0}
	if got := rev.CodingSequence(seq); got != "CCCAAATTT" {
		t.Errorf("reverse CodingSequence = %q", got)
	}
	framed := &Annotation{Start: 0, End: 9, Strand: 1, Frame: 2}
	if got := framed.CodingSequence(seq); got != "ATTTGGG" {
		t.Errorf("framed CodingSequence = %q", got)
	}
}
