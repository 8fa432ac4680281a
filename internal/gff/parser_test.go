package gff

import (
	"math"
	"strings"
	"testing"
)

const testGFF = `##gff-version 3
contig-1	prodigal	CDS	1	9	.	+	0	uid=u1;gene_id=g1;taxon_id=839;cov_s1=5;cov_s2=7;ko_idx=K00001
contig-1	prodigal	CDS	5	13	.	-	0	uid=u2;gene_id=g2;taxon_id=838;cov_s1=3
contig-2	prodigal	CDS	2	10	.	+	1	uid=u3;gene_id=g1;taxon_id=2;cov_s2=9;exp_syn=2.5;exp_nonsyn=6.5
contig-2	prodigal	CDS	2	10	.	+	0	gene_id=orphan
`

func TestParseGFF(t *testing.T) {
	anns, err := ParseGFF(strings.NewReader(testGFF))
	if err != nil {
		t.Fatalf("ParseGFF: %v", err)
	}
	// Record without uid is skipped
	if len(anns) != 3 {
		t.Fatalf("got %d annotations, want 3", len(anns))
	}

	a := anns[0]
	if a.UID != "u1" || a.GeneID != "g1" || a.SeqID != "contig-1" {
		t.Errorf("unexpected ids: %+v", a)
	}
	// GFF 1-based inclusive -> 0-based half-open
	if a.Start != 0 || a.End != 9 {
		t.Errorf("coords = [%d, %d), want [0, 9)", a.Start, a.End)
	}
	if a.TaxonID != 839 {
		t.Errorf("TaxonID = %d, want 839", a.TaxonID)
	}
	if a.SampleCoverage("s1") != 5 || a.SampleCoverage("s2") != 7 {
		t.Errorf("coverage = %v", a.Coverage)
	}
	// Extension attributes land in the bag
	if v, ok := a.Attributes.Get("ko_idx"); !ok || v != "K00001" {
		t.Errorf("ko_idx attribute = (%q, %v)", v, ok)
	}

	if anns[1].Strand != -1 {
		t.Errorf("Strand = %d, want -1", anns[1].Strand)
	}
}

func TestParseLinePrecomputedSites(t *testing.T) {
	anns, err := ParseGFF(strings.NewReader(testGFF))
	if err != nil {
		t.Fatalf("ParseGFF: %v", err)
	}
	a := anns[2]
	if !a.HasExpSites() {
		t.Fatal("exp_syn/exp_nonsyn attributes should restore counts")
	}
	if math.Abs(a.ExpSyn-2.5) > 1e-9 || math.Abs(a.ExpNonsyn-6.5) > 1e-9 {
		t.Errorf("restored counts = (%v, %v)", a.ExpSyn, a.ExpNonsyn)
	}
	if a.Frame != 1 {
		t.Errorf("Frame = %d, want 1", a.Frame)
	}
}

func TestParseLineGTFStyleAttributes(t *testing.T) {
	line := "c1\tsrc\tCDS\t1\t6\t.\t+\t0\t" + `uid "x1"; gene_id "gX"; taxon_id "2"`
	a, err := ParseLine(line)
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	if a.UID != "x1" || a.GeneID != "gX" || a.TaxonID != 2 {
		t.Errorf("GTF-style attributes not parsed: %+v", a)
	}
}

func TestParseFASTA(t *testing.T) {
	in := ">contig-1 length=9\nATGgggTAA\n>contig-2\nAAA\nTTT\n"
	seqs, err := ParseFASTA(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ParseFASTA: %v", err)
	}
	if seqs["contig-1"] != "ATGGGGTAA" {
		t.Errorf("contig-1 = %q", seqs["contig-1"])
	}
	if seqs["contig-2"] != "AAATTT" {
		t.Errorf("contig-2 = %q", seqs["contig-2"])
	}
}
