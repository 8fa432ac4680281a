package codon

import (
	"math"
	"testing"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name  string
		codon string
		want  byte
	}{
		{"ATG -> Met (start)", "ATG", 'M'},
		{"GGT -> Gly", "GGT", 'G'},
		{"TTT -> Phe", "TTT", 'F'},
		{"AAA -> Lys", "AAA", 'K'},

		{"TAA -> Stop", "TAA", '*'},
		{"TAG -> Stop", "TAG", '*'},
		{"TGA -> Stop", "TGA", '*'},

		{"lowercase atg", "atg", 'M'},
		{"mixed case AtG", "AtG", 'M'},

		{"too short", "AT", 'X'},
		{"too long", "ATGG", 'X'},
		{"ambiguous base", "ANG", 'X'},
		{"empty", "", 'X'},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Translate(tt.codon)
			if got != tt.want {
				t.Errorf("Translate(%q) = %c, want %c", tt.codon, got, tt.want)
			}
		})
	}
}

func TestReverseComplement(t *testing.T) {
	tests := []struct {
		name string
		seq  string
		want string
	}{
		{"simple", "ATGC", "GCAT"},
		{"single base", "A", "T"},
		{"palindrome", "ATAT", "ATAT"},
		{"poly-A", "AAAA", "TTTT"},
		{"lowercase", "atgc", "gcat"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ReverseComplement(tt.seq)
			if got != tt.want {
				t.Errorf("ReverseComplement(%q) = %q, want %q", tt.seq, got, tt.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		codon string
		pos   int
		alt   byte
		want  Class
	}{
		// TTT(F) -> TTC(F): third position, synonymous
		{"twofold third position", "TTT", 2, 'C', Synonymous},
		// GGT(G) -> GGA(G): glycine is fourfold degenerate
		{"fourfold third position", "GGT", 2, 'A', Synonymous},
		// TTT(F) -> TTA(L)
		{"third position nonsynonymous", "TTT", 2, 'A', Nonsynonymous},
		// GGT(G) -> AGT(S)
		{"first position nonsynonymous", "GGT", 0, 'A', Nonsynonymous},
		// TAT(Y) -> TAA(*): stop gain still changes the product
		{"stop gain", "TAT", 2, 'A', Nonsynonymous},
		// Ambiguity in either codon or substituted base
		{"ambiguous ref codon", "ANT", 1, 'C', Ambiguous},
		{"ambiguous alt base", "GGT", 2, 'N', Ambiguous},
		{"lowercase input", "ggt", 2, 'a', Synonymous},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.codon, tt.pos, tt.alt)
			if got != tt.want {
				t.Errorf("Classify(%q, %d, %c) = %v, want %v",
					tt.codon, tt.pos, tt.alt, got, tt.want)
			}
		})
	}
}

func TestCountSites(t *testing.T) {
	tests := []struct {
		codon      string
		wantSyn    float64
		wantNonsyn float64
	}{
		// TTT: only TTC is synonymous -> 1/3 syn site
		{"TTT", 1.0 / 3.0, 8.0 / 3.0},
		// GGG: fourfold degenerate third position -> exactly 1 syn site
		{"GGG", 1.0, 2.0},
		// ATG: methionine, no synonymous changes at all
		{"ATG", 0.0, 3.0},
		// Untranslatable codons contribute nothing
		{"ANG", 0.0, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.codon, func(t *testing.T) {
			syn, nonsyn := CountSites(tt.codon)
			if math.Abs(syn-tt.wantSyn) > 1e-9 || math.Abs(nonsyn-tt.wantNonsyn) > 1e-9 {
				t.Errorf("CountSites(%q) = (%v, %v), want (%v, %v)",
					tt.codon, syn, nonsyn, tt.wantSyn, tt.wantNonsyn)
			}
		})
	}
}

func TestCountSitesInvariant(t *testing.T) {
	// For every translatable codon syn+nonsyn must be exactly 3.
	for c := range codonTable {
		syn, nonsyn := CountSites(c)
		if math.Abs(syn+nonsyn-3.0) > 1e-9 {
			t.Errorf("CountSites(%q): syn+nonsyn = %v, want 3", c, syn+nonsyn)
		}
	}
}

func TestSequenceSites(t *testing.T) {
	// ATG GGG -> 0+3 and 1+2; trailing partial codon ignored.
	syn, nonsyn := SequenceSites("ATGGGGTA")
	if math.Abs(syn-1.0) > 1e-9 || math.Abs(nonsyn-5.0) > 1e-9 {
		t.Errorf("SequenceSites = (%v, %v), want (1, 5)", syn, nonsyn)
	}
}
