// Package codon provides genetic code translation, substitution
// classification and codon degeneracy (expected site) counting.
package codon

// Standard genetic code: DNA codon to amino acid (single letter).
var codonTable = map[string]byte{
	"TTT": 'F', "TTC": 'F', "TTA": 'L', "TTG": 'L',
	"TCT": 'S', "TCC": 'S', "TCA": 'S', "TCG": 'S',
	"TAT": 'Y', "TAC": 'Y', "TAA": '*', "TAG": '*',
	"TGT": 'C', "TGC": 'C', "TGA": '*', "TGG": 'W',

	"CTT": 'L', "CTC": 'L', "CTA": 'L', "CTG": 'L',
	"CCT": 'P', "CCC": 'P', "CCA": 'P', "CCG": 'P',
	"CAT": 'H', "CAC": 'H', "CAA": 'Q', "CAG": 'Q',
	"CGT": 'R', "CGC": 'R', "CGA": 'R', "CGG": 'R',

	"ATT": 'I', "ATC": 'I', "ATA": 'I', "ATG": 'M',
	"ACT": 'T', "ACC": 'T', "ACA": 'T', "ACG": 'T',
	"AAT": 'N', "AAC": 'N', "AAA": 'K', "AAG": 'K',
	"AGT": 'S', "AGC": 'S', "AGA": 'R', "AGG": 'R',

	"GTT": 'V', "GTC": 'V', "GTA": 'V', "GTG": 'V',
	"GCT": 'A', "GCC": 'A', "GCA": 'A', "GCG": 'A',
	"GAT": 'D', "GAC": 'D', "GAA": 'E', "GAG": 'E',
	"GGT": 'G', "GGC": 'G', "GGA": 'G', "GGG": 'G',
}

var bases = [4]byte{'A', 'C', 'G', 'T'}

// Translate translates a DNA codon to its amino acid.
// Returns 'X' for unknown or incomplete codons and '*' for stop codons.
func Translate(codon string) byte {
	if len(codon) != 3 {
		return 'X'
	}
	if aa, ok := codonTable[upper3(codon)]; ok {
		return aa
	}
	return 'X'
}

// upper3 uppercases a 3-base codon without allocating when already upper.
func upper3(codon string) string {
	for i := 0; i < 3; i++ {
		c := codon[i]
		if c >= 'a' && c <= 'z' {
			var buf [3]byte
			for j := 0; j < 3; j++ {
				buf[j] = codon[j] &^ 0x20
			}
			return string(buf[:])
		}
	}
	return codon
}

// Complement returns the complement of a single base.
func Complement(base byte) byte {
	switch base {
	case 'A':
		return 'T'
	case 'T':
		return 'A'
	case 'G':
		return 'C'
	case 'C':
		return 'G'
	case 'a':
		return 't'
	case 't':
		return 'a'
	case 'g':
		return 'c'
	case 'c':
		return 'g'
	default:
		return 'N'
	}
}

// ReverseComplement returns the reverse complement of a DNA sequence.
func ReverseComplement(seq string) string {
	n := len(seq)
	// Stack-allocate for codon-sized inputs.
	var buf [64]byte
	var result []byte
	if n <= len(buf) {
		result = buf[:n]
	} else {
		result = make([]byte, n)
	}
	for i := 0; i < n; i++ {
		result[i] = Complement(seq[n-1-i])
	}
	return string(result)
}

// MutateCodon applies a single-base substitution to a codon.
// positionInCodon is 0, 1, or 2.
func MutateCodon(codon string, positionInCodon int, newBase byte) string {
	if len(codon) != 3 || positionInCodon < 0 || positionInCodon > 2 {
		return codon
	}
	var buf [3]byte
	copy(buf[:], codon)
	buf[positionInCodon] = newBase
	return string(buf[:])
}

// Class is the outcome of classifying a point substitution.
type Class int

const (
	// Synonymous substitutions leave the encoded amino acid unchanged.
	Synonymous Class = iota
	// Nonsynonymous substitutions change the encoded amino acid.
	Nonsynonymous
	// Ambiguous marks substitutions that cannot be translated
	// (incomplete codon, non-ACGT base). Callers running in non-strict
	// mode treat these as nonsynonymous.
	Ambiguous
)

func (c Class) String() string {
	switch c {
	case Synonymous:
		return "synonymous"
	case Nonsynonymous:
		return "nonsynonymous"
	default:
		return "ambiguous"
	}
}

// Classify determines whether replacing the base at positionInCodon with
// altBase is a synonymous or nonsynonymous change. Codons that do not
// translate cleanly yield Ambiguous, never an error.
func Classify(refCodon string, positionInCodon int, altBase byte) Class {
	refAA := Translate(refCodon)
	if refAA == 'X' {
		return Ambiguous
	}
	if altBase >= 'a' && altBase <= 'z' {
		altBase &^= 0x20
	}
	altAA := Translate(MutateCodon(upper3(refCodon), positionInCodon, altBase))
	if altAA == 'X' {
		return Ambiguous
	}
	if refAA == altAA {
		return Synonymous
	}
	return Nonsynonymous
}

// CountSites returns the expected synonymous and nonsynonymous site
// counts for one codon. Each of the three positions contributes one
// site, split by the fraction of the three possible substitutions that
// preserve the amino acid, so syn+nonsyn == 3 for a translatable codon.
// Codons that do not translate contribute nothing.
func CountSites(codon string) (syn, nonsyn float64) {
	if len(codon) != 3 {
		return 0, 0
	}
	c := upper3(codon)
	refAA := Translate(c)
	if refAA == 'X' {
		return 0, 0
	}
	for pos := 0; pos < 3; pos++ {
		var synChanges int
		for _, b := range bases {
			if b == c[pos] {
				continue
			}
			if Translate(MutateCodon(c, pos, b)) == refAA {
				synChanges++
			}
		}
		frac := float64(synChanges) / 3.0
		syn += frac
		nonsyn += 1.0 - frac
	}
	return syn, nonsyn
}

// SequenceSites sums expected sites across a coding sequence read in
// frame from its first base. A trailing partial codon is ignored.
func SequenceSites(seq string) (syn, nonsyn float64) {
	for i := 0; i+3 <= len(seq); i += 3 {
		s, n := CountSites(seq[i : i+3])
		syn += s
		nonsyn += n
	}
	return syn, nonsyn
}
