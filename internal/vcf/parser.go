package vcf

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Reader is the interface for sources of variant records.
type Reader interface {
	// Next reads the next variant. Returns nil, nil at end of input.
	Next() (*Variant, error)

	// SampleNames returns the sample names declared in the source header.
	SampleNames() []string

	// Close closes the reader and releases resources.
	Close() error
}

// Parser reads variants from a VCF file.
type Parser struct {
	reader      *bufio.Reader
	file        *os.File
	gzipReader  *gzip.Reader
	lineNumber  int
	header      []string
	sampleNames []string // sample names from the #CHROM header line
}

// NewParser creates a new VCF parser for the given file.
// Supports both plain VCF and gzipped VCF (.vcf.gz) files.
func NewParser(path string) (*Parser, error) {
	if path == "-" {
		return NewParserFromReader(os.Stdin)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vcf file: %w", err)
	}

	p := &Parser{file: file}

	// Check for gzip magic bytes
	buf := make([]byte, 2)
	_, err = file.Read(buf)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("read vcf header: %w", err)
	}

	if _, err := file.Seek(0, 0); err != nil {
		file.Close()
		return nil, fmt.Errorf("seek vcf file: %w", err)
	}

	// Gzip magic number (0x1f, 0x8b)
	if buf[0] == 0x1f && buf[1] == 0x8b {
		p.gzipReader, err = gzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		p.reader = bufio.NewReader(p.gzipReader)
	} else {
		p.reader = bufio.NewReader(file)
	}

	if err := p.parseHeader(); err != nil {
		p.Close()
		return nil, err
	}

	return p, nil
}

// NewParserFromReader creates a parser from an io.Reader (e.g., stdin).
func NewParserFromReader(r io.Reader) (*Parser, error) {
	p := &Parser{
		reader: bufio.NewReader(r),
	}

	if err := p.parseHeader(); err != nil {
		return nil, err
	}

	return p, nil
}

// parseHeader reads and stores VCF header lines.
func (p *Parser) parseHeader() error {
	for {
		line, err := p.reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("read header: %w", err)
		}
		p.lineNumber++

		line = strings.TrimRight(line, "\r\n")

		if strings.HasPrefix(line, "##") {
			p.header = append(p.header, line)
			continue
		}

		if strings.HasPrefix(line, "#CHROM") {
			p.header = append(p.header, line)
			// Sample names follow the FORMAT column (index 9+)
			fields := strings.Split(line, "\t")
			if len(fields) > 9 {
				p.sampleNames = fields[9:]
			}
			return nil
		}

		return &ParseError{
			Line:    p.lineNumber,
			Message: "expected #CHROM header line",
		}
	}

	return &ParseError{
		Line:    p.lineNumber,
		Message: "no #CHROM header line found",
	}
}

// Next reads the next variant from the VCF file.
// Returns nil, nil when there are no more variants.
func (p *Parser) Next() (*Variant, error) {
	line, err := p.reader.ReadString('\n')
	if err != nil {
		// A final line without a trailing newline still holds a record.
		if err == io.EOF {
			if strings.TrimRight(line, "\r\n") == "" {
				return nil, nil
			}
		} else {
			return nil, fmt.Errorf("read variant line: %w", err)
		}
	}
	p.lineNumber++

	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return p.Next() // Skip empty lines
	}

	return p.parseLine(line)
}

// parseLine parses a single VCF data line into a Variant.
func (p *Parser) parseLine(line string) (*Variant, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 8 {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("expected at least 8 columns, found %d", len(fields)),
		}
	}

	pos, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("invalid position: %s", fields[1]),
		}
	}

	qual := 0.0
	if fields[5] != "." {
		qual, _ = strconv.ParseFloat(fields[5], 64)
	}

	v := &Variant{
		SeqID:  fields[0],
		Pos:    pos,
		ID:     fields[2],
		Ref:    fields[3],
		Alts:   strings.Split(fields[4], ","),
		Qual:   qual,
		Filter: fields[6],
		Info:   parseInfo(fields[7]),
	}

	if dp, ok := v.Info["DP"]; ok {
		v.Depth, _ = strconv.Atoi(dp)
	}

	// Genotype columns: FORMAT plus one column per sample
	if len(fields) > 9 && len(p.sampleNames) > 0 {
		v.Genotypes = parseGenotypes(fields[8], fields[9:], p.sampleNames)
	}

	v.Freqs = alleleFrequencies(v)

	return v, nil
}

// parseInfo parses the INFO field into a map. Flag-type entries map to
// an empty string.
func parseInfo(info string) map[string]string {
	result := make(map[string]string)
	if info == "." {
		return result
	}

	for _, kv := range strings.Split(info, ";") {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) == 2 {
			result[parts[0]] = parts[1]
		} else {
			result[parts[0]] = ""
		}
	}

	return result
}

// parseGenotypes decodes the GT subfield for each sample column.
// Samples with a fully missing call ("./.") are omitted from the map.
func parseGenotypes(format string, columns, samples []string) map[string][]int {
	gtIdx := -1
	for i, key := range strings.Split(format, ":") {
		if key == "GT" {
			gtIdx = i
			break
		}
	}
	if gtIdx < 0 {
		return nil
	}

	genotypes := make(map[string][]int, len(samples))
	for i, col := range columns {
		if i >= len(samples) {
			break
		}
		subs := strings.Split(col, ":")
		if gtIdx >= len(subs) {
			continue
		}
		alleles := parseGT(subs[gtIdx])
		if len(alleles) > 0 {
			genotypes[samples[i]] = alleles
		}
	}
	return genotypes
}

// parseGT parses a genotype call like "0/1" or "1|1". Missing alleles
// (".") are dropped; a fully missing call yields nil.
func parseGT(gt string) []int {
	var alleles []int
	for _, tok := range strings.FieldsFunc(gt, func(r rune) bool {
		return r == '/' || r == '|'
	}) {
		if tok == "." {
			continue
		}
		a, err := strconv.Atoi(tok)
		if err != nil {
			continue
		}
		alleles = append(alleles, a)
	}
	return alleles
}

// alleleFrequencies returns per-alternate frequencies, preferring the
// INFO AF annotation and falling back to counting genotype calls.
func alleleFrequencies(v *Variant) []float64 {
	if af, ok := v.Info["AF"]; ok {
		parts := strings.Split(af, ",")
		freqs := make([]float64, len(v.Alts))
		for i := range freqs {
			if i < len(parts) {
				freqs[i], _ = strconv.ParseFloat(parts[i], 64)
			}
		}
		return freqs
	}

	freqs := make([]float64, len(v.Alts))
	var total int
	counts := make([]int, len(v.Alts)+1)
	for _, alleles := range v.Genotypes {
		for _, a := range alleles {
			if a >= 0 && a < len(counts) {
				counts[a]++
				total++
			}
		}
	}
	if total == 0 {
		return freqs
	}
	for i := range freqs {
		freqs[i] = float64(counts[i+1]) / float64(total)
	}
	return freqs
}

// Header returns the VCF header lines.
func (p *Parser) Header() []string {
	return p.header
}

// SampleNames returns sample names from the #CHROM header line.
// Returns nil if no sample columns are present.
func (p *Parser) SampleNames() []string {
	return p.sampleNames
}

// LineNumber returns the current line number being processed.
func (p *Parser) LineNumber() int {
	return p.lineNumber
}

// Close closes the parser and underlying file.
func (p *Parser) Close() error {
	if p.gzipReader != nil {
		p.gzipReader.Close()
	}
	if p.file != nil {
		return p.file.Close()
	}
	return nil
}

// ParseError represents an error during VCF parsing with line context.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("vcf parse error at line %d: %s", e.Line, e.Message)
}
