package gff

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Attribute keys with fixed-schema meaning. Coverage attributes use the
// cov_<sample> convention.
const (
	attrUID    = "uid"
	attrGene   = "gene_id"
	attrTaxon  = "taxon_id"
	covPrefix  = "cov_"
	attrExpSyn = "exp_syn"
	attrExpNon = "exp_nonsyn"
)

// LoadGFF reads annotations from a GFF file (plain or gzipped).
func LoadGFF(path string) ([]*Annotation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gff file: %w", err)
	}
	defer f.Close()

	var reader io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open gzip reader: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	return ParseGFF(reader)
}

// ParseGFF reads 9-column GFF records. Malformed lines and records
// without a uid attribute are skipped, not errors.
func ParseGFF(reader io.Reader) ([]*Annotation, error) {
	scanner := bufio.NewScanner(reader)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	var annotations []*Annotation
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		a, err := ParseLine(line)
		if err != nil {
			continue
		}
		if a.UID == "" {
			continue
		}
		annotations = append(annotations, a)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read gff: %w", err)
	}
	return annotations, nil
}

// ParseLine parses a single GFF line into an Annotation. GFF uses
// 1-based inclusive coordinates; the Annotation stores 0-based
// half-open ones.
func ParseLine(line string) (*Annotation, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 9 {
		return nil, fmt.Errorf("expected 9 columns, found %d", len(fields))
	}

	start, err := strconv.ParseInt(fields[3], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid start: %s", fields[3])
	}
	end, err := strconv.ParseInt(fields[4], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid end: %s", fields[4])
	}

	strand := int8(1)
	if fields[6] == "-" {
		strand = -1
	}

	frame := 0
	if fields[7] != "." {
		frame, _ = strconv.Atoi(fields[7])
	}

	a := &Annotation{
		SeqID:      fields[0],
		Start:      start - 1,
		End:        end,
		Strand:     strand,
		Frame:      frame,
		Coverage:   make(map[string]int),
		Attributes: NewAttributeBag(),
	}

	for key, value := range parseAttributes(fields[8]) {
		switch {
		case key == attrUID:
			a.UID = value
		case key == attrGene:
			a.GeneID = value
		case key == attrTaxon:
			if id, err := strconv.ParseInt(value, 10, 32); err == nil {
				a.TaxonID = int32(id)
			}
		case strings.HasPrefix(key, covPrefix):
			if cov, err := strconv.Atoi(value); err == nil {
				a.Coverage[key[len(covPrefix):]] = cov
			}
		case key == attrExpSyn || key == attrExpNon:
			// Precomputed counts from a previous run; attach both once
			// the pair is complete.
			a.Attributes.Set(key, value)
		default:
			a.Attributes.Set(key, value)
		}
	}

	// Restore precomputed expected-site counts when both are present.
	if !a.expSet {
		if s, ok := a.Attributes.Get(attrExpSyn); ok {
			if n, ok := a.Attributes.Get(attrExpNon); ok {
				syn, err1 := strconv.ParseFloat(s, 64)
				nonsyn, err2 := strconv.ParseFloat(n, 64)
				if err1 == nil && err2 == nil {
					a.SetExpSites(syn, nonsyn)
				}
			}
		}
	}

	return a, nil
}

// parseAttributes decodes the attribute column, accepting both
// key=value (GFF3) and key "value" (GTF) styles.
func parseAttributes(col string) map[string]string {
	attrs := make(map[string]string)
	for _, part := range strings.Split(col, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		var key, value string
		if idx := strings.IndexByte(part, '='); idx >= 0 {
			key = part[:idx]
			value = part[idx+1:]
		} else if idx := strings.IndexByte(part, ' '); idx >= 0 {
			key = part[:idx]
			value = strings.TrimSpace(part[idx+1:])
		} else {
			continue
		}
		attrs[key] = strings.Trim(value, `"`)
	}
	return attrs
}
