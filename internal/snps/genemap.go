package snps

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// ReadGeneMap parses a tab-separated mapping file where the first
// column is the gene id and every remaining column is an external id.
// Repeated keys accumulate.
func ReadGeneMap(r io.Reader, sep string) (GeneMap, error) {
	m := make(GeneMap)
	err := scanMap(r, func(fields []string) {
		m[fields[0]] = append(m[fields[0]], fields[1:]...)
	}, sep)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ReadGeneMapTwoColumns parses a two-column mapping file with one
// (gene id, external id) pair per line; keys repeat across lines.
// Lines with extra columns are truncated to the first two.
func ReadGeneMapTwoColumns(r io.Reader, sep string) (GeneMap, error) {
	m := make(GeneMap)
	err := scanMap(r, func(fields []string) {
		m[fields[0]] = append(m[fields[0]], fields[1])
	}, sep)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// scanMap streams lines with at least two columns to fn, skipping
// blanks and comments.
func scanMap(r io.Reader, fn func([]string), sep string) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, sep)
		if len(fields) < 2 {
			continue
		}
		fn(fields)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read gene map: %w", err)
	}
	return nil
}
