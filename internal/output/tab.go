// Package output renders reduced pN/pS results as delimited matrices
// and persists them to DuckDB.
package output

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mgx-tools/pnps/internal/snps"
	"github.com/mgx-tools/pnps/internal/taxon"
)

// TaxonLabel renders a taxon id for output.
type TaxonLabel func(int32) string

// TaxonIDLabel renders the numeric id.
func TaxonIDLabel() TaxonLabel {
	return func(id int32) string {
		return strconv.FormatInt(int64(id), 10)
	}
}

// TaxonNameLabel renders the scientific name, falling back to the
// numeric id for unknown taxa.
func TaxonNameLabel(tx *taxon.Taxonomy) TaxonLabel {
	return func(id int32) string {
		return tx.Name(id)
	}
}

// TaxonLineageLabel renders the rank-annotated lineage string.
func TaxonLineageLabel(tx *taxon.Taxonomy, ranks []string, sep string) TaxonLabel {
	return func(id int32) string {
		if l := tx.Lineage(id, ranks, sep); l != "" {
			return l
		}
		return strconv.FormatInt(int64(id), 10)
	}
}

// MatrixWriter writes a reduced result as a delimited matrix: one row
// per group, one column per sample. Undefined cells are left blank so
// downstream tools can tell missing from zero.
type MatrixWriter struct {
	w     *bufio.Writer
	sep   string
	label TaxonLabel
}

// NewMatrixWriter creates a tab-delimited matrix writer with numeric
// taxon labels.
func NewMatrixWriter(w io.Writer) *MatrixWriter {
	return &MatrixWriter{
		w:     bufio.NewWriter(w),
		sep:   "\t",
		label: TaxonIDLabel(),
	}
}

// SetSeparator overrides the column separator, e.g. "," for CSV.
func (mw *MatrixWriter) SetSeparator(sep string) {
	mw.sep = sep
}

// SetTaxonLabel overrides how the taxon column is rendered.
func (mw *MatrixWriter) SetTaxonLabel(label TaxonLabel) {
	mw.label = label
}

// WriteResult writes the header and every row of the result.
func (mw *MatrixWriter) WriteResult(res *snps.Result) error {
	header := keyColumns(res.Mode)
	header = append(header, res.Samples...)
	if _, err := mw.w.WriteString(strings.Join(header, mw.sep) + "\n"); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	fields := make([]string, 0, len(header))
	for _, row := range res.Rows {
		fields = fields[:0]
		if hasGene(res.Mode) {
			fields = append(fields, row.GeneID)
		}
		if hasTaxon(res.Mode) {
			fields = append(fields, mw.label(row.TaxonID))
		}
		for _, sample := range res.Samples {
			if v, ok := row.Values[sample]; ok {
				fields = append(fields, strconv.FormatFloat(v, 'g', -1, 64))
			} else {
				fields = append(fields, "")
			}
		}
		if _, err := mw.w.WriteString(strings.Join(fields, mw.sep) + "\n"); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	return nil
}

// Flush flushes any buffered data to the underlying writer.
func (mw *MatrixWriter) Flush() error {
	return mw.w.Flush()
}

func hasGene(mode snps.GroupMode) bool {
	return mode == snps.ByGene || mode == snps.ByGeneTaxon
}

func hasTaxon(mode snps.GroupMode) bool {
	return mode == snps.ByTaxon || mode == snps.ByGeneTaxon
}

func keyColumns(mode snps.GroupMode) []string {
	var cols []string
	if hasGene(mode) {
		cols = append(cols, "gene_id")
	}
	if hasTaxon(mode) {
		cols = append(cols, "taxon")
	}
	return cols
}
