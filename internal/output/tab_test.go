package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mgx-tools/pnps/internal/snps"
	"github.com/mgx-tools/pnps/internal/taxon"
)

func testResult() *snps.Result {
	return &snps.Result{
		Mode:    snps.ByGeneTaxon,
		Samples: []string{"s1", "s2", "s3"},
		Rows: []snps.Row{
			{
				GeneID: "g1", TaxonID: 839,
				Values: map[string]float64{"s1": 0.25, "s2": 0.5},
			},
			{
				GeneID: "g2", TaxonID: 2157,
				Values: map[string]float64{"s3": 0},
			},
		},
	}
}

func TestMatrixWriter(t *testing.T) {
	var buf bytes.Buffer
	mw := NewMatrixWriter(&buf)
	if err := mw.WriteResult(testResult()); err != nil {
		t.Fatal(err)
	}
	if err := mw.Flush(); err != nil {
		t.Fatal(err)
	}

	want := "gene_id\ttaxon\ts1\ts2\ts3\n" +
		"g1\t839\t0.25\t0.5\t\n" +
		"g2\t2157\t\t\t0\n"
	if buf.String() != want {
		t.Errorf("matrix =\n%q\nwant\n%q", buf.String(), want)
	}
}

func TestMatrixWriterCSV(t *testing.T) {
	var buf bytes.Buffer
	mw := NewMatrixWriter(&buf)
	mw.SetSeparator(",")
	if err := mw.WriteResult(testResult()); err != nil {
		t.Fatal(err)
	}
	mw.Flush()

	first := strings.SplitN(buf.String(), "\n", 2)[0]
	if first != "gene_id,taxon,s1,s2,s3" {
		t.Errorf("header = %q", first)
	}
}

func TestMatrixWriterKeyColumns(t *testing.T) {
	res := testResult()

	res.Mode = snps.ByGene
	var buf bytes.Buffer
	mw := NewMatrixWriter(&buf)
	mw.WriteResult(res)
	mw.Flush()
	if !strings.HasPrefix(buf.String(), "gene_id\ts1") {
		t.Errorf("gene-only header = %q", strings.SplitN(buf.String(), "\n", 2)[0])
	}

	res.Mode = snps.ByTaxon
	buf.Reset()
	mw = NewMatrixWriter(&buf)
	mw.WriteResult(res)
	mw.Flush()
	if !strings.HasPrefix(buf.String(), "taxon\ts1") {
		t.Errorf("taxon-only header = %q", strings.SplitN(buf.String(), "\n", 2)[0])
	}
}

func TestTaxonLabels(t *testing.T) {
	tx := taxon.New()
	tx.Add(taxon.Taxon{ID: 1, ParentID: 1, Name: "root", Rank: "no rank"})
	tx.Add(taxon.Taxon{ID: 2, ParentID: 1, Name: "Bacteria", Rank: "superkingdom"})
	tx.Add(taxon.Taxon{ID: 838, ParentID: 2, Name: "Prevotella", Rank: "genus"})

	if got := TaxonIDLabel()(838); got != "838" {
		t.Errorf("id label = %q", got)
	}
	if got := TaxonNameLabel(tx)(838); got != "Prevotella" {
		t.Errorf("name label = %q", got)
	}
	lineage := TaxonLineageLabel(tx, taxon.DefaultRanks(), ";")
	if got := lineage(838); got != "superkingdom:Bacteria;genus:Prevotella" {
		t.Errorf("lineage label = %q", got)
	}
	// Unknown taxa fall back to the id.
	if got := lineage(424242); got != "424242" {
		t.Errorf("unknown lineage label = %q", got)
	}
}
