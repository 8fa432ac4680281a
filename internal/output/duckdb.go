package output

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/mgx-tools/pnps/internal/snps"
)

// Store persists reduced pN/pS values in DuckDB, one row per
// (gene, taxon, sample) cell. Undefined cells are stored as NULL.
type Store struct {
	db   *sql.DB
	path string
}

// OpenStore opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func OpenStore(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create output directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// ensureSchema creates the values table if it doesn't exist.
func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS pnps_values (
		gene_id VARCHAR,
		taxon_id INTEGER,
		sample VARCHAR,
		value DOUBLE
	)`)
	return err
}

// WriteResult batch-inserts every cell of the result using the
// Appender API. All samples are written for every group; samples
// without a defined value get a NULL.
func (s *Store) WriteResult(res *snps.Result) error {
	if len(res.Rows) == 0 {
		return nil
	}

	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "pnps_values")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	for _, row := range res.Rows {
		for _, sample := range res.Samples {
			var value any
			if v, ok := row.Values[sample]; ok {
				value = v
			}
			if err := appender.AppendRow(row.GeneID, row.TaxonID, sample, value); err != nil {
				return fmt.Errorf("append value row: %w", err)
			}
		}
	}

	return appender.Flush()
}

// Values reads back every defined cell for a gene, keyed by sample.
func (s *Store) Values(geneID string) (map[string]float64, error) {
	rows, err := s.db.Query(
		`SELECT sample, value FROM pnps_values WHERE gene_id=? AND value IS NOT NULL`,
		geneID)
	if err != nil {
		return nil, fmt.Errorf("query values: %w", err)
	}
	defer rows.Close()

	out := make(map[string]float64)
	for rows.Next() {
		var sample string
		var value float64
		if err := rows.Scan(&sample, &value); err != nil {
			return nil, fmt.Errorf("scan value: %w", err)
		}
		out[sample] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate values: %w", err)
	}
	return out, nil
}

// Count returns the total number of stored cells, NULLs included.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT count(*) FROM pnps_values`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count values: %w", err)
	}
	return n, nil
}

// ExportParquet writes the values table to a Parquet file.
func (s *Store) ExportParquet(path string) error {
	// COPY takes the path as a literal, not a bind parameter.
	quoted := strings.ReplaceAll(path, "'", "''")
	_, err := s.db.Exec(fmt.Sprintf(
		`COPY (SELECT gene_id, taxon_id, sample, value FROM pnps_values ORDER BY gene_id, taxon_id, sample) TO '%s' (FORMAT PARQUET)`,
		quoted))
	if err != nil {
		return fmt.Errorf("export parquet: %w", err)
	}
	return nil
}
