package dataset

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"regexp"
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// EncodeVector encodes a vector as a BLOB of little-endian IEEE 754 float32
// values without a length prefix; the length is derived from the BLOB size.
func EncodeVector(vec []float64) []byte {
	if len(vec) == 0 {
		return nil
	}
	b := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(float32(v)))
	}
	return b
}

// DecodeVector decodes a BLOB produced by EncodeVector.
func DecodeVector(b []byte) ([]float64, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("dataset: invalid vector blob length %d (not multiple of 4)", len(b))
	}
	vec := make([]float64, len(b)/4)
	for i := range vec {
		vec[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:])))
	}
	return vec, nil
}

// LoadSQLite reads the vector BLOB column of table, ordered by rowid, so that
// dataset index i corresponds to the i-th row. The caller owns db and selects
// the driver (the CLI uses modernc.org/sqlite).
func LoadSQLite(ctx context.Context, db *sql.DB, table, column string) ([][]float64, error) {
	if !identifier.MatchString(table) || !identifier.MatchString(column) {
		return nil, fmt.Errorf("dataset: invalid table or column name %q.%q", table, column)
	}

	rows, err := db.QueryContext(ctx, fmt.Sprintf("SELECT %s FROM %s ORDER BY rowid", column, table))
	if err != nil {
		return nil, fmt.Errorf("dataset: query %s: %w", table, err)
	}
	defer rows.Close()

	var vectors [][]float64
	for rows.Next() {
		var blob []byte
		if err := rows.Scan(&blob); err != nil {
			return nil, fmt.Errorf("dataset: scan row %d: %w", len(vectors), err)
		}
		vec, err := DecodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("dataset: row %d: %w", len(vectors), err)
		}
		if len(vectors) > 0 && len(vec) != len(vectors[0]) {
			return nil, &ErrDimensionMismatch{Row: len(vectors), Expected: len(vectors[0]), Actual: len(vec)}
		}
		vectors = append(vectors, vec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dataset: iterate %s: %w", table, err)
	}
	return vectors, nil
}

// StoreSQLite creates table (if missing) and appends vectors as BLOB rows.
func StoreSQLite(ctx context.Context, db *sql.DB, table, column string, vectors [][]float64) error {
	if !identifier.MatchString(table) || !identifier.MatchString(column) {
		return fmt.Errorf("dataset: invalid table or column name %q.%q", table, column)
	}

	if _, err := db.ExecContext(ctx, fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s BLOB NOT NULL)", table, column)); err != nil {
		return fmt.Errorf("dataset: create %s: %w", table, err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("dataset: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (?)", table, column))
	if err != nil {
		return fmt.Errorf("dataset: prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, vec := range vectors {
		if _, err := stmt.ExecContext(ctx, EncodeVector(vec)); err != nil {
			return fmt.Errorf("dataset: insert row %d: %w", i, err)
		}
	}
	return tx.Commit()
}
