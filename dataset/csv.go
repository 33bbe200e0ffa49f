package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// CSVOptions controls LoadCSV.
type CSVOptions struct {
	// Comma is the field delimiter. Defaults to ','.
	Comma rune
	// Header skips the first record.
	Header bool
}

// LoadCSV reads one vector per record. Every field must parse as a float.
func LoadCSV(r io.Reader, opts CSVOptions) ([][]float64, error) {
	cr := csv.NewReader(r)
	if opts.Comma != 0 {
		cr.Comma = opts.Comma
	}
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	var vectors [][]float64
	row := 0
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("dataset: read csv: %w", err)
		}
		row++
		if opts.Header && row == 1 {
			continue
		}

		vec := make([]float64, len(record))
		for j, field := range record {
			f, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("dataset: row %d column %d: %w", row, j+1, err)
			}
			vec[j] = f
		}
		if len(vectors) > 0 && len(vec) != len(vectors[0]) {
			return nil, &ErrDimensionMismatch{Row: len(vectors), Expected: len(vectors[0]), Actual: len(vec)}
		}
		vectors = append(vectors, vec)
	}
	return vectors, nil
}
