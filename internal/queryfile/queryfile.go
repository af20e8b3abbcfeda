// Package queryfile parses the structured term file: CSV rows pairing a
// script title with its publication date, which becomes the search cutoff.
package queryfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"fillscan/types"
)

const dateLayout = "2006-01-02"

// Read parses the CSV file at path into queries. The file must have a header
// row with Title and Date columns; Date is ISO (2006-01-02) and becomes the
// query's EarliestDate. Any malformed row fails the whole read.
func Read(path string) ([]types.Query, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open term file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return parse(f, path)
}

func parse(r io.Reader, name string) ([]types.Query, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: empty term file", name)
		}
		return nil, fmt.Errorf("%s: read header: %w", name, err)
	}

	titleCol, dateCol := -1, -1
	for i, col := range header {
		switch strings.TrimSpace(col) {
		case "Title":
			titleCol = i
		case "Date":
			dateCol = i
		}
	}
	if titleCol < 0 || dateCol < 0 {
		return nil, fmt.Errorf("%s: header must contain Title and Date columns", name)
	}

	var queries []types.Query
	line := 1
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", name, line, err)
		}

		title := strings.TrimSpace(record[titleCol])
		if title == "" {
			return nil, fmt.Errorf("%s line %d: empty title", name, line)
		}
		date, err := time.Parse(dateLayout, strings.TrimSpace(record[dateCol]))
		if err != nil {
			return nil, fmt.Errorf("%s line %d: bad date %q: %w", name, line, record[dateCol], err)
		}

		queries = append(queries, types.Query{Term: title, EarliestDate: date})
	}
	return queries, nil
}
