package batch

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// URLColumn is the CSV header holding page URLs.
const URLColumn = "Website URL"

var ErrNoURLColumn = errors.New("csv has no " + URLColumn + " column")

// ReadURLs returns the non-empty values of URLColumn in file order.
func ReadURLs(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	col := -1
	for i, h := range header {
		if strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) == URLColumn {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, ErrNoURLColumn
	}

	var urls []string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		if col < len(rec) {
			if u := strings.TrimSpace(rec[col]); u != "" {
				urls = append(urls, u)
			}
		}
	}
	return urls, nil
}
