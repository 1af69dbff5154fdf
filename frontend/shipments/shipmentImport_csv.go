package shipments

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ParseLinesCSV reads intake lines from a name,category,qty,cost,retail CSV.
// Rows that cannot be parsed are skipped and counted.
func ParseLinesCSV(reader io.Reader) ([]Line, ImportSummary, error) {
	summary := ImportSummary{}
	r := csv.NewReader(reader)
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, summary, fmt.Errorf("read header: %w", err)
	}
	want := []string{"name", "category", "qty", "cost", "retail"}
	if len(header) < len(want) {
		return nil, summary, errBadHeader
	}
	for i, h := range want {
		if !strings.EqualFold(strings.TrimSpace(header[i]), h) {
			return nil, summary, errBadHeader
		}
	}

	lines := make([]Line, 0)
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil || len(record) < len(want) {
			summary.Skipped++
			continue
		}
		line, ok := parseRecord(record)
		if !ok {
			summary.Skipped++
			continue
		}
		lines = append(lines, line)
		summary.Accepted++
	}
	return lines, summary, nil
}

func parseRecord(record []string) (Line, bool) {
	name := strings.TrimSpace(record[0])
	if name == "" {
		return Line{}, false
	}
	qty, err := strconv.ParseInt(strings.TrimSpace(record[2]), 10, 64)
	if err != nil {
		return Line{}, false
	}
	cost, err := parseAmount(record[3])
	if err != nil {
		return Line{}, false
	}
	retail, err := parseAmount(record[4])
	if err != nil {
		return Line{}, false
	}
	return Line{
		Name:        name,
		Category:    strings.TrimSpace(record[1]),
		Qty:         qty,
		BaseCost:    cost,
		RetailPrice: retail,
	}, true
}

func parseAmount(raw string) (float64, error) {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseFloat(raw, 64)
}
