// Package bankcsv parses bank CSV exports into transaction records.
//
// The expected row shape is date,amount,description with dates in
// DD/MM/YYYY form. Extra columns are folded into the description.
package bankcsv

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

const dateInputFormat = "2/1/2006"

// Parse reads a CSV export and returns the rows that parsed, in file
// order, plus a report of every row that was skipped. A read error on the
// underlying stream is fatal; a malformed row is not.
func Parse(r io.Reader) ([]Record, []SkippedRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // column counts vary between banks

	var records []Record
	var skipped []SkippedRow

	line := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return records, skipped, fmt.Errorf("read csv row: %w", err)
		}
		line++

		rec, reason := parseRow(row)
		if reason != "" {
			skipped = append(skipped, SkippedRow{Line: line, Reason: reason})
			continue
		}
		records = append(records, rec)
	}

	return records, skipped, nil
}

// parseRow converts one CSV row into a Record. An empty reason means
// success.
func parseRow(row []string) (Record, string) {
	if len(row) < 3 {
		return Record{}, "wrong column count"
	}

	date, err := parseDate(strings.TrimSpace(row[0]))
	if err != nil {
		return Record{}, fmt.Sprintf("unparsable date %q", row[0])
	}

	amount, err := parseAmount(strings.TrimSpace(row[1]))
	if err != nil {
		return Record{}, fmt.Sprintf("unparsable amount %q", row[1])
	}

	desc := strings.TrimSpace(strings.Join(row[2:], ","))

	return Record{Date: date, Amount: amount, Description: desc}, ""
}

// parseDate converts DD/MM/YYYY to a calendar date. Anything else is
// rejected so it can be reported per-row.
func parseDate(s string) (time.Time, error) {
	if strings.Count(s, "/") != 2 {
		return time.Time{}, fmt.Errorf("expected DD/MM/YYYY, got %q", s)
	}
	return time.Parse(dateInputFormat, s)
}

// parseAmount converts a string like `"1,234.56"` to a float, tolerating
// surrounding quotes and thousands separators.
func parseAmount(s string) (float64, error) {
	s = strings.Trim(s, `"`)
	s = strings.ReplaceAll(s, ",", "")
	return strconv.ParseFloat(s, 64)
}
