package bankcsv

import "time"

// Record is one parsed row of a bank-exported batch: date, amount, raw
// description. Records are ephemeral; they exist only for the duration of
// one detection or reconciliation pass and are never persisted.
type Record struct {
	Date        time.Time
	Amount      float64
	Description string
}

// SkippedRow reports a row that could not be parsed. Malformed rows are
// skipped individually rather than failing the batch, but they are always
// reported back to the caller.
type SkippedRow struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}
