package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/anyutils/anyutils-go/pkg/anyutils/logging"
	"github.com/anyutils/anyutils-go/pkg/anyutils/match"
)

// Record is one line of command output.
type Record struct {
	File   string    `json:"file,omitempty"`
	Line   int       `json:"line,omitempty"`
	Text   string    `json:"text"`
	Row    match.Row `json:"row,omitempty"`
	Errors []string  `json:"errors,omitempty"`
}

// newRecord builds a Record, collecting the captured errors of row.
func newRecord(file string, line int, text string, row match.Row) Record {
	rec := Record{File: file, Line: line, Text: text, Row: row}
	for j, res := range row {
		if res.Err != nil {
			rec.Errors = append(rec.Errors, fmt.Sprintf("pattern %d: %v", j, res.Err))
		}
	}
	return rec
}

// OutputRecord writes a record in the specified format to the writer.
// labels name the row's columns in pretty output.
func OutputRecord(format string, labels []string, rec Record, out io.Writer) error {
	switch format {
	case "jsonl":
		return OutputJSON(rec, out)
	case "pretty":
		return OutputPretty(labels, rec, out)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// OutputJSON writes a record as JSON Lines format.
func OutputJSON(rec Record, out io.Writer) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

// OutputPretty writes a record in human-readable format:
//
//	file:line: text  label=value ...
//
// The columns are omitted when the record has no row.
func OutputPretty(labels []string, rec Record, out io.Writer) error {
	var err error
	if rec.Row == nil {
		_, err = fmt.Fprintf(out, "%s: %s\n", location(rec), rec.Text)
		return err
	}
	_, err = fmt.Fprintf(out, "%s: %s  %s\n", location(rec), rec.Text, formatRow(labels, rec.Row))
	return err
}

func location(rec Record) string {
	file := rec.File
	if file == "" {
		file = stdinName
	}
	return fmt.Sprintf("%s:%d", file, rec.Line)
}

// formatRow formats a row as label=value pairs in pattern order.
// Absent results print as <none> and captured errors as <error>.
func formatRow(labels []string, row match.Row) string {
	parts := make([]string, 0, len(row))
	for j, res := range row {
		label := fmt.Sprintf("#%d", j)
		if j < len(labels) {
			label = labels[j]
		}

		var v string
		switch {
		case res.Err != nil:
			v = "<error>"
		case !res.Matched:
			v = "<none>"
		default:
			v = logging.Quote(res.Value)
		}
		parts = append(parts, logging.Quote(label)+"="+v)
	}
	return strings.Join(parts, " ")
}
