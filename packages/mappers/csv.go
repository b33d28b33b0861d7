package mappers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/abdul-hamid-achik/rowspec/packages/core/params"
)

// CSV maps comma separated lines to rows of trimmed strings. Blank lines and
// lines starting with # are skipped.
type CSV struct {
	Header bool
	Comma  rune
}

// NewCSV accepts "" or "header".
func NewCSV(arg string) (params.DataMapper, error) {
	switch strings.ToLower(strings.TrimSpace(arg)) {
	case "":
		return &CSV{}, nil
	case "header":
		return &CSV{Header: true}, nil
	case "tab", "tsv":
		return &CSV{Comma: '\t'}, nil
	}
	return nil, fmt.Errorf("csv: unknown option %q", arg)
}

func (c *CSV) Map(r io.Reader) ([]params.Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.Comment = '#'
	if c.Comma != 0 {
		reader.Comma = c.Comma
	}

	rows := []params.Row{}
	first := true
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: %w", err)
		}
		if first && c.Header {
			first = false
			continue
		}
		first = false

		row := make(params.Row, len(record))
		for i, field := range record {
			row[i] = strings.TrimSpace(field)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
