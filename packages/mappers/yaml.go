package mappers

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/abdul-hamid-achik/rowspec/packages/core/params"
)

// YAML maps a sequence document to rows. Key, when set, selects a top-level
// mapping entry holding the sequence.
type YAML struct {
	Key string
}

func NewYAML(arg string) (params.DataMapper, error) {
	return &YAML{Key: strings.TrimSpace(arg)}, nil
}

func (y *YAML) Map(r io.Reader) ([]params.Row, error) {
	var doc any
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return []params.Row{}, nil
		}
		return nil, fmt.Errorf("yaml: %w", err)
	}

	if y.Key != "" {
		m, ok := doc.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("yaml: document is not a mapping, cannot select %q", y.Key)
		}
		if doc, ok = m[y.Key]; !ok {
			return nil, fmt.Errorf("yaml: key %q not found", y.Key)
		}
	}

	if doc == nil {
		return []params.Row{}, nil
	}
	seq, ok := doc.([]any)
	if !ok {
		return nil, fmt.Errorf("yaml: expected a sequence, got %T", doc)
	}

	rows := make([]params.Row, 0, len(seq))
	for _, item := range seq {
		rows = append(rows, scalarOrRow(item))
	}
	return rows, nil
}
