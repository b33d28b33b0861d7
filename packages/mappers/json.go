package mappers

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/xeipuuv/gojsonschema"

	"github.com/abdul-hamid-achik/rowspec/packages/core/params"
)

// JSON maps an array to rows. Path selects the array with gjson syntax; an
// empty path uses the whole document. When Schema is set the document is
// validated against it before mapping.
type JSON struct {
	Path   string
	Schema []byte
}

// NewJSON accepts "<path>" optionally followed by ";schema=<file>".
func NewJSON(arg string) (params.DataMapper, error) {
	parts := strings.Split(arg, ";")
	m := &JSON{Path: strings.TrimSpace(parts[0])}
	for _, opt := range parts[1:] {
		key, value, _ := strings.Cut(strings.TrimSpace(opt), "=")
		switch key {
		case "schema":
			data, err := os.ReadFile(value)
			if err != nil {
				return nil, fmt.Errorf("json: failed to read schema file: %w", err)
			}
			m.Schema = data
		case "":
		default:
			return nil, fmt.Errorf("json: unknown option %q", key)
		}
	}
	return m, nil
}

func (j *JSON) Map(r io.Reader) ([]params.Row, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("json: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("json: invalid document")
	}
	if err := j.validate(data); err != nil {
		return nil, err
	}

	doc := gjson.ParseBytes(data)
	if j.Path != "" {
		doc = doc.Get(j.Path)
		if !doc.Exists() {
			return nil, fmt.Errorf("json: path %q not found", j.Path)
		}
	}
	if !doc.IsArray() {
		return nil, fmt.Errorf("json: expected an array, got %s", doc.Type)
	}

	rows := []params.Row{}
	for _, item := range doc.Array() {
		if item.IsArray() {
			elems := item.Array()
			row := make(params.Row, len(elems))
			for i, e := range elems {
				row[i] = jsonValue(e)
			}
			rows = append(rows, row)
			continue
		}
		rows = append(rows, params.Row{jsonValue(item)})
	}
	return rows, nil
}

func (j *JSON) validate(data []byte) error {
	if len(j.Schema) == 0 {
		return nil
	}
	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(j.Schema), gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("json: schema validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}
	var errs []string
	for _, desc := range result.Errors() {
		errs = append(errs, desc.String())
	}
	return fmt.Errorf("json: schema validation failed: %s", strings.Join(errs, "; "))
}

// jsonValue keeps integral numbers as int64 so rows read like their source.
func jsonValue(r gjson.Result) any {
	if r.Type == gjson.Number && !strings.ContainsAny(r.Raw, ".eE") {
		return r.Int()
	}
	return r.Value()
}
