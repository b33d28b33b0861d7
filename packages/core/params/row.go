package params

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Row is one ordered set of argument values for one invocation.
type Row []any

// Clone returns a shallow copy so callers cannot mutate cached rows.
func (r Row) Clone() Row {
	if r == nil {
		return nil
	}
	out := make(Row, len(r))
	copy(out, r)
	return out
}

// Normalize turns a raw provider result into rows.
//
// When the number of raw values equals the method arity the result is
// ambiguous: it may be arity rows, or a single row of arity scalars. The first
// element decides: a sequence means rows, anything else means one row.
func Normalize(raw []any, arity int) []Row {
	if len(raw) == 0 {
		return []Row{}
	}

	if len(raw) == arity && !isSequence(raw[0]) {
		return []Row{Row(raw)}
	}

	rows := make([]Row, 0, len(raw))
	for _, v := range raw {
		rows = append(rows, asRow(v))
	}
	return rows
}

// asRow reinterprets a single element as a row. Sequences become their
// elements, scalars become a one-value row.
func asRow(v any) Row {
	if r, ok := v.(Row); ok {
		return r
	}
	if items, ok := toSlice(v); ok {
		return Row(items)
	}
	return Row{v}
}

// isSequence reports whether v is a slice or array, excluding strings and
// byte slices which are treated as scalar values.
func isSequence(v any) bool {
	if v == nil {
		return false
	}
	if _, ok := v.([]byte); ok {
		return false
	}
	k := reflect.TypeOf(v).Kind()
	return k == reflect.Slice || k == reflect.Array
}

// toSlice converts any slice or array into []any.
func toSlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case Row:
		return []any(s), true
	}
	if !isSequence(v) {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// Stringify renders a row with its position, e.g. "[0] 1, abc". The result is
// the identity of the row within its method and the prefix of its display name.
func Stringify(row Row, index int) string {
	var b strings.Builder
	b.WriteString("[")
	b.WriteString(strconv.Itoa(index))
	b.WriteString("] ")
	if row == nil {
		b.WriteString("null")
	} else {
		b.WriteString(joinValues(row))
	}
	return trimSpecialChars(b.String())
}

// DisplayName is the reporting node name of a row: "[0] 1, 2 (method)".
func DisplayName(row Row, index int, method string) string {
	return Stringify(row, index) + " (" + method + ")"
}

func joinValues(values []any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = formatValue(v)
	}
	return strings.Join(parts, ", ")
}

func formatValue(v any) string {
	if v == nil {
		return "null"
	}
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	if items, ok := toSlice(v); ok {
		return "[" + joinValues(items) + "]"
	}
	return fmt.Sprint(v)
}

var specialChars = strings.NewReplacer("(", "[", ")", "]", "\r\n", " ", "\n", " ", "\r", " ")

func trimSpecialChars(s string) string {
	return specialChars.Replace(s)
}
