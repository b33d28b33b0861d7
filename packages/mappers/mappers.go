package mappers

import (
	"github.com/abdul-hamid-achik/rowspec/packages/core/params"
)

// Default returns a registry holding every built-in mapper.
func Default() *params.MapperRegistry {
	reg := params.NewMapperRegistry()
	Register(reg)
	return reg
}

// Register adds the built-in mappers to reg.
func Register(reg *params.MapperRegistry) {
	reg.Register("csv", NewCSV)
	reg.Register("yaml", NewYAML)
	reg.Register("yml", NewYAML)
	reg.Register("json", NewJSON)
	reg.Register("sql", NewSQL)
}

// scalarOrRow keeps a sequence as a row and wraps anything else.
func scalarOrRow(v any) params.Row {
	if seq, ok := v.([]any); ok {
		return params.Row(seq)
	}
	return params.Row{v}
}
