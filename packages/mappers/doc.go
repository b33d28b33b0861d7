// Package mappers turns parameter files into rows.
//
// Every mapper implements params.DataMapper and is registered by name in
// Default. A file spec selects one with "name" or "name:arg":
//
//	csv            comma separated values, one row per line
//	csv:header     same, skipping the first line
//	csv:tab        tab separated values
//	yaml[:key]     a sequence of sequences or scalars
//	json[:path]    an array of arrays or scalars, optionally selected by a gjson path
//	sql[:conn]     a SQL script; the rows of its last query
package mappers
