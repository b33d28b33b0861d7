// Package env resolves named variables in suite files.
//
// Commands may reference:
//   - {{name}} for a suite or environment variable
//   - {{$NAME}} for a process environment variable
//
// Numeric placeholders such as {{0}} are left alone so rows can fill them in
// later.
package env
