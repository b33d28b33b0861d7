package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const calcSuite = `name: math
variables:
  bin: expr
environments:
  ci:
    bin: /usr/bin/expr
classes:
  - name: Base
    providers:
      - name: provideSmall
        rows: [[1, 1, 2], [2, 3, 5]]
  - name: Calc
    extends: Base
    setup:
      - mkdir -p out
    teardown:
      - rm -rf out
    providers:
      - name: parametersForSub
        rows: [[3, 1, 2]]
        static: false
    tests:
      - name: add
        description: sums from the base class
        command: test $({{bin}} {{0}} + {{1}}) -eq {{2}}
        parameters: {}
      - name: sub
        command: test $(expr {{0}} - {{1}}) -eq {{2}}
        parameters:
          source: Calc
          method: parametersForSub
      - name: literal
        command: test {{0}} -gt 0
        parameters: [1, 2, 3]
        timeout: 2s
      - name: fromFile
        command: echo {{0}}
        fileParameters:
          path: data/rows.csv
          mapper: csv
        ignore: true
`

func TestParse(t *testing.T) {
	f, err := Parse(calcSuite, "math.yaml")
	require.NoError(t, err)

	assert.Equal(t, "math.yaml", f.Path)
	assert.Equal(t, "math", f.Name)
	assert.Equal(t, "expr", f.Variables["bin"])
	assert.Equal(t, "/usr/bin/expr", f.Environments["ci"]["bin"])
	require.Len(t, f.Classes, 2)

	base := f.Classes[0]
	assert.Equal(t, "Base", base.Name)
	assert.Equal(t, 8, base.Line)
	require.Len(t, base.Providers, 1)
	assert.True(t, base.Providers[0].IsStatic())
	assert.Equal(t, []any{[]any{1, 1, 2}, []any{2, 3, 5}}, base.Providers[0].Rows)

	calc := f.Classes[1]
	assert.Equal(t, "Base", calc.Extends)
	assert.Equal(t, []string{"mkdir -p out"}, calc.Setup)
	assert.Equal(t, []string{"rm -rf out"}, calc.Teardown)
	assert.False(t, calc.Providers[0].IsStatic())
	require.Len(t, calc.Tests, 4)

	add := calc.Tests[0]
	assert.Equal(t, "sums from the base class", add.Description)
	require.NotNil(t, add.Parameters)
	assert.Empty(t, add.Parameters.Value)
	assert.Empty(t, add.Parameters.Source)
	assert.Equal(t, 23, add.Line)

	sub := calc.Tests[1]
	require.NotNil(t, sub.Parameters)
	assert.Equal(t, "Calc", sub.Parameters.Source)
	assert.Equal(t, "parametersForSub", sub.Parameters.Method)

	literal := calc.Tests[2]
	assert.Equal(t, []any{1, 2, 3}, literal.Parameters.Value)
	assert.Equal(t, "2s", literal.Timeout)

	fromFile := calc.Tests[3]
	assert.Nil(t, fromFile.Parameters)
	require.NotNil(t, fromFile.FileParameters)
	assert.Equal(t, "data/rows.csv", fromFile.FileParameters.Path)
	assert.Equal(t, "csv", fromFile.FileParameters.Mapper)
	assert.True(t, fromFile.Ignore)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		message string
	}{
		{"empty", "", "empty suite file"},
		{"no classes", "name: x\n", "no classes declared"},
		{"bad yaml", "classes: [", "did not find expected"},
		{"unnamed class", "classes:\n  - tests: []\n", "class without a name"},
		{"duplicate class", "classes:\n  - name: A\n  - name: A\n", `duplicate class "A"`},
		{"cycle", "classes:\n  - name: A\n    extends: B\n  - name: B\n    extends: A\n", "cyclic extends"},
		{"self extends", "classes:\n  - name: A\n    extends: A\n", "cyclic extends"},
		{"duplicate provider", "classes:\n  - name: A\n    providers:\n      - name: p\n      - name: p\n", `duplicate provider "p"`},
		{"unnamed test", "classes:\n  - name: A\n    tests:\n      - command: \"true\"\n", "test without a name"},
		{"duplicate test", "classes:\n  - name: A\n    tests:\n      - {name: t, command: 'true'}\n      - {name: t, command: 'true'}\n", `duplicate test "t"`},
		{"no command", "classes:\n  - name: A\n    tests:\n      - name: t\n", `test "t" has no command`},
		{"negative arity", "classes:\n  - name: A\n    tests:\n      - {name: t, command: 'true', arity: -1}\n", "negative arity"},
		{"bad timeout", "classes:\n  - name: A\n    tests:\n      - {name: t, command: 'true', timeout: soon}\n", `invalid timeout "soon"`},
		{"scalar parameters", "classes:\n  - name: A\n    tests:\n      - {name: t, command: 'true', parameters: 3}\n", "parameters must be a list of rows or a mapping"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input, "bad.yaml")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
			assert.Contains(t, err.Error(), "bad.yaml")
		})
	}
}

func TestParseErrorLine(t *testing.T) {
	_, err := Parse("classes:\n  - name: A\n  - name: A\n", "dup.yaml")
	require.Error(t, err)

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 3, perr.Line)
	assert.Equal(t, `dup.yaml:3: duplicate class "A"`, perr.Error())
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suite.yaml")
	require.NoError(t, os.WriteFile(path, []byte(calcSuite), 0644))

	f, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, f.Path)
	assert.Len(t, f.Classes, 2)

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
