package params

import (
	"fmt"
	"strings"
)

// Kind identifies the variant held by a Spec.
type Kind int

const (
	KindNone Kind = iota
	KindLiteral
	KindOverride
	KindSource
	KindFile
)

func (k Kind) String() string {
	switch k {
	case KindLiteral:
		return "literal"
	case KindOverride:
		return "override"
	case KindSource:
		return "source"
	case KindFile:
		return "file"
	default:
		return "none"
	}
}

// Spec declares where the rows of a method come from. Only the fields of its
// Kind are meaningful.
type Spec struct {
	Kind Kind

	// KindLiteral
	Rows []any

	// KindOverride
	Raw string

	// KindSource. A nil Class means the method's own class.
	Class   *Class
	Methods []string

	// KindFile
	Path   string
	Mapper string
}

// Literal declares inline rows. Each value is a row or, following the
// normalization rules, a single row of scalars.
func Literal(rows ...any) *Spec {
	return &Spec{Kind: KindLiteral, Rows: rows}
}

// Override declares rows as a ';' separated string of single values.
func Override(raw string) *Spec {
	return &Spec{Kind: KindOverride, Raw: raw}
}

// Source declares providers. With no method names the providers of class are
// discovered by the "provide" prefix.
func Source(class *Class, methods ...string) *Spec {
	return &Spec{Kind: KindSource, Class: class, Methods: methods}
}

// File declares a parameter file read by the named mapper.
func File(path, mapper string) *Spec {
	return &Spec{Kind: KindFile, Path: path, Mapper: mapper}
}

// Parameters is the declarative form of inline, source and provider
// parameters. Method is a comma separated list of provider names.
type Parameters struct {
	Value  []any
	Source *Class
	Method string
}

// FileParameters is the declarative form of a parameter file reference.
type FileParameters struct {
	Path   string
	Mapper string
}

// SpecFromAnnotations builds a Spec from the declarative forms. Declaring both
// is a configuration error. Neither yields a nil Spec.
func SpecFromAnnotations(method string, p *Parameters, f *FileParameters) (*Spec, error) {
	if p != nil && f != nil {
		return nil, &ConfigurationError{
			Method: method,
			Reason: "both parameters and file parameters are declared, remove one of them",
		}
	}

	if f != nil {
		return File(f.Path, f.Mapper), nil
	}

	if p == nil {
		return nil, nil
	}

	if len(p.Value) > 0 {
		return Literal(p.Value...), nil
	}

	return Source(p.Source, SplitMethods(p.Method)...), nil
}

// SplitMethods splits a comma separated provider list, dropping blanks.
func SplitMethods(list string) []string {
	var out []string
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		if name != "" {
			out = append(out, name)
		}
	}
	return out
}

// SplitOverride splits a raw override on ';' into single-value string rows.
// Trailing empty entries are dropped, so "1;2;" yields two rows.
func SplitOverride(raw string) []Row {
	parts := strings.Split(raw, ";")
	for len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	rows := make([]Row, len(parts))
	for i, p := range parts {
		rows[i] = Row{p}
	}
	return rows
}

func (s *Spec) validate(method string) error {
	if s == nil {
		return nil
	}
	switch s.Kind {
	case KindLiteral, KindOverride, KindSource:
		return nil
	case KindFile:
		if strings.TrimSpace(s.Path) == "" {
			return &ConfigurationError{Method: method, Reason: "file parameters without a path"}
		}
		if _, _, err := ParseFileRef(s.Path); err != nil {
			return err
		}
		return nil
	default:
		return &ConfigurationError{Method: method, Reason: fmt.Sprintf("unknown parameter spec kind %d", s.Kind)}
	}
}
