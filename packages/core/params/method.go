package params

import (
	"reflect"
	"strings"
	"sync"
)

// Method describes one declared test method and memoizes its resolved rows.
type Method struct {
	Name       string
	ParamTypes []reflect.Type
	Variadic   bool
	Ignored    bool
	Spec       *Spec
	Class      *Class

	buildErr error

	mu       sync.Mutex
	resolved bool
	rows     []Row
	err      error
}

// MethodOption configures a Method.
type MethodOption func(*Method)

// WithParamTypes sets the parameter-type signature, and thereby the arity.
func WithParamTypes(types ...reflect.Type) MethodOption {
	return func(m *Method) {
		m.ParamTypes = types
	}
}

// WithSignature derives the parameter types from a function value such as
// func(a int, b string) error.
func WithSignature(fn any) MethodOption {
	return func(m *Method) {
		t := reflect.TypeOf(fn)
		if t == nil || t.Kind() != reflect.Func {
			return
		}
		m.ParamTypes = make([]reflect.Type, t.NumIn())
		for i := range m.ParamTypes {
			m.ParamTypes[i] = t.In(i)
		}
		m.Variadic = t.IsVariadic()
	}
}

// WithArity declares n untyped parameters.
func WithArity(n int) MethodOption {
	return func(m *Method) {
		m.ParamTypes = make([]reflect.Type, n)
		for i := range m.ParamTypes {
			m.ParamTypes[i] = anyType
		}
	}
}

// WithSpec attaches a parameter spec.
func WithSpec(spec *Spec) MethodOption {
	return func(m *Method) {
		m.Spec = spec
	}
}

// WithAnnotations attaches the spec built from the declarative forms.
// Conflicts surface from NewMethod.
func WithAnnotations(p *Parameters, f *FileParameters) MethodOption {
	return func(m *Method) {
		spec, err := SpecFromAnnotations(m.Name, p, f)
		if err != nil {
			m.buildErr = err
			return
		}
		m.Spec = spec
	}
}

// Ignore marks the method as explicitly ignored.
func Ignore() MethodOption {
	return func(m *Method) {
		m.Ignored = true
	}
}

var anyType = reflect.TypeOf((*any)(nil)).Elem()

// NewMethod builds a method descriptor on class. Conflicting or malformed
// parameter declarations are configuration errors.
func NewMethod(class *Class, name string, opts ...MethodOption) (*Method, error) {
	m := &Method{Name: name, Class: class}
	for _, opt := range opts {
		opt(m)
	}
	if m.buildErr != nil {
		return nil, m.buildErr
	}
	if err := m.Spec.validate(name); err != nil {
		return nil, err
	}
	return m, nil
}

// Arity is the number of declared parameters.
func (m *Method) Arity() int {
	return len(m.ParamTypes)
}

// IsParameterised reports whether the method declares a parameter spec.
func (m *Method) IsParameterised() bool {
	return m.Spec != nil && m.Spec.Kind != KindNone
}

// Equal compares name and parameter-type signature only.
func (m *Method) Equal(other *Method) bool {
	if m == nil || other == nil {
		return m == other
	}
	if m.Name != other.Name || len(m.ParamTypes) != len(other.ParamTypes) {
		return false
	}
	for i := range m.ParamTypes {
		if m.ParamTypes[i] != other.ParamTypes[i] {
			return false
		}
	}
	return true
}

// Key renders the name and signature, e.g. "testAdd(int,int)". Methods that
// are Equal share a Key.
func (m *Method) Key() string {
	names := make([]string, len(m.ParamTypes))
	for i, t := range m.ParamTypes {
		if t == nil {
			names[i] = "any"
			continue
		}
		names[i] = t.String()
	}
	return m.Name + "(" + strings.Join(names, ",") + ")"
}

// DefaultProviderName is the fallback provider, "parametersFor" followed by
// the capitalized method name.
func (m *Method) DefaultProviderName() string {
	if m.Name == "" {
		return "parametersFor"
	}
	return "parametersFor" + strings.ToUpper(m.Name[:1]) + m.Name[1:]
}

// memoize runs resolve once and caches its rows and error for the lifetime of
// the method.
func (m *Method) memoize(resolve func() ([]Row, error)) ([]Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.resolved {
		m.rows, m.err = resolve()
		m.resolved = true
	}
	return m.rows, m.err
}
