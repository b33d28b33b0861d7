package runner

import (
	"github.com/abdul-hamid-achik/rowspec/packages/core/params"
)

// MethodRunner pairs the resolved rows of one method with its reporting nodes.
// It is not safe for concurrent use.
type MethodRunner struct {
	class    string
	method   *params.Method
	resolver *params.Resolver
	flat     bool

	count int
	desc  *Description
	rows  []params.Row
	err   error
}

func NewMethodRunner(class string, m *params.Method, resolver *params.Resolver, flat bool) *MethodRunner {
	return &MethodRunner{class: class, method: m, resolver: resolver, flat: flat}
}

// Method returns the method being run.
func (r *MethodRunner) Method() *params.Method { return r.method }

// Describe builds the reporting tree once. A parameterized method becomes a
// suite node with one child per row unless flat reporting is on. A resolution
// error leaves a leaf node and is returned with it.
func (r *MethodRunner) Describe() (*Description, error) {
	if r.desc != nil {
		return r.desc, r.err
	}

	r.desc = &Description{Name: r.method.Name, Class: r.class, Method: r.method.Name}
	if !r.method.IsParameterised() {
		return r.desc, nil
	}

	r.rows, r.err = r.resolver.Resolve(r.method)
	if r.err != nil || r.flat {
		return r.desc, r.err
	}

	for i, row := range r.rows {
		r.desc.Children = append(r.desc.Children, &Description{
			Name:   params.DisplayName(row, i, r.method.Name),
			Class:  r.class,
			Method: r.method.Name,
		})
	}
	return r.desc, nil
}

// Rows returns the resolved rows.
func (r *MethodRunner) Rows() []params.Row {
	r.Describe()
	return r.rows
}

// NextCount returns the row cursor and advances it.
func (r *MethodRunner) NextCount() int {
	n := r.count
	r.count++
	return n
}

// Count is the number of rows handed out so far.
func (r *MethodRunner) Count() int { return r.count }

// ShouldRun reports whether rows remain. A method without parameters runs once.
func (r *MethodRunner) ShouldRun() bool {
	if _, err := r.Describe(); err != nil {
		return false
	}
	if !r.method.IsParameterised() {
		return r.count == 0
	}
	return r.count < len(r.rows)
}

// NextInvoker builds the invoker for the row under the cursor.
func (r *MethodRunner) NextInvoker(body Body) *ParameterizedInvoker {
	i := r.NextCount()
	var row params.Row
	if i < len(r.rows) {
		row = r.rows[i]
	}
	return NewParameterizedInvoker(r.method.Name, row, i, body)
}
