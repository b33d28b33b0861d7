package params

import (
	"fmt"
	"iter"
	"log/slog"
	"strings"
)

// ConventionPrefix marks providers picked up by conventional discovery.
const ConventionPrefix = "provide"

// Iterator is a pull-style provider result. Next returns false once drained.
type Iterator interface {
	Next() (any, bool)
}

// Invoker locates and calls providers across a class hierarchy.
type Invoker struct {
	logger *slog.Logger
}

func NewInvoker(logger *slog.Logger) *Invoker {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Invoker{logger: logger}
}

// Find walks from root through its superclasses and returns the first
// provider declared with the given name together with its declaring class.
func (inv *Invoker) Find(name string, root *Class) (Provider, *Class, error) {
	for _, c := range root.Hierarchy() {
		if p, ok := c.Declared(name); ok {
			return p, c, nil
		}
	}
	return Provider{}, nil, &ProviderNotFoundError{Method: name, Class: root.String()}
}

// Invoke finds the named provider starting at root and returns its rows.
func (inv *Invoker) Invoke(name string, root *Class, arity int) ([]Row, error) {
	p, declaring, err := inv.Find(name, root)
	if err != nil {
		return nil, err
	}
	return inv.call(p, declaring, arity)
}

// InvokeConventional calls every provider whose name starts with "provide"
// across the hierarchy of source. Rows of subclass providers come first; within
// a class providers run in declaration order.
func (inv *Invoker) InvokeConventional(source *Class, arity int) ([]Row, error) {
	rows, err := inv.gatherConventional(source, arity)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &NoProvidersFoundError{Class: source.String()}
	}
	return rows, nil
}

func (inv *Invoker) gatherConventional(source *Class, arity int) ([]Row, error) {
	var rows []Row
	for _, c := range source.Hierarchy() {
		for _, p := range c.Providers {
			if !strings.HasPrefix(p.Name, ConventionPrefix) {
				continue
			}
			if !p.Static {
				return nil, &ProviderNotStaticError{Method: p.Name, Class: c.Name}
			}
			got, err := inv.call(p, c, arity)
			if err != nil {
				return nil, err
			}
			inv.logger.Debug("conventional provider", "class", c.Name, "provider", p.Name, "rows", len(got))
			rows = append(rows, got...)
		}
	}
	return rows, nil
}

func (inv *Invoker) call(p Provider, declaring *Class, arity int) (rows []Row, err error) {
	constructing := false
	defer func() {
		if r := recover(); r != nil {
			rows = nil
			cause := fmt.Errorf("panic: %v", r)
			if constructing {
				cause = fmt.Errorf("constructing instance: %w", cause)
			}
			err = &ProviderInvocationError{Method: p.Name, Class: declaring.Name, Err: cause}
		}
	}()

	var recv any
	if !p.Static {
		if declaring.New == nil {
			return nil, &ProviderInvocationError{
				Method: p.Name,
				Class:  declaring.Name,
				Err:    fmt.Errorf("class %s has no constructor", declaring.Name),
			}
		}
		constructing = true
		recv, err = declaring.New()
		constructing = false
		if err != nil {
			return nil, &ProviderInvocationError{Method: p.Name, Class: declaring.Name, Err: fmt.Errorf("constructing instance: %w", err)}
		}
	}

	result, err := p.Func(recv)
	if err != nil {
		return nil, &ProviderInvocationError{Method: p.Name, Class: declaring.Name, Err: err}
	}

	rows, ok := interpretResult(result, arity)
	if !ok {
		return nil, &UnsupportedReturnTypeError{Method: p.Name, Class: declaring.Name, Type: typeName(result)}
	}
	return rows, nil
}

// interpretResult maps a provider result onto rows. Array-like results are
// normalized against the arity; iterables and iterators are drained once.
func interpretResult(result any, arity int) ([]Row, bool) {
	switch v := result.(type) {
	case nil:
		return nil, false
	case iter.Seq[any]:
		return drained(collectSeq(v)), true
	case func(func(any) bool):
		return drained(collectSeq(iter.Seq[any](v))), true
	case iter.Seq[Row]:
		var rows []Row
		for r := range v {
			rows = append(rows, r)
		}
		return nonNil(rows), true
	case Iterator:
		return drained(collectIterator(v.Next)), true
	case func() (any, bool):
		return drained(collectIterator(v)), true
	}

	if items, ok := toSlice(result); ok {
		return Normalize(items, arity), true
	}
	return nil, false
}

func collectSeq(seq iter.Seq[any]) []any {
	var items []any
	for v := range seq {
		items = append(items, v)
	}
	return items
}

func collectIterator(next func() (any, bool)) []any {
	var items []any
	for {
		v, ok := next()
		if !ok {
			return items
		}
		items = append(items, v)
	}
}

// drained treats items as rows when every item is a sequence and falls back
// to one single-value row per item otherwise.
func drained(items []any) []Row {
	rows := make([]Row, 0, len(items))
	for _, v := range items {
		if !isSequence(v) {
			return wrapEach(items)
		}
		rows = append(rows, asRow(v))
	}
	return rows
}

func wrapEach(items []any) []Row {
	rows := make([]Row, len(items))
	for i, v := range items {
		rows[i] = Row{v}
	}
	return rows
}

func nonNil(rows []Row) []Row {
	if rows == nil {
		return []Row{}
	}
	return rows
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", v)
}
