package params

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// DefaultMapper is used by file parameters that name no mapper.
const DefaultMapper = "csv"

// MapperRegistry resolves mapper names such as "csv" or "json:data.rows".
type MapperRegistry struct {
	mu        sync.RWMutex
	factories map[string]MapperFactory
}

func NewMapperRegistry() *MapperRegistry {
	return &MapperRegistry{factories: make(map[string]MapperFactory)}
}

// Register adds a factory under name, replacing any previous one.
func (r *MapperRegistry) Register(name string, factory MapperFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[strings.ToLower(name)] = factory
}

// Lookup builds the mapper for a "name[:arg]" reference.
func (r *MapperRegistry) Lookup(ref string) (DataMapper, error) {
	if strings.TrimSpace(ref) == "" {
		ref = DefaultMapper
	}
	name, arg, _ := strings.Cut(ref, ":")

	r.mu.RLock()
	factory, ok := r.factories[strings.ToLower(strings.TrimSpace(name))]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s (known: %s)", ErrUnknownMapper, name, strings.Join(r.Names(), ", "))
	}
	return factory(arg)
}

// Names returns the registered mapper names, sorted.
func (r *MapperRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolverOptions carries the run-wide settings the resolver depends on.
type ResolverOptions struct {
	// Override, when non-empty, replaces the rows of every parameterized
	// method with its ';' separated values.
	Override string
	// Resources backs classpath: file references.
	Resources fs.FS
	Mappers   *MapperRegistry
	Logger    *slog.Logger
}

// Resolver applies the source cascade to produce the rows of a method.
type Resolver struct {
	override string
	invoker  *Invoker
	opener   *Opener
	mappers  *MapperRegistry
	logger   *slog.Logger
}

func NewResolver(opts ResolverOptions) *Resolver {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	mappers := opts.Mappers
	if mappers == nil {
		mappers = NewMapperRegistry()
	}
	return &Resolver{
		override: opts.Override,
		invoker:  NewInvoker(logger),
		opener:   &Opener{Resources: opts.Resources},
		mappers:  mappers,
		logger:   logger,
	}
}

// Resolve returns the rows of m. The first call resolves and caches; later
// calls return the cached rows or error.
func (r *Resolver) Resolve(m *Method) ([]Row, error) {
	return m.memoize(func() ([]Row, error) {
		rows, err := r.resolve(m)
		if err != nil {
			return nil, err
		}
		if err := checkArity(m, rows); err != nil {
			return nil, err
		}
		r.logger.Debug("resolved parameters", "method", m.Name, "kind", m.Spec.kindOrNone(), "rows", len(rows))
		return rows, nil
	})
}

// IsIgnored reports whether m is ignored explicitly or because its parameter
// spec resolved to no rows. Resolution errors do not make a method ignored.
func (r *Resolver) IsIgnored(m *Method) bool {
	if m.Ignored {
		return true
	}
	if !m.IsParameterised() {
		return false
	}
	rows, err := r.Resolve(m)
	return err == nil && len(rows) == 0
}

func (r *Resolver) resolve(m *Method) ([]Row, error) {
	if !m.IsParameterised() {
		return []Row{}, nil
	}

	if r.override != "" {
		return SplitOverride(r.override), nil
	}

	spec := m.Spec
	switch spec.Kind {
	case KindOverride:
		return SplitOverride(spec.Raw), nil
	case KindLiteral:
		return Normalize(spec.Rows, m.Arity()), nil
	case KindSource:
		return r.fromSource(m)
	case KindFile:
		return r.fromFile(m)
	}
	return []Row{}, nil
}

func (r *Resolver) fromSource(m *Method) ([]Row, error) {
	spec := m.Spec
	source := spec.Class
	explicitSource := source != nil
	if source == nil {
		source = m.Class
	}
	if source == nil {
		return nil, &ConfigurationError{Method: m.Name, Reason: "no class to search for parameter providers"}
	}

	var rows []Row
	switch {
	case len(spec.Methods) > 0:
		for _, name := range spec.Methods {
			got, err := r.invoker.Invoke(name, source, m.Arity())
			if err != nil {
				return nil, err
			}
			rows = append(rows, got...)
		}
	case explicitSource:
		return r.invoker.InvokeConventional(source, m.Arity())
	default:
		got, err := r.invoker.gatherConventional(source, m.Arity())
		if err != nil {
			return nil, err
		}
		rows = got
	}

	if len(rows) > 0 {
		return rows, nil
	}

	rows, err := r.invoker.Invoke(m.DefaultProviderName(), source, m.Arity())
	if err != nil {
		// Named providers that produced nothing leave the method without rows
		// rather than failing on a default provider nobody declared.
		if len(spec.Methods) > 0 && errors.Is(err, ErrProviderNotFound) {
			return []Row{}, nil
		}
		return nil, err
	}
	return rows, nil
}

func (r *Resolver) fromFile(m *Method) ([]Row, error) {
	path := m.Spec.Path

	mapper, err := r.mappers.Lookup(m.Spec.Mapper)
	if err != nil {
		return nil, &ParameterFileError{Path: path, Err: err}
	}

	rc, err := r.opener.Open(path)
	if err != nil {
		return nil, &ParameterFileError{Path: path, Err: err}
	}
	defer rc.Close()

	rows, err := mapper.Map(rc)
	if err != nil {
		return nil, &ParameterFileError{Path: path, Err: err}
	}
	if rows == nil {
		rows = []Row{}
	}
	return rows, nil
}

// checkArity verifies every row matches the method signature. Methods
// declared without a signature accept rows of any length.
func checkArity(m *Method, rows []Row) error {
	want := m.Arity()
	if want == 0 {
		return nil
	}
	for i, row := range rows {
		if m.Variadic {
			if len(row) < want-1 {
				return &RowArityError{Method: m.Name, Index: i, Got: len(row), Want: want - 1}
			}
			continue
		}
		if len(row) != want {
			return &RowArityError{Method: m.Name, Index: i, Got: len(row), Want: want}
		}
	}
	return nil
}

func (s *Spec) kindOrNone() Kind {
	if s == nil {
		return KindNone
	}
	return s.Kind
}
