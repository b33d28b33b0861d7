package params

import (
	"errors"
	"fmt"
)

// Sentinel errors. Every typed error below matches one of these with errors.Is.
var (
	ErrConfiguration         = errors.New("parameter configuration error")
	ErrUnsupportedScheme     = errors.New("unsupported file access scheme")
	ErrProviderNotFound      = errors.New("parameter provider not found")
	ErrProviderNotStatic     = errors.New("parameter provider is not static")
	ErrNoProvidersFound      = errors.New("no parameter providers found")
	ErrUnsupportedReturnType = errors.New("unsupported provider return type")
	ErrProviderInvocation    = errors.New("parameter provider invocation failed")
	ErrParameterFile         = errors.New("could not read parameters from file")
	ErrRowArity              = errors.New("row length does not match method arity")
	ErrUnknownMapper         = errors.New("unknown data mapper")
)

// ConfigurationError reports a method whose parameter declarations conflict.
type ConfigurationError struct {
	Method string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Method, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// UnsupportedSchemeError is raised for a file reference like "ftp:rows.csv".
// It is a configuration error as well.
type UnsupportedSchemeError struct {
	Scheme string
	Path   string
}

func (e *UnsupportedSchemeError) Error() string {
	return fmt.Sprintf("unknown file access protocol %q in %q: only 'file' and 'classpath' are supported", e.Scheme, e.Path)
}

func (e *UnsupportedSchemeError) Is(target error) bool {
	return target == ErrUnsupportedScheme || target == ErrConfiguration
}

type ProviderNotFoundError struct {
	Method string
	Class  string
}

func (e *ProviderNotFoundError) Error() string {
	return fmt.Sprintf("could not find method %s in %s or its superclasses, so no params were used", e.Method, e.Class)
}

func (e *ProviderNotFoundError) Is(target error) bool { return target == ErrProviderNotFound }

type ProviderNotStaticError struct {
	Method string
	Class  string
}

func (e *ProviderNotStaticError) Error() string {
	return fmt.Sprintf("parameters source method %s in %s is not static, change it to a static provider", e.Method, e.Class)
}

func (e *ProviderNotStaticError) Is(target error) bool { return target == ErrProviderNotStatic }

type NoProvidersFoundError struct {
	Class string
}

func (e *NoProvidersFoundError) Error() string {
	return fmt.Sprintf("no methods starting with %q or they return no result in the parameters source class %s", ConventionPrefix, e.Class)
}

func (e *NoProvidersFoundError) Is(target error) bool { return target == ErrNoProvidersFound }

type UnsupportedReturnTypeError struct {
	Method string
	Class  string
	Type   string
}

func (e *UnsupportedReturnTypeError) Error() string {
	return fmt.Sprintf("the return type of %s defined in %s is %s, not a row list, iterable or iterator", e.Method, e.Class, e.Type)
}

func (e *UnsupportedReturnTypeError) Is(target error) bool { return target == ErrUnsupportedReturnType }

type ProviderInvocationError struct {
	Method string
	Class  string
	Err    error
}

func (e *ProviderInvocationError) Error() string {
	return fmt.Sprintf("could not invoke method %s defined in %s: %v", e.Method, e.Class, e.Err)
}

func (e *ProviderInvocationError) Unwrap() error { return e.Err }

func (e *ProviderInvocationError) Is(target error) bool { return target == ErrProviderInvocation }

// ParameterFileError wraps any I/O or mapping failure of a file reference.
type ParameterFileError struct {
	Path string
	Err  error
}

func (e *ParameterFileError) Error() string {
	return fmt.Sprintf("could not successfully read parameters from file %s: %v", e.Path, e.Err)
}

func (e *ParameterFileError) Unwrap() error { return e.Err }

func (e *ParameterFileError) Is(target error) bool { return target == ErrParameterFile }

type RowArityError struct {
	Method string
	Index  int
	Got    int
	Want   int
}

func (e *RowArityError) Error() string {
	return fmt.Sprintf("%s: row %d has %d values, method takes %d", e.Method, e.Index, e.Got, e.Want)
}

func (e *RowArityError) Is(target error) bool { return target == ErrRowArity }
