// Package runner executes parameterized tests.
//
// A Runner builds one reporting tree per test method, resolves its rows once
// through a params.Resolver and hands one Statement chain per row to the
// Coordinator. The innermost layer of every chain is a ParameterizedInvoker
// carrying the rendered row, which pairs the invocation with its reporting
// node. Failures other than assumption failures are retried up to the
// configured count; only the last failure is reported.
package runner
