// Package params resolves the parameter rows of a test method.
//
// A Method carries an optional Spec describing where its rows come from:
// inline literal rows, a ';' separated override string, providers declared
// on a Class hierarchy, or a parameter file read by a DataMapper. A run-wide
// override replaces every spec. The Resolver applies that cascade once per
// method and caches the result; every produced row must match the method
// arity.
//
// Providers are looked up explicitly through Class.Super links instead of
// runtime reflection, nearest class first.
package params
