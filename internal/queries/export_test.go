package queries

// BuiltinQueries exposes the built-in query set for tests.
var BuiltinQueries = builtinQueries
