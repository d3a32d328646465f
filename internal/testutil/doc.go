// Package testutil offers small fluent builders used by tests across the
// module. Not part of the public API.
package testutil
