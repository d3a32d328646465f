// Package persistence contains concrete PersistenceAdapter implementations.
// The adapter contract resides in the core package. Import
// github.com/hupe1980/contextmesh/core and depend on core.PersistenceAdapter
// in your code; select an implementation (the in-memory store below, or the
// durable badger-backed store in the badgerstore subpackage) at wiring time.
package persistence
