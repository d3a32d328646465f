// Package conversation implements the repository owning conversation
// entities: append-only message histories, optional project linkage, lazily
// generated titles and summaries. Conversations are persisted through the
// injected core.PersistenceAdapter, one blob per conversation plus an index
// of known ids.
//
// Collaborator failures never block callers: title and summary operations
// return a usable fallback value together with a status describing how it was
// produced.
package conversation
