// Package memory implements the three-tier scoped memory store: global
// memories visible everywhere, project memories visible while a project is
// active, and agent memories visible while an agent is active.
//
// Writes go through an upsert policy that merges by id or by exact trimmed
// content, so repeated identical input is idempotent and equivalent facts
// arriving from different sources do not duplicate silently. Every mutation is
// written through to the injected core.PersistenceAdapter before the call
// returns.
package memory
