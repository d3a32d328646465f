// Package core defines the domain types and collaborator contracts shared by
// all ContextMesh packages: scoped memories, conversations and their messages,
// the persistence adapter, and the summarization / title generation clients.
//
// Implementations live in sibling packages (memory, conversation, compaction,
// persistence, model); depend on the core contracts in your own code and pick
// concrete implementations at wiring time. Keeping the contracts centralized
// avoids dependency cycles between the implementation packages.
package core
