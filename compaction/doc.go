// Package compaction maps an unbounded conversation onto a bounded message
// budget for downstream reasoning calls. The first message and the most recent
// exchange are always kept verbatim; the middle of the transcript is replaced
// by a deterministic fixed-stride sample plus an optional synthetic system
// message carrying a conversation summary.
//
// The budget is a target, not a ceiling: when the reserved regions alone meet
// or exceed MaxMessages the output exceeds the budget rather than dropping
// reserved messages.
package compaction
