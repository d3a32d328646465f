// Package model contains the collaborator clients that back the Summarizer
// and TitleGenerator contracts, plus the shared prompt builders and the
// response normalization step they all use. Provider adapters live in the
// anthropic and openai subpackages; Mock is a deterministic in-process client
// for tests and examples.
package model
