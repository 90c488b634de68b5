// Package domain defines the core types of the turn resolution engine:
// submitted actions and their tagged payloads, turn-scoped resource records,
// ledger commands and audit entries, and the immutable turn resolution result.
package domain
