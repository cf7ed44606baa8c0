// Package domain holds the core data model of the intake dialogue: trip
// slots with their fill/lock state, the per-conversation state snapshot,
// and the recovery classification. It has no dependencies on the engine or
// any adapter.
package domain
