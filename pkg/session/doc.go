// Package session serializes conversation access. Every turn mutates
// slot state and the single pending confirmation, so turns for one
// conversation id must run one at a time; the Manager provides the
// per-id keyed mutex and, optionally, a distributed lock for multi
// instance deployments.
package session
