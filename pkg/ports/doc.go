// Package ports declares the driven-side interfaces of the dialogue
// engine: conversation persistence and distributed locking. Adapters under
// pkg/adapters implement them.
package ports
