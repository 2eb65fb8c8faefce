// Package driving provides interfaces for callers of the engine
// (primary/inbound ports). The CLI adapter and any future transport
// layer depend on these, never on the service implementations directly.
package driving
