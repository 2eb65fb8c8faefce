// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports). The engine consumes these capabilities;
// concrete providers live under internal/adapters/driven.
package driven
