// Package domain defines the core business entities for the ragd engine.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An externally owned record submitted for indexing
//   - ChunkRecord: A retrievable unit produced by chunking
//   - IndexEntry: The vector-index representation of a chunk
//   - Tenant: The isolation boundary for one customer's data
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
