// Package sqlite provides the durable document store and vector index
// backed by a single SQLite database.
//
// One database file holds every tenant's data: the chunks table is
// keyed by namespace and the vectors table by collection, so namespaces
// and collections come into existence on first write. Similarity
// scoring happens in Go over the collection's rows; at the corpus sizes
// this engine targets a brute-force scan is simpler than maintaining an
// ANN structure and stays exact.
package sqlite
