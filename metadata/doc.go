// Package metadata implements the token-addressed object graph of a
// CLR metadata image.
//
// Every entity is named by a compact token pairing a table index with
// a 1-based row id. A Module materializes entities lazily from a
// TableProvider on first lookup and caches them by token, so two
// lookups of the same token always return the same object and a
// mutation made anywhere in the graph is visible from every reference
// site.
//
// Entities expose lazily resolved attributes (name, namespace,
// resolution scope, custom attributes) through once-cells that install
// their value with a compare-and-swap, making concurrent first reads
// safe without locks that could deadlock under reentrant resolution.
//
// Entities created in memory carry the null token (row id 0) until the
// builder package commits them to tables.
package metadata
