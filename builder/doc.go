// Package builder serializes a metadata entity graph back into a
// table stream under a configurable token preservation policy.
//
// The build runs in phases: Collecting walks the module's owned tree
// in declaration order and assigns a row to every entity, then
// Emitting serializes all rows in row-id order. Entities flagged for
// preservation keep their original token verbatim; a request that
// cannot be honored (two entities claiming one token, a row id outside
// the 24-bit space, or a forbidden gap) aborts the build with no
// partial output.
package builder
