// Package state persists settings values per scope and assembles them into
// snapshots the resolver can read.
//
// A Store only loads and saves the values of a single Ref. Builder loads
// every scope stored for a workspace and turns them into a
// langopts.LayeredSnapshot, and Mutate applies an edit to one scope with an
// optimistic etag check.
//
// Data flow:
//
//	Store -> Builder.Snapshot -> *langopts.LayeredSnapshot -> Resolver.Update
//
// Meta.SnapshotID is carried onto each layer, so it shows up in
// Resolver.Trace output next to the scope that produced a value.
package state
