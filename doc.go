// Package segquery implements filtered nearest-neighbor search over sealed
// vector segments.
//
// A sealed segment is an immutable slice of a collection: its vectors are
// fixed, its indexes are fully built, and the only thing that changes over
// time is which records are still visible. Visibility is tracked per shard as
// an exclusion bitset; at search time the shards are assembled into one
// selection mask and handed to the index backend, which skips everything the
// mask rules out.
//
// The Searcher fans a query batch out over all registered segments, bounds
// the fan-out with a resource controller, and merges the per-segment top-k
// lists into one ranked answer per query.
package segquery
