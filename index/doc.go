// Package index defines the contract between the sealed-segment search
// pipeline and vector index backends.
//
// A backend is anything implementing SearchableIndex: it answers batched
// nearest-neighbor queries against a fixed record set, restricted by a
// bitmask.Selection. The pipeline never looks inside a backend; it validates
// parameters through the backend type's Adapter, dispatches the query, and
// copies the raw result buffers out.
//
// Raw result buffers are backend-owned until released. RawResult enforces the
// exactly-once release discipline.
package index
