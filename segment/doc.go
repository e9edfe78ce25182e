// Package segment implements filtered search over a sealed data partition.
//
// A sealed segment's vectors are indexed per field; the IndexingRecord
// associates each schema field with its built index and metric. Search runs
// the linear pipeline: validate the request against the field's indexing
// record, dispatch the query batch to the index backend together with the
// assembled selection mask, and materialize the backend's raw buffers into a
// caller-owned Result.
//
// Every precondition failure (field unknown, index not ready, metric
// mismatch, rejected parameters) is terminal: it indicates an integration
// bug, not a transient condition, and must not be retried.
package segment
