// Package distance defines the metric types used to rank search candidates
// and the corresponding distance kernels.
//
// A sealed index is built for exactly one metric. Searching it with a
// different metric silently produces garbage rankings, so the metric stored
// on an index and the metric requested by a query are compared strictly
// before any search is dispatched.
package distance
