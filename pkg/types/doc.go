// Package types contains the domain types shared across the indexing and
// retrieval pipeline.
package types
