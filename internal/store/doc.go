// Package store persists chunks and their vectors in a project-local
// SQLite database and answers nearest-neighbor queries over them.
//
// The database lives in a single file under the project's cache directory.
// Vectors are stored inline as little-endian float32 blobs and compared
// with cosine similarity in Go; at the scale of a single project a full
// scan is faster than maintaining an approximate index.
//
// Two SQLite drivers are supported via build tags:
//   - default: modernc.org/sqlite, pure Go, no C compiler needed
//   - cgo_sqlite: github.com/mattn/go-sqlite3, CGO
//
// Schema changes go through semver-tagged migrations applied on connect.
package store
