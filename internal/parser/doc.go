// Package parser extracts declaration boundaries from source files.
//
// Go files are parsed with go/ast for exact positions. TypeScript and
// JavaScript files go through a line-oriented scanner that matches
// declaration keywords and balances braces; it trades full syntactic
// fidelity for zero dependencies and predictable behavior on the subset
// that matters here: names, kinds, and line ranges.
//
// Callers treat ErrParse as a signal to fall back to whole-file handling
// rather than as a hard failure.
package parser
