// Package chunker divides source files into semantic chunks for embedding
// and retrieval.
//
// Chunks follow declaration boundaries so each one carries a coherent unit
// of meaning:
//   - Functions: one chunk per top-level function or method
//   - Classes: one chunk for the whole class, unless the class body spans
//     more than the split threshold, in which case each method becomes its
//     own chunk
//   - Everything else: markdown, config, unparseable or declaration-free
//     source collapses to a single whole-file chunk
//
// Every chunk's content starts with a short descriptor ("Function Greet:")
// so the embedding captures what kind of thing the text is, not just its
// tokens.
//
// # Basic Usage
//
//	c := chunker.New()
//	chunks := c.ChunkFile("service.ts", content)
//	for _, chunk := range chunks {
//	    fmt.Printf("%s lines %d-%d\n", chunk.Label, chunk.StartLine, chunk.EndLine)
//	}
//
// ChunkFile never fails: a file that cannot be split still yields one
// chunk, so a single odd file never aborts an indexing run.
package chunker
