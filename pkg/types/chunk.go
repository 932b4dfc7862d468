package types

// Chunk is a retrievable unit of text: a semantic fragment of a source file
// together with its location and, once indexed, its embedding vector.
type Chunk struct {
	// ID is assigned by the vector store when the chunk is persisted.
	// It is empty on chunks freshly produced by the chunker.
	ID string

	// FilePath is the project-relative path of the originating file.
	FilePath string

	// StartLine and EndLine are 1-based inclusive source line numbers.
	StartLine int
	EndLine   int

	// Label names the declaration the chunk covers (function, class, or
	// method name), or "module" for whole-file chunks.
	Label string

	// Content is the text that gets embedded and returned as context.
	// It carries a short descriptor prefix ("Function foo:", "Class Bar:")
	// so the embedding leans toward intent rather than raw syntax.
	Content string

	// Vector is populated during indexing and is immutable once the chunk
	// has been persisted.
	Vector []float32
}
