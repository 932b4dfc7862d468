package chunker

import (
	"fmt"
	"strings"

	"semdex/internal/parser"
	"semdex/pkg/types"
)

const (
	// DefaultClassSplitLines is the line count past which a class is
	// exploded into one chunk per method instead of one chunk overall.
	DefaultClassSplitLines = 300

	// ModuleLabel marks whole-file chunks that carry no declaration name.
	ModuleLabel = "module"
)

// Chunker splits file content into semantically meaningful chunks. It is a
// pure function of its inputs and performs no I/O.
type Chunker struct {
	scanner         *parser.Scanner
	classSplitLines int
}

// New creates a Chunker with the default class-split threshold.
func New() *Chunker {
	return NewWithThreshold(DefaultClassSplitLines)
}

// NewWithThreshold creates a Chunker that explodes classes whose body spans
// more than the given number of lines.
func NewWithThreshold(classSplitLines int) *Chunker {
	if classSplitLines <= 0 {
		classSplitLines = DefaultClassSplitLines
	}
	return &Chunker{
		scanner:         parser.New(),
		classSplitLines: classSplitLines,
	}
}

// ChunkFile splits one file's content into chunks without ids or vectors.
// Source files are split along declaration boundaries; a file with no
// declarations, an unparseable file, or a non-source file all collapse to a
// single whole-file chunk so one bad file never aborts an indexing run.
func (c *Chunker) ChunkFile(filePath, content string) []types.Chunk {
	if !parser.IsSourceFile(filePath) {
		return []types.Chunk{wholeFileChunk(filePath, content)}
	}

	decls, err := c.scanner.Scan(filePath, content)
	if err != nil || len(decls) == 0 {
		// Parse failures and import-only files degrade to a single
		// module-root chunk rather than failing the file.
		return []types.Chunk{wholeFileChunk(filePath, content)}
	}

	lines := strings.Split(content, "\n")
	chunks := make([]types.Chunk, 0, len(decls))

	for _, decl := range decls {
		switch decl.Kind {
		case parser.KindClass:
			chunks = append(chunks, c.classChunks(filePath, lines, decl)...)
		case parser.KindMethod:
			chunks = append(chunks, declChunk(filePath, lines, decl, "Method"))
		default:
			chunks = append(chunks, declChunk(filePath, lines, decl, "Function"))
		}
	}

	if len(chunks) == 0 {
		return []types.Chunk{wholeFileChunk(filePath, content)}
	}
	return chunks
}

// classChunks emits either one chunk for the whole class or, for oversized
// classes, one chunk per method. Splitting bounds embedding-provider input
// size and sharpens retrieval for large classes.
func (c *Chunker) classChunks(filePath string, lines []string, decl parser.Declaration) []types.Chunk {
	span := decl.EndLine - decl.StartLine + 1
	if span <= c.classSplitLines || len(decl.Methods) == 0 {
		return []types.Chunk{declChunk(filePath, lines, decl, "Class")}
	}

	chunks := make([]types.Chunk, 0, len(decl.Methods))
	for _, method := range decl.Methods {
		chunk := declChunk(filePath, lines, method, "Method")
		chunk.Label = decl.Name + "." + method.Name
		chunk.Content = fmt.Sprintf("Method %s.%s:\n%s", decl.Name, method.Name, extractLines(lines, method.StartLine, method.EndLine))
		chunks = append(chunks, chunk)
	}
	return chunks
}

// declChunk builds a chunk for a single declaration. The descriptor prefix
// biases the embedding toward the declaration's intent.
func declChunk(filePath string, lines []string, decl parser.Declaration, kind string) types.Chunk {
	return types.Chunk{
		FilePath:  filePath,
		StartLine: decl.StartLine,
		EndLine:   decl.EndLine,
		Label:     decl.Name,
		Content:   fmt.Sprintf("%s %s:\n%s", kind, decl.Name, extractLines(lines, decl.StartLine, decl.EndLine)),
	}
}

// wholeFileChunk wraps an entire file as one module-root chunk.
func wholeFileChunk(filePath, content string) types.Chunk {
	lineCount := strings.Count(content, "\n") + 1
	return types.Chunk{
		FilePath:  filePath,
		StartLine: 1,
		EndLine:   lineCount,
		Label:     ModuleLabel,
		Content:   fmt.Sprintf("File %s:\n%s", filePath, content),
	}
}

// extractLines returns the 1-based inclusive line range as a single string.
func extractLines(lines []string, start, end int) string {
	if start < 1 {
		start = 1
	}
	if end > len(lines) {
		end = len(lines)
	}
	if start > end {
		return ""
	}
	return strings.Join(lines[start-1:end], "\n")
}
