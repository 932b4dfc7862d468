package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	c := New()
	assert.NotNil(t, c)
}

func TestChunkFile_GoDeclarations(t *testing.T) {
	content := `package sample

type Server struct {
	addr string
}

func NewServer(addr string) *Server {
	return &Server{addr: addr}
}

func (s *Server) Addr() string {
	return s.addr
}
`

	c := New()
	chunks := c.ChunkFile("server.go", content)
	require.Len(t, chunks, 3)

	assert.Equal(t, "Server", chunks[0].Label)
	assert.True(t, strings.HasPrefix(chunks[0].Content, "Class Server:\n"))
	assert.Contains(t, chunks[0].Content, "type Server struct")

	assert.Equal(t, "NewServer", chunks[1].Label)
	assert.True(t, strings.HasPrefix(chunks[1].Content, "Function NewServer:\n"))
	assert.Equal(t, 7, chunks[1].StartLine)
	assert.Equal(t, 9, chunks[1].EndLine)

	assert.Equal(t, "Server.Addr", chunks[2].Label)
	assert.True(t, strings.HasPrefix(chunks[2].Content, "Method Server.Addr:\n"))

	for _, chunk := range chunks {
		assert.Equal(t, "server.go", chunk.FilePath)
		assert.Empty(t, chunk.ID)
		assert.Nil(t, chunk.Vector)
	}
}

func TestChunkFile_NonSourceFile(t *testing.T) {
	content := "# Overview\n\nThis project does things.\n"

	c := New()
	chunks := c.ChunkFile("README.md", content)
	require.Len(t, chunks, 1)

	assert.Equal(t, ModuleLabel, chunks[0].Label)
	assert.Equal(t, 1, chunks[0].StartLine)
	assert.Equal(t, 4, chunks[0].EndLine)
	assert.True(t, strings.HasPrefix(chunks[0].Content, "File README.md:\n"))
	assert.Contains(t, chunks[0].Content, "This project does things.")
}

func TestChunkFile_UnparseableSource(t *testing.T) {
	c := New()
	chunks := c.ChunkFile("broken.go", "package sample\n\nfunc {{{")
	require.Len(t, chunks, 1)
	assert.Equal(t, ModuleLabel, chunks[0].Label)
}

func TestChunkFile_NoDeclarations(t *testing.T) {
	c := New()
	chunks := c.ChunkFile("doc.go", "// Package sample does nothing.\npackage sample\n")
	require.Len(t, chunks, 1)
	assert.Equal(t, ModuleLabel, chunks[0].Label)
}

func TestChunkFile_SmallClassStaysWhole(t *testing.T) {
	content := `class Greeter {
  greet(): string {
    return "hi";
  }
}
`

	c := New()
	chunks := c.ChunkFile("greeter.ts", content)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Greeter", chunks[0].Label)
	assert.True(t, strings.HasPrefix(chunks[0].Content, "Class Greeter:\n"))
}

func TestChunkFile_LargeClassSplitsIntoMethods(t *testing.T) {
	content := `class Greeter {
  constructor(name) {
    this.name = name;
  }

  greet() {
    return "Hello, " + this.name;
  }
}
`

	c := NewWithThreshold(5)
	chunks := c.ChunkFile("greeter.js", content)
	require.Len(t, chunks, 2)

	assert.Equal(t, "Greeter.constructor", chunks[0].Label)
	assert.True(t, strings.HasPrefix(chunks[0].Content, "Method Greeter.constructor:\n"))
	assert.Equal(t, 2, chunks[0].StartLine)
	assert.Equal(t, 4, chunks[0].EndLine)

	assert.Equal(t, "Greeter.greet", chunks[1].Label)
	assert.Contains(t, chunks[1].Content, `return "Hello, "`)
}
