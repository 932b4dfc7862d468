package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSourceFile(t *testing.T) {
	assert.True(t, IsSourceFile("main.go"))
	assert.True(t, IsSourceFile("src/App.TSX"))
	assert.True(t, IsSourceFile("lib/util.mjs"))
	assert.False(t, IsSourceFile("README.md"))
	assert.False(t, IsSourceFile("Makefile"))
	assert.False(t, IsSourceFile("data.json"))
}

func TestScan_GoDeclarations(t *testing.T) {
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

	s := New()
	decls, err := s.Scan("server.go", content)
	require.NoError(t, err)
	require.Len(t, decls, 3)

	assert.Equal(t, "Server", decls[0].Name)
	assert.Equal(t, KindClass, decls[0].Kind)
	assert.Equal(t, 3, decls[0].StartLine)
	assert.Equal(t, 5, decls[0].EndLine)

	assert.Equal(t, "NewServer", decls[1].Name)
	assert.Equal(t, KindFunction, decls[1].Kind)
	assert.Equal(t, 7, decls[1].StartLine)
	assert.Equal(t, 9, decls[1].EndLine)

	assert.Equal(t, "Server.Addr", decls[2].Name)
	assert.Equal(t, KindMethod, decls[2].Kind)
}

func TestScan_GoGenericReceiver(t *testing.T) {
	content := `package sample

type List[T any] struct {
	items []T
}

func (l *List[T]) Len() int {
	return len(l.items)
}
`

	s := New()
	decls, err := s.Scan("list.go", content)
	require.NoError(t, err)
	require.Len(t, decls, 2)
	assert.Equal(t, "List.Len", decls[1].Name)
	assert.Equal(t, KindMethod, decls[1].Kind)
}

func TestScan_GoParseError(t *testing.T) {
	s := New()
	_, err := s.Scan("broken.go", "package sample\n\nfunc {{{")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrParse)
}

func TestScan_TypeScriptClass(t *testing.T) {
	content := `export class Greeter {
  private name: string;

  constructor(name: string) {
    this.name = name;
  }

  greet(): string {
    return "Hello, " + this.name;
  }
}
`

	s := New()
	decls, err := s.Scan("greeter.ts", content)
	require.NoError(t, err)
	require.Len(t, decls, 1)

	class := decls[0]
	assert.Equal(t, "Greeter", class.Name)
	assert.Equal(t, KindClass, class.Kind)
	assert.Equal(t, 1, class.StartLine)
	assert.Equal(t, 11, class.EndLine)

	require.Len(t, class.Methods, 2)
	assert.Equal(t, "constructor", class.Methods[0].Name)
	assert.Equal(t, "greet", class.Methods[1].Name)
	assert.Equal(t, 8, class.Methods[1].StartLine)
	assert.Equal(t, 10, class.Methods[1].EndLine)
}

func TestScan_TypeScriptFunctionsAndBindings(t *testing.T) {
	content := `export function main() {
  run();
}

const add = (a: number, b: number): number => a + b;

export const handler = async (req: Request) => {
  return respond(req);
};
`

	s := New()
	decls, err := s.Scan("index.ts", content)
	require.NoError(t, err)
	require.Len(t, decls, 3)

	assert.Equal(t, "main", decls[0].Name)
	assert.Equal(t, KindFunction, decls[0].Kind)

	assert.Equal(t, "add", decls[1].Name)
	assert.Equal(t, 5, decls[1].StartLine)
	assert.Equal(t, 5, decls[1].EndLine)

	assert.Equal(t, "handler", decls[2].Name)
	assert.Equal(t, 7, decls[2].StartLine)
	assert.Equal(t, 9, decls[2].EndLine)
}

func TestScan_TypeScriptControlFlowNotMethods(t *testing.T) {
	content := `class Worker {
  run(): void {
    if (this.ready) {
      while (this.next()) {
        this.step();
      }
    }
  }
}
`

	s := New()
	decls, err := s.Scan("worker.ts", content)
	require.NoError(t, err)
	require.Len(t, decls, 1)
	require.Len(t, decls[0].Methods, 1)
	assert.Equal(t, "run", decls[0].Methods[0].Name)
}

func TestScan_UnsupportedExtension(t *testing.T) {
	s := New()
	_, err := s.Scan("script.py", "def main():\n    pass\n")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrParse)
}
