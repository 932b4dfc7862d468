package parser

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrParse is returned when a file cannot be scanned for declarations.
// Callers are expected to fall back to whole-file handling.
var ErrParse = errors.New("declaration scan failed")

// DeclKind classifies a scanned declaration.
type DeclKind string

const (
	KindFunction DeclKind = "function"
	KindClass    DeclKind = "class"
	KindMethod   DeclKind = "method"
)

// Declaration describes one function, class, or method boundary in a source
// file. Lines are 1-based and inclusive. Class declarations carry their
// methods so callers can split large classes.
type Declaration struct {
	Name      string
	Kind      DeclKind
	StartLine int
	EndLine   int
	Methods   []Declaration
}

// SourceExtensions lists the file extensions the scanner understands.
// Everything else is treated as non-code content by the caller.
var SourceExtensions = map[string]bool{
	".go":  true,
	".ts":  true,
	".tsx": true,
	".js":  true,
	".jsx": true,
	".mts": true,
	".cts": true,
	".mjs": true,
	".cjs": true,
}

// IsSourceFile reports whether the scanner can extract declarations from
// the given path.
func IsSourceFile(path string) bool {
	return SourceExtensions[strings.ToLower(filepath.Ext(path))]
}

// Scanner extracts declaration boundaries from source files.
type Scanner struct {
	fset *token.FileSet
}

// New creates a new Scanner instance.
func New() *Scanner {
	return &Scanner{fset: token.NewFileSet()}
}

// Scan enumerates the top-level declarations of a source file. Go files go
// through go/ast; TypeScript/JavaScript files go through a line-oriented
// scanner. Unsupported extensions and unparseable content return ErrParse.
func (s *Scanner) Scan(filePath, content string) ([]Declaration, error) {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".go":
		return s.scanGo(filePath, content)
	case ".ts", ".tsx", ".js", ".jsx", ".mts", ".cts", ".mjs", ".cjs":
		return scanScript(content)
	default:
		return nil, fmt.Errorf("%w: unsupported extension %q", ErrParse, filepath.Ext(filePath))
	}
}

// scanGo extracts functions, methods, and type declarations from Go source.
func (s *Scanner) scanGo(filePath, content string) ([]Declaration, error) {
	file, err := parser.ParseFile(s.fset, filePath, content, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	decls := make([]Declaration, 0, len(file.Decls))
	for _, d := range file.Decls {
		switch n := d.(type) {
		case *ast.FuncDecl:
			decl := Declaration{
				Name:      n.Name.Name,
				Kind:      KindFunction,
				StartLine: s.fset.Position(n.Pos()).Line,
				EndLine:   s.fset.Position(n.End()).Line,
			}
			if n.Recv != nil && len(n.Recv.List) > 0 {
				decl.Kind = KindMethod
				decl.Name = receiverName(n.Recv.List[0].Type) + "." + n.Name.Name
			}
			decls = append(decls, decl)
		case *ast.GenDecl:
			if n.Tok != token.TYPE {
				continue
			}
			for _, spec := range n.Specs {
				ts, ok := spec.(*ast.TypeSpec)
				if !ok {
					continue
				}
				decls = append(decls, Declaration{
					Name:      ts.Name.Name,
					Kind:      KindClass,
					StartLine: s.fset.Position(n.Pos()).Line,
					EndLine:   s.fset.Position(n.End()).Line,
				})
			}
		}
	}

	return decls, nil
}

// receiverName extracts the type name from a method receiver expression.
func receiverName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return receiverName(t.X)
	case *ast.IndexExpr:
		return receiverName(t.X)
	case *ast.IndexListExpr:
		return receiverName(t.X)
	default:
		return ""
	}
}

// Script declaration patterns. The scanner is line-oriented on purpose: it
// only needs boundaries and names, not a full syntax tree.
var (
	scriptFuncRe  = regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s*([A-Za-z_$][\w$]*)`)
	scriptClassRe = regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:abstract\s+)?class\s+([A-Za-z_$][\w$]*)`)
	scriptVarRe   = regexp.MustCompile(`^\s*(?:export\s+)?(?:const|let|var)\s+([A-Za-z_$][\w$]*)\s*(?::[^=]*)?=\s*(?:async\s+)?(?:function\b|\(|[A-Za-z_$][\w$]*\s*=>)`)
	scriptMethRe  = regexp.MustCompile(`^\s+(?:(?:public|private|protected|static|readonly|async|override)\s+)*(?:get\s+|set\s+)?([A-Za-z_$][\w$]*)\s*(?:<[^>]*>)?\(`)
)

// scriptMethodKeywords are control-flow words that scriptMethRe would
// otherwise mistake for method names inside class bodies.
var scriptMethodKeywords = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "catch": true,
	"return": true, "new": true, "super": true, "typeof": true, "await": true,
}

// scanScript extracts declarations from TypeScript/JavaScript content by
// matching declaration keywords and balancing braces for end lines.
func scanScript(content string) ([]Declaration, error) {
	lines := strings.Split(content, "\n")
	decls := make([]Declaration, 0)

	for i := 0; i < len(lines); i++ {
		line := lines[i]

		if m := scriptClassRe.FindStringSubmatch(line); m != nil {
			end, ok := blockEnd(lines, i)
			if !ok {
				return nil, fmt.Errorf("%w: unterminated class %q", ErrParse, m[1])
			}
			decls = append(decls, Declaration{
				Name:      m[1],
				Kind:      KindClass,
				StartLine: i + 1,
				EndLine:   end + 1,
				Methods:   scanClassBody(lines, i, end),
			})
			i = end
			continue
		}

		if m := scriptFuncRe.FindStringSubmatch(line); m != nil {
			end, ok := blockEnd(lines, i)
			if !ok {
				return nil, fmt.Errorf("%w: unterminated function %q", ErrParse, m[1])
			}
			decls = append(decls, Declaration{
				Name:      m[1],
				Kind:      KindFunction,
				StartLine: i + 1,
				EndLine:   end + 1,
			})
			i = end
			continue
		}

		if m := scriptVarRe.FindStringSubmatch(line); m != nil {
			// Function-valued bindings: arrow functions and function
			// expressions. Single-line arrows end where they start.
			end := i
			if strings.Count(stripLineComment(line), "{") > strings.Count(stripLineComment(line), "}") {
				var ok bool
				end, ok = blockEnd(lines, i)
				if !ok {
					return nil, fmt.Errorf("%w: unterminated binding %q", ErrParse, m[1])
				}
			}
			decls = append(decls, Declaration{
				Name:      m[1],
				Kind:      KindFunction,
				StartLine: i + 1,
				EndLine:   end + 1,
			})
			i = end
			continue
		}
	}

	return decls, nil
}

// scanClassBody finds method declarations between the class's opening and
// closing lines. Only methods at the first nesting level are reported.
func scanClassBody(lines []string, classStart, classEnd int) []Declaration {
	methods := make([]Declaration, 0)
	header := stripLineComment(lines[classStart])
	depth := strings.Count(header, "{") - strings.Count(header, "}")

	for i := classStart + 1; i <= classEnd; i++ {
		if depth == 1 {
			if m := scriptMethRe.FindStringSubmatch(lines[i]); m != nil && !scriptMethodKeywords[m[1]] {
				if end, ok := blockEnd(lines, i); ok && end <= classEnd {
					methods = append(methods, Declaration{
						Name:      m[1],
						Kind:      KindMethod,
						StartLine: i + 1,
						EndLine:   end + 1,
					})
					// The method block is balanced, so skipping it
					// leaves depth unchanged and keeps nested
					// callbacks out of the method list.
					i = end
					continue
				}
			}
		}
		line := stripLineComment(lines[i])
		depth += strings.Count(line, "{") - strings.Count(line, "}")
	}

	return methods
}

// blockEnd returns the index of the line on which the brace block opened at
// or after start closes. Returns false when the block never closes.
func blockEnd(lines []string, start int) (int, bool) {
	depth := 0
	opened := false

	for i := start; i < len(lines); i++ {
		line := stripLineComment(lines[i])
		for _, r := range line {
			switch r {
			case '{':
				depth++
				opened = true
			case '}':
				depth--
			}
		}
		if opened && depth <= 0 {
			return i, true
		}
		if !opened && i > start {
			// No block ever opened: the declaration is a one-liner.
			return start, true
		}
	}

	return 0, false
}

// stripLineComment drops a trailing // comment so braces inside comments do
// not skew depth tracking.
func stripLineComment(line string) string {
	if idx := strings.Index(line, "//"); idx >= 0 {
		return line[:idx]
	}
	return line
}
