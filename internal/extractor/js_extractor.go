package extractor

import (
	"strconv"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
)

// JSExtractor implements LanguageExtractor for JavaScript modules.
//
// Only statements that are direct children of the program are matched, so
// imports nested in blocks and dynamic import() calls are not collected.
type JSExtractor struct{}

func (j *JSExtractor) GetLanguage() *sitter.Language {
	return javascript.GetLanguage()
}

func (j *JSExtractor) GetQuery() string {
	return `
		(program (import_statement source: (string) @import))
		(program (export_statement source: (string) @export))
	`
}

func (j *JSExtractor) ExtractImport(captureName string, node *sitter.Node, sourceCode []byte) *Import {
	var kind ImportKind
	switch captureName {
	case "import":
		kind = ImportDeclaration
	case "export":
		kind = ReExport
	default:
		return nil
	}

	specifier, ok := unquote(node.Content(sourceCode))
	if !ok {
		return nil
	}
	return &Import{
		Specifier: specifier,
		Kind:      kind,
		Line:      int(node.StartPoint().Row) + 1,
	}
}

// unquote decodes a JavaScript string literal in either quote style.
func unquote(lit string) (string, bool) {
	if len(lit) < 2 {
		return "", false
	}
	q := lit[0]
	if (q != '"' && q != '\'') || lit[len(lit)-1] != q {
		return "", false
	}
	return unescape(lit[1 : len(lit)-1])
}

func unescape(body string) (string, bool) {
	if !strings.ContainsRune(body, '\\') {
		return body, true
	}
	var b strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(body) {
			return "", false
		}
		switch c = body[i]; c {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'v':
			b.WriteByte('\v')
		case '0':
			b.WriteByte(0)
		case '\r':
			// line continuation, \r\n counts as one terminator
			if i+1 < len(body) && body[i+1] == '\n' {
				i++
			}
		case '\n':
		case 'x':
			if i+2 >= len(body) {
				return "", false
			}
			v, err := strconv.ParseUint(body[i+1:i+3], 16, 8)
			if err != nil {
				return "", false
			}
			b.WriteRune(rune(v))
			i += 2
		case 'u':
			var hex string
			if i+1 < len(body) && body[i+1] == '{' {
				end := strings.IndexByte(body[i:], '}')
				if end < 0 {
					return "", false
				}
				hex = body[i+2 : i+end]
				i += end
			} else {
				if i+4 >= len(body) {
					return "", false
				}
				hex = body[i+1 : i+5]
				i += 4
			}
			v, err := strconv.ParseUint(hex, 16, 32)
			if err != nil || v > utf8.MaxRune {
				return "", false
			}
			b.WriteRune(rune(v))
		default:
			// \' \" \\ and any other character stand for themselves.
			b.WriteByte(c)
		}
	}
	return b.String(), true
}
