package sparql

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIRI           // <...>, value without brackets
	tokPName         // prefix:local
	tokVar           // ?x or $x, value without sigil
	tokBlank         // _:x, value without "_:"
	tokString        // "..." or '...', value unescaped
	tokLang          // @en, value without "@"
	tokDTMark        // ^^
	tokNumber
	tokIdent // keywords, "a", true/false, function names
	tokPunct // { } ( ) . ; , * = !=
)

type token struct {
	kind tokenKind
	val  string
	pos  int
}

func (t token) String() string {
	if t.kind == tokEOF {
		return "end of query"
	}
	return fmt.Sprintf("%q at offset %d", t.val, t.pos)
}

// lex splits a query into tokens. Comments run from # to end of line.
func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		r, w := utf8.DecodeRuneInString(src[i:])
		switch {
		case unicode.IsSpace(r):
			i += w
		case r == '#':
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case r == '<':
			end := strings.IndexByte(src[i+1:], '>')
			if end < 0 || strings.ContainsAny(src[i+1:i+1+end], " \t\n") {
				return nil, syntaxErr(i, "unterminated IRI")
			}
			toks = append(toks, token{tokIRI, src[i+1 : i+1+end], i})
			i += end + 2
		case r == '?' || r == '$':
			j := scanName(src, i+1)
			if j == i+1 {
				return nil, syntaxErr(i, "empty variable name")
			}
			toks = append(toks, token{tokVar, src[i+1 : j], i})
			i = j
		case r == '"' || r == '\'':
			val, j, err := scanString(src, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{tokString, val, i})
			i = j
		case r == '@':
			j := i + 1
			for j < len(src) && (isAlnum(src[j]) || src[j] == '-') {
				j++
			}
			if j == i+1 {
				return nil, syntaxErr(i, "empty language tag")
			}
			toks = append(toks, token{tokLang, src[i+1 : j], i})
			i = j
		case r == '^':
			if !strings.HasPrefix(src[i:], "^^") {
				return nil, syntaxErr(i, "expected ^^")
			}
			toks = append(toks, token{tokDTMark, "^^", i})
			i += 2
		case r == '!':
			if !strings.HasPrefix(src[i:], "!=") {
				return nil, syntaxErr(i, "unsupported operator !")
			}
			toks = append(toks, token{tokPunct, "!=", i})
			i += 2
		case strings.ContainsRune("{}().;,*=", r):
			toks = append(toks, token{tokPunct, string(r), i})
			i += w
		case (r >= '0' && r <= '9') || ((r == '-' || r == '+') && i+1 < len(src) && isDigit(src[i+1])):
			j := scanNumber(src, i)
			toks = append(toks, token{tokNumber, src[i:j], i})
			i = j
		case r == '_' && strings.HasPrefix(src[i:], "_:"):
			j := scanName(src, i+2)
			if j == i+2 {
				return nil, syntaxErr(i, "empty blank node label")
			}
			toks = append(toks, token{tokBlank, src[i+2 : j], i})
			i = j
		case r == ':' || unicode.IsLetter(r):
			j := scanName(src, i)
			if j < len(src) && src[j] == ':' {
				k := scanLocal(src, j+1)
				toks = append(toks, token{tokPName, src[i:k], i})
				i = k
				continue
			}
			toks = append(toks, token{tokIdent, src[i:j], i})
			i = j
		default:
			return nil, syntaxErr(i, fmt.Sprintf("unexpected character %q", r))
		}
	}
	return append(toks, token{kind: tokEOF, pos: len(src)}), nil
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isAlnum(b byte) bool {
	return isDigit(b) || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func scanName(src string, i int) int {
	for i < len(src) {
		r, w := utf8.DecodeRuneInString(src[i:])
		if !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-') {
			break
		}
		i += w
	}
	return i
}

// scanLocal reads the local part of a prefixed name. A trailing dot ends
// the triple rather than belonging to the name.
func scanLocal(src string, i int) int {
	start := i
	for i < len(src) {
		r, w := utf8.DecodeRuneInString(src[i:])
		if !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' || r == '.' || r == '%') {
			break
		}
		i += w
	}
	for i > start && src[i-1] == '.' {
		i--
	}
	return i
}

func scanNumber(src string, i int) int {
	if src[i] == '-' || src[i] == '+' {
		i++
	}
	for i < len(src) && isDigit(src[i]) {
		i++
	}
	if i+1 < len(src) && src[i] == '.' && isDigit(src[i+1]) {
		i++
		for i < len(src) && isDigit(src[i]) {
			i++
		}
	}
	return i
}

func scanString(src string, start int) (string, int, error) {
	quote := src[start]
	var b strings.Builder
	for i := start + 1; i < len(src); i++ {
		c := src[i]
		switch c {
		case quote:
			return b.String(), i + 1, nil
		case '\n':
			return "", 0, syntaxErr(start, "newline in string")
		case '\\':
			if i+1 >= len(src) {
				return "", 0, syntaxErr(i, "dangling escape")
			}
			i++
			switch src[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '"', '\'', '\\':
				b.WriteByte(src[i])
			default:
				return "", 0, syntaxErr(i, fmt.Sprintf("unknown escape \\%c", src[i]))
			}
		default:
			b.WriteByte(c)
		}
	}
	return "", 0, syntaxErr(start, "unterminated string")
}
