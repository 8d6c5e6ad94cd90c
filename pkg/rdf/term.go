// Package rdf moves RDF documents in and out of the triple store.
//
// Terms are stored in the store's dictionary in an N-Triples-like encoding
// so that IRIs, blank nodes and literals never collide:
//
//	<http://example.org/a>     IRI
//	_:b0                       blank node
//	"text"                     plain literal
//	"text"@en                  language-tagged literal
//	"5"^^<http://...#integer>  typed literal
package rdf

import (
	"errors"
	"fmt"
	"strings"
)

const (
	xsdString  = "http://www.w3.org/2001/XMLSchema#string"
	rdfLangStr = "http://www.w3.org/1999/02/22-rdf-syntax-ns#langString"
)

// ErrBadTerm is returned when an encoded term cannot be decoded.
var ErrBadTerm = errors.New("malformed term")

// Kind tells IRIs, blank nodes and literals apart.
type Kind int

const (
	KindIRI Kind = iota
	KindBlank
	KindLiteral
)

func (k Kind) String() string {
	switch k {
	case KindIRI:
		return "iri"
	case KindBlank:
		return "blank"
	case KindLiteral:
		return "literal"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Term is a decoded RDF term.
type Term struct {
	Kind     Kind
	Value    string // IRI, blank label without "_:", or literal lexical form
	Lang     string
	Datatype string
}

// IRI returns an IRI term.
func IRI(iri string) Term { return Term{Kind: KindIRI, Value: iri} }

// Blank returns a blank node term. A leading "_:" is dropped.
func Blank(label string) Term {
	return Term{Kind: KindBlank, Value: strings.TrimPrefix(label, "_:")}
}

// Literal returns a literal term. An xsd:string datatype is treated as plain.
func Literal(lexical, lang, datatype string) Term {
	if lang != "" || datatype == xsdString || datatype == rdfLangStr {
		datatype = ""
	}
	return Term{Kind: KindLiteral, Value: lexical, Lang: lang, Datatype: datatype}
}

// Encode returns the dictionary form of t.
func (t Term) Encode() string {
	switch t.Kind {
	case KindIRI:
		return "<" + t.Value + ">"
	case KindBlank:
		return "_:" + t.Value
	default:
		var b strings.Builder
		b.WriteByte('"')
		b.WriteString(escapeLiteral(t.Value))
		b.WriteByte('"')
		switch {
		case t.Lang != "":
			b.WriteByte('@')
			b.WriteString(t.Lang)
		case t.Datatype != "":
			b.WriteString("^^<")
			b.WriteString(t.Datatype)
			b.WriteByte('>')
		}
		return b.String()
	}
}

// Display is the value shown to users: the IRI itself, "_:label", or the
// literal's lexical form.
func (t Term) Display() string {
	if t.Kind == KindBlank {
		return "_:" + t.Value
	}
	return t.Value
}

// DecodeTerm parses the dictionary form produced by Encode.
func DecodeTerm(s string) (Term, error) {
	switch {
	case strings.HasPrefix(s, "<") && strings.HasSuffix(s, ">") && len(s) >= 2:
		return IRI(s[1 : len(s)-1]), nil
	case strings.HasPrefix(s, "_:") && len(s) > 2:
		return Blank(s[2:]), nil
	case strings.HasPrefix(s, `"`):
		end := closingQuote(s)
		if end < 0 {
			return Term{}, fmt.Errorf("%w: unterminated literal %q", ErrBadTerm, s)
		}
		lex := unescapeLiteral(s[1:end])
		rest := s[end+1:]
		switch {
		case rest == "":
			return Literal(lex, "", ""), nil
		case strings.HasPrefix(rest, "@") && len(rest) > 1:
			return Literal(lex, rest[1:], ""), nil
		case strings.HasPrefix(rest, "^^<") && strings.HasSuffix(rest, ">"):
			return Literal(lex, "", rest[3:len(rest)-1]), nil
		}
		return Term{}, fmt.Errorf("%w: bad literal suffix %q", ErrBadTerm, rest)
	}
	return Term{}, fmt.Errorf("%w: %q", ErrBadTerm, s)
}

// Display decodes s and returns its display value. Strings that are not
// encoded terms are returned unchanged.
func Display(s string) string {
	t, err := DecodeTerm(s)
	if err != nil {
		return s
	}
	return t.Display()
}

func closingQuote(s string) int {
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}

var (
	literalEscaper   = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`, "\t", `\t`)
	literalUnescaper = strings.NewReplacer(`\\`, `\`, `\"`, `"`, `\n`, "\n", `\r`, "\r", `\t`, "\t")
)

func escapeLiteral(s string) string   { return literalEscaper.Replace(s) }
func unescapeLiteral(s string) string { return literalUnescaper.Replace(s) }
