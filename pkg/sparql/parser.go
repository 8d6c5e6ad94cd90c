package sparql

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/duynguyendang/shaclreport/pkg/rdf"
)

type parser struct {
	toks []token
	pos  int
	q    *Query
	base string
}

// Parse parses a SELECT query.
func Parse(src string) (*Query, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{
		toks: toks,
		q:    &Query{Prefixes: make(map[string]string), Limit: -1},
	}
	if err := p.parseQuery(); err != nil {
		return nil, err
	}
	return p.q, nil
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) isKeyword(kw string) bool {
	t := p.peek()
	return t.kind == tokIdent && strings.EqualFold(t.val, kw)
}

func (p *parser) isPunct(s string) bool {
	t := p.peek()
	return t.kind == tokPunct && t.val == s
}

func (p *parser) expectPunct(s string) error {
	if !p.isPunct(s) {
		return syntaxErr(p.peek().pos, fmt.Sprintf("expected %q, got %s", s, p.peek()))
	}
	p.next()
	return nil
}

func (p *parser) unexpected(want string) error {
	t := p.peek()
	return syntaxErr(t.pos, fmt.Sprintf("expected %s, got %s", want, t))
}

func (p *parser) parseQuery() error {
	if err := p.parsePrologue(); err != nil {
		return err
	}

	if !p.isKeyword("SELECT") {
		if p.peek().kind == tokIdent {
			return syntaxErr(p.peek().pos, fmt.Sprintf("unsupported query form %s", strings.ToUpper(p.peek().val)))
		}
		return p.unexpected("SELECT")
	}
	p.next()

	if p.isKeyword("DISTINCT") {
		p.next()
		p.q.Distinct = true
	} else if p.isKeyword("REDUCED") {
		p.next()
	}

	if p.isPunct("*") {
		p.next()
		p.q.Star = true
	} else {
		for p.peek().kind == tokVar {
			p.q.Variables = append(p.q.Variables, p.next().val)
		}
		if len(p.q.Variables) == 0 {
			return p.unexpected("variables or *")
		}
	}

	if p.isKeyword("WHERE") {
		p.next()
	}
	if err := p.parseGroup(); err != nil {
		return err
	}
	if err := p.parseModifiers(); err != nil {
		return err
	}
	if p.peek().kind != tokEOF {
		return p.unexpected("end of query")
	}
	return nil
}

func (p *parser) parsePrologue() error {
	for {
		switch {
		case p.isKeyword("PREFIX"):
			p.next()
			name := p.next()
			if name.kind != tokPName || !strings.HasSuffix(name.val, ":") {
				return syntaxErr(name.pos, "expected prefix name ending in ':'")
			}
			iri := p.next()
			if iri.kind != tokIRI {
				return syntaxErr(iri.pos, "expected IRI after prefix name")
			}
			p.q.Prefixes[strings.TrimSuffix(name.val, ":")] = p.resolve(iri.val)
		case p.isKeyword("BASE"):
			p.next()
			iri := p.next()
			if iri.kind != tokIRI {
				return syntaxErr(iri.pos, "expected IRI after BASE")
			}
			p.base = iri.val
		default:
			return nil
		}
	}
}

// resolve applies BASE to IRIs without a scheme.
func (p *parser) resolve(iri string) string {
	if p.base == "" || strings.Contains(iri, ":") {
		return iri
	}
	return p.base + iri
}

func (p *parser) parseModifiers() error {
	for {
		switch {
		case p.isKeyword("LIMIT"), p.isKeyword("OFFSET"):
			kw := strings.ToUpper(p.next().val)
			t := p.next()
			n, err := strconv.Atoi(t.val)
			if t.kind != tokNumber || err != nil || n < 0 {
				return syntaxErr(t.pos, kw+" expects a non-negative integer")
			}
			if kw == "LIMIT" {
				p.q.Limit = n
			} else {
				p.q.Offset = n
			}
		case p.isKeyword("ORDER"), p.isKeyword("GROUP"), p.isKeyword("HAVING"):
			return syntaxErr(p.peek().pos, fmt.Sprintf("unsupported modifier %s", strings.ToUpper(p.peek().val)))
		default:
			return nil
		}
	}
}

// parseGroup reads { triples . FILTER(...) ... }.
func (p *parser) parseGroup() error {
	if err := p.expectPunct("{"); err != nil {
		return err
	}
	for {
		switch {
		case p.isPunct("}"):
			p.next()
			return nil
		case p.isPunct("."):
			p.next()
		case p.isKeyword("FILTER"):
			p.next()
			if err := p.parseFilter(); err != nil {
				return err
			}
		case p.peek().kind == tokIdent && !p.isKeyword("a") && !p.isKeyword("true") && !p.isKeyword("false"):
			return syntaxErr(p.peek().pos, fmt.Sprintf("unsupported keyword %s", strings.ToUpper(p.peek().val)))
		case p.isPunct("{"):
			return syntaxErr(p.peek().pos, "nested groups are not supported")
		case p.peek().kind == tokEOF:
			return p.unexpected("}")
		default:
			if err := p.parseTriples(); err != nil {
				return err
			}
			if !p.isPunct(".") && !p.isPunct("}") && !p.isKeyword("FILTER") {
				return p.unexpected("'.' or '}'")
			}
		}
	}
}

// parseTriples reads subject predicate object with ';' and ',' lists.
func (p *parser) parseTriples() error {
	subj, err := p.parseNode(false)
	if err != nil {
		return err
	}
	for {
		pred, err := p.parseNode(true)
		if err != nil {
			return err
		}
		for {
			obj, err := p.parseNode(false)
			if err != nil {
				return err
			}
			p.q.Patterns = append(p.q.Patterns, Pattern{Subject: subj, Predicate: pred, Object: obj})
			if !p.isPunct(",") {
				break
			}
			p.next()
		}
		if !p.isPunct(";") {
			return nil
		}
		for p.isPunct(";") {
			p.next()
		}
		// A trailing ';' may close the list.
		if p.isPunct(".") || p.isPunct("}") {
			return nil
		}
	}
}

// parseNode reads a variable or a constant term. verb allows "a".
func (p *parser) parseNode(verb bool) (Node, error) {
	t := p.peek()
	switch t.kind {
	case tokVar:
		p.next()
		return Node{Var: t.val}, nil
	case tokBlank:
		if verb {
			return Node{}, syntaxErr(t.pos, "blank node cannot be a predicate")
		}
		p.next()
		return Node{Var: "_:" + t.val}, nil
	case tokIdent:
		if verb && t.val == "a" {
			p.next()
			return Node{Term: rdf.IRI(rdfType).Encode()}, nil
		}
	}
	term, err := p.parseTerm()
	if err != nil {
		return Node{}, err
	}
	return Node{Term: term}, nil
}

// parseTerm reads a constant and returns its encoded form.
func (p *parser) parseTerm() (string, error) {
	t := p.next()
	switch t.kind {
	case tokIRI:
		return rdf.IRI(p.resolve(t.val)).Encode(), nil
	case tokPName:
		iri, err := p.expand(t)
		if err != nil {
			return "", err
		}
		return rdf.IRI(iri).Encode(), nil
	case tokString:
		switch p.peek().kind {
		case tokLang:
			return rdf.Literal(t.val, p.next().val, "").Encode(), nil
		case tokDTMark:
			p.next()
			dt := p.next()
			var iri string
			switch dt.kind {
			case tokIRI:
				iri = p.resolve(dt.val)
			case tokPName:
				var err error
				if iri, err = p.expand(dt); err != nil {
					return "", err
				}
			default:
				return "", syntaxErr(dt.pos, "expected datatype IRI after ^^")
			}
			return rdf.Literal(t.val, "", iri).Encode(), nil
		}
		return rdf.Literal(t.val, "", "").Encode(), nil
	case tokNumber:
		dt := xsdInteger
		if strings.Contains(t.val, ".") {
			dt = xsdDecimal
		}
		return rdf.Literal(strings.TrimPrefix(t.val, "+"), "", dt).Encode(), nil
	case tokIdent:
		if t.val == "true" || t.val == "false" {
			return rdf.Literal(t.val, "", xsdBoolean).Encode(), nil
		}
	}
	return "", syntaxErr(t.pos, fmt.Sprintf("expected term, got %s", t))
}

func (p *parser) expand(t token) (string, error) {
	prefix, local, _ := strings.Cut(t.val, ":")
	ns, ok := p.q.Prefixes[prefix]
	if !ok {
		return "", syntaxErr(t.pos, fmt.Sprintf("undeclared prefix %q", prefix))
	}
	return ns + local, nil
}

// parseFilter reads (?a = term), (?a != term) or regex(?a, "pattern"[, "flags"]).
func (p *parser) parseFilter() error {
	wrapped := p.isPunct("(")
	if wrapped {
		p.next()
	}

	var f Filter
	if p.isKeyword("regex") {
		p.next()
		if err := p.expectPunct("("); err != nil {
			return err
		}
		left, err := p.parseOperand()
		if err != nil {
			return err
		}
		if err := p.expectPunct(","); err != nil {
			return err
		}
		pat := p.next()
		if pat.kind != tokString {
			return syntaxErr(pat.pos, "regex pattern must be a string")
		}
		expr := pat.val
		if p.isPunct(",") {
			p.next()
			flags := p.next()
			if flags.kind != tokString || strings.Trim(flags.val, "ismx") != "" {
				return syntaxErr(flags.pos, "regex flags must be a string of i, s, m or x")
			}
			// Go has no extended mode, so x is accepted and ignored.
			if goFlags := strings.ReplaceAll(flags.val, "x", ""); goFlags != "" {
				expr = "(?" + goFlags + ")" + expr
			}
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return syntaxErr(pat.pos, fmt.Sprintf("invalid regex: %v", err))
		}
		if err := p.expectPunct(")"); err != nil {
			return err
		}
		f = Filter{Op: OpRegex, Left: left, Regex: re}
	} else {
		if !wrapped {
			return p.unexpected("'(' or regex after FILTER")
		}
		left, err := p.parseOperand()
		if err != nil {
			return err
		}
		op := p.next()
		switch {
		case op.kind == tokPunct && op.val == "=":
			f.Op = OpEqual
		case op.kind == tokPunct && op.val == "!=":
			f.Op = OpNotEqual
		default:
			return syntaxErr(op.pos, fmt.Sprintf("unsupported filter operator %s", op))
		}
		right, err := p.parseOperand()
		if err != nil {
			return err
		}
		f.Left, f.Right = left, right
	}

	if wrapped {
		if err := p.expectPunct(")"); err != nil {
			return err
		}
	}
	p.q.Filters = append(p.q.Filters, f)
	return nil
}

func (p *parser) parseOperand() (Node, error) {
	if p.peek().kind == tokVar {
		return Node{Var: p.next().val}, nil
	}
	term, err := p.parseTerm()
	if err != nil {
		return Node{}, err
	}
	return Node{Term: term}, nil
}
