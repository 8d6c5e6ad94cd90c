package rdf

import (
	"fmt"
	"io"

	"github.com/duynguyendang/shaclreport/pkg/meb"
	"github.com/knakk/rdf"
)

// ToTriple converts a store fact back into a decoder triple.
func ToTriple(f meb.Fact) (rdf.Triple, error) {
	var tr rdf.Triple

	s, err := knakkTerm(f.Subject)
	if err != nil {
		return tr, fmt.Errorf("subject: %w", err)
	}
	subj, ok := s.(rdf.Subject)
	if !ok {
		return tr, fmt.Errorf("%w: %s cannot be a subject", ErrBadTerm, f.Subject)
	}

	p, err := knakkTerm(f.Predicate)
	if err != nil {
		return tr, fmt.Errorf("predicate: %w", err)
	}
	pred, ok := p.(rdf.IRI)
	if !ok {
		return tr, fmt.Errorf("%w: %s cannot be a predicate", ErrBadTerm, f.Predicate)
	}

	o, err := knakkTerm(f.Object)
	if err != nil {
		return tr, fmt.Errorf("object: %w", err)
	}

	tr.Subj = subj
	tr.Pred = pred
	tr.Obj = o.(rdf.Object)
	return tr, nil
}

func knakkTerm(encoded string) (rdf.Term, error) {
	t, err := DecodeTerm(encoded)
	if err != nil {
		return nil, err
	}
	switch t.Kind {
	case KindIRI:
		return rdf.NewIRI(t.Value)
	case KindBlank:
		return rdf.NewBlank(t.Value)
	}
	switch {
	case t.Lang != "":
		return rdf.NewLangLiteral(t.Value, t.Lang)
	case t.Datatype != "":
		dt, err := rdf.NewIRI(t.Datatype)
		if err != nil {
			return nil, err
		}
		return rdf.NewTypedLiteral(t.Value, dt), nil
	}
	return rdf.NewLiteral(t.Value)
}

// WriteNTriples serializes facts as N-Triples.
func WriteNTriples(w io.Writer, facts []meb.Fact) error {
	enc := rdf.NewTripleEncoder(w, rdf.NTriples)
	for i, f := range facts {
		tr, err := ToTriple(f)
		if err != nil {
			return fmt.Errorf("fact %d: %w", i, err)
		}
		if err := enc.Encode(tr); err != nil {
			return err
		}
	}
	return enc.Close()
}
