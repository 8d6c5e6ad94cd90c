package meb

import "fmt"

// Fact is a single triple. Each position holds an encoded term as produced
// by the rdf package (for example "<http://ex/a>" or "\"text\"@en").
type Fact struct {
	Subject   string `json:"subject"`
	Predicate string `json:"predicate"`
	Object    string `json:"object"`
}

// NewFact creates a new Fact with the given subject, predicate, and object.
func NewFact(subject, predicate, object string) Fact {
	return Fact{Subject: subject, Predicate: predicate, Object: object}
}

// String returns the fact in N-Triples statement form.
func (f Fact) String() string {
	return fmt.Sprintf("%s %s %s .", f.Subject, f.Predicate, f.Object)
}

// IsValid checks if the fact has all required fields.
func (f Fact) IsValid() bool {
	return f.Subject != "" && f.Predicate != "" && f.Object != ""
}

func validateFact(fact Fact) error {
	if fact.Subject == "" {
		return fmt.Errorf("%w: subject cannot be empty", ErrInvalidFact)
	}
	if fact.Predicate == "" {
		return fmt.Errorf("%w: predicate cannot be empty", ErrInvalidFact)
	}
	if fact.Object == "" {
		return fmt.Errorf("%w: object cannot be empty", ErrInvalidFact)
	}
	return nil
}

func validateFacts(facts []Fact) error {
	if len(facts) == 0 {
		return ErrEmptyBatch
	}
	for i, fact := range facts {
		if err := validateFact(fact); err != nil {
			return fmt.Errorf("fact at index %d: %w", i, err)
		}
	}
	return nil
}
