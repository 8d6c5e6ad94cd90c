package report

import (
	"errors"
	"fmt"
	"strings"
)

// Well-known SHACL vocabulary.
const (
	SHACLNamespace = "http://www.w3.org/ns/shacl#"

	PredicateFocusNode  = SHACLNamespace + "focusNode"
	PredicateResultPath = SHACLNamespace + "resultPath"
	PredicateResult     = SHACLNamespace + "result"
	PredicateSeverity   = SHACLNamespace + "resultSeverity"
	PredicateMessage    = SHACLNamespace + "resultMessage"
)

// ErrInvalidConfig is returned when a required predicate key is missing.
var ErrInvalidConfig = errors.New("invalid report configuration")

// Config names the two predicates the reshaping depends on.
type Config struct {
	// FocusNodePredicate is the key records are grouped by.
	FocusNodePredicate string `yaml:"focus_node_predicate" json:"focusNodePredicate"`
	// CheckedPropertyPredicate is the key whose values are counted.
	CheckedPropertyPredicate string `yaml:"checked_property_predicate" json:"checkedPropertyPredicate"`
}

// DefaultConfig returns the SHACL validation-report configuration.
func DefaultConfig() Config {
	return Config{
		FocusNodePredicate:       PredicateFocusNode,
		CheckedPropertyPredicate: PredicateResultPath,
	}
}

// Validate fails fast when either predicate key is blank.
func (c Config) Validate() error {
	if strings.TrimSpace(c.FocusNodePredicate) == "" {
		return fmt.Errorf("%w: focus node predicate must not be empty", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.CheckedPropertyPredicate) == "" {
		return fmt.Errorf("%w: checked property predicate must not be empty", ErrInvalidConfig)
	}
	return nil
}
