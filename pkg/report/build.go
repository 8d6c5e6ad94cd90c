package report

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Report bundles everything a presenter needs.
type Report struct {
	Config       Config           `json:"config"`
	BindingCount int              `json:"bindingCount"`
	Records      []*SubjectRecord `json:"records"`
	Groups       []FocusGroup     `json:"groups"`
	Counts       PredicateCounts  `json:"counts"`
}

// Build validates cfg and runs the full reshaping pipeline over bindings.
// Grouping and counting read the same finished record slice, so they run
// concurrently.
func Build(ctx context.Context, cfg Config, bindings []Binding) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	records := AggregateBySubject(bindings)

	var (
		groups []FocusGroup
		counts PredicateCounts
	)

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		groups = GroupByFocusNode(records, cfg.FocusNodePredicate)
		return nil
	})
	g.Go(func() error {
		counts = CountByPredicateValue(records, cfg.CheckedPropertyPredicate)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to build report: %w", err)
	}

	slog.Debug("report built",
		"bindings", len(bindings),
		"records", len(records),
		"focusNodes", len(groups),
		"checkedValues", counts.Len(),
	)

	return &Report{
		Config:       cfg,
		BindingCount: len(bindings),
		Records:      records,
		Groups:       groups,
		Counts:       counts,
	}, nil
}

// ResultCount returns the number of grouped result records.
func (r *Report) ResultCount() int {
	n := 0
	for _, g := range r.Groups {
		n += len(g.Records)
	}
	return n
}
