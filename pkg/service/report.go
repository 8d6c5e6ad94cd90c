package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/duynguyendang/shaclreport/internal/manager"
	"github.com/duynguyendang/shaclreport/internal/observability"
	apperrors "github.com/duynguyendang/shaclreport/pkg/common/errors"
	"github.com/duynguyendang/shaclreport/pkg/export"
	"github.com/duynguyendang/shaclreport/pkg/meb"
	"github.com/duynguyendang/shaclreport/pkg/rdf"
	"github.com/duynguyendang/shaclreport/pkg/render"
	"github.com/duynguyendang/shaclreport/pkg/report"
	"github.com/duynguyendang/shaclreport/pkg/sparql"
)

// DatasetManager abstracts the per-dataset store registry.
type DatasetManager interface {
	GetStore(id string) (*meb.MEBStore, error)
	CreateDataset(meta manager.DatasetMetadata) (manager.DatasetMetadata, *meb.MEBStore, error)
	SaveMetadata(meta manager.DatasetMetadata) error
	GetMetadata(id string) (manager.DatasetMetadata, error)
	DeleteDataset(id string) error
	ListDatasets() ([]manager.DatasetMetadata, error)
}

// Options configures a ReportService.
type Options struct {
	// ResultPredicate links a validation report to its results.
	ResultPredicate string
	Report          report.Config
	DisplayLimit    int
	BatchSize       int
}

// DefaultOptions returns the SHACL defaults.
func DefaultOptions() Options {
	return Options{
		ResultPredicate: report.PredicateResult,
		Report:          report.DefaultConfig(),
		DisplayLimit:    render.DisplayLimit,
		BatchSize:       rdf.DefaultBatchSize,
	}
}

// LoadRequest describes a document to load. ID may be empty.
type LoadRequest struct {
	ID     string
	Name   string
	Format rdf.Format
}

// ReportService loads RDF documents and builds validation reports over them.
type ReportService struct {
	manager DatasetManager
	opts    Options
	metrics *observability.Collector
}

// NewReportService creates a new ReportService. metrics may be nil.
func NewReportService(mgr DatasetManager, opts Options, metrics *observability.Collector) (*ReportService, error) {
	if opts.ResultPredicate == "" {
		return nil, fmt.Errorf("%w: result predicate must not be empty", report.ErrInvalidConfig)
	}
	if err := opts.Report.Validate(); err != nil {
		return nil, err
	}
	if opts.DisplayLimit <= 0 {
		opts.DisplayLimit = render.DisplayLimit
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = rdf.DefaultBatchSize
	}
	return &ReportService{manager: mgr, opts: opts, metrics: metrics}, nil
}

// Options returns the service configuration.
func (s *ReportService) Options() Options {
	return s.opts
}

// Load parses r into a new dataset and keeps the original text for the
// source view. The dataset is removed again if anything fails.
func (s *ReportService) Load(ctx context.Context, req LoadRequest, r io.Reader) (manager.DatasetMetadata, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return manager.DatasetMetadata{}, fmt.Errorf("failed to read document: %w", err)
	}

	meta, st, err := s.manager.CreateDataset(manager.DatasetMetadata{
		ID:     req.ID,
		Name:   req.Name,
		Format: string(req.Format),
	})
	if errors.Is(err, meb.ErrReadOnly) {
		return meta, fmt.Errorf("%w: %w", apperrors.ErrForbidden, err)
	}
	if err != nil {
		return meta, err
	}

	stats, err := rdf.Load(ctx, bytes.NewReader(data), req.Format, st, s.opts.BatchSize)
	if err == nil {
		err = st.SetSource(data)
	}
	if err == nil {
		err = st.SetMetadata(metaFormat, string(req.Format))
	}
	if err == nil {
		meta.Triples = stats.Stored
		err = s.manager.SaveMetadata(meta)
	}
	if err != nil {
		s.metrics.RecordLoadFailure()
		if derr := s.manager.DeleteDataset(meta.ID); derr != nil {
			slog.Error("failed to remove partial dataset", "dataset", meta.ID, "error", derr)
		}
		return manager.DatasetMetadata{}, classifyLoadError(err)
	}

	s.metrics.RecordLoad(stats.Stored)
	slog.Info("dataset loaded",
		"dataset", meta.ID,
		"name", meta.Name,
		"parsed", stats.Parsed,
		"stored", stats.Stored,
	)
	return meta, nil
}

func classifyLoadError(err error) error {
	switch {
	case errors.Is(err, rdf.ErrUnsupportedFormat):
		return fmt.Errorf("%w: %w", apperrors.ErrUnsupported, err)
	case errors.Is(err, rdf.ErrMalformed), errors.Is(err, meb.ErrInvalidFact):
		return fmt.Errorf("%w: %w", apperrors.ErrInvalidInput, err)
	}
	return err
}

// Query runs a SPARQL SELECT against a dataset.
func (s *ReportService) Query(ctx context.Context, id, query string) (*sparql.Result, error) {
	st, err := s.manager.GetStore(id)
	if err != nil {
		return nil, err
	}
	res, err := s.execute(ctx, st, query)
	s.metrics.RecordQuery(err)
	return res, err
}

func (s *ReportService) execute(ctx context.Context, st *meb.MEBStore, query string) (*sparql.Result, error) {
	res, err := sparql.Execute(ctx, st, query)
	if errors.Is(err, sparql.ErrSyntax) {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrInvalidInput, err)
	}
	return res, err
}

// Report runs the result query against a dataset and reshapes its rows into
// a validation report. The returned document carries the first DisplayLimit
// result triples for the triples table.
func (s *ReportService) Report(ctx context.Context, id string) (render.Document, error) {
	meta, err := s.manager.GetMetadata(id)
	if err != nil {
		return render.Document{}, err
	}
	st, err := s.manager.GetStore(id)
	if err != nil {
		return render.Document{}, err
	}

	res, err := s.execute(ctx, st, sparql.ResultQuery(s.opts.ResultPredicate))
	s.metrics.RecordQuery(err)
	if err != nil {
		return render.Document{}, fmt.Errorf("failed to run result query: %w", err)
	}

	bindings, err := report.BindingsFromRows(res.Rows,
		report.DefaultSubjectVar, report.DefaultPredicateVar, report.DefaultObjectVar)
	if err != nil {
		return render.Document{}, err
	}

	rep, err := report.Build(ctx, s.opts.Report, bindings)
	if err != nil {
		return render.Document{}, err
	}

	title := meta.Name
	if title == "" {
		title = meta.ID
	}
	return render.Document{
		Title:   title,
		Report:  rep,
		Triples: render.TableFromBindings(bindings, s.opts.DisplayLimit),
	}, nil
}

// Graph builds the report of a dataset and lays it out as a D3 graph of
// results, focus nodes and checked paths.
func (s *ReportService) Graph(ctx context.Context, id string) (*export.D3Graph, error) {
	doc, err := s.Report(ctx, id)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordReport("graph", len(doc.Report.Groups))
	return export.ExportD3(doc.Report), nil
}

// RenderReport builds the report of a dataset and writes it to w.
func (s *ReportService) RenderReport(ctx context.Context, id string, format render.Format, w io.Writer) error {
	doc, err := s.Report(ctx, id)
	if err != nil {
		return err
	}
	if err := render.Write(w, format, doc); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	s.metrics.RecordReport(string(format), len(doc.Report.Groups))
	return nil
}

// Triples returns up to limit stored triples of a dataset as display values.
// A limit of zero or less uses the display limit.
func (s *ReportService) Triples(ctx context.Context, id string, limit int) (render.Table, error) {
	if limit <= 0 {
		limit = s.opts.DisplayLimit
	}
	table := render.Table{Columns: []string{"s", "p", "o"}, Rows: make([][]string, 0, limit)}
	err := s.ScanTriples(ctx, id, "", "", "", limit, func(subj, pred, obj string) {
		table.Rows = append(table.Rows, []string{subj, pred, obj})
	})
	if err != nil {
		return render.Table{}, err
	}
	return table, nil
}

// ScanTriples calls fn with the display values of up to limit triples that
// match the pattern. Pattern terms are in stored form; empty terms are
// wildcards. A limit of zero or less means no limit.
func (s *ReportService) ScanTriples(ctx context.Context, id, subj, pred, obj string, limit int, fn func(subj, pred, obj string)) error {
	st, err := s.manager.GetStore(id)
	if err != nil {
		return err
	}

	n := 0
	for f, err := range st.ScanContext(ctx, subj, pred, obj) {
		if err != nil {
			return err
		}
		fn(rdf.Display(f.Subject), rdf.Display(f.Predicate), rdf.Display(f.Object))
		n++
		if limit > 0 && n >= limit {
			break
		}
	}
	return nil
}

// Source returns the document text a dataset was loaded from.
func (s *ReportService) Source(id string) ([]byte, error) {
	st, err := s.manager.GetStore(id)
	if err != nil {
		return nil, err
	}
	data, err := st.GetSource()
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("%w: source of dataset %s", apperrors.ErrNotFound, id)
	}
	return data, nil
}

// Store metadata keys written on load.
const metaFormat = "source.format"

// Stats describes the store behind a dataset.
type Stats struct {
	Triples    uint64            `json:"triples"`
	Predicates int               `json:"predicates"`
	Metadata   map[string]string `json:"metadata"`
}

// Stats reports the live fact count, predicate count and store metadata.
func (s *ReportService) Stats(id string) (Stats, error) {
	st, err := s.manager.GetStore(id)
	if err != nil {
		return Stats{}, err
	}
	preds, err := st.GetAllPredicates()
	if err != nil {
		return Stats{}, err
	}
	md, err := st.Metadata()
	if err != nil {
		return Stats{}, err
	}
	return Stats{Triples: st.Count(), Predicates: len(preds), Metadata: md}, nil
}

// ExportNTriples writes every stored triple of a dataset as N-Triples.
func (s *ReportService) ExportNTriples(ctx context.Context, id string, w io.Writer) error {
	st, err := s.manager.GetStore(id)
	if err != nil {
		return err
	}
	facts := make([]meb.Fact, 0, st.Count())
	for f, err := range st.ScanContext(ctx, "", "", "") {
		if err != nil {
			return err
		}
		facts = append(facts, f)
	}
	if err := rdf.WriteNTriples(w, facts); err != nil {
		return fmt.Errorf("failed to export dataset %s: %w", id, err)
	}
	return nil
}

// Predicates lists the distinct predicates of a dataset. With a non-empty
// near, only predicates similar to it are returned, best match first.
func (s *ReportService) Predicates(id, near string, limit int) ([]string, error) {
	st, err := s.manager.GetStore(id)
	if err != nil {
		return nil, err
	}
	encoded, err := st.GetAllPredicates()
	if err != nil {
		return nil, err
	}

	preds := make([]string, len(encoded))
	for i, p := range encoded {
		preds[i] = rdf.Display(p)
	}

	near = strings.TrimSpace(near)
	if near == "" {
		if limit > 0 && len(preds) > limit {
			preds = preds[:limit]
		}
		return preds, nil
	}

	matches := FindBySimilarity(near, preds, limit)
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.Value
	}
	return out, nil
}

// Datasets lists the loaded datasets, newest first.
func (s *ReportService) Datasets() ([]manager.DatasetMetadata, error) {
	return s.manager.ListDatasets()
}

// Dataset returns the metadata of one dataset.
func (s *ReportService) Dataset(id string) (manager.DatasetMetadata, error) {
	return s.manager.GetMetadata(id)
}

// Delete removes a dataset and its store.
func (s *ReportService) Delete(id string) error {
	return s.manager.DeleteDataset(id)
}

// ResolveFormat picks the document format from an explicit hint, falling
// back to the file name's extension.
func ResolveFormat(hint, filename string) (rdf.Format, error) {
	var (
		f   rdf.Format
		err error
	)
	if strings.TrimSpace(hint) != "" {
		f, err = rdf.ParseFormat(hint)
	} else {
		f, err = rdf.FormatFromFilename(filename)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", apperrors.ErrUnsupported, err)
	}
	return f, nil
}
