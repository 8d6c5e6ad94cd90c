package rdf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/duynguyendang/shaclreport/pkg/meb"
	"github.com/knakk/rdf"
)

// DefaultBatchSize is the number of facts buffered before each store write.
const DefaultBatchSize = 1000

// ErrUnsupportedFormat is returned for documents that are not Turtle or N-Triples.
var ErrUnsupportedFormat = errors.New("unsupported RDF format")

// ErrMalformed is returned when the decoder rejects the document.
var ErrMalformed = errors.New("malformed RDF document")

// Format names a serialization the loader can read.
type Format string

const (
	FormatTurtle   Format = "turtle"
	FormatNTriples Format = "ntriples"
)

// ParseFormat accepts a format name or a MIME type.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "turtle", "ttl", "text/turtle", "application/x-turtle":
		return FormatTurtle, nil
	case "ntriples", "n-triples", "nt", "application/n-triples":
		return FormatNTriples, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// FormatFromFilename picks a format from the file extension.
func FormatFromFilename(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".ttl", ".turtle":
		return FormatTurtle, nil
	case ".nt":
		return FormatNTriples, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
}

func (f Format) codec() (rdf.Format, error) {
	switch f {
	case FormatTurtle:
		return rdf.Turtle, nil
	case FormatNTriples:
		return rdf.NTriples, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(f))
}

// FactWriter receives decoded facts in batches.
type FactWriter interface {
	AddFactBatch(facts []meb.Fact) (int, error)
}

// LoadStats summarizes one load.
type LoadStats struct {
	Parsed int `json:"parsed"`
	Stored int `json:"stored"`
}

// Load decodes r and writes the triples to w in batches of batchSize.
// A batchSize of zero or less uses DefaultBatchSize.
func Load(ctx context.Context, r io.Reader, format Format, w FactWriter, batchSize int) (LoadStats, error) {
	var stats LoadStats
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	codec, err := format.codec()
	if err != nil {
		return stats, err
	}
	dec := rdf.NewTripleDecoder(r, codec)

	batch := make([]meb.Fact, 0, batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := w.AddFactBatch(batch)
		if err != nil {
			return err
		}
		stats.Stored += n
		batch = batch[:0]
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		tr, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stats, fmt.Errorf("%w: triple %d: %v", ErrMalformed, stats.Parsed+1, err)
		}

		batch = append(batch, FactFromTriple(tr))
		stats.Parsed++
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return stats, fmt.Errorf("failed to store triples: %w", err)
			}
		}
	}
	if err := flush(); err != nil {
		return stats, fmt.Errorf("failed to store triples: %w", err)
	}

	slog.Debug("rdf document loaded", "format", format, "parsed", stats.Parsed, "stored", stats.Stored)
	return stats, nil
}

// FactFromTriple converts a decoded triple into a store fact.
func FactFromTriple(tr rdf.Triple) meb.Fact {
	return meb.Fact{
		Subject:   TermFrom(tr.Subj).Encode(),
		Predicate: TermFrom(tr.Pred).Encode(),
		Object:    TermFrom(tr.Obj).Encode(),
	}
}

// TermFrom converts a decoder term into a Term.
func TermFrom(t rdf.Term) Term {
	switch t.Type() {
	case rdf.TermIRI:
		return IRI(t.String())
	case rdf.TermBlank:
		return Blank(t.String())
	default:
		lit, ok := t.(rdf.Literal)
		if !ok {
			return Literal(t.String(), "", "")
		}
		return Literal(lit.String(), lit.Lang(), lit.DataType.String())
	}
}
