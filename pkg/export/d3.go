// Package export turns validation reports into D3 force-directed graphs.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/duynguyendang/shaclreport/pkg/report"
)

// Node groups.
const (
	GroupResult = "result"
	GroupFocus  = "focus"
	GroupPath   = "path"
)

// D3Node represents a node in the D3 force-directed graph.
type D3Node struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`             // Display name (local part of the IRI)
	Group    string            `json:"group"`            // result, focus or path
	Weight   int               `json:"weight,omitempty"` // Results attached to a focus or path node
	Metadata map[string]string `json:"metadata,omitempty"`
}

// D3Link represents a link/edge in the D3 force-directed graph.
type D3Link struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	Relation string `json:"relation"`
}

// D3Graph represents the full graph structure for D3.js.
type D3Graph struct {
	Nodes []D3Node `json:"nodes"`
	Links []D3Link `json:"links"`
}

// D3Transformer converts reports to D3 graphs.
type D3Transformer struct {
	// IgnoredPredicates are left out of result node metadata.
	IgnoredPredicates map[string]bool
	// IncludePaths adds a node per checked property value.
	IncludePaths bool
}

// NewD3Transformer creates a transformer that links results to focus nodes
// and checked paths.
func NewD3Transformer() *D3Transformer {
	return &D3Transformer{
		IgnoredPredicates: map[string]bool{},
		IncludePaths:      true,
	}
}

// Transform converts a report into a D3Graph. Nodes appear in first-seen
// order: each focus node, then its results and their paths.
func (t *D3Transformer) Transform(rep *report.Report) *D3Graph {
	graph := &D3Graph{Nodes: []D3Node{}, Links: []D3Link{}}
	if rep == nil {
		return graph
	}

	index := make(map[string]int)
	addNode := func(id, group string) int {
		if i, ok := index[id]; ok {
			return i
		}
		graph.Nodes = append(graph.Nodes, D3Node{ID: id, Name: displayName(id), Group: group})
		index[id] = len(graph.Nodes) - 1
		return index[id]
	}

	focusKey := rep.Config.FocusNodePredicate
	pathKey := rep.Config.CheckedPropertyPredicate

	for _, group := range rep.Groups {
		fi := addNode(group.FocusNode, GroupFocus)
		graph.Nodes[fi].Weight += len(group.Records)

		for _, rec := range group.Records {
			ri := addNode(rec.Subject, GroupResult)
			graph.Nodes[ri].Metadata = t.metadata(rec, focusKey, pathKey)
			graph.Links = append(graph.Links, D3Link{
				Source:   rec.Subject,
				Target:   group.FocusNode,
				Relation: displayName(focusKey),
			})

			path, ok := rec.Get(pathKey)
			if !t.IncludePaths || !ok {
				continue
			}
			pi := addNode(path, GroupPath)
			graph.Nodes[pi].Weight++
			graph.Links = append(graph.Links, D3Link{
				Source:   rec.Subject,
				Target:   path,
				Relation: displayName(pathKey),
			})
		}
	}
	return graph
}

// metadata keeps the record fields that are not drawn as links.
func (t *D3Transformer) metadata(rec *report.SubjectRecord, skip ...string) map[string]string {
	out := make(map[string]string)
	for _, pred := range rec.Predicates() {
		if t.IgnoredPredicates[pred] || contains(skip, pred) {
			continue
		}
		v, _ := rec.Get(pred)
		out[displayName(pred)] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// displayName returns the local part of an IRI: the text after the last
// '#' or '/'. Other values are returned unchanged.
func displayName(id string) string {
	if !strings.Contains(id, "://") {
		return id
	}
	trimmed := strings.TrimRight(id, "/#")
	if i := strings.LastIndexAny(trimmed, "#/"); i >= 0 && i < len(trimmed)-1 {
		return trimmed[i+1:]
	}
	return id
}

// ExportD3 is a convenience wrapper for D3Transformer.
func ExportD3(rep *report.Report) *D3Graph {
	return NewD3Transformer().Transform(rep)
}

// WriteD3Graph encodes the graph as indented JSON.
func WriteD3Graph(w io.Writer, graph *D3Graph) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(graph); err != nil {
		return fmt.Errorf("failed to encode graph: %w", err)
	}
	return nil
}

// SaveD3Graph writes the graph to a JSON file.
func SaveD3Graph(graph *D3Graph, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteD3Graph(f, graph)
}
