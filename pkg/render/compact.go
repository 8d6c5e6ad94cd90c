package render

import "strings"

// wellKnown maps namespaces to the prefixes used when shortening IRIs for display.
var wellKnown = []struct{ prefix, ns string }{
	{"sh", "http://www.w3.org/ns/shacl#"},
	{"rdf", "http://www.w3.org/1999/02/22-rdf-syntax-ns#"},
	{"rdfs", "http://www.w3.org/2000/01/rdf-schema#"},
	{"xsd", "http://www.w3.org/2001/XMLSchema#"},
	{"owl", "http://www.w3.org/2002/07/owl#"},
	{"dcterms", "http://purl.org/dc/terms/"},
}

// Compact shortens IRIs in well-known namespaces, e.g. sh:focusNode.
// Anything else is returned unchanged.
func Compact(s string) string {
	for _, w := range wellKnown {
		if local, ok := strings.CutPrefix(s, w.ns); ok && local != "" {
			return w.prefix + ":" + local
		}
	}
	return s
}
