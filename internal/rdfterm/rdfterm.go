// Package rdfterm reads RDF documents with github.com/geoknoesis/rdf-go and
// converts its terms to quad values.
package rdfterm

import (
	"context"
	"io"

	"github.com/cayleygraph/quad"
	"github.com/geoknoesis/rdf-go/rdf"

	"github.com/cayleygraph/rdfobjects/voc"
)

// Value converts a term. Quoted triples are not supported and yield nil.
func Value(t rdf.Term) quad.Value {
	switch t := t.(type) {
	case rdf.IRI:
		return quad.IRI(t.Value)
	case rdf.BlankNode:
		return quad.BNode(t.ID)
	case rdf.Literal:
		switch {
		case t.Lang != "":
			return quad.LangString{Value: quad.String(t.Lexical), Lang: t.Lang}
		case t.Datatype.Value == "" || quad.IRI(t.Datatype.Value) == voc.String:
			return quad.String(t.Lexical)
		}
		return quad.TypedString{Value: quad.String(t.Lexical), Type: quad.IRI(t.Datatype.Value)}
	}
	return nil
}

// Read parses r in the given format and calls fn for every statement that
// can be represented as a quad.
func Read(ctx context.Context, r io.Reader, format rdf.Format, fn func(quad.Quad) error) error {
	return rdf.Parse(ctx, r, format, func(st rdf.Statement) error {
		q := quad.Quad{
			Subject:   Value(st.S),
			Predicate: quad.IRI(st.P.Value),
			Object:    Value(st.O),
		}
		if q.Subject == nil || q.Object == nil {
			return nil
		}
		if st.G != nil {
			q.Label = Value(st.G)
		}
		return fn(q)
	})
}

// ReadAll is like Read but collects all quads.
func ReadAll(ctx context.Context, r io.Reader, format rdf.Format) ([]quad.Quad, error) {
	var out []quad.Quad
	err := Read(ctx, r, format, func(q quad.Quad) error {
		out = append(out, q)
		return nil
	})
	return out, err
}

// FormatByMime returns the rdf-go format for a media type.
func FormatByMime(mt string) (rdf.Format, bool) {
	switch mt {
	case "text/turtle", "application/x-turtle":
		return rdf.FormatTurtle, true
	case "application/trig":
		return rdf.FormatTriG, true
	case "application/rdf+xml":
		return rdf.FormatRDFXML, true
	}
	return "", false
}
