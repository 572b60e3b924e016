package endpoint

import (
	"context"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/cayleygraph/quad"
	_ "github.com/cayleygraph/quad/jsonld"
	"github.com/cayleygraph/quad/nquads"

	"github.com/cayleygraph/rdfobjects/internal/rdfterm"
)

// Decode reads all quads from r. The media type selects the parser;
// N-Triples is assumed when it is empty or unknown. Literals are kept in
// their lexical form, so typing is left to the caller.
func Decode(r io.Reader, mediaType string) ([]quad.Quad, error) {
	mt := baseType(mediaType)
	if f, ok := rdfterm.FormatByMime(mt); ok {
		quads, err := rdfterm.ReadAll(context.Background(), r, f)
		if err != nil {
			return nil, fmt.Errorf("could not decode %s response: %w", mt, err)
		}
		return quads, nil
	}
	var qr quad.Reader
	switch mt {
	case "", "application/n-triples", "application/n-quads", "text/plain":
		qr = nquads.NewReader(r, true)
	default:
		f := quad.FormatByMime(mt)
		if f == nil || f.Reader == nil {
			qr = nquads.NewReader(r, true)
			break
		}
		rc := f.Reader(r)
		defer rc.Close()
		qr = rc
	}
	quads, err := quad.ReadAll(qr)
	if err != nil {
		return nil, fmt.Errorf("could not decode %s response: %w", orDefault(mt), err)
	}
	return quads, nil
}

func baseType(s string) string {
	if s == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(s)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(s))
	}
	return mt
}

func orDefault(mt string) string {
	if mt == "" {
		return "application/n-triples"
	}
	return mt
}
