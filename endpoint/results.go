package endpoint

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/cayleygraph/quad"
)

// Results is a decoded SPARQL 1.1 JSON results document.
type Results struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results struct {
		Bindings []map[string]Binding `json:"bindings"`
	} `json:"results"`
}

// Binding is a single RDF term of a result row.
type Binding struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Datatype string `json:"datatype,omitempty"`
	Lang     string `json:"xml:lang,omitempty"`
}

// Term converts the binding to an RDF value.
func (b Binding) Term() (quad.Value, error) {
	switch b.Type {
	case "uri":
		return quad.IRI(b.Value), nil
	case "bnode":
		return quad.BNode(b.Value), nil
	case "literal", "typed-literal":
		switch {
		case b.Lang != "":
			return quad.LangString{Value: quad.String(b.Value), Lang: b.Lang}, nil
		case b.Datatype != "":
			return quad.TypedString{Value: quad.String(b.Value), Type: quad.IRI(b.Datatype)}, nil
		}
		return quad.String(b.Value), nil
	}
	return nil, fmt.Errorf("unsupported binding type %q", b.Type)
}

// Column returns the values bound to a variable, skipping unbound rows.
func (r *Results) Column(name string) ([]quad.Value, error) {
	out := make([]quad.Value, 0, len(r.Results.Bindings))
	for _, row := range r.Results.Bindings {
		b, ok := row[name]
		if !ok {
			continue
		}
		v, err := b.Term()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// DecodeResults reads a SPARQL JSON results document.
func DecodeResults(r io.Reader) (*Results, error) {
	var res Results
	if err := json.NewDecoder(r).Decode(&res); err != nil {
		return nil, fmt.Errorf("could not decode results: %w", err)
	}
	return &res, nil
}
