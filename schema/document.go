package schema

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cayleygraph/quad"
	"gopkg.in/yaml.v3"

	"github.com/cayleygraph/rdfobjects/ldcontext"
	"github.com/cayleygraph/rdfobjects/voc"
)

// Expander resolves prefixed names to full IRIs.
type Expander interface {
	Expand(name string) quad.IRI
}

// Document is a YAML (or JSON) shape description:
//
//	main: Person
//	prefixes: {ex: "http://example.com/"}
//	shapes:
//	  - key: Person
//	    targetClass: ex:Person
//	    properties:
//	      - {path: ex:name, datatype: xsd:string, required: true}
//	      - {path: ex:label, languageIn: [en, fr]}
//	      - {path: ex:knows, node: Person, multiple: true}
type Document struct {
	Main     string            `yaml:"main" json:"main"`
	Vocab    string            `yaml:"vocab,omitempty" json:"vocab,omitempty"`
	Prefixes map[string]string `yaml:"prefixes,omitempty" json:"prefixes,omitempty"`
	Shapes   []ShapeDoc        `yaml:"shapes" json:"shapes"`
}

// ShapeDoc is a single shape entry of a Document.
type ShapeDoc struct {
	Key         string        `yaml:"key" json:"key"`
	TargetClass string        `yaml:"targetClass" json:"targetClass"`
	Properties  []PropertyDoc `yaml:"properties" json:"properties"`
}

// PropertyDoc is a single property entry of a ShapeDoc.
//
// String values in In and HasValue that contain a colon are read as IRIs,
// other scalars become literals.
type PropertyDoc struct {
	Path       string        `yaml:"path" json:"path"`
	Datatype   string        `yaml:"datatype,omitempty" json:"datatype,omitempty"`
	Required   bool          `yaml:"required,omitempty" json:"required,omitempty"`
	Multiple   bool          `yaml:"multiple,omitempty" json:"multiple,omitempty"`
	In         []interface{} `yaml:"in,omitempty" json:"in,omitempty"`
	HasValue   interface{}   `yaml:"hasValue,omitempty" json:"hasValue,omitempty"`
	LanguageIn []string      `yaml:"languageIn,omitempty" json:"languageIn,omitempty"`
	Node       string        `yaml:"node,omitempty" json:"node,omitempty"`
}

// Decode reads a Document from r. JSON input is accepted as well.
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("could not decode shape description: %w", err)
	}
	return &doc, nil
}

// Context returns a JSON-LD context made of the document prefixes and vocabulary.
func (d *Document) Context() *ldcontext.Context {
	return ldcontext.New(d.Prefixes, d.Vocab)
}

// Registry builds a registry out of the document. Names are resolved with
// exp, or with the document's own context if exp is nil.
func (d *Document) Registry(exp Expander) (*Registry, error) {
	if exp == nil {
		exp = d.Context()
	}
	main := d.Main
	if main == "" && len(d.Shapes) != 0 {
		main = d.Shapes[0].Key
	}
	shapes := make([]*Shape, 0, len(d.Shapes))
	for _, sd := range d.Shapes {
		s := &Shape{Key: sd.Key}
		if sd.TargetClass != "" {
			s.TargetClass = exp.Expand(sd.TargetClass)
		}
		for _, pd := range sd.Properties {
			p, err := pd.property(exp)
			if err != nil {
				return nil, &Error{Shape: sd.Key, Property: quad.IRI(pd.Path), Err: ErrConflict, Detail: err.Error()}
			}
			s.Properties = append(s.Properties, p)
		}
		shapes = append(shapes, s)
	}
	return NewRegistry(main, shapes...)
}

func (pd PropertyDoc) property(exp Expander) (*Property, error) {
	p := &Property{
		Required:     pd.Required,
		Multiple:     pd.Multiple,
		LanguageTags: pd.LanguageIn,
		Nested:       pd.Node,
	}
	if pd.Path != "" {
		p.Predicate = exp.Expand(pd.Path)
	}
	if pd.Datatype != "" {
		p.Datatype = exp.Expand(pd.Datatype)
	}
	for _, v := range pd.In {
		qv, err := scalarValue(v, exp)
		if err != nil {
			return nil, err
		}
		p.AllowedValues = append(p.AllowedValues, qv)
	}
	if pd.HasValue != nil {
		if len(pd.In) != 0 {
			return nil, fmt.Errorf("both in and hasValue are set")
		}
		qv, err := scalarValue(pd.HasValue, exp)
		if err != nil {
			return nil, err
		}
		p.AllowedValues = []quad.Value{qv}
	}
	return p, nil
}

func scalarValue(v interface{}, exp Expander) (quad.Value, error) {
	switch v := v.(type) {
	case string:
		if strings.Contains(v, ":") {
			return exp.Expand(v), nil
		}
		return quad.String(v), nil
	case int:
		return quad.TypedString{Value: quad.String(strconv.Itoa(v)), Type: voc.Integer}, nil
	case float64:
		return quad.TypedString{Value: quad.String(strconv.FormatFloat(v, 'g', -1, 64)), Type: voc.Double}, nil
	case bool:
		return quad.TypedString{Value: quad.String(strconv.FormatBool(v)), Type: voc.Boolean}, nil
	}
	return nil, fmt.Errorf("unsupported value %v (%T)", v, v)
}
