// Package shacl builds shape registries out of SHACL node shapes written in Turtle.
//
// Only the subset of SHACL that maps onto schema.Property is understood:
// sh:targetClass, sh:property, sh:path, sh:datatype, sh:minCount, sh:maxCount,
// sh:in, sh:hasValue, sh:languageIn, sh:node and sh:order. Other constraints
// are ignored.
package shacl

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/cayleygraph/quad"
	"github.com/geoknoesis/rdf-go/rdf"

	"github.com/cayleygraph/rdfobjects/clog"
	"github.com/cayleygraph/rdfobjects/internal/rdfterm"
	"github.com/cayleygraph/rdfobjects/schema"
	"github.com/cayleygraph/rdfobjects/voc"
	"github.com/cayleygraph/rdfobjects/voc/sh"
)

// Options controls the loader.
type Options struct {
	// Main is the IRI of the main node shape. The first node shape with a
	// target class is used if it is empty.
	Main string
	// Format of the input, Turtle by default.
	Format rdf.Format
}

type graph struct {
	subjects []string
	out      map[string][]edge
}

type edge struct {
	pred quad.IRI
	obj  quad.Value
}

func newGraph() *graph {
	return &graph{out: make(map[string][]edge)}
}

func (g *graph) add(s quad.Value, p quad.IRI, o quad.Value) {
	k := key(s)
	if _, ok := g.out[k]; !ok {
		g.subjects = append(g.subjects, k)
	}
	g.out[k] = append(g.out[k], edge{pred: p, obj: o})
}

func (g *graph) all(s quad.Value, p quad.IRI) []quad.Value {
	var out []quad.Value
	for _, e := range g.out[key(s)] {
		if e.pred == p {
			out = append(out, e.obj)
		}
	}
	return out
}

func (g *graph) one(s quad.Value, p quad.IRI) quad.Value {
	for _, e := range g.out[key(s)] {
		if e.pred == p {
			return e.obj
		}
	}
	return nil
}

// list walks an RDF collection starting at head.
func (g *graph) list(head quad.Value) []quad.Value {
	var out []quad.Value
	seen := make(map[string]bool)
	for head != nil && head != voc.Nil && !seen[key(head)] {
		seen[key(head)] = true
		first := g.one(head, voc.First)
		if first == nil {
			break
		}
		out = append(out, first)
		head = g.one(head, voc.Rest)
	}
	return out
}

func key(v quad.Value) string {
	switch v := v.(type) {
	case quad.IRI:
		return string(v)
	case quad.BNode:
		return v.String()
	}
	return quad.StringOf(v)
}

// Load parses SHACL shapes from r and builds a registry out of them.
func Load(ctx context.Context, r io.Reader, opts Options) (*schema.Registry, error) {
	format := opts.Format
	if format == "" {
		format = rdf.FormatTurtle
	}
	g := newGraph()
	err := rdfterm.Read(ctx, r, format, func(q quad.Quad) error {
		if p, ok := q.Predicate.(quad.IRI); ok {
			g.add(q.Subject, p, q.Object)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not parse shapes: %w", err)
	}
	return build(g, opts.Main)
}

func build(g *graph, main string) (*schema.Registry, error) {
	var (
		shapes []*schema.Shape
		first  string
	)
	for _, s := range g.subjects {
		node := subject(s)
		if !isNodeShape(g, node) {
			continue
		}
		shape, err := parseShape(g, node)
		if err != nil {
			return nil, err
		}
		if first == "" && shape.TargetClass != "" {
			first = shape.Key
		}
		shapes = append(shapes, shape)
	}
	if main == "" {
		main = first
	}
	clog.Debugf("shacl: loaded %d shapes, main is %q", len(shapes), main)
	return schema.NewRegistry(main, shapes...)
}

func subject(k string) quad.Value {
	if len(k) > 2 && k[:2] == "_:" {
		return quad.BNode(k[2:])
	}
	return quad.IRI(k)
}

func isNodeShape(g *graph, node quad.Value) bool {
	for _, t := range g.all(node, voc.Type) {
		if t == quad.IRI(sh.NodeShape) {
			return true
		}
	}
	return g.one(node, sh.TargetClass) != nil
}

type orderedProperty struct {
	order float64
	prop  *schema.Property
}

func parseShape(g *graph, node quad.Value) (*schema.Shape, error) {
	shape := &schema.Shape{Key: key(node)}
	if tc, ok := g.one(node, sh.TargetClass).(quad.IRI); ok {
		shape.TargetClass = tc
	}
	var props []orderedProperty
	for i, ps := range g.all(node, sh.Property) {
		p, err := parseProperty(g, shape.Key, ps)
		if err != nil {
			return nil, err
		}
		order := float64(i)
		if v := g.one(ps, sh.Order); v != nil {
			if f, err := strconv.ParseFloat(lexical(v), 64); err == nil {
				order = f
			}
		}
		props = append(props, orderedProperty{order: order, prop: p})
	}
	sort.SliceStable(props, func(i, j int) bool { return props[i].order < props[j].order })
	for _, p := range props {
		shape.Properties = append(shape.Properties, p.prop)
	}
	return shape, nil
}

func parseProperty(g *graph, shape string, ps quad.Value) (*schema.Property, error) {
	p := &schema.Property{Multiple: true}
	path, ok := g.one(ps, sh.Path).(quad.IRI)
	if !ok {
		return nil, &schema.Error{Shape: shape, Err: schema.ErrNoPredicate, Detail: "sh:path must be an IRI"}
	}
	p.Predicate = path
	if dt, ok := g.one(ps, sh.Datatype).(quad.IRI); ok {
		p.Datatype = dt
	}
	if v := g.one(ps, sh.MinCount); v != nil {
		n, err := strconv.Atoi(lexical(v))
		if err != nil {
			return nil, &schema.Error{Shape: shape, Property: path, Err: schema.ErrConflict, Detail: "sh:minCount is not an integer"}
		}
		p.Required = n >= 1
	}
	if v := g.one(ps, sh.MaxCount); v != nil {
		n, err := strconv.Atoi(lexical(v))
		if err != nil {
			return nil, &schema.Error{Shape: shape, Property: path, Err: schema.ErrConflict, Detail: "sh:maxCount is not an integer"}
		}
		p.Multiple = n != 1
	}
	if head := g.one(ps, sh.In); head != nil {
		p.AllowedValues = g.list(head)
	}
	if v := g.one(ps, sh.HasValue); v != nil {
		p.AllowedValues = append(p.AllowedValues, v)
	}
	if head := g.one(ps, sh.LanguageIn); head != nil {
		for _, v := range g.list(head) {
			p.LanguageTags = append(p.LanguageTags, lexical(v))
		}
	}
	if n := g.one(ps, sh.Node); n != nil {
		p.Nested = key(n)
	}
	return p, nil
}

func lexical(v quad.Value) string {
	switch v := v.(type) {
	case quad.String:
		return string(v)
	case quad.TypedString:
		return string(v.Value)
	case quad.LangString:
		return string(v.Value)
	}
	return key(v)
}
