// Package materialize rebuilds nested objects from the flat triples returned
// by a compiled query.
//
// Triples are indexed by subject. Subjects carrying the root marker are the
// page roots; every root is built by walking its shape, following nested
// properties into the resources they reference.
package materialize

import (
	"sort"

	"github.com/cayleygraph/quad"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/cayleygraph/rdfobjects/clog"
	"github.com/cayleygraph/rdfobjects/schema"
	"github.com/cayleygraph/rdfobjects/voc"
)

// KeyID is the object key holding the resource identifier.
const KeyID = "id"

var danglingCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "rdfobjects_materialize_dangling_total",
	Help: "Number of nested references missing from query responses.",
})

// Object is a materialized resource.
type Object map[string]interface{}

// ID returns the identifier of the object.
func (o Object) ID() string {
	s, _ := o[KeyID].(string)
	return s
}

// Namer assigns object keys to predicates. It is satisfied by *compiler.Aliases.
type Namer interface {
	For(iri quad.IRI) string
}

type lastSegment struct{}

func (lastSegment) For(iri quad.IRI) string {
	s := string(iri)
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '/' || s[i] == '#' {
			return s[i+1:]
		}
	}
	return s
}

// Materializer converts responses of one root shape into objects.
type Materializer struct {
	reg   *schema.Registry
	shape string
	names Namer

	// OnDangling is called for every nested reference that is missing from
	// the response. The reference is omitted from the object either way.
	OnDangling func(err *Error)
}

// New creates a materializer for the given root shape. An empty shape key
// selects the registry main shape. Keys are assigned with names, or with
// the last IRI segment if names is nil.
func New(reg *schema.Registry, shape string, names Namer) *Materializer {
	if shape == "" {
		shape = reg.MainKey()
	}
	if names == nil {
		names = lastSegment{}
	}
	return &Materializer{
		reg:        reg,
		shape:      shape,
		names:      names,
		OnDangling: logDangling,
	}
}

func logDangling(err *Error) {
	clog.Warningf("%v", err)
}

type resource struct {
	id  quad.Value
	out map[quad.IRI][]quad.Value
}

type index struct {
	res   map[string]*resource
	roots []*resource
}

func key(v quad.Value) string {
	if v == nil {
		return ""
	}
	return v.String()
}

func newIndex(quads []quad.Quad) *index {
	idx := &index{res: make(map[string]*resource)}
	seen := make(map[string]map[string]struct{})
	rootSeen := make(map[string]bool)
	for _, q := range quads {
		pred, ok := q.Predicate.(quad.IRI)
		if !ok || q.Subject == nil || q.Object == nil {
			continue
		}
		sk := key(q.Subject)
		r := idx.res[sk]
		if r == nil {
			r = &resource{id: q.Subject, out: make(map[quad.IRI][]quad.Value)}
			idx.res[sk] = r
		}
		if pred == voc.Root {
			if !rootSeen[sk] {
				rootSeen[sk] = true
				idx.roots = append(idx.roots, r)
			}
			continue
		}
		tk := string(pred) + " " + key(q.Object)
		if seen[sk] == nil {
			seen[sk] = make(map[string]struct{})
		}
		if _, dup := seen[sk][tk]; dup {
			continue
		}
		seen[sk][tk] = struct{}{}
		r.out[pred] = append(r.out[pred], q.Object)
	}
	return idx
}

// Materialize builds one object per root found in quads, in the order the
// roots appear. It fails only if a root contradicts its shape.
func (m *Materializer) Materialize(quads []quad.Quad) ([]Object, error) {
	shape, ok := m.reg.Get(m.shape)
	if !ok {
		return nil, &schema.Error{Shape: m.shape, Err: schema.ErrUnknownShape}
	}
	idx := newIndex(quads)
	out := make([]Object, 0, len(idx.roots))
	for _, r := range idx.roots {
		if err := checkRoot(shape, r); err != nil {
			return nil, err
		}
		b := &builder{m: m, idx: idx, visited: make(map[string]bool)}
		out = append(out, b.build(shape, r))
	}
	clog.Debugf("materialized %d %s objects from %d quads", len(out), shape.Key, len(quads))
	return out, nil
}

// checkRoot rejects roots whose types are known and do not include the
// shape's target class. Compiled queries only return the target class
// triple, so this fires for responses of endpoints that ignore the type
// FILTER or of hand-written CONSTRUCT queries. A root with no type at all
// is accepted: the root selection already required the class.
func checkRoot(s *schema.Shape, r *resource) error {
	types := r.out[voc.Type]
	if s.TargetClass == "" || len(types) == 0 {
		return nil
	}
	for _, t := range types {
		if iri, ok := t.(quad.IRI); ok && iri.Full() == s.TargetClass {
			return nil
		}
	}
	return &Error{Err: ErrInconsistent, Shape: s.Key, ID: ID(r.id)}
}

type builder struct {
	m       *Materializer
	idx     *index
	visited map[string]bool
}

func (b *builder) build(s *schema.Shape, r *resource) Object {
	rk := key(r.id)
	b.visited[rk] = true
	defer delete(b.visited, rk)

	obj := Object{KeyID: ID(r.id)}
	for _, p := range s.Properties {
		vals := r.out[p.Predicate]
		if len(vals) == 0 {
			continue
		}
		name := b.m.names.For(p.Predicate)
		if name == KeyID {
			// the identifier key always holds the resource id
			name = KeyID + "_2"
		}
		switch k := p.Kind.(type) {
		case schema.Nested:
			if v, ok := b.nested(s, r, p, k, vals); ok {
				obj[name] = v
			}
		case schema.LanguageTagged:
			langs, _ := obj[name].(map[string]interface{})
			if langs == nil {
				langs = make(map[string]interface{})
			}
			for _, tag := range k.Tags {
				if v, ok := b.pick(p, byLanguage(vals, tag)); ok {
					langs[tag] = v
				}
			}
			if len(langs) != 0 {
				obj[name] = langs
			}
		default:
			if v, ok := b.pick(p, vals); ok {
				obj[name] = v
			}
		}
	}
	return obj
}

func (b *builder) pick(p *schema.Property, vals []quad.Value) (interface{}, bool) {
	if len(vals) == 0 {
		return nil, false
	}
	vals = sorted(vals)
	if !p.Multiple {
		return Native(vals[0], p.Datatype), true
	}
	out := make([]interface{}, 0, len(vals))
	for _, v := range vals {
		out = append(out, Native(v, p.Datatype))
	}
	return out, true
}

func (b *builder) nested(s *schema.Shape, r *resource, p *schema.Property, k schema.Nested, vals []quad.Value) (interface{}, bool) {
	ns, ok := b.m.reg.Get(k.Shape)
	if !ok {
		return nil, false
	}
	// a single-valued property takes the smallest reference that resolves
	var objs []interface{}
	for _, v := range sorted(vals) {
		vk := key(v)
		nr, ok := b.idx.res[vk]
		if !ok && !b.visited[vk] {
			b.dangling(&Error{Err: ErrDangling, Shape: s.Key, ID: ID(r.id), Predicate: p.Predicate, Ref: ID(v)})
			continue
		}
		if !p.Multiple && len(objs) != 0 {
			continue
		}
		if b.visited[vk] {
			objs = append(objs, Object{KeyID: ID(v)})
			continue
		}
		objs = append(objs, b.build(ns, nr))
	}
	if len(objs) == 0 {
		return nil, false
	}
	if !p.Multiple {
		return objs[0], true
	}
	return objs, true
}

func (b *builder) dangling(err *Error) {
	danglingCount.Inc()
	if b.m.OnDangling != nil {
		b.m.OnDangling(err)
	}
}

func byLanguage(vals []quad.Value, tag string) []quad.Value {
	var out []quad.Value
	for _, v := range vals {
		if ls, ok := v.(quad.LangString); ok && ls.Lang == tag {
			out = append(out, v)
		}
	}
	return out
}

// sorted orders values by their N-Triples form, which makes the choice of a
// single value out of several deterministic.
func sorted(vals []quad.Value) []quad.Value {
	out := append([]quad.Value(nil), vals...)
	sort.SliceStable(out, func(i, j int) bool { return key(out[i]) < key(out[j]) })
	return out
}
