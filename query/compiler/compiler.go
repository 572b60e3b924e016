// Package compiler turns a shape registry and a page request into a single
// SPARQL query that returns every triple needed to materialize the page.
//
// The generated CONSTRUCT query has three parts joined with UNION: an empty
// branch that emits a marker triple for every root, a branch with the
// declared properties of the roots, and one branch per nested property with
// the declared properties of the related entities. Roots are selected by a
// DISTINCT sub-select, so pagination counts entities and not triples.
package compiler

import (
	"github.com/cayleygraph/quad"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/cayleygraph/rdfobjects/clog"
	"github.com/cayleygraph/rdfobjects/ldcontext"
	"github.com/cayleygraph/rdfobjects/query/sparql"
	"github.com/cayleygraph/rdfobjects/schema"
	"github.com/cayleygraph/rdfobjects/voc"
)

const (
	// MimeNTriples is requested for CONSTRUCT queries.
	MimeNTriples = "application/n-triples"
	// MimeResultsJSON is requested for SELECT queries.
	MimeResultsJSON = "application/sparql-results+json"

	// DefaultMaxDepth is the number of nesting levels fetched by default.
	DefaultMaxDepth = 1
)

// Variables with a fixed meaning in generated queries.
const (
	VarRoot      = sparql.Var("this")
	VarSubject   = sparql.Var("s")
	VarPredicate = sparql.Var("p")
	VarObject    = sparql.Var("o")
)

var compiled = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "rdfobjects_compile_total",
	Help: "Number of compiled queries.",
}, []string{"mode"})

// Request selects the roots of a query.
type Request struct {
	// Shape is the key of the root shape. The registry main shape is used if empty.
	Shape  string
	Limit  int
	Offset int

	ids    []quad.IRI
	lookup bool
}

// Page requests roots by position.
func Page(limit, offset int) Request {
	return Request{Limit: limit, Offset: offset}
}

// Lookup requests roots by identifier. An empty list selects nothing.
func Lookup(ids ...quad.IRI) Request {
	return Request{ids: append([]quad.IRI{}, ids...), lookup: true}
}

// IsLookup reports whether the request selects roots by identifier.
func (r Request) IsLookup() bool { return r.lookup }

// IDs returns identifiers of a lookup request.
func (r Request) IDs() []quad.IRI { return r.ids }

// Query is a compiled query ready to be sent to an endpoint.
type Query struct {
	Text string
	// Accept is the response media type the query expects.
	Accept string
	// Shape is the key of the root shape.
	Shape string
	// Aliases are the names assigned during this compilation.
	Aliases *Aliases
}

// Copy returns a copy of the query with its own alias set.
func (q *Query) Copy() *Query {
	c := *q
	if q.Aliases != nil {
		c.Aliases = q.Aliases.Clone()
	}
	return &c
}

type options struct {
	names    *ldcontext.Context
	order    bool
	maxDepth int
}

// Option changes compiler behavior.
type Option func(*options)

// WithNames sets the context used for prefixes and aliases.
func WithNames(c *ldcontext.Context) Option {
	return func(o *options) { o.names = c }
}

// WithoutOrder drops ORDER BY from the root selection.
func WithoutOrder() Option {
	return func(o *options) { o.order = false }
}

// WithMaxDepth sets how many levels of nested entities are fetched.
func WithMaxDepth(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxDepth = n
		}
	}
}

func newOptions(opts []Option) *options {
	o := &options{order: true, maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(o)
	}
	if o.names == nil {
		o.names = ldcontext.Default()
	}
	return o
}

type compiler struct {
	reg     *schema.Registry
	opts    *options
	aliases *Aliases
}

func prepare(reg *schema.Registry, req Request, opts []Option) (*compiler, *schema.Shape, error) {
	if reg == nil {
		return nil, nil, &Error{Shape: req.Shape, Err: ErrNoRegistry}
	}
	key := req.Shape
	if key == "" {
		key = reg.MainKey()
	}
	shape, ok := reg.Get(key)
	if !ok {
		return nil, nil, &Error{Shape: key, Err: schema.ErrUnknownShape}
	}
	if len(shape.Properties) == 0 {
		return nil, nil, &Error{Shape: key, Err: schema.ErrNoProperties}
	}
	for _, id := range req.ids {
		if !sparql.ValidIRI(string(id.Full())) {
			return nil, nil, &Error{Shape: key, Err: &IDError{ID: id}}
		}
	}
	if !req.lookup {
		if req.Limit < 0 {
			return nil, nil, &Error{Shape: key, Err: ErrNegativeLimit}
		}
		if req.Offset < 0 {
			return nil, nil, &Error{Shape: key, Err: ErrNegativeOffset}
		}
	}
	o := newOptions(opts)
	c := &compiler{reg: reg, opts: o, aliases: NewAliases(o.names)}
	if err := c.assign(shape, 0); err != nil {
		return nil, nil, err
	}
	return c, shape, nil
}

// assign gives aliases to the main shape first and then to nested shapes
// depth-first, so alias suffixes do not depend on map iteration.
func (c *compiler) assign(s *schema.Shape, depth int) error {
	for _, p := range s.Properties {
		c.aliases.For(p.Predicate)
	}
	if depth >= c.opts.maxDepth {
		return nil
	}
	for _, p := range s.Properties {
		n, ok := p.Kind.(schema.Nested)
		if !ok {
			continue
		}
		ns, ok := c.reg.Get(n.Shape)
		if !ok {
			return &Error{Shape: s.Key, Err: schema.ErrUnknownShape}
		}
		if err := c.assign(ns, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// Compile builds a CONSTRUCT query for a page or lookup request.
func Compile(reg *schema.Registry, req Request, opts ...Option) (*Query, error) {
	c, shape, err := prepare(reg, req, opts)
	if err != nil {
		return nil, err
	}
	branches := sparql.Union{
		// emits the marker even for roots without any matching property
		sparql.Group{},
		c.rootBranch(shape),
	}
	nested, err := c.nestedBranches(shape, VarRoot, "", 1)
	if err != nil {
		return nil, err
	}
	branches = append(branches, nested...)

	q := &sparql.Query{
		Prefixes: c.opts.names.Namespaces(),
		Construct: &sparql.Construct{
			Template: []sparql.Triple{
				{S: VarRoot, P: sparql.IRI(voc.Root), O: sparql.IRI(voc.Root)},
				{S: VarSubject, P: VarPredicate, O: VarObject},
			},
			Where: sparql.Group{
				sparql.SubSelect{Select: c.selectRoots(shape, req)},
				branches,
			},
		},
	}
	return c.finish(q, shape, MimeNTriples, req), nil
}

// CompileSelect builds a SELECT query returning only root identifiers.
// Together with a Lookup over the results it splits Compile in two round trips.
func CompileSelect(reg *schema.Registry, req Request, opts ...Option) (*Query, error) {
	c, shape, err := prepare(reg, req, opts)
	if err != nil {
		return nil, err
	}
	q := &sparql.Query{
		Prefixes: c.opts.names.Namespaces(),
		Select:   c.selectRoots(shape, req),
	}
	return c.finish(q, shape, MimeResultsJSON, req), nil
}

func (c *compiler) finish(q *sparql.Query, shape *schema.Shape, accept string, req Request) *Query {
	mode := "page"
	if req.lookup {
		mode = "lookup"
	}
	if q.Select != nil {
		mode += "_select"
	}
	compiled.WithLabelValues(mode).Inc()
	text := q.String()
	clog.Debugf("compiled %s query for %s:\n%s", mode, shape.Key, text)
	return &Query{
		Text:    text,
		Accept:  accept,
		Shape:   shape.Key,
		Aliases: c.aliases,
	}
}

// selectRoots builds the DISTINCT sub-select with push-down filters.
func (c *compiler) selectRoots(s *schema.Shape, req Request) *sparql.Select {
	var where sparql.Group
	if req.lookup {
		vals := make([]quad.Value, 0, len(req.ids))
		for _, id := range req.ids {
			vals = append(vals, id)
		}
		where = append(where, sparql.Values{Var: VarRoot, Values: vals})
	}
	if s.TargetClass != "" {
		where = append(where, sparql.Triple{S: VarRoot, P: sparql.IRI(voc.Type), O: sparql.IRI(s.TargetClass)})
	}
	bound := make(map[sparql.Var]bool)
	for _, p := range s.Properties {
		v := sparql.Var(c.aliases.For(p.Predicate))
		switch k := p.Kind.(type) {
		case schema.Enumerated:
			if !bound[v] {
				where = append(where, sparql.Triple{S: VarRoot, P: sparql.IRI(p.Predicate), O: v})
				bound[v] = true
			}
			where = append(where, sparql.Filter{Expr: sparql.In{Expr: v, List: valueList(k.Values)}})
		default:
			if p.Required && !bound[v] {
				where = append(where, sparql.Triple{S: VarRoot, P: sparql.IRI(p.Predicate), O: v})
				bound[v] = true
			}
		}
	}
	if len(where) == 0 || (req.lookup && len(where) == 1) {
		where = append(where, sparql.Triple{S: VarRoot, P: VarPredicate, O: VarObject})
	}
	sel := &sparql.Select{
		Distinct: true,
		Vars:     []sparql.Var{VarRoot},
		Where:    where,
		Limit:    sparql.NoLimit,
	}
	if c.opts.order {
		sel.OrderBy = []sparql.Var{VarRoot}
	}
	if !req.lookup {
		sel.Limit = req.Limit
		sel.Offset = req.Offset
	}
	return sel
}

func (c *compiler) rootBranch(s *schema.Shape) sparql.Group {
	g := sparql.Group{
		sparql.Triple{S: VarRoot, P: VarPredicate, O: VarObject},
	}
	g = append(g, constraints(s)...)
	return append(g, sparql.Bind{Expr: VarRoot, As: VarSubject})
}

// nestedBranches returns one branch per nested property of s, reached from
// the from variable, followed by branches of deeper levels up to maxDepth.
func (c *compiler) nestedBranches(s *schema.Shape, from sparql.Var, chain string, depth int) ([]sparql.Group, error) {
	if depth > c.opts.maxDepth {
		return nil, nil
	}
	return c.walk(s, sparql.Group{}, from, chain, depth)
}

func (c *compiler) walk(s *schema.Shape, path sparql.Group, from sparql.Var, chain string, depth int) ([]sparql.Group, error) {
	var out []sparql.Group
	for _, p := range s.Properties {
		n, ok := p.Kind.(schema.Nested)
		if !ok {
			continue
		}
		ns, ok := c.reg.Get(n.Shape)
		if !ok {
			return nil, &Error{Shape: s.Key, Err: schema.ErrUnknownShape}
		}
		name := c.aliases.For(p.Predicate)
		if chain != "" {
			name = chain + "_" + name
		}
		node := sparql.Var(name)
		hop := append(append(sparql.Group{}, path...), sparql.Triple{S: from, P: sparql.IRI(p.Predicate), O: node})

		g := append(sparql.Group{}, hop...)
		g = append(g, sparql.Triple{S: node, P: VarPredicate, O: VarObject})
		g = append(g, constraints(ns)...)
		g = append(g, sparql.Bind{Expr: node, As: VarSubject})
		out = append(out, g)

		if depth < c.opts.maxDepth {
			deeper, err := c.walk(ns, hop, node, name, depth+1)
			if err != nil {
				return nil, err
			}
			out = append(out, deeper...)
		}
	}
	return out, nil
}

// constraints restricts ?p to the predicates of s and ?o to the values
// each predicate admits. Every per-predicate filter starts with ?p != pred,
// so it never rejects triples of other predicates.
func constraints(s *schema.Shape) sparql.Group {
	preds := s.Predicates()
	list := make([]sparql.Expr, 0, len(preds)+1)
	if s.TargetClass != "" {
		list = append(list, sparql.IRI(voc.Type))
	}
	for _, p := range preds {
		list = append(list, sparql.IRI(p))
	}
	g := sparql.Group{sparql.Filter{Expr: sparql.In{Expr: VarPredicate, List: list}}}
	if s.TargetClass != "" {
		g = append(g, sparql.Filter{Expr: sparql.Any(
			notPred(voc.Type),
			sparql.Binary{Op: sparql.Equal, L: VarObject, R: sparql.IRI(s.TargetClass)},
		)})
	}

	// language tags of one predicate may be split between several properties
	langs := make(map[quad.IRI][]sparql.Expr)
	var langOrder []quad.IRI
	for _, p := range s.Properties {
		switch k := p.Kind.(type) {
		case schema.Enumerated:
			g = append(g, sparql.Filter{Expr: sparql.Any(
				notPred(p.Predicate),
				sparql.In{Expr: VarObject, List: valueList(k.Values)},
			)})
		case schema.LanguageTagged:
			if _, ok := langs[p.Predicate]; !ok {
				langOrder = append(langOrder, p.Predicate)
			}
			for _, tag := range k.Tags {
				langs[p.Predicate] = append(langs[p.Predicate], sparql.Value{Value: quad.String(tag)})
			}
			continue
		}
		if p.Datatype != "" && !p.IsNested() {
			g = append(g, sparql.Filter{Expr: sparql.Any(
				notPred(p.Predicate),
				sparql.Binary{
					Op: sparql.Equal,
					L:  sparql.Call{Name: "DATATYPE", Args: []sparql.Expr{VarObject}},
					R:  sparql.IRI(p.Datatype),
				},
			)})
		}
	}
	for _, pred := range langOrder {
		g = append(g, sparql.Filter{Expr: sparql.Any(
			notPred(pred),
			sparql.In{Expr: sparql.Call{Name: "LANG", Args: []sparql.Expr{VarObject}}, List: langs[pred]},
		)})
	}
	return g
}

func notPred(p quad.IRI) sparql.Expr {
	return sparql.Binary{Op: sparql.NotEq, L: VarPredicate, R: sparql.IRI(p)}
}

func valueList(vals []quad.Value) []sparql.Expr {
	out := make([]sparql.Expr, 0, len(vals))
	for _, v := range vals {
		out = append(out, sparql.Value{Value: v})
	}
	return out
}
