// Package model is the public entry point: it compiles shape queries, runs
// them against a SPARQL endpoint and materializes the results into objects.
package model

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/cayleygraph/quad"

	"github.com/cayleygraph/rdfobjects/clog"
	"github.com/cayleygraph/rdfobjects/endpoint"
	"github.com/cayleygraph/rdfobjects/internal/lru"
	"github.com/cayleygraph/rdfobjects/ldcontext"
	"github.com/cayleygraph/rdfobjects/materialize"
	"github.com/cayleygraph/rdfobjects/query/compiler"
	"github.com/cayleygraph/rdfobjects/schema"
)

// Object is a materialized resource.
type Object = materialize.Object

// Endpoint runs SPARQL queries. It is implemented by *endpoint.Client.
type Endpoint interface {
	Construct(ctx context.Context, query, accept string) ([]quad.Quad, error)
	Select(ctx context.Context, query string) (*endpoint.Results, error)
}

var _ Endpoint = (*endpoint.Client)(nil)

// Model serves objects of the registry main shape. It is safe for
// concurrent use.
type Model struct {
	reg        *schema.Registry
	ep         Endpoint
	names      *ldcontext.Context
	order      bool
	twoPhase   bool
	maxDepth   int
	onDangling func(*materialize.Error)
	cacheSize  int
	cache      *lru.Cache[*compiler.Query]
}

// DefaultCacheSize is the number of compiled page queries kept by a model.
const DefaultCacheSize = 64

// Option changes model behavior.
type Option func(*Model)

// WithNames sets the context used for prefixes, aliases and identifier expansion.
func WithNames(c *ldcontext.Context) Option {
	return func(m *Model) { m.names = c }
}

// WithoutOrder disables ordering of pages by identifier.
func WithoutOrder() Option {
	return func(m *Model) { m.order = false }
}

// WithTwoPhase makes List select root identifiers with a separate SELECT
// query before fetching their triples.
func WithTwoPhase() Option {
	return func(m *Model) { m.twoPhase = true }
}

// WithMaxDepth sets how many levels of nested objects are fetched.
func WithMaxDepth(n int) Option {
	return func(m *Model) { m.maxDepth = n }
}

// WithDanglingHandler sets a function called for nested references that
// are missing from a response.
func WithDanglingHandler(fn func(*materialize.Error)) Option {
	return func(m *Model) { m.onDangling = fn }
}

// WithQueryCache sets how many compiled page queries are kept. Zero
// disables the cache.
func WithQueryCache(size int) Option {
	return func(m *Model) { m.cacheSize = size }
}

// New creates a model over the registry and endpoint.
func New(reg *schema.Registry, ep Endpoint, opts ...Option) *Model {
	m := &Model{
		reg:       reg,
		ep:        ep,
		order:     true,
		maxDepth:  compiler.DefaultMaxDepth,
		cacheSize: DefaultCacheSize,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.cache = lru.New[*compiler.Query](m.cacheSize)
	if m.names == nil {
		m.names = ldcontext.Default()
	}
	return m
}

// Registry returns the shapes served by the model.
func (m *Model) Registry() *schema.Registry { return m.reg }

// Context returns the naming context of the model.
func (m *Model) Context() *ldcontext.Context { return m.names }

func (m *Model) options() []compiler.Option {
	opts := []compiler.Option{
		compiler.WithNames(m.names),
		compiler.WithMaxDepth(m.maxDepth),
	}
	if !m.order {
		opts = append(opts, compiler.WithoutOrder())
	}
	return opts
}

// Query compiles the request without running it. Page queries are cached;
// each call returns its own copy of the aliases.
func (m *Model) Query(req compiler.Request) (*compiler.Query, error) {
	if req.IsLookup() {
		return compiler.Compile(m.reg, req, m.options()...)
	}
	key := req.Shape + "|" + strconv.Itoa(req.Limit) + "|" + strconv.Itoa(req.Offset)
	if q, ok := m.cache.Get(key); ok {
		return q.Copy(), nil
	}
	q, err := compiler.Compile(m.reg, req, m.options()...)
	if err != nil {
		return nil, err
	}
	m.cache.Put(key, q.Copy())
	return q, nil
}

// Lookup builds a request for the identifiers, expanding prefixed names.
func (m *Model) Lookup(ids ...string) compiler.Request {
	iris := make([]quad.IRI, 0, len(ids))
	for _, id := range ids {
		iris = append(iris, m.expand(id))
	}
	return compiler.Lookup(iris...)
}

// List returns a page of objects.
func (m *Model) List(ctx context.Context, limit, offset int) ([]Object, error) {
	req := compiler.Page(limit, offset)
	if m.twoPhase {
		ids, err := m.selectIDs(ctx, req)
		if err != nil {
			return nil, err
		}
		return m.lookup(ctx, ids)
	}
	objs, err := m.fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	if m.order {
		sort.SliceStable(objs, func(i, j int) bool {
			return lessID(objs[i].ID(), objs[j].ID())
		})
	}
	return objs, nil
}

// Get returns a single object. Prefixed names are expanded with the model
// context. A *NotFoundError is returned if id selects no root.
func (m *Model) Get(ctx context.Context, id string) (Object, error) {
	iri := m.expand(id)
	objs, err := m.lookup(ctx, []quad.IRI{iri})
	if err != nil {
		return nil, err
	}
	if len(objs) == 0 {
		return nil, &NotFoundError{ID: id, Shape: m.reg.MainKey()}
	}
	return objs[0], nil
}

// GetMany returns objects for the identifiers in the order they were given.
// Identifiers without a root are skipped and duplicates are returned once.
func (m *Model) GetMany(ctx context.Context, ids []string) ([]Object, error) {
	iris := make([]quad.IRI, 0, len(ids))
	for _, id := range ids {
		iris = append(iris, m.expand(id))
	}
	return m.lookup(ctx, iris)
}

func (m *Model) expand(id string) quad.IRI {
	return m.names.Expand(strings.TrimSpace(id))
}

// lookup fetches the given roots and returns them in the order of ids.
func (m *Model) lookup(ctx context.Context, ids []quad.IRI) ([]Object, error) {
	seen := make(map[quad.IRI]bool, len(ids))
	uniq := make([]quad.IRI, 0, len(ids))
	for _, id := range ids {
		// blank nodes are response-scoped and cannot be looked up
		if id == "" || seen[id] || strings.HasPrefix(string(id), "_:") {
			continue
		}
		seen[id] = true
		uniq = append(uniq, id)
	}
	if len(uniq) == 0 {
		return []Object{}, nil
	}
	objs, err := m.fetch(ctx, compiler.Lookup(uniq...))
	if err != nil {
		return nil, err
	}
	byID := make(map[string]Object, len(objs))
	for _, o := range objs {
		byID[o.ID()] = o
	}
	out := make([]Object, 0, len(objs))
	for _, id := range uniq {
		if o, ok := byID[string(id)]; ok {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *Model) selectIDs(ctx context.Context, req compiler.Request) ([]quad.IRI, error) {
	q, err := compiler.CompileSelect(m.reg, req, m.options()...)
	if err != nil {
		return nil, err
	}
	res, err := m.ep.Select(ctx, q.Text)
	if err != nil {
		return nil, err
	}
	col, err := res.Column(string(compiler.VarRoot))
	if err != nil {
		return nil, &endpoint.Error{Err: err}
	}
	ids := make([]quad.IRI, 0, len(col))
	for _, v := range col {
		iri, ok := v.(quad.IRI)
		if !ok {
			clog.Warningf("skipping root %v: only IRIs can be looked up", v)
			continue
		}
		ids = append(ids, iri)
	}
	return ids, nil
}

func (m *Model) fetch(ctx context.Context, req compiler.Request) ([]Object, error) {
	q, err := m.Query(req)
	if err != nil {
		return nil, err
	}
	quads, err := m.ep.Construct(ctx, q.Text, q.Accept)
	if err != nil {
		return nil, err
	}
	mat := materialize.New(m.reg, q.Shape, q.Aliases)
	if m.onDangling != nil {
		mat.OnDangling = m.onDangling
	}
	objs, err := mat.Materialize(quads)
	if err != nil {
		return nil, err
	}
	if clog.V(1) {
		clog.Infof("materialized %d objects of %s from %d quads", len(objs), q.Shape, len(quads))
	}
	return objs, nil
}

// lessID orders blank nodes before IRIs, like ORDER BY does.
func lessID(a, b string) bool {
	ba, bb := strings.HasPrefix(a, "_:"), strings.HasPrefix(b, "_:")
	if ba != bb {
		return ba
	}
	return a < b
}
