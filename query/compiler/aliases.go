package compiler

import (
	"strconv"
	"strings"

	"github.com/cayleygraph/quad"
)

// Reserved names are used by the compiler for its own variables, or as the
// identifier key of materialized objects.
var reserved = map[string]bool{
	"s": true, "p": true, "o": true, "this": true, "root": true, "id": true,
}

// Namer compacts IRIs. It is satisfied by *ldcontext.Context.
type Namer interface {
	CompactName(iri quad.IRI) string
}

// Aliases maps predicates to short names that serve both as query variables
// and as keys of materialized objects. A new set is created for every
// compilation and returned with the query.
type Aliases struct {
	namer   Namer
	byIRI   map[quad.IRI]string
	byAlias map[string]quad.IRI
	order   []quad.IRI
}

// NewAliases creates an empty alias set. A nil namer derives aliases from
// the last path or fragment segment of the IRI alone.
func NewAliases(n Namer) *Aliases {
	return &Aliases{
		namer:   n,
		byIRI:   make(map[quad.IRI]string),
		byAlias: make(map[string]quad.IRI),
	}
}

// For returns the alias of a predicate, assigning a new one on first use.
func (a *Aliases) For(iri quad.IRI) string {
	if name, ok := a.byIRI[iri]; ok {
		return name
	}
	base := a.base(iri)
	name := base
	for i := 2; reserved[name] || a.taken(name); i++ {
		name = base + "_" + strconv.Itoa(i)
	}
	a.byIRI[iri] = name
	a.byAlias[name] = iri
	a.order = append(a.order, iri)
	return name
}

func (a *Aliases) taken(name string) bool {
	_, ok := a.byAlias[name]
	return ok
}

// Predicate returns the IRI an alias was assigned to.
func (a *Aliases) Predicate(alias string) (quad.IRI, bool) {
	iri, ok := a.byAlias[alias]
	return iri, ok
}

// Clone returns an independent copy of the alias set.
func (a *Aliases) Clone() *Aliases {
	c := NewAliases(a.namer)
	for _, iri := range a.order {
		name := a.byIRI[iri]
		c.byIRI[iri] = name
		c.byAlias[name] = iri
		c.order = append(c.order, iri)
	}
	return c
}

// Len returns the number of assigned aliases.
func (a *Aliases) Len() int { return len(a.order) }

// Map returns a copy of the alias table keyed by alias.
func (a *Aliases) Map() map[string]quad.IRI {
	out := make(map[string]quad.IRI, len(a.byAlias))
	for k, v := range a.byAlias {
		out[k] = v
	}
	return out
}

func (a *Aliases) base(iri quad.IRI) string {
	name := string(iri)
	if a.namer != nil {
		name = a.namer.CompactName(iri)
	}
	if i := strings.Index(name, ":"); i >= 0 && !strings.Contains(name, "/") {
		// prefixed name
		name = name[i+1:]
	}
	name = lastSegment(name)
	return sanitize(name)
}

func lastSegment(s string) string {
	s = strings.TrimRight(s, "/#")
	if i := strings.LastIndexAny(s, "/#"); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.LastIndex(s, ":"); i >= 0 {
		s = s[i+1:]
	}
	return s
}

func sanitize(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "v"
	}
	return b.String()
}
