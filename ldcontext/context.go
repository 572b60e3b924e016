// Package ldcontext resolves prefixed names against a JSON-LD context.
//
// A Context is built once from a prefix table and an optional vocabulary
// IRI and is read-only afterwards, so it can be shared between goroutines.
package ldcontext

import (
	"sort"
	"strings"

	"github.com/cayleygraph/quad"
	"github.com/cayleygraph/quad/voc"
	"github.com/piprate/json-gold/ld"
)

// Context maps IRIs to compact names and back.
type Context struct {
	ns    *voc.Namespaces
	vocab string
	doc   map[string]interface{}
}

// New creates a context from prefixes (with or without a trailing colon) and
// an optional vocabulary IRI used for unprefixed names.
func New(prefixes map[string]string, vocab string) *Context {
	c := &Context{
		ns:    &voc.Namespaces{},
		vocab: vocab,
		doc:   make(map[string]interface{}, len(prefixes)+1),
	}
	for pref, full := range prefixes {
		pref = strings.TrimSuffix(pref, ":")
		if pref == "" || full == "" {
			continue
		}
		c.ns.Register(voc.Namespace{Prefix: pref + ":", Full: full})
		c.doc[pref] = full
	}
	if vocab != "" {
		c.doc["@vocab"] = vocab
	}
	return c
}

// Default returns a context with the globally registered namespaces.
func Default() *Context {
	m := make(map[string]string)
	for _, ns := range voc.List() {
		m[ns.Prefix] = ns.Full
	}
	return New(m, "")
}

// Vocab returns the vocabulary IRI, if any.
func (c *Context) Vocab() string { return c.vocab }

// Document returns a copy of the JSON-LD "@context" value.
func (c *Context) Document() map[string]interface{} {
	out := make(map[string]interface{}, len(c.doc))
	for k, v := range c.doc {
		out[k] = v
	}
	return out
}

// Namespaces lists known prefixes sorted by prefix.
func (c *Context) Namespaces() []voc.Namespace {
	list := c.ns.List()
	sort.Slice(list, func(i, j int) bool { return list[i].Prefix < list[j].Prefix })
	return list
}

func (c *Context) options() *ld.JsonLdOptions {
	opts := ld.NewJsonLdOptions("")
	opts.CompactArrays = true
	return opts
}

// CompactName returns the shortest name of iri under this context: a term
// relative to the vocabulary, a prefixed name, or the IRI itself.
func (c *Context) CompactName(iri quad.IRI) string {
	full := string(iri)
	if len(c.doc) == 0 {
		return full
	}
	proc := ld.NewJsonLdProcessor()
	out, err := proc.Compact(map[string]interface{}{full: "_"}, c.doc, c.options())
	if err == nil {
		for k := range out {
			if !strings.HasPrefix(k, "@") {
				return k
			}
		}
	}
	return c.ns.ShortIRI(full)
}

// Expand resolves a prefixed name, a vocabulary term or an absolute IRI to
// a full IRI. Unknown names are returned unchanged.
func (c *Context) Expand(name string) quad.IRI {
	if name == "" || strings.HasPrefix(name, "_:") {
		return quad.IRI(name)
	}
	doc := map[string]interface{}{
		"@context": c.doc,
		name:       "_",
	}
	proc := ld.NewJsonLdProcessor()
	out, err := proc.Expand(doc, c.options())
	if err == nil && len(out) == 1 {
		if m, ok := out[0].(map[string]interface{}); ok {
			for k := range m {
				if !strings.HasPrefix(k, "@") {
					return quad.IRI(k)
				}
			}
		}
	}
	return quad.IRI(c.ns.FullIRI(name))
}
