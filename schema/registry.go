package schema

import (
	"sort"

	"github.com/cayleygraph/quad"
)

// Registry is a validated, immutable set of shapes with one main shape.
type Registry struct {
	main   string
	shapes map[string]*Shape
	order  []string
}

// NewRegistry validates shapes and builds a registry rooted at main.
// Shapes are copied, so callers may reuse their arguments.
func NewRegistry(main string, shapes ...*Shape) (*Registry, error) {
	r := &Registry{
		main:   main,
		shapes: make(map[string]*Shape, len(shapes)),
	}
	for _, s := range shapes {
		if s == nil {
			continue
		}
		if _, ok := r.shapes[s.Key]; ok {
			return nil, &Error{Shape: s.Key, Err: ErrConflict, Detail: "shape key used twice"}
		}
		c := s.clone()
		c.TargetClass = c.TargetClass.Full()
		r.shapes[c.Key] = c
		r.order = append(r.order, c.Key)
	}
	if _, ok := r.shapes[main]; !ok {
		return nil, &Error{Shape: main, Err: ErrUnknownShape, Detail: "main shape is not defined"}
	}
	for _, key := range r.order {
		if err := r.validate(r.shapes[key]); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) validate(s *Shape) error {
	if len(s.Properties) == 0 {
		return &Error{Shape: s.Key, Err: ErrNoProperties}
	}
	seen := make(map[quad.IRI]struct{}, len(s.Properties))
	for _, p := range s.Properties {
		if p.Predicate == "" {
			return &Error{Shape: s.Key, Err: ErrNoPredicate}
		}
		p.Predicate = p.Predicate.Full()
		if p.Datatype != "" {
			p.Datatype = p.Datatype.Full()
		}
		if len(p.LanguageTags) == 0 {
			if _, dup := seen[p.Predicate]; dup {
				return &Error{Shape: s.Key, Property: p.Predicate, Err: ErrDuplicatePred}
			}
			seen[p.Predicate] = struct{}{}
		}
		kind, err := r.classify(s, p)
		if err != nil {
			return err
		}
		p.Kind = kind
	}
	return nil
}

func (r *Registry) classify(s *Shape, p *Property) (Kind, error) {
	conflict := func(detail string) error {
		return &Error{Shape: s.Key, Property: p.Predicate, Err: ErrConflict, Detail: detail}
	}
	switch {
	case p.Nested != "":
		if len(p.AllowedValues) != 0 || len(p.LanguageTags) != 0 || p.Datatype != "" {
			return nil, conflict("nested property cannot constrain values")
		}
		if _, ok := r.shapes[p.Nested]; !ok {
			return nil, &Error{Shape: s.Key, Property: p.Predicate, Err: ErrUnknownShape, Detail: p.Nested}
		}
		return Nested{Shape: p.Nested}, nil
	case len(p.AllowedValues) != 0 && len(p.LanguageTags) != 0:
		return nil, conflict("allowed values and language tags are mutually exclusive")
	case len(p.AllowedValues) != 0:
		return Enumerated{Values: p.AllowedValues}, nil
	case len(p.LanguageTags) != 0:
		return LanguageTagged{Tags: p.LanguageTags}, nil
	}
	return Scalar{}, nil
}

// Main returns the shape used as the query root.
func (r *Registry) Main() *Shape { return r.shapes[r.main] }

// MainKey returns the key of the main shape.
func (r *Registry) MainKey() string { return r.main }

// Get returns a shape by key. Returned shapes must not be modified.
func (r *Registry) Get(key string) (*Shape, bool) {
	s, ok := r.shapes[key]
	return s, ok
}

// Keys lists shape keys in declaration order.
func (r *Registry) Keys() []string {
	return append([]string(nil), r.order...)
}

// WithMain returns a registry sharing the same shapes but rooted at another shape.
func (r *Registry) WithMain(key string) (*Registry, error) {
	if _, ok := r.shapes[key]; !ok {
		return nil, &Error{Shape: key, Err: ErrUnknownShape}
	}
	return &Registry{main: key, shapes: r.shapes, order: r.order}, nil
}

// Predicates returns the sorted set of predicates declared by a shape.
func (s *Shape) Predicates() []quad.IRI {
	seen := make(map[quad.IRI]struct{}, len(s.Properties))
	out := make([]quad.IRI, 0, len(s.Properties))
	for _, p := range s.Properties {
		if _, ok := seen[p.Predicate]; ok {
			continue
		}
		seen[p.Predicate] = struct{}{}
		out = append(out, p.Predicate)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
