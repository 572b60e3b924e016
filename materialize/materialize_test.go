package materialize

import (
	"errors"
	"testing"
	"time"

	"github.com/cayleygraph/quad"
	"github.com/stretchr/testify/require"

	"github.com/cayleygraph/rdfobjects/query/compiler"
	"github.com/cayleygraph/rdfobjects/schema"
	"github.com/cayleygraph/rdfobjects/voc"
)

const ex = "http://example.com/"

func iri(s string) quad.IRI { return quad.IRI(ex + s) }

func marker(id quad.Value) quad.Quad {
	return quad.Quad{Subject: id, Predicate: voc.Root, Object: voc.Root}
}

func q(s quad.Value, p string, o quad.Value) quad.Quad {
	return quad.Quad{Subject: s, Predicate: iri(p), Object: o}
}

func registry(t testing.TB) *schema.Registry {
	reg, err := schema.NewRegistry("Person",
		&schema.Shape{
			Key:         "Person",
			TargetClass: iri("Person"),
			Properties: []*schema.Property{
				{Predicate: iri("name"), Required: true, Datatype: "xsd:string"},
				{Predicate: iri("label"), LanguageTags: []string{"en", "fr"}},
				{Predicate: iri("nick"), LanguageTags: []string{"en"}, Multiple: true},
				{Predicate: iri("born"), Datatype: "xsd:date"},
				{Predicate: iri("age")},
				{Predicate: iri("tag"), Multiple: true},
				{Predicate: iri("status"), AllowedValues: []quad.Value{iri("Active"), iri("Retired")}},
				{Predicate: iri("knows"), Nested: "Person", Multiple: true},
				{Predicate: iri("address"), Nested: "Address"},
			},
		},
		&schema.Shape{
			Key:         "Address",
			TargetClass: iri("Address"),
			Properties: []*schema.Property{
				{Predicate: iri("city")},
			},
		},
	)
	require.NoError(t, err)
	return reg
}

func TestMaterializeAda(t *testing.T) {
	reg, err := schema.NewRegistry("Person", &schema.Shape{
		Key:         "Person",
		TargetClass: iri("Person"),
		Properties: []*schema.Property{
			{Predicate: iri("name"), Required: true, Datatype: "xsd:string"},
		},
	})
	require.NoError(t, err)

	id := quad.IRI("ex:1")
	objs, err := New(reg, "", nil).Materialize([]quad.Quad{
		q(id, "name", quad.String("Ada")),
		marker(id),
	})
	require.NoError(t, err)
	require.Equal(t, []Object{{"id": "ex:1", "name": "Ada"}}, objs)
	require.Equal(t, "ex:1", objs[0].ID())
}

func TestMaterializeValues(t *testing.T) {
	a := iri("a")
	quads := []quad.Quad{
		marker(a),
		{Subject: a, Predicate: voc.Type, Object: iri("Person")},
		q(a, "name", quad.String("Zed")),
		q(a, "name", quad.String("Ada")),
		q(a, "label", quad.LangString{Value: "Hello", Lang: "en"}),
		q(a, "label", quad.LangString{Value: "Bonjour", Lang: "fr"}),
		q(a, "label", quad.LangString{Value: "Hallo", Lang: "de"}),
		q(a, "nick", quad.LangString{Value: "b", Lang: "en"}),
		q(a, "nick", quad.LangString{Value: "a", Lang: "en"}),
		q(a, "nick", quad.LangString{Value: "x", Lang: "en-GB"}),
		q(a, "born", quad.TypedString{Value: "1815-12-10", Type: voc.Date}),
		q(a, "age", quad.TypedString{Value: "36", Type: voc.Integer}),
		q(a, "tag", quad.String("two")),
		q(a, "tag", quad.String("one")),
		q(a, "tag", quad.String("one")),
		q(a, "status", iri("Active")),
		q(a, "unrelated", quad.String("ignored")),
	}
	objs, err := New(registry(t), "", nil).Materialize(quads)
	require.NoError(t, err)
	require.Len(t, objs, 1)
	require.Equal(t, Object{
		"id":     ex + "a",
		"name":   "Ada",
		"label":  map[string]interface{}{"en": "Hello", "fr": "Bonjour"},
		"nick":   map[string]interface{}{"en": []interface{}{"a", "b"}},
		"born":   time.Date(1815, 12, 10, 0, 0, 0, 0, time.UTC),
		"age":    int64(36),
		"tag":    []interface{}{"one", "two"},
		"status": ex + "Active",
	}, objs[0])
}

func TestMaterializeNested(t *testing.T) {
	a, b, c := iri("a"), iri("b"), iri("c")
	home := quad.BNode("home")
	quads := []quad.Quad{
		marker(a),
		marker(b),
		q(a, "name", quad.String("A")),
		q(a, "knows", b),
		q(a, "knows", c),
		q(a, "address", home),
		q(home, "city", quad.String("London")),
		q(b, "name", quad.String("B")),
		q(b, "knows", a),
	}
	var dangling []*Error
	m := New(registry(t), "Person", nil)
	m.OnDangling = func(err *Error) { dangling = append(dangling, err) }

	objs, err := m.Materialize(quads)
	require.NoError(t, err)
	require.Equal(t, []Object{
		{
			"id":   ex + "a",
			"name": "A",
			"knows": []interface{}{
				Object{
					"id":    ex + "b",
					"name":  "B",
					"knows": []interface{}{Object{"id": ex + "a"}},
				},
			},
			"address": Object{"id": "_:home", "city": "London"},
		},
		{
			"id":   ex + "b",
			"name": "B",
			"knows": []interface{}{
				Object{"id": ex + "a", "name": "A",
					"knows":   []interface{}{Object{"id": ex + "b"}},
					"address": Object{"id": "_:home", "city": "London"},
				},
			},
		},
	}, objs)

	require.Len(t, dangling, 2)
	for _, d := range dangling {
		require.True(t, errors.Is(d, ErrDangling))
		require.Equal(t, ex+"c", d.Ref)
	}
}

func TestMaterializeSingleNestedSkipsDangling(t *testing.T) {
	a := iri("a")
	gone, home := quad.BNode("a-gone"), quad.BNode("b-home")
	var dangling []*Error
	m := New(registry(t), "", nil)
	m.OnDangling = func(err *Error) { dangling = append(dangling, err) }

	objs, err := m.Materialize([]quad.Quad{
		marker(a),
		q(a, "address", gone),
		q(a, "address", home),
		q(home, "city", quad.String("London")),
	})
	require.NoError(t, err)
	require.Equal(t, []Object{{
		"id":      ex + "a",
		"address": Object{"id": "_:b-home", "city": "London"},
	}}, objs)
	require.Len(t, dangling, 1)
	require.Equal(t, "_:a-gone", dangling[0].Ref)
}

func TestMaterializeInconsistentRoot(t *testing.T) {
	a := iri("a")
	_, err := New(registry(t), "", nil).Materialize([]quad.Quad{
		marker(a),
		{Subject: a, Predicate: voc.Type, Object: iri("Robot")},
		q(a, "name", quad.String("A")),
	})
	require.Error(t, err)
	require.True(t, IsConsistency(err))
	var e *Error
	require.True(t, errors.As(err, &e))
	require.Equal(t, ex+"a", e.ID)
	require.Equal(t, "Person", e.Shape)
}

// Endpoints that ignore the type FILTER return every class of a root.
func TestMaterializeUnfilteredTypes(t *testing.T) {
	a, b := iri("a"), iri("b")
	var cases = []struct {
		name  string
		types []quad.Value
		err   bool
	}{
		{"target among others", []quad.Value{iri("Agent"), iri("Person")}, false},
		{"only other classes", []quad.Value{iri("Agent"), iri("Robot")}, true},
		{"no type", nil, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			quads := []quad.Quad{marker(a), q(a, "knows", b), marker(b)}
			for _, tp := range c.types {
				quads = append(quads, quad.Quad{Subject: a, Predicate: voc.Type, Object: tp})
			}
			_, err := New(registry(t), "", nil).Materialize(quads)
			if c.err {
				require.True(t, IsConsistency(err))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestMaterializeOmitsEmpty(t *testing.T) {
	a := iri("a")
	objs, err := New(registry(t), "", nil).Materialize([]quad.Quad{
		marker(a),
		q(a, "label", quad.LangString{Value: "Hallo", Lang: "de"}),
	})
	require.NoError(t, err)
	require.Equal(t, []Object{{"id": ex + "a"}}, objs)

	objs, err = New(registry(t), "", nil).Materialize(nil)
	require.NoError(t, err)
	require.NotNil(t, objs)
	require.Empty(t, objs)
}

func TestMaterializeKeepsID(t *testing.T) {
	reg, err := schema.NewRegistry("Item", &schema.Shape{
		Key:         "Item",
		TargetClass: iri("Item"),
		Properties: []*schema.Property{
			{Predicate: iri("id")},
			{Predicate: iri("name")},
		},
	})
	require.NoError(t, err)

	a := iri("1")
	quads := []quad.Quad{
		marker(a),
		q(a, "id", quad.String("X-42")),
		q(a, "name", quad.String("Widget")),
	}
	for _, c := range []struct {
		name  string
		names Namer
	}{
		{"default", nil},
		{"aliases", compiler.NewAliases(nil)},
	} {
		t.Run(c.name, func(t *testing.T) {
			objs, err := New(reg, "", c.names).Materialize(quads)
			require.NoError(t, err)
			require.Equal(t, []Object{{"id": ex + "1", "id_2": "X-42", "name": "Widget"}}, objs)
			require.Equal(t, ex+"1", objs[0].ID())
		})
	}
}

func TestMaterializeUnknownShape(t *testing.T) {
	_, err := New(registry(t), "Nope", nil).Materialize(nil)
	require.True(t, schema.IsMalformed(err))
}

type upperNames struct{}

func (upperNames) For(iri quad.IRI) string { return "P_" + string(iri)[len(ex):] }

func TestMaterializeNames(t *testing.T) {
	a := iri("a")
	objs, err := New(registry(t), "", upperNames{}).Materialize([]quad.Quad{
		marker(a),
		q(a, "name", quad.String("A")),
	})
	require.NoError(t, err)
	require.Equal(t, "A", objs[0]["P_name"])
}

func TestNative(t *testing.T) {
	var cases = []struct {
		name string
		v    quad.Value
		dt   quad.IRI
		exp  interface{}
	}{
		{"iri", iri("x"), "", ex + "x"},
		{"bnode", quad.BNode("b1"), "", "_:b1"},
		{"string", quad.String("s"), "", "s"},
		{"lang", quad.LangString{Value: "s", Lang: "en"}, "", "s"},
		{"int", quad.TypedString{Value: "-7", Type: "xsd:int"}, "", int64(-7)},
		{"decimal", quad.TypedString{Value: "1.5", Type: voc.Decimal}, "", 1.5},
		{"bool", quad.TypedString{Value: "true", Type: voc.Boolean}, "", true},
		{"bad int", quad.TypedString{Value: "x", Type: voc.Integer}, "", "x"},
		{"declared type", quad.String("42"), voc.Integer, int64(42)},
		{"unknown type", quad.TypedString{Value: "v", Type: iri("custom")}, "", "v"},
		{"native int", quad.Int(3), "", int64(3)},
		{"native float", quad.Float(2.5), "", 2.5},
		{"native bool", quad.Bool(false), "", false},
		{"date time", quad.TypedString{Value: "2020-01-02T03:04:05Z", Type: voc.DateTime}, "",
			time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.exp, Native(c.v, c.dt))
		})
	}
}
