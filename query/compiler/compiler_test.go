package compiler

import (
	"errors"
	"strings"
	"testing"

	"github.com/cayleygraph/quad"
	"github.com/stretchr/testify/require"

	"github.com/cayleygraph/rdfobjects/ldcontext"
	"github.com/cayleygraph/rdfobjects/schema"
)

const ex = "http://example.com/"

func iri(s string) quad.IRI { return quad.IRI(ex + s) }

var names = ldcontext.New(map[string]string{
	"ex":  ex,
	"rdf": "http://www.w3.org/1999/02/22-rdf-syntax-ns#",
	"xsd": "http://www.w3.org/2001/XMLSchema#",
}, "")

func adaRegistry(t testing.TB) *schema.Registry {
	reg, err := schema.NewRegistry("Person", &schema.Shape{
		Key:         "Person",
		TargetClass: iri("Person"),
		Properties: []*schema.Property{
			{Predicate: iri("name"), Required: true, Datatype: "xsd:string"},
		},
	})
	require.NoError(t, err)
	return reg
}

func fullRegistry(t testing.TB) *schema.Registry {
	reg, err := schema.NewRegistry("Person",
		&schema.Shape{
			Key:         "Person",
			TargetClass: iri("Person"),
			Properties: []*schema.Property{
				{Predicate: iri("name"), Required: true, Datatype: "xsd:string"},
				{Predicate: iri("label"), LanguageTags: []string{"en", "fr"}, Multiple: true},
				{Predicate: iri("status"), AllowedValues: []quad.Value{iri("Active")}},
				{Predicate: iri("knows"), Nested: "Person", Multiple: true},
				{Predicate: iri("address"), Nested: "Address"},
			},
		},
		&schema.Shape{
			Key:         "Address",
			TargetClass: iri("Address"),
			Properties: []*schema.Property{
				{Predicate: iri("city")},
				{Predicate: iri("zip"), Datatype: "xsd:integer"},
			},
		},
	)
	require.NoError(t, err)
	return reg
}

func TestCompilePage(t *testing.T) {
	q, err := Compile(adaRegistry(t), Page(10, 0), WithNames(names))
	require.NoError(t, err)
	const exp = `PREFIX ex: <http://example.com/>
PREFIX rdf: <http://www.w3.org/1999/02/22-rdf-syntax-ns#>
PREFIX xsd: <http://www.w3.org/2001/XMLSchema#>
CONSTRUCT {
  ?this <urn:rdfobjects:root> <urn:rdfobjects:root> .
  ?s ?p ?o .
}
WHERE {
  {
    SELECT DISTINCT ?this
    WHERE {
      ?this rdf:type ex:Person .
      ?this ex:name ?name .
    }
    ORDER BY ?this
    LIMIT 10
  }
  { }
  UNION
  {
    ?this ?p ?o .
    FILTER(?p IN (rdf:type, ex:name))
    FILTER(?p != rdf:type || ?o = ex:Person)
    FILTER(?p != ex:name || DATATYPE(?o) = xsd:string)
    BIND(?this AS ?s)
  }
}
`
	require.Equal(t, exp, q.Text)
	require.Equal(t, MimeNTriples, q.Accept)
	require.Equal(t, "Person", q.Shape)
	require.Equal(t, "name", q.Aliases.For(iri("name")))
}

func TestCompileOffsetAndOrder(t *testing.T) {
	q, err := Compile(adaRegistry(t), Page(5, 15), WithNames(names), WithoutOrder())
	require.NoError(t, err)
	require.Contains(t, q.Text, "LIMIT 5\n")
	require.Contains(t, q.Text, "OFFSET 15\n")
	require.NotContains(t, q.Text, "ORDER BY")
}

func TestCompileLookup(t *testing.T) {
	q, err := Compile(adaRegistry(t), Lookup(iri("1"), iri("2")), WithNames(names))
	require.NoError(t, err)
	require.Contains(t, q.Text, "VALUES ?this { ex:1 ex:2 }")
	require.NotContains(t, q.Text, "LIMIT")
	require.NotContains(t, q.Text, "OFFSET")

	q, err = Compile(adaRegistry(t), Lookup(), WithNames(names))
	require.NoError(t, err)
	require.Contains(t, q.Text, "VALUES ?this { }")
	require.True(t, Lookup().IsLookup())
	require.False(t, Page(1, 0).IsLookup())
}

func TestCompileConstraints(t *testing.T) {
	q, err := Compile(fullRegistry(t), Page(10, 0), WithNames(names))
	require.NoError(t, err)
	for _, frag := range []string{
		// push-down in the root selection
		"      ?this ex:status ?status .\n      FILTER(?status IN (ex:Active))\n",
		"FILTER(?p IN (rdf:type, ex:address, ex:knows, ex:label, ex:name, ex:status))",
		`FILTER(?p != ex:label || LANG(?o) IN ("en", "fr"))`,
		"FILTER(?p != ex:status || ?o IN (ex:Active))",
		// nested branches
		"?this ex:knows ?knows .\n    ?knows ?p ?o .",
		"BIND(?knows AS ?s)",
		"?this ex:address ?address .\n    ?address ?p ?o .",
		"FILTER(?p IN (rdf:type, ex:city, ex:zip))",
		"FILTER(?p != rdf:type || ?o = ex:Address)",
		"FILTER(?p != ex:zip || DATATYPE(?o) = xsd:integer)",
		"BIND(?address AS ?s)",
	} {
		require.Contains(t, q.Text, frag)
	}
	require.Equal(t, 3, strings.Count(q.Text, "UNION"))
	require.NotContains(t, q.Text, "?this ex:label ?label", "optional properties are not pushed down")
}

func TestCompileDepth(t *testing.T) {
	q, err := Compile(fullRegistry(t), Page(1, 0), WithNames(names), WithMaxDepth(2))
	require.NoError(t, err)
	require.Contains(t, q.Text, "?this ex:knows ?knows .\n    ?knows ex:knows ?knows_knows .\n    ?knows_knows ?p ?o .")
	require.Contains(t, q.Text, "?knows ex:address ?knows_address .")
	// marker, root, knows, address, knows/knows, knows/address
	require.Equal(t, 5, strings.Count(q.Text, "UNION"))
}

func TestCompileSelect(t *testing.T) {
	q, err := CompileSelect(fullRegistry(t), Page(3, 6), WithNames(names))
	require.NoError(t, err)
	require.Equal(t, MimeResultsJSON, q.Accept)
	require.True(t, strings.HasPrefix(q.Text[strings.Index(q.Text, "SELECT"):], "SELECT DISTINCT ?this\n"))
	require.NotContains(t, q.Text, "CONSTRUCT")
	require.Contains(t, q.Text, "LIMIT 3\nOFFSET 6\n")
}

func TestCompileOtherShape(t *testing.T) {
	q, err := Compile(fullRegistry(t), Request{Shape: "Address", Limit: 2}, WithNames(names))
	require.NoError(t, err)
	require.Equal(t, "Address", q.Shape)
	require.Contains(t, q.Text, "?this rdf:type ex:Address .")
	require.Equal(t, 1, strings.Count(q.Text, "UNION"))
}

func TestCompileErrors(t *testing.T) {
	reg := adaRegistry(t)
	var cases = []struct {
		name string
		reg  *schema.Registry
		req  Request
		err  error
	}{
		{"negative limit", reg, Page(-1, 0), ErrNegativeLimit},
		{"negative offset", reg, Page(1, -5), ErrNegativeOffset},
		{"unknown shape", reg, Request{Shape: "Nope"}, schema.ErrUnknownShape},
		{"no registry", nil, Page(1, 0), ErrNoRegistry},
		{"injected id", reg, Lookup(quad.IRI(ex + "1> ?x ?y } UNION { ?this ?leak ?all . } { <" + ex + "2")), ErrInvalidID},
		{"id with space", reg, Lookup(iri("a"), iri("b c")), ErrInvalidID},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Compile(c.reg, c.req)
			require.Error(t, err)
			require.True(t, errors.Is(err, c.err), "unexpected error: %v", err)
			require.True(t, IsCompilation(err))

			_, err = CompileSelect(c.reg, c.req)
			require.True(t, errors.Is(err, c.err))
		})
	}
}

func TestCompileIndependentAliases(t *testing.T) {
	reg := fullRegistry(t)
	q1, err := Compile(reg, Page(1, 0), WithNames(names))
	require.NoError(t, err)
	q2, err := Compile(reg, Page(1, 0), WithNames(names))
	require.NoError(t, err)
	require.NotSame(t, q1.Aliases, q2.Aliases)
	require.Equal(t, q1.Text, q2.Text)
	require.Equal(t, q1.Aliases.Map(), q2.Aliases.Map())
}

func TestCompileLookupRejectsBadIDs(t *testing.T) {
	reg := adaRegistry(t)
	_, err := Compile(reg, Lookup(quad.IRI(ex+"1> ?x ?y } UNION { ?this ?leak ?all . } { <"+ex+"2")))
	var e *IDError
	require.True(t, errors.As(err, &e))
	require.Contains(t, string(e.ID), "?leak")

	q, err := Compile(reg, Lookup(iri("a"), quad.IRI("urn:isbn:0451450523")), WithNames(names))
	require.NoError(t, err)
	require.Contains(t, q.Text, "VALUES ?this { ex:a <urn:isbn:0451450523> }")
}
