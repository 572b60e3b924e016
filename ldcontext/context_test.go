package ldcontext

import (
	"testing"

	"github.com/cayleygraph/quad"
	"github.com/stretchr/testify/require"
)

func testContext() *Context {
	return New(map[string]string{
		"ex":    "http://example.com/",
		"foaf:": "http://xmlns.com/foaf/0.1/",
	}, "http://example.com/vocab#")
}

func TestCompactName(t *testing.T) {
	c := testContext()
	var cases = []struct {
		iri  quad.IRI
		name string
	}{
		{"http://example.com/vocab#name", "name"},
		{"http://xmlns.com/foaf/0.1/knows", "foaf:knows"},
		{"http://example.com/age", "ex:age"},
		{"http://other.org/x", "http://other.org/x"},
	}
	for _, c2 := range cases {
		t.Run(string(c2.iri), func(t *testing.T) {
			require.Equal(t, c2.name, c.CompactName(c2.iri))
		})
	}
}

func TestExpand(t *testing.T) {
	c := testContext()
	require.Equal(t, quad.IRI("http://xmlns.com/foaf/0.1/knows"), c.Expand("foaf:knows"))
	require.Equal(t, quad.IRI("http://example.com/vocab#name"), c.Expand("name"))
	require.Equal(t, quad.IRI("http://other.org/x"), c.Expand("http://other.org/x"))
	require.Equal(t, quad.IRI("_:b1"), c.Expand("_:b1"))
}

func TestNamespacesSorted(t *testing.T) {
	list := testContext().Namespaces()
	require.Len(t, list, 2)
	require.Equal(t, "ex:", list[0].Prefix)
	require.Equal(t, "foaf:", list[1].Prefix)
}

func TestEmptyContext(t *testing.T) {
	c := New(nil, "")
	require.Equal(t, "http://example.com/a", c.CompactName("http://example.com/a"))
	require.Empty(t, c.Namespaces())
}

func TestDocument(t *testing.T) {
	c := testContext()
	require.Equal(t, "http://example.com/vocab#", c.Vocab())
	doc := c.Document()
	require.Equal(t, map[string]interface{}{
		"ex":     "http://example.com/",
		"foaf":   "http://xmlns.com/foaf/0.1/",
		"@vocab": "http://example.com/vocab#",
	}, doc)

	doc["ex"] = "http://changed.org/"
	require.Equal(t, "http://example.com/", c.Document()["ex"])

	c = New(nil, "")
	require.Empty(t, c.Vocab())
	require.Empty(t, c.Document())
}
