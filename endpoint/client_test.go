package endpoint

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cayleygraph/quad"
	"github.com/stretchr/testify/require"
)

const ntriples = `<http://example.com/a> <urn:rdfobjects:root> <urn:rdfobjects:root> .
<http://example.com/a> <http://example.com/name> "Ada" .
<http://example.com/a> <http://example.com/age> "36"^^<http://www.w3.org/2001/XMLSchema#integer> .
<http://example.com/a> <http://example.com/label> "Hi"@en .
`

func expectQuads() []quad.Quad {
	a := quad.IRI("http://example.com/a")
	return []quad.Quad{
		{Subject: a, Predicate: quad.IRI("urn:rdfobjects:root"), Object: quad.IRI("urn:rdfobjects:root")},
		{Subject: a, Predicate: quad.IRI("http://example.com/name"), Object: quad.String("Ada")},
		{Subject: a, Predicate: quad.IRI("http://example.com/age"), Object: quad.TypedString{
			Value: "36", Type: "http://www.w3.org/2001/XMLSchema#integer",
		}},
		{Subject: a, Predicate: quad.IRI("http://example.com/label"), Object: quad.LangString{Value: "Hi", Lang: "en"}},
	}
}

func TestConstruct(t *testing.T) {
	var got *http.Request
	var form string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		form = r.FormValue("query")
		w.Header().Set("Content-Type", "application/n-triples; charset=utf-8")
		w.Write([]byte(ntriples))
	}))
	defer srv.Close()

	c := New(srv.URL)
	c.Header = http.Header{"Authorization": {"Bearer token"}}
	quads, err := c.Construct(context.Background(), "CONSTRUCT { ?s ?p ?o } WHERE { ?s ?p ?o }", "")
	require.NoError(t, err)
	require.Equal(t, expectQuads(), quads)

	require.Equal(t, http.MethodPost, got.Method)
	require.Equal(t, "application/x-www-form-urlencoded", got.Header.Get("Content-Type"))
	require.Equal(t, "application/n-triples", got.Header.Get("Accept"))
	require.Equal(t, "Bearer token", got.Header.Get("Authorization"))
	require.Equal(t, "CONSTRUCT { ?s ?p ?o } WHERE { ?s ?p ?o }", form)
}

func TestConstructCompressed(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	zw.Write([]byte(ntriples))
	zw.Close()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(buf.Bytes())
	}))
	defer srv.Close()

	quads, err := New(srv.URL).Construct(context.Background(), "q", "")
	require.NoError(t, err)
	require.Equal(t, expectQuads(), quads)
}

func TestConstructEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/n-triples")
	}))
	defer srv.Close()

	quads, err := New(srv.URL).Construct(context.Background(), "q", "")
	require.NoError(t, err)
	require.Empty(t, quads)
}

func TestConstructTurtle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/turtle")
		w.Write([]byte(`@prefix ex: <http://example.com/> .
ex:a ex:name "Ada" .
`))
	}))
	defer srv.Close()

	quads, err := New(srv.URL).Construct(context.Background(), "q", "")
	require.NoError(t, err)
	require.Equal(t, []quad.Quad{{
		Subject:   quad.IRI("http://example.com/a"),
		Predicate: quad.IRI("http://example.com/name"),
		Object:    quad.String("Ada"),
	}}, quads)
}

func TestConstructStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "syntax error near WHERE", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Construct(context.Background(), "q", "")
	require.Error(t, err)
	require.True(t, IsTransport(err))
	var e *Error
	require.True(t, errors.As(err, &e))
	require.Equal(t, http.StatusBadRequest, e.Status)
	require.Equal(t, "syntax error near WHERE", e.Body)
	require.Equal(t, srv.URL, e.Endpoint)
}

func TestConstructUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	_, err := New(addr).Construct(context.Background(), "q", "")
	require.True(t, IsTransport(err))
}

func TestConstructTimeout(t *testing.T) {
	done := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-done:
		}
	}))
	defer srv.Close()
	defer close(done)

	c := New(srv.URL)
	c.Timeout = 50 * time.Millisecond
	_, err := c.Construct(context.Background(), "q", "")
	require.True(t, IsTransport(err))
	require.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestSelect(t *testing.T) {
	const results = `{
	"head": {"vars": ["this"]},
	"results": {"bindings": [
		{"this": {"type": "uri", "value": "http://example.com/a"}},
		{"this": {"type": "bnode", "value": "b0"}},
		{"other": {"type": "literal", "value": "x"}},
		{"this": {"type": "literal", "value": "5", "datatype": "http://www.w3.org/2001/XMLSchema#integer"}},
		{"this": {"type": "literal", "value": "hi", "xml:lang": "en"}}
	]}
}`
	var accept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "application/sparql-results+json")
		w.Write([]byte(results))
	}))
	defer srv.Close()

	res, err := New(srv.URL).Select(context.Background(), "SELECT ?this WHERE { ?this ?p ?o }")
	require.NoError(t, err)
	require.Equal(t, "application/sparql-results+json", accept)
	require.Equal(t, []string{"this"}, res.Head.Vars)

	col, err := res.Column("this")
	require.NoError(t, err)
	require.Equal(t, []quad.Value{
		quad.IRI("http://example.com/a"),
		quad.BNode("b0"),
		quad.TypedString{Value: "5", Type: "http://www.w3.org/2001/XMLSchema#integer"},
		quad.LangString{Value: "hi", Lang: "en"},
	}, col)
}

func TestSelectBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>"))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Select(context.Background(), "q")
	require.True(t, IsTransport(err))
	require.True(t, strings.Contains(err.Error(), "decode"))
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"head": {"vars": []}, "results": {"bindings": []}}`))
	}))
	defer srv.Close()
	require.NoError(t, New(srv.URL).Ping(context.Background()))
}
