package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cayleygraph/rdfobjects/version"
)

const shapes = `
main: Person
prefixes:
  ex: "http://example.com/"
shapes:
  - key: Person
    targetClass: ex:Person
    properties:
      - {path: ex:name, required: true}
      - {path: ex:label, languageIn: [en, fr]}
`

const people = `<http://example.com/a> <urn:rdfobjects:root> <urn:rdfobjects:root> .
<http://example.com/a> <http://example.com/name> "Ada" .
<http://example.com/a> <http://example.com/label> "Hello"@en .
<http://example.com/a> <http://example.com/label> "Hallo"@de .
`

func run(t *testing.T, args ...string) string {
	cmd := NewCmd()
	b := bytes.NewBuffer(nil)
	cmd.SetOut(b)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return b.String()
}

func setup(t *testing.T) (endpoint, file string) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/n-triples")
		w.Write([]byte(people))
	}))
	t.Cleanup(srv.Close)
	file = filepath.Join(t.TempDir(), "shapes.yaml")
	require.NoError(t, os.WriteFile(file, []byte(shapes), 0644))
	return srv.URL, file
}

func TestVersion(t *testing.T) {
	require.Equal(t, version.String()+"\n", run(t, "version"))
}

func TestQuery(t *testing.T) {
	addr, file := setup(t)
	out := run(t, "query", "--endpoint", addr, "--shapes", file, "-n", "3", "--offset", "6", "--aliases")
	require.Contains(t, out, "# label = http://example.com/label\n# name = http://example.com/name\n")
	require.Contains(t, out, "CONSTRUCT {")
	require.Contains(t, out, "LIMIT 3")
	require.Contains(t, out, "OFFSET 6")

	out = run(t, "query", "--endpoint", addr, "--shapes", file, "--context", "--aliases", "--vocab", "http://example.com/vocab#")
	require.Contains(t, out, `"@context": {`)
	require.Contains(t, out, `"ex": "http://example.com/"`)
	require.Contains(t, out, `"@vocab": "http://example.com/vocab#"`)
	require.Contains(t, out, "# @vocab = http://example.com/vocab#\n")

	out = run(t, "query", "--endpoint", addr, "--shapes", file, "ex:a")
	require.Contains(t, out, "VALUES ?this { ex:a }")
}

func TestListAndGet(t *testing.T) {
	addr, file := setup(t)
	expect := map[string]interface{}{
		"id":    "http://example.com/a",
		"name":  "Ada",
		"label": map[string]interface{}{"en": "Hello"},
	}
	for _, args := range [][]string{
		{"list", "--endpoint", addr, "--shapes", file},
		{"get", "ex:a", "--endpoint", addr, "--shapes", file},
	} {
		t.Run(args[0], func(t *testing.T) {
			out := run(t, args...)
			var got map[string]interface{}
			require.NoError(t, json.Unmarshal([]byte(out), &got))
			require.Equal(t, expect, got)
		})
	}
}

func TestMissingEndpoint(t *testing.T) {
	_, file := setup(t)
	cmd := NewCmd()
	cmd.SetOut(bytes.NewBuffer(nil))
	cmd.SetArgs([]string{"list", "--endpoint", "", "--shapes", file})
	require.Error(t, cmd.Execute())
}
