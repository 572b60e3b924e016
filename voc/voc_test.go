package voc

import (
	"testing"

	"github.com/cayleygraph/quad"
	"github.com/stretchr/testify/require"
)

func TestIsInteger(t *testing.T) {
	require.True(t, IsInteger(Integer))
	require.True(t, IsInteger(quad.IRI("xsd:nonNegativeInteger")))
	require.False(t, IsInteger(Decimal))
	require.False(t, IsInteger(String))
}

func TestFull(t *testing.T) {
	require.Equal(t, Type, Full(quad.IRI("rdf:type")))
	require.Equal(t, quad.IRI("http://example.com/x"), Full(quad.IRI("http://example.com/x")))
}
