// Package voc holds the IRIs rdfobjects relies on that are not part of a
// published vocabulary, plus full-form helpers for the ones that are.
package voc

import (
	"github.com/cayleygraph/quad"
	"github.com/cayleygraph/quad/voc/rdf"
	"github.com/cayleygraph/quad/voc/xsd"
)

// Root is the predicate and object of the synthetic triple that marks
// page roots in a query response.
const Root = quad.IRI("urn:rdfobjects:root")

var (
	// Type is the full IRI of rdf:type.
	Type = quad.IRI(rdf.NS + "type")
	// LangString is the full IRI of rdf:langString.
	LangString = quad.IRI(rdf.NS + "langString")
	// First, Rest and Nil are used to walk RDF collections.
	First = quad.IRI(rdf.NS + "first")
	Rest  = quad.IRI(rdf.NS + "rest")
	Nil   = quad.IRI(rdf.NS + "nil")
)

// XML Schema datatypes in full form.
var (
	String   = quad.IRI(xsd.NS + "string")
	Boolean  = quad.IRI(xsd.NS + "boolean")
	Integer  = quad.IRI(xsd.NS + "integer")
	Int      = quad.IRI(xsd.NS + "int")
	Long     = quad.IRI(xsd.NS + "long")
	Decimal  = quad.IRI(xsd.NS + "decimal")
	Double   = quad.IRI(xsd.NS + "double")
	Float    = quad.IRI(xsd.NS + "float")
	Date     = quad.IRI(xsd.NS + "date")
	DateTime = quad.IRI(xsd.NS + "dateTime")
)

var integerTypes = map[quad.IRI]bool{
	Integer: true, Int: true, Long: true,
	quad.IRI(xsd.NS + "short"):              true,
	quad.IRI(xsd.NS + "byte"):               true,
	quad.IRI(xsd.NS + "nonNegativeInteger"): true,
	quad.IRI(xsd.NS + "nonPositiveInteger"): true,
	quad.IRI(xsd.NS + "positiveInteger"):    true,
	quad.IRI(xsd.NS + "negativeInteger"):    true,
	quad.IRI(xsd.NS + "unsignedLong"):       true,
	quad.IRI(xsd.NS + "unsignedInt"):        true,
	quad.IRI(xsd.NS + "unsignedShort"):      true,
	quad.IRI(xsd.NS + "unsignedByte"):       true,
}

// IsInteger reports whether dt is xsd:integer or one of its derived types.
func IsInteger(dt quad.IRI) bool {
	return integerTypes[Full(dt)]
}

// Full expands a prefixed IRI using the global namespace registry.
func Full(iri quad.IRI) quad.IRI {
	return iri.Full()
}
