// Package sh contains constants of the Shapes Constraint Language (SHACL).
package sh

import "github.com/cayleygraph/quad/voc"

func init() {
	voc.RegisterPrefix(Prefix, NS)
}

const (
	NS     = `http://www.w3.org/ns/shacl#`
	Prefix = `sh:`
)

const (
	// Classes

	NodeShape     = NS + `NodeShape`
	PropertyShape = NS + `PropertyShape`

	// Properties

	TargetClass = NS + `targetClass`
	Property    = NS + `property`
	Path        = NS + `path`
	Datatype    = NS + `datatype`
	MinCount    = NS + `minCount`
	MaxCount    = NS + `maxCount`
	In          = NS + `in`
	HasValue    = NS + `hasValue`
	LanguageIn  = NS + `languageIn`
	Node        = NS + `node`
	Class       = NS + `class`
	Name        = NS + `name`
	Order       = NS + `order`
)
