// Copyright 2017 The Cayley Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package schema describes the entity shapes that drive query compilation
// and result materialization.
//
// A shape names a target class and an ordered list of properties. Shapes
// are collected into a Registry, which validates them and classifies every
// property into exactly one Kind. A Registry is never modified after it was
// built and can be shared between goroutines.
package schema

import (
	"fmt"

	"github.com/cayleygraph/quad"
)

// Shape describes one entity type.
type Shape struct {
	// Key addresses the shape inside a Registry.
	Key string
	// TargetClass is the rdf:type every entity of this shape carries.
	TargetClass quad.IRI
	// Properties are kept in declaration order.
	Properties []*Property
}

// Property describes a single predicate of a shape.
type Property struct {
	Predicate quad.IRI
	Required  bool
	Multiple  bool

	// Datatype restricts literal objects to a single datatype.
	Datatype quad.IRI
	// AllowedValues restricts objects to a fixed set.
	AllowedValues []quad.Value
	// LanguageTags selects language-tagged literals by exact tag.
	LanguageTags []string
	// Nested is the key of the shape describing the related entity.
	Nested string

	// Kind is assigned when the property is added to a Registry.
	Kind Kind
}

// Kind is a closed set of property classes: Scalar, Enumerated,
// LanguageTagged and Nested.
type Kind interface {
	isKind()
	String() string
}

// Scalar properties hold typed literals or identifier references.
type Scalar struct{}

// Enumerated properties hold one of a fixed set of values.
type Enumerated struct {
	Values []quad.Value
}

// LanguageTagged properties hold per-language literals.
type LanguageTagged struct {
	Tags []string
}

// Nested properties reference entities of another shape.
type Nested struct {
	Shape string
}

func (Scalar) isKind()         {}
func (Enumerated) isKind()     {}
func (LanguageTagged) isKind() {}
func (Nested) isKind()         {}

func (Scalar) String() string           { return "scalar" }
func (k Enumerated) String() string     { return fmt.Sprintf("enumerated%v", k.Values) }
func (k LanguageTagged) String() string { return fmt.Sprintf("language%v", k.Tags) }
func (k Nested) String() string         { return "nested(" + k.Shape + ")" }

// IsNested reports whether the property references another shape.
func (p *Property) IsNested() bool {
	_, ok := p.Kind.(Nested)
	return ok
}

func (p *Property) clone() *Property {
	c := *p
	if p.AllowedValues != nil {
		c.AllowedValues = append([]quad.Value(nil), p.AllowedValues...)
	}
	if p.LanguageTags != nil {
		c.LanguageTags = append([]string(nil), p.LanguageTags...)
	}
	return &c
}

func (s *Shape) clone() *Shape {
	c := &Shape{
		Key:         s.Key,
		TargetClass: s.TargetClass,
		Properties:  make([]*Property, 0, len(s.Properties)),
	}
	for _, p := range s.Properties {
		c.Properties = append(c.Properties, p.clone())
	}
	return c
}

