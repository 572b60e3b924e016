// Package sparql is a small SPARQL 1.1 query algebra with a deterministic
// text writer. It covers the subset of the language used by the compiler:
// basic graph patterns, groups, unions, optionals, filters, binds, inline
// data and sub-selects inside SELECT and CONSTRUCT queries.
package sparql

import (
	"github.com/cayleygraph/quad"
	"github.com/cayleygraph/quad/voc"
)

// Term is a variable or an RDF value in a triple pattern.
type Term interface {
	isTerm()
}

// Var is a query variable, written without the leading question mark.
type Var string

// Value wraps an RDF term.
type Value struct {
	quad.Value
}

// IRI is a shorthand for Value{quad.IRI(s)}.
func IRI(s quad.IRI) Value { return Value{s} }

func (Var) isTerm()   {}
func (Value) isTerm() {}

// Pattern is an element of a group graph pattern.
type Pattern interface {
	isPattern()
}

// Triple is a single triple pattern.
type Triple struct {
	S, P, O Term
}

// Group is a group graph pattern.
type Group []Pattern

// Union joins alternatives with UNION.
type Union []Group

// Optional is an OPTIONAL group.
type Optional Group

// Filter restricts solutions of the enclosing group.
type Filter struct {
	Expr Expr
}

// Bind assigns an expression to a new variable.
type Bind struct {
	Expr Expr
	As   Var
}

// Values is a single-variable inline data block. An empty list produces no solutions.
type Values struct {
	Var    Var
	Values []quad.Value
}

// SubSelect nests a SELECT query into a group.
type SubSelect struct {
	*Select
}

func (Triple) isPattern()    {}
func (Group) isPattern()     {}
func (Union) isPattern()     {}
func (Optional) isPattern()  {}
func (Filter) isPattern()    {}
func (Bind) isPattern()      {}
func (Values) isPattern()    {}
func (SubSelect) isPattern() {}

// Expr is a filter or bind expression.
type Expr interface {
	isExpr()
}

// Op is a binary operator.
type Op string

const (
	Or    = Op("||")
	And   = Op("&&")
	Equal = Op("=")
	NotEq = Op("!=")
)

func (op Op) precedence() int {
	switch op {
	case Or:
		return 1
	case And:
		return 2
	}
	return 3
}

// Binary is a binary operation.
type Binary struct {
	Op   Op
	L, R Expr
}

// In tests membership of an expression in a list.
type In struct {
	Expr Expr
	List []Expr
}

// Call is a built-in function call such as LANG or DATATYPE.
type Call struct {
	Name string
	Args []Expr
}

func (Var) isExpr()    {}
func (Value) isExpr()  {}
func (Binary) isExpr() {}
func (In) isExpr()     {}
func (Call) isExpr()   {}

// Any joins expressions with ||.
func Any(exprs ...Expr) Expr {
	return join(Or, exprs)
}

// All joins expressions with &&.
func All(exprs ...Expr) Expr {
	return join(And, exprs)
}

func join(op Op, exprs []Expr) Expr {
	if len(exprs) == 0 {
		return nil
	}
	e := exprs[0]
	for _, x := range exprs[1:] {
		e = Binary{Op: op, L: e, R: x}
	}
	return e
}

// NoLimit disables LIMIT in a Select.
const NoLimit = -1

// Select is a SELECT query.
type Select struct {
	Distinct bool
	Vars     []Var
	Where    Group
	OrderBy  []Var
	Limit    int
	Offset   int
}

// Construct is a CONSTRUCT query.
type Construct struct {
	Template []Triple
	Where    Group
}

// Query is a complete query with a prologue. Exactly one of Select and
// Construct must be set.
type Query struct {
	Prefixes  []voc.Namespace
	Select    *Select
	Construct *Construct
}
