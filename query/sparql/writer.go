package sparql

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cayleygraph/quad"
	"github.com/cayleygraph/quad/voc"
	"github.com/cayleygraph/quad/voc/xsd"
)

// localName matches local parts that can be written after a prefix without escaping.
var localName = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_-]*$`)

type writer struct {
	b      strings.Builder
	ns     []voc.Namespace
	used   map[string]bool
	indent int
}

// String renders the query. Only prefixes referenced by the body are declared.
func (q *Query) String() string {
	w := &writer{ns: q.Prefixes, used: make(map[string]bool)}
	switch {
	case q.Construct != nil:
		w.construct(q.Construct)
	case q.Select != nil:
		w.selectQuery(q.Select)
	}
	body := w.b.String()

	var h strings.Builder
	for _, ns := range q.Prefixes {
		if !w.used[ns.Prefix] {
			continue
		}
		h.WriteString("PREFIX ")
		h.WriteString(ns.Prefix)
		h.WriteString(" <")
		h.WriteString(ns.Full)
		h.WriteString(">\n")
	}
	return h.String() + body
}

func (w *writer) line(parts ...string) {
	w.b.WriteString(strings.Repeat("  ", w.indent))
	for _, p := range parts {
		w.b.WriteString(p)
	}
	w.b.WriteByte('\n')
}

func (w *writer) construct(c *Construct) {
	w.line("CONSTRUCT {")
	w.indent++
	for _, t := range c.Template {
		w.line(w.triple(t))
	}
	w.indent--
	w.line("}")
	w.line("WHERE {")
	w.indent++
	w.patterns(c.Where)
	w.indent--
	w.line("}")
}

func (w *writer) selectQuery(s *Select) {
	head := "SELECT "
	if s.Distinct {
		head += "DISTINCT "
	}
	if len(s.Vars) == 0 {
		head += "*"
	} else {
		vars := make([]string, 0, len(s.Vars))
		for _, v := range s.Vars {
			vars = append(vars, w.term(v))
		}
		head += strings.Join(vars, " ")
	}
	w.line(head)
	w.line("WHERE {")
	w.indent++
	w.patterns(s.Where)
	w.indent--
	w.line("}")
	if len(s.OrderBy) != 0 {
		vars := make([]string, 0, len(s.OrderBy))
		for _, v := range s.OrderBy {
			vars = append(vars, w.term(v))
		}
		w.line("ORDER BY ", strings.Join(vars, " "))
	}
	if s.Limit >= 0 {
		w.line("LIMIT ", strconv.Itoa(s.Limit))
	}
	if s.Offset > 0 {
		w.line("OFFSET ", strconv.Itoa(s.Offset))
	}
}

func (w *writer) patterns(g Group) {
	for _, p := range g {
		w.pattern(p)
	}
}

func (w *writer) group(g Group, prefix string) {
	if len(g) == 0 {
		w.line(prefix, "{ }")
		return
	}
	w.line(prefix, "{")
	w.indent++
	w.patterns(g)
	w.indent--
	w.line("}")
}

func (w *writer) pattern(p Pattern) {
	switch p := p.(type) {
	case Triple:
		w.line(w.triple(p))
	case Group:
		w.group(p, "")
	case Optional:
		w.group(Group(p), "OPTIONAL ")
	case Union:
		for i, g := range p {
			if i != 0 {
				w.line("UNION")
			}
			w.group(g, "")
		}
	case Filter:
		w.line("FILTER(", w.expr(p.Expr, 0), ")")
	case Bind:
		w.line("BIND(", w.expr(p.Expr, 0), " AS ", w.term(p.As), ")")
	case Values:
		vals := make([]string, 0, len(p.Values))
		for _, v := range p.Values {
			vals = append(vals, w.value(v))
		}
		if len(vals) == 0 {
			w.line("VALUES ", w.term(p.Var), " { }")
		} else {
			w.line("VALUES ", w.term(p.Var), " { ", strings.Join(vals, " "), " }")
		}
	case SubSelect:
		w.line("{")
		w.indent++
		w.selectQuery(p.Select)
		w.indent--
		w.line("}")
	}
}

func (w *writer) triple(t Triple) string {
	return w.term(t.S) + " " + w.term(t.P) + " " + w.term(t.O) + " ."
}

func (w *writer) term(t Term) string {
	switch t := t.(type) {
	case Var:
		return "?" + string(t)
	case Value:
		return w.value(t.Value)
	}
	return ""
}

func (w *writer) expr(e Expr, parent int) string {
	switch e := e.(type) {
	case Var:
		return w.term(e)
	case Value:
		return w.term(e)
	case Call:
		args := make([]string, 0, len(e.Args))
		for _, a := range e.Args {
			args = append(args, w.expr(a, 0))
		}
		return e.Name + "(" + strings.Join(args, ", ") + ")"
	case In:
		list := make([]string, 0, len(e.List))
		for _, a := range e.List {
			list = append(list, w.expr(a, 0))
		}
		s := w.expr(e.Expr, 3) + " IN (" + strings.Join(list, ", ") + ")"
		if parent > 3 {
			s = "(" + s + ")"
		}
		return s
	case Binary:
		prec := e.Op.precedence()
		s := w.expr(e.L, prec) + " " + string(e.Op) + " " + w.expr(e.R, prec+1)
		if prec < parent {
			s = "(" + s + ")"
		}
		return s
	}
	return ""
}

// ValidIRI reports whether s can be written as an IRIREF, that is between
// angle brackets with no escaping.
func ValidIRI(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r <= 0x20 || r == 0x7f {
			return false
		}
		switch r {
		case '<', '>', '"', '{', '}', '|', '^', '`', '\\':
			return false
		}
	}
	return true
}

func (w *writer) iri(v quad.IRI) string {
	full := string(v.Full())
	for _, ns := range w.ns {
		if !strings.HasPrefix(full, ns.Full) {
			continue
		}
		if local := full[len(ns.Full):]; localName.MatchString(local) {
			w.used[ns.Prefix] = true
			return ns.Prefix + local
		}
	}
	return "<" + full + ">"
}

func quote(s string) string {
	return quad.String(s).String()
}

func (w *writer) value(v quad.Value) string {
	switch v := v.(type) {
	case quad.IRI:
		return w.iri(v)
	case quad.BNode:
		return v.String()
	case quad.String:
		return quote(string(v))
	case quad.LangString:
		return quote(string(v.Value)) + "@" + v.Lang
	case quad.TypedString:
		return quote(string(v.Value)) + "^^" + w.iri(v.Type)
	case quad.Int:
		return strconv.FormatInt(int64(v), 10)
	case quad.Float:
		return quote(strconv.FormatFloat(float64(v), 'g', -1, 64)) + "^^" + w.iri(quad.IRI(xsd.Double))
	case quad.Bool:
		return strconv.FormatBool(bool(v))
	case quad.Time:
		return quote(time.Time(v).Format(time.RFC3339Nano)) + "^^" + w.iri(quad.IRI(xsd.DateTime))
	case nil:
		return "UNDEF"
	}
	return v.String()
}
