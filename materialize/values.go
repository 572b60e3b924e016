package materialize

import (
	"strconv"
	"strings"
	"time"

	"github.com/cayleygraph/quad"

	"github.com/cayleygraph/rdfobjects/voc"
)

var dateLayouts = []string{"2006-01-02", "2006-01-02Z07:00"}

var dateTimeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999"}

// ID returns the identifier of a resource as it appears in objects.
func ID(v quad.Value) string {
	switch v := v.(type) {
	case quad.IRI:
		return string(v)
	case quad.BNode:
		return v.String()
	case nil:
		return ""
	}
	return quad.StringOf(v)
}

// Native converts an RDF term to a Go value. If datatype is set it takes
// precedence over the term's own datatype. Lexical forms that do not parse
// are returned as strings.
//
//	xsd:date, xsd:dateTime      -> time.Time
//	xsd:integer and subtypes    -> int64
//	xsd:decimal, double, float  -> float64
//	xsd:boolean                 -> bool
//	other literals              -> string
//	IRIs and blank nodes        -> string
func Native(v quad.Value, datatype quad.IRI) interface{} {
	var (
		lex string
		dt  quad.IRI
	)
	switch v := v.(type) {
	case quad.IRI, quad.BNode:
		return ID(v)
	case quad.String:
		lex = string(v)
	case quad.LangString:
		return string(v.Value)
	case quad.TypedString:
		lex, dt = string(v.Value), v.Type.Full()
	case quad.Int:
		if datatype == "" {
			return int64(v)
		}
		lex = strconv.FormatInt(int64(v), 10)
	case quad.Float:
		if datatype == "" {
			return float64(v)
		}
		lex = strconv.FormatFloat(float64(v), 'g', -1, 64)
	case quad.Bool:
		if datatype == "" {
			return bool(v)
		}
		lex = strconv.FormatBool(bool(v))
	case quad.Time:
		if datatype == "" || datatype.Full() == voc.DateTime || datatype.Full() == voc.Date {
			return time.Time(v)
		}
		lex = time.Time(v).Format(time.RFC3339Nano)
	case nil:
		return nil
	default:
		return quad.StringOf(v)
	}
	if datatype != "" {
		dt = datatype.Full()
	}
	if out, ok := parse(lex, dt); ok {
		return out
	}
	return lex
}

func parse(lex string, dt quad.IRI) (interface{}, bool) {
	s := strings.TrimSpace(lex)
	switch {
	case dt == "":
		return nil, false
	case dt == voc.Date:
		return parseTime(s, dateLayouts)
	case dt == voc.DateTime:
		return parseTime(s, dateTimeLayouts)
	case voc.IsInteger(dt):
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, true
		}
	case dt == voc.Decimal || dt == voc.Double || dt == voc.Float:
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f, true
		}
	case dt == voc.Boolean:
		switch s {
		case "true", "1":
			return true, true
		case "false", "0":
			return false, true
		}
	}
	return nil, false
}

func parseTime(s string, layouts []string) (interface{}, bool) {
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return nil, false
}
