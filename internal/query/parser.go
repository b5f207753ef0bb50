package query

import (
	"regexp"
	"strings"

	"codequery/internal/core/errors"
	"codequery/internal/engine/ast"
)

var (
	searchRE     = regexp.MustCompile(`(?is)^\s*SEARCH\s+([a-z@]+)(?:\s+WHERE\s+(.+?))?((?:\s+CONTAINS\s+CALLS?\s+(?:'[^']*'|"[^"]*")(?:\s*,\s*(?:'[^']*'|"[^"]*"))*)?)(?:\s+FROM\s+(.+?))?\s*$`)
	renameRE     = regexp.MustCompile(`(?is)^\s*REFACTOR\s+RENAME\s+(?:'([^']+)'|"([^"]+)")\s+TO\s+(?:'([^']+)'|"([^"]+)")\s*$`)
	parametersRE = regexp.MustCompile(`(?is)^\s*REFACTOR\s+PARAMETERS\s+(?:'([^']+)'|"([^"]+)")\s+TO\s+(?:'([^']*)'|"([^"]*)")\s*$`)
	andSplitRE   = regexp.MustCompile(`(?i)\s+AND\s+`)
	conditionRE  = regexp.MustCompile(`(?i)^\s*([a-z_]+)\s*(=|!=)\s*(?:'([^']*)'|"([^"]*)"|([^\s'"]+))\s*$`)
	quotedRE     = regexp.MustCompile(`'([^']*)'|"([^"]*)"`)
	identRE      = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)
)

// Parse reads one query:
//
//	SEARCH <class|interface|enum|annotation|type|method|field>
//	    [WHERE <field> = <value> [AND ...]]
//	    [CONTAINS CALL '<name or signature>'[, ...]]
//	    [FROM '<glob>'[, ...]]
//	REFACTOR RENAME '<signature>' TO '<name>'
//	REFACTOR PARAMETERS '<signature>' TO '<type name>, ...'
func Parse(raw string) (Query, error) {
	trimmed := strings.TrimSpace(raw)
	switch {
	case renameRE.MatchString(trimmed):
		return parseRename(trimmed)
	case parametersRE.MatchString(trimmed):
		return parseParameters(trimmed)
	}

	m := searchRE.FindStringSubmatch(trimmed)
	if m == nil {
		return Query{}, invalid("expected SEARCH <subject> [WHERE ...] or REFACTOR RENAME|PARAMETERS ...", raw)
	}
	q := Query{Raw: raw, Action: ActionSearch}
	if err := q.setSubject(m[1]); err != nil {
		return Query{}, err
	}
	if where := strings.TrimSpace(m[2]); where != "" {
		for _, part := range andSplitRE.Split(where, -1) {
			if err := q.applyCondition(part); err != nil {
				return Query{}, err
			}
		}
	}
	q.Contains = quoted(m[3])
	q.From = quoted(m[4])
	return q, nil
}

func invalid(msg, raw string) error {
	return errors.AddContext(errors.New(errors.CodeValidationError, "invalid query: "+msg), "query", strings.TrimSpace(raw))
}

func quoted(s string) []string {
	var out []string
	for _, m := range quotedRE.FindAllStringSubmatch(s, -1) {
		out = append(out, m[1]+m[2])
	}
	return out
}

func (q *Query) setSubject(word string) error {
	switch w := strings.ToLower(word); w {
	case "method", "methods":
		q.Subject = SubjectMethod
	case "field", "fields":
		q.Subject = SubjectField
	case "type", "types":
		q.Subject = SubjectType
	default:
		kind, ok := ast.ParseKind(strings.TrimSuffix(w, "es"))
		if !ok || kind == ast.KindUnspecified {
			kind, ok = ast.ParseKind(strings.TrimSuffix(w, "s"))
		}
		if !ok || kind == ast.KindUnspecified {
			return invalid("unknown subject "+word, q.Raw)
		}
		q.Subject = SubjectType
		q.Type.Kind = kind
	}
	return nil
}

type conditionSetter func(q *Query, value string, negate bool) error

// conditions lists the WHERE fields each subject accepts.
var conditions = map[Subject]map[string]conditionSetter{
	SubjectType: {
		"name":       func(q *Query, v string, _ bool) error { q.Type.Name = v; return nil },
		"visibility": func(q *Query, v string, _ bool) error { return setVisibility(&q.Type.Visibility, v) },
		"static":     func(q *Query, v string, n bool) error { return setFlag(&q.Type.Static, v, n) },
		"final":      func(q *Query, v string, n bool) error { return setFlag(&q.Type.Final, v, n) },
		"abstract":   func(q *Query, v string, n bool) error { return setFlag(&q.Type.Abstract, v, n) },
		"extends":    func(q *Query, v string, _ bool) error { q.Subtype = v; return nil },
	},
	SubjectMethod: {
		"name":         func(q *Query, v string, _ bool) error { q.Method.Name = v; return nil },
		"visibility":   func(q *Query, v string, _ bool) error { return setVisibility(&q.Method.Visibility, v) },
		"static":       func(q *Query, v string, n bool) error { return setFlag(&q.Method.Static, v, n) },
		"final":        func(q *Query, v string, n bool) error { return setFlag(&q.Method.Final, v, n) },
		"abstract":     func(q *Query, v string, n bool) error { return setFlag(&q.Method.Abstract, v, n) },
		"synchronized": func(q *Query, v string, n bool) error { return setFlag(&q.Method.Synchronized, v, n) },
		"native":       func(q *Query, v string, n bool) error { return setFlag(&q.Method.Native, v, n) },
		"constructor":  func(q *Query, v string, n bool) error { return setFlag(&q.Method.Constructor, v, n) },
		"overrides":    func(q *Query, v string, n bool) error { return setFlag(&q.Overrides, v, n) },
		"returns":      func(q *Query, v string, _ bool) error { q.Method.ReturnType = v; return nil },
		"params": func(q *Query, v string, _ bool) error {
			q.Method.Parameters = splitTypes(v)
			return nil
		},
	},
	SubjectField: {
		"name":       func(q *Query, v string, _ bool) error { q.Variable.Name = v; return nil },
		"type":       func(q *Query, v string, _ bool) error { q.Variable.Type = v; return nil },
		"visibility": func(q *Query, v string, _ bool) error { return setVisibility(&q.Variable.Visibility, v) },
		"static":     func(q *Query, v string, n bool) error { return setFlag(&q.Variable.Static, v, n) },
		"final":      func(q *Query, v string, n bool) error { return setFlag(&q.Variable.Final, v, n) },
		"volatile":   func(q *Query, v string, n bool) error { return setFlag(&q.Variable.Volatile, v, n) },
		"transient":  func(q *Query, v string, n bool) error { return setFlag(&q.Variable.Transient, v, n) },
	},
}

func (q *Query) applyCondition(raw string) error {
	m := conditionRE.FindStringSubmatch(raw)
	if m == nil {
		return invalid("malformed condition "+strings.TrimSpace(raw), q.Raw)
	}
	field := strings.ToLower(m[1])
	value := m[3] + m[4] + m[5]
	set, ok := conditions[q.Subject][field]
	if !ok {
		return invalid("unknown "+q.Subject.String()+" field "+field, q.Raw)
	}
	negate := m[2] == "!="
	if negate && !isFlagField(field) {
		return invalid("!= applies to boolean fields only", q.Raw)
	}
	return set(q, value, negate)
}

func isFlagField(field string) bool {
	switch field {
	case "static", "final", "abstract", "synchronized", "native", "constructor", "overrides", "volatile", "transient":
		return true
	}
	return false
}

func setFlag(dst *ast.Flag, value string, negate bool) error {
	f, ok := ast.ParseFlag(value)
	if !ok || !f.Specified() {
		return errors.Newf(errors.CodeValidationError, "invalid boolean %q", value)
	}
	if negate {
		f = ast.FlagOf(!f.Bool())
	}
	*dst = f
	return nil
}

func setVisibility(dst *ast.Visibility, value string) error {
	v, ok := ast.ParseVisibility(value)
	if !ok {
		return errors.Newf(errors.CodeValidationError, "invalid visibility %q", value)
	}
	*dst = v
	return nil
}

func parseRename(raw string) (Query, error) {
	m := renameRE.FindStringSubmatch(raw)
	sig, name := m[1]+m[2], strings.TrimSpace(m[3]+m[4])
	if !identRE.MatchString(name) {
		return Query{}, invalid("new name must be an identifier", raw)
	}
	return Query{
		Raw:      raw,
		Action:   ActionRename,
		Subject:  SubjectMethod,
		Refactor: &Refactor{Signature: strings.TrimSpace(sig), NewName: name},
	}, nil
}

func parseParameters(raw string) (Query, error) {
	m := parametersRE.FindStringSubmatch(raw)
	sig := strings.TrimSpace(m[1] + m[2])
	var params []ast.Param
	for _, entry := range splitTypes(m[3] + m[4]) {
		cut := strings.LastIndexAny(entry, " \t")
		if cut < 0 {
			return Query{}, invalid("parameter "+entry+" needs a type and a name", raw)
		}
		name := strings.TrimSpace(entry[cut+1:])
		if !identRE.MatchString(name) {
			return Query{}, invalid("parameter name "+name+" is not an identifier", raw)
		}
		params = append(params, ast.Param{Type: strings.TrimSpace(entry[:cut]), Name: name})
	}
	return Query{
		Raw:      raw,
		Action:   ActionParameters,
		Subject:  SubjectMethod,
		Refactor: &Refactor{Signature: sig, NewParams: params},
	}, nil
}

// splitTypes splits a comma list at generic depth zero, so
// "Map<K, V>, int" yields two entries. An empty list yields an empty,
// non-nil slice.
func splitTypes(s string) []string {
	out := []string{}
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<':
			depth++
		case '>':
			depth--
		case ',':
			if depth == 0 {
				if part := strings.TrimSpace(s[start:i]); part != "" {
					out = append(out, part)
				}
				start = i + 1
			}
		}
	}
	if part := strings.TrimSpace(s[start:]); part != "" {
		out = append(out, part)
	}
	return out
}
