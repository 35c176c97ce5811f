package validation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ── Vocabulary ───────────────────────────────────────────────────────────────

// Rule names a constraint the engine knows how to evaluate.
type Rule string

const (
	RuleRequired  Rule = "required"
	RuleFile      Rule = "file"
	RuleNullable  Rule = "nullable"
	RuleSometimes Rule = "sometimes"
	RuleString    Rule = "string"
	RuleMin       Rule = "min"
	RuleMax       Rule = "max"
	RuleMimes     Rule = "mimes"
	RuleMimeTypes Rule = "mimetypes"
)

// Rule table errors. They are returned while a RuleSet is built, never while
// a request is validated.
var (
	ErrUnknownRule    = errors.New("validation: unknown rule")
	ErrInvalidParam   = errors.New("validation: invalid rule parameter")
	ErrDuplicateField = errors.New("validation: duplicate field")
	ErrEmptyField     = errors.New("validation: empty field name")
)

type arity int

const (
	noParams arity = iota
	oneInt
	oneOrMore
)

// vocabulary is closed: anything not listed here is rejected at build time.
var vocabulary = map[Rule]arity{
	RuleRequired:  noParams,
	RuleFile:      noParams,
	RuleNullable:  noParams,
	RuleSometimes: noParams,
	RuleString:    noParams,
	RuleMin:       oneInt,
	RuleMax:       oneInt,
	RuleMimes:     oneOrMore,
	RuleMimeTypes: oneOrMore,
}

// ── Constraint ───────────────────────────────────────────────────────────────

// Constraint is one rule applied to a field, with its parameters.
//
//	Constraint{Rule: RuleMax, Params: []string{"2048"}}  // "max:2048"
type Constraint struct {
	Rule   Rule
	Params []string

	n int64 // parsed numeric parameter for min/max
}

// String renders the constraint in pipe syntax ("mimes:pdf,png").
func (c Constraint) String() string {
	if len(c.Params) == 0 {
		return string(c.Rule)
	}
	return string(c.Rule) + ":" + strings.Join(c.Params, ",")
}

// compile checks the constraint against the vocabulary and parses its parameters.
func (c Constraint) compile() (Constraint, error) {
	a, ok := vocabulary[c.Rule]
	if !ok {
		return c, fmt.Errorf("%w: %q", ErrUnknownRule, c.Rule)
	}

	params := make([]string, 0, len(c.Params))
	for _, p := range c.Params {
		if p = strings.TrimSpace(p); p != "" {
			params = append(params, p)
		}
	}
	out := Constraint{Rule: c.Rule, Params: params}

	switch a {
	case noParams:
		if len(params) != 0 {
			return c, fmt.Errorf("%w: %s takes no parameters", ErrInvalidParam, c.Rule)
		}
	case oneInt:
		if len(params) != 1 {
			return c, fmt.Errorf("%w: %s needs exactly one parameter", ErrInvalidParam, c.Rule)
		}
		n, err := strconv.ParseInt(params[0], 10, 64)
		if err != nil || n < 0 {
			return c, fmt.Errorf("%w: %s:%s is not a non-negative integer", ErrInvalidParam, c.Rule, params[0])
		}
		out.n = n
	case oneOrMore:
		if len(params) == 0 {
			return c, fmt.Errorf("%w: %s needs at least one parameter", ErrInvalidParam, c.Rule)
		}
		for i, p := range params {
			params[i] = strings.ToLower(p)
		}
	}
	return out, nil
}

// Constraint constructors.

func Required() Constraint  { return Constraint{Rule: RuleRequired} }
func File() Constraint      { return Constraint{Rule: RuleFile} }
func Nullable() Constraint  { return Constraint{Rule: RuleNullable} }
func Sometimes() Constraint { return Constraint{Rule: RuleSometimes} }
func String() Constraint    { return Constraint{Rule: RuleString} }

// Min is a lower bound: characters for strings, kilobytes for files.
func Min(n int64) Constraint {
	return Constraint{Rule: RuleMin, Params: []string{strconv.FormatInt(n, 10)}}
}

// Max is an upper bound: characters for strings, kilobytes for files.
func Max(n int64) Constraint {
	return Constraint{Rule: RuleMax, Params: []string{strconv.FormatInt(n, 10)}}
}

// Mimes restricts uploads to the given file extensions.
func Mimes(exts ...string) Constraint { return Constraint{Rule: RuleMimes, Params: exts} }

// MimeTypes restricts uploads to the given media types; "image/*" matches any image.
func MimeTypes(types ...string) Constraint { return Constraint{Rule: RuleMimeTypes, Params: types} }

// ParseConstraints parses a Laravel pipe expression such as "required|file|max:2048".
func ParseConstraints(expr string) ([]Constraint, error) {
	var out []Constraint
	for _, part := range strings.Split(expr, "|") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, param, hasParam := strings.Cut(part, ":")
		c := Constraint{Rule: Rule(strings.TrimSpace(name))}
		if hasParam {
			c.Params = strings.Split(param, ",")
		}
		compiled, err := c.compile()
		if err != nil {
			return nil, err
		}
		out = append(out, compiled)
	}
	return out, nil
}

// ── RuleSet ──────────────────────────────────────────────────────────────────

// FieldRules binds an ordered list of constraints to one field.
type FieldRules struct {
	Field       string
	Constraints []Constraint
}

// Field declares the constraints for a field.
//
//	validation.Field("file", validation.Required(), validation.File())
func Field(name string, constraints ...Constraint) FieldRules {
	return FieldRules{Field: name, Constraints: constraints}
}

// Line pairs a field with a pipe expression, e.g. Line{"file", "required|file"}.
type Line struct {
	Field string
	Expr  string
}

// RuleSet is an ordered, immutable rule table. Build it once at startup.
type RuleSet struct {
	fields []FieldRules
}

// NewRuleSet validates and freezes a rule table. Field order is preserved.
func NewRuleSet(fields ...FieldRules) (RuleSet, error) {
	seen := make(map[string]bool, len(fields))
	out := make([]FieldRules, 0, len(fields))

	for _, fr := range fields {
		name := strings.TrimSpace(fr.Field)
		if name == "" {
			return RuleSet{}, ErrEmptyField
		}
		if seen[name] {
			return RuleSet{}, fmt.Errorf("%w: %q", ErrDuplicateField, name)
		}
		seen[name] = true

		cs := make([]Constraint, 0, len(fr.Constraints))
		for _, c := range fr.Constraints {
			compiled, err := c.compile()
			if err != nil {
				return RuleSet{}, fmt.Errorf("field %q: %w", name, err)
			}
			cs = append(cs, compiled)
		}
		out = append(out, FieldRules{Field: name, Constraints: cs})
	}
	return RuleSet{fields: out}, nil
}

// MustRuleSet is NewRuleSet for package-level tables; it panics on a bad table.
func MustRuleSet(fields ...FieldRules) RuleSet {
	rs, err := NewRuleSet(fields...)
	if err != nil {
		panic(err)
	}
	return rs
}

// Parse builds a RuleSet from ordered pipe-syntax lines.
//
//	rules, err := validation.Parse(
//	    validation.Line{Field: "name", Expr: "required"},
//	    validation.Line{Field: "file", Expr: "required|file"},
//	)
func Parse(lines ...Line) (RuleSet, error) {
	fields := make([]FieldRules, 0, len(lines))
	for _, l := range lines {
		cs, err := ParseConstraints(l.Expr)
		if err != nil {
			return RuleSet{}, fmt.Errorf("field %q: %w", l.Field, err)
		}
		fields = append(fields, Field(l.Field, cs...))
	}
	return NewRuleSet(fields...)
}

// Extend returns a copy of rs with extra constraints appended to field.
// The field is added at the end when it is not declared yet.
func (rs RuleSet) Extend(field string, constraints ...Constraint) (RuleSet, error) {
	fields := make([]FieldRules, 0, len(rs.fields)+1)
	found := false
	for _, fr := range rs.fields {
		cs := append([]Constraint(nil), fr.Constraints...)
		if fr.Field == field {
			cs = append(cs, constraints...)
			found = true
		}
		fields = append(fields, FieldRules{Field: fr.Field, Constraints: cs})
	}
	if !found {
		fields = append(fields, Field(field, constraints...))
	}
	return NewRuleSet(fields...)
}

// Fields returns the declared field names in order.
func (rs RuleSet) Fields() []string {
	out := make([]string, len(rs.fields))
	for i, fr := range rs.fields {
		out[i] = fr.Field
	}
	return out
}

// Constraints returns a copy of the constraints declared for field.
func (rs RuleSet) Constraints(field string) ([]Constraint, bool) {
	for _, fr := range rs.fields {
		if fr.Field == field {
			return append([]Constraint(nil), fr.Constraints...), true
		}
	}
	return nil, false
}

// Len returns the number of declared fields.
func (rs RuleSet) Len() int { return len(rs.fields) }

// String renders the table as "name=required; file=required|file".
func (rs RuleSet) String() string {
	parts := make([]string, len(rs.fields))
	for i, fr := range rs.fields {
		cs := make([]string, len(fr.Constraints))
		for j, c := range fr.Constraints {
			cs[j] = c.String()
		}
		parts[i] = fr.Field + "=" + strings.Join(cs, "|")
	}
	return strings.Join(parts, "; ")
}
