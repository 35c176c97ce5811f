package validation

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"
)

// ── Errors ───────────────────────────────────────────────────────────────────

// ErrorKind classifies a field failure.
type ErrorKind string

const (
	MissingField        ErrorKind = "missing_field"
	InvalidFileType     ErrorKind = "invalid_file_type"
	ConstraintViolation ErrorKind = "constraint_violation"
)

// FieldError is one failed constraint on one field.
type FieldError struct {
	Field   string    `json:"field"`
	Rule    Rule      `json:"rule"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e FieldError) Error() string { return e.Message }

// Errors holds validation messages per field, mirroring Laravel's MessageBag.
// JSON output: {"message": "...", "errors": {"field": ["msg1", "msg2"]}}
type Errors struct {
	Bag   map[string][]string `json:"errors"`
	order []string
}

// Add appends a message for field.
func (e *Errors) Add(field, msg string) {
	if e.Bag == nil {
		e.Bag = make(map[string][]string)
	}
	if _, ok := e.Bag[field]; !ok {
		e.order = append(e.order, field)
	}
	e.Bag[field] = append(e.Bag[field], msg)
}

// Has returns true if there are any errors.
func (e *Errors) Has() bool { return len(e.Bag) > 0 }

// First returns the first error for a field.
func (e *Errors) First(field string) string {
	if msgs, ok := e.Bag[field]; ok && len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// Get returns every message for field.
func (e *Errors) Get(field string) []string { return append([]string(nil), e.Bag[field]...) }

// Keys returns the failing fields in the order they failed.
func (e *Errors) Keys() []string { return append([]string(nil), e.order...) }

// Count returns the total number of messages.
func (e *Errors) Count() int {
	n := 0
	for _, msgs := range e.Bag {
		n += len(msgs)
	}
	return n
}

// Message summarises the bag the way Laravel's ValidationException does:
// "The name field is required. (and 1 more error)".
func (e *Errors) Message() string {
	if !e.Has() {
		return ""
	}
	msg := e.First(e.order[0])
	switch rest := e.Count() - 1; {
	case rest == 1:
		msg += " (and 1 more error)"
	case rest > 1:
		msg += fmt.Sprintf(" (and %d more errors)", rest)
	}
	return msg
}

func (e *Errors) Error() string { return e.Message() }

func (e *Errors) MarshalJSON() ([]byte, error) {
	bag := e.Bag
	if bag == nil {
		bag = map[string][]string{}
	}
	return json.Marshal(struct {
		Message string              `json:"message"`
		Errors  map[string][]string `json:"errors"`
	}{e.Message(), bag})
}

// ── Outcome ──────────────────────────────────────────────────────────────────

// Outcome is the result of validating one Input: either accepted with the
// sanitized input, or rejected with every field error found.
type Outcome struct {
	input  *Input
	errors []FieldError
}

// Accepted reports whether no constraint failed.
func (o Outcome) Accepted() bool { return len(o.errors) == 0 }

// Input returns the sanitized input (declared fields only); nil when rejected.
func (o Outcome) Input() *Input { return o.input }

// Errors returns the field errors in rule-table order.
func (o Outcome) Errors() []FieldError { return append([]FieldError(nil), o.errors...) }

// Bag groups the errors by field.
func (o Outcome) Bag() *Errors {
	bag := &Errors{}
	for _, fe := range o.errors {
		bag.Add(fe.Field, fe.Message)
	}
	return bag
}

// Err returns the bag as an error when rejected, nil otherwise.
func (o Outcome) Err() error {
	if o.Accepted() {
		return nil
	}
	return o.Bag()
}

// ── Engine ───────────────────────────────────────────────────────────────────

// Validate checks in against rules. Every field is visited in table order;
// within a field the first failing constraint stops that field. Rules other
// than required are skipped for empty values; a present upload is never
// empty to them, so file still rejects a zero-byte or failed upload.
//
// Validate has no side effects and may be called concurrently.
func Validate(in *Input, rules RuleSet) Outcome {
	if in == nil {
		in = NewInput(nil, false)
	}

	var errs []FieldError
	for _, fr := range rules.fields {
		if fe, failed := checkField(in, fr); failed {
			errs = append(errs, fe)
		}
	}
	if len(errs) > 0 {
		return Outcome{errors: errs}
	}
	return Outcome{input: in.Only(rules.Fields()...)}
}

func checkField(in *Input, fr FieldRules) (FieldError, bool) {
	value := in.Get(fr.Field)

	for _, c := range fr.Constraints {
		switch c.Rule {
		case RuleSometimes:
			if !in.Has(fr.Field) {
				return FieldError{}, false
			}
			continue
		case RuleNullable:
			if value.IsNull() {
				return FieldError{}, false
			}
			continue
		}

		if !implicit(c.Rule) && skippable(value) {
			continue
		}
		if kind, msg, ok := apply(fr.Field, c, value); !ok {
			return FieldError{Field: fr.Field, Rule: c.Rule, Kind: kind, Message: msg}, true
		}
	}
	return FieldError{}, false
}

// implicit rules run even when the value is empty.
func implicit(r Rule) bool { return r == RuleRequired }

// skippable reports whether non-implicit rules should pass over v.
func skippable(v Value) bool {
	if _, ok := v.File(); ok {
		return false
	}
	return v.IsEmpty()
}

// apply evaluates one constraint and returns ok=false with a message on failure.
func apply(field string, c Constraint, v Value) (ErrorKind, string, bool) {
	switch c.Rule {
	case RuleRequired:
		if v.IsEmpty() {
			return MissingField, fmt.Sprintf("The %s field is required.", field), false
		}

	case RuleFile:
		f, isFile := v.File()
		if !isFile {
			return InvalidFileType, fmt.Sprintf("The %s must be a file.", field), false
		}
		if f.Err() != nil {
			return InvalidFileType, fmt.Sprintf("The %s failed to upload.", field), false
		}
		if !f.Valid() {
			return InvalidFileType, fmt.Sprintf("The %s must be a file.", field), false
		}

	case RuleString:
		if _, ok := v.Text(); !ok {
			return ConstraintViolation, fmt.Sprintf("The %s must be a string.", field), false
		}

	case RuleMin:
		size, unit := measure(v)
		if size < float64(c.n) {
			return ConstraintViolation, fmt.Sprintf("The %s must be at least %d %s.", field, c.n, unit), false
		}

	case RuleMax:
		size, unit := measure(v)
		if size > float64(c.n) {
			return ConstraintViolation, fmt.Sprintf("The %s may not be greater than %d %s.", field, c.n, unit), false
		}

	case RuleMimes:
		f, ok := v.File()
		if !ok || !contains(c.Params, f.Extension()) {
			return ConstraintViolation, fmt.Sprintf("The %s must be a file of type: %s.", field, strings.Join(c.Params, ", ")), false
		}

	case RuleMimeTypes:
		f, ok := v.File()
		if !ok || !matchMediaType(c.Params, f.MediaType()) {
			return ConstraintViolation, fmt.Sprintf("The %s must be a file of type: %s.", field, strings.Join(c.Params, ", ")), false
		}
	}

	return "", "", true
}

// measure sizes a value the way Laravel's size rules do: runes for strings,
// kilobytes for a file, element count for a list.
func measure(v Value) (float64, string) {
	if f, ok := v.File(); ok {
		return float64(f.Size) / 1024, "kilobytes"
	}
	if s, ok := v.Text(); ok {
		return float64(utf8.RuneCountInString(s)), "characters"
	}
	return float64(len(v.Files())), "items"
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func matchMediaType(allowed []string, mt string) bool {
	for _, a := range allowed {
		if a == mt {
			return true
		}
		if prefix, ok := strings.CutSuffix(a, "/*"); ok && strings.HasPrefix(mt, prefix+"/") {
			return true
		}
	}
	return false
}

// ── Validator ────────────────────────────────────────────────────────────────

// Validator is the Validator::make facade over Validate. The rules run once,
// on first use.
type Validator struct {
	input *Input
	rules RuleSet

	once    sync.Once
	outcome Outcome
}

// Make creates a new Validator, like Validator::make($data, $rules).
func Make(in *Input, rules RuleSet) *Validator {
	return &Validator{input: in, rules: rules}
}

// Outcome runs validation (once) and returns its result.
func (v *Validator) Outcome() Outcome {
	v.once.Do(func() { v.outcome = Validate(v.input, v.rules) })
	return v.outcome
}

// Fails returns true if any rule fails.
func (v *Validator) Fails() bool { return !v.Outcome().Accepted() }

// Passes returns true if all rules pass.
func (v *Validator) Passes() bool { return v.Outcome().Accepted() }

// Errors returns the validation error bag.
func (v *Validator) Errors() *Errors { return v.Outcome().Bag() }

// Validated returns the sanitized input, or the error bag.
func (v *Validator) Validated() (*Input, error) {
	o := v.Outcome()
	return o.Input(), o.Err()
}
