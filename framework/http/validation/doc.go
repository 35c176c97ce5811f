// Package validation provides Laravel-compatible input validation for parsed
// HTTP requests, including file uploads.
//
// # Overview
//
// A RuleSet is an ordered table of fields and constraints, built once at
// startup. Validate interprets it against an Input (the parsed request) and
// returns an Outcome: accepted with the sanitized input, or rejected with
// every field error found.
//
// # Basic Usage
//
//	var uploadRules = validation.MustRuleSet(
//	    validation.Field("name", validation.Required()),
//	    validation.Field("file", validation.Required(), validation.File()),
//	)
//
//	out := validation.Validate(validation.FromForm(r.MultipartForm, true), uploadRules)
//	if !out.Accepted() {
//	    // out.Bag() serialises as {"message": "...", "errors": {"file": ["The file field is required."]}}
//	}
//
// The same table in Laravel's pipe syntax:
//
//	rules, err := validation.Parse(
//	    validation.Line{Field: "name", Expr: "required"},
//	    validation.Line{Field: "file", Expr: "required|file"},
//	)
//
// # Available Rules
//
//   - required: present and non-empty (blank strings and zero-byte uploads are empty)
//   - file: a single, successfully uploaded file
//   - nullable: a null value skips the remaining rules
//   - sometimes: an absent field skips the remaining rules
//   - string: a scalar, not an upload
//   - min:n: at least n characters, or n kilobytes for files
//   - max:n: at most n characters, or n kilobytes for files
//   - mimes:a,b: file extension in the list
//   - mimetypes:type/sub,type/*: declared media type in the list
//
// Unknown rules, malformed parameters and duplicate fields are reported by
// NewRuleSet and Parse; a request can never trigger them.
//
// # Evaluation
//
// Fields are checked in declaration order and errors accumulate across
// fields. Inside one field the first failure ends that field, so a missing
// upload reports "required" but not "file". Only required runs on an absent,
// null or blank value; a present upload, even a zero-byte one, is always
// checked.
package validation
