// Package requests holds the form requests: per-endpoint authorization
// policy plus rule table, checked before a controller does any work.
package requests

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/km-arc/go-uploads/framework/config"
	"github.com/km-arc/go-uploads/framework/http/validation"
)

// createFilesRules is the upload table: a non-empty name and a real file.
var createFilesRules = validation.MustRuleSet(
	validation.Field("name", validation.Required()),
	validation.Field("file", validation.Required(), validation.File()),
)

// Policy decides whether a parsed request may attempt the operation.
type Policy func(in *validation.Input) bool

// AllowAll admits every request. Authentication, when configured, has
// already run in middleware by the time the policy is asked.
func AllowAll(*validation.Input) bool { return true }

// RequireAuthorized admits only requests marked by upstream auth middleware.
func RequireAuthorized(in *validation.Input) bool { return in.Authorized() }

// CreateFiles guards POST /api/files.
//
//	// Laravel: class CreateFilesRequest extends FormRequest
//	gate, err := requests.NewCreateFiles(requests.WithFileConstraints("max:10240|mimes:pdf"))
type CreateFiles struct {
	policy Policy
	rules  validation.RuleSet
}

// Option configures CreateFiles.
type Option func(*CreateFiles) error

// WithPolicy replaces the default AllowAll policy.
func WithPolicy(p Policy) Option {
	return func(c *CreateFiles) error {
		if p == nil {
			return fmt.Errorf("requests: nil policy")
		}
		c.policy = p
		return nil
	}
}

// WithFileConstraints appends pipe-syntax constraints to the file field,
// after required|file. An empty expression adds nothing.
func WithFileConstraints(expr string) Option {
	return func(c *CreateFiles) error {
		cs, err := validation.ParseConstraints(expr)
		if err != nil {
			return fmt.Errorf("requests: file constraints %q: %w", expr, err)
		}
		if len(cs) == 0 {
			return nil
		}
		rules, err := c.rules.Extend("file", cs...)
		if err != nil {
			return fmt.Errorf("requests: file constraints %q: %w", expr, err)
		}
		c.rules = rules
		return nil
	}
}

// NewCreateFiles builds the gate. Errors mean a bad option and should stop
// the process at startup.
func NewCreateFiles(opts ...Option) (*CreateFiles, error) {
	c := &CreateFiles{policy: AllowAll, rules: createFilesRules}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Authorize reports whether the caller may attempt an upload.
func (c *CreateFiles) Authorize(in *validation.Input) bool { return c.policy(in) }

// Rules returns the rule table.
func (c *CreateFiles) Rules() validation.RuleSet { return c.rules }

// Validate runs the rule table against in.
func (c *CreateFiles) Validate(in *validation.Input) validation.Outcome {
	return validation.Validate(in, c.rules)
}

// FileConstraints renders the extra file constraints configured by
// UPLOAD_MAX_KB and UPLOAD_MIMES as a pipe expression ("max:2048|mimes:pdf,png").
func FileConstraints(cfg config.UploadConfig) string {
	var parts []string
	if cfg.MaxKB > 0 {
		parts = append(parts, "max:"+strconv.FormatInt(cfg.MaxKB, 10))
	}
	if mimes := strings.Trim(strings.ReplaceAll(cfg.Mimes, " ", ""), ","); mimes != "" {
		parts = append(parts, "mimes:"+mimes)
	}
	return strings.Join(parts, "|")
}
