package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/km-arc/go-uploads/framework/http/validation"
)

// DefaultMaxMemory is how much of a multipart body is kept in memory; the
// rest spills to temp files.
const DefaultMaxMemory = 32 << 20 // 32 MB

// ErrMalformedBody is returned by Parse when the body cannot be decoded.
// It is a 400, never a validation failure.
var ErrMalformedBody = errors.New("malformed request body")

// Request wraps *http.Request with Laravel-style helpers.
type Request struct {
	raw *http.Request
}

// NewRequest wraps a standard *http.Request.
func NewRequest(r *http.Request) *Request {
	return &Request{raw: r}
}

// Raw returns the underlying *http.Request.
func (req *Request) Raw() *http.Request { return req.raw }

// ── Parsing ──────────────────────────────────────────────────────────────────

// Parse decodes the body into an immutable validation.Input. Multipart,
// url-encoded and JSON bodies are supported; query values are merged in for
// form bodies the way Laravel's $request->all() does.
func (req *Request) Parse(maxMemory int64) (*validation.Input, error) {
	if maxMemory <= 0 {
		maxMemory = DefaultMaxMemory
	}
	authorized := req.Authorized()
	mt, _, _ := mime.ParseMediaType(req.ContentType())

	switch mt {
	case "multipart/form-data":
		if err := req.raw.ParseMultipartForm(maxMemory); err != nil {
			return nil, bodyError(err)
		}
		return validation.FromForm(&multipart.Form{
			Value: req.raw.Form,
			File:  req.raw.MultipartForm.File,
		}, authorized), nil

	case "application/json":
		return req.parseJSON(authorized)

	default:
		if err := req.raw.ParseForm(); err != nil {
			return nil, bodyError(err)
		}
		return validation.FromValues(req.raw.Form, authorized), nil
	}
}

// parseJSON maps a flat JSON object onto scalar values. Nested values are
// kept as their raw JSON text.
func (req *Request) parseJSON(authorized bool) (*validation.Input, error) {
	defer req.raw.Body.Close()
	body, err := io.ReadAll(req.raw.Body)
	if err != nil {
		return nil, bodyError(err)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty request body", ErrMalformedBody)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}

	values := make(map[string]validation.Value, len(raw))
	for k, msg := range raw {
		var s string
		switch {
		case string(msg) == "null":
			values[k] = validation.Null()
		case json.Unmarshal(msg, &s) == nil:
			values[k] = validation.Text(s)
		default:
			values[k] = validation.Text(string(msg))
		}
	}
	return validation.NewInput(values, authorized), nil
}

// bodyError maps a body read failure onto ErrBodyTooLarge or ErrMalformedBody.
func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return ErrBodyTooLarge
	}
	return fmt.Errorf("%w: %v", ErrMalformedBody, err)
}

// ── Authorization flag ───────────────────────────────────────────────────────

type authorizedKey struct{}

// MarkAuthorized returns r flagged as authorized. Auth middleware calls it
// so that form requests never reach into session state themselves.
func MarkAuthorized(r *http.Request) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), authorizedKey{}, true))
}

// Authorized reports whether upstream middleware marked the request.
func (req *Request) Authorized() bool {
	ok, _ := req.raw.Context().Value(authorizedKey{}).(bool)
	return ok
}

// ── Accessors ──────────────────────────────────────────────────────────────────

// RouteParam returns a URL route parameter (chi).
func (req *Request) RouteParam(key string) string {
	return chi.URLParam(req.raw, key)
}

// BearerToken extracts the token from Authorization: Bearer <token>.
func (req *Request) BearerToken() string {
	auth := req.raw.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// ContentType returns the Content-Type header value.
func (req *Request) ContentType() string {
	return req.raw.Header.Get("Content-Type")
}
