package http

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/km-arc/go-uploads/framework/http/validation"
)

// FormRequest is an authorization policy plus a rule table for one endpoint.
//
//	// Laravel: class CreateFilesRequest extends FormRequest { authorize(); rules(); }
//	type CreateFiles struct{ ... }
//	func (r *CreateFiles) Authorize(in *validation.Input) bool { return true }
//	func (r *CreateFiles) Rules() validation.RuleSet          { return r.rules }
type FormRequest interface {
	Authorize(in *validation.Input) bool
	Rules() validation.RuleSet
}

// ValidateRequest parses r and runs fr against it. On any failure the
// response is written and ok is false:
//
//	400: the body could not be decoded
//	403: fr.Authorize said no
//	422: validation failed; body is the error bag
//
// On success it returns the sanitized input and a release func that removes
// the multipart temp files behind it. Call release once the files have been
// consumed:
//
//	in, release, ok := gohttp.ValidateRequest(w, r, c.gate, c.maxMemory)
//	if !ok {
//		return
//	}
//	defer release()
//
// r is usually a shallow copy made by middleware, so net/http never sees
// the parsed form and would leave the temp files behind.
func ValidateRequest(w http.ResponseWriter, r *http.Request, fr FormRequest, maxMemory int64) (in *validation.Input, release func(), ok bool) {
	release = func() { releaseForm(r) }
	in, ok = validateRequest(w, r, fr, maxMemory)
	if !ok {
		release()
		return nil, func() {}, false
	}
	return in, release, true
}

func releaseForm(r *http.Request) {
	if r.MultipartForm == nil {
		return
	}
	if err := r.MultipartForm.RemoveAll(); err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("remove multipart temp files")
	}
}

func validateRequest(w http.ResponseWriter, r *http.Request, fr FormRequest, maxMemory int64) (*validation.Input, bool) {
	res := NewResponse(w)
	log := zerolog.Ctx(r.Context())

	in, err := NewRequest(r).Parse(maxMemory)
	if err != nil {
		log.Debug().Err(err).Msg("request body rejected")
		status := http.StatusBadRequest
		if errors.Is(err, ErrBodyTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		res.Error(status, err.Error())
		return nil, false
	}

	if !fr.Authorize(in) {
		res.Forbidden()
		return nil, false
	}

	v := validation.Make(in, fr.Rules())
	if v.Fails() {
		log.Debug().Strs("fields", v.Errors().Keys()).Msg("validation failed")
		res.ValidationError(v.Errors())
		return nil, false
	}

	validated, _ := v.Validated()
	return validated, true
}
