// Package lambda serves the upload API from AWS Lambda behind an API Gateway
// REST proxy integration.
package lambda

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog"

	"github.com/km-arc/go-uploads/app/http/requests"
	"github.com/km-arc/go-uploads/app/metadata"
	"github.com/km-arc/go-uploads/app/uploads"
	gohttp "github.com/km-arc/go-uploads/framework/http"
)

// Handler answers API Gateway proxy events with the same semantics as the
// HTTP routes. Client faults become 4xx responses; the returned error is
// reserved for failures Lambda should retry or report.
type Handler struct {
	gate    *requests.CreateFiles
	uploads *uploads.Service
	token   string
	maxBody int64
	log     zerolog.Logger
}

// NewHandler builds a Handler. An empty token disables bearer auth; maxBody
// caps the decoded multipart body, and 0 falls back to
// gohttp.DefaultMaxMemory.
func NewHandler(gate *requests.CreateFiles, svc *uploads.Service, token string, maxBody int64, log zerolog.Logger) *Handler {
	return &Handler{gate: gate, uploads: svc, token: token, maxBody: maxBody, log: log}
}

// Handle dispatches one event by path segments, so it serves both a
// {proxy+} integration and per-resource routes:
//
//	GET    /health
//	POST   /api/files
//	GET    /api/files/{id}
//	DELETE /api/files/{id}
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	log := h.log.With().
		Str("request_id", req.RequestContext.RequestID).
		Str("method", req.HTTPMethod).
		Str("path", req.Path).
		Logger()
	ctx = log.WithContext(ctx)

	id, isFiles := filesPath(req.Path)

	var resp events.APIGatewayProxyResponse
	switch {
	case req.HTTPMethod == http.MethodGet && req.Path == "/health":
		resp = respond(http.StatusOK, gohttp.Envelope{"data": map[string]string{"status": "ok"}})
	case !isFiles:
		resp = failure(http.StatusNotFound, "Not found.")
	case !h.authenticated(req):
		resp = failure(http.StatusUnauthorized, "Unauthenticated.")
	case id == "" && req.HTTPMethod == http.MethodPost:
		resp = h.store(ctx, req)
	case id != "" && req.HTTPMethod == http.MethodGet:
		resp = h.show(ctx, id)
	case id != "" && req.HTTPMethod == http.MethodDelete:
		resp = h.destroy(ctx, id)
	default:
		resp = failure(http.StatusMethodNotAllowed, "Method not allowed.")
	}

	log.Info().Int("status", resp.StatusCode).Msg("API")
	return resp, nil
}

func (h *Handler) authenticated(req events.APIGatewayProxyRequest) bool {
	if h.token == "" {
		return true
	}
	r, _ := http.NewRequest(req.HTTPMethod, "/", nil)
	r.Header = headers(req)
	got := gohttp.NewRequest(r).BearerToken()
	return subtle.ConstantTimeCompare([]byte(got), []byte(h.token)) == 1
}

func (h *Handler) store(ctx context.Context, req events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	body, err := decodeBody(req)
	if err != nil {
		return failure(http.StatusBadRequest, gohttp.ErrMalformedBody.Error())
	}

	in, err := gohttp.ReadMultipart(bytes.NewReader(body), headers(req).Get("Content-Type"), h.maxBody, h.token != "")
	switch {
	case errors.Is(err, gohttp.ErrBodyTooLarge):
		return failure(http.StatusRequestEntityTooLarge, err.Error())
	case err != nil:
		return failure(http.StatusBadRequest, err.Error())
	}

	if !h.gate.Authorize(in) {
		return failure(http.StatusForbidden, "This action is unauthorized.")
	}
	out := h.gate.Validate(in)
	if !out.Accepted() {
		return respond(http.StatusUnprocessableEntity, out.Bag())
	}

	rec, err := h.uploads.Store(ctx, out.Input())
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("store upload")
		return failure(http.StatusInternalServerError, "Server Error.")
	}
	return respond(http.StatusCreated, gohttp.Envelope{"data": rec})
}

func (h *Handler) show(ctx context.Context, id string) events.APIGatewayProxyResponse {
	rec, err := h.uploads.Find(ctx, id)
	switch {
	case errors.Is(err, metadata.ErrNotFound):
		return failure(http.StatusNotFound, "File not found.")
	case err != nil:
		zerolog.Ctx(ctx).Error().Err(err).Str("file_id", id).Msg("find upload")
		return failure(http.StatusInternalServerError, "Server Error.")
	}
	return respond(http.StatusOK, gohttp.Envelope{"data": rec})
}

func (h *Handler) destroy(ctx context.Context, id string) events.APIGatewayProxyResponse {
	err := h.uploads.Delete(ctx, id)
	switch {
	case errors.Is(err, metadata.ErrNotFound):
		return failure(http.StatusNotFound, "File not found.")
	case err != nil:
		zerolog.Ctx(ctx).Error().Err(err).Str("file_id", id).Msg("delete upload")
		return failure(http.StatusInternalServerError, "Server Error.")
	}
	return events.APIGatewayProxyResponse{StatusCode: http.StatusNoContent}
}

// ── helpers ──────────────────────────────────────────────────────────────────

// filesPath matches /api/files and /api/files/{id}. It reports the member id
// ("" for the collection) and whether path is under the resource at all.
func filesPath(path string) (id string, ok bool) {
	segs := strings.Split(strings.Trim(path, "/"), "/")
	if len(segs) < 2 || len(segs) > 3 || segs[0] != "api" || segs[1] != "files" {
		return "", false
	}
	if len(segs) == 3 {
		return segs[2], true
	}
	return "", true
}

// headers merges single and multi-value headers under canonical keys.
func headers(req events.APIGatewayProxyRequest) http.Header {
	h := make(http.Header, len(req.Headers))
	for k, vs := range req.MultiValueHeaders {
		for _, v := range vs {
			h.Add(k, v)
		}
	}
	for k, v := range req.Headers {
		if h.Get(k) == "" {
			h.Set(k, v)
		}
	}
	return h
}

func decodeBody(req events.APIGatewayProxyRequest) ([]byte, error) {
	if req.IsBase64Encoded {
		return base64.StdEncoding.DecodeString(req.Body)
	}
	return []byte(req.Body), nil
}

func failure(status int, message string) events.APIGatewayProxyResponse {
	return respond(status, gohttp.Envelope{"message": message})
}

func respond(status int, v any) events.APIGatewayProxyResponse {
	body, err := json.Marshal(v)
	if err != nil {
		status, body = http.StatusInternalServerError, []byte(`{"message":"Server Error."}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}
}
