// Package controllers holds the HTTP controllers.
package controllers

import (
	"net/http"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/km-arc/go-uploads/app/http/requests"
	"github.com/km-arc/go-uploads/app/metadata"
	"github.com/km-arc/go-uploads/app/uploads"
	"github.com/km-arc/go-uploads/framework/app"
	gohttp "github.com/km-arc/go-uploads/framework/http"
)

// FilesController serves /api/files.
type FilesController struct {
	app.Controller

	gate      *requests.CreateFiles
	uploads   *uploads.Service
	maxMemory int64
}

// NewFilesController wires the controller. maxMemory bounds how much of a
// multipart body is held in memory before spilling to temp files.
func NewFilesController(gate *requests.CreateFiles, svc *uploads.Service, maxMemory int64) *FilesController {
	return &FilesController{gate: gate, uploads: svc, maxMemory: maxMemory}
}

// Store handles POST /api/files.
//
//	201 {"data": Record}
//	400 malformed body
//	403 policy denied
//	422 {"message": ..., "errors": {field: [...]}}
func (c *FilesController) Store(w http.ResponseWriter, r *http.Request) {
	in, release, ok := gohttp.ValidateRequest(w, r, c.gate, c.maxMemory)
	if !ok {
		return
	}
	defer release()

	rec, err := c.uploads.Store(r.Context(), in)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("store upload")
		c.Response(w).ServerError()
		return
	}
	c.Response(w).Created(rec)
}

// Show handles GET /api/files/{id}.
func (c *FilesController) Show(w http.ResponseWriter, r *http.Request) {
	id := c.Request(r).RouteParam("id")

	rec, err := c.uploads.Find(r.Context(), id)
	switch {
	case errors.Is(err, metadata.ErrNotFound):
		c.Response(w).NotFound("File not found.")
	case err != nil:
		zerolog.Ctx(r.Context()).Error().Err(err).Str("file_id", id).Msg("find upload")
		c.Response(w).ServerError()
	default:
		c.Response(w).Success(rec)
	}
}

// Destroy handles DELETE /api/files/{id}: 204, or 404 for an unknown id.
func (c *FilesController) Destroy(w http.ResponseWriter, r *http.Request) {
	id := c.Request(r).RouteParam("id")

	err := c.uploads.Delete(r.Context(), id)
	switch {
	case errors.Is(err, metadata.ErrNotFound):
		c.Response(w).NotFound("File not found.")
	case err != nil:
		zerolog.Ctx(r.Context()).Error().Err(err).Str("file_id", id).Msg("delete upload")
		c.Response(w).ServerError()
	default:
		c.Response(w).NoContent()
	}
}

// Health handles GET /health.
func Health(w http.ResponseWriter, _ *http.Request) {
	gohttp.NewResponse(w).Success(map[string]string{"status": "ok"})
}
