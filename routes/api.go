// Package routes declares the HTTP route table (routes/api.php).
package routes

import (
	"net/http"

	"github.com/km-arc/go-uploads/app/http/controllers"
	"github.com/km-arc/go-uploads/framework/routing"
)

// API registers:
//
//	GET    /health
//	POST   /api/files      (guarded)
//	GET    /api/files/{id} (guarded)
//	DELETE /api/files/{id} (guarded)
func API(r *routing.Router, files *controllers.FilesController, guard func(http.Handler) http.Handler) {
	r.Get("/health", controllers.Health)

	r.Prefix("/api", func(api *routing.Router) {
		api.Middleware(guard)
		api.Post("/files", files.Store)
		api.Get("/files/{id}", files.Show)
		api.Delete("/files/{id}", files.Destroy)
	})
}
