// Package providers wires the application services into the container.
package providers

import (
	"fmt"

	"github.com/km-arc/go-uploads/app/http/controllers"
	"github.com/km-arc/go-uploads/app/http/middleware"
	"github.com/km-arc/go-uploads/app/http/requests"
	"github.com/km-arc/go-uploads/app/metadata"
	"github.com/km-arc/go-uploads/app/storage"
	"github.com/km-arc/go-uploads/app/uploads"
	"github.com/km-arc/go-uploads/framework/app"
	"github.com/km-arc/go-uploads/framework/config"
	"github.com/km-arc/go-uploads/framework/container"
	"github.com/km-arc/go-uploads/framework/routing"
	"github.com/km-arc/go-uploads/routes"
)

// ── MetadataServiceProvider ───────────────────────────────────────────────────

// MetadataServiceProvider binds the metadata store selected by
// METADATA_DRIVER. It is deferred: the DynamoDB client is only built when a
// store is first needed.
//
// Bound abstracts:
//   - "metadata.store"  → metadata.Store
type MetadataServiceProvider struct {
	container.BaseProvider
}

func (p *MetadataServiceProvider) Register(app *container.Container) {
	app.Singleton("metadata.store", func(c *container.Container) any {
		cfg := container.Resolve[*config.Config](c, "config")
		if cfg.Metadata.Driver == "dynamodb" {
			return metadata.Store(metadata.NewDynamoStore(
				metadata.NewDynamoClient(cfg.AWS.Region), cfg.Metadata.Table,
			))
		}
		return metadata.Store(metadata.NewMemoryStore())
	})
}

func (p *MetadataServiceProvider) IsDeferred() bool   { return true }
func (p *MetadataServiceProvider) Provides() []string { return []string{"metadata.store"} }

// ── UploadServiceProvider ─────────────────────────────────────────────────────

// UploadServiceProvider binds the upload pipeline.
//
// Bound abstracts:
//   - "disk"                   → *storage.Disk
//   - "uploads"                → *uploads.Service
//   - "requests.create_files"  → *requests.CreateFiles
//   - "controllers.files"      → *controllers.FilesController
type UploadServiceProvider struct {
	container.BaseProvider
}

func (p *UploadServiceProvider) Register(app *container.Container) {
	app.Singleton("disk", func(c *container.Container) any {
		return storage.NewDisk(container.Resolve[*config.Config](c, "config").Upload.Disk)
	})
	app.Singleton("uploads", func(c *container.Container) any {
		return uploads.NewService(
			container.Resolve[*storage.Disk](c, "disk"),
			container.Resolve[metadata.Store](c, "metadata.store"),
		)
	})
	app.Singleton("requests.create_files", func(c *container.Container) any {
		gate, err := NewCreateFiles(container.Resolve[*config.Config](c, "config"))
		if err != nil {
			panic(err)
		}
		return gate
	})
	app.Singleton("controllers.files", func(c *container.Container) any {
		return controllers.NewFilesController(
			container.Resolve[*requests.CreateFiles](c, "requests.create_files"),
			container.Resolve[*uploads.Service](c, "uploads"),
			container.Resolve[*config.Config](c, "config").Upload.MaxMemory(),
		)
	})
}

// NewCreateFiles builds the upload gate from configuration: extra file
// constraints from UPLOAD_MAX_KB / UPLOAD_MIMES, and the RequireAuthorized
// policy when UPLOAD_TOKEN is set.
func NewCreateFiles(cfg *config.Config) (*requests.CreateFiles, error) {
	opts := []requests.Option{requests.WithFileConstraints(requests.FileConstraints(cfg.Upload))}
	if cfg.Upload.Token != "" {
		opts = append(opts, requests.WithPolicy(requests.RequireAuthorized))
	}
	gate, err := requests.NewCreateFiles(opts...)
	if err != nil {
		return nil, fmt.Errorf("upload gate: %w", err)
	}
	return gate, nil
}

// ── RouteServiceProvider ──────────────────────────────────────────────────────

// RouteServiceProvider loads the route table once everything is registered.
type RouteServiceProvider struct {
	container.BaseProvider
}

func (p *RouteServiceProvider) Register(*container.Container) {}

func (p *RouteServiceProvider) Boot(app *container.Container) {
	cfg := container.Resolve[*config.Config](app, "config")
	routes.API(
		container.Resolve[*routing.Router](app, "router"),
		container.Resolve[*controllers.FilesController](app, "controllers.files"),
		middleware.Bearer(cfg.Upload.Token),
	)
}

// Register adds the application providers to a.
func Register(a *app.Application) {
	a.Register(&MetadataServiceProvider{})
	a.Register(&UploadServiceProvider{})
	a.Register(&RouteServiceProvider{})
}
