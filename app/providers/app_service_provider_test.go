package providers_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-uploads/app/http/requests"
	"github.com/km-arc/go-uploads/app/metadata"
	"github.com/km-arc/go-uploads/app/providers"
	"github.com/km-arc/go-uploads/framework/app"
	"github.com/km-arc/go-uploads/framework/config"
	"github.com/km-arc/go-uploads/framework/container"
	"github.com/km-arc/go-uploads/framework/http/validation"
)

func boot(t *testing.T, mutate func(*config.Config)) *app.Application {
	t.Helper()
	cfg := config.Defaults()
	cfg.App.Env = "testing"
	cfg.Log.Level = "error"
	cfg.Upload.Disk = t.TempDir()
	if mutate != nil {
		mutate(cfg)
	}
	a := app.New(cfg)
	providers.Register(a)
	a.Boot()
	return a
}

func uploadRequest(t *testing.T, token string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("name", "report"))
	fw, err := w.CreateFormFile("file", "report.pdf")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("%PDF"))
	require.NoError(t, w.Close())

	r := httptest.NewRequest(http.MethodPost, "/api/files", &buf)
	r.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return r
}

func serve(a *app.Application, r *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	a.Server().Handler.ServeHTTP(rr, r)
	return rr
}

func TestRegister_Routes(t *testing.T) {
	a := boot(t, nil)

	assert.Equal(t, http.StatusOK, serve(a, httptest.NewRequest(http.MethodGet, "/health", nil)).Code)
	assert.Equal(t, http.StatusCreated, serve(a, uploadRequest(t, "")).Code)
	assert.Equal(t, http.StatusNotFound, serve(a, httptest.NewRequest(http.MethodGet, "/api/files/missing", nil)).Code)
}

func TestRegister_Routes_Lifecycle(t *testing.T) {
	a := boot(t, nil)

	rr := serve(a, uploadRequest(t, ""))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var created struct {
		Data metadata.Record `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&created))
	member := "/api/files/" + created.Data.FileID

	assert.Equal(t, http.StatusOK, serve(a, httptest.NewRequest(http.MethodGet, member, nil)).Code)
	assert.Equal(t, http.StatusNoContent, serve(a, httptest.NewRequest(http.MethodDelete, member, nil)).Code)
	assert.Equal(t, http.StatusNotFound, serve(a, httptest.NewRequest(http.MethodGet, member, nil)).Code)
	assert.Equal(t, http.StatusNotFound, serve(a, httptest.NewRequest(http.MethodDelete, member, nil)).Code)
}

func TestRegister_BearerGuard(t *testing.T) {
	a := boot(t, func(c *config.Config) { c.Upload.Token = "s3cret" })

	assert.Equal(t, http.StatusUnauthorized, serve(a, uploadRequest(t, "")).Code)
	assert.Equal(t, http.StatusCreated, serve(a, uploadRequest(t, "s3cret")).Code)
}

func TestRegister_MetadataStoreIsDeferred(t *testing.T) {
	cfg := config.Defaults()
	a := app.New(cfg)
	a.Register(&providers.MetadataServiceProvider{})
	a.Boot()

	store := container.Resolve[metadata.Store](a.Container, "metadata.store")
	assert.IsType(t, &metadata.MemoryStore{}, store)
}

func TestRegister_DynamoDriver(t *testing.T) {
	a := boot(t, func(c *config.Config) {
		c.Metadata.Driver = "dynamodb"
		c.Metadata.Table = "FileUploads"
		c.AWS.Region = "eu-west-1"
	})

	store := container.Resolve[metadata.Store](a.Container, "metadata.store")
	assert.IsType(t, &metadata.DynamoStore{}, store)
}

func TestNewCreateFiles(t *testing.T) {
	cfg := config.Defaults()
	cfg.Upload.MaxKB = 2048
	cfg.Upload.Mimes = "pdf"
	cfg.Upload.Token = "s3cret"

	gate, err := providers.NewCreateFiles(cfg)
	require.NoError(t, err)
	assert.Equal(t, "name=required; file=required|file|max:2048|mimes:pdf", gate.Rules().String())
	assert.False(t, gate.Authorize(validation.NewInput(nil, false)), "token-guarded gates require an authorized input")

	cfg.Upload.Mimes = "pdf,,"
	cfg.Upload.MaxKB = 0
	_, err = providers.NewCreateFiles(cfg)
	require.NoError(t, err)

	_, err = requests.NewCreateFiles(requests.WithFileConstraints("mimes:"))
	assert.Error(t, err)
}
