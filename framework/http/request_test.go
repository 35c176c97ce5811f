package http_test

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	gohttp "github.com/km-arc/go-uploads/framework/http"
)

// ── helpers ──────────────────────────────────────────────────────────────────

func newJSONRequest(t *testing.T, body string) *gohttp.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return gohttp.NewRequest(req)
}

func newFormRequest(t *testing.T, values url.Values) *gohttp.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return gohttp.NewRequest(req)
}

// multipartBody builds a multipart body from text fields and file parts.
func multipartBody(t *testing.T, fields map[string]string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	for k, data := range files {
		fw, err := w.CreateFormFile(k, k+".pdf")
		if err != nil {
			t.Fatal(err)
		}
		_, _ = fw.Write(data)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, w.FormDataContentType()
}

func newMultipartRequest(t *testing.T, fields map[string]string, files map[string][]byte) *http.Request {
	t.Helper()
	body, ct := multipartBody(t, fields, files)
	r := httptest.NewRequest(http.MethodPost, "/files", body)
	r.Header.Set("Content-Type", ct)
	return r
}

// ── Parse ─────────────────────────────────────────────────────────────────────

func TestRequest_Parse_Multipart(t *testing.T) {
	r := newMultipartRequest(t,
		map[string]string{"name": "report"},
		map[string][]byte{"file": []byte("%PDF-1.7")},
	)

	in, err := gohttp.NewRequest(r).Parse(0)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := in.Text("name"); got != "report" {
		t.Errorf("name: got %q want report", got)
	}
	f := in.File("file")
	if f == nil {
		t.Fatal("file: expected an upload")
	}
	if f.Filename != "file.pdf" || f.Size != 8 || !f.Valid() {
		t.Errorf("file: unexpected handle %+v", f)
	}
	if in.Authorized() {
		t.Error("request was not marked authorized")
	}
}

func TestRequest_Parse_MultipartMergesQuery(t *testing.T) {
	body, ct := multipartBody(t, map[string]string{"name": "report"}, nil)
	r := httptest.NewRequest(http.MethodPost, "/files?folder=inbox", body)
	r.Header.Set("Content-Type", ct)

	in, err := gohttp.NewRequest(r).Parse(0)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if in.Text("folder") != "inbox" {
		t.Errorf("folder: got %q want inbox", in.Text("folder"))
	}
}

func TestRequest_Parse_MultipartFileAsText(t *testing.T) {
	r := newMultipartRequest(t, map[string]string{"file": "just text"}, nil)

	in, err := gohttp.NewRequest(r).Parse(0)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, ok := in.Get("file").File(); ok {
		t.Error("a text part must not become an upload")
	}
	if in.Text("file") != "just text" {
		t.Errorf("file text: got %q", in.Text("file"))
	}
}

func TestRequest_Parse_ContentTypeCase(t *testing.T) {
	body, ct := multipartBody(t, map[string]string{"name": "report"}, map[string][]byte{"file": []byte("data")})
	r := httptest.NewRequest(http.MethodPost, "/", body)
	r.Header.Set("Content-Type", strings.Replace(ct, "multipart/form-data", "Multipart/Form-Data", 1))

	in, err := gohttp.NewRequest(r).Parse(0)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if in.Text("name") != "report" || in.File("file") == nil {
		t.Error("mixed-case multipart content type should still be decoded")
	}

	jr := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Alice"}`))
	jr.Header.Set("Content-Type", "Application/JSON; charset=utf-8")
	in, err = gohttp.NewRequest(jr).Parse(0)
	if err != nil {
		t.Fatalf("Parse JSON: %v", err)
	}
	if in.Text("name") != "Alice" {
		t.Errorf("name: got %q want Alice", in.Text("name"))
	}
}

func TestRequest_Parse_MalformedMultipart(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("garbage"))
	r.Header.Set("Content-Type", "multipart/form-data")

	_, err := gohttp.NewRequest(r).Parse(0)
	if !errors.Is(err, gohttp.ErrMalformedBody) {
		t.Errorf("expected ErrMalformedBody, got %v", err)
	}
}

func TestRequest_Parse_TooLarge(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"`+strings.Repeat("x", 4096)+`"}`))
	r.Header.Set("Content-Type", "application/json")
	r.Body = http.MaxBytesReader(httptest.NewRecorder(), r.Body, 100)

	_, err := gohttp.NewRequest(r).Parse(0)
	if !errors.Is(err, gohttp.ErrBodyTooLarge) {
		t.Errorf("expected ErrBodyTooLarge, got %v", err)
	}
}

func TestRequest_Parse_JSON(t *testing.T) {
	in, err := newJSONRequest(t, `{"name":"Alice","age":30,"bio":null}`).Parse(0)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if in.Text("name") != "Alice" {
		t.Errorf("name: got %q", in.Text("name"))
	}
	if in.Text("age") != "30" {
		t.Errorf("age: got %q", in.Text("age"))
	}
	if !in.Has("bio") || !in.Get("bio").IsNull() {
		t.Error("bio should be present and null")
	}
}

func TestRequest_Parse_JSON_Invalid(t *testing.T) {
	for _, body := range []string{"", "{bad json}", "[1,2]"} {
		if _, err := newJSONRequest(t, body).Parse(0); !errors.Is(err, gohttp.ErrMalformedBody) {
			t.Errorf("body %q: expected ErrMalformedBody, got %v", body, err)
		}
	}
}

func TestRequest_Parse_Form(t *testing.T) {
	in, err := newFormRequest(t, url.Values{"name": {"Bob", "ignored"}}).Parse(0)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if in.Text("name") != "Bob" {
		t.Errorf("name: got %q want Bob", in.Text("name"))
	}
}

func TestRequest_Parse_Authorized(t *testing.T) {
	r := gohttp.MarkAuthorized(newMultipartRequest(t, map[string]string{"name": "x"}, nil))

	in, err := gohttp.NewRequest(r).Parse(0)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !in.Authorized() {
		t.Error("expected the authorized flag to reach the input")
	}
}

// ── Auth / Params ───────────────────────────────────────────────────

func TestRequest_BearerToken(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer my-secret-token")

	if got := gohttp.NewRequest(r).BearerToken(); got != "my-secret-token" {
		t.Errorf("BearerToken: got %q want %q", got, "my-secret-token")
	}
	if got := gohttp.NewRequest(httptest.NewRequest(http.MethodGet, "/", nil)).BearerToken(); got != "" {
		t.Errorf("BearerToken should be empty, got %q", got)
	}
}

func TestRequest_RouteParam(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/files/abc", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "abc")
	r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))

	if got := gohttp.NewRequest(r).RouteParam("id"); got != "abc" {
		t.Errorf("RouteParam: got %q want abc", got)
	}
}
