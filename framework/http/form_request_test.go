package http_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	gohttp "github.com/km-arc/go-uploads/framework/http"
	"github.com/km-arc/go-uploads/framework/http/validation"
)

type stubFormRequest struct {
	allow bool
}

func (s stubFormRequest) Authorize(*validation.Input) bool { return s.allow }

func (s stubFormRequest) Rules() validation.RuleSet {
	return validation.MustRuleSet(
		validation.Field("name", validation.Required()),
		validation.Field("file", validation.Required(), validation.File()),
	)
}

func TestValidateRequest_Accepted(t *testing.T) {
	r := newMultipartRequest(t, map[string]string{"name": "report", "junk": "x"}, map[string][]byte{"file": []byte("data")})
	rr := httptest.NewRecorder()

	in, release, ok := gohttp.ValidateRequest(rr, r, stubFormRequest{allow: true}, 0)
	if !ok {
		t.Fatalf("expected ok, got %d %s", rr.Code, rr.Body.String())
	}
	defer release()
	if in.Text("name") != "report" || in.File("file") == nil {
		t.Error("validated input lost fields")
	}
	if in.Has("junk") {
		t.Error("undeclared fields must be dropped")
	}
	if rr.Body.Len() != 0 {
		t.Error("nothing should be written on success")
	}
}

func TestValidateRequest_Rejected(t *testing.T) {
	r := newMultipartRequest(t, map[string]string{"file": "text"}, nil)
	rr := httptest.NewRecorder()

	if _, _, ok := gohttp.ValidateRequest(rr, r, stubFormRequest{allow: true}, 0); ok {
		t.Fatal("expected rejection")
	}
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("status: got %d want 422", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{"The name field is required.", "The file must be a file."} {
		if !strings.Contains(body, want) {
			t.Errorf("body %s should contain %q", body, want)
		}
	}
}

func TestValidateRequest_Forbidden(t *testing.T) {
	r := newMultipartRequest(t, map[string]string{"name": "x"}, nil)
	rr := httptest.NewRecorder()

	if _, _, ok := gohttp.ValidateRequest(rr, r, stubFormRequest{allow: false}, 0); ok {
		t.Fatal("expected rejection")
	}
	if rr.Code != http.StatusForbidden {
		t.Errorf("status: got %d want 403", rr.Code)
	}
}

func TestValidateRequest_MalformedBody(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{"))
	r.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	if _, _, ok := gohttp.ValidateRequest(rr, r, stubFormRequest{allow: true}, 0); ok {
		t.Fatal("expected rejection")
	}
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d want 400", rr.Code)
	}
}

// tempFiles lists multipart spill files in dir.
func tempFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Errorf("ReadDir: %v", err)
		return nil
	}
	var names []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "multipart-") {
			names = append(names, e.Name())
		}
	}
	return names
}

func TestValidateRequest_ReleaseRemovesSpilledFiles(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("TMPDIR", tmp)

	var spilled int
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Post("/files", func(w http.ResponseWriter, r *http.Request) {
		_, release, ok := gohttp.ValidateRequest(w, r, stubFormRequest{allow: true}, 1024)
		if !ok {
			return
		}
		defer release()
		spilled = len(tempFiles(t, tmp))
		w.WriteHeader(http.StatusCreated)
	})

	srv := httptest.NewServer(r)
	body, ct := multipartBody(t, map[string]string{"name": "big"}, map[string][]byte{"file": make([]byte, 64<<10)})
	resp, err := http.Post(srv.URL+"/files", ct, body)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	srv.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status: got %d want 201", resp.StatusCode)
	}
	if spilled == 0 {
		t.Fatal("upload should have spilled to a temp file")
	}
	if left := tempFiles(t, tmp); len(left) != 0 {
		t.Errorf("temp files left behind: %v", left)
	}
}

func TestValidateRequest_RejectedRemovesSpilledFiles(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("TMPDIR", tmp)

	r := newMultipartRequest(t, nil, map[string][]byte{"file": make([]byte, 64<<10)})
	rr := httptest.NewRecorder()

	if _, _, ok := gohttp.ValidateRequest(rr, r, stubFormRequest{allow: true}, 1024); ok {
		t.Fatal("expected rejection: name is missing")
	}
	if left := tempFiles(t, tmp); len(left) != 0 {
		t.Errorf("temp files left behind: %v", left)
	}
}
