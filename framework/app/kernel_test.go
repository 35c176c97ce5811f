package app_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/km-arc/go-uploads/framework/app"
	"github.com/km-arc/go-uploads/framework/config"
	"github.com/km-arc/go-uploads/framework/container"
)

func newApp(t *testing.T) *app.Application {
	t.Helper()
	cfg := config.Defaults()
	cfg.App.Env = "testing"
	cfg.App.Port = "0"
	cfg.Upload.MaxBodyMB = 1
	cfg.Log.Level = "error"
	return app.New(cfg)
}

type bootRecorder struct {
	container.BaseProvider
	booted bool
}

func (p *bootRecorder) Register(*container.Container) {}
func (p *bootRecorder) Boot(*container.Container)     { p.booted = true }

func TestApplication_Boot(t *testing.T) {
	a := newApp(t)
	rec := &bootRecorder{}
	a.Register(rec)
	a.Boot()

	if !rec.booted {
		t.Error("registered provider was not booted")
	}
	if a.Router() == nil {
		t.Error("router should be bound")
	}
}

func TestApplication_Server(t *testing.T) {
	a := newApp(t)
	a.Router().Post("/echo", func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 2<<20)
		for {
			if _, err := r.Body.Read(buf); err != nil {
				if strings.Contains(err.Error(), "too large") {
					w.WriteHeader(http.StatusRequestEntityTooLarge)
				}
				return
			}
		}
	})

	srv := a.Server()
	if srv.Addr != ":0" {
		t.Errorf("Addr: got %q want :0", srv.Addr)
	}
	if srv.ReadTimeout != 30*time.Second {
		t.Errorf("ReadTimeout: got %s", srv.ReadTimeout)
	}

	rr := httptest.NewRecorder()
	body := strings.NewReader(strings.Repeat("x", 2<<20))
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/echo", body))
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected the body cap to trip, got %d", rr.Code)
	}
}

func TestApplication_Run_StopsOnCancel(t *testing.T) {
	a := newApp(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if !a.Providers.Booted() {
		t.Error("Run should boot the application")
	}
}
