package factory

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestHTTPFactoryNewConn(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/healthz" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewHTTPFactory(srv.URL, "/healthz")

	c, err := f.NewConn()
	if err != nil {
		t.Fatalf("NewConn returned error: %v", err)
	}

	hc, ok := c.(*HTTPConn)
	if !ok {
		t.Fatalf("expected *HTTPConn, got %T", c)
	}
	if hc.Client() == nil {
		t.Error("expected non-nil resty client")
	}
	if !c.TestConn() {
		t.Error("expected healthy connection while the backend responds 200")
	}
}

func TestHTTPFactoryNewConnUnhealthyBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := NewHTTPFactory(srv.URL, "/healthz")

	if _, err := f.NewConn(); err == nil {
		t.Fatal("expected error when the backend health check fails")
	}
}

func TestHTTPConnTestConnTracksBackend(t *testing.T) {
	var broken atomic.Bool

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if broken.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	f := NewHTTPFactory(srv.URL, "/healthz")

	c, err := f.NewConn()
	if err != nil {
		t.Fatalf("NewConn returned error: %v", err)
	}

	if !c.TestConn() {
		t.Error("expected healthy connection")
	}

	broken.Store(true)

	if c.TestConn() {
		t.Error("expected unhealthy connection after the backend broke")
	}
}

func TestStaticFactory(t *testing.T) {
	f := NewStaticFactory()

	c1, err := f.NewConn()
	if err != nil {
		t.Fatalf("NewConn returned error: %v", err)
	}
	c2, err := f.NewConn()
	if err != nil {
		t.Fatalf("NewConn returned error: %v", err)
	}

	if !c1.TestConn() || !c2.TestConn() {
		t.Error("static connections must always be healthy")
	}
	if c1 == c2 {
		t.Error("expected distinct connection instances")
	}
}
