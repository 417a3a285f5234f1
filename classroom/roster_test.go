package classroom

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetchRoster(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/class/7" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("API") != "sekrit" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Write([]byte(`{"students":{"guest1__":{}}}`))
	}))
	defer srv.Close()

	body, err := FetchRoster(context.Background(), srv.Client(), srv.URL, 7, "sekrit")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if string(body) != `{"students":{"guest1__":{}}}` {
		t.Errorf("unexpected body: %s", body)
	}
}

func TestFetchRoster_BadKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	if _, err := FetchRoster(context.Background(), srv.Client(), srv.URL, 1, "wrong"); err == nil {
		t.Fatal("expected error on 403")
	}
}

func TestFetchRoster_NotJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>login</html>`))
	}))
	defer srv.Close()

	if _, err := FetchRoster(context.Background(), srv.Client(), srv.URL, 1, ""); err == nil {
		t.Fatal("expected error on non-JSON body")
	}
}
