package client

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestAssets(t *testing.T) {
	for _, name := range []string{"live.js", "app.css"} {
		data, err := GetFile(name)
		if err != nil {
			t.Fatalf("Expected %s to be embedded: %v", name, err)
		}
		if len(data) == 0 {
			t.Errorf("%s is empty", name)
		}
	}
}

func TestHandler(t *testing.T) {
	h := http.StripPrefix("/_live/", Handler())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/_live/live.js", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "data-live-root") {
		t.Error("Unexpected live.js content")
	}
}
