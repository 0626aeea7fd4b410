package api

import (
	"net/http/httptest"
	"strings"
	"testing"
)

type decodeTarget struct {
	Title string `json:"title"`
}

func TestDecodeJSON(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"title":"Dark mode"}`))
	var dst decodeTarget
	if err := DecodeJSON(req, &dst); err != nil {
		t.Fatalf("DecodeJSON failed: %v", err)
	}
	if dst.Title != "Dark mode" {
		t.Errorf("title = %q", dst.Title)
	}
}

func TestDecodeJSONErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty body", "", "request body is empty"},
		{"malformed", "{", "malformed JSON"},
		{"wrong type", `{"title": 5}`, "invalid value for field"},
		{"unknown field", `{"nope": "x"}`, "unknown field"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/", strings.NewReader(tt.body))
			var dst decodeTarget
			err := DecodeJSON(req, &dst)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.want)
			}
		})
	}
}

func TestParsePagination(t *testing.T) {
	req := httptest.NewRequest("GET", "/?page=3&per_page=20", nil)
	p := ParsePagination(req)
	if p.Page != 3 || p.PerPage != 20 {
		t.Errorf("unexpected params %+v", p)
	}
	if p.Offset() != 40 {
		t.Errorf("offset = %d, want 40", p.Offset())
	}
}

func TestParsePaginationDefaultsAndCaps(t *testing.T) {
	p := ParsePagination(httptest.NewRequest("GET", "/", nil))
	if p.Page != 1 || p.PerPage != 50 {
		t.Errorf("unexpected defaults %+v", p)
	}

	p = ParsePagination(httptest.NewRequest("GET", "/?per_page=9999&page=-1", nil))
	if p.PerPage != 200 {
		t.Errorf("per_page not capped: %d", p.PerPage)
	}
	if p.Page != 1 {
		t.Errorf("negative page not ignored: %d", p.Page)
	}
}
