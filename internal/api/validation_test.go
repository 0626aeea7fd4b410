package api

import "testing"

type sampleRequest struct {
	Title     string `validate:"required,min=3"`
	EventType string `validate:"omitempty,oneof=shown accepted"`
	TopK      int    `validate:"omitempty,gte=1,lte=10"`
}

func TestValidatePasses(t *testing.T) {
	if errs := Validate(sampleRequest{Title: "Dark mode", EventType: "shown", TopK: 3}); errs != nil {
		t.Errorf("expected no errors, got %v", errs)
	}
}

func TestValidateFieldErrors(t *testing.T) {
	errs := Validate(sampleRequest{Title: "", EventType: "bogus"})
	if errs == nil {
		t.Fatal("expected validation errors")
	}
	if _, ok := errs["title"]; !ok {
		t.Errorf("expected snake_case field key, got %v", errs)
	}
	if _, ok := errs["event_type"]; !ok {
		t.Errorf("expected event_type error, got %v", errs)
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := map[string]string{
		"Title":           "title",
		"EventType":       "event_type",
		"SimilarityFloor": "similarity_floor",
		"TopK":            "top_k",
	}
	for in, want := range tests {
		if got := toSnakeCase(in); got != want {
			t.Errorf("toSnakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}
