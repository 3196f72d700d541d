package llm

import (
	"testing"
)

func TestGeminiModelMapping(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"gemini-flash", "gemini-2.0-flash"},
		{"gemini-pro", "gemini-2.0-pro"},
		{"gemini-2.5-flash", "gemini-2.5-flash"},
	}
	for _, tt := range tests {
		if got := resolveModel(tt.input, geminiModels); got != tt.expected {
			t.Errorf("resolveModel(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestBuildGeminiSchema_FollowupList(t *testing.T) {
	def := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type":     "array",
				"items":    map[string]any{"type": "string"},
				"minItems": 1,
				"maxItems": 5,
			},
			"tone": map[string]any{"type": "string", "enum": []any{"formal", "casual"}},
		},
		"required": []any{"questions"},
	}

	schema := buildGeminiSchema(def)

	if schema.Type != "OBJECT" {
		t.Fatalf("expected OBJECT type, got %s", schema.Type)
	}
	q := schema.Properties["questions"]
	if q == nil || q.Type != "ARRAY" {
		t.Fatalf("expected ARRAY for questions, got %+v", q)
	}
	if q.Items.Type != "STRING" {
		t.Fatalf("expected STRING items, got %s", q.Items.Type)
	}
	if q.MinItems == nil || *q.MinItems != 1 {
		t.Fatalf("expected minItems 1, got %v", q.MinItems)
	}
	if q.MaxItems == nil || *q.MaxItems != 5 {
		t.Fatalf("expected maxItems 5, got %v", q.MaxItems)
	}
	if len(schema.Properties["tone"].Enum) != 2 {
		t.Fatalf("expected 2 enum values, got %d", len(schema.Properties["tone"].Enum))
	}
	if len(schema.Required) != 1 || schema.Required[0] != "questions" {
		t.Fatalf("unexpected required: %v", schema.Required)
	}
}
