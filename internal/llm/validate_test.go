package llm

import (
	"encoding/json"
	"errors"
	"testing"
)

func followupSchema() *Schema {
	return &Schema{
		Name: "test-followups",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"questions": map[string]any{
					"type":     "array",
					"items":    map[string]any{"type": "string", "minLength": 1},
					"minItems": 1,
					"maxItems": 5,
				},
			},
			"required":             []any{"questions"},
			"additionalProperties": false,
		},
	}
}

func TestValidateResponse(t *testing.T) {
	tests := []struct {
		name    string
		schema  *Schema
		raw     string
		wantErr bool
	}{
		{"verdict ok", verdictSchema(), `{"correct":true,"comment":"fine"}`, false},
		{"verdict missing comment", verdictSchema(), `{"correct":true}`, true},
		{"verdict wrong type", verdictSchema(), `{"correct":"true","comment":""}`, true},
		{"verdict extra field", verdictSchema(), `{"correct":true,"comment":"","score":3}`, true},
		{"malformed json", verdictSchema(), `{not json}`, true},
		{"empty body", verdictSchema(), ``, true},
		{"followups ok", followupSchema(), `{"questions":["a","b"]}`, false},
		{"followups empty list", followupSchema(), `{"questions":[]}`, true},
		{"followups too many", followupSchema(), `{"questions":["1","2","3","4","5","6"]}`, true},
		{"followups blank entry", followupSchema(), `{"questions":[""]}`, true},
		{"followups bare array", followupSchema(), `["a","b"]`, true},
		{"nil schema accepts anything", nil, `{"anything":"goes"}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateResponse(tt.schema, json.RawMessage(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("validateResponse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var inv *ErrInvalidResponse
				if !errors.As(err, &inv) {
					t.Fatalf("expected ErrInvalidResponse, got %T", err)
				}
			}
		})
	}
}

func TestValidateResponse_CachesCompiledSchema(t *testing.T) {
	s := verdictSchema()
	if err := validateResponse(s, json.RawMessage(`{"correct":false,"comment":"x"}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := schemaCache.Load(s.Name); !ok {
		t.Fatal("expected compiled schema to be cached")
	}
}
