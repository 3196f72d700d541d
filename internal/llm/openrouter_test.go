package llm

import (
	"testing"
)

func TestNewOpenRouterProvider(t *testing.T) {
	tests := []struct {
		name    string
		cfg     OpenRouterConfig
		wantErr bool
		model   string
	}{
		{"missing key", OpenRouterConfig{Model: "openai/gpt-4o-mini"}, true, ""},
		{"default base URL", OpenRouterConfig{APIKey: "sk-or-test", Model: "openai/gpt-4o-mini"}, false, "openai/gpt-4o-mini"},
		{"vendor model passes through", OpenRouterConfig{APIKey: "sk-or-test", Model: "claude-haiku"}, false, "claude-haiku"},
		{"custom base URL", OpenRouterConfig{APIKey: "sk-or-test", Model: "x/y", BaseURL: "https://router.example/v1"}, false, "x/y"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewOpenRouterProvider(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.ModelID() != tt.model {
				t.Errorf("model = %q, want %q", p.ModelID(), tt.model)
			}
		})
	}
}
