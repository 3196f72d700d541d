package llm

import (
	"math"
	"testing"
)

func TestLookupCost(t *testing.T) {
	if c := LookupCost("gpt-4o-mini"); c == nil {
		t.Fatal("expected pricing for gpt-4o-mini")
	}
	if c := LookupCost("openai/gpt-4o-mini"); c == nil {
		t.Fatal("expected vendor-prefixed id to resolve")
	}
	if c := LookupCost("mock"); c != nil {
		t.Fatalf("expected nil for unknown model, got %+v", c)
	}
}

func TestModelCost_Cost(t *testing.T) {
	c := ModelCost{InputPerMTok: 1, OutputPerMTok: 5}
	got := c.Cost(1_000_000, 200_000)
	if math.Abs(got-2.0) > 1e-9 {
		t.Fatalf("expected 2.0, got %f", got)
	}
}
