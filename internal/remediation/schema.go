package remediation

import (
	"fmt"
	"sync"

	"github.com/abhisek/quizmentor/internal/llm"
)

var followupSchemas sync.Map // int -> *llm.Schema

// FollowupSchema is the shape follow-up replies must have: between one and
// count questions. Schemas are cached per count because validators are
// compiled once per schema name.
func FollowupSchema(count int) *llm.Schema {
	if s, ok := followupSchemas.Load(count); ok {
		return s.(*llm.Schema)
	}
	s := &llm.Schema{
		Name:        fmt.Sprintf("followup-questions-%d", count),
		Description: "Short follow-up questions that target the gap revealed by a wrong answer",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"questions": map[string]any{
					"type":        "array",
					"description": "Follow-up questions, most fundamental first",
					"items":       map[string]any{"type": "string"},
					"minItems":    1,
					"maxItems":    count,
				},
			},
			"required":             []any{"questions"},
			"additionalProperties": false,
		},
	}
	actual, _ := followupSchemas.LoadOrStore(count, s)
	return actual.(*llm.Schema)
}
