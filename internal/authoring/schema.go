package authoring

import "github.com/abhisek/quizmentor/internal/llm"

// TestSchema is the JSON schema for a generated test.
var TestSchema = &llm.Schema{
	Name:        "generated-test",
	Description: "Open-answer test questions with concise reference answers",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type":        "array",
				"description": "The test questions in the order they are asked",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"question": map[string]any{
							"type":        "string",
							"description": "A short open-answer question",
						},
						"answer": map[string]any{
							"type":        "string",
							"description": "The correct answer in one or two sentences",
						},
					},
					"required":             []any{"question", "answer"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"questions"},
		"additionalProperties": false,
	},
}
