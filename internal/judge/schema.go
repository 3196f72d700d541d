package judge

import "github.com/abhisek/quizmentor/internal/llm"

// VerdictSchema is the only shape a judge reply is accepted in.
var VerdictSchema = &llm.Schema{
	Name:        "answer-verdict",
	Description: "Whether a student's free-text answer means the same as the reference answer",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"correct": map[string]any{
				"type":        "boolean",
				"description": "True when the answer is semantically equivalent to the reference answer",
			},
			"comment": map[string]any{
				"type":        "string",
				"description": "One or two sentences of feedback addressed to the student",
			},
		},
		"required":             []any{"correct", "comment"},
		"additionalProperties": false,
	},
}
