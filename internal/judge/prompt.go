package judge

import (
	"bytes"
	"text/template"
)

const systemPrompt = `You are a teacher grading a student's free-text answer to a test question.

Rules:
- Compare the student's answer with the reference answer by meaning, not by wording.
- Ignore spelling mistakes, letter case, punctuation and word order as long as the meaning is the same.
- An answer that is incomplete, contradicts the reference, or answers a different question is incorrect.
- An empty or evasive answer is incorrect.
- Keep the comment short, friendly and specific. Do not reveal the full reference answer when the student is wrong.`

var userTemplate = template.Must(template.New("judge").Parse(`Question: {{.Question}}
Reference answer: {{.Reference}}
Student answer: {{.Answer}}

Write the comment in {{.Language}}.`))

type promptInput struct {
	Question  string
	Reference string
	Answer    string
	Language  string
}

func buildUserMessage(in promptInput) (string, error) {
	var buf bytes.Buffer
	if err := userTemplate.Execute(&buf, in); err != nil {
		return "", err
	}
	return buf.String(), nil
}
