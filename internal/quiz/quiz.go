// Package quiz holds the domain types shared by the assessment engine,
// its persistence layer and its transports.
package quiz

import (
	"fmt"
	"strings"
	"time"
)

// Role distinguishes test takers from test authors.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

// User is a participant known to the user directory.
type User struct {
	ID        int64
	FullName  string
	Role      Role
	CreatedAt time.Time
}

// Registered reports whether the user has completed registration.
func (u User) Registered() bool {
	return u.FullName != ""
}

// NormalizeFullName collapses whitespace and requires at least a first
// and a last name.
func NormalizeFullName(s string) (string, error) {
	parts := strings.Fields(s)
	if len(parts) < 2 {
		return "", fmt.Errorf("full name must contain at least two words")
	}
	return strings.Join(parts, " "), nil
}

// Topic is a subject area that owns test definitions.
type Topic struct {
	ID        int64
	Title     string
	CreatedAt time.Time
}

// Question is one open-answer item of a test.
type Question struct {
	Prompt    string `json:"q"`
	Reference string `json:"a"`
}

// TestDefinition is an immutable ordered list of questions for a topic.
type TestDefinition struct {
	ID        int64
	TopicID   int64
	Questions []Question
	CreatedAt time.Time
}

// Validate rejects definitions a session could not be run against.
func (d TestDefinition) Validate() error {
	if len(d.Questions) == 0 {
		return fmt.Errorf("test definition has no questions")
	}
	for i, q := range d.Questions {
		if strings.TrimSpace(q.Prompt) == "" {
			return fmt.Errorf("question %d has an empty prompt", i+1)
		}
		if strings.TrimSpace(q.Reference) == "" {
			return fmt.Errorf("question %d has an empty reference answer", i+1)
		}
	}
	return nil
}

// AnswerRecord is the judged outcome of one submitted answer.
type AnswerRecord struct {
	Prompt    string `json:"question"`
	Reference string `json:"reference"`
	Answer    string `json:"answer"`
	Correct   bool   `json:"correct"`
	Comment   string `json:"comment"`
}

// ProgressRecord is the durable result of a completed session.
type ProgressRecord struct {
	// ID is generated when the session completes and makes appends idempotent.
	ID          string
	UserID      int64
	TopicID     int64
	TestID      int64
	Answers     []AnswerRecord
	Score       int
	Passed      bool
	CompletedAt time.Time
}

// Result is a ProgressRecord joined with what a report needs to show it.
type Result struct {
	ProgressRecord
	FullName   string
	TopicTitle string
}
