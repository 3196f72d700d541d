package session

import (
	"fmt"
	"strings"

	"github.com/abhisek/quizmentor/internal/quiz"
	"github.com/abhisek/quizmentor/internal/remediation"
	"github.com/abhisek/quizmentor/internal/scoring"
)

// Summary is the outcome of a completed session as shown to the student.
type Summary struct {
	RecordID string
	Topic    quiz.Topic
	Result   scoring.Result
	Answers  []quiz.AnswerRecord

	// Remediation has one entry per incorrect answer. It is empty when the
	// student passed.
	Remediation remediation.Plan

	// Provisional is set when the result has not been stored yet.
	Provisional bool
}

// Text renders the summary as a plain-text message.
func (s *Summary) Text() string {
	var b strings.Builder

	if s.Result.Passed {
		fmt.Fprintf(&b, "All answers are correct. Well done, you can move on to the next topic. Score: %d%%", s.Result.Score)
	} else {
		fmt.Fprintf(&b, "Some answers contain mistakes. Score: %d%%.", s.Result.Score)
		if len(s.Remediation) > 0 {
			b.WriteString(" Follow-up questions were prepared for each mistake:\n")
		}
		for _, e := range s.Remediation {
			fmt.Fprintf(&b, "\nMistake in question: %s\n", e.Question)
			if len(e.Followups) == 0 {
				b.WriteString("   (no follow-up questions available)\n")
				continue
			}
			for i, q := range e.Followups {
				fmt.Fprintf(&b, "   %d. %s\n", i+1, q)
			}
		}
	}

	if s.Provisional {
		b.WriteString("\n\nYour result could not be saved yet and will be saved automatically. This summary is provisional.")
	}

	return strings.TrimRight(b.String(), "\n")
}
