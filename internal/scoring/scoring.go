// Package scoring turns judged answers into a percentage and a pass flag.
package scoring

import "github.com/abhisek/quizmentor/internal/quiz"

// Result is the outcome of scoring a completed session.
type Result struct {
	Correct int
	Total   int
	// Score is floor(100 * Correct / Total), in [0, 100].
	Score int
	// Passed is true only when every answer is correct.
	Passed bool
}

// Score computes the result for the given answers. No answers scores 0
// and does not pass.
func Score(answers []quiz.AnswerRecord) Result {
	r := Result{Total: len(answers)}
	for _, a := range answers {
		if a.Correct {
			r.Correct++
		}
	}
	if r.Total == 0 {
		return r
	}
	r.Score = 100 * r.Correct / r.Total
	r.Passed = r.Correct == r.Total
	return r
}

// Incorrect returns the answers that were judged wrong, in order.
func Incorrect(answers []quiz.AnswerRecord) []quiz.AnswerRecord {
	var out []quiz.AnswerRecord
	for _, a := range answers {
		if !a.Correct {
			out = append(out, a)
		}
	}
	return out
}
