// Package remediation builds the follow-up questions shown to a student
// for every answer judged incorrect.
package remediation

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/abhisek/quizmentor/internal/quiz"
)

// Entry holds the follow-ups for one incorrect answer.
type Entry struct {
	Question  string
	Answer    string
	Followups []string

	// Degraded is set when generation failed and Followups is empty
	// for that reason.
	Degraded bool
}

// Plan lists entries in the order the questions were asked.
type Plan []Entry

// ByQuestion indexes the plan by question prompt.
func (p Plan) ByQuestion() map[string][]string {
	m := make(map[string][]string, len(p))
	for _, e := range p {
		m[e.Question] = e.Followups
	}
	return m
}

// Config controls the planner.
type Config struct {
	// Count is the number of follow-ups requested per incorrect answer.
	Count int

	// Concurrency bounds simultaneous generator calls.
	Concurrency int

	// Timeout bounds each generator call.
	Timeout time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Count:       5,
		Concurrency: 4,
		Timeout:     45 * time.Second,
	}
}

// Planner turns incorrect answers into a remediation plan.
type Planner struct {
	gen Generator
	cfg Config
}

// NewPlanner creates a planner over gen.
func NewPlanner(gen Generator, cfg Config) *Planner {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Planner{gen: gen, cfg: cfg}
}

// Plan requests follow-ups for every incorrect answer. It never fails: a
// question whose generation fails gets an empty list.
func (p *Planner) Plan(ctx context.Context, answers []quiz.AnswerRecord) Plan {
	var plan Plan
	for _, a := range answers {
		if !a.Correct {
			plan = append(plan, Entry{Question: a.Prompt, Answer: a.Answer})
		}
	}
	if len(plan) == 0 {
		return nil
	}

	var g errgroup.Group
	g.SetLimit(p.cfg.Concurrency)
	for i := range plan {
		g.Go(func() error {
			plan[i].Followups, plan[i].Degraded = p.generate(ctx, plan[i].Question, plan[i].Answer)
			return nil
		})
	}
	_ = g.Wait()

	return plan
}

func (p *Planner) generate(ctx context.Context, question, answer string) ([]string, bool) {
	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	followups, err := p.gen.Followups(ctx, question, answer, p.cfg.Count)
	if err != nil {
		slog.Warn("follow-up generation degraded", "question", question, "err", err)
		return []string{}, true
	}
	if len(followups) > p.cfg.Count {
		followups = followups[:p.cfg.Count]
	}
	return followups, false
}
