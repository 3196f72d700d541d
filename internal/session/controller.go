// Package session drives a student through a test: it holds the
// per-user workflow state, judges each answer as it arrives, and on the
// last answer scores the attempt, plans remediation and stores the result.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/quizmentor/internal/judge"
	"github.com/abhisek/quizmentor/internal/quiz"
	"github.com/abhisek/quizmentor/internal/remediation"
	"github.com/abhisek/quizmentor/internal/scoring"
	"github.com/abhisek/quizmentor/internal/store"
)

// Catalog supplies topics and their test definitions. Missing rows are
// reported with store.ErrNotFound.
type Catalog interface {
	ListTopics(ctx context.Context) ([]quiz.Topic, error)
	Topic(ctx context.Context, id int64) (quiz.Topic, error)
	LatestDefinition(ctx context.Context, topicID int64) (quiz.TestDefinition, error)
}

// Directory resolves registered users. Unregistered users are reported
// with store.ErrNotFound.
type Directory interface {
	Resolve(ctx context.Context, userID int64) (quiz.User, error)
}

// ProgressStore durably appends completed attempts.
type ProgressStore interface {
	Append(ctx context.Context, rec quiz.ProgressRecord) error
}

// Planner builds the remediation plan for a finished attempt.
type Planner interface {
	Plan(ctx context.Context, answers []quiz.AnswerRecord) remediation.Plan
}

// Config controls finalization.
type Config struct {
	// PersistAttempts is how many times an append is tried before the
	// record goes to the outbox.
	PersistAttempts int

	// PersistBackoff is the pause between append attempts.
	PersistBackoff time.Duration

	// PersistTimeout bounds a single append attempt.
	PersistTimeout time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		PersistAttempts: 3,
		PersistBackoff:  250 * time.Millisecond,
		PersistTimeout:  10 * time.Second,
	}
}

// Deps are the collaborators of a Controller.
type Deps struct {
	Catalog   Catalog
	Directory Directory
	Progress  ProgressStore
	Judge     judge.Judge
	Planner   Planner

	// Sessions and Outbox are created when nil.
	Sessions *Store
	Outbox   *Outbox
}

// Reply is what the controller hands back to a transport after a step.
type Reply struct {
	State State
	Topic quiz.Topic

	// Question is the prompt awaiting an answer, with its 1-based Number
	// out of Total. Empty once the test is finished.
	Question string
	Number   int
	Total    int

	// Summary is set when the step completed the test.
	Summary *Summary
}

// Text renders the reply as a plain-text message.
func (r Reply) Text() string {
	if r.Summary != nil {
		return r.Summary.Text()
	}
	if r.Number == 1 {
		return fmt.Sprintf("The test on %q begins. Keep your answers short.\nQuestion 1 of %d:\n%s", r.Topic.Title, r.Total, r.Question)
	}
	return fmt.Sprintf("Question %d of %d:\n%s", r.Number, r.Total, r.Question)
}

type lane struct {
	mu      sync.Mutex
	state   State
	topicID int64
	last    time.Time

	// dead is set once Sweep has dropped the lane from the map.
	dead bool
}

// Controller is the per-user state machine
// Idle → ChoosingTopic → InTest → Completed. Each user has a lane that
// serializes their operations; distinct users never wait on each other,
// including while their answers are being judged.
type Controller struct {
	catalog   Catalog
	directory Directory
	progress  ProgressStore
	judge     judge.Judge
	planner   Planner
	sessions  *Store
	outbox    *Outbox
	cfg       Config
	now       func() time.Time

	mu    sync.Mutex
	lanes map[int64]*lane
}

// NewController wires a controller from its collaborators.
func NewController(deps Deps, cfg Config) *Controller {
	if cfg.PersistAttempts < 1 {
		cfg.PersistAttempts = 1
	}
	if deps.Sessions == nil {
		deps.Sessions = NewStore()
	}
	if deps.Outbox == nil {
		deps.Outbox = NewOutbox(deps.Progress)
	}
	return &Controller{
		catalog:   deps.Catalog,
		directory: deps.Directory,
		progress:  deps.Progress,
		judge:     deps.Judge,
		planner:   deps.Planner,
		sessions:  deps.Sessions,
		outbox:    deps.Outbox,
		cfg:       cfg,
		now:       time.Now,
		lanes:     make(map[int64]*lane),
	}
}

// Sessions exposes the session store.
func (c *Controller) Sessions() *Store { return c.sessions }

// Outbox exposes the queue of records awaiting storage.
func (c *Controller) Outbox() *Outbox { return c.outbox }

// acquire returns the user's lane, locked.
func (c *Controller) acquire(userID int64) *lane {
	for {
		c.mu.Lock()
		l, ok := c.lanes[userID]
		if !ok {
			l = &lane{}
			c.lanes[userID] = l
		}
		c.mu.Unlock()

		l.mu.Lock()
		if l.dead {
			l.mu.Unlock()
			continue
		}
		l.last = c.now()
		return l
	}
}

// State returns the user's current workflow state.
func (c *Controller) State(userID int64) State {
	l := c.acquire(userID)
	defer l.mu.Unlock()
	return l.state
}

// BeginTopicChoice lists the available topics and waits for the user to
// pick one. A test in progress is abandoned.
func (c *Controller) BeginTopicChoice(ctx context.Context, userID int64) ([]quiz.Topic, error) {
	l := c.acquire(userID)
	defer l.mu.Unlock()

	if err := c.requireRegistered(ctx, "take_test", l.state, userID); err != nil {
		return nil, err
	}

	topics, err := c.catalog.ListTopics(ctx)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	if len(topics) == 0 {
		return nil, &NotFoundError{What: "topics"}
	}

	c.dropSession(userID, l)
	l.state = StateChoosingTopic
	return topics, nil
}

// ChooseTopic starts the test for the topic whose id the user typed. It is
// only valid right after BeginTopicChoice; a bad id leaves the user
// choosing.
func (c *Controller) ChooseTopic(ctx context.Context, userID int64, topicIDText string) (Reply, error) {
	l := c.acquire(userID)
	defer l.mu.Unlock()

	if l.state != StateChoosingTopic {
		return Reply{}, &InvalidStateError{Op: "choose_topic", State: l.state}
	}

	text := strings.TrimSpace(topicIDText)
	topicID, err := strconv.ParseInt(text, 10, 64)
	if err != nil || topicID <= 0 {
		return Reply{}, &NotFoundError{What: "topic", ID: text, Err: err}
	}
	return c.start(ctx, userID, l, topicID)
}

// Start begins a test on topicID using the topic's latest definition and
// returns the first question. A session the user already has is replaced.
func (c *Controller) Start(ctx context.Context, userID, topicID int64) (Reply, error) {
	l := c.acquire(userID)
	defer l.mu.Unlock()
	return c.start(ctx, userID, l, topicID)
}

func (c *Controller) start(ctx context.Context, userID int64, l *lane, topicID int64) (Reply, error) {
	if err := c.requireRegistered(ctx, "start", l.state, userID); err != nil {
		return Reply{}, err
	}

	topic, err := c.catalog.Topic(ctx, topicID)
	if errors.Is(err, store.ErrNotFound) {
		return Reply{}, &NotFoundError{What: "topic", ID: strconv.FormatInt(topicID, 10), Err: err}
	}
	if err != nil {
		return Reply{}, fmt.Errorf("load topic %d: %w", topicID, err)
	}

	def, err := c.catalog.LatestDefinition(ctx, topicID)
	if errors.Is(err, store.ErrNotFound) {
		return Reply{}, &NotFoundError{What: "test for topic", ID: topic.Title, Err: err}
	}
	if err != nil {
		return Reply{}, fmt.Errorf("load test for topic %d: %w", topicID, err)
	}
	if err := def.Validate(); err != nil {
		return Reply{}, &NotFoundError{What: "usable test for topic", ID: topic.Title, Err: err}
	}

	c.dropSession(userID, l)
	sess := c.sessions.Create(Key{UserID: userID, TopicID: topicID}, topic, def)
	l.state = StateInTest
	l.topicID = topicID

	slog.Info("test started", "user_id", userID, "topic_id", topicID, "test_id", def.ID,
		"session_id", sess.ID, "questions", sess.Total())

	return questionReply(sess), nil
}

// SubmitAnswer judges text as the answer to the current question. It
// returns the next question, or the summary once the last question is
// answered. Outside a test it fails with InvalidStateError and changes
// nothing.
//
// When the finished attempt cannot be stored the session still completes:
// the reply carries a provisional summary and the error is a
// *PersistenceError.
func (c *Controller) SubmitAnswer(ctx context.Context, userID int64, text string) (Reply, error) {
	l := c.acquire(userID)
	defer l.mu.Unlock()

	if l.state != StateInTest {
		return Reply{}, &InvalidStateError{Op: "submit_answer", State: l.state}
	}

	key := Key{UserID: userID, TopicID: l.topicID}
	sess, ok := c.sessions.Get(key)
	if !ok {
		l.state = StateIdle
		return Reply{}, &InvalidStateError{Op: "submit_answer", State: StateIdle, Reason: "session expired"}
	}

	c.sessions.Touch(key, sess.ID)

	q, ok := sess.Current()
	if !ok {
		// A finished session is destroyed in the same step, so this only
		// happens if the store was tampered with.
		return Reply{}, &InvalidStateError{Op: "submit_answer", State: l.state, Reason: errFinished.Error()}
	}

	// The judge has its own timeout. A caller going away must not turn a
	// correct answer into a recorded fallback.
	verdict := c.judge.Evaluate(context.WithoutCancel(ctx), q.Prompt, q.Reference, text)
	if verdict.Degraded {
		slog.Warn("answer judged with fallback", "user_id", userID, "session_id", sess.ID, "question", sess.CurrentIndex()+1)
	}

	sess, err := c.sessions.Advance(key, sess.ID, quiz.AnswerRecord{
		Prompt:    q.Prompt,
		Reference: q.Reference,
		Answer:    text,
		Correct:   verdict.Correct,
		Comment:   verdict.Comment,
	})
	if err != nil {
		// The session vanished or was replaced while the answer was judged.
		l.state = StateIdle
		l.topicID = 0
		reason := err.Error()
		if errors.Is(err, errNoSession) {
			reason = "session expired"
		}
		return Reply{}, &InvalidStateError{Op: "submit_answer", State: StateIdle, Reason: reason}
	}

	if !sess.Finished() {
		return questionReply(sess), nil
	}
	return c.finalize(ctx, l, sess)
}

func (c *Controller) finalize(ctx context.Context, l *lane, sess *Session) (Reply, error) {
	result := scoring.Score(sess.Answers)

	var plan remediation.Plan
	if !result.Passed {
		plan = c.planner.Plan(context.WithoutCancel(ctx), sess.Answers)
	}

	rec := quiz.ProgressRecord{
		ID:          uuid.NewString(),
		UserID:      sess.Key.UserID,
		TopicID:     sess.Key.TopicID,
		TestID:      sess.Definition.ID,
		Answers:     sess.Answers,
		Score:       result.Score,
		Passed:      result.Passed,
		CompletedAt: c.now().UTC(),
	}

	persistErr := c.persist(ctx, rec)

	c.sessions.Destroy(sess.Key)
	l.state = StateCompleted

	summary := &Summary{
		RecordID:    rec.ID,
		Topic:       sess.Topic,
		Result:      result,
		Answers:     sess.Answers,
		Remediation: plan,
		Provisional: persistErr != nil,
	}
	reply := Reply{State: StateCompleted, Topic: sess.Topic, Total: sess.Total(), Summary: summary}

	if persistErr != nil {
		c.outbox.Add(rec)
		slog.Error("progress record queued for retry", "record_id", rec.ID, "user_id", rec.UserID,
			"topic_id", rec.TopicID, "err", persistErr)
		return reply, &PersistenceError{RecordID: rec.ID, Err: persistErr}
	}

	slog.Info("test completed", "user_id", rec.UserID, "topic_id", rec.TopicID, "record_id", rec.ID,
		"score", rec.Score, "passed", rec.Passed)
	return reply, nil
}

// persist appends rec, retrying a bounded number of times. The caller's
// cancellation does not abandon a finished attempt.
func (c *Controller) persist(ctx context.Context, rec quiz.ProgressRecord) error {
	ctx = context.WithoutCancel(ctx)

	var err error
	for attempt := 1; attempt <= c.cfg.PersistAttempts; attempt++ {
		if attempt > 1 && c.cfg.PersistBackoff > 0 {
			time.Sleep(c.cfg.PersistBackoff)
		}
		err = c.appendOnce(ctx, rec)
		if err == nil {
			return nil
		}
		slog.Warn("progress append failed", "record_id", rec.ID, "attempt", attempt, "err", err)
	}
	return err
}

func (c *Controller) appendOnce(ctx context.Context, rec quiz.ProgressRecord) error {
	if c.cfg.PersistTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.PersistTimeout)
		defer cancel()
	}
	return c.progress.Append(ctx, rec)
}

// Abandon discards the user's test in progress without recording it. It
// reports whether there was one.
func (c *Controller) Abandon(userID int64) bool {
	l := c.acquire(userID)
	defer l.mu.Unlock()

	had := c.dropSession(userID, l)
	l.state = StateIdle
	return had
}

// dropSession destroys the user's active session, if any. The lane must be
// held.
func (c *Controller) dropSession(userID int64, l *lane) bool {
	if l.state != StateInTest {
		return false
	}
	had := c.sessions.Destroy(Key{UserID: userID, TopicID: l.topicID})
	if had {
		slog.Info("test abandoned", "user_id", userID, "topic_id", l.topicID)
	}
	l.topicID = 0
	return had
}

// Sweep returns users idle for longer than ttl to Idle, destroying their
// sessions. Users with an operation in flight are skipped, and so are
// their sessions. It returns the number of sessions destroyed.
func (c *Controller) Sweep(ttl time.Duration) int {
	cutoff := c.now().Add(-ttl)
	swept := 0

	c.mu.Lock()
	defer c.mu.Unlock()
	for userID, l := range c.lanes {
		if !l.mu.TryLock() {
			continue
		}
		if l.last.Before(cutoff) {
			if c.dropSession(userID, l) {
				swept++
			}
			l.state = StateIdle
			l.dead = true
			delete(c.lanes, userID)
		}
		l.mu.Unlock()
	}

	// Sessions whose lane is already gone. The map lock stays held so no
	// lane can appear for a key while it is swept.
	swept += len(c.sessions.Sweep(ttl, func(k Key) bool {
		_, live := c.lanes[k.UserID]
		return live
	}))
	return swept
}

func (c *Controller) requireRegistered(ctx context.Context, op string, state State, userID int64) error {
	_, err := c.directory.Resolve(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return &InvalidStateError{Op: op, State: state, Reason: "user is not registered"}
	}
	if err != nil {
		return fmt.Errorf("resolve user %d: %w", userID, err)
	}
	return nil
}

func questionReply(sess *Session) Reply {
	q, _ := sess.Current()
	return Reply{
		State:    StateInTest,
		Topic:    sess.Topic,
		Question: q.Prompt,
		Number:   sess.CurrentIndex() + 1,
		Total:    sess.Total(),
	}
}
