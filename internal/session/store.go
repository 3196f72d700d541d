package session

import (
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/quizmentor/internal/quiz"
)

var (
	errNoSession    = errors.New("no active session")
	errStaleSession = errors.New("session was replaced")
	errFinished     = errors.New("all questions already answered")
)

// Key identifies a session.
type Key struct {
	UserID  int64
	TopicID int64
}

// Session is one user's progress through a test definition. The current
// question index is len(Answers), so the two can never disagree.
type Session struct {
	ID         string
	Key        Key
	Topic      quiz.Topic
	Definition quiz.TestDefinition
	Answers    []quiz.AnswerRecord
	StartedAt  time.Time
	LastActive time.Time
}

// CurrentIndex is the 0-based position of the next unanswered question.
func (s *Session) CurrentIndex() int {
	return len(s.Answers)
}

// Total is the number of questions in the session's test.
func (s *Session) Total() int {
	return len(s.Definition.Questions)
}

// Current returns the question awaiting an answer.
func (s *Session) Current() (quiz.Question, bool) {
	if s.Finished() {
		return quiz.Question{}, false
	}
	return s.Definition.Questions[s.CurrentIndex()], true
}

// Finished reports whether every question has been answered.
func (s *Session) Finished() bool {
	return s.CurrentIndex() >= s.Total()
}

func (s *Session) clone() *Session {
	c := *s
	c.Answers = slices.Clone(s.Answers)
	return &c
}

type entry struct {
	mu   sync.Mutex
	sess *Session
}

// Store holds in-progress sessions keyed by (user, topic). Each key has its
// own lock; the map lock is only held to find or remove an entry. Callers
// receive copies, so a Session they hold never changes underneath them.
type Store struct {
	mu      sync.Mutex
	entries map[Key]*entry
	now     func() time.Time
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{
		entries: make(map[Key]*entry),
		now:     time.Now,
	}
}

func (s *Store) lookup(key Key) (*entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	return e, ok
}

// Create starts a session for key at question 0, replacing any session
// already held under it.
func (s *Store) Create(key Key, topic quiz.Topic, def quiz.TestDefinition) *Session {
	now := s.now()
	sess := &Session{
		ID:         uuid.NewString(),
		Key:        key,
		Topic:      topic,
		Definition: def,
		Answers:    []quiz.AnswerRecord{},
		StartedAt:  now,
		LastActive: now,
	}

	s.mu.Lock()
	s.entries[key] = &entry{sess: sess}
	s.mu.Unlock()

	return sess.clone()
}

// Get returns a copy of the session held under key.
func (s *Store) Get(key Key) (*Session, bool) {
	e, ok := s.lookup(key)
	if !ok {
		return nil, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sess == nil {
		return nil, false
	}
	return e.sess.clone(), true
}

// Advance appends rec as the answer to the current question of the
// session identified by sessionID. It fails if that session has been
// replaced or destroyed, or has no question left.
func (s *Store) Advance(key Key, sessionID string, rec quiz.AnswerRecord) (*Session, error) {
	e, ok := s.lookup(key)
	if !ok {
		return nil, errNoSession
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	switch {
	case e.sess == nil:
		return nil, errNoSession
	case e.sess.ID != sessionID:
		return nil, errStaleSession
	case e.sess.Finished():
		return nil, errFinished
	}

	e.sess.Answers = append(e.sess.Answers, rec)
	e.sess.LastActive = s.now()
	return e.sess.clone(), nil
}

// Touch marks the session identified by sessionID as active now. It
// reports whether that session is still held under key.
func (s *Store) Touch(key Key, sessionID string) bool {
	e, ok := s.lookup(key)
	if !ok {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sess == nil || e.sess.ID != sessionID {
		return false
	}
	e.sess.LastActive = s.now()
	return true
}

// Destroy removes the session held under key, reporting whether one existed.
func (s *Store) Destroy(key Key) bool {
	s.mu.Lock()
	e, ok := s.entries[key]
	delete(s.entries, key)
	s.mu.Unlock()
	if !ok {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	existed := e.sess != nil
	e.sess = nil
	return existed
}

// Sweep destroys sessions that have been inactive for longer than idle
// and returns their keys. Sessions whose lock is held are in use and are
// skipped, as are keys for which keep (when non-nil) reports true.
func (s *Store) Sweep(idle time.Duration, keep func(Key) bool) []Key {
	cutoff := s.now().Add(-idle)

	s.mu.Lock()
	defer s.mu.Unlock()

	var swept []Key
	for key, e := range s.entries {
		if keep != nil && keep(key) {
			continue
		}
		if !e.mu.TryLock() {
			continue
		}
		if e.sess == nil || e.sess.LastActive.Before(cutoff) {
			if e.sess != nil {
				swept = append(swept, key)
			}
			e.sess = nil
			delete(s.entries, key)
		}
		e.mu.Unlock()
	}
	return swept
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
