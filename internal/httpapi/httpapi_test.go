package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quizmentor/internal/quiz"
	"github.com/abhisek/quizmentor/internal/remediation"
	"github.com/abhisek/quizmentor/internal/scoring"
	"github.com/abhisek/quizmentor/internal/session"
	"github.com/abhisek/quizmentor/internal/store"
)

const secret = "0123456789abcdef-test"

type fakeEngine struct {
	startErr  error
	submit    session.Reply
	submitErr error
	abandoned bool
	gotTopic  int64
	gotText   string
}

func (f *fakeEngine) State(int64) session.State { return session.StateInTest }

func (f *fakeEngine) Start(_ context.Context, _ int64, topicID int64) (session.Reply, error) {
	f.gotTopic = topicID
	if f.startErr != nil {
		return session.Reply{}, f.startErr
	}
	return session.Reply{
		State:    session.StateInTest,
		Topic:    quiz.Topic{ID: topicID, Title: "Fractions"},
		Question: "1/2 + 1/2?",
		Number:   1,
		Total:    3,
	}, nil
}

func (f *fakeEngine) SubmitAnswer(_ context.Context, _ int64, text string) (session.Reply, error) {
	f.gotText = text
	return f.submit, f.submitErr
}

func (f *fakeEngine) Abandon(int64) bool { return f.abandoned }

type fakeTopics struct{}

func (fakeTopics) ListTopics(context.Context) ([]quiz.Topic, error) {
	return []quiz.Topic{{ID: 1, Title: "Fractions"}, {ID: 2, Title: "Decimals"}}, nil
}

type fakeUsers struct{ users map[int64]quiz.User }

func (f *fakeUsers) Get(_ context.Context, id int64) (quiz.User, error) {
	u, ok := f.users[id]
	if !ok {
		return quiz.User{}, store.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) Register(_ context.Context, id int64, name string, role quiz.Role) (quiz.User, error) {
	u := quiz.User{ID: id, FullName: name, Role: role}
	f.users[id] = u
	return u, nil
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func newServer(t *testing.T, e *fakeEngine) (http.Handler, string) {
	t.Helper()
	auth := NewAuthenticator(secret)
	tok, err := auth.Issue(42, time.Hour)
	require.NoError(t, err)
	h := New(Options{
		Engine: e,
		Topics: fakeTopics{},
		Users:  &fakeUsers{users: map[int64]quiz.User{}},
		Health: fakePinger{},
		Auth:   auth,
	})
	return h, tok
}

func do(h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	h := New(Options{Health: fakePinger{}})
	rec := do(h, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	h = New(Options{Health: fakePinger{err: errors.New("open /var/lib/quizmentor/quizmentor.db: database is locked")}})
	rec = do(h, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "db: not ok", rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "quizmentor.db")
}

func TestAuthRequired(t *testing.T) {
	h, _ := newServer(t, &fakeEngine{})

	rec := do(h, http.MethodGet, "/v1/topics", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(h, http.MethodGet, "/v1/topics", "not-a-token", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	other, err := NewAuthenticator("another-secret-value").Issue(42, time.Hour)
	require.NoError(t, err)
	rec = do(h, http.MethodGet, "/v1/topics", other, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestExpiredToken(t *testing.T) {
	auth := NewAuthenticator(secret)
	auth.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	tok, err := auth.Issue(42, time.Hour)
	require.NoError(t, err)

	_, err = NewAuthenticator(secret).Parse(tok)
	assert.Error(t, err)
}

func TestIssueAndParse(t *testing.T) {
	auth := NewAuthenticator(secret)
	tok, err := auth.Issue(7, time.Minute)
	require.NoError(t, err)
	id, err := auth.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
}

func TestListTopics(t *testing.T) {
	h, tok := newServer(t, &fakeEngine{})
	rec := do(h, http.MethodGet, "/v1/topics", tok, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Topics []topicJSON `json:"topics"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []topicJSON{{1, "Fractions"}, {2, "Decimals"}}, body.Topics)
}

func TestRegistration(t *testing.T) {
	h, tok := newServer(t, &fakeEngine{})

	assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/v1/me", tok, "").Code)
	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodPut, "/v1/me", tok, `{"full_name":"Alice"}`).Code)

	rec := do(h, http.MethodPut, "/v1/me", tok, `{"full_name":" Alice  Smith "}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(h, http.MethodGet, "/v1/me", tok, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"full_name":"Alice Smith"`)
}

func TestStartSession(t *testing.T) {
	e := &fakeEngine{}
	h, tok := newServer(t, e)

	rec := do(h, http.MethodPost, "/v1/session", tok, `{"topic_id":1}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, int64(1), e.gotTopic)

	var reply replyJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	assert.Equal(t, "in_test", reply.State)
	assert.Equal(t, "1/2 + 1/2?", reply.Question)
	assert.Equal(t, 3, reply.Total)
	assert.Nil(t, reply.Summary)
}

func TestStartSessionErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		err  error
		want int
	}{
		{"bad json", `{"topic_id":`, nil, http.StatusBadRequest},
		{"unknown field", `{"topic":1}`, nil, http.StatusBadRequest},
		{"missing topic", `{}`, nil, http.StatusBadRequest},
		{"unknown topic", `{"topic_id":9}`, &session.NotFoundError{What: "topic", ID: "9"}, http.StatusNotFound},
		{"unregistered", `{"topic_id":1}`, &session.InvalidStateError{Op: "start", State: session.StateIdle, Reason: "user is not registered"}, http.StatusConflict},
		{"store down", `{"topic_id":1}`, errors.New("db locked"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, tok := newServer(t, &fakeEngine{startErr: tt.err})
			rec := do(h, http.MethodPost, "/v1/session", tok, tt.body)
			assert.Equal(t, tt.want, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func finishedReply(provisional bool) session.Reply {
	return session.Reply{
		State: session.StateCompleted,
		Topic: quiz.Topic{ID: 1, Title: "Fractions"},
		Summary: &session.Summary{
			RecordID:    "rec-1",
			Topic:       quiz.Topic{ID: 1, Title: "Fractions"},
			Result:      scoring.Result{Correct: 2, Total: 3, Score: 67},
			Answers:     []quiz.AnswerRecord{{Prompt: "q3", Answer: "x", Correct: false}},
			Remediation: remediation.Plan{{Question: "q3", Answer: "x", Followups: []string{"f1"}}},
			Provisional: provisional,
		},
	}
}

func TestSubmitAnswer(t *testing.T) {
	e := &fakeEngine{submit: finishedReply(false)}
	h, tok := newServer(t, e)

	rec := do(h, http.MethodPost, "/v1/session/answer", tok, `{"text":"3/4"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "3/4", e.gotText)

	var reply replyJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	require.NotNil(t, reply.Summary)
	assert.Equal(t, 67, reply.Summary.Score)
	assert.False(t, reply.Summary.Provisional)
	require.Len(t, reply.Summary.Remediation, 1)
	assert.Equal(t, []string{"f1"}, reply.Summary.Remediation[0].Followups)
	assert.Contains(t, reply.Text, "Mistake in question: q3")
}

func TestSubmitAnswerProvisional(t *testing.T) {
	e := &fakeEngine{
		submit:    finishedReply(true),
		submitErr: &session.PersistenceError{RecordID: "rec-1", Err: errors.New("disk full")},
	}
	h, tok := newServer(t, e)

	rec := do(h, http.MethodPost, "/v1/session/answer", tok, `{"text":"x"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var reply replyJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	require.NotNil(t, reply.Summary)
	assert.True(t, reply.Summary.Provisional)
}

func TestSubmitAnswerOutsideTest(t *testing.T) {
	e := &fakeEngine{submitErr: &session.InvalidStateError{Op: "submit_answer", State: session.StateIdle}}
	h, tok := newServer(t, e)

	assert.Equal(t, http.StatusConflict, do(h, http.MethodPost, "/v1/session/answer", tok, `{"text":"x"}`).Code)
}

func TestSubmitBlankAnswerIsJudged(t *testing.T) {
	e := &fakeEngine{submit: session.Reply{State: session.StateInTest, Question: "Q2", Number: 2, Total: 5}}
	h, tok := newServer(t, e)

	rec := do(h, http.MethodPost, "/v1/session/answer", tok, `{"text":"  "}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "  ", e.gotText)
}

func TestAbandonSession(t *testing.T) {
	h, tok := newServer(t, &fakeEngine{abandoned: true})
	assert.Equal(t, http.StatusNoContent, do(h, http.MethodDelete, "/v1/session", tok, "").Code)

	h, tok = newServer(t, &fakeEngine{})
	assert.Equal(t, http.StatusNotFound, do(h, http.MethodDelete, "/v1/session", tok, "").Code)
}

func TestGetSessionState(t *testing.T) {
	h, tok := newServer(t, &fakeEngine{})
	rec := do(h, http.MethodGet, "/v1/session", tok, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"state":"in_test"}`, rec.Body.String())
}

func TestCORS(t *testing.T) {
	h := New(Options{CORSOrigins: []string{"https://school.example"}})
	req := httptest.NewRequest(http.MethodOptions, "/healthz", nil)
	req.Header.Set("Origin", "https://school.example")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "https://school.example", rec.Header().Get("Access-Control-Allow-Origin"))
}
