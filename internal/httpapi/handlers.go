package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/abhisek/quizmentor/internal/quiz"
	"github.com/abhisek/quizmentor/internal/session"
	"github.com/abhisek/quizmentor/internal/store"
)

const maxBody = 64 << 10

type topicJSON struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

type userJSON struct {
	ID       int64     `json:"id"`
	FullName string    `json:"full_name"`
	Role     quiz.Role `json:"role"`
}

type followupJSON struct {
	Question  string   `json:"question"`
	Answer    string   `json:"answer"`
	Followups []string `json:"followups"`
}

type summaryJSON struct {
	RecordID    string              `json:"record_id"`
	Score       int                 `json:"score"`
	Correct     int                 `json:"correct"`
	Total       int                 `json:"total"`
	Passed      bool                `json:"passed"`
	Provisional bool                `json:"provisional"`
	Answers     []quiz.AnswerRecord `json:"answers"`
	Remediation []followupJSON      `json:"remediation"`
}

type replyJSON struct {
	State    string       `json:"state"`
	Topic    *topicJSON   `json:"topic,omitempty"`
	Question string       `json:"question,omitempty"`
	Number   int          `json:"number,omitempty"`
	Total    int          `json:"total,omitempty"`
	Summary  *summaryJSON `json:"summary,omitempty"`
	Text     string       `json:"text"`
}

func toReply(r session.Reply) replyJSON {
	out := replyJSON{
		State:    r.State.String(),
		Question: r.Question,
		Number:   r.Number,
		Total:    r.Total,
		Text:     r.Text(),
	}
	if r.Topic.ID != 0 {
		out.Topic = &topicJSON{ID: r.Topic.ID, Title: r.Topic.Title}
	}
	if s := r.Summary; s != nil {
		sj := &summaryJSON{
			RecordID:    s.RecordID,
			Score:       s.Result.Score,
			Correct:     s.Result.Correct,
			Total:       s.Result.Total,
			Passed:      s.Result.Passed,
			Provisional: s.Provisional,
			Answers:     s.Answers,
			Remediation: []followupJSON{},
		}
		for _, e := range s.Remediation {
			sj.Remediation = append(sj.Remediation, followupJSON{Question: e.Question, Answer: e.Answer, Followups: e.Followups})
		}
		out.Summary = sj
	}
	return out
}

func (a *api) getMe(w http.ResponseWriter, r *http.Request) {
	u, err := a.users.Get(r.Context(), userID(r.Context()))
	if errors.Is(err, store.ErrNotFound) || (err == nil && !u.Registered()) {
		writeError(w, http.StatusNotFound, "not registered")
		return
	}
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, userJSON{ID: u.ID, FullName: u.FullName, Role: u.Role})
}

func (a *api) putMe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FullName string `json:"full_name"`
	}
	if !decode(w, r, &req) {
		return
	}
	name, err := quiz.NormalizeFullName(req.FullName)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	u, err := a.users.Register(r.Context(), userID(r.Context()), name, quiz.RoleStudent)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, userJSON{ID: u.ID, FullName: u.FullName, Role: u.Role})
}

func (a *api) listTopics(w http.ResponseWriter, r *http.Request) {
	topics, err := a.topics.ListTopics(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	out := make([]topicJSON, 0, len(topics))
	for _, t := range topics {
		out = append(out, topicJSON{ID: t.ID, Title: t.Title})
	}
	writeJSON(w, http.StatusOK, map[string]any{"topics": out})
}

func (a *api) getSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"state": a.engine.State(userID(r.Context())).String()})
}

func (a *api) startSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TopicID int64 `json:"topic_id"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.TopicID <= 0 {
		writeError(w, http.StatusBadRequest, "topic_id is required")
		return
	}
	reply, err := a.engine.Start(r.Context(), userID(r.Context()), req.TopicID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toReply(reply))
}

func (a *api) submitAnswer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if !decode(w, r, &req) {
		return
	}
	// A blank answer is still an answer; the judge decides.
	reply, err := a.engine.SubmitAnswer(r.Context(), userID(r.Context()), req.Text)
	var persistErr *session.PersistenceError
	switch {
	case errors.As(err, &persistErr):
		// The result is queued for storage; the summary is provisional.
		slog.Warn("progress stored later", "user_id", userID(r.Context()), "record_id", persistErr.RecordID, "error", persistErr.Err)
		writeJSON(w, http.StatusAccepted, toReply(reply))
	case err != nil:
		a.fail(w, r, err)
	default:
		writeJSON(w, http.StatusOK, toReply(reply))
	}
}

func (a *api) abandonSession(w http.ResponseWriter, r *http.Request) {
	if !a.engine.Abandon(userID(r.Context())) {
		writeError(w, http.StatusNotFound, "no test in progress")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// fail maps controller errors onto status codes.
func (a *api) fail(w http.ResponseWriter, r *http.Request, err error) {
	var nf *session.NotFoundError
	var invalid *session.InvalidStateError
	switch {
	case errors.As(err, &nf):
		writeError(w, http.StatusNotFound, nf.Error())
	case errors.As(err, &invalid):
		writeError(w, http.StatusConflict, invalid.Error())
	default:
		slog.Error("http request failed", "path", r.URL.Path, "user_id", userID(r.Context()), "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
