package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/abhisek/quizmentor/internal/authoring"
	"github.com/abhisek/quizmentor/internal/quiz"
	"github.com/abhisek/quizmentor/internal/report"
	"github.com/abhisek/quizmentor/internal/session"
	"github.com/abhisek/quizmentor/internal/store"
)

const helpText = `/take_test - take a test
/cancel - leave the current test
/start - restart the conversation
/help - show this message
/add_topic <title> - (teacher) add a topic and generate its test
/report <topic id or title> - (teacher) get the Excel report for a topic`

func (r *Router) cmdStart(ctx context.Context, chatID, userID int64) {
	user, err := r.users.Get(ctx, userID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		slog.Error("look up user", "user_id", userID, "error", err)
		r.send(chatID, "Something went wrong. Please try again later.")
		return
	}
	if !user.Registered() {
		r.setAwaitingName(userID, true)
		r.send(chatID, "Welcome! Please send your full name (last name and first name) to register.")
		return
	}
	r.setAwaitingName(userID, false)
	r.send(chatID, fmt.Sprintf("Hello, %s. Your role: %s.\nUse /take_test to take a test or /help for the list of commands.", user.FullName, user.Role))
}

func (r *Router) completeRegistration(ctx context.Context, chatID, userID int64, text string) {
	name, err := quiz.NormalizeFullName(text)
	if err != nil {
		r.send(chatID, "Please send your full name, at least your last name and first name.")
		return
	}
	user, err := r.users.Register(ctx, userID, name, r.roleFor(userID))
	if err != nil {
		slog.Error("register user", "user_id", userID, "error", err)
		r.send(chatID, "Could not save your name. Please try again.")
		return
	}
	r.setAwaitingName(userID, false)
	slog.Info("user registered", "user_id", userID, "role", user.Role)
	r.send(chatID, fmt.Sprintf("Registration complete. Hello, %s. Your role: %s.", user.FullName, user.Role))
}

func (r *Router) cmdTakeTest(ctx context.Context, chatID, userID int64) {
	topics, err := r.engine.BeginTopicChoice(ctx, userID)
	if err != nil {
		var invalid *session.InvalidStateError
		var nf *session.NotFoundError
		switch {
		case errors.As(err, &invalid):
			r.send(chatID, "Please start with /start and send your full name.")
		case errors.As(err, &nf):
			r.send(chatID, "There are no topics yet. Please contact your teacher.")
		default:
			slog.Error("list topics", "user_id", userID, "error", err)
			r.send(chatID, "Could not load the topics. Please try again later.")
		}
		return
	}

	var b strings.Builder
	b.WriteString("Available topics:\n")
	for _, t := range topics {
		fmt.Fprintf(&b, "%d - %s\n", t.ID, t.Title)
	}
	b.WriteString("\nSend the topic id to start the test.")
	r.send(chatID, b.String())
}

func (r *Router) cmdCancel(chatID, userID int64) {
	r.setAwaitingName(userID, false)
	if r.engine.Abandon(userID) {
		r.send(chatID, "The test was cancelled. Send /take_test to start again.")
		return
	}
	r.send(chatID, "There is nothing to cancel.")
}

func (r *Router) chooseTopic(ctx context.Context, chatID, userID int64, text string) {
	reply, err := r.engine.ChooseTopic(ctx, userID, text)
	if err != nil {
		var nf *session.NotFoundError
		switch {
		case errors.As(err, &nf) && nf.What == "topic":
			if _, perr := strconv.ParseInt(strings.TrimSpace(text), 10, 64); perr != nil {
				r.send(chatID, "Please send the numeric id of a topic from the list.")
			} else {
				r.send(chatID, "Topic not found. Please try again.")
			}
		case errors.As(err, &nf):
			r.send(chatID, "There is no test for this topic yet. Please contact your teacher.")
		default:
			r.replyError(chatID, userID, err)
		}
		return
	}
	r.send(chatID, reply.Text())
}

func (r *Router) submitAnswer(ctx context.Context, chatID, userID int64, text string) {
	reply, err := r.engine.SubmitAnswer(ctx, userID, text)
	var persistErr *session.PersistenceError
	if err != nil && !errors.As(err, &persistErr) {
		r.replyError(chatID, userID, err)
		return
	}
	if persistErr != nil {
		slog.Warn("progress stored later", "user_id", userID, "record_id", persistErr.RecordID, "error", persistErr.Err)
	}
	r.send(chatID, reply.Text())
}

func (r *Router) replyError(chatID, userID int64, err error) {
	var invalid *session.InvalidStateError
	if errors.As(err, &invalid) {
		if invalid.Reason == "session expired" {
			r.send(chatID, "Your test expired after a long pause. Send /take_test to start again.")
			return
		}
		r.send(chatID, "Send /take_test to take a test.")
		return
	}
	slog.Error("telegram request failed", "user_id", userID, "error", err)
	r.send(chatID, "Something went wrong. Please try again later.")
}

func (r *Router) cmdAddTopic(ctx context.Context, chatID, userID int64, title string) {
	if !r.isTeacher(userID) || r.authoring == nil {
		r.send(chatID, "This command is available to the teacher only.")
		return
	}
	if title == "" {
		r.send(chatID, "Usage: /add_topic <topic title>")
		return
	}

	r.send(chatID, fmt.Sprintf("Generating a test for %q...", title))

	genCtx, cancel := context.WithTimeout(ctx, r.opts.AuthoringTimeout)
	defer cancel()
	authored, err := r.authoring.Generate(genCtx, title, r.opts.QuestionsPerTest)
	if err != nil {
		slog.Error("generate test", "title", title, "error", err)
		r.send(chatID, "Could not generate the test automatically. Please try again later.")
		return
	}

	r.send(chatID, fmt.Sprintf("Topic %q added with id=%d. The test has %d questions.",
		authored.Topic.Title, authored.Topic.ID, len(authored.Definition.Questions)))

	buf, err := authoring.ExportWorkbook(authored.Topic.Title, authored.Definition.Questions)
	if err != nil {
		slog.Error("export test workbook", "topic_id", authored.Topic.ID, "error", err)
		return
	}
	name := fmt.Sprintf("topic_%d_test_%d.xlsx", authored.Topic.ID, authored.Definition.ID)
	if err := r.sendDocument(chatID, name, buf.Bytes(), "Test for topic: "+authored.Topic.Title); err != nil {
		slog.Warn("send test workbook", "error", err)
	}
}

func (r *Router) cmdReport(ctx context.Context, chatID, userID int64, arg string) {
	if !r.isTeacher(userID) || r.topics == nil || r.results == nil {
		r.send(chatID, "This command is available to the teacher only.")
		return
	}
	if arg == "" {
		r.send(chatID, "Usage: /report <topic id or exact title>")
		return
	}

	topic, err := r.findTopic(ctx, arg)
	if errors.Is(err, store.ErrNotFound) {
		r.send(chatID, "Topic not found.")
		return
	}
	if err != nil {
		slog.Error("find topic", "arg", arg, "error", err)
		r.send(chatID, "Something went wrong. Please try again later.")
		return
	}

	results, err := r.results.ResultsForTopic(ctx, topic.ID)
	if err != nil {
		slog.Error("load results", "topic_id", topic.ID, "error", err)
		r.send(chatID, "Something went wrong. Please try again later.")
		return
	}
	if len(results) == 0 {
		r.send(chatID, "There are no results for this topic yet.")
		return
	}

	buf, err := report.Build(topic.Title, results)
	if err != nil {
		slog.Error("build report", "topic_id", topic.ID, "error", err)
		r.send(chatID, "Could not build the report.")
		return
	}
	if err := r.sendDocument(chatID, report.FileName(topic.ID), buf.Bytes(), "Report for topic: "+topic.Title); err != nil {
		slog.Warn("send report", "error", err)
	}
}

// findTopic resolves a numeric id first and falls back to an exact title.
func (r *Router) findTopic(ctx context.Context, arg string) (quiz.Topic, error) {
	if id, err := strconv.ParseInt(arg, 10, 64); err == nil {
		t, err := r.topics.Topic(ctx, id)
		if err == nil || !errors.Is(err, store.ErrNotFound) {
			return t, err
		}
	}
	return r.topics.TopicByTitle(ctx, arg)
}
