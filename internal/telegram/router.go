// Package telegram is the chat transport. It maps bot commands and free
// text onto the session controller, the authoring service and reports.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/abhisek/quizmentor/internal/authoring"
	"github.com/abhisek/quizmentor/internal/quiz"
	"github.com/abhisek/quizmentor/internal/session"
)

// maxMessageLen keeps replies under Telegram's 4096 character limit.
const maxMessageLen = 3900

// Sender delivers outgoing messages. *tgbotapi.BotAPI satisfies it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Engine is the part of the session controller the bot drives.
type Engine interface {
	State(userID int64) session.State
	BeginTopicChoice(ctx context.Context, userID int64) ([]quiz.Topic, error)
	ChooseTopic(ctx context.Context, userID int64, topicIDText string) (session.Reply, error)
	SubmitAnswer(ctx context.Context, userID int64, text string) (session.Reply, error)
	Abandon(userID int64) bool
}

// Users is the user directory.
type Users interface {
	Get(ctx context.Context, id int64) (quiz.User, error)
	Register(ctx context.Context, id int64, fullName string, role quiz.Role) (quiz.User, error)
}

// Authoring creates topics with generated tests.
type Authoring interface {
	Generate(ctx context.Context, title string, count int) (authoring.Authored, error)
}

// Topics resolves the topic named in /report.
type Topics interface {
	Topic(ctx context.Context, id int64) (quiz.Topic, error)
	TopicByTitle(ctx context.Context, title string) (quiz.Topic, error)
}

// Results loads completed attempts for a report.
type Results interface {
	ResultsForTopic(ctx context.Context, topicID int64) ([]quiz.Result, error)
}

// Deps are the collaborators of a Router. Authoring, Topics and Results may
// be nil, which disables the matching teacher commands.
type Deps struct {
	Bot       Sender
	Engine    Engine
	Users     Users
	Authoring Authoring
	Topics    Topics
	Results   Results
}

// Options configures a Router.
type Options struct {
	// TeacherID is the Telegram user id allowed to author tests and pull
	// reports. Zero disables teacher commands.
	TeacherID int64

	// QuestionsPerTest is the size of tests created with /add_topic.
	QuestionsPerTest int

	// AuthoringTimeout bounds a /add_topic generation.
	AuthoringTimeout time.Duration
}

// Router handles bot updates.
type Router struct {
	bot       Sender
	engine    Engine
	users     Users
	authoring Authoring
	topics    Topics
	results   Results
	opts      Options

	mu           sync.Mutex
	pendingNames map[int64]bool
}

// NewRouter creates a Router.
func NewRouter(deps Deps, opts Options) *Router {
	if opts.QuestionsPerTest <= 0 {
		opts.QuestionsPerTest = 5
	}
	if opts.AuthoringTimeout <= 0 {
		opts.AuthoringTimeout = 90 * time.Second
	}
	return &Router{
		bot:          deps.Bot,
		engine:       deps.Engine,
		users:        deps.Users,
		authoring:    deps.Authoring,
		topics:       deps.Topics,
		results:      deps.Results,
		opts:         opts,
		pendingNames: make(map[int64]bool),
	}
}

// HandleUpdate processes one update. A panic in a handler is logged and
// answered with a generic apology instead of taking the bot down.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	msg := upd.Message
	if msg == nil {
		return
	}
	chatID := msg.Chat.ID
	userID := chatID
	if msg.From != nil {
		userID = msg.From.ID
	}

	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("telegram handler panic", "user_id", userID, "panic", rec, "stack", string(debug.Stack()))
			r.send(chatID, "Something went wrong. Please try again.")
		}
	}()

	if msg.IsCommand() {
		r.handleCommand(ctx, chatID, userID, msg.Command(), strings.TrimSpace(msg.CommandArguments()))
		return
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}
	r.handleText(ctx, chatID, userID, text)
}

func (r *Router) handleCommand(ctx context.Context, chatID, userID int64, cmd, args string) {
	switch cmd {
	case "start":
		r.cmdStart(ctx, chatID, userID)
	case "help":
		r.send(chatID, helpText)
	case "take_test":
		r.cmdTakeTest(ctx, chatID, userID)
	case "cancel":
		r.cmdCancel(chatID, userID)
	case "add_topic":
		r.cmdAddTopic(ctx, chatID, userID, args)
	case "report":
		r.cmdReport(ctx, chatID, userID, args)
	default:
		r.send(chatID, "Unknown command. Send /help for the list of commands.")
	}
}

// handleText routes free text by conversation state: a pending
// registration takes the full name, otherwise the controller state decides.
func (r *Router) handleText(ctx context.Context, chatID, userID int64, text string) {
	if r.awaitingName(userID) {
		r.completeRegistration(ctx, chatID, userID, text)
		return
	}

	switch r.engine.State(userID) {
	case session.StateChoosingTopic:
		r.chooseTopic(ctx, chatID, userID, text)
	case session.StateInTest:
		r.submitAnswer(ctx, chatID, userID, text)
	default:
		r.send(chatID, "Send /take_test to take a test or /help for the list of commands.")
	}
}

func (r *Router) isTeacher(userID int64) bool {
	return r.opts.TeacherID != 0 && userID == r.opts.TeacherID
}

func (r *Router) roleFor(userID int64) quiz.Role {
	if r.isTeacher(userID) {
		return quiz.RoleTeacher
	}
	return quiz.RoleStudent
}

func (r *Router) awaitingName(userID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pendingNames[userID]
}

func (r *Router) setAwaitingName(userID int64, waiting bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if waiting {
		r.pendingNames[userID] = true
	} else {
		delete(r.pendingNames, userID)
	}
}

func (r *Router) send(chatID int64, text string) {
	for _, part := range splitMessage(text, maxMessageLen) {
		if _, err := r.bot.Send(tgbotapi.NewMessage(chatID, part)); err != nil {
			slog.Warn("telegram send failed", "chat_id", chatID, "error", err)
			return
		}
	}
}

// splitMessage cuts text into parts of at most limit bytes, preferring line
// boundaries so numbered lists stay intact.
func splitMessage(text string, limit int) []string {
	var parts []string
	for len(text) > limit {
		cut := strings.LastIndexByte(text[:limit], '\n')
		if cut <= 0 {
			cut = limit
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
		}
		parts = append(parts, text[:cut])
		text = strings.TrimLeft(text[cut:], "\n")
	}
	if text != "" {
		parts = append(parts, text)
	}
	return parts
}

func (r *Router) sendDocument(chatID int64, name string, data []byte, caption string) error {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	doc.Caption = caption
	if _, err := r.bot.Send(doc); err != nil {
		return fmt.Errorf("send document %s: %w", name, err)
	}
	return nil
}
