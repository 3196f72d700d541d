// Package httpapi exposes the session controller over a small JSON API.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/abhisek/quizmentor/internal/quiz"
	"github.com/abhisek/quizmentor/internal/session"
)

// Engine is the part of the session controller the API drives.
type Engine interface {
	State(userID int64) session.State
	Start(ctx context.Context, userID, topicID int64) (session.Reply, error)
	SubmitAnswer(ctx context.Context, userID int64, text string) (session.Reply, error)
	Abandon(userID int64) bool
}

// Topics lists the catalog.
type Topics interface {
	ListTopics(ctx context.Context) ([]quiz.Topic, error)
}

// Users is the user directory.
type Users interface {
	Get(ctx context.Context, id int64) (quiz.User, error)
	Register(ctx context.Context, id int64, fullName string, role quiz.Role) (quiz.User, error)
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures the API handler.
type Options struct {
	Engine Engine
	Topics Topics
	Users  Users
	Health Pinger
	Auth   *Authenticator

	CORSOrigins []string

	// RequestTimeout bounds each request. Answer submission waits on the
	// judge, so keep it above the judge timeout.
	RequestTimeout time.Duration
}

type api struct {
	engine Engine
	topics Topics
	users  Users
}

// New builds the HTTP handler. With a nil Engine or Auth only /healthz is
// served.
func New(opts Options) http.Handler {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 60 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, requestLogger, middleware.Recoverer)
	r.Use(middleware.Timeout(opts.RequestTimeout))

	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
			ExposedHeaders: []string{"Content-Length"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", healthHandler(opts.Health))

	if opts.Engine == nil || opts.Auth == nil {
		return r
	}

	a := &api{engine: opts.Engine, topics: opts.Topics, users: opts.Users}
	r.Route("/v1", func(v chi.Router) {
		v.Use(opts.Auth.Middleware)
		v.Get("/me", a.getMe)
		v.Put("/me", a.putMe)
		v.Get("/topics", a.listTopics)
		v.Route("/session", func(s chi.Router) {
			s.Get("/", a.getSession)
			s.Post("/", a.startSession)
			s.Delete("/", a.abandonSession)
			s.Post("/answer", a.submitAnswer)
		})
	})
	return r
}

func healthHandler(p Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if p != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := p.Ping(ctx); err != nil {
				slog.Error("health check failed", "error", err)
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("db: not ok"))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
