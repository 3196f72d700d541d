package cmd

import (
	"context"
	"fmt"

	"github.com/abhisek/quizmentor/internal/authoring"
	"github.com/abhisek/quizmentor/internal/config"
	"github.com/abhisek/quizmentor/internal/judge"
	"github.com/abhisek/quizmentor/internal/llm"
	"github.com/abhisek/quizmentor/internal/remediation"
	"github.com/abhisek/quizmentor/internal/scheduler"
	"github.com/abhisek/quizmentor/internal/session"
	"github.com/abhisek/quizmentor/internal/store"
)

// engine bundles the assessment engine with the services built around it.
type engine struct {
	store      *store.Store
	provider   llm.Provider
	controller *session.Controller
	authoring  *authoring.Service
	scheduler  *scheduler.Scheduler
}

// buildEngine wires the LLM provider, the judge, the remediation planner
// and the session controller on top of st.
func buildEngine(ctx context.Context, st *store.Store, cfg config.Config) (*engine, error) {
	provider, err := llm.NewProvider(ctx, cfg.LLM, st.LLMEvents())
	if err != nil {
		return nil, fmt.Errorf("LLM provider: %w", err)
	}

	judgeCfg := judge.DefaultConfig()
	judgeCfg.Timeout = cfg.Session.JudgeTimeout
	judgeCfg.Language = cfg.Session.Language

	genCfg := remediation.DefaultGeneratorConfig()
	genCfg.Language = cfg.Session.Language

	planCfg := remediation.DefaultConfig()
	planCfg.Count = cfg.Session.Followups
	planCfg.Timeout = cfg.Session.GeneratorTimeout

	progress := st.Progress()
	outbox := session.NewOutbox(progress)
	controller := session.NewController(session.Deps{
		Catalog:   st.Catalog(),
		Directory: st.Users(),
		Progress:  progress,
		Judge:     judge.New(provider, judgeCfg),
		Planner:   remediation.NewPlanner(remediation.NewLLMGenerator(provider, genCfg), planCfg),
		Outbox:    outbox,
	}, session.DefaultConfig())

	authCfg := authoring.DefaultConfig()
	authCfg.Language = cfg.Session.Language

	schedCfg := scheduler.DefaultConfig()
	schedCfg.IdleTTL = cfg.Session.IdleTTL

	return &engine{
		store:      st,
		provider:   provider,
		controller: controller,
		authoring:  authoring.NewService(st.Catalog(), authoring.NewGenerator(provider, authCfg)),
		scheduler:  scheduler.New(controller, outbox, schedCfg),
	}, nil
}
