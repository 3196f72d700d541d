package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/quizmentor/internal/config"
	"github.com/abhisek/quizmentor/internal/httpapi"
	"github.com/abhisek/quizmentor/internal/telegram"
)

const shutdownGrace = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Telegram bot, the JSON API and the maintenance jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		st, cfg, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		eng, err := buildEngine(ctx, st, cfg)
		if err != nil {
			return err
		}

		if err := eng.scheduler.Start(); err != nil {
			return err
		}
		defer eng.scheduler.Stop()

		noBot, _ := cmd.Flags().GetBool("no-telegram")
		noHTTP, _ := cmd.Flags().GetBool("no-http")

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			<-gctx.Done()
			return nil
		})

		if !noBot {
			if err := cfg.ValidateTelegram(); err != nil {
				return fmt.Errorf("telegram: %w (use --no-telegram to skip the bot)", err)
			}
			bot, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
			if err != nil {
				return fmt.Errorf("connect to telegram: %w", err)
			}
			slog.Info("telegram bot authorized", "username", bot.Self.UserName)

			router := telegram.NewRouter(telegram.Deps{
				Bot:       bot,
				Engine:    eng.controller,
				Users:     st.Users(),
				Authoring: eng.authoring,
				Topics:    st.Catalog(),
				Results:   st.Progress(),
			}, telegram.Options{
				TeacherID:        cfg.Telegram.TeacherID,
				QuestionsPerTest: cfg.Session.QuestionsPerTest,
			})
			g.Go(func() error {
				return telegram.Poll(gctx, bot, router.HandleUpdate)
			})
		}

		if !noHTTP {
			srv := &http.Server{
				Addr:              cfg.HTTP.Addr,
				Handler:           httpapi.New(apiOptions(eng, cfg)),
				ReadHeaderTimeout: 10 * time.Second,
			}
			g.Go(func() error {
				slog.Info("http api listening", "addr", srv.Addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("http server: %w", err)
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
				defer cancel()
				return srv.Shutdown(sctx)
			})
		}

		err = g.Wait()
		if errors.Is(err, context.Canceled) {
			err = nil
		}

		// Whatever the outbox still holds gets one last chance.
		fctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if n, ferr := eng.controller.Outbox().Flush(fctx); ferr != nil {
			slog.Error("progress records left unsaved", "count", eng.controller.Outbox().Len(), "error", ferr)
		} else if n > 0 {
			slog.Info("flushed progress records", "count", n)
		}

		slog.Info("shut down")
		return err
	},
}

// apiOptions serves only /healthz when no usable JWT secret is configured.
func apiOptions(eng *engine, cfg config.Config) httpapi.Options {
	opts := httpapi.Options{
		Health:         eng.store,
		CORSOrigins:    cfg.HTTP.CORSOrigins,
		RequestTimeout: cfg.Session.JudgeTimeout + cfg.Session.GeneratorTimeout + 15*time.Second,
	}
	if err := cfg.ValidateHTTP(); err != nil {
		slog.Warn("json api disabled, serving health checks only", "reason", err)
		return opts
	}
	opts.Engine = eng.controller
	opts.Topics = eng.store.Catalog()
	opts.Users = eng.store.Users()
	opts.Auth = httpapi.NewAuthenticator(cfg.HTTP.JWTSecret)
	return opts
}

func init() {
	serveCmd.Flags().Bool("no-telegram", false, "Do not run the Telegram bot")
	serveCmd.Flags().Bool("no-http", false, "Do not run the JSON API")
}
