package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"medibot/internal/adapters/transport/telegram"
	"medibot/internal/domain/accessgrants"
	"medibot/internal/domain/medications"
	"medibot/internal/domain/patients"
	"medibot/internal/domain/users"
	"medibot/internal/notify"
	"medibot/internal/platform/config"
	"medibot/internal/platform/logger"
	"medibot/internal/router"
	"medibot/internal/session"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bot (long polling or webhook) and the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.RequireTelegram(); err != nil {
				return err
			}
			log := newLogger(cfg)
			defer syncLogger(log)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, log)
		},
	}
}

func serve(ctx context.Context, cfg config.Config, log logger.Logger) error {
	be, err := openBackend(ctx, cfg.Storage, log)
	if err != nil {
		return err
	}
	defer be.close()

	pats := patients.NewService(be.store)
	grants := accessgrants.NewService(be.store, pats)
	meds := medications.NewService(be.store, pats)
	usrs := users.NewService(be.store, log)

	var sessions session.Store = session.NewMemoryStore()
	if cfg.SessionBackend == "store" {
		sessions = session.NewKVStore(be.store)
	}

	bot, err := telegram.NewClient(telegram.Options{
		Token:       cfg.Telegram.Token,
		APIURL:      cfg.Telegram.APIURL,
		PollTimeout: cfg.Telegram.PollTimeout,
	})
	if err != nil {
		return err
	}

	machine := session.NewMachine(session.Deps{
		Sessions:    sessions,
		Patients:    pats,
		Grants:      grants,
		Medications: meds,
		Users:       usrs,
		Notifier: notify.New(bot, log.With(map[string]any{"component": "notify"}), notify.Options{
			Concurrency: cfg.Notify.Concurrency,
			Timeout:     cfg.Notify.Timeout,
		}),
		Messenger: bot,
		Logger:    log.With(map[string]any{"component": "session"}),
	})
	defer machine.Wait()

	ropts := router.Options{Logger: log, Ready: be.ping}
	if cfg.Telegram.Mode == "webhook" {
		ropts.Handler = machine
		ropts.WebhookSecret = cfg.Telegram.WebhookSecret
	}

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router.NewRouter(ropts),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting server", map[string]any{"addr": srv.Addr, "mode": cfg.Telegram.Mode})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		log.Info("shutting down", nil)
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.Telegram.Mode == "polling" {
		g.Go(func() error {
			// Telegram no entrega getUpdates mientras haya un webhook registrado.
			if err := bot.DeleteWebhook(gctx); err != nil {
				return err
			}
			return telegram.NewPoller(bot, machine, log.With(map[string]any{"component": "poller"})).Run(gctx)
		})
	}

	return g.Wait()
}

func newLogger(cfg config.Config) logger.Logger {
	return logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
		App:    cfg.AppName,
	})
}

func syncLogger(log logger.Logger) {
	if s, ok := log.(interface{ Sync() error }); ok {
		_ = s.Sync()
	}
}
