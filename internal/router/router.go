package router

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "medibot/docs"
	"medibot/internal/adapters/transport/telegram"
	"medibot/internal/middleware"
	"medibot/internal/platform/logger"
)

type Options struct {
	Logger logger.Logger

	// Handler recibe los updates del webhook. Si es nil (modo polling) la
	// ruta no se monta.
	Handler       telegram.Handler
	WebhookSecret string

	// Ready verifica dependencias (store); opcional.
	Ready func(ctx context.Context) error
}

func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recover(log))
	r.Use(middleware.RequestLog(log))

	r.Get("/health", health)
	r.Get("/ready", ready(opts.Ready))
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	if opts.Handler != nil {
		r.With(middleware.WebhookSecret(opts.WebhookSecret)).
			Post("/telegram/webhook", telegram.WebhookHandler(opts.Handler, log))
	}

	return r
}

// health
//
// @Summary  Liveness probe
// @Tags     ops
// @Produce  plain
// @Success  200  {string}  string  "ok"
// @Router   /health [get]
func health(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// ready
//
// @Summary  Readiness probe (store reachable)
// @Tags     ops
// @Produce  plain
// @Success  200  {string}  string  "ok"
// @Failure  503  {string}  string  "store unavailable"
// @Router   /ready [get]
func ready(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r.Context()); err != nil {
				http.Error(w, "store unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
