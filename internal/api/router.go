package api

import (
	"net/http"

	"github.com/fastprodman/gamewallet/internal/signature"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type RouterDeps struct {
	Ledger   Ledger
	Verifier *signature.Verifier
	// Live is mounted at /ws when set.
	Live http.Handler
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
}

// NewRouter registers every wallet endpoint on a chi router.
func NewRouter(deps RouterDeps) http.Handler {
	h := NewHandler(deps.Ledger)
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	if deps.Live != nil {
		r.Method(http.MethodGet, "/ws", deps.Live)
	}

	r.Route("/wallet", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(verifySignature(deps.Verifier))

			r.Post("/play", h.PlayHandler)
			r.Post("/rollback", h.RollbackHandler)
		})

		r.Get("/transactions/{userId}", h.HistoryHandler)
		r.Get("/balance/{userId}", h.BalanceHandler)
	})

	return r
}
