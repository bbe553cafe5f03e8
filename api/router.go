package api

import (
	"net/http"

	"casino/domain/interfaces"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterDeps holds what the HTTP layer needs
type RouterDeps struct {
	Games          interfaces.GameService
	Settlements    interfaces.SettlementService
	ServiceToken   string // collaborator secret; /v1/settlements is not mounted without one
	Health         HealthChecker
	AllowedOrigins []string
}

// NewRouter builds the chi router with CORS, request ids and panic recovery
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	origins := deps.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", PlayerIDHeader},
		AllowCredentials: false,
		MaxAge:           60 * 15,
	}))

	r.Get("/health", healthHandler(deps.Health))

	games := NewGameHandler(deps.Games)
	r.Route("/v1", func(rr chi.Router) {
		rr.Group(func(pr chi.Router) {
			pr.Use(RequirePlayer)

			pr.Route("/games", func(g chi.Router) {
				g.Post("/slots", games.Slots)
				g.Post("/dice", games.Dice)
				g.Post("/crash/start", games.CrashStart)
				g.Post("/crash/cashout", games.CrashCashout)
				g.Post("/roulette", games.Roulette)
			})
			pr.Get("/ledger", games.Ledger)
			pr.Get("/policy", games.Policy)
		})

		if deps.Settlements != nil && deps.ServiceToken != "" {
			rr.Group(func(sr chi.Router) {
				sr.Use(RequireService(deps.ServiceToken))
				sr.Post("/settlements", NewSettlementHandler(deps.Settlements).Settle)
			})
		}
	})

	return r
}
