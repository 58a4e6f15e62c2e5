package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	apimiddleware "github.com/phrazzld/scry-dealer/internal/api/middleware"
)

// Handlers groups the handlers mounted by NewRouter.
type Handlers struct {
	Filters *FilterHandler
	Dealers *DealerHandler
	Queries *QueryHandler
	Studies *StudyHandler
	Cards   *CardHandler
}

// RouterConfig tunes the router's middleware.
type RouterConfig struct {
	Logger *slog.Logger

	// RateLimitRPS bounds selection endpoints per client. Zero disables limiting.
	// Clients are keyed by the connection's remote address; forwarding headers
	// such as X-Forwarded-For are ignored.
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewRouter creates the application router with all routes and middleware.
func NewRouter(h Handlers, cfg RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(apimiddleware.NewTraceMiddleware(log))

	// Selection endpoints and filter reads (which compute validity) enumerate
	// cards; they share a per-client limiter.
	limited := func(next http.Handler) http.Handler { return next }
	if cfg.RateLimitRPS > 0 {
		limited = apimiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, log).Handler
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/filters", func(r chi.Router) {
			r.Post("/", h.Filters.CreateFilter)
			r.With(limited).Get("/", h.Filters.ListFilters)
			r.With(limited).Get("/{id}", h.Filters.GetFilter)
			r.Delete("/{id}", h.Filters.DeleteFilter)
			r.Put("/{id}/tags/{tag}", h.Filters.AddTag)
			r.Patch("/{id}/tags/{tag}", h.Filters.SetTagExclusion)
			r.Delete("/{id}/tags/{tag}", h.Filters.RemoveTag)
			r.With(limited).Get("/{id}/card", h.Filters.NextCard)
		})

		r.Route("/dealers", func(r chi.Router) {
			r.Post("/", h.Dealers.CreateDealer)
			r.Get("/", h.Dealers.ListDealers)
			r.Get("/{id}", h.Dealers.GetDealer)
			r.Patch("/{id}", h.Dealers.RenameDealer)
			r.Delete("/{id}", h.Dealers.DeleteDealer)
			r.Get("/{id}/query", h.Dealers.DealerQuery)
			r.Put("/{id}/filters/{filterID}", h.Dealers.AddFilter)
			r.Patch("/{id}/filters/{filterID}", h.Dealers.SetWeight)
			r.Delete("/{id}/filters/{filterID}", h.Dealers.RemoveFilter)
			r.With(limited).Post("/{id}/deal", h.Dealers.Deal)
		})

		r.Post("/packs", h.Cards.ImportPack)
		r.Put("/cards/{id}/tags", h.Cards.SetTags)
		r.With(limited).Post("/cards/query", h.Queries.QueryCards)

		r.Route("/queries", func(r chi.Router) {
			r.Post("/", h.Queries.SaveQuery)
			r.Get("/", h.Queries.ListQueries)
			r.With(limited).Post("/draw", h.Queries.DrawTree)
			r.Get("/{id}", h.Queries.GetQuery)
			r.Delete("/{id}", h.Queries.DeleteQuery)
			r.With(limited).Post("/{id}/deal", h.Queries.DrawQuery)
		})

		r.Route("/studies", func(r chi.Router) {
			r.Post("/", h.Studies.CreateStudy)
			r.Get("/", h.Studies.ListStudies)
			r.Get("/{id}", h.Studies.GetStudy)
			r.Patch("/{id}", h.Studies.UpdateStudy)
			r.Delete("/{id}", h.Studies.DeleteStudy)
			r.Put("/{id}/tags/{tag}", h.Studies.AddTag)
			r.Delete("/{id}/tags/{tag}", h.Studies.RemoveTag)
			r.With(limited).Post("/{id}/draw", h.Studies.Draw)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
