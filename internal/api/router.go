// Package api exposes the WHPCodes JSON API: offer widgets, the community
// promo-code moderation endpoint, blog comments and voting, click tracking,
// promo stats, and mailing-list subscription.
package api

import (
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/whpcodes/promo-directory/internal/dataloader"
	"github.com/whpcodes/promo-directory/internal/ledger"
	"github.com/whpcodes/promo-directory/internal/recommend"
	"github.com/whpcodes/promo-directory/internal/statscache"
	"github.com/whpcodes/promo-directory/internal/storage"
)

// Server bundles the handler dependencies.
type Server struct {
	Store   storage.Storage
	Rec     *recommend.Service
	Ledger  *ledger.Reader
	Stats   *statscache.Cache
	Stream  *CommentStream
	Log     zerolog.Logger
	Healthy func(r *http.Request) error // optional DB check for /health/db
}

// Router builds the chi router with the full API surface.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.Log))

	writes := newIPLimiter(rate.Every(time.Second), 10)

	r.Route("/api", func(r chi.Router) {
		r.Route("/whops", func(r chi.Router) {
			r.Use(func(next http.Handler) http.Handler {
				return dataloader.Middleware(s.Store, next)
			})
			r.Get("/batch", s.handleWhopBatch)
			r.Get("/{slug}", s.handleWhopDetail)
			r.Get("/{slug}/alternatives", s.handleAlternatives)
			r.Get("/{slug}/recommendations", s.handleRecommendations)
			r.Get("/{slug}/verification", s.handleVerification)
		})

		r.Route("/comments", func(r chi.Router) {
			r.Get("/", s.handleListComments)
			r.Get("/stream", s.handleCommentStream)
			r.With(writes.middleware).Post("/", s.handleCreateComment)
			r.With(writes.middleware).Post("/{id}/vote", s.handleVoteComment)
		})

		r.With(writes.middleware).Post("/promo-submissions", s.handleCreateSubmission)
		r.Route("/admin/promo-submissions", func(r chi.Router) {
			r.Get("/", s.handleListSubmissions)
			r.Post("/update-status", s.handleUpdateSubmissionStatus)
		})

		r.With(writes.middleware).Post("/tracking", s.handleTrackEvent)
		r.Get("/promo-stats", s.handlePromoStats)
		r.With(writes.middleware).Post("/mailing-list/subscribe", s.handleSubscribe)
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		hostname, _ := os.Hostname()
		writeJSON(w, http.StatusOK, map[string]string{
			"status":   "ok",
			"service":  "promo-directory",
			"hostname": hostname,
		})
	})
	r.Get("/health/db", func(w http.ResponseWriter, req *http.Request) {
		if s.Healthy != nil {
			if err := s.Healthy(req); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "error", "message": "database unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	return r
}
