package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/whpcodes/promo-directory/internal/dataloader"
	"github.com/whpcodes/promo-directory/internal/domain"
	"github.com/whpcodes/promo-directory/internal/recommend"
	"github.com/whpcodes/promo-directory/internal/slug"
)

// batchCap bounds /api/whops/batch; the widgets never ask for more.
const batchCap = 24

type whopDetail struct {
	*domain.Whop
	PromoCodes []*domain.PromoCode `json:"promoCodes"`
}

func (s *Server) handleWhopDetail(w http.ResponseWriter, r *http.Request) {
	whop, err := s.Store.GetWhopBySlug(r.Context(), slug.Normalize(chi.URLParam(r, "slug")))
	if err != nil {
		s.storageError(w, err)
		return
	}

	codes, err := s.Store.GetPromoCodesByWhopID(r.Context(), whop.ID)
	if err != nil {
		s.storageError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, whopDetail{Whop: whop, PromoCodes: codes})
}

func (s *Server) handleWhopBatch(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("slugs")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "slugs query parameter is required")
		return
	}

	// normalize, dedupe, keep request order, cap
	var slugs []string
	seen := map[string]bool{}
	for _, part := range strings.Split(raw, ",") {
		n := slug.Normalize(part)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		slugs = append(slugs, n)
		if len(slugs) == batchCap {
			break
		}
	}

	whops, err := dataloader.LoadWhops(r.Context(), s.Store, slugs)
	if err != nil {
		s.Log.Warn().Err(err).Msg("batch hydration failed")
		whops = []*domain.Whop{}
	}
	if whops == nil {
		whops = []*domain.Whop{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"whops": whops})
}

func (s *Server) handleAlternatives(w http.ResponseWriter, r *http.Request) {
	whops := s.Rec.Alternatives(r.Context(), chi.URLParam(r, "slug"), widgetLimit(r))
	writeJSON(w, http.StatusOK, map[string]any{"whops": whops})
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	whops := s.Rec.Recommendations(r.Context(), chi.URLParam(r, "slug"), widgetLimit(r))
	writeJSON(w, http.StatusOK, map[string]any{"whops": whops})
}

func (s *Server) handleVerification(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Ledger.Load(chi.URLParam(r, "slug")))
}

func widgetLimit(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 || limit > batchCap {
		return recommend.DefaultLimit
	}
	return limit
}
