package api

import (
	"net/http"

	"github.com/whpcodes/promo-directory/internal/domain"
	"github.com/whpcodes/promo-directory/internal/metrics"
	"github.com/whpcodes/promo-directory/internal/storage"
)

type trackRequest struct {
	WhopID      string `json:"whopId,omitempty"`
	PromoCodeID string `json:"promoCodeId,omitempty"`
	Path        string `json:"path,omitempty"`
	EventType   string `json:"eventType"`
}

func validEventType(t string) bool {
	switch t {
	case "click", "copy", "view":
		return true
	}
	return false
}

func (s *Server) handleTrackEvent(w http.ResponseWriter, r *http.Request) {
	var req trackRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validEventType(req.EventType) {
		writeError(w, http.StatusBadRequest, "eventType must be click, copy, or view")
		return
	}
	if req.WhopID == "" && req.PromoCodeID == "" && req.Path == "" {
		writeError(w, http.StatusBadRequest, "whopId, promoCodeId, or path is required")
		return
	}

	event := &domain.OfferTracking{
		Path:      req.Path,
		EventType: req.EventType,
	}
	if req.WhopID != "" {
		event.WhopID = &req.WhopID
	}
	if req.PromoCodeID != "" {
		event.PromoCodeID = &req.PromoCodeID
	}

	if err := s.Store.TrackEvent(r.Context(), event); err != nil {
		s.storageError(w, err)
		return
	}

	metrics.TrackingEvents.WithLabelValues(req.EventType).Inc()
	s.Stats.InvalidateEvent(r.Context(), req.WhopID, req.PromoCodeID, req.Path)
	writeJSON(w, http.StatusAccepted, map[string]bool{"success": true})
}

func (s *Server) handlePromoStats(w http.ResponseWriter, r *http.Request) {
	filter := storage.StatsFilter{
		WhopID:      r.URL.Query().Get("whopId"),
		PromoCodeID: r.URL.Query().Get("promoCodeId"),
		Path:        r.URL.Query().Get("path"),
	}
	if filter.WhopID == "" && filter.PromoCodeID == "" && filter.Path == "" {
		writeError(w, http.StatusBadRequest, "whopId, promoCodeId, or path is required")
		return
	}

	if cached, ok := s.Stats.Get(r.Context(), filter); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	stats, err := s.Store.PromoStats(r.Context(), filter)
	if err != nil {
		s.storageError(w, err)
		return
	}

	s.Stats.Set(r.Context(), filter, stats)
	writeJSON(w, http.StatusOK, stats)
}
