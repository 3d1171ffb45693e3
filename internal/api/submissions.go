package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/whpcodes/promo-directory/internal/domain"
	"github.com/whpcodes/promo-directory/internal/metrics"
	"github.com/whpcodes/promo-directory/internal/slug"
)

type createSubmissionRequest struct {
	WhopSlug      string  `json:"whopSlug"`
	Code          string  `json:"code"`
	Title         string  `json:"title"`
	DiscountValue float64 `json:"discountValue"`
	DiscountType  string  `json:"discountType"`
	IsGeneral     bool    `json:"isGeneral"`
}

func (s *Server) handleCreateSubmission(w http.ResponseWriter, r *http.Request) {
	var req createSubmissionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Code) == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}

	sub := &domain.PromoCodeSubmission{
		Code:          strings.TrimSpace(req.Code),
		Title:         strings.TrimSpace(req.Title),
		DiscountValue: req.DiscountValue,
		DiscountType:  req.DiscountType,
		IsGeneral:     req.IsGeneral,
	}
	if sub.DiscountType == "" {
		sub.DiscountType = "percentage"
	}

	if !req.IsGeneral {
		if req.WhopSlug == "" {
			writeError(w, http.StatusBadRequest, "whopSlug is required for offer-specific codes")
			return
		}
		whop, err := s.Store.GetWhopBySlug(r.Context(), slug.Normalize(req.WhopSlug))
		if err != nil {
			s.storageError(w, err)
			return
		}
		sub.WhopID = &whop.ID
	}

	created, err := s.Store.CreateSubmission(r.Context(), sub)
	if err != nil {
		s.storageError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "submission": created})
}

func (s *Server) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	status := domain.SubmissionStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		writeError(w, http.StatusBadRequest, "invalid status filter")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}

	subs, err := s.Store.ListSubmissions(r.Context(), status, limit, offset)
	if err != nil {
		s.storageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"submissions": subs})
}

type updateStatusRequest struct {
	SubmissionID string `json:"submissionId"`
	Status       string `json:"status"`
	AdminNotes   string `json:"adminNotes"`
	ReviewedBy   string `json:"reviewedBy"`
}

// handleUpdateSubmissionStatus is the moderation endpoint. Approval of a
// non-general submission also creates the community promo code, atomically
// with the status change; the second approval of the same submission is a
// 409. No retry policy here, the admin UI re-submits on failure.
func (s *Server) handleUpdateSubmissionStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.SubmissionID == "" {
		writeError(w, http.StatusBadRequest, "submissionId is required")
		return
	}
	status := domain.SubmissionStatus(strings.ToUpper(req.Status))
	if !status.Valid() {
		writeError(w, http.StatusBadRequest, "status must be PENDING, APPROVED, or REJECTED")
		return
	}

	sub, err := s.Store.UpdateSubmissionStatus(r.Context(), req.SubmissionID, status, req.AdminNotes, req.ReviewedBy)
	if err != nil {
		s.storageError(w, err)
		return
	}

	metrics.ModerationDecisions.WithLabelValues(string(status)).Inc()
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"message":    statusMessage(status),
		"submission": sub,
	})
}

func statusMessage(status domain.SubmissionStatus) string {
	switch status {
	case domain.SubmissionApproved:
		return "submission approved"
	case domain.SubmissionRejected:
		return "submission rejected"
	default:
		return "submission moved back to pending"
	}
}
