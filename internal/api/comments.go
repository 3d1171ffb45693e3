package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/whpcodes/promo-directory/internal/domain"
	"github.com/whpcodes/promo-directory/internal/storage"
)

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	postID := r.URL.Query().Get("postId")
	parentID := r.URL.Query().Get("parentId")
	if postID == "" && parentID == "" {
		writeError(w, http.StatusBadRequest, "postId or parentId is required")
		return
	}

	args := storage.PaginationArgs{Limit: 20}
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && limit > 0 && limit <= 100 {
		args.Limit = limit
	}
	if cursor := r.URL.Query().Get("cursor"); cursor != "" {
		args.Cursor = &cursor
	}

	var (
		comments []*domain.Comment
		err      error
	)
	if parentID != "" {
		comments, err = s.Store.GetCommentsByParentID(r.Context(), parentID, args)
	} else {
		comments, err = s.Store.GetCommentsByPostID(r.Context(), postID, args)
	}
	if err != nil {
		s.storageError(w, err)
		return
	}
	if comments == nil {
		comments = []*domain.Comment{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"comments": comments})
}

type createCommentRequest struct {
	PostID     string  `json:"postId"`
	ParentID   *string `json:"parentId,omitempty"`
	AuthorName string  `json:"authorName"`
	Content    string  `json:"content"`
}

func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	var req createCommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.PostID == "" {
		writeError(w, http.StatusBadRequest, "postId is required")
		return
	}
	author := strings.TrimSpace(req.AuthorName)
	if author == "" {
		author = "Anonymous"
	}

	comment, err := s.Store.CreateComment(r.Context(), &domain.Comment{
		PostID:     req.PostID,
		ParentID:   req.ParentID,
		AuthorName: author,
		Content:    req.Content,
	})
	if err != nil {
		s.storageError(w, err)
		return
	}

	s.Stream.Publish(comment)
	writeJSON(w, http.StatusCreated, comment)
}

type voteRequest struct {
	VoterKey  string `json:"voterKey"`
	Direction string `json:"direction"` // "up" or "down"
}

func (s *Server) handleVoteComment(w http.ResponseWriter, r *http.Request) {
	var req voteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.VoterKey == "" {
		writeError(w, http.StatusBadRequest, "voterKey is required")
		return
	}

	var value int
	switch req.Direction {
	case "up":
		value = 1
	case "down":
		value = -1
	default:
		writeError(w, http.StatusBadRequest, "direction must be up or down")
		return
	}

	comment, err := s.Store.VoteComment(r.Context(), chi.URLParam(r, "id"), req.VoterKey, value)
	if err != nil {
		s.storageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, comment)
}
