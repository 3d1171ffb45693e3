package api

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/whpcodes/promo-directory/internal/domain"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// CommentStream fans new comments out to websocket subscribers per post.
type CommentStream struct {
	mu sync.RWMutex
	//   map[postID] map[subscriberID] channel
	subs map[string]map[string]chan *domain.Comment
}

// NewCommentStream creates an empty stream hub.
func NewCommentStream() *CommentStream {
	return &CommentStream{subs: make(map[string]map[string]chan *domain.Comment)}
}

// Publish delivers a comment to every subscriber of its post. Slow
// subscribers are skipped rather than blocking the write path.
func (cs *CommentStream) Publish(comment *domain.Comment) {
	if cs == nil {
		return
	}
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	for _, ch := range cs.subs[comment.PostID] {
		select {
		case ch <- comment:
		default:
		}
	}
}

func (cs *CommentStream) subscribe(postID string) (string, chan *domain.Comment) {
	id := uuid.NewString()
	ch := make(chan *domain.Comment, 16)

	cs.mu.Lock()
	if cs.subs[postID] == nil {
		cs.subs[postID] = make(map[string]chan *domain.Comment)
	}
	cs.subs[postID][id] = ch
	cs.mu.Unlock()
	return id, ch
}

func (cs *CommentStream) unsubscribe(postID, id string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if subs, ok := cs.subs[postID]; ok {
		delete(subs, id)
		if len(subs) == 0 {
			delete(cs.subs, postID)
		}
	}
}

// handleCommentStream upgrades to a websocket and pushes each new comment on
// the post as a JSON message.
func (s *Server) handleCommentStream(w http.ResponseWriter, r *http.Request) {
	postID := r.URL.Query().Get("postId")
	if postID == "" {
		writeError(w, http.StatusBadRequest, "postId is required")
		return
	}
	if _, err := s.Store.GetBlogPostByID(r.Context(), postID); err != nil {
		s.storageError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return // Upgrade already wrote the error
	}

	id, ch := s.Stream.subscribe(postID)
	defer s.Stream.unsubscribe(postID, id)
	defer conn.Close()

	// reader goroutine: only there to notice the peer going away
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case comment := <-ch:
			if err := conn.WriteJSON(comment); err != nil {
				s.Log.Debug().Err(err).Msg("comment stream write failed")
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}
