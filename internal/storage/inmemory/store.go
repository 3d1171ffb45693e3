package inmemory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/whpcodes/promo-directory/internal/domain"
	"github.com/whpcodes/promo-directory/internal/storage"

	"github.com/google/uuid"
)

// Store implements storage.Storage in memory. Used for dev mode and tests.
type Store struct {
	mu               sync.RWMutex
	whops            map[string]*domain.Whop // by id
	whopIDBySlug     map[string]string
	promoCodes       map[string]*domain.PromoCode
	promosByWhop     map[string][]string // map[whopID][]promoID, insertion order
	submissions      map[string]*domain.PromoCodeSubmission
	posts            map[string]*domain.BlogPost // by id
	postIDBySlug     map[string]string
	comments         map[string]*domain.Comment
	rootsByPost      map[string][]string // map[postID][]commentID (roots only)
	childrenByParent map[string][]string
	votes            map[string]*domain.CommentVote // key commentID+"|"+voterKey
	events           []*domain.OfferTracking
	subscribers      map[string]*domain.Subscriber // by email
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		whops:            make(map[string]*domain.Whop),
		whopIDBySlug:     make(map[string]string),
		promoCodes:       make(map[string]*domain.PromoCode),
		promosByWhop:     make(map[string][]string),
		submissions:      make(map[string]*domain.PromoCodeSubmission),
		posts:            make(map[string]*domain.BlogPost),
		postIDBySlug:     make(map[string]string),
		comments:         make(map[string]*domain.Comment),
		rootsByPost:      make(map[string][]string),
		childrenByParent: make(map[string][]string),
		votes:            make(map[string]*domain.CommentVote),
		subscribers:      make(map[string]*domain.Subscriber),
	}
}

// === Whop Methods ===

func (s *Store) CreateWhop(ctx context.Context, whop *domain.Whop) (*domain.Whop, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.whopIDBySlug[whop.Slug]; exists {
		return nil, storage.ErrDuplicate
	}
	whop.ID = uuid.NewString()
	whop.CreatedAt = time.Now().UTC()
	whop.UpdatedAt = whop.CreatedAt
	s.whops[whop.ID] = whop
	s.whopIDBySlug[whop.Slug] = whop.ID
	return whop, nil
}

func (s *Store) GetWhopBySlug(ctx context.Context, slug string) (*domain.Whop, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.whopIDBySlug[slug]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return s.whops[id], nil
}

func (s *Store) GetWhopsBySlugs(ctx context.Context, slugs []string) (map[string]*domain.Whop, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]*domain.Whop, len(slugs))
	for _, slug := range slugs {
		id, ok := s.whopIDBySlug[slug]
		if !ok {
			continue
		}
		if w := s.whops[id]; w.Listed() {
			result[slug] = w
		}
	}
	return result, nil
}

func (s *Store) GetWhopsByCategory(ctx context.Context, category, excludeSlug string, limit int) ([]*domain.Whop, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var whops []*domain.Whop
	for _, w := range s.whops {
		if w.Category == category && w.Slug != excludeSlug && w.Listed() {
			whops = append(whops, w)
		}
	}
	sort.Slice(whops, func(i, j int) bool {
		if whops[i].Rating != whops[j].Rating {
			return whops[i].Rating > whops[j].Rating
		}
		return whops[i].Name < whops[j].Name
	})
	if limit > 0 && len(whops) > limit {
		whops = whops[:limit]
	}
	return whops, nil
}

// === PromoCode Methods ===

func (s *Store) CreatePromoCode(ctx context.Context, code *domain.PromoCode) (*domain.PromoCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createPromoCodeLocked(code)
}

func (s *Store) createPromoCodeLocked(code *domain.PromoCode) (*domain.PromoCode, error) {
	if code.ID == "" {
		code.ID = uuid.NewString()
	}
	if _, exists := s.promoCodes[code.ID]; exists {
		return nil, storage.ErrDuplicate
	}
	code.CreatedAt = time.Now().UTC()
	s.promoCodes[code.ID] = code
	s.promosByWhop[code.WhopID] = append(s.promosByWhop[code.WhopID], code.ID)
	return code, nil
}

func (s *Store) GetPromoCodesByWhopID(ctx context.Context, whopID string) ([]*domain.PromoCode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.promosByWhop[whopID]
	codes := make([]*domain.PromoCode, 0, len(ids))
	// newest first, matching the SQL ordering
	for i := len(ids) - 1; i >= 0; i-- {
		if c := s.promoCodes[ids[i]]; c.Active {
			codes = append(codes, c)
		}
	}
	return codes, nil
}

// === Submission Methods ===

func (s *Store) CreateSubmission(ctx context.Context, sub *domain.PromoCodeSubmission) (*domain.PromoCodeSubmission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(sub.Code) == "" {
		return nil, errors.New("submission code cannot be empty")
	}
	sub.ID = uuid.NewString()
	if sub.Status == "" {
		sub.Status = domain.SubmissionPending
	}
	sub.CreatedAt = time.Now().UTC()
	s.submissions[sub.ID] = sub
	return sub, nil
}

func (s *Store) GetSubmissionByID(ctx context.Context, id string) (*domain.PromoCodeSubmission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.submissions[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return sub, nil
}

func (s *Store) ListSubmissions(ctx context.Context, status domain.SubmissionStatus, limit, offset int) ([]*domain.PromoCodeSubmission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	subs := make([]*domain.PromoCodeSubmission, 0, len(s.submissions))
	for _, sub := range s.submissions {
		if status == "" || sub.Status == status {
			subs = append(subs, sub)
		}
	}
	sort.Slice(subs, func(i, j int) bool {
		return subs[i].CreatedAt.After(subs[j].CreatedAt)
	})

	if offset >= len(subs) {
		return []*domain.PromoCodeSubmission{}, nil
	}
	subs = subs[offset:]
	if limit > 0 && len(subs) > limit {
		subs = subs[:limit]
	}
	return subs, nil
}

func (s *Store) UpdateSubmissionStatus(ctx context.Context, id string, status domain.SubmissionStatus, adminNotes, reviewedBy string) (*domain.PromoCodeSubmission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.submissions[id]
	if !ok {
		return nil, storage.ErrNotFound
	}

	promotes := status == domain.SubmissionApproved && !sub.IsGeneral && sub.WhopID != nil
	if promotes {
		// Detect the deterministic-id collision before touching the
		// submission, mirroring the all-or-nothing SQL transaction.
		if _, exists := s.promoCodes[domain.CommunityPromoID(sub.ID)]; exists {
			return nil, storage.ErrAlreadyPromoted
		}
	}

	now := time.Now().UTC()
	sub.Status = status
	sub.AdminNotes = adminNotes
	sub.ReviewedBy = reviewedBy
	sub.ReviewedAt = &now

	if promotes {
		title := sub.Title
		if title == "" {
			title = "Community submitted code"
		}
		if _, err := s.createPromoCodeLocked(&domain.PromoCode{
			ID:            domain.CommunityPromoID(sub.ID),
			WhopID:        *sub.WhopID,
			Code:          sub.Code,
			Title:         title,
			DiscountValue: sub.DiscountValue,
			DiscountType:  sub.DiscountType,
			Active:        true,
		}); err != nil {
			return nil, err
		}
	}
	return sub, nil
}

// === Blog Methods ===

func (s *Store) CreateBlogPost(ctx context.Context, post *domain.BlogPost) (*domain.BlogPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.postIDBySlug[post.Slug]; exists {
		return nil, storage.ErrDuplicate
	}
	post.ID = uuid.NewString()
	post.CreatedAt = time.Now().UTC()
	s.posts[post.ID] = post
	s.postIDBySlug[post.Slug] = post.ID
	return post, nil
}

func (s *Store) GetBlogPostByID(ctx context.Context, id string) (*domain.BlogPost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	post, ok := s.posts[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return post, nil
}

func (s *Store) GetBlogPostBySlug(ctx context.Context, slug string) (*domain.BlogPost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.postIDBySlug[slug]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return s.posts[id], nil
}

func (s *Store) ListBlogPosts(ctx context.Context, limit, offset int) ([]*domain.BlogPost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	posts := make([]*domain.BlogPost, 0, len(s.posts))
	for _, p := range s.posts {
		if p.Published {
			posts = append(posts, p)
		}
	}
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})

	if offset >= len(posts) {
		return []*domain.BlogPost{}, nil
	}
	posts = posts[offset:]
	if limit > 0 && len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

// === Comment Methods ===

func (s *Store) CreateComment(ctx context.Context, comment *domain.Comment) (*domain.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[comment.PostID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	if !post.CommentsEnabled {
		return nil, storage.ErrCommentsDisabled
	}
	if strings.TrimSpace(comment.Content) == "" {
		return nil, storage.ErrCommentEmpty
	}
	if len(comment.Content) > 2000 {
		return nil, storage.ErrCommentTooLong
	}
	if comment.ParentID != nil {
		if _, ok := s.comments[*comment.ParentID]; !ok {
			return nil, storage.ErrNotFound
		}
	}

	comment.ID = uuid.NewString()
	comment.CreatedAt = time.Now().UTC()
	s.comments[comment.ID] = comment
	if comment.ParentID != nil {
		s.childrenByParent[*comment.ParentID] = append(s.childrenByParent[*comment.ParentID], comment.ID)
	} else {
		s.rootsByPost[comment.PostID] = append(s.rootsByPost[comment.PostID], comment.ID)
	}
	return comment, nil
}

func (s *Store) GetCommentByID(ctx context.Context, id string) (*domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	comment, ok := s.comments[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return comment, nil
}

func (s *Store) GetCommentsByPostID(ctx context.Context, postID string, args storage.PaginationArgs) ([]*domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.page(s.rootsByPost[postID], args), nil
}

func (s *Store) GetCommentsByParentID(ctx context.Context, parentID string, args storage.PaginationArgs) ([]*domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.page(s.childrenByParent[parentID], args), nil
}

// page slices an ordered id list after the cursor and resolves comments.
func (s *Store) page(ids []string, args storage.PaginationArgs) []*domain.Comment {
	start := 0
	if args.Cursor != nil {
		for i, id := range ids {
			if id == *args.Cursor {
				start = i + 1
				break
			}
		}
	}

	comments := make([]*domain.Comment, 0, args.Limit)
	for _, id := range ids[min(start, len(ids)):] {
		if args.Limit > 0 && len(comments) >= args.Limit {
			break
		}
		comments = append(comments, s.comments[id])
	}
	return comments
}

func (s *Store) VoteComment(ctx context.Context, commentID, voterKey string, value int) (*domain.Comment, error) {
	if value != 1 && value != -1 {
		return nil, storage.ErrInvalidVote
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	comment, ok := s.comments[commentID]
	if !ok {
		return nil, storage.ErrNotFound
	}

	key := commentID + "|" + voterKey
	vote, exists := s.votes[key]
	switch {
	case exists && vote.Value == value:
		// same direction twice is a no-op
	case exists:
		vote.Value = value
		if value == 1 {
			comment.Upvotes++
			comment.Downvotes--
		} else {
			comment.Upvotes--
			comment.Downvotes++
		}
	default:
		s.votes[key] = &domain.CommentVote{
			ID:        uuid.NewString(),
			CommentID: commentID,
			VoterKey:  voterKey,
			Value:     value,
			CreatedAt: time.Now().UTC(),
		}
		if value == 1 {
			comment.Upvotes++
		} else {
			comment.Downvotes++
		}
	}
	return comment, nil
}

// === Tracking Methods ===

func (s *Store) TrackEvent(ctx context.Context, event *domain.OfferTracking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	event.ID = uuid.NewString()
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	s.events = append(s.events, event)
	return nil
}

func (s *Store) PromoStats(ctx context.Context, filter storage.StatsFilter) (*storage.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	stats := &storage.Stats{}
	for _, e := range s.events {
		if filter.WhopID != "" && (e.WhopID == nil || *e.WhopID != filter.WhopID) {
			continue
		}
		if filter.PromoCodeID != "" && (e.PromoCodeID == nil || *e.PromoCodeID != filter.PromoCodeID) {
			continue
		}
		if filter.Path != "" && e.Path != filter.Path {
			continue
		}
		stats.Total++
		if !e.OccurredAt.Before(midnight) {
			stats.Today++
		}
		if stats.LastUsedAt == nil || e.OccurredAt.After(*stats.LastUsedAt) {
			t := e.OccurredAt
			stats.LastUsedAt = &t
		}
	}
	return stats, nil
}

// === Mailing List ===

func (s *Store) Subscribe(ctx context.Context, email string) (*domain.Subscriber, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.subscribers[email]; ok {
		return existing, nil
	}
	sub := &domain.Subscriber{
		ID:           uuid.NewString(),
		Email:        email,
		SubscribedAt: time.Now().UTC(),
	}
	s.subscribers[email] = sub
	return sub, nil
}
