package storage

import (
	"context"
	"errors"
	"time"

	"github.com/whpcodes/promo-directory/internal/domain"
)

// Sentinel errors shared by all storage implementations. Handlers map these
// to HTTP statuses; everything else is a 500.
var (
	ErrNotFound         = errors.New("record not found")
	ErrDuplicate        = errors.New("duplicate record")
	ErrAlreadyPromoted  = errors.New("submission already promoted to a promo code")
	ErrCommentsDisabled = errors.New("comments are disabled for this post")
	ErrCommentEmpty     = errors.New("comment content cannot be empty")
	ErrCommentTooLong   = errors.New("comment content is too long")
	ErrInvalidVote      = errors.New("vote value must be +1 or -1")
)

// PaginationArgs is cursor pagination for comment listings. Cursor is the id
// of the last comment on the previous page.
type PaginationArgs struct {
	Limit  int
	Cursor *string
}

// StatsFilter selects which tracking events feed a stats query. Exactly one
// field is expected to be set; extra fields narrow the match.
type StatsFilter struct {
	WhopID      string
	PromoCodeID string
	Path        string
}

// Stats is the today/total/last-used view over tracking events.
type Stats struct {
	Today      int64      `json:"today"`
	Total      int64      `json:"total"`
	LastUsedAt *time.Time `json:"lastUsedAt,omitempty"`
}

// Storage is the contract both the Postgres and the in-memory store satisfy.
type Storage interface {
	// Offers
	CreateWhop(ctx context.Context, whop *domain.Whop) (*domain.Whop, error)
	GetWhopBySlug(ctx context.Context, slug string) (*domain.Whop, error)
	// GetWhopsBySlugs batch-loads listed (indexable, non-retired) offers,
	// keyed by slug. Unknown slugs are simply absent from the map.
	GetWhopsBySlugs(ctx context.Context, slugs []string) (map[string]*domain.Whop, error)
	GetWhopsByCategory(ctx context.Context, category, excludeSlug string, limit int) ([]*domain.Whop, error)

	// Promo codes
	CreatePromoCode(ctx context.Context, code *domain.PromoCode) (*domain.PromoCode, error)
	GetPromoCodesByWhopID(ctx context.Context, whopID string) ([]*domain.PromoCode, error)

	// Community submissions
	CreateSubmission(ctx context.Context, sub *domain.PromoCodeSubmission) (*domain.PromoCodeSubmission, error)
	GetSubmissionByID(ctx context.Context, id string) (*domain.PromoCodeSubmission, error)
	ListSubmissions(ctx context.Context, status domain.SubmissionStatus, limit, offset int) ([]*domain.PromoCodeSubmission, error)
	// UpdateSubmissionStatus sets the moderation fields and, iff the new
	// status is APPROVED and the submission is a non-general one with an
	// offer attached, creates the community promo code in the same
	// transaction. A second approval collides on the deterministic promo id
	// and returns ErrAlreadyPromoted.
	UpdateSubmissionStatus(ctx context.Context, id string, status domain.SubmissionStatus, adminNotes, reviewedBy string) (*domain.PromoCodeSubmission, error)

	// Blog
	CreateBlogPost(ctx context.Context, post *domain.BlogPost) (*domain.BlogPost, error)
	GetBlogPostByID(ctx context.Context, id string) (*domain.BlogPost, error)
	GetBlogPostBySlug(ctx context.Context, slug string) (*domain.BlogPost, error)
	ListBlogPosts(ctx context.Context, limit, offset int) ([]*domain.BlogPost, error)

	// Comments
	CreateComment(ctx context.Context, comment *domain.Comment) (*domain.Comment, error)
	GetCommentByID(ctx context.Context, id string) (*domain.Comment, error)
	GetCommentsByPostID(ctx context.Context, postID string, args PaginationArgs) ([]*domain.Comment, error)
	GetCommentsByParentID(ctx context.Context, parentID string, args PaginationArgs) ([]*domain.Comment, error)
	// VoteComment records or switches a vote and returns the comment with
	// adjusted counters. A repeat vote in the same direction is a no-op.
	VoteComment(ctx context.Context, commentID, voterKey string, value int) (*domain.Comment, error)

	// Tracking
	TrackEvent(ctx context.Context, event *domain.OfferTracking) error
	PromoStats(ctx context.Context, filter StatsFilter) (*Stats, error)

	// Mailing list
	Subscribe(ctx context.Context, email string) (*domain.Subscriber, error)
}
