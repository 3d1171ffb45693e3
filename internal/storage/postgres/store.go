package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/whpcodes/promo-directory/internal/domain"
	"github.com/whpcodes/promo-directory/internal/storage"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store implements storage.Storage on PostgreSQL via GORM.
type Store struct {
	db *gorm.DB
}

// New connects to PostgreSQL and migrates the schema.
func New(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		// Needed so duplicate-key violations surface as gorm.ErrDuplicatedKey.
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(
		&domain.Whop{},
		&domain.PromoCode{},
		&domain.PromoCodeSubmission{},
		&domain.BlogPost{},
		&domain.Comment{},
		&domain.CommentVote{},
		&domain.OfferTracking{},
		&domain.Subscriber{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{db: db}, nil
}

// Ping checks the underlying connection, backing /health/db.
func (s *Store) Ping(ctx context.Context) error {
	db, err := s.db.DB()
	if err != nil {
		return err
	}
	return db.PingContext(ctx)
}

// === Whop Methods ===

func (s *Store) CreateWhop(ctx context.Context, whop *domain.Whop) (*domain.Whop, error) {
	if err := s.db.WithContext(ctx).Create(whop).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, storage.ErrDuplicate
		}
		return nil, err
	}
	return whop, nil
}

func (s *Store) GetWhopBySlug(ctx context.Context, slug string) (*domain.Whop, error) {
	var whop domain.Whop
	if err := s.db.WithContext(ctx).First(&whop, "slug = ?", slug).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return &whop, nil
}

func (s *Store) GetWhopsBySlugs(ctx context.Context, slugs []string) (map[string]*domain.Whop, error) {
	if len(slugs) == 0 {
		return map[string]*domain.Whop{}, nil
	}
	var whops []*domain.Whop
	err := s.db.WithContext(ctx).
		Where("slug IN ? AND indexable AND NOT retired", slugs).
		Find(&whops).Error
	if err != nil {
		return nil, err
	}

	result := make(map[string]*domain.Whop, len(whops))
	for _, w := range whops {
		result[w.Slug] = w
	}
	return result, nil
}

func (s *Store) GetWhopsByCategory(ctx context.Context, category, excludeSlug string, limit int) ([]*domain.Whop, error) {
	var whops []*domain.Whop
	err := s.db.WithContext(ctx).
		Where("category = ? AND slug <> ? AND indexable AND NOT retired", category, excludeSlug).
		Order("rating DESC, name ASC").
		Limit(limit).
		Find(&whops).Error
	return whops, err
}

// === PromoCode Methods ===

func (s *Store) CreatePromoCode(ctx context.Context, code *domain.PromoCode) (*domain.PromoCode, error) {
	if err := s.db.WithContext(ctx).Create(code).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, storage.ErrDuplicate
		}
		return nil, err
	}
	return code, nil
}

func (s *Store) GetPromoCodesByWhopID(ctx context.Context, whopID string) ([]*domain.PromoCode, error) {
	var codes []*domain.PromoCode
	err := s.db.WithContext(ctx).
		Where("whop_id = ? AND active", whopID).
		Order("created_at DESC").
		Find(&codes).Error
	return codes, err
}

// === Submission Methods ===

func (s *Store) CreateSubmission(ctx context.Context, sub *domain.PromoCodeSubmission) (*domain.PromoCodeSubmission, error) {
	if strings.TrimSpace(sub.Code) == "" {
		return nil, errors.New("submission code cannot be empty")
	}
	if sub.Status == "" {
		sub.Status = domain.SubmissionPending
	}
	if err := s.db.WithContext(ctx).Create(sub).Error; err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *Store) GetSubmissionByID(ctx context.Context, id string) (*domain.PromoCodeSubmission, error) {
	var sub domain.PromoCodeSubmission
	if err := s.db.WithContext(ctx).First(&sub, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return &sub, nil
}

func (s *Store) ListSubmissions(ctx context.Context, status domain.SubmissionStatus, limit, offset int) ([]*domain.PromoCodeSubmission, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Offset(offset)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var subs []*domain.PromoCodeSubmission
	err := q.Find(&subs).Error
	return subs, err
}

func (s *Store) UpdateSubmissionStatus(ctx context.Context, id string, status domain.SubmissionStatus, adminNotes, reviewedBy string) (*domain.PromoCodeSubmission, error) {
	var sub domain.PromoCodeSubmission

	// Status update and promo code creation must land together. There is no
	// explicit "already processed" check: a second approval collides on the
	// deterministic community promo id and rolls the whole thing back.
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&sub, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return storage.ErrNotFound
			}
			return err
		}

		now := time.Now().UTC()
		sub.Status = status
		sub.AdminNotes = adminNotes
		sub.ReviewedBy = reviewedBy
		sub.ReviewedAt = &now
		if err := tx.Save(&sub).Error; err != nil {
			return err
		}

		if status != domain.SubmissionApproved || sub.IsGeneral || sub.WhopID == nil {
			return nil
		}

		promo := communityPromo(&sub)
		if err := tx.Create(promo).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return storage.ErrAlreadyPromoted
			}
			return err
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func communityPromo(sub *domain.PromoCodeSubmission) *domain.PromoCode {
	title := sub.Title
	if title == "" {
		title = "Community submitted code"
	}
	return &domain.PromoCode{
		ID:            domain.CommunityPromoID(sub.ID),
		WhopID:        *sub.WhopID,
		Code:          sub.Code,
		Title:         title,
		DiscountValue: sub.DiscountValue,
		DiscountType:  sub.DiscountType,
		Active:        true,
	}
}

// === Blog Methods ===

func (s *Store) CreateBlogPost(ctx context.Context, post *domain.BlogPost) (*domain.BlogPost, error) {
	if err := s.db.WithContext(ctx).Create(post).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, storage.ErrDuplicate
		}
		return nil, err
	}
	return post, nil
}

func (s *Store) GetBlogPostByID(ctx context.Context, id string) (*domain.BlogPost, error) {
	var post domain.BlogPost
	if err := s.db.WithContext(ctx).First(&post, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return &post, nil
}

func (s *Store) GetBlogPostBySlug(ctx context.Context, slug string) (*domain.BlogPost, error) {
	var post domain.BlogPost
	if err := s.db.WithContext(ctx).First(&post, "slug = ?", slug).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return &post, nil
}

func (s *Store) ListBlogPosts(ctx context.Context, limit, offset int) ([]*domain.BlogPost, error) {
	var posts []*domain.BlogPost
	err := s.db.WithContext(ctx).
		Where("published").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	return posts, err
}

// === Comment Methods ===

func (s *Store) CreateComment(ctx context.Context, comment *domain.Comment) (*domain.Comment, error) {
	if strings.TrimSpace(comment.Content) == "" {
		return nil, storage.ErrCommentEmpty
	}
	if len(comment.Content) > 2000 {
		return nil, storage.ErrCommentTooLong
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post domain.BlogPost
		if err := tx.Select("comments_enabled").First(&post, "id = ?", comment.PostID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		if !post.CommentsEnabled {
			return storage.ErrCommentsDisabled
		}

		if comment.ParentID != nil {
			var parents int64
			if err := tx.Model(&domain.Comment{}).Where("id = ?", *comment.ParentID).Count(&parents).Error; err != nil {
				return err
			}
			if parents == 0 {
				return storage.ErrNotFound
			}
		}

		return tx.Create(comment).Error
	})

	if err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *Store) GetCommentByID(ctx context.Context, id string) (*domain.Comment, error) {
	var comment domain.Comment
	if err := s.db.WithContext(ctx).First(&comment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return &comment, nil
}

func (s *Store) GetCommentsByPostID(ctx context.Context, postID string, args storage.PaginationArgs) ([]*domain.Comment, error) {
	var comments []*domain.Comment
	query := s.db.WithContext(ctx).
		Where("post_id = ? AND parent_id IS NULL", postID).
		Order("created_at ASC").
		Limit(args.Limit)

	if args.Cursor != nil {
		var cursor domain.Comment
		if err := s.db.First(&cursor, "id = ?", *args.Cursor).Error; err == nil {
			query = query.Where("created_at > ?", cursor.CreatedAt)
		}
	}

	err := query.Find(&comments).Error
	return comments, err
}

func (s *Store) GetCommentsByParentID(ctx context.Context, parentID string, args storage.PaginationArgs) ([]*domain.Comment, error) {
	var comments []*domain.Comment
	query := s.db.WithContext(ctx).
		Where("parent_id = ?", parentID).
		Order("created_at ASC").
		Limit(args.Limit)

	if args.Cursor != nil {
		var cursor domain.Comment
		if err := s.db.First(&cursor, "id = ?", *args.Cursor).Error; err == nil {
			query = query.Where("created_at > ?", cursor.CreatedAt)
		}
	}

	err := query.Find(&comments).Error
	return comments, err
}

func (s *Store) VoteComment(ctx context.Context, commentID, voterKey string, value int) (*domain.Comment, error) {
	if value != 1 && value != -1 {
		return nil, storage.ErrInvalidVote
	}

	var comment domain.Comment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&comment, "id = ?", commentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return storage.ErrNotFound
			}
			return err
		}

		var vote domain.CommentVote
		err := tx.First(&vote, "comment_id = ? AND voter_key = ?", commentID, voterKey).Error
		switch {
		case err == nil:
			if vote.Value == value {
				return nil // same direction twice is a no-op
			}
			vote.Value = value
			if err := tx.Save(&vote).Error; err != nil {
				return err
			}
			if value == 1 {
				comment.Upvotes++
				comment.Downvotes--
			} else {
				comment.Upvotes--
				comment.Downvotes++
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			vote = domain.CommentVote{CommentID: commentID, VoterKey: voterKey, Value: value}
			if err := tx.Create(&vote).Error; err != nil {
				return err
			}
			if value == 1 {
				comment.Upvotes++
			} else {
				comment.Downvotes++
			}
		default:
			return err
		}

		return tx.Save(&comment).Error
	})

	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// === Tracking Methods ===

func (s *Store) TrackEvent(ctx context.Context, event *domain.OfferTracking) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	return s.db.WithContext(ctx).Create(event).Error
}

func (s *Store) PromoStats(ctx context.Context, filter storage.StatsFilter) (*storage.Stats, error) {
	filtered := func() *gorm.DB {
		q := s.db.WithContext(ctx).Model(&domain.OfferTracking{})
		if filter.WhopID != "" {
			q = q.Where("whop_id = ?", filter.WhopID)
		}
		if filter.PromoCodeID != "" {
			q = q.Where("promo_code_id = ?", filter.PromoCodeID)
		}
		if filter.Path != "" {
			q = q.Where("path = ?", filter.Path)
		}
		return q
	}

	stats := &storage.Stats{}
	if err := filtered().Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	if err := filtered().Where("occurred_at >= ?", startOfToday()).Count(&stats.Today).Error; err != nil {
		return nil, err
	}

	var last domain.OfferTracking
	err := filtered().Order("occurred_at DESC").First(&last).Error
	if err == nil {
		stats.LastUsedAt = &last.OccurredAt
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	return stats, nil
}

func startOfToday() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

// === Mailing List ===

func (s *Store) Subscribe(ctx context.Context, email string) (*domain.Subscriber, error) {
	sub := &domain.Subscriber{Email: email, SubscribedAt: time.Now().UTC()}
	err := s.db.WithContext(ctx).Create(sub).Error
	if err == nil {
		return sub, nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, err
	}
	// Already subscribed; resubscribing is idempotent.
	var existing domain.Subscriber
	if err := s.db.WithContext(ctx).First(&existing, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &existing, nil
}
