package inmemory

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/whpcodes/promo-directory/internal/domain"
	"github.com/whpcodes/promo-directory/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore creates a store with one listed offer.
func newTestStore(t *testing.T) (*Store, *domain.Whop) {
	t.Helper()
	store := New()
	whop, err := store.CreateWhop(context.Background(), &domain.Whop{
		Name:      "Trading Hub",
		Slug:      "trading-hub",
		Category:  "trading",
		Rating:    4.5,
		Indexable: true,
	})
	require.NoError(t, err)
	return store, whop
}

func newSubmission(t *testing.T, store *Store, whopID *string) *domain.PromoCodeSubmission {
	t.Helper()
	sub, err := store.CreateSubmission(context.Background(), &domain.PromoCodeSubmission{
		WhopID:        whopID,
		Code:          "SAVE20",
		Title:         "20% off",
		DiscountValue: 20,
		DiscountType:  "percentage",
	})
	require.NoError(t, err)
	require.Equal(t, domain.SubmissionPending, sub.Status)
	return sub
}

func TestUpdateSubmissionStatus_ApproveCreatesCommunityPromo(t *testing.T) {
	store, whop := newTestStore(t)
	ctx := context.Background()
	sub := newSubmission(t, store, &whop.ID)

	updated, err := store.UpdateSubmissionStatus(ctx, sub.ID, domain.SubmissionApproved, "looks good", "admin@whpcodes.com")
	require.NoError(t, err)
	assert.Equal(t, domain.SubmissionApproved, updated.Status)
	assert.Equal(t, "admin@whpcodes.com", updated.ReviewedBy)
	require.NotNil(t, updated.ReviewedAt)

	codes, err := store.GetPromoCodesByWhopID(ctx, whop.ID)
	require.NoError(t, err)
	require.Len(t, codes, 1)
	assert.Equal(t, domain.CommunityPromoID(sub.ID), codes[0].ID)
	assert.Equal(t, "SAVE20", codes[0].Code)
	assert.True(t, codes[0].IsCommunity())
}

func TestUpdateSubmissionStatus_SecondApprovalConflicts(t *testing.T) {
	store, whop := newTestStore(t)
	ctx := context.Background()
	sub := newSubmission(t, store, &whop.ID)

	_, err := store.UpdateSubmissionStatus(ctx, sub.ID, domain.SubmissionApproved, "", "admin")
	require.NoError(t, err)

	_, err = store.UpdateSubmissionStatus(ctx, sub.ID, domain.SubmissionApproved, "", "admin")
	require.ErrorIs(t, err, storage.ErrAlreadyPromoted)

	// still exactly one promo code
	codes, err := store.GetPromoCodesByWhopID(ctx, whop.ID)
	require.NoError(t, err)
	assert.Len(t, codes, 1)
}

func TestUpdateSubmissionStatus_RejectCreatesNothing(t *testing.T) {
	store, whop := newTestStore(t)
	ctx := context.Background()
	sub := newSubmission(t, store, &whop.ID)

	updated, err := store.UpdateSubmissionStatus(ctx, sub.ID, domain.SubmissionRejected, "expired code", "admin")
	require.NoError(t, err)
	assert.Equal(t, domain.SubmissionRejected, updated.Status)
	assert.Equal(t, "expired code", updated.AdminNotes)

	codes, err := store.GetPromoCodesByWhopID(ctx, whop.ID)
	require.NoError(t, err)
	assert.Empty(t, codes)
}

func TestUpdateSubmissionStatus_GeneralSubmissionNeverPromotes(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	sub, err := store.CreateSubmission(ctx, &domain.PromoCodeSubmission{
		Code:      "SITEWIDE",
		IsGeneral: true,
	})
	require.NoError(t, err)

	updated, err := store.UpdateSubmissionStatus(ctx, sub.ID, domain.SubmissionApproved, "", "admin")
	require.NoError(t, err)
	assert.Equal(t, domain.SubmissionApproved, updated.Status)
	assert.Empty(t, store.promoCodes)
}

func TestUpdateSubmissionStatus_NotFound(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.UpdateSubmissionStatus(context.Background(), "missing", domain.SubmissionApproved, "", "admin")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestGetWhopsBySlugs_SkipsUnlisted(t *testing.T) {
	store, whop := newTestStore(t)
	ctx := context.Background()

	_, err := store.CreateWhop(ctx, &domain.Whop{Name: "Retired", Slug: "retired-one", Indexable: true, Retired: true})
	require.NoError(t, err)
	_, err = store.CreateWhop(ctx, &domain.Whop{Name: "Hidden", Slug: "hidden-one", Indexable: false})
	require.NoError(t, err)

	found, err := store.GetWhopsBySlugs(ctx, []string{"trading-hub", "retired-one", "hidden-one", "unknown"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, whop.ID, found["trading-hub"].ID)
}

func TestGetWhopsByCategory_OrdersByRating(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.CreateWhop(ctx, &domain.Whop{Name: "Better", Slug: "better-hub", Category: "trading", Rating: 4.9, Indexable: true})
	require.NoError(t, err)
	_, err = store.CreateWhop(ctx, &domain.Whop{Name: "Worse", Slug: "worse-hub", Category: "trading", Rating: 3.0, Indexable: true})
	require.NoError(t, err)

	whops, err := store.GetWhopsByCategory(ctx, "trading", "trading-hub", 10)
	require.NoError(t, err)
	require.Len(t, whops, 2)
	assert.Equal(t, "better-hub", whops[0].Slug)
	assert.Equal(t, "worse-hub", whops[1].Slug)
}

// === Comments ===

func newTestPost(t *testing.T, store *Store) *domain.BlogPost {
	t.Helper()
	post, err := store.CreateBlogPost(context.Background(), &domain.BlogPost{
		Title:           "Best Promo Codes This Month",
		Slug:            "best-promo-codes",
		Content:         "...",
		Author:          "editorial",
		Published:       true,
		CommentsEnabled: true,
	})
	require.NoError(t, err)
	return post
}

func TestCreateComment_Validation(t *testing.T) {
	store, _ := newTestStore(t)
	post := newTestPost(t, store)
	ctx := context.Background()

	_, err := store.CreateComment(ctx, &domain.Comment{PostID: post.ID, AuthorName: "a", Content: "   "})
	assert.ErrorIs(t, err, storage.ErrCommentEmpty)

	_, err = store.CreateComment(ctx, &domain.Comment{PostID: post.ID, AuthorName: "a", Content: strings.Repeat("x", 2001)})
	assert.ErrorIs(t, err, storage.ErrCommentTooLong)

	_, err = store.CreateComment(ctx, &domain.Comment{PostID: "missing", AuthorName: "a", Content: "hi"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCreateComment_Disabled(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	post, err := store.CreateBlogPost(ctx, &domain.BlogPost{
		Title: "No comments", Slug: "no-comments", Content: "...", Author: "editorial",
		Published: true, CommentsEnabled: false,
	})
	require.NoError(t, err)

	_, err = store.CreateComment(ctx, &domain.Comment{PostID: post.ID, AuthorName: "a", Content: "hi"})
	assert.ErrorIs(t, err, storage.ErrCommentsDisabled)
}

func TestComments_ThreadingAndPagination(t *testing.T) {
	store, _ := newTestStore(t)
	post := newTestPost(t, store)
	ctx := context.Background()

	parent, err := store.CreateComment(ctx, &domain.Comment{PostID: post.ID, AuthorName: "a", Content: "parent"})
	require.NoError(t, err)
	child, err := store.CreateComment(ctx, &domain.Comment{PostID: post.ID, ParentID: &parent.ID, AuthorName: "b", Content: "child"})
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		_, err := store.CreateComment(ctx, &domain.Comment{PostID: post.ID, AuthorName: "c", Content: "more"})
		require.NoError(t, err)
	}

	roots, err := store.GetCommentsByPostID(ctx, post.ID, storage.PaginationArgs{Limit: 3})
	require.NoError(t, err)
	require.Len(t, roots, 3)
	assert.Equal(t, parent.ID, roots[0].ID)

	cursor := roots[2].ID
	rest, err := store.GetCommentsByPostID(ctx, post.ID, storage.PaginationArgs{Limit: 10, Cursor: &cursor})
	require.NoError(t, err)
	assert.Len(t, rest, 2)

	children, err := store.GetCommentsByParentID(ctx, parent.ID, storage.PaginationArgs{Limit: 10})
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, child.ID, children[0].ID)
}

func TestVoteComment(t *testing.T) {
	store, _ := newTestStore(t)
	post := newTestPost(t, store)
	ctx := context.Background()

	comment, err := store.CreateComment(ctx, &domain.Comment{PostID: post.ID, AuthorName: "a", Content: "vote on me"})
	require.NoError(t, err)

	// first upvote counts
	c, err := store.VoteComment(ctx, comment.ID, "voter-1", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Upvotes)
	assert.Equal(t, 0, c.Downvotes)

	// double-click: same direction is a no-op
	c, err = store.VoteComment(ctx, comment.ID, "voter-1", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Upvotes)

	// switching direction moves the vote across both counters
	c, err = store.VoteComment(ctx, comment.ID, "voter-1", -1)
	require.NoError(t, err)
	assert.Equal(t, 0, c.Upvotes)
	assert.Equal(t, 1, c.Downvotes)

	// a second voter is independent
	c, err = store.VoteComment(ctx, comment.ID, "voter-2", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Upvotes)
	assert.Equal(t, 1, c.Downvotes)

	_, err = store.VoteComment(ctx, comment.ID, "voter-1", 0)
	assert.ErrorIs(t, err, storage.ErrInvalidVote)

	_, err = store.VoteComment(ctx, "missing", "voter-1", 1)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

// === Tracking ===

func TestPromoStats(t *testing.T) {
	store, whop := newTestStore(t)
	ctx := context.Background()

	promoID := "community_abc"
	yesterday := time.Now().Add(-36 * time.Hour)

	require.NoError(t, store.TrackEvent(ctx, &domain.OfferTracking{WhopID: &whop.ID, PromoCodeID: &promoID, EventType: "copy", OccurredAt: yesterday}))
	require.NoError(t, store.TrackEvent(ctx, &domain.OfferTracking{WhopID: &whop.ID, PromoCodeID: &promoID, EventType: "copy"}))
	require.NoError(t, store.TrackEvent(ctx, &domain.OfferTracking{WhopID: &whop.ID, EventType: "click"}))

	stats, err := store.PromoStats(ctx, storage.StatsFilter{PromoCodeID: promoID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Total)
	assert.Equal(t, int64(1), stats.Today)
	require.NotNil(t, stats.LastUsedAt)
	assert.True(t, stats.LastUsedAt.After(yesterday))

	byWhop, err := store.PromoStats(ctx, storage.StatsFilter{WhopID: whop.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(3), byWhop.Total)

	empty, err := store.PromoStats(ctx, storage.StatsFilter{PromoCodeID: "nope"})
	require.NoError(t, err)
	assert.Zero(t, empty.Total)
	assert.Nil(t, empty.LastUsedAt)
}

func TestSubscribe_Idempotent(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	first, err := store.Subscribe(ctx, "deals@example.com")
	require.NoError(t, err)
	second, err := store.Subscribe(ctx, "deals@example.com")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}
