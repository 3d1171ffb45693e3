package domain

import (
	"strings"
	"time"
)

// CommunityPromoPrefix tags promo codes that originate from community
// submissions. The prefix on the id is the discriminator; there is no
// dedicated flag column.
const CommunityPromoPrefix = "community_"

// SubmissionStatus is the moderation state of a community submission.
type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "PENDING"
	SubmissionApproved SubmissionStatus = "APPROVED"
	SubmissionRejected SubmissionStatus = "REJECTED"
)

// Valid reports whether s is one of the known moderation states.
func (s SubmissionStatus) Valid() bool {
	switch s {
	case SubmissionPending, SubmissionApproved, SubmissionRejected:
		return true
	}
	return false
}

// Whop is an offer listing: a product or membership with an affiliate link
// and associated promo codes.
type Whop struct {
	ID           string       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name         string       `json:"name" gorm:"type:varchar(255);not null"`
	Slug         string       `json:"slug" gorm:"type:varchar(255);not null;uniqueIndex"`
	LogoURL      string       `json:"logoUrl" gorm:"type:varchar(1024)"`
	Description  string       `json:"description" gorm:"type:text"`
	About        string       `json:"about" gorm:"type:text"`
	HowToRedeem  string       `json:"howToRedeem" gorm:"type:text"`
	Category     string       `json:"category" gorm:"type:varchar(255);index"`
	Price        string       `json:"price" gorm:"type:varchar(64)"`
	Rating       float64      `json:"rating" gorm:"not null;default:0"`
	WebsiteURL   string       `json:"websiteUrl" gorm:"type:varchar(1024)"`
	AffiliateURL string       `json:"affiliateUrl" gorm:"type:varchar(1024)"`
	Indexable    bool         `json:"indexable" gorm:"not null;default:true"`
	Retired      bool         `json:"retired" gorm:"not null;default:false"`
	CreatedAt    time.Time    `json:"createdAt" gorm:"not null;default:now()"`
	UpdatedAt    time.Time    `json:"updatedAt" gorm:"not null;default:now()"`
	PromoCodes   []*PromoCode `json:"-" gorm:"foreignKey:WhopID"` // gorm only
}

// Listed reports whether the offer should appear in widgets and listings.
func (w *Whop) Listed() bool {
	return w.Indexable && !w.Retired
}

// PromoCode belongs to a Whop. Community-submitted codes carry the id
// "community_<submissionID>"; everything else about them is ordinary.
type PromoCode struct {
	ID            string    `json:"id" gorm:"type:varchar(255);primary_key"`
	WhopID        string    `json:"whopId" gorm:"type:uuid;not null;index"`
	Code          string    `json:"code" gorm:"type:varchar(255);not null"`
	Title         string    `json:"title" gorm:"type:varchar(255)"`
	DiscountValue float64   `json:"discountValue" gorm:"not null;default:0"`
	DiscountType  string    `json:"discountType" gorm:"type:varchar(32);not null;default:'percentage'"`
	Active        bool      `json:"active" gorm:"not null;default:true"`
	CreatedAt     time.Time `json:"createdAt" gorm:"not null;default:now()"`
}

// IsCommunity reports whether the promo code came from a community submission.
func (p *PromoCode) IsCommunity() bool {
	return strings.HasPrefix(p.ID, CommunityPromoPrefix)
}

// CommunityPromoID derives the deterministic promo code id for a submission.
// Approving the same submission twice collides on this id, which is what
// makes the promotion idempotent.
func CommunityPromoID(submissionID string) string {
	return CommunityPromoPrefix + submissionID
}

// PromoCodeSubmission is a moderation queue row. General submissions are not
// tied to an offer and never produce a promo code on approval.
type PromoCodeSubmission struct {
	ID            string           `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	WhopID        *string          `json:"whopId,omitempty" gorm:"type:uuid;index"`
	Code          string           `json:"code" gorm:"type:varchar(255);not null"`
	Title         string           `json:"title" gorm:"type:varchar(255)"`
	DiscountValue float64          `json:"discountValue" gorm:"not null;default:0"`
	DiscountType  string           `json:"discountType" gorm:"type:varchar(32);not null;default:'percentage'"`
	IsGeneral     bool             `json:"isGeneral" gorm:"not null;default:false"`
	Status        SubmissionStatus `json:"status" gorm:"type:varchar(16);not null;default:'PENDING';index"`
	AdminNotes    string           `json:"adminNotes" gorm:"type:text"`
	ReviewedAt    *time.Time       `json:"reviewedAt,omitempty"`
	ReviewedBy    string           `json:"reviewedBy" gorm:"type:varchar(255)"`
	CreatedAt     time.Time        `json:"createdAt" gorm:"not null;default:now()"`
}

// BlogPost is a blog entry. Comments can be disabled per post.
type BlogPost struct {
	ID              string     `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Title           string     `json:"title" gorm:"type:varchar(255);not null"`
	Slug            string     `json:"slug" gorm:"type:varchar(255);not null;uniqueIndex"`
	Content         string     `json:"content" gorm:"type:text;not null"`
	Author          string     `json:"author" gorm:"type:varchar(255);not null"`
	Published       bool       `json:"published" gorm:"not null;default:true"`
	CommentsEnabled bool       `json:"commentsEnabled" gorm:"not null;default:true"`
	CreatedAt       time.Time  `json:"createdAt" gorm:"not null;default:now()"`
	Comments        []*Comment `json:"-" gorm:"foreignKey:PostID"` // gorm only
}

// Comment is a threaded comment on a blog post. Vote counters are kept
// denormalized on the row and adjusted together with CommentVote writes.
type Comment struct {
	ID         string     `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	PostID     string     `json:"postId" gorm:"type:uuid;not null;index"`
	ParentID   *string    `json:"parentId,omitempty" gorm:"type:uuid;index"`
	AuthorName string     `json:"authorName" gorm:"type:varchar(255);not null"`
	Content    string     `json:"content" gorm:"type:varchar(2000);not null"`
	Upvotes    int        `json:"upvotes" gorm:"not null;default:0"`
	Downvotes  int        `json:"downvotes" gorm:"not null;default:0"`
	CreatedAt  time.Time  `json:"createdAt" gorm:"not null;default:now()"`
	Children   []*Comment `json:"-" gorm:"foreignKey:ParentID"` // gorm only
}

// CommentVote records one vote per (comment, voter). Value is +1 or -1.
type CommentVote struct {
	ID        string    `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CommentID string    `json:"commentId" gorm:"type:uuid;not null;uniqueIndex:ux_comment_voter,priority:1"`
	VoterKey  string    `json:"voterKey" gorm:"type:varchar(255);not null;uniqueIndex:ux_comment_voter,priority:2"`
	Value     int       `json:"value" gorm:"not null"`
	CreatedAt time.Time `json:"createdAt" gorm:"not null;default:now()"`
}

// OfferTracking is a click/copy/view event, keyed by whop, promo code, or a
// raw URL path. It feeds the today/total/last-used counters.
type OfferTracking struct {
	ID          string    `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	WhopID      *string   `json:"whopId,omitempty" gorm:"type:uuid;index"`
	PromoCodeID *string   `json:"promoCodeId,omitempty" gorm:"type:varchar(255);index"`
	Path        string    `json:"path" gorm:"type:varchar(1024);index"`
	EventType   string    `json:"eventType" gorm:"type:varchar(32);not null"`
	OccurredAt  time.Time `json:"occurredAt" gorm:"not null;default:now();index"`
}

// Subscriber is a mailing-list entry.
type Subscriber struct {
	ID           string    `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Email        string    `json:"email" gorm:"type:varchar(320);not null;uniqueIndex"`
	SubscribedAt time.Time `json:"subscribedAt" gorm:"not null;default:now()"`
}
