package achievements

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"carbon-scribe/company-portal/company-portal-backend/internal/campaigns"
	"carbon-scribe/company-portal/company-portal-backend/internal/emissions"
)

// BadgeStatus is the per-badge lifecycle state. The transition is
// Incomplete -> Completed and terminal: a completed badge never reverts,
// even if later metrics regress.
type BadgeStatus string

const (
	StatusIncomplete BadgeStatus = "incomplete"
	StatusCompleted  BadgeStatus = "completed"
)

// RuleInput is the aggregated data a badge rule evaluates against
type RuleInput struct {
	Metrics  *emissions.BadgeMetrics
	Campaign *campaigns.CampaignParticipant
}

// BadgeDefinition is one entry of the static badge catalog
type BadgeDefinition struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CreditValue int64  `json:"credit_value"`

	// Rule returns the progress percentage and whether the unlock
	// condition holds. For lower-is-better badges the unlock flag comes
	// from the raw condition, not the clamped percentage, so rounding
	// cannot flip the unlock state.
	Rule func(in *RuleInput) (progressPct float64, unlocked bool) `json:"-"`
}

// UserBadgeState is a company's persisted state for one badge. Created on
// first evaluation and updated on every re-evaluation; CreditsAwarded only
// ever moves false -> true.
type UserBadgeState struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CompanyID      string             `bson:"company_id" json:"company_id"`
	BadgeID        string             `bson:"badge_id" json:"badge_id"`
	ProgressPct    float64            `bson:"progress_pct" json:"progress_pct"`
	IsUnlocked     bool               `bson:"is_unlocked" json:"is_unlocked"`
	Status         BadgeStatus        `bson:"status" json:"status"`
	CreditsAwarded bool               `bson:"credits_awarded" json:"credits_awarded"`
	DateUnlocked   *time.Time         `bson:"date_unlocked,omitempty" json:"date_unlocked,omitempty"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updated_at"`
}

// Company carries the credit balance this subsystem increments. Other
// subsystems (the rewards store) decrement it; they never run here.
type Company struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CompanyID     string             `bson:"company_id" json:"company_id"`
	Name          string             `bson:"name" json:"name"`
	CarbonCredits int64              `bson:"carbon_credits" json:"carbon_credits"`
}

// BadgeView is the badge state joined with its catalog definition, as
// served to gamification surfaces
type BadgeView struct {
	BadgeID        string      `json:"badge_id"`
	Name           string      `json:"name"`
	Description    string      `json:"description"`
	CreditValue    int64       `json:"credit_value"`
	ProgressPct    float64     `json:"progress_pct"`
	IsUnlocked     bool        `json:"is_unlocked"`
	Status         BadgeStatus `json:"status"`
	CreditsAwarded bool        `json:"credits_awarded"`
	DateUnlocked   *time.Time  `json:"date_unlocked,omitempty"`
}
