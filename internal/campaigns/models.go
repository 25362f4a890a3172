package campaigns

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CampaignParticipant is a company's enrollment in a shared reduction
// campaign. TargetReduction is the company's committed share of the
// campaign target; CurrentProgress is how much of it has been achieved,
// both in kgCO2e.
type CampaignParticipant struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CompanyID       string             `bson:"company_id" json:"company_id"`
	CampaignID      string             `bson:"campaign_id" json:"campaign_id"`
	TargetReduction float64            `bson:"target_reduction" json:"target_reduction"`
	CurrentProgress float64            `bson:"current_progress" json:"current_progress"`
	JoinedAt        time.Time          `bson:"joined_at" json:"joined_at"`
}

// ProgressPct is the participant's share achieved, in percent. Zero targets
// report zero progress rather than dividing by zero.
func (p *CampaignParticipant) ProgressPct() float64 {
	if p == nil || p.TargetReduction <= 0 {
		return 0
	}
	return p.CurrentProgress / p.TargetReduction * 100
}
