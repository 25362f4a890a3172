package campaigns

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository provides read access to campaign enrollment data
type Repository interface {
	// GetParticipant returns a company's most recent campaign enrollment,
	// or nil when the company has never joined one.
	GetParticipant(ctx context.Context, companyID string) (*CampaignParticipant, error)
}

type mongoRepository struct {
	db *mongo.Database
}

// NewRepository creates a document-store backed campaigns repository
func NewRepository(db *mongo.Database) Repository {
	return &mongoRepository{db: db}
}

func (r *mongoRepository) GetParticipant(ctx context.Context, companyID string) (*CampaignParticipant, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "joined_at", Value: -1}})
	var participant CampaignParticipant
	err := r.db.Collection("campaign_participants").
		FindOne(ctx, bson.M{"company_id": companyID}, opts).
		Decode(&participant)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &participant, nil
}
