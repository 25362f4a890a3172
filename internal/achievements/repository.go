package achievements

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrAwardConflict is returned when the award transaction keeps colliding
// with concurrent evaluations. The evaluation input is idempotent, so the
// caller can simply retry later; credits are never partially applied.
var ErrAwardConflict = errors.New("credit award transaction conflict")

// maxAwardAttempts bounds retries of the award transaction
const maxAwardAttempts = 3

// Repository provides badge-state and credit-balance persistence
type Repository interface {
	GetBadgeStates(ctx context.Context, companyID string) (map[string]UserBadgeState, error)
	GetCompany(ctx context.Context, companyID string) (*Company, error)
	ListCompanyIDs(ctx context.Context) ([]string, error)

	// CommitEvaluation reconciles freshly evaluated badge states against
	// the persisted ones, upserts them, and increments the company's credit
	// balance by the computed delta — all inside one transaction. Both
	// effects commit or neither does. Returns the reconciled states and
	// the credits awarded by this call.
	CommitEvaluation(ctx context.Context, companyID string, fresh []*UserBadgeState, creditValues map[string]int64) ([]*UserBadgeState, int64, error)
}

type mongoRepository struct {
	db *mongo.Database
}

// NewRepository creates a document-store backed achievements repository
func NewRepository(db *mongo.Database) Repository {
	return &mongoRepository{db: db}
}

func (r *mongoRepository) GetBadgeStates(ctx context.Context, companyID string) (map[string]UserBadgeState, error) {
	cur, err := r.db.Collection("badge_states").Find(ctx, bson.M{"company_id": companyID})
	if err != nil {
		return nil, err
	}
	var states []UserBadgeState
	if err := cur.All(ctx, &states); err != nil {
		return nil, err
	}
	byBadge := make(map[string]UserBadgeState, len(states))
	for _, state := range states {
		byBadge[state.BadgeID] = state
	}
	return byBadge, nil
}

func (r *mongoRepository) GetCompany(ctx context.Context, companyID string) (*Company, error) {
	var company Company
	err := r.db.Collection("companies").FindOne(ctx, bson.M{"company_id": companyID}).Decode(&company)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *mongoRepository) ListCompanyIDs(ctx context.Context) ([]string, error) {
	cur, err := r.db.Collection("companies").Find(ctx, bson.M{},
		options.Find().SetProjection(bson.M{"company_id": 1}))
	if err != nil {
		return nil, err
	}
	var companies []Company
	if err := cur.All(ctx, &companies); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(companies))
	for _, c := range companies {
		ids = append(ids, c.CompanyID)
	}
	return ids, nil
}

func (r *mongoRepository) CommitEvaluation(ctx context.Context, companyID string, fresh []*UserBadgeState, creditValues map[string]int64) ([]*UserBadgeState, int64, error) {
	var (
		states  []*UserBadgeState
		credits int64
		lastErr error
	)
	for attempt := 0; attempt < maxAwardAttempts; attempt++ {
		states, credits, lastErr = r.runAwardTransaction(ctx, companyID, fresh, creditValues)
		if lastErr == nil {
			return states, credits, nil
		}
		if !isTransient(lastErr) {
			return nil, 0, lastErr
		}
	}
	return nil, 0, fmt.Errorf("%w after %d attempts: %v", ErrAwardConflict, maxAwardAttempts, lastErr)
}

// runAwardTransaction performs one attempt of the read-reconcile-write
// cycle. The previous states are re-read inside the transaction, so two
// concurrent evaluations serialize: the loser aborts on write conflict,
// retries, observes credits_awarded=true and awards nothing.
func (r *mongoRepository) runAwardTransaction(ctx context.Context, companyID string, fresh []*UserBadgeState, creditValues map[string]int64) ([]*UserBadgeState, int64, error) {
	session, err := r.db.Client().StartSession()
	if err != nil {
		return nil, 0, fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	var (
		states  []*UserBadgeState
		credits int64
	)
	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		prev, err := r.GetBadgeStates(sc, companyID)
		if err != nil {
			return nil, err
		}

		// reconcile a copy so a retry starts from the unmerged input
		attempt := make([]*UserBadgeState, len(fresh))
		for i, state := range fresh {
			clone := *state
			attempt[i] = &clone
		}
		states, credits = Reconcile(attempt, prev, creditValues)

		badges := r.db.Collection("badge_states")
		for _, state := range states {
			filter := bson.M{"company_id": state.CompanyID, "badge_id": state.BadgeID}
			update := bson.M{"$set": bson.M{
				"company_id":      state.CompanyID,
				"badge_id":        state.BadgeID,
				"progress_pct":    state.ProgressPct,
				"is_unlocked":     state.IsUnlocked,
				"status":          state.Status,
				"credits_awarded": state.CreditsAwarded,
				"date_unlocked":   state.DateUnlocked,
				"updated_at":      state.UpdatedAt,
			}}
			if _, err := badges.UpdateOne(sc, filter, update, options.Update().SetUpsert(true)); err != nil {
				return nil, err
			}
		}

		if credits > 0 {
			res, err := r.db.Collection("companies").UpdateOne(sc,
				bson.M{"company_id": companyID},
				bson.M{"$inc": bson.M{"carbon_credits": credits}})
			if err != nil {
				return nil, err
			}
			if res.MatchedCount == 0 {
				return nil, fmt.Errorf("company %q not found", companyID)
			}
		}
		return nil, nil
	})
	if err != nil {
		return nil, 0, err
	}
	return states, credits, nil
}

// isTransient reports whether an error is a retryable transaction conflict
func isTransient(err error) bool {
	labeled := []interface{ HasErrorLabel(string) bool }{}
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		labeled = append(labeled, cmdErr)
	}
	var writeErr mongo.WriteException
	if errors.As(err, &writeErr) {
		labeled = append(labeled, writeErr)
	}
	for _, e := range labeled {
		if e.HasErrorLabel("TransientTransactionError") || e.HasErrorLabel("UnknownTransactionCommitResult") {
			return true
		}
	}
	return false
}
