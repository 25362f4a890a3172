package achievements

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"carbon-scribe/company-portal/company-portal-backend/internal/campaigns"
	"carbon-scribe/company-portal/company-portal-backend/internal/emissions"
)

// MetricsProvider supplies the aggregated metrics badge rules read
type MetricsProvider interface {
	ComputeBadgeMetrics(ctx context.Context, companyID string) (*emissions.BadgeMetrics, error)
}

// EvaluationResult is the outcome of one badge evaluation run
type EvaluationResult struct {
	CompanyID      string      `json:"company_id"`
	EvaluationID   uuid.UUID   `json:"evaluation_id"`
	Badges         []BadgeView `json:"badges"`
	CreditsAwarded int64       `json:"credits_awarded"`
}

// Service evaluates the badge catalog and drives the credit award
// transaction. Evaluation itself is stateless and safe to run concurrently
// and redundantly; all shared-state mutation happens in the repository's
// transaction.
type Service struct {
	repo      Repository
	campaigns campaigns.Repository
	metrics   MetricsProvider
	catalog   []BadgeDefinition
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates a new achievements service
func NewService(repo Repository, campaignRepo campaigns.Repository, metrics MetricsProvider, logger *zap.Logger) *Service {
	return &Service{
		repo:      repo,
		campaigns: campaignRepo,
		metrics:   metrics,
		catalog:   Catalog(),
		logger:    logger,
		now:       time.Now,
	}
}

// EvaluateBadges recomputes every badge for a company and commits the
// resulting states plus any newly earned credits atomically
func (s *Service) EvaluateBadges(ctx context.Context, companyID string) (*EvaluationResult, error) {
	runID := uuid.New()

	metrics, err := s.metrics.ComputeBadgeMetrics(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("compute badge metrics: %w", err)
	}
	participant, err := s.campaigns.GetParticipant(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("load campaign participation: %w", err)
	}

	fresh := EvaluateCatalog(s.catalog, companyID, &RuleInput{Metrics: metrics, Campaign: participant}, s.now())

	states, credits, err := s.repo.CommitEvaluation(ctx, companyID, fresh, CreditValues(s.catalog))
	if err != nil {
		return nil, err
	}

	s.logger.Info("Badge evaluation committed",
		zap.String("company_id", companyID),
		zap.String("evaluation_id", runID.String()),
		zap.Int64("credits_awarded", credits))

	return &EvaluationResult{
		CompanyID:      companyID,
		EvaluationID:   runID,
		Badges:         s.views(states),
		CreditsAwarded: credits,
	}, nil
}

// GetBadges returns the persisted badge states joined with the catalog,
// without re-evaluating. Badges never evaluated for the company appear as
// incomplete with zero progress.
func (s *Service) GetBadges(ctx context.Context, companyID string) ([]BadgeView, error) {
	persisted, err := s.repo.GetBadgeStates(ctx, companyID)
	if err != nil {
		return nil, err
	}

	views := make([]BadgeView, 0, len(s.catalog))
	for _, def := range s.catalog {
		view := BadgeView{
			BadgeID:     def.ID,
			Name:        def.Name,
			Description: def.Description,
			CreditValue: def.CreditValue,
			Status:      StatusIncomplete,
		}
		if state, ok := persisted[def.ID]; ok {
			view.ProgressPct = state.ProgressPct
			view.IsUnlocked = state.IsUnlocked
			view.Status = state.Status
			view.CreditsAwarded = state.CreditsAwarded
			view.DateUnlocked = state.DateUnlocked
		}
		views = append(views, view)
	}
	return views, nil
}

// ListCompanies returns every known company ID. Used by the recalc
// worker to sweep evaluations.
func (s *Service) ListCompanies(ctx context.Context) ([]string, error) {
	return s.repo.ListCompanyIDs(ctx)
}

// GetCreditBalance returns a company's current credit balance
func (s *Service) GetCreditBalance(ctx context.Context, companyID string) (int64, error) {
	company, err := s.repo.GetCompany(ctx, companyID)
	if err != nil {
		return 0, err
	}
	if company == nil {
		return 0, fmt.Errorf("company %q not found", companyID)
	}
	return company.CarbonCredits, nil
}

// views joins committed states with their catalog definitions, preserving
// catalog order
func (s *Service) views(states []*UserBadgeState) []BadgeView {
	byBadge := make(map[string]*UserBadgeState, len(states))
	for _, state := range states {
		byBadge[state.BadgeID] = state
	}

	views := make([]BadgeView, 0, len(s.catalog))
	for _, def := range s.catalog {
		state, ok := byBadge[def.ID]
		if !ok {
			continue
		}
		views = append(views, BadgeView{
			BadgeID:        def.ID,
			Name:           def.Name,
			Description:    def.Description,
			CreditValue:    def.CreditValue,
			ProgressPct:    state.ProgressPct,
			IsUnlocked:     state.IsUnlocked,
			Status:         state.Status,
			CreditsAwarded: state.CreditsAwarded,
			DateUnlocked:   state.DateUnlocked,
		})
	}
	return views
}
