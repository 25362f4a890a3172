package achievements

import "time"

// EvaluateCatalog runs every badge rule against the input and returns the
// freshly computed states. The result carries no award or history
// information; Reconcile merges it with persisted state.
func EvaluateCatalog(defs []BadgeDefinition, companyID string, in *RuleInput, now time.Time) []*UserBadgeState {
	states := make([]*UserBadgeState, 0, len(defs))
	for _, def := range defs {
		progress, unlocked := def.Rule(in)

		state := &UserBadgeState{
			CompanyID:   companyID,
			BadgeID:     def.ID,
			ProgressPct: progress,
			IsUnlocked:  unlocked,
			Status:      StatusIncomplete,
			UpdatedAt:   now,
		}
		if unlocked {
			state.Status = StatusCompleted
			unlockedAt := now
			state.DateUnlocked = &unlockedAt
		}
		states = append(states, state)
	}
	return states
}

// Reconcile merges freshly evaluated states with previously persisted ones
// and computes the credit delta to grant. Unlocking is a historical fact:
// a previously unlocked badge stays unlocked at 100% progress no matter
// what the fresh evaluation says, and CreditsAwarded is a monotonic OR.
// A badge awards its credit value exactly when it is newly completed and
// credits were never granted before; the returned total is the sum over
// all such badges.
//
// Reconcile is pure; the repository runs it inside the award transaction so
// concurrent evaluations cannot both observe CreditsAwarded=false.
func Reconcile(fresh []*UserBadgeState, prev map[string]UserBadgeState, creditValues map[string]int64) ([]*UserBadgeState, int64) {
	var creditsToAward int64
	for _, state := range fresh {
		before, seen := prev[state.BadgeID]

		if seen && before.IsUnlocked {
			state.IsUnlocked = true
			state.Status = StatusCompleted
			state.ProgressPct = 100
			state.DateUnlocked = before.DateUnlocked
		}

		shouldAward := state.IsUnlocked && state.Status == StatusCompleted && !(seen && before.CreditsAwarded)
		state.CreditsAwarded = shouldAward || (seen && before.CreditsAwarded)
		if shouldAward {
			creditsToAward += creditValues[state.BadgeID]
		}
	}
	return fresh, creditsToAward
}
