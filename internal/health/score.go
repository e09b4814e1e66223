// Package health reduces a project's blocked state, update recency, and task
// completion into a single composite score.
package health

import (
	"math"
	"time"

	"github.com/atelierhq/atelier/internal/types"
)

// Weights tune how each signal moves the score. The specific coefficients
// are configuration, not contract; all three signals always contribute.
type Weights struct {
	// BlockedPenalty is subtracted outright when the project is blocked.
	BlockedPenalty float64
	// StalenessHalfLife is the days-without-updates at which the recency
	// signal is worth half its weight.
	StalenessHalfLife float64
	// StalenessWeight is the maximum points the recency signal contributes.
	StalenessWeight float64
	// CompletionWeight is the maximum points the task ratio contributes.
	CompletionWeight float64
}

// DefaultWeights are the portal's stock tuning: a full score requires fresh
// updates and finished tasks, and a blocked project can never read healthy.
var DefaultWeights = Weights{
	BlockedPenalty:    40,
	StalenessHalfLife: 14,
	StalenessWeight:   50,
	CompletionWeight:  50,
}

// Score computes the composite health of a project from its updates and
// tasks. Pure: same inputs, same result.
func Score(project types.Project, updates []types.Update, tasks []types.Task, now time.Time, w Weights) types.HealthScoreResult {
	signals := types.HealthSignals{
		IsBlocked:       project.IsBlocked,
		DaysSinceUpdate: daysSinceUpdate(project, updates, now),
		TaskCompletion:  taskCompletion(tasks),
	}

	// Recency decays exponentially: fresh updates earn the full weight,
	// half after the half-life, approaching zero as a project goes dark.
	recency := w.StalenessWeight * math.Pow(0.5, signals.DaysSinceUpdate/w.StalenessHalfLife)

	score := recency + w.CompletionWeight*signals.TaskCompletion
	if signals.IsBlocked {
		score -= w.BlockedPenalty
	}

	clamped := int(math.Round(score))
	if clamped < 0 {
		clamped = 0
	}
	if clamped > 100 {
		clamped = 100
	}

	return types.HealthScoreResult{
		Score:   clamped,
		Label:   label(clamped),
		Signals: signals,
	}
}

func label(score int) types.HealthLabel {
	switch {
	case score >= 70:
		return types.HealthHealthy
	case score >= 40:
		return types.HealthAtRisk
	default:
		return types.HealthCritical
	}
}

// daysSinceUpdate measures staleness from the most recent update, falling
// back to the project's own creation time when it has no updates yet.
func daysSinceUpdate(project types.Project, updates []types.Update, now time.Time) float64 {
	last := project.CreatedAt
	for _, u := range updates {
		if u.CreatedAt.After(last) {
			last = u.CreatedAt
		}
	}
	days := now.Sub(last).Hours() / 24
	if days < 0 {
		return 0
	}
	return days
}

// taskCompletion is the completed/total ratio; a project with no tasks
// counts as fully complete rather than fully behind.
func taskCompletion(tasks []types.Task) float64 {
	if len(tasks) == 0 {
		return 1
	}
	var done int
	for _, t := range tasks {
		if t.CompletedAt != nil {
			done++
		}
	}
	return float64(done) / float64(len(tasks))
}
