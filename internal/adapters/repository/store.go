// Package repository persists engine output: projections, recommendations
// and validation runs. Every write appends; nothing is updated in place.
package repository

import (
	"context"

	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/domain/model"
)

// Store provides append-style access to engine output.
type Store interface {
	// SaveProjections appends projections. A projection whose (period,
	// version, athlete) already exists is left as first written.
	SaveProjections(ctx context.Context, projections []model.Projection) error
	// Projections returns the projections of version for period in athlete
	// id order. An empty version selects the most recently saved version.
	Projections(ctx context.Context, period int, version string) ([]model.Projection, error)

	SaveRecommendation(ctx context.Context, rec model.Recommendation) error
	// Recommendation returns ErrNotFound for an unknown id.
	Recommendation(ctx context.Context, id string) (model.Recommendation, error)
	// Recommendations lists a manager's recommendations for period, oldest
	// first.
	Recommendations(ctx context.Context, managerID, period int) ([]model.Recommendation, error)

	SaveValidation(ctx context.Context, summary model.ValidationSummary, records []model.ValidationRecord) error
	// Validations lists the validation runs of period, oldest first.
	Validations(ctx context.Context, period int) ([]model.ValidationSummary, error)

	Close() error
}
