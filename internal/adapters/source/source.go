// Package source provides the read-only data the engine consumes: the
// athlete catalogue, closed-period records, fixtures and manager rosters.
package source

import (
	"context"
	"errors"

	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/domain/model"
)

// ErrUnknownManager is returned by Roster for a manager without a roster.
var ErrUnknownManager = errors.New("unknown manager")

// Source is the data-access collaborator of the engine.
type Source interface {
	// Athletes returns the catalogue in id order.
	Athletes(ctx context.Context) ([]model.Athlete, error)
	// History returns every record of a period strictly before before.
	History(ctx context.Context, before int) ([]model.AthleteRecord, error)
	// Records returns the records of one closed period.
	Records(ctx context.Context, period int) ([]model.AthleteRecord, error)
	// Fixtures returns the fixtures scheduled in period.
	Fixtures(ctx context.Context, period int) ([]model.Fixture, error)
	// Roster returns a manager's current roster.
	Roster(ctx context.Context, managerID int) (model.RosterState, error)
}

// Dataset is the serialised form of a league.
type Dataset struct {
	Athletes []model.Athlete       `json:"athletes" yaml:"athletes"`
	Records  []model.AthleteRecord `json:"records" yaml:"records"`
	Fixtures []model.Fixture       `json:"fixtures" yaml:"fixtures"`
	Rosters  []model.RosterState   `json:"rosters" yaml:"rosters"`
}
