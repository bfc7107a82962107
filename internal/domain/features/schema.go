package features

import "github.com/vituk123/fpl-ai-thinktank4-sub000/internal/domain/model"

// RoleFeatures is the role-specific part of a feature vector. Exactly one
// implementation exists per role.
type RoleFeatures interface {
	Role() model.Role
	Names() []string
	Values() []float64
}

// GoalkeeperFeatures are shot-stopping aggregates.
type GoalkeeperFeatures struct {
	Saves          float64
	CleanSheets    float64
	Conceded       float64
	PenaltiesSaved float64
}

func (GoalkeeperFeatures) Role() model.Role { return model.Goalkeeper }

func (GoalkeeperFeatures) Names() []string {
	return []string{"saves", "clean_sheets", "conceded", "penalties_saved"}
}

func (f GoalkeeperFeatures) Values() []float64 {
	return []float64{f.Saves, f.CleanSheets, f.Conceded, f.PenaltiesSaved}
}

// DefenderFeatures mix defensive and attacking returns.
type DefenderFeatures struct {
	CleanSheets float64
	Conceded    float64
	Goals       float64
	Assists     float64
}

func (DefenderFeatures) Role() model.Role { return model.Defender }

func (DefenderFeatures) Names() []string {
	return []string{"clean_sheets", "conceded", "goals", "assists"}
}

func (f DefenderFeatures) Values() []float64 {
	return []float64{f.CleanSheets, f.Conceded, f.Goals, f.Assists}
}

// MidfielderFeatures are attacking returns plus the small clean-sheet share.
type MidfielderFeatures struct {
	Goals       float64
	Assists     float64
	CleanSheets float64
}

func (MidfielderFeatures) Role() model.Role { return model.Midfielder }

func (MidfielderFeatures) Names() []string {
	return []string{"goals", "assists", "clean_sheets"}
}

func (f MidfielderFeatures) Values() []float64 {
	return []float64{f.Goals, f.Assists, f.CleanSheets}
}

// ForwardFeatures are attacking returns.
type ForwardFeatures struct {
	Goals           float64
	Assists         float64
	PenaltiesMissed float64
}

func (ForwardFeatures) Role() model.Role { return model.Forward }

func (ForwardFeatures) Names() []string {
	return []string{"goals", "assists", "penalties_missed"}
}

func (f ForwardFeatures) Values() []float64 {
	return []float64{f.Goals, f.Assists, f.PenaltiesMissed}
}

// roleBuilders is the dispatch table from role to its feature constructor.
var roleBuilders = map[model.Role]func(a aggregate) RoleFeatures{ //nolint:gochecknoglobals // dispatch table
	model.Goalkeeper: func(a aggregate) RoleFeatures {
		return GoalkeeperFeatures{Saves: a.saves, CleanSheets: a.cleanSheets, Conceded: a.conceded, PenaltiesSaved: a.penaltiesSaved}
	},
	model.Defender: func(a aggregate) RoleFeatures {
		return DefenderFeatures{CleanSheets: a.cleanSheets, Conceded: a.conceded, Goals: a.goals, Assists: a.assists}
	},
	model.Midfielder: func(a aggregate) RoleFeatures {
		return MidfielderFeatures{Goals: a.goals, Assists: a.assists, CleanSheets: a.cleanSheets}
	},
	model.Forward: func(a aggregate) RoleFeatures {
		return ForwardFeatures{Goals: a.goals, Assists: a.assists, PenaltiesMissed: a.penaltiesMissed}
	},
}

var commonNames = []string{ //nolint:gochecknoglobals // fixed schema
	"points", "points_per_90", "minutes_share", "involvement", "bonus",
	"price", "ownership", "home", "opponent",
}

// Names returns the full feature schema for role in Values order.
func Names(role model.Role) []string {
	build, ok := roleBuilders[role]
	if !ok {
		return nil
	}
	out := append([]string(nil), commonNames...)
	return append(out, build(aggregate{}).Names()...)
}
