package features

import (
	"sort"

	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/domain/model"
)

// Row is one supervised training example.
type Row struct {
	AthleteID int
	Period    int
	Role      model.Role
	Features  []float64
	// Target is the realised points per fixture in Period.
	Target  float64
	History int
}

// TrainingRows turns closed-period history into supervised rows. Each row
// uses features built strictly from earlier periods and the opposition the
// athlete actually faced; periods without earlier history inside the window
// are skipped. Rows are ordered by athlete, then period.
func (b *Builder) TrainingRows(history []model.AthleteRecord) []Row {
	byAthlete := make(map[int][]model.AthleteRecord)
	for _, r := range history {
		byAthlete[r.AthleteID] = append(byAthlete[r.AthleteID], r)
	}
	ids := make([]int, 0, len(byAthlete))
	for id := range byAthlete {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var rows []Row
	for _, id := range ids {
		recs := byAthlete[id]
		sort.SliceStable(recs, func(i, j int) bool { return recs[i].Period < recs[j].Period })
		for start := 0; start < len(recs); {
			end := start
			for end < len(recs) && recs[end].Period == recs[start].Period {
				end++
			}
			current := recs[start:end]
			start = end

			first := current[0]
			opps := make([]model.Opposition, 0, len(current))
			points := 0.0
			for _, r := range current {
				opps = append(opps, model.Opposition{
					Opponent: r.OpponentID,
					Defence:  r.OpponentDefence,
					Attack:   r.OpponentAttack,
					Home:     r.Home,
				})
				points += float64(r.Points)
			}
			v := b.build(id, first.TeamID, first.Role, first.Price, 1, recs, opps, first.Period)
			if v.History == 0 {
				continue
			}
			rows = append(rows, Row{
				AthleteID: id,
				Period:    first.Period,
				Role:      first.Role,
				Features:  v.Values(),
				Target:    points / float64(len(current)),
				History:   v.History,
			})
		}
	}
	return rows
}
