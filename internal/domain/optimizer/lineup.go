package optimizer

import (
	"sort"

	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/domain/model"
)

// SelectLineup picks the starting eleven from a full squad: the best
// goalkeeper, the best three defenders, two midfielders and one forward,
// then the best remaining outfield athletes. The top two starters take the
// armbands. The bench lists the reserve goalkeeper first.
func SelectLineup(squad []Candidate) model.Lineup {
	byRole := make(map[model.Role][]Candidate, len(model.Roles))
	for _, c := range squad {
		byRole[c.Role] = append(byRole[c.Role], c)
	}
	for _, cs := range byRole {
		sort.Slice(cs, func(i, j int) bool { return better(cs[i], cs[j]) })
	}

	var starters, rest []Candidate
	for _, role := range model.Roles {
		cs := byRole[role]
		n := min(role.MinStarters(), len(cs))
		starters = append(starters, cs[:n]...)
		if role != model.Goalkeeper {
			rest = append(rest, cs[n:]...)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return better(rest[i], rest[j]) })
	fill := max(0, model.LineupSize-len(starters))
	fill = min(fill, len(rest))
	starters = append(starters, rest[:fill]...)
	rest = rest[fill:]

	var bench []Candidate
	if gks := byRole[model.Goalkeeper]; len(gks) > 1 {
		bench = append(bench, gks[1:]...)
	}
	bench = append(bench, rest...)

	sort.Slice(starters, func(i, j int) bool { return better(starters[i], starters[j]) })
	out := model.Lineup{}
	for _, c := range starters {
		out.Starters = append(out.Starters, c.ID)
		out.ExpectedPoints += c.Value
	}
	for _, c := range bench {
		out.Bench = append(out.Bench, c.ID)
	}
	if len(starters) > 0 {
		out.Captain = starters[0].ID
		out.ExpectedPoints += starters[0].Value
	}
	if len(starters) > 1 {
		out.ViceCaptain = starters[1].ID
	}
	sort.Ints(out.Starters)
	return out
}
