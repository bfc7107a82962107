package model_test

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	model "github.com/vituk123/fpl-ai-thinktank4-sub000/internal/domain/model"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/internal/domain/model/modeltest"
)

func TestParseRole(t *testing.T) {
	Convey("Given role names in different spellings", t, func() {
		cases := map[string]model.Role{
			"GK":       model.Goalkeeper,
			"gkp":      model.Goalkeeper,
			"Defender": model.Defender,
			" mid ":    model.Midfielder,
			"4":        model.Forward,
			"forward":  model.Forward,
		}
		Convey("Then each parses to the expected role", func() {
			for in, want := range cases {
				got, err := model.ParseRole(in)
				So(err, ShouldBeNil)
				So(got, ShouldEqual, want)
			}
		})
		Convey("Then an unknown name is rejected", func() {
			_, err := model.ParseRole("striker")
			So(err, ShouldNotBeNil)
		})
		Convey("Then text round trips through the short code", func() {
			b, err := model.Defender.MarshalText()
			So(err, ShouldBeNil)
			So(string(b), ShouldEqual, "DEF")
			var r model.Role
			So(r.UnmarshalText(b), ShouldBeNil)
			So(r, ShouldEqual, model.Defender)
		})
	})
}

func TestRosterValidate(t *testing.T) {
	Convey("Given the reference roster", t, func() {
		r := modeltest.Roster(10)

		Convey("Then it is valid and sits at its budget cap", func() {
			So(r.Validate(), ShouldBeNil)
			So(r.Value(), ShouldEqual, 835)
			So(r.Budget(), ShouldEqual, 835)
		})

		Convey("When an athlete is listed twice", func() {
			r.Members[1].AthleteID = r.Members[0].AthleteID
			So(errors.Is(r.Validate(), model.ErrInvalidRoster), ShouldBeTrue)
		})

		Convey("When a role quota is broken", func() {
			r.Members[0].Role = model.Defender
			So(errors.Is(r.Validate(), model.ErrInvalidRoster), ShouldBeTrue)
		})

		Convey("When four athletes share a team", func() {
			r.Members[4].TeamID = 1
			r.Members[5].TeamID = 1
			So(errors.Is(r.Validate(), model.ErrInvalidRoster), ShouldBeTrue)
		})

		Convey("When the bank is negative", func() {
			r.Bank = -1
			So(errors.Is(r.Validate(), model.ErrInvalidRoster), ShouldBeTrue)
		})

		Convey("When the team cap is disabled", func() {
			roles := make([]model.Role, 0, len(r.Members))
			teams := make([]int, 0, len(r.Members))
			for _, m := range r.Members {
				roles = append(roles, m.Role)
				teams = append(teams, 1)
			}
			So(model.CheckSquad(roles, teams, 0), ShouldBeNil)
			So(model.CheckSquad(roles, teams, model.MaxPerTeam), ShouldNotBeNil)
		})
	})
}

func TestCheckLineup(t *testing.T) {
	Convey("Given starting formations", t, func() {
		formation := func(gk, def, mid, fwd int) []model.Role {
			var out []model.Role
			for i := 0; i < gk; i++ {
				out = append(out, model.Goalkeeper)
			}
			for i := 0; i < def; i++ {
				out = append(out, model.Defender)
			}
			for i := 0; i < mid; i++ {
				out = append(out, model.Midfielder)
			}
			for i := 0; i < fwd; i++ {
				out = append(out, model.Forward)
			}
			return out
		}
		So(model.CheckLineup(formation(1, 4, 4, 2)), ShouldBeNil)
		So(model.CheckLineup(formation(1, 3, 5, 2)), ShouldBeNil)
		So(model.CheckLineup(formation(1, 5, 2, 3)), ShouldBeNil)
		So(model.CheckLineup(formation(2, 3, 4, 2)), ShouldNotBeNil)
		So(model.CheckLineup(formation(1, 2, 5, 3)), ShouldNotBeNil)
		So(model.CheckLineup(formation(1, 4, 4, 1)), ShouldNotBeNil)
	})
}

func TestRosterApply(t *testing.T) {
	Convey("Given a roster and a one-transfer recommendation", t, func() {
		r := modeltest.Roster(10)
		rec := model.Recommendation{
			ManagerID: modeltest.ManagerID,
			Period:    11,
			Transfers: []model.Transfer{{
				Out: 15, In: 403, Role: model.Forward,
				OutTeam: 8, InTeam: 1, SellPrice: 55, BuyPrice: 50,
			}},
			Lineup: model.Lineup{
				Starters:    []int{1, 3, 4, 5, 6, 8, 9, 10, 11, 13, 14},
				Bench:       []int{2, 7, 12, 403},
				Captain:     13,
				ViceCaptain: 8,
			},
			Chip: model.ChipAdvice{Activate: model.ChipBenchBoost},
		}

		Convey("When it is applied", func() {
			next, err := r.Apply(rec)
			So(err, ShouldBeNil)

			Convey("Then the swap, bank and lineup are reflected", func() {
				_, hasOut := next.Member(15)
				in, hasIn := next.Member(403)
				So(hasOut, ShouldBeFalse)
				So(hasIn, ShouldBeTrue)
				So(in.PurchasePrice, ShouldEqual, 50)
				So(next.Bank, ShouldEqual, 5)
				So(next.FreeChanges, ShouldEqual, 0)
				So(next.Period, ShouldEqual, 11)
				cap13, _ := next.Member(13)
				So(cap13.Captain, ShouldBeTrue)
				gk2, _ := next.Member(2)
				So(gk2.BenchOrder, ShouldEqual, 1)
				So(next.ActiveChip, ShouldEqual, model.ChipBenchBoost)
				So(next.HasChip(model.ChipBenchBoost), ShouldBeFalse)
				So(next.HasChip(model.ChipTripleCaptain), ShouldBeTrue)
			})

			Convey("Then the original roster is untouched", func() {
				_, stillThere := r.Member(15)
				So(stillThere, ShouldBeTrue)
				So(r.Bank, ShouldEqual, 0)
				So(r.HasChip(model.ChipBenchBoost), ShouldBeTrue)
			})
		})

		Convey("When the outgoing athlete is not in the squad", func() {
			rec.Transfers[0].Out = 999
			_, err := r.Apply(rec)
			So(errors.Is(err, model.ErrUnknownAthlete), ShouldBeTrue)
		})

		Convey("When it belongs to another manager", func() {
			rec.ManagerID = 1
			_, err := r.Apply(rec)
			So(errors.Is(err, model.ErrInvalidRoster), ShouldBeTrue)
		})

		Convey("When the purchase overspends the bank", func() {
			rec.Transfers[0].BuyPrice = 60
			_, err := r.Apply(rec)
			So(errors.Is(err, model.ErrInvalidRoster), ShouldBeTrue)
		})
	})
}

func TestAvailability(t *testing.T) {
	Convey("Given athletes with different availability news", t, func() {
		pct := func(v int) *int { return &v }
		So(model.Athlete{}.Availability(), ShouldEqual, 1.0)
		So(model.Athlete{ChanceOfPlaying: pct(0)}.Availability(), ShouldEqual, 0.0)
		So(model.Athlete{ChanceOfPlaying: pct(75)}.Availability(), ShouldEqual, 0.75)
		So(model.Athlete{ChanceOfPlaying: pct(150)}.Availability(), ShouldEqual, 1.0)
	})
}

func TestFixtureOpposition(t *testing.T) {
	Convey("Given a period where team 1 plays twice and team 3 blanks", t, func() {
		fixtures := []model.Fixture{
			{ID: 1, HomeTeam: 1, AwayTeam: 2, AwayDefence: 1.2, AwayAttack: 0.9},
			{ID: 2, HomeTeam: 4, AwayTeam: 1, HomeDefence: 0.8, HomeAttack: 1.1},
		}
		So(model.OppositionFor(fixtures, 1), ShouldHaveLength, 2)
		So(model.OppositionFor(fixtures, 3), ShouldBeEmpty)
		first := model.OppositionFor(fixtures, 1)[0]
		So(first.Home, ShouldBeTrue)
		So(first.Defence, ShouldEqual, 1.2)
		second := model.OppositionFor(fixtures, 1)[1]
		So(second.Home, ShouldBeFalse)
		So(second.Opponent, ShouldEqual, 4)
	})
}
