package model

// Athlete is a catalogue entry for one selectable athlete.
type Athlete struct {
	ID     int    `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	TeamID int    `json:"team_id" yaml:"team_id"`
	Role   Role   `json:"role" yaml:"role"`
	// Price is the current purchase price in tenths (55 = 5.5).
	Price int `json:"price" yaml:"price"`
	// ChanceOfPlaying is 0-100; nil means no availability news.
	ChanceOfPlaying *int   `json:"chance_of_playing,omitempty" yaml:"chance_of_playing,omitempty"`
	Status          string `json:"status,omitempty" yaml:"status,omitempty"`
}

// Availability returns the probability of playing in [0,1].
func (a Athlete) Availability() float64 {
	if a.ChanceOfPlaying == nil {
		return 1
	}
	c := *a.ChanceOfPlaying
	switch {
	case c <= 0:
		return 0
	case c >= 100:
		return 1
	}
	return float64(c) / 100
}

// AthleteRecord is one athlete's output in one closed scoring period.
// Records are append-only history.
type AthleteRecord struct {
	AthleteID int    `json:"athlete_id" yaml:"athlete_id"`
	TeamID    int    `json:"team_id" yaml:"team_id"`
	Role      Role   `json:"role" yaml:"role"`
	Season    string `json:"season" yaml:"season"`
	Period    int    `json:"period" yaml:"period"`

	Minutes         int `json:"minutes" yaml:"minutes"`
	Goals           int `json:"goals" yaml:"goals"`
	Assists         int `json:"assists" yaml:"assists"`
	CleanSheets     int `json:"clean_sheets" yaml:"clean_sheets"`
	GoalsConceded   int `json:"goals_conceded" yaml:"goals_conceded"`
	Saves           int `json:"saves" yaml:"saves"`
	PenaltiesSaved  int `json:"penalties_saved" yaml:"penalties_saved"`
	PenaltiesMissed int `json:"penalties_missed" yaml:"penalties_missed"`
	OwnGoals        int `json:"own_goals" yaml:"own_goals"`
	YellowCards     int `json:"yellow_cards" yaml:"yellow_cards"`
	RedCards        int `json:"red_cards" yaml:"red_cards"`
	Bonus           int `json:"bonus" yaml:"bonus"`
	Points          int `json:"points" yaml:"points"`

	Price     int     `json:"price" yaml:"price"`
	Ownership float64 `json:"ownership" yaml:"ownership"`

	OpponentID      int     `json:"opponent_id" yaml:"opponent_id"`
	OpponentDefence float64 `json:"opponent_defence" yaml:"opponent_defence"`
	OpponentAttack  float64 `json:"opponent_attack" yaml:"opponent_attack"`
	Home            bool    `json:"home" yaml:"home"`
}

// Played reports whether the athlete took the field.
func (r AthleteRecord) Played() bool { return r.Minutes > 0 }

// Fixture is one scheduled match. Strength ratings are normalised so that
// 1.0 is league average; a higher defence rating is a harder opponent.
type Fixture struct {
	ID          int     `json:"id" yaml:"id"`
	Period      int     `json:"period" yaml:"period"`
	HomeTeam    int     `json:"home_team" yaml:"home_team"`
	AwayTeam    int     `json:"away_team" yaml:"away_team"`
	HomeDefence float64 `json:"home_defence" yaml:"home_defence"`
	HomeAttack  float64 `json:"home_attack" yaml:"home_attack"`
	AwayDefence float64 `json:"away_defence" yaml:"away_defence"`
	AwayAttack  float64 `json:"away_attack" yaml:"away_attack"`
}

// Opposition describes a fixture from one team's point of view.
type Opposition struct {
	FixtureID int
	Opponent  int
	Defence   float64
	Attack    float64
	Home      bool
}

// Involves reports whether team plays in f.
func (f Fixture) Involves(team int) bool {
	return f.HomeTeam == team || f.AwayTeam == team
}

// For returns the opposition faced by team. ok is false when team does not
// play in f.
func (f Fixture) For(team int) (Opposition, bool) {
	switch team {
	case f.HomeTeam:
		return Opposition{FixtureID: f.ID, Opponent: f.AwayTeam, Defence: f.AwayDefence, Attack: f.AwayAttack, Home: true}, true
	case f.AwayTeam:
		return Opposition{FixtureID: f.ID, Opponent: f.HomeTeam, Defence: f.HomeDefence, Attack: f.HomeAttack, Home: false}, true
	}
	return Opposition{}, false
}

// OppositionFor collects every fixture team plays among fixtures, in
// fixture order. Zero entries is a blank period, two is a double.
func OppositionFor(fixtures []Fixture, team int) []Opposition {
	var out []Opposition
	for _, f := range fixtures {
		if o, ok := f.For(team); ok {
			out = append(out, o)
		}
	}
	return out
}
