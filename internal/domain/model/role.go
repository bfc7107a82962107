// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
)

// Squad shape constants.
const (
	SquadSize  = 15
	LineupSize = 11
	MaxPerTeam = 3
)

// Role is an athlete's positional category. Values match the upstream
// element_type numbering (1=GK .. 4=FWD).
type Role int

const (
	RoleUnknown Role = iota
	Goalkeeper
	Defender
	Midfielder
	Forward
)

// Roles lists every playable role in squad order.
var Roles = [...]Role{Goalkeeper, Defender, Midfielder, Forward} //nolint:gochecknoglobals // fixed enumeration

type roleRules struct {
	short       string
	quota       int
	minStarters int
	maxStarters int
}

var rules = map[Role]roleRules{ //nolint:gochecknoglobals // fixed rule table
	Goalkeeper: {short: "GK", quota: 2, minStarters: 1, maxStarters: 1},
	Defender:   {short: "DEF", quota: 5, minStarters: 3, maxStarters: 5},
	Midfielder: {short: "MID", quota: 5, minStarters: 2, maxStarters: 5},
	Forward:    {short: "FWD", quota: 3, minStarters: 1, maxStarters: 3},
}

// Valid reports whether r is one of the four playable roles.
func (r Role) Valid() bool {
	_, ok := rules[r]
	return ok
}

// SquadQuota is the exact number of athletes of this role in a squad.
func (r Role) SquadQuota() int { return rules[r].quota }

// MinStarters is the minimum number of starters of this role.
func (r Role) MinStarters() int { return rules[r].minStarters }

// MaxStarters is the maximum number of starters of this role.
func (r Role) MaxStarters() int { return rules[r].maxStarters }

func (r Role) String() string {
	if rr, ok := rules[r]; ok {
		return rr.short
	}
	return "UNKNOWN"
}

// ParseRole accepts short codes (GK, DEF, MID, FWD), long names, or the
// numeric element type.
func ParseRole(s string) (Role, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "GK", "GKP", "GOALKEEPER", "1":
		return Goalkeeper, nil
	case "DEF", "DEFENDER", "2":
		return Defender, nil
	case "MID", "MIDFIELDER", "3":
		return Midfielder, nil
	case "FWD", "FW", "FORWARD", "4":
		return Forward, nil
	}
	return RoleUnknown, fmt.Errorf("unknown role %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("cannot marshal role %d", int(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Role) UnmarshalText(b []byte) error {
	parsed, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
