// Package roster maps free-text position codes onto coarse tactical roles.
package roster

import (
	"fmt"
	"strings"
)

// Role is a coarse tactical grouping.
type Role int

const (
	Defender Role = iota
	Midfielder
	Attacker
	Goalkeeper
)

// Roles lists every role in column order.
var Roles = []Role{Defender, Midfielder, Attacker, Goalkeeper}

func (r Role) String() string {
	switch r {
	case Defender:
		return "defender"
	case Midfielder:
		return "midfielder"
	case Attacker:
		return "attacker"
	case Goalkeeper:
		return "goalkeeper"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// Plural is the suffix used in feature column names, e.g. "defenders".
func (r Role) Plural() string {
	return r.String() + "s"
}

var positions = map[string]Role{
	"CB":  Defender,
	"RB":  Defender,
	"LB":  Defender,
	"LWB": Defender,
	"RWB": Defender,
	"SW":  Defender,
	"DM":  Midfielder,
	"CM":  Midfielder,
	"AM":  Midfielder,
	"RM":  Midfielder,
	"LM":  Midfielder,
	"SS":  Attacker,
	"RW":  Attacker,
	"LW":  Attacker,
	"ST":  Attacker,
	"CF":  Attacker,
	"UNK": Attacker,
	"GK":  Goalkeeper,
}

// UnknownPolicy decides what happens to a position code missing from the table.
type UnknownPolicy string

const (
	// UnknownAsAttacker counts unknown codes as attackers.
	UnknownAsAttacker UnknownPolicy = "attacker"
	// UnknownSkip leaves players with unknown codes out of role features.
	UnknownSkip UnknownPolicy = "skip"
)

// Resolver looks position codes up under an explicit unknown-code policy.
type Resolver struct {
	Policy UnknownPolicy
}

// Resolve returns the role for a position code. ok is false only when the
// code is unknown and the policy is UnknownSkip.
func (r Resolver) Resolve(code string) (Role, bool) {
	if role, found := positions[strings.ToUpper(strings.TrimSpace(code))]; found {
		return role, true
	}
	if r.Policy == UnknownSkip {
		return 0, false
	}
	return Attacker, true
}

// Known reports whether the code is in the static position table.
func Known(code string) bool {
	_, ok := positions[strings.ToUpper(strings.TrimSpace(code))]
	return ok
}

// PositionOf extracts the position code from a player id such as "CB_3".
func PositionOf(playerID string) string {
	code, _, _ := strings.Cut(playerID, "_")
	return code
}
