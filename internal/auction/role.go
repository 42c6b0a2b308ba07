package auction

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Role classifies a player in the auction pool.
type Role int

const (
	RoleBatter Role = iota
	RoleWicketKeeper
	RoleAllRounder
	RoleBowler
)

// roleInfo is the single source of truth for role behaviour: display name,
// pool ordering priority and default base price tier (in lakhs).
type roleInfo struct {
	name     string
	priority int
	tier     int64
}

var roleTable = map[Role]roleInfo{
	RoleBatter:       {name: "Batter", priority: 0, tier: 100},
	RoleWicketKeeper: {name: "Wicket-Keeper", priority: 1, tier: 120},
	RoleAllRounder:   {name: "All-Rounder", priority: 2, tier: 150},
	RoleBowler:       {name: "Bowler", priority: 3, tier: 100},
}

// String returns the display name of the role.
func (r Role) String() string {
	if info, ok := roleTable[r]; ok {
		return info.name
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

// Priority returns the pool ordering priority; lower comes up first.
func (r Role) Priority() int {
	return roleTable[r].priority
}

// BaseTier returns the default base price for the role.
func (r Role) BaseTier() decimal.Decimal {
	return decimal.NewFromInt(roleTable[r].tier)
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := roleTable[r]
	return ok
}

// ParseRole maps a display name back to its Role.
func ParseRole(s string) (Role, error) {
	for r, info := range roleTable {
		if info.name == s {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown role %q", s)
}
