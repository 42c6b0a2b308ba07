// Package setup generates tournament fixtures: franchises with budgets and
// roster slots, and a player pool with role-tiered base prices and
// performance skills. Generation is deterministic for a given seed so the
// same tournament can be rebuilt on demand.
package setup

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"

	"github.com/saiganeshwaran/cricket-auctioneer/internal/auction"
	"github.com/saiganeshwaran/cricket-auctioneer/internal/config"
	"github.com/saiganeshwaran/cricket-auctioneer/internal/store"
)

// Config controls tournament generation.
type Config struct {
	// TournamentID is generated from the seed when empty.
	TournamentID string
	TeamNames    []string
	// Budget is the auction purse per team.
	Budget decimal.Decimal
	// SlotsPerTeam caps how many players each team may buy.
	SlotsPerTeam int
	// PoolSize is the number of players to generate.
	PoolSize int
	Seed     int64
}

// Tournament is a generated tournament ready to persist and auction.
type Tournament struct {
	ID      string
	Teams   []store.Team
	Players []store.Player
}

var firstNames = []string{
	"Arjun", "Rohan", "Dev", "Kiran", "Nikhil", "Sanjay", "Vikram", "Rahul",
	"Imran", "Tariq", "Faheem", "Zaid", "Liam", "Oliver", "Jack", "Harry",
	"Mitchell", "Shane", "Glenn", "Trent", "Kagiso", "Temba", "Quinton",
	"Angelo", "Kusal", "Dimuth", "Shakib", "Tamim", "Mushfiqur", "Kane",
}

var lastNames = []string{
	"Sharma", "Patel", "Singh", "Rao", "Nair", "Iyer", "Menon", "Kulkarni",
	"Khan", "Ahmed", "Malik", "Hussain", "Smith", "Taylor", "Brown", "Wilson",
	"Marsh", "Starc", "Boult", "Williamson", "Rabada", "Bavuma", "Mathews",
	"Perera", "Hasan", "Rahman", "de Kock", "Head", "Archer", "Stokes",
}

var countries = []string{
	"India", "Australia", "England", "South Africa", "New Zealand",
	"Pakistan", "Sri Lanka", "Bangladesh", "West Indies", "Afghanistan",
}

// roleMix is the pool composition: weights sum to 20, applied in pool
// order so the mix holds for any pool size.
var roleMix = []auction.Role{
	auction.RoleBatter, auction.RoleBatter, auction.RoleBatter,
	auction.RoleBatter, auction.RoleBatter, auction.RoleBatter,
	auction.RoleBatter,
	auction.RoleWicketKeeper, auction.RoleWicketKeeper,
	auction.RoleAllRounder, auction.RoleAllRounder, auction.RoleAllRounder,
	auction.RoleAllRounder, auction.RoleAllRounder,
	auction.RoleBowler, auction.RoleBowler, auction.RoleBowler,
	auction.RoleBowler, auction.RoleBowler, auction.RoleBowler,
}

// Generate builds a tournament from the config. The same config (including
// seed) always produces the same teams, players, prices and skills.
func Generate(cfg Config, clk clockwork.Clock) (Tournament, error) {
	if len(cfg.TeamNames) < 2 {
		return Tournament{}, fmt.Errorf("need at least 2 teams, got %d", len(cfg.TeamNames))
	}
	if !cfg.Budget.IsPositive() {
		return Tournament{}, fmt.Errorf("team budget must be positive, got %s", cfg.Budget)
	}
	if cfg.SlotsPerTeam < 1 {
		return Tournament{}, fmt.Errorf("slots per team must be at least 1, got %d", cfg.SlotsPerTeam)
	}
	if cfg.PoolSize < 1 {
		return Tournament{}, fmt.Errorf("pool size must be at least 1, got %d", cfg.PoolSize)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	now := clk.Now().UTC()

	id := cfg.TournamentID
	if id == "" {
		id = newID(rng)
	}

	t := Tournament{ID: id}
	for _, name := range cfg.TeamNames {
		t.Teams = append(t.Teams, store.Team{
			ID:           newID(rng),
			TournamentID: id,
			Name:         name,
			Budget:       cfg.Budget,
			SlotsTotal:   cfg.SlotsPerTeam,
			CreatedAt:    now,
		})
	}

	seen := make(map[string]struct{}, cfg.PoolSize)
	for i := 0; i < cfg.PoolSize; i++ {
		role := roleMix[i%len(roleMix)]
		batting, bowling := rollSkills(rng, role)
		t.Players = append(t.Players, store.Player{
			ID:           newID(rng),
			TournamentID: id,
			Name:         uniqueName(rng, seen),
			Role:         role.String(),
			Country:      countries[rng.Intn(len(countries))],
			BasePrice:    basePrice(role, batting, bowling),
			BattingSkill: batting,
			BowlingSkill: bowling,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}
	return t, nil
}

// Save persists a generated tournament's teams and players.
func Save(ctx context.Context, players store.PlayerRepository, teams store.TeamRepository, t Tournament) error {
	for i := range t.Teams {
		if err := teams.Create(ctx, &t.Teams[i]); err != nil {
			return fmt.Errorf("saving team %s: %w", t.Teams[i].Name, err)
		}
	}
	for i := range t.Players {
		if err := players.Create(ctx, &t.Players[i]); err != nil {
			return fmt.Errorf("saving player %s: %w", t.Players[i].Name, err)
		}
	}
	return nil
}

// AuctionSetup converts persisted records into an auction setup.
func AuctionSetup(tournamentID string, teams []store.Team, players []store.Player, cfg config.AuctionConfig) (auction.Setup, error) {
	s := auction.Setup{
		TournamentID: tournamentID,
		Config: auction.Config{
			TimerSeconds:    cfg.TimerSeconds,
			IncrementRate:   decimal.NewFromFloat(cfg.BidIncrementRate),
			MaxUnsoldPasses: cfg.MaxUnsoldPasses,
		},
	}
	for _, t := range teams {
		s.Teams = append(s.Teams, auction.TeamState{
			ID:         t.ID,
			Name:       t.Name,
			Budget:     t.Budget,
			SlotsTotal: t.SlotsTotal,
		})
	}
	for _, p := range players {
		role, err := auction.ParseRole(p.Role)
		if err != nil {
			return auction.Setup{}, fmt.Errorf("player %s: %w", p.Name, err)
		}
		s.Lots = append(s.Lots, auction.Lot{
			PlayerID:  p.ID,
			Name:      p.Name,
			Role:      role,
			BasePrice: p.BasePrice,
		})
	}
	return s, nil
}

// newID derives a UUID from the seeded rng so generation stays
// reproducible.
func newID(rng *rand.Rand) string {
	id, err := uuid.NewRandomFromReader(rng)
	if err != nil {
		// rand.Rand.Read never fails.
		panic(err)
	}
	return id.String()
}

func uniqueName(rng *rand.Rand, seen map[string]struct{}) string {
	name := firstNames[rng.Intn(len(firstNames))] + " " + lastNames[rng.Intn(len(lastNames))]
	for suffix := 2; ; suffix++ {
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			return name
		}
		name = fmt.Sprintf("%s %s %d",
			firstNames[rng.Intn(len(firstNames))], lastNames[rng.Intn(len(lastNames))], suffix)
	}
}

// rollSkills draws batting and bowling skill for the role. Specialists get
// a strong primary skill and a weak secondary one.
func rollSkills(rng *rand.Rand, role auction.Role) (batting, bowling int) {
	strong := func() int { return 55 + rng.Intn(41) } // 55-95
	weak := func() int { return 10 + rng.Intn(41) }   // 10-50
	both := func() int { return 45 + rng.Intn(41) }   // 45-85

	switch role {
	case auction.RoleBowler:
		return weak(), strong()
	case auction.RoleAllRounder:
		return both(), both()
	default: // batters and keepers
		return strong(), weak()
	}
}

// basePrice is the role tier scaled by how far the player's primary skill
// sits above average, rounded to a whole amount.
func basePrice(role auction.Role, batting, bowling int) decimal.Decimal {
	skill := batting
	if bowling > skill {
		skill = bowling
	}
	// tier * (1 + (skill-50)/100), floored at half the tier.
	factor := decimal.NewFromInt(int64(100 + skill - 50)).Div(decimal.NewFromInt(100))
	price := role.BaseTier().Mul(factor).Round(0)
	floor := role.BaseTier().Div(decimal.NewFromInt(2)).Round(0)
	if price.LessThan(floor) {
		return floor
	}
	return price
}
