// Package standings builds the tournament points table and player
// leaderboards from simulated results.
package standings

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/saiganeshwaran/cricket-auctioneer/internal/store"
)

// TableRow is one team's line in the points table.
type TableRow struct {
	TeamID   string `json:"team_id"`
	TeamName string `json:"team_name"`
	Played   int    `json:"played"`
	Won      int    `json:"won"`
	Lost     int    `json:"lost"`
	Tied     int    `json:"tied"`
	Points   int    `json:"points"`
	// NetRunRate is runs per over scored minus runs per over conceded,
	// over balls actually faced.
	NetRunRate float64 `json:"net_run_rate"`
}

// LeaderboardEntry is one player's line in a skill leaderboard.
type LeaderboardEntry struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Country  string `json:"country"`
	Skill    int    `json:"skill"`
}

// pointsWin and friends follow the standard limited-overs scheme.
const (
	pointsWin = 2
	pointsTie = 1
)

// Table builds the points table for a tournament. Teams with no results
// still appear with zero points. Ordering: points, then net run rate, then
// name.
func Table(teams []store.Team, results []store.MatchResult) []TableRow {
	type tally struct {
		row         TableRow
		runsFor     int
		ballsFaced  int
		runsAgainst int
		ballsBowled int
	}

	tallies := make(map[string]*tally, len(teams))
	order := make([]string, 0, len(teams))
	for _, t := range teams {
		tallies[t.ID] = &tally{row: TableRow{TeamID: t.ID, TeamName: t.Name}}
		order = append(order, t.ID)
	}

	apply := func(teamID string, scored, faced, conceded, bowled int, won, tied bool) {
		t, ok := tallies[teamID]
		if !ok {
			return
		}
		t.row.Played++
		t.runsFor += scored
		t.ballsFaced += faced
		t.runsAgainst += conceded
		t.ballsBowled += bowled
		switch {
		case won:
			t.row.Won++
			t.row.Points += pointsWin
		case tied:
			t.row.Tied++
			t.row.Points += pointsTie
		default:
			t.row.Lost++
		}
	}

	for _, r := range results {
		tie := r.WinnerTeamID == nil
		homeWon := !tie && *r.WinnerTeamID == r.HomeTeamID
		awayWon := !tie && *r.WinnerTeamID == r.AwayTeamID
		apply(r.HomeTeamID, r.HomeRuns, r.HomeBalls, r.AwayRuns, r.AwayBalls, homeWon, tie)
		apply(r.AwayTeamID, r.AwayRuns, r.AwayBalls, r.HomeRuns, r.HomeBalls, awayWon, tie)
	}

	rows := make([]TableRow, 0, len(order))
	for _, id := range order {
		t := tallies[id]
		t.row.NetRunRate = runRate(t.runsFor, t.ballsFaced) - runRate(t.runsAgainst, t.ballsBowled)
		rows = append(rows, t.row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Points != rows[j].Points {
			return rows[i].Points > rows[j].Points
		}
		if rows[i].NetRunRate != rows[j].NetRunRate {
			return rows[i].NetRunRate > rows[j].NetRunRate
		}
		return rows[i].TeamName < rows[j].TeamName
	})
	return rows
}

func runRate(runs, balls int) float64 {
	if balls == 0 {
		return 0
	}
	return float64(runs) / (float64(balls) / 6)
}

// BattingLeaderboard ranks players by batting skill, best first.
func BattingLeaderboard(players []store.Player, limit int) []LeaderboardEntry {
	return leaderboard(players, limit, func(p store.Player) int { return p.BattingSkill })
}

// BowlingLeaderboard ranks players by bowling skill, best first.
func BowlingLeaderboard(players []store.Player, limit int) []LeaderboardEntry {
	return leaderboard(players, limit, func(p store.Player) int { return p.BowlingSkill })
}

func leaderboard(players []store.Player, limit int, skill func(store.Player) int) []LeaderboardEntry {
	entries := make([]LeaderboardEntry, 0, len(players))
	for _, p := range players {
		entries = append(entries, LeaderboardEntry{
			PlayerID: p.ID,
			Name:     p.Name,
			Role:     p.Role,
			Country:  p.Country,
			Skill:    skill(p),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Skill != entries[j].Skill {
			return entries[i].Skill > entries[j].Skill
		}
		return entries[i].Name < entries[j].Name
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

// SearchPlayers fuzzy-matches the query against player names, best match
// first. An empty query matches nothing.
func SearchPlayers(players []store.Player, query string) []store.Player {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	names := make([]string, len(players))
	for i, p := range players {
		names[i] = p.Name
	}
	ranks := fuzzy.RankFindNormalizedFold(query, names)
	sort.Stable(ranks)

	out := make([]store.Player, 0, len(ranks))
	for _, r := range ranks {
		out = append(out, players[r.OriginalIndex])
	}
	return out
}
