package standings_test

import (
	"math"
	"testing"

	"github.com/saiganeshwaran/cricket-auctioneer/internal/standings"
	"github.com/saiganeshwaran/cricket-auctioneer/internal/store"
)

func testTeams() []store.Team {
	return []store.Team{
		{ID: "t1", Name: "Alpha"},
		{ID: "t2", Name: "Bravo"},
		{ID: "t3", Name: "Charlie"},
	}
}

func winner(id string) *string { return &id }

func TestTable_PointsAndOrdering(t *testing.T) {
	results := []store.MatchResult{
		// Alpha beats Bravo.
		{HomeTeamID: "t1", AwayTeamID: "t2", HomeRuns: 160, AwayRuns: 150,
			HomeBalls: 120, AwayBalls: 120, WinnerTeamID: winner("t1")},
		// Bravo and Charlie tie.
		{HomeTeamID: "t2", AwayTeamID: "t3", HomeRuns: 140, AwayRuns: 140,
			HomeBalls: 120, AwayBalls: 120},
		// Alpha beats Charlie.
		{HomeTeamID: "t3", AwayTeamID: "t1", HomeRuns: 120, AwayRuns: 121,
			HomeBalls: 120, AwayBalls: 100, WinnerTeamID: winner("t1")},
	}

	rows := standings.Table(testTeams(), results)
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}

	if rows[0].TeamID != "t1" || rows[0].Points != 4 {
		t.Errorf("top row = %s with %d points, want t1 with 4", rows[0].TeamID, rows[0].Points)
	}
	if rows[0].Won != 2 || rows[0].Lost != 0 || rows[0].Played != 2 {
		t.Errorf("t1 record = %+v, want 2 wins from 2", rows[0])
	}
	if rows[1].TeamID != "t2" || rows[1].Points != 1 || rows[1].Tied != 1 {
		t.Errorf("second row = %+v, want t2 with 1 point from a tie", rows[1])
	}
	if rows[2].TeamID != "t3" || rows[2].Points != 1 {
		t.Errorf("third row = %+v, want t3 with 1 point", rows[2])
	}
	// t2 and t3 are level on points; net run rate must break the tie.
	if rows[1].NetRunRate < rows[2].NetRunRate {
		t.Errorf("tie-break order wrong: %f before %f", rows[1].NetRunRate, rows[2].NetRunRate)
	}
}

func TestTable_NetRunRate(t *testing.T) {
	// 120 runs off 20 overs vs 100 conceded off 20 overs: NRR = 6.0 - 5.0.
	results := []store.MatchResult{
		{HomeTeamID: "t1", AwayTeamID: "t2", HomeRuns: 120, AwayRuns: 100,
			HomeBalls: 120, AwayBalls: 120, WinnerTeamID: winner("t1")},
	}

	rows := standings.Table(testTeams(), results)
	var alpha standings.TableRow
	for _, r := range rows {
		if r.TeamID == "t1" {
			alpha = r
		}
	}
	if math.Abs(alpha.NetRunRate-1.0) > 1e-9 {
		t.Errorf("t1 net run rate = %f, want 1.0", alpha.NetRunRate)
	}
}

func TestTable_NoResults(t *testing.T) {
	rows := standings.Table(testTeams(), nil)
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	// Level on zero points, ordered by name.
	want := []string{"Alpha", "Bravo", "Charlie"}
	for i, r := range rows {
		if r.TeamName != want[i] || r.Points != 0 || r.Played != 0 {
			t.Errorf("row %d = %+v, want %s with no results", i, r, want[i])
		}
	}
}

func TestTable_IgnoresUnknownTeams(t *testing.T) {
	results := []store.MatchResult{
		{HomeTeamID: "ghost", AwayTeamID: "t1", HomeRuns: 100, AwayRuns: 90,
			HomeBalls: 120, AwayBalls: 120, WinnerTeamID: winner("ghost")},
	}
	rows := standings.Table(testTeams(), results)
	for _, r := range rows {
		if r.TeamID == "ghost" {
			t.Fatal("unknown team leaked into the table")
		}
	}
}

func testPlayers() []store.Player {
	return []store.Player{
		{ID: "p1", Name: "Arjun Sharma", Role: "Batter", BattingSkill: 88, BowlingSkill: 20},
		{ID: "p2", Name: "Kagiso Rabada", Role: "Bowler", BattingSkill: 25, BowlingSkill: 92},
		{ID: "p3", Name: "Shane Marsh", Role: "All-Rounder", BattingSkill: 70, BowlingSkill: 70},
		{ID: "p4", Name: "Quinton de Kock", Role: "Wicket-Keeper", BattingSkill: 88, BowlingSkill: 10},
	}
}

func TestLeaderboards(t *testing.T) {
	batting := standings.BattingLeaderboard(testPlayers(), 3)
	if len(batting) != 3 {
		t.Fatalf("batting entries = %d, want 3", len(batting))
	}
	// p1 and p4 are level on 88; name breaks the tie.
	if batting[0].PlayerID != "p1" || batting[1].PlayerID != "p4" || batting[2].PlayerID != "p3" {
		t.Errorf("batting order = %s,%s,%s, want p1,p4,p3",
			batting[0].PlayerID, batting[1].PlayerID, batting[2].PlayerID)
	}

	bowling := standings.BowlingLeaderboard(testPlayers(), 0)
	if len(bowling) != 4 {
		t.Fatalf("bowling entries = %d, want all 4 with no limit", len(bowling))
	}
	if bowling[0].PlayerID != "p2" {
		t.Errorf("best bowler = %s, want p2", bowling[0].PlayerID)
	}
}

func TestSearchPlayers(t *testing.T) {
	players := testPlayers()

	got := standings.SearchPlayers(players, "rabada")
	if len(got) == 0 || got[0].ID != "p2" {
		t.Fatalf("SearchPlayers(rabada) = %+v, want p2 first", got)
	}

	// Partial, differently-cased queries still match.
	got = standings.SearchPlayers(players, "ARJ")
	if len(got) == 0 || got[0].ID != "p1" {
		t.Fatalf("SearchPlayers(ARJ) = %+v, want p1 first", got)
	}

	if got := standings.SearchPlayers(players, "  "); got != nil {
		t.Errorf("blank query matched %d players", len(got))
	}
	if got := standings.SearchPlayers(players, "zzzzqqq"); len(got) != 0 {
		t.Errorf("nonsense query matched %d players", len(got))
	}
}
