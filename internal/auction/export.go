package auction

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/shopspring/decimal"
)

// Export is a read-only projection of auction state for dashboards and
// downloads. It is safe to serialize and hand out; mutating it never
// touches the live auction.
type Export struct {
	TournamentID  string         `json:"tournament_id"`
	Status        Status         `json:"status"`
	Teams         []TeamExport   `json:"teams"`
	SoldPlayers   []SoldExport   `json:"sold_players"`
	UnsoldPlayers []UnsoldExport `json:"unsold_players"`
	History       []BidExport    `json:"history"`
}

// TeamExport is the exported view of one team's ledger.
type TeamExport struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Budget     decimal.Decimal `json:"budget_remaining"`
	Spent      decimal.Decimal `json:"spent"`
	SlotsTotal int             `json:"slots_total"`
	SlotsOpen  int             `json:"slots_open"`
	Roster     []SoldExport    `json:"roster"`
}

// SoldExport is the exported view of a sale.
type SoldExport struct {
	PlayerID   string          `json:"player_id"`
	PlayerName string          `json:"player_name"`
	Role       string          `json:"role"`
	TeamID     string          `json:"team_id"`
	Price      decimal.Decimal `json:"price"`
	Time       time.Time       `json:"time"`
}

// UnsoldExport is the exported view of a permanently unsold lot.
type UnsoldExport struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	Role       string `json:"role"`
	Passes     int    `json:"passes"`
}

// BidExport is one flattened entry of the bid history.
type BidExport struct {
	PlayerID string          `json:"player_id"`
	TeamID   string          `json:"team_id"`
	Amount   decimal.Decimal `json:"amount"`
	Time     time.Time       `json:"time"`
}

// Export builds the read-only projection of the current auction state.
func (a *Auction) Export() Export {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := Export{
		TournamentID: a.ID,
		Status:       a.Status,
	}
	for _, t := range a.ledger.Teams() {
		te := TeamExport{
			ID:         t.ID,
			Name:       t.Name,
			Budget:     t.Budget,
			Spent:      t.Spent(),
			SlotsTotal: t.SlotsTotal,
			SlotsOpen:  t.SlotsOpen(),
		}
		for _, p := range t.Roster {
			te.Roster = append(te.Roster, SoldExport{
				PlayerID:   p.PlayerID,
				PlayerName: p.Name,
				Role:       p.Role.String(),
				TeamID:     t.ID,
				Price:      p.Price,
				Time:       p.Time,
			})
		}
		out.Teams = append(out.Teams, te)
	}
	for _, s := range a.sold {
		out.SoldPlayers = append(out.SoldPlayers, SoldExport{
			PlayerID:   s.PlayerID,
			PlayerName: s.Name,
			Role:       s.Role.String(),
			TeamID:     s.TeamID,
			Price:      s.Price,
			Time:       s.Time,
		})
	}
	for _, u := range a.unsold {
		out.UnsoldPlayers = append(out.UnsoldPlayers, UnsoldExport{
			PlayerID:   u.PlayerID,
			PlayerName: u.Name,
			Role:       u.Role.String(),
			Passes:     u.Passes,
		})
	}
	for _, b := range a.history {
		out.History = append(out.History, BidExport{
			PlayerID: b.PlayerID,
			TeamID:   b.TeamID,
			Amount:   b.Amount,
			Time:     b.Time,
		})
	}
	return out
}

// JSON serializes the export for download.
func (e Export) JSON() ([]byte, error) {
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding export: %w", err)
	}
	return data, nil
}

// EncodeSetup serializes a setup as an opaque CBOR blob for the snapshot
// store. Replay needs the setup back verbatim, so the codec is strict on
// both ends.
func EncodeSetup(s Setup) ([]byte, error) {
	data, err := cbor.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encoding setup: %w", err)
	}
	return data, nil
}

// DecodeSetup deserializes a setup blob written by EncodeSetup.
func DecodeSetup(data []byte) (Setup, error) {
	var s Setup
	if err := cbor.Unmarshal(data, &s); err != nil {
		return Setup{}, fmt.Errorf("decoding setup: %w", err)
	}
	return s, nil
}
