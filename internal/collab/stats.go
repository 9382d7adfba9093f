// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package collab

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"

	"github.com/google/uuid"
)

// ErrStatsNotFound means the stats provider has no record for the UUID
// (spec §4.9: "Player-info / stats provider ... or NotFound").
var ErrStatsNotFound = errors.New("collab: no stats record for player")

// BedwarsSummary is the domain record a stats provider yields; formatting
// it into a Chat message is the relay's job (spec §4.8 assigns "synthesize
// a Chat message" to the pump, not to this collaborator).
type BedwarsSummary struct {
	Level                          int
	Kills, Deaths                  int
	FinalKills, FinalDeaths        int
	Wins, Losses                   int
	Winstreak                      int
}

func (s BedwarsSummary) KD() float64      { return ratio(s.Kills, s.Deaths) }
func (s BedwarsSummary) FinalKD() float64 { return ratio(s.FinalKills, s.FinalDeaths) }
func (s BedwarsSummary) WL() float64      { return ratio(s.Wins, s.Losses) }

func ratio(a, b int) float64 {
	if b == 0 {
		return float64(a)
	}
	return math.Round(float64(a)/float64(b)*100) / 100
}

// String renders a one-line summary, the form the relay drops straight
// into a Chat literal.
func (s BedwarsSummary) String() string {
	return fmt.Sprintf("Bedwars level %d | %d-%d (%.2f KD) | %d-%d finals (%.2f FKD) | %d-%d (%.2f WL) | %d winstreak",
		s.Level, s.Kills, s.Deaths, s.KD(), s.FinalKills, s.FinalDeaths, s.FinalKD(), s.Wins, s.Losses, s.WL(), s.Winstreak)
}

// StatsProvider is the pluggable external collaborator that answers
// "/stats" lookups (spec §4.9). The injection points live in the relay;
// the domain of the lookup itself is explicitly out of scope for the core
// (spec §1).
type StatsProvider interface {
	Stats(ctx context.Context, id uuid.UUID) (BedwarsSummary, error)
}

// HypixelStats is a StatsProvider backed by the public Hypixel API,
// adapted from the teacher's bedwars-stats client: same endpoint, same
// API-Key header, same achievements.bedwars_level field, generalized to
// the aggregate (all-modes) bedwars counters instead of one gamemode at a
// time so a single call covers the "/stats *" broadcast form (spec §4.8).
type HypixelStats struct {
	apiKey string
	client *http.Client
}

func NewHypixelStats(apiKey string, client *http.Client) *HypixelStats {
	if client == nil {
		client = http.DefaultClient
	}
	return &HypixelStats{apiKey: apiKey, client: client}
}

type hypixelPlayerResponse struct {
	Success bool `json:"success"`
	Player  struct {
		Achievements struct {
			BedwarsLevel int `json:"bedwars_level"`
		} `json:"achievements"`
		Stats struct {
			Bedwars struct {
				KillsBedwars       int `json:"kills_bedwars"`
				DeathsBedwars      int `json:"deaths_bedwars"`
				FinalKillsBedwars  int `json:"final_kills_bedwars"`
				FinalDeathsBedwars int `json:"final_deaths_bedwars"`
				WinsBedwars        int `json:"wins_bedwars"`
				LossesBedwars      int `json:"losses_bedwars"`
				Winstreak          int `json:"winstreak"`
			} `json:"Bedwars"`
		} `json:"stats"`
	} `json:"player"`
}

func (h *HypixelStats) Stats(ctx context.Context, id uuid.UUID) (BedwarsSummary, error) {
	params := url.Values{"uuid": {id.String()}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://api.hypixel.net/v2/player?"+params.Encode(), nil)
	if err != nil {
		return BedwarsSummary{}, err
	}
	req.Header.Set("API-Key", h.apiKey)

	resp, err := h.client.Do(req)
	if err != nil {
		return BedwarsSummary{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return BedwarsSummary{}, ErrStatsNotFound
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return BedwarsSummary{}, err
	}
	var decoded hypixelPlayerResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return BedwarsSummary{}, err
	}
	if !decoded.Success {
		return BedwarsSummary{}, ErrStatsNotFound
	}
	bw := decoded.Player.Stats.Bedwars
	return BedwarsSummary{
		Level:       decoded.Player.Achievements.BedwarsLevel,
		Kills:       bw.KillsBedwars,
		Deaths:      bw.DeathsBedwars,
		FinalKills:  bw.FinalKillsBedwars,
		FinalDeaths: bw.FinalDeathsBedwars,
		Wins:        bw.WinsBedwars,
		Losses:      bw.LossesBedwars,
		Winstreak:   bw.Winstreak,
	}, nil
}
