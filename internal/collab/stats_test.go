// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package collab_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/gomcproxy/gomcproxy/internal/collab"
)

func TestBedwarsSummaryRatios(t *testing.T) {
	s := collab.BedwarsSummary{Kills: 10, Deaths: 4, FinalKills: 6, FinalDeaths: 3, Wins: 9, Losses: 3}
	require.Equal(t, 2.5, s.KD())
	require.Equal(t, 2.0, s.FinalKD())
	require.Equal(t, 3.0, s.WL())
}

func TestBedwarsSummaryRatioAvoidsDivideByZero(t *testing.T) {
	s := collab.BedwarsSummary{Kills: 5, Deaths: 0}
	require.Equal(t, 5.0, s.KD())
}

func TestHypixelStatsParsesAggregateFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "test-key", r.Header.Get("API-Key"))
		w.Write([]byte(`{
			"success": true,
			"player": {
				"achievements": {"bedwars_level": 50},
				"stats": {"Bedwars": {
					"kills_bedwars": 100, "deaths_bedwars": 40,
					"final_kills_bedwars": 60, "final_deaths_bedwars": 20,
					"wins_bedwars": 30, "losses_bedwars": 10, "winstreak": 5
				}}
			}
		}`))
	}))
	defer srv.Close()

	client := &http.Client{Transport: redirectingTransport{target: srv.Listener.Addr().String()}}
	provider := collab.NewHypixelStats("test-key", client)

	summary, err := provider.Stats(context.Background(), uuid.New())
	require.NoError(t, err)
	require.Equal(t, 50, summary.Level)
	require.Equal(t, 100, summary.Kills)
	require.Equal(t, 5, summary.Winstreak)
}

func TestHypixelStatsNotFoundOnNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := &http.Client{Transport: redirectingTransport{target: srv.Listener.Addr().String()}}
	provider := collab.NewHypixelStats("bad-key", client)

	_, err := provider.Stats(context.Background(), uuid.New())
	require.ErrorIs(t, err, collab.ErrStatsNotFound)
}
