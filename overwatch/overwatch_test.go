package overwatch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayerID(t *testing.T) {
	id, err := PlayerID("Player#1234")
	require.NoError(t, err)
	assert.Equal(t, "Player-1234", id)

	for _, bad := range []string{"Player", "#1234", "Player#", ""} {
		_, err := PlayerID(bad)
		assert.ErrorIs(t, err, ErrInvalidBattleTag, bad)
	}
}

func TestPlayerSummary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/players/Player-1234/summary":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"username": "Player",
				"avatar": "https://img/avatar.png",
				"namecard": "https://img/namecard.png",
				"endorsement": {"level": 3},
				"competitive": {"pc": {
					"season": 12,
					"tank": {"division": "diamond", "tier": 2},
					"damage": null,
					"support": {"division": "grandmaster", "tier": 5}
				}}
			}`))
		case "/players/Ghost-1/summary":
			w.WriteHeader(http.StatusNotFound)
		case "/players/Busy-1/summary":
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 1000, srv.Client())
	ctx := context.Background()

	summary, err := c.PlayerSummary(ctx, "Player#1234")
	require.NoError(t, err)
	assert.Equal(t, "Player", summary.Username)
	assert.Equal(t, 3, summary.Endorsement.Level)
	require.NotNil(t, summary.PC())
	assert.Equal(t, 12, summary.PC().Season)
	assert.Equal(t, "Diamond 2", FormatRank(summary.PC().Tank, "-"))
	assert.Equal(t, "-", FormatRank(summary.PC().Damage, "-"))
	assert.Equal(t, "Grandmaster 5", FormatRank(summary.PC().Support, "-"))

	_, err = c.PlayerSummary(ctx, "Ghost#1")
	assert.ErrorIs(t, err, ErrPlayerNotFound)

	_, err = c.PlayerSummary(ctx, "Busy#1")
	assert.ErrorIs(t, err, ErrRateLimited)

	_, err = c.PlayerSummary(ctx, "Broken#1")
	assert.Error(t, err)

	_, err = c.PlayerSummary(ctx, "NoTag")
	assert.ErrorIs(t, err, ErrInvalidBattleTag)
}

func TestSummaryWithoutCompetitive(t *testing.T) {
	s := &Summary{}
	assert.Nil(t, s.PC())
}
