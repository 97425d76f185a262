package steam

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("key") != "k" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		switch r.URL.Path {
		case "/ISteamUser/ResolveVanityURL/v1/":
			if q.Get("vanityurl") == "gaben" {
				_, _ = w.Write([]byte(`{"response":{"success":1,"steamid":"76561197960287930"}}`))
				return
			}
			_, _ = w.Write([]byte(`{"response":{"success":42,"message":"No match"}}`))
		case "/IPlayerService/GetOwnedGames/v1/":
			if q.Get("steamid") == "76561197960287930" {
				_, _ = w.Write([]byte(`{"response":{"game_count":2,"games":[
					{"appid":578080,"name":"PUBG","playtime_forever":125,"rtime_last_played":1700000000},
					{"appid":10,"name":"CS","playtime_forever":0,"rtime_last_played":0}
				]}}`))
				return
			}
			if q.Get("steamid") == "76561198000000001" {
				_, _ = w.Write([]byte(`{"response":{"game_count":0}}`))
				return
			}
			_, _ = w.Write([]byte(`{"response":{}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestResolveSteamID(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient("k", srv.URL, srv.Client())
	ctx := context.Background()

	id, err := c.ResolveSteamID(ctx, "gaben")
	require.NoError(t, err)
	assert.Equal(t, "76561197960287930", id)

	id, err = c.ResolveSteamID(ctx, "https://steamcommunity.com/id/gaben/")
	require.NoError(t, err)
	assert.Equal(t, "76561197960287930", id)

	// SteamID64 はそのまま
	id, err = c.ResolveSteamID(ctx, "76561198000000000")
	require.NoError(t, err)
	assert.Equal(t, "76561198000000000", id)

	// 7656 で始まらない17桁も数字IDとして扱う
	id, err = c.ResolveSteamID(ctx, "12345678901234567")
	require.NoError(t, err)
	assert.Equal(t, "12345678901234567", id)

	_, err = c.ResolveSteamID(ctx, "nobody")
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestOwnedGames(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient("k", srv.URL, srv.Client())
	ctx := context.Background()

	lib, err := c.OwnedGames(ctx, "76561197960287930")
	require.NoError(t, err)
	assert.Equal(t, 2, lib.GameCount)

	pubg, ok := lib.Find(578080)
	require.True(t, ok)
	assert.Equal(t, 125, pubg.PlaytimeForever)
	assert.Equal(t, time.Unix(1700000000, 0), pubg.LastPlayed())

	cs, ok := lib.Find(10)
	require.True(t, ok)
	assert.True(t, cs.LastPlayed().IsZero())

	_, ok = lib.Find(1)
	assert.False(t, ok)

	_, err = c.OwnedGames(ctx, "76561198000000000")
	assert.ErrorIs(t, err, ErrPrivateProfile)
}

func TestOwnedGamesEmptyLibrary(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient("k", srv.URL, srv.Client())

	lib, err := c.OwnedGames(context.Background(), "76561198000000001")
	require.NoError(t, err)
	assert.Equal(t, 0, lib.GameCount)
	assert.Empty(t, lib.Games)
	_, ok := lib.Find(578080)
	assert.False(t, ok)
}

func TestNoAPIKey(t *testing.T) {
	c := NewClient("", "http://unused", nil)
	_, err := c.ResolveSteamID(context.Background(), "gaben")
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestFormatPlaytime(t *testing.T) {
	assert.Equal(t, "0시간 0분", FormatPlaytime(0))
	assert.Equal(t, "2시간 5분", FormatPlaytime(125))
	assert.Equal(t, "100시간 59분", FormatPlaytime(6059))
}
