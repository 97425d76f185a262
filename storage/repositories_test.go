package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckIn(t *testing.T) {
	store := newTestStore(t)

	rec, already, err := store.CheckIn("g1", "u1", "2024-05-01")
	require.NoError(t, err)
	assert.False(t, already)
	assert.Equal(t, AttendanceRecord{Count: 1, LastDate: "2024-05-01"}, rec)

	rec, already, err = store.CheckIn("g1", "u1", "2024-05-01")
	require.NoError(t, err)
	assert.True(t, already)
	assert.Equal(t, 1, rec.Count)

	rec, already, err = store.CheckIn("g1", "u1", "2024-05-02")
	require.NoError(t, err)
	assert.False(t, already)
	assert.Equal(t, 2, rec.Count)

	_, _, err = store.CheckIn("g1", "u2", "2024-05-02")
	require.NoError(t, err)
	_, _, err = store.CheckIn("g2", "u3", "2024-05-02")
	require.NoError(t, err)

	all, err := store.GetGuildAttendance("g1")
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, 2, all["u1"].Count)

	empty, err := store.GetGuildAttendance("none")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestLeagueTeams(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.CreateTeam("g", "레드", 2))
	require.NoError(t, store.CreateTeam("g", "블루", 1))
	assert.ErrorIs(t, store.CreateTeam("g", "레드", 3), ErrTeamExists)
	assert.ErrorIs(t, store.CreateTeam("g", "a/b", 3), ErrInvalidPath)

	league, err := store.GetLeague("g")
	require.NoError(t, err)
	assert.Equal(t, []string{"블루", "레드"}, league.TeamNames())

	team, err := store.AddTeamMembers("g", "레드", []string{"u1", "u2"})
	require.NoError(t, err)
	assert.Equal(t, "u1", team.Captain)

	team, err = store.AddTeamMembers("g", "레드", []string{"u2", "u3"})
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2", "u3"}, team.Members)
	assert.Equal(t, "u1", team.Captain)

	_, err = store.SetTeamVoiceChannel("g", "레드", "vc1")
	require.NoError(t, err)

	score, err := store.AdjustTeamScore("g", "레드", 5)
	require.NoError(t, err)
	assert.Equal(t, 5, score)
	score, err = store.AdjustTeamScore("g", "레드", -7)
	require.NoError(t, err)
	assert.Equal(t, -2, score)

	_, err = store.AdjustTeamScore("g", "없음", 1)
	assert.ErrorIs(t, err, ErrTeamNotFound)

	league, err = store.GetLeague("g")
	require.NoError(t, err)
	assert.Equal(t, "vc1", league.Teams["레드"].VoiceChannelID)
	assert.Equal(t, -2, league.Teams["레드"].Score)

	require.NoError(t, store.DeleteTeam("g", "블루"))
	assert.ErrorIs(t, store.DeleteTeam("g", "블루"), ErrTeamNotFound)

	require.NoError(t, store.ResetTeams("g"))
	league, err = store.GetLeague("g")
	require.NoError(t, err)
	assert.Empty(t, league.Teams)
}

func newBanpick(created time.Time) *BanpickSession {
	return &BanpickSession{
		ID:        "s1",
		ChannelID: "c1",
		MessageID: "m1",
		Teams: map[string]BanpickTeam{
			"A": {Captain: "capA"},
			"B": {Captain: "capB"},
		},
		IsActive:  true,
		CreatedAt: created.Unix(),
	}
}

func TestBanpickFlow(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.SaveBanpickSession("g", newBanpick(time.Now())))

	guildID, team, sess, err := store.FindActiveBanpick("capB")
	require.NoError(t, err)
	assert.Equal(t, "g", guildID)
	assert.Equal(t, "B", team)
	assert.Equal(t, "s1", sess.ID)

	_, _, _, err = store.FindActiveBanpick("stranger")
	assert.ErrorIs(t, err, ErrNoBanpickSession)

	sess, err = store.AddBanpick("g", "A", "겐지 밴")
	require.NoError(t, err)
	assert.True(t, sess.IsActive)
	assert.False(t, sess.Complete())

	_, err = store.AddBanpick("g", "A", "again")
	assert.ErrorIs(t, err, ErrBanpickSubmitted)

	_, err = store.AddBanpick("g", "C", "x")
	assert.ErrorIs(t, err, ErrBanpickUnknownTeam)

	sess, err = store.AddBanpick("g", "B", "트레이서 밴")
	require.NoError(t, err)
	assert.True(t, sess.Complete())
	assert.False(t, sess.IsActive)
	assert.Equal(t, "겐지 밴", sess.Banpicks["A"])

	// 完了したセッションには提出できない
	_, err = store.AddBanpick("g", "B", "late")
	assert.ErrorIs(t, err, ErrNoBanpickSession)
	_, _, _, err = store.FindActiveBanpick("capA")
	assert.ErrorIs(t, err, ErrNoBanpickSession)

	require.NoError(t, store.DeleteBanpickSession("g"))
	_, err = store.GetBanpickSession("g")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPurgeStaleBanpicks(t *testing.T) {
	store := newTestStore(t)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveBanpickSession("old", newBanpick(now.Add(-time.Hour))))
	require.NoError(t, store.SaveBanpickSession("new", newBanpick(now.Add(-time.Minute))))

	n, err := store.PurgeStaleBanpicks(now, 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = store.GetBanpickSession("old")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.GetBanpickSession("new")
	assert.NoError(t, err)
}

func TestMusicQueueStore(t *testing.T) {
	store := newTestStore(t)

	q, err := store.GetMusicQueue("g")
	require.NoError(t, err)
	assert.Empty(t, q.Songs)

	q.Songs = []Song{
		{ID: "1", Title: "a", URL: "https://a"},
		{ID: "2", Title: "broken"},
		{ID: "3", Title: "c", URL: "https://c", AddedAt: 1712345678901},
	}
	q.CurrentIndex = 5
	q.IsPlaying = true
	require.NoError(t, store.SaveMusicQueue("g", q))

	got, err := store.GetMusicQueue("g")
	require.NoError(t, err)
	require.Len(t, got.Songs, 2)
	assert.Equal(t, 1, got.CurrentIndex)
	assert.Equal(t, "c", got.Current().Title)
	assert.Equal(t, int64(1712345678901), got.Songs[1].AddedAt)
	assert.True(t, got.IsPlaying)

	require.NoError(t, store.SetMusicPlaying("g", false))
	got, err = store.GetMusicQueue("g")
	require.NoError(t, err)
	assert.False(t, got.IsPlaying)
	assert.Len(t, got.Songs, 2)
}

func TestMusicQueueNormalize(t *testing.T) {
	q := &MusicQueue{CurrentIndex: -3, IsPlaying: true}
	q.Normalize()
	assert.Equal(t, 0, q.CurrentIndex)
	assert.False(t, q.IsPlaying)
	assert.Nil(t, q.Current())
}
