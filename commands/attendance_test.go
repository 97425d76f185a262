package commands

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"testing"
	"time"

	"nabi/storage"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankAttendance(t *testing.T) {
	entries := rankAttendance(map[string]storage.AttendanceRecord{
		"c": {Count: 3, LastDate: "2024-05-01"},
		"a": {Count: 5, LastDate: "2024-04-01"},
		"b": {Count: 3, LastDate: "2024-05-02"},
		"d": {Count: 3, LastDate: "2024-05-01"},
	})

	ids := make([]string, len(entries))
	for idx, e := range entries {
		ids[idx] = e.UserID
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids)
}

func TestRankMedal(t *testing.T) {
	assert.Equal(t, "🥇", rankMedal(0))
	assert.Equal(t, "🥈", rankMedal(1))
	assert.Equal(t, "🥉", rankMedal(2))
	assert.Equal(t, "⭐", rankMedal(3))
	assert.Equal(t, "⭐", rankMedal(4))
	assert.Equal(t, "6.", rankMedal(5))
}

func TestBuildRankingEmbed(t *testing.T) {
	empty := buildRankingEmbed(nil)
	assert.Equal(t, ColorGray, empty.Color)
	assert.Nil(t, empty.Footer)

	var entries []rankEntry
	for n := 12; n > 0; n-- {
		entries = append(entries, rankEntry{UserID: fmt.Sprintf("u%d", n), Count: n, LastDate: "2024-05-01"})
	}
	embed := buildRankingEmbed(entries)
	lines := strings.Split(strings.TrimSpace(embed.Description), "\n")
	assert.Len(t, lines, rankingLimit)
	assert.True(t, strings.HasPrefix(lines[0], "🥇 <@u12> - **12일**"))
	assert.True(t, strings.HasPrefix(lines[9], "10. <@u3>"))
	require.NotNil(t, embed.Footer)
	assert.Equal(t, "외 2명이 더 있습니다.", embed.Footer.Text)
}

func TestAttendanceToday(t *testing.T) {
	c := &AttendanceCommand{
		Location: time.FixedZone("KST", 9*60*60),
		Now:      func() time.Time { return time.Date(2024, 5, 1, 16, 0, 0, 0, time.UTC) },
	}
	assert.Equal(t, "2024-05-02", c.today())
}

func TestBuildAttendanceEmbed(t *testing.T) {
	user := &discordgo.User{ID: "u1"}

	done := buildAttendanceEmbed(user, storage.AttendanceRecord{Count: 4, LastDate: "2024-05-02"}, false, "2024-05-02")
	assert.Equal(t, ColorGreen, done.Color)
	assert.Equal(t, "4일", done.Fields[1].Value)

	again := buildAttendanceEmbed(user, storage.AttendanceRecord{Count: 4, LastDate: "2024-05-02"}, true, "2024-05-02")
	assert.Equal(t, ColorOrange, again.Color)
	assert.Contains(t, again.Title, "이미")
}

func TestDrawLotto(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for range 100 {
		numbers, bonus := drawLotto(r)
		require.Len(t, numbers, 6)
		assert.True(t, slices.IsSorted(numbers))
		assert.NotContains(t, numbers, bonus)
		seen := map[int]bool{}
		for _, n := range append(slices.Clone(numbers), bonus) {
			assert.GreaterOrEqual(t, n, 1)
			assert.LessOrEqual(t, n, 45)
			assert.False(t, seen[n])
			seen[n] = true
		}
	}
}

func TestLottoBall(t *testing.T) {
	assert.Equal(t, "🟡 **1**", lottoBall(1))
	assert.Equal(t, "🟡 **10**", lottoBall(10))
	assert.Equal(t, "🔵 **11**", lottoBall(11))
	assert.Equal(t, "🔴 **30**", lottoBall(30))
	assert.Equal(t, "⚫ **40**", lottoBall(40))
	assert.Equal(t, "🟢 **45**", lottoBall(45))
}

func TestBuildLottoEmbed(t *testing.T) {
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	embed := buildLottoEmbed([]int{1, 2, 3, 4, 5, 45}, 20, &discordgo.User{ID: "1", Username: "nabi"}, at)

	require.Len(t, embed.Fields, 2)
	assert.Equal(t, "🔵 **20**", embed.Fields[1].Value)
	assert.True(t, strings.HasSuffix(embed.Fields[0].Value, "🟢 **45**"))
	assert.Contains(t, embed.Footer.Text, "nabi")
	assert.Equal(t, at.Format(time.RFC3339), embed.Timestamp)
}
