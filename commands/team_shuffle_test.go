package commands

import (
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseChannelName(t *testing.T) {
	assert.Equal(t, "내전", baseChannelName("내전 대기방"))
	assert.Equal(t, "내전", baseChannelName("내전"))
	assert.Equal(t, "", baseChannelName(""))
}

func TestTeamChannels(t *testing.T) {
	channels := []*discordgo.Channel{
		{ID: "wait", Name: "내전 대기방", Type: discordgo.ChannelTypeGuildVoice, Position: 0},
		{ID: "t2", Name: "내전 2팀", Type: discordgo.ChannelTypeGuildVoice, Position: 2},
		{ID: "t1", Name: "내전 1팀", Type: discordgo.ChannelTypeGuildVoice, Position: 1},
		{ID: "text", Name: "내전 채팅", Type: discordgo.ChannelTypeGuildText, Position: 3},
		{ID: "other", Name: "잡담", Type: discordgo.ChannelTypeGuildVoice, Position: 4},
	}

	found := teamChannels(channels, "wait", "내전")
	require.Len(t, found, 2)
	assert.Equal(t, "t1", found[0].ID)
	assert.Equal(t, "t2", found[1].ID)
}

func TestSplitTeams(t *testing.T) {
	members := []shuffleMember{{ID: "1"}, {ID: "2"}, {ID: "3"}, {ID: "4"}, {ID: "5"}}

	team1, team2 := splitTeams(members, rand.New(rand.NewPCG(7, 7)))
	assert.Len(t, team1, 3)
	assert.Len(t, team2, 2)
	assert.ElementsMatch(t, members, append(team1, team2...))
	assert.Equal(t, "1", members[0].ID, "input must not be reordered")

	team1, team2 = splitTeams(nil, nil)
	assert.Empty(t, team1)
	assert.Empty(t, team2)
}

func TestMemberNames(t *testing.T) {
	assert.Equal(t, "없음", memberNames(nil))
	assert.Equal(t, "a, b", memberNames([]shuffleMember{{Name: "a"}, {Name: "b"}}))
}

func TestShuffleButtons(t *testing.T) {
	rows := shuffleButtons("abc")
	require.Len(t, rows, 1)
	buttons := rows[0].(discordgo.ActionsRow).Components
	require.Len(t, buttons, 4)
	assert.Equal(t, tsReshuffle+"abc", buttons[0].(discordgo.Button).CustomID)
	assert.Equal(t, tsMoveWaiting+"abc", buttons[3].(discordgo.Button).CustomID)
}

func TestShuffleSessionExpiry(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c := &TeamShuffleCommand{
		Now: func() time.Time { return now },
		sessions: map[string]*shuffleSession{
			"old":  {ExpiresAt: now.Add(-time.Minute)},
			"live": {ExpiresAt: now.Add(ShuffleSessionTTL)},
		},
	}

	_, ok := c.session("old")
	assert.False(t, ok)
	_, ok = c.session("live")
	assert.True(t, ok)

	c.sessions["stale"] = &shuffleSession{ExpiresAt: now.Add(-time.Second)}
	assert.Equal(t, 1, c.SweepExpired())
	assert.Len(t, c.sessions, 1)
}

func TestShuffleSessionAll(t *testing.T) {
	ss := &shuffleSession{Teams: [2][]shuffleMember{{{ID: "a"}}, {{ID: "b"}, {ID: "c"}}}}
	assert.Len(t, ss.all(), 3)
	assert.Len(t, ss.Teams[0], 1)
}

func TestMoveTargetCopiesTeams(t *testing.T) {
	c := &TeamShuffleCommand{sessions: map[string]*shuffleSession{}}
	ss := &shuffleSession{
		Waiting:  shuffleChannel{ID: "wait"},
		Channels: [2]shuffleChannel{{ID: "t1"}, {ID: "t2"}},
		Teams:    [2][]shuffleMember{{{ID: "a"}, {ID: "b"}}, {{ID: "c"}}},
	}

	members, channelID, _ := c.moveTarget(ss, tsMoveTeam1)
	assert.Equal(t, "t1", channelID)
	assert.Equal(t, []shuffleMember{{ID: "a"}, {ID: "b"}}, members)
	members[0].ID = "changed"
	assert.Equal(t, "a", ss.Teams[0][0].ID)

	members, channelID, _ = c.moveTarget(ss, tsMoveTeam2)
	assert.Equal(t, "t2", channelID)
	assert.Len(t, members, 1)

	members, channelID, done := c.moveTarget(ss, tsMoveWaiting)
	assert.Equal(t, "wait", channelID)
	assert.Len(t, members, 3)
	assert.Contains(t, done, "대기방")
}

func TestMoveTargetDuringReshuffle(t *testing.T) {
	c := &TeamShuffleCommand{sessions: map[string]*shuffleSession{}}
	members := []shuffleMember{{ID: "1"}, {ID: "2"}, {ID: "3"}, {ID: "4"}}
	ss := &shuffleSession{Channels: [2]shuffleChannel{{ID: "t1"}, {ID: "t2"}}}
	ss.Teams[0], ss.Teams[1] = splitTeams(members, nil)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for range 200 {
			c.mu.Lock()
			ss.Teams[0], ss.Teams[1] = splitTeams(members, nil)
			c.mu.Unlock()
		}
	}()
	go func() {
		defer wg.Done()
		for range 200 {
			team, _, _ := c.moveTarget(ss, tsMoveTeam1)
			assert.Len(t, team, 2)
		}
	}()
	wg.Wait()
}

// 生成器を渡さないときはゴルーチン間で共有しても安全に引ける
func TestDefaultRandConcurrentUse(t *testing.T) {
	members := []shuffleMember{{ID: "1"}, {ID: "2"}, {ID: "3"}}
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				numbers, bonus := drawLotto(nil)
				assert.Len(t, numbers, 6)
				assert.NotContains(t, numbers, bonus)
				team1, team2 := splitTeams(members, nil)
				assert.Len(t, append(team1, team2...), 3)
			}
		}()
	}
	wg.Wait()
}
