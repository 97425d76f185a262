package commands

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"nabi/storage"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScore(t *testing.T) {
	for input, want := range map[string]int{
		"10":       10,
		" 3+2*2 ":  7,
		"(1+2)*3":  9,
		"100-250":  -150,
		"1000000":  1_000_000,
		"10 / 2":   5,
	} {
		got, err := parseScore(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	for _, input := range []string{"", "abc", "1.5", "1/0", "2000000", "3+", "\"text\""} {
		_, err := parseScore(input)
		assert.ErrorIs(t, err, errInvalidScore, input)
	}
}

func TestValidateTeamName(t *testing.T) {
	name, err := validateTeamName("  레드 팀 ")
	require.NoError(t, err)
	assert.Equal(t, "레드 팀", name)

	for _, input := range []string{"", "   ", "a/b", "a.b", "a:b", "a#b", strings.Repeat("가", maxTeamNameLength+1)} {
		_, err := validateTeamName(input)
		assert.ErrorIs(t, err, errInvalidTeamName, input)
	}

	_, err = validateTeamName(strings.Repeat("가", maxTeamNameLength))
	assert.NoError(t, err)
}

func TestPanelOwner(t *testing.T) {
	i := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Message: &discordgo.Message{Interaction: &discordgo.MessageInteraction{User: &discordgo.User{ID: "owner"}}},
	}}
	assert.Equal(t, "owner", panelOwner(i))
	assert.Equal(t, "", panelOwner(&discordgo.InteractionCreate{Interaction: &discordgo.Interaction{}}))
}

func testLeague() *storage.League {
	return &storage.League{Teams: map[string]*storage.Team{
		"레드":  {Members: []string{"u1", "u2"}, Captain: "u1", Score: 10, VoiceChannelID: "vc1", CreatedAt: 1},
		"블루":  {Members: []string{"u3"}, Captain: "u3", Score: 5, CreatedAt: 2},
		"그린":  {Score: 0, CreatedAt: 3},
	}}
}

func TestTeamListEmbed(t *testing.T) {
	embed := teamListEmbed(testLeague())
	assert.Contains(t, embed.Description, "<@u1> 👑, <@u2>")
	assert.Contains(t, embed.Description, "음성채널: <#vc1>")
	assert.Contains(t, embed.Description, "멤버: 없음")
	assert.Less(t, strings.Index(embed.Description, "레드"), strings.Index(embed.Description, "블루"))

	empty := teamListEmbed(&storage.League{})
	assert.Equal(t, "등록된 팀이 없습니다.", empty.Description)
}

func TestScoreViews(t *testing.T) {
	embed := scoreEmbed(testLeague())
	require.Len(t, embed.Fields, 1)
	assert.Contains(t, embed.Fields[0].Value, "**레드**: 10점")

	assert.Len(t, scoreButtons(true)[0].(discordgo.ActionsRow).Components, 3)
	assert.Len(t, scoreButtons(false)[0].(discordgo.ActionsRow).Components, 1)
}

func TestTeamSelect(t *testing.T) {
	league := &storage.League{Teams: map[string]*storage.Team{}}
	for n := range 30 {
		league.Teams[strings.Repeat("t", n+1)] = &storage.Team{CreatedAt: int64(n)}
	}
	menu := teamSelect(league, leagueSelectBan, "선택", 2, 2).Components[0].(discordgo.SelectMenu)
	assert.Len(t, menu.Options, maxSelectOptions)
	assert.Equal(t, 2, *menu.MinValues)
	assert.Equal(t, 2, menu.MaxValues)
	assert.Equal(t, leagueSelectBan, menu.CustomID)
}

func TestCaptainTeams(t *testing.T) {
	eligible := captainTeams(testLeague())
	assert.Len(t, eligible.Teams, 2)
	assert.NotContains(t, eligible.Teams, "그린")
}

func TestMainButtonsIncludeBanpick(t *testing.T) {
	buttons := leagueMainButtons()[0].(discordgo.ActionsRow).Components
	ids := make([]string, len(buttons))
	for idx, b := range buttons {
		ids[idx] = b.(discordgo.Button).CustomID
	}
	assert.Equal(t, []string{leagueMenuTeams, leagueMenuScores, leagueMenuMove, leagueMenuList, leagueMenuBanpick}, ids)
}

func TestBanpickEmbeds(t *testing.T) {
	sess := &storage.BanpickSession{
		Teams: map[string]storage.BanpickTeam{
			"블루": {Captain: "u3"},
			"레드": {Captain: "u1"},
		},
		Banpicks: map[string]string{"레드": "겐지"},
		IsActive: true,
	}

	progress := banpickProgressEmbed(sess)
	assert.Contains(t, progress.Fields[1].Value, "(1/2)")
	assert.Equal(t, "**레드** vs **블루**", versusLine(sess))

	countdown := banpickCountdownEmbed(sess, 3)
	assert.Contains(t, countdown.Description, "3초")

	sess.Banpicks["블루"] = "트레이서"
	result := banpickResultEmbed(sess)
	require.Len(t, result.Fields, 2)
	assert.Equal(t, "레드 팀 밴픽", result.Fields[0].Name)
	assert.Equal(t, "🚫 **겐지**", result.Fields[0].Value)
	assert.Equal(t, "🚫 **트레이서**", result.Fields[1].Value)

	request := banpickRequestEmbed("나비 서버", "레드", sess)
	assert.Contains(t, request.Description, "**레드** 팀의 팀장")
}

func TestMoveResultEmbed(t *testing.T) {
	assert.Equal(t, ColorGreen, moveResultEmbed("레드", "vc", 2, 1).Color)
	assert.Equal(t, ColorRed, moveResultEmbed("레드", "vc", 0, 2).Color)
}

func directMessage(userID, content string) *discordgo.MessageCreate {
	return &discordgo.MessageCreate{Message: &discordgo.Message{
		ID:        "dm-" + userID,
		ChannelID: "dm-" + userID,
		Author:    &discordgo.User{ID: userID},
		Content:   content,
	}}
}

func TestBanpickDirectMessages(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.SaveBanpickSession("g1", &storage.BanpickSession{
		ID:        "sess",
		ChannelID: "c1",
		MessageID: "m1",
		Teams:     map[string]storage.BanpickTeam{"A": {Captain: "u1"}, "B": {Captain: "u2"}},
		IsActive:  true,
		CreatedAt: time.Now().Unix(),
	}))
	c := NewLeagueCommand(&AppContext{Log: testLogger(), Store: store})
	var countdown []time.Duration
	var mu sync.Mutex
	c.sleep = func(d time.Duration) {
		mu.Lock()
		countdown = append(countdown, d)
		mu.Unlock()
	}
	s, rec := newRecordingSession(t)

	// キャプテン以外のDMは無視する
	c.HandleDirectMessage(s, directMessage("u3", "겐지"))
	assert.Empty(t, rec.all())

	c.HandleDirectMessage(s, directMessage("u1", "겐지"))
	assert.Equal(t, 1, rec.count("밴픽으로 등록되었습니다"))
	assert.Equal(t, 1, rec.count("PATCH "))
	sess, err := store.GetBanpickSession("g1")
	require.NoError(t, err)
	assert.Equal(t, "겐지", sess.Banpicks["A"])
	assert.True(t, sess.IsActive)

	c.HandleDirectMessage(s, directMessage("u1", "트레이서"))
	assert.Equal(t, 1, rec.count("이미 밴픽을 입력하셨습니다"))
	sess, err = store.GetBanpickSession("g1")
	require.NoError(t, err)
	assert.Equal(t, "겐지", sess.Banpicks["A"])

	c.HandleDirectMessage(s, directMessage("u2", "한조"))
	require.Eventually(t, func() bool {
		_, err := store.GetBanpickSession("g1")
		return errors.Is(err, storage.ErrNotFound)
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	assert.Len(t, countdown, banpickCountdown)
	mu.Unlock()
	// 進捗2回 + カウントダウン + 結果
	assert.Equal(t, 2+banpickCountdown+1, rec.count("PATCH /api/v9/channels/c1/messages/m1"))

	// 終了後のDMには反応しない
	before := len(rec.all())
	c.HandleDirectMessage(s, directMessage("u1", "메르시"))
	assert.Len(t, rec.all(), before)
}
