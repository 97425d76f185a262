package commands

import (
	"errors"
	"strings"
	"time"

	"nabi/storage"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
)

const (
	// BanpickMaxAge を過ぎたセッションは定期ジョブで削除されます。
	BanpickMaxAge     = 30 * time.Minute
	banpickCountdown  = 3
	maxBanpickLength  = 100
	banpickTeamsCount = 2
)

// captainTeams はキャプテンが決まっているチームのみを残します。
func captainTeams(league *storage.League) *storage.League {
	filtered := &storage.League{Teams: make(map[string]*storage.Team)}
	for name, team := range league.Teams {
		if team.Captain != "" {
			filtered.Teams[name] = team
		}
	}
	return filtered
}

func (c *LeagueCommand) showBanpickPicker(s *discordgo.Session, i *discordgo.InteractionCreate) {
	league, ok := c.loadLeague(s, i)
	if !ok {
		return
	}
	eligible := captainTeams(league)
	if len(eligible.Teams) < banpickTeamsCount {
		updateMessage(s, i, leagueNotice("⚠️ 오류", "팀장이 있는 팀이 2개 이상 필요합니다. 먼저 팀원을 추가해주세요.", ColorRed), leagueMainButtons())
		return
	}
	updateMessage(s, i, leagueNotice("⚔️ 밴픽", "밴픽을 진행할 두 팀을 선택하세요.\n선택한 팀의 팀장에게 DM이 발송됩니다.", ColorBlue),
		[]discordgo.MessageComponent{
			teamSelect(eligible, leagueSelectBan, "대결할 두 팀 선택", banpickTeamsCount, banpickTeamsCount),
			backRow(leagueBack, "🔙 메인으로"),
		})
}

func (c *LeagueCommand) startBanpick(s *discordgo.Session, i *discordgo.InteractionCreate, teamNames []string) {
	if len(teamNames) != banpickTeamsCount {
		return
	}
	if existing, err := c.Store.GetBanpickSession(i.GuildID); err == nil && existing != nil && existing.IsActive {
		updateMessage(s, i, leagueNotice("⚠️ 오류", "이미 진행 중인 밴픽이 있습니다.", ColorRed), leagueMainButtons())
		return
	}

	league, ok := c.loadLeague(s, i)
	if !ok {
		return
	}
	sess := &storage.BanpickSession{
		ID:        uuid.NewString(),
		ChannelID: i.ChannelID,
		MessageID: i.Message.ID,
		Teams:     make(map[string]storage.BanpickTeam, len(teamNames)),
		Banpicks:  map[string]string{},
		IsActive:  true,
		CreatedAt: c.now().Unix(),
	}
	for _, name := range teamNames {
		team, ok := league.Teams[name]
		if !ok || team.Captain == "" {
			updateMessage(s, i, leagueNotice("⚠️ 오류", "팀 \""+name+"\"에 팀장이 없습니다.", ColorRed), leagueMainButtons())
			return
		}
		sess.Teams[name] = storage.BanpickTeam{Captain: team.Captain}
	}
	if err := c.Store.SaveBanpickSession(i.GuildID, sess); err != nil {
		c.Log.Error("バンピックセッションの保存に失敗しました", "error", err, "guildID", i.GuildID)
		sendErrorResponse(s, i, "밴픽을 시작하지 못했습니다.")
		return
	}

	name := guildName(s, i.GuildID)
	var failed []string
	for _, team := range sess.TeamNames() {
		captain := sess.Teams[team].Captain
		if err := sendDM(s, captain, banpickRequestEmbed(name, team, sess)); err != nil {
			c.Log.Warn("キャプテンへのDM送信に失敗しました", "error", err, "userID", captain, "team", team)
			failed = append(failed, "<@"+captain+">")
		}
	}
	if len(failed) > 0 {
		c.Store.DeleteBanpickSession(i.GuildID)
		updateMessage(s, i, leagueNotice("⚠️ DM 발송 실패",
			strings.Join(failed, ", ")+"님에게 DM을 보낼 수 없습니다. 개인 메시지 설정을 확인해주세요.", ColorRed), leagueMainButtons())
		return
	}

	c.Log.Info("バンピックを開始しました", "guildID", i.GuildID, "session", sess.ID, "teams", teamNames)
	updateMessage(s, i, banpickProgressEmbed(sess), nil)
}

func sendDM(s *discordgo.Session, userID string, embed *discordgo.MessageEmbed) error {
	ch, err := s.UserChannelCreate(userID)
	if err != nil {
		return err
	}
	_, err = s.ChannelMessageSendEmbed(ch.ID, embed)
	return err
}

// HandleDirectMessage はキャプテンからのDMをバンピックとして登録します。
func (c *LeagueCommand) HandleDirectMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.GuildID != "" {
		return
	}
	pick := strings.TrimSpace(m.Content)
	if pick == "" {
		return
	}

	guildID, team, _, err := c.Store.FindActiveBanpick(m.Author.ID)
	if errors.Is(err, storage.ErrNoBanpickSession) {
		return
	}
	if err != nil {
		c.Log.Error("バンピックセッションの検索に失敗しました", "error", err, "userID", m.Author.ID)
		return
	}

	if len([]rune(pick)) > maxBanpickLength {
		s.ChannelMessageSendReply(m.ChannelID, "⚠️ 밴픽은 100자 이내로 입력해주세요.", m.Reference())
		return
	}

	sess, err := c.Store.AddBanpick(guildID, team, pick)
	switch {
	case errors.Is(err, storage.ErrBanpickSubmitted):
		s.ChannelMessageSendReply(m.ChannelID, "⚠️ 이미 밴픽을 입력하셨습니다.", m.Reference())
		return
	case errors.Is(err, storage.ErrNoBanpickSession):
		return
	case err != nil:
		c.Log.Error("バンピックの登録に失敗しました", "error", err, "guildID", guildID, "team", team)
		s.ChannelMessageSendReply(m.ChannelID, "❌ 밴픽 등록 중 오류가 발생했습니다.", m.Reference())
		return
	}

	c.Log.Info("バンピックを登録しました", "guildID", guildID, "team", team, "count", len(sess.Banpicks))
	s.ChannelMessageSendReply(m.ChannelID, "✅ \""+pick+"\"이(가) 밴픽으로 등록되었습니다!", m.Reference())

	c.editBanpickMessage(s, sess, banpickProgressEmbed(sess), nil)
	if sess.Complete() {
		go c.revealBanpick(s, guildID, sess)
	}
}

// revealBanpick はカウントダウンのあと結果を表示し、セッションを削除します。
func (c *LeagueCommand) revealBanpick(s *discordgo.Session, guildID string, sess *storage.BanpickSession) {
	sleep := c.sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	for n := banpickCountdown; n > 0; n-- {
		c.editBanpickMessage(s, sess, banpickCountdownEmbed(sess, n), nil)
		sleep(time.Second)
	}
	c.editBanpickMessage(s, sess, banpickResultEmbed(sess), []discordgo.MessageComponent{backRow(leagueBack, "🔙 메인으로")})

	if err := c.Store.DeleteBanpickSession(guildID); err != nil {
		c.Log.Error("バンピックセッションの削除に失敗しました", "error", err, "guildID", guildID)
	}
}

func (c *LeagueCommand) editBanpickMessage(s *discordgo.Session, sess *storage.BanpickSession, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) {
	if sess.ChannelID == "" || sess.MessageID == "" {
		return
	}
	if components == nil {
		components = []discordgo.MessageComponent{}
	}
	_, err := s.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    sess.ChannelID,
		ID:         sess.MessageID,
		Embeds:     &[]*discordgo.MessageEmbed{embed},
		Components: &components,
	})
	if err != nil {
		c.Log.Warn("バンピックメッセージの更新に失敗しました", "error", err, "channelID", sess.ChannelID)
	}
}

// PurgeStaleBanpicks は古いバンピックセッションを削除します。定期ジョブから呼ばれます。
func (c *LeagueCommand) PurgeStaleBanpicks() {
	n, err := c.Store.PurgeStaleBanpicks(c.now(), BanpickMaxAge)
	if err != nil {
		c.Log.Error("古いバンピックセッションの削除に失敗しました", "error", err)
		return
	}
	if n > 0 {
		c.Log.Info("古いバンピックセッションを削除しました", "count", n)
	}
}
