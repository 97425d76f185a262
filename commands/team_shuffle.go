package commands

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"nabi/interfaces"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
)

const (
	teamShufflePrefix = "ts_"
	tsReshuffle       = "ts_reshuffle:"
	tsMoveTeam1       = "ts_move1:"
	tsMoveTeam2       = "ts_move2:"
	tsMoveWaiting     = "ts_waiting:"

	// ShuffleSessionTTL はボタンが有効な時間です。
	ShuffleSessionTTL = 10 * time.Minute
)

type shuffleMember struct {
	ID   string
	Name string
}

type shuffleChannel struct {
	ID   string
	Name string
}

// shuffleSession は1回の /team-shuffle の結果です。
type shuffleSession struct {
	GuildID   string
	Waiting   shuffleChannel
	Channels  [2]shuffleChannel
	Teams     [2][]shuffleMember
	ExpiresAt time.Time
}

// all は両チームのメンバーをまとめて返します。
func (ss *shuffleSession) all() []shuffleMember {
	return append(slices.Clone(ss.Teams[0]), ss.Teams[1]...)
}

// TeamShuffleCommand は /team-shuffle (팀섞) を処理します。
type TeamShuffleCommand struct {
	Log  interfaces.Logger
	Rand *rand.Rand
	Now  func() time.Time

	sessions map[string]*shuffleSession
	mu       sync.Mutex
}

func NewTeamShuffleCommand(appCtx *AppContext) *TeamShuffleCommand {
	return &TeamShuffleCommand{
		Log:      appCtx.Log,
		Rand:     appCtx.Rand,
		Now:      appCtx.now,
		sessions: make(map[string]*shuffleSession),
	}
}

func (c *TeamShuffleCommand) GetCommandDef() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:                     "team-shuffle",
		NameLocalizations:        ko("팀섞"),
		Description:              "Split your voice channel into two random teams",
		DescriptionLocalizations: ko("팀을 섞고 임베디드 메시지를 표시합니다."),
		DefaultMemberPermissions: int64Ptr(discordgo.PermissionAdministrator),
		DMPermission:             new(bool),
	}
}

func (c *TeamShuffleCommand) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// baseChannelName はチャンネル名の最初の単語を返します。
func baseChannelName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return name
	}
	return fields[0]
}

// teamChannels は待機室以外で名前に base を含むボイスチャンネルを、並び順どおりに返します。
func teamChannels(channels []*discordgo.Channel, waitingID, base string) []*discordgo.Channel {
	var found []*discordgo.Channel
	for _, ch := range channels {
		if ch.Type != discordgo.ChannelTypeGuildVoice || ch.ID == waitingID {
			continue
		}
		if strings.Contains(ch.Name, base) {
			found = append(found, ch)
		}
	}
	slices.SortStableFunc(found, func(a, b *discordgo.Channel) int { return a.Position - b.Position })
	return found
}

// splitTeams はメンバーを混ぜ、前半 ceil(n/2) 人をチーム1にします。
func splitTeams(members []shuffleMember, r *rand.Rand) (team1, team2 []shuffleMember) {
	shuffled := slices.Clone(members)
	shuffle := rand.Shuffle
	if r != nil {
		shuffle = r.Shuffle
	}
	shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

	half := (len(shuffled) + 1) / 2
	return shuffled[:half], shuffled[half:]
}

func memberNames(members []shuffleMember) string {
	if len(members) == 0 {
		return "없음"
	}
	names := make([]string, len(members))
	for idx, m := range members {
		names[idx] = m.Name
	}
	return strings.Join(names, ", ")
}

func buildShuffleEmbed(ss *shuffleSession) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: fmt.Sprintf("팀 섞기 결과(대기방: %s)", ss.Waiting.Name),
		Color: ColorBlue,
		Fields: []*discordgo.MessageEmbedField{
			{Name: fmt.Sprintf("팀1(%s)", ss.Channels[0].Name), Value: memberNames(ss.Teams[0])},
			{Name: fmt.Sprintf("팀2(%s)", ss.Channels[1].Name), Value: memberNames(ss.Teams[1])},
		},
		Footer:    &discordgo.MessageEmbedFooter{Text: "버튼은 10분 동안 사용할 수 있습니다."},
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

func shuffleButtons(id string) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{Label: "다시섞기", Style: discordgo.PrimaryButton, CustomID: tsReshuffle + id},
				discordgo.Button{Label: "팀1 이동", Style: discordgo.SuccessButton, CustomID: tsMoveTeam1 + id},
				discordgo.Button{Label: "팀2 이동", Style: discordgo.SuccessButton, CustomID: tsMoveTeam2 + id},
				discordgo.Button{Label: "대기방 이동", Style: discordgo.DangerButton, CustomID: tsMoveWaiting + id},
			},
		},
	}
}

// collectMembers は待機室にいるボット以外のメンバーを集めます。
func collectMembers(s *discordgo.Session, guildID, channelID string) []shuffleMember {
	var members []shuffleMember
	for _, userID := range voiceMemberIDs(s, guildID, channelID) {
		m := lookupMember(s, guildID, userID)
		if m != nil && m.User != nil && m.User.Bot {
			continue
		}
		members = append(members, shuffleMember{ID: userID, Name: memberDisplayName(m)})
	}
	return members
}

func (c *TeamShuffleCommand) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) {
	user := interactionUser(i)
	name := memberDisplayName(i.Member)

	if !hasPermission(i, discordgo.PermissionAdministrator) {
		sendErrorResponse(s, i, fmt.Sprintf("%s님, 관리자 권한이 없습니다.", name))
		return
	}
	waitingID := userVoiceChannel(s, i.GuildID, user.ID)
	if waitingID == "" {
		sendErrorResponse(s, i, fmt.Sprintf("%s님, 먼저 음성채널에 들어가주세요.", name))
		return
	}

	channels, err := guildChannels(s, i.GuildID)
	if err != nil {
		c.Log.Error("チャンネル一覧の取得に失敗しました", "error", err, "guildID", i.GuildID)
		sendErrorResponse(s, i, "채널 정보를 가져오지 못했습니다.")
		return
	}
	var waiting *discordgo.Channel
	for _, ch := range channels {
		if ch.ID == waitingID {
			waiting = ch
			break
		}
	}
	if waiting == nil {
		sendErrorResponse(s, i, "음성 채널을 찾을 수 없습니다.")
		return
	}

	candidates := teamChannels(channels, waiting.ID, baseChannelName(waiting.Name))
	if len(candidates) < 2 {
		sendErrorResponse(s, i, "팀을 섞을 수 있는 채널이 충분하지 않습니다.")
		return
	}

	ss := &shuffleSession{
		GuildID: i.GuildID,
		Waiting: shuffleChannel{ID: waiting.ID, Name: waiting.Name},
		Channels: [2]shuffleChannel{
			{ID: candidates[0].ID, Name: candidates[0].Name},
			{ID: candidates[1].ID, Name: candidates[1].Name},
		},
		ExpiresAt: c.now().Add(ShuffleSessionTTL),
	}
	ss.Teams[0], ss.Teams[1] = splitTeams(collectMembers(s, i.GuildID, waiting.ID), c.Rand)

	id := uuid.NewString()
	c.mu.Lock()
	c.sessions[id] = ss
	c.mu.Unlock()

	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{buildShuffleEmbed(ss)},
			Components: shuffleButtons(id),
		},
	})
	if err != nil {
		c.Log.Error("チーム分け結果の送信に失敗しました", "error", err)
	}
}

// session は期限内のセッションを返します。
func (c *TeamShuffleCommand) session(id string) (*shuffleSession, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ss, ok := c.sessions[id]
	if !ok {
		return nil, false
	}
	if c.now().After(ss.ExpiresAt) {
		delete(c.sessions, id)
		return nil, false
	}
	return ss, true
}

// SweepExpired は期限切れのセッションを削除し、削除した数を返します。
func (c *TeamShuffleCommand) SweepExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	removed := 0
	for id, ss := range c.sessions {
		if now.After(ss.ExpiresAt) {
			delete(c.sessions, id)
			removed++
		}
	}
	return removed
}

func (c *TeamShuffleCommand) HandleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	customID := i.MessageComponentData().CustomID
	action, id, ok := strings.Cut(customID, ":")
	if !ok {
		return
	}
	action += ":"

	if !hasPermission(i, discordgo.PermissionAdministrator) {
		sendEphemeral(s, i, "관리자 권한이 없습니다.")
		return
	}
	ss, ok := c.session(id)
	if !ok {
		sendEphemeral(s, i, "⏰ 만료된 팀 섞기입니다. `/팀섞`을 다시 실행해주세요.")
		return
	}

	switch action {
	case tsReshuffle:
		members := collectMembers(s, ss.GuildID, ss.Waiting.ID)
		c.mu.Lock()
		if len(members) == 0 {
			members = ss.all()
		}
		ss.Teams[0], ss.Teams[1] = splitTeams(members, c.Rand)
		ss.ExpiresAt = c.now().Add(ShuffleSessionTTL)
		embed := buildShuffleEmbed(ss)
		c.mu.Unlock()

		s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseUpdateMessage,
			Data: &discordgo.InteractionResponseData{
				Content:    "팀을 다시 섞었습니다.",
				Embeds:     []*discordgo.MessageEmbed{embed},
				Components: shuffleButtons(id),
			},
		})
	case tsMoveTeam1, tsMoveTeam2, tsMoveWaiting:
		members, channelID, done := c.moveTarget(ss, action)
		c.move(s, i, ss.GuildID, members, channelID, done)
	}
}

// moveTarget は移動対象のメンバーを c.mu の下でコピーして返します。
func (c *TeamShuffleCommand) moveTarget(ss *shuffleSession, action string) ([]shuffleMember, string, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch action {
	case tsMoveTeam1:
		return slices.Clone(ss.Teams[0]), ss.Channels[0].ID, "팀1이 이동되었습니다."
	case tsMoveTeam2:
		return slices.Clone(ss.Teams[1]), ss.Channels[1].ID, "팀2가 이동되었습니다."
	default:
		return ss.all(), ss.Waiting.ID, "모든 사용자가 대기방으로 이동되었습니다."
	}
}

// move はメンバーをボイスチャンネルに移動させ、結果をフォローアップで知らせます。
func (c *TeamShuffleCommand) move(s *discordgo.Session, i *discordgo.InteractionCreate, guildID string, members []shuffleMember, channelID, done string) {
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})

	failed := 0
	for _, m := range members {
		if err := s.GuildMemberMove(guildID, m.ID, &channelID); err != nil {
			c.Log.Warn("メンバーの移動に失敗しました", "error", err, "userID", m.ID, "channelID", channelID)
			failed++
		}
	}
	if failed > 0 {
		done += fmt.Sprintf(" (실패 %d명)", failed)
	}
	s.FollowupMessageCreate(i.Interaction, false, &discordgo.WebhookParams{Content: done})
}

func (c *TeamShuffleCommand) HandleModal(s *discordgo.Session, i *discordgo.InteractionCreate) {}
func (c *TeamShuffleCommand) GetComponentIDs() []string                                            { return []string{teamShufflePrefix} }
func (c *TeamShuffleCommand) GetCategory() string                                                  { return "음성" }
