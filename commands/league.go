package commands

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"nabi/interfaces"
	"nabi/storage"

	"github.com/Knetic/govaluate"
	"github.com/bwmarrin/discordgo"
)

var (
	errInvalidTeamName = errors.New("league: invalid team name")
	errInvalidScore    = errors.New("league: score must be an integer expression")
)

// maxScoreDelta は1回で加減できる点数の上限です。
const maxScoreDelta = 1_000_000

// LeagueCommand は /league (리그) の管理パネルを処理します。
type LeagueCommand struct {
	Store interfaces.DataStore
	Log   interfaces.Logger
	Now   func() time.Time

	// sleep はバンピックのカウントダウンで使います。
	sleep func(time.Duration)
}

func NewLeagueCommand(appCtx *AppContext) *LeagueCommand {
	return &LeagueCommand{
		Store: appCtx.Store,
		Log:   appCtx.Log,
		Now:   appCtx.now,
		sleep: time.Sleep,
	}
}

func (c *LeagueCommand) GetCommandDef() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:                     "league",
		NameLocalizations:        ko("리그"),
		Description:              "Open the league management panel",
		DescriptionLocalizations: ko("리그용 커맨드입니다."),
		DMPermission:             new(bool),
	}
}

func (c *LeagueCommand) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// validateTeamName はチーム名がストアのキーと CustomID の両方に使えるか確認します。
func validateTeamName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || !storage.ValidKey(name) || strings.Contains(name, ":") {
		return "", errInvalidTeamName
	}
	if len([]rune(name)) > maxTeamNameLength {
		return "", errInvalidTeamName
	}
	return name, nil
}

// parseScore は "10" や "3+2*2" のような入力を整数に評価します。
func parseScore(input string) (int, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0, errInvalidScore
	}
	expr, err := govaluate.NewEvaluableExpression(input)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errInvalidScore, err)
	}
	if len(expr.Vars()) > 0 {
		return 0, errInvalidScore
	}
	result, err := expr.Evaluate(nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errInvalidScore, err)
	}
	f, ok := result.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || math.Abs(f) > maxScoreDelta {
		return 0, errInvalidScore
	}
	return int(f), nil
}

// panelOwner はパネルを開いたユーザーのIDを返します。
func panelOwner(i *discordgo.InteractionCreate) string {
	if i.Message != nil && i.Message.Interaction != nil && i.Message.Interaction.User != nil {
		return i.Message.Interaction.User.ID
	}
	return ""
}

func guildName(s *discordgo.Session, guildID string) string {
	if g, err := s.State.Guild(guildID); err == nil && g.Name != "" {
		return g.Name
	}
	return "이 서버"
}

func (c *LeagueCommand) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{leagueMainEmbed(guildName(s, i.GuildID))},
			Components: leagueMainButtons(),
		},
	})
	if err != nil {
		c.Log.Error("リーグパネルの送信に失敗しました", "error", err)
	}
}

// authorize はパネルの持ち主以外の操作を断ります。
func (c *LeagueCommand) authorize(s *discordgo.Session, i *discordgo.InteractionCreate) bool {
	owner := panelOwner(i)
	if owner == "" || owner == interactionUser(i).ID {
		return true
	}
	sendEphemeral(s, i, "❌ 명령어를 실행한 사용자만 이 패널을 조작할 수 있습니다.")
	return false
}

func (c *LeagueCommand) loadLeague(s *discordgo.Session, i *discordgo.InteractionCreate) (*storage.League, bool) {
	league, err := c.Store.GetLeague(i.GuildID)
	if err != nil {
		c.Log.Error("リーグ情報の取得に失敗しました", "error", err, "guildID", i.GuildID)
		sendErrorResponse(s, i, "처리 중 오류가 발생했습니다. 다시 시도해주세요.")
		return nil, false
	}
	return league, true
}

func (c *LeagueCommand) HandleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !c.authorize(s, i) {
		return
	}
	data := i.MessageComponentData()
	customID := data.CustomID

	switch {
	case customID == leagueBack:
		updateMessage(s, i, leagueMainEmbed(guildName(s, i.GuildID)), leagueMainButtons())
	case customID == leagueMenuTeams:
		updateMessage(s, i, teamManagementEmbed(), teamManagementButtons())
	case customID == leagueMenuList:
		if league, ok := c.loadLeague(s, i); ok {
			updateMessage(s, i, teamListEmbed(league), []discordgo.MessageComponent{backRow(leagueBack, "🔙 메인으로")})
		}
	case customID == leagueMenuScores:
		if league, ok := c.loadLeague(s, i); ok {
			updateMessage(s, i, scoreEmbed(league), scoreButtons(len(league.Teams) > 0))
		}
	case customID == leagueMenuMove:
		c.showTeamPicker(s, i, leagueSelectMove, "🔊 팀 이동", "이동할 팀을 선택하세요.", "이동할 팀 선택",
			"이동할 팀이 없습니다. 먼저 팀을 생성해주세요.", leagueBack, "🔙 메인으로", leagueMainButtons())
	case customID == leagueMenuBanpick:
		c.showBanpickPicker(s, i)

	case customID == leagueTeamCreate:
		err := textModal(s, i, leagueModalCreate, "➕ 팀 생성", "팀 이름", "예: 팀A, 블루팀", maxTeamNameLength)
		if err != nil {
			c.Log.Error("モーダルの表示に失敗しました", "error", err)
		}
	case customID == leagueTeamDelete:
		c.showTeamPicker(s, i, leagueSelectDelete, "❌ 팀 삭제", "삭제할 팀을 선택하세요.", "삭제할 팀 선택",
			"삭제할 팀이 없습니다.", leagueMenuTeams, "🔙 팀 관리로", teamManagementButtons())
	case customID == leagueTeamReset:
		updateMessage(s, i,
			leagueNotice("🗑️ 전체 초기화", "정말로 모든 팀을 삭제하시겠습니까?\n**이 작업은 되돌릴 수 없습니다.**", ColorRed),
			[]discordgo.MessageComponent{row(
				button("✅ 확인", leagueResetConfirm, discordgo.DangerButton),
				button("❌ 취소", leagueMenuTeams, discordgo.SecondaryButton),
			)})
	case customID == leagueResetConfirm:
		if err := c.Store.ResetTeams(i.GuildID); err != nil {
			c.Log.Error("チームの初期化に失敗しました", "error", err, "guildID", i.GuildID)
			sendErrorResponse(s, i, "팀 초기화에 실패했습니다.")
			return
		}
		updateMessage(s, i, leagueNotice("✅ 초기화 완료", "모든 팀이 성공적으로 삭제되었습니다.", ColorGreen), teamManagementButtons())
	case customID == leagueSelectDelete:
		c.deleteTeam(s, i, data.Values)
	case strings.HasPrefix(customID, leagueMembers):
		c.addMembers(s, i, strings.TrimPrefix(customID, leagueMembers), data.Values)
	case strings.HasPrefix(customID, leagueVoice):
		c.setVoice(s, i, strings.TrimPrefix(customID, leagueVoice), data.Values)

	case customID == leagueScoreAdd:
		c.showTeamPicker(s, i, leagueSelectAdd, "➕ 점수 추가", "점수를 추가할 팀을 선택하세요.", "점수를 추가할 팀 선택",
			"등록된 팀이 없습니다.", leagueMenuScores, "🔙 점수 관리로", scoreButtons(false))
	case customID == leagueScoreSub:
		c.showTeamPicker(s, i, leagueSelectSub, "➖ 점수 차감", "점수를 차감할 팀을 선택하세요.", "점수를 차감할 팀 선택",
			"등록된 팀이 없습니다.", leagueMenuScores, "🔙 점수 관리로", scoreButtons(false))
	case customID == leagueSelectAdd, customID == leagueSelectSub:
		if len(data.Values) == 0 {
			return
		}
		op, title := "add", "➕ 점수 추가"
		if customID == leagueSelectSub {
			op, title = "sub", "➖ 점수 차감"
		}
		err := textModal(s, i, leagueModalScore+op+":"+data.Values[0], title, data.Values[0]+" 점수", "예: 1, 5, 3+2", 20)
		if err != nil {
			c.Log.Error("モーダルの表示に失敗しました", "error", err)
		}
	case customID == leagueSelectMove:
		c.moveTeam(s, i, data.Values)
	case customID == leagueSelectBan:
		c.startBanpick(s, i, data.Values)
	}
}

// showTeamPicker はチーム選択メニューを表示します。チームがなければ empty を表示します。
func (c *LeagueCommand) showTeamPicker(s *discordgo.Session, i *discordgo.InteractionCreate,
	selectID, title, description, placeholder, empty, backID, backLabel string, emptyButtons []discordgo.MessageComponent) {
	league, ok := c.loadLeague(s, i)
	if !ok {
		return
	}
	if len(league.Teams) == 0 {
		updateMessage(s, i, leagueNotice("⚠️ 오류", empty, ColorRed), emptyButtons)
		return
	}
	updateMessage(s, i, leagueNotice(title, description, ColorBlue), []discordgo.MessageComponent{
		teamSelect(league, selectID, placeholder, 1, 1),
		backRow(backID, backLabel),
	})
}

func (c *LeagueCommand) deleteTeam(s *discordgo.Session, i *discordgo.InteractionCreate, values []string) {
	if len(values) == 0 {
		return
	}
	team := values[0]
	if err := c.Store.DeleteTeam(i.GuildID, team); err != nil && !errors.Is(err, storage.ErrTeamNotFound) {
		c.Log.Error("チームの削除に失敗しました", "error", err, "team", team)
		sendErrorResponse(s, i, "팀 삭제에 실패했습니다.")
		return
	}
	updateMessage(s, i, leagueNotice("✅ 팀 삭제 완료", fmt.Sprintf("팀 \"%s\"이 성공적으로 삭제되었습니다.", team), ColorGreen), teamManagementButtons())
}

func (c *LeagueCommand) addMembers(s *discordgo.Session, i *discordgo.InteractionCreate, team string, userIDs []string) {
	t, err := c.Store.AddTeamMembers(i.GuildID, team, userIDs)
	if errors.Is(err, storage.ErrTeamNotFound) {
		updateMessage(s, i, leagueNotice("⚠️ 오류", fmt.Sprintf("팀 \"%s\"을 찾을 수 없습니다.", team), ColorRed), teamManagementButtons())
		return
	}
	if err != nil {
		c.Log.Error("チームメンバーの追加に失敗しました", "error", err, "team", team)
		sendErrorResponse(s, i, "팀원 추가에 실패했습니다.")
		return
	}

	mentions := make([]string, len(userIDs))
	for idx, id := range userIDs {
		mentions[idx] = "<@" + id + ">"
	}
	embed := leagueNotice("✅ 팀원 추가 완료", fmt.Sprintf("팀 \"%s\"에 %d명의 멤버가 추가되었습니다.", team, len(userIDs)), ColorGreen)
	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "추가된 멤버", Value: strings.Join(mentions, ", ")},
		{Name: "👑 팀장", Value: "<@" + t.Captain + ">"},
	}
	updateMessage(s, i, embed, teamSetupComponents(team))
}

func (c *LeagueCommand) setVoice(s *discordgo.Session, i *discordgo.InteractionCreate, team string, values []string) {
	if len(values) == 0 {
		return
	}
	if _, err := c.Store.SetTeamVoiceChannel(i.GuildID, team, values[0]); err != nil {
		if errors.Is(err, storage.ErrTeamNotFound) {
			updateMessage(s, i, leagueNotice("⚠️ 오류", fmt.Sprintf("팀 \"%s\"을 찾을 수 없습니다.", team), ColorRed), teamManagementButtons())
			return
		}
		c.Log.Error("ボイスチャンネルの設定に失敗しました", "error", err, "team", team)
		sendErrorResponse(s, i, "음성채널 설정에 실패했습니다.")
		return
	}
	embed := leagueNotice("✅ 음성채널 설정 완료", fmt.Sprintf("팀 \"%s\"의 음성채널이 설정되었습니다.", team), ColorGreen)
	embed.Fields = []*discordgo.MessageEmbedField{{Name: "설정된 채널", Value: "<#" + values[0] + ">"}}
	updateMessage(s, i, embed, teamSetupComponents(team))
}

func (c *LeagueCommand) moveTeam(s *discordgo.Session, i *discordgo.InteractionCreate, values []string) {
	if len(values) == 0 {
		return
	}
	name := values[0]
	if !hasPermission(i, discordgo.PermissionVoiceMoveMembers) {
		updateMessage(s, i, leagueNotice("⚠️ 권한 부족", "멤버 이동 권한이 필요합니다.", ColorRed), leagueMainButtons())
		return
	}
	league, ok := c.loadLeague(s, i)
	if !ok {
		return
	}
	team, ok := league.Teams[name]
	if !ok {
		updateMessage(s, i, leagueNotice("⚠️ 오류", fmt.Sprintf("팀 \"%s\"을 찾을 수 없습니다.", name), ColorRed), leagueMainButtons())
		return
	}
	if team.VoiceChannelID == "" {
		updateMessage(s, i, leagueNotice("⚠️ 오류", fmt.Sprintf("팀 \"%s\"에 음성채널이 설정되지 않았습니다.", name), ColorRed), leagueMainButtons())
		return
	}

	// 移動に時間がかかるので先に応答を保留する
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{Type: discordgo.InteractionResponseDeferredMessageUpdate})

	moved, failed := 0, 0
	for _, userID := range team.Members {
		if userVoiceChannel(s, i.GuildID, userID) == "" {
			continue
		}
		channelID := team.VoiceChannelID
		if err := s.GuildMemberMove(i.GuildID, userID, &channelID); err != nil {
			c.Log.Warn("メンバーの移動に失敗しました", "error", err, "userID", userID)
			failed++
			continue
		}
		moved++
	}

	embed := moveResultEmbed(name, team.VoiceChannelID, moved, failed)
	components := leagueMainButtons()
	if _, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Embeds:     &[]*discordgo.MessageEmbed{embed},
		Components: &components,
	}); err != nil {
		c.Log.Error("移動結果の表示に失敗しました", "error", err)
	}
}

func (c *LeagueCommand) HandleModal(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !c.authorize(s, i) {
		return
	}
	customID := i.ModalSubmitData().CustomID
	value := modalValue(i)

	switch {
	case customID == leagueModalCreate:
		c.createTeam(s, i, value)
	case strings.HasPrefix(customID, leagueModalScore):
		op, team, ok := strings.Cut(strings.TrimPrefix(customID, leagueModalScore), ":")
		if !ok {
			return
		}
		c.adjustScore(s, i, op, team, value)
	}
}

func (c *LeagueCommand) createTeam(s *discordgo.Session, i *discordgo.InteractionCreate, input string) {
	name, err := validateTeamName(input)
	if err != nil {
		updateMessage(s, i, leagueNotice("⚠️ 오류", "팀 이름에는 `/ . # $ [ ] :` 문자를 사용할 수 없습니다.", ColorRed), teamManagementButtons())
		return
	}
	err = c.Store.CreateTeam(i.GuildID, name, c.now().UnixMilli())
	if errors.Is(err, storage.ErrTeamExists) {
		updateMessage(s, i, leagueNotice("⚠️ 오류", "이미 존재하는 팀 이름입니다: "+name, ColorRed), teamManagementButtons())
		return
	}
	if err != nil {
		c.Log.Error("チームの作成に失敗しました", "error", err, "team", name)
		sendErrorResponse(s, i, "팀 생성에 실패했습니다.")
		return
	}

	embed := leagueNotice("✅ 팀 생성 완료", fmt.Sprintf("팀 \"%s\"이 성공적으로 생성되었습니다!", name), ColorGreen)
	embed.Fields = []*discordgo.MessageEmbedField{{Name: "다음 단계", Value: "팀원을 추가하고 음성채널을 설정하세요. 처음 추가된 팀원이 팀장이 됩니다."}}
	updateMessage(s, i, embed, teamSetupComponents(name))
}

func (c *LeagueCommand) adjustScore(s *discordgo.Session, i *discordgo.InteractionCreate, op, team, input string) {
	amount, err := parseScore(input)
	if err != nil {
		updateMessage(s, i, leagueNotice("⚠️ 오류", "올바른 숫자를 입력해주세요.", ColorRed), scoreButtons(true))
		return
	}
	delta, title, verb := amount, "✅ 점수 추가 완료", "에 %d점을 추가했습니다."
	if op == "sub" {
		delta, title, verb = -amount, "✅ 점수 차감 완료", "에서 %d점을 차감했습니다."
	}

	score, err := c.Store.AdjustTeamScore(i.GuildID, team, delta)
	if errors.Is(err, storage.ErrTeamNotFound) {
		updateMessage(s, i, leagueNotice("⚠️ 오류", fmt.Sprintf("팀 \"%s\"을 찾을 수 없습니다.", team), ColorRed), scoreButtons(true))
		return
	}
	if err != nil {
		c.Log.Error("スコアの更新に失敗しました", "error", err, "team", team)
		sendErrorResponse(s, i, "점수 변경에 실패했습니다.")
		return
	}

	embed := leagueNotice(title, fmt.Sprintf("팀 \"%s\""+verb, team, amount), ColorGreen)
	embed.Fields = []*discordgo.MessageEmbedField{{Name: "현재 점수", Value: fmt.Sprintf("%d점", score)}}
	updateMessage(s, i, embed, scoreButtons(true))
}

func (c *LeagueCommand) GetComponentIDs() []string { return []string{leaguePrefix} }
func (c *LeagueCommand) GetCategory() string       { return "리그" }
