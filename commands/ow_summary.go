package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"nabi/interfaces"
	"nabi/metrics"
	"nabi/overwatch"

	"github.com/bwmarrin/discordgo"
)

const overwatchTimeout = 15 * time.Second

// OverwatchCommand は /ow-summary (전적) を処理します。
type OverwatchCommand struct {
	Client *overwatch.Client
	Log    interfaces.Logger
}

func (c *OverwatchCommand) GetCommandDef() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:                     "ow-summary",
		NameLocalizations:        ko("전적"),
		Description:              "Look up an Overwatch player's summary",
		DescriptionLocalizations: ko("오버워치 플레이어의 전적을 조회합니다"),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:                     discordgo.ApplicationCommandOptionString,
				Name:                     "battletag",
				NameLocalizations:        koOpt("배틀태그"),
				Description:              "BattleTag of the player (e.g. Player#1234)",
				DescriptionLocalizations: koOpt("조회할 플레이어의 배틀태그 (예: 플레이어#1234)"),
				Required:                 true,
			},
		},
	}
}

var overwatchRoles = []struct {
	label string
	rank  func(p *overwatch.PlatformRanks) *overwatch.Rank
}{
	{"탱커", func(p *overwatch.PlatformRanks) *overwatch.Rank { return p.Tank }},
	{"딜러", func(p *overwatch.PlatformRanks) *overwatch.Rank { return p.Damage }},
	{"서포터", func(p *overwatch.PlatformRanks) *overwatch.Rank { return p.Support }},
}

func buildOverwatchEmbed(summary *overwatch.Summary, battleTag string) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("🎮 %s의 오버워치 전적", summary.Username),
		Description: fmt.Sprintf("배틀태그: **%s**", battleTag),
		Color:       ColorOverwatch,
		Footer:      &discordgo.MessageEmbedFooter{Text: "Overfast API 제공"},
		Timestamp:   time.Now().Format(time.RFC3339),
	}
	if summary.Avatar != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: summary.Avatar}
	}
	if summary.Namecard != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: summary.Namecard}
	}
	if summary.Endorsement.Level > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "👍 추천 레벨",
			Value:  fmt.Sprintf("%d레벨", summary.Endorsement.Level),
			Inline: true,
		})
	}

	if pc := summary.PC(); pc != nil {
		var lines strings.Builder
		for _, role := range overwatchRoles {
			if r := role.rank(pc); r != nil {
				lines.WriteString(fmt.Sprintf("**%s**: %s\n", role.label, overwatch.FormatRank(r, "배치 전")))
			}
		}
		if lines.Len() > 0 {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "🏆 경쟁전 티어", Value: lines.String()})
		}
		if pc.Season > 0 {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name:   "📅 시즌",
				Value:  fmt.Sprintf("시즌 %d", pc.Season),
				Inline: true,
			})
		}
	}
	return embed
}

// overwatchErrorMessage は取得エラーを利用者向けの文言に変換します。
func overwatchErrorMessage(err error) string {
	switch {
	case errors.Is(err, overwatch.ErrRateLimited):
		return "API 요청 한도가 초과되었습니다. 5초 후 다시 시도해주세요"
	case errors.Is(err, overwatch.ErrPlayerNotFound):
		return "플레이어를 찾을 수 없습니다. 배틀태그를 확인해주세요"
	case errors.Is(err, context.DeadlineExceeded):
		return "응답 시간이 초과되었습니다. 잠시 후 다시 시도해주세요"
	default:
		return "알 수 없는 오류가 발생했습니다"
	}
}

func (c *OverwatchCommand) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) {
	battleTag := strings.TrimSpace(i.ApplicationCommandData().Options[0].StringValue())
	if _, err := overwatch.PlayerID(battleTag); err != nil {
		sendErrorResponse(s, i, "올바른 배틀태그 형식을 입력해주세요.\n예시: `플레이어#1234`")
		return
	}

	if err := deferResponse(s, i, false); err != nil {
		c.Log.Error("応答の保留に失敗しました", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), overwatchTimeout)
	defer cancel()

	summary, err := c.Client.PlayerSummary(ctx, battleTag)
	if err != nil {
		metrics.ExternalError("overwatch")
		c.Log.Warn("オーバーウォッチの戦績取得に失敗しました", "error", err, "battletag", battleTag)
		errEmbed := &discordgo.MessageEmbed{
			Title:       "❌ 전적 조회 실패",
			Description: overwatchErrorMessage(err),
			Color:       ColorRed,
			Fields: []*discordgo.MessageEmbedField{{
				Name:  "💡 도움말",
				Value: "• 배틀태그가 정확한지 확인해주세요\n• 프로필이 공개로 설정되어 있는지 확인해주세요\n• 잠시 후 다시 시도해주세요",
			}},
		}
		editEmbedResponse(s, i, errEmbed, nil)
		return
	}

	if err := editEmbedResponse(s, i, buildOverwatchEmbed(summary, battleTag), nil); err != nil {
		c.Log.Error("戦績の送信に失敗しました", "error", err)
	}
}

func (c *OverwatchCommand) HandleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {}
func (c *OverwatchCommand) HandleModal(s *discordgo.Session, i *discordgo.InteractionCreate)     {}
func (c *OverwatchCommand) GetComponentIDs() []string                                            { return []string{} }
func (c *OverwatchCommand) GetCategory() string                                                  { return "게임" }
