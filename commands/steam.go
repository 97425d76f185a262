package commands

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"nabi/config"
	"nabi/interfaces"
	"nabi/metrics"
	"nabi/steam"

	"github.com/bwmarrin/discordgo"
)

const (
	steamTimeout   = 15 * time.Second
	steamSeparator = "---------------------------------------"
	neverPlayed    = "0000-00-00"
)

// SteamCommand は /steam (스팀) を処理します。
type SteamCommand struct {
	Client   *steam.Client
	Log      interfaces.Logger
	Games    []config.TrackedGame
	Location *time.Location
}

func (c *SteamCommand) GetCommandDef() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:                     "steam",
		NameLocalizations:        ko("스팀"),
		Description:              "Show Steam game information",
		DescriptionLocalizations: ko("스팀 게임 정보"),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:                     discordgo.ApplicationCommandOptionString,
				Name:                     "steam-id",
				NameLocalizations:        koOpt("스팀아이디"),
				Description:              "Steam ID, custom URL name or profile URL",
				DescriptionLocalizations: koOpt("스팀ID를 입력하세요"),
				Required:                 true,
			},
		},
	}
}

// lastPlayedDate はゲームの最終プレイ日を返します。記録がなければ 0000-00-00 です。
func lastPlayedDate(g steam.OwnedGame, loc *time.Location) string {
	t := g.LastPlayed()
	if t.IsZero() {
		return neverPlayed
	}
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(time.DateOnly)
}

func buildSteamEmbed(input string, lib *steam.Library, games []config.TrackedGame, loc *time.Location) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "당신의 스팀정보",
		Color: ColorSteam,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "스팀아이디", Value: input},
			{Name: "보유 게임 수", Value: strconv.Itoa(lib.GameCount)},
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
	for _, tracked := range games {
		owned, _ := lib.Find(tracked.AppID)
		embed.Fields = append(embed.Fields,
			&discordgo.MessageEmbedField{Name: steamSeparator, Value: "<" + tracked.Name + ">"},
			&discordgo.MessageEmbedField{Name: "플레이 시간", Value: steam.FormatPlaytime(owned.PlaytimeForever)},
			&discordgo.MessageEmbedField{Name: "최근 플레이 날짜", Value: lastPlayedDate(owned, loc)},
		)
	}
	return embed
}

func steamErrorMessage(err error) string {
	switch {
	case errors.Is(err, steam.ErrProfileNotFound):
		return "스팀 프로필을 찾을 수 없습니다. 스팀ID를 확인해주세요."
	case errors.Is(err, steam.ErrPrivateProfile):
		return "게임 정보가 비공개로 설정되어 있습니다."
	case errors.Is(err, steam.ErrNoAPIKey):
		return "스팀 API 키가 설정되지 않았습니다."
	default:
		return "오류가 발생했습니다. 다시 시도해주세요."
	}
}

func (c *SteamCommand) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) {
	input := strings.TrimSpace(i.ApplicationCommandData().Options[0].StringValue())

	if err := deferResponse(s, i, false); err != nil {
		c.Log.Error("応答の保留に失敗しました", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), steamTimeout)
	defer cancel()

	lib, err := c.lookup(ctx, input)
	if err != nil {
		metrics.ExternalError("steam")
		c.Log.Warn("Steam情報の取得に失敗しました", "error", err, "input", input)
		// 保留した応答は公開なので、エラーは削除してフォローアップで本人にだけ見せる
		s.InteractionResponseDelete(i.Interaction)
		s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
			Content: "❌ " + steamErrorMessage(err),
			Flags:   discordgo.MessageFlagsEphemeral,
		})
		return
	}

	if err := editEmbedResponse(s, i, buildSteamEmbed(input, lib, c.Games, c.Location), nil); err != nil {
		c.Log.Error("Steam情報の送信に失敗しました", "error", err)
	}
}

func (c *SteamCommand) lookup(ctx context.Context, input string) (*steam.Library, error) {
	steamID, err := c.Client.ResolveSteamID(ctx, input)
	if err != nil {
		return nil, err
	}
	return c.Client.OwnedGames(ctx, steamID)
}

func (c *SteamCommand) HandleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {}
func (c *SteamCommand) HandleModal(s *discordgo.Session, i *discordgo.InteractionCreate)     {}
func (c *SteamCommand) GetComponentIDs() []string                                            { return []string{} }
func (c *SteamCommand) GetCategory() string                                                  { return "게임" }
