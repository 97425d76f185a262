package commands

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"nabi/interfaces"
	"nabi/storage"

	"github.com/bwmarrin/discordgo"
)

// rankingLimit はランキングに表示する人数です。
const rankingLimit = 10

// AttendanceCommand は /attendance (출석) を処理します。
type AttendanceCommand struct {
	Store    interfaces.DataStore
	Log      interfaces.Logger
	Location *time.Location
	Now      func() time.Time
}

func (c *AttendanceCommand) GetCommandDef() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:                     "attendance",
		NameLocalizations:        ko("출석"),
		Description:              "Check in for today",
		DescriptionLocalizations: ko("오늘의 출석을 진행합니다"),
		DMPermission:             new(bool),
	}
}

// today は設定されたタイムゾーンでの今日の日付を YYYY-MM-DD で返します。
func (c *AttendanceCommand) today() string {
	now := time.Now()
	if c.Now != nil {
		now = c.Now()
	}
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	return now.In(loc).Format(time.DateOnly)
}

func (c *AttendanceCommand) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) {
	user := interactionUser(i)
	today := c.today()

	record, already, err := c.Store.CheckIn(i.GuildID, user.ID, today)
	if err != nil {
		c.Log.Error("出席の記録に失敗しました", "error", err, "guildID", i.GuildID, "userID", user.ID)
		sendErrorResponse(s, i, "출석 처리 중 오류가 발생했습니다. 잠시 후 다시 시도해주세요.")
		return
	}

	sendEmbedResponse(s, i, buildAttendanceEmbed(user, record, already, today))
}

func buildAttendanceEmbed(user *discordgo.User, record storage.AttendanceRecord, already bool, today string) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Thumbnail: &discordgo.MessageEmbedThumbnail{URL: user.AvatarURL("")},
		Timestamp: time.Now().Format(time.RFC3339),
	}
	if already {
		embed.Title = "⚠️ 이미 출석 완료했습니다!"
		embed.Description = fmt.Sprintf("**<@%s>**님은 오늘 이미 출석하셨습니다.", user.ID)
		embed.Color = ColorOrange
		embed.Fields = []*discordgo.MessageEmbedField{
			{Name: "📅 마지막 출석일", Value: today, Inline: true},
			{Name: "🎯 총 출석 횟수", Value: fmt.Sprintf("%d일", record.Count), Inline: true},
		}
		return embed
	}

	embed.Title = "✅ 출석 완료!"
	embed.Description = fmt.Sprintf("**<@%s>**님의 출석이 완료되었습니다!", user.ID)
	embed.Color = ColorGreen
	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "📅 출석일", Value: today, Inline: true},
		{Name: "🎯 총 출석 횟수", Value: fmt.Sprintf("%d일", record.Count), Inline: true},
		{Name: "🎉 보상", Value: "출석 완료!", Inline: true},
	}
	return embed
}

func (c *AttendanceCommand) HandleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {}
func (c *AttendanceCommand) HandleModal(s *discordgo.Session, i *discordgo.InteractionCreate)     {}
func (c *AttendanceCommand) GetComponentIDs() []string                                            { return []string{} }
func (c *AttendanceCommand) GetCategory() string                                                  { return "출석" }

// AttendanceRankCommand は /attendance-rank (출석랭크) を処理します。
type AttendanceRankCommand struct {
	Store interfaces.DataStore
	Log   interfaces.Logger
}

func (c *AttendanceRankCommand) GetCommandDef() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:                     "attendance-rank",
		NameLocalizations:        ko("출석랭크"),
		Description:              "Show the attendance ranking of this server",
		DescriptionLocalizations: ko("서버의 출석 랭킹을 확인합니다"),
		DMPermission:             new(bool),
	}
}

// rankEntry はランキングの1行です。
type rankEntry struct {
	UserID   string
	Count    int
	LastDate string
}

// rankAttendance は出席回数の多い順に並べます。
// 同数の場合は最後に出席した日が新しい方、さらに同じならユーザーID順です。
func rankAttendance(records map[string]storage.AttendanceRecord) []rankEntry {
	entries := make([]rankEntry, 0, len(records))
	for userID, rec := range records {
		entries = append(entries, rankEntry{UserID: userID, Count: rec.Count, LastDate: rec.LastDate})
	}
	sort.Slice(entries, func(a, b int) bool {
		if entries[a].Count != entries[b].Count {
			return entries[a].Count > entries[b].Count
		}
		if entries[a].LastDate != entries[b].LastDate {
			return entries[a].LastDate > entries[b].LastDate
		}
		return entries[a].UserID < entries[b].UserID
	})
	return entries
}

// rankMedal は0始まりの順位に対応する記号を返します。
func rankMedal(idx int) string {
	switch idx {
	case 0:
		return "🥇"
	case 1:
		return "🥈"
	case 2:
		return "🥉"
	case 3, 4:
		return "⭐"
	default:
		return fmt.Sprintf("%d.", idx+1)
	}
}

func buildRankingEmbed(entries []rankEntry) *discordgo.MessageEmbed {
	if len(entries) == 0 {
		return &discordgo.MessageEmbed{
			Title:       "📊 출석 랭킹",
			Description: "아직 출석한 사용자가 없습니다.\n`/출석` 명령어로 첫 출석을 해보세요!",
			Color:       ColorGray,
		}
	}

	var description strings.Builder
	for idx, entry := range entries[:min(len(entries), rankingLimit)] {
		description.WriteString(fmt.Sprintf("%s <@%s> - **%d일**", rankMedal(idx), entry.UserID, entry.Count))
		if entry.LastDate != "" {
			description.WriteString(fmt.Sprintf(" (마지막: %s)", entry.LastDate))
		}
		description.WriteString("\n")
	}

	embed := &discordgo.MessageEmbed{
		Title:       "🏆 출석 랭킹",
		Description: description.String(),
		Color:       ColorSpotify,
	}
	if len(entries) > rankingLimit {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("외 %d명이 더 있습니다.", len(entries)-rankingLimit)}
	}
	return embed
}

func (c *AttendanceRankCommand) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) {
	records, err := c.Store.GetGuildAttendance(i.GuildID)
	if err != nil {
		c.Log.Error("出席ランキングの取得に失敗しました", "error", err, "guildID", i.GuildID)
		sendErrorResponse(s, i, "출석 랭킹 조회 중 오류가 발생했습니다. 잠시 후 다시 시도해주세요.")
		return
	}

	embed := buildRankingEmbed(rankAttendance(records))
	embed.Timestamp = time.Now().Format(time.RFC3339)
	sendEmbedResponse(s, i, embed)
}

func (c *AttendanceRankCommand) HandleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {}
func (c *AttendanceRankCommand) HandleModal(s *discordgo.Session, i *discordgo.InteractionCreate)     {}
func (c *AttendanceRankCommand) GetComponentIDs() []string                                            { return []string{} }
func (c *AttendanceRankCommand) GetCategory() string                                                  { return "출석" }
