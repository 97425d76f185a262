package commands

import (
	"fmt"
	"strings"
	"time"

	"nabi/storage"

	"github.com/bwmarrin/discordgo"
)

// リーグパネルの CustomID
const (
	leaguePrefix = "league_"

	leagueMenuTeams   = "league_menu_teams"
	leagueMenuScores  = "league_menu_scores"
	leagueMenuMove    = "league_menu_move"
	leagueMenuList    = "league_menu_list"
	leagueMenuBanpick = "league_menu_banpick"
	leagueBack        = "league_back"

	leagueTeamCreate   = "league_team_create"
	leagueModalCreate  = "league_modal_create"
	leagueTeamDelete   = "league_team_delete"
	leagueSelectDelete = "league_select_delete"
	leagueTeamReset    = "league_team_reset"
	leagueResetConfirm = "league_reset_confirm"
	leagueMembers      = "league_members:"
	leagueVoice        = "league_voice:"

	leagueScoreAdd    = "league_score_add"
	leagueScoreSub    = "league_score_sub"
	leagueSelectAdd   = "league_select_add"
	leagueSelectSub   = "league_select_sub"
	leagueModalScore  = "league_modal_score:"
	leagueSelectMove  = "league_select_move"
	leagueSelectBan   = "league_select_banpick"
	maxSelectOptions  = 25
	maxTeamNameLength = 32
)

func button(label, customID string, style discordgo.ButtonStyle) discordgo.Button {
	return discordgo.Button{Label: label, CustomID: customID, Style: style}
}

func row(buttons ...discordgo.MessageComponent) discordgo.ActionsRow {
	return discordgo.ActionsRow{Components: buttons}
}

func backRow(customID, label string) discordgo.ActionsRow {
	return row(button(label, customID, discordgo.SecondaryButton))
}

func leagueMainEmbed(guildName string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "🏆 리그 관리 시스템",
		Description: fmt.Sprintf("%s의 리그를 관리합니다.", guildName),
		Color:       ColorBlue,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "👥 팀 관리", Value: "팀 생성, 삭제, 초기화", Inline: true},
			{Name: "📊 점수 관리", Value: "점수 추가, 차감", Inline: true},
			{Name: "🔊 팀 이동", Value: "음성채널로 팀 이동", Inline: true},
			{Name: "📋 팀 목록", Value: "모든 팀 정보 확인", Inline: true},
			{Name: "⚔️ 밴픽", Value: "두 팀장에게 DM으로 밴픽 받기", Inline: true},
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

func leagueMainButtons() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		row(
			button("👥 팀 관리", leagueMenuTeams, discordgo.PrimaryButton),
			button("📊 점수 관리", leagueMenuScores, discordgo.PrimaryButton),
			button("🔊 팀 이동", leagueMenuMove, discordgo.SuccessButton),
			button("📋 팀 목록", leagueMenuList, discordgo.SecondaryButton),
			button("⚔️ 밴픽", leagueMenuBanpick, discordgo.DangerButton),
		),
	}
}

func teamManagementEmbed() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "👥 팀 관리",
		Description: "팀을 생성하거나 삭제할 수 있습니다.",
		Color:       ColorBlue,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "➕ 팀 생성", Value: "새로운 팀을 만듭니다", Inline: true},
			{Name: "❌ 팀 삭제", Value: "기존 팀을 삭제합니다", Inline: true},
			{Name: "🗑️ 전체 초기화", Value: "모든 팀을 삭제합니다", Inline: true},
		},
	}
}

func teamManagementButtons() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		row(
			button("➕ 팀 생성", leagueTeamCreate, discordgo.SuccessButton),
			button("❌ 팀 삭제", leagueTeamDelete, discordgo.DangerButton),
			button("🗑️ 전체 초기화", leagueTeamReset, discordgo.DangerButton),
			button("🔙 메인으로", leagueBack, discordgo.SecondaryButton),
		),
	}
}

// teamSetupComponents はチーム作成直後のメンバー選択とボイスチャンネル選択です。
func teamSetupComponents(team string) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				MenuType:    discordgo.UserSelectMenu,
				CustomID:    leagueMembers + team,
				Placeholder: "팀원 선택 (최대 25명)",
				MinValues:   intPtr(1),
				MaxValues:   maxSelectOptions,
			},
		}},
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				MenuType:     discordgo.ChannelSelectMenu,
				CustomID:     leagueVoice + team,
				Placeholder:  "음성채널 선택",
				ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildVoice},
			},
		}},
		backRow(leagueMenuTeams, "🔙 팀 관리로"),
	}
}

func teamListEmbed(league *storage.League) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:     "📋 팀 목록",
		Color:     ColorBlue,
		Timestamp: time.Now().Format(time.RFC3339),
	}
	if len(league.Teams) == 0 {
		embed.Description = "등록된 팀이 없습니다."
		return embed
	}

	var b strings.Builder
	for _, name := range league.TeamNames() {
		team := league.Teams[name]
		members := make([]string, len(team.Members))
		for idx, id := range team.Members {
			members[idx] = "<@" + id + ">"
			if id == team.Captain {
				members[idx] += " 👑"
			}
		}
		memberList := strings.Join(members, ", ")
		if memberList == "" {
			memberList = "없음"
		}
		voice := "설정 안됨"
		if team.VoiceChannelID != "" {
			voice = "<#" + team.VoiceChannelID + ">"
		}
		fmt.Fprintf(&b, "**%s** (점수: %d)\n멤버: %s\n음성채널: %s\n\n", name, team.Score, memberList, voice)
	}
	embed.Description = b.String()
	return embed
}

func scoreEmbed(league *storage.League) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       "📊 점수 관리",
		Description: "팀의 점수를 추가하거나 차감할 수 있습니다.",
		Color:       ColorBlue,
	}
	if len(league.Teams) == 0 {
		embed.Fields = []*discordgo.MessageEmbedField{{Name: "⚠️ 알림", Value: "등록된 팀이 없습니다. 먼저 팀을 생성해주세요."}}
		return embed
	}
	var b strings.Builder
	for _, name := range league.TeamNames() {
		fmt.Fprintf(&b, "**%s**: %d점\n", name, league.Teams[name].Score)
	}
	embed.Fields = []*discordgo.MessageEmbedField{{Name: "현재 점수", Value: b.String()}}
	return embed
}

func scoreButtons(hasTeams bool) []discordgo.MessageComponent {
	var buttons []discordgo.MessageComponent
	if hasTeams {
		buttons = append(buttons,
			button("➕ 점수 추가", leagueScoreAdd, discordgo.SuccessButton),
			button("➖ 점수 차감", leagueScoreSub, discordgo.DangerButton),
		)
	}
	buttons = append(buttons, button("🔙 메인으로", leagueBack, discordgo.SecondaryButton))
	return []discordgo.MessageComponent{row(buttons...)}
}

// teamSelect はチームを選ぶ文字列セレクトメニューを作ります。Discord の上限に合わせて25チームまでです。
func teamSelect(league *storage.League, customID, placeholder string, minValues, maxValues int) discordgo.ActionsRow {
	names := league.TeamNames()
	if len(names) > maxSelectOptions {
		names = names[:maxSelectOptions]
	}
	options := make([]discordgo.SelectMenuOption, len(names))
	for idx, name := range names {
		options[idx] = discordgo.SelectMenuOption{
			Label:       name,
			Value:       name,
			Description: fmt.Sprintf("점수: %d점", league.Teams[name].Score),
		}
	}
	return discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		discordgo.SelectMenu{
			MenuType:    discordgo.StringSelectMenu,
			CustomID:    customID,
			Placeholder: placeholder,
			MinValues:   intPtr(minValues),
			MaxValues:   maxValues,
			Options:     options,
		},
	}}
}

func leagueNotice(title, description string, color int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{Title: title, Description: description, Color: color}
}

func moveResultEmbed(team, channelID string, moved, failed int) *discordgo.MessageEmbed {
	color := ColorGreen
	if moved == 0 {
		color = ColorRed
	}
	return &discordgo.MessageEmbed{
		Title:       "🔊 팀 이동 결과",
		Description: fmt.Sprintf("팀 \"%s\" 이동 완료", team),
		Color:       color,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "이동된 멤버", Value: fmt.Sprintf("%d명", moved), Inline: true},
			{Name: "이동 실패", Value: fmt.Sprintf("%d명", failed), Inline: true},
			{Name: "대상 채널", Value: "<#" + channelID + ">", Inline: true},
		},
	}
}

func versusLine(sess *storage.BanpickSession) string {
	names := sess.TeamNames()
	bold := make([]string, len(names))
	for idx, name := range names {
		bold[idx] = "**" + name + "**"
	}
	return strings.Join(bold, " vs ")
}

func banpickProgressEmbed(sess *storage.BanpickSession) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "⚔️ 밴픽 대기 중",
		Description: "팀장들이 개인 메시지에서 밴픽을 입력하고 있습니다.",
		Color:       ColorBlue,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "대결 팀", Value: versusLine(sess)},
			{Name: "진행 상태", Value: fmt.Sprintf("📤 DM 발송 완료\n⏳ 밴픽 입력 대기 중... (%d/%d)", len(sess.Banpicks), len(sess.Teams))},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "각 팀장은 개인 메시지에서 밴픽을 입력해주세요."},
	}
}

func banpickCountdownEmbed(sess *storage.BanpickSession, remaining int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "⚔️ 밴픽 완료!",
		Description: fmt.Sprintf("밴픽이 완료되었습니다. %d초 후 결과를 표시합니다...", remaining),
		Color:       ColorOrange,
		Fields:      []*discordgo.MessageEmbedField{{Name: "대결 팀", Value: versusLine(sess)}},
	}
}

func banpickResultEmbed(sess *storage.BanpickSession) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       "🎉 밴픽 결과 발표!",
		Description: "양 팀의 밴픽이 완료되었습니다.",
		Color:       ColorGreen,
		Timestamp:   time.Now().Format(time.RFC3339),
	}
	for _, name := range sess.TeamNames() {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   name + " 팀 밴픽",
			Value:  "🚫 **" + sess.Banpicks[name] + "**",
			Inline: true,
		})
	}
	return embed
}

func banpickRequestEmbed(guildName, team string, sess *storage.BanpickSession) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "⚔️ 밴픽 요청",
		Description: fmt.Sprintf("**%s** 서버의 리그 밴픽이 시작되었습니다.\n당신은 **%s** 팀의 팀장입니다.", guildName, team),
		Color:       ColorBlue,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "대결 팀", Value: versusLine(sess)},
			{Name: "📝 입력 방법", Value: "이 DM에 밴할 항목을 메시지로 보내주세요. 한 번만 입력할 수 있습니다."},
		},
	}
}
