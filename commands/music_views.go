package commands

import (
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"nabi/player"
	"nabi/storage"

	"github.com/bwmarrin/discordgo"
)

// 音楽プレイヤーの CustomID
const (
	musicPrefix = "music_"

	musicAdd      = "music_add"
	musicModalAdd = "music_modal_add"
	musicQueue    = "music_queue"
	musicToggle   = "music_toggle"
	musicNext     = "music_next"
	musicPrev     = "music_prev"
	musicShuffle  = "music_shuffle"
	musicClear    = "music_clear"
	musicLeave    = "music_leave"
	musicRemove   = "music_remove"

	musicRmToggle = "music_rm_toggle:"
	musicRmPage   = "music_rm_page:"
	musicRmExec   = "music_rm_exec:"
	musicRmCancel = "music_rm_cancel"

	queuePageSize = 10
	// maxRemoveSelection は CustomID の100文字制限に収まる選択数です。
	maxRemoveSelection = 15
	removedPreview     = 5
)

// formatDuration は秒を m:ss または h:mm:ss にします。
func formatDuration(seconds int) string {
	if seconds <= 0 {
		return "0:00"
	}
	h, m, s := seconds/3600, (seconds%3600)/60, seconds%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func songLine(song storage.Song) string {
	if song.Uploader == "" {
		return "**" + song.Title + "**"
	}
	return fmt.Sprintf("**%s** - %s", song.Title, song.Uploader)
}

func playerEmbed(q *storage.MusicQueue, paused bool) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:     "🎵 음악 플레이어",
		Color:     ColorSpotify,
		Timestamp: time.Now().Format(time.RFC3339),
	}
	current := q.Current()
	if current == nil {
		embed.Description = "재생 목록이 비어있습니다.\n`/노래 추가` 명령어로 노래를 추가해보세요!"
		return embed
	}

	status := "⏹️ **대기 중**"
	switch {
	case q.IsPlaying && paused:
		status = "⏸️ **일시정지**"
	case q.IsPlaying:
		status = "▶️ **현재 재생 중**"
	}
	embed.Description = status
	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "🎵 제목", Value: fmt.Sprintf("**[%s](%s)**", current.Title, current.URL)},
		{Name: "⏱️ 재생 시간", Value: formatDuration(current.Duration), Inline: true},
		{Name: "👤 추가한 사람", Value: "<@" + current.AddedBy + ">", Inline: true},
		{Name: "📋 큐 정보", Value: fmt.Sprintf("%d / %d곡", q.CurrentIndex+1, len(q.Songs)), Inline: true},
	}
	if current.Thumbnail != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: current.Thumbnail}
	}
	return embed
}

func playerButtons(q *storage.MusicQueue, paused bool) []discordgo.MessageComponent {
	hasQueue := len(q.Songs) > 0
	multiple := len(q.Songs) > 1
	playing := q.IsPlaying && !paused

	toggle := discordgo.Button{Label: "재생", Emoji: &discordgo.ComponentEmoji{Name: "▶️"}, Style: discordgo.SuccessButton, CustomID: musicToggle, Disabled: !hasQueue}
	if playing {
		toggle = discordgo.Button{Label: "일시정지", Emoji: &discordgo.ComponentEmoji{Name: "⏸️"}, Style: discordgo.SecondaryButton, CustomID: musicToggle}
	}
	return []discordgo.MessageComponent{
		row(
			discordgo.Button{Label: "이전곡", Emoji: &discordgo.ComponentEmoji{Name: "⏮️"}, Style: discordgo.SecondaryButton, CustomID: musicPrev, Disabled: !multiple},
			toggle,
			discordgo.Button{Label: "다음곡", Emoji: &discordgo.ComponentEmoji{Name: "⏭️"}, Style: discordgo.SecondaryButton, CustomID: musicNext, Disabled: !multiple},
		),
		row(
			discordgo.Button{Label: "노래 추가", Emoji: &discordgo.ComponentEmoji{Name: "➕"}, Style: discordgo.PrimaryButton, CustomID: musicAdd},
			discordgo.Button{Label: "재생목록", Emoji: &discordgo.ComponentEmoji{Name: "📋"}, Style: discordgo.SecondaryButton, CustomID: musicQueue, Disabled: !hasQueue},
			discordgo.Button{Label: "셔플", Emoji: &discordgo.ComponentEmoji{Name: "🔀"}, Style: discordgo.SecondaryButton, CustomID: musicShuffle, Disabled: !multiple},
		),
		row(
			discordgo.Button{Label: "노래 삭제", Emoji: &discordgo.ComponentEmoji{Name: "🗑️"}, Style: discordgo.DangerButton, CustomID: musicRemove, Disabled: !hasQueue},
			discordgo.Button{Label: "전체 삭제", Emoji: &discordgo.ComponentEmoji{Name: "🧹"}, Style: discordgo.DangerButton, CustomID: musicClear, Disabled: !hasQueue},
			discordgo.Button{Label: "나가기", Emoji: &discordgo.ComponentEmoji{Name: "👋"}, Style: discordgo.DangerButton, CustomID: musicLeave},
		),
	}
}

func queueEmbed(q *storage.MusicQueue, page int) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:     "📋 재생목록",
		Color:     ColorSpotify,
		Timestamp: time.Now().Format(time.RFC3339),
	}
	if len(q.Songs) == 0 {
		embed.Description = "재생목록이 비어있습니다."
		return embed
	}

	totalPages := (len(q.Songs) + queuePageSize - 1) / queuePageSize
	page = max(0, min(page, totalPages-1))
	start := page * queuePageSize
	end := min(start+queuePageSize, len(q.Songs))

	var b strings.Builder
	for idx := start; idx < end; idx++ {
		song := q.Songs[idx]
		icon, status := "📄", ""
		if idx == q.CurrentIndex {
			icon = "🎵"
			if q.IsPlaying {
				status = " **[재생 중]**"
			}
		}
		fmt.Fprintf(&b, "%s **%d.** %s (%s)%s\n", icon, idx+1, song.Title, formatDuration(song.Duration), status)
	}
	embed.Description = b.String()
	embed.Footer = &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("페이지 %d/%d | 총 %d곡", page+1, totalPages, len(q.Songs))}
	return embed
}

func songAddedEmbed(song storage.Song, position int) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       "✅ 노래가 추가되었습니다!",
		Description: "**" + song.Title + "**",
		Color:       ColorGreen,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "재생 시간", Value: formatDuration(song.Duration), Inline: true},
			{Name: "추가한 사람", Value: "<@" + song.AddedBy + ">", Inline: true},
			{Name: "재생목록 위치", Value: fmt.Sprintf("%d번째", position), Inline: true},
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
	if song.Uploader != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "채널", Value: song.Uploader, Inline: true})
	}
	if song.Thumbnail != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: song.Thumbnail}
	}
	return embed
}

func songEmbed(title string, song *storage.Song, color int) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:     title,
		Color:     color,
		Timestamp: time.Now().Format(time.RFC3339),
	}
	if song != nil {
		embed.Description = "**" + song.Title + "**"
		if song.Thumbnail != "" {
			embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: song.Thumbnail}
		}
	}
	return embed
}

// parseSelection は "0,3,7" のような選択状態を読み取ります。不正な値は無視します。
func parseSelection(csv string) []int {
	var selected []int
	for _, part := range strings.Split(csv, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 || slices.Contains(selected, n) {
			continue
		}
		selected = append(selected, n)
	}
	sort.Ints(selected)
	return selected
}

func encodeSelection(selected []int) string {
	parts := make([]string, len(selected))
	for idx, n := range selected {
		parts[idx] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

// toggleSelection は idx の選択を反転します。上限に達している場合は追加しません。
func toggleSelection(selected []int, idx int) ([]int, bool) {
	if pos := slices.Index(selected, idx); pos >= 0 {
		return slices.Delete(slices.Clone(selected), pos, pos+1), true
	}
	if len(selected) >= maxRemoveSelection {
		return selected, false
	}
	next := append(slices.Clone(selected), idx)
	sort.Ints(next)
	return next, true
}

// removePage は複数削除画面の1ページを作ります。
func removePage(q *storage.MusicQueue, page int, selected []int) (*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	page, start, end := player.PageBounds(page, len(q.Songs))
	totalPages := player.TotalPages(len(q.Songs))
	csv := encodeSelection(selected)

	embed := &discordgo.MessageEmbed{
		Title:       "🗑️ 노래 삭제",
		Description: "삭제할 노래를 선택한 뒤 **삭제 실행**을 눌러주세요.",
		Color:       ColorRed,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("페이지 %d/%d | 선택 %d곡", page+1, totalPages, len(selected)),
		},
	}

	var toggles []discordgo.MessageComponent
	for idx := start; idx < end; idx++ {
		song := q.Songs[idx]
		mark, style := "⬜", discordgo.SecondaryButton
		if slices.Contains(selected, idx) {
			mark, style = "✅", discordgo.SuccessButton
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  fmt.Sprintf("%d번", idx+1),
			Value: fmt.Sprintf("%s %s (%s)", mark, songLine(song), formatDuration(song.Duration)),
		})
		toggles = append(toggles, discordgo.Button{
			Label:    fmt.Sprintf("%d번", idx+1),
			Style:    style,
			CustomID: fmt.Sprintf("%s%d:%d:%s", musicRmToggle, page, idx, csv),
		})
	}

	components := []discordgo.MessageComponent{}
	if len(toggles) > 0 {
		components = append(components, row(toggles...))
	}
	components = append(components, row(
		discordgo.Button{Label: "◀ 이전", Style: discordgo.SecondaryButton, CustomID: fmt.Sprintf("%s%d:%s", musicRmPage, page-1, csv), Disabled: page == 0},
		discordgo.Button{Label: "다음 ▶", Style: discordgo.SecondaryButton, CustomID: fmt.Sprintf("%s%d:%s", musicRmPage, page+1, csv), Disabled: page >= totalPages-1},
		discordgo.Button{Label: fmt.Sprintf("삭제 실행 (%d)", len(selected)), Style: discordgo.DangerButton, CustomID: musicRmExec + csv, Disabled: len(selected) == 0},
		discordgo.Button{Label: "취소", Style: discordgo.SecondaryButton, CustomID: musicRmCancel},
	))
	return embed, components
}

func removeResultEmbed(removed []storage.Song, remaining int) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       "🗑️ 노래가 삭제되었습니다",
		Description: fmt.Sprintf("**%d곡**이 삭제되었습니다.\n\n남은 노래: %d곡", len(removed), remaining),
		Color:       ColorRed,
		Timestamp:   time.Now().Format(time.RFC3339),
	}
	for idx, song := range removed[:min(len(removed), removedPreview)] {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  fmt.Sprintf("삭제된 노래 %d", idx+1),
			Value: songLine(song),
		})
	}
	if len(removed) > removedPreview {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "기타",
			Value: fmt.Sprintf("외 %d곡이 더 삭제되었습니다.", len(removed)-removedPreview),
		})
	}
	return embed
}
