package commands

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"

	"nabi/interfaces"
	"nabi/metrics"
	"nabi/player"
	"nabi/storage"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
)

const maxQueryLength = 200

var errNotInVoice = errors.New("음성 채널에 먼저 입장해주세요!")

// MusicCommand は /music (노래) とプレイヤーパネルのボタンを処理します。
type MusicCommand struct {
	Store  interfaces.DataStore
	Log    interfaces.Logger
	Player interfaces.MusicPlayer
	Rand   *rand.Rand
	Now    func() time.Time

	IdleTimeout time.Duration
	MaxRetries  int
	RetryDelay  time.Duration

	after  func(d time.Duration, f func())
	guilds map[string]*guildMusic
	mu     sync.Mutex
}

func NewMusicCommand(appCtx *AppContext) *MusicCommand {
	c := &MusicCommand{
		Store:       appCtx.Store,
		Log:         appCtx.Log,
		Player:      appCtx.Player,
		Rand:        appCtx.Rand,
		Now:         appCtx.now,
		IdleTimeout: 3 * time.Minute,
		MaxRetries:  2,
		RetryDelay:  2 * time.Second,
		guilds:      make(map[string]*guildMusic),
	}
	if cfg := appCtx.Config; cfg != nil {
		c.IdleTimeout = cfg.Music.IdleTimeout
		c.MaxRetries = cfg.Music.MaxRetries
		c.RetryDelay = cfg.Music.RetryDelay
	}
	return c
}

func (c *MusicCommand) GetCommandDef() *discordgo.ApplicationCommand {
	sub := func(name, koName, desc, koDesc string, opts ...*discordgo.ApplicationCommandOption) *discordgo.ApplicationCommandOption {
		return &discordgo.ApplicationCommandOption{
			Type:                     discordgo.ApplicationCommandOptionSubCommand,
			Name:                     name,
			NameLocalizations:        koOpt(koName),
			Description:              desc,
			DescriptionLocalizations: koOpt(koDesc),
			Options:                  opts,
		}
	}
	return &discordgo.ApplicationCommand{
		Name:                     "music",
		NameLocalizations:        ko("노래"),
		Description:              "Music player",
		DescriptionLocalizations: ko("음악을 재생합니다."),
		DMPermission:             new(bool),
		Options: []*discordgo.ApplicationCommandOption{
			sub("player", "플레이어", "Show the music player", "음악 플레이어를 표시합니다."),
			sub("add", "추가", "Add a song to the queue", "재생목록에 노래를 추가합니다.", &discordgo.ApplicationCommandOption{
				Type:                     discordgo.ApplicationCommandOptionString,
				Name:                     "query",
				NameLocalizations:        koOpt("노래"),
				Description:              "YouTube URL or search keywords",
				DescriptionLocalizations: koOpt("유튜브 링크 또는 검색어"),
				Required:                 true,
				MaxLength:                maxQueryLength,
			}),
			sub("play", "재생", "Start or resume playback", "재생을 시작합니다."),
			sub("pause", "일시정지", "Pause playback", "재생을 일시정지합니다."),
			sub("stop", "정지", "Stop playback and clear the queue", "재생을 중지하고 재생목록을 비웁니다."),
			sub("skip", "스킵", "Skip the current song", "현재 노래를 건너뜁니다."),
			sub("queue", "목록", "Show the queue", "재생목록을 표시합니다.", &discordgo.ApplicationCommandOption{
				Type:                     discordgo.ApplicationCommandOptionInteger,
				Name:                     "page",
				NameLocalizations:        koOpt("페이지"),
				Description:              "Page number",
				DescriptionLocalizations: koOpt("페이지 번호"),
				MinValue:                 floatPtr(1),
			}),
			sub("remove", "삭제", "Remove songs from the queue", "재생목록에서 노래를 삭제합니다.", &discordgo.ApplicationCommandOption{
				Type:                     discordgo.ApplicationCommandOptionInteger,
				Name:                     "number",
				NameLocalizations:        koOpt("번호"),
				Description:              "Position in the queue",
				DescriptionLocalizations: koOpt("삭제할 노래 번호"),
				MinValue:                 floatPtr(1),
			}),
			sub("next", "다음곡", "Play the next song", "다음 노래를 재생합니다."),
			sub("previous", "이전곡", "Play the previous song", "이전 노래를 재생합니다."),
			sub("leave", "나가기", "Leave the voice channel", "음성 채널에서 나갑니다."),
		},
	}
}

func floatPtr(f float64) *float64 {
	return &f
}

func (c *MusicCommand) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *MusicCommand) loadQueue(s *discordgo.Session, i *discordgo.InteractionCreate) (*storage.MusicQueue, bool) {
	q, err := c.Store.GetMusicQueue(i.GuildID)
	if err != nil {
		c.Log.Error("再生キューの取得に失敗しました", "error", err, "guildID", i.GuildID)
		sendErrorResponse(s, i, "재생목록을 불러오지 못했습니다.")
		return nil, false
	}
	return q, true
}

// joinCaller は実行したユーザーのボイスチャンネルに接続します。
func (c *MusicCommand) joinCaller(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	user := interactionUser(i)
	channelID := userVoiceChannel(s, i.GuildID, user.ID)
	if channelID == "" {
		return errNotInVoice
	}
	c.stopIdleTimer(i.GuildID)
	return c.Player.JoinVC(i.GuildID, channelID)
}

func (c *MusicCommand) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) {
	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		return
	}
	sub := options[0]
	opts := optionMap(sub.Options)

	switch sub.Name {
	case "player":
		c.showPlayer(s, i)
	case "add":
		query := ""
		if opt, ok := opts["query"]; ok {
			query = opt.StringValue()
		}
		c.addSong(s, i, query)
	case "play":
		c.respond(s, i, c.play)
	case "pause":
		c.respond(s, i, c.pause)
	case "stop":
		c.respond(s, i, c.stop)
	case "skip":
		c.respond(s, i, c.skip)
	case "next":
		c.respond(s, i, c.skip)
	case "previous":
		c.respond(s, i, c.previous)
	case "leave":
		c.respond(s, i, c.leaveVoice)
	case "queue":
		page := 0
		if opt, ok := opts["page"]; ok {
			page = int(opt.IntValue()) - 1
		}
		c.showQueue(s, i, page)
	case "remove":
		if opt, ok := opts["number"]; ok {
			c.removeOne(s, i, int(opt.IntValue())-1)
			return
		}
		c.showRemove(s, i)
	}
}

// musicAction はキューを操作して結果の embed を返します。
// 失敗した場合は利用者向けのメッセージを error で返します。
type musicAction func(s *discordgo.Session, i *discordgo.InteractionCreate) (*discordgo.MessageEmbed, error)

func (c *MusicCommand) respond(s *discordgo.Session, i *discordgo.InteractionCreate, action musicAction) {
	embed, err := action(s, i)
	if err != nil {
		sendErrorResponse(s, i, err.Error())
		return
	}
	sendEmbedResponse(s, i, embed)
}

func (c *MusicCommand) showPlayer(s *discordgo.Session, i *discordgo.InteractionCreate) {
	q, ok := c.loadQueue(s, i)
	if !ok {
		return
	}
	paused := c.Player.IsPaused(i.GuildID)
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{playerEmbed(q, paused)},
			Components: playerButtons(q, paused),
		},
	})
}

// refreshPanel はボタン操作のあとにパネルを最新の状態に書き換えます。
func (c *MusicCommand) refreshPanel(s *discordgo.Session, i *discordgo.InteractionCreate) {
	q, err := c.Store.GetMusicQueue(i.GuildID)
	if err != nil {
		c.Log.Error("再生キューの取得に失敗しました", "error", err, "guildID", i.GuildID)
		sendErrorResponse(s, i, "재생목록을 불러오지 못했습니다.")
		return
	}
	// 再生開始直後は一時停止状態ではない
	paused := q.IsPlaying && c.Player.IsPaused(i.GuildID)
	updateMessage(s, i, playerEmbed(q, paused), playerButtons(q, paused))
}

func (c *MusicCommand) addSong(s *discordgo.Session, i *discordgo.InteractionCreate, query string) {
	query = strings.TrimSpace(query)
	if query == "" {
		sendErrorResponse(s, i, "노래 제목이나 링크를 입력해주세요.")
		return
	}
	user := interactionUser(i)
	if userVoiceChannel(s, i.GuildID, user.ID) == "" {
		sendErrorResponse(s, i, errNotInVoice.Error())
		return
	}
	if err := deferResponse(s, i, false); err != nil {
		c.Log.Error("応答の遅延に失敗しました", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
	defer cancel()
	track, err := c.Player.Resolve(ctx, query)
	if err != nil {
		metrics.ExternalError("ytdlp")
		c.Log.Warn("曲の検索に失敗しました", "error", err, "query", query)
		editEmbedResponse(s, i, &discordgo.MessageEmbed{Description: "❌ 노래를 찾을 수 없습니다.", Color: ColorRed}, nil)
		return
	}

	song := storage.Song{
		ID:        uuid.NewString(),
		Title:     track.Title,
		URL:       track.URL,
		Duration:  track.Duration,
		Thumbnail: track.Thumbnail,
		Uploader:  track.Uploader,
		AddedBy:   user.ID,
		AddedAt:   c.now().UnixMilli(),
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	q, err := c.Store.GetMusicQueue(i.GuildID)
	if err != nil {
		c.Log.Error("再生キューの取得に失敗しました", "error", err, "guildID", i.GuildID)
		editEmbedResponse(s, i, &discordgo.MessageEmbed{Description: "❌ 재생목록을 불러오지 못했습니다.", Color: ColorRed}, nil)
		return
	}
	position := player.Append(q, song)
	start := !q.IsPlaying || !c.Player.IsConnected(i.GuildID)
	if start {
		if err := c.joinCaller(s, i); err != nil {
			c.Log.Warn("ボイスチャンネルに接続できませんでした", "error", err, "guildID", i.GuildID)
			start = false
		}
	}
	if start {
		q.IsPlaying = true
	}
	if err := c.Store.SaveMusicQueue(i.GuildID, q); err != nil {
		c.Log.Error("再生キューの保存に失敗しました", "error", err, "guildID", i.GuildID)
		editEmbedResponse(s, i, &discordgo.MessageEmbed{Description: "❌ 재생목록을 저장하지 못했습니다.", Color: ColorRed}, nil)
		return
	}
	if start {
		c.startPlayback(i.GuildID)
	}
	c.Log.Info("曲を追加しました", "guildID", i.GuildID, "title", song.Title, "position", position)
	editEmbedResponse(s, i, songAddedEmbed(song, position), nil)
}

func (c *MusicCommand) play(s *discordgo.Session, i *discordgo.InteractionCreate) (*discordgo.MessageEmbed, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	q, err := c.Store.GetMusicQueue(i.GuildID)
	if err != nil {
		return nil, c.storeError("再生キューの取得に失敗しました", i.GuildID, err)
	}
	if len(q.Songs) == 0 {
		return nil, errors.New("재생목록이 비어있습니다.")
	}
	if q.IsPlaying && c.Player.IsConnected(i.GuildID) {
		if c.Player.IsPaused(i.GuildID) {
			c.Player.SetPaused(i.GuildID, false)
			return songEmbed("▶️ 재생을 재개합니다", q.Current(), ColorSpotify), nil
		}
		return nil, errors.New("이미 재생 중입니다.")
	}
	if err := c.joinCaller(s, i); err != nil {
		if errors.Is(err, errNotInVoice) {
			return nil, err
		}
		c.Log.Error("ボイスチャンネルへの接続に失敗しました", "error", err, "guildID", i.GuildID)
		return nil, errors.New("음성 채널에 연결하지 못했습니다.")
	}
	q.IsPlaying = true
	if err := c.Store.SaveMusicQueue(i.GuildID, q); err != nil {
		return nil, c.storeError("再生キューの保存に失敗しました", i.GuildID, err)
	}
	c.startPlayback(i.GuildID)
	return songEmbed("▶️ 재생을 시작합니다", q.Current(), ColorSpotify), nil
}

func (c *MusicCommand) pause(s *discordgo.Session, i *discordgo.InteractionCreate) (*discordgo.MessageEmbed, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.Player.IsConnected(i.GuildID) || c.Player.IsPaused(i.GuildID) {
		return nil, errors.New("재생 중인 노래가 없습니다.")
	}
	if err := c.Player.SetPaused(i.GuildID, true); err != nil {
		return nil, errors.New("재생 중인 노래가 없습니다.")
	}
	return songEmbed("⏸️ 일시정지했습니다", nil, ColorOrange), nil
}

func (c *MusicCommand) stop(s *discordgo.Session, i *discordgo.InteractionCreate) (*discordgo.MessageEmbed, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.bump(i.GuildID)
	c.Player.Stop(i.GuildID)
	q := &storage.MusicQueue{}
	player.Clear(q)
	if err := c.Store.SaveMusicQueue(i.GuildID, q); err != nil {
		return nil, c.storeError("再生キューの保存に失敗しました", i.GuildID, err)
	}
	return songEmbed("⏹️ 재생을 중지하고 재생목록을 비웠습니다", nil, ColorRed), nil
}

// skip は次の曲へ進みます。最後の曲からは先頭に戻って停止します。
func (c *MusicCommand) skip(s *discordgo.Session, i *discordgo.InteractionCreate) (*discordgo.MessageEmbed, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	q, err := c.Store.GetMusicQueue(i.GuildID)
	if err != nil {
		return nil, c.storeError("再生キューの取得に失敗しました", i.GuildID, err)
	}
	if len(q.Songs) < 2 {
		return nil, errors.New("다음 노래가 없습니다.")
	}
	// 手動スキップは最後の曲からでも先頭に戻って再生を続ける
	wasPlaying := q.IsPlaying
	player.Step(q, 1)
	return c.switchTo(s, i, q, wasPlaying, "⏭️ 다음 노래")
}

func (c *MusicCommand) previous(s *discordgo.Session, i *discordgo.InteractionCreate) (*discordgo.MessageEmbed, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	q, err := c.Store.GetMusicQueue(i.GuildID)
	if err != nil {
		return nil, c.storeError("再生キューの取得に失敗しました", i.GuildID, err)
	}
	if len(q.Songs) < 2 {
		return nil, errors.New("이전 노래가 없습니다.")
	}
	player.Step(q, -1)
	return c.switchTo(s, i, q, q.IsPlaying, "⏮️ 이전 노래")
}

// switchTo は CurrentIndex を移動したキューを保存し、再生中だったならその曲を再生します。c.mu を保持した状態で呼び出します。
func (c *MusicCommand) switchTo(s *discordgo.Session, i *discordgo.InteractionCreate, q *storage.MusicQueue, playing bool, title string) (*discordgo.MessageEmbed, error) {
	if playing || c.Player.IsConnected(i.GuildID) {
		if err := c.joinCaller(s, i); err != nil && !c.Player.IsConnected(i.GuildID) {
			playing = false
		}
	}
	q.IsPlaying = playing
	if err := c.Store.SaveMusicQueue(i.GuildID, q); err != nil {
		return nil, c.storeError("再生キューの保存に失敗しました", i.GuildID, err)
	}
	if playing {
		c.startPlayback(i.GuildID)
	} else {
		c.bump(i.GuildID)
		c.Player.Stop(i.GuildID)
	}
	return songEmbed(title, q.Current(), ColorSpotify), nil
}

func (c *MusicCommand) leaveVoice(s *discordgo.Session, i *discordgo.InteractionCreate) (*discordgo.MessageEmbed, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.Player.IsConnected(i.GuildID) {
		return nil, errors.New("음성 채널에 연결되어 있지 않습니다.")
	}
	c.leave(i.GuildID)
	return songEmbed("👋 음성 채널에서 나갔습니다", nil, ColorGray), nil
}

func (c *MusicCommand) shuffle(s *discordgo.Session, i *discordgo.InteractionCreate) (*discordgo.MessageEmbed, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	q, err := c.Store.GetMusicQueue(i.GuildID)
	if err != nil {
		return nil, c.storeError("再生キューの取得に失敗しました", i.GuildID, err)
	}
	if len(q.Songs) < 2 {
		return nil, errors.New("섞을 노래가 부족합니다.")
	}
	player.Shuffle(q, c.Rand)
	if err := c.Store.SaveMusicQueue(i.GuildID, q); err != nil {
		return nil, c.storeError("再生キューの保存に失敗しました", i.GuildID, err)
	}
	return songEmbed("🔀 재생목록을 섞었습니다", nil, ColorSpotify), nil
}

func (c *MusicCommand) storeError(msg, guildID string, err error) error {
	c.Log.Error(msg, "error", err, "guildID", guildID)
	return errors.New("재생목록을 처리하는 중 오류가 발생했습니다.")
}

func (c *MusicCommand) showQueue(s *discordgo.Session, i *discordgo.InteractionCreate, page int) {
	q, ok := c.loadQueue(s, i)
	if !ok {
		return
	}
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{queueEmbed(q, page)},
			Flags:  discordgo.MessageFlagsEphemeral,
		},
	})
}

func (c *MusicCommand) showRemove(s *discordgo.Session, i *discordgo.InteractionCreate) {
	q, ok := c.loadQueue(s, i)
	if !ok {
		return
	}
	if len(q.Songs) == 0 {
		sendErrorResponse(s, i, "재생목록이 비어있습니다.")
		return
	}
	embed, components := removePage(q, 0, nil)
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: components,
			Flags:      discordgo.MessageFlagsEphemeral,
		},
	})
}

func (c *MusicCommand) removeOne(s *discordgo.Session, i *discordgo.InteractionCreate, idx int) {
	removed, remaining, err := c.remove(i.GuildID, []int{idx})
	if err != nil {
		sendErrorResponse(s, i, err.Error())
		return
	}
	if len(removed) == 0 {
		sendErrorResponse(s, i, fmt.Sprintf("%d번 노래가 없습니다.", idx+1))
		return
	}
	sendEmbedResponse(s, i, removeResultEmbed(removed, remaining))
}

// remove は曲を削除し、再生中の曲が消えた場合は新しい現在の曲を再生します。
func (c *MusicCommand) remove(guildID string, idxs []int) ([]storage.Song, int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	q, err := c.Store.GetMusicQueue(guildID)
	if err != nil {
		return nil, 0, c.storeError("再生キューの取得に失敗しました", guildID, err)
	}
	var currentID string
	if cur := q.Current(); cur != nil {
		currentID = cur.ID
	}
	removed := player.RemoveMany(q, idxs)
	if len(removed) == 0 {
		return nil, len(q.Songs), nil
	}
	if err := c.Store.SaveMusicQueue(guildID, q); err != nil {
		return nil, 0, c.storeError("再生キューの保存に失敗しました", guildID, err)
	}

	cur := q.Current()
	switch {
	case cur == nil:
		c.bump(guildID)
		c.Player.Stop(guildID)
	case cur.ID != currentID && q.IsPlaying:
		c.startPlayback(guildID)
	}
	c.Log.Info("曲を削除しました", "guildID", guildID, "count", len(removed))
	return removed, len(q.Songs), nil
}

func (c *MusicCommand) HandleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	customID := i.MessageComponentData().CustomID

	switch {
	case customID == musicAdd:
		textModal(s, i, musicModalAdd, "노래 추가", "노래 제목 또는 유튜브 링크", "예: 아이유 밤편지", maxQueryLength)
	case customID == musicQueue:
		c.showQueue(s, i, 0)
	case customID == musicRemove:
		c.showRemove(s, i)
	case customID == musicToggle:
		c.panelAction(s, i, c.toggle)
	case customID == musicNext:
		c.panelAction(s, i, c.skip)
	case customID == musicPrev:
		c.panelAction(s, i, c.previous)
	case customID == musicShuffle:
		c.panelAction(s, i, c.shuffle)
	case customID == musicClear:
		c.panelAction(s, i, c.stop)
	case customID == musicLeave:
		c.panelAction(s, i, c.leaveVoice)
	case customID == musicRmCancel:
		updateMessage(s, i, &discordgo.MessageEmbed{Description: "삭제를 취소했습니다.", Color: ColorGray}, nil)
	case strings.HasPrefix(customID, musicRmToggle):
		c.toggleRemove(s, i, strings.TrimPrefix(customID, musicRmToggle))
	case strings.HasPrefix(customID, musicRmPage):
		c.pageRemove(s, i, strings.TrimPrefix(customID, musicRmPage))
	case strings.HasPrefix(customID, musicRmExec):
		selected := parseSelection(strings.TrimPrefix(customID, musicRmExec))
		removed, remaining, err := c.remove(i.GuildID, selected)
		if err != nil {
			sendErrorResponse(s, i, err.Error())
			return
		}
		updateMessage(s, i, removeResultEmbed(removed, remaining), nil)
	}
}

// panelAction はボタン操作を実行し、成功すればパネルを更新します。
func (c *MusicCommand) panelAction(s *discordgo.Session, i *discordgo.InteractionCreate, action musicAction) {
	if _, err := action(s, i); err != nil {
		sendErrorResponse(s, i, err.Error())
		return
	}
	c.refreshPanel(s, i)
}

func (c *MusicCommand) toggle(s *discordgo.Session, i *discordgo.InteractionCreate) (*discordgo.MessageEmbed, error) {
	c.mu.Lock()
	playing := c.Player.IsConnected(i.GuildID) && !c.Player.IsPaused(i.GuildID)
	c.mu.Unlock()

	q, err := c.Store.GetMusicQueue(i.GuildID)
	if err != nil {
		return nil, c.storeError("再生キューの取得に失敗しました", i.GuildID, err)
	}
	if playing && q.IsPlaying {
		return c.pause(s, i)
	}
	return c.play(s, i)
}

func (c *MusicCommand) toggleRemove(s *discordgo.Session, i *discordgo.InteractionCreate, payload string) {
	parts := strings.SplitN(payload, ":", 3)
	if len(parts) != 3 {
		return
	}
	page, err1 := strconv.Atoi(parts[0])
	idx, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return
	}
	q, ok := c.loadQueue(s, i)
	if !ok {
		return
	}
	selected, ok := toggleSelection(parseSelection(parts[2]), idx)
	if !ok {
		sendErrorResponse(s, i, fmt.Sprintf("한 번에 최대 %d곡까지 선택할 수 있습니다.", maxRemoveSelection))
		return
	}
	embed, components := removePage(q, page, selected)
	updateMessage(s, i, embed, components)
}

func (c *MusicCommand) pageRemove(s *discordgo.Session, i *discordgo.InteractionCreate, payload string) {
	pageStr, csv, _ := strings.Cut(payload, ":")
	page, err := strconv.Atoi(pageStr)
	if err != nil {
		return
	}
	q, ok := c.loadQueue(s, i)
	if !ok {
		return
	}
	embed, components := removePage(q, page, parseSelection(csv))
	updateMessage(s, i, embed, components)
}

func (c *MusicCommand) HandleModal(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.ModalSubmitData().CustomID == musicModalAdd {
		c.addSong(s, i, modalValue(i))
	}
}

func (c *MusicCommand) GetComponentIDs() []string { return []string{musicPrefix} }
func (c *MusicCommand) GetCategory() string       { return "음악" }
