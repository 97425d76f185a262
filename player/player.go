package player

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"nabi/interfaces"
	"nabi/metrics"

	"github.com/bwmarrin/discordgo"
	"github.com/jonas747/dca"
)

// ErrNotConnected はボイスチャンネルに接続していないことを示します。
var ErrNotConnected = errors.New("player: not connected to a voice channel")

// GuildPlayer は各サーバー（Guild）ごとのプレイヤーの状態を保持します。
type GuildPlayer struct {
	VoiceConnection *discordgo.VoiceConnection
	Encoder         *dca.EncodeSession
	Stream          *dca.StreamingSession
	Playing         bool
	Quit            chan struct{}
	mu              sync.Mutex
}

// Player はすべてのサーバーのプレイヤーを管理します。
type Player struct {
	Session   *discordgo.Session
	Log       interfaces.Logger
	Guilds    map[string]*GuildPlayer
	ytdlpPath string
	bitrate   int
	mu        sync.Mutex
}

// NewPlayer は新しいPlayerインスタンスを作成します。
func NewPlayer(s *discordgo.Session, log interfaces.Logger, ytdlpPath string, bitrate int) *Player {
	if ytdlpPath == "" {
		ytdlpPath = "yt-dlp"
	}
	if bitrate <= 0 {
		bitrate = 96
	}
	return &Player{
		Session:   s,
		Log:       log,
		Guilds:    make(map[string]*GuildPlayer),
		ytdlpPath: ytdlpPath,
		bitrate:   bitrate,
	}
}

// guild は指定されたサーバーのGuildPlayerを取得します。存在しない場合は作成します。
func (p *Player) guild(guildID string) *GuildPlayer {
	p.mu.Lock()
	defer p.mu.Unlock()
	if gp, ok := p.Guilds[guildID]; ok {
		return gp
	}
	gp := &GuildPlayer{}
	p.Guilds[guildID] = gp
	return gp
}

// JoinVC はボイスチャンネルに接続します。すでに同じチャンネルにいる場合は何もしません。
func (p *Player) JoinVC(guildID, channelID string) error {
	gp := p.guild(guildID)
	gp.mu.Lock()
	defer gp.mu.Unlock()

	if gp.VoiceConnection != nil && gp.VoiceConnection.ChannelID == channelID {
		return nil
	}

	vc, err := p.Session.ChannelVoiceJoin(guildID, channelID, false, true)
	if err != nil {
		return fmt.Errorf("ボイスチャンネルへの接続に失敗しました: %w", err)
	}
	if gp.VoiceConnection == nil {
		metrics.VoiceConnections.Inc()
	}
	gp.VoiceConnection = vc
	return nil
}

// LeaveVC は再生を止めてボイスチャンネルから切断します。
func (p *Player) LeaveVC(guildID string) {
	gp := p.guild(guildID)
	gp.mu.Lock()
	defer gp.mu.Unlock()

	gp.stopLocked()
	if gp.VoiceConnection != nil {
		gp.VoiceConnection.Speaking(false)
		if err := gp.VoiceConnection.Disconnect(); err != nil {
			p.Log.Warn("ボイスチャンネルからの切断に失敗しました", "guildID", guildID, "error", err)
		}
		gp.VoiceConnection = nil
		metrics.VoiceConnections.Dec()
	}
}

// stopLocked は再生中のストリームを止めます。gp.mu を保持した状態で呼び出します。
func (gp *GuildPlayer) stopLocked() {
	if gp.Quit != nil {
		close(gp.Quit)
		gp.Quit = nil
	}
	if gp.Encoder != nil {
		gp.Encoder.Cleanup()
		gp.Encoder = nil
	}
	gp.Stream = nil
	gp.Playing = false
}

// Play は streamURL の再生を開始します。再生中の曲があれば止めてから始めます。
// 再生の終了は onFinish で通知されます。
func (p *Player) Play(guildID string, streamURL string, onFinish func(err error)) error {
	gp := p.guild(guildID)
	gp.mu.Lock()
	defer gp.mu.Unlock()

	if gp.VoiceConnection == nil {
		return ErrNotConnected
	}
	gp.stopLocked()

	options := *dca.StdEncodeOptions
	options.RawOutput = true
	options.Bitrate = p.bitrate // 音質設定
	options.Application = dca.AudioApplicationLowDelay

	encodeSession, err := dca.EncodeFile(streamURL, &options)
	if err != nil {
		return fmt.Errorf("音声のエンコードに失敗しました: %w", err)
	}

	quit := make(chan struct{})
	done := make(chan error, 1)
	gp.Encoder = encodeSession
	gp.Quit = quit
	gp.Playing = true
	gp.VoiceConnection.Speaking(true)
	gp.Stream = dca.NewStream(encodeSession, gp.VoiceConnection, done)

	metrics.TracksPlayed.Inc()
	go p.wait(guildID, gp, quit, done, onFinish)
	return nil
}

// wait は再生終了を待ち、停止シグナルでなければ onFinish を呼びます。
func (p *Player) wait(guildID string, gp *GuildPlayer, quit chan struct{}, done chan error, onFinish func(err error)) {
	select {
	case <-quit:
		p.Log.Info("再生停止シグナルを受信しました", "guildID", guildID)
		return
	case err := <-done:
		gp.mu.Lock()
		if gp.Quit != quit {
			// すでに別の曲に切り替わっている
			gp.mu.Unlock()
			return
		}
		gp.stopLocked()
		if gp.VoiceConnection != nil {
			gp.VoiceConnection.Speaking(false)
		}
		gp.mu.Unlock()

		if errors.Is(err, io.EOF) {
			err = nil
		}
		if err != nil {
			p.Log.Error("ストリームエラー", "error", err, "guildID", guildID)
		}
		if onFinish != nil {
			onFinish(err)
		}
	}
}

// SetPaused は再生を一時停止または再開します。
func (p *Player) SetPaused(guildID string, paused bool) error {
	gp := p.guild(guildID)
	gp.mu.Lock()
	defer gp.mu.Unlock()

	if gp.Stream == nil {
		return ErrNotConnected
	}
	gp.Stream.SetPaused(paused)
	return nil
}

// Stop は現在の再生を停止します。接続は維持されます。
func (p *Player) Stop(guildID string) {
	gp := p.guild(guildID)
	gp.mu.Lock()
	defer gp.mu.Unlock()
	gp.stopLocked()
}

// IsConnected はボイスチャンネルに接続中かどうかを返します。
func (p *Player) IsConnected(guildID string) bool {
	gp := p.guild(guildID)
	gp.mu.Lock()
	defer gp.mu.Unlock()
	return gp.VoiceConnection != nil
}

// IsPaused は一時停止中かどうかを返します。
func (p *Player) IsPaused(guildID string) bool {
	gp := p.guild(guildID)
	gp.mu.Lock()
	defer gp.mu.Unlock()
	return gp.Stream != nil && gp.Stream.Paused()
}

// ChannelID は接続中のボイスチャンネルIDを返します。未接続なら空文字列です。
func (p *Player) ChannelID(guildID string) string {
	gp := p.guild(guildID)
	gp.mu.Lock()
	defer gp.mu.Unlock()
	if gp.VoiceConnection == nil {
		return ""
	}
	return gp.VoiceConnection.ChannelID
}

// Forget は外部から切断された場合に状態だけを破棄します。
func (p *Player) Forget(guildID string) {
	gp := p.guild(guildID)
	gp.mu.Lock()
	defer gp.mu.Unlock()
	gp.stopLocked()
	if gp.VoiceConnection != nil {
		metrics.VoiceConnections.Dec()
	}
	gp.VoiceConnection = nil
}
