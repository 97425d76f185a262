package commands

import (
	"context"
	"time"

	"nabi/metrics"
	"nabi/player"

	"github.com/bwmarrin/discordgo"
)

const resolveTimeout = 30 * time.Second

// guildMusic はサーバーごとの再生制御の状態です。
// gen は再生を切り替えるたびに増え、古い再生の終了通知を無視するために使います。
type guildMusic struct {
	gen  uint64
	idle *time.Timer
}

func (c *MusicCommand) state(guildID string) *guildMusic {
	st, ok := c.guilds[guildID]
	if !ok {
		st = &guildMusic{}
		c.guilds[guildID] = st
	}
	return st
}

// bump は現在の再生を無効にし、新しい世代番号を返します。c.mu を保持した状態で呼び出します。
func (c *MusicCommand) bump(guildID string) uint64 {
	st := c.state(guildID)
	st.gen++
	return st.gen
}

func (c *MusicCommand) current(guildID string, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state(guildID).gen == gen
}

// startPlayback は現在の曲から再生を始めます。c.mu を保持した状態で呼び出します。
func (c *MusicCommand) startPlayback(guildID string) {
	gen := c.bump(guildID)
	go c.playCurrent(guildID, gen, 0)
}

// playCurrent は現在の曲のストリームURLを解決して再生します。
// 解決や再生に失敗した場合は MaxRetries 回まで RetryDelay 後に再試行し、それでも駄目なら次の曲へ進みます。
func (c *MusicCommand) playCurrent(guildID string, gen uint64, attempt int) {
	if !c.current(guildID, gen) {
		return
	}
	q, err := c.Store.GetMusicQueue(guildID)
	if err != nil {
		c.Log.Error("再生キューの取得に失敗しました", "error", err, "guildID", guildID)
		return
	}
	song := q.Current()
	if song == nil || !q.IsPlaying {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
	track, err := c.Player.Resolve(ctx, song.URL)
	cancel()
	if err != nil {
		metrics.ExternalError("ytdlp")
		c.retryOrSkip(guildID, gen, attempt, err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state(guildID).gen != gen {
		return
	}
	err = c.Player.Play(guildID, track.StreamURL, func(err error) {
		c.finished(guildID, gen, attempt, err)
	})
	if err != nil {
		go c.retryOrSkip(guildID, gen, attempt, err)
		return
	}
	c.Log.Info("再生を開始しました", "guildID", guildID, "title", song.Title, "attempt", attempt)
}

func (c *MusicCommand) finished(guildID string, gen uint64, attempt int, err error) {
	if err != nil {
		c.retryOrSkip(guildID, gen, attempt, err)
		return
	}
	c.advance(guildID, gen)
}

func (c *MusicCommand) retryOrSkip(guildID string, gen uint64, attempt int, cause error) {
	if attempt < c.MaxRetries {
		c.Log.Warn("再生に失敗しました。再試行します", "error", cause, "guildID", guildID, "attempt", attempt+1)
		c.afterFunc(c.RetryDelay, func() { c.playCurrent(guildID, gen, attempt+1) })
		return
	}
	c.Log.Error("再生に失敗したため次の曲へ進みます", "error", cause, "guildID", guildID)
	c.advance(guildID, gen)
}

// advance は曲の終了後に次の曲へ進めます。最後の曲なら先頭に戻して停止します。
func (c *MusicCommand) advance(guildID string, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state(guildID).gen != gen {
		return
	}
	q, err := c.Store.GetMusicQueue(guildID)
	if err != nil {
		c.Log.Error("再生キューの取得に失敗しました", "error", err, "guildID", guildID)
		return
	}
	next := player.Advance(q)
	if err := c.Store.SaveMusicQueue(guildID, q); err != nil {
		c.Log.Error("再生キューの保存に失敗しました", "error", err, "guildID", guildID)
		return
	}
	if !next {
		c.Log.Info("再生キューの最後まで再生しました", "guildID", guildID)
		return
	}
	c.startPlayback(guildID)
}

func (c *MusicCommand) afterFunc(d time.Duration, f func()) {
	if c.after != nil {
		c.after(d, f)
		return
	}
	time.AfterFunc(d, f)
}

// leave は再生を止めてボイスチャンネルから抜けます。曲はキューに残ります。c.mu を保持した状態で呼び出します。
func (c *MusicCommand) leave(guildID string) {
	c.bump(guildID)
	c.stopIdleTimer(guildID)
	c.Player.LeaveVC(guildID)
	if err := c.Store.SetMusicPlaying(guildID, false); err != nil {
		c.Log.Error("再生状態の更新に失敗しました", "error", err, "guildID", guildID)
	}
}

func (c *MusicCommand) stopIdleTimer(guildID string) {
	st := c.state(guildID)
	if st.idle != nil {
		st.idle.Stop()
		st.idle = nil
	}
}

// HandleVoiceStateUpdate はボットの切断と、ボイスチャンネルが無人になったことを検知します。
func (c *MusicCommand) HandleVoiceStateUpdate(s *discordgo.Session, v *discordgo.VoiceStateUpdate) {
	if v.VoiceState == nil || s.State.User == nil {
		return
	}
	guildID := v.GuildID

	c.mu.Lock()
	defer c.mu.Unlock()

	if v.UserID == s.State.User.ID && v.ChannelID == "" {
		c.bump(guildID)
		c.stopIdleTimer(guildID)
		c.Player.Forget(guildID)
		if err := c.Store.SetMusicPlaying(guildID, false); err != nil {
			c.Log.Error("再生状態の更新に失敗しました", "error", err, "guildID", guildID)
		}
		c.Log.Info("ボイスチャンネルから切断されました", "guildID", guildID)
		return
	}

	channelID := c.Player.ChannelID(guildID)
	if channelID == "" {
		return
	}
	st := c.state(guildID)
	if len(voiceMemberIDs(s, guildID, channelID)) > 0 {
		c.stopIdleTimer(guildID)
		return
	}
	if st.idle != nil || c.IdleTimeout <= 0 {
		return
	}
	c.Log.Info("ボイスチャンネルが無人になりました", "guildID", guildID, "timeout", c.IdleTimeout)
	st.idle = time.AfterFunc(c.IdleTimeout, func() { c.idleLeave(s, guildID) })
}

func (c *MusicCommand) idleLeave(s *discordgo.Session, guildID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state(guildID).idle = nil
	channelID := c.Player.ChannelID(guildID)
	if channelID == "" || len(voiceMemberIDs(s, guildID, channelID)) > 0 {
		return
	}
	c.leave(guildID)
	c.Log.Info("無人のためボイスチャンネルから退出しました", "guildID", guildID)
}
