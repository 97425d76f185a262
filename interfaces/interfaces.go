package interfaces

import (
	"context"
	"encoding/json"
	"time"

	"nabi/storage"

	"github.com/bwmarrin/discordgo"
	"github.com/robfig/cron/v3"
)

// Logger は、アプリケーション全体で使用されるロガーのインターフェースを定義します。
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Fatal(msg string, args ...any)
}

// DataStore は、ボットが依存するドキュメントストア操作のインターフェースを定義します。
type DataStore interface {
	Close() error
	Ping() error

	Get(path string, dest any) error
	Set(path string, v any) error
	Update(path string, fields map[string]any) error
	Delete(path string) error
	Children(path string) (map[string]json.RawMessage, error)

	CheckIn(guildID, userID, today string) (storage.AttendanceRecord, bool, error)
	GetGuildAttendance(guildID string) (map[string]storage.AttendanceRecord, error)

	GetLeague(guildID string) (*storage.League, error)
	CreateTeam(guildID, name string, createdAt int64) error
	DeleteTeam(guildID, name string) error
	ResetTeams(guildID string) error
	AddTeamMembers(guildID, name string, userIDs []string) (*storage.Team, error)
	SetTeamVoiceChannel(guildID, name, channelID string) (*storage.Team, error)
	AdjustTeamScore(guildID, name string, delta int) (int, error)

	GetBanpickSession(guildID string) (*storage.BanpickSession, error)
	SaveBanpickSession(guildID string, sess *storage.BanpickSession) error
	DeleteBanpickSession(guildID string) error
	FindActiveBanpick(userID string) (guildID, team string, sess *storage.BanpickSession, err error)
	AddBanpick(guildID, team, pick string) (*storage.BanpickSession, error)
	PurgeStaleBanpicks(now time.Time, maxAge time.Duration) (int, error)

	GetMusicQueue(guildID string) (*storage.MusicQueue, error)
	SaveMusicQueue(guildID string, q *storage.MusicQueue) error
	SetMusicPlaying(guildID string, playing bool) error
}

// Scheduler は、タスクのスケジューリング機能のインターフェースを定義します。
type Scheduler interface {
	Start()
	Stop() context.Context
	AddFunc(spec string, cmd func()) (cron.EntryID, error)
}

// CommandHandler は、すべてのボットコマンドが実装すべきインターフェースを定義します。
type CommandHandler interface {
	GetCommandDef() *discordgo.ApplicationCommand
	Handle(s *discordgo.Session, i *discordgo.InteractionCreate)
	HandleComponent(s *discordgo.Session, i *discordgo.InteractionCreate)
	HandleModal(s *discordgo.Session, i *discordgo.InteractionCreate)
	GetComponentIDs() []string
	GetCategory() string
}

// Track は再生用に解決された曲の情報です。
type Track struct {
	URL       string // 動画ページのURL
	StreamURL string
	Title     string
	Uploader  string
	Duration  int // 秒
	Thumbnail string
}

// MusicPlayer は音楽再生機能のインターフェースを定義します。
// onFinish は曲が最後まで再生されたか、ストリームが失敗したときに呼ばれます。
// Stop や Leave で止めた場合は呼ばれません。
type MusicPlayer interface {
	Resolve(ctx context.Context, query string) (*Track, error)
	JoinVC(guildID, channelID string) error
	LeaveVC(guildID string)
	Play(guildID string, url string, onFinish func(err error)) error
	SetPaused(guildID string, paused bool) error
	Stop(guildID string)
	IsConnected(guildID string) bool
	IsPaused(guildID string) bool
	ChannelID(guildID string) string
	Forget(guildID string)
}

// DirectMessageHandler はボットへのDMを処理します。
type DirectMessageHandler interface {
	HandleDirectMessage(s *discordgo.Session, m *discordgo.MessageCreate)
}

// VoiceStateHandler はボイスチャンネルの状態変化を処理します。
type VoiceStateHandler interface {
	HandleVoiceStateUpdate(s *discordgo.Session, v *discordgo.VoiceStateUpdate)
}
