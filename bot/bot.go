package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"nabi/commands"
	"nabi/config"
	"nabi/handlers"
	"nabi/logger"
	"nabi/overwatch"
	"nabi/player"
	"nabi/steam"
	"nabi/storage"

	"github.com/bwmarrin/discordgo"
	"github.com/robfig/cron/v3"
)

// Intents はボットが購読する Gateway イベントです。
const Intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsGuildMembers |
	discordgo.IntentsGuildVoiceStates |
	discordgo.IntentsDirectMessages |
	discordgo.IntentsMessageContent

// Bot はDiscordボットのコアな状態とロジックを管理します。
type Bot struct {
	Session  *discordgo.Session
	Registry *commands.Registry

	cfg       *config.Config
	log       logger.Logger
	dbStore   *storage.DBStore
	scheduler *cron.Cron
	events    *handlers.EventHandler
	startTime time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// New は新しいBotインスタンスを作成します。
func New(cfg *config.Config, log logger.Logger) (*Bot, error) {
	if err := cfg.RequireToken(); err != nil {
		return nil, err
	}

	dg, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return nil, fmt.Errorf("Discordセッションの作成に失敗しました: %w", err)
	}
	dg.State = discordgo.NewState()
	dg.State.MaxMessageCount = 2000
	dg.Identify.Intents = Intents
	logger.BridgeDiscordgo()

	dbStore, err := storage.NewDBStore(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	dbStore.RequireAccessKey(cfg.Database.AccessKey)

	b := &Bot{
		Session:   dg,
		cfg:       cfg,
		log:       log,
		dbStore:   dbStore,
		scheduler: cron.New(cron.WithLocation(cfg.Location())),
		startTime: time.Now(),
		stop:      make(chan struct{}),
	}

	b.Registry = commands.RegisterCommands(&commands.AppContext{
		Log:       log,
		Store:     dbStore,
		Scheduler: b.scheduler,
		Player:    player.NewPlayer(dg, log.With("component", "player"), cfg.Music.YtDlpPath, cfg.Music.Bitrate),
		Overwatch: overwatch.NewClient(cfg.Overwatch.BaseURL, cfg.Overwatch.RequestsPerSecond, nil),
		Steam:     steam.NewClient(cfg.Steam.APIKey, cfg.Steam.BaseURL, nil),
		Config:    cfg,
		Location:  cfg.Location(),
		StartTime: b.startTime,
	})

	var filter *handlers.WordFilter
	if cfg.Filter.Enabled {
		filter = handlers.NewWordFilter(cfg.Filter.Words)
	}
	b.events = handlers.NewEventHandler(b.Registry, log, filter)
	return b, nil
}

// Store はボットが使うデータストアを返します。Webサーバーと共有します。
func (b *Bot) Store() *storage.DBStore { return b.dbStore }

func (b *Bot) Name() string { return "discord" }

// Start はBotを起動し、Discordに接続します。Stop が呼ばれるまで戻りません。
func (b *Bot) Start() error {
	b.events.RegisterAllHandlers(b.Session)

	if err := b.Session.Open(); err != nil {
		return fmt.Errorf("Discordへの接続に失敗しました: %w", err)
	}
	b.scheduler.Start()
	b.log.Info("Discord Botが起動しました", "commands", len(b.Registry.Definitions))

	<-b.stop

	<-b.scheduler.Stop().Done()
	if err := b.Session.Close(); err != nil {
		b.log.Warn("Discordセッションの切断に失敗しました", "error", err)
	}
	return b.dbStore.Close()
}

// Stop は Start を終了させます。複数回呼んでも安全です。
func (b *Bot) Stop(ctx context.Context) error {
	b.stopOnce.Do(func() {
		b.log.Info("Botをシャットダウンします...", "uptime", time.Since(b.startTime).Round(time.Second))
		close(b.stop)
	})
	return nil
}

// RegisterCommands はスラッシュコマンドを登録します。guild_id が設定されていればそのサーバーだけに登録します。
func (b *Bot) RegisterCommands() ([]*discordgo.ApplicationCommand, error) {
	appID := b.cfg.Discord.AppID
	if appID == "" {
		user, err := b.Session.User("@me")
		if err != nil {
			return nil, fmt.Errorf("アプリケーションIDの取得に失敗しました: %w", err)
		}
		appID = user.ID
	}
	registered, err := b.Session.ApplicationCommandBulkOverwrite(appID, b.cfg.Discord.GuildID, b.Registry.Definitions)
	if err != nil {
		return nil, fmt.Errorf("コマンドの登録に失敗しました: %w", err)
	}
	return registered, nil
}

// IsMember はユーザーがサーバーに参加しているかを返します。
// State にキャッシュがなければ API に問い合わせます。
func (b *Bot) IsMember(guildID, userID string) bool {
	if _, err := b.Session.State.Member(guildID, userID); err == nil {
		return true
	}
	member, err := b.Session.GuildMember(guildID, userID)
	if err != nil {
		b.log.Debug("メンバー情報を取得できませんでした", "guildID", guildID, "userID", userID, "error", err)
		return false
	}
	if err := b.Session.State.MemberAdd(member); err != nil {
		b.log.Debug("メンバー情報のキャッシュに失敗しました", "error", err)
	}
	return true
}
