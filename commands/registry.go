package commands

import (
	"math/rand/v2"
	"sort"
	"strings"
	"time"

	"nabi/config"
	"nabi/interfaces"
	"nabi/metrics"
	"nabi/overwatch"
	"nabi/steam"

	"github.com/bwmarrin/discordgo"
)

// AppContext provides dependencies to commands.
type AppContext struct {
	Log       interfaces.Logger
	Store     interfaces.DataStore
	Scheduler interfaces.Scheduler
	Player    interfaces.MusicPlayer
	Overwatch *overwatch.Client
	Steam     *steam.Client
	Config    *config.Config
	Location  *time.Location
	Now       func() time.Time
	// Rand はテストで結果を固定するためのものです。nil ならゴルーチン安全なトップレベルの乱数を使います。
	Rand      *rand.Rand
	StartTime time.Time
}

func (a *AppContext) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// Registry は登録されたコマンドとコンポーネントのルーティング表です。
type Registry struct {
	Commands    map[string]interfaces.CommandHandler
	Components  map[string]interfaces.CommandHandler
	Definitions []*discordgo.ApplicationCommand

	Music       *MusicCommand
	League      *LeagueCommand
	TeamShuffle *TeamShuffleCommand
}

// RegisterCommands initializes and returns all command handlers.
func RegisterCommands(appCtx *AppContext) *Registry {
	reg := &Registry{
		Commands:   make(map[string]interfaces.CommandHandler),
		Components: make(map[string]interfaces.CommandHandler),
	}

	reg.Music = NewMusicCommand(appCtx)
	reg.League = NewLeagueCommand(appCtx)
	reg.TeamShuffle = NewTeamShuffleCommand(appCtx)

	// To add a new command, simply add it to this list.
	commands := []interfaces.CommandHandler{
		&AttendanceCommand{Store: appCtx.Store, Log: appCtx.Log, Location: appCtx.Location, Now: appCtx.now},
		&AttendanceRankCommand{Store: appCtx.Store, Log: appCtx.Log},
		&LottoCommand{Rand: appCtx.Rand, Now: appCtx.now},
		&OverwatchCommand{Client: appCtx.Overwatch, Log: appCtx.Log},
		&SteamCommand{Client: appCtx.Steam, Log: appCtx.Log, Games: trackedGames(appCtx.Config), Location: appCtx.Location},
		reg.TeamShuffle,
		reg.League,
		reg.Music,
		&PingCommand{StartTime: appCtx.StartTime, Store: appCtx.Store, Log: appCtx.Log},
		&HelpCommand{AllCommands: reg.Commands},
	}

	for _, cmd := range commands {
		commandDef := cmd.GetCommandDef()
		reg.Definitions = append(reg.Definitions, commandDef)

		// ラッパーハンドラーを作成して、元のハンドラーをラップする
		wrapped := &CommandUsageWrapper{CommandHandler: cmd, Log: appCtx.Log}
		reg.Commands[commandDef.Name] = wrapped
		for _, id := range cmd.GetComponentIDs() {
			reg.Components[id] = wrapped
		}
	}
	if appCtx.Scheduler != nil {
		if err := reg.scheduleMaintenance(appCtx.Scheduler, appCtx.Log); err != nil {
			appCtx.Log.Error("定期タスクの登録に失敗しました", "error", err)
		}
	}
	return reg
}

// scheduleMaintenance は期限切れセッションの掃除を定期実行に登録します。
func (r *Registry) scheduleMaintenance(sched interfaces.Scheduler, log interfaces.Logger) error {
	if _, err := sched.AddFunc("@every 10m", func() {
		if n := r.TeamShuffle.SweepExpired(); n > 0 {
			log.Info("期限切れのチーム分けセッションを削除しました", "count", n)
		}
	}); err != nil {
		return err
	}
	_, err := sched.AddFunc("@hourly", r.League.PurgeStaleBanpicks)
	return err
}

func trackedGames(cfg *config.Config) []config.TrackedGame {
	if cfg == nil {
		return nil
	}
	return cfg.Steam.TrackedGames
}

// ComponentHandler は CustomID に最も長く一致するプレフィックスのハンドラを返します。
func (r *Registry) ComponentHandler(customID string) (interfaces.CommandHandler, bool) {
	prefixes := make([]string, 0, len(r.Components))
	for id := range r.Components {
		if strings.HasPrefix(customID, id) {
			prefixes = append(prefixes, id)
		}
	}
	if len(prefixes) == 0 {
		return nil, false
	}
	sort.Slice(prefixes, func(i, j int) bool { return len(prefixes[i]) > len(prefixes[j]) })
	return r.Components[prefixes[0]], true
}

// CommandUsageWrapper は、コマンドの実行をラップして使用状況を記録します。
type CommandUsageWrapper struct {
	interfaces.CommandHandler
	Log interfaces.Logger
}

// Handle は、元のハンドラを呼び出したあとに使用状況を記録します。
func (w *CommandUsageWrapper) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) {
	started := time.Now()
	name := w.GetCommandDef().Name
	w.CommandHandler.Handle(s, i)
	metrics.ObserveCommand(name, w.GetCategory(), started)
	w.Log.Debug("コマンドを実行しました", "command", name, "guildID", i.GuildID, "elapsed", time.Since(started))
}

func (w *CommandUsageWrapper) HandleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	metrics.ComponentsTotal.WithLabelValues(w.GetCommandDef().Name, "component").Inc()
	w.CommandHandler.HandleComponent(s, i)
}

func (w *CommandUsageWrapper) HandleModal(s *discordgo.Session, i *discordgo.InteractionCreate) {
	metrics.ComponentsTotal.WithLabelValues(w.GetCommandDef().Name, "modal").Inc()
	w.CommandHandler.HandleModal(s, i)
}
