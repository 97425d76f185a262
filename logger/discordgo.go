package logger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"
)

var discordgoLevels = map[int]slog.Level{
	discordgo.LogDebug:         slog.LevelDebug,
	discordgo.LogInformational: slog.LevelInfo,
	discordgo.LogWarning:       slog.LevelWarn,
	discordgo.LogError:         slog.LevelError,
}

// DiscordgoLogger は discordgo 内部のログを slog に流す関数を返します。
// discordgo.Logger に代入して使います。
func DiscordgoLogger(handler slog.Handler) func(msgL, caller int, format string, a ...any) {
	log := slog.New(handler).With("logger", "discordgo")
	return func(msgL, _ int, format string, a ...any) {
		level, ok := discordgoLevels[msgL]
		if !ok {
			level = slog.LevelInfo
		}
		log.Log(context.Background(), level, strings.ReplaceAll(fmt.Sprintf(format, a...), "\n", " "))
	}
}

// BridgeDiscordgo は現在のロガーを discordgo に設定します。
func BridgeDiscordgo() {
	discordgo.Logger = DiscordgoLogger(logger.Handler())
}
