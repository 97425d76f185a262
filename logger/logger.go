package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"nabi/config"

	"github.com/lmittmann/tint"
	"gopkg.in/natefinch/lumberjack.v2"
)

// シングルトンとしてロガーを保持
var logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))

// Logger は interfaces.Logger を満たす slog のラッパーです。
// コマンドやストアにはこちらを渡します。
type Logger struct {
	*slog.Logger
}

// Fatal はエラーを記録してプロセスを終了します。
func (l Logger) Fatal(msg string, args ...any) {
	l.Logger.Error(msg, args...)
	os.Exit(1)
}

// With は属性を追加した Logger を返します。
func (l Logger) With(args ...any) Logger {
	return Logger{l.Logger.With(args...)}
}

// ParseLevel は設定ファイルのレベル文字列を slog.Level に変換します。不明な値は Info になります。
func ParseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(strings.TrimSpace(s)))); err != nil {
		return slog.LevelInfo
	}
	return level
}

// NewHandler は設定に従ってハンドラを作成します。
// json はファイル向け、text はターミナル向けに tint で色付けします。
func NewHandler(w io.Writer, cfg config.LogConfig, color bool) slog.Handler {
	level := ParseLevel(cfg.Level)
	if cfg.Format == "text" {
		return tint.NewHandler(w, &tint.Options{
			AddSource: true,
			Level:     level,
			NoColor:   !color,
		})
	}
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		AddSource: true, // ソースコードのファイル名と行番号を追加
		Level:     level,
	})
}

// Init はロガーを初期化し、Logger を返します。
func Init(cfg config.LogConfig) Logger {
	var out io.Writer = os.Stdout
	color := cfg.Format == "text"

	if cfg.File != "" {
		// ログローテーションの設定
		logFile := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,  // 1ファイルあたりの最大サイズ (MB)
			MaxBackups: cfg.MaxBackups, // 保持する古いログの最大数
			MaxAge:     cfg.MaxAgeDays, // 古いログを保持する最大日数
			Compress:   true,           // 古いログをgzipで圧縮
		}
		// ファイルにエスケープシーケンスを書き込まないよう色は無効にする
		out = io.MultiWriter(os.Stdout, logFile)
		color = false
	}

	logger = slog.New(NewHandler(out, cfg, color))
	slog.SetDefault(logger)
	return Default()
}

// Default は現在のロガーを Logger として返します。
func Default() Logger {
	return Logger{logger}
}

// Debugレベルのログを出力
func Debug(msg string, args ...any) {
	logger.Debug(msg, args...)
}

// Infoレベルのログを出力
// 例: logger.Info("Botが起動しました", "version", "1.2.3")
func Info(msg string, args ...any) {
	logger.Info(msg, args...)
}

// Warnレベルのログを出力
func Warn(msg string, args ...any) {
	logger.Warn(msg, args...)
}

// Errorレベルのログを出力
// 例: logger.Error("コマンドの実行に失敗", "error", err, "command", "lotto")
func Error(msg string, args ...any) {
	logger.Error(msg, args...)
}

// Fatalレベルのログを出力（出力後にプログラムを終了）
func Fatal(msg string, args ...any) {
	logger.Error(msg, args...)
	os.Exit(1)
}
