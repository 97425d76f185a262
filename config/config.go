package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix は環境変数で設定を上書きするときのプレフィックスです。
// 例: NABI_DISCORD_TOKEN
const EnvPrefix = "NABI"

// Config はアプリケーションの設定を保持します。
type Config struct {
	Discord struct {
		Token   string `mapstructure:"token"`
		AppID   string `mapstructure:"app_id"`
		GuildID string `mapstructure:"guild_id"` // 開発用: 空ならグローバル登録
	} `mapstructure:"discord"`
	Database struct {
		Path      string `mapstructure:"path"`
		AccessKey string `mapstructure:"access_key"`
	} `mapstructure:"database"`
	Log      LogConfig `mapstructure:"log"`
	Timezone string    `mapstructure:"timezone"`
	Steam    struct {
		APIKey       string        `mapstructure:"api_key"`
		BaseURL      string        `mapstructure:"base_url"`
		TrackedGames []TrackedGame `mapstructure:"tracked_games"`
	} `mapstructure:"steam"`
	Overwatch struct {
		BaseURL           string  `mapstructure:"base_url"`
		RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	} `mapstructure:"overwatch"`
	Music struct {
		YtDlpPath   string        `mapstructure:"ytdlp_path"`
		Bitrate     int           `mapstructure:"bitrate"`
		IdleTimeout time.Duration `mapstructure:"idle_timeout"`
		MaxRetries  int           `mapstructure:"max_retries"`
		RetryDelay  time.Duration `mapstructure:"retry_delay"`
	} `mapstructure:"music"`
	Web struct {
		Enabled       bool   `mapstructure:"enabled"`
		Addr          string `mapstructure:"addr"`
		ClientID      string `mapstructure:"client_id"`
		ClientSecret  string `mapstructure:"client_secret"`
		RedirectURI   string `mapstructure:"redirect_uri"`
		SessionSecret string `mapstructure:"session_secret"`
	} `mapstructure:"web"`
	Filter struct {
		Enabled bool     `mapstructure:"enabled"`
		Words   []string `mapstructure:"words"`
	} `mapstructure:"filter"`
}

// LogConfig はログ出力の設定です。
type LogConfig struct {
	File       string `mapstructure:"file"`
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"` // json または text
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// TrackedGame は /steam で個別にプレイ時間を表示するゲームです。
type TrackedGame struct {
	AppID int    `mapstructure:"app_id"`
	Name  string `mapstructure:"name"`
}

var Cfg *Config

func setDefaults(v *viper.Viper) {
	v.SetDefault("discord.token", "")
	v.SetDefault("discord.app_id", "")
	v.SetDefault("discord.guild_id", "")

	v.SetDefault("database.path", "./nabi.db")
	v.SetDefault("database.access_key", "")

	v.SetDefault("log.file", "nabi.log")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 30)

	v.SetDefault("timezone", "Asia/Seoul")

	v.SetDefault("steam.api_key", "")
	v.SetDefault("steam.base_url", "https://api.steampowered.com")
	v.SetDefault("steam.tracked_games", []map[string]any{
		{"app_id": 578080, "name": "PUBG: BATTLEGROUNDS"},
		{"app_id": 1568590, "name": "Goose Goose Duck"},
	})

	v.SetDefault("overwatch.base_url", "https://overfast-api.tekrop.fr")
	v.SetDefault("overwatch.requests_per_second", 1.0)

	v.SetDefault("music.ytdlp_path", "yt-dlp")
	v.SetDefault("music.bitrate", 96)
	v.SetDefault("music.idle_timeout", 3*time.Minute)
	v.SetDefault("music.max_retries", 2)
	v.SetDefault("music.retry_delay", 2*time.Second)

	v.SetDefault("web.enabled", false)
	v.SetDefault("web.addr", ":8080")
	v.SetDefault("web.client_id", "")
	v.SetDefault("web.client_secret", "")
	v.SetDefault("web.redirect_uri", "http://localhost:8080/api/auth/callback")
	v.SetDefault("web.session_secret", "")

	v.SetDefault("filter.enabled", false)
	v.SetDefault("filter.words", []string{})
}

// Load は設定ファイルと環境変数から設定を読み込み、Cfg にも保存します。
// path が空の場合はカレントディレクトリの config.yaml を探します。
// 設定ファイルが見つからなくても、デフォルト値と環境変数だけで起動できます。
func Load(path string) (*Config, error) {
	// .env は任意
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("設定ファイルの読み込みに失敗しました: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("設定の解析に失敗しました: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	Cfg = cfg
	return cfg, nil
}

// Validate は起動に必須ではない項目も含めて値の整合性を確認します。
func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("timezone %q が不正です: %w", c.Timezone, err)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log.format は json か text である必要があります: %q", c.Log.Format)
	}
	if c.Overwatch.RequestsPerSecond <= 0 {
		return errors.New("overwatch.requests_per_second は正の値である必要があります")
	}
	if c.Music.MaxRetries < 0 {
		return errors.New("music.max_retries は0以上である必要があります")
	}
	if c.Web.Enabled && c.Web.SessionSecret == "" {
		return errors.New("web.enabled の場合は web.session_secret が必要です")
	}
	return nil
}

// Location は設定されたタイムゾーンを返します。Validate 済みであることが前提です。
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// RequireToken はBotの起動に必要なトークンが設定されているか確認します。
func (c *Config) RequireToken() error {
	if c.Discord.Token == "" || c.Discord.Token == "YOUR_DISCORD_BOT_TOKEN_HERE" {
		return errors.New("DiscordのBotトークンが設定されていません。config.yaml か NABI_DISCORD_TOKEN を確認してください")
	}
	return nil
}
