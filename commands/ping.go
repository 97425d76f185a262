package commands

import (
	"fmt"
	"time"

	"nabi/interfaces"
	"nabi/metrics"

	"github.com/bwmarrin/discordgo"
)

// PingCommand は /ping (핑) を処理します。応答速度と稼働時間を測定します。
type PingCommand struct {
	StartTime time.Time
	Store     interfaces.DataStore
	Log       interfaces.Logger
}

func (c *PingCommand) GetCommandDef() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:                     "ping",
		NameLocalizations:        ko("핑"),
		Description:              "Measure bot latency and uptime",
		DescriptionLocalizations: ko("봇의 응답 속도와 가동 시간을 확인합니다"),
	}
}

func (c *PingCommand) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) {
	// 1. API応答時間を測定するため、先に応答を保留する
	apiStart := time.Now()
	if err := deferResponse(s, i, false); err != nil {
		c.Log.Error("pingコマンドの初期応答に失敗しました", "error", err)
		return
	}
	apiLatency := time.Since(apiStart)

	// 2. データベースの応答時間を測定
	dbStart := time.Now()
	dbErr := metrics.MeasureStore(c.Store.Ping)
	dbLatency := time.Since(dbStart)
	if dbErr != nil {
		c.Log.Warn("データベースのpingに失敗しました", "error", dbErr)
	}

	embed := pingEmbed(s.HeartbeatLatency(), apiLatency, dbLatency, dbErr == nil, time.Since(c.StartTime))
	if err := editEmbedResponse(s, i, embed, nil); err != nil {
		c.Log.Error("pingの結果の送信に失敗しました", "error", err)
	}
}

func pingEmbed(gateway, api, db time.Duration, dbOK bool, uptime time.Duration) *discordgo.MessageEmbed {
	color := ColorGreen
	if gateway > 150*time.Millisecond || api > 300*time.Millisecond {
		color = ColorOrange
	}
	if gateway > 400*time.Millisecond || api > 600*time.Millisecond || !dbOK {
		color = ColorRed
	}
	dbStatus := "✅ 정상"
	if !dbOK {
		dbStatus = "❌ 이상"
		db = 0
	}

	return &discordgo.MessageEmbed{
		Title: "🏓 Pong!",
		Color: color,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "게이트웨이", Value: fmt.Sprintf("```%s```", gateway.Round(time.Millisecond)), Inline: true},
			{Name: "API 응답", Value: fmt.Sprintf("```%s```", api.Round(time.Millisecond)), Inline: true},
			{Name: "데이터베이스", Value: fmt.Sprintf("```%s (%s)```", dbStatus, db.Round(time.Microsecond)), Inline: true},
			{Name: "가동 시간", Value: fmt.Sprintf("```%s```", formatUptime(uptime))},
		},
	}
}

// formatUptime は稼働時間を「X일 Y시간 Z분」の形式に変換します。
func formatUptime(d time.Duration) string {
	d = d.Round(time.Minute)
	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	return fmt.Sprintf("%d일 %d시간 %d분", days, h, m)
}

func (c *PingCommand) HandleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {}
func (c *PingCommand) HandleModal(s *discordgo.Session, i *discordgo.InteractionCreate)     {}
func (c *PingCommand) GetComponentIDs() []string                                            { return []string{} }
func (c *PingCommand) GetCategory() string                                                  { return "유틸리티" }
