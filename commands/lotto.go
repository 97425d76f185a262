package commands

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

// LottoCommand は /lotto (로또번호) を処理します。
type LottoCommand struct {
	Rand *rand.Rand
	Now  func() time.Time
}

func (c *LottoCommand) GetCommandDef() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:                     "lotto",
		NameLocalizations:        ko("로또번호"),
		Description:              "Generate Lotto 6/45 numbers",
		DescriptionLocalizations: ko("로또 6/45 번호를 랜덤으로 생성합니다"),
	}
}

// drawLotto は1から45までを Fisher-Yates で並べ替え、先頭6個を昇順で、7個目をボーナスとして返します。
func drawLotto(r *rand.Rand) (numbers []int, bonus int) {
	pool := make([]int, 45)
	for n := range pool {
		pool[n] = n + 1
	}
	shuffle := rand.Shuffle
	if r != nil {
		shuffle = r.Shuffle
	}
	shuffle(len(pool), func(a, b int) { pool[a], pool[b] = pool[b], pool[a] })

	numbers = slices.Clone(pool[:6])
	slices.Sort(numbers)
	return numbers, pool[6]
}

// lottoBall は番号帯ごとの色付きの玉で番号を表示します。
func lottoBall(n int) string {
	var ball string
	switch {
	case n <= 10:
		ball = "🟡"
	case n <= 20:
		ball = "🔵"
	case n <= 30:
		ball = "🔴"
	case n <= 40:
		ball = "⚫"
	default:
		ball = "🟢"
	}
	return fmt.Sprintf("%s **%d**", ball, n)
}

func buildLottoEmbed(numbers []int, bonus int, user *discordgo.User, at time.Time) *discordgo.MessageEmbed {
	balls := make([]string, len(numbers))
	for idx, n := range numbers {
		balls[idx] = lottoBall(n)
	}

	embed := &discordgo.MessageEmbed{
		Title:       "🎰 로또 6/45 번호 생성",
		Description: "**행운의 번호가 생성되었습니다!**",
		Color:       ColorSpotify,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "🎯 당첨 번호", Value: strings.Join(balls, " ")},
			{Name: "⭐ 보너스 번호", Value: lottoBall(bonus)},
		},
		Timestamp: at.Format(time.RFC3339),
	}
	if user != nil {
		embed.Footer = &discordgo.MessageEmbedFooter{
			Text:    fmt.Sprintf("%s님의 행운을 빕니다! • 생성 시간", user.Username),
			IconURL: user.AvatarURL(""),
		}
	}
	return embed
}

func (c *LottoCommand) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) {
	now := time.Now()
	if c.Now != nil {
		now = c.Now()
	}
	numbers, bonus := drawLotto(c.Rand)
	sendEmbedResponse(s, i, buildLottoEmbed(numbers, bonus, interactionUser(i), now))
}

func (c *LottoCommand) HandleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {}
func (c *LottoCommand) HandleModal(s *discordgo.Session, i *discordgo.InteractionCreate)     {}
func (c *LottoCommand) GetComponentIDs() []string                                            { return []string{} }
func (c *LottoCommand) GetCategory() string                                                  { return "재미" }
