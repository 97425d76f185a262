package commands

import (
	"fmt"
	"sort"
	"strings"

	"nabi/interfaces"

	"github.com/bwmarrin/discordgo"
)

// HelpCommand は /help (도움말) を処理します。登録済みのコマンドをカテゴリ別に表示します。
type HelpCommand struct {
	AllCommands map[string]interfaces.CommandHandler
}

func (c *HelpCommand) GetCommandDef() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:                     "help",
		NameLocalizations:        ko("도움말"),
		Description:              "Show the list of commands",
		DescriptionLocalizations: ko("사용할 수 있는 명령어 목록을 보여줍니다"),
	}
}

func (c *HelpCommand) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) {
	sendEmbedResponse(s, i, helpEmbed(c.AllCommands))
}

// commandLabel は韓国語の名前と説明があればそちらを使います。
func commandLabel(def *discordgo.ApplicationCommand) string {
	name, desc := def.Name, def.Description
	if def.NameLocalizations != nil {
		if n, ok := (*def.NameLocalizations)[discordgo.Korean]; ok {
			name = n
		}
	}
	if def.DescriptionLocalizations != nil {
		if d, ok := (*def.DescriptionLocalizations)[discordgo.Korean]; ok {
			desc = d
		}
	}
	return fmt.Sprintf("`/%s` - %s", name, desc)
}

func helpEmbed(all map[string]interfaces.CommandHandler) *discordgo.MessageEmbed {
	categorized := make(map[string][]string)
	for _, h := range all {
		category := h.GetCategory()
		if category == "" {
			category = "기타"
		}
		categorized[category] = append(categorized[category], commandLabel(h.GetCommandDef()))
	}

	categories := make([]string, 0, len(categorized))
	for k := range categorized {
		categories = append(categories, k)
	}
	sort.Strings(categories)

	embed := &discordgo.MessageEmbed{
		Title:       "📖 Nabi 명령어 목록",
		Description: "사용할 수 있는 명령어는 다음과 같습니다.",
		Color:       ColorBlue,
	}
	for _, category := range categories {
		lines := categorized[category]
		sort.Strings(lines)
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  fmt.Sprintf("📂 %s", category),
			Value: strings.Join(lines, "\n"),
		})
	}
	return embed
}

func (c *HelpCommand) HandleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {}
func (c *HelpCommand) HandleModal(s *discordgo.Session, i *discordgo.InteractionCreate)     {}
func (c *HelpCommand) GetComponentIDs() []string                                            { return []string{} }
func (c *HelpCommand) GetCategory() string                                                  { return "유틸리티" }
