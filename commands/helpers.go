package commands

import (
	"github.com/bwmarrin/discordgo"
)

// Embed Colors
const (
	ColorBlue      = 0x3498db
	ColorGreen     = 0x2ecc71
	ColorRed       = 0xf04747
	ColorOrange    = 0xe67e22
	ColorGray      = 0x95a5a6
	ColorGold      = 0xffd700
	ColorSpotify   = 0x1DB954
	ColorOverwatch = 0xf99e1a
	ColorSteam     = 0x1b2838
	ColorBlurple   = 0x5865F2
)

func int64Ptr(i int64) *int64 {
	return &i
}

func intPtr(i int) *int {
	return &i
}

func strPtr(s string) *string {
	return &s
}

// ko はコマンド名の韓国語ローカライズを返します。
func ko(name string) *map[discordgo.Locale]string {
	return &map[discordgo.Locale]string{discordgo.Korean: name}
}

// koOpt はオプション名の韓国語ローカライズを返します。
func koOpt(name string) map[discordgo.Locale]string {
	return map[discordgo.Locale]string{discordgo.Korean: name}
}

// interactionUser はサーバー内でもDMでもコマンドを実行したユーザーを返します。
func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

func hasPermission(i *discordgo.InteractionCreate, perm int64) bool {
	if i.Member == nil {
		return false
	}
	return i.Member.Permissions&discordgo.PermissionAdministrator != 0 || i.Member.Permissions&perm != 0
}

func sendErrorResponse(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{{
				Description: "❌ " + message,
				Color:       ColorRed,
			}},
			Flags: discordgo.MessageFlagsEphemeral,
		},
	})
}

func sendEmbedResponse(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) {
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
}

func sendEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

// deferResponse は時間のかかる処理の前に「考え中」の応答を返します。
func deferResponse(s *discordgo.Session, i *discordgo.InteractionCreate, ephemeral bool) error {
	data := &discordgo.InteractionResponseData{}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: data,
	})
}

// editEmbedResponse は deferResponse した応答を embed で置き換えます。
func editEmbedResponse(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) error {
	edit := &discordgo.WebhookEdit{
		Content: strPtr(""),
		Embeds:  &[]*discordgo.MessageEmbed{embed},
	}
	if components != nil {
		edit.Components = &components
	}
	_, err := s.InteractionResponseEdit(i.Interaction, edit)
	return err
}

// updateMessage はコンポーネントが付いているメッセージ自体を書き換えます。
func updateMessage(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) error {
	if components == nil {
		components = []discordgo.MessageComponent{}
	}
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: components,
		},
	})
}

// textModal は1行入力のモーダルを開きます。
func textModal(s *discordgo.Session, i *discordgo.InteractionCreate, customID, title, label, placeholder string, maxLength int) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: customID,
			Title:    title,
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.TextInput{
							CustomID:    "value",
							Label:       label,
							Style:       discordgo.TextInputShort,
							Placeholder: placeholder,
							Required:    true,
							MaxLength:   maxLength,
						},
					},
				},
			},
		},
	})
}

// modalValue はモーダルの最初の入力欄の値を返します。
func modalValue(i *discordgo.InteractionCreate) string {
	data := i.ModalSubmitData()
	if len(data.Components) == 0 {
		return ""
	}
	row, ok := data.Components[0].(*discordgo.ActionsRow)
	if !ok || len(row.Components) == 0 {
		return ""
	}
	input, ok := row.Components[0].(*discordgo.TextInput)
	if !ok {
		return ""
	}
	return input.Value
}

// userVoiceChannel はユーザーが現在いるボイスチャンネルのIDを返します。いなければ空文字です。
func userVoiceChannel(s *discordgo.Session, guildID, userID string) string {
	vs, err := s.State.VoiceState(guildID, userID)
	if err != nil || vs == nil {
		return ""
	}
	return vs.ChannelID
}

// voiceMemberIDs は channelID にいるボット以外のユーザーIDを返します。
func voiceMemberIDs(s *discordgo.Session, guildID, channelID string) []string {
	guild, err := s.State.Guild(guildID)
	if err != nil {
		return nil
	}
	s.State.RLock()
	defer s.State.RUnlock()

	var ids []string
	for _, vs := range guild.VoiceStates {
		if vs.ChannelID != channelID {
			continue
		}
		if vs.Member != nil && vs.Member.User != nil && vs.Member.User.Bot {
			continue
		}
		if s.State.User != nil && vs.UserID == s.State.User.ID {
			continue
		}
		ids = append(ids, vs.UserID)
	}
	return ids
}

// guildChannels はキャッシュからチャンネル一覧を返し、なければAPIから取得します。
func guildChannels(s *discordgo.Session, guildID string) ([]*discordgo.Channel, error) {
	if guild, err := s.State.Guild(guildID); err == nil && len(guild.Channels) > 0 {
		return guild.Channels, nil
	}
	return s.GuildChannels(guildID)
}

// memberDisplayName はサーバーニックネーム、表示名、ユーザー名の順で名前を選びます。
func memberDisplayName(m *discordgo.Member) string {
	if m == nil || m.User == nil {
		return "신원미상"
	}
	if m.Nick != "" {
		return m.Nick
	}
	if m.User.GlobalName != "" {
		return m.User.GlobalName
	}
	return m.User.Username
}

// lookupMember はキャッシュにいなければAPIからメンバーを取得します。
func lookupMember(s *discordgo.Session, guildID, userID string) *discordgo.Member {
	if m, err := s.State.Member(guildID, userID); err == nil {
		return m
	}
	m, err := s.GuildMember(guildID, userID)
	if err != nil {
		return nil
	}
	return m
}

// optionMap はサブコマンドのオプションを名前で引けるようにします。
func optionMap(opts []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(opts))
	for _, opt := range opts {
		m[opt.Name] = opt
	}
	return m
}
