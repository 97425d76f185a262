package handlers

import (
	"nabi/commands"
	"nabi/interfaces"

	"github.com/bwmarrin/discordgo"
)

// EventHandler は Gateway イベントをコマンドや各機能に振り分けます。
type EventHandler struct {
	Registry *commands.Registry
	Log      interfaces.Logger
	Filter   *WordFilter

	DirectMessages interfaces.DirectMessageHandler
	Voice          interfaces.VoiceStateHandler
}

func NewEventHandler(reg *commands.Registry, log interfaces.Logger, filter *WordFilter) *EventHandler {
	h := &EventHandler{Registry: reg, Log: log, Filter: filter}
	if reg != nil {
		if reg.League != nil {
			h.DirectMessages = reg.League
		}
		if reg.Music != nil {
			h.Voice = reg.Music
		}
	}
	return h
}

func (h *EventHandler) RegisterAllHandlers(s *discordgo.Session) {
	s.AddHandler(h.onReady)
	s.AddHandler(h.OnInteractionCreate)
	s.AddHandler(h.OnMessageCreate)
	s.AddHandler(h.onVoiceStateUpdate)
}

func (h *EventHandler) onReady(s *discordgo.Session, r *discordgo.Ready) {
	h.Log.Info("ボットの準備ができました", "user", r.User.String(), "guilds", len(r.Guilds))
	if err := s.UpdateGameStatus(0, ReadyStatus); err != nil {
		h.Log.Warn("ステータスの更新に失敗しました", "error", err)
	}
}

// OnInteractionCreate は、すべてのインタラクションを処理する中央ハブです。
func (h *EventHandler) OnInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		name := i.ApplicationCommandData().Name
		if handler, ok := h.Registry.Commands[name]; ok {
			handler.Handle(s, i)
		} else {
			h.Log.Warn("不明なコマンドを受信しました", "command", name)
		}
	case discordgo.InteractionMessageComponent:
		customID := i.MessageComponentData().CustomID
		if handler, ok := h.Registry.ComponentHandler(customID); ok {
			handler.HandleComponent(s, i)
		} else {
			h.Log.Warn("不明なコンポーネント操作を受信しました", "customID", customID)
		}
	case discordgo.InteractionModalSubmit:
		customID := i.ModalSubmitData().CustomID
		if handler, ok := h.Registry.ComponentHandler(customID); ok {
			handler.HandleModal(s, i)
		} else {
			h.Log.Warn("不明なモーダル送信を受信しました", "customID", customID)
		}
	}
}

// OnMessageCreate はDMをバンピックに回し、サーバーのメッセージには禁止語フィルターを適用します。
func (h *EventHandler) OnMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	if s.State.User != nil && m.Author.ID == s.State.User.ID {
		return
	}

	if m.GuildID == "" {
		if h.DirectMessages != nil {
			h.DirectMessages.HandleDirectMessage(s, m)
		}
		return
	}

	if h.Filter.Match(m.Content) {
		if _, err := s.ChannelMessageSendReply(m.ChannelID, FilterWarning, m.Reference()); err != nil {
			h.Log.Warn("警告メッセージの送信に失敗しました", "error", err, "channelID", m.ChannelID)
		}
	}
}

func (h *EventHandler) onVoiceStateUpdate(s *discordgo.Session, v *discordgo.VoiceStateUpdate) {
	if h.Voice != nil {
		h.Voice.HandleVoiceStateUpdate(s, v)
	}
}
