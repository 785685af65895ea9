// Package events provides event handlers for message events
package events

import (
	"fmt"

	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/errors"
	"github.com/PancyStudios/PancyModGo/pkg/filter"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/metrics"
	"github.com/PancyStudios/PancyModGo/pkg/modlog"
	"github.com/bwmarrin/discordgo"
)

// messageREST is the part of the session the filter uses.
type messageREST interface {
	modlog.Sender
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
}

// messageFilter removes profane guild messages and logs them.
type messageFilter struct {
	filter *filter.Filter
	log    *modlog.Logger
}

// RegisterMessageEvents registers the filter for new and edited messages
func RegisterMessageEvents(client *discord.ExtendedClient, f *filter.Filter, log *modlog.Logger) {
	mf := &messageFilter{filter: f, log: log}
	client.EventHandler.OnMessageCreate(mf.onMessageCreate)
	client.EventHandler.OnMessageUpdate(mf.onMessageUpdate)
}

func (mf *messageFilter) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	defer errors.RecoverMiddleware()()
	mf.handle(s, m.Message)
}

// onMessageUpdate re-checks edits. Updates without content carry no text to check.
func (mf *messageFilter) onMessageUpdate(s *discordgo.Session, m *discordgo.MessageUpdate) {
	defer errors.RecoverMiddleware()()
	mf.handle(s, m.Message)
}

// handle reports whether m was flagged.
func (mf *messageFilter) handle(rest messageREST, m *discordgo.Message) bool {
	if m == nil || m.Author == nil || m.Author.Bot || m.GuildID == "" || m.Content == "" {
		return false
	}

	res := mf.filter.Check(m.Content)
	if !res.Flagged {
		if res.Whitelisted != "" {
			logger.Debug("Mensaje permitido por la lista blanca: "+m.ID, "Filter")
		}
		return false
	}

	metrics.FilterHitsTotal.Inc()
	logger.Info(fmt.Sprintf("🚫 Mensaje de %s marcado en %s", m.Author.ID, m.ChannelID), "Filter")

	if err := rest.ChannelMessageDelete(m.ChannelID, m.ID); err != nil {
		logger.Warn(fmt.Sprintf("No se pudo borrar el mensaje %s: %v", m.ID, err), "Filter")
	}

	mf.log.Profanity(rest, m, res)
	return true
}
