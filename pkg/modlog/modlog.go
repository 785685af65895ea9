// Package modlog posts moderation records to the configured log channel and
// mirrors them as events for other services. Every post is best effort: a
// failure is logged and never reaches the caller.
package modlog

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/PancyStudios/PancyModGo/pkg/filter"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/metrics"
	"github.com/bwmarrin/discordgo"
)

const (
	TopicModeration = "pancymod/events/moderation"
	TopicFilter     = "pancymod/events/filter"
)

// Sender is the part of the Discord session used to post log entries.
type Sender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Publisher forwards events to a message broker.
type Publisher interface {
	Publish(topic string, payload interface{}) error
}

// Event is the broker payload for a moderation action or filter hit.
type Event struct {
	Type        string    `json:"type"`
	GuildID     string    `json:"guildId,omitempty"`
	ChannelID   string    `json:"channelId,omitempty"`
	ModeratorID string    `json:"moderatorId,omitempty"`
	TargetID    string    `json:"targetId,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	Minutes     int64     `json:"minutes,omitempty"`
	Content     string    `json:"content,omitempty"`
	Match       string    `json:"match,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Logger writes to one log channel.
type Logger struct {
	channelID string
	publisher Publisher
	dedup     *Deduper
	now       func() time.Time
}

// New creates a Logger. publisher may be nil.
func New(channelID string, publisher Publisher, dedup *Deduper) *Logger {
	if dedup == nil {
		dedup = NewDeduper(DefaultWindow)
	}
	return &Logger{
		channelID: channelID,
		publisher: publisher,
		dedup:     dedup,
		now:       time.Now,
	}
}

// ChannelID returns the log channel.
func (l *Logger) ChannelID() string {
	return l.channelID
}

// Action records a successful moderation action: a text line in the log
// channel, a broker event and a counter.
func (l *Logger) Action(s Sender, ev Event, text string) {
	metrics.ModerationActionsTotal.WithLabelValues(ev.Type).Inc()

	if l.channelID != "" {
		if _, err := s.ChannelMessageSend(l.channelID, text); err != nil {
			logger.Warn(fmt.Sprintf("No se pudo enviar el log de %s: %v", ev.Type, err), "ModLog")
		}
	}

	if ev.Timestamp.IsZero() {
		ev.Timestamp = l.now().UTC()
	}
	l.publish(TopicModeration, ev)
}

// Profanity records a flagged message, at most once per message id inside
// the dedup window. It reports whether anything was posted.
func (l *Logger) Profanity(s Sender, m *discordgo.Message, res filter.Result) bool {
	if l.dedup.Seen(m.ID) {
		metrics.ModlogDuplicatesTotal.Inc()
		logger.Debug("Log duplicado omitido para el mensaje "+m.ID, "ModLog")
		return false
	}

	authorID, authorTag := "", "unknown"
	if m.Author != nil {
		authorID, authorTag = m.Author.ID, m.Author.String()
	}

	if l.channelID != "" {
		embed := &discordgo.MessageEmbed{
			Title: "🚫 Message removed",
			Color: 0xE74C3C,
			Fields: []*discordgo.MessageEmbedField{
				{Name: "Author", Value: fmt.Sprintf("%s (<@%s>)", authorTag, authorID), Inline: true},
				{Name: "Channel", Value: fmt.Sprintf("<#%s>", m.ChannelID), Inline: true},
				{Name: "Content", Value: truncate(m.Content, 1000)},
			},
			Footer:    &discordgo.MessageEmbedFooter{Text: "Message ID: " + m.ID},
			Timestamp: l.now().Format(time.RFC3339),
		}
		if res.Match != "" {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Matched", Value: "||" + res.Match + "||", Inline: true})
		}
		if _, err := s.ChannelMessageSendEmbed(l.channelID, embed); err != nil {
			logger.Warn(fmt.Sprintf("No se pudo enviar el log del filtro: %v", err), "ModLog")
		}
	}

	l.publish(TopicFilter, Event{
		Type:      "filter",
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		TargetID:  authorID,
		Content:   m.Content,
		Match:     res.Match,
		Timestamp: l.now().UTC(),
	})
	return true
}

func (l *Logger) publish(topic string, ev Event) {
	if l.publisher == nil {
		return
	}
	if err := l.publisher.Publish(topic, ev); err != nil {
		logger.Warn(fmt.Sprintf("No se pudo publicar el evento %s: %v", ev.Type, err), "ModLog")
	}
}

func truncate(s string, n int) string {
	if s == "" {
		return "*empty*"
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "…"
}
