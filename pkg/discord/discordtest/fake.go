// Package discordtest provides an in-memory Discord REST fake and an
// interaction builder for command tests.
package discordtest

import (
	"errors"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
)

// ErrNotFound is returned for unknown guilds, members and channels.
var ErrNotFound = errors.New("discordtest: not found")

// Call records one REST invocation.
type Call struct {
	Method string
	Args   []interface{}
}

// Message is something posted to a channel.
type Message struct {
	ChannelID string
	Content   string
	Embed     *discordgo.MessageEmbed
}

// FakeREST implements the REST surface used by the bot over in-memory state.
type FakeREST struct {
	mu sync.Mutex

	guilds   map[string]*discordgo.Guild
	members  map[string]*discordgo.Member
	channels map[string]*discordgo.Channel

	// Errors makes the named method fail.
	Errors map[string]error

	responses []*discordgo.InteractionResponse
	calls     []Call
	messages  []Message
}

// NewFakeREST creates an empty fake.
func NewFakeREST() *FakeREST {
	return &FakeREST{
		guilds:   make(map[string]*discordgo.Guild),
		members:  make(map[string]*discordgo.Member),
		channels: make(map[string]*discordgo.Channel),
		Errors:   make(map[string]error),
	}
}

func memberKey(guildID, userID string) string {
	return guildID + ":" + userID
}

// AddGuild stores g.
func (f *FakeREST) AddGuild(g *discordgo.Guild) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.guilds[g.ID] = g
}

// AddMember stores m in guildID.
func (f *FakeREST) AddMember(guildID string, m *discordgo.Member) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m.GuildID = guildID
	f.members[memberKey(guildID, m.User.ID)] = m
}

// AddChannel stores ch.
func (f *FakeREST) AddChannel(ch *discordgo.Channel) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.channels[ch.ID] = ch
}

// Member returns the stored member.
func (f *FakeREST) Member(guildID, userID string) *discordgo.Member {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.members[memberKey(guildID, userID)]
}

// Responses returns every interaction response sent so far.
func (f *FakeREST) Responses() []*discordgo.InteractionResponse {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*discordgo.InteractionResponse{}, f.responses...)
}

// LastResponse returns the most recent interaction response, or nil.
func (f *FakeREST) LastResponse() *discordgo.InteractionResponse {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.responses) == 0 {
		return nil
	}
	return f.responses[len(f.responses)-1]
}

// LastContent returns the content of the most recent interaction response.
func (f *FakeREST) LastContent() string {
	r := f.LastResponse()
	if r == nil || r.Data == nil {
		return ""
	}
	return r.Data.Content
}

// LastEphemeral reports whether the most recent response was ephemeral.
func (f *FakeREST) LastEphemeral() bool {
	r := f.LastResponse()
	return r != nil && r.Data != nil && r.Data.Flags&discordgo.MessageFlagsEphemeral != 0
}

// Calls returns the recorded calls to method.
func (f *FakeREST) Calls(method string) []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Call
	for _, c := range f.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// Messages returns everything posted to channelID.
func (f *FakeREST) Messages(channelID string) []Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Message
	for _, m := range f.messages {
		if m.ChannelID == channelID {
			out = append(out, m)
		}
	}
	return out
}

// record stores the call and returns the configured error for method.
func (f *FakeREST) record(method string, args ...interface{}) error {
	f.calls = append(f.calls, Call{Method: method, Args: args})
	return f.Errors[method]
}

func (f *FakeREST) InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("InteractionRespond", interaction.ID); err != nil {
		return err
	}
	f.responses = append(f.responses, resp)
	return nil
}

func (f *FakeREST) Guild(guildID string, _ ...discordgo.RequestOption) (*discordgo.Guild, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("Guild", guildID); err != nil {
		return nil, err
	}
	g, ok := f.guilds[guildID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *g
	return &cp, nil
}

func (f *FakeREST) GuildRoles(guildID string, _ ...discordgo.RequestOption) ([]*discordgo.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("GuildRoles", guildID); err != nil {
		return nil, err
	}
	g, ok := f.guilds[guildID]
	if !ok {
		return nil, ErrNotFound
	}
	return g.Roles, nil
}

func (f *FakeREST) GuildMember(guildID, userID string, _ ...discordgo.RequestOption) (*discordgo.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("GuildMember", guildID, userID); err != nil {
		return nil, err
	}
	m, ok := f.members[memberKey(guildID, userID)]
	if !ok {
		return nil, ErrNotFound
	}
	return m, nil
}

func (f *FakeREST) GuildMemberRoleAdd(guildID, userID, roleID string, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("GuildMemberRoleAdd", guildID, userID, roleID); err != nil {
		return err
	}
	if m, ok := f.members[memberKey(guildID, userID)]; ok {
		for _, r := range m.Roles {
			if r == roleID {
				return nil
			}
		}
		m.Roles = append(m.Roles, roleID)
	}
	return nil
}

func (f *FakeREST) GuildMemberRoleRemove(guildID, userID, roleID string, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("GuildMemberRoleRemove", guildID, userID, roleID); err != nil {
		return err
	}
	if m, ok := f.members[memberKey(guildID, userID)]; ok {
		roles := m.Roles[:0]
		for _, r := range m.Roles {
			if r != roleID {
				roles = append(roles, r)
			}
		}
		m.Roles = roles
	}
	return nil
}

func (f *FakeREST) GuildBanCreateWithReason(guildID, userID, reason string, days int, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("GuildBanCreateWithReason", guildID, userID, reason, days); err != nil {
		return err
	}
	delete(f.members, memberKey(guildID, userID))
	return nil
}

func (f *FakeREST) GuildMemberDeleteWithReason(guildID, userID, reason string, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("GuildMemberDeleteWithReason", guildID, userID, reason); err != nil {
		return err
	}
	delete(f.members, memberKey(guildID, userID))
	return nil
}

func (f *FakeREST) GuildMemberTimeout(guildID string, userID string, until *time.Time, options ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("GuildMemberTimeout", guildID, userID, until, len(options)); err != nil {
		return err
	}
	if m, ok := f.members[memberKey(guildID, userID)]; ok {
		m.CommunicationDisabledUntil = until
	}
	return nil
}

func (f *FakeREST) Channel(channelID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("Channel", channelID); err != nil {
		return nil, err
	}
	ch, ok := f.channels[channelID]
	if !ok {
		return nil, ErrNotFound
	}
	return ch, nil
}

func (f *FakeREST) ChannelPermissionSet(channelID, targetID string, targetType discordgo.PermissionOverwriteType, allow, deny int64, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ChannelPermissionSet", channelID, targetID, targetType, allow, deny); err != nil {
		return err
	}
	ch, ok := f.channels[channelID]
	if !ok {
		return ErrNotFound
	}
	for _, o := range ch.PermissionOverwrites {
		if o.ID == targetID {
			o.Type, o.Allow, o.Deny = targetType, allow, deny
			return nil
		}
	}
	ch.PermissionOverwrites = append(ch.PermissionOverwrites, &discordgo.PermissionOverwrite{
		ID: targetID, Type: targetType, Allow: allow, Deny: deny,
	})
	return nil
}

func (f *FakeREST) ChannelMessageSend(channelID string, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ChannelMessageSend", channelID, content); err != nil {
		return nil, err
	}
	f.messages = append(f.messages, Message{ChannelID: channelID, Content: content})
	return &discordgo.Message{ChannelID: channelID, Content: content}, nil
}

func (f *FakeREST) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ChannelMessageSendEmbed", channelID, embed); err != nil {
		return nil, err
	}
	f.messages = append(f.messages, Message{ChannelID: channelID, Embed: embed})
	return &discordgo.Message{ChannelID: channelID, Embeds: []*discordgo.MessageEmbed{embed}}, nil
}

func (f *FakeREST) ChannelMessageDelete(channelID, messageID string, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.record("ChannelMessageDelete", channelID, messageID)
}
