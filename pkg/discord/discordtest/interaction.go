package discordtest

import (
	"github.com/bwmarrin/discordgo"
)

// InteractionBuilder assembles slash command interactions the way the
// gateway delivers them, resolved payload included.
type InteractionBuilder struct {
	i    *discordgo.Interaction
	data discordgo.ApplicationCommandInteractionData
}

// Command starts an interaction for the named command.
func Command(name string) *InteractionBuilder {
	return &InteractionBuilder{
		i: &discordgo.Interaction{
			ID:   "interaction-" + name,
			Type: discordgo.InteractionApplicationCommand,
		},
		data: discordgo.ApplicationCommandInteractionData{
			Name: name,
			Resolved: &discordgo.ApplicationCommandInteractionDataResolved{
				Users:    map[string]*discordgo.User{},
				Members:  map[string]*discordgo.Member{},
				Roles:    map[string]*discordgo.Role{},
				Channels: map[string]*discordgo.Channel{},
			},
		},
	}
}

// InGuild sets the guild and channel the command was used in.
func (b *InteractionBuilder) InGuild(guildID, channelID string) *InteractionBuilder {
	b.i.GuildID = guildID
	b.i.ChannelID = channelID
	return b
}

// InDM marks the command as sent from a direct message by user.
func (b *InteractionBuilder) InDM(user *discordgo.User) *InteractionBuilder {
	b.i.GuildID = ""
	b.i.Member = nil
	b.i.User = user
	return b
}

// By sets the invoking member and their channel permissions.
func (b *InteractionBuilder) By(user *discordgo.User, perms int64, roles ...string) *InteractionBuilder {
	b.i.Member = &discordgo.Member{User: user, Roles: roles, Permissions: perms}
	b.i.User = nil
	return b
}

// BotPermissions sets the application's permissions in the channel.
func (b *InteractionBuilder) BotPermissions(perms int64) *InteractionBuilder {
	b.i.AppPermissions = perms
	return b
}

// UserOption adds a user option. member may be nil for users outside the guild.
func (b *InteractionBuilder) UserOption(name string, user *discordgo.User, member *discordgo.Member) *InteractionBuilder {
	b.data.Options = append(b.data.Options, &discordgo.ApplicationCommandInteractionDataOption{
		Name: name, Type: discordgo.ApplicationCommandOptionUser, Value: user.ID,
	})
	b.data.Resolved.Users[user.ID] = user
	if member != nil {
		m := *member
		m.User = nil
		b.data.Resolved.Members[user.ID] = &m
	}
	return b
}

// RoleOption adds a role option.
func (b *InteractionBuilder) RoleOption(name string, role *discordgo.Role) *InteractionBuilder {
	b.data.Options = append(b.data.Options, &discordgo.ApplicationCommandInteractionDataOption{
		Name: name, Type: discordgo.ApplicationCommandOptionRole, Value: role.ID,
	})
	b.data.Resolved.Roles[role.ID] = role
	return b
}

// ChannelOption adds a channel option. Resolved channels carry no overwrites.
func (b *InteractionBuilder) ChannelOption(name string, ch *discordgo.Channel) *InteractionBuilder {
	b.data.Options = append(b.data.Options, &discordgo.ApplicationCommandInteractionDataOption{
		Name: name, Type: discordgo.ApplicationCommandOptionChannel, Value: ch.ID,
	})
	b.data.Resolved.Channels[ch.ID] = &discordgo.Channel{ID: ch.ID, Name: ch.Name, Type: ch.Type}
	return b
}

// StringOption adds a string option.
func (b *InteractionBuilder) StringOption(name, value string) *InteractionBuilder {
	b.data.Options = append(b.data.Options, &discordgo.ApplicationCommandInteractionDataOption{
		Name: name, Type: discordgo.ApplicationCommandOptionString, Value: value,
	})
	return b
}

// IntOption adds an integer option. The gateway sends numbers as float64.
func (b *InteractionBuilder) IntOption(name string, value int64) *InteractionBuilder {
	b.data.Options = append(b.data.Options, &discordgo.ApplicationCommandInteractionDataOption{
		Name: name, Type: discordgo.ApplicationCommandOptionInteger, Value: float64(value),
	})
	return b
}

// Build returns the interaction event.
func (b *InteractionBuilder) Build() *discordgo.InteractionCreate {
	i := *b.i
	i.Data = b.data
	return &discordgo.InteractionCreate{Interaction: &i}
}
