// Package discord provides command types and structures.
package discord

import (
	"errors"
	"time"

	pkgerrors "github.com/PancyStudios/PancyModGo/pkg/errors"
	"github.com/bwmarrin/discordgo"
)

// ErrNoGuild is returned by guild lookups on interactions sent from a DM.
var ErrNoGuild = errors.New("discord: interaction has no guild")

// CommandContext provides context for command execution
type CommandContext struct {
	Session     *discordgo.Session
	Interaction *discordgo.InteractionCreate
	Client      *ExtendedClient

	// REST is where replies and platform calls go. It is the session itself
	// outside of tests.
	REST RESTClient

	// BotID is the bot's own user id.
	BotID string
}

// Command represents a Discord slash command
type Command struct {
	Name            string
	Description     string
	Category        string
	Options         []*discordgo.ApplicationCommandOption
	UserPermissions int64
	BotPermissions  int64
	OwnerOnly       bool
	GuildOnly       bool
	// Cooldown overrides the client's default when non-zero.
	Cooldown time.Duration
	Run      CommandRunFunc
}

// CommandRunFunc is the function type for command execution
type CommandRunFunc func(ctx *CommandContext) error

// NewCommand creates a new Command with required fields
func NewCommand(name, description, category string, run CommandRunFunc) *Command {
	return &Command{
		Name:        name,
		Description: description,
		Category:    category,
		Run:         run,
	}
}

// WithOptions sets the command options
func (c *Command) WithOptions(opts ...*discordgo.ApplicationCommandOption) *Command {
	c.Options = opts
	return c
}

// WithUserPermissions sets required user permissions
func (c *Command) WithUserPermissions(perms int64) *Command {
	c.UserPermissions = perms
	return c
}

// WithBotPermissions sets required bot permissions
func (c *Command) WithBotPermissions(perms int64) *Command {
	c.BotPermissions = perms
	return c
}

// WithCooldown overrides the default per-user cooldown
func (c *Command) WithCooldown(d time.Duration) *Command {
	c.Cooldown = d
	return c
}

// AsOwnerOnly restricts the command to the bot owner
func (c *Command) AsOwnerOnly() *Command {
	c.OwnerOnly = true
	return c
}

// AsGuildOnly rejects the command outside of servers
func (c *Command) AsGuildOnly() *Command {
	c.GuildOnly = true
	return c
}

// ToApplicationCommand converts the command to a Discord application command
func (c *Command) ToApplicationCommand() *discordgo.ApplicationCommand {
	appCmd := &discordgo.ApplicationCommand{
		Name:        c.Name,
		Description: c.Description,
		Options:     c.Options,
	}
	if c.UserPermissions != 0 {
		perms := c.UserPermissions
		appCmd.DefaultMemberPermissions = &perms
	}
	if c.GuildOnly {
		appCmd.Contexts = &[]discordgo.InteractionContextType{discordgo.InteractionContextGuild}
	}
	return appCmd
}

func (ctx *CommandContext) rest() RESTClient {
	if ctx.REST != nil {
		return ctx.REST
	}
	return ctx.Session
}

// RESTClient returns the client used for platform calls
func (ctx *CommandContext) RESTClient() RESTClient {
	return ctx.rest()
}

// Reply sends a reply to the interaction
func (ctx *CommandContext) Reply(content string) error {
	return ctx.rest().InteractionRespond(ctx.Interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
		},
	})
}

// ReplyEmbed sends an embed reply to the interaction
func (ctx *CommandContext) ReplyEmbed(embed *discordgo.MessageEmbed) error {
	return ctx.rest().InteractionRespond(ctx.Interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
}

// ReplyEphemeral sends an ephemeral reply visible only to the user
func (ctx *CommandContext) ReplyEphemeral(content string) error {
	return ctx.rest().InteractionRespond(ctx.Interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

// GetOption retrieves an option value by name
func (ctx *CommandContext) GetOption(name string) *discordgo.ApplicationCommandInteractionDataOption {
	options := ctx.Interaction.ApplicationCommandData().Options
	return findOption(options, name)
}

// findOption recursively finds an option by name
func findOption(options []*discordgo.ApplicationCommandInteractionDataOption, name string) *discordgo.ApplicationCommandInteractionDataOption {
	for _, opt := range options {
		if opt.Name == name {
			return opt
		}
		if len(opt.Options) > 0 {
			if found := findOption(opt.Options, name); found != nil {
				return found
			}
		}
	}
	return nil
}

// GetStringOption retrieves a string option value
func (ctx *CommandContext) GetStringOption(name string) string {
	opt := ctx.GetOption(name)
	if opt == nil {
		return ""
	}
	return opt.StringValue()
}

// GetIntOption retrieves an integer option value
func (ctx *CommandContext) GetIntOption(name string) int64 {
	opt := ctx.GetOption(name)
	if opt == nil {
		return 0
	}
	return opt.IntValue()
}

// optionID returns the snowflake carried by a user, role, channel or
// mentionable option.
func (ctx *CommandContext) optionID(name string) string {
	opt := ctx.GetOption(name)
	if opt == nil {
		return ""
	}
	id, _ := opt.Value.(string)
	return id
}

func (ctx *CommandContext) resolved() *discordgo.ApplicationCommandInteractionDataResolved {
	data := ctx.Interaction.ApplicationCommandData()
	if data.Resolved == nil {
		return &discordgo.ApplicationCommandInteractionDataResolved{}
	}
	return data.Resolved
}

// GetUserOption retrieves a user option value, preferring the resolved
// payload sent with the interaction
func (ctx *CommandContext) GetUserOption(name string) *discordgo.User {
	id := ctx.optionID(name)
	if id == "" {
		return nil
	}
	if u, ok := ctx.resolved().Users[id]; ok {
		return u
	}
	return &discordgo.User{ID: id}
}

// GetMemberOption returns the guild member chosen in a user option, or nil
// when the user is not a member of the guild. Resolved members come without
// their user, so it is filled in from the resolved users.
func (ctx *CommandContext) GetMemberOption(name string) *discordgo.Member {
	id := ctx.optionID(name)
	if id == "" {
		return nil
	}
	res := ctx.resolved()
	m, ok := res.Members[id]
	if !ok {
		return nil
	}
	member := *m
	if member.User == nil {
		if u, ok := res.Users[id]; ok {
			member.User = u
		} else {
			member.User = &discordgo.User{ID: id}
		}
	}
	member.GuildID = ctx.Interaction.GuildID
	return &member
}

// GetChannelOption retrieves a channel option value
func (ctx *CommandContext) GetChannelOption(name string) *discordgo.Channel {
	id := ctx.optionID(name)
	if id == "" {
		return nil
	}
	if ch, ok := ctx.resolved().Channels[id]; ok {
		return ch
	}
	return &discordgo.Channel{ID: id}
}

// GetRoleOption retrieves a role option value
func (ctx *CommandContext) GetRoleOption(name string) *discordgo.Role {
	id := ctx.optionID(name)
	if id == "" {
		return nil
	}
	if r, ok := ctx.resolved().Roles[id]; ok {
		return r
	}
	return &discordgo.Role{ID: id}
}

// Guild returns the guild where the interaction occurred, from the state
// cache when it holds the roles and from the API otherwise
func (ctx *CommandContext) Guild() (*discordgo.Guild, error) {
	guildID := ctx.Interaction.GuildID
	if guildID == "" {
		return nil, ErrNoGuild
	}
	if ctx.Session != nil && ctx.Session.State != nil {
		if g, err := ctx.Session.State.Guild(guildID); err == nil && len(g.Roles) > 0 {
			return g, nil
		}
	}
	g, err := ctx.rest().Guild(guildID)
	if err != nil {
		return nil, err
	}
	if len(g.Roles) == 0 {
		if roles, err := ctx.rest().GuildRoles(guildID); err == nil {
			g.Roles = roles
		}
	}
	return g, nil
}

// GuildMember fetches a member of the interaction's guild
func (ctx *CommandContext) GuildMember(userID string) (*discordgo.Member, error) {
	guildID := ctx.Interaction.GuildID
	if guildID == "" {
		return nil, ErrNoGuild
	}
	if ctx.Session != nil && ctx.Session.State != nil {
		if m, err := ctx.Session.State.Member(guildID, userID); err == nil {
			return m, nil
		}
	}
	return ctx.rest().GuildMember(guildID, userID)
}

// BotMember fetches the bot's own member in the interaction's guild
func (ctx *CommandContext) BotMember() (*discordgo.Member, error) {
	return ctx.GuildMember(ctx.BotID)
}

// FetchChannel returns a full channel, including its permission overwrites
func (ctx *CommandContext) FetchChannel(channelID string) (*discordgo.Channel, error) {
	if ctx.Session != nil && ctx.Session.State != nil {
		if ch, err := ctx.Session.State.Channel(channelID); err == nil {
			return ch, nil
		}
	}
	return ctx.rest().Channel(channelID)
}

// scope describes this interaction for panic reports
func (ctx *CommandContext) scope(command string) pkgerrors.Scope {
	s := pkgerrors.Scope{
		Command:       command,
		GuildID:       ctx.Interaction.GuildID,
		ChannelID:     ctx.Interaction.ChannelID,
		InteractionID: ctx.Interaction.ID,
	}
	if u := ctx.User(); u != nil {
		s.UserID = u.ID
	}
	return s
}

// User returns the user who triggered the interaction
func (ctx *CommandContext) User() *discordgo.User {
	if ctx.Interaction.Member != nil {
		return ctx.Interaction.Member.User
	}
	return ctx.Interaction.User
}

// Member returns the guild member who triggered the interaction
func (ctx *CommandContext) Member() *discordgo.Member {
	return ctx.Interaction.Member
}

// InvokerPermissions returns the invoker's permissions in the channel
func (ctx *CommandContext) InvokerPermissions() int64 {
	if ctx.Interaction.Member == nil {
		return 0
	}
	return ctx.Interaction.Member.Permissions
}

// BotPermissions returns the bot's permissions in the channel
func (ctx *CommandContext) BotPermissions() int64 {
	return ctx.Interaction.AppPermissions
}
