package mod

import (
	"fmt"

	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
	"github.com/bwmarrin/discordgo"
)

// NotMemberMessage is sent when a command needs the target to be in the server.
const NotMemberMessage = "That user is not a member of this server."

// guildContext is what the hierarchy checks need to know about the guild.
type guildContext struct {
	guild   *discordgo.Guild
	botRank int
}

func loadGuildContext(ctx *discord.CommandContext) (*guildContext, error) {
	guild, err := ctx.Guild()
	if err != nil {
		return nil, fmt.Errorf("guild lookup: %w", err)
	}
	bot, err := ctx.BotMember()
	if err != nil {
		return nil, fmt.Errorf("bot member lookup: %w", err)
	}
	return &guildContext{
		guild:   guild,
		botRank: moderation.HighestPosition(bot.Roles, guild.Roles),
	}, nil
}

func (g *guildContext) rank(m *discordgo.Member) int {
	if m == nil {
		return 0
	}
	return moderation.HighestPosition(m.Roles, g.guild.Roles)
}

// role returns the guild's copy of r, which carries the current position.
func (g *guildContext) role(r *discordgo.Role) *discordgo.Role {
	for _, gr := range g.guild.Roles {
		if gr.ID == r.ID {
			return gr
		}
	}
	return r
}

// memberReplies holds the per-command wording for each refusal.
type memberReplies struct {
	invokerPermission string
	botPermission     string
	self              string
	owner             string
	botRank           string
	invokerRank       string
	failure           string
}

func (r memberReplies) forVerdict(v moderation.Verdict) string {
	switch v {
	case moderation.InvokerMissingPermission:
		return r.invokerPermission
	case moderation.BotMissingPermission:
		return r.botPermission
	case moderation.SelfTarget:
		return r.self
	case moderation.OwnerTarget:
		return r.owner
	case moderation.BotOutranked:
		return r.botRank
	case moderation.InvokerOutranked:
		return r.invokerRank
	default:
		return r.failure
	}
}

// memberTarget is a resolved and authorized moderation target.
type memberTarget struct {
	user   *discordgo.User
	member *discordgo.Member
}

// authorizeMember resolves the "member" option and applies the member policy.
// A nil target means the refusal has already been sent.
func authorizeMember(ctx *discord.CommandContext, command string, required int64, needMember bool, r memberReplies) (*memberTarget, error) {
	user := ctx.GetUserOption("member")
	if user == nil {
		return nil, ctx.ReplyEphemeral(r.failure)
	}
	member := ctx.GetMemberOption("member")

	gc, err := loadGuildContext(ctx)
	if err != nil {
		logger.Error(fmt.Sprintf("Error preparando /%s: %v", command, err), "Mod")
		return nil, ctx.ReplyEphemeral(r.failure)
	}

	invoker := ctx.User()
	verdict := moderation.CheckMemberAction(moderation.MemberAction{
		Required:      required,
		InvokerID:     invoker.ID,
		InvokerPerms:  ctx.InvokerPermissions(),
		InvokerRank:   gc.rank(ctx.Member()),
		BotPerms:      ctx.BotPermissions(),
		BotRank:       gc.botRank,
		TargetID:      user.ID,
		TargetRank:    gc.rank(member),
		TargetInGuild: member != nil,
		OwnerID:       gc.guild.OwnerID,
	})
	if verdict != moderation.Allowed {
		logger.Debug(fmt.Sprintf("/%s rechazado para %s: %s", command, invoker.ID, verdict), "Mod")
		return nil, ctx.ReplyEphemeral(r.forVerdict(verdict))
	}

	if needMember && member == nil {
		return nil, ctx.ReplyEphemeral(NotMemberMessage)
	}

	return &memberTarget{user: user, member: member}, nil
}

// memberOption is the required "member" option shared by member commands.
func memberOption(description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionUser,
		Name:        "member",
		Description: description,
		Required:    true,
	}
}

func reasonOption(description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "reason",
		Description: description,
		Required:    false,
	}
}
