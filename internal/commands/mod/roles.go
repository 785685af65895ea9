// Package mod - /add_role and /remove_role commands
package mod

import (
	"fmt"

	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
	"github.com/PancyStudios/PancyModGo/pkg/modlog"
	"github.com/bwmarrin/discordgo"
)

// roleReplies holds the wording that differs between adding and removing.
type roleReplies struct {
	roleAboveBot string
	success      string
	failure      string
}

const (
	roleInvokerPermission = "You do not have permission to use this command."
	roleBotPermission     = "I do not have permission to manage roles."
	roleMemberAboveBot    = "I cannot modify this member because their highest role is above or equal to mine."
)

var (
	addRoleReplies = roleReplies{
		roleAboveBot: "I cannot add this role because it is higher than or equal to my highest role.",
		success:      "Successfully added role **%s** to **%s**.",
		failure:      "There was an error adding the role. Please check my permissions and role hierarchy.",
	}
	removeRoleReplies = roleReplies{
		roleAboveBot: "I cannot remove this role because it is higher than or equal to my highest role.",
		success:      "Successfully removed role **%s** from **%s**.",
		failure:      "There was an error removing the role. Please check my permissions and role hierarchy.",
	}
)

func roleOptions(verb string) []*discordgo.ApplicationCommandOption {
	return []*discordgo.ApplicationCommandOption{
		memberOption("The member to " + verb + " the role"),
		{
			Type:        discordgo.ApplicationCommandOptionRole,
			Name:        "role",
			Description: "The role to " + verb,
			Required:    true,
		},
	}
}

// createAddRoleCommand creates the /add_role command
func (m *module) createAddRoleCommand() *discord.Command {
	return discord.NewCommand(
		"add_role",
		"Add a role to a member",
		"mod",
		func(ctx *discord.CommandContext) error { return m.changeRole(ctx, true) },
	).WithOptions(roleOptions("add")...).
		WithUserPermissions(discordgo.PermissionAdministrator).
		WithBotPermissions(discordgo.PermissionManageRoles).
		AsGuildOnly()
}

// createRemoveRoleCommand creates the /remove_role command
func (m *module) createRemoveRoleCommand() *discord.Command {
	return discord.NewCommand(
		"remove_role",
		"Remove a role from a member",
		"mod",
		func(ctx *discord.CommandContext) error { return m.changeRole(ctx, false) },
	).WithOptions(roleOptions("remove")...).
		WithUserPermissions(discordgo.PermissionAdministrator).
		WithBotPermissions(discordgo.PermissionManageRoles).
		AsGuildOnly()
}

// changeRole grants or revokes the "role" option on the "member" option.
func (m *module) changeRole(ctx *discord.CommandContext, add bool) error {
	replies := removeRoleReplies
	if add {
		replies = addRoleReplies
	}

	member := ctx.GetMemberOption("member")
	role := ctx.GetRoleOption("role")
	if role == nil {
		return ctx.ReplyEphemeral(replies.failure)
	}
	targetID := ""
	if member != nil {
		targetID = member.User.ID
	}

	gc, err := loadGuildContext(ctx)
	if err != nil {
		logger.Error(fmt.Sprintf("Error preparando el cambio de rol: %v", err), "Mod")
		return ctx.ReplyEphemeral(replies.failure)
	}
	role = gc.role(role)

	verdict := moderation.CheckRoleAction(moderation.RoleAction{
		InvokerPerms: ctx.InvokerPermissions(),
		BotPerms:     ctx.BotPermissions(),
		BotRank:      gc.botRank,
		RolePosition: role.Position,
		RoleManaged:  role.Managed,
		TargetID:     targetID,
		TargetRank:   gc.rank(member),
		OwnerID:      gc.guild.OwnerID,
	})
	switch verdict {
	case moderation.Allowed:
	case moderation.InvokerMissingPermission:
		return ctx.ReplyEphemeral(roleInvokerPermission)
	case moderation.BotMissingPermission:
		return ctx.ReplyEphemeral(roleBotPermission)
	case moderation.RoleAboveBot:
		return ctx.ReplyEphemeral(replies.roleAboveBot)
	default:
		return ctx.ReplyEphemeral(roleMemberAboveBot)
	}
	if member == nil {
		return ctx.ReplyEphemeral(NotMemberMessage)
	}

	rest := ctx.RESTClient()
	guildID := ctx.Interaction.GuildID
	action := "remove_role"
	if add {
		action = "add_role"
		err = rest.GuildMemberRoleAdd(guildID, member.User.ID, role.ID)
	} else {
		err = rest.GuildMemberRoleRemove(guildID, member.User.ID, role.ID)
	}
	if err != nil {
		logger.Error(fmt.Sprintf("Error en %s para %s: %v", action, member.User.ID, err), "Mod")
		return ctx.ReplyEphemeral(replies.failure)
	}

	tag := member.User.String()
	m.log.Action(rest, modlog.Event{
		Type:        action,
		GuildID:     guildID,
		ModeratorID: ctx.User().ID,
		TargetID:    member.User.ID,
		Reason:      role.Name,
	}, fmt.Sprintf("**%s** used %s on **%s** with role **%s**.", ctx.User().String(), action, tag, role.Name))

	return ctx.ReplyEphemeral(fmt.Sprintf(replies.success, role.Name, tag))
}
