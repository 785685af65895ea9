// Package mod - /kick command
package mod

import (
	"fmt"

	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/modlog"
	"github.com/bwmarrin/discordgo"
)

var kickReplies = memberReplies{
	invokerPermission: "You do not have permission to kick members.",
	botPermission:     "I do not have permission to kick members.",
	self:              "You cannot kick yourself.",
	owner:             "I cannot kick the server owner.",
	botRank:           "I cannot kick this user because their highest role is above or equal to mine.",
	invokerRank:       "You cannot kick this user because their highest role is above or equal to yours.",
	failure:           "There was an error kicking the member. Please ensure I have the correct permissions and role hierarchy.",
}

// createKickCommand creates the /kick command
func (m *module) createKickCommand() *discord.Command {
	return discord.NewCommand(
		"kick",
		"Kick a member from the server",
		"mod",
		m.kickHandler,
	).WithOptions(
		memberOption("The member to kick"),
		reasonOption("Reason for the kick"),
	).WithUserPermissions(discordgo.PermissionKickMembers).
		WithBotPermissions(discordgo.PermissionKickMembers).
		AsGuildOnly()
}

// kickHandler handles the /kick command
func (m *module) kickHandler(ctx *discord.CommandContext) error {
	target, err := authorizeMember(ctx, "kick", discordgo.PermissionKickMembers, true, kickReplies)
	if target == nil {
		return err
	}

	reason := ctx.GetStringOption("reason")
	if reason == "" {
		reason = NoReason
	}

	rest := ctx.RESTClient()
	if err := rest.GuildMemberDeleteWithReason(ctx.Interaction.GuildID, target.user.ID, reason); err != nil {
		logger.Error(fmt.Sprintf("Error expulsando a %s: %v", target.user.ID, err), "Mod")
		return ctx.ReplyEphemeral(kickReplies.failure)
	}

	tag, moderator := target.user.String(), ctx.User().String()
	m.log.Action(rest, modlog.Event{
		Type:        "kick",
		GuildID:     ctx.Interaction.GuildID,
		ModeratorID: ctx.User().ID,
		TargetID:    target.user.ID,
		Reason:      reason,
	}, fmt.Sprintf("**%s** was kicked by **%s** for reason: **%s**.", tag, moderator, reason))

	return ctx.ReplyEphemeral(fmt.Sprintf("Successfully kicked **%s** for reason: **%s**.", tag, reason))
}
