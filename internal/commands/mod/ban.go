// Package mod - /ban command
package mod

import (
	"fmt"

	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/modlog"
	"github.com/bwmarrin/discordgo"
)

// NoReason is used when a moderator leaves the reason empty.
const NoReason = "No reason provided"

var banReplies = memberReplies{
	invokerPermission: "You do not have permission to ban members.",
	botPermission:     "I do not have permission to ban members.",
	self:              "You cannot ban yourself.",
	owner:             "I cannot ban the server owner.",
	botRank:           "I cannot ban this user because their highest role is above or equal to mine.",
	invokerRank:       "You cannot ban this user because their highest role is above or equal to yours.",
	failure:           "There was an error banning the member. Please ensure I have the correct permissions and hierarchy position.",
}

// createBanCommand creates the /ban command
func (m *module) createBanCommand() *discord.Command {
	return discord.NewCommand(
		"ban",
		"Ban a member from the server",
		"mod",
		m.banHandler,
	).WithOptions(
		memberOption("The member to ban"),
		reasonOption("Reason for the ban"),
	).WithUserPermissions(discordgo.PermissionBanMembers).
		WithBotPermissions(discordgo.PermissionBanMembers).
		AsGuildOnly()
}

// banHandler handles the /ban command
func (m *module) banHandler(ctx *discord.CommandContext) error {
	target, err := authorizeMember(ctx, "ban", discordgo.PermissionBanMembers, false, banReplies)
	if target == nil {
		return err
	}

	reason := ctx.GetStringOption("reason")
	if reason == "" {
		reason = NoReason
	}

	rest := ctx.RESTClient()
	if err := rest.GuildBanCreateWithReason(ctx.Interaction.GuildID, target.user.ID, reason, 0); err != nil {
		logger.Error(fmt.Sprintf("Error baneando a %s: %v", target.user.ID, err), "Mod")
		return ctx.ReplyEphemeral(banReplies.failure)
	}

	tag, moderator := target.user.String(), ctx.User().String()
	m.log.Action(rest, modlog.Event{
		Type:        "ban",
		GuildID:     ctx.Interaction.GuildID,
		ModeratorID: ctx.User().ID,
		TargetID:    target.user.ID,
		Reason:      reason,
	}, fmt.Sprintf("**%s** was banned by **%s** for: **%s**.", tag, moderator, reason))

	return ctx.ReplyEphemeral(fmt.Sprintf("Successfully banned **%s** for reason: **%s**.", tag, reason))
}
