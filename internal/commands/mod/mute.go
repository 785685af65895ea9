// Package mod - /mute command
package mod

import (
	"fmt"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/modlog"
	"github.com/bwmarrin/discordgo"
)

// MaxMuteMinutes is the longest timeout Discord accepts (28 days).
const MaxMuteMinutes = 28 * 24 * 60

var muteReplies = memberReplies{
	invokerPermission: "You do not have permission to mute members.",
	botPermission:     "I do not have permission to mute members. (Grant `Timeout Members` in role settings.)",
	self:              "You cannot mute yourself.",
	owner:             "I cannot mute the server owner.",
	botRank:           "❌ I cannot mute this user because their role is above or equal to mine.",
	invokerRank:       "❌ You cannot mute this user because their role is above or equal to yours.",
	failure:           "⚠️ Failed to mute. This usually means my role is below the target or I lack `Timeout Members` permission.",
}

// createMuteCommand creates the /mute command
func (m *module) createMuteCommand() *discord.Command {
	minDuration := 1.0
	return discord.NewCommand(
		"mute",
		"Time out a member",
		"mod",
		m.muteHandler,
	).WithOptions(
		memberOption("The member to mute"),
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "duration",
			Description: "Duration in minutes",
			Required:    true,
			MinValue:    &minDuration,
			MaxValue:    MaxMuteMinutes,
		},
	).WithUserPermissions(discordgo.PermissionModerateMembers).
		WithBotPermissions(discordgo.PermissionModerateMembers).
		AsGuildOnly()
}

// muteHandler handles the /mute command
func (m *module) muteHandler(ctx *discord.CommandContext) error {
	target, err := authorizeMember(ctx, "mute", discordgo.PermissionModerateMembers, true, muteReplies)
	if target == nil {
		return err
	}

	duration := ctx.GetIntOption("duration")
	if duration < 1 || duration > MaxMuteMinutes {
		return ctx.ReplyEphemeral(muteReplies.failure)
	}

	tag, moderator := target.user.String(), ctx.User().String()
	until := time.Now().Add(time.Duration(duration) * time.Minute)
	auditReason := fmt.Sprintf("Muted by %s for %d minutes", moderator, duration)

	rest := ctx.RESTClient()
	if err := rest.GuildMemberTimeout(ctx.Interaction.GuildID, target.user.ID, &until, discordgo.WithAuditLogReason(auditReason)); err != nil {
		logger.Error(fmt.Sprintf("Error silenciando a %s: %v", target.user.ID, err), "Mod")
		return ctx.ReplyEphemeral(muteReplies.failure)
	}

	m.log.Action(rest, modlog.Event{
		Type:        "mute",
		GuildID:     ctx.Interaction.GuildID,
		ModeratorID: ctx.User().ID,
		TargetID:    target.user.ID,
		Reason:      auditReason,
		Minutes:     duration,
	}, fmt.Sprintf("🔇 **%s** muted by **%s** for **%d minutes**.", tag, moderator, duration))

	return ctx.ReplyEphemeral(fmt.Sprintf("✅ Muted **%s** for **%d minutes**.", tag, duration))
}
