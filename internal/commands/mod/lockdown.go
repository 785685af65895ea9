// Package mod - /lockdown and /unlock commands
package mod

import (
	"fmt"

	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
	"github.com/PancyStudios/PancyModGo/pkg/modlog"
	"github.com/bwmarrin/discordgo"
)

const (
	lockInvokerPermission = "You do not have permission to manage channels."
	lockBotPermission     = "I do not have permission to manage channels."
	lockNotText           = "I can only lock down text channels."
	lockOverwriteAboveBot = "I cannot modify this channel because it contains overwrites for the role **%s**, which is above or equal to my highest role."
	lockSuccess           = "Successfully locked down the channel %s."
	lockFailure           = "There was an error locking down the channel. Please ensure I have the correct permissions and hierarchy position."

	unlockInvokerPermission = "❌ You do not have permission to manage channels."
	unlockBotPermission     = "❌ I do not have permission to manage channels."
	unlockNotText           = "❌ I can only unlock text channels within servers."
	unlockSuccess           = "🔓 Successfully unlocked %s."
	unlockFailure           = "❌ There was an error unlocking the channel. Make sure I have permission and that my role is high enough."
)

func channelOption(verb string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionChannel,
		Name:        "channel",
		Description: "The channel to " + verb + " (defaults to this one)",
		Required:    false,
	}
}

// createLockdownCommand creates the /lockdown command
func (m *module) createLockdownCommand() *discord.Command {
	return discord.NewCommand(
		"lockdown",
		"Stop @everyone from sending messages and reactions in a channel",
		"mod",
		m.lockdownHandler,
	).WithOptions(channelOption("lock down")).
		WithUserPermissions(discordgo.PermissionManageChannels).
		WithBotPermissions(discordgo.PermissionManageChannels).
		AsGuildOnly()
}

// createUnlockCommand creates the /unlock command
func (m *module) createUnlockCommand() *discord.Command {
	return discord.NewCommand(
		"unlock",
		"Restore @everyone messages and reactions in a channel",
		"mod",
		m.unlockHandler,
	).WithOptions(channelOption("unlock")).
		WithUserPermissions(discordgo.PermissionManageChannels).
		WithBotPermissions(discordgo.PermissionManageChannels).
		AsGuildOnly()
}

// targetChannelID is the "channel" option or the channel the command was used in.
func targetChannelID(ctx *discord.CommandContext) string {
	if ch := ctx.GetChannelOption("channel"); ch != nil {
		return ch.ID
	}
	return ctx.Interaction.ChannelID
}

// lockdownHandler handles the /lockdown command
func (m *module) lockdownHandler(ctx *discord.CommandContext) error {
	switch moderation.CheckManageChannels(ctx.InvokerPermissions(), ctx.BotPermissions()) {
	case moderation.InvokerMissingPermission:
		return ctx.ReplyEphemeral(lockInvokerPermission)
	case moderation.BotMissingPermission:
		return ctx.ReplyEphemeral(lockBotPermission)
	}

	channel, err := ctx.FetchChannel(targetChannelID(ctx))
	if err != nil {
		logger.Error(fmt.Sprintf("Error obteniendo el canal: %v", err), "Mod")
		return ctx.ReplyEphemeral(lockFailure)
	}
	if !moderation.IsTextBased(channel.Type) {
		return ctx.ReplyEphemeral(lockNotText)
	}

	gc, err := loadGuildContext(ctx)
	if err != nil {
		logger.Error(fmt.Sprintf("Error preparando /lockdown: %v", err), "Mod")
		return ctx.ReplyEphemeral(lockFailure)
	}
	check := moderation.LockCheck{
		BotRank:    gc.botRank,
		GuildID:    ctx.Interaction.GuildID,
		GuildRoles: gc.guild.Roles,
		Overwrites: channel.PermissionOverwrites,
	}
	if verdict, role := moderation.CheckLockdown(check); verdict == moderation.OverwriteAboveBot {
		return ctx.ReplyEphemeral(fmt.Sprintf(lockOverwriteAboveBot, role.Name))
	}

	guildID := ctx.Interaction.GuildID
	allow, deny := moderation.LockedOverwrite(moderation.FindOverwrite(channel.PermissionOverwrites, guildID))

	rest := ctx.RESTClient()
	err = rest.ChannelPermissionSet(channel.ID, guildID, discordgo.PermissionOverwriteTypeRole, allow, deny,
		discordgo.WithAuditLogReason("Lockdown by "+ctx.User().String()))
	if err != nil {
		logger.Error(fmt.Sprintf("Error bloqueando el canal %s: %v", channel.ID, err), "Mod")
		return ctx.ReplyEphemeral(lockFailure)
	}

	m.log.Action(rest, modlog.Event{
		Type:        "lockdown",
		GuildID:     guildID,
		ChannelID:   channel.ID,
		ModeratorID: ctx.User().ID,
	}, fmt.Sprintf("🔒 %s was locked down by **%s**.", channel.Mention(), ctx.User().String()))

	return ctx.ReplyEphemeral(fmt.Sprintf(lockSuccess, channel.Mention()))
}

// unlockHandler handles the /unlock command
func (m *module) unlockHandler(ctx *discord.CommandContext) error {
	switch moderation.CheckManageChannels(ctx.InvokerPermissions(), ctx.BotPermissions()) {
	case moderation.InvokerMissingPermission:
		return ctx.ReplyEphemeral(unlockInvokerPermission)
	case moderation.BotMissingPermission:
		return ctx.ReplyEphemeral(unlockBotPermission)
	}

	channel, err := ctx.FetchChannel(targetChannelID(ctx))
	if err != nil {
		logger.Error(fmt.Sprintf("Error obteniendo el canal: %v", err), "Mod")
		return ctx.ReplyEphemeral(unlockFailure)
	}
	if !moderation.IsTextBased(channel.Type) || channel.Type == discordgo.ChannelTypeDM ||
		channel.Type == discordgo.ChannelTypeGroupDM || ctx.Interaction.GuildID == "" {
		return ctx.ReplyEphemeral(unlockNotText)
	}

	guildID := ctx.Interaction.GuildID
	allow, deny := moderation.UnlockedOverwrite(moderation.FindOverwrite(channel.PermissionOverwrites, guildID))

	rest := ctx.RESTClient()
	err = rest.ChannelPermissionSet(channel.ID, guildID, discordgo.PermissionOverwriteTypeRole, allow, deny,
		discordgo.WithAuditLogReason("Unlock by "+ctx.User().String()))
	if err != nil {
		logger.Error(fmt.Sprintf("Error desbloqueando el canal %s: %v", channel.ID, err), "Mod")
		return ctx.ReplyEphemeral(unlockFailure)
	}

	m.log.Action(rest, modlog.Event{
		Type:        "unlock",
		GuildID:     guildID,
		ChannelID:   channel.ID,
		ModeratorID: ctx.User().ID,
	}, fmt.Sprintf("🔓 %s was unlocked by **%s**.", channel.Mention(), ctx.User().String()))

	return ctx.ReplyEphemeral(fmt.Sprintf(unlockSuccess, channel.Mention()))
}
