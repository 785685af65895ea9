package utils

import (
	"fmt"
	"strings"

	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/bwmarrin/discordgo"
)

// NoRecordMessage is sent when someone looks up a user the bot has never seen.
const NoRecordMessage = "That user has no profile yet."

// createProfileCommand creates the /profile command
func (m *module) createProfileCommand() *discord.Command {
	return discord.NewCommand(
		"profile",
		"Show your profile or someone else's",
		"utils",
		m.profileHandler,
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "member",
			Description: "Whose profile to show",
			Required:    false,
		},
	)
}

// profileHandler creates the invoker's own record but only reads others'.
func (m *module) profileHandler(ctx *discord.CommandContext) error {
	invoker := ctx.User()
	target := ctx.GetUserOption("member")
	if target == nil {
		target = invoker
	}

	sctx, cancel := storeContext()
	defer cancel()

	var (
		record *models.UserRecord
		err    error
	)
	if target.ID == invoker.ID {
		record, err = m.store.EnsureUser(sctx, target.ID)
	} else {
		record, err = m.store.GetUser(sctx, target.ID)
	}
	if err != nil {
		return fmt.Errorf("load profile %s: %w", target.ID, err)
	}
	if record == nil {
		return ctx.ReplyEphemeral(NoRecordMessage)
	}

	return ctx.ReplyEmbed(profileEmbed(target, record))
}

func profileEmbed(user *discordgo.User, r *models.UserRecord) *discordgo.MessageEmbed {
	name := r.Name
	if name == "" {
		name = user.DisplayName()
	}

	return &discordgo.MessageEmbed{
		Title: "👤 " + name,
		Color: 0x5865F2,
		Thumbnail: &discordgo.MessageEmbedThumbnail{
			URL: user.AvatarURL("128"),
		},
		Fields: []*discordgo.MessageEmbedField{
			{Name: "💰 Balance", Value: fmt.Sprintf("%.2f", r.Balance), Inline: true},
			{Name: "⭐ Level", Value: fmt.Sprintf("%d", r.Level), Inline: true},
			{Name: "✨ Experience", Value: fmt.Sprintf("%d", r.Experience), Inline: true},
			{Name: "🔥 Daily streak", Value: fmt.Sprintf("%d", r.DailyStreak), Inline: true},
			{Name: "🧬 Race", Value: r.Race, Inline: true},
			{Name: "🎒 Inventory", Value: formatInventory(r.Inventory)},
		},
	}
}

func formatInventory(items []models.InventoryItem) string {
	if len(items) == 0 {
		return "*empty*"
	}
	lines := make([]string, 0, len(items))
	for _, it := range items {
		lines = append(lines, fmt.Sprintf("• %s x%d", it.Name, it.Quantity))
	}
	return strings.Join(lines, "\n")
}
