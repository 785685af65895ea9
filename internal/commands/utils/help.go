package utils

import (
	"fmt"
	"sort"
	"strings"

	"github.com/PancyStudios/PancyModGo/pkg/discord"
)

// createHelpCommand creates the /help command
func (m *module) createHelpCommand() *discord.Command {
	return discord.NewCommand(
		"help",
		"List the available commands",
		"utils",
		m.helpHandler,
	)
}

// helpHandler lists every registered command grouped by category.
func (m *module) helpHandler(ctx *discord.CommandContext) error {
	return ctx.ReplyEphemeral(helpText(m.registry))
}

func helpText(registry *discord.CommandCollection) string {
	byCategory := make(map[string][]*discord.Command)
	for _, cmd := range registry.All() {
		if cmd.OwnerOnly {
			continue
		}
		byCategory[cmd.Category] = append(byCategory[cmd.Category], cmd)
	}

	categories := make([]string, 0, len(byCategory))
	for c := range byCategory {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	var b strings.Builder
	b.WriteString("📖 **PancyMod commands**\n")
	for _, c := range categories {
		cmds := byCategory[c]
		sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name < cmds[j].Name })

		fmt.Fprintf(&b, "\n**%s**\n", c)
		for _, cmd := range cmds {
			fmt.Fprintf(&b, "• `/%s` - %s\n", cmd.Name, cmd.Description)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
