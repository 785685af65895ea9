package utils

import (
	"fmt"

	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/models"
)

// createPingCommand creates the /ping command
func (m *module) createPingCommand() *discord.Command {
	return discord.NewCommand(
		"ping",
		"Replies with Pong and registers you",
		"utils",
		m.pingHandler,
	)
}

// pingHandler makes sure the invoker has a record and remembers their
// display name the first time they use the bot.
func (m *module) pingHandler(ctx *discord.CommandContext) error {
	user := ctx.User()

	sctx, cancel := storeContext()
	defer cancel()

	record, err := m.store.EnsureUser(sctx, user.ID)
	if err != nil {
		return fmt.Errorf("ensure user %s: %w", user.ID, err)
	}

	if record.Name == "" {
		name := user.DisplayName()
		record, err = m.store.SaveUserData(sctx, user.ID, models.UserPatch{Name: &name})
		if err != nil {
			return fmt.Errorf("save name for %s: %w", user.ID, err)
		}
		logger.Debug(fmt.Sprintf("Nombre guardado para %s: %s", user.ID, name), "Utils")
	}

	return ctx.Reply(fmt.Sprintf("Pong! Your name is set to **%s**.", record.Name))
}
