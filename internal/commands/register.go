// Package commands provides a registry for organizing bot commands.
// Commands are organized in subdirectories by category (utils, mod).
package commands

import (
	"fmt"

	"github.com/PancyStudios/PancyModGo/internal/commands/mod"
	"github.com/PancyStudios/PancyModGo/internal/commands/utils"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/modlog"
)

// Deps are the services command handlers need.
type Deps struct {
	Store  utils.UserStore
	ModLog *modlog.Logger
}

// RegisterAll registers all commands with the Discord client
func RegisterAll(client *discord.ExtendedClient, deps Deps) {
	// Utility commands (/ping, /profile, /help, /status)
	utils.RegisterUtilsCommands(client, deps.Store)

	// Moderation commands (/ban, /kick, /mute, /add_role, /remove_role, /lockdown, /unlock)
	mod.RegisterModCommands(client, deps.ModLog)

	logger.Info(fmt.Sprintf("Comandos registrados: %d", client.Commands.Size()), "Commands")
}
