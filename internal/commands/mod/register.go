// Package mod provides the moderation commands. Each command is in its own
// file; they share the hierarchy checks in guard.go.
package mod

import (
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/modlog"
)

// module carries what the moderation handlers need besides the context.
type module struct {
	log *modlog.Logger
}

// RegisterModCommands registers every moderation command
func RegisterModCommands(client *discord.ExtendedClient, log *modlog.Logger) {
	m := &module{log: log}
	for _, cmd := range m.commands() {
		client.CommandHandler.RegisterCommand(cmd)
	}
}

func (m *module) commands() []*discord.Command {
	return []*discord.Command{
		m.createAddRoleCommand(),
		m.createRemoveRoleCommand(),
		m.createBanCommand(),
		m.createKickCommand(),
		m.createMuteCommand(),
		m.createLockdownCommand(),
		m.createUnlockCommand(),
	}
}
