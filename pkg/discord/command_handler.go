// Package discord provides the command handler for loading and registering commands.
package discord

import (
	"fmt"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

// CommandHandler manages command loading and registration
type CommandHandler struct {
	client        *ExtendedClient
	slashCommands []*discordgo.ApplicationCommand
}

// NewCommandHandler creates a new CommandHandler
func NewCommandHandler(client *ExtendedClient) *CommandHandler {
	return &CommandHandler{
		client:        client,
		slashCommands: make([]*discordgo.ApplicationCommand, 0),
	}
}

// RegisterCommand adds a command to the handler
func (ch *CommandHandler) RegisterCommand(cmd *Command) {
	ch.client.Commands.Set(cmd.Name, cmd)
	ch.slashCommands = append(ch.slashCommands, cmd.ToApplicationCommand())
	logger.Debug("Comando registrado: "+cmd.Name, "CommandHandler")
}

// ApplicationCommands returns the definitions that will be sent to Discord
func (ch *CommandHandler) ApplicationCommands() []*discordgo.ApplicationCommand {
	return append([]*discordgo.ApplicationCommand{}, ch.slashCommands...)
}

// RegisterCommands overwrites the global slash commands with the registered set
func (ch *CommandHandler) RegisterCommands() {
	session := ch.client.Session
	if session.State == nil || session.State.User == nil {
		logger.Warn("Sesión sin usuario, no se registran comandos", "CommandHandler")
		return
	}

	logger.Info("🔄 Registrando comandos globales...", "CommandHandler")

	created, err := session.ApplicationCommandBulkOverwrite(session.State.User.ID, "", ch.slashCommands)
	if err != nil {
		logger.Error("Error registrando comandos: "+err.Error(), "CommandHandler")
		return
	}

	logger.Success(fmt.Sprintf("✅ %d comandos globales registrados.", len(created)), "CommandHandler")
}
