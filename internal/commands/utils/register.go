package utils

import (
	"context"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/models"
)

// storeTimeout bounds every record store call made by a command.
const storeTimeout = 5 * time.Second

// UserStore is the part of the record store used by the utility commands.
type UserStore interface {
	EnsureUser(ctx context.Context, id string) (*models.UserRecord, error)
	GetUser(ctx context.Context, id string) (*models.UserRecord, error)
	SaveUserData(ctx context.Context, id string, patch models.UserPatch) (*models.UserRecord, error)
	Count(ctx context.Context) (int, error)
}

type module struct {
	store    UserStore
	registry *discord.CommandCollection
}

// RegisterUtilsCommands registers ping, profile, help and status
func RegisterUtilsCommands(client *discord.ExtendedClient, store UserStore) {
	m := &module{store: store, registry: client.Commands}

	for _, cmd := range m.commands() {
		client.CommandHandler.RegisterCommand(cmd)
	}
}

func (m *module) commands() []*discord.Command {
	return []*discord.Command{
		m.createPingCommand(),
		m.createProfileCommand(),
		m.createHelpCommand(),
		m.createStatusCommand(),
	}
}

func storeContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), storeTimeout)
}
