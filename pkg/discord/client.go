// Package discord provides the Discord bot client and related structures.
// It wraps discordgo with additional functionality for command and event handling.
package discord

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/errors"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/metrics"
	"github.com/bwmarrin/discordgo"
	gocache "github.com/patrickmn/go-cache"
)

// Replies sent by the dispatcher itself.
const (
	UnknownCommandMessage = "Unknown command."
	OwnerOnlyMessage      = "This command is restricted to the bot owner."
	GuildOnlyMessage      = "This command can only be used in servers."
	GenericErrorMessage   = "There was an error while executing this command."
)

// DefaultCooldown applies to commands without their own cooldown.
const DefaultCooldown = 5 * time.Second

// discordgo.Logger is a function, not an interface
func init() {
	discordgo.Logger = func(msgL int, caller int, format string, a ...interface{}) {
		msg := fmt.Sprintf(format, a...)
		switch msgL {
		case discordgo.LogError:
			logger.Error(msg, "DiscordGo")
		case discordgo.LogWarning:
			logger.Warn(msg, "DiscordGo")
		default:
			logger.Debug(msg, "DiscordGo")
		}
	}
}

// ExtendedClient wraps discordgo.Session with additional functionality
type ExtendedClient struct {
	Session        *discordgo.Session
	Commands       *CommandCollection
	CommandHandler *CommandHandler
	EventHandler   *EventHandler
	StartTime      time.Time
	mu             sync.RWMutex
	isReady        bool

	ownerID         string
	defaultCooldown time.Duration
	cooldowns       *gocache.Cache
	now             func() time.Time
}

// ClientOptions configures dispatch behaviour
type ClientOptions struct {
	OwnerID  string
	Cooldown time.Duration
}

// CommandCollection holds registered commands
type CommandCollection struct {
	commands map[string]*Command
	mu       sync.RWMutex
}

// NewCommandCollection creates a new CommandCollection
func NewCommandCollection() *CommandCollection {
	return &CommandCollection{
		commands: make(map[string]*Command),
	}
}

// Set adds or updates a command
func (cc *CommandCollection) Set(name string, cmd *Command) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.commands[name] = cmd
}

// Get retrieves a command by name
func (cc *CommandCollection) Get(name string) (*Command, bool) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	cmd, ok := cc.commands[name]
	return cmd, ok
}

// Size returns the number of commands
func (cc *CommandCollection) Size() int {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return len(cc.commands)
}

// All returns all commands
func (cc *CommandCollection) All() map[string]*Command {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	result := make(map[string]*Command)
	for k, v := range cc.commands {
		result[k] = v
	}
	return result
}

var (
	client *ExtendedClient
	once   sync.Once
)

// Init initializes the global Discord client
func Init(token string, opts ClientOptions) (*ExtendedClient, error) {
	var err error
	once.Do(func() {
		client, err = NewClient(token, opts)
	})
	return client, err
}

// Get returns the global Discord client
func Get() *ExtendedClient {
	return client
}

// NewClient creates a new ExtendedClient
func NewClient(token string, opts ClientOptions) (*ExtendedClient, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}

	// Set intents
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsMessageContent |
		discordgo.IntentsDirectMessages

	// Configure session
	session.ShardCount = 1
	session.SyncEvents = false
	session.StateEnabled = true
	session.LogLevel = discordgo.LogWarning

	cooldown := opts.Cooldown
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}

	c := &ExtendedClient{
		Session:         session,
		Commands:        NewCommandCollection(),
		isReady:         false,
		ownerID:         opts.OwnerID,
		defaultCooldown: cooldown,
		cooldowns:       gocache.New(cooldown, time.Minute),
		now:             time.Now,
	}

	// Initialize handlers
	c.CommandHandler = NewCommandHandler(c)
	c.EventHandler = NewEventHandler(c)

	return c, nil
}

// Start initializes and starts the bot
func (c *ExtendedClient) Start() error {
	// Add ready handler
	c.Session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		c.mu.Lock()
		c.isReady = true
		c.mu.Unlock()

		logger.Success("Bot conectado como: "+r.User.Username, "Client")

		// Register commands with Discord
		c.CommandHandler.RegisterCommands()
	})

	// Add interaction handler
	c.Session.AddHandler(c.handleInteraction)

	// Set start time
	c.StartTime = time.Now()

	// Open connection
	return c.Session.Open()
}

// handleInteraction handles incoming Discord interactions
func (c *ExtendedClient) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	ctx := &CommandContext{
		Session:     s,
		Interaction: i,
		Client:      c,
		REST:        s,
	}
	if s.State != nil && s.State.User != nil {
		ctx.BotID = s.State.User.ID
	}

	c.Dispatch(ctx)
}

// Dispatch runs the command named by the interaction after the owner,
// guild and cooldown gates. Gate failures are answered ephemerally.
func (c *ExtendedClient) Dispatch(ctx *CommandContext) {
	commandName := ctx.Interaction.ApplicationCommandData().Name

	cmd, ok := c.Commands.Get(commandName)
	if !ok {
		logger.Warn("Command not found: "+commandName, "Client")
		c.reply(ctx, UnknownCommandMessage)
		return
	}

	userID := ""
	if u := ctx.User(); u != nil {
		userID = u.ID
	}

	if cmd.OwnerOnly && (c.ownerID == "" || userID != c.ownerID) {
		c.reply(ctx, OwnerOnlyMessage)
		return
	}

	if cmd.GuildOnly && ctx.Interaction.GuildID == "" {
		c.reply(ctx, GuildOnlyMessage)
		return
	}

	if remaining, limited := c.checkCooldown(userID, cmd); limited {
		metrics.CommandCooldownHitsTotal.Inc()
		c.reply(ctx, fmt.Sprintf("Please wait %.1f more second(s) before using the `%s` command again.",
			math.Ceil(remaining.Seconds()), commandName))
		return
	}

	c.run(ctx, cmd)
}

// checkCooldown reports the time left when userID is still cooling down for
// cmd. Otherwise it starts a new cooldown window.
func (c *ExtendedClient) checkCooldown(userID string, cmd *Command) (time.Duration, bool) {
	key := userID + ":" + cmd.Name
	now := c.now()

	if v, found := c.cooldowns.Get(key); found {
		if expiresAt := v.(time.Time); expiresAt.After(now) {
			return expiresAt.Sub(now), true
		}
	}

	d := cmd.Cooldown
	if d <= 0 {
		d = c.defaultCooldown
	}
	c.cooldowns.Set(key, now.Add(d), d)
	return 0, false
}

func (c *ExtendedClient) run(ctx *CommandContext, cmd *Command) {
	defer errors.RecoverCommand(ctx.scope(cmd.Name), func(interface{}) {
		c.reply(ctx, GenericErrorMessage)
	})()

	metrics.CommandsExecutedTotal.WithLabelValues(cmd.Name).Inc()

	if err := cmd.Run(ctx); err != nil {
		metrics.CommandErrorsTotal.WithLabelValues(cmd.Name).Inc()
		logger.Error("Error executing command "+cmd.Name+": "+err.Error(), "Client")
		c.reply(ctx, GenericErrorMessage)
	}
}

func (c *ExtendedClient) reply(ctx *CommandContext, content string) {
	if err := ctx.ReplyEphemeral(content); err != nil {
		logger.Warn("No se pudo responder a la interacción: "+err.Error(), "Client")
	}
}

// OwnerID returns the configured bot owner
func (c *ExtendedClient) OwnerID() string {
	return c.ownerID
}

// Stop stops the bot and closes the session
func (c *ExtendedClient) Stop() error {
	c.mu.Lock()
	c.isReady = false
	c.mu.Unlock()

	if c.Session != nil {
		return c.Session.Close()
	}
	return nil
}

// IsReady returns true if the bot is ready
func (c *ExtendedClient) IsReady() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isReady
}

// GuildCount returns the number of guilds the bot is in
func (c *ExtendedClient) GuildCount() int {
	if c.Session == nil || c.Session.State == nil {
		return 0
	}
	c.Session.State.RLock()
	defer c.Session.State.RUnlock()
	return len(c.Session.State.Guilds)
}
