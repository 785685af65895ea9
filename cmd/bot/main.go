// Package main is the entry point for the PancyMod Go application.
// It initializes all systems and starts the Discord bot.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PancyStudios/PancyModGo/internal/commands"
	"github.com/PancyStudios/PancyModGo/internal/events"
	"github.com/PancyStudios/PancyModGo/pkg/config"
	"github.com/PancyStudios/PancyModGo/pkg/database"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/errors"
	"github.com/PancyStudios/PancyModGo/pkg/filter"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/modlog"
	"github.com/PancyStudios/PancyModGo/pkg/mqtt"
	"github.com/PancyStudios/PancyModGo/pkg/store"
	"github.com/PancyStudios/PancyModGo/pkg/web"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.Init(cfg.ErrorWebhook, cfg.LogsWebhook)
	defer log.Close()

	logger.System("Iniciando PancyMod Go...", "Main")
	logger.Info(fmt.Sprintf("Directorio de trabajo: %s", getCurrentDir()), "Main")

	// Initialize error handler
	var discordClient *discord.ExtendedClient
	errors.Init(cfg.ErrorWebhook, func() {
		if discordClient != nil {
			if err := discordClient.Stop(); err != nil {
				logger.Error(fmt.Sprintf("Error deteniendo el cliente: %v", err), "Main")
			}
		}
	})

	// Initialize record store
	persister, closeBackend, err := openPersister(cfg)
	if err != nil {
		logger.Critical(fmt.Sprintf("Error abriendo el backend %s: %v", cfg.StoreBackend, err), "Main")
		os.Exit(1)
	}
	defer closeBackend()

	st := store.New(persister)
	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = st.Initialize(initCtx)
	cancel()
	if err != nil {
		logger.Critical(fmt.Sprintf("Error inicializando el store: %v", err), "Main")
		os.Exit(1)
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			logger.Error(fmt.Sprintf("Error cerrando el store: %v", err), "Main")
		}
	}()

	// Initialize MQTT
	var publisher modlog.Publisher
	if cfg.MQTTEnabled {
		mqttClientID := "pancymod"
		if !cfg.IsProd() {
			mqttClientID = "pancymod_canary"
		}

		mqttClient := mqtt.Init(
			cfg.MQTTHost,
			cfg.MQTTPort,
			cfg.MQTTUser,
			cfg.MQTTPassword,
			mqttClientID,
		)
		defer mqttClient.Destroy()

		if err := mqttClient.ServeUsers(st); err != nil {
			logger.Warn(fmt.Sprintf("No se pudo atender %s: %v", mqtt.UserTopic, err), "Main")
		}
		publisher = mqttClient
	}

	modLog := modlog.New(cfg.LogChannelID, publisher, nil)
	messageFilter := filter.New(filter.NewDefaultLexicon(), cfg.FilterWhitelist)

	// Initialize Discord client
	discordClient, err = discord.Init(cfg.BotToken, discord.ClientOptions{
		OwnerID:  cfg.OwnerID,
		Cooldown: cfg.CommandCooldown,
	})
	if err != nil {
		logger.Critical(fmt.Sprintf("Error creating Discord client: %v", err), "Main")
		os.Exit(1)
	}

	// Initialize web server
	webServer, err := web.Init(web.Options{
		WebhookURL:   cfg.LogsWebServerHook,
		AllowedHosts: cfg.WebAllowedHosts,
	})
	if err != nil {
		logger.Critical(fmt.Sprintf("Error creando el servidor web: %v", err), "Main")
		os.Exit(1)
	}
	web.SetupAPIRoutes(webServer, web.API{Store: st, Bot: discordClient, Token: cfg.APIToken})
	webServer.StartAsync(cfg.Port)

	// Register commands using the commands package
	commands.RegisterAll(discordClient, commands.Deps{Store: st, ModLog: modLog})

	// Register events using the events package
	events.RegisterAll(discordClient, events.Deps{Filter: messageFilter, ModLog: modLog})

	// Start the bot
	if err := discordClient.Start(); err != nil {
		logger.Critical(fmt.Sprintf("Error starting Discord client: %v", err), "Main")
		os.Exit(1)
	}
	defer func() {
		if err := discordClient.Stop(); err != nil {
			logger.Error(fmt.Sprintf("Error deteniendo el cliente: %v", err), "Main")
		}
	}()

	logger.Success("PancyMod Go iniciado correctamente!", "Main")

	// Wait for interrupt signal
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	logger.System("Apagando PancyMod Go...", "Main")
}

// openPersister builds the persister selected by DB_BACKEND. The returned
// func releases the backend connection.
func openPersister(cfg *config.Config) (store.Persister, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendFile:
		logger.Info("Usando el archivo "+cfg.StorePath, "Store")
		return store.NewFilePersister(cfg.StorePath), func() {}, nil

	case config.BackendRedis:
		logger.Info("Usando Redis en "+cfg.RedisAddr, "Store")
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return store.NewRedisPersister(client, cfg.RedisKey), func() {}, nil

	case config.BackendMongo:
		db, err := database.Init(cfg.MongoDBURL, cfg.DBName)
		if err != nil {
			return nil, nil, err
		}
		closeDB := func() {
			if err := db.Disconnect(); err != nil {
				logger.Error(fmt.Sprintf("Error desconectando la base de datos: %v", err), "Main")
			}
		}
		return store.NewMongoPersister(db.GetCollection(database.StoreCollection), "pancymod"), closeDB, nil

	default:
		return nil, nil, fmt.Errorf("unknown DB_BACKEND %q", cfg.StoreBackend)
	}
}

// getCurrentDir returns the current working directory
func getCurrentDir() string {
	dir, err := os.Getwd()
	if err != nil {
		return "unknown"
	}
	return dir
}
