// Package web provides API routes for the web server.
package web

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/PancyStudios/PancyModGo/pkg/store"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// requestTimeout bounds the store calls of a single request.
const requestTimeout = 5 * time.Second

// UserStore is the part of the record store exposed over HTTP.
type UserStore interface {
	GetUser(ctx context.Context, id string) (*models.UserRecord, error)
	SaveUserData(ctx context.Context, id string, patch models.UserPatch) (*models.UserRecord, error)
	ResetUser(ctx context.Context, id string) (*models.UserRecord, error)
	Count(ctx context.Context) (int, error)
}

// BotStatus reports the state of the Discord connection.
type BotStatus interface {
	IsReady() bool
	GuildCount() int
}

// API holds what the routes serve. Bot may be nil.
type API struct {
	Store UserStore
	Bot   BotStatus
	// Token guards the mutating routes. They are disabled when it is empty.
	Token string
}

// SetupAPIRoutes sets up the API routes
func SetupAPIRoutes(s *Server, a API) {
	api := s.Group("/api")
	{
		api.GET("/status", a.statusHandler)
		api.GET("/health", healthHandler)
		api.GET("/users/:id", a.getUserHandler)

		write := api.Group("", a.authMiddleware())
		write.PATCH("/users/:id", a.patchUserHandler)
		write.POST("/users/:id/reset", a.resetUserHandler)
	}

	s.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// authMiddleware requires "Authorization: Bearer <token>"
func (a API) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if a.Token == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"error":   "Service Unavailable",
				"message": "La API de escritura está deshabilitada.",
			})
			return
		}

		given, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(given), []byte(a.Token)) != 1 {
			logger.Warn(fmt.Sprintf("Token inválido desde %s", c.ClientIP()), "WebServer")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "Unauthorized",
				"message": "Token inválido o ausente.",
			})
			return
		}

		c.Next()
	}
}

// statusHandler returns the bot and store status
func (a API) statusHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	records, err := a.Store.Count(ctx)
	storeOnline := err == nil

	botOnline, guilds := false, 0
	if a.Bot != nil {
		botOnline = a.Bot.IsReady()
		guilds = a.Bot.GuildCount()
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"store": gin.H{
			"isOnline": storeOnline,
			"records":  records,
		},
		"bot": gin.H{
			"isOnline": botOnline,
			"guilds":   guilds,
		},
	})
}

// healthHandler returns a simple health check response
func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "PancyMod Go is running",
	})
}

// getUserHandler returns a stored record without creating it
func (a API) getUserHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	record, err := a.Store.GetUser(ctx, c.Param("id"))
	if err != nil {
		storeError(c, err)
		return
	}
	if record == nil {
		notFound(c)
		return
	}
	c.JSON(http.StatusOK, record)
}

// patchUserHandler merges a partial record. A null value resets a field.
func (a API) patchUserHandler(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		badRequest(c, err)
		return
	}
	patch, err := models.DecodeUserPatch(body)
	if err != nil {
		badRequest(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	record, err := a.Store.SaveUserData(ctx, c.Param("id"), patch)
	if err != nil {
		storeError(c, err)
		return
	}
	logger.Info(fmt.Sprintf("Usuario %s actualizado vía API", record.ID), "WebServer")
	c.JSON(http.StatusOK, record)
}

// resetUserHandler puts a record back to its defaults
func (a API) resetUserHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	record, err := a.Store.ResetUser(ctx, c.Param("id"))
	if err != nil {
		storeError(c, err)
		return
	}
	logger.Info(fmt.Sprintf("Usuario %s reiniciado vía API", record.ID), "WebServer")
	c.JSON(http.StatusOK, record)
}

func storeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		notFound(c)
	case errors.Is(err, store.ErrInvalidArgument):
		badRequest(c, err)
	default:
		logger.Error(fmt.Sprintf("Error del store en %s: %v", c.Request.URL.Path, err), "WebServer")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal Server Error",
			"message": "No se pudo completar la operación.",
		})
	}
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{
		"error":   "Not Found",
		"message": "El usuario no existe.",
	})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Bad Request",
		"message": err.Error(),
	})
}
