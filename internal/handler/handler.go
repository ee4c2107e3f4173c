// Package handler exposes the wagering services over HTTP. Request
// bodies are validated with binding tags before anything reaches a
// service; service errors map onto statuses in one place.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"casino-server/internal/game/blackjack"
	"casino-server/internal/game/dice"
	"casino-server/internal/game/mines"
	"casino-server/internal/middleware"
	"casino-server/internal/service"
)

// Handler carries the services behind the HTTP surface.
type Handler struct {
	accounts  *service.AccountService
	dice      *service.DiceService
	mines     *service.MinesService
	blackjack *service.BlackjackService
	logger    zerolog.Logger
}

// New creates a new Handler instance.
func New(
	accounts *service.AccountService,
	diceSvc *service.DiceService,
	minesSvc *service.MinesService,
	blackjackSvc *service.BlackjackService,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		accounts:  accounts,
		dice:      diceSvc,
		mines:     minesSvc,
		blackjack: blackjackSvc,
		logger:    logger.With().Str("component", "handler").Logger(),
	}
}

// RegisterRoutes mounts the authenticated API under /api.
func (h *Handler) RegisterRoutes(r gin.IRouter, jwtSecret string) {
	api := r.Group("/api")
	api.Use(middleware.Auth(jwtSecret), h.ensureAccount())

	api.GET("/balance", h.GetBalance)
	api.GET("/bets", h.ListBets)

	api.POST("/game/dice", h.PlayDice)
	api.POST("/game/mines/start", h.StartMines)
	api.POST("/game/mines/reveal", h.RevealMines)
	api.POST("/game/mines/cashout", h.CashOutMines)
	api.POST("/game/blackjack/deal", h.DealBlackjack)
	api.POST("/game/blackjack/hit", h.HitBlackjack)
	api.POST("/game/blackjack/stand", h.StandBlackjack)
}

// ensureAccount creates the caller's account with the starting balance
// on first sight, so every handler below sees an existing user.
func (h *Handler) ensureAccount() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetInt64(middleware.ContextUserID)
		username := c.GetString(middleware.ContextUsername)
		if _, err := h.accounts.EnsureUser(c.Request.Context(), userID, username); err != nil {
			h.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to ensure account")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
			return
		}
		c.Next()
	}
}

// respondError maps a service error onto an HTTP status. Session
// lookups by another user read as not found, so tokens cannot be
// probed.
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, dice.ErrInvalidBet),
		errors.Is(err, dice.ErrInvalidPrediction),
		errors.Is(err, dice.ErrInvalidTarget),
		errors.Is(err, dice.ErrNoWinningFaces),
		errors.Is(err, mines.ErrInvalidBet),
		errors.Is(err, mines.ErrInvalidMineCount),
		errors.Is(err, blackjack.ErrInvalidBet),
		errors.Is(err, service.ErrBetTooLarge),
		errors.Is(err, service.ErrCellOutOfRange),
		errors.Is(err, service.ErrCellRevealed),
		errors.Is(err, service.ErrSessionWrongGame):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	case errors.Is(err, service.ErrInsufficientBalance):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Insufficient balance"})
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrNotYourSession):
		c.JSON(http.StatusNotFound, gin.H{"message": "No active game session"})
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
	default:
		h.logger.Error().Err(err).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid game parameters", "details": err.Error()})
}
