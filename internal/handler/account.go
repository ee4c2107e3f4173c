package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"casino-server/internal/middleware"
)

const betHistoryLimit = 50

// GetBalance returns the caller's current balance.
func (h *Handler) GetBalance(c *gin.Context) {
	userID := c.GetInt64(middleware.ContextUserID)

	balance, err := h.accounts.GetBalance(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": balance})
}

// ListBets returns the caller's bet history, newest first.
func (h *Handler) ListBets(c *gin.Context) {
	userID := c.GetInt64(middleware.ContextUserID)

	bets, err := h.accounts.ListBets(c.Request.Context(), userID, betHistoryLimit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bets)
}
