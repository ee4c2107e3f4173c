package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"casino-server/internal/middleware"
	"casino-server/internal/model"
	"casino-server/internal/service"
)

type diceRequest struct {
	BetAmount   int64            `json:"betAmount" binding:"required"`
	Prediction  model.Prediction `json:"prediction" binding:"required"`
	TargetValue int              `json:"targetValue" binding:"required"`
}

// PlayDice settles a single dice wager.
func (h *Handler) PlayDice(c *gin.Context) {
	userID := c.GetInt64(middleware.ContextUserID)

	var req diceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	out, err := h.dice.Play(c.Request.Context(), userID, req.BetAmount, req.Prediction, req.TargetValue)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"result":     out.Result,
		"profit":     out.Profit,
		"newBalance": out.Balance,
		"win":        out.Win,
	})
}

type minesStartRequest struct {
	BetAmount int64 `json:"betAmount" binding:"required"`
	MineCount int   `json:"mineCount" binding:"required"`
}

// StartMines opens a mines round and escrows the bet.
func (h *Handler) StartMines(c *gin.Context) {
	userID := c.GetInt64(middleware.ContextUserID)

	var req minesStartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	out, err := h.mines.Start(c.Request.Context(), userID, req.BetAmount, req.MineCount)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sessionId":     out.SessionID,
		"mineCount":     out.MineCount,
		"tilesRevealed": 0,
		"multiplier":    out.Multiplier,
		"newBalance":    out.Balance,
	})
}

type minesRevealRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
	TileIndex *int   `json:"tileIndex" binding:"required"`
}

// RevealMines uncovers one tile of an open round.
func (h *Handler) RevealMines(c *gin.Context) {
	userID := c.GetInt64(middleware.ContextUserID)

	var req minesRevealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	out, err := h.mines.Reveal(c.Request.Context(), userID, req.SessionID, *req.TileIndex)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if out.Exploded {
		c.JSON(http.StatusOK, gin.H{
			"hitMine":       true,
			"minePositions": out.MinePositions,
			"profit":        out.Profit,
			"newBalance":    out.Balance,
			"win":           false,
		})
		return
	}
	if out.Settled {
		// Revealing the last safe cell cashes the round out.
		c.JSON(http.StatusOK, gin.H{
			"hitMine":       false,
			"minePositions": out.MinePositions,
			"tilesRevealed": len(out.RevealedPositions),
			"multiplier":    out.Multiplier,
			"profit":        out.Profit,
			"newBalance":    out.Balance,
			"win":           true,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"hitMine":         false,
		"tilesRevealed":   len(out.RevealedPositions),
		"multiplier":      out.Multiplier,
		"potentialPayout": out.PotentialProfit,
	})
}

type minesCashOutRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
}

// CashOutMines settles an open round at the current multiplier.
func (h *Handler) CashOutMines(c *gin.Context) {
	userID := c.GetInt64(middleware.ContextUserID)

	var req minesCashOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	out, err := h.mines.CashOut(c.Request.Context(), userID, req.SessionID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"minePositions": out.MinePositions,
		"multiplier":    out.Multiplier,
		"profit":        out.Profit,
		"newBalance":    out.Balance,
		"win":           true,
	})
}

type blackjackDealRequest struct {
	BetAmount int64 `json:"betAmount" binding:"required"`
}

type blackjackSessionRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
}

func blackjackResponse(out *service.BlackjackState) gin.H {
	resp := gin.H{
		"playerCards": out.PlayerCards,
		"dealerCards": out.DealerCards,
		"playerScore": out.PlayerScore,
		"dealerScore": out.DealerScore,
		"gameOver":    out.Done,
	}
	if out.Done {
		resp["result"] = out.Result
		resp["profit"] = out.Profit
		resp["newBalance"] = out.Balance
	} else {
		resp["sessionId"] = out.SessionID
	}
	return resp
}

// DealBlackjack starts a hand.
func (h *Handler) DealBlackjack(c *gin.Context) {
	userID := c.GetInt64(middleware.ContextUserID)

	var req blackjackDealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	out, err := h.blackjack.Deal(c.Request.Context(), userID, req.BetAmount)
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := blackjackResponse(out)
	if !out.Done {
		resp["newBalance"] = out.Balance
	}
	c.JSON(http.StatusOK, resp)
}

// HitBlackjack draws one card on an open hand.
func (h *Handler) HitBlackjack(c *gin.Context) {
	userID := c.GetInt64(middleware.ContextUserID)

	var req blackjackSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	out, err := h.blackjack.Hit(c.Request.Context(), userID, req.SessionID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, blackjackResponse(out))
}

// StandBlackjack finishes the player's turn and settles the hand.
func (h *Handler) StandBlackjack(c *gin.Context) {
	userID := c.GetInt64(middleware.ContextUserID)

	var req blackjackSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	out, err := h.blackjack.Stand(c.Request.Context(), userID, req.SessionID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, blackjackResponse(out))
}
