package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/akylbek/payment-system/topup-store/internal/service"
)

type TransactionHandler struct {
	ledger *service.Ledger
}

func NewTransactionHandler(ledger *service.Ledger) *TransactionHandler {
	return &TransactionHandler{ledger: ledger}
}

// List returns the caller's transactions, optionally filtered by ?status=.
func (h *TransactionHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	status := c.DefaultQuery("status", service.StatusFilterAll)
	txs, meta, err := h.ledger.List(c.Request.Context(), userID, status, pageParam(c))
	if err != nil {
		respondError(c, err, "Failed to load transactions.")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"transactions": txs,
		"status":       status,
		"meta":         meta,
	})
}

func (h *TransactionHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var in service.CreateTransactionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}

	tx, err := h.ledger.Create(c.Request.Context(), userID, in)
	if err != nil {
		respondError(c, err, "Failed to create transaction. Please try again.")
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"transaction": tx,
		"redirect":    paymentPath(tx.ID),
	})
}

func (h *TransactionHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	tx, err := h.ledger.Get(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, err, "Failed to load transaction.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction": tx})
}
