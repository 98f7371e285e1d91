package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/akylbek/payment-system/topup-store/internal/service"
)

func transactionPath(id int64) string { return "/transactions/" + strconv.FormatInt(id, 10) }
func paymentPath(id int64) string     { return "/payments/" + strconv.FormatInt(id, 10) }
func receiptPath(id int64) string     { return "/payment-success/" + strconv.FormatInt(id, 10) }

type PaymentHandler struct {
	payments *service.PaymentSimulator
}

func NewPaymentHandler(payments *service.PaymentSimulator) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// Show is the checkout page. Transactions that can no longer be paid are
// redirected to their detail page.
func (h *PaymentHandler) Show(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	tx, payable, err := h.payments.Checkout(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, err, "Failed to load payment.")
		return
	}
	if !payable {
		c.Redirect(http.StatusSeeOther, transactionPath(tx.ID))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"transaction":     tx,
		"payment_methods": service.PaymentMethods,
	})
}

func (h *PaymentHandler) Pay(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var in service.PayInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}

	tx, outcome, err := h.payments.Pay(c.Request.Context(), id, userID, in)
	if err != nil {
		respondError(c, err, "Failed to process payment.")
		return
	}

	redirect := transactionPath(tx.ID)
	message := "This transaction has already been processed."
	switch outcome {
	case service.OutcomeSuccess:
		redirect = receiptPath(tx.ID)
		message = "Payment successful!"
	case service.OutcomeFailed:
		redirect = paymentPath(tx.ID)
		message = "Payment failed. Please try again."
	}
	c.JSON(http.StatusOK, gin.H{
		"transaction": tx,
		"outcome":     outcome,
		"message":     message,
		"redirect":    redirect,
	})
}

// Receipt is only shown for successful payments.
func (h *PaymentHandler) Receipt(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	tx, succeeded, err := h.payments.Receipt(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, err, "Failed to load receipt.")
		return
	}
	if !succeeded {
		c.Redirect(http.StatusSeeOther, transactionPath(tx.ID))
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction": tx})
}
