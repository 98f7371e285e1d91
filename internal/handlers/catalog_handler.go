package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/akylbek/payment-system/topup-store/internal/service"
)

type CatalogHandler struct {
	catalog *service.Catalog
}

func NewCatalogHandler(catalog *service.Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

func (h *CatalogHandler) Home(c *gin.Context) {
	games, vouchers, err := h.catalog.Home(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to load catalog.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"games": games, "vouchers": vouchers})
}

func (h *CatalogHandler) ListGames(c *gin.Context) {
	games, err := h.catalog.ListActiveGames(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to load games.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"games": games})
}

func (h *CatalogHandler) GetGame(c *gin.Context) {
	game, err := h.catalog.GetGameBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err, "Failed to load game.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"game": game})
}

func (h *CatalogHandler) ListVouchers(c *gin.Context) {
	vouchers, err := h.catalog.ListActiveVouchers(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to load vouchers.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"vouchers": vouchers})
}

func (h *CatalogHandler) GetVoucher(c *gin.Context) {
	voucher, err := h.catalog.GetVoucherBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err, "Failed to load voucher.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"voucher": voucher})
}
