package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/akylbek/payment-system/topup-store/internal/service"
)

// AdminGameHandler serves /admin/games. Any authenticated user may use it.
type AdminGameHandler struct {
	catalog *service.Catalog
}

func NewAdminGameHandler(catalog *service.Catalog) *AdminGameHandler {
	return &AdminGameHandler{catalog: catalog}
}

func (h *AdminGameHandler) List(c *gin.Context) {
	games, meta, err := h.catalog.ListGames(c.Request.Context(), pageParam(c))
	if err != nil {
		respondError(c, err, "Failed to load games.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"games": games, "meta": meta})
}

func (h *AdminGameHandler) Show(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	game, err := h.catalog.GetGame(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to load game.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"game": game})
}

func (h *AdminGameHandler) Create(c *gin.Context) {
	var in service.GameInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}

	game, err := h.catalog.CreateGame(c.Request.Context(), in)
	if err != nil {
		respondError(c, err, "Failed to create game.")
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"game":    game,
		"message": "Game created successfully.",
	})
}

func (h *AdminGameHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in service.GameInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}

	game, err := h.catalog.UpdateGame(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err, "Failed to update game.")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"game":    game,
		"message": "Game updated successfully.",
	})
}

func (h *AdminGameHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteGame(c.Request.Context(), id); err != nil {
		respondError(c, err, "Failed to delete game.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Game deleted successfully."})
}
