package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prepview/prepview/internal/catalog"
)

// CatalogHandler serves the static configuration tables the client
// builds its setup screens from.
type CatalogHandler struct{}

func NewCatalogHandler() *CatalogHandler { return &CatalogHandler{} }

func (h *CatalogHandler) Topics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"topics": catalog.Topics()})
}

func (h *CatalogHandler) Companies(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"companies": catalog.Companies()})
}

func (h *CatalogHandler) Difficulties(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"difficulties": catalog.Difficulties()})
}

func (h *CatalogHandler) Achievements(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"achievements": catalog.Achievements})
}
