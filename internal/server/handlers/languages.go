package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vzahanych/weather-page/internal/languages"
)

type LanguagesHandler struct {
	catalog *languages.Catalog
}

func NewLanguagesHandler(catalog *languages.Catalog) *LanguagesHandler {
	return &LanguagesHandler{catalog: catalog}
}

// List returns the language picker entries sorted by display name.
func (h *LanguagesHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.List())
}
