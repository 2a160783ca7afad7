package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nocturne-ai/aria/internal/router"
)

type HealthHandler struct {
	router *router.Router
}

func NewHealthHandler(r *router.Router) *HealthHandler {
	return &HealthHandler{router: r}
}

func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, h.router.Health())
}
