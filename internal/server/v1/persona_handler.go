package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nocturne-ai/aria/internal/memory"
	"github.com/nocturne-ai/aria/internal/server/middleware"
	"github.com/nocturne-ai/aria/internal/server/validator"
	"github.com/nocturne-ai/aria/pkg/api"
)

// PersonaHandler manages the per-user persona used to open every chat.
type PersonaHandler struct {
	memory    *memory.Service
	validator *validator.Validator
}

func NewPersonaHandler(m *memory.Service, v *validator.Validator) *PersonaHandler {
	return &PersonaHandler{memory: m, validator: v}
}

type personaRequest struct {
	Persona string `json:"persona" binding:"required"`
}

func (h *PersonaHandler) Get(c *gin.Context) {
	persona := h.memory.Persona(c.Request.Context(), middleware.UserID(c))
	c.JSON(http.StatusOK, gin.H{"persona": persona})
}

func (h *PersonaHandler) Set(c *gin.Context) {
	var req personaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(api.ValidationError(h.validator.ParseError(err)))
		return
	}

	if err := h.memory.SetPersona(c.Request.Context(), middleware.UserID(c), req.Persona); err != nil {
		_ = c.Error(api.NewError(http.StatusInternalServerError,
			"Internal Server Error", "Failed to store persona",
			api.WithLog(err)))
		return
	}

	c.JSON(http.StatusOK, gin.H{"persona": req.Persona})
}

// Forget drops the caller's persona and remembered conversation context.
func (h *PersonaHandler) Forget(c *gin.Context) {
	if err := h.memory.Forget(c.Request.Context(), middleware.UserID(c)); err != nil {
		_ = c.Error(api.NewError(http.StatusInternalServerError,
			"Internal Server Error", "Failed to clear user memory",
			api.WithLog(err)))
		return
	}
	c.Status(http.StatusNoContent)
}
