package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nocturne-ai/aria/internal/router"
	"github.com/nocturne-ai/aria/internal/server/middleware"
	"github.com/nocturne-ai/aria/internal/server/validator"
	"github.com/nocturne-ai/aria/pkg/api"
)

// GatewayHandler exposes the three routed operations.
type GatewayHandler struct {
	router    *router.Router
	validator *validator.Validator
}

func NewGatewayHandler(r *router.Router, v *validator.Validator) *GatewayHandler {
	return &GatewayHandler{router: r, validator: v}
}

func (h *GatewayHandler) Chat(c *gin.Context) {
	var req api.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(api.ValidationError(h.validator.ParseError(err)))
		return
	}

	opts := api.Options{
		Provider:    req.Provider,
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}

	resp := h.router.Chat(c.Request.Context(), middleware.UserID(c), req.Messages, opts)
	writeEnvelope(c, resp)
}

func (h *GatewayHandler) Draw(c *gin.Context) {
	var req api.DrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(api.ValidationError(h.validator.ParseError(err)))
		return
	}

	opts := api.Options{
		Provider: req.Provider,
		Model:    req.Model,
		Size:     req.Size,
		Quality:  req.Quality,
		N:        req.N,
	}

	resp := h.router.Draw(c.Request.Context(), middleware.UserID(c), req.Prompt, opts)
	writeEnvelope(c, resp)
}

func (h *GatewayHandler) Speak(c *gin.Context) {
	var req api.SpeakRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(api.ValidationError(h.validator.ParseError(err)))
		return
	}

	opts := api.Options{
		Provider:        req.Provider,
		Model:           req.Model,
		Voice:           req.Voice,
		Stability:       req.Stability,
		SimilarityBoost: req.SimilarityBoost,
	}

	resp := h.router.Speak(c.Request.Context(), middleware.UserID(c), req.Text, opts)
	writeEnvelope(c, resp)
}

// writeEnvelope maps the uniform envelope onto HTTP: the body is always
// the envelope, the status reflects the outcome.
func writeEnvelope(c *gin.Context, resp *api.Response) {
	if resp.Success {
		c.JSON(http.StatusOK, resp)
		return
	}
	c.JSON(http.StatusBadGateway, resp)
}
