package v1

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nocturne-ai/aria/internal/server/middleware"
	"github.com/nocturne-ai/aria/internal/store"
	"github.com/nocturne-ai/aria/pkg/api"
)

// InteractionsHandler serves the persisted interaction history.
type InteractionsHandler struct {
	repo store.Repository
}

func NewInteractionsHandler(repo store.Repository) *InteractionsHandler {
	return &InteractionsHandler{repo: repo}
}

// Recent returns the caller's latest interactions, newest first.
func (h *InteractionsHandler) Recent(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 200 {
		_ = c.Error(api.BadRequestError("Invalid 'limit' parameter"))
		return
	}

	interactions, err := h.repo.Interactions().GetRecent(c.Request.Context(), middleware.UserID(c), limit)
	if err != nil {
		_ = c.Error(api.NewError(http.StatusInternalServerError,
			"Internal Server Error", "Failed to fetch interactions",
			api.WithLog(err)))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"object": "list",
		"data":   interactions,
	})
}

// Stats returns daily interaction volume for the last N days.
func (h *InteractionsHandler) Stats(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "7"))
	if err != nil || days < 1 || days > 365 {
		_ = c.Error(api.BadRequestError("Invalid 'days' parameter"))
		return
	}

	stats, err := h.repo.Interactions().GetDailyStats(c.Request.Context(), days)
	if err != nil {
		_ = c.Error(api.NewError(http.StatusInternalServerError,
			"Internal Server Error", "Failed to fetch stats",
			api.WithLog(err)))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"object": "list",
		"data":   stats,
	})
}
