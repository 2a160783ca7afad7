package store

import (
	"context"

	"github.com/nocturne-ai/aria/internal/store/model"
)

// Repository is the main contract for the data layer.
type Repository interface {
	Interactions() InteractionRepository

	Close() error
}

type InteractionRepository interface {
	// Log stores a completed interaction.
	Log(ctx context.Context, in *model.Interaction) error
	// GetRecent returns the last N interactions for a user.
	GetRecent(ctx context.Context, userID string, limit int) ([]model.Interaction, error)
	// GetDailyStats returns aggregated volume grouped by day.
	GetDailyStats(ctx context.Context, days int) ([]model.DailyStats, error)
}
