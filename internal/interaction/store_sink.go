package interaction

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/nocturne-ai/aria/internal/store"
	"github.com/nocturne-ai/aria/internal/store/model"
)

// StoreSink persists records into the interaction repository.
type StoreSink struct {
	repo store.Repository
}

func NewStoreSink(repo store.Repository) *StoreSink {
	return &StoreSink{repo: repo}
}

func marshalOrEmpty(v any) string {
	if v == nil {
		return ""
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

func (s *StoreSink) WriteSuccess(ctx context.Context, rec *Record) error {
	return s.repo.Interactions().Log(ctx, &model.Interaction{
		ID:         uuid.NewString(),
		UserID:     rec.UserID,
		Endpoint:   rec.Endpoint,
		Provider:   rec.Provider,
		Model:      rec.Model,
		Success:    true,
		DurationMS: rec.DurationMS,
		Request:    marshalOrEmpty(rec.Request),
		Response:   marshalOrEmpty(rec.Response),
		CreatedAt:  rec.Timestamp,
	})
}

func (s *StoreSink) WriteError(ctx context.Context, rec *ErrorRecord) error {
	return s.repo.Interactions().Log(ctx, &model.Interaction{
		ID:        uuid.NewString(),
		UserID:    rec.UserID,
		Endpoint:  rec.Endpoint,
		Success:   false,
		Error:     rec.Error,
		Request:   marshalOrEmpty(rec.Details),
		CreatedAt: rec.Timestamp,
	})
}
